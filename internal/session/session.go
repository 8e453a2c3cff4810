package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-quiz/internal/grading"
	"github.com/mind-engage/mindengage-quiz/internal/logger"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/report"
)

// ReportSink receives the finalized submission. Deliver is best-effort and
// must return once every persistence target has been attempted.
type ReportSink interface {
	Deliver(ctx context.Context, sub report.Submission)
}

// ReviewRecorder takes the spaced-repetition quality signal for an answer.
type ReviewRecorder interface {
	RecordAnswer(ctx context.Context, username, quizID string, question int, correct bool) error
}

type Options struct {
	ID       string
	Username string
	Quiz     quiz.Quiz // full quiz including answer keys

	GracePeriod     time.Duration
	SuppressWindow  time.Duration
	FinalizeTimeout time.Duration
	TickInterval    time.Duration

	Now     Clock
	Sink    ReportSink
	Reviews ReviewRecorder
	Grader  grading.Grader
	Log     *logger.Logger
}

func (o Options) withDefaults() Options {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.TickInterval <= 0 {
		o.TickInterval = time.Second
	}
	if o.SuppressWindow <= 0 {
		o.SuppressWindow = 100 * time.Millisecond
	}
	if o.FinalizeTimeout <= 0 {
		o.FinalizeTimeout = 15 * time.Second
	}
	if o.Grader == nil {
		o.Grader = grading.NewDefaultGrader()
	}
	if o.Log == nil {
		o.Log = logger.Nop()
	}
	return o
}

// Session is one attempt at one quiz. Every trigger path converges on
// Submit, which lets exactly one caller finalize.
type Session struct {
	opts  Options
	quiz  quiz.Quiz
	log   *logger.Logger
	now   Clock
	timer *Timer

	state atomic.Int32

	mu            sync.Mutex
	answers       map[int]int
	answerTimes   map[int]float64
	current       int
	enteredAt     time.Time
	fullscreen    bool
	suppressUntil time.Time
	reason        string
	trigger       Trigger
	result        *Result
	createdAt     time.Time
	doneAt        time.Time
	stop          context.CancelFunc
	grace         *time.Timer

	subMu      sync.Mutex
	subs       map[uint64]func(Event)
	nextSub    uint64
	subsClosed bool

	startOnce sync.Once
	closeOnce sync.Once
	done      chan struct{}
	reviews   sync.WaitGroup
}

func New(opts Options) *Session {
	opts = opts.withDefaults()
	now := opts.Now()
	s := &Session{
		opts:        opts,
		quiz:        opts.Quiz,
		now:         opts.Now,
		log:         opts.Log.With("session_id", opts.ID, "quiz_id", opts.Quiz.ID, "username", opts.Username),
		answers:     map[int]int{},
		answerTimes: map[int]float64{},
		enteredAt:   now,
		createdAt:   now,
		subs:        map[uint64]func(Event){},
		done:        make(chan struct{}),
	}
	s.timer = NewTimer(opts.Quiz.DurationSeconds(), opts.Now)
	s.timer.OnTick(func(left int) {
		s.emit(Event{Type: EventTick, TimeLeft: left})
	})
	s.timer.OnExpire(func() {
		s.emit(Event{Type: EventExpired})
		s.Submit(context.Background(), TriggerTimeExpired)
	})
	return s
}

// Start begins the countdown and schedules arming after the grace period.
func (s *Session) Start() {
	s.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		s.mu.Lock()
		s.stop = cancel
		if s.opts.GracePeriod > 0 {
			s.grace = time.AfterFunc(s.opts.GracePeriod, s.Arm)
		}
		s.mu.Unlock()
		if s.opts.GracePeriod <= 0 {
			s.Arm()
		}
		go s.timer.Run(ctx, s.opts.TickInterval)
	})
}

// Arm ends the grace period; from here on triggers may finalize.
func (s *Session) Arm() {
	if s.state.CompareAndSwap(int32(StateIdle), int32(StateArming)) {
		s.log.Debug("session armed")
		s.emit(Event{Type: EventArmed})
	}
}

// Close releases the timer loop, the grace timer and every subscriber.
// It does not submit; callers decide which trigger, if any, applies.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.startOnce.Do(func() {})
		s.mu.Lock()
		stop, grace := s.stop, s.grace
		s.mu.Unlock()
		if stop != nil {
			stop()
		}
		if grace != nil {
			grace.Stop()
		}
		s.subMu.Lock()
		s.subs = nil
		s.subsClosed = true
		s.subMu.Unlock()
	})
}

// waitReviews blocks until in-flight review writes finish or ctx ends.
func (s *Session) waitReviews(ctx context.Context) bool {
	done := make(chan struct{})
	go func() {
		s.reviews.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Session) ID() string            { return s.opts.ID }
func (s *Session) Username() string      { return s.opts.Username }
func (s *Session) QuizID() string        { return s.quiz.ID }
func (s *Session) State() State          { return State(s.state.Load()) }
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) closedLocked() bool {
	return s.State() >= StateFinalizing
}

// SelectAnswer records option for question, replacing any earlier choice,
// and sends the review signal without waiting for it.
func (s *Session) SelectAnswer(question, option int) error {
	s.mu.Lock()
	if s.closedLocked() {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if question < 0 || question >= len(s.quiz.Questions) {
		s.mu.Unlock()
		return ErrQuestionOutOfRange
	}
	qq := s.quiz.Questions[question]
	if option < 0 || option >= len(qq.Options) {
		s.mu.Unlock()
		return ErrOptionOutOfRange
	}
	s.answers[question] = option
	s.mu.Unlock()

	s.signalReview(question, gradeOne(context.Background(), s.opts.Grader, qq, option))
	return nil
}

func (s *Session) ClearAnswer(question int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closedLocked() {
		return ErrSessionClosed
	}
	if question < 0 || question >= len(s.quiz.Questions) {
		return ErrQuestionOutOfRange
	}
	delete(s.answers, question)
	return nil
}

func (s *Session) signalReview(question int, correct bool) {
	if s.opts.Reviews == nil {
		return
	}
	s.reviews.Add(1)
	go func() {
		defer s.reviews.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.opts.Reviews.RecordAnswer(ctx, s.opts.Username, s.quiz.ID, question, correct); err != nil {
			s.log.Warn("review signal failed", "question", question, "error", err)
		}
	}()
}

// Next and Previous are no-ops past either end.
func (s *Session) Next() (int, error)     { return s.move(func(c int) int { return c + 1 }, false) }
func (s *Session) Previous() (int, error) { return s.move(func(c int) int { return c - 1 }, false) }

// GoTo jumps straight to question; out-of-range targets are an error.
func (s *Session) GoTo(question int) (int, error) {
	return s.move(func(int) int { return question }, true)
}

func (s *Session) move(target func(current int) int, strict bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closedLocked() {
		return s.current, ErrSessionClosed
	}
	to := target(s.current)
	if to < 0 || to >= len(s.quiz.Questions) {
		if strict {
			return s.current, ErrQuestionOutOfRange
		}
		return s.current, nil
	}
	if to == s.current {
		return s.current, nil
	}
	s.flushLocked(s.now())
	s.current = to
	return s.current, nil
}

// flushLocked adds the time spent on the current question since it was
// entered and restarts the marker.
func (s *Session) flushLocked(now time.Time) {
	if elapsed := now.Sub(s.enteredAt).Seconds(); elapsed > 0 {
		s.answerTimes[s.current] += elapsed
	}
	s.enteredAt = now
}

// Pause, Resume and Toggle are refused once submission has started.
func (s *Session) Pause() bool {
	if s.State() >= StateFinalizing {
		return false
	}
	return s.timer.Pause()
}

func (s *Session) Resume() bool {
	if s.State() >= StateFinalizing {
		return false
	}
	return s.timer.Resume()
}

func (s *Session) Toggle() bool {
	if s.State() >= StateFinalizing {
		return s.timer.Paused()
	}
	return s.timer.Toggle()
}

func (s *Session) answeredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answers)
}

// View is a point-in-time copy of the session for API responses.
type View struct {
	ID               string          `json:"id"`
	QuizID           string          `json:"quizId"`
	Username         string          `json:"username"`
	State            State           `json:"state"`
	CurrentQuestion  int             `json:"currentQuestionIndex"`
	QuestionCount    int             `json:"questionCount"`
	TimeLeftSeconds  int             `json:"timeLeftSeconds"`
	TimerPaused      bool            `json:"timerPaused"`
	PausedAt         *time.Time      `json:"pausedAt,omitempty"`
	Answers          map[int]int     `json:"answers"`
	AnswerTimes      map[int]float64 `json:"answerTimes"`
	AutoSubmitReason string          `json:"autoSubmitReason,omitempty"`
	Result           *Result         `json:"result,omitempty"`
}

func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		ID:               s.opts.ID,
		QuizID:           s.quiz.ID,
		Username:         s.opts.Username,
		State:            s.State(),
		CurrentQuestion:  s.current,
		QuestionCount:    len(s.quiz.Questions),
		TimeLeftSeconds:  s.timer.Left(),
		TimerPaused:      s.timer.Paused(),
		PausedAt:         s.timer.PausedAt(),
		Answers:          make(map[int]int, len(s.answers)),
		AnswerTimes:      make(map[int]float64, len(s.answerTimes)),
		AutoSubmitReason: s.reason,
	}
	for k, a := range s.answers {
		v.Answers[k] = a
	}
	for k, t := range s.answerTimes {
		v.AnswerTimes[k] = t
	}
	if s.result != nil {
		r := *s.result
		v.Result = &r
	}
	return v
}

// Result returns the finalized result once finalization has computed it.
func (s *Session) Result() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return Result{}, false
	}
	return *s.result, true
}

func (s *Session) doneSince() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doneAt, !s.doneAt.IsZero()
}
