package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/report"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type countingSink struct {
	mu    sync.Mutex
	subs  []report.Submission
	block chan struct{}
}

func (s *countingSink) Deliver(ctx context.Context, sub report.Submission) {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
		}
	}
	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.mu.Unlock()
}

func (s *countingSink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *countingSink) Last() report.Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subs[len(s.subs)-1]
}

type reviewCall struct {
	question int
	correct  bool
}

type recordingReviews struct {
	mu    sync.Mutex
	calls []reviewCall
}

func (r *recordingReviews) RecordAnswer(_ context.Context, _, _ string, q int, correct bool) error {
	r.mu.Lock()
	r.calls = append(r.calls, reviewCall{q, correct})
	r.mu.Unlock()
	return nil
}

func sampleQuiz() quiz.Quiz {
	return quiz.Quiz{
		ID:          "q1",
		Title:       "Capitals",
		Category:    "geography",
		DurationMin: 1,
		TotalMarks:  30,
		Questions: []quiz.Question{
			{Question: "France?", Options: []string{"Paris", "Lyon", "Nice", "Lille"}, CorrectAnswer: "A"},
			{Question: "Italy?", Options: []string{"Milan", "Rome", "Turin", "Pisa"}, CorrectAnswer: "B"},
			{Question: "Spain?", Options: []string{"Seville", "Bilbao", "Madrid", "Vigo"}, CorrectAnswer: "C"},
		},
	}
}

// newArmed returns a started, armed session whose ticker never fires on
// its own; tests drive the countdown with timer.Tick.
func newArmed(t *testing.T, sink ReportSink, clk *fakeClock) *Session {
	t.Helper()
	if clk == nil {
		clk = newFakeClock()
	}
	s := New(Options{
		Username:     "ada",
		Quiz:         sampleQuiz(),
		TickInterval: time.Hour,
		Now:          clk.Now,
		Sink:         sink,
	})
	s.Start()
	t.Cleanup(s.Close)
	if s.State() != StateArming {
		t.Fatalf("state = %s, want arming", s.State())
	}
	return s
}

func waitDone(t *testing.T, s *Session) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not finish")
	}
}
