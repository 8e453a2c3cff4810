package session

import (
	"context"
	"sync"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/logger"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

// Manager owns the live sessions of the process. Starting a quiz the user
// already has open replaces the old attempt, the way navigating back into
// the quiz page does.
type Manager struct {
	tmpl   Options
	retain time.Duration
	log    *logger.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	byUser   map[string]string // username|quizID -> session id
}

// NewManager uses tmpl for every session it starts; ID, Username and Quiz
// are filled per call. Finished sessions are kept for retain so clients can
// still fetch their result.
func NewManager(tmpl Options, retain time.Duration) *Manager {
	if tmpl.Log == nil {
		tmpl.Log = logger.Nop()
	}
	if tmpl.Now == nil {
		tmpl.Now = time.Now
	}
	return &Manager{
		tmpl:     tmpl,
		retain:   retain,
		log:      tmpl.Log,
		sessions: map[string]*Session{},
		byUser:   map[string]string{},
	}
}

func userKey(username, quizID string) string { return username + "|" + quizID }

func (m *Manager) Start(ctx context.Context, username string, q quiz.Quiz) *Session {
	opts := m.tmpl
	opts.ID = ""
	opts.Username = username
	opts.Quiz = q
	s := New(opts)

	m.mu.Lock()
	var prev *Session
	if id, ok := m.byUser[userKey(username, q.ID)]; ok {
		prev = m.sessions[id]
		delete(m.sessions, id)
	}
	m.sessions[s.ID()] = s
	m.byUser[userKey(username, q.ID)] = s.ID()
	m.mu.Unlock()

	if prev != nil {
		m.log.Info("replacing open attempt", "previous", prev.ID(), "session_id", s.ID())
		prev.RouteChanged(ctx)
		prev.Close()
	}
	s.Start()
	return s
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Discard is the user leaving the quiz: a session with answers is
// submitted as a route change, then released.
func (m *Manager) Discard(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		m.removeLocked(s)
	}
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	s.RouteChanged(ctx)
	s.Close()
	return nil
}

func (m *Manager) removeLocked(s *Session) {
	delete(m.sessions, s.ID())
	k := userKey(s.Username(), s.QuizID())
	if m.byUser[k] == s.ID() {
		delete(m.byUser, k)
	}
}

// Reap drops sessions that finished more than retain ago and returns how
// many were removed.
func (m *Manager) Reap(now time.Time) int {
	var victims []*Session
	m.mu.Lock()
	for _, s := range m.sessions {
		if at, ok := s.doneSince(); ok && now.Sub(at) >= m.retain {
			m.removeLocked(s)
			victims = append(victims, s)
		}
	}
	m.mu.Unlock()
	for _, s := range victims {
		s.Close()
	}
	if len(victims) > 0 {
		m.log.Debug("reaped sessions", "count", len(victims))
	}
	return len(victims)
}

func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.Reap(m.tmpl.Now())
		}
	}
}

// Shutdown submits every armed session with answers as a page unload and
// waits for those finalizations until ctx ends.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.Unlock()

	for _, s := range all {
		if s.State() == StateArming && s.answeredCount() > 0 {
			s.PageUnloading(ctx)
		}
	}
	for _, s := range all {
		if s.State() >= StateFinalizing {
			select {
			case <-s.Done():
			case <-ctx.Done():
				return
			}
		}
		s.Close()
	}
	// review writes run off the request path; let them land before the
	// caller closes the database
	for _, s := range all {
		if !s.waitReviews(ctx) {
			m.log.Warn("shutdown left review writes pending", "session_id", s.ID())
			return
		}
	}
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
