package session

type EventType string

const (
	EventArmed          EventType = "armed"
	EventTick           EventType = "tick"
	EventExpired        EventType = "expired"
	EventResult         EventType = "result"
	EventExitFullscreen EventType = "exit_fullscreen" // ask the client to leave fullscreen
	EventFullscreenLeft EventType = "fullscreen_left"
)

type Event struct {
	Type     EventType `json:"type"`
	TimeLeft int       `json:"timeLeft,omitempty"`
	Result   *Result   `json:"result,omitempty"`
}

// Subscribe registers fn for session events until the returned func is
// called or the session is closed. fn runs on the emitting goroutine and
// must not block.
func (s *Session) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if s.subsClosed {
		return func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if s.subs != nil {
			delete(s.subs, id)
		}
	}
}

func (s *Session) subscriberCount() int {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	return len(s.subs)
}

func (s *Session) emit(ev Event) {
	s.subMu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}
