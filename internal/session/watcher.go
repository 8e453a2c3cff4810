package session

import (
	"context"
	"time"
)

// FullscreenEntered records that the client is in fullscreen mode.
func (s *Session) FullscreenEntered() {
	s.mu.Lock()
	s.fullscreen = true
	s.mu.Unlock()
}

// SuppressFullscreenExit arms the one-shot flag for an exit the app itself
// is about to perform. The next fullscreen exit within the window is
// treated as programmatic and does not submit.
func (s *Session) SuppressFullscreenExit() {
	s.mu.Lock()
	s.suppressUntil = s.now().Add(s.opts.SuppressWindow)
	s.mu.Unlock()
}

// FullscreenExited handles the client leaving fullscreen. Unless the exit
// was suppressed, it competes for finalization first and runs the exit
// cleanup afterwards whatever the outcome.
func (s *Session) FullscreenExited(ctx context.Context) (Result, bool) {
	if s.consumeSuppression() {
		s.log.Debug("programmatic fullscreen exit ignored")
		s.leaveFullscreen()
		return Result{}, false
	}
	res, won := s.Submit(ctx, TriggerFullscreenEscape)
	s.leaveFullscreen()
	return res, won
}

// RouteChanged is the navigation-away channel.
func (s *Session) RouteChanged(ctx context.Context) (Result, bool) {
	return s.Submit(ctx, TriggerRouteChange)
}

// PageUnloading is the page-close channel; it never waits for finalization.
func (s *Session) PageUnloading(ctx context.Context) bool {
	return s.SubmitDetached(ctx, TriggerPageUnload)
}

// SubmitByUser is the submit button. The client leaves fullscreen right
// after clicking, so that exit is suppressed before competing.
func (s *Session) SubmitByUser(ctx context.Context) (Result, bool) {
	s.mu.Lock()
	fs := s.fullscreen
	s.mu.Unlock()
	if fs {
		s.SuppressFullscreenExit()
	}
	return s.Submit(ctx, TriggerUserAction)
}

func (s *Session) consumeSuppression() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	until := s.suppressUntil
	s.suppressUntil = time.Time{}
	return !until.IsZero() && !s.now().After(until)
}

func (s *Session) leaveFullscreen() {
	s.mu.Lock()
	was := s.fullscreen
	s.fullscreen = false
	s.mu.Unlock()
	if was {
		s.emit(Event{Type: EventFullscreenLeft})
	}
}
