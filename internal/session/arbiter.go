package session

import "context"

// Submit is the single entry point for finalization. The first trigger to
// move the session from Arming to Finalizing runs the finalize sequence and
// gets (result, true); every other caller, concurrent or late, gets
// (Result{}, false) and causes no side effects.
//
// RouteChange only competes when at least one answer exists, so an
// untouched session never produces a report.
func (s *Session) Submit(ctx context.Context, trig Trigger) (Result, bool) {
	if !s.claim(trig) {
		return Result{}, false
	}
	return s.finalize(ctx, trig), true
}

// SubmitDetached claims synchronously and finalizes on its own goroutine
// with a context that outlives the caller. Used while the page is being
// torn down, where nobody can wait for the result.
func (s *Session) SubmitDetached(ctx context.Context, trig Trigger) bool {
	if !s.claim(trig) {
		return false
	}
	go s.finalize(context.WithoutCancel(ctx), trig)
	return true
}

// claim is the check-and-set. Nothing between the guard and the CAS may
// block.
func (s *Session) claim(trig Trigger) bool {
	if trig == TriggerRouteChange && (s.State() != StateArming || s.answeredCount() == 0) {
		s.log.Debug("route change ignored", "state", s.State().String())
		return false
	}
	if !s.state.CompareAndSwap(int32(StateArming), int32(StateFinalizing)) {
		s.log.Debug("trigger lost arbitration", "trigger", string(trig), "state", s.State().String())
		return false
	}
	return true
}
