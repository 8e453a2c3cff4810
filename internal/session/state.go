package session

import (
	"errors"
	"fmt"
	"time"
)

// State is the submission state of a session. The only legal path is
// Idle -> Arming -> Finalizing -> Done.
type State int32

const (
	StateIdle       State = iota // loaded, inside the grace period
	StateArming                  // in progress; triggers may finalize
	StateFinalizing              // exactly one trigger won
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArming:
		return "arming"
	case StateFinalizing:
		return "finalizing"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "idle":
		*s = StateIdle
	case "arming":
		*s = StateArming
	case "finalizing":
		*s = StateFinalizing
	case "done":
		*s = StateDone
	default:
		return fmt.Errorf("unknown session state %q", b)
	}
	return nil
}

// Trigger names what asked for finalization.
type Trigger string

const (
	TriggerUserAction       Trigger = "user_action"
	TriggerTimeExpired      Trigger = "time_expired"
	TriggerFullscreenEscape Trigger = "fullscreen_escape"
	TriggerRouteChange      Trigger = "route_change"
	TriggerPageUnload       Trigger = "page_unload"
)

// Auto reports whether the trigger is anything other than the submit button.
func (t Trigger) Auto() bool { return t != TriggerUserAction }

func ParseTrigger(s string) (Trigger, bool) {
	switch t := Trigger(s); t {
	case TriggerUserAction, TriggerTimeExpired, TriggerFullscreenEscape, TriggerRouteChange, TriggerPageUnload:
		return t, true
	}
	return "", false
}

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionClosed      = errors.New("session already submitted")
	ErrQuestionOutOfRange = errors.New("question index out of range")
	ErrOptionOutOfRange   = errors.New("option index out of range")
)

// Clock is injectable for tests.
type Clock func() time.Time
