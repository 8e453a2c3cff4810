package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimerExpiresOnce(t *testing.T) {
	tm := NewTimer(2, nil)
	var ticks []int
	expired := 0
	tm.OnTick(func(left int) { ticks = append(ticks, left) })
	tm.OnExpire(func() { expired++ })

	for i := 0; i < 5; i++ {
		tm.Tick()
	}
	require.Equal(t, []int{1, 0}, ticks)
	require.Equal(t, 1, expired)
	require.True(t, tm.Expired())
	require.Equal(t, 0, tm.Left())
	require.Equal(t, 2, tm.Elapsed())
}

func TestTimerPauseIsIdempotent(t *testing.T) {
	clk := newFakeClock()
	tm := NewTimer(10, clk.Now)

	require.True(t, tm.Pause())
	first := *tm.PausedAt()
	clk.Advance(5 * time.Second)
	require.False(t, tm.Pause())
	require.Equal(t, first, *tm.PausedAt())

	tm.Tick()
	require.Equal(t, 10, tm.Left())

	require.True(t, tm.Resume())
	require.False(t, tm.Resume())
	require.Nil(t, tm.PausedAt())
	tm.Tick()
	require.Equal(t, 9, tm.Left())
}

func TestTimerToggle(t *testing.T) {
	tm := NewTimer(10, nil)
	require.True(t, tm.Toggle())
	require.False(t, tm.Toggle())
}

func TestTimerRefusesPauseAfterStop(t *testing.T) {
	tm := NewTimer(10, nil)
	tm.Stop()
	require.False(t, tm.Pause())
	tm.Tick()
	require.Equal(t, 10, tm.Left())
}

func TestTimerZeroDurationCannotPause(t *testing.T) {
	tm := NewTimer(0, nil)
	require.False(t, tm.Pause())
}
