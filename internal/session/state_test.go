package session

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStateJSONRoundTrip(t *testing.T) {
	for _, st := range []State{StateIdle, StateArming, StateFinalizing, StateDone} {
		buf, err := json.Marshal(View{State: st})
		require.NoError(t, err)

		var got View
		require.NoError(t, json.Unmarshal(buf, &got))
		require.Equal(t, st, got.State)
	}
}

func TestStateRejectsUnknownName(t *testing.T) {
	var st State
	require.Error(t, st.UnmarshalText([]byte("paused")))
}
