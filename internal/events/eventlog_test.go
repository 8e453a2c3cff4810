package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-quiz/internal/db"
	"github.com/mind-engage/mindengage-quiz/internal/events"
)

func TestLogPublishAndSince(t *testing.T) {
	ctx := context.Background()
	dbh, err := db.OpenMemory(ctx)
	require.NoError(t, err)
	defer dbh.Close()

	l := events.NewLog(dbh, "")
	require.NoError(t, l.Publish(ctx, "QuizSubmitted", "s1", map[string]any{"score": 20}))
	require.NoError(t, l.Publish(ctx, "QuizSubmitted", "s2", map[string]any{"score": 10}))

	evs, err := l.Since(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, evs, 2)
	require.Equal(t, "s1", evs[0].Key)
	require.Equal(t, "local", evs[0].SiteID)
	var body map[string]float64
	require.NoError(t, json.Unmarshal(evs[0].Data, &body))
	require.Equal(t, 20.0, body["score"])

	rest, err := l.Since(ctx, evs[0].Seq, 10)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	require.Equal(t, "s2", rest[0].Key)
}

type fakePublisher struct {
	err  error
	keys []string
}

func (f *fakePublisher) Publish(_ context.Context, _, key string, _ any) error {
	f.keys = append(f.keys, key)
	return f.err
}

func TestMultiPublishesToAll(t *testing.T) {
	down := errors.New("broker down")
	a, b := &fakePublisher{err: down}, &fakePublisher{}

	err := events.Multi{a, b}.Publish(context.Background(), "QuizSubmitted", "s1", nil)
	require.ErrorIs(t, err, down)
	require.Equal(t, []string{"s1"}, a.keys)
	require.Equal(t, []string{"s1"}, b.keys)
}

func TestRoutingKey(t *testing.T) {
	require.Equal(t, "quiz.submitted", events.RoutingKey("QuizSubmitted"))
	require.Equal(t, "ping", events.RoutingKey("ping"))
}
