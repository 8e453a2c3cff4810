package review_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-quiz/internal/db"
	"github.com/mind-engage/mindengage-quiz/internal/review"
)

func newScheduler(t *testing.T) (*review.Scheduler, *review.SQLStore) {
	t.Helper()
	dbh, err := db.OpenMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbh.Close() })
	st := review.NewSQLStore(dbh, "sqlite")
	return review.NewScheduler(st, nil), st
}

func TestRecordAnswerCreatesAndAdvances(t *testing.T) {
	sch, st := newScheduler(t)
	ctx := context.Background()

	require.NoError(t, sch.RecordAnswer(ctx, "ada", "q1", 0, true))
	it, err := st.GetItem(ctx, "ada", "q1", 0)
	require.NoError(t, err)
	require.Equal(t, 1, it.Repetitions)
	require.Equal(t, review.QualityCorrect, it.LastQuality)

	require.NoError(t, sch.RecordAnswer(ctx, "ada", "q1", 0, true))
	it, err = st.GetItem(ctx, "ada", "q1", 0)
	require.NoError(t, err)
	require.Equal(t, 2, it.Repetitions)
	require.Equal(t, 6, it.IntervalDays)

	require.NoError(t, sch.RecordAnswer(ctx, "ada", "q1", 0, false))
	it, err = st.GetItem(ctx, "ada", "q1", 0)
	require.NoError(t, err)
	require.Zero(t, it.Repetitions)
}

func TestDueOrdersByTime(t *testing.T) {
	_, st := newScheduler(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, st.PutItem(ctx, review.Item{Username: "ada", QuizID: "q1", Question: 1, Ease: 2.5, DueAt: base.Add(2 * time.Hour)}))
	require.NoError(t, st.PutItem(ctx, review.Item{Username: "ada", QuizID: "q1", Question: 0, Ease: 2.5, DueAt: base.Add(time.Hour)}))
	require.NoError(t, st.PutItem(ctx, review.Item{Username: "ada", QuizID: "q2", Question: 0, Ease: 2.5, DueAt: base.AddDate(0, 0, 3)}))
	require.NoError(t, st.PutItem(ctx, review.Item{Username: "bob", QuizID: "q1", Question: 0, Ease: 2.5, DueAt: base}))

	due, err := st.Due(ctx, "ada", base.AddDate(0, 0, 1), 10)
	require.NoError(t, err)
	require.Len(t, due, 2)
	require.Equal(t, 0, due[0].Question)
	require.Equal(t, 1, due[1].Question)

	_, err = st.GetItem(ctx, "ada", "q9", 0)
	require.ErrorIs(t, err, review.ErrItemNotFound)
}

func TestRecordAnswerConcurrentPicksKeepEveryStep(t *testing.T) {
	sch, st := newScheduler(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, sch.RecordAnswer(ctx, "ada", "q1", 2, true))
		}()
	}
	wg.Wait()

	it, err := st.GetItem(ctx, "ada", "q1", 2)
	require.NoError(t, err)
	require.Equal(t, 8, it.Repetitions)
}
