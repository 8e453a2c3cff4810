package report_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-quiz/internal/db"
	"github.com/mind-engage/mindengage-quiz/internal/report"
)

func newSQLStore(t *testing.T) *report.SQLStore {
	t.Helper()
	dbh, err := db.OpenMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbh.Close() })
	return report.NewSQLStore(dbh)
}

func sampleReport(id string) report.Report {
	return report.Report{
		ID:       id,
		Username: "alice",
		QuizID:   "quiz-1",
		QuizName: "Go Basics",
		Score:    20,
		Total:    30,
		Questions: []report.QuestionReport{{
			QuestionText: "Zero value of int?", Options: []string{"0", "nil"},
			UserAnswer: "A", UserAnswerText: "0", CorrectAnswer: "A", CorrectAnswerText: "0", AnswerTime: 4.5,
		}},
		AutoSubmitted: true,
		Reason:        "time_expired",
	}
}

func TestSaveReportIsIdempotent(t *testing.T) {
	st := newSQLStore(t)
	ctx := context.Background()

	_, err := st.SaveReport(ctx, sampleReport("r1"))
	require.NoError(t, err)
	second := sampleReport("r1")
	second.Score = 0
	_, err = st.SaveReport(ctx, second)
	require.NoError(t, err)

	got, err := st.GetReport(ctx, "r1")
	require.NoError(t, err)
	require.Equal(t, 20.0, got.Score)
	require.True(t, got.AutoSubmitted)
	require.Equal(t, "time_expired", got.Reason)
	require.Len(t, got.Questions, 1)
	require.Equal(t, 4.5, got.Questions[0].AnswerTime)

	list, err := st.ListReports(ctx, "alice", 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = st.GetReport(ctx, "nope")
	require.ErrorIs(t, err, report.ErrReportNotFound)
}

func TestUpdateStatsAccumulates(t *testing.T) {
	st := newSQLStore(t)
	ctx := context.Background()

	require.NoError(t, st.UpdateStats(ctx, "alice", report.Stats{QuizID: "quiz-1", Score: 20, TotalQuestions: 3, TimeSpent: 60}))
	require.NoError(t, st.UpdateStats(ctx, "alice", report.Stats{QuizID: "quiz-1", Score: 10, TotalQuestions: 3, TimeSpent: 30}))

	qs, err := st.GetStats(ctx, "alice", "quiz-1")
	require.NoError(t, err)
	require.Equal(t, 2, qs.Attempts)
	require.Equal(t, 20.0, qs.BestScore)
	require.Equal(t, 10.0, qs.LastScore)
	require.Equal(t, 90, qs.TimeSpent)

	empty, err := st.GetStats(ctx, "bob", "quiz-1")
	require.NoError(t, err)
	require.Zero(t, empty.Attempts)
}

func TestTouchStreak(t *testing.T) {
	st := newSQLStore(t)
	ctx := context.Background()
	day1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	s, err := st.TouchStreak(ctx, "alice", day1)
	require.NoError(t, err)
	require.Equal(t, 1, s.Current)

	s, err = st.TouchStreak(ctx, "alice", day1.Add(2*time.Hour))
	require.NoError(t, err)
	require.Equal(t, 1, s.Current)

	s, err = st.TouchStreak(ctx, "alice", day1.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Equal(t, 2, s.Current)
	require.Equal(t, 2, s.Longest)

	s, err = st.TouchStreak(ctx, "alice", day1.AddDate(0, 0, 5))
	require.NoError(t, err)
	require.Equal(t, 1, s.Current)
	require.Equal(t, 2, s.Longest)

	got, err := st.GetStreak(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, s, got)

	none, err := st.GetStreak(ctx, "bob")
	require.NoError(t, err)
	require.Zero(t, none.Current)
}

func TestBumpPreferenceSkipsEmptyCategory(t *testing.T) {
	st := newSQLStore(t)
	ctx := context.Background()
	require.NoError(t, st.BumpPreference(ctx, "alice", "", time.Now()))
	require.NoError(t, st.BumpPreference(ctx, "alice", "Programming", time.Now()))
	require.NoError(t, st.BumpPreference(ctx, "alice", "Programming", time.Now()))
	require.NoError(t, st.BumpPreference(ctx, "alice", "History", time.Now()))

	prefs, err := st.Preferences(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, prefs, 2)
	require.Equal(t, "Programming", prefs[0].Category)
	require.Equal(t, 2, prefs[0].Attempts)
}
