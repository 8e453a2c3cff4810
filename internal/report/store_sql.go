package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// SaveReport inserts r. Saving the same id twice is a no-op so spooled
// reports can be re-delivered safely.
func (s *SQLStore) SaveReport(ctx context.Context, r Report) (Report, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt == 0 {
		r.CreatedAt = time.Now().Unix()
	}
	if r.Questions == nil {
		r.Questions = []QuestionReport{}
	}
	qj, err := json.Marshal(r.Questions)
	if err != nil {
		return Report{}, err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO reports
		(id,username,quiz_id,quiz_name,score,total,questions_json,auto_submitted,reason,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO NOTHING`,
		r.ID, r.Username, r.QuizID, r.QuizName, r.Score, r.Total, string(qj), boolInt(r.AutoSubmitted), r.Reason, r.CreatedAt)
	if err != nil {
		return Report{}, err
	}
	return r, nil
}

func (s *SQLStore) GetReport(ctx context.Context, id string) (Report, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,username,quiz_id,quiz_name,score,total,questions_json,auto_submitted,reason,created_at
		FROM reports WHERE id=$1`, id)
	r, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Report{}, ErrReportNotFound
	}
	return r, err
}

func (s *SQLStore) ListReports(ctx context.Context, username string, limit, offset int) ([]Report, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id,username,quiz_id,quiz_name,score,total,questions_json,auto_submitted,reason,created_at
		FROM reports WHERE username=$1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`, username, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Report{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpdateStats(ctx context.Context, username string, st Stats) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO quiz_stats
		(username,quiz_id,attempts,best_score,last_score,total_questions,time_spent,updated_at)
		VALUES ($1,$2,1,$3,$3,$4,$5,$6)
		ON CONFLICT (username,quiz_id) DO UPDATE SET
			attempts=quiz_stats.attempts+1,
			best_score=CASE WHEN EXCLUDED.best_score > quiz_stats.best_score THEN EXCLUDED.best_score ELSE quiz_stats.best_score END,
			last_score=EXCLUDED.last_score,
			total_questions=EXCLUDED.total_questions,
			time_spent=quiz_stats.time_spent+EXCLUDED.time_spent,
			updated_at=EXCLUDED.updated_at`,
		username, st.QuizID, st.Score, st.TotalQuestions, st.TimeSpent, time.Now().Unix())
	return err
}

func (s *SQLStore) GetStats(ctx context.Context, username, quizID string) (QuizStats, error) {
	qs := QuizStats{Username: username, QuizID: quizID}
	err := s.db.QueryRowContext(ctx, `SELECT attempts,best_score,last_score,total_questions,time_spent
		FROM quiz_stats WHERE username=$1 AND quiz_id=$2`, username, quizID).
		Scan(&qs.Attempts, &qs.BestScore, &qs.LastScore, &qs.TotalQuestions, &qs.TimeSpent)
	if errors.Is(err, sql.ErrNoRows) {
		return qs, nil
	}
	return qs, err
}

// TouchStreak records activity on at's UTC day: same day keeps the streak,
// the following day extends it, anything later restarts it at one.
func (s *SQLStore) TouchStreak(ctx context.Context, username string, at time.Time) (Streak, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Streak{}, err
	}
	defer func() { _ = tx.Rollback() }()

	st := Streak{Username: username}
	err = tx.QueryRowContext(ctx, `SELECT current,longest,last_day FROM user_streaks WHERE username=$1`, username).
		Scan(&st.Current, &st.Longest, &st.LastDay)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Streak{}, err
	}
	st = nextStreak(st, at)
	_, err = tx.ExecContext(ctx, `INSERT INTO user_streaks (username,current,longest,last_day)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (username) DO UPDATE SET current=EXCLUDED.current, longest=EXCLUDED.longest, last_day=EXCLUDED.last_day`,
		st.Username, st.Current, st.Longest, st.LastDay)
	if err != nil {
		return Streak{}, err
	}
	return st, tx.Commit()
}

func (s *SQLStore) BumpPreference(ctx context.Context, username, category string, at time.Time) error {
	if category == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO user_preferences (username,category,attempts,updated_at)
		VALUES ($1,$2,1,$3)
		ON CONFLICT (username,category) DO UPDATE SET attempts=user_preferences.attempts+1, updated_at=EXCLUDED.updated_at`,
		username, category, at.Unix())
	return err
}

func (s *SQLStore) GetStreak(ctx context.Context, username string) (Streak, error) {
	st := Streak{Username: username}
	err := s.db.QueryRowContext(ctx, `SELECT current,longest,last_day FROM user_streaks WHERE username=$1`, username).
		Scan(&st.Current, &st.Longest, &st.LastDay)
	if errors.Is(err, sql.ErrNoRows) {
		return st, nil
	}
	return st, err
}

// Preferences lists categories by attempt count, most played first.
func (s *SQLStore) Preferences(ctx context.Context, username string) ([]Preference, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT category,attempts,updated_at FROM user_preferences
		WHERE username=$1 ORDER BY attempts DESC, category`, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Preference{}
	for rows.Next() {
		var p Preference
		if err := rows.Scan(&p.Category, &p.Attempts, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func nextStreak(st Streak, at time.Time) Streak {
	day := at.UTC().Format(time.DateOnly)
	switch {
	case st.LastDay == day:
		if st.Current == 0 {
			st.Current = 1
		}
	case st.LastDay == at.UTC().AddDate(0, 0, -1).Format(time.DateOnly):
		st.Current++
	default:
		st.Current = 1
	}
	st.LastDay = day
	if st.Current > st.Longest {
		st.Longest = st.Current
	}
	return st
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (Report, error) {
	var r Report
	var qjson string
	var auto int
	if err := row.Scan(&r.ID, &r.Username, &r.QuizID, &r.QuizName, &r.Score, &r.Total, &qjson, &auto, &r.Reason, &r.CreatedAt); err != nil {
		return Report{}, err
	}
	r.AutoSubmitted = auto != 0
	if err := json.Unmarshal([]byte(qjson), &r.Questions); err != nil {
		r.Questions = []QuestionReport{}
	}
	return r, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
