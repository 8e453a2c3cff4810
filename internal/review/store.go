package review

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var ErrItemNotFound = errors.New("review item not found")

type Store interface {
	GetItem(ctx context.Context, username, quizID string, question int) (Item, error)
	PutItem(ctx context.Context, it Item) error
	// Update applies fn to the stored item (a zero item for a new key) and
	// saves the result as one atomic read-modify-write.
	Update(ctx context.Context, username, quizID string, question int, fn func(Item) Item) (Item, error)
	Due(ctx context.Context, username string, at time.Time, limit int) ([]Item, error)
}

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore { return &SQLStore{db: db, driver: driver} }

func (s *SQLStore) GetItem(ctx context.Context, username, quizID string, question int) (Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT username,quiz_id,question_index,repetitions,ease,interval_days,last_quality,due_at
		FROM review_items WHERE username=$1 AND quiz_id=$2 AND question_index=$3`, username, quizID, question)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, ErrItemNotFound
	}
	return it, err
}

func (s *SQLStore) PutItem(ctx context.Context, it Item) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO review_items
		(username,quiz_id,question_index,repetitions,ease,interval_days,last_quality,due_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (username,quiz_id,question_index) DO UPDATE SET
		  repetitions=excluded.repetitions,
		  ease=excluded.ease,
		  interval_days=excluded.interval_days,
		  last_quality=excluded.last_quality,
		  due_at=excluded.due_at`,
		it.Username, it.QuizID, it.Question, it.Repetitions, it.Ease, it.IntervalDays, it.LastQuality, it.DueAt.Unix())
	return err
}

func (s *SQLStore) Update(ctx context.Context, username, quizID string, question int, fn func(Item) Item) (Item, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Item{}, err
	}
	defer func() { _ = tx.Rollback() }()

	// seed the row so the locking read below always finds one
	if _, err := tx.ExecContext(ctx, `INSERT INTO review_items (username,quiz_id,question_index,due_at)
		VALUES ($1,$2,$3,0) ON CONFLICT (username,quiz_id,question_index) DO NOTHING`,
		username, quizID, question); err != nil {
		return Item{}, err
	}
	q := `SELECT username,quiz_id,question_index,repetitions,ease,interval_days,last_quality,due_at
		FROM review_items WHERE username=$1 AND quiz_id=$2 AND question_index=$3`
	if s.driver == "postgres" {
		q += ` FOR UPDATE`
	}
	cur, err := scanItem(tx.QueryRowContext(ctx, q, username, quizID, question))
	if err != nil {
		return Item{}, err
	}
	it := fn(cur)
	if _, err := tx.ExecContext(ctx, `UPDATE review_items SET
		repetitions=$4, ease=$5, interval_days=$6, last_quality=$7, due_at=$8
		WHERE username=$1 AND quiz_id=$2 AND question_index=$3`,
		username, quizID, question, it.Repetitions, it.Ease, it.IntervalDays, it.LastQuality, it.DueAt.Unix()); err != nil {
		return Item{}, err
	}
	return it, tx.Commit()
}

// Due lists items whose review time has come, most overdue first.
func (s *SQLStore) Due(ctx context.Context, username string, at time.Time, limit int) ([]Item, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `SELECT username,quiz_id,question_index,repetitions,ease,interval_days,last_quality,due_at
		FROM review_items WHERE username=$1 AND due_at <= $2
		ORDER BY due_at, quiz_id, question_index
		LIMIT $3`, username, at.Unix(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(sc scanner) (Item, error) {
	var it Item
	var due int64
	if err := sc.Scan(&it.Username, &it.QuizID, &it.Question, &it.Repetitions, &it.Ease,
		&it.IntervalDays, &it.LastQuality, &due); err != nil {
		return Item{}, err
	}
	it.DueAt = time.Unix(due, 0).UTC()
	return it, nil
}
