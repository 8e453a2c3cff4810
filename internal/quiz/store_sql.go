package quiz

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

func (s *SQLStore) PutQuiz(ctx context.Context, q Quiz) (Quiz, error) {
	if err := Validate(q); err != nil {
		return Quiz{}, err
	}
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.CreatedAt == 0 {
		q.CreatedAt = time.Now().Unix()
	}
	qj, err := json.Marshal(q.Questions)
	if err != nil {
		return Quiz{}, err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO quizzes (id,title,category,duration_min,total_marks,questions_json,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, category=EXCLUDED.category,
			duration_min=EXCLUDED.duration_min, total_marks=EXCLUDED.total_marks, questions_json=EXCLUDED.questions_json`,
		q.ID, q.Title, q.Category, q.DurationMin, q.TotalMarks, string(qj), q.CreatedAt)
	if err != nil {
		return Quiz{}, err
	}
	return q, nil
}

func (s *SQLStore) GetQuiz(ctx context.Context, id string) (Quiz, error) {
	q, err := s.GetQuizAdmin(ctx, id)
	if err != nil {
		return Quiz{}, err
	}
	return q.Redacted(), nil
}

func (s *SQLStore) GetQuizAdmin(ctx context.Context, id string) (Quiz, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,title,category,duration_min,total_marks,questions_json,created_at
		FROM quizzes WHERE id=$1`, id)
	var q Quiz
	var qjson string
	if err := row.Scan(&q.ID, &q.Title, &q.Category, &q.DurationMin, &q.TotalMarks, &qjson, &q.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Quiz{}, ErrQuizNotFound
		}
		return Quiz{}, err
	}
	if err := json.Unmarshal([]byte(qjson), &q.Questions); err != nil {
		return Quiz{}, err
	}
	return q, nil
}

func (s *SQLStore) ListQuizzes(ctx context.Context, opts ListOpts) ([]Summary, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id,title,category,duration_min,total_marks,questions_json
		FROM quizzes
		WHERE ($1 = '' OR LOWER(title) LIKE '%' || LOWER($1) || '%')
		  AND ($2 = '' OR LOWER(category) = LOWER($2))
		ORDER BY created_at DESC, id
		LIMIT $3 OFFSET $4`, opts.Q, opts.Category, limit, opts.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var sm Summary
		var qjson string
		if err := rows.Scan(&sm.ID, &sm.Title, &sm.Category, &sm.DurationMin, &sm.TotalMarks, &qjson); err != nil {
			return nil, err
		}
		var qs []json.RawMessage
		if err := json.Unmarshal([]byte(qjson), &qs); err == nil {
			sm.QuestionCount = len(qs)
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}
