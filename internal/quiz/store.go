package quiz

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type ListOpts struct {
	Q        string
	Category string
	Limit    int
	Offset   int
}

type Store interface {
	PutQuiz(ctx context.Context, q Quiz) (Quiz, error)
	GetQuiz(ctx context.Context, id string) (Quiz, error)      // taker-safe (no answer keys)
	GetQuizAdmin(ctx context.Context, id string) (Quiz, error) // full quiz, for scoring/teachers
	ListQuizzes(ctx context.Context, opts ListOpts) ([]Summary, error)
}

type memoryStore struct {
	mu      sync.RWMutex
	quizzes map[string]Quiz
}

func NewInMemoryStore() Store {
	return &memoryStore{quizzes: map[string]Quiz{}}
}

func (m *memoryStore) PutQuiz(_ context.Context, q Quiz) (Quiz, error) {
	if err := Validate(q); err != nil {
		return Quiz{}, err
	}
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.CreatedAt == 0 {
		q.CreatedAt = time.Now().Unix()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quizzes[q.ID] = q
	return q, nil
}

func (m *memoryStore) GetQuiz(ctx context.Context, id string) (Quiz, error) {
	q, err := m.GetQuizAdmin(ctx, id)
	if err != nil {
		return Quiz{}, err
	}
	return q.Redacted(), nil
}

func (m *memoryStore) GetQuizAdmin(_ context.Context, id string) (Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.quizzes[id]
	if !ok {
		return Quiz{}, ErrQuizNotFound
	}
	return q, nil
}

func (m *memoryStore) ListQuizzes(_ context.Context, opts ListOpts) ([]Summary, error) {
	m.mu.RLock()
	all := make([]Quiz, 0, len(m.quizzes))
	for _, q := range m.quizzes {
		all = append(all, q)
	}
	m.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt != all[j].CreatedAt {
			return all[i].CreatedAt > all[j].CreatedAt
		}
		return all[i].ID < all[j].ID
	})
	needle := strings.ToLower(strings.TrimSpace(opts.Q))
	out := make([]Summary, 0, len(all))
	for _, q := range all {
		if needle != "" && !strings.Contains(strings.ToLower(q.Title), needle) {
			continue
		}
		if opts.Category != "" && !strings.EqualFold(q.Category, opts.Category) {
			continue
		}
		out = append(out, q.summary())
	}
	return page(out, opts.Limit, opts.Offset), nil
}

func page(in []Summary, limit, offset int) []Summary {
	if offset >= len(in) {
		return []Summary{}
	}
	in = in[offset:]
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}
