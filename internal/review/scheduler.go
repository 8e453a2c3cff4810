package review

import (
	"context"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/logger"
)

// Scheduler turns answer signals into review schedule updates.
type Scheduler struct {
	store Store
	now   func() time.Time
	log   *logger.Logger
}

func NewScheduler(store Store, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{store: store, now: time.Now, log: log}
}

// RecordAnswer applies one SM-2 step for the answered question.
func (s *Scheduler) RecordAnswer(ctx context.Context, username, quizID string, question int, correct bool) error {
	it, err := s.store.Update(ctx, username, quizID, question, func(cur Item) Item {
		return Next(cur, Quality(correct), s.now())
	})
	if err != nil {
		return err
	}
	s.log.Debug("review scheduled", "quiz_id", quizID, "question", question, "interval_days", it.IntervalDays)
	return nil
}

func (s *Scheduler) Due(ctx context.Context, username string, limit int) ([]Item, error) {
	return s.store.Due(ctx, username, s.now(), limit)
}
