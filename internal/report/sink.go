package report

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mind-engage/mindengage-quiz/internal/logger"
)

const EventQuizSubmitted = "QuizSubmitted"

// Sink fans a finalized submission out to every persistence target. Each
// target is independent and best-effort: a failure is logged and never
// blocks or rolls back the others.
type Sink struct {
	Store  Store
	Spool  Spool          // optional
	Events EventPublisher // optional
	Log    *logger.Logger
}

func NewSink(store Store, spool Spool, events EventPublisher, log *logger.Logger) *Sink {
	if log == nil {
		log = logger.Nop()
	}
	return &Sink{Store: store, Spool: spool, Events: events, Log: log}
}

// Deliver returns once every target has been attempted.
func (s *Sink) Deliver(ctx context.Context, sub Submission) {
	if sub.Report.ID == "" {
		// fixed up front so a spooled retry is idempotent
		sub.Report.ID = uuid.NewString()
	}
	if sub.Report.CreatedAt == 0 && !sub.SubmittedAt.IsZero() {
		sub.Report.CreatedAt = sub.SubmittedAt.Unix()
	}
	log := s.Log.With("session_id", sub.SessionID, "report_id", sub.Report.ID, "username", sub.Username)

	var g errgroup.Group
	g.Go(func() error {
		s.saveReport(ctx, log, sub.Report)
		return nil
	})
	g.Go(func() error {
		if err := s.Store.UpdateStats(ctx, sub.Username, sub.Stats); err != nil {
			log.Warn("stats update failed", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		if _, err := s.Store.TouchStreak(ctx, sub.Username, sub.SubmittedAt); err != nil {
			log.Warn("streak update failed", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := s.Store.BumpPreference(ctx, sub.Username, sub.Category, sub.SubmittedAt); err != nil {
			log.Warn("preference update failed", "error", err)
		}
		return nil
	})
	if s.Events != nil {
		g.Go(func() error {
			if err := s.Events.Publish(ctx, EventQuizSubmitted, sub.SessionID, sub.Report); err != nil {
				log.Warn("submission event publish failed", "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Sink) saveReport(ctx context.Context, log *logger.Logger, r Report) {
	_, err := s.Store.SaveReport(ctx, r)
	if err == nil {
		log.Info("report saved", "score", r.Score, "total", r.Total)
		return
	}
	if s.Spool == nil {
		log.Error("report save failed and no spool configured; report lost", "error", err)
		return
	}
	log.Warn("report save failed; spooling for retry", "error", err)
	// the request context may already be spent; the spool write must still land
	if err := s.Spool.Enqueue(context.WithoutCancel(ctx), r); err != nil {
		log.Error("report spool failed; report lost", "error", err)
	}
}
