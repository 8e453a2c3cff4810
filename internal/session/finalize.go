package session

import (
	"context"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/report"
)

// finalize runs only on the goroutine that won claim. It flushes timing
// once, stops the clock, scores, publishes the result and then hands the
// submission to the sink. It never fails.
func (s *Session) finalize(ctx context.Context, trig Trigger) Result {
	s.timer.Stop()
	now := s.now()

	s.mu.Lock()
	s.flushLocked(now)
	s.trigger = trig
	if trig.Auto() {
		s.reason = string(trig)
	}
	res := Score(ctx, s.opts.Grader, s.quiz, s.answers, s.answerTimes)
	res.Trigger = trig
	res.AutoSubmitted = trig.Auto()
	res.Reason = s.reason
	res.TimeSpent = s.timer.Elapsed()
	s.result = &res
	programmaticExit := s.fullscreen && trig != TriggerFullscreenEscape
	s.mu.Unlock()

	s.emit(Event{Type: EventResult, Result: &res})
	if programmaticExit {
		s.SuppressFullscreenExit()
		s.emit(Event{Type: EventExitFullscreen})
	}

	if s.opts.Sink != nil {
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.FinalizeTimeout)
		s.opts.Sink.Deliver(dctx, s.submission(res, now))
		cancel()
	}

	s.mu.Lock()
	s.doneAt = s.now()
	s.mu.Unlock()
	s.state.Store(int32(StateDone))
	close(s.done)

	s.log.Info("quiz submitted",
		"trigger", string(trig),
		"score", res.ScoreAchieved,
		"total", res.TotalMarks,
		"correct", res.CorrectCount,
		"questions", res.QuestionCount,
	)
	return res
}

func (s *Session) submission(res Result, at time.Time) report.Submission {
	qs := make([]report.QuestionReport, 0, len(res.Details))
	for _, d := range res.Details {
		qs = append(qs, report.QuestionReport{
			QuestionText:      d.QuestionText,
			Options:           d.Options,
			UserAnswer:        d.UserAnswer,
			UserAnswerText:    d.UserAnswerText,
			CorrectAnswer:     d.CorrectAnswer,
			CorrectAnswerText: d.CorrectAnswerText,
			AnswerTime:        d.AnswerTime,
		})
	}
	return report.Submission{
		SessionID:   s.opts.ID,
		Username:    s.opts.Username,
		Category:    s.quiz.Category,
		Trigger:     string(res.Trigger),
		SubmittedAt: at,
		Report: report.Report{
			Username:      s.opts.Username,
			QuizID:        s.quiz.ID,
			QuizName:      s.quiz.Title,
			Score:         res.ScoreAchieved,
			Total:         s.quiz.TotalMarks,
			Questions:     qs,
			AutoSubmitted: res.AutoSubmitted,
			Reason:        res.Reason,
		},
		Stats: report.Stats{
			QuizID:         s.quiz.ID,
			Score:          res.ScoreAchieved,
			TotalQuestions: res.QuestionCount,
			TimeSpent:      res.TimeSpent,
		},
	}
}
