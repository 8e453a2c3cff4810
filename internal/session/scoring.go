package session

import (
	"context"
	"math"
	"strings"

	"github.com/mind-engage/mindengage-quiz/internal/grading"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

type Performance string

const (
	PerformanceHigh   Performance = "high"
	PerformanceMedium Performance = "medium"
	PerformanceLow    Performance = "low"
)

const NotAnswered = "Not Answered"

type QuestionResult struct {
	Index             int      `json:"index"`
	QuestionText      string   `json:"questionText"`
	Options           []string `json:"options"`
	UserAnswer        string   `json:"userAnswer"`
	UserAnswerText    string   `json:"userAnswerText"`
	CorrectAnswer     string   `json:"correctAnswer"`
	CorrectAnswerText string   `json:"correctAnswerText"`
	Correct           bool     `json:"correct"`
	AnswerTime        float64  `json:"answerTime"`
}

type Result struct {
	CorrectCount  int              `json:"correctCount"`
	QuestionCount int              `json:"questionCount"`
	ScoreAchieved float64          `json:"scoreAchieved"`
	TotalMarks    float64          `json:"totalMarks"`
	Performance   Performance      `json:"performanceLevel"`
	Details       []QuestionResult `json:"details"`
	TimeSpent     int              `json:"timeSpent"`
	AutoSubmitted bool             `json:"autoSubmitted"`
	Reason        string           `json:"reason,omitempty"`
	Trigger       Trigger          `json:"trigger"`
}

// Score grades answers against q. Unanswered questions count as incorrect.
// scoreAchieved = round2(correct / count * totalMarks).
func Score(ctx context.Context, g grading.Grader, q quiz.Quiz, answers map[int]int, times map[int]float64) Result {
	if g == nil {
		g = grading.NewDefaultGrader()
	}
	res := Result{
		QuestionCount: len(q.Questions),
		TotalMarks:    q.TotalMarks,
		Details:       make([]QuestionResult, 0, len(q.Questions)),
	}
	for i, qq := range q.Questions {
		correct := strings.ToUpper(strings.TrimSpace(qq.CorrectAnswer))
		d := QuestionResult{
			Index:             i,
			QuestionText:      qq.Question,
			Options:           qq.Options,
			UserAnswerText:    NotAnswered,
			CorrectAnswer:     correct,
			CorrectAnswerText: optionText(qq.Options, quiz.OptionIndex(correct)),
			AnswerTime:        times[i],
		}
		if opt, ok := answers[i]; ok {
			d.UserAnswer = quiz.Letter(opt)
			d.UserAnswerText = optionText(qq.Options, opt)
			d.Correct = gradeOne(ctx, g, qq, opt)
		}
		if d.Correct {
			res.CorrectCount++
		}
		res.Details = append(res.Details, d)
	}
	if res.QuestionCount > 0 {
		res.ScoreAchieved = round2(float64(res.CorrectCount) / float64(res.QuestionCount) * q.TotalMarks)
	}
	res.Performance = Tier(res.ScoreAchieved, q.TotalMarks)
	return res
}

// Tier buckets a score: >= 70% high, >= 40% medium, else low.
// score*10 >= total*7 is score >= 0.7*total written without 0.7, which has
// no exact float form and would push boundary scores into the lower tier.
func Tier(score, total float64) Performance {
	switch {
	case score*10 >= total*7:
		return PerformanceHigh
	case score*10 >= total*4:
		return PerformanceMedium
	default:
		return PerformanceLow
	}
}

func gradeOne(ctx context.Context, g grading.Grader, qq quiz.Question, opt int) bool {
	res, err := g.Grade(ctx, grading.Q{
		Type:      grading.TypeMCQSingle,
		Points:    1,
		AnswerKey: []string{qq.CorrectAnswer},
	}, quiz.Letter(opt))
	return err == nil && res.Correct
}

func optionText(opts []string, i int) string {
	if i < 0 || i >= len(opts) {
		return ""
	}
	return opts[i]
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
