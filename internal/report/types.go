package report

import (
	"context"
	"errors"
	"time"
)

var ErrReportNotFound = errors.New("report not found")

type QuestionReport struct {
	QuestionText      string   `json:"questionText"`
	Options           []string `json:"options"`
	UserAnswer        string   `json:"userAnswer"`
	UserAnswerText    string   `json:"userAnswerText"`
	CorrectAnswer     string   `json:"correctAnswer"`
	CorrectAnswerText string   `json:"correctAnswerText"`
	AnswerTime        float64  `json:"answerTime"` // seconds
}

// Report is the per-attempt record posted to the reports endpoint.
type Report struct {
	ID            string           `json:"id,omitempty"`
	Username      string           `json:"username"`
	QuizID        string           `json:"quizId,omitempty"`
	QuizName      string           `json:"quizName"`
	Score         float64          `json:"score"`
	Total         float64          `json:"total"`
	Questions     []QuestionReport `json:"questions"`
	AutoSubmitted bool             `json:"autoSubmitted,omitempty"`
	Reason        string           `json:"reason,omitempty"`
	CreatedAt     int64            `json:"createdAt,omitempty"`
}

// Stats is the aggregate posted alongside every report.
type Stats struct {
	QuizID         string  `json:"quizId"`
	Score          float64 `json:"score"`
	TotalQuestions int     `json:"totalQuestions"`
	TimeSpent      int     `json:"timeSpent"` // seconds
}

// Submission is everything a finalized session hands to the sink.
type Submission struct {
	SessionID   string
	Username    string
	Category    string
	Trigger     string
	SubmittedAt time.Time
	Report      Report
	Stats       Stats
}

type QuizStats struct {
	Username       string  `json:"username"`
	QuizID         string  `json:"quizId"`
	Attempts       int     `json:"attempts"`
	BestScore      float64 `json:"bestScore"`
	LastScore      float64 `json:"lastScore"`
	TotalQuestions int     `json:"totalQuestions"`
	TimeSpent      int     `json:"timeSpent"`
}

type Streak struct {
	Username string `json:"username"`
	Current  int    `json:"current"`
	Longest  int    `json:"longest"`
	LastDay  string `json:"lastDay"` // YYYY-MM-DD, UTC
}

// Preference counts attempts per quiz category.
type Preference struct {
	Category  string `json:"category"`
	Attempts  int    `json:"attempts"`
	UpdatedAt int64  `json:"updatedAt"`
}

type Store interface {
	SaveReport(ctx context.Context, r Report) (Report, error)
	GetReport(ctx context.Context, id string) (Report, error)
	ListReports(ctx context.Context, username string, limit, offset int) ([]Report, error)

	UpdateStats(ctx context.Context, username string, s Stats) error
	GetStats(ctx context.Context, username, quizID string) (QuizStats, error)
	TouchStreak(ctx context.Context, username string, at time.Time) (Streak, error)
	BumpPreference(ctx context.Context, username, category string, at time.Time) error

	GetStreak(ctx context.Context, username string) (Streak, error)
	Preferences(ctx context.Context, username string) ([]Preference, error)
}

// Spool is durable local storage for reports whose primary save failed.
type Spool interface {
	Enqueue(ctx context.Context, r Report) error
	// Drain hands spooled reports to fn oldest first; a report is removed only
	// when fn succeeds. Draining stops at the first failure.
	Drain(ctx context.Context, fn func(Report) error) (int, error)
}

// EventPublisher receives a copy of every finalized submission.
type EventPublisher interface {
	Publish(ctx context.Context, typ, key string, payload any) error
}
