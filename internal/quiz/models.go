package quiz

import (
	"strings"
)

type Question struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer,omitempty"` // letter A-D; stripped for students
}

type Quiz struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Category    string     `json:"category"`
	DurationMin int        `json:"duration"` // minutes
	TotalMarks  float64    `json:"totalMarks"`
	Questions   []Question `json:"questions"`

	CreatedAt int64 `json:"created_at,omitempty"`
}

// Summary is the list view; questions are counted, not returned.
type Summary struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Category      string  `json:"category"`
	DurationMin   int     `json:"duration"`
	TotalMarks    float64 `json:"totalMarks"`
	QuestionCount int     `json:"questionCount"`
}

// DurationSeconds is the countdown start for a session.
func (q Quiz) DurationSeconds() int {
	if q.DurationMin <= 0 {
		return 0
	}
	return q.DurationMin * 60
}

// Redacted returns a copy safe to hand to a quiz taker.
func (q Quiz) Redacted() Quiz {
	out := q
	out.Questions = make([]Question, len(q.Questions))
	for i, qq := range q.Questions {
		qq.Options = append([]string(nil), qq.Options...)
		qq.CorrectAnswer = ""
		out.Questions[i] = qq
	}
	return out
}

func (q Quiz) summary() Summary {
	return Summary{
		ID: q.ID, Title: q.Title, Category: q.Category,
		DurationMin: q.DurationMin, TotalMarks: q.TotalMarks, QuestionCount: len(q.Questions),
	}
}

// MaxOptions is how many options answer letters A..Z can name.
const MaxOptions = 26

// Letter maps an option index to its answer letter (0 -> "A").
func Letter(option int) string {
	if option < 0 || option >= MaxOptions {
		return ""
	}
	return string(rune('A' + option))
}

// OptionIndex maps an answer letter back to its option index; -1 when invalid.
func OptionIndex(letter string) int {
	l := strings.ToUpper(strings.TrimSpace(letter))
	if len(l) != 1 || l[0] < 'A' || l[0] > 'Z' {
		return -1
	}
	return int(l[0] - 'A')
}
