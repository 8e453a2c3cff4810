package quiz

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrQuizNotFound = errors.New("quiz not found")
	ErrInvalidQuiz  = errors.New("invalid quiz")
)

// Validate checks the shape an uploaded quiz must have before it is stored.
func Validate(q Quiz) error {
	if strings.TrimSpace(q.Title) == "" {
		return fmt.Errorf("%w: title required", ErrInvalidQuiz)
	}
	if q.DurationMin <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidQuiz)
	}
	if q.TotalMarks < 0 {
		return fmt.Errorf("%w: totalMarks must not be negative", ErrInvalidQuiz)
	}
	if len(q.Questions) == 0 {
		return fmt.Errorf("%w: at least one question required", ErrInvalidQuiz)
	}
	for i, qq := range q.Questions {
		if len(qq.Options) < 2 {
			return fmt.Errorf("%w: question %d needs at least two options", ErrInvalidQuiz, i)
		}
		if len(qq.Options) > MaxOptions {
			return fmt.Errorf("%w: question %d has more than %d options", ErrInvalidQuiz, i, MaxOptions)
		}
		idx := OptionIndex(qq.CorrectAnswer)
		if idx < 0 || idx >= len(qq.Options) {
			return fmt.Errorf("%w: question %d correctAnswer %q does not name an option", ErrInvalidQuiz, i, qq.CorrectAnswer)
		}
	}
	return nil
}
