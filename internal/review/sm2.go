package review

import (
	"math"
	"time"
)

// Item is the spaced-repetition state of one question for one user.
type Item struct {
	Username     string    `json:"username"`
	QuizID       string    `json:"quizId"`
	Question     int       `json:"question"`
	Repetitions  int       `json:"repetitions"`
	Ease         float64   `json:"ease"`
	IntervalDays int       `json:"intervalDays"`
	LastQuality  int       `json:"lastQuality"`
	DueAt        time.Time `json:"dueAt"`
}

const (
	QualityCorrect   = 5
	QualityIncorrect = 2

	defaultEase = 2.5
	minEase     = 1.3
)

// Quality maps a graded answer to the 0..5 recall scale.
func Quality(correct bool) int {
	if correct {
		return QualityCorrect
	}
	return QualityIncorrect
}

// Next applies one SM-2 step. Quality below 3 restarts the repetition run
// and schedules the item for tomorrow.
func Next(it Item, quality int, now time.Time) Item {
	if quality < 0 {
		quality = 0
	}
	if quality > 5 {
		quality = 5
	}
	if it.Ease == 0 {
		it.Ease = defaultEase
	}

	if quality < 3 {
		it.Repetitions = 0
		it.IntervalDays = 1
	} else {
		switch it.Repetitions {
		case 0:
			it.IntervalDays = 1
		case 1:
			it.IntervalDays = 6
		default:
			it.IntervalDays = int(math.Round(float64(it.IntervalDays) * it.Ease))
		}
		it.Repetitions++
	}

	q := float64(5 - quality)
	it.Ease += 0.1 - q*(0.08+q*0.02)
	if it.Ease < minEase {
		it.Ease = minEase
	}
	it.Ease = math.Round(it.Ease*100) / 100
	it.LastQuality = quality
	it.DueAt = now.AddDate(0, 0, it.IntervalDays)
	return it
}
