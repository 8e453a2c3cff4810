package review

import (
	"testing"
	"time"
)

func TestNextProgression(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	it := Item{}

	it = Next(it, QualityCorrect, now)
	if it.IntervalDays != 1 || it.Repetitions != 1 || it.Ease != 2.6 {
		t.Fatalf("first step = %+v", it)
	}
	it = Next(it, QualityCorrect, now)
	if it.IntervalDays != 6 || it.Repetitions != 2 {
		t.Fatalf("second step = %+v", it)
	}
	it = Next(it, QualityCorrect, now)
	if it.IntervalDays != 16 { // round(6 * 2.7)
		t.Fatalf("third interval = %d", it.IntervalDays)
	}
	if !it.DueAt.Equal(now.AddDate(0, 0, 16)) {
		t.Fatalf("due = %v", it.DueAt)
	}
}

func TestNextIncorrectResets(t *testing.T) {
	now := time.Now()
	it := Item{Repetitions: 4, Ease: 2.5, IntervalDays: 30}
	it = Next(it, QualityIncorrect, now)
	if it.Repetitions != 0 || it.IntervalDays != 1 {
		t.Fatalf("got %+v", it)
	}
	if it.Ease != 2.18 {
		t.Fatalf("ease = %v", it.Ease)
	}
}

func TestNextEaseFloor(t *testing.T) {
	it := Item{Ease: 1.3}
	for i := 0; i < 5; i++ {
		it = Next(it, 0, time.Now())
	}
	if it.Ease != 1.3 {
		t.Fatalf("ease = %v", it.Ease)
	}
}
