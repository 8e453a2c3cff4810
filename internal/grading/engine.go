package grading

import (
	"context"
	"errors"
	"strings"
)

// Q is a minimal view of a question needed for grading.
type Q struct {
	Type      string
	Points    float64
	AnswerKey []string
}

// Result is the outcome of grading a single question response.
type Result struct {
	AutoPoints  float64 // points awarded automatically
	MaxPoints   float64
	Correct     bool
	NeedsManual bool
}

// Strategy grades a single question.
type Strategy interface {
	Grade(ctx context.Context, q Q, response interface{}) (Result, error)
}

// Grader routes by question type to the correct Strategy.
type Grader interface {
	Grade(ctx context.Context, q Q, response interface{}) (Result, error)
}

const (
	TypeMCQSingle = "mcq_single"
	TypeTrueFalse = "true_false"
)

var ErrBadResponse = errors.New("response must be a string")

type defaultGrader struct {
	strategies map[string]Strategy
}

func (g *defaultGrader) Grade(ctx context.Context, q Q, response interface{}) (Result, error) {
	s, ok := g.strategies[q.Type]
	if !ok {
		return Result{MaxPoints: q.Points, NeedsManual: true}, nil
	}
	return s.Grade(ctx, q, response)
}

// NewDefaultGrader installs the built-in objective strategies.
func NewDefaultGrader() Grader {
	return &defaultGrader{
		strategies: map[string]Strategy{
			TypeMCQSingle: mcqSingleStrategy{},
			TypeTrueFalse: mcqSingleStrategy{},
		},
	}
}

type mcqSingleStrategy struct{}

// Grade compares option letters case-insensitively; an empty response is
// simply wrong.
func (mcqSingleStrategy) Grade(_ context.Context, q Q, response interface{}) (Result, error) {
	res := Result{MaxPoints: q.Points}
	resp, ok := response.(string)
	if !ok {
		return res, ErrBadResponse
	}
	resp = strings.ToUpper(strings.TrimSpace(resp))
	if resp == "" {
		return res, nil
	}
	for _, k := range q.AnswerKey {
		if resp == strings.ToUpper(strings.TrimSpace(k)) {
			res.AutoPoints = q.Points
			res.Correct = true
			return res, nil
		}
	}
	return res, nil
}
