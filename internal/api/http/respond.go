package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/mind-engage/mindengage-quiz/internal/apierr"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/report"
	"github.com/mind-engage/mindengage-quiz/internal/session"
)

var (
	errBadJSON      = errors.New("bad json")
	errNotSubmitted = errors.New("session was not submitted by this request")
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps domain errors onto API errors.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, quiz.ErrQuizNotFound):
		err = apierr.New(http.StatusNotFound, "quiz_not_found", err)
	case errors.Is(err, quiz.ErrInvalidQuiz):
		err = apierr.New(http.StatusBadRequest, "invalid_quiz", err)
	case errors.Is(err, session.ErrSessionNotFound):
		err = apierr.New(http.StatusNotFound, "session_not_found", err)
	case errors.Is(err, session.ErrSessionClosed):
		err = apierr.New(http.StatusConflict, "session_closed", err)
	case errors.Is(err, session.ErrQuestionOutOfRange), errors.Is(err, session.ErrOptionOutOfRange):
		err = apierr.New(http.StatusBadRequest, "out_of_range", err)
	case errors.Is(err, report.ErrReportNotFound):
		err = apierr.New(http.StatusNotFound, "report_not_found", err)
	case errors.Is(err, errNotSubmitted):
		err = apierr.New(http.StatusConflict, "not_submitted", err)
	case errors.Is(err, errBadJSON):
		err = apierr.New(http.StatusBadRequest, "bad_request", err)
	}
	apierr.Write(w, err)
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errBadJSON
	}
	return nil
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}
