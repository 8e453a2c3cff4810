package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-quiz/internal/apierr"
	authmw "github.com/mind-engage/mindengage-quiz/internal/auth/middleware"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/session"
)

// ownSession loads the session named in the path; other users' sessions
// are reported as missing.
func ownSession(mgr *session.Manager, r *http.Request) (*session.Session, error) {
	s, err := mgr.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		return nil, err
	}
	if s.Username() != authmw.SubjectFromContext(r.Context()) {
		return nil, session.ErrSessionNotFound
	}
	return s, nil
}

func questionParam(r *http.Request) (int, error) {
	q, err := strconv.Atoi(chi.URLParam(r, "q"))
	if err != nil {
		return 0, apierr.New(http.StatusBadRequest, "bad_request", errors.New("question index must be an integer"))
	}
	return q, nil
}

type startResponse struct {
	Session session.View `json:"session"`
	Quiz    quiz.Quiz    `json:"quiz"`
}

// POST /sessions {quiz_id}
func StartSessionHandler(quizzes quiz.Store, mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			QuizID string `json:"quiz_id"`
		}
		if err := decode(r, &req); err != nil {
			writeErr(w, err)
			return
		}
		if req.QuizID == "" {
			writeErr(w, apierr.New(http.StatusBadRequest, "bad_request", errors.New("quiz_id required")))
			return
		}
		q, err := quizzes.GetQuizAdmin(r.Context(), req.QuizID)
		if err != nil {
			writeErr(w, err)
			return
		}
		s := mgr.Start(r.Context(), authmw.SubjectFromContext(r.Context()), q)
		writeJSON(w, http.StatusCreated, startResponse{Session: s.Snapshot(), Quiz: q.Redacted()})
	}
}

// GET /sessions/{sessionID}
func GetSessionHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := ownSession(mgr, r)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.Snapshot())
	}
}

// DELETE /sessions/{sessionID} is leaving the quiz page.
func DiscardSessionHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := ownSession(mgr, r)
		if err != nil {
			writeErr(w, err)
			return
		}
		if err := mgr.Discard(r.Context(), s.ID()); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// PUT /sessions/{sessionID}/answers/{q} {option}
func SelectAnswerHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := ownSession(mgr, r)
		if err != nil {
			writeErr(w, err)
			return
		}
		q, err := questionParam(r)
		if err != nil {
			writeErr(w, err)
			return
		}
		var req struct {
			Option *int `json:"option"`
		}
		if err := decode(r, &req); err != nil {
			writeErr(w, err)
			return
		}
		if req.Option == nil {
			writeErr(w, apierr.New(http.StatusBadRequest, "bad_request", errors.New("option required")))
			return
		}
		if err := s.SelectAnswer(q, *req.Option); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// DELETE /sessions/{sessionID}/answers/{q}
func ClearAnswerHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := ownSession(mgr, r)
		if err != nil {
			writeErr(w, err)
			return
		}
		q, err := questionParam(r)
		if err != nil {
			writeErr(w, err)
			return
		}
		if err := s.ClearAnswer(q); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// POST /sessions/{sessionID}/{next|previous|goto/{q}}
func NavigateHandler(mgr *session.Manager, dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := ownSession(mgr, r)
		if err != nil {
			writeErr(w, err)
			return
		}
		var cur int
		switch dir {
		case "next":
			cur, err = s.Next()
		case "previous":
			cur, err = s.Previous()
		default:
			var q int
			if q, err = questionParam(r); err == nil {
				cur, err = s.GoTo(q)
			}
		}
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"currentQuestionIndex": cur})
	}
}

// POST /sessions/{sessionID}/timer/{action}
func TimerHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := ownSession(mgr, r)
		if err != nil {
			writeErr(w, err)
			return
		}
		switch chi.URLParam(r, "action") {
		case "pause":
			s.Pause()
		case "resume":
			s.Resume()
		case "toggle":
			s.Toggle()
		default:
			writeErr(w, apierr.New(http.StatusNotFound, "not_found", errors.New("unknown timer action")))
			return
		}
		writeJSON(w, http.StatusOK, s.Snapshot())
	}
}

// POST /sessions/{sessionID}/submit
func SubmitHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := ownSession(mgr, r)
		if err != nil {
			writeErr(w, err)
			return
		}
		res, won := s.SubmitByUser(r.Context())
		if !won {
			writeErr(w, errNotSubmitted)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

type eventResponse struct {
	Submitted bool            `json:"submitted"`
	Result    *session.Result `json:"result,omitempty"`
}

// POST /sessions/{sessionID}/events {type}
//
// Client-side interruption signals. Losing the race is not an error.
func SessionEventHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := ownSession(mgr, r)
		if err != nil {
			writeErr(w, err)
			return
		}
		var req struct {
			Type string `json:"type"`
		}
		if err := decode(r, &req); err != nil {
			writeErr(w, err)
			return
		}
		var res session.Result
		won := false
		switch req.Type {
		case "fullscreen_enter":
			s.FullscreenEntered()
		case "programmatic_exit":
			s.SuppressFullscreenExit()
		case "fullscreen_exit":
			res, won = s.FullscreenExited(r.Context())
		case "route_change":
			res, won = s.RouteChanged(r.Context())
		default:
			writeErr(w, apierr.New(http.StatusBadRequest, "bad_request", errors.New("unknown event type")))
			return
		}
		out := eventResponse{Submitted: won}
		if won {
			out.Result = &res
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// POST /sessions/{sessionID}/beacon is the page-unload signal. It answers
// immediately; finalization continues after the response.
func BeaconHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := ownSession(mgr, r)
		if err != nil {
			writeErr(w, err)
			return
		}
		accepted := s.PageUnloading(r.Context())
		writeJSON(w, http.StatusAccepted, map[string]bool{"accepted": accepted})
	}
}
