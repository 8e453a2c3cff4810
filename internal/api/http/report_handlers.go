package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-quiz/internal/apierr"
	authmw "github.com/mind-engage/mindengage-quiz/internal/auth/middleware"
	"github.com/mind-engage/mindengage-quiz/internal/events"
	"github.com/mind-engage/mindengage-quiz/internal/rbac"
	"github.com/mind-engage/mindengage-quiz/internal/report"
	"github.com/mind-engage/mindengage-quiz/internal/review"
)

var errForbidden = apierr.New(http.StatusForbidden, "forbidden", errors.New("forbidden"))

// targetUser resolves ?username=, which only report:view-all may point at
// someone else.
func targetUser(r *http.Request) (string, error) {
	me := authmw.SubjectFromContext(r.Context())
	u := strings.TrimSpace(r.URL.Query().Get("username"))
	if u == "" || u == me {
		return me, nil
	}
	if !rbac.Can(r.Context(), rbac.PermReportViewAll) {
		return "", errForbidden
	}
	return u, nil
}

// GET /reports?username=&limit=&offset=
func ListReportsHandler(store report.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := targetUser(r)
		if err != nil {
			writeErr(w, err)
			return
		}
		qs := r.URL.Query()
		list, err := store.ListReports(r.Context(), u, parseIntDefault(qs.Get("limit"), 50), parseIntDefault(qs.Get("offset"), 0))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /reports/{reportID}
func GetReportHandler(store report.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, err := store.GetReport(r.Context(), chi.URLParam(r, "reportID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		if rep.Username != authmw.SubjectFromContext(r.Context()) && !rbac.Can(r.Context(), rbac.PermReportViewAll) {
			writeErr(w, report.ErrReportNotFound)
			return
		}
		writeJSON(w, http.StatusOK, rep)
	}
}

// GET /stats/{quizID}?username=
func GetStatsHandler(store report.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := targetUser(r)
		if err != nil {
			writeErr(w, err)
			return
		}
		st, err := store.GetStats(r.Context(), u, chi.URLParam(r, "quizID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

// GET /reviews/due?limit=
func DueReviewsHandler(sch *review.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := sch.Due(r.Context(), authmw.SubjectFromContext(r.Context()), parseIntDefault(r.URL.Query().Get("limit"), 50))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

// GET /events?after=&limit=
func ListEventsHandler(log *events.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		after, _ := strconv.ParseInt(r.URL.Query().Get("after"), 10, 64)
		evs, err := log.Since(r.Context(), after, parseIntDefault(r.URL.Query().Get("limit"), 100))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, evs)
	}
}

type profile struct {
	Username    string              `json:"username"`
	Streak      report.Streak       `json:"streak"`
	Preferences []report.Preference `json:"preferences"`
}

// GET /me
func ProfileHandler(store report.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me := authmw.SubjectFromContext(r.Context())
		st, err := store.GetStreak(r.Context(), me)
		if err != nil {
			writeErr(w, err)
			return
		}
		prefs, err := store.Preferences(r.Context(), me)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, profile{Username: me, Streak: st, Preferences: prefs})
	}
}
