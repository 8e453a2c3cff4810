package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/rbac"
)

// POST /quizzes
func UploadQuizHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var q quiz.Quiz
		if err := decode(r, &q); err != nil {
			writeErr(w, err)
			return
		}
		saved, err := store.PutQuiz(r.Context(), q)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, saved)
	}
}

// GET /quizzes/{quizID}; answer keys only for roles that may see them.
func GetQuizHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "quizID")
		get := store.GetQuiz
		if rbac.Can(r.Context(), rbac.PermQuizViewAnswers) {
			get = store.GetQuizAdmin
		}
		q, err := get(r.Context(), id)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}

// GET /quizzes?q=&category=&limit=&offset=
func ListQuizzesHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qs := r.URL.Query()
		list, err := store.ListQuizzes(r.Context(), quiz.ListOpts{
			Q:        strings.TrimSpace(qs.Get("q")),
			Category: strings.TrimSpace(qs.Get("category")),
			Limit:    parseIntDefault(qs.Get("limit"), 50),
			Offset:   parseIntDefault(qs.Get("offset"), 0),
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
