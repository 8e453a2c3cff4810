package http

import (
	"errors"
	"net/http"

	"github.com/mind-engage/mindengage-quiz/internal/apierr"
	authmw "github.com/mind-engage/mindengage-quiz/internal/auth/middleware"
)

type changePasswordReq struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// POST /users/change-password
func ChangePasswordHandler(users *authmw.Users) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req changePasswordReq
		if err := decode(r, &req); err != nil {
			writeErr(w, err)
			return
		}
		if req.NewPassword == "" {
			writeErr(w, apierr.New(http.StatusBadRequest, "bad_request", errors.New("new password required")))
			return
		}
		err := users.ChangePassword(r.Context(), authmw.SubjectFromContext(r.Context()), req.OldPassword, req.NewPassword)
		switch {
		case errors.Is(err, authmw.ErrUserNotFound):
			writeErr(w, apierr.New(http.StatusNotFound, "user_not_found", err))
		case errors.Is(err, authmw.ErrBadCredentials):
			writeErr(w, apierr.New(http.StatusForbidden, "incorrect_password", err))
		case err != nil:
			writeErr(w, err)
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}
}
