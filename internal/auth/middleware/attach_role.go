package auth

import (
	"errors"
	"net/http"

	"github.com/mind-engage/mindengage-quiz/internal/apierr"
	"github.com/mind-engage/mindengage-quiz/internal/rbac"
)

// AttachRoleFromDB makes the users table authoritative for the role of a
// known user. Unknown users keep their token role only when
// allowClaimFallback is set (dev/offline).
func AttachRoleFromDB(users *Users, allowClaimFallback bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			claimRole := rbac.RoleFromContext(ctx)

			role, err := users.Role(ctx, SubjectFromContext(ctx))
			switch {
			case err == nil && role != "":
				next.ServeHTTP(w, r.WithContext(rbac.WithRole(ctx, role)))
			case err != nil && allowClaimFallback && claimRole != "":
				next.ServeHTTP(w, r)
			default:
				apierr.Write(w, apierr.New(http.StatusForbidden, "forbidden", errors.New("unknown user")))
			}
		})
	}
}
