package rbac

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCheckerPrefixAndWildcard(t *testing.T) {
	c := NewChecker(nil)
	cases := []struct {
		role, perm string
		want       bool
	}{
		{"student", "session:submit", true},
		{"student", "quiz:create", false},
		{"student", "report:view-all", false},
		{"teacher", "report:view-all", true},
		{"admin", "anything:at-all", true},
		{"ghost", "quiz:view", false},
	}
	for _, tc := range cases {
		if got := c.Has(tc.role, tc.perm); got != tc.want {
			t.Errorf("Has(%q, %q) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestRequire(t *testing.T) {
	h := Require("quiz:create")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for role, want := range map[string]int{"teacher": 204, "student": 403, "": 403} {
		r := httptest.NewRequest(http.MethodPost, "/quizzes", nil)
		r = r.WithContext(WithRole(context.Background(), role))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		if w.Code != want {
			t.Errorf("role %q: status %d, want %d", role, w.Code, want)
		}
	}
}

func TestAllowedReadsRoleFromContext(t *testing.T) {
	c := NewChecker(map[string][]string{"proctor": {"session:*"}})
	ctx := WithRole(context.Background(), "proctor")

	if !c.Allowed(ctx, PermSessionPlay) {
		t.Errorf("proctor should hold %s", PermSessionPlay)
	}
	if c.Allowed(ctx, PermQuizCreate) {
		t.Errorf("proctor should not hold %s", PermQuizCreate)
	}
	if c.Allowed(context.Background(), PermSessionPlay) {
		t.Error("missing role must be denied")
	}
}
