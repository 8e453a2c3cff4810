package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	authmw "github.com/mind-engage/mindengage-quiz/internal/auth/middleware"
	"github.com/mind-engage/mindengage-quiz/internal/db"
)

func TestGuestLoginReusesCookie(t *testing.T) {
	dbh, err := db.OpenMemory(context.Background())
	require.NoError(t, err)
	defer dbh.Close()
	a := authmw.NewAuthService("test-secret")
	h := GuestLoginHandler(a, dbh, false)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/guest", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var first struct{ Username string }
	require.NoError(t, json.NewDecoder(w.Body).Decode(&first))
	require.True(t, strings.HasPrefix(first.Username, "guest-"))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)

	r := httptest.NewRequest(http.MethodPost, "/auth/guest", nil)
	r.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	var second struct {
		AccessToken string `json:"access_token"`
		Username    string
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&second))
	require.Equal(t, first.Username, second.Username)

	c, err := a.Parse(second.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "student", c.Role)
	require.Equal(t, first.Username, c.Sub)
}
