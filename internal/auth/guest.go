package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-quiz/internal/apierr"
	authmw "github.com/mind-engage/mindengage-quiz/internal/auth/middleware"
)

const (
	guestCookie = "mq_guest_id"
	guestPrefix = "guest|"
	guestTTL    = 30 * 24 * time.Hour
)

// GuestLoginHandler issues a student token for a browser without an account.
// The guest identity lives in a cookie so the same browser keeps its
// reports and streak across visits.
func GuestLoginHandler(a *authmw.AuthService, db *sql.DB, secureCookie bool) http.HandlerFunc {
	type out struct {
		AccessToken string `json:"access_token"`
		Username    string `json:"username"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, username := "", ""
		if c, err := r.Cookie(guestCookie); err == nil && strings.HasPrefix(c.Value, guestPrefix) {
			if u, err := lookupGuest(ctx, db, c.Value); err == nil {
				id, username = c.Value, u
			}
		}
		if id == "" {
			var err error
			id, username, err = createGuest(ctx, db)
			if err != nil {
				apierr.Write(w, fmt.Errorf("create guest: %w", err))
				return
			}
		}

		tok, err := a.IssueJWT(username, "student")
		if err != nil {
			apierr.Write(w, fmt.Errorf("issue token: %w", err))
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     guestCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			Secure:   secureCookie,
			SameSite: http.SameSiteLaxMode,
			Expires:  time.Now().Add(guestTTL),
		})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out{AccessToken: tok, Username: username})
	}
}

func lookupGuest(ctx context.Context, db *sql.DB, id string) (string, error) {
	var username, role string
	if err := db.QueryRowContext(ctx, `SELECT username, role FROM users WHERE id=$1`, id).Scan(&username, &role); err != nil {
		return "", err
	}
	if role != "student" {
		return "", errors.New("not a guest")
	}
	return username, nil
}

func createGuest(ctx context.Context, db *sql.DB) (id, username string, err error) {
	sfx := strings.ReplaceAll(uuid.NewString(), "-", "")
	id = guestPrefix + sfx
	username = "guest-" + sfx[:8]
	_, err = db.ExecContext(ctx, `INSERT INTO users (id, username, role, created_at)
		VALUES ($1,$2,$3,$4)`, id, username, "student", time.Now().Unix())
	return id, username, err
}
