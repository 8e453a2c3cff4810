package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mind-engage/mindengage-quiz/internal/apierr"
	"github.com/mind-engage/mindengage-quiz/internal/rbac"
)

const tokenTTL = 8 * time.Hour

type AuthService struct{ hmac []byte }

func NewAuthService(secret string) *AuthService { return &AuthService{hmac: []byte(secret)} }

// Claims carry the username as subject.
type Claims struct {
	Sub  string `json:"sub"`
	Role string `json:"role"` // "teacher", "student" or "admin"
	jwt.RegisteredClaims
}

func (a *AuthService) IssueJWT(sub, role string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Sub:  sub,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "mindengage-quiz",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(a.hmac)
}

func (a *AuthService) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.hmac, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || c.Sub == "" {
		return nil, errors.New("invalid token")
	}
	return c, nil
}

// POST /auth/login  { "username": "...", "password": "..." }
//
// Users found in the users table are checked with bcrypt. With devLogin,
// unknown users may sign in as student or teacher when password equals
// username.
func LoginHandler(a *AuthService, users *Users, devLogin bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
			Role     string `json:"role"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
			apierr.Write(w, apierr.New(http.StatusBadRequest, "bad_request", errors.New("username and password required")))
			return
		}
		role, err := users.Authenticate(r.Context(), req.Username, req.Password)
		switch {
		case err == nil:
		case errors.Is(err, ErrUserNotFound) && devLogin && req.Username == req.Password:
			role = req.Role
			if role != "teacher" {
				role = "student"
			}
		case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrBadCredentials):
			apierr.Write(w, apierr.New(http.StatusUnauthorized, "invalid_credentials", ErrBadCredentials))
			return
		default:
			apierr.Write(w, fmt.Errorf("login: %w", err))
			return
		}
		tok, err := a.IssueJWT(req.Username, role)
		if err != nil {
			apierr.Write(w, fmt.Errorf("issue token: %w", err))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token": tok,
			"username":     req.Username,
			"role":         role,
		})
	}
}

// JWTMiddleware accepts a bearer header or, for WebSocket upgrades where
// browsers cannot set headers, an access_token query parameter.
func JWTMiddleware(a *AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := ""
			if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
				raw = strings.TrimPrefix(h, "Bearer ")
			} else if q := r.URL.Query().Get("access_token"); q != "" {
				raw = q
			}
			if raw == "" {
				apierr.Write(w, apierr.New(http.StatusUnauthorized, "unauthorized", errors.New("missing bearer")))
				return
			}
			c, err := a.Parse(raw)
			if err != nil {
				apierr.Write(w, apierr.New(http.StatusUnauthorized, "unauthorized", errors.New("bad token")))
				return
			}
			ctx := WithSubject(r.Context(), c.Sub)
			ctx = rbac.WithRole(ctx, c.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
