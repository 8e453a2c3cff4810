package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrBadCredentials = errors.New("invalid credentials")
)

// Users is the users table.
type Users struct{ db *sql.DB }

func NewUsers(db *sql.DB) *Users { return &Users{db: db} }

// Create inserts or replaces a user with a bcrypt-hashed password.
func (u *Users) Create(ctx context.Context, username, password, role string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = u.db.ExecContext(ctx, `INSERT INTO users (id, username, role, password_hash, created_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (username) DO UPDATE SET role=excluded.role, password_hash=excluded.password_hash`,
		uuid.NewString(), username, role, string(hash), time.Now().Unix())
	return err
}

// Authenticate returns the user's role when password matches.
func (u *Users) Authenticate(ctx context.Context, username, password string) (string, error) {
	var role, hash string
	err := u.db.QueryRowContext(ctx, `SELECT role, password_hash FROM users WHERE username=$1`, username).Scan(&role, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", err
	}
	if hash == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return "", ErrBadCredentials
	}
	return role, nil
}

// Role looks a user up by username.
func (u *Users) Role(ctx context.Context, username string) (string, error) {
	var role string
	err := u.db.QueryRowContext(ctx, `SELECT role FROM users WHERE username=$1`, username).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrUserNotFound
	}
	return role, err
}

// ChangePassword replaces the password after checking the old one.
func (u *Users) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	if _, err := u.Authenticate(ctx, username, oldPassword); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = u.db.ExecContext(ctx, `UPDATE users SET password_hash=$1 WHERE username=$2`, string(hash), username)
	return err
}
