package orchestrators

import (
	"crypto/subtle"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"celltracker/internal/metrics"
)

// ErrInvalidPassword is returned for a wrong admin password.
var ErrInvalidPassword = errors.New("invalid password")

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Password   string
	RemoteAddr string
}

// LoginDeps holds the configured admin credential.
// PasswordHash (bcrypt) takes precedence over the plain Password.
type LoginDeps struct {
	Password     string
	PasswordHash string
}

// ExecuteLogin checks the shared admin password.
// PRE: deps carries at least one credential
// POST: Returns nil when the password matches, ErrInvalidPassword otherwise
// INVARIANT: Plain passwords are compared in constant time
func ExecuteLogin(input LoginInput, deps LoginDeps) error {
	if input.Password == "" || !passwordMatches(input.Password, deps) {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		slog.Info("auth_event", "event", "login_failed", "remote_addr", input.RemoteAddr)
		return ErrInvalidPassword
	}
	metrics.LoginAttempts.WithLabelValues("success").Inc()
	slog.Info("auth_event", "event", "login_success", "remote_addr", input.RemoteAddr)
	return nil
}

func passwordMatches(password string, deps LoginDeps) bool {
	if deps.PasswordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(deps.PasswordHash), []byte(password)) == nil
	}
	if deps.Password == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(deps.Password)) == 1
}
