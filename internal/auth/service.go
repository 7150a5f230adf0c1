// Package auth provides the admin login flow. A successful login exchanges
// the admin credentials for a short-lived JWT session token, so the password
// itself never travels on dashboard requests.
package auth

import (
	"context"
	"crypto/subtle"
	"time"

	"leadfunnel_backend/platform/apperr"
	"leadfunnel_backend/platform/config"
	"leadfunnel_backend/platform/logger"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const adminTokenType = "admin"

// Service authenticates the configured admin and issues session tokens.
type Service struct {
	cfg config.AdminConfig
	log *logger.Logger
	now func() time.Time
}

func NewService(cfg config.AdminConfig, log *logger.Logger) *Service {
	return &Service{cfg: cfg, log: log, now: time.Now}
}

// Login verifies the credential pair and returns a signed session token with
// its expiry. Username comparison is constant time like the password check.
func (s *Service) Login(_ context.Context, username, password string) (string, time.Time, error) {
	storedHash := s.cfg.GetAdminPasswordHash()
	if storedHash == "" {
		s.log.AuthEvent("admin_login", username, false, "password auth not configured")
		return "", time.Time{}, apperr.Unauthorized("password login is not enabled")
	}

	usernameOK := subtle.ConstantTimeCompare(
		[]byte(username), []byte(s.cfg.GetAdminUsername()),
	) == 1
	passwordErr := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(password))
	if !usernameOK || passwordErr != nil {
		s.log.AuthEvent("admin_login", username, false, "invalid credentials")
		return "", time.Time{}, apperr.Unauthorized("invalid credentials")
	}

	expiresAt := s.now().Add(s.cfg.GetAccessTokenTTL())
	token, err := s.signToken(username, expiresAt)
	if err != nil {
		return "", time.Time{}, apperr.Wrap(apperr.KindInternal, "failed to issue session token", err)
	}

	s.log.AuthEvent("admin_login", username, true, "")
	return token, expiresAt, nil
}

func (s *Service) signToken(username string, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":  username,
		"type": adminTokenType,
		"exp":  expiresAt.Unix(),
		"iat":  s.now().Unix(),
	}
	tokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tokenObj.SignedString([]byte(s.cfg.GetJWTAccessSecret()))
}
