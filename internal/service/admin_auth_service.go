package service

import (
	"errors"
	"fmt"
	"time"

	apperrors "cozycakey/internal/errors"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// SessionTTL is how long an admin session stays valid.
const SessionTTL = 7 * 24 * time.Hour

const adminSubject = "admin"

var ErrInvalidSession = errors.New("invalid admin session")

// AdminAuthService guards the admin area with a single shared password.
type AdminAuthService struct {
	passwordHash []byte
	secret       []byte
	now          func() time.Time
}

func NewAdminAuthService(passwordHash, jwtSecret string) *AdminAuthService {
	return &AdminAuthService{
		passwordHash: []byte(passwordHash),
		secret:       []byte(jwtSecret),
		now:          time.Now,
	}
}

func (s *AdminAuthService) configured() bool {
	return len(s.passwordHash) > 0 && len(s.secret) > 0
}

// Login checks password against the bcrypt hash and returns a signed session
// token together with its expiry.
func (s *AdminAuthService) Login(password string) (string, time.Time, error) {
	if !s.configured() {
		return "", time.Time{}, apperrors.ErrServiceUnavailable("Admin login is not configured")
	}
	if password == "" {
		return "", time.Time{}, apperrors.ErrBadRequest("Password is required")
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return "", time.Time{}, apperrors.ErrUnauthorized("Invalid password")
	}

	now := s.now()
	expires := now.Add(SessionTTL)
	claims := jwt.RegisteredClaims{
		Subject:   adminSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("error signing session: %w", err)
	}
	return token, expires, nil
}

// ValidateToken accepts only unexpired HS256 tokens issued by Login.
func (s *AdminAuthService) ValidateToken(token string) error {
	if !s.configured() || token == "" {
		return ErrInvalidSession
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}
	if claims.Subject != adminSubject {
		return ErrInvalidSession
	}
	return nil
}
