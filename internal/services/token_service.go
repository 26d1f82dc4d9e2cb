package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/croftbit/taskboard/internal/models"
	"github.com/croftbit/taskboard/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenService issues and verifies the signed bearer credentials used by
// both the REST API and the push handshake.
type TokenService struct {
	secret   []byte
	ttl      time.Duration
	userRepo repository.UserRepository
}

// NewTokenService creates a new TokenService.
func NewTokenService(secret string, ttl time.Duration, userRepo repository.UserRepository) *TokenService {
	return &TokenService{
		secret:   []byte(secret),
		ttl:      ttl,
		userRepo: userRepo,
	}
}

// Issue signs a token for the given user.
func (s *TokenService) Issue(userID uint64) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify validates a bearer credential and resolves it to a user. It
// returns ErrInvalidToken for malformed, forged, or expired tokens and
// ErrUserNotFound when the subject no longer exists.
func (s *TokenService) Verify(token string) (*models.User, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}
