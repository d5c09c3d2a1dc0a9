package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bankcards/card-service/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// Claims are the JWT claims issued at login: the subject carries the user
// id, Role the authorization role.
type Claims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// AuthService authenticates users and issues JWT tokens.
type AuthService struct {
	store     Store
	jwtSecret string
	expiry    time.Duration
	log       *logrus.Logger
}

// NewAuthService initializes a new auth service
func NewAuthService(store Store, jwtSecret string, expiry time.Duration, log *logrus.Logger) *AuthService {
	return &AuthService{store: store, jwtSecret: jwtSecret, expiry: expiry, log: log}
}

// Login authenticates a user and returns a signed token. Unknown username,
// wrong password and disabled account all fail the same way so the response
// does not reveal which part was wrong.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.store.FindUserByUsername(ctx, username)
	if err != nil {
		return "", models.ErrInvalidCredentials
	}
	if !user.Enabled {
		return "", models.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", models.ErrInvalidCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	})
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Infof("User logged in: %s", user.Username)
	return tokenString, nil
}
