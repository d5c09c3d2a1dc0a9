package service

import (
	"context"
	"fmt"

	"github.com/bankcards/card-service/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// UserService manages user accounts.
type UserService struct {
	store Store
	log   *logrus.Logger
}

// NewUserService initializes a new user service
func NewUserService(store Store, log *logrus.Logger) *UserService {
	return &UserService{store: store, log: log}
}

// Create registers a new user with a hashed password.
func (s *UserService) Create(ctx context.Context, username, password, email string, role models.Role) (*models.UserDTO, error) {
	taken, err := s.store.UserExistsByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.ErrUsernameTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hashedPassword),
		Email:        email,
		Role:         role,
		Enabled:      true,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.log.Infof("User registered: %s", user.Username)
	return user.DTO(), nil
}

// GetByID returns the projection of one user.
func (s *UserService) GetByID(ctx context.Context, id int64) (*models.UserDTO, error) {
	user, err := s.store.FindUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.DTO(), nil
}

// GetAll returns one page of user projections.
func (s *UserService) GetAll(ctx context.Context, page models.PageRequest) ([]models.UserDTO, int64, error) {
	users, total, err := s.store.FindAllUsers(ctx, page.Normalized("id", "asc"))
	if err != nil {
		return nil, 0, err
	}
	dtos := make([]models.UserDTO, 0, len(users))
	for i := range users {
		dtos = append(dtos, *users[i].DTO())
	}
	return dtos, total, nil
}

// ExistsByUsername reports whether a username is taken.
func (s *UserService) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return s.store.UserExistsByUsername(ctx, username)
}

// SetEnabled enables or disables a user account.
func (s *UserService) SetEnabled(ctx context.Context, id int64, enabled bool) (*models.UserDTO, error) {
	user, err := s.store.FindUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Enabled = enabled
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	s.log.Infof("User %d enabled=%t", id, enabled)
	return user.DTO(), nil
}
