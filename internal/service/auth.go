package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"store_rating/internal/domain"
	"store_rating/internal/policy"
	"store_rating/internal/repository"
	"store_rating/internal/utils"
)

// RegisterInput is the payload of a self registration.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Address  string
}

// AuthService registers users, issues credentials and resolves callers.
type AuthService struct {
	users  *repository.UserRepository
	secret string
	expiry time.Duration
}

// Register creates a user with role user.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if err := cleanProfile(&in.Name, &in.Address); err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &domain.User{
		Name:     in.Name,
		Email:    normalizeEmail(in.Email),
		Password: hash,
		Address:  in.Address,
		Role:     domain.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"user_id": user.ID, "email": user.Email}).Info("user registered")
	return user, nil
}

// Login checks the credentials and returns a signed token with the user.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil, fmt.Errorf("%w: invalid email or password", domain.ErrUnauthenticated)
	}
	if err != nil {
		return "", nil, err
	}
	if !utils.CheckPassword(user.Password, password) {
		return "", nil, fmt.Errorf("%w: invalid email or password", domain.ErrUnauthenticated)
	}
	token, err := utils.GenerateJWT(user, s.secret, s.expiry)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	logrus.WithField("user_id", user.ID).Info("user logged in")
	return token, user, nil
}

// Authenticate verifies a token and loads the caller it names. Tokens of
// deleted users are rejected.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*policy.Caller, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}
	claims, err := utils.ParseJWT(token, s.secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: unknown subject", domain.ErrUnauthenticated)
	}
	if err != nil {
		return nil, err
	}
	return policy.CallerFromUser(user), nil
}

// Me returns the caller's own profile.
func (s *AuthService) Me(ctx context.Context, caller *policy.Caller) (*domain.User, error) {
	if err := policy.Authenticated(caller); err != nil {
		return nil, err
	}
	return s.users.FindByID(ctx, caller.ID)
}

// UpdatePassword replaces the caller's password after checking the current one.
func (s *AuthService) UpdatePassword(ctx context.Context, caller *policy.Caller, current, next string) error {
	if err := policy.Authenticated(caller); err != nil {
		return err
	}
	user, err := s.users.FindByID(ctx, caller.ID)
	if err != nil {
		return err
	}
	if !utils.CheckPassword(user.Password, current) {
		return domain.NewValidationError("currentPassword", "current password is incorrect")
	}
	hash, err := utils.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.Password = hash
	if err := s.users.Save(ctx, user); err != nil {
		return err
	}
	logrus.WithField("user_id", user.ID).Info("password updated")
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
