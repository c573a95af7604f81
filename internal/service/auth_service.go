package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/jwt"

	"go.uber.org/zap"
)

var ErrUserNotFound = errors.New("user not found")

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// SeedAccount describes a user created at start-up when missing.
type SeedAccount struct {
	Name     string
	Email    string
	Password string
	Role     string
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
	ResetPassword(ctx context.Context, email, newPassword string) error
	SeedUsers(ctx context.Context, accounts ...SeedAccount) error
}

type authService struct {
	userRepo repository.UserRepository
	tokens   *jwt.Manager
	log      *zap.Logger
}

func NewAuthService(userRepo repository.UserRepository, tokens *jwt.Manager, log *zap.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
		log:      log.Named("auth"),
	}
}

func (s *authService) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Email, user.Name, user.Role)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	s.log.Info("user logged in", zap.Stringer("user_id", user.ID), zap.String("role", user.Role))
	return &LoginResponse{Token: token, User: user}, nil
}

func (s *authService) ResetPassword(ctx context.Context, email, newPassword string) error {
	if len(newPassword) < 8 {
		return NewValidationError("password", "The password must be at least 8 characters.")
	}

	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrUserNotFound
		}
		return err
	}

	if err := user.SetPassword(newPassword); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.userRepo.UpdatePassword(ctx, user.ID, user.Password)
}

// SeedUsers creates each account that does not exist yet. Existing accounts
// are left untouched.
func (s *authService) SeedUsers(ctx context.Context, accounts ...SeedAccount) error {
	for _, acc := range accounts {
		email := strings.ToLower(strings.TrimSpace(acc.Email))
		if email == "" {
			continue
		}

		_, err := s.userRepo.FindByEmail(ctx, email)
		if err == nil {
			continue
		}
		if !repository.IsNotFound(err) {
			return err
		}

		user := &model.User{Name: acc.Name, Email: email, Role: acc.Role, IsActive: true}
		if err := user.SetPassword(acc.Password); err != nil {
			return fmt.Errorf("hash password for %s: %w", email, err)
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return fmt.Errorf("seed user %s: %w", email, err)
		}
		s.log.Info("seeded user", zap.String("email", email), zap.String("role", acc.Role))
	}
	return nil
}
