package service

import (
	"context"
	"errors"
	"strings"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/validator"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const emailTakenMessage = "The email has already been taken."

type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=admin manager user"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin manager user"`
}

// UserService is the admin-facing account management. Admins cannot change
// their own role or delete themselves, so at least one admin always remains.
type UserService interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	CreateUser(ctx context.Context, req CreateUserRequest, actor Actor) (*model.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, req UpdateRoleRequest, actor Actor) (*model.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID, actor Actor) error
}

type userService struct {
	userRepo repository.UserRepository
	log      *zap.Logger
}

func NewUserService(userRepo repository.UserRepository, log *zap.Logger) UserService {
	return &userService{userRepo: userRepo, log: log.Named("users")}
}

func (s *userService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.userRepo.FindAll(ctx)
}

func (s *userService) CreateUser(ctx context.Context, req CreateUserRequest, actor Actor) (*model.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if fields := validator.ValidateStruct(&req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	if _, err := s.userRepo.FindByEmail(ctx, req.Email); err == nil {
		return nil, NewValidationError("email", emailTakenMessage)
	} else if !repository.IsNotFound(err) {
		return nil, err
	}

	user := &model.User{Name: req.Name, Email: req.Email, Role: req.Role, IsActive: true}
	user.CreatedBy = actor.ID.String()
	user.UpdatedBy = actor.ID.String()
	if err := user.SetPassword(req.Password); err != nil {
		return nil, err
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// a trashed account still holds the email in the unique index
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, NewValidationError("email", emailTakenMessage)
		}
		return nil, err
	}
	s.log.Info("user created", zap.Stringer("user_id", user.ID), zap.String("role", user.Role))
	return user, nil
}

func (s *userService) UpdateRole(ctx context.Context, id uuid.UUID, req UpdateRoleRequest, actor Actor) (*model.User, error) {
	if fields := validator.ValidateStruct(&req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.ID == actor.ID {
		return nil, &ConflictError{Message: "You cannot change your own role"}
	}

	if err := s.userRepo.UpdateRole(ctx, id, req.Role, actor.ID.String()); err != nil {
		return nil, err
	}
	s.log.Info("user role changed",
		zap.Stringer("user_id", id),
		zap.String("from", user.Role),
		zap.String("to", req.Role))
	return s.find(ctx, id)
}

func (s *userService) DeleteUser(ctx context.Context, id uuid.UUID, actor Actor) error {
	user, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if user.ID == actor.ID {
		return &ConflictError{Message: "You cannot delete your own account"}
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("user deleted", zap.Stringer("user_id", id))
	return nil
}

func (s *userService) find(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, &NotFoundError{Resource: "user", ID: id}
		}
		return nil, err
	}
	return user, nil
}
