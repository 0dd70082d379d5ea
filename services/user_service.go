package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/akinalp/tenantgate/models"
	"github.com/akinalp/tenantgate/pkg"
	"github.com/akinalp/tenantgate/pkg/password"
	"github.com/akinalp/tenantgate/repository"
)

// UserService manages the users of the request's tenant.
type UserService interface {
	// Create validates req, rejects a duplicate email with USER_EXISTS and
	// stores the user with a hashed password.
	Create(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	SetActive(ctx context.Context, id int64, active bool) (*models.User, error)
}

type userService struct {
	users  repository.UserRepository
	hasher *password.Hasher
}

// NewUserService returns the UserService backed by users.
func NewUserService(users repository.UserRepository, hasher *password.Hasher) UserService {
	return &userService{users: users, hasher: hasher}
}

func (s *userService) Create(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	req.Normalize()
	if err := pkg.Validate(req); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, userExists()
	} else if !errors.Is(err, pkg.ErrNotFound) {
		return nil, internal("SERVICE_ERROR", err)
	}

	hash, err := s.hasher.Hash(ctx, req.Password)
	if err != nil {
		return nil, hashFailure("SERVICE_ERROR", "password", err)
	}

	user := &models.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: hash,
		UserType:     req.UserType,
		Category:     req.Category,
		IsActive:     true,
	}

	if err := s.users.Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration of the same email.
		if errors.Is(err, pkg.ErrAlreadyExists) {
			return nil, userExists()
		}
		return nil, internal("SERVICE_ERROR", err)
	}

	return user, nil
}

func (s *userService) List(ctx context.Context) ([]*models.User, error) {
	users, err := s.users.List(ctx, "id")
	if err != nil {
		return nil, internal("USER_FETCH_FAILED", err)
	}
	return users, nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, pkg.ErrNotFound) {
		return nil, userNotFound(id)
	}
	if err != nil {
		return nil, internal("USER_FETCH_FAILED", err)
	}
	return user, nil
}

func (s *userService) SetActive(ctx context.Context, id int64, active bool) (*models.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.users.SetActive(ctx, id, active); err != nil {
		return nil, internal("STATUS_UPDATE_FAILED", err)
	}
	user.IsActive = active
	return user, nil
}

func userExists() error {
	return pkg.NewConflictError("USER_EXISTS", "User already exists with this email.")
}

func userNotFound(id int64) error {
	return pkg.NewNotFoundError("USER_NOT_FOUND", fmt.Sprintf("User with ID %d not found.", id))
}
