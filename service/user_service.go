package service

import (
	"context"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/EllieChoi1998/poc-backend/apperr"
	"github.com/EllieChoi1998/poc-backend/config"
	"github.com/EllieChoi1998/poc-backend/model"
	"github.com/EllieChoi1998/poc-backend/repository"
)

// UserService owns account lookup, credential checks and the uploader
// validation consumed by the contract lifecycle.
type UserService struct {
	repo *repository.UserRepository
}

func NewUserService(repo *repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// Validate checks that the user exists and is active.
func (s *UserService) Validate(ctx context.Context, userID int64) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return apperr.Storage(err, "failed to look up user %d", userID)
	}
	if user == nil {
		return apperr.NotFound("user %d does not exist", userID)
	}
	if user.Activate != model.UserActive {
		return apperr.Permission("user %d is deactivated", userID)
	}
	return nil
}

// Login verifies credentials and returns the account.
func (s *UserService) Login(ctx context.Context, loginID, password string) (*model.User, error) {
	user, err := s.repo.FindByLoginID(ctx, loginID)
	if err != nil {
		return nil, apperr.Storage(err, "failed to look up login %s", loginID)
	}
	if user == nil || user.Activate != model.UserActive {
		return nil, apperr.Permission("invalid login id or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, apperr.Permission("invalid login id or password")
	}
	return user, nil
}

// Register creates a new active account with a hashed password.
func (s *UserService) Register(ctx context.Context, loginID, name, password, hierarchy string, teamID *int64) (*model.User, error) {
	existing, err := s.repo.FindByLoginID(ctx, loginID)
	if err != nil {
		return nil, apperr.Storage(err, "failed to look up login %s", loginID)
	}
	if existing != nil {
		return nil, apperr.Duplicate("login id %s is already registered", loginID)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Validation("failed to hash password: %v", err)
	}

	user := &model.User{
		LoginID:   loginID,
		Name:      name,
		Password:  string(hash),
		Hierarchy: hierarchy,
		TeamID:    teamID,
		Activate:  model.UserActive,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, apperr.Storage(err, "failed to create user %s", loginID)
	}
	return user, nil
}

// FindByID returns the account, or a NotFound error.
func (s *UserService) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, apperr.Storage(err, "failed to look up user %d", userID)
	}
	if user == nil {
		return nil, apperr.NotFound("user %d does not exist", userID)
	}
	return user, nil
}

// StoreRefreshToken records the latest refresh token issued at login.
func (s *UserService) StoreRefreshToken(ctx context.Context, userID int64, token string) error {
	if err := s.repo.UpdateRefreshToken(ctx, userID, &token); err != nil {
		return apperr.Storage(err, "failed to store refresh token for user %d", userID)
	}
	return nil
}

// EnsureSystemAccount creates the bootstrap administrator account at
// startup when it does not exist yet.
func (s *UserService) EnsureSystemAccount(ctx context.Context, cfg *config.SystemConfig) error {
	existing, err := s.repo.FindByLoginID(ctx, cfg.LoginID)
	if err != nil {
		return apperr.Storage(err, "failed to look up system account")
	}
	if existing != nil {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		return apperr.Validation("failed to hash system password: %v", err)
	}

	user := &model.User{
		LoginID:    cfg.LoginID,
		Name:       cfg.Name,
		Password:   string(hash),
		Hierarchy:  "ADMIN",
		SystemRole: model.RoleSystem,
		Activate:   model.UserActive,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return apperr.Storage(err, "failed to create system account")
	}

	slog.Info("system account created", "login_id", cfg.LoginID)
	return nil
}
