package services

import (
	"context"
	"time"

	"github.com/life-master/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (types.User, error)
	GetByUsernameOrEmail(ctx context.Context, identifier string) (types.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateEmail(ctx context.Context, id int64, email string) (types.User, error)
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) GetByID(ctx context.Context, id int64) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByUsernameOrEmail(ctx context.Context, identifier string) (types.User, error) {
	return s.repo.GetByUsernameOrEmail(ctx, identifier)
}

func (s *UserService) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return s.repo.ExistsByUsername(ctx, username)
}

func (s *UserService) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return s.repo.ExistsByEmail(ctx, email)
}

func (s *UserService) Create(ctx context.Context, user types.User) (types.User, error) {
	return s.repo.Create(ctx, user)
}

func (s *UserService) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return s.repo.UpdatePassword(ctx, id, passwordHash)
}

func (s *UserService) UpdateEmail(ctx context.Context, id int64, email string) (types.User, error) {
	return s.repo.UpdateEmail(ctx, id, email)
}

func (s *UserService) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	return s.repo.TouchLastLogin(ctx, id, at)
}
