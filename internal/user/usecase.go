package user

import (
	"context"

	"github.com/fekuna/omnipos-cashier-service/internal/auth"
	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/fekuna/omnipos-cashier-service/internal/user/dto"
)

type UseCase interface {
	Authenticate(ctx context.Context, username, password string) (*dto.LoginResult, error)
	ResolveSession(ctx context.Context, userID int64) (auth.Session, error)

	CreateUser(ctx context.Context, actor auth.Session, input *dto.CreateUserInput) (*model.User, error)
	DeactivateUser(ctx context.Context, actor auth.Session, id int64) error
	ChangePassword(ctx context.Context, actor auth.Session, input *dto.ChangePasswordInput) error
	ListUsers(ctx context.Context, actor auth.Session, filters *dto.UserFilters) ([]model.User, error)

	// SeedAdmin creates the default admin when no active admin exists.
	SeedAdmin(ctx context.Context, password string) (bool, error)
	// ServiceAccount returns the session background jobs act as.
	ServiceAccount(ctx context.Context) (auth.Session, error)
}
