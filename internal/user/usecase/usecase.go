package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-cashier-service/internal/apperr"
	"github.com/fekuna/omnipos-cashier-service/internal/auth"
	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/fekuna/omnipos-cashier-service/internal/user"
	"github.com/fekuna/omnipos-cashier-service/internal/user/dto"
	"github.com/fekuna/omnipos-cashier-service/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultAdminUsername = "admin"
	minPasswordLength    = 6
)

// dummyHash keeps the cost of a failed lookup equal to a failed compare.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)

type userUseCase struct {
	repo   user.Repository
	tokens *auth.TokenManager
	logger logger.ZapLogger
	cost   int
	now    func() time.Time
}

func NewUserUseCase(repo user.Repository, tokens *auth.TokenManager, log logger.ZapLogger) user.UseCase {
	return &userUseCase{
		repo:   repo,
		tokens: tokens,
		logger: log,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
	}
}

func (uc *userUseCase) Authenticate(ctx context.Context, username, password string) (*dto.LoginResult, error) {
	u, err := uc.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, apperr.ErrAuthentication
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		uc.logger.Info("login rejected", zap.String("username", u.Username), zap.String("reason", "bad credentials"))
		return nil, apperr.ErrAuthentication
	}
	if !u.IsActive {
		uc.logger.Info("login rejected", zap.String("username", u.Username), zap.String("reason", "inactive"))
		return nil, apperr.ErrAuthentication
	}

	result := &dto.LoginResult{User: u}
	if uc.tokens != nil {
		token, exp, err := uc.tokens.Issue(auth.NewSession(u))
		if err != nil {
			return nil, err
		}
		result.Token = token
		result.ExpiresAt = exp
	}

	uc.logger.Info("user logged in", zap.Int64("user_id", u.ID), zap.String("role", string(u.Role)))
	return result, nil
}

func (uc *userUseCase) ResolveSession(ctx context.Context, userID int64) (auth.Session, error) {
	u, err := uc.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return auth.Session{}, apperr.ErrAuthentication
		}
		return auth.Session{}, err
	}
	if !u.IsActive {
		return auth.Session{}, fmt.Errorf("%w: user is inactive", apperr.ErrAuthentication)
	}
	return auth.NewSession(u), nil
}

func (uc *userUseCase) CreateUser(ctx context.Context, actor auth.Session, input *dto.CreateUserInput) (*model.User, error) {
	if err := auth.Require(actor, auth.ActionManageUsers); err != nil {
		return nil, err
	}

	username := strings.TrimSpace(input.Username)
	fullName := strings.TrimSpace(input.FullName)
	switch {
	case username == "":
		return nil, apperr.Invalid("username is required")
	case fullName == "":
		return nil, apperr.Invalid("full name is required")
	case !input.Role.Valid():
		return nil, apperr.Invalid("unknown role %q", input.Role)
	}

	hash, err := uc.hash(input.Password)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	u := &model.User{
		BaseModel:    model.BaseModel{CreatedAt: now, UpdatedAt: now},
		Username:     username,
		PasswordHash: hash,
		FullName:     fullName,
		Role:         input.Role,
		IsActive:     true,
	}
	if err := uc.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	uc.logger.Info("user created",
		zap.Int64("user_id", u.ID),
		zap.String("role", string(u.Role)),
		zap.Int64("created_by", actor.UserID),
	)
	return u, nil
}

func (uc *userUseCase) DeactivateUser(ctx context.Context, actor auth.Session, id int64) error {
	if err := auth.Require(actor, auth.ActionManageUsers); err != nil {
		return err
	}
	if id == actor.UserID {
		return apperr.Invalid("you cannot deactivate your own account")
	}

	u, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if u.Role == model.RoleAdmin && u.IsActive {
		n, err := uc.repo.CountActiveByRole(ctx, model.RoleAdmin)
		if err != nil {
			return err
		}
		if n <= 1 {
			return apperr.Invalid("cannot deactivate the last active admin")
		}
	}

	if err := uc.repo.SetActive(ctx, id, false); err != nil {
		return err
	}
	uc.logger.Info("user deactivated", zap.Int64("user_id", id), zap.Int64("by", actor.UserID))
	return nil
}

// ChangePassword lets users change their own password (old password required)
// and lets admins reset anyone's.
func (uc *userUseCase) ChangePassword(ctx context.Context, actor auth.Session, input *dto.ChangePasswordInput) error {
	self := input.UserID == actor.UserID
	if !self {
		if err := auth.Require(actor, auth.ActionManageUsers); err != nil {
			return err
		}
	}

	u, err := uc.repo.FindByID(ctx, input.UserID)
	if err != nil {
		return err
	}
	if self {
		if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(input.OldPassword)); err != nil {
			return apperr.ErrAuthentication
		}
	}

	hash, err := uc.hash(input.NewPassword)
	if err != nil {
		return err
	}
	return uc.repo.UpdatePassword(ctx, u.ID, hash)
}

func (uc *userUseCase) ListUsers(ctx context.Context, actor auth.Session, filters *dto.UserFilters) ([]model.User, error) {
	if err := auth.Require(actor, auth.ActionManageUsers); err != nil {
		return nil, err
	}
	if filters == nil {
		filters = &dto.UserFilters{}
	}
	return uc.repo.FindAll(ctx, filters)
}

func (uc *userUseCase) SeedAdmin(ctx context.Context, password string) (bool, error) {
	n, err := uc.repo.CountActiveByRole(ctx, model.RoleAdmin)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	hash, err := uc.hash(password)
	if err != nil {
		return false, err
	}

	now := uc.now()
	admin := &model.User{
		BaseModel:    model.BaseModel{CreatedAt: now, UpdatedAt: now},
		Username:     DefaultAdminUsername,
		PasswordHash: hash,
		FullName:     "Administrator",
		Role:         model.RoleAdmin,
		IsActive:     true,
	}
	if err := uc.repo.Create(ctx, admin); err != nil {
		if errors.Is(err, apperr.ErrDuplicateCode) {
			// An inactive "admin" account exists; bring it back rather than fail startup.
			existing, ferr := uc.repo.FindByUsername(ctx, DefaultAdminUsername)
			if ferr != nil {
				return false, ferr
			}
			if existing.Role != model.RoleAdmin {
				return false, err
			}
			if err := uc.repo.SetActive(ctx, existing.ID, true); err != nil {
				return false, err
			}
			uc.logger.Warn("reactivated default admin", zap.Int64("user_id", existing.ID))
			return true, nil
		}
		return false, err
	}

	uc.logger.Warn("seeded default admin account; change its password", zap.String("username", DefaultAdminUsername))
	return true, nil
}

// ServiceAccount picks the oldest active admin so background work keeps an
// actor when the default account was renamed or deactivated.
func (uc *userUseCase) ServiceAccount(ctx context.Context) (auth.Session, error) {
	admins, err := uc.repo.FindAll(ctx, &dto.UserFilters{Role: model.RoleAdmin})
	if err != nil {
		return auth.Session{}, err
	}

	var pick *model.User
	for i := range admins {
		u := &admins[i]
		if !u.IsActive || u.Role != model.RoleAdmin {
			continue
		}
		if pick == nil || u.ID < pick.ID {
			pick = u
		}
	}
	if pick == nil {
		return auth.Session{}, apperr.NotFound("active admin", string(model.RoleAdmin))
	}
	return auth.NewSession(pick), nil
}

func (uc *userUseCase) hash(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", apperr.Invalid("password must be at least %d characters", minPasswordLength)
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), uc.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}
