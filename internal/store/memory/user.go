package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/fekuna/omnipos-cashier-service/internal/apperr"
	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/fekuna/omnipos-cashier-service/internal/user/dto"
)

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	return r.db.write(ctx, func(t *tables) error {
		for _, existing := range t.users {
			if existing.Username == u.Username {
				return fmt.Errorf("username %q: %w", u.Username, apperr.ErrDuplicateCode)
			}
		}
		t.userSeq++
		u.ID = t.userSeq
		t.users[u.ID] = *u
		return nil
	})
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	var out *model.User
	err := r.db.read(func(t *tables) error {
		u, ok := t.users[id]
		if !ok {
			return apperr.NotFound("user", fmt.Sprint(id))
		}
		out = &u
		return nil
	})
	return out, err
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var out *model.User
	err := r.db.read(func(t *tables) error {
		for _, u := range t.users {
			if u.Username == username {
				u := u
				out = &u
				return nil
			}
		}
		return apperr.NotFound("user", username)
	})
	return out, err
}

func (r *UserRepository) FindAll(ctx context.Context, filters *dto.UserFilters) ([]model.User, error) {
	var out []model.User
	err := r.db.read(func(t *tables) error {
		for _, u := range t.users {
			if filters != nil {
				if !filters.IncludeInactive && !u.IsActive {
					continue
				}
				if filters.Role != "" && u.Role != filters.Role {
					continue
				}
			}
			out = append(out, u)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, err
}

func (r *UserRepository) SetActive(ctx context.Context, id int64, active bool) error {
	return r.db.write(ctx, func(t *tables) error {
		u, ok := t.users[id]
		if !ok {
			return apperr.NotFound("user", fmt.Sprint(id))
		}
		u.IsActive = active
		t.users[id] = u
		return nil
	})
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return r.db.write(ctx, func(t *tables) error {
		u, ok := t.users[id]
		if !ok {
			return apperr.NotFound("user", fmt.Sprint(id))
		}
		u.PasswordHash = passwordHash
		t.users[id] = u
		return nil
	})
}

func (r *UserRepository) CountActiveByRole(ctx context.Context, role model.Role) (int, error) {
	n := 0
	err := r.db.read(func(t *tables) error {
		for _, u := range t.users {
			if u.Role == role && u.IsActive {
				n++
			}
		}
		return nil
	})
	return n, err
}
