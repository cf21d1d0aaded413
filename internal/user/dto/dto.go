package dto

import (
	"time"

	"github.com/fekuna/omnipos-cashier-service/internal/model"
)

type UserFilters struct {
	Role            model.Role
	IncludeInactive bool
}

type LoginResult struct {
	User      *model.User
	Token     string
	ExpiresAt time.Time
}
