package dto

import "github.com/fekuna/omnipos-cashier-service/internal/model"

type CreateUserInput struct {
	Username string
	Password string
	FullName string
	Role     model.Role
}

// ChangePasswordInput: OldPassword is required when users change their own password.
type ChangePasswordInput struct {
	UserID      int64
	OldPassword string
	NewPassword string
}
