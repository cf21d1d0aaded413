// Package auth is the single place role permissions are decided.
package auth

import (
	"github.com/fekuna/omnipos-cashier-service/internal/apperr"
	"github.com/fekuna/omnipos-cashier-service/internal/model"
)

type Action string

const (
	ActionCreateSale     Action = "create sale"
	ActionVoid           Action = "void transactions"
	ActionViewReports    Action = "view reports"
	ActionAdjustStock    Action = "adjust stock"
	ActionManageUsers    Action = "manage users"
	ActionManageProducts Action = "manage products"
)

// Session is the authenticated actor passed explicitly into every core call.
type Session struct {
	UserID   int64
	Username string
	FullName string
	Role     model.Role
}

func NewSession(u *model.User) Session {
	return Session{
		UserID:   u.ID,
		Username: u.Username,
		FullName: u.FullName,
		Role:     u.Role,
	}
}

var (
	cashierActions = []Action{ActionCreateSale}
	managerActions = append(append([]Action{}, cashierActions...),
		ActionVoid, ActionViewReports, ActionAdjustStock)
	adminActions = append(append([]Action{}, managerActions...),
		ActionManageUsers, ActionManageProducts)
)

var permissions = map[model.Role]map[Action]struct{}{
	model.RoleCashier: set(cashierActions),
	model.RoleManager: set(managerActions),
	model.RoleAdmin:   set(adminActions),
}

func set(actions []Action) map[Action]struct{} {
	m := make(map[Action]struct{}, len(actions))
	for _, a := range actions {
		m[a] = struct{}{}
	}
	return m
}

// Authorize reports whether the session's role grants action.
func Authorize(s Session, action Action) bool {
	_, ok := permissions[s.Role][action]
	return ok
}

// Require is Authorize returning a PermissionDeniedError on refusal.
func Require(s Session, action Action) error {
	if Authorize(s, action) {
		return nil
	}
	return &apperr.PermissionDeniedError{Role: string(s.Role), Action: string(action)}
}

// Actions lists what role may do, in matrix order.
func Actions(role model.Role) []Action {
	switch role {
	case model.RoleAdmin:
		return append([]Action{}, adminActions...)
	case model.RoleManager:
		return append([]Action{}, managerActions...)
	case model.RoleCashier:
		return append([]Action{}, cashierActions...)
	}
	return nil
}
