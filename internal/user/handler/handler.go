package handler

import (
	"context"

	"github.com/fekuna/omnipos-cashier-service/internal/apperr"
	"github.com/fekuna/omnipos-cashier-service/internal/auth"
	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/fekuna/omnipos-cashier-service/internal/user"
	"github.com/fekuna/omnipos-cashier-service/internal/user/dto"
	"github.com/fekuna/omnipos-cashier-service/pkg/grpcx"
	"github.com/fekuna/omnipos-cashier-service/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "omnipos.cashier.v1.UserService"

// LoginMethod is reachable without a session.
const LoginMethod = "/" + ServiceName + "/Login"

type UserServer interface {
	Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	CreateUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	DeactivateUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ChangePassword(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListUsers(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*UserServer)(nil),
	Methods: []grpc.MethodDesc{
		grpcx.Unary[UserServer](ServiceName, "Login", UserServer.Login),
		grpcx.Unary[UserServer](ServiceName, "CreateUser", UserServer.CreateUser),
		grpcx.Unary[UserServer](ServiceName, "DeactivateUser", UserServer.DeactivateUser),
		grpcx.Unary[UserServer](ServiceName, "ChangePassword", UserServer.ChangePassword),
		grpcx.Unary[UserServer](ServiceName, "ListUsers", UserServer.ListUsers),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "omnipos/cashier/v1/user.proto",
}

type UserHandler struct {
	uc     user.UseCase
	logger logger.ZapLogger
}

func NewUserHandler(uc user.UseCase, log logger.ZapLogger) *UserHandler {
	return &UserHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *UserHandler) Register(s grpc.ServiceRegistrar) {
	s.RegisterService(&ServiceDesc, h)
}

func (h *UserHandler) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	res, err := h.uc.Authenticate(ctx, grpcx.String(req, "username"), grpcx.String(req, "password"))
	if err != nil {
		return nil, apperr.ToStatus(err)
	}

	return structpb.NewStruct(map[string]interface{}{
		"token":      res.Token,
		"expires_at": grpcx.Timestamp(res.ExpiresAt),
		"user":       mapUser(res.User),
	})
}

func (h *UserHandler) CreateUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := auth.FromContext(ctx)
	if err != nil {
		return nil, apperr.ToStatus(err)
	}

	u, err := h.uc.CreateUser(ctx, actor, &dto.CreateUserInput{
		Username: grpcx.String(req, "username"),
		Password: grpcx.String(req, "password"),
		FullName: grpcx.String(req, "full_name"),
		Role:     model.Role(grpcx.String(req, "role")),
	})
	if err != nil {
		h.logger.Debug("create user failed", zap.Error(err))
		return nil, apperr.ToStatus(err)
	}

	return structpb.NewStruct(mapUser(u))
}

func (h *UserHandler) DeactivateUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := auth.FromContext(ctx)
	if err != nil {
		return nil, apperr.ToStatus(err)
	}

	id, err := grpcx.Int(req, "id")
	if err != nil {
		return nil, apperr.ToStatus(apperr.Invalid("%v", err))
	}
	if err := h.uc.DeactivateUser(ctx, actor, id); err != nil {
		return nil, apperr.ToStatus(err)
	}
	return &structpb.Struct{}, nil
}

func (h *UserHandler) ChangePassword(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := auth.FromContext(ctx)
	if err != nil {
		return nil, apperr.ToStatus(err)
	}

	userID, err := grpcx.Int(req, "id")
	if err != nil {
		return nil, apperr.ToStatus(apperr.Invalid("%v", err))
	}
	if userID == 0 {
		userID = actor.UserID
	}

	err = h.uc.ChangePassword(ctx, actor, &dto.ChangePasswordInput{
		UserID:      userID,
		OldPassword: grpcx.String(req, "old_password"),
		NewPassword: grpcx.String(req, "new_password"),
	})
	if err != nil {
		return nil, apperr.ToStatus(err)
	}
	return &structpb.Struct{}, nil
}

func (h *UserHandler) ListUsers(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := auth.FromContext(ctx)
	if err != nil {
		return nil, apperr.ToStatus(err)
	}

	users, err := h.uc.ListUsers(ctx, actor, &dto.UserFilters{
		Role:            model.Role(grpcx.String(req, "role")),
		IncludeInactive: grpcx.Bool(req, "include_inactive"),
	})
	if err != nil {
		return nil, apperr.ToStatus(err)
	}

	items := make([]interface{}, len(users))
	for i := range users {
		items[i] = mapUser(&users[i])
	}
	return structpb.NewStruct(map[string]interface{}{"users": items})
}

func mapUser(u *model.User) map[string]interface{} {
	return map[string]interface{}{
		"id":         u.ID,
		"username":   u.Username,
		"full_name":  u.FullName,
		"role":       string(u.Role),
		"is_active":  u.IsActive,
		"created_at": grpcx.Timestamp(u.CreatedAt),
	}
}
