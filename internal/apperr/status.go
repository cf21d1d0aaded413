package apperr

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-cashier-service/pkg/cache"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ToStatus maps a domain error onto a gRPC status error. Unknown errors
// become codes.Internal without leaking their text.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	code := Code(err)
	if code == codes.Internal {
		return status.Error(codes.Internal, "internal error")
	}
	return status.Error(code, err.Error())
}

func Code(err error) codes.Code {
	switch {
	case errors.Is(err, ErrValidation):
		return codes.InvalidArgument
	case errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrNegativeStock),
		errors.Is(err, ErrTransactionNotVoidable):
		return codes.FailedPrecondition
	case errors.Is(err, ErrPermissionDenied):
		return codes.PermissionDenied
	case errors.Is(err, ErrAuthentication):
		return codes.Unauthenticated
	case errors.Is(err, ErrNotFound):
		return codes.NotFound
	case errors.Is(err, ErrDuplicateCode):
		return codes.AlreadyExists
	case errors.Is(err, cache.ErrLockBusy):
		return codes.Aborted
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	}
	return codes.Internal
}
