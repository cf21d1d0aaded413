package auth

import (
	"context"
	"fmt"

	"github.com/fekuna/omnipos-cashier-service/internal/apperr"
)

type sessionKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the session put in ctx by the auth interceptor.
func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}

// FromContext is SessionFrom reporting a missing session as an authentication error.
func FromContext(ctx context.Context) (Session, error) {
	s, ok := SessionFrom(ctx)
	if !ok {
		return Session{}, fmt.Errorf("%w: no session", apperr.ErrAuthentication)
	}
	return s, nil
}
