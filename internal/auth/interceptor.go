package auth

import (
	"context"
	"strings"

	"github.com/fekuna/omnipos-cashier-service/internal/apperr"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// SessionResolver rebuilds a session from a token subject. Implementations must
// reject users deactivated after the token was issued.
type SessionResolver interface {
	ResolveSession(ctx context.Context, userID int64) (Session, error)
}

// UnaryInterceptor authenticates bearer tokens and stores the session in the
// context. Methods listed in public skip authentication.
func UnaryInterceptor(tokens *TokenManager, resolver SessionResolver, public ...string) grpc.UnaryServerInterceptor {
	skip := make(map[string]struct{}, len(public))
	for _, m := range public {
		skip[m] = struct{}{}
	}

	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if _, ok := skip[info.FullMethod]; ok {
			return handler(ctx, req)
		}
		if strings.HasPrefix(info.FullMethod, "/grpc.health.v1.Health/") ||
			strings.HasPrefix(info.FullMethod, "/grpc.reflection.") {
			return handler(ctx, req)
		}

		raw := bearerToken(ctx)
		if raw == "" {
			return nil, status.Error(codes.Unauthenticated, "missing bearer token")
		}

		userID, _, err := tokens.Parse(raw)
		if err != nil {
			return nil, apperr.ToStatus(err)
		}

		session, err := resolver.ResolveSession(ctx, userID)
		if err != nil {
			return nil, apperr.ToStatus(err)
		}

		return handler(WithSession(ctx, session), req)
	}
}

func bearerToken(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	for _, v := range md.Get("authorization") {
		if len(v) > 7 && strings.EqualFold(v[:7], "bearer ") {
			return strings.TrimSpace(v[7:])
		}
	}
	return ""
}
