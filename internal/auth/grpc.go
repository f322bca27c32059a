package auth

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"wardRecords/models"
)

// NewUnaryAuthInterceptor returns a gRPC unary interceptor that resolves the Bearer
// session token from incoming metadata and injects the session into the context.
// Methods listed in allowUnauthenticated bypass authentication (e.g., health checks).
func NewUnaryAuthInterceptor(m *Manager, allowUnauthenticated ...string) grpc.UnaryServerInterceptor {
	allow := make(map[string]struct{}, len(allowUnauthenticated))
	for _, method := range allowUnauthenticated {
		allow[strings.TrimSpace(method)] = struct{}{}
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := allow[info.FullMethod]; ok {
			return handler(ctx, req)
		}
		token, err := bearerFromMD(ctx)
		if err != nil {
			return nil, status.Errorf(codes.Unauthenticated, "auth error: %v", err)
		}
		s, err := m.Resolve(ctx, token)
		if err != nil {
			return nil, status.Errorf(codes.Internal, "resolve session: %v", err)
		}
		if s == nil {
			return nil, status.Error(codes.Unauthenticated, "auth error: no live session")
		}
		return handler(WithSession(ctx, s), req)
	}
}

func bearerFromMD(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", errors.New("missing metadata")
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(vals[0], " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}

// RequirePrincipal ensures a session is present in context.
func RequirePrincipal(ctx context.Context) (*models.Session, error) {
	s, ok := FromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing session")
	}
	return s, nil
}

// RequireAnyRole ensures the caller's role is one of roles.
func RequireAnyRole(ctx context.Context, roles ...models.Role) (*models.Session, error) {
	s, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if !roleAllowed(s.Role, roles) {
		return nil, status.Errorf(codes.PermissionDenied, "role %s cannot perform this action", s.Role)
	}
	return s, nil
}
