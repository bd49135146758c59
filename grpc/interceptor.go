package grpc

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// TokenVerifier resolves a bearer session token into an identity snapshot.
// Returns nil for any invalid token (the fail-closed contract of
// SessionManager.Verify maps straight onto this).
type TokenVerifier func(ctx context.Context, token string) *Claims

// InterceptorConfig configures the auth interceptors.
type InterceptorConfig struct {
	// Verifier resolves bearer tokens from the authorization metadata.
	// When nil, only pre-populated x-user-id metadata (set by a trusted
	// gateway) is honored.
	Verifier TokenVerifier

	// RequireAuth when true rejects unauthenticated requests with
	// codes.Unauthenticated. When false requests proceed and
	// ClaimsFromContext returns nil.
	RequireAuth bool

	// PublicMethods are full method names ("/pkg.Service/Method") exempt
	// from the RequireAuth check.
	PublicMethods map[string]bool
}

// DefaultInterceptorConfig requires auth for all methods.
func DefaultInterceptorConfig(verifier TokenVerifier) *InterceptorConfig {
	return &InterceptorConfig{
		Verifier:      verifier,
		RequireAuth:   true,
		PublicMethods: make(map[string]bool),
	}
}

// UnaryAuthInterceptor returns a unary interceptor that resolves the caller
// identity from metadata (bearer token or gateway-set x-user-id) before the
// handler runs.
func UnaryAuthInterceptor(config *InterceptorConfig) grpc.UnaryServerInterceptor {
	if config == nil {
		config = DefaultInterceptorConfig(nil)
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx, claims := resolveClaims(ctx, config)
		if config.RequireAuth && !config.PublicMethods[info.FullMethod] && claims == nil {
			return nil, status.Error(codes.Unauthenticated, "authentication required")
		}
		return handler(ctx, req)
	}
}

// StreamAuthInterceptor is the stream counterpart of UnaryAuthInterceptor.
func StreamAuthInterceptor(config *InterceptorConfig) grpc.StreamServerInterceptor {
	if config == nil {
		config = DefaultInterceptorConfig(nil)
	}
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx, claims := resolveClaims(ss.Context(), config)
		if config.RequireAuth && !config.PublicMethods[info.FullMethod] && claims == nil {
			return status.Error(codes.Unauthenticated, "authentication required")
		}
		return handler(srv, &claimsStream{ServerStream: ss, ctx: ctx})
	}
}

// resolveClaims prefers an already-present identity snapshot and falls back
// to verifying a bearer token from the authorization metadata.
func resolveClaims(ctx context.Context, config *InterceptorConfig) (context.Context, *Claims) {
	if claims := ClaimsFromContext(ctx); claims != nil {
		return ctx, claims
	}
	if config.Verifier == nil {
		return ctx, nil
	}
	token := bearerToken(ctx)
	if token == "" {
		return ctx, nil
	}
	claims := config.Verifier(ctx, token)
	if claims == nil {
		return ctx, nil
	}
	return withClaims(ctx, claims), claims
}

func bearerToken(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	for _, value := range md.Get("authorization") {
		if token, found := strings.CutPrefix(value, "Bearer "); found && token != "" {
			return token
		}
	}
	return ""
}

// claimsStream overrides Context so handlers see the injected claims.
type claimsStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *claimsStream) Context() context.Context {
	return s.ctx
}
