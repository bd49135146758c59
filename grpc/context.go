// Package grpc propagates the authenticated identity between the identity
// service and sibling services (chat, etc.) via gRPC metadata.
package grpc

import (
	"context"
	"strconv"

	"google.golang.org/grpc/metadata"
)

// Metadata keys for the identity snapshot.
const (
	// MetadataKeyUserID carries the authenticated user's numeric id.
	MetadataKeyUserID = "x-user-id"

	// MetadataKeyUserRole carries the authenticated user's role.
	MetadataKeyUserRole = "x-user-role"
)

// Claims is the identity snapshot carried across service boundaries.
type Claims struct {
	UserID int64
	Role   string
}

// ClaimsFromContext extracts the identity snapshot from incoming gRPC
// metadata. Returns nil if no authenticated user is present.
func ClaimsFromContext(ctx context.Context) *Claims {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil
	}
	values := md.Get(MetadataKeyUserID)
	if len(values) == 0 || values[0] == "" {
		return nil
	}
	id, err := strconv.ParseInt(values[0], 10, 64)
	if err != nil {
		return nil
	}
	claims := &Claims{UserID: id}
	if roles := md.Get(MetadataKeyUserRole); len(roles) > 0 {
		claims.Role = roles[0]
	}
	return claims
}

// ClaimsToOutgoingContext attaches the identity snapshot to outgoing gRPC
// metadata.
func ClaimsToOutgoingContext(ctx context.Context, claims *Claims) context.Context {
	return metadata.AppendToOutgoingContext(ctx,
		MetadataKeyUserID, strconv.FormatInt(claims.UserID, 10),
		MetadataKeyUserRole, claims.Role,
	)
}

// IsAuthenticated returns true if the context carries an identity snapshot.
func IsAuthenticated(ctx context.Context) bool {
	return ClaimsFromContext(ctx) != nil
}

// withClaims injects the snapshot into the incoming metadata so downstream
// handlers see it through ClaimsFromContext.
func withClaims(ctx context.Context, claims *Claims) context.Context {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		md = metadata.New(nil)
	} else {
		md = md.Copy()
	}
	md.Set(MetadataKeyUserID, strconv.FormatInt(claims.UserID, 10))
	md.Set(MetadataKeyUserRole, claims.Role)
	return metadata.NewIncomingContext(ctx, md)
}
