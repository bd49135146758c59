package identity

import (
	"context"
	"errors"
	"time"
)

// Store sentinels shared by every UserStore / SessionStore implementation.
var (
	// ErrNotFound is returned when a lookup matches no record.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a create violates a uniqueness
	// constraint (email, permalink, provider id).
	ErrDuplicate = errors.New("duplicate record")
)

// Role is a user's authorization role.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User is the durable account record.
//
// The password hash and the email verification token never leave the server:
// both are excluded from JSON serialization. The verification token is
// generated at signup but not checked anywhere yet.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name"`
	Permalink string    `json:"permalink"`
	Active    bool      `json:"active"`
	GithubID  string    `json:"githubId,omitempty"`
	GoogleID  string    `json:"googleId,omitempty"`
	Avatar    string    `json:"avatar,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`

	Password               string `json:"-"`
	EmailVerificationToken string `json:"-"`
}

// UserUpdate is a partial update; nil fields are left untouched.
type UserUpdate struct {
	Email     *string
	Name      *string
	Permalink *string
	Avatar    *string
	Bio       *string
}

// UserStore is the persistence contract for user records. Lookups return
// ErrNotFound when no record matches; creates return ErrDuplicate when a
// uniqueness constraint is violated. Uniqueness of email, permalink and the
// provider ids is enforced by the store, which is what makes concurrent
// find-or-create during first-time OAuth callbacks safe.
type UserStore interface {
	ByID(ctx context.Context, id int64) (*User, error)
	ByEmail(ctx context.Context, email string) (*User, error)
	ByGithubID(ctx context.Context, githubID string) (*User, error)
	ByGoogleID(ctx context.Context, googleID string) (*User, error)
	ByPermalink(ctx context.Context, permalink string) (*User, error)
	Create(ctx context.Context, user *User) (*User, error)
	Update(ctx context.Context, id int64, update UserUpdate) (*User, error)
	All(ctx context.Context) ([]*User, error)
}
