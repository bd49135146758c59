package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionDuration is how long an issued session token stays valid.
const SessionDuration = 365 * 24 * time.Hour

// Session is the durable, revocable record backing an issued token. It is
// created once per login and never mutated; deleting it revokes every token
// that references it.
type Session struct {
	ID        int64
	Token     string // random audit token, not the signed token handed out
	IP        string
	UserAgent string
	UserID    int64
	CreatedAt time.Time
}

// SessionStore is the persistence contract for session records.
type SessionStore interface {
	Create(ctx context.Context, session *Session) (*Session, error)
	ByID(ctx context.Context, id int64) (*Session, error)
	Delete(ctx context.Context, id int64) error
}

// UserClaims is the identity snapshot embedded in every session token.
type UserClaims struct {
	ID   int64 `json:"id"`
	Role Role  `json:"role"`
}

// SessionClaims is the full JWT payload: the backing session row plus the
// user snapshot taken at login time.
type SessionClaims struct {
	SessionID int64      `json:"sessionId"`
	User      UserClaims `json:"user"`
	jwt.RegisteredClaims
}

// SessionManager issues and verifies session tokens. It holds no cache; the
// store owns all session state.
type SessionManager struct {
	Store      SessionStore
	SigningKey []byte
}

// Create persists a new session record for the user and returns a signed
// token embedding the session id and the user's {id, role} snapshot.
// Persistence failures propagate; a session token is never issued without a
// backing record.
func (m *SessionManager) Create(ctx context.Context, ip, userAgent string, user *User) (string, error) {
	audit, err := GenerateRandomToken(32)
	if err != nil {
		return "", err
	}
	session, err := m.Store.Create(ctx, &Session{
		Token:     audit,
		IP:        ip,
		UserAgent: userAgent,
		UserID:    user.ID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	now := time.Now()
	claims := SessionClaims{
		SessionID: session.ID,
		User:      UserClaims{ID: user.ID, Role: user.Role},
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionDuration)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.SigningKey)
}

// Verify checks the token's signature and expiry, then confirms the backing
// session record still exists. It returns the embedded user snapshot, or nil
// on any failure: bad signature, expired, malformed, or revoked session.
// This fail-closed contract is deliberate; callers treat nil as
// "unauthenticated", never as an error.
func (m *SessionManager) Verify(ctx context.Context, tokenString string) *UserClaims {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.SigningKey, nil
	})
	if err != nil || !token.Valid {
		return nil
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok {
		return nil
	}
	if _, err := m.Store.ByID(ctx, claims.SessionID); err != nil {
		if !errors.Is(err, ErrNotFound) {
			slog.Warn("session lookup failed during verify", "sessionId", claims.SessionID, "err", err)
		}
		return nil
	}
	return &claims.User
}
