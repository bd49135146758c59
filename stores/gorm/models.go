package gorm

import (
	"time"

	identity "github.com/chatloop/identity"
)

// UserModel is the gorm model for user records. Email, permalink and the
// provider ids carry unique indexes; the nullable columns use pointers so
// multiple absent values don't collide.
type UserModel struct {
	ID                     int64   `gorm:"primaryKey;autoIncrement"`
	Email                  *string `gorm:"size:255;uniqueIndex"`
	Name                   string  `gorm:"size:255"`
	Permalink              string  `gorm:"size:255;uniqueIndex"`
	Active                 bool
	GithubID               *string `gorm:"size:64;uniqueIndex"`
	GoogleID               *string `gorm:"size:64;uniqueIndex"`
	Avatar                 string  `gorm:"size:512"`
	Bio                    string
	Role                   string    `gorm:"size:16"`
	Password               string    `gorm:"size:255"`
	EmailVerificationToken string    `gorm:"size:128"`
	CreatedAt              time.Time `gorm:"autoCreateTime"`
}

func (UserModel) TableName() string {
	return "users"
}

func (m *UserModel) ToUser() *identity.User {
	return &identity.User{
		ID:                     m.ID,
		Email:                  deref(m.Email),
		Name:                   m.Name,
		Permalink:              m.Permalink,
		Active:                 m.Active,
		GithubID:               deref(m.GithubID),
		GoogleID:               deref(m.GoogleID),
		Avatar:                 m.Avatar,
		Bio:                    m.Bio,
		Role:                   identity.Role(m.Role),
		Password:               m.Password,
		EmailVerificationToken: m.EmailVerificationToken,
		CreatedAt:              m.CreatedAt,
	}
}

func UserToModel(u *identity.User) *UserModel {
	return &UserModel{
		ID:                     u.ID,
		Email:                  optional(u.Email),
		Name:                   u.Name,
		Permalink:              u.Permalink,
		Active:                 u.Active,
		GithubID:               optional(u.GithubID),
		GoogleID:               optional(u.GoogleID),
		Avatar:                 u.Avatar,
		Bio:                    u.Bio,
		Role:                   string(u.Role),
		Password:               u.Password,
		EmailVerificationToken: u.EmailVerificationToken,
		CreatedAt:              u.CreatedAt,
	}
}

// SessionModel is the gorm model for session records. Rows are append-only;
// deletion is the revocation mechanism.
type SessionModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Token     string    `gorm:"size:128"`
	IP        string    `gorm:"size:64"`
	UserAgent string    `gorm:"size:512"`
	UserID    int64     `gorm:"index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (SessionModel) TableName() string {
	return "sessions"
}

func (m *SessionModel) ToSession() *identity.Session {
	return &identity.Session{
		ID:        m.ID,
		Token:     m.Token,
		IP:        m.IP,
		UserAgent: m.UserAgent,
		UserID:    m.UserID,
		CreatedAt: m.CreatedAt,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
