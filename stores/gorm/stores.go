// Package gorm provides the relational implementations of the identity
// store contracts. Uniqueness of email, permalink and the provider ids is
// enforced here with unique indexes, which is what keeps concurrent
// find-or-create callbacks from minting duplicate users.
package gorm

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	identity "github.com/chatloop/identity"
)

// Open opens (or creates) the sqlite database at path and runs migrations.
// TranslateError is enabled so unique-constraint violations surface as
// gorm.ErrDuplicatedKey and can be mapped to identity.ErrDuplicate.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// AutoMigrate runs database migrations for all identity tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&UserModel{}, &SessionModel{})
}

// UserStore is the gorm-backed identity.UserStore.
type UserStore struct {
	db *gorm.DB
}

var _ identity.UserStore = (*UserStore)(nil)

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) ByID(ctx context.Context, id int64) (*identity.User, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *UserStore) ByEmail(ctx context.Context, email string) (*identity.User, error) {
	return s.first(ctx, "email = ?", email)
}

func (s *UserStore) ByGithubID(ctx context.Context, githubID string) (*identity.User, error) {
	return s.first(ctx, "github_id = ?", githubID)
}

func (s *UserStore) ByGoogleID(ctx context.Context, googleID string) (*identity.User, error) {
	return s.first(ctx, "google_id = ?", googleID)
}

func (s *UserStore) ByPermalink(ctx context.Context, permalink string) (*identity.User, error) {
	return s.first(ctx, "permalink = ?", permalink)
}

func (s *UserStore) first(ctx context.Context, query string, arg any) (*identity.User, error) {
	var model UserModel
	if err := s.db.WithContext(ctx).Where(query, arg).First(&model).Error; err != nil {
		return nil, translate(err)
	}
	return model.ToUser(), nil
}

func (s *UserStore) Create(ctx context.Context, user *identity.User) (*identity.User, error) {
	model := UserToModel(user)
	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		return nil, translate(err)
	}
	return model.ToUser(), nil
}

// Update applies the non-nil fields of update to the record and returns the
// refreshed user.
func (s *UserStore) Update(ctx context.Context, id int64, update identity.UserUpdate) (*identity.User, error) {
	fields := map[string]any{}
	if update.Email != nil {
		fields["email"] = *update.Email
	}
	if update.Name != nil {
		fields["name"] = *update.Name
	}
	if update.Permalink != nil {
		fields["permalink"] = *update.Permalink
	}
	if update.Avatar != nil {
		fields["avatar"] = *update.Avatar
	}
	if update.Bio != nil {
		fields["bio"] = *update.Bio
	}
	if len(fields) > 0 {
		result := s.db.WithContext(ctx).Model(&UserModel{}).Where("id = ?", id).Updates(fields)
		if result.Error != nil {
			return nil, translate(result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, identity.ErrNotFound
		}
	}
	return s.ByID(ctx, id)
}

func (s *UserStore) All(ctx context.Context) ([]*identity.User, error) {
	var models []UserModel
	if err := s.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		return nil, translate(err)
	}
	users := make([]*identity.User, 0, len(models))
	for i := range models {
		users = append(users, models[i].ToUser())
	}
	return users, nil
}

// SessionStore is the gorm-backed identity.SessionStore.
type SessionStore struct {
	db *gorm.DB
}

var _ identity.SessionStore = (*SessionStore)(nil)

func NewSessionStore(db *gorm.DB) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) Create(ctx context.Context, session *identity.Session) (*identity.Session, error) {
	model := &SessionModel{
		Token:     session.Token,
		IP:        session.IP,
		UserAgent: session.UserAgent,
		UserID:    session.UserID,
	}
	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		return nil, translate(err)
	}
	return model.ToSession(), nil
}

func (s *SessionStore) ByID(ctx context.Context, id int64) (*identity.Session, error) {
	var model SessionModel
	if err := s.db.WithContext(ctx).First(&model, id).Error; err != nil {
		return nil, translate(err)
	}
	return model.ToSession(), nil
}

func (s *SessionStore) Delete(ctx context.Context, id int64) error {
	if err := s.db.WithContext(ctx).Delete(&SessionModel{}, id).Error; err != nil {
		return translate(err)
	}
	return nil
}

// translate maps gorm errors onto the identity store sentinels.
func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return identity.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return identity.ErrDuplicate
	default:
		return err
	}
}
