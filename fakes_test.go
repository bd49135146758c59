package identity_test

import (
	"context"
	"sync"
	"time"

	identity "github.com/chatloop/identity"
)

// fakeUserStore is an in-memory UserStore enforcing the same uniqueness
// constraints the relational store does.
type fakeUserStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*identity.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[int64]*identity.User)}
}

func (s *fakeUserStore) find(match func(*identity.User) bool) (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if match(u) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, identity.ErrNotFound
}

func (s *fakeUserStore) ByID(ctx context.Context, id int64) (*identity.User, error) {
	return s.find(func(u *identity.User) bool { return u.ID == id })
}

func (s *fakeUserStore) ByEmail(ctx context.Context, email string) (*identity.User, error) {
	return s.find(func(u *identity.User) bool { return u.Email != "" && u.Email == email })
}

func (s *fakeUserStore) ByGithubID(ctx context.Context, githubID string) (*identity.User, error) {
	return s.find(func(u *identity.User) bool { return u.GithubID != "" && u.GithubID == githubID })
}

func (s *fakeUserStore) ByGoogleID(ctx context.Context, googleID string) (*identity.User, error) {
	return s.find(func(u *identity.User) bool { return u.GoogleID != "" && u.GoogleID == googleID })
}

func (s *fakeUserStore) ByPermalink(ctx context.Context, permalink string) (*identity.User, error) {
	return s.find(func(u *identity.User) bool { return u.Permalink == permalink })
}

func (s *fakeUserStore) Create(ctx context.Context, user *identity.User) (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if (user.Email != "" && existing.Email == user.Email) ||
			existing.Permalink == user.Permalink ||
			(user.GithubID != "" && existing.GithubID == user.GithubID) ||
			(user.GoogleID != "" && existing.GoogleID == user.GoogleID) {
			return nil, identity.ErrDuplicate
		}
	}
	s.nextID++
	copied := *user
	copied.ID = s.nextID
	copied.CreatedAt = time.Now()
	s.users[copied.ID] = &copied
	result := copied
	return &result, nil
}

func (s *fakeUserStore) Update(ctx context.Context, id int64, update identity.UserUpdate) (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, identity.ErrNotFound
	}
	if update.Email != nil {
		user.Email = *update.Email
	}
	if update.Name != nil {
		user.Name = *update.Name
	}
	if update.Permalink != nil {
		user.Permalink = *update.Permalink
	}
	if update.Avatar != nil {
		user.Avatar = *update.Avatar
	}
	if update.Bio != nil {
		user.Bio = *update.Bio
	}
	copied := *user
	return &copied, nil
}

func (s *fakeUserStore) All(ctx context.Context) ([]*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]*identity.User, 0, len(s.users))
	for _, u := range s.users {
		copied := *u
		users = append(users, &copied)
	}
	return users, nil
}

// fakeSessionStore is an in-memory SessionStore.
type fakeSessionStore struct {
	mu       sync.Mutex
	nextID   int64
	sessions map[int64]*identity.Session
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[int64]*identity.Session)}
}

func (s *fakeSessionStore) Create(ctx context.Context, session *identity.Session) (*identity.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	copied := *session
	copied.ID = s.nextID
	copied.CreatedAt = time.Now()
	s.sessions[copied.ID] = &copied
	result := copied
	return &result, nil
}

func (s *fakeSessionStore) ByID(ctx context.Context, id int64) (*identity.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, identity.ErrNotFound
	}
	copied := *session
	return &copied, nil
}

func (s *fakeSessionStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *fakeSessionStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
