package gorm_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	identity "github.com/chatloop/identity"
	gormstore "github.com/chatloop/identity/stores/gorm"
)

func setupStores(t *testing.T) (*gormstore.UserStore, *gormstore.SessionStore) {
	t.Helper()
	db, err := gormstore.Open(filepath.Join(t.TempDir(), "identity.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	return gormstore.NewUserStore(db), gormstore.NewSessionStore(db)
}

func TestUserStoreCreateAndLookups(t *testing.T) {
	users, _ := setupStores(t)
	ctx := context.Background()

	created, err := users.Create(ctx, &identity.User{
		Email:                  "a@x.com",
		Name:                   "A B",
		Permalink:              "a-b",
		Active:                 false,
		Role:                   identity.RoleUser,
		Password:               "salt:key",
		EmailVerificationToken: "tok",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == 0 {
		t.Fatal("Create() should assign an id")
	}
	if created.CreatedAt.IsZero() {
		t.Error("Create() should set the creation timestamp")
	}

	federated, err := users.Create(ctx, &identity.User{
		Name: "Octo Cat", Permalink: "octo-cat", GithubID: "4242",
		Active: true, Role: identity.RoleUser,
	})
	if err != nil {
		t.Fatalf("Create() without email error = %v", err)
	}

	tests := []struct {
		name   string
		lookup func() (*identity.User, error)
		wantID int64
	}{
		{name: "by id", lookup: func() (*identity.User, error) { return users.ByID(ctx, created.ID) }, wantID: created.ID},
		{name: "by email", lookup: func() (*identity.User, error) { return users.ByEmail(ctx, "a@x.com") }, wantID: created.ID},
		{name: "by permalink", lookup: func() (*identity.User, error) { return users.ByPermalink(ctx, "octo-cat") }, wantID: federated.ID},
		{name: "by github id", lookup: func() (*identity.User, error) { return users.ByGithubID(ctx, "4242") }, wantID: federated.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := tt.lookup()
			if err != nil {
				t.Fatalf("lookup error = %v", err)
			}
			if user.ID != tt.wantID {
				t.Errorf("id = %d, want %d", user.ID, tt.wantID)
			}
		})
	}

	t.Run("not found", func(t *testing.T) {
		if _, err := users.ByEmail(ctx, "missing@x.com"); !errors.Is(err, identity.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if _, err := users.ByGoogleID(ctx, "none"); !errors.Is(err, identity.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestUserStoreUniqueConstraints(t *testing.T) {
	users, _ := setupStores(t)
	ctx := context.Background()

	if _, err := users.Create(ctx, &identity.User{
		Email: "a@x.com", Name: "A", Permalink: "a", GithubID: "1", Role: identity.RoleUser,
	}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		user *identity.User
	}{
		{name: "duplicate email", user: &identity.User{Email: "a@x.com", Name: "B", Permalink: "b", Role: identity.RoleUser}},
		{name: "duplicate permalink", user: &identity.User{Email: "b@x.com", Name: "B", Permalink: "a", Role: identity.RoleUser}},
		{name: "duplicate github id", user: &identity.User{Name: "C", Permalink: "c", GithubID: "1", Role: identity.RoleUser}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := users.Create(ctx, tt.user); !errors.Is(err, identity.ErrDuplicate) {
				t.Errorf("expected ErrDuplicate, got %v", err)
			}
		})
	}

	t.Run("absent provider ids do not collide", func(t *testing.T) {
		// Both rows have NULL github_id and NULL google_id.
		if _, err := users.Create(ctx, &identity.User{Email: "c@x.com", Name: "C", Permalink: "c", Role: identity.RoleUser}); err != nil {
			t.Errorf("Create() error = %v", err)
		}
		if _, err := users.Create(ctx, &identity.User{Email: "d@x.com", Name: "D", Permalink: "d", Role: identity.RoleUser}); err != nil {
			t.Errorf("Create() error = %v", err)
		}
	})
}

func TestUserStoreUpdate(t *testing.T) {
	users, _ := setupStores(t)
	ctx := context.Background()

	created, err := users.Create(ctx, &identity.User{
		Email: "a@x.com", Name: "A B", Permalink: "a-b", Role: identity.RoleUser, Password: "salt:key",
	})
	if err != nil {
		t.Fatal(err)
	}

	bio := "hello"
	updated, err := users.Update(ctx, created.ID, identity.UserUpdate{Bio: &bio})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Bio != "hello" {
		t.Errorf("bio = %q", updated.Bio)
	}
	if updated.Name != "A B" || updated.Email != "a@x.com" || updated.Password != "salt:key" {
		t.Errorf("untouched fields changed: %+v", updated)
	}

	name := "New Name"
	permalink := "new-name"
	avatar := "https://a.example.com/p.png"
	updated, err = users.Update(ctx, created.ID, identity.UserUpdate{Name: &name, Permalink: &permalink, Avatar: &avatar})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Name != "New Name" || updated.Permalink != "new-name" || updated.Avatar != avatar {
		t.Errorf("update not applied: %+v", updated)
	}

	t.Run("missing user", func(t *testing.T) {
		if _, err := users.Update(ctx, 999, identity.UserUpdate{Bio: &bio}); !errors.Is(err, identity.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestUserStoreAll(t *testing.T) {
	users, _ := setupStores(t)
	ctx := context.Background()

	for _, name := range []string{"One", "Two", "Three"} {
		if _, err := users.Create(ctx, &identity.User{
			Name: name, Permalink: identity.Permalink(name), Role: identity.RoleUser,
		}); err != nil {
			t.Fatal(err)
		}
	}

	all, err := users.All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	if all[0].Name != "One" || all[2].Name != "Three" {
		t.Errorf("expected id order, got %q ... %q", all[0].Name, all[2].Name)
	}
}

func TestSessionStore(t *testing.T) {
	_, sessions := setupStores(t)
	ctx := context.Background()

	created, err := sessions.Create(ctx, &identity.Session{
		Token: "audit-token", IP: "203.0.113.9", UserAgent: "agent/1.0", UserID: 42,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == 0 {
		t.Fatal("Create() should assign an id")
	}

	loaded, err := sessions.ByID(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.UserID != 42 || loaded.Token != "audit-token" || loaded.IP != "203.0.113.9" {
		t.Errorf("loaded = %+v", loaded)
	}

	if err := sessions.Delete(ctx, created.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := sessions.ByID(ctx, created.ID); !errors.Is(err, identity.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	// Deleting an already-deleted session is not an error.
	if err := sessions.Delete(ctx, created.ID); err != nil {
		t.Errorf("Delete() of missing session = %v", err)
	}
}
