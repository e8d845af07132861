package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dpshade/pocket-placeholders/internal/errors"
	"github.com/dpshade/pocket-placeholders/internal/models"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	store, err := NewStorage(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	if err := store.InitLibrary(); err != nil {
		t.Fatalf("Failed to init library: %v", err)
	}
	return store
}

func TestInitLibraryCreatesDirectories(t *testing.T) {
	store := newTestStorage(t)

	for _, dir := range []string{store.UsersDir(), store.PacksDir(), filepath.Join(store.GetBaseDir(), "logs")} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("Expected directory %s to exist", dir)
		}
	}
}

func TestSaveAndLookupUser(t *testing.T) {
	store := newTestStorage(t)

	user := &models.User{
		ID:          "ada",
		DisplayName: "Countess",
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Email:       "ada@example.com",
	}
	if err := store.SaveUser(user); err != nil {
		t.Fatalf("Failed to save user: %v", err)
	}
	if user.CreatedAt.IsZero() || user.UpdatedAt.IsZero() {
		t.Error("Expected timestamps to be stamped on save")
	}

	loaded, err := store.LookupUser(context.Background(), "ada")
	if err != nil {
		t.Fatalf("Failed to look up user: %v", err)
	}
	if loaded.Email != "ada@example.com" || loaded.FirstName != "Ada" {
		t.Errorf("Unexpected user %+v", loaded)
	}
	if loaded.FilePath != filepath.Join("users", "ada.yaml") {
		t.Errorf("Unexpected file path %q", loaded.FilePath)
	}
}

func TestLookupUnknownUser(t *testing.T) {
	store := newTestStorage(t)

	for _, id := range []models.UserID{"ghost", "", "../etc/passwd"} {
		_, err := store.LookupUser(context.Background(), id)
		if !errors.HasCode(err, errors.ErrCodeUserNotFound) {
			t.Errorf("Expected USER_NOT_FOUND for %q, got %v", id, err)
		}
	}
}

func TestLookupUserFillsMissingID(t *testing.T) {
	store := newTestStorage(t)

	content := "display_name: Grace\nemail: grace@example.com\n"
	if err := os.WriteFile(filepath.Join(store.UsersDir(), "grace.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	user, err := store.LookupUser(context.Background(), "grace")
	if err != nil {
		t.Fatalf("Failed to look up user: %v", err)
	}
	if user.ID != "grace" || user.DisplayName != "Grace" {
		t.Errorf("Unexpected user %+v", user)
	}
}

func TestLoadUserTrimsID(t *testing.T) {
	store := newTestStorage(t)

	content := "id: \" grace \"\ndisplay_name: Grace\n"
	if err := os.WriteFile(filepath.Join(store.UsersDir(), "grace.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	user, err := store.LookupUser(context.Background(), models.NewUserID(" grace "))
	if err != nil {
		t.Fatalf("Failed to look up user: %v", err)
	}
	if user.ID != "grace" {
		t.Errorf("Expected the stored id to be trimmed, got %q", user.ID)
	}
}

func TestListAndDeleteUsers(t *testing.T) {
	store := newTestStorage(t)

	for _, id := range []models.UserID{"zed", "amy"} {
		if err := store.SaveUser(&models.User{ID: id, DisplayName: string(id)}); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(store.UsersDir(), "notes.txt"), []byte("ignored"), 0644); err != nil {
		t.Fatal(err)
	}

	users, err := store.ListUsers()
	if err != nil {
		t.Fatalf("Failed to list users: %v", err)
	}
	if len(users) != 2 || users[0].ID != "amy" || users[1].ID != "zed" {
		t.Errorf("Expected amy and zed sorted, got %+v", users)
	}

	if err := store.DeleteUser("amy"); err != nil {
		t.Fatalf("Failed to delete user: %v", err)
	}
	if err := store.DeleteUser("amy"); !errors.HasCode(err, errors.ErrCodeUserNotFound) {
		t.Errorf("Expected USER_NOT_FOUND on second delete, got %v", err)
	}
}

func TestSaveUserRequiresID(t *testing.T) {
	store := newTestStorage(t)

	if err := store.SaveUser(&models.User{DisplayName: "nobody"}); !errors.HasCode(err, errors.ErrCodeValidation) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestListUsersWithoutDirectory(t *testing.T) {
	store, err := NewStorage(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatal(err)
	}

	users, err := store.ListUsers()
	if err != nil || len(users) != 0 {
		t.Errorf("Expected empty list, got %v (%v)", users, err)
	}
}
