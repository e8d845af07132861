package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dpshade/pocket-placeholders/internal/errors"
	"github.com/dpshade/pocket-placeholders/internal/models"
)

// DefaultDirName is the library directory created below the user's home
const DefaultDirName = ".pocket-placeholders"

// Storage handles all file system operations for user profiles
type Storage struct {
	rootPath string
}

// NewStorage creates a new storage instance. An empty rootPath selects ~/.pocket-placeholders.
func NewStorage(rootPath string) (*Storage, error) {
	if rootPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		rootPath = filepath.Join(homeDir, DefaultDirName)
	}

	return &Storage{rootPath: rootPath}, nil
}

// InitLibrary creates the directory structure for a placeholder library
func (s *Storage) InitLibrary() error {
	dirs := []string{
		s.rootPath,
		s.UsersDir(),
		s.PacksDir(),
		filepath.Join(s.rootPath, "logs"),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// GetBaseDir returns the root path of the storage
func (s *Storage) GetBaseDir() string {
	return s.rootPath
}

// UsersDir returns the directory holding one YAML file per user
func (s *Storage) UsersDir() string {
	return filepath.Join(s.rootPath, "users")
}

// PacksDir returns the directory holding extension packs
func (s *Storage) PacksDir() string {
	return filepath.Join(s.rootPath, "packs")
}

func (s *Storage) userPath(id models.UserID) string {
	return filepath.Join("users", id.String()+".yaml")
}

// LoadUser loads a user profile from a YAML file relative to the root
func (s *Storage) LoadUser(path string) (*models.User, error) {
	data, err := os.ReadFile(filepath.Join(s.rootPath, path))
	if err != nil {
		return nil, fmt.Errorf("failed to read user file: %w", err)
	}

	var user models.User
	if err := yaml.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("failed to parse user file %s: %w", path, err)
	}
	user.FilePath = path
	user.ID = models.NewUserID(string(user.ID))

	return &user, nil
}

// LookupUser resolves a user id to its profile
func (s *Storage) LookupUser(_ context.Context, id models.UserID) (*models.User, error) {
	if id.IsZero() || strings.ContainsAny(id.String(), `/\`) {
		return nil, errors.UserNotFoundError(id.String())
	}

	path := s.userPath(id)
	if _, err := os.Stat(filepath.Join(s.rootPath, path)); os.IsNotExist(err) {
		return nil, errors.UserNotFoundError(id.String())
	}

	user, err := s.LoadUser(path)
	if err != nil {
		return nil, errors.StorageError("load user", err).WithContext("user_id", id.String())
	}
	if user.ID.IsZero() {
		user.ID = id
	}
	return user, nil
}

// SaveUser writes a user profile, stamping its timestamps
func (s *Storage) SaveUser(user *models.User) error {
	if user.ID.IsZero() {
		return errors.ValidationError("User ID is required")
	}

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	if user.FilePath == "" {
		user.FilePath = s.userPath(user.ID)
	}

	fullPath := filepath.Join(s.rootPath, user.FilePath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := yaml.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to serialize user: %w", err)
	}

	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write user file: %w", err)
	}

	return nil
}

// DeleteUser removes a user profile
func (s *Storage) DeleteUser(id models.UserID) error {
	fullPath := filepath.Join(s.rootPath, s.userPath(id))

	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return errors.UserNotFoundError(id.String())
	}

	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("failed to delete user file: %w", err)
	}

	return nil
}

// ListUsers returns every user profile sorted by id
func (s *Storage) ListUsers() ([]*models.User, error) {
	entries, err := os.ReadDir(s.UsersDir())
	if os.IsNotExist(err) {
		return []*models.User{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read users directory: %w", err)
	}

	users := []*models.User{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		user, err := s.LoadUser(filepath.Join("users", entry.Name()))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to load user %s: %v\n", entry.Name(), err)
			continue
		}
		if user.ID.IsZero() {
			user.ID = models.NewUserID(strings.TrimSuffix(entry.Name(), ".yaml"))
		}
		users = append(users, user)
	}

	sort.Slice(users, func(i, j int) bool {
		return users[i].ID < users[j].ID
	})

	return users, nil
}
