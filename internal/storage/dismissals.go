package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/dpshade/pocket-placeholders/internal/models"
)

const dismissalsFile = "dismissals.json"

// anonymousUser keys the dismissals of sessions without a user
const anonymousUser = "_anonymous"

// DismissalStore remembers which one-time dialogs each user has permanently dismissed
type DismissalStore struct {
	filePath string
	mu       sync.Mutex
}

// NewDismissalStore creates a dismissal store below baseDir
func NewDismissalStore(baseDir string) *DismissalStore {
	return &DismissalStore{
		filePath: filepath.Join(baseDir, dismissalsFile),
	}
}

// DismissalsData represents the JSON structure for dismissals
type DismissalsData struct {
	Users   map[string]map[string]time.Time `json:"users"`
	Version string                          `json:"version"`
}

func userKey(id models.UserID) string {
	if id.IsZero() {
		return anonymousUser
	}
	return id.String()
}

func (s *DismissalStore) load() (*DismissalsData, error) {
	data := &DismissalsData{Users: make(map[string]map[string]time.Time)}

	raw, err := os.ReadFile(s.filePath)
	if os.IsNotExist(err) {
		return data, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read dismissals file: %w", err)
	}

	if err := json.Unmarshal(raw, data); err != nil {
		return nil, fmt.Errorf("failed to parse dismissals JSON: %w", err)
	}
	if data.Users == nil {
		data.Users = make(map[string]map[string]time.Time)
	}
	return data, nil
}

func (s *DismissalStore) save(data *DismissalsData) error {
	if err := os.MkdirAll(filepath.Dir(s.filePath), 0755); err != nil {
		return fmt.Errorf("failed to create dismissals directory: %w", err)
	}

	data.Version = "1.0"
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal dismissals: %w", err)
	}

	if err := os.WriteFile(s.filePath, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write dismissals file: %w", err)
	}
	return nil
}

// IsDismissed reports whether user has permanently dismissed dialog
func (s *DismissalStore) IsDismissed(user models.UserID, dialog string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return false, err
	}
	_, ok := data.Users[userKey(user)][dialog]
	return ok, nil
}

// Dismiss records that user has permanently dismissed dialog
func (s *DismissalStore) Dismiss(user models.UserID, dialog string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return err
	}

	key := userKey(user)
	if data.Users[key] == nil {
		data.Users[key] = make(map[string]time.Time)
	}
	data.Users[key][dialog] = time.Now()
	return s.save(data)
}

// Reset forgets the dismissal of dialog so it is shown again
func (s *DismissalStore) Reset(user models.UserID, dialog string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return err
	}

	key := userKey(user)
	delete(data.Users[key], dialog)
	if len(data.Users[key]) == 0 {
		delete(data.Users, key)
	}
	return s.save(data)
}

// Dismissed lists the dialogs user has dismissed, sorted by name
func (s *DismissalStore) Dismissed(user models.UserID) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return nil, err
	}

	var dialogs []string
	for dialog := range data.Users[userKey(user)] {
		dialogs = append(dialogs, dialog)
	}
	sort.Strings(dialogs)
	return dialogs, nil
}
