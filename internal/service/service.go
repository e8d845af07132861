package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sahilm/fuzzy"

	"github.com/dpshade/pocket-placeholders/internal/config"
	"github.com/dpshade/pocket-placeholders/internal/errors"
	"github.com/dpshade/pocket-placeholders/internal/models"
	"github.com/dpshade/pocket-placeholders/internal/placeholders"
	"github.com/dpshade/pocket-placeholders/internal/storage"
)

// TourDialog names the two-page welcome tour in the dismissal store
const TourDialog = "welcome-tour"

// Options configures a Service
type Options struct {
	// RootDir is the library directory; empty selects ~/.pocket-placeholders.
	RootDir string
	// DefaultUser is used by the front ends when no user is given explicitly.
	DefaultUser models.UserID
	// PacksEnabled registers the extension packs found in <RootDir>/packs.
	PacksEnabled bool
	// Clock overrides the wall clock for ${DATE} and ${DATE_TIME}.
	Clock func() time.Time
}

// OptionsFromConfig maps loaded configuration onto service options
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		RootDir:      cfg.RootDir,
		DefaultUser:  models.NewUserID(cfg.DefaultUser),
		PacksEnabled: cfg.Packs.Enabled,
	}
}

// Service provides the placeholder operations shared by the CLI, the API and the TUI.
// Filter chains are set up in New and only read afterwards.
type Service struct {
	storage     *storage.Storage
	dismissals  *storage.DismissalStore
	packs       *config.PackConfig
	registry    *placeholders.Registry
	resolver    *placeholders.Resolver
	substitutor *placeholders.Substitutor
	defaultUser models.UserID
}

// New creates a service, wiring the registry and resolver with the Core filters
// followed by one filter per extension pack.
func New(opts Options) (*Service, error) {
	store, err := storage.NewStorage(opts.RootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var resolverOpts []placeholders.ResolverOption
	if opts.Clock != nil {
		resolverOpts = append(resolverOpts, placeholders.WithClock(opts.Clock))
	}

	registry := placeholders.NewRegistry()
	resolver := placeholders.NewResolver(store, resolverOpts...)

	packs := &config.PackConfig{}
	if opts.PacksEnabled {
		packs, err = config.NewPackConfig(store.PacksDir())
		if err != nil {
			return nil, fmt.Errorf("failed to load packs: %w", err)
		}
		packs.Register(registry, resolver)
		if n := len(packs.ListPacks()); n > 0 {
			log.Printf("[packs] registered %d pack(s) from %s", n, packs.GetPacksDir())
		}
	}

	return &Service{
		storage:     store,
		dismissals:  storage.NewDismissalStore(store.GetBaseDir()),
		packs:       packs,
		registry:    registry,
		resolver:    resolver,
		substitutor: placeholders.NewSubstitutor(resolver),
		defaultUser: opts.DefaultUser,
	}, nil
}

// InitLibrary initializes a new placeholder library
func (s *Service) InitLibrary() error {
	return s.storage.InitLibrary()
}

// BaseDir returns the library directory
func (s *Service) BaseDir() string {
	return s.storage.GetBaseDir()
}

// DefaultUser returns the configured fallback user, possibly zero
func (s *Service) DefaultUser() models.UserID {
	return s.defaultUser
}

// Placeholders builds the current placeholder set
func (s *Service) Placeholders() *models.PlaceholderSet {
	return s.registry.List(nil)
}

// ListPlaceholders returns the placeholders in display order. A non-empty owner
// restricts the listing to the owner with that name or slug.
func (s *Service) ListPlaceholders(owner string) ([]models.Placeholder, error) {
	set := s.Placeholders()
	if owner == "" {
		return placeholders.FilterByOwner(set, ""), nil
	}

	slug := models.Slugify(owner)
	for _, o := range placeholders.Owners(set) {
		if o.Slug == slug {
			return placeholders.FilterByOwner(set, slug), nil
		}
	}
	return nil, errors.NotFoundError(fmt.Sprintf("Owner '%s'", owner))
}

// Owners returns the owner groups in display order
func (s *Service) Owners() []models.Owner {
	return placeholders.Owners(s.Placeholders())
}

// SearchPlaceholders fuzzy-matches query against token, label and owner
func (s *Service) SearchPlaceholders(query string) []models.Placeholder {
	all := placeholders.FilterByOwner(s.Placeholders(), "")
	if strings.TrimSpace(query) == "" {
		return all
	}

	var searchStrings []string
	for _, p := range all {
		searchStrings = append(searchStrings, fmt.Sprintf("%s %s %s",
			placeholders.Name(p.Token),
			p.Label,
			p.Owner))
	}

	matches := fuzzy.Find(query, searchStrings)

	results := []models.Placeholder{}
	for _, match := range matches {
		results = append(results, all[match.Index])
	}
	return results
}

// Substitute replaces the tokens in content with the values for id. pairs seed the
// values. Keys are replaced literally; a bare NAME key also fills ${NAME} unless
// that token is given too.
func (s *Service) Substitute(ctx context.Context, content string, id models.UserID, pairs map[string]string) (string, error) {
	return s.substitutor.Substitute(ctx, content, id, normalizePairs(pairs))
}

// SubstituteWithValues is Substitute that also returns the values used
func (s *Service) SubstituteWithValues(ctx context.Context, content string, id models.UserID, pairs map[string]string) (string, models.Values, error) {
	return s.substitutor.Apply(ctx, content, id, normalizePairs(pairs))
}

// ResolveValues returns the value of every resolvable token for id
func (s *Service) ResolveValues(ctx context.Context, id models.UserID, pairs map[string]string) (models.Values, error) {
	return s.resolver.Resolve(ctx, normalizePairs(pairs), id)
}

// Lint reports unregistered tokens in content
func (s *Service) Lint(content string) []placeholders.Finding {
	return placeholders.Lint(content, s.Placeholders())
}

func normalizePairs(pairs map[string]string) models.Values {
	values := make(models.Values, len(pairs))
	for k, v := range pairs {
		if k != "" {
			values[k] = v
		}
	}
	for k, v := range pairs {
		if !placeholders.IsName(k) {
			continue
		}
		if _, ok := pairs[placeholders.Token(k)]; !ok {
			values[placeholders.Token(k)] = v
		}
	}
	return values
}

// ListUsers returns every user profile
func (s *Service) ListUsers() ([]*models.User, error) {
	return s.storage.ListUsers()
}

// GetUser returns the profile of id
func (s *Service) GetUser(ctx context.Context, id models.UserID) (*models.User, error) {
	return s.storage.LookupUser(ctx, id)
}

// AddUser stores a new profile. A missing id is generated.
func (s *Service) AddUser(ctx context.Context, user *models.User) error {
	user.ID = models.NewUserID(string(user.ID))
	if user.ID.IsZero() {
		user.ID = models.UserID(uuid.NewString())
	} else if _, err := s.storage.LookupUser(ctx, user.ID); err == nil {
		return errors.AlreadyExistsError(fmt.Sprintf("User '%s'", user.ID))
	} else if !errors.HasCode(err, errors.ErrCodeUserNotFound) {
		return err
	}

	if strings.TrimSpace(user.DisplayName) == "" {
		return errors.NewAppError(errors.ErrCodeMissingField, "Display name is required")
	}
	if err := s.storage.SaveUser(user); err != nil {
		return errors.GetAppError(err)
	}
	return nil
}

// DeleteUser removes the profile of id together with its dismissals
func (s *Service) DeleteUser(id models.UserID) error {
	if err := s.storage.DeleteUser(id); err != nil {
		return err
	}
	if err := s.dismissals.Reset(id, TourDialog); err != nil {
		log.Printf("[users] failed to clear dismissals of %s: %v", id, err)
	}
	return nil
}

// ShouldShowTour reports whether the welcome tour is still pending for id
func (s *Service) ShouldShowTour(id models.UserID) (bool, error) {
	dismissed, err := s.dismissals.IsDismissed(id, TourDialog)
	if err != nil {
		return false, errors.StorageError("read dismissals", err)
	}
	return !dismissed, nil
}

// DismissTour permanently hides the welcome tour for id
func (s *Service) DismissTour(id models.UserID) error {
	if err := s.dismissals.Dismiss(id, TourDialog); err != nil {
		return errors.StorageError("dismiss tour", err)
	}
	return nil
}

// ResetTour shows the welcome tour to id again
func (s *Service) ResetTour(id models.UserID) error {
	if err := s.dismissals.Reset(id, TourDialog); err != nil {
		return errors.StorageError("reset tour", err)
	}
	return nil
}

// ListPacks returns the registered extension packs
func (s *Service) ListPacks() []models.Pack {
	return s.packs.ListPacks()
}
