package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dpshade/pocket-placeholders/internal/errors"
	"github.com/dpshade/pocket-placeholders/internal/models"
	"github.com/dpshade/pocket-placeholders/internal/placeholders"
)

// PackConfig manages the extension packs found in a directory
type PackConfig struct {
	Packs    []models.Pack
	packsDir string
}

// NewPackConfig creates a pack configuration manager and loads every pack in packsDir
func NewPackConfig(packsDir string) (*PackConfig, error) {
	config := &PackConfig{packsDir: packsDir}
	if err := config.Load(); err != nil {
		return nil, err
	}
	return config, nil
}

// Load reads every *.yaml / *.yml pack in the packs directory, sorted by file name.
// A missing directory yields no packs.
func (c *PackConfig) Load() error {
	c.Packs = nil

	entries, err := os.ReadDir(c.packsDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read packs directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	seen := make(map[string]string)
	for _, name := range names {
		pack, err := LoadPack(filepath.Join(c.packsDir, name))
		if err != nil {
			return err
		}
		slug := models.Slugify(pack.Owner)
		if other, ok := seen[slug]; ok {
			return errors.AlreadyExistsError(fmt.Sprintf("Pack owner '%s'", pack.Owner)).
				WithDetails(fmt.Sprintf("declared by %s and %s", other, name))
		}
		seen[slug] = name
		c.Packs = append(c.Packs, *pack)
	}
	return nil
}

// LoadPack parses and validates a single pack file. Token names are normalised to
// the ${NAME} form.
func LoadPack(path string) (*models.Pack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.StorageError("read pack", err).WithContext("path", path)
	}

	var pack models.Pack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeFileCorrupted, "Failed to parse pack").
			WithContext("path", path)
	}
	pack.FilePath = path

	if err := ValidatePack(&pack); err != nil {
		return nil, err
	}
	return &pack, nil
}

// ValidatePack normalises the tokens of pack and checks it is usable
func ValidatePack(pack *models.Pack) error {
	pack.Owner = strings.TrimSpace(pack.Owner)
	if pack.Owner == "" {
		return errors.NewAppError(errors.ErrCodeMissingField, "Pack owner is required").
			WithContext("path", pack.FilePath)
	}
	if strings.EqualFold(pack.Owner, placeholders.OwnerCore) {
		return errors.ValidationError("Pack owner 'Core' is reserved").
			WithContext("path", pack.FilePath)
	}

	for i := range pack.Placeholders {
		p := &pack.Placeholders[i]
		p.Token = placeholders.Token(p.Token)
		if !placeholders.IsToken(p.Token) {
			return errors.InvalidTokenError(p.Token).WithContext("path", pack.FilePath)
		}
		if strings.TrimSpace(p.Label) == "" {
			p.Label = placeholders.Name(p.Token)
		}
	}
	return nil
}

// ListPacks returns all loaded packs
func (c *PackConfig) ListPacks() []models.Pack {
	return c.Packs
}

// GetPack returns the pack whose owner has the given name or slug
func (c *PackConfig) GetPack(owner string) (*models.Pack, error) {
	slug := models.Slugify(owner)
	for i := range c.Packs {
		if models.Slugify(c.Packs[i].Owner) == slug {
			return &c.Packs[i], nil
		}
	}
	return nil, errors.NotFoundError(fmt.Sprintf("Pack '%s'", owner))
}

// GetPacksDir returns the packs directory path
func (c *PackConfig) GetPacksDir() string {
	return c.packsDir
}

// Register adds every pack as a collaborator on both extension points, in load order
func (c *PackConfig) Register(registry *placeholders.Registry, resolver *placeholders.Resolver) {
	for _, pack := range c.Packs {
		registry.Use(Descriptors(pack))
		resolver.Use(Values(pack))
	}
}

// Descriptors returns a filter contributing the placeholders of pack
func Descriptors(pack models.Pack) placeholders.DescriptorFilter {
	contributed := models.NewPlaceholderSet()
	for _, p := range pack.Placeholders {
		contributed.Set(models.Placeholder{Token: p.Token, Label: p.Label, Owner: pack.Owner})
	}
	return func(set *models.PlaceholderSet) *models.PlaceholderSet {
		return set.Merge(contributed)
	}
}

// Values returns a filter contributing the static values of pack. Placeholders
// without a value are left for other collaborators.
func Values(pack models.Pack) placeholders.ValueFilter {
	contributed := models.Values{}
	for _, p := range pack.Placeholders {
		if p.Value != "" {
			contributed[p.Token] = p.Value
		}
	}
	return func(_ context.Context, values models.Values, _ models.UserID) (models.Values, error) {
		if len(contributed) == 0 {
			return values, nil
		}
		return values.Merge(contributed), nil
	}
}
