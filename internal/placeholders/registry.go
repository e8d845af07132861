package placeholders

import "github.com/dpshade/pocket-placeholders/internal/models"

// DescriptorFilter contributes placeholders to a listing. It receives the set built so
// far and returns the set to hand to the next filter; returning nil leaves it unchanged.
type DescriptorFilter func(set *models.PlaceholderSet) *models.PlaceholderSet

// Registry lists the placeholders available for insertion
type Registry struct {
	filters []DescriptorFilter
}

// NewRegistry creates a registry holding the Core placeholders
func NewRegistry() *Registry {
	r := &Registry{}
	r.Use(CoreDescriptors)
	return r
}

// Use appends filters to the chain. Filters run in registration order.
func (r *Registry) Use(filters ...DescriptorFilter) {
	for _, f := range filters {
		if f != nil {
			r.filters = append(r.filters, f)
		}
	}
}

// List builds the placeholder set starting from base, which may be nil.
// base itself is never modified.
func (r *Registry) List(base *models.PlaceholderSet) *models.PlaceholderSet {
	set := base.Clone()
	for _, f := range r.filters {
		if next := f(set); next != nil {
			set = next
		}
	}
	return set
}

// CoreDescriptors merges the built-in placeholders into set. Built-ins win over
// entries of set that use the same token.
func CoreDescriptors(set *models.PlaceholderSet) *models.PlaceholderSet {
	return set.Merge(Builtins())
}

// Owners returns the distinct owners of set in display order
func Owners(set *models.PlaceholderSet) []models.Owner {
	var owners []models.Owner
	seen := make(map[string]bool)
	for _, p := range set.Reversed() {
		slug := p.OwnerSlug()
		if seen[slug] {
			continue
		}
		seen[slug] = true
		owners = append(owners, models.Owner{Slug: slug, Name: p.Owner})
	}
	return owners
}

// FilterByOwner returns the placeholders of set in display order, restricted to the
// owner with the given slug. An empty slug selects every owner.
func FilterByOwner(set *models.PlaceholderSet, slug string) []models.Placeholder {
	var result []models.Placeholder
	for _, p := range set.Reversed() {
		if slug == "" || p.OwnerSlug() == slug {
			result = append(result, p)
		}
	}
	return result
}

// OwnerGroup is a run of placeholders sharing an owner
type OwnerGroup struct {
	Owner        models.Owner
	Placeholders []models.Placeholder
}

// GroupByOwner groups placeholders by owner, preserving the order in which owners
// first appear.
func GroupByOwner(placeholders []models.Placeholder) []OwnerGroup {
	var groups []OwnerGroup
	index := make(map[string]int)
	for _, p := range placeholders {
		slug := p.OwnerSlug()
		i, ok := index[slug]
		if !ok {
			i = len(groups)
			index[slug] = i
			groups = append(groups, OwnerGroup{Owner: models.Owner{Slug: slug, Name: p.Owner}})
		}
		groups[i].Placeholders = append(groups[i].Placeholders, p)
	}
	return groups
}
