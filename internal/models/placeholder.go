package models

import (
	"fmt"
	"strings"
	"unicode"
)

// Placeholder describes a token that can be inserted into content
type Placeholder struct {
	Token string `json:"token" yaml:"token"`
	Label string `json:"label" yaml:"label"`
	Owner string `json:"owner" yaml:"owner"`
}

// FilterValue returns the value used for filtering in lists
func (p Placeholder) FilterValue() string {
	return p.Label + " " + p.Token
}

// Title satisfies the list.Item interface
func (p Placeholder) Title() string {
	if p.Label != "" {
		return p.Label
	}
	return p.Token
}

// Description satisfies the list.Item interface
func (p Placeholder) Description() string {
	return fmt.Sprintf("%s • %s", p.Token, p.Owner)
}

// OwnerSlug returns the owner name reduced to a lowercase, dash separated slug
func (p Placeholder) OwnerSlug() string {
	return Slugify(p.Owner)
}

// Owner is a placeholder grouping tag
type Owner struct {
	Slug string `json:"slug" yaml:"slug"`
	Name string `json:"name" yaml:"name"`
}

// Slugify lowercases s and collapses every run of non alphanumerics into a single dash
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// PlaceholderSet is an ordered collection of placeholders keyed by token.
// Setting an existing token replaces its label and owner but keeps its position.
type PlaceholderSet struct {
	order []string
	items map[string]Placeholder
}

// NewPlaceholderSet creates a set holding the given placeholders in order
func NewPlaceholderSet(placeholders ...Placeholder) *PlaceholderSet {
	s := &PlaceholderSet{items: make(map[string]Placeholder, len(placeholders))}
	for _, p := range placeholders {
		s.Set(p)
	}
	return s
}

// Set adds or replaces a placeholder
func (s *PlaceholderSet) Set(p Placeholder) {
	if s.items == nil {
		s.items = make(map[string]Placeholder)
	}
	if _, exists := s.items[p.Token]; !exists {
		s.order = append(s.order, p.Token)
	}
	s.items[p.Token] = p
}

// Get returns the placeholder registered for token
func (s *PlaceholderSet) Get(token string) (Placeholder, bool) {
	if s == nil {
		return Placeholder{}, false
	}
	p, ok := s.items[token]
	return p, ok
}

// Has reports whether token is registered
func (s *PlaceholderSet) Has(token string) bool {
	_, ok := s.Get(token)
	return ok
}

// Len returns the number of placeholders
func (s *PlaceholderSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Tokens returns the tokens in merge order
func (s *PlaceholderSet) Tokens() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.order...)
}

// All returns the placeholders in merge order
func (s *PlaceholderSet) All() []Placeholder {
	if s == nil {
		return nil
	}
	result := make([]Placeholder, 0, len(s.order))
	for _, token := range s.order {
		result = append(result, s.items[token])
	}
	return result
}

// Reversed returns the placeholders with the most recent contributions first
func (s *PlaceholderSet) Reversed() []Placeholder {
	all := s.All()
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	return all
}

// Merge copies every placeholder of other into s; entries of other win
func (s *PlaceholderSet) Merge(other *PlaceholderSet) *PlaceholderSet {
	for _, p := range other.All() {
		s.Set(p)
	}
	return s
}

// Clone returns an independent copy. A nil set clones to an empty one.
func (s *PlaceholderSet) Clone() *PlaceholderSet {
	clone := NewPlaceholderSet()
	if s == nil {
		return clone
	}
	return clone.Merge(s)
}
