package placeholders

import (
	"context"
	"sort"
	"strings"

	"github.com/dpshade/pocket-placeholders/internal/models"
)

// Substitutor replaces placeholder tokens in content with their current values
type Substitutor struct {
	resolver *Resolver
}

// NewSubstitutor creates a substitutor drawing its values from resolver
func NewSubstitutor(resolver *Resolver) *Substitutor {
	return &Substitutor{resolver: resolver}
}

// Substitute resolves the values for id, seeded with pairs, and replaces them in
// content. Tokens without a value are left untouched.
func (s *Substitutor) Substitute(ctx context.Context, content string, id models.UserID, pairs models.Values) (string, error) {
	out, _, err := s.Apply(ctx, content, id, pairs)
	return out, err
}

// Apply is Substitute that also returns the values content was replaced with.
func (s *Substitutor) Apply(ctx context.Context, content string, id models.UserID, pairs models.Values) (string, models.Values, error) {
	values, err := s.resolver.Resolve(ctx, pairs, id)
	if err != nil {
		return "", nil, err
	}
	return Replace(content, values), values, nil
}

// Replace performs a single left-to-right pass over content. At each position the
// longest key that matches is replaced and scanning resumes after it, so replaced
// text is never rescanned. Empty keys are ignored.
func Replace(content string, values models.Values) string {
	if content == "" || len(values) == 0 {
		return content
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		if k != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return content
	}

	// strings.Replacer prefers earlier pairs when several keys match at one position.
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	oldnew := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		oldnew = append(oldnew, k, values[k])
	}
	return strings.NewReplacer(oldnew...).Replace(content)
}
