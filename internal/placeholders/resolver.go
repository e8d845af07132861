package placeholders

import (
	"context"
	"time"

	"github.com/dpshade/pocket-placeholders/internal/errors"
	"github.com/dpshade/pocket-placeholders/internal/models"
	"github.com/dpshade/pocket-placeholders/internal/session"
)

// UserLookup resolves a user id to a profile. Implementations report unknown ids
// with errors.UserNotFoundError.
type UserLookup interface {
	LookupUser(ctx context.Context, id models.UserID) (*models.User, error)
}

// ValueFilter contributes substitution values. It receives the values built so far
// together with the user id the caller asked for, which may be zero.
type ValueFilter func(ctx context.Context, values models.Values, id models.UserID) (models.Values, error)

// Resolver computes the value of each token for a user
type Resolver struct {
	users   UserLookup
	now     func() time.Time
	filters []ValueFilter
}

// ResolverOption configures a Resolver
type ResolverOption func(*Resolver)

// WithClock replaces the wall clock used for ${DATE} and ${DATE_TIME}
func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) {
		r.now = now
	}
}

// NewResolver creates a resolver that looks users up in users
func NewResolver(users UserLookup, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		users: users,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.Use(r.coreValues)
	return r
}

// Use appends filters to the chain. Filters run in registration order.
func (r *Resolver) Use(filters ...ValueFilter) {
	for _, f := range filters {
		if f != nil {
			r.filters = append(r.filters, f)
		}
	}
}

// Resolve returns base overlaid with the values contributed by every filter.
// base itself is never modified.
func (r *Resolver) Resolve(ctx context.Context, base models.Values, id models.UserID) (models.Values, error) {
	values := base.Clone()
	for _, f := range r.filters {
		next, err := f(ctx, values, id)
		if err != nil {
			return nil, err
		}
		if next != nil {
			values = next
		}
	}
	return values, nil
}

// coreValues adds the date and user tokens. Without an explicit id and without an
// authenticated session the values pass through untouched.
func (r *Resolver) coreValues(ctx context.Context, values models.Values, id models.UserID) (models.Values, error) {
	if id.IsZero() {
		current, ok := session.UserFromContext(ctx)
		if !ok {
			return values, nil
		}
		id = current
	}

	if r.users == nil {
		return nil, errors.UserNotFoundError(id.String())
	}
	user, err := r.users.LookupUser(ctx, id)
	if err != nil {
		return nil, err
	}

	now := r.now()
	return values.Merge(models.Values{
		Date:            now.Format(DateLayout),
		DateTime:        now.Format(DateTimeLayout),
		UserDisplayName: user.DisplayName,
		UserFirstName:   user.FirstName,
		UserLastName:    user.LastName,
		UserEmail:       user.Email,
	}), nil
}
