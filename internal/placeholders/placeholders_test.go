package placeholders

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/dpshade/pocket-placeholders/internal/errors"
	"github.com/dpshade/pocket-placeholders/internal/models"
	"github.com/dpshade/pocket-placeholders/internal/session"
)

type memoryUsers map[models.UserID]*models.User

func (m memoryUsers) LookupUser(_ context.Context, id models.UserID) (*models.User, error) {
	if u, ok := m[id]; ok {
		return u, nil
	}
	return nil, errors.UserNotFoundError(id.String())
}

var testUsers = memoryUsers{
	"ada": {ID: "ada", DisplayName: "Countess", FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"},
}

func fixedClock() time.Time {
	return time.Date(2014, time.July, 22, 9, 5, 7, 0, time.UTC)
}

func newTestSubstitutor() (*Resolver, *Substitutor) {
	r := NewResolver(testUsers, WithClock(fixedClock))
	return r, NewSubstitutor(r)
}

func TestListWithEmptyBaseHasExactlyTheBuiltins(t *testing.T) {
	set := NewRegistry().List(nil)

	want := []string{Date, DateTime, UserFirstName, UserLastName, UserDisplayName, UserEmail}
	if got := set.Tokens(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Expected tokens %v, got %v", want, got)
	}
	for _, p := range set.All() {
		if p.Owner != OwnerCore {
			t.Errorf("Expected %s to be owned by Core, got %q", p.Token, p.Owner)
		}
		if p.Label == "" {
			t.Errorf("Expected %s to have a label", p.Token)
		}
	}
}

func TestListMergesBuiltinsIntoBase(t *testing.T) {
	base := models.NewPlaceholderSet(
		models.Placeholder{Token: "${SITE}", Label: "Site", Owner: "Mine"},
		models.Placeholder{Token: Date, Label: "My date", Owner: "Mine"},
	)

	set := NewRegistry().List(base)

	if p, ok := set.Get("${SITE}"); !ok || p.Owner != "Mine" {
		t.Errorf("Expected base-only entries to survive, got %+v (%v)", p, ok)
	}
	if p, _ := set.Get(Date); p.Owner != OwnerCore || p.Label != "Date" {
		t.Errorf("Expected built-ins to override base, got %+v", p)
	}
	if set.Len() != 7 {
		t.Errorf("Expected 7 placeholders, got %d", set.Len())
	}
	if p, _ := base.Get(Date); p.Owner != "Mine" {
		t.Error("List must not modify its base")
	}
}

func TestRegistryFiltersRunInOrder(t *testing.T) {
	r := NewRegistry()
	r.Use(
		func(set *models.PlaceholderSet) *models.PlaceholderSet {
			set.Set(models.Placeholder{Token: "${USER_ROLE}", Label: "Role", Owner: "Users Manager"})
			return set
		},
		func(set *models.PlaceholderSet) *models.PlaceholderSet {
			set.Set(models.Placeholder{Token: "${USER_ROLE}", Label: "Role (override)", Owner: "Users Manager"})
			return nil
		},
	)

	set := r.List(nil)
	if p, _ := set.Get("${USER_ROLE}"); p.Label != "Role (override)" {
		t.Errorf("Expected the later filter to win, got %q", p.Label)
	}

	owners := Owners(set)
	if len(owners) != 2 || owners[0].Slug != "users-manager" || owners[1].Name != OwnerCore {
		t.Errorf("Expected contributions before Core, got %+v", owners)
	}

	if got := FilterByOwner(set, "users-manager"); len(got) != 1 {
		t.Errorf("Expected one Users Manager placeholder, got %d", len(got))
	}
	if got := FilterByOwner(set, ""); len(got) != 7 {
		t.Errorf("Expected every placeholder for an empty owner, got %d", len(got))
	}

	groups := GroupByOwner(FilterByOwner(set, ""))
	if len(groups) != 2 || len(groups[1].Placeholders) != 6 {
		t.Errorf("Unexpected grouping %+v", groups)
	}
}

func TestResolveWithoutUserIsPassThrough(t *testing.T) {
	r, _ := newTestSubstitutor()
	base := models.Values{"${SITE}": "example.org"}

	got, err := r.Resolve(context.Background(), base, "")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, base) {
		t.Errorf("Expected %v unchanged, got %v", base, got)
	}

	again, _ := r.Resolve(context.Background(), got, "")
	if !reflect.DeepEqual(again, base) {
		t.Errorf("Expected resolving twice to stay unchanged, got %v", again)
	}
}

func TestResolveForUser(t *testing.T) {
	r, _ := newTestSubstitutor()
	base := models.Values{"${SITE}": "example.org", UserEmail: "stale@example.com"}

	got, err := r.Resolve(context.Background(), base, "ada")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := models.Values{
		"${SITE}":       "example.org",
		Date:            "22 Jul, 2014",
		DateTime:        "22 Jul, 2014 09:05:07",
		UserDisplayName: "Countess",
		UserFirstName:   "Ada",
		UserLastName:    "Lovelace",
		UserEmail:       "ada@example.com",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
	if base[UserEmail] != "stale@example.com" {
		t.Error("Resolve must not modify its base")
	}

	again, _ := r.Resolve(context.Background(), base, "ada")
	if again[Date] != got[Date] || again[DateTime] != got[DateTime] {
		t.Error("Expected identical dates within the same clock second")
	}
}

func TestResolveUsesSessionUser(t *testing.T) {
	r, _ := newTestSubstitutor()
	ctx := session.WithUser(context.Background(), "ada")

	got, err := r.Resolve(ctx, nil, "")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got[UserFirstName] != "Ada" {
		t.Errorf("Expected the session user to be resolved, got %v", got)
	}
}

func TestResolveUnknownUserFails(t *testing.T) {
	r, _ := newTestSubstitutor()

	_, err := r.Resolve(context.Background(), nil, "ghost")
	if !errors.HasCode(err, errors.ErrCodeUserNotFound) {
		t.Errorf("Expected USER_NOT_FOUND, got %v", err)
	}
}

func TestValueFiltersRunAfterCore(t *testing.T) {
	r, s := newTestSubstitutor()
	r.Use(func(_ context.Context, values models.Values, id models.UserID) (models.Values, error) {
		return values.Merge(models.Values{"${USER_ROLE}": "admin:" + id.String()}), nil
	})

	out, err := s.Substitute(context.Background(), "${USER_ROLE} ${USER_FIRST_NAME}", "ada", nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if out != "admin:ada Ada" {
		t.Errorf("Unexpected output %q", out)
	}
}

func TestSubstitute(t *testing.T) {
	_, s := newTestSubstitutor()

	out, err := s.Substitute(context.Background(), "Hello ${USER_FIRST_NAME}, today is ${DATE}", "ada", nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if out != "Hello Ada, today is 22 Jul, 2014" {
		t.Errorf("Unexpected output %q", out)
	}
	if strings.Contains(out, "${") {
		t.Errorf("Expected no markers left, got %q", out)
	}
}

func TestSubstituteLeavesUnknownAndPlainContent(t *testing.T) {
	_, s := newTestSubstitutor()
	ctx := context.Background()

	for _, content := range []string{"no tokens here", "${UNKNOWN_TOKEN}", ""} {
		out, err := s.Substitute(ctx, content, "ada", nil)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if out != content {
			t.Errorf("Expected %q unchanged, got %q", content, out)
		}
	}
}

func TestSubstituteWithoutUserKeepsUserTokens(t *testing.T) {
	_, s := newTestSubstitutor()

	out, err := s.Substitute(context.Background(), "${SITE}: ${USER_EMAIL}", "", models.Values{"${SITE}": "blog"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if out != "blog: ${USER_EMAIL}" {
		t.Errorf("Expected user tokens to stay untouched, got %q", out)
	}
}

func TestReplaceIsLongestMatchSinglePass(t *testing.T) {
	values := models.Values{
		"a":   "1",
		"ab":  "2",
		"abc": "${a}",
		"":    "never",
		"${a}": "loop",
	}

	if got := Replace("abcab a", values); got != "${a}2 1" {
		t.Errorf("Expected longest match without rescanning, got %q", got)
	}
	if got := Replace("x", nil); got != "x" {
		t.Errorf("Expected nil values to be a no-op, got %q", got)
	}
}

func TestTokenHelpers(t *testing.T) {
	if Token("DATE") != Date || Token(Date) != Date {
		t.Error("Token should wrap bare names and keep wrapped ones")
	}
	if Name(UserEmail) != "USER_EMAIL" {
		t.Errorf("Unexpected name %q", Name(UserEmail))
	}
	if !IsToken("${USER_ROLE}") || IsToken("${user}") || IsToken("USER") {
		t.Error("IsToken accepted or rejected the wrong shapes")
	}
}

func TestLint(t *testing.T) {
	set := NewRegistry().List(nil)

	findings := Lint("Hi ${USER_FIRST_NAME} ${USER_EMIAL} ${WHATEVER}", set)
	if len(findings) != 2 {
		t.Fatalf("Expected 2 findings, got %+v", findings)
	}
	if findings[0].Token != "${USER_EMIAL}" || findings[0].Suggestion != UserEmail {
		t.Errorf("Expected a suggestion for the typo, got %+v", findings[0])
	}
	if findings[0].Offset != 22 {
		t.Errorf("Expected offset 22, got %d", findings[0].Offset)
	}
	if findings[1].Suggestion != "" {
		t.Errorf("Expected no suggestion for an unrelated token, got %q", findings[1].Suggestion)
	}
}
