// Package commands/placeholder_commands implements the placeholder commands.
//
// COMMAND IMPLEMENTATIONS:
// - ListPlaceholdersCommand: Lists placeholders in display order, optionally for one owner
// - ListOwnersCommand: Lists the owner groups used by the picker filter
// - SearchPlaceholdersCommand: Fuzzy search over token, label and owner
// - SubstituteCommand: Replaces tokens in content with the values for a user
// - ResolveValuesCommand: Shows the value each token currently resolves to
// - LintCommand: Reports ${NAME} tokens that no placeholder is registered for
package commands

import (
	"context"
	"fmt"

	"github.com/dpshade/pocket-placeholders/internal/models"
	"github.com/dpshade/pocket-placeholders/internal/placeholders"
	"github.com/dpshade/pocket-placeholders/internal/renderer"
	"github.com/dpshade/pocket-placeholders/internal/service"
	"github.com/dpshade/pocket-placeholders/internal/session"
)

func stringParam(params map[string]interface{}, key string) string {
	s, _ := params[key].(string)
	return s
}

func requireService(svc *service.Service) error {
	if svc == nil {
		return fmt.Errorf("service not set")
	}
	return nil
}

// effectiveUser is the explicit user, or the session user when none was given
func effectiveUser(ctx context.Context, explicit string) models.UserID {
	if id := models.NewUserID(explicit); !id.IsZero() {
		return id
	}
	id, _ := session.UserFromContext(ctx)
	return id
}

// ListPlaceholdersCommand lists placeholders with optional owner filtering
type ListPlaceholdersCommand struct {
	service *service.Service
	Owner   string
	Format  string
}

func (c *ListPlaceholdersCommand) SetService(svc *service.Service) {
	c.service = svc
}

func (c *ListPlaceholdersCommand) SetParameters(params map[string]interface{}) error {
	c.Owner = stringParam(params, "owner")
	c.Format = stringParam(params, "format")
	return nil
}

func (c *ListPlaceholdersCommand) Validate() error {
	return requireService(c.service)
}

func (c *ListPlaceholdersCommand) GetName() string {
	return "list"
}

func (c *ListPlaceholdersCommand) GetDescription() string {
	return "List placeholders, most recent contributions first, optionally for one owner"
}

func (c *ListPlaceholdersCommand) Execute(ctx context.Context) (*CommandResult, error) {
	list, err := c.service.ListPlaceholders(c.Owner)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Placeholder{}
	}

	return &CommandResult{
		Success: true,
		Data:    list,
		Message: fmt.Sprintf("Found %d placeholders", len(list)),
	}, nil
}

// ListOwnersCommand lists the owner groups
type ListOwnersCommand struct {
	service *service.Service
}

func (c *ListOwnersCommand) SetService(svc *service.Service) {
	c.service = svc
}

func (c *ListOwnersCommand) Validate() error {
	return requireService(c.service)
}

func (c *ListOwnersCommand) GetName() string {
	return "owners"
}

func (c *ListOwnersCommand) GetDescription() string {
	return "List the owners placeholders are grouped by"
}

func (c *ListOwnersCommand) Execute(ctx context.Context) (*CommandResult, error) {
	owners := c.service.Owners()
	if owners == nil {
		owners = []models.Owner{}
	}
	return &CommandResult{
		Success: true,
		Data:    owners,
		Message: fmt.Sprintf("Found %d owners", len(owners)),
	}, nil
}

// SearchPlaceholdersCommand performs fuzzy search on placeholders
type SearchPlaceholdersCommand struct {
	service *service.Service
	Query   string
}

func (c *SearchPlaceholdersCommand) SetService(svc *service.Service) {
	c.service = svc
}

func (c *SearchPlaceholdersCommand) SetParameters(params map[string]interface{}) error {
	c.Query = stringParam(params, "query")
	return nil
}

func (c *SearchPlaceholdersCommand) Validate() error {
	if err := requireService(c.service); err != nil {
		return err
	}
	if c.Query == "" {
		return fmt.Errorf("search query is required")
	}
	return nil
}

func (c *SearchPlaceholdersCommand) GetName() string {
	return "search"
}

func (c *SearchPlaceholdersCommand) GetDescription() string {
	return "Fuzzy search placeholders by token, label or owner"
}

func (c *SearchPlaceholdersCommand) Execute(ctx context.Context) (*CommandResult, error) {
	results := c.service.SearchPlaceholders(c.Query)
	return &CommandResult{
		Success: true,
		Data:    results,
		Message: fmt.Sprintf("Found %d placeholders matching '%s'", len(results), c.Query),
	}, nil
}

// SubstituteResult is the data of a successful substitution
type SubstituteResult struct {
	renderer.Result
	Format string `json:"format,omitempty"`

	// Document carries the source for interfaces that render it themselves.
	Document renderer.Document `json:"-"`
}

// SubstituteCommand replaces placeholder tokens in content
type SubstituteCommand struct {
	service *service.Service
	Content string
	User    string
	Values  map[string]string
	Format  string
}

func (c *SubstituteCommand) SetService(svc *service.Service) {
	c.service = svc
}

func (c *SubstituteCommand) SetParameters(params map[string]interface{}) error {
	c.Content = stringParam(params, "content")
	c.User = stringParam(params, "user")
	c.Format = stringParam(params, "format")
	if values, ok := params["values"].(map[string]string); ok {
		c.Values = values
	}
	return nil
}

func (c *SubstituteCommand) Validate() error {
	return requireService(c.service)
}

func (c *SubstituteCommand) GetName() string {
	return "substitute"
}

func (c *SubstituteCommand) GetDescription() string {
	return "Replace placeholder tokens in content with their current values"
}

func (c *SubstituteCommand) Execute(ctx context.Context) (*CommandResult, error) {
	user := effectiveUser(ctx, c.User)
	out, values, err := c.service.SubstituteWithValues(ctx, c.Content, user, c.Values)
	if err != nil {
		return nil, err
	}

	doc := renderer.Document{
		Source:   c.Content,
		Content:  out,
		User:     user.String(),
		Values:   values,
		Findings: c.service.Lint(c.Content),
	}
	result := &SubstituteResult{Result: doc.Result(), Format: c.Format, Document: doc}

	message := "Substituted content"
	if n := len(result.Unresolved); n > 0 {
		message = fmt.Sprintf("Substituted content, %d token(s) left unresolved", n)
	}
	return &CommandResult{
		Success: true,
		Data:    result,
		Message: message,
	}, nil
}

// ResolveValuesCommand shows the current value of every resolvable token
type ResolveValuesCommand struct {
	service *service.Service
	User    string
}

func (c *ResolveValuesCommand) SetService(svc *service.Service) {
	c.service = svc
}

func (c *ResolveValuesCommand) SetParameters(params map[string]interface{}) error {
	c.User = stringParam(params, "user")
	return nil
}

func (c *ResolveValuesCommand) Validate() error {
	return requireService(c.service)
}

func (c *ResolveValuesCommand) GetName() string {
	return "values"
}

func (c *ResolveValuesCommand) GetDescription() string {
	return "Show the value each placeholder resolves to for a user"
}

func (c *ResolveValuesCommand) Execute(ctx context.Context) (*CommandResult, error) {
	values, err := c.service.ResolveValues(ctx, effectiveUser(ctx, c.User), nil)
	if err != nil {
		return nil, err
	}
	return &CommandResult{
		Success: true,
		Data:    values,
		Message: fmt.Sprintf("Resolved %d values", len(values)),
	}, nil
}

// LintCommand reports unregistered tokens in content
type LintCommand struct {
	service *service.Service
	Content string
}

func (c *LintCommand) SetService(svc *service.Service) {
	c.service = svc
}

func (c *LintCommand) SetParameters(params map[string]interface{}) error {
	c.Content = stringParam(params, "content")
	return nil
}

func (c *LintCommand) Validate() error {
	return requireService(c.service)
}

func (c *LintCommand) GetName() string {
	return "lint"
}

func (c *LintCommand) GetDescription() string {
	return "Report ${NAME} tokens that no placeholder is registered for"
}

func (c *LintCommand) Execute(ctx context.Context) (*CommandResult, error) {
	findings := c.service.Lint(c.Content)
	if findings == nil {
		findings = []placeholders.Finding{}
	}

	message := "No unknown placeholders"
	if len(findings) > 0 {
		message = fmt.Sprintf("Found %d unknown placeholder(s)", len(findings))
	}
	return &CommandResult{
		Success: true,
		Data:    findings,
		Message: message,
	}, nil
}
