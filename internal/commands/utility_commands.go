// Package commands/utility_commands implements user, pack, tour and health commands.
//
// COMMAND IMPLEMENTATIONS:
// - ListUsersCommand, GetUserCommand, AddUserCommand, DeleteUserCommand: user profiles
// - ListPacksCommand: Lists the registered extension packs
// - TourCommand: Shows, dismisses or resets the welcome tour of a user
// - HealthCheckCommand: Provides system health status for monitoring and debugging
package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/dpshade/pocket-placeholders/internal/models"
	"github.com/dpshade/pocket-placeholders/internal/service"
)

// ListUsersCommand lists all user profiles
type ListUsersCommand struct {
	service *service.Service
}

func (c *ListUsersCommand) SetService(svc *service.Service) {
	c.service = svc
}

func (c *ListUsersCommand) Validate() error {
	return requireService(c.service)
}

func (c *ListUsersCommand) GetName() string {
	return "list-users"
}

func (c *ListUsersCommand) GetDescription() string {
	return "List user profiles"
}

func (c *ListUsersCommand) Execute(ctx context.Context) (*CommandResult, error) {
	users, err := c.service.ListUsers()
	if err != nil {
		return nil, err
	}
	return &CommandResult{
		Success: true,
		Data:    users,
		Message: fmt.Sprintf("Found %d users", len(users)),
	}, nil
}

// GetUserCommand shows a single user profile
type GetUserCommand struct {
	service *service.Service
	ID      string
}

func (c *GetUserCommand) SetService(svc *service.Service) {
	c.service = svc
}

func (c *GetUserCommand) SetParameters(params map[string]interface{}) error {
	c.ID = stringParam(params, "id")
	return nil
}

func (c *GetUserCommand) Validate() error {
	return requireService(c.service)
}

func (c *GetUserCommand) GetName() string {
	return "get-user"
}

func (c *GetUserCommand) GetDescription() string {
	return "Show a user profile"
}

func (c *GetUserCommand) Execute(ctx context.Context) (*CommandResult, error) {
	user, err := c.service.GetUser(ctx, models.NewUserID(c.ID))
	if err != nil {
		return nil, err
	}
	return &CommandResult{
		Success: true,
		Data:    user,
		Message: fmt.Sprintf("User %s", user.Name()),
	}, nil
}

// AddUserCommand creates a user profile
type AddUserCommand struct {
	service *service.Service
	User    models.User
}

func (c *AddUserCommand) SetService(svc *service.Service) {
	c.service = svc
}

func (c *AddUserCommand) SetParameters(params map[string]interface{}) error {
	c.User = models.User{
		ID:          models.NewUserID(stringParam(params, "id")),
		Login:       stringParam(params, "login"),
		DisplayName: stringParam(params, "display_name"),
		FirstName:   stringParam(params, "first_name"),
		LastName:    stringParam(params, "last_name"),
		Email:       stringParam(params, "email"),
	}
	return nil
}

func (c *AddUserCommand) Validate() error {
	return requireService(c.service)
}

func (c *AddUserCommand) GetName() string {
	return "add-user"
}

func (c *AddUserCommand) GetDescription() string {
	return "Create a user profile; the id is generated when omitted"
}

func (c *AddUserCommand) Execute(ctx context.Context) (*CommandResult, error) {
	user := c.User
	if err := c.service.AddUser(ctx, &user); err != nil {
		return nil, err
	}
	return &CommandResult{
		Success: true,
		Data:    &user,
		Message: fmt.Sprintf("Created user %s", user.ID),
	}, nil
}

// DeleteUserCommand removes a user profile
type DeleteUserCommand struct {
	service *service.Service
	ID      string
}

func (c *DeleteUserCommand) SetService(svc *service.Service) {
	c.service = svc
}

func (c *DeleteUserCommand) SetParameters(params map[string]interface{}) error {
	c.ID = stringParam(params, "id")
	return nil
}

func (c *DeleteUserCommand) Validate() error {
	return requireService(c.service)
}

func (c *DeleteUserCommand) GetName() string {
	return "delete-user"
}

func (c *DeleteUserCommand) GetDescription() string {
	return "Delete a user profile"
}

func (c *DeleteUserCommand) Execute(ctx context.Context) (*CommandResult, error) {
	if err := c.service.DeleteUser(models.NewUserID(c.ID)); err != nil {
		return nil, err
	}
	return &CommandResult{
		Success: true,
		Message: fmt.Sprintf("Deleted user %s", c.ID),
	}, nil
}

// ListPacksCommand lists all registered packs
type ListPacksCommand struct {
	service *service.Service
}

func (c *ListPacksCommand) SetService(svc *service.Service) {
	c.service = svc
}

func (c *ListPacksCommand) Validate() error {
	return requireService(c.service)
}

func (c *ListPacksCommand) GetName() string {
	return "list-packs"
}

func (c *ListPacksCommand) GetDescription() string {
	return "List the extension packs contributing placeholders"
}

func (c *ListPacksCommand) Execute(ctx context.Context) (*CommandResult, error) {
	packs := c.service.ListPacks()
	if packs == nil {
		packs = []models.Pack{}
	}
	return &CommandResult{
		Success: true,
		Data:    packs,
		Message: fmt.Sprintf("Found %d packs", len(packs)),
	}, nil
}

// TourStatus is the data of the tour command
type TourStatus struct {
	User    string `json:"user,omitempty"`
	Pending bool   `json:"pending"`
}

// TourCommand reports, dismisses or resets the welcome tour
type TourCommand struct {
	service *service.Service
	Action  string
	User    string
}

func (c *TourCommand) SetService(svc *service.Service) {
	c.service = svc
}

func (c *TourCommand) SetParameters(params map[string]interface{}) error {
	c.Action = stringParam(params, "action")
	c.User = stringParam(params, "user")
	return nil
}

func (c *TourCommand) Validate() error {
	return requireService(c.service)
}

func (c *TourCommand) GetName() string {
	return "tour"
}

func (c *TourCommand) GetDescription() string {
	return "Show, dismiss or reset the welcome tour (status|dismiss|reset)"
}

func (c *TourCommand) Execute(ctx context.Context) (*CommandResult, error) {
	user := effectiveUser(ctx, c.User)

	var message string
	switch c.Action {
	case "dismiss":
		if err := c.service.DismissTour(user); err != nil {
			return nil, err
		}
		message = "Welcome tour dismissed"
	case "reset":
		if err := c.service.ResetTour(user); err != nil {
			return nil, err
		}
		message = "Welcome tour will be shown again"
	}

	pending, err := c.service.ShouldShowTour(user)
	if err != nil {
		return nil, err
	}
	if message == "" {
		message = "Welcome tour already dismissed"
		if pending {
			message = "Welcome tour pending"
		}
	}

	return &CommandResult{
		Success: true,
		Data:    TourStatus{User: user.String(), Pending: pending},
		Message: message,
	}, nil
}

// HealthCheckCommand provides system health information
type HealthCheckCommand struct {
	service *service.Service
}

func (c *HealthCheckCommand) SetService(svc *service.Service) {
	c.service = svc
}

func (c *HealthCheckCommand) Validate() error {
	return requireService(c.service)
}

func (c *HealthCheckCommand) GetName() string {
	return "health"
}

func (c *HealthCheckCommand) GetDescription() string {
	return "Check system health and service status"
}

func (c *HealthCheckCommand) Execute(ctx context.Context) (*CommandResult, error) {
	// Listing users touches the library directory.
	if _, err := c.service.ListUsers(); err != nil {
		return &CommandResult{
			Success: false,
			Error: &ErrorInfo{
				Code:    "HEALTH_CHECK_FAILED",
				Message: fmt.Sprintf("Service health check failed: %v", err),
			},
		}, nil
	}

	healthData := map[string]interface{}{
		"status":       "healthy",
		"service":      "pocket-placeholders",
		"placeholders": c.service.Placeholders().Len(),
		"packs":        len(c.service.ListPacks()),
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
	}

	return &CommandResult{
		Success: true,
		Data:    healthData,
		Message: "Service is healthy",
	}, nil
}
