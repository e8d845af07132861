// Package commands implements the unified command execution system for pocket-placeholders.
//
// SYSTEM ARCHITECTURE ROLE:
// This module is the coordination layer between the user interfaces (CLI, HTTP) and the
// service layer. Every operation is a Command looked up by name, fed validated
// parameters and executed against the shared service.
//
// INTEGRATION POINTS:
// - internal/cli/cli.go: CLI builds parameter maps from flags and calls executor.Execute()
// - internal/api/server.go: API handlers use executor.Execute() for every endpoint
// - internal/service/service.go: Commands delegate business logic through ServiceAwareCommand
// - internal/validation/validator.go: CommandExecutor.validator validates parameters before execution
// - internal/errors/errors.go: Command failures are converted to ErrorInfo via AppError conversion
//
// COMMAND FLOW:
// 1. Interface converts user input to a command parameters map
// 2. CommandExecutor validates parameters against the command's schema
// 3. Command instance is created and configured with validated parameters
// 4. Command executes business logic via service layer
// 5. Interface converts CommandResult to its display format
//
// The authenticated user travels in the context (internal/session), never in parameters.
package commands

import (
	"context"
	"sort"

	"github.com/dpshade/pocket-placeholders/internal/errors"
	"github.com/dpshade/pocket-placeholders/internal/service"
	"github.com/dpshade/pocket-placeholders/internal/validation"
)

// CommandResult represents the result of executing a command
type CommandResult struct {
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Success bool        `json:"success"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo provides structured error information
type ErrorInfo struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Details  string `json:"details,omitempty"`
	Category string `json:"category,omitempty"`
	Severity string `json:"severity,omitempty"`
}

// AppError turns the error info back into an AppError for interface handlers
func (e *ErrorInfo) AppError() *errors.AppError {
	appErr := errors.NewAppError(errors.ErrorCode(e.Code), e.Message)
	if e.Details != "" {
		appErr.WithDetails(e.Details)
	}
	return appErr
}

// Command represents a unified command interface
type Command interface {
	Execute(ctx context.Context) (*CommandResult, error)
	Validate() error
	GetName() string
	GetDescription() string
}

// ParameterizedCommand interface for commands that accept parameters
type ParameterizedCommand interface {
	SetParameters(params map[string]interface{}) error
}

// ServiceAwareCommand interface for commands that need service access
type ServiceAwareCommand interface {
	SetService(svc *service.Service)
}

// CommandRegistry manages available commands
type CommandRegistry struct {
	commands map[string]func() Command
}

// NewCommandRegistry creates a new command registry
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		commands: make(map[string]func() Command),
	}
}

// Register adds a command factory to the registry
func (r *CommandRegistry) Register(name string, factory func() Command) {
	r.commands[name] = factory
}

// Get retrieves a command factory by name
func (r *CommandRegistry) Get(name string) (func() Command, bool) {
	factory, exists := r.commands[name]
	return factory, exists
}

// List returns all available command names, sorted
func (r *CommandRegistry) List() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CommandExecutor provides a unified way to execute commands
type CommandExecutor struct {
	service   *service.Service
	registry  *CommandRegistry
	validator *validation.Validator
}

// NewCommandExecutor creates a new command executor
func NewCommandExecutor(svc *service.Service) *CommandExecutor {
	executor := &CommandExecutor{
		service:   svc,
		registry:  NewCommandRegistry(),
		validator: validation.NewValidator(),
	}

	executor.registerCommands()

	return executor
}

// Commands returns the registered command names
func (e *CommandExecutor) Commands() []string {
	return e.registry.List()
}

// Describe returns the description of a registered command
func (e *CommandExecutor) Describe(name string) (string, bool) {
	factory, ok := e.registry.Get(name)
	if !ok {
		return "", false
	}
	return factory().GetDescription(), true
}

// Execute runs a command by name with the given parameters. Failures are reported in
// CommandResult.Error; the returned error is reserved for future transport failures.
func (e *CommandExecutor) Execute(ctx context.Context, commandName string, params map[string]interface{}) (*CommandResult, error) {
	factory, exists := e.registry.Get(commandName)
	if !exists {
		return errorResult(errors.CommandNotFoundError(commandName)), nil
	}

	if params == nil {
		params = make(map[string]interface{})
	}

	if validationSchema := e.getValidationSchema(commandName); validationSchema != "" {
		validationResult := e.validator.Validate(validationSchema, params)
		if !validationResult.Valid {
			return errorResult(validationResult.ToAppError()), nil
		}

		params = validationResult.GetValidatedData()
	}

	cmd := factory()

	if parameterized, ok := cmd.(ParameterizedCommand); ok {
		if err := parameterized.SetParameters(params); err != nil {
			return errorResult(errors.ValidationError(err.Error())), nil
		}
	}

	if err := cmd.Validate(); err != nil {
		return errorResult(errors.ValidationError(err.Error())), nil
	}

	result, err := cmd.Execute(ctx)
	if err != nil {
		return errorResult(errors.GetAppError(err)), nil
	}

	return result, nil
}

func errorResult(appErr *errors.AppError) *CommandResult {
	return &CommandResult{
		Success: false,
		Error: &ErrorInfo{
			Code:     string(appErr.Code),
			Message:  appErr.Message,
			Details:  appErr.Details,
			Category: string(appErr.Category),
			Severity: string(appErr.Severity),
		},
	}
}

// getValidationSchema returns the validation schema name for a command
func (e *CommandExecutor) getValidationSchema(commandName string) string {
	switch commandName {
	case "list":
		return "list_placeholders"
	case "search":
		return "search_placeholders"
	case "substitute":
		return "substitute"
	case "values":
		return "resolve_values"
	case "lint":
		return "lint"
	case "get-user", "delete-user":
		return "get_user"
	case "add-user":
		return "add_user"
	case "tour":
		return "tour"
	default:
		return "" // No validation schema defined
	}
}

// registerCommands registers all available commands
func (e *CommandExecutor) registerCommands() {
	factories := map[string]func() Command{
		"list":        func() Command { return &ListPlaceholdersCommand{} },
		"owners":      func() Command { return &ListOwnersCommand{} },
		"search":      func() Command { return &SearchPlaceholdersCommand{} },
		"substitute":  func() Command { return &SubstituteCommand{} },
		"values":      func() Command { return &ResolveValuesCommand{} },
		"lint":        func() Command { return &LintCommand{} },
		"list-users":  func() Command { return &ListUsersCommand{} },
		"get-user":    func() Command { return &GetUserCommand{} },
		"add-user":    func() Command { return &AddUserCommand{} },
		"delete-user": func() Command { return &DeleteUserCommand{} },
		"list-packs":  func() Command { return &ListPacksCommand{} },
		"tour":        func() Command { return &TourCommand{} },
		"health":      func() Command { return &HealthCheckCommand{} },
	}

	for name, newCommand := range factories {
		newCommand := newCommand
		e.registry.Register(name, func() Command {
			cmd := newCommand()
			if serviceAware, ok := cmd.(ServiceAwareCommand); ok {
				serviceAware.SetService(e.service)
			}
			return cmd
		})
	}
}
