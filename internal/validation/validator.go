// Package validation provides centralized input validation and sanitization.
//
// SYSTEM ARCHITECTURE ROLE:
// Every parameter map that reaches the command layer, whether it came from CLI flags,
// query strings or JSON bodies, is checked here against a named schema first.
//
// INTEGRATION POINTS:
// - internal/commands/types.go: CommandExecutor validates parameters before dispatch
// - internal/validation/middleware.go: RequestValidator validates HTTP requests
// - internal/errors/errors.go: ValidationResult.ToAppError() converts failures to AppError format
// - schemas: list_placeholders, search_placeholders, substitute, resolve_values, lint,
//   get_user, add_user, tour
//
// USAGE PATTERNS:
// - Register schemas: Use RegisterSchema() to add new validation patterns
// - Validate data: Use Validate() with schema name and parameter map
// - Handle results: Check ValidationResult.Valid and process errors or validated data
package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dpshade/pocket-placeholders/internal/errors"
)

var (
	slugPattern       = regexp.MustCompile(`^[a-z0-9-]+$`)
	identifierPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	emailPattern      = regexp.MustCompile(`^[^@\s]+@[^@\s]+$`)
)

// MaxContentLength bounds the content accepted for substitution and linting
const MaxContentLength = 1 << 20

// FieldValidator provides validation rules for individual fields
type FieldValidator struct {
	Name      string
	Required  bool
	Type      string
	MinLength int
	MaxLength int
	Pattern   *regexp.Regexp
	Options   []string
	Custom    func(interface{}) error
}

// ValidationResult represents the result of validation
type ValidationResult struct {
	Valid    bool                   `json:"valid"`
	Errors   []ValidationError      `json:"errors,omitempty"`
	Warnings []ValidationWarning    `json:"warnings,omitempty"`
	Data     map[string]interface{} `json:"data,omitempty"`
}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// ValidationWarning represents a field validation warning
type ValidationWarning struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Schema represents a validation schema
type Schema struct {
	Name   string
	Fields map[string]FieldValidator
	Rules  []func(map[string]interface{}) error
}

// Validator provides centralized validation functionality
type Validator struct {
	schemas map[string]*Schema
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	v := &Validator{
		schemas: make(map[string]*Schema),
	}

	v.registerBuiltinSchemas()

	return v
}

// RegisterSchema registers a validation schema
func (v *Validator) RegisterSchema(schema *Schema) {
	v.schemas[schema.Name] = schema
}

// HasSchema reports whether a schema with the given name is registered
func (v *Validator) HasSchema(name string) bool {
	_, ok := v.schemas[name]
	return ok
}

// Validate validates data against a schema. Fields are checked in name order so
// the reported errors are stable.
func (v *Validator) Validate(schemaName string, data map[string]interface{}) *ValidationResult {
	schema, exists := v.schemas[schemaName]
	if !exists {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   "schema",
				Code:    "SCHEMA_NOT_FOUND",
				Message: fmt.Sprintf("Validation schema '%s' not found", schemaName),
			}},
		}
	}

	result := &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationWarning{},
		Data:     make(map[string]interface{}),
	}

	names := make([]string, 0, len(schema.Fields))
	for name := range schema.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		v.validateField(name, schema.Fields[name], data, result)
	}

	for key := range data {
		if _, known := schema.Fields[key]; !known {
			result.Warnings = append(result.Warnings, ValidationWarning{
				Field:   key,
				Message: fmt.Sprintf("Field '%s' is not recognised and was ignored", key),
			})
		}
	}

	for _, rule := range schema.Rules {
		if err := rule(data); err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, ValidationError{
				Field:   "schema",
				Code:    "SCHEMA_RULE_VIOLATION",
				Message: err.Error(),
			})
		}
	}

	return result
}

func (v *Validator) validateField(fieldName string, validator FieldValidator, data map[string]interface{}, result *ValidationResult) {
	value, exists := data[fieldName]

	if validator.Required && (!exists || value == nil || value == "") {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Field:   fieldName,
			Code:    "REQUIRED_FIELD_MISSING",
			Message: fmt.Sprintf("Field '%s' is required", fieldName),
		})
		return
	}

	if !exists || value == nil {
		return
	}

	convertedValue, err := v.validateAndConvertType(fieldName, validator.Type, value)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Field:   fieldName,
			Code:    "INVALID_TYPE",
			Message: err.Error(),
			Value:   value,
		})
		return
	}

	result.Data[fieldName] = convertedValue

	if strValue, ok := convertedValue.(string); ok && validator.Type == "string" {
		// Optional empty strings mean "not set".
		if strValue == "" && !validator.Required {
			return
		}
		v.validateString(fieldName, validator, strValue, result)
	}

	if validator.Custom != nil {
		if err := validator.Custom(convertedValue); err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, ValidationError{
				Field:   fieldName,
				Code:    "CUSTOM_VALIDATION_FAILED",
				Message: fmt.Sprintf("Field '%s': %s", fieldName, err.Error()),
				Value:   convertedValue,
			})
		}
	}
}

func (v *Validator) validateString(fieldName string, validator FieldValidator, strValue string, result *ValidationResult) {
	fail := func(code, message string) {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Field:   fieldName,
			Code:    code,
			Message: message,
			Value:   strValue,
		})
	}

	if validator.MinLength > 0 && len(strValue) < validator.MinLength {
		fail("MIN_LENGTH_VIOLATION", fmt.Sprintf("Field '%s' must be at least %d characters long", fieldName, validator.MinLength))
	}

	if validator.MaxLength > 0 && len(strValue) > validator.MaxLength {
		fail("MAX_LENGTH_VIOLATION", fmt.Sprintf("Field '%s' must be at most %d characters long", fieldName, validator.MaxLength))
	}

	if validator.Pattern != nil && !validator.Pattern.MatchString(strValue) {
		fail("PATTERN_MISMATCH", fmt.Sprintf("Field '%s' does not match required pattern", fieldName))
	}

	if len(validator.Options) > 0 {
		for _, option := range validator.Options {
			if strValue == option {
				return
			}
		}
		fail("INVALID_OPTION", fmt.Sprintf("Field '%s' must be one of: %s", fieldName, strings.Join(validator.Options, ", ")))
	}
}

// validateAndConvertType validates and converts value to the specified type
func (v *Validator) validateAndConvertType(fieldName, expectedType string, value interface{}) (interface{}, error) {
	switch expectedType {
	case "string":
		if str, ok := value.(string); ok {
			return str, nil
		}
		return fmt.Sprintf("%v", value), nil

	case "int":
		switch val := value.(type) {
		case int:
			return val, nil
		case float64:
			return int(val), nil
		case string:
			if intVal, err := strconv.Atoi(val); err == nil {
				return intVal, nil
			}
		}
		return nil, fmt.Errorf("field '%s' must be an integer", fieldName)

	case "bool":
		switch val := value.(type) {
		case bool:
			return val, nil
		case string:
			if boolVal, err := strconv.ParseBool(val); err == nil {
				return boolVal, nil
			}
		}
		return nil, fmt.Errorf("field '%s' must be a boolean", fieldName)

	case "values":
		return toStringMap(fieldName, value)

	default:
		return value, nil
	}
}

// toStringMap accepts the shapes substitution pairs arrive in: decoded JSON objects,
// string maps from the CLI and K=V lists.
func toStringMap(fieldName string, value interface{}) (map[string]string, error) {
	switch val := value.(type) {
	case map[string]string:
		return val, nil
	case map[string]interface{}:
		result := make(map[string]string, len(val))
		for k, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("field '%s': value of '%s' must be a string", fieldName, k)
			}
			result[k] = s
		}
		return result, nil
	case []string:
		result := make(map[string]string, len(val))
		for _, pair := range val {
			k, s, ok := strings.Cut(pair, "=")
			if !ok {
				return nil, fmt.Errorf("field '%s': '%s' is not a KEY=VALUE pair", fieldName, pair)
			}
			result[k] = s
		}
		return result, nil
	}
	return nil, fmt.Errorf("field '%s' must be an object of strings", fieldName)
}

// registerBuiltinSchemas registers common validation schemas
func (v *Validator) registerBuiltinSchemas() {
	userField := FieldValidator{
		Name:      "user",
		Type:      "string",
		MaxLength: 200,
		Pattern:   identifierPattern,
	}

	v.RegisterSchema(&Schema{
		Name: "list_placeholders",
		Fields: map[string]FieldValidator{
			"owner": {
				Name:      "owner",
				Type:      "string",
				MaxLength: 100,
				Pattern:   slugPattern,
			},
			"format": {
				Name:    "format",
				Type:    "string",
				Options: []string{"text", "table", "json", "yaml"},
			},
		},
	})

	v.RegisterSchema(&Schema{
		Name: "search_placeholders",
		Fields: map[string]FieldValidator{
			"query": {
				Name:      "query",
				Type:      "string",
				Required:  true,
				MinLength: 1,
				MaxLength: 1000,
			},
			"format": {
				Name:    "format",
				Type:    "string",
				Options: []string{"text", "table", "json", "yaml"},
			},
		},
	})

	v.RegisterSchema(&Schema{
		Name: "substitute",
		Fields: map[string]FieldValidator{
			"content": {
				Name:      "content",
				Type:      "string",
				Required:  true,
				MaxLength: MaxContentLength,
			},
			"user": userField,
			"values": {
				Name:   "values",
				Type:   "values",
				Custom: validatePairKeys,
			},
			"format": {
				Name:    "format",
				Type:    "string",
				Options: []string{"text", "json", "markdown"},
			},
		},
	})

	v.RegisterSchema(&Schema{
		Name: "resolve_values",
		Fields: map[string]FieldValidator{
			"user": userField,
		},
	})

	v.RegisterSchema(&Schema{
		Name: "lint",
		Fields: map[string]FieldValidator{
			"content": {
				Name:      "content",
				Type:      "string",
				Required:  true,
				MaxLength: MaxContentLength,
			},
		},
	})

	v.RegisterSchema(&Schema{
		Name: "get_user",
		Fields: map[string]FieldValidator{
			"id": {
				Name:      "id",
				Type:      "string",
				Required:  true,
				MinLength: 1,
				MaxLength: 200,
				Pattern:   identifierPattern,
			},
		},
	})

	v.RegisterSchema(&Schema{
		Name: "add_user",
		Fields: map[string]FieldValidator{
			"id": {
				Name:      "id",
				Type:      "string",
				MaxLength: 200,
				Pattern:   identifierPattern,
			},
			"display_name": {
				Name:      "display_name",
				Type:      "string",
				Required:  true,
				MinLength: 1,
				MaxLength: 500,
			},
			"first_name": {Name: "first_name", Type: "string", MaxLength: 200},
			"last_name":  {Name: "last_name", Type: "string", MaxLength: 200},
			"login": {
				Name:      "login",
				Type:      "string",
				MaxLength: 200,
				Pattern:   identifierPattern,
			},
			"email": {
				Name:      "email",
				Type:      "string",
				MaxLength: 320,
				Pattern:   emailPattern,
			},
		},
	})

	v.RegisterSchema(&Schema{
		Name: "tour",
		Fields: map[string]FieldValidator{
			"action": {
				Name:     "action",
				Type:     "string",
				Required: true,
				Options:  []string{"status", "reset", "dismiss"},
			},
			"user": userField,
		},
	})
}

// validatePairKeys accepts any literal key except the empty string, which would
// never match content.
func validatePairKeys(value interface{}) error {
	pairs, ok := value.(map[string]string)
	if !ok {
		return fmt.Errorf("values must be an object of strings")
	}
	if _, ok := pairs[""]; ok {
		return fmt.Errorf("value keys cannot be empty")
	}
	return nil
}

// ToAppError converts validation result to AppError
func (result *ValidationResult) ToAppError() *errors.AppError {
	if result.Valid {
		return nil
	}

	if len(result.Errors) == 0 {
		return errors.ValidationError("Validation failed")
	}

	firstError := result.Errors[0]
	appErr := errors.ValidationError(firstError.Message)

	var details []string
	for _, validationErr := range result.Errors {
		details = append(details, fmt.Sprintf("%s: %s", validationErr.Field, validationErr.Message))
	}

	appErr.WithDetails(strings.Join(details, "; "))

	appErr.WithContext("validation_errors", result.Errors)
	if len(result.Warnings) > 0 {
		appErr.WithContext("validation_warnings", result.Warnings)
	}

	return appErr
}

// GetValidatedData returns the validated and converted data
func (result *ValidationResult) GetValidatedData() map[string]interface{} {
	if !result.Valid {
		return nil
	}
	return result.Data
}
