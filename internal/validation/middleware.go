// Package validation/middleware provides HTTP request validation middleware.
//
// HTTP VALIDATION FLOW:
// 1. HTTP request arrives at middleware-wrapped handler
// 2. Middleware extracts data from query params, path values and the JSON body
// 3. Data is validated against the specified schema
// 4. Invalid requests return 400 Bad Request with validation details
// 5. Valid requests proceed; handlers read the converted data with ValidatedData()
//
// EXTRACTION PATTERNS:
// - Query parameters: single values become strings, repeated values []string
// - Path parameters: {id} from routes such as /api/v1/users/{id}
// - JSON body: parsed and merged over query/path parameters, then restored for the handler
package validation

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/dpshade/pocket-placeholders/internal/errors"
)

// MaxBodyBytes limits the JSON bodies the middleware will read
const MaxBodyBytes = MaxContentLength + 64*1024

type validatedDataKey struct{}

// RequestValidator provides middleware for HTTP request validation
type RequestValidator struct {
	validator *Validator
}

// NewRequestValidator creates a new request validator middleware
func NewRequestValidator() *RequestValidator {
	return &RequestValidator{
		validator: NewValidator(),
	}
}

// ValidateRequest middleware validates HTTP requests based on schema
func (rv *RequestValidator) ValidateRequest(schemaName string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			data, err := rv.extractRequestData(r)
			if err != nil {
				rv.writeValidationError(w, errors.GetAppError(err))
				return
			}

			result := rv.validator.Validate(schemaName, data)
			if !result.Valid {
				rv.writeValidationError(w, result.ToAppError())
				return
			}

			ctx := context.WithValue(r.Context(), validatedDataKey{}, result.GetValidatedData())
			next(w, r.WithContext(ctx))
		}
	}
}

// ValidatedData returns the data ValidateRequest stored for r, or nil
func ValidatedData(r *http.Request) map[string]interface{} {
	data, _ := r.Context().Value(validatedDataKey{}).(map[string]interface{})
	return data
}

func (rv *RequestValidator) extractRequestData(r *http.Request) (map[string]interface{}, error) {
	data := make(map[string]interface{})

	for key, values := range r.URL.Query() {
		if len(values) == 1 {
			data[key] = values[0]
		} else if len(values) > 1 {
			data[key] = values
		}
	}

	if id := r.PathValue("id"); id != "" {
		data["id"] = id
	}

	if r.Method == http.MethodPost || r.Method == http.MethodPut {
		if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
			bodyData, err := rv.extractJSONBody(r)
			if err != nil {
				return nil, err
			}
			for key, value := range bodyData {
				data[key] = value
			}
		}
	}

	return data, nil
}

// extractJSONBody decodes the JSON body and puts the bytes back for the handler
func (rv *RequestValidator) extractJSONBody(r *http.Request) (map[string]interface{}, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes+1))
	if err != nil {
		return nil, errors.ValidationError("Failed to read request body")
	}
	if len(body) > MaxBodyBytes {
		return nil, errors.ValidationError("Request body too large")
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	if len(body) == 0 {
		return make(map[string]interface{}), nil
	}

	var data map[string]interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, errors.ValidationError("Invalid JSON in request body")
	}

	return data, nil
}

func (rv *RequestValidator) writeValidationError(w http.ResponseWriter, err *errors.AppError) {
	errorHandler := errors.NewHTTPErrorHandler(true)
	errorHandler.WriteHTTPError(w, err)
}

// SanitizeString removes null bytes and control characters, keeping newlines and tabs
func SanitizeString(input string) string {
	var result strings.Builder
	for _, r := range input {
		if r == '\n' || r == '\t' || r == '\r' || r >= 32 {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateIdentifier validates that a string is a valid identifier
func ValidateIdentifier(id string) error {
	if id == "" {
		return errors.ValidationError("Identifier cannot be empty")
	}

	if len(id) > 200 {
		return errors.ValidationError("Identifier too long (max 200 characters)")
	}

	if !identifierPattern.MatchString(id) {
		return errors.ValidationError("Identifier contains invalid characters (only alphanumeric, hyphens, and underscores allowed)")
	}

	return nil
}

// ValidatePairKey validates a substitution key. Keys are replaced literally, so only
// the empty key is refused.
func ValidatePairKey(key string) error {
	if err := validatePairKeys(map[string]string{key: ""}); err != nil {
		return errors.InvalidTokenError(key)
	}
	return nil
}

// ParsePairs turns K=V strings into a map, reporting the first malformed pair
func ParsePairs(pairs []string) (map[string]string, error) {
	values, err := toStringMap("var", pairs)
	if err != nil {
		return nil, errors.ValidationError(err.Error())
	}
	for k := range values {
		if err := ValidatePairKey(k); err != nil {
			return nil, err
		}
	}
	return values, nil
}

// GetValidator returns the underlying validator instance
func (rv *RequestValidator) GetValidator() *Validator {
	return rv.validator
}
