package validation

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dpshade/pocket-placeholders/internal/errors"
)

func TestValidateListPlaceholders(t *testing.T) {
	v := NewValidator()

	result := v.Validate("list_placeholders", map[string]interface{}{"owner": "acme-crm", "format": "json"})
	if !result.Valid {
		t.Fatalf("Expected valid result, got %+v", result.Errors)
	}

	result = v.Validate("list_placeholders", map[string]interface{}{"owner": "Acme CRM", "format": "xml"})
	if result.Valid {
		t.Fatal("Expected invalid result")
	}
	if len(result.Errors) != 2 {
		t.Fatalf("Expected 2 errors, got %+v", result.Errors)
	}
	if result.Errors[0].Field != "format" || result.Errors[0].Code != "INVALID_OPTION" {
		t.Errorf("Expected format error first, got %+v", result.Errors[0])
	}
	if result.Errors[1].Field != "owner" || result.Errors[1].Code != "PATTERN_MISMATCH" {
		t.Errorf("Expected owner pattern error, got %+v", result.Errors[1])
	}
}

func TestValidateSubstitute(t *testing.T) {
	v := NewValidator()

	result := v.Validate("substitute", map[string]interface{}{
		"content": "Hi ${NAME}",
		"values":  map[string]interface{}{"NAME": "Ada", "${CITY}": "London"},
		"user":    "",
	})
	if !result.Valid {
		t.Fatalf("Expected valid result, got %+v", result.Errors)
	}
	values, ok := result.Data["values"].(map[string]string)
	if !ok || values["NAME"] != "Ada" {
		t.Errorf("Expected converted values, got %#v", result.Data["values"])
	}

	result = v.Validate("substitute", map[string]interface{}{
		"content": "Dear NAME, ${site}",
		"values":  map[string]interface{}{"${site}": "blog", "not a token": "x"},
	})
	if !result.Valid {
		t.Errorf("Expected literal keys to be accepted, got %+v", result.Errors)
	}

	result = v.Validate("substitute", map[string]interface{}{
		"content": "x",
		"values":  map[string]interface{}{"": "x"},
	})
	if result.Valid || result.Errors[0].Code != "CUSTOM_VALIDATION_FAILED" {
		t.Errorf("Expected empty key to be rejected, got %+v", result.Errors)
	}

	result = v.Validate("substitute", map[string]interface{}{"values": []string{"A=1"}})
	if result.Valid || result.Errors[0].Code != "REQUIRED_FIELD_MISSING" {
		t.Errorf("Expected missing content, got %+v", result.Errors)
	}
}

func TestValidateUnknownSchema(t *testing.T) {
	result := NewValidator().Validate("nope", nil)
	if result.Valid || result.Errors[0].Code != "SCHEMA_NOT_FOUND" {
		t.Errorf("Expected schema error, got %+v", result)
	}
}

func TestValidateWarnsOnUnknownFields(t *testing.T) {
	result := NewValidator().Validate("lint", map[string]interface{}{"content": "x", "extra": 1})
	if !result.Valid {
		t.Fatal("Unknown fields must not fail validation")
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Field != "extra" {
		t.Errorf("Expected a warning for extra, got %+v", result.Warnings)
	}
}

func TestToAppError(t *testing.T) {
	result := NewValidator().Validate("get_user", map[string]interface{}{"id": "a/b"})
	appErr := result.ToAppError()
	if appErr == nil || appErr.Code != errors.ErrCodeValidation {
		t.Fatalf("Expected validation AppError, got %v", appErr)
	}
	if !strings.Contains(appErr.Details, "id:") {
		t.Errorf("Expected details to name the field, got %q", appErr.Details)
	}
}

func TestParsePairs(t *testing.T) {
	values, err := ParsePairs([]string{"CITY=London", "${NAME}=Ada=Byron"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if values["CITY"] != "London" || values["${NAME}"] != "Ada=Byron" {
		t.Errorf("Unexpected values %v", values)
	}

	if _, err := ParsePairs([]string{"novalue"}); !errors.HasCode(err, errors.ErrCodeValidation) {
		t.Errorf("Expected validation error, got %v", err)
	}
	values, err = ParsePairs([]string{"${site}=blog", "lower=x"})
	if err != nil || values["${site}"] != "blog" || values["lower"] != "x" {
		t.Errorf("Expected literal keys to pass through, got %v, %v", values, err)
	}
	if _, err := ParsePairs([]string{"=x"}); !errors.HasCode(err, errors.ErrCodeInvalidToken) {
		t.Errorf("Expected invalid token error for empty key, got %v", err)
	}
}

func TestSanitizeAndIdentifier(t *testing.T) {
	if got := SanitizeString("  a\x00b\x07\tc\n "); got != "ab\tc" {
		t.Errorf("Unexpected sanitized string %q", got)
	}
	if err := ValidateIdentifier("ada_lovelace-1"); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if err := ValidateIdentifier("../ada"); err == nil {
		t.Error("Expected error for path-like identifier")
	}
}

func TestValidateRequestMiddleware(t *testing.T) {
	rv := NewRequestValidator()

	var seen map[string]interface{}
	var body string
	handler := rv.ValidateRequest("substitute")(func(w http.ResponseWriter, r *http.Request) {
		seen = ValidatedData(r)
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		w.WriteHeader(http.StatusOK)
	})

	payload := `{"content":"Hello ${USER_FIRST_NAME}","values":{"CITY":"London"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/substitute?format=json", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if seen["format"] != "json" || seen["content"] != "Hello ${USER_FIRST_NAME}" {
		t.Errorf("Unexpected validated data %v", seen)
	}
	if body != payload {
		t.Errorf("Expected the body to be readable by the handler, got %q", body)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/substitute", strings.NewReader(`{"content":`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed JSON, got %d", rec.Code)
	}
}
