package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestUserNotFoundErrorCategorization(t *testing.T) {
	err := UserNotFoundError("ghost")

	if err.Code != ErrCodeUserNotFound {
		t.Errorf("Expected code %s, got %s", ErrCodeUserNotFound, err.Code)
	}
	if err.Category != CategoryService || err.Severity != SeverityInfo {
		t.Errorf("Unexpected category/severity %s/%s", err.Category, err.Severity)
	}
	if err.Context["user_id"] != "ghost" {
		t.Errorf("Expected user_id context, got %v", err.Context)
	}
}

func TestGetAppErrorUnwrapsWrappedErrors(t *testing.T) {
	inner := NotFoundError("Pack 'x'")
	wrapped := fmt.Errorf("loading packs: %w", inner)

	if !IsAppError(wrapped) {
		t.Fatal("Expected wrapped AppError to be detected")
	}
	if got := GetAppError(wrapped); got != inner {
		t.Errorf("Expected the inner AppError back, got %v", got)
	}
	if !HasCode(wrapped, ErrCodeNotFound) {
		t.Error("Expected HasCode to see through wrapping")
	}

	plain := GetAppError(fmt.Errorf("boom"))
	if plain.Code != ErrCodeInternalError || plain.Cause == nil {
		t.Errorf("Expected plain errors to become INTERNAL_ERROR with cause, got %+v", plain)
	}
}

func TestCLIErrorHandlerFormat(t *testing.T) {
	h := NewCLIErrorHandler(false)

	if got := h.FormatError(ValidationError("bad input")); got != "WARNING: bad input" {
		t.Errorf("Unexpected format %q", got)
	}
	if got := h.FormatError(fmt.Errorf("disk on fire")); got != "CRITICAL: disk on fire" {
		t.Errorf("Expected plain cause to surface, got %q", got)
	}
	if h.HandleError(nil) != nil {
		t.Error("Expected nil error to stay nil")
	}
}

func TestWriteHTTPError(t *testing.T) {
	h := NewHTTPErrorHandler(true)
	rec := httptest.NewRecorder()

	h.WriteHTTPError(rec, UserNotFoundError("ghost"))

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}

	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string                 `json:"code"`
			Context map[string]interface{} `json:"context"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON body: %v", err)
	}
	if body.Success || body.Error.Code != string(ErrCodeUserNotFound) {
		t.Errorf("Unexpected body %s", rec.Body.String())
	}
	if body.Error.Context["user_id"] != "ghost" {
		t.Errorf("Expected context in detailed response, got %v", body.Error.Context)
	}
}

func TestHTTPStatusCodes(t *testing.T) {
	h := NewHTTPErrorHandler(false)
	tests := []struct {
		err  *AppError
		want int
	}{
		{InvalidTokenError("$X"), http.StatusBadRequest},
		{AlreadyExistsError("User"), http.StatusConflict},
		{NewAppError(ErrCodeRateLimited, "slow down"), http.StatusTooManyRequests},
		{InternalError("oops"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := h.StatusCode(tt.err); got != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.err.Code, tt.want, got)
		}
	}
}

func TestTUIErrorHandlerLogsToFile(t *testing.T) {
	dir := t.TempDir()
	h := NewTUIErrorHandler(true, dir)

	h.HandleError(StorageError("save user", fmt.Errorf("read-only file system")))

	data, err := os.ReadFile(filepath.Join(dir, "logs", "error.log"))
	if err != nil {
		t.Fatalf("Expected error log to be written: %v", err)
	}
	if !strings.Contains(string(data), "STORAGE_FAILURE") || !strings.Contains(string(data), "read-only file system") {
		t.Errorf("Unexpected log contents: %s", data)
	}
}
