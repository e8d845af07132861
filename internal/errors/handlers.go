// Package errors/handlers provides interface-specific error handling implementations.
//
// ERROR FLOW:
// 1. Core or storage code generates an AppError (or a plain error that gets wrapped)
// 2. The interface-specific handler formats it for display or response
// 3. The handler logs it for debugging
//
// USAGE PATTERNS:
// - CLI: create a CLIErrorHandler and use HandleError()
// - HTTP: use WriteHTTPError() for direct response writing
// - TUI: use FormatError() and GetErrorStyle(); errors are appended to logs/error.log
package errors

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
)

// ErrorHandler provides interface-specific error handling
type ErrorHandler interface {
	HandleError(err error) error
	FormatError(err error) string
}

// CLIErrorHandler handles errors for CLI interface
type CLIErrorHandler struct {
	Verbose bool
}

// NewCLIErrorHandler creates a new CLI error handler
func NewCLIErrorHandler(verbose bool) *CLIErrorHandler {
	return &CLIErrorHandler{Verbose: verbose}
}

// HandleError handles errors for CLI interface
func (h *CLIErrorHandler) HandleError(err error) error {
	if err == nil {
		return nil
	}
	appErr := GetAppError(err)

	if h.Verbose {
		log.Printf("[%s] %s: %s", appErr.Severity, appErr.Code, appErr.Error())
		if appErr.Cause != nil {
			log.Printf("Caused by: %v", appErr.Cause)
		}
	}

	return fmt.Errorf("%s", h.FormatError(appErr))
}

// FormatError formats an error for CLI display
func (h *CLIErrorHandler) FormatError(err error) string {
	appErr := GetAppError(err)

	message := appErr.Message
	if appErr.Code == ErrCodeInternalError && appErr.Cause != nil {
		message = appErr.Cause.Error()
	}
	if h.Verbose && appErr.Details != "" {
		message = fmt.Sprintf("%s (%s)", message, appErr.Details)
	}

	switch appErr.Severity {
	case SeverityCritical:
		return fmt.Sprintf("CRITICAL: %s", message)
	case SeverityError:
		return fmt.Sprintf("ERROR: %s", message)
	case SeverityWarning:
		return fmt.Sprintf("WARNING: %s", message)
	case SeverityInfo:
		return fmt.Sprintf("INFO: %s", message)
	default:
		return message
	}
}

// HTTPErrorHandler handles errors for HTTP interface
type HTTPErrorHandler struct {
	IncludeDetails bool
}

// NewHTTPErrorHandler creates a new HTTP error handler
func NewHTTPErrorHandler(includeDetails bool) *HTTPErrorHandler {
	return &HTTPErrorHandler{IncludeDetails: includeDetails}
}

// HandleError handles errors for HTTP interface
func (h *HTTPErrorHandler) HandleError(err error) error {
	appErr := GetAppError(err)

	log.Printf("[HTTP] [%s] %s: %s", appErr.Severity, appErr.Code, appErr.Error())
	if appErr.Cause != nil {
		log.Printf("Caused by: %v", appErr.Cause)
	}

	return appErr
}

// FormatError formats an error for HTTP response
func (h *HTTPErrorHandler) FormatError(err error) string {
	appErr := GetAppError(err)

	body := map[string]interface{}{
		"code":      appErr.Code,
		"message":   appErr.Message,
		"timestamp": appErr.Timestamp,
	}
	if h.IncludeDetails && appErr.Details != "" {
		body["details"] = appErr.Details
	}
	if h.IncludeDetails && appErr.Context != nil {
		body["context"] = appErr.Context
	}

	jsonBytes, _ := json.Marshal(map[string]interface{}{
		"success": false,
		"error":   body,
	})
	return string(jsonBytes)
}

// WriteHTTPError writes an error response to HTTP
func (h *HTTPErrorHandler) WriteHTTPError(w http.ResponseWriter, err error) {
	appErr := GetAppError(err)

	h.HandleError(appErr)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(h.StatusCode(appErr))
	w.Write([]byte(h.FormatError(appErr)))
}

// StatusCode maps error codes to HTTP status codes
func (h *HTTPErrorHandler) StatusCode(appErr *AppError) int {
	switch appErr.Code {
	case ErrCodeValidation, ErrCodeInvalidInput, ErrCodeMissingField, ErrCodeInvalidFormat, ErrCodeInvalidToken:
		return http.StatusBadRequest
	case ErrCodeNotFound, ErrCodeUserNotFound, ErrCodeFileNotFound, ErrCodeCommandNotFound:
		return http.StatusNotFound
	case ErrCodeAlreadyExists:
		return http.StatusConflict
	case ErrCodeInvalidCommand:
		return http.StatusMethodNotAllowed
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeNotImplemented:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// TUIErrorHandler handles errors for TUI interface
type TUIErrorHandler struct {
	ShowDetails bool
	LogDir      string
}

// NewTUIErrorHandler creates a new TUI error handler logging below logDir
func NewTUIErrorHandler(showDetails bool, logDir string) *TUIErrorHandler {
	return &TUIErrorHandler{ShowDetails: showDetails, LogDir: logDir}
}

// HandleError handles errors for TUI interface
func (h *TUIErrorHandler) HandleError(err error) error {
	appErr := GetAppError(err)
	logToFile(h.LogDir, appErr)
	return appErr
}

// FormatError formats an error for TUI display
func (h *TUIErrorHandler) FormatError(err error) string {
	appErr := GetAppError(err)

	message := appErr.Message
	if h.ShowDetails && appErr.Details != "" {
		message = fmt.Sprintf("%s\nDetails: %s", message, appErr.Details)
	}
	return message
}

// GetErrorStyle returns an icon and color for TUI display based on error severity
func (h *TUIErrorHandler) GetErrorStyle(err error) (string, string) {
	switch GetAppError(err).Severity {
	case SeverityCritical:
		return "!!", "#ff0000"
	case SeverityWarning:
		return "!", "#feca57"
	case SeverityInfo:
		return "i", "#48cae4"
	default:
		return "x", "#ff6b6b"
	}
}

// logToFile appends the error to <dir>/logs/error.log, silently giving up on failure
func logToFile(dir string, appErr *AppError) {
	if dir == "" {
		return
	}
	logDir := filepath.Join(dir, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return
	}

	file, err := os.OpenFile(filepath.Join(logDir, "error.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer file.Close()

	logger := log.New(file, "", 0)
	entry := fmt.Sprintf("[%s] [%s] [%s] %s",
		appErr.Timestamp.Format("2006-01-02 15:04:05"),
		appErr.Severity,
		appErr.Category,
		appErr.Error())
	if appErr.Cause != nil {
		entry += fmt.Sprintf(" | Cause: %v", appErr.Cause)
	}
	if appErr.Context != nil {
		contextJSON, _ := json.Marshal(appErr.Context)
		entry += fmt.Sprintf(" | Context: %s", string(contextJSON))
	}
	logger.Println(entry)
}
