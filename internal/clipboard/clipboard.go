// Package clipboard copies rendered content to the system clipboard.
package clipboard

import (
	stderrors "errors"
	"fmt"
	"runtime"

	"github.com/atotto/clipboard"

	"github.com/dpshade/pocket-placeholders/internal/errors"
)

// Swapped out by tests.
var (
	writeAll    = clipboard.WriteAll
	unsupported = func() bool { return clipboard.Unsupported }
)

// ClipboardError represents an error when no clipboard utility is available
type ClipboardError struct {
	OS      string
	Message string
}

func (e *ClipboardError) Error() string {
	return e.Message
}

// NewClipboardError creates a new ClipboardError with helpful installation instructions
func NewClipboardError() *ClipboardError {
	return &ClipboardError{
		OS:      runtime.GOOS,
		Message: "no clipboard utility found. " + GetInstallInstructions(),
	}
}

// Copy copies text to the system clipboard
func Copy(text string) error {
	if unsupported() {
		return NewClipboardError()
	}
	return writeAll(text)
}

// CopyWithFallback attempts to copy to clipboard and returns a status message.
// Failures are reported as CLIPBOARD_UNAVAILABLE AppErrors.
func CopyWithFallback(text string) (string, error) {
	if err := Copy(text); err != nil {
		var clipErr *ClipboardError
		if stderrors.As(err, &clipErr) {
			return "", errors.Wrap(err, errors.ErrCodeClipboardUnavailable, "Clipboard unavailable").
				WithDetails(clipErr.Message)
		}
		return "", errors.Wrap(err, errors.ErrCodeClipboardUnavailable, "failed to copy to clipboard").
			WithDetails(err.Error())
	}
	return "Copied to clipboard!", nil
}

// IsClipboardAvailable checks if clipboard functionality is available
func IsClipboardAvailable() bool {
	return !unsupported()
}

// GetInstallInstructions returns installation instructions for clipboard utilities
func GetInstallInstructions() string {
	switch runtime.GOOS {
	case "linux":
		return "Install a clipboard utility:\n" +
			"  • Ubuntu/Debian: sudo apt install xclip\n" +
			"  • Fedora/RHEL: sudo dnf install xclip\n" +
			"  • Arch: sudo pacman -S xclip\n" +
			"  • For Wayland: install wl-clipboard"
	case "darwin":
		return "pbcopy should be available by default on macOS"
	case "windows":
		return "clip should be available by default on Windows"
	default:
		return fmt.Sprintf("Clipboard not supported on %s", runtime.GOOS)
	}
}
