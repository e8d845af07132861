package clipboard

import (
	stderrors "errors"
	"runtime"
	"strings"
	"testing"

	"github.com/dpshade/pocket-placeholders/internal/errors"
)

func stubClipboard(t *testing.T, isUnsupported bool, write func(string) error) {
	t.Helper()
	origWrite, origUnsupported := writeAll, unsupported
	writeAll = write
	unsupported = func() bool { return isUnsupported }
	t.Cleanup(func() {
		writeAll, unsupported = origWrite, origUnsupported
	})
}

func TestClipboardError(t *testing.T) {
	err := NewClipboardError()

	if err.OS != runtime.GOOS {
		t.Errorf("Expected OS to be %s, got %s", runtime.GOOS, err.OS)
	}
	if err.Error() == "" {
		t.Error("Error message should not be empty")
	}
}

func TestCopyWithFallbackSuccess(t *testing.T) {
	var copied string
	stubClipboard(t, false, func(text string) error {
		copied = text
		return nil
	})

	statusMsg, err := CopyWithFallback("22 Jul, 2014")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if statusMsg != "Copied to clipboard!" {
		t.Errorf("Expected 'Copied to clipboard!', got '%s'", statusMsg)
	}
	if copied != "22 Jul, 2014" {
		t.Errorf("Expected text to reach the clipboard, got %q", copied)
	}
	if !IsClipboardAvailable() {
		t.Error("Expected clipboard to be available")
	}
}

func TestCopyWithFallbackUnsupported(t *testing.T) {
	stubClipboard(t, true, func(string) error {
		t.Fatal("write must not be attempted")
		return nil
	})

	_, err := CopyWithFallback("text")
	if !errors.HasCode(err, errors.ErrCodeClipboardUnavailable) {
		t.Fatalf("Expected CLIPBOARD_UNAVAILABLE, got %v", err)
	}
	var clipErr *ClipboardError
	if !stderrors.As(err, &clipErr) {
		t.Error("Expected the ClipboardError to be wrapped")
	}
	if IsClipboardAvailable() {
		t.Error("Expected clipboard to be unavailable")
	}
}

func TestCopyWithFallbackWriteFailure(t *testing.T) {
	stubClipboard(t, false, func(string) error {
		return stderrors.New("xclip exited 1")
	})

	_, err := CopyWithFallback("text")
	if !errors.HasCode(err, errors.ErrCodeClipboardUnavailable) {
		t.Fatalf("Expected CLIPBOARD_UNAVAILABLE, got %v", err)
	}
	if !strings.Contains(err.Error(), "xclip exited 1") {
		t.Errorf("Expected the cause in the message, got %v", err)
	}
}

func TestGetInstallInstructions(t *testing.T) {
	instructions := GetInstallInstructions()

	if instructions == "" {
		t.Error("Install instructions should not be empty")
	}
	if runtime.GOOS == "linux" && !strings.Contains(instructions, "xclip") {
		t.Error("Linux instructions should mention xclip")
	}
}
