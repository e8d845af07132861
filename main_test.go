package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionFlag(t *testing.T) {
	out, err := execute(t, "--version")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(out, version) {
		t.Errorf("Expected the version in %q", out)
	}
}

func TestInitUsesConfiguredRoot(t *testing.T) {
	home := t.TempDir()
	root := filepath.Join(home, "library")
	t.Setenv("HOME", home)
	t.Setenv("POCKET_PLACEHOLDERS_CONFIG", "")
	t.Setenv("POCKET_PLACEHOLDERS_ROOT_DIR", root)

	out, err := execute(t, "--init")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(out, root) {
		t.Errorf("Expected the library path in %q", out)
	}
	if _, err := os.Stat(filepath.Join(root, "users")); err != nil {
		t.Errorf("Expected the users directory to exist: %v", err)
	}
}

func TestMissingExplicitConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if _, err := execute(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "list"); err == nil {
		t.Error("Expected an error for a missing config file")
	}
}

func TestUnknownCommand(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("POCKET_PLACEHOLDERS_CONFIG", "")
	t.Setenv("POCKET_PLACEHOLDERS_ROOT_DIR", filepath.Join(home, "library"))

	if _, err := execute(t, "frobnicate", "--format", "json"); err == nil {
		t.Error("Expected an unknown command to fail")
	}
}
