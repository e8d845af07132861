package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dpshade/pocket-placeholders/internal/models"
	"github.com/dpshade/pocket-placeholders/internal/service"
	"github.com/dpshade/pocket-placeholders/internal/session"
)

type testCLI struct {
	*CLI
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	stdin  *bytes.Buffer
	dir    string
}

func newTestCLI(t *testing.T) *testCLI {
	t.Helper()
	dir := t.TempDir()

	packsDir := filepath.Join(dir, "packs")
	if err := os.MkdirAll(packsDir, 0755); err != nil {
		t.Fatal(err)
	}
	pack := "owner: Acme CRM\ndescription: CRM fields\nplaceholders:\n  - token: COMPANY_NAME\n    label: Company name\n    value: Acme Inc.\n"
	if err := os.WriteFile(filepath.Join(packsDir, "crm.yaml"), []byte(pack), 0644); err != nil {
		t.Fatal(err)
	}

	svc, err := service.New(service.Options{
		RootDir:      dir,
		PacksEnabled: true,
		Clock:        func() time.Time { return time.Date(2014, time.July, 22, 9, 5, 7, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}
	if err := svc.InitLibrary(); err != nil {
		t.Fatal(err)
	}

	tc := &testCLI{
		CLI:    NewCLI(svc),
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		stdin:  &bytes.Buffer{},
		dir:    dir,
	}
	tc.WithIO(tc.stdin, tc.stdout, tc.stderr)
	tc.clipboard = func(string) (string, error) { return "Copied to clipboard!", nil }

	if err := tc.ExecuteCommand([]string{"users", "add", "ada", "--display-name", "Countess",
		"--first-name", "Ada", "--last-name", "Lovelace", "--email", "ada@example.com"}); err != nil {
		t.Fatalf("Failed to add user: %v", err)
	}
	tc.stdout.Reset()
	return tc
}

func TestListFormats(t *testing.T) {
	c := newTestCLI(t)

	if err := c.ExecuteCommand([]string{"list"}); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	out := c.stdout.String()
	if !strings.HasPrefix(out, "Acme CRM\n") || !strings.Contains(out, "Core\n") {
		t.Errorf("Expected placeholders grouped by owner, got:\n%s", out)
	}
	if strings.Index(out, "Acme CRM") > strings.Index(out, "Core") {
		t.Error("Expected pack owners before Core")
	}

	c.stdout.Reset()
	if err := c.ExecuteCommand([]string{"ls", "--owner", "core", "--format", "json"}); err != nil {
		t.Fatalf("list json failed: %v", err)
	}
	var list []models.Placeholder
	if err := json.Unmarshal(c.stdout.Bytes(), &list); err != nil {
		t.Fatalf("Output is not JSON: %v", err)
	}
	if len(list) != 6 {
		t.Errorf("Expected 6 Core placeholders, got %d", len(list))
	}

	c.stdout.Reset()
	if err := c.ExecuteCommand([]string{"list", "--owner", "Acme CRM", "--format", "yaml"}); err != nil {
		t.Fatalf("list yaml failed: %v", err)
	}
	var fromYAML []models.Placeholder
	if err := yaml.Unmarshal(c.stdout.Bytes(), &fromYAML); err != nil {
		t.Fatalf("Output is not YAML: %v", err)
	}
	if len(fromYAML) != 1 || fromYAML[0].Token != "${COMPANY_NAME}" {
		t.Errorf("Unexpected YAML output %+v", fromYAML)
	}

	c.stdout.Reset()
	if err := c.ExecuteCommand([]string{"list", "--format", "table"}); err != nil {
		t.Fatalf("list table failed: %v", err)
	}
	if !strings.HasPrefix(c.stdout.String(), "TOKEN") {
		t.Errorf("Expected a table header, got:\n%s", c.stdout.String())
	}

	if err := c.ExecuteCommand([]string{"list", "--format", "xml"}); err == nil {
		t.Error("Expected an error for an unknown format")
	}
	if err := c.ExecuteCommand([]string{"list", "--owner", "nobody"}); err == nil {
		t.Error("Expected an error for an unknown owner")
	}
}

func TestRender(t *testing.T) {
	c := newTestCLI(t)

	err := c.ExecuteCommand([]string{"render", "--user", "ada", "--var", "CITY=London",
		"Hi ${USER_FIRST_NAME} from ${COMPANY_NAME} in ${CITY}, ${DATE}"})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	want := "Hi Ada from Acme Inc. in London, 22 Jul, 2014\n"
	if c.stdout.String() != want {
		t.Errorf("Expected %q, got %q", want, c.stdout.String())
	}

	c = newTestCLI(t)
	if err := c.ExecuteCommand([]string{"render", "--var", "${site}=blog", "--var", "dear name=Bob", "dear name, ${site}"}); err != nil {
		t.Fatalf("render with literal keys failed: %v", err)
	}
	if c.stdout.String() != "Bob, blog\n" {
		t.Errorf("Expected literal keys to be replaced, got %q", c.stdout.String())
	}
}

func TestRenderFromStdinAndFile(t *testing.T) {
	c := newTestCLI(t)

	c.stdin.WriteString("Mail ${USER_EMAIL}\n")
	if err := c.ExecuteCommand([]string{"substitute", "--user", "ada"}); err != nil {
		t.Fatalf("render from stdin failed: %v", err)
	}
	if c.stdout.String() != "Mail ada@example.com\n" {
		t.Errorf("Unexpected output %q", c.stdout.String())
	}

	path := filepath.Join(c.dir, "note.txt")
	if err := os.WriteFile(path, []byte("${USER_LAST_NAME}"), 0644); err != nil {
		t.Fatal(err)
	}
	c.stdout.Reset()
	if err := c.ExecuteCommand([]string{"render", "--user", "ada", "--file", path, "--format", "json"}); err != nil {
		t.Fatalf("render from file failed: %v", err)
	}
	var result struct {
		Content string `json:"content"`
		User    string `json:"user"`
	}
	if err := json.Unmarshal(c.stdout.Bytes(), &result); err != nil {
		t.Fatalf("Output is not JSON: %v\n%s", err, c.stdout.String())
	}
	if result.Content != "Lovelace" || result.User != "ada" {
		t.Errorf("Unexpected result %+v", result)
	}
}

func TestRenderUsesSessionUser(t *testing.T) {
	c := newTestCLI(t)
	c.WithContext(session.WithUser(context.Background(), "ada"))

	if err := c.ExecuteCommand([]string{"render", "${USER_DISPLAY_NAME}"}); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if c.stdout.String() != "Countess\n" {
		t.Errorf("Expected the session user's display name, got %q", c.stdout.String())
	}
}

func TestRenderWithoutUserKeepsTokens(t *testing.T) {
	c := newTestCLI(t)

	if err := c.ExecuteCommand([]string{"render", "${USER_EMAIL} ${USER_EMIAL}"}); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if c.stdout.String() != "${USER_EMAIL} ${USER_EMIAL}\n" {
		t.Errorf("Expected content unchanged, got %q", c.stdout.String())
	}
	if !strings.Contains(c.stderr.String(), "did you mean ${USER_EMAIL}?") {
		t.Errorf("Expected a suggestion on stderr, got %q", c.stderr.String())
	}
}

func TestRenderErrors(t *testing.T) {
	c := newTestCLI(t)

	err := c.ExecuteCommand([]string{"render", "--user", "ghost", "${DATE}"})
	if err == nil || !strings.Contains(err.Error(), "User 'ghost' not found") {
		t.Errorf("Expected user not found, got %v", err)
	}

	if err := c.ExecuteCommand([]string{"render", "--var", "no-equals", "x"}); err == nil {
		t.Error("Expected an error for a malformed --var")
	}

	if err := c.ExecuteCommand([]string{"render", "--var", "=1", "x"}); err == nil {
		t.Error("Expected an error for an empty key")
	}
}

func TestCopy(t *testing.T) {
	c := newTestCLI(t)

	var copied string
	c.clipboard = func(text string) (string, error) {
		copied = text
		return "Copied to clipboard!", nil
	}

	if err := c.ExecuteCommand([]string{"copy", "--user", "ada", "${USER_FIRST_NAME}"}); err != nil {
		t.Fatalf("copy failed: %v", err)
	}
	if copied != "Ada" {
		t.Errorf("Expected 'Ada' on the clipboard, got %q", copied)
	}
	if !strings.Contains(c.stdout.String(), "Copied to clipboard!") {
		t.Errorf("Expected a status message, got %q", c.stdout.String())
	}

	if err := c.ExecuteCommand([]string{"copy", "--format", "markdown", "x"}); err == nil {
		t.Error("Expected markdown copy to be rejected")
	}
}

func TestValuesAndLint(t *testing.T) {
	c := newTestCLI(t)

	if err := c.ExecuteCommand([]string{"values"}); err != nil {
		t.Fatalf("values failed: %v", err)
	}
	if !strings.Contains(c.stdout.String(), "${COMPANY_NAME}  Acme Inc.") {
		t.Errorf("Expected pack values without a user, got:\n%s", c.stdout.String())
	}

	c.stdout.Reset()
	if err := c.ExecuteCommand([]string{"values", "--user", "ada", "--format", "json"}); err != nil {
		t.Fatalf("values json failed: %v", err)
	}
	var values map[string]string
	if err := json.Unmarshal(c.stdout.Bytes(), &values); err != nil {
		t.Fatal(err)
	}
	if values["${DATE_TIME}"] != "22 Jul, 2014 09:05:07" || values["${USER_EMAIL}"] != "ada@example.com" {
		t.Errorf("Unexpected values %v", values)
	}

	c.stdout.Reset()
	if err := c.ExecuteCommand([]string{"lint", "${DATE} ${DATE_TIME}"}); err != nil {
		t.Errorf("Expected clean lint, got %v", err)
	}

	c.stdout.Reset()
	err := c.ExecuteCommand([]string{"lint", "${DAET}"})
	if err == nil {
		t.Error("Expected lint to fail on unknown tokens")
	}
	if !strings.Contains(c.stdout.String(), "did you mean ${DATE}?") {
		t.Errorf("Expected a suggestion, got %q", c.stdout.String())
	}
}

func TestUsers(t *testing.T) {
	c := newTestCLI(t)

	if err := c.ExecuteCommand([]string{"users", "show", "ada"}); err != nil {
		t.Fatalf("users show failed: %v", err)
	}
	if !strings.Contains(c.stdout.String(), "Email: ada@example.com") {
		t.Errorf("Unexpected user output:\n%s", c.stdout.String())
	}

	if err := c.ExecuteCommand([]string{"users", "add", "ada", "--display-name", "Again"}); err == nil {
		t.Error("Expected a duplicate user to be rejected")
	}
	if err := c.ExecuteCommand([]string{"users", "add", "--email", "x@example.com"}); err == nil {
		t.Error("Expected a missing display name to be rejected")
	}
	if err := c.ExecuteCommand([]string{"users", "add", "--bogus", "x"}); err == nil {
		t.Error("Expected an unknown flag to be rejected")
	}

	c.stdout.Reset()
	if err := c.ExecuteCommand([]string{"users", "add", "--display-name", "Generated"}); err != nil {
		t.Fatalf("users add without id failed: %v", err)
	}

	c.stdout.Reset()
	if err := c.ExecuteCommand([]string{"users", "list", "--format", "json"}); err != nil {
		t.Fatal(err)
	}
	var users []models.User
	if err := json.Unmarshal(c.stdout.Bytes(), &users); err != nil {
		t.Fatal(err)
	}
	if len(users) != 2 {
		t.Errorf("Expected 2 users, got %d", len(users))
	}

	if err := c.ExecuteCommand([]string{"users", "delete", "ada"}); err != nil {
		t.Fatalf("users delete failed: %v", err)
	}
	if err := c.ExecuteCommand([]string{"users", "show", "ada"}); err == nil {
		t.Error("Expected deleted user to be gone")
	}
}

func TestTour(t *testing.T) {
	c := newTestCLI(t)

	steps := []struct {
		args []string
		want string
	}{
		{[]string{"tour", "--user", "ada"}, "Welcome tour pending"},
		{[]string{"tour", "dismiss", "--user", "ada"}, "Welcome tour dismissed"},
		{[]string{"tour", "status", "--user", "ada"}, "Welcome tour already dismissed"},
		{[]string{"tour", "reset", "--user", "ada"}, "Welcome tour will be shown again"},
		{[]string{"tour", "status", "--user", "ada"}, "Welcome tour pending"},
	}
	for _, step := range steps {
		c.stdout.Reset()
		if err := c.ExecuteCommand(step.args); err != nil {
			t.Fatalf("%v failed: %v", step.args, err)
		}
		if got := strings.TrimSpace(c.stdout.String()); got != step.want {
			t.Errorf("%v: expected %q, got %q", step.args, step.want, got)
		}
	}

	if err := c.ExecuteCommand([]string{"tour", "explode"}); err == nil {
		t.Error("Expected an unknown tour action to be rejected")
	}
}

func TestPacksOwnersSearchAndHelp(t *testing.T) {
	c := newTestCLI(t)

	if err := c.ExecuteCommand([]string{"packs"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(c.stdout.String(), "Acme CRM (1 placeholders)") {
		t.Errorf("Unexpected packs output %q", c.stdout.String())
	}

	c.stdout.Reset()
	if err := c.ExecuteCommand([]string{"owners"}); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(c.stdout.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "acme-crm") || !strings.HasPrefix(lines[1], "core") {
		t.Errorf("Unexpected owners output %q", c.stdout.String())
	}

	c.stdout.Reset()
	if err := c.ExecuteCommand([]string{"search", "company"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(c.stdout.String(), "${COMPANY_NAME}") {
		t.Errorf("Expected search hit, got %q", c.stdout.String())
	}
	if err := c.ExecuteCommand([]string{"search"}); err == nil {
		t.Error("Expected search without a query to fail")
	}

	c.stdout.Reset()
	if err := c.ExecuteCommand(nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(c.stdout.String(), "render, substitute") {
		t.Error("Expected usage output")
	}
	if err := c.ExecuteCommand([]string{"help", "health"}); err != nil {
		t.Errorf("Expected help from the command description, got %v", err)
	}
	if err := c.ExecuteCommand([]string{"frobnicate"}); err == nil {
		t.Error("Expected an unknown command to fail")
	}
}
