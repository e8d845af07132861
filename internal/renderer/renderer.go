package renderer

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/dpshade/pocket-placeholders/internal/errors"
	"github.com/dpshade/pocket-placeholders/internal/models"
	"github.com/dpshade/pocket-placeholders/internal/placeholders"
)

// Output formats understood by Render
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// DefaultWordWrap is used for markdown output when no width is configured
const DefaultWordWrap = 80

// Document is the outcome of a substitution
type Document struct {
	Source  string
	Content string
	User    string
	// Values is the mapping Source was substituted with.
	Values models.Values
	// Findings lists the tokens of Source that no placeholder is registered for.
	Findings []placeholders.Finding
}

// Unresolved returns the distinct ${NAME} tokens of Source that had no value, sorted.
// Tokens produced by a value are not reported. Without a Source, Content is scanned.
func (d Document) Unresolved() []string {
	text := d.Source
	if text == "" {
		text = d.Content
	}

	seen := make(map[string]bool)
	for _, f := range placeholders.Lint(text, nil) {
		if _, ok := d.Values[f.Token]; !ok {
			seen[f.Token] = true
		}
	}
	tokens := make([]string, 0, len(seen))
	for token := range seen {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}

// Renderer handles output of substituted content
type Renderer struct {
	doc      Document
	wordWrap int
	style    string
}

// NewRenderer creates a new renderer instance
func NewRenderer(doc Document) *Renderer {
	return &Renderer{
		doc:      doc,
		wordWrap: DefaultWordWrap,
		style:    "auto",
	}
}

// WithWordWrap sets the markdown wrap width
func (r *Renderer) WithWordWrap(width int) *Renderer {
	if width > 0 {
		r.wordWrap = width
	}
	return r
}

// WithStyle selects a glamour standard style ("dark", "light", "notty", ...).
// "auto" picks one from the terminal background.
func (r *Renderer) WithStyle(style string) *Renderer {
	if style != "" {
		r.style = style
	}
	return r
}

// Render renders the document in the given format
func (r *Renderer) Render(format string) (string, error) {
	switch format {
	case "", FormatText:
		return r.RenderText()
	case FormatJSON:
		return r.RenderJSON()
	case FormatMarkdown, "md":
		return r.RenderMarkdown()
	default:
		return "", errors.NewAppError(errors.ErrCodeInvalidFormat, fmt.Sprintf("Unknown output format '%s'", format)).
			WithDetails("use text, json or markdown")
	}
}

// RenderText renders the substituted content as is
func (r *Renderer) RenderText() (string, error) {
	return r.doc.Content, nil
}

// Result is the JSON shape of a rendered document
type Result struct {
	Content    string                 `json:"content"`
	User       string                 `json:"user,omitempty"`
	Unresolved []string               `json:"unresolved"`
	Findings   []placeholders.Finding `json:"findings,omitempty"`
}

// Result returns the JSON shape of d
func (d Document) Result() Result {
	return Result{
		Content:    d.Content,
		User:       d.User,
		Unresolved: d.Unresolved(),
		Findings:   d.Findings,
	}
}

// RenderJSON renders the document with the tokens left unresolved
func (r *Renderer) RenderJSON() (string, error) {
	jsonBytes, err := json.MarshalIndent(r.doc.Result(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal to JSON: %w", err)
	}

	return string(jsonBytes), nil
}

// RenderMarkdown renders the substituted content as terminal markdown
func (r *Renderer) RenderMarkdown() (string, error) {
	styleOption := glamour.WithAutoStyle()
	if r.style != "auto" {
		styleOption = glamour.WithStandardStyle(r.style)
	}

	tr, err := glamour.NewTermRenderer(
		styleOption,
		glamour.WithWordWrap(r.wordWrap),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}

	out, err := tr.Render(r.doc.Content)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return strings.TrimRight(out, "\n") + "\n", nil
}
