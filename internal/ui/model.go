package ui

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/dpshade/pocket-placeholders/internal/clipboard"
	"github.com/dpshade/pocket-placeholders/internal/errors"
	"github.com/dpshade/pocket-placeholders/internal/models"
	"github.com/dpshade/pocket-placeholders/internal/renderer"
	"github.com/dpshade/pocket-placeholders/internal/service"
	"github.com/dpshade/pocket-placeholders/internal/session"
)

// glamourStyle picks a glamour standard style with good contrast for the terminal
func glamourStyle() string {
	if style := os.Getenv("GLAMOUR_STYLE"); style != "" {
		return style
	}

	switch termenv.ColorProfile() {
	case termenv.TrueColor, termenv.ANSI256:
		if lipgloss.HasDarkBackground() {
			return "dark"
		}
		return "light"
	default:
		return "auto"
	}
}

// Commands for async operations
type loadCompleteMsg struct {
	placeholders *models.PlaceholderSet
	showTour     bool
	err          error
}

type previewMsg struct {
	document renderer.Document
	rendered string
	err      error
}

type copiedMsg struct {
	status string
	err    error
}

type tourSavedMsg struct {
	err error
}

// loadPlaceholdersCmd builds the placeholder set and checks whether the tour is pending
func loadPlaceholdersCmd(svc *service.Service, user models.UserID, tour bool) tea.Cmd {
	return func() tea.Msg {
		msg := loadCompleteMsg{placeholders: svc.Placeholders()}
		if tour {
			msg.showTour, msg.err = svc.ShouldShowTour(user)
		}
		return msg
	}
}

// substituteCmd substitutes content for the session user and renders it as markdown
func substituteCmd(svc *service.Service, user models.UserID, content string, wordWrap int, style string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if !user.IsZero() {
			ctx = session.WithUser(ctx, user)
		}

		out, values, err := svc.SubstituteWithValues(ctx, content, "", nil)
		if err != nil {
			return previewMsg{err: err}
		}

		doc := renderer.Document{Source: content, Content: out, User: user.String(), Values: values, Findings: svc.Lint(content)}
		rendered, err := renderer.NewRenderer(doc).WithWordWrap(wordWrap).WithStyle(style).RenderMarkdown()
		return previewMsg{document: doc, rendered: rendered, err: err}
	}
}

func copyCmd(copyFn func(string) (string, error), text string) tea.Cmd {
	return func() tea.Msg {
		status, err := copyFn(text)
		return copiedMsg{status: status, err: err}
	}
}

func dismissTourCmd(svc *service.Service, user models.UserID) tea.Cmd {
	return func() tea.Msg {
		return tourSavedMsg{err: svc.DismissTour(user)}
	}
}

// focusArea is the pane receiving keys
type focusArea int

const (
	focusEditor focusArea = iota
	focusPicker
	focusPreview
)

// Options configures the TUI
type Options struct {
	// User is the session user placeholders are resolved for.
	User models.UserID
	// ShowTour enables the welcome tour for users that have not dismissed it.
	ShowTour bool
	// WordWrap is the preview wrap width; zero fits the pane.
	WordWrap int
}

// Model represents the TUI application state
type Model struct {
	service *service.Service
	opts    Options
	focus   focusArea

	// UI components
	editor  textarea.Model
	picker  *Picker
	preview viewport.Model
	tour    *Tour
	help    help.Model
	keys    KeyMap

	loading      bool
	document     renderer.Document
	glamourStyle string
	errorHandler *errors.TUIErrorHandler
	copyFn       func(string) (string, error)

	// Window dimensions
	width  int
	height int

	// Status messages
	statusMsg     string
	statusType    string
	statusTimeout int
	showFullHelp  bool

	err error
}

// KeyMap defines all key bindings
type KeyMap struct {
	SwitchFocus key.Binding
	Insert      key.Binding
	Filter      key.Binding
	Preview     key.Binding
	Copy        key.Binding
	Tour        key.Binding
	Back        key.Binding
	ExpandHelp  key.Binding
	Quit        key.Binding
}

// ShortHelp returns keybindings to show in the mini help view
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.SwitchFocus, k.Preview, k.Copy, k.Quit}
}

// FullHelp returns keybindings to show in the full help view
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.SwitchFocus, k.Insert, k.Filter},
		{k.Preview, k.Copy, k.Back},
		{k.Tour, k.ExpandHelp, k.Quit},
	}
}

var keys = KeyMap{
	SwitchFocus: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("Tab", "editor/placeholders"),
	),
	Insert: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("Enter", "insert placeholder"),
	),
	Filter: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "filter by owner"),
	),
	Preview: key.NewBinding(
		key.WithKeys("ctrl+p"),
		key.WithHelp("Ctrl+p", "preview"),
	),
	Copy: key.NewBinding(
		key.WithKeys("ctrl+y"),
		key.WithHelp("Ctrl+y", "copy result"),
	),
	Tour: key.NewBinding(
		key.WithKeys("ctrl+t"),
		key.WithHelp("Ctrl+t", "welcome tour"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("Esc", "back to editor"),
	),
	ExpandHelp: key.NewBinding(
		key.WithKeys("ctrl+g"),
		key.WithHelp("Ctrl+g", "expand help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("Ctrl+c", "quit"),
	),
}

// NewModel creates a new TUI model
func NewModel(svc *service.Service, opts Options) (*Model, error) {
	if svc == nil {
		return nil, fmt.Errorf("service is required")
	}

	initializeColors()

	editor := textarea.New()
	editor.Placeholder = "Compose here. Tab switches to the placeholders panel."
	editor.ShowLineNumbers = false
	editor.SetWidth(60)
	editor.SetHeight(20)
	editor.Focus()

	// Default size, will be updated on first WindowSizeMsg
	vp := viewport.New(60, 20)
	vp.Style = lipgloss.NewStyle()

	return &Model{
		service:      svc,
		opts:         opts,
		focus:        focusEditor,
		editor:       editor,
		picker:       NewPicker(),
		preview:      vp,
		tour:         NewTour(),
		help:         help.New(),
		keys:         keys,
		loading:      true,
		glamourStyle: glamourStyle(),
		errorHandler: errors.NewTUIErrorHandler(false, svc.BaseDir()),
		copyFn:       clipboard.CopyWithFallback,
	}, nil
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, loadPlaceholdersCmd(m.service, m.opts.User, m.opts.ShowTour))
}

// tickMsg is sent to clear the status message
type tickMsg time.Time

// clearStatusCmd returns a command that clears the status message after a delay
func clearStatusCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) setStatus(text, statusType string) tea.Cmd {
	m.statusMsg = text
	m.statusType = statusType
	m.statusTimeout = 3
	return clearStatusCmd()
}

// setError logs err and shows it in the status line
func (m *Model) setError(err error) tea.Cmd {
	appErr := m.errorHandler.HandleError(err)
	icon, _ := m.errorHandler.GetErrorStyle(appErr)
	statusType := "error"
	if errors.GetAppError(appErr).Severity == errors.SeverityWarning {
		statusType = "warning"
	}
	return m.setStatus(fmt.Sprintf("%s %s", icon, m.errorHandler.FormatError(appErr)), statusType)
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tickMsg:
		if m.statusTimeout > 0 {
			m.statusTimeout--
			if m.statusTimeout == 0 {
				m.statusMsg = ""
			} else {
				return m, clearStatusCmd()
			}
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case loadCompleteMsg:
		m.loading = false
		m.picker.SetPlaceholders(msg.placeholders)
		if msg.err != nil {
			return m, m.setError(msg.err)
		}
		if msg.showTour {
			m.tour.Show()
		}
		return m, nil

	case insertTokenMsg:
		m.editor.InsertString(msg.token)
		m.setFocus(focusEditor)
		return m, m.setStatus(fmt.Sprintf("Inserted %s", msg.token), "info")

	case previewMsg:
		if msg.err != nil {
			return m, m.setError(msg.err)
		}
		m.document = msg.document
		m.preview.SetContent(msg.rendered)
		m.preview.GotoTop()
		m.setFocus(focusPreview)
		if n := len(msg.document.Findings); n > 0 {
			return m, m.setStatus(fmt.Sprintf("%d unknown placeholder(s)", n), "warning")
		}
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			return m, m.setError(msg.err)
		}
		return m, m.setStatus(msg.status, "success")

	case tourClosedMsg:
		if msg.dismiss {
			return m, dismissTourCmd(m.service, m.opts.User)
		}
		return m, nil

	case tourSavedMsg:
		if msg.err != nil {
			return m, m.setError(msg.err)
		}
		return m, m.setStatus("Welcome tour dismissed", "info")

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}

		if m.tour.IsActive() {
			var cmd tea.Cmd
			m.tour, cmd = m.tour.Update(msg)
			return m, cmd
		}

		switch {
		case key.Matches(msg, m.keys.SwitchFocus):
			if m.focus == focusPicker {
				m.setFocus(focusEditor)
			} else {
				m.setFocus(focusPicker)
			}
			return m, nil
		case key.Matches(msg, m.keys.Preview):
			return m, substituteCmd(m.service, m.opts.User, m.editor.Value(), m.previewWrap(), m.glamourStyle)
		case key.Matches(msg, m.keys.Copy):
			return m, m.copyResult()
		case key.Matches(msg, m.keys.Tour):
			m.tour.Show()
			return m, nil
		case key.Matches(msg, m.keys.ExpandHelp):
			m.showFullHelp = !m.showFullHelp
			return m, nil
		case key.Matches(msg, m.keys.Back) && m.focus != focusEditor:
			m.setFocus(focusEditor)
			return m, nil
		}
	}

	switch m.focus {
	case focusPicker:
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		cmds = append(cmds, cmd)
	case focusPreview:
		var cmd tea.Cmd
		m.preview, cmd = m.preview.Update(msg)
		cmds = append(cmds, cmd)
	default:
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// copyResult substitutes the editor content and copies the plain result
func (m *Model) copyResult() tea.Cmd {
	user := m.opts.User
	content := m.editor.Value()
	svc := m.service
	copyFn := m.copyFn

	return func() tea.Msg {
		ctx := context.Background()
		if !user.IsZero() {
			ctx = session.WithUser(ctx, user)
		}
		out, err := svc.Substitute(ctx, content, "", nil)
		if err != nil {
			return copiedMsg{err: err}
		}
		return copyCmd(copyFn, out)()
	}
}

func (m *Model) setFocus(f focusArea) {
	m.focus = f
	if f == focusEditor {
		m.editor.Focus()
	} else {
		m.editor.Blur()
	}
}

// paneSizes splits the width between the editor and the picker
func (m *Model) paneSizes() (left, right, height int) {
	right = m.width / 3
	if right < 30 {
		right = 30
	}
	left = m.width - right - 6
	if left < 20 {
		left = 20
	}
	height = m.height - 7
	if m.showFullHelp {
		height -= 3
	}
	if height < 5 {
		height = 5
	}
	return left, right, height
}

func (m *Model) resize() {
	left, right, height := m.paneSizes()
	m.editor.SetWidth(left)
	m.editor.SetHeight(height)
	m.preview.Width = left
	m.preview.Height = height
	m.picker.SetSize(right, height-1)
	m.tour.SetSize(m.width, m.height)
}

func (m *Model) previewWrap() int {
	if m.opts.WordWrap > 0 {
		return m.opts.WordWrap
	}
	left, _, _ := m.paneSizes()
	return left
}

// View renders the model
func (m Model) View() string {
	if m.err != nil {
		return fmt.Sprintf("\n  Error: %v\n\n  Press Ctrl+c to quit.\n", m.err)
	}

	if m.tour.IsActive() {
		return m.tour.View()
	}

	header := CreateMainHeader("Pocket Placeholders")
	if m.opts.User.IsZero() {
		header += CreateMetadata("no user: user placeholders stay unresolved")
	} else {
		header += CreateMetadata("user " + m.opts.User.String())
	}

	var leftPane string
	if m.focus == focusPreview {
		leftPane = StylePaneActive.Render(m.preview.View())
	} else if m.focus == focusEditor {
		leftPane = StylePaneActive.Render(m.editor.View())
	} else {
		leftPane = StylePane.Render(m.editor.View())
	}

	pickerView := m.picker.View()
	if m.loading {
		pickerView = StyleTextMuted.Render("Loading placeholders...")
	}
	_, right, _ := m.paneSizes()
	pickerStyle := StylePane.Width(right)
	if m.focus == focusPicker {
		pickerStyle = StylePaneActive.Width(right)
	}
	rightPane := pickerStyle.Render(pickerView)

	body := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, rightPane)

	var helpView string
	if m.showFullHelp {
		m.help.ShowAll = true
		helpView = m.help.View(m.keys)
	} else {
		helpView = CreateContextualHelp(
			[]string{"Tab: switch pane", "Ctrl+p: preview", "Ctrl+y: copy", "Ctrl+c: quit"},
			true,
			m.width,
		)
	}

	parts := []string{header, body}
	if m.statusMsg != "" {
		parts = append(parts, CreateStatus(m.statusMsg, m.statusType))
	}
	parts = append(parts, helpView)

	return AddMainPadding(lipgloss.JoinVertical(lipgloss.Left, parts...))
}
