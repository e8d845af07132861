package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TourPage is one page of the welcome tour
type TourPage struct {
	Title string
	Body  string
}

var tourPages = []TourPage{
	{
		Title: "The placeholders panel",
		Body: "The panel on the right lists every registered placeholder, grouped by owner.\n" +
			"Press Tab to focus it, o to filter by owner and Enter to insert the\n" +
			"highlighted token at the editor cursor.",
	},
	{
		Title: "Live values",
		Body: "Tokens such as ${DATE} or ${USER_EMAIL} are replaced with their current\n" +
			"values when the content is rendered. Ctrl+p previews the result and\n" +
			"Ctrl+y copies it to the clipboard.",
	},
}

// tourClosedMsg reports that the tour was closed; dismiss asks to never show it again
type tourClosedMsg struct {
	dismiss bool
}

// Tour is the two-page welcome modal shown until a user dismisses it
type Tour struct {
	page     int
	isActive bool
	width    int
	height   int
}

// NewTour creates an inactive tour on its first page
func NewTour() *Tour {
	return &Tour{}
}

// SetSize updates the modal size
func (t *Tour) SetSize(width, height int) {
	t.width = width
	t.height = height
}

// Show activates the tour from the first page
func (t *Tour) Show() {
	t.isActive = true
	t.page = 0
}

// Hide deactivates the tour
func (t *Tour) Hide() {
	t.isActive = false
}

// IsActive returns whether the tour is showing
func (t *Tour) IsActive() bool {
	return t.isActive
}

// Page returns the zero based current page
func (t *Tour) Page() int {
	return t.page
}

// PageCount returns the number of pages
func (t *Tour) PageCount() int {
	return len(tourPages)
}

// Next moves forward, reporting false on the last page
func (t *Tour) Next() bool {
	if t.page >= len(tourPages)-1 {
		return false
	}
	t.page++
	return true
}

// Prev moves back, reporting false on the first page
func (t *Tour) Prev() bool {
	if t.page == 0 {
		return false
	}
	t.page--
	return true
}

func (t *Tour) close(dismiss bool) tea.Cmd {
	t.isActive = false
	return func() tea.Msg { return tourClosedMsg{dismiss: dismiss} }
}

// Update handles tour navigation. Enter on the last page and d dismiss the tour
// for good; Esc only closes it.
func (t *Tour) Update(msg tea.Msg) (*Tour, tea.Cmd) {
	if !t.isActive {
		return t, nil
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return t, nil
	}

	switch keyMsg.String() {
	case "right", "l", "n", "tab":
		t.Next()
	case "left", "h", "p", "shift+tab":
		t.Prev()
	case "enter":
		if !t.Next() {
			return t, t.close(true)
		}
	case "d":
		return t, t.close(true)
	case "esc", "q":
		return t, t.close(false)
	}
	return t, nil
}

// View renders the modal
func (t *Tour) View() string {
	if !t.isActive {
		return ""
	}

	page := tourPages[t.page]

	dots := make([]string, len(tourPages))
	for i := range tourPages {
		if i == t.page {
			dots[i] = StyleOwner.Render("●")
		} else {
			dots[i] = StyleTextDim.Render("○")
		}
	}

	nav := "← prev • → next • Enter: continue • d: don't show again • Esc: close"
	if t.page == len(tourPages)-1 {
		nav = "← prev • Enter: done • Esc: close"
	}

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		StyleTitle.Render("New placeholders panel"),
		"",
		StyleOwner.Render(page.Title),
		"",
		StyleText.Render(page.Body),
		"",
		fmt.Sprintf("%s  %s", strings.Join(dots, " "), StyleTextDim.Render(fmt.Sprintf("%d/%d", t.page+1, len(tourPages)))),
		StyleTextDim.Render(nav),
	)

	return CenterModal(StyleModal.Render(content), t.width, t.height)
}
