package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dpshade/pocket-placeholders/internal/models"
	"github.com/dpshade/pocket-placeholders/internal/placeholders"
)

// EmptyPickerText is shown when no placeholder is registered
const EmptyPickerText = "No placeholders registered"

// insertTokenMsg asks the editor to insert a token at the cursor
type insertTokenMsg struct {
	token string
}

// Picker lists the registered placeholders grouped by owner, with an owner filter
type Picker struct {
	list   list.Model
	all    []models.Placeholder
	owners []models.Owner
	// filter indexes owners; -1 shows all owners
	filter int
	width  int
	height int
}

// placeholderItem implements the list.Item interface for the picker
type placeholderItem struct {
	models.Placeholder
}

// placeholderDelegate renders a label line and a token line per placeholder
type placeholderDelegate struct{}

func (d placeholderDelegate) Height() int                               { return 2 }
func (d placeholderDelegate) Spacing() int                              { return 0 }
func (d placeholderDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d placeholderDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(placeholderItem)
	if !ok {
		return
	}

	title := fmt.Sprintf("‹ %s", item.Label)
	desc := fmt.Sprintf("  %s · %s", item.Token, item.Owner)

	if index == m.Index() {
		title = lipgloss.NewStyle().Foreground(ColorSecondary).Bold(true).Render(title)
	} else {
		title = StyleText.Render(title)
	}
	desc = StyleTextDim.Render(desc)

	fmt.Fprintf(w, "%s\n%s", title, desc)
}

// NewPicker creates an empty picker
func NewPicker() *Picker {
	l := list.New([]list.Item{}, placeholderDelegate{}, 40, 20)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	keyMap := list.DefaultKeyMap()
	keyMap.Quit = key.NewBinding(key.WithDisabled())
	keyMap.ForceQuit = key.NewBinding(key.WithDisabled())
	l.KeyMap = keyMap

	p := &Picker{list: l, filter: -1}
	p.updateTitle()
	return p
}

// SetSize updates the picker size
func (p *Picker) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.list.SetSize(width, height)
}

// SetPlaceholders replaces the listed placeholders. The owner filter is kept when
// the owner still exists.
func (p *Picker) SetPlaceholders(set *models.PlaceholderSet) {
	current := p.FilterSlug()

	p.all = placeholders.FilterByOwner(set, "")
	p.owners = placeholders.Owners(set)
	p.filter = -1
	for i, o := range p.owners {
		if o.Slug == current {
			p.filter = i
		}
	}
	p.updateListItems()
}

// updateListItems refreshes the list items for the current filter
func (p *Picker) updateListItems() {
	slug := p.FilterSlug()

	var visible []models.Placeholder
	for _, ph := range p.all {
		if slug == "" || ph.OwnerSlug() == slug {
			visible = append(visible, ph)
		}
	}

	items := make([]list.Item, 0, len(visible))
	for _, group := range placeholders.GroupByOwner(visible) {
		for _, ph := range group.Placeholders {
			items = append(items, placeholderItem{ph})
		}
	}
	p.list.SetItems(items)
	p.list.Select(0)
	p.updateTitle()
}

func (p *Picker) updateTitle() {
	p.list.Title = fmt.Sprintf("Placeholders · %s", p.FilterName())
}

// Empty reports whether no placeholder is registered at all
func (p *Picker) Empty() bool {
	return len(p.all) == 0
}

// Owners returns the owner filter choices after "All"
func (p *Picker) Owners() []models.Owner {
	return p.owners
}

// FilterSlug returns the slug of the selected owner, or "" for all owners
func (p *Picker) FilterSlug() string {
	if p.filter < 0 || p.filter >= len(p.owners) {
		return ""
	}
	return p.owners[p.filter].Slug
}

// FilterName returns the label of the current owner filter
func (p *Picker) FilterName() string {
	if p.filter < 0 || p.filter >= len(p.owners) {
		return "All"
	}
	return p.owners[p.filter].Name
}

// CycleFilter moves to the next owner filter: All, then each owner in display order
func (p *Picker) CycleFilter() {
	p.filter++
	if p.filter >= len(p.owners) {
		p.filter = -1
	}
	p.updateListItems()
}

// Visible returns the placeholders shown for the current filter
func (p *Picker) Visible() []models.Placeholder {
	items := p.list.Items()
	visible := make([]models.Placeholder, 0, len(items))
	for _, item := range items {
		if ph, ok := item.(placeholderItem); ok {
			visible = append(visible, ph.Placeholder)
		}
	}
	return visible
}

// Selected returns the highlighted placeholder
func (p *Picker) Selected() (models.Placeholder, bool) {
	item, ok := p.list.SelectedItem().(placeholderItem)
	if !ok {
		return models.Placeholder{}, false
	}
	return item.Placeholder, true
}

// Update handles picker keys. Enter inserts the highlighted token, o cycles the owner filter.
func (p *Picker) Update(msg tea.Msg) (*Picker, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter":
			selected, ok := p.Selected()
			if !ok {
				return p, nil
			}
			return p, func() tea.Msg { return insertTokenMsg{token: selected.Token} }
		case "o":
			p.CycleFilter()
			return p, nil
		}
	}

	var cmd tea.Cmd
	p.list, cmd = p.list.Update(msg)
	return p, cmd
}

// View renders the picker
func (p *Picker) View() string {
	if p.Empty() {
		return StyleTextMuted.Render(EmptyPickerText)
	}

	filter := StyleTextDim.Render("o: filter by owner • Enter: insert")
	return lipgloss.JoinVertical(lipgloss.Left, p.list.View(), filter)
}
