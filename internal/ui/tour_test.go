package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func closedMsg(t *testing.T, cmd tea.Cmd) tourClosedMsg {
	t.Helper()
	if cmd == nil {
		t.Fatal("Expected a close command")
	}
	raw := cmd()
	msg, ok := raw.(tourClosedMsg)
	if !ok {
		t.Fatalf("Expected tourClosedMsg, got %T", raw)
	}
	return msg
}

func TestTourNavigation(t *testing.T) {
	tour := NewTour()
	if tour.IsActive() || tour.View() != "" {
		t.Fatal("Expected a new tour to be hidden")
	}

	tour.Show()
	if tour.PageCount() != 2 || tour.Page() != 0 {
		t.Fatalf("Expected 2 pages starting at 0, got %d/%d", tour.Page(), tour.PageCount())
	}
	if tour.Prev() {
		t.Error("Expected Prev to stop on the first page")
	}

	tour, _ = tour.Update(tea.KeyMsg{Type: tea.KeyRight})
	if tour.Page() != 1 {
		t.Errorf("Expected page 1, got %d", tour.Page())
	}
	if tour.Next() {
		t.Error("Expected Next to stop on the last page")
	}
	if !strings.Contains(tour.View(), "Live values") {
		t.Error("Expected the second page to be rendered")
	}

	tour, _ = tour.Update(runeKey('p'))
	if tour.Page() != 0 {
		t.Errorf("Expected page 0, got %d", tour.Page())
	}
}

func TestTourEnterFinishes(t *testing.T) {
	tour := NewTour()
	tour.Show()

	tour, cmd := tour.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil || tour.Page() != 1 {
		t.Fatalf("Expected Enter to advance, got page %d", tour.Page())
	}

	tour, cmd = tour.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !closedMsg(t, cmd).dismiss {
		t.Error("Expected finishing the tour to dismiss it")
	}
	if tour.IsActive() {
		t.Error("Expected the tour to be hidden")
	}
}

func TestTourCloseAndDismiss(t *testing.T) {
	tour := NewTour()
	tour.Show()
	tour, cmd := tour.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if closedMsg(t, cmd).dismiss {
		t.Error("Expected Esc to close without dismissing")
	}

	tour.Show()
	_, cmd = tour.Update(runeKey('d'))
	if !closedMsg(t, cmd).dismiss {
		t.Error("Expected d to dismiss")
	}

	_, cmd = tour.Update(runeKey('d'))
	if cmd != nil {
		t.Error("Expected an inactive tour to ignore keys")
	}
}
