package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Design System Colors - Adaptive based on terminal background
var (
	// Primary brand colors (work well on both light and dark)
	ColorPrimary   lipgloss.Color
	ColorSecondary lipgloss.Color
	ColorAccent    lipgloss.Color

	// Semantic colors
	ColorSuccess lipgloss.Color
	ColorWarning lipgloss.Color
	ColorError   lipgloss.Color
	ColorInfo    lipgloss.Color

	// Neutral colors (contrast-adaptive)
	ColorText       lipgloss.Color
	ColorTextMuted  lipgloss.Color
	ColorTextDim    lipgloss.Color
	ColorBorder     lipgloss.Color
	ColorBackground lipgloss.Color
	ColorSurface    lipgloss.Color
)

// initializeColors sets up adaptive colors based on terminal background
func initializeColors() {
	switch os.Getenv("GLAMOUR_STYLE") {
	case "light":
		setLightThemeColors()
	case "dark":
		setDarkThemeColors()
	default:
		if lipgloss.HasDarkBackground() {
			setDarkThemeColors()
		} else {
			setLightThemeColors()
		}
	}
	buildStyles()
}

func setDarkThemeColors() {
	ColorPrimary = lipgloss.Color("205")
	ColorSecondary = lipgloss.Color("33")
	ColorAccent = lipgloss.Color("214")

	ColorSuccess = lipgloss.Color("10")
	ColorWarning = lipgloss.Color("11")
	ColorError = lipgloss.Color("9")
	ColorInfo = lipgloss.Color("12")

	ColorText = lipgloss.Color("252")
	ColorTextMuted = lipgloss.Color("244")
	ColorTextDim = lipgloss.Color("240")
	ColorBorder = lipgloss.Color("238")
	ColorBackground = lipgloss.Color("235")
	ColorSurface = lipgloss.Color("236")
}

func setLightThemeColors() {
	ColorPrimary = lipgloss.Color("125")
	ColorSecondary = lipgloss.Color("24")
	ColorAccent = lipgloss.Color("130")

	ColorSuccess = lipgloss.Color("22")
	ColorWarning = lipgloss.Color("136")
	ColorError = lipgloss.Color("160")
	ColorInfo = lipgloss.Color("24")

	ColorText = lipgloss.Color("232")
	ColorTextMuted = lipgloss.Color("240")
	ColorTextDim = lipgloss.Color("244")
	ColorBorder = lipgloss.Color("248")
	ColorBackground = lipgloss.Color("255")
	ColorSurface = lipgloss.Color("254")
}

// Component Styles, rebuilt whenever the palette changes
var (
	StyleTitle      lipgloss.Style
	StyleOwner      lipgloss.Style
	StyleText       lipgloss.Style
	StyleTextMuted  lipgloss.Style
	StyleTextDim    lipgloss.Style
	StyleFocused    lipgloss.Style
	StyleSuccess    lipgloss.Style
	StyleWarning    lipgloss.Style
	StyleError      lipgloss.Style
	StyleInfo       lipgloss.Style
	StyleModal      lipgloss.Style
	StylePane       lipgloss.Style
	StylePaneActive lipgloss.Style
	StyleMetadata   lipgloss.Style
	StyleCode       lipgloss.Style
)

func init() {
	setDarkThemeColors()
	buildStyles()
}

func buildStyles() {
	StyleTitle = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true).
		Padding(0, 1)

	StyleOwner = lipgloss.NewStyle().
		Foreground(ColorSecondary).
		Bold(true)

	StyleText = lipgloss.NewStyle().
		Foreground(ColorText)

	StyleTextMuted = lipgloss.NewStyle().
		Foreground(ColorTextMuted)

	StyleTextDim = lipgloss.NewStyle().
		Foreground(ColorTextDim)

	StyleFocused = lipgloss.NewStyle().
		Foreground(lipgloss.Color("15")).
		Background(ColorSecondary).
		Bold(true).
		Padding(0, 1)

	StyleSuccess = lipgloss.NewStyle().
		Foreground(ColorSuccess).
		Bold(true).
		Padding(0, 1)

	StyleWarning = lipgloss.NewStyle().
		Foreground(ColorWarning).
		Bold(true).
		Padding(0, 1)

	StyleError = lipgloss.NewStyle().
		Foreground(ColorError).
		Bold(true).
		Padding(0, 1)

	StyleInfo = lipgloss.NewStyle().
		Foreground(ColorInfo).
		Bold(true).
		Padding(0, 1)

	StyleModal = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorPrimary).
		Padding(1, 3).
		Background(ColorBackground)

	StylePane = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Padding(0, 1)

	StylePaneActive = StylePane.
		BorderForeground(ColorSecondary)

	StyleMetadata = lipgloss.NewStyle().
		Foreground(ColorTextDim).
		Padding(0, 1)

	StyleCode = lipgloss.NewStyle().
		Foreground(ColorAccent)
}

// CreateMainHeader renders the title line of the main view
func CreateMainHeader(titleText string) string {
	return StyleTitle.Render(titleText)
}

func CreateMetadata(text string) string {
	return StyleMetadata.Render(text)
}

// CreateContextualHelp renders the essential keybinds on one row, truncated to width
func CreateContextualHelp(essential []string, hasMore bool, width int) string {
	parts := essential
	if hasMore {
		parts = append(parts, "Ctrl+g for more")
	}

	text := strings.Join(parts, " • ")
	if width > 7 && len(text) > width-4 {
		text = text[:width-7] + "..."
	}
	return StyleTextDim.Render(text)
}

// CreateStatus styles a status line by type: success, warning, error or info
func CreateStatus(text string, statusType string) string {
	switch statusType {
	case "success":
		return StyleSuccess.Render(text)
	case "warning":
		return StyleWarning.Render(text)
	case "error":
		return StyleError.Render(text)
	case "info":
		return StyleInfo.Render(text)
	default:
		return StyleText.Render(text)
	}
}

// Modal centering helper
func CenterModal(content string, width, height int) string {
	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		content,
	)
}

// Add consistent padding to main content (left only, no top padding)
func AddMainPadding(content string) string {
	return lipgloss.NewStyle().PaddingLeft(1).Render(content)
}
