// Package ui provides the visual styling shared by the catch CLI's progress
// lines, file selector and report output.
package ui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette
var (
	LightForeground = lipgloss.Color("#1b1f24")
	LightPrimary    = lipgloss.Color("#5b3cc4") // Violet
	LightMuted      = lipgloss.Color("#8a919c")
	LightBorder     = lipgloss.Color("#d0d4da")
	LightHighlight  = lipgloss.Color("#ece8fb")

	DarkForeground = lipgloss.Color("#eceff4")
	DarkPrimary    = lipgloss.Color("#a58cf5") // Violet (lifted)
	DarkMuted      = lipgloss.Color("#6b7280")
	DarkBorder     = lipgloss.Color("#374151")
	DarkHighlight  = lipgloss.Color("#2e2650")

	Destructive = lipgloss.Color("#e53935") // Red
	Success     = lipgloss.Color("#43a047") // Green
	Warning     = lipgloss.Color("#ffb300") // Amber
)

// Theme holds the current color scheme
type Theme struct {
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	Highlight  lipgloss.Color
	IsDark     bool
}

// LightTheme returns the light mode theme
func LightTheme() Theme {
	return Theme{
		Foreground: LightForeground,
		Primary:    LightPrimary,
		Muted:      LightMuted,
		Border:     LightBorder,
		Highlight:  LightHighlight,
	}
}

// DarkTheme returns the dark mode theme
func DarkTheme() Theme {
	return Theme{
		Foreground: DarkForeground,
		Primary:    DarkPrimary,
		Muted:      DarkMuted,
		Border:     DarkBorder,
		Highlight:  DarkHighlight,
		IsDark:     true,
	}
}

// DarkModeEnv forces the dark theme when set to "1".
const DarkModeEnv = "CATCH_CLI_DARK_MODE"

// DetectTheme picks a theme from COLORFGBG or CATCH_CLI_DARK_MODE, defaulting to dark.
func DetectTheme() Theme {
	if os.Getenv(DarkModeEnv) == "1" {
		return DarkTheme()
	}
	if os.Getenv(DarkModeEnv) == "0" {
		return LightTheme()
	}

	// "foreground;background"; background 7 or 15 is a light terminal.
	if parts := strings.Split(os.Getenv("COLORFGBG"), ";"); len(parts) == 2 {
		if bg, err := strconv.Atoi(parts[1]); err == nil && (bg == 7 || bg == 15) {
			return LightTheme()
		}
	}
	return DarkTheme()
}

// Styles holds all the styled components
type Styles struct {
	Theme Theme

	Title lipgloss.Style
	Body  lipgloss.Style
	Muted lipgloss.Style
	Bold  lipgloss.Style
	Help  lipgloss.Style

	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style

	Spinner lipgloss.Style
	Label   lipgloss.Style

	TableHeader   lipgloss.Style
	TableSelected lipgloss.Style
	TableCell     lipgloss.Style
	Checked       lipgloss.Style
	Input         lipgloss.Style
	InputInvalid  lipgloss.Style
}

// NewStyles creates a new Styles instance with the given theme
func NewStyles(theme Theme) Styles {
	return Styles{
		Theme: theme,

		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true).
			MarginBottom(1),
		Body: lipgloss.NewStyle().
			Foreground(theme.Foreground),
		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),
		Bold: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true),
		Help: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Italic(true),

		Success: lipgloss.NewStyle().
			Foreground(Success).
			Bold(true),
		Error: lipgloss.NewStyle().
			Foreground(Destructive).
			Bold(true),
		Warning: lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true),

		Spinner: lipgloss.NewStyle().
			Foreground(theme.Primary),
		Label: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true),

		TableHeader: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(theme.Border).
			BorderBottom(true),
		TableSelected: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Background(theme.Highlight).
			Bold(true),
		TableCell: lipgloss.NewStyle().
			Foreground(theme.Foreground),
		Checked: lipgloss.NewStyle().
			Foreground(Success),
		Input: lipgloss.NewStyle().
			Foreground(theme.Foreground),
		InputInvalid: lipgloss.NewStyle().
			Foreground(Destructive),
	}
}

// DefaultStyles returns styles for the detected theme
func DefaultStyles() Styles {
	return NewStyles(DetectTheme())
}

// Outcome renders a terminal progress state label.
func (s Styles) Outcome(word string) string {
	switch word {
	case "Completed":
		return s.Success.Render(word)
	case "Canceled":
		return s.Warning.Render(word)
	default:
		return s.Error.Render(word)
	}
}
