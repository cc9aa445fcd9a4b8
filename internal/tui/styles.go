package tui

import (
	"strings"

	catppuccin "github.com/catppuccin/go"
	"github.com/charmbracelet/lipgloss"
)

// flavor is the part of a catppuccin palette the styles draw from
type flavor interface {
	Mauve() catppuccin.Color
	Green() catppuccin.Color
	Red() catppuccin.Color
	Yellow() catppuccin.Color
	Text() catppuccin.Color
	Subtext0() catppuccin.Color
	Overlay0() catppuccin.Color
	Surface0() catppuccin.Color
	Surface1() catppuccin.Color
}

func flavorByName(name string) flavor {
	switch strings.ToLower(name) {
	case "latte":
		return catppuccin.Latte
	case "frappe":
		return catppuccin.Frappe
	case "macchiato":
		return catppuccin.Macchiato
	default:
		return catppuccin.Mocha
	}
}

// Styles are the lipgloss styles of the widget and the picker around it
type Styles struct {
	Prompt      lipgloss.Style
	Input       lipgloss.Style
	Placeholder lipgloss.Style
	Dropdown    lipgloss.Style

	// Rows
	Item          lipgloss.Style
	Match         lipgloss.Style
	Selected      lipgloss.Style
	SelectedMatch lipgloss.Style

	// Picker chrome
	Title  lipgloss.Style
	Status lipgloss.Style
	Help   lipgloss.Style
	Muted  lipgloss.Style
	Label  lipgloss.Style
	Error  lipgloss.Style
	Panel  lipgloss.Style
}

// NewStyles builds the styles for a catppuccin flavor. Unknown names fall
// back to mocha.
func NewStyles(theme string) Styles {
	f := flavorByName(theme)
	primary := lipgloss.Color(f.Mauve().Hex)
	secondary := lipgloss.Color(f.Green().Hex)
	danger := lipgloss.Color(f.Red().Hex)
	warning := lipgloss.Color(f.Yellow().Hex)
	fg := lipgloss.Color(f.Text().Hex)
	muted := lipgloss.Color(f.Overlay0().Hex)
	selectedBg := lipgloss.Color(f.Surface0().Hex)

	return Styles{
		Prompt:      lipgloss.NewStyle().Foreground(primary).Bold(true),
		Input:       lipgloss.NewStyle().Foreground(fg),
		Placeholder: lipgloss.NewStyle().Foreground(muted),
		Dropdown: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(f.Surface1().Hex)),

		Item:  lipgloss.NewStyle().Foreground(fg),
		Match: lipgloss.NewStyle().Foreground(warning).Bold(true),
		Selected: lipgloss.NewStyle().
			Background(selectedBg).
			Foreground(fg).
			Bold(true),
		SelectedMatch: lipgloss.NewStyle().
			Background(selectedBg).
			Foreground(warning).
			Bold(true),

		Title:  lipgloss.NewStyle().Bold(true).Foreground(primary),
		Status: lipgloss.NewStyle().Foreground(lipgloss.Color(f.Subtext0().Hex)),
		Help:   lipgloss.NewStyle().Foreground(muted),
		Muted:  lipgloss.NewStyle().Foreground(muted),
		Label:  lipgloss.NewStyle().Foreground(secondary).Bold(true),
		Error:  lipgloss.NewStyle().Foreground(danger).Bold(true),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(muted).
			PaddingLeft(1),
	}
}
