package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the header, the input, the dropdown when it is open and
// the footer
func (m Model[T]) View() string {
	var b strings.Builder

	if header := m.header(); header != "" {
		b.WriteString(header)
		b.WriteString("\n")
	}

	b.WriteString(m.input.View())

	if m.core.Visible() {
		b.WriteString("\n")
		b.WriteString(m.renderDropdown())
	}

	if m.renderFooter != nil {
		if footer := m.renderFooter(); footer != "" {
			b.WriteString("\n")
			b.WriteString(footer)
		}
	}

	return b.String()
}

func (m Model[T]) header() string {
	if m.renderHeader == nil {
		return ""
	}
	return m.renderHeader()
}

func (m Model[T]) headerHeight() int {
	header := m.header()
	if header == "" {
		return 0
	}
	return lipgloss.Height(header)
}

// renderDropdown renders the visible window of candidates inside a border
func (m Model[T]) renderDropdown() string {
	candidates := m.core.Candidates()
	hl := m.core.HighlightedIndex()
	start, end := m.window()

	rows := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		rows = append(rows, m.renderRow(candidates[i], i == hl))
	}

	style := m.styles.Dropdown
	if m.width > 2 {
		style = style.Width(m.width - 2)
	}
	return style.Render(strings.Join(rows, "\n"))
}
