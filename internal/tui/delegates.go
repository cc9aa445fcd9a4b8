package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"typeahead/internal/match"
)

// Highlight markers are private-use runes so they cannot clash with
// anything lipgloss emits
const (
	markOpen  = "\ue000"
	markClose = "\ue001"
)

var rowMarker = match.Marker{Open: markOpen, Close: markClose}

const (
	cursorPrefix = "▸ "
	blankPrefix  = "  "
)

// renderRow renders one dropdown row, through RenderItem when the host
// supplied one
func (m Model[T]) renderRow(item T, highlighted bool) string {
	if m.renderItem != nil {
		return m.renderItem(item, highlighted)
	}

	base, bold, prefix := m.styles.Item, m.styles.Match, blankPrefix
	if highlighted {
		base, bold, prefix = m.styles.Selected, m.styles.SelectedMatch, cursorPrefix
	}

	text := singleLine(m.core.Projection(item))
	if w := m.rowWidth(); w > 0 {
		text = truncate(text, w)
	}
	marked := match.BoldMatchText(text, m.core.Query(), rowMarker)
	return base.Render(prefix) + emphasize(marked, base, bold)
}

// rowWidth is the room left for item text, 0 when unknown
func (m Model[T]) rowWidth() int {
	if m.width == 0 {
		return 0
	}
	// border and cursor prefix
	return max(m.width-2-runewidth.StringWidth(cursorPrefix), 1)
}

// segment is a run of text that is either inside a match or not
type segment struct {
	text string
	bold bool
}

// segments splits marked text at the markers. Markers may nest; text is
// bold while at least one is open. Unbalanced closes are dropped.
func segments(marked string) []segment {
	var out []segment
	var cur strings.Builder
	depth := 0

	emit := func() {
		if cur.Len() == 0 {
			return
		}
		out = append(out, segment{text: cur.String(), bold: depth > 0})
		cur.Reset()
	}

	for _, r := range marked {
		switch string(r) {
		case markOpen:
			emit()
			depth++
		case markClose:
			emit()
			if depth > 0 {
				depth--
			}
		default:
			cur.WriteRune(r)
		}
	}
	emit()
	return out
}

func emphasize(marked string, base, bold lipgloss.Style) string {
	var b strings.Builder
	for _, s := range segments(marked) {
		if s.bold {
			b.WriteString(bold.Render(s.text))
		} else {
			b.WriteString(base.Render(s.text))
		}
	}
	return b.String()
}

// truncate shortens s to width terminal cells with an ellipsis
func truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	if width < 2 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "…")
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ")

func singleLine(s string) string {
	return lineBreaks.Replace(s)
}
