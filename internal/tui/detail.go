package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"typeahead/internal/source"
)

const previewMaxValueLines = 4

// renderPreview renders the fields of the highlighted record in a side panel
func renderPreview(styles Styles, rec *source.Record, width, height int) string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("Details"))
	b.WriteString("\n")

	inner := max(width-2, 10)
	switch {
	case rec == nil:
		b.WriteString(styles.Muted.Render("Nothing highlighted"))
	case rec.Fields == nil:
		b.WriteString(styles.Label.Render(fmt.Sprintf("line %d", rec.Line)))
		b.WriteString("\n")
		b.WriteString(wrapText(rec.Raw, inner))
	default:
		b.WriteString(styles.Label.Render(fmt.Sprintf("line %d", rec.Line)))
		b.WriteString("\n")
		b.WriteString(formatFields(styles, rec.Fields, inner))
	}

	return styles.Panel.Width(width).Height(height).Render(b.String())
}

// formatFields lists structured fields in key order
func formatFields(styles Styles, fields map[string]any, width int) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(styles.Label.Render(k + ":"))
		b.WriteString("\n")
		value := truncateMultiline(wrapText(formatValue(fields[k]), width-2), width-2, previewMaxValueLines)
		for _, line := range strings.Split(value, "\n") {
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = formatValue(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		return fmt.Sprintf("{%d fields}", len(val))
	default:
		return fmt.Sprint(val)
	}
}

// wrapText wraps text at word boundaries to fit within width
func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}

	var result strings.Builder
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			result.WriteString("\n")
		}

		lineLen := 0
		for _, word := range strings.Fields(line) {
			wordLen := runewidth.StringWidth(word)
			if lineLen+wordLen+1 > width && lineLen > 0 {
				result.WriteString("\n")
				lineLen = 0
			}
			if lineLen > 0 {
				result.WriteString(" ")
				lineLen++
			}
			// Truncate very long words
			if wordLen > width {
				word = truncate(word, width)
				wordLen = runewidth.StringWidth(word)
			}
			result.WriteString(word)
			lineLen += wordLen
		}
	}

	return result.String()
}

// truncateMultiline truncates text to maxLines and width
func truncateMultiline(text string, width, maxLines int) string {
	lines := strings.Split(text, "\n")
	if len(lines) > maxLines {
		lines = lines[:maxLines]
		lines = append(lines, "…")
	}
	for i, line := range lines {
		lines[i] = truncate(strings.ReplaceAll(line, "\t", "  "), width)
	}
	return strings.Join(lines, "\n")
}

// joinPanel places the preview to the right of the picker
func joinPanel(left, right string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)
}
