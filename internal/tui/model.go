package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"typeahead/internal/typeahead"
)

const defaultMaxVisible = 8

// Options configures a Model
type Options[T any] struct {
	// Config is handed to typeahead.New. The widget installs its own
	// Scroller and wraps Events.SelectItem; both still reach the caller.
	Config typeahead.Config[T]

	// MaxVisible caps the number of dropdown rows (default 8)
	MaxVisible int

	Prompt      string
	Placeholder string

	// Theme is a catppuccin flavor name
	Theme string

	// RenderItem replaces the default row: projection text with the query
	// emphasized
	RenderItem func(item T, highlighted bool) string

	// RenderHeader and RenderFooter draw above the input and below the
	// dropdown
	RenderHeader func() string
	RenderFooter func() string
}

// SelectedMsg is emitted when an item is committed
type SelectedMsg[T any] struct {
	Item T
}

// scrollIntoViewMsg asks the dropdown to bring a row into view once the
// frame that moved the highlight has been drawn
type scrollIntoViewMsg struct {
	index int
}

// bridge collects what the state machine reported during one update. It is
// shared by every copy of a Model.
type bridge[T any] struct {
	scrollTo int
	scrolled bool
	selected []T
}

// Model is a bubbletea autocomplete input: a text input plus a dropdown of
// matching items driven by a typeahead.Typeahead.
type Model[T any] struct {
	core   *typeahead.Typeahead[T]
	input  textinput.Model
	keys   keyMap
	styles Styles
	bridge *bridge[T]

	maxVisible int
	offset     int // first dropdown row on screen
	width      int

	renderItem   func(item T, highlighted bool) string
	renderHeader func() string
	renderFooter func() string
}

// NewModel builds the widget. A DefaultItem in opts.Config is committed
// and shown in the input, but no SelectedMsg is emitted for it.
func NewModel[T any](opts Options[T]) (Model[T], error) {
	b := &bridge[T]{}
	cfg := opts.Config

	userScroller := cfg.Scroller
	cfg.Scroller = typeahead.ScrollFunc(func(i int) {
		b.scrollTo = i
		b.scrolled = true
		if userScroller != nil {
			userScroller.ScrollIntoView(i)
		}
	})
	userSelect := cfg.Events.SelectItem
	cfg.Events.SelectItem = func(item T) {
		b.selected = append(b.selected, item)
		if userSelect != nil {
			userSelect(item)
		}
	}

	core, err := typeahead.New(cfg)
	if err != nil {
		return Model[T]{}, err
	}

	styles := NewStyles(opts.Theme)
	input := textinput.New()
	input.Prompt = opts.Prompt
	input.Placeholder = opts.Placeholder
	input.PromptStyle = styles.Prompt
	input.TextStyle = styles.Input
	input.PlaceholderStyle = styles.Placeholder
	input.SetValue(core.Query())

	maxVisible := opts.MaxVisible
	if maxVisible <= 0 {
		maxVisible = defaultMaxVisible
	}

	// The default item was committed inside typeahead.New
	b.selected = nil
	b.scrolled = false

	return Model[T]{
		core:         core,
		input:        input,
		keys:         defaultKeyMap(),
		styles:       styles,
		bridge:       b,
		maxVisible:   maxVisible,
		renderItem:   opts.RenderItem,
		renderHeader: opts.RenderHeader,
		renderFooter: opts.RenderFooter,
	}, nil
}

// Init implements tea.Model
func (m Model[T]) Init() tea.Cmd {
	return textinput.Blink
}

// FocusInput focuses the text input and opens the dropdown when the query
// qualifies
func (m *Model[T]) FocusInput() tea.Cmd {
	m.core.Focus()
	return m.input.Focus()
}

// BlurInput takes focus away from the input and hides the dropdown
func (m *Model[T]) BlurInput() {
	m.core.Blur()
	m.input.Blur()
}

// ClearInput empties the input without changing focus
func (m *Model[T]) ClearInput() {
	m.core.Clear()
	m.input.SetValue("")
	m.offset = 0
}

// InputHandle exposes the underlying text input
func (m *Model[T]) InputHandle() *textinput.Model {
	return &m.input
}

// SetItems replaces the candidate items
func (m *Model[T]) SetItems(items []T) {
	m.core.SetItems(items)
	m.offset = m.clampOffset(m.offset)
}

// SetWidth sets the width rows are truncated to; 0 disables truncation
func (m *Model[T]) SetWidth(width int) {
	m.width = width
	m.input.Width = max(width-lipgloss.Width(m.input.Prompt)-1, 0)
}

// Core returns the state machine behind the widget
func (m Model[T]) Core() *typeahead.Typeahead[T] {
	return m.core
}

// Items returns the candidate source items
func (m Model[T]) Items() []T {
	return m.core.Items()
}

// Highlighted returns the highlighted candidate while the dropdown is open
func (m Model[T]) Highlighted() (T, bool) {
	return m.core.Highlighted()
}

// Value returns the text in the input
func (m Model[T]) Value() string {
	return m.input.Value()
}

// flush turns what the state machine reported into commands and brings
// the text input in line with it
func (m *Model[T]) flush() tea.Cmd {
	var cmds []tea.Cmd

	if m.bridge.scrolled {
		index := m.bridge.scrollTo
		cmds = append(cmds, func() tea.Msg { return scrollIntoViewMsg{index: index} })
	}
	for _, item := range m.bridge.selected {
		cmds = append(cmds, func() tea.Msg { return SelectedMsg[T]{Item: item} })
	}
	if len(m.bridge.selected) > 0 {
		m.input.SetValue(m.core.Query())
		m.input.CursorEnd()
		m.offset = 0
	}
	if !m.core.Focused() && m.input.Focused() {
		m.input.Blur()
	}

	m.bridge.selected = nil
	m.bridge.scrolled = false
	return tea.Batch(cmds...)
}
