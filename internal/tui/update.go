package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"typeahead/internal/typeahead"
)

// Update handles incoming messages and updates the model. Navigation keys
// go to the state machine and never reach the text input; everything else
// goes to the text input, and a changed value is fed back as a new query.
func (m Model[T]) Update(msg tea.Msg) (Model[T], tea.Cmd) {
	switch msg := msg.(type) {
	case scrollIntoViewMsg:
		m.scrollIntoView(msg.index)
		return m, nil

	case tea.WindowSizeMsg:
		m.SetWidth(msg.Width)
		return m, nil

	case tea.MouseMsg:
		cmd := m.handleMouse(msg)
		return m, cmd

	case tea.KeyMsg:
		if k := m.navKey(msg); k != typeahead.KeyNone {
			m.core.HandleKey(k)
			cmd := m.flush()
			return m, cmd
		}
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.core.InputChanged(after)
	}
	flushed := m.flush()
	return m, tea.Batch(cmd, flushed)
}

// navKey maps a key press to a state machine key. Keys are only taken while
// the input has focus so a host can use them otherwise.
func (m Model[T]) navKey(msg tea.KeyMsg) typeahead.Key {
	if !m.core.Focused() {
		return typeahead.KeyNone
	}
	switch {
	case key.Matches(msg, m.keys.Down):
		return typeahead.KeyDown
	case key.Matches(msg, m.keys.Up):
		return typeahead.KeyUp
	case key.Matches(msg, m.keys.Enter):
		return typeahead.KeyEnter
	case key.Matches(msg, m.keys.Tab):
		return typeahead.KeyTab
	}
	return typeahead.KeyNone
}

func (m *Model[T]) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if !m.core.Visible() {
		return nil
	}

	switch msg.Button {
	case tea.MouseButtonWheelDown:
		if msg.Action == tea.MouseActionPress {
			m.core.MoveDown()
			return m.flush()
		}
		return nil
	case tea.MouseButtonWheelUp:
		if msg.Action == tea.MouseActionPress {
			m.core.MoveUp()
			return m.flush()
		}
		return nil
	}

	row, ok := m.rowAt(msg.Y)
	if !ok {
		return nil
	}
	switch {
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		m.core.SelectAt(row)
	case msg.Action == tea.MouseActionMotion:
		m.core.HighlightAt(row)
	default:
		return nil
	}
	return m.flush()
}

// scrollIntoView moves the dropdown window so that row index is shown
func (m *Model[T]) scrollIntoView(index int) {
	rows := m.rowCount()
	switch {
	case index < m.offset:
		m.offset = index
	case index >= m.offset+rows:
		m.offset = index - rows + 1
	}
	m.offset = m.clampOffset(m.offset)
}

func (m Model[T]) rowCount() int {
	return min(m.maxVisible, len(m.core.Candidates()))
}

func (m Model[T]) clampOffset(offset int) int {
	return max(min(offset, len(m.core.Candidates())-m.rowCount()), 0)
}

// window returns the candidate range currently on screen
func (m Model[T]) window() (int, int) {
	start := m.clampOffset(m.offset)
	hl := m.core.HighlightedIndex()
	rows := m.rowCount()
	// the candidates may have changed since the last scroll
	if hl < start {
		start = hl
	} else if rows > 0 && hl >= start+rows {
		start = hl - rows + 1
	}
	return start, start + rows
}

// rowAt maps a screen row to a candidate index
func (m Model[T]) rowAt(y int) (int, bool) {
	if !m.core.Visible() {
		return 0, false
	}
	// header, input line, dropdown border
	top := m.headerHeight() + 2
	start, end := m.window()
	i := start + y - top
	if y < top || i >= end {
		return 0, false
	}
	return i, true
}
