// Package typeahead holds the selection state machine behind an
// autocomplete input: the query, the filtered candidates, the highlighted
// index and whether the dropdown is visible.
//
// A Typeahead is driven synchronously by its host (text changes, focus
// changes, navigation keys) and is not safe for concurrent use.
package typeahead

import (
	"strings"
	"unicode/utf8"

	"github.com/go-logr/logr"

	"typeahead/internal/match"
)

// State is the coarse dropdown state
type State int

const (
	StateIdle          State = iota // not focused
	StateOpen                       // focused, dropdown visible
	StateClosedFocused              // focused, dropdown hidden
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOpen:
		return "open"
	case StateClosedFocused:
		return "closed-focused"
	}
	return "unknown"
}

// Key is a navigation key the state machine reacts to
type Key int

const (
	KeyNone Key = iota
	KeyDown
	KeyUp
	KeyEnter
	KeyTab
)

// Typeahead tracks query, candidates and selection for one input
type Typeahead[T any] struct {
	cfg     Config[T]
	matcher *match.Matcher[T]
	log     logr.Logger

	items      []T
	query      string
	candidates []T

	focused bool
	index   int
	visible bool
}

// New validates cfg and builds a Typeahead. When cfg.DefaultItem is set it is
// committed before New returns, which fires Events.SelectItem once.
func New[T any](cfg Config[T]) (*Typeahead[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	t := &Typeahead[T]{
		cfg:     cfg,
		matcher: match.New(cfg.Projection, cfg.TokenizedMatches),
		log:     cfg.Logger.WithName("typeahead"),
		items:   cfg.Items,
	}
	t.recompute()

	if cfg.DefaultItem != nil {
		t.selectItem(*cfg.DefaultItem)
	}
	return t, nil
}

// Focus marks the input focused
func (t *Typeahead[T]) Focus() {
	was := t.focused
	t.focused = true
	t.updateVisibility()
	if !was && t.cfg.Events.OnFocus != nil {
		t.cfg.Events.OnFocus(t.query, t.candidates)
	}
}

// Blur marks the input unfocused and hides the dropdown
func (t *Typeahead[T]) Blur() {
	was := t.focused
	t.focused = false
	t.updateVisibility()
	if was && t.cfg.Events.OnBlur != nil {
		t.cfg.Events.OnBlur(t.query, t.candidates)
	}
}

// InputChanged stores the new query and recomputes the candidates. The
// highlighted index is clamped, not reset.
func (t *Typeahead[T]) InputChanged(query string) {
	t.query = query
	t.recompute()
	if t.cfg.Events.OnInput != nil {
		t.cfg.Events.OnInput(t.query, t.candidates)
	}
}

// SetItems replaces the source items and recomputes the candidates
func (t *Typeahead[T]) SetItems(items []T) {
	t.items = items
	t.recompute()
	t.log.V(1).Info("items replaced", "items", len(items), "candidates", len(t.candidates))
}

// MoveDown highlights the next candidate, stopping at the last one
func (t *Typeahead[T]) MoveDown() {
	if !t.visible {
		return
	}
	t.index = min(t.index+1, len(t.candidates)-1)
	t.scroll()
}

// MoveUp highlights the previous candidate, stopping at the first one
func (t *Typeahead[T]) MoveUp() {
	if !t.visible {
		return
	}
	t.index = max(t.index-1, 0)
	t.scroll()
}

// HighlightAt highlights candidate i, e.g. under the pointer. Out of range
// indexes and a hidden dropdown are ignored.
func (t *Typeahead[T]) HighlightAt(i int) {
	if !t.visible || i < 0 || i >= len(t.candidates) {
		return
	}
	t.index = i
}

// SelectAt highlights candidate i and commits it
func (t *Typeahead[T]) SelectAt(i int) bool {
	if !t.visible || i < 0 || i >= len(t.candidates) {
		return false
	}
	t.index = i
	return t.Commit()
}

// Commit accepts the highlighted candidate. It reports false and changes
// nothing when the dropdown is hidden or there is no candidate.
func (t *Typeahead[T]) Commit() bool {
	item, ok := t.Highlighted()
	if !ok {
		return false
	}
	t.selectItem(item)
	return true
}

// CommitOrDeferToBlur commits when selectOnTab is set; otherwise it only
// leaves the input.
func (t *Typeahead[T]) CommitOrDeferToBlur(selectOnTab bool) {
	if selectOnTab {
		t.Commit()
		return
	}
	t.Blur()
}

// HandleKey applies a navigation key and reports whether it was consumed.
// Consumed keys must not reach the host's own input handling.
func (t *Typeahead[T]) HandleKey(k Key) bool {
	switch k {
	case KeyDown:
		t.MoveDown()
	case KeyUp:
		t.MoveUp()
	case KeyEnter:
		t.Commit()
	case KeyTab:
		t.CommitOrDeferToBlur(t.cfg.SelectOnTab)
	default:
		return false
	}
	return true
}

// Clear empties the query without touching focus or firing events
func (t *Typeahead[T]) Clear() {
	t.query = ""
	t.index = 0
	t.recompute()
}

// Query returns the current raw query
func (t *Typeahead[T]) Query() string { return t.query }

// Items returns the source items
func (t *Typeahead[T]) Items() []T { return t.items }

// Candidates returns the items matching the current query
func (t *Typeahead[T]) Candidates() []T { return t.candidates }

// HighlightedIndex returns the index of the highlighted candidate
func (t *Typeahead[T]) HighlightedIndex() int { return t.index }

// Visible reports whether the dropdown should be drawn
func (t *Typeahead[T]) Visible() bool { return t.visible }

// Focused reports whether the input has focus
func (t *Typeahead[T]) Focused() bool { return t.focused }

// Projection returns the display text of item
func (t *Typeahead[T]) Projection(item T) string { return t.cfg.Projection(item) }

// SelectOnTab reports the configured Tab behavior
func (t *Typeahead[T]) SelectOnTab() bool { return t.cfg.SelectOnTab }

// State returns the coarse dropdown state
func (t *Typeahead[T]) State() State {
	switch {
	case !t.focused:
		return StateIdle
	case t.visible:
		return StateOpen
	default:
		return StateClosedFocused
	}
}

// Highlighted returns the highlighted candidate when the dropdown is visible
func (t *Typeahead[T]) Highlighted() (T, bool) {
	var zero T
	if !t.visible || t.index < 0 || t.index >= len(t.candidates) {
		return zero, false
	}
	return t.candidates[t.index], true
}

// Snapshot is the derived state a renderer draws from
type Snapshot[T any] struct {
	Query            string
	Candidates       []T
	HighlightedIndex int
	Visible          bool
	Focused          bool
	State            State
}

// Snapshot returns the current render state
func (t *Typeahead[T]) Snapshot() Snapshot[T] {
	return Snapshot[T]{
		Query:            t.query,
		Candidates:       t.candidates,
		HighlightedIndex: t.index,
		Visible:          t.visible,
		Focused:          t.focused,
		State:            t.State(),
	}
}

// selectItem makes item the final selection: the query becomes its text,
// the index resets, the host is told, and the input loses focus.
func (t *Typeahead[T]) selectItem(item T) {
	t.query = t.cfg.Projection(item)
	t.index = 0
	t.recompute()
	t.log.V(1).Info("item committed", "query", t.query)
	if t.cfg.Events.SelectItem != nil {
		t.cfg.Events.SelectItem(item)
	}
	t.Blur()
}

// recompute derives the candidates from items and query, clamps the
// highlighted index and re-evaluates visibility.
func (t *Typeahead[T]) recompute() {
	t.candidates = t.matcher.Filter(t.items, t.query)
	if t.index >= len(t.candidates) {
		clamped := max(len(t.candidates)-1, 0)
		t.log.V(2).Info("highlight clamped", "from", t.index, "to", clamped)
		t.index = clamped
	}
	t.updateVisibility()
}

func (t *Typeahead[T]) updateVisibility() {
	t.visible = t.focused &&
		utf8.RuneCountInString(strings.TrimSpace(t.query)) >= t.cfg.MinInputLength &&
		len(t.candidates) > t.cfg.MinItemLength
}

func (t *Typeahead[T]) scroll() {
	if t.cfg.Scroller != nil {
		t.cfg.Scroller.ScrollIntoView(t.index)
	}
}
