package typeahead

import (
	"errors"
	"fmt"

	"github.com/go-logr/logr"
	"go.uber.org/multierr"

	"typeahead/internal/match"
)

// Validation errors returned (combined) by Config.Validate
var (
	ErrNegativeMinInputLength = errors.New("min input length must not be negative")
	ErrNegativeMinItemLength  = errors.New("min item length must not be negative")
)

// Events are the notifications a Typeahead sends to its host. Every field is
// optional.
type Events[T any] struct {
	// OnInput fires after the query changed and candidates were recomputed
	OnInput func(query string, filtered []T)

	// OnFocus fires when the input gains focus
	OnFocus func(query string, filtered []T)

	// OnBlur fires when the input loses focus
	OnBlur func(query string, filtered []T)

	// SelectItem fires once per committed item
	SelectItem func(item T)
}

// Scroller brings the dropdown row at index into view. Renderers implement
// it; the call is fire-and-forget and should be deferred until the row has
// been drawn.
type Scroller interface {
	ScrollIntoView(index int)
}

// ScrollFunc adapts a plain function to Scroller
type ScrollFunc func(index int)

// ScrollIntoView calls f(index)
func (f ScrollFunc) ScrollIntoView(index int) { f(index) }

// Config holds everything a Typeahead needs at construction.
// Start from DefaultConfig: the zero value disables SelectOnTab and uses a
// MinInputLength of 0.
type Config[T any] struct {
	// Items is the source candidate list. The caller owns it; use SetItems
	// after replacing it.
	Items []T

	// Projection maps an item to its display text (default fmt.Sprint)
	Projection match.Projection[T]

	// DefaultItem, when set, is committed during construction
	DefaultItem *T

	// MinInputLength is the trimmed query length (in runes) needed to show
	// the dropdown
	MinInputLength int

	// MinItemLength is the candidate count the dropdown must exceed to show
	MinItemLength int

	// SelectOnTab makes Tab commit the highlighted item instead of only
	// leaving the input
	SelectOnTab bool

	// TokenizedMatches switches the matcher to whitespace tokens ORed together
	TokenizedMatches bool

	Events   Events[T]
	Scroller Scroller
	Logger   logr.Logger
}

// DefaultConfig returns the default configuration for items
func DefaultConfig[T any](items []T) Config[T] {
	return Config[T]{
		Items:          items,
		MinInputLength: 2,
		MinItemLength:  0,
		SelectOnTab:    true,
	}
}

// Validate reports every invalid field at once
func (c Config[T]) Validate() error {
	var err error
	if c.MinInputLength < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: got %d", ErrNegativeMinInputLength, c.MinInputLength))
	}
	if c.MinItemLength < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: got %d", ErrNegativeMinItemLength, c.MinItemLength))
	}
	return err
}

func (c Config[T]) withDefaults() Config[T] {
	if c.Projection == nil {
		c.Projection = func(item T) string { return fmt.Sprint(item) }
	}
	if c.Logger.GetSink() == nil {
		c.Logger = logr.Discard()
	}
	return c
}
