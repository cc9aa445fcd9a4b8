package match

import (
	"strings"

	"github.com/dlclark/regexp2"
)

// Projection turns an item into the text it is matched and displayed by
type Projection[T any] func(T) string

// Filter returns the items whose projected text matches query.
// A blank query returns items unchanged. Order is preserved and items is
// never modified.
func Filter[T any](items []T, query string, project Projection[T], tokenized bool) []T {
	return New(project, tokenized).Filter(items, query)
}

// Tokens splits query on runs of whitespace, dropping empty tokens
func Tokens(query string) []string {
	return strings.Fields(strings.TrimSpace(query))
}

// Matcher filters items for one projection and match mode.
// It keeps the compiled pattern of the last non-tokenized query so that
// repeated filtering while the user types does not recompile per call.
type Matcher[T any] struct {
	project   Projection[T]
	tokenized bool

	lastQuery string
	lastRe    *regexp2.Regexp
}

// New creates a Matcher
func New[T any](project Projection[T], tokenized bool) *Matcher[T] {
	return &Matcher[T]{
		project:   project,
		tokenized: tokenized,
	}
}

// Filter returns the subsequence of items matching query
func (m *Matcher[T]) Filter(items []T, query string) []T {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return items
	}

	var keep func(string) bool
	if m.tokenized {
		tokens := lowerAll(Tokens(trimmed))
		keep = func(text string) bool {
			return containsAny(strings.ToLower(text), tokens)
		}
	} else {
		keep = m.literal(trimmed)
	}

	result := make([]T, 0, len(items))
	for _, item := range items {
		if keep(m.project(item)) {
			result = append(result, item)
		}
	}
	return result
}

// literal builds a case-insensitive literal substring test for query.
// The query is escaped before compiling so metacharacters never act as
// pattern syntax.
func (m *Matcher[T]) literal(query string) func(string) bool {
	re := m.compiled(query)
	if re == nil {
		lower := strings.ToLower(query)
		return func(text string) bool {
			return strings.Contains(strings.ToLower(text), lower)
		}
	}
	return func(text string) bool {
		ok, err := re.MatchString(text)
		if err != nil {
			return strings.Contains(strings.ToLower(text), strings.ToLower(query))
		}
		return ok
	}
}

func (m *Matcher[T]) compiled(query string) *regexp2.Regexp {
	if m.lastRe != nil && m.lastQuery == query {
		return m.lastRe
	}
	re, err := compileLiteral(query)
	if err != nil {
		return nil
	}
	m.lastQuery = query
	m.lastRe = re
	return re
}

// compileLiteral compiles s as an escaped, case-insensitive pattern
func compileLiteral(s string) (*regexp2.Regexp, error) {
	return regexp2.Compile(regexp2.Escape(s), regexp2.IgnoreCase)
}

func lowerAll(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = strings.ToLower(t)
	}
	return out
}

func containsAny(text string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}
