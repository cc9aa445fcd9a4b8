package source

import (
	"fmt"
	"sort"
	"strings"
)

// Format is the layout of an items file
type Format int

const (
	FormatAuto  Format = iota // pick from the extension, then the content
	FormatText                // one item per line
	FormatJSONL               // one JSON object (or scalar) per line
	FormatYAML                // a YAML sequence
)

func (f Format) String() string {
	switch f {
	case FormatAuto:
		return "auto"
	case FormatText:
		return "text"
	case FormatJSONL:
		return "jsonl"
	case FormatYAML:
		return "yaml"
	}
	return "unknown"
}

// ParseFormat maps a --format flag value to a Format
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "text", "txt", "lines":
		return FormatText, nil
	case "jsonl", "ndjson", "json":
		return FormatJSONL, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return FormatAuto, fmt.Errorf("unknown format %q", s)
}

// Record is one candidate item read from a source
type Record struct {
	Line   int            // 1-indexed line (text/JSONL) or sequence index + 1 (YAML)
	Raw    string         // original line, or the scalar value
	Fields map[string]any // structured fields; nil for plain text and scalars
}

// Text returns the display text of r: the named field when present, else
// the first scalar field in key order, else Raw.
func (r Record) Text(field string) string {
	if r.Fields == nil {
		return r.Raw
	}
	if field != "" {
		if v, ok := r.Fields[field]; ok && isScalar(v) {
			return fmt.Sprint(v)
		}
	}

	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := r.Fields[k]; isScalar(v) {
			return fmt.Sprint(v)
		}
	}
	return r.Raw
}

// Projector returns the projection used to match and display records
func Projector(field string) func(Record) string {
	return func(r Record) string { return r.Text(field) }
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, bool, int, int64, uint64, float64:
		return true
	}
	return false
}
