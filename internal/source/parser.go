package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// maxFileSize guards against loading something that is clearly not a list
var maxFileSize int64 = 64 << 20

// ErrTooLarge is returned for items larger than the read limit
var ErrTooLarge = errors.New("items too large")

// readLimited reads all of r, failing with ErrTooLarge past maxFileSize
func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxFileSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxFileSize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, maxFileSize)
	}
	return data, nil
}

// DetectFormat picks a format from the file extension, then from the first
// non-blank byte of head.
func DetectFormat(path string, head []byte) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson", ".json":
		return FormatJSONL
	case ".yaml", ".yml":
		return FormatYAML
	case ".txt", ".list":
		return FormatText
	}

	trimmed := bytes.TrimSpace(head)
	switch {
	case bytes.HasPrefix(trimmed, []byte("{")):
		return FormatJSONL
	case bytes.HasPrefix(trimmed, []byte("- ")), bytes.HasPrefix(trimmed, []byte("---")):
		return FormatYAML
	}
	return FormatText
}

// Parse reads every record from r
func Parse(r io.Reader, format Format) ([]Record, error) {
	data, err := readLimited(r)
	if err != nil {
		return nil, fmt.Errorf("read items: %w", err)
	}
	if format == FormatAuto {
		format = DetectFormat("", data)
	}

	if format == FormatYAML {
		return parseYAML(data)
	}
	records, _, _, err := parseLines(data, 0, true, format)
	return records, err
}

// Load reads every record from the file at path
func Load(path string, format Format) ([]Record, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open items: %w", err)
	}
	defer f.Close()

	data, err := readLimited(f)
	if err != nil {
		return nil, fmt.Errorf("read items %s: %w", path, err)
	}
	if format == FormatAuto {
		format = DetectFormat(path, data)
	}
	return Parse(bytes.NewReader(data), format)
}

// LoadFrom parses the complete lines appended to a line-oriented file after
// offset. It returns the new records and the offset and line number to
// resume from; a trailing partial line is left for the next call.
func LoadFrom(path string, format Format, offset int64, startLine int) ([]Record, int64, int, error) {
	if format == FormatYAML {
		return nil, offset, startLine, fmt.Errorf("yaml items cannot be read incrementally")
	}

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, offset, startLine, fmt.Errorf("open items: %w", err)
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, offset, startLine, fmt.Errorf("seek items: %w", err)
	}
	data, err := io.ReadAll(io.LimitReader(f, maxFileSize))
	if err != nil {
		return nil, offset, startLine, fmt.Errorf("read items %s: %w", path, err)
	}
	if format == FormatAuto {
		format = DetectFormat(path, data)
	}

	records, consumed, line, err := parseLines(data, startLine, false, format)
	return records, offset + int64(consumed), line, err
}

// parseLines splits data into lines and parses each one. When final is false
// an unterminated last line is not consumed.
func parseLines(data []byte, startLine int, final bool, format Format) ([]Record, int, int, error) {
	var records []Record
	consumed := 0
	line := startLine

	for consumed < len(data) {
		rest := data[consumed:]
		nl := bytes.IndexByte(rest, '\n')
		var raw []byte
		if nl < 0 {
			if !final {
				break
			}
			raw = rest
			consumed = len(data)
		} else {
			raw = rest[:nl]
			consumed += nl + 1
		}
		line++

		raw = bytes.TrimRight(raw, "\r")
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}

		rec, err := parseLine(raw, line, format)
		if err != nil {
			return records, consumed, line, err
		}
		records = append(records, rec)
	}
	return records, consumed, line, nil
}

func parseLine(raw []byte, line int, format Format) (Record, error) {
	rec := Record{Line: line, Raw: string(raw)}
	if format != FormatJSONL {
		return rec, nil
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return rec, fmt.Errorf("line %d: %w", line, err)
	}
	switch val := v.(type) {
	case map[string]any:
		rec.Fields = val
	case string:
		rec.Raw = val
	case nil:
		rec.Raw = ""
	default:
		rec.Raw = fmt.Sprint(val)
	}
	return rec, nil
}

func parseYAML(data []byte) ([]Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var seq []any
	if err := yaml.Unmarshal(data, &seq); err != nil {
		return nil, fmt.Errorf("parse yaml items: %w", err)
	}

	records := make([]Record, 0, len(seq))
	for i, v := range seq {
		rec := Record{Line: i + 1}
		switch val := v.(type) {
		case map[string]any:
			rec.Fields = val
			rec.Raw = strings.TrimSpace(mustYAML(val))
		case nil:
			continue
		default:
			rec.Raw = fmt.Sprint(val)
		}
		records = append(records, rec)
	}
	return records, nil
}

func mustYAML(v any) string {
	out, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(out)
}
