// Package codec serializes engine values to wire formats and parses them
// back through a schema.
package codec

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/reoring/kairo"
	"github.com/reoring/kairo/objects"
	"github.com/reoring/kairo/schema"
)

// Format names a wire format.
type Format string

const (
	JSON Format = "json"
	CSV  Format = "csv"
	// XML and YAML are reserved; both fail with "not implemented".
	XML  Format = "xml"
	YAML Format = "yaml"
)

// ParseFormat resolves a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case JSON, CSV, XML, YAML:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q", s)
}

// SerializeOptions configures Serialize.
type SerializeOptions struct {
	// Pretty indents JSON output by two spaces.
	Pretty bool
	// SkipHeader omits the CSV header row.
	SkipHeader bool
	// Delimiter separates CSV cells; ',' when zero.
	Delimiter rune
	// Columns fixes the CSV columns and their order. By default the sorted
	// union of all keys is used.
	Columns []string
}

// DeserializeOptions configures Deserialize.
type DeserializeOptions struct {
	Delimiter rune
	// Coerce enables coercion for JSON input. CSV input is always coerced
	// since every cell arrives as a string.
	Coerce   bool
	FailFast bool
	// RejectDuplicateKeys fails JSON input in which an object repeats a
	// key, reporting each repetition as a duplicate_key issue.
	RejectDuplicateKeys bool
}

func notImplemented[T any](op kairo.Op, f Format) kairo.Result[T] {
	return kairo.Failf[T](op, map[string]any{"format": string(f)}, "format %q is not implemented", f)
}

// Serialize encodes input as format. CSV accepts only a collection of
// objects; cells are quoted as needed so values may contain delimiters,
// quotes and newlines.
func Serialize(input any, format Format, opts ...SerializeOptions) kairo.Result[[]byte] {
	var opt SerializeOptions
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	return kairo.Guard(kairo.OpSerialize, nil, func() kairo.Result[[]byte] {
		switch format {
		case JSON:
			var (
				b   []byte
				err error
			)
			if opt.Pretty {
				b, err = json.MarshalIndent(input, "", "  ")
			} else {
				b, err = json.Marshal(input)
			}
			if err != nil {
				return kairo.Fail[[]byte](kairo.Errorf(kairo.OpSerialize, err, map[string]any{"format": string(format)}, "encode json: %s", err.Error()))
			}
			return kairo.Ok(b)
		case CSV:
			b, err := encodeCSV(input, opt)
			if err != nil {
				return kairo.Fail[[]byte](kairo.Errorf(kairo.OpSerialize, err, map[string]any{"format": string(format)}, "encode csv: %s", err.Error()))
			}
			return kairo.Ok(b)
		case XML, YAML:
			return notImplemented[[]byte](kairo.OpSerialize, format)
		}
		return kairo.Failf[[]byte](kairo.OpSerialize, map[string]any{"format": string(format)}, "unsupported format %q", format)
	})
}

func encodeCSV(input any, opt SerializeOptions) ([]byte, error) {
	items, ok := objects.ToPlain(input).([]any)
	if !ok {
		return nil, fmt.Errorf("expected an array of objects, got %s", objects.InferType(input))
	}
	rows := make([]map[string]any, len(items))
	union := map[string]struct{}{}
	for i, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("element %d is %s, not an object", i, objects.InferType(it))
		}
		rows[i] = m
		for k := range m {
			union[k] = struct{}{}
		}
	}
	cols := opt.Columns
	if len(cols) == 0 {
		cols = objects.SortedKeys(union)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if opt.Delimiter != 0 {
		w.Comma = opt.Delimiter
	}
	if !opt.SkipHeader {
		if err := w.Write(cols); err != nil {
			return nil, err
		}
	}
	record := make([]string, len(cols))
	for _, row := range rows {
		for j, c := range cols {
			record[j] = cell(row[c])
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func cell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	}
	if objects.IsUndefined(v) {
		return ""
	}
	if f, ok := objects.Number(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// Deserialize parses data and, when s is not nil, validates the result
// against s. A collection is validated element by element and fails with
// one aggregated record whose issue paths start with the element index.
func Deserialize(data []byte, format Format, s *schema.Schema, opts ...DeserializeOptions) kairo.Result[any] {
	var opt DeserializeOptions
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	return kairo.Guard(kairo.OpDeserialize, nil, func() kairo.Result[any] {
		var (
			parsed any
			err    error
		)
		vo := schema.ValidateOptions{Coerce: opt.Coerce, FailFast: opt.FailFast}
		switch format {
		case JSON:
			err = json.Unmarshal(data, &parsed)
			if err == nil && opt.RejectDuplicateKeys {
				var dups kairo.Issues
				if dups, err = duplicateKeys(data, opt.FailFast); err == nil && len(dups) > 0 {
					return kairo.Fail[any](kairo.IssuesError(kairo.OpDeserialize, dups, map[string]any{"format": string(format)}))
				}
			}
		case CSV:
			parsed, err = decodeCSV(data, opt)
			vo.Coerce = true
		case XML, YAML:
			return notImplemented[any](kairo.OpDeserialize, format)
		default:
			return kairo.Failf[any](kairo.OpDeserialize, map[string]any{"format": string(format)}, "unsupported format %q", format)
		}
		if err != nil {
			return kairo.Fail[any](kairo.Errorf(kairo.OpDeserialize, err, map[string]any{"format": string(format)}, "decode %s: %s", format, err.Error()))
		}
		if s == nil {
			return kairo.Ok(parsed)
		}
		return validate(parsed, s, vo)
	})
}

func validate(parsed any, s *schema.Schema, vo schema.ValidateOptions) kairo.Result[any] {
	items, isArray := parsed.([]any)
	if !isArray {
		return kairo.Map(s.Validate(parsed, vo), func(m map[string]any) any { return m })
	}
	out := make([]any, len(items))
	var all kairo.Issues
	for i, it := range items {
		r := s.Validate(it, vo)
		if v, ok := r.Value(); ok {
			out[i] = v
			continue
		}
		iss, ok := kairo.AsIssues(r.Err())
		if !ok {
			return kairo.Fail[any](r.Err())
		}
		for _, is := range iss {
			is.Path = "/" + strconv.Itoa(i) + strings.TrimSuffix(is.Path, "/")
			all = append(all, is)
		}
		if vo.FailFast {
			break
		}
	}
	if len(all) > 0 {
		return kairo.Fail[any](kairo.IssuesError(kairo.OpValidate, all, map[string]any{"records": len(items)}))
	}
	return kairo.Ok[any](out)
}

// decodeCSV reads a header row followed by records. Empty cells are treated
// as absent fields.
func decodeCSV(data []byte, opt DeserializeOptions) ([]any, error) {
	r := csv.NewReader(bytes.NewReader(data))
	if opt.Delimiter != 0 {
		r.Comma = opt.Delimiter
	}
	header, err := r.Read()
	if err == io.EOF {
		return []any{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := []any{}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		row := make(map[string]any, len(header))
		for i, h := range header {
			if i < len(rec) && rec[i] != "" {
				row[h] = rec[i]
			}
		}
		out = append(out, row)
	}
}
