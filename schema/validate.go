package schema

import (
	"fmt"
	"math"
	"reflect"
	"time"
	"unicode/utf8"

	"github.com/reoring/kairo"
	"github.com/reoring/kairo/i18n"
	"github.com/reoring/kairo/objects"
)

// ValidateOptions tunes a single validation.
type ValidateOptions struct {
	// Coerce enables coercion for this call even when the schema was built
	// without it.
	Coerce bool
	// FailFast stops at the first issue.
	FailFast bool
}

// Validate checks input against s and returns the validated value: declared
// fields (coerced when enabled, defaults applied) plus undeclared keys when
// the schema passes them through. A failure carries every issue found, with
// fields visited in ascending key order.
func (s *Schema) Validate(input any, opts ...ValidateOptions) kairo.Result[map[string]any] {
	if s == nil {
		return kairo.Failf[map[string]any](kairo.OpValidate, nil, "schema is nil")
	}
	var vo ValidateOptions
	if len(opts) > 0 {
		vo = opts[len(opts)-1]
	}
	return kairo.Guard(kairo.OpValidate, nil, func() kairo.Result[map[string]any] {
		vr := validator{coerce: s.opts.Coerce || vo.Coerce, failFast: vo.FailFast}
		out, iss := vr.object(s, input, objects.Path{})
		if len(iss) > 0 {
			return kairo.Fail[map[string]any](kairo.IssuesError(kairo.OpValidate, iss, nil))
		}
		return kairo.Ok(out)
	})
}

// Validate is the free-function form of (*Schema).Validate.
func Validate(input any, s *Schema, opts ...ValidateOptions) kairo.Result[map[string]any] {
	return s.Validate(input, opts...)
}

type validator struct {
	coerce   bool
	failFast bool
}

func newIssue(path objects.Path, code string, params map[string]any) kairo.Issue {
	data := make(map[string]string, len(params))
	for k, v := range params {
		data[k] = fmt.Sprint(v)
	}
	return kairo.Issue{Path: path.Pointer(), Code: code, Message: i18n.T(code, data), Params: params}
}

func typeIssue(path objects.Path, expected string, got any) kairo.Issue {
	return newIssue(path, kairo.CodeInvalidType, map[string]any{"expected": expected, "got": string(objects.InferType(got))})
}

func asObject(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	if objects.InferType(v) != objects.TypeObject {
		return nil, false
	}
	m, ok := objects.ToPlain(v).(map[string]any)
	return m, ok
}

func asArray(v any) ([]any, bool) {
	if a, ok := v.([]any); ok {
		return a, true
	}
	if objects.InferType(v) != objects.TypeArray {
		return nil, false
	}
	a, ok := objects.ToPlain(v).([]any)
	return a, ok
}

func (vr validator) object(s *Schema, input any, path objects.Path) (map[string]any, kairo.Issues) {
	m, ok := asObject(input)
	if !ok {
		return nil, kairo.Issues{typeIssue(path, string(objects.TypeObject), input)}
	}
	out := make(map[string]any, len(s.keys))
	var iss kairo.Issues
	for _, k := range s.keys {
		c := s.fields[k]
		fp := path.Child(k)
		raw, present := m[k]
		if present && objects.IsUndefined(raw) {
			present = false
		}
		if c.Type == objects.TypeUndefined {
			if present {
				iss = append(iss, typeIssue(fp, string(objects.TypeUndefined), raw))
				if vr.failFast {
					return nil, iss
				}
			}
			continue
		}
		if !present {
			switch {
			case c.deflt != nil:
				raw = c.deflt()
			case c.Required:
				iss = append(iss, newIssue(fp, kairo.CodeRequired, nil))
				if vr.failFast {
					return nil, iss
				}
				continue
			default:
				continue
			}
		}
		val, fi := validateValue(c, raw, fp, vr)
		if len(fi) > 0 {
			iss = append(iss, fi...)
			if vr.failFast {
				return nil, iss
			}
			continue
		}
		out[k] = val
	}
	for _, k := range objects.SortedKeys(m) {
		if _, declared := s.fields[k]; declared {
			continue
		}
		switch s.opts.Unknown {
		case UnknownStrict:
			iss = append(iss, newIssue(path.Child(k), kairo.CodeUnknownKey, map[string]any{"key": k}))
			if vr.failFast {
				return nil, iss
			}
		case UnknownPassthrough:
			out[k] = m[k]
		}
	}
	return out, iss
}

func validateValue(c *compiled, v any, path objects.Path, vr validator) (any, kairo.Issues) {
	if c.Type == TypeAny {
		return v, nil
	}
	if objects.IsUndefined(v) {
		return nil, kairo.Issues{typeIssue(path, string(c.Type), v)}
	}
	if objects.InferType(v) == objects.TypeNull {
		if c.Nullable || c.Type == objects.TypeNull {
			return nil, nil
		}
		return nil, kairo.Issues{typeIssue(path, string(c.Type), v)}
	}
	if vr.coerce {
		cv, err := coerce(v, c.Type)
		if err != nil {
			return nil, kairo.Issues{newIssue(path, kairo.CodeCoercion, map[string]any{
				"expected": string(c.Type),
				"got":      string(objects.InferType(v)),
				"cause":    err.Error(),
			})}
		}
		v = cv
	}
	switch c.Type {
	case objects.TypeString:
		return checkString(c, v, path)
	case objects.TypeNumber:
		return checkNumber(c, v, path)
	case objects.TypeBoolean:
		if b, ok := v.(bool); ok {
			return b, checkEnum(c, b, path)
		}
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Bool {
			return rv.Bool(), checkEnum(c, rv.Bool(), path)
		}
	case objects.TypeDate:
		return checkDate(c, v, path)
	case objects.TypeArray:
		return vr.array(c, v, path)
	case objects.TypeObject:
		if c.nested != nil {
			return vr.object(c.nested, v, path)
		}
		if m, ok := asObject(v); ok {
			return m, nil
		}
	}
	return nil, kairo.Issues{typeIssue(path, string(c.Type), v)}
}

func checkString(c *compiled, v any, path objects.Path) (any, kairo.Issues) {
	s, ok := v.(string)
	if !ok {
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.String {
			return nil, kairo.Issues{typeIssue(path, string(objects.TypeString), v)}
		}
		s = rv.String()
	}
	var iss kairo.Issues
	n := utf8.RuneCountInString(s)
	iss = append(iss, checkSize(c, float64(n), path, kairo.CodeTooShort, kairo.CodeTooLong)...)
	if c.re != nil && !c.re.MatchString(s) {
		iss = append(iss, newIssue(path, kairo.CodePattern, map[string]any{"pattern": c.Pattern}))
	}
	if c.Format != "" && !formatCheckers[c.Format](s) {
		iss = append(iss, newIssue(path, kairo.CodeInvalidFormat, map[string]any{"format": string(c.Format)}))
	}
	iss = append(iss, checkEnum(c, s, path)...)
	return s, iss
}

// checkSize applies Length, Min and Max to a string length or array size.
func checkSize(c *compiled, n float64, path objects.Path, short, long string) kairo.Issues {
	var iss kairo.Issues
	if c.Length != nil && int(n) != *c.Length {
		iss = append(iss, newIssue(path, kairo.CodeInvalidLength, map[string]any{"length": *c.Length, "got": int(n)}))
	}
	if c.Min != nil && n < *c.Min {
		iss = append(iss, newIssue(path, short, map[string]any{"min": *c.Min, "got": int(n)}))
	}
	if c.Max != nil && n > *c.Max {
		iss = append(iss, newIssue(path, long, map[string]any{"max": *c.Max, "got": int(n)}))
	}
	return iss
}

func checkBounds(c *compiled, f float64, path objects.Path) kairo.Issues {
	var iss kairo.Issues
	if c.Min != nil && f < *c.Min {
		iss = append(iss, newIssue(path, kairo.CodeTooSmall, map[string]any{"min": *c.Min, "got": f}))
	}
	if c.Max != nil && f > *c.Max {
		iss = append(iss, newIssue(path, kairo.CodeTooBig, map[string]any{"max": *c.Max, "got": f}))
	}
	return iss
}

func checkNumber(c *compiled, v any, path objects.Path) (any, kairo.Issues) {
	f, ok := objects.Number(v)
	if !ok || math.IsNaN(f) {
		return nil, kairo.Issues{typeIssue(path, string(objects.TypeNumber), v)}
	}
	if c.Integer && f != math.Trunc(f) {
		return nil, kairo.Issues{newIssue(path, kairo.CodeInvalidType, map[string]any{"expected": "integer", "got": "number"})}
	}
	iss := checkBounds(c, f, path)
	iss = append(iss, checkEnum(c, v, path)...)
	return v, iss
}

func checkDate(c *compiled, v any, path objects.Path) (any, kairo.Issues) {
	var t time.Time
	switch d := v.(type) {
	case time.Time:
		t = d
	case *time.Time:
		t = *d
	default:
		return nil, kairo.Issues{typeIssue(path, string(objects.TypeDate), v)}
	}
	return t, checkBounds(c, float64(t.UnixMilli()), path)
}

func (vr validator) array(c *compiled, v any, path objects.Path) (any, kairo.Issues) {
	items, ok := asArray(v)
	if !ok {
		return nil, kairo.Issues{typeIssue(path, string(objects.TypeArray), v)}
	}
	iss := checkSize(c, float64(len(items)), path, kairo.CodeTooShort, kairo.CodeTooLong)
	if c.items == nil {
		return items, iss
	}
	out := make([]any, len(items))
	for i, it := range items {
		val, ei := validateValue(c.items, it, path.Index(i), vr)
		if len(ei) > 0 {
			iss = append(iss, ei...)
			if vr.failFast {
				break
			}
			continue
		}
		out[i] = val
	}
	return out, iss
}

func checkEnum(c *compiled, v any, path objects.Path) kairo.Issues {
	if len(c.Enum) == 0 || inEnum(v, c.Enum) {
		return nil
	}
	return kairo.Issues{newIssue(path, kairo.CodeInvalidEnum, map[string]any{"enum": c.Enum})}
}

func inEnum(v any, enum []any) bool {
	a, numeric := objects.Number(v)
	for _, e := range enum {
		if numeric {
			if b, ok := objects.Number(e); ok && a == b {
				return true
			}
			continue
		}
		if reflect.DeepEqual(v, e) {
			return true
		}
	}
	return false
}
