package aggregate

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/reoring/kairo/objects"
)

// Key computes the group key of an element.
type Key struct {
	fields []objects.Path
	fn     func(item any) (string, error)
}

// By groups on one or more fields (paths allowed). The rendered values of
// several fields are joined with "-".
func By(fields ...string) Key {
	k := Key{fields: make([]objects.Path, len(fields))}
	for i, f := range fields {
		k.fields[i] = objects.ParsePath(f)
	}
	return k
}

// ByFunc groups on the string returned by fn.
func ByFunc(fn func(item any) (string, error)) Key { return Key{fn: fn} }

// IsZero reports whether k has neither fields nor a function.
func (k Key) IsZero() bool { return len(k.fields) == 0 && k.fn == nil }

// String describes k for error context.
func (k Key) String() string {
	if k.fn != nil {
		return "func"
	}
	parts := make([]string, len(k.fields))
	for i, f := range k.fields {
		parts[i] = f.String()
	}
	return strings.Join(parts, ",")
}

func (k Key) of(item any) (string, error) {
	if k.fn != nil {
		return k.fn(item)
	}
	if len(k.fields) == 1 {
		return render(objects.Get(item, k.fields[0])), nil
	}
	parts := make([]string, len(k.fields))
	for i, f := range k.fields {
		parts[i] = render(objects.Get(item, f))
	}
	return strings.Join(parts, "-"), nil
}

// render turns a field value into its group key form: "undefined" for a
// missing field, "null" for nil, numbers in shortest decimal form and
// composite values as JSON.
func render(v any, present bool) string {
	if !present {
		return "undefined"
	}
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return t.String()
	case fmt.Stringer:
		return t.String()
	}
	if f, ok := objects.Number(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	}
	if b, err := json.Marshal(v); err == nil {
		return string(b)
	}
	return fmt.Sprint(v)
}
