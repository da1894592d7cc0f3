package transform

import (
	"reflect"

	"github.com/reoring/kairo"
	"github.com/reoring/kairo/objects"
)

// Entry binds an output key to the Spec that produces it.
type Entry struct {
	Key  string
	Spec Spec
}

// Mapping is an ordered list of entries; fields are resolved in declaration
// order.
type Mapping []Entry

// Field is shorthand for Entry{Key: key, Spec: spec}.
func Field(key string, spec Spec) Entry { return Entry{Key: key, Spec: spec} }

// NewMapping builds a Mapping from entries in the given order.
func NewMapping(entries ...Entry) Mapping { return Mapping(entries) }

// FromMap builds a Mapping from a Go map. Keys are resolved in ascending
// order since map iteration order is not defined.
func FromMap(m map[string]Spec) Mapping {
	out := make(Mapping, 0, len(m))
	for _, k := range objects.SortedKeys(m) {
		out = append(out, Entry{Key: k, Spec: m[k]})
	}
	return out
}

// Keys lists the output keys in declaration order.
func (m Mapping) Keys() []string {
	out := make([]string, len(m))
	for i, e := range m {
		out[i] = e.Key
	}
	return out
}

// Options configures Transform.
type Options struct {
	// Strict fails the whole transform on the first field error. Otherwise
	// the failing field is skipped.
	Strict bool
	// Defaults keeps undefined fields in the output as nil.
	Defaults bool
	// Values is handed to every rule through Context.Values.
	Values map[string]any
}

// Transform applies m to input. An array input (any slice or array except
// []byte) is mapped element by element and yields []any in input order; any
// other input yields a single map[string]any.
func Transform(input any, m Mapping, opts ...Options) kairo.Result[any] {
	var opt Options
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	return kairo.Guard(kairo.OpTransform, nil, func() kairo.Result[any] {
		if input == nil {
			return kairo.Failf[any](kairo.OpTransform, nil, "input is nil")
		}
		if items, ok := elements(input); ok {
			out, err := transformAll(items, input, m, opt)
			if err != nil {
				return kairo.Fail[any](err)
			}
			return kairo.Ok[any](out)
		}
		out, err := transformOne(input, -1, input, m, opt)
		if err != nil {
			return kairo.Fail[any](err)
		}
		return kairo.Ok[any](out)
	})
}

// Object transforms a single object.
func Object(input any, m Mapping, opts ...Options) kairo.Result[map[string]any] {
	if _, isArray := elements(input); isArray {
		return kairo.Failf[map[string]any](kairo.OpTransform, nil, "expected a single object, got an array")
	}
	return kairo.Then(Transform(input, m, opts...), func(v any) kairo.Result[map[string]any] {
		return kairo.Ok(v.(map[string]any))
	})
}

// Slice transforms every element of items; out[i] corresponds to items[i].
func Slice[T any](items []T, m Mapping, opts ...Options) kairo.Result[[]map[string]any] {
	var opt Options
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	return kairo.Guard(kairo.OpTransform, nil, func() kairo.Result[[]map[string]any] {
		out := make([]map[string]any, len(items))
		for i, it := range items {
			o, err := transformOne(it, i, items, m, opt)
			if err != nil {
				return kairo.Fail[[]map[string]any](err)
			}
			out[i] = o
		}
		return kairo.Ok(out)
	})
}

func elements(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []byte, nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func transformAll(items []any, root any, m Mapping, opt Options) ([]any, *kairo.Error) {
	out := make([]any, len(items))
	for i, it := range items {
		o, err := transformOne(it, i, root, m, opt)
		if err != nil {
			return nil, err
		}
		out[i] = o
	}
	return out, nil
}

func transformOne(input any, index int, root any, m Mapping, opt Options) (map[string]any, *kairo.Error) {
	out := make(map[string]any, len(m))
	for _, e := range m {
		c := Context{Index: index, Key: e.Key, Root: root, Values: opt.Values}
		v, err := apply(e.Spec, input, c)
		if err != nil {
			if opt.Strict {
				ctx := map[string]any{"field": e.Key}
				if index >= 0 {
					ctx["index"] = index
				}
				return nil, kairo.Errorf(kairo.OpTransform, err, ctx, "field %q: %s", e.Key, err.Error())
			}
			continue
		}
		if objects.IsUndefined(v) {
			if opt.Defaults {
				out[e.Key] = nil
			}
			continue
		}
		out[e.Key] = v
	}
	return out, nil
}
