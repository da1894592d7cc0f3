package objects

import (
	"reflect"
	"sort"
)

type undefined struct{}

func (undefined) String() string { return "undefined" }

// Undefined marks the absence of a value. Callbacks return it to signal
// "no value" where nil would mean an explicit null.
var Undefined any = undefined{}

// IsUndefined reports whether v is the Undefined sentinel.
func IsUndefined(v any) bool {
	_, ok := v.(undefined)
	return ok
}

// Get walks path and returns the value found there. It reports false as soon
// as an intermediate value is nil or not addressable; it never panics.
func Get(v any, path Path) (any, bool) {
	cur := v
	for _, seg := range path {
		next, ok := child(cur, seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	if IsUndefined(cur) {
		return nil, false
	}
	return cur, true
}

// GetOr returns the value at path or def when it is missing.
func GetOr(v any, path Path, def any) any {
	if got, ok := Get(v, path); ok {
		return got
	}
	return def
}

// Has reports whether every segment of path exists. A present nil terminal
// value counts as present.
func Has(v any, path Path) bool {
	_, ok := Get(v, path)
	return ok
}

func child(cur any, seg string) (any, bool) {
	switch c := cur.(type) {
	case nil:
		return nil, false
	case map[string]any:
		v, ok := c[seg]
		return v, ok
	case []any:
		i, ok := index(seg)
		if !ok || i >= len(c) {
			return nil, false
		}
		return c[i], true
	}
	return childReflect(reflect.ValueOf(cur), seg)
}

func childReflect(rv reflect.Value, seg string) (any, bool) {
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		mv := rv.MapIndex(reflect.ValueOf(seg).Convert(rv.Type().Key()))
		if !mv.IsValid() {
			return nil, false
		}
		return mv.Interface(), true
	case reflect.Slice, reflect.Array:
		i, ok := index(seg)
		if !ok || i >= rv.Len() {
			return nil, false
		}
		return rv.Index(i).Interface(), true
	case reflect.Struct:
		fi, ok := structFieldIndex(rv.Type(), seg)
		if !ok {
			return nil, false
		}
		return rv.Field(fi).Interface(), true
	}
	return nil, false
}

// Set returns a new root with value stored at path. Only the containers along
// the path are copied; siblings are shared by reference. Typed maps, slices
// and structs keep their type when the new child fits it and otherwise
// become map[string]any or []any with every sibling carried over. Missing
// intermediates are created as maps, and a scalar intermediate is replaced
// by a fresh map.
func Set(root any, path Path, value any) any {
	if len(path) == 0 {
		return value
	}
	seg, rest := path[0], path[1:]
	switch c := root.(type) {
	case nil:
	case map[string]any:
		out := make(map[string]any, len(c)+1)
		for k, v := range c {
			out[k] = v
		}
		out[seg] = Set(c[seg], rest, value)
		return out
	case []any:
		if i, ok := index(seg); ok {
			n := len(c)
			if i >= n {
				n = i + 1
			}
			out := make([]any, n)
			copy(out, c)
			var prev any
			if i < len(c) {
				prev = c[i]
			}
			out[i] = Set(prev, rest, value)
			return out
		}
	default:
		if out, ok := setReflect(reflect.ValueOf(root), seg, rest, value); ok {
			return out
		}
	}
	return map[string]any{seg: Set(nil, rest, value)}
}

func setReflect(rv reflect.Value, seg string, rest Path, value any) (any, bool) {
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
			return nil, false
		}
		if out, ok := setStruct(rv.Elem(), seg, rest, value); ok {
			p := reflect.New(out.Type())
			p.Elem().Set(out)
			return p.Interface(), true
		}
		return setPlain(shallowPlain(rv.Elem()), seg, rest, value)
	case reflect.Struct:
		if out, ok := setStruct(rv, seg, rest, value); ok {
			return out.Interface(), true
		}
		return setPlain(shallowPlain(rv), seg, rest, value)
	case reflect.Map:
		kt := rv.Type().Key()
		if kt.Kind() != reflect.String {
			return nil, false
		}
		key := reflect.ValueOf(seg).Convert(kt)
		var prev any
		if mv := rv.MapIndex(key); mv.IsValid() {
			prev = mv.Interface()
		}
		next := Set(prev, rest, value)
		if nv, ok := assignable(next, rv.Type().Elem()); ok {
			out := reflect.MakeMapWithSize(rv.Type(), rv.Len()+1)
			iter := rv.MapRange()
			for iter.Next() {
				out.SetMapIndex(iter.Key(), iter.Value())
			}
			out.SetMapIndex(key, nv)
			return out.Interface(), true
		}
		return setPlain(shallowPlain(rv), seg, rest, value)
	case reflect.Slice, reflect.Array:
		i, ok := index(seg)
		if !ok {
			return nil, false
		}
		if i < rv.Len() {
			next := Set(rv.Index(i).Interface(), rest, value)
			if nv, ok := assignable(next, rv.Type().Elem()); ok {
				var out reflect.Value
				if rv.Kind() == reflect.Array {
					out = reflect.New(rv.Type()).Elem()
					out.Set(rv)
				} else {
					out = reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
					reflect.Copy(out, rv)
				}
				out.Index(i).Set(nv)
				return out.Interface(), true
			}
		}
		return setPlain(shallowPlain(rv), seg, rest, value)
	}
	return nil, false
}

// setStruct copies rv and stores the new child in the field named seg. It
// fails when there is no such field or the child does not fit its type.
func setStruct(rv reflect.Value, seg string, rest Path, value any) (reflect.Value, bool) {
	fi, ok := structFieldIndex(rv.Type(), seg)
	if !ok {
		return reflect.Value{}, false
	}
	field := rv.Type().Field(fi)
	nv, ok := assignable(Set(rv.Field(fi).Interface(), rest, value), field.Type)
	if !ok {
		return reflect.Value{}, false
	}
	out := reflect.New(rv.Type()).Elem()
	out.Set(rv)
	out.Field(fi).Set(nv)
	return out, true
}

func setPlain(plain any, seg string, rest Path, value any) (any, bool) {
	if plain == nil {
		return nil, false
	}
	return Set(plain, append(Path{seg}, rest...), value), true
}

func assignable(v any, t reflect.Type) (reflect.Value, bool) {
	if v == nil {
		switch t.Kind() {
		case reflect.Interface, reflect.Map, reflect.Slice, reflect.Pointer, reflect.Func, reflect.Chan:
			return reflect.Zero(t), true
		}
		return reflect.Value{}, false
	}
	if IsUndefined(v) {
		return reflect.Value{}, false
	}
	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(t) {
		return reflect.Value{}, false
	}
	return rv, true
}

// shallowPlain converts one level of a typed container to map[string]any or
// []any. Children are shared, not converted.
func shallowPlain(rv reflect.Value) any {
	switch rv.Kind() {
	case reflect.Struct:
		keys := structKeys(rv.Type())
		out := make(map[string]any, len(keys)+1)
		for _, sk := range keys {
			out[sk.name] = rv.Field(sk.index).Interface()
		}
		return out
	case reflect.Map:
		out := make(map[string]any, rv.Len()+1)
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = iter.Value().Interface()
		}
		return out
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out
	}
	return nil
}

// Delete returns a new root without the value at path. When path does not
// exist the root is returned unchanged.
func Delete(root any, path Path) any {
	if len(path) == 0 || !Has(root, path) {
		return root
	}
	seg, rest := path[0], path[1:]
	switch c := root.(type) {
	case map[string]any:
		out := make(map[string]any, len(c))
		for k, v := range c {
			out[k] = v
		}
		if len(rest) == 0 {
			delete(out, seg)
		} else {
			out[seg] = Delete(c[seg], rest)
		}
		return out
	case []any:
		i, _ := index(seg)
		if len(rest) == 0 {
			out := make([]any, 0, len(c)-1)
			out = append(out, c[:i]...)
			return append(out, c[i+1:]...)
		}
		out := make([]any, len(c))
		copy(out, c)
		out[i] = Delete(c[i], rest)
		return out
	}
	return root
}

// Pick returns a new map holding only the listed keys that exist in m.
func Pick(m map[string]any, keys ...string) map[string]any {
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		if v, ok := m[k]; ok {
			out[k] = v
		}
	}
	return out
}

// Omit returns a new map without the listed keys.
func Omit(m map[string]any, keys ...string) map[string]any {
	drop := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		drop[k] = struct{}{}
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if _, skip := drop[k]; !skip {
			out[k] = v
		}
	}
	return out
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
