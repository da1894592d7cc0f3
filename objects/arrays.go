package objects

import (
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/goccy/go-json"
)

// Unique removes duplicates, keeping the first occurrence. Primitives compare
// by value (numbers across Go numeric types); maps, slices and functions
// compare by identity. Values that are neither comparable nor reference
// types are always kept.
func Unique[T any](items []T) []T {
	seen := make(map[any]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		k, ok := identityKey(any(it))
		if !ok {
			out = append(out, it)
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	return out
}

// UniqueBy keeps the first element for every distinct key.
func UniqueBy[T any, K comparable](items []T, key func(T) K) []T {
	seen := make(map[K]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		k := key(it)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	return out
}

type refKey struct {
	typ reflect.Type
	ptr uintptr
	n   int
}

func identityKey(v any) (any, bool) {
	if v == nil {
		return nil, true
	}
	if k, ok := numberKey(v); ok {
		return k, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Func:
		return refKey{typ: rv.Type(), ptr: rv.Pointer()}, true
	case reflect.Slice:
		return refKey{typ: rv.Type(), ptr: rv.Pointer(), n: rv.Len()}, true
	}
	if rv.Comparable() {
		return v, true
	}
	return nil, false
}

type intKey struct{ i int64 }

type uintKey struct{ u uint64 }

// numberKey keys integers by their exact value so large int64 and uint64
// values stay distinct. Integral floats share the integer key.
func numberKey(v any) (any, bool) {
	if n, ok := v.(json.Number); ok {
		if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
			return intKey{i}, true
		}
		if u, err := strconv.ParseUint(string(n), 10, 64); err == nil {
			return uintKey{u}, true
		}
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return intKey{rv.Int()}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return uintKey{u}, true
		}
		return intKey{int64(u)}, true
	}
	f, ok := Number(v)
	if !ok || math.IsNaN(f) {
		return nil, false
	}
	if f == math.Trunc(f) && f >= -(1<<63) && f < 1<<63 {
		return intKey{int64(f)}, true
	}
	return f, true
}

// Flatten flattens nested slices up to depth levels. depth <= 0 returns a
// copy of items. Byte slices are not flattened.
func Flatten(items []any, depth int) []any {
	out := make([]any, 0, len(items))
	if depth <= 0 {
		return append(out, items...)
	}
	for _, it := range items {
		if inner, ok := asSlice(it); ok {
			out = append(out, Flatten(inner, depth-1)...)
			continue
		}
		out = append(out, it)
	}
	return out
}

func asSlice(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []byte, string, nil:
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

// Chunk splits items into consecutive slices of at most size elements.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 || len(items) == 0 {
		return [][]T{}
	}
	out := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end:end])
	}
	return out
}

func renderKey(v any) string {
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(v)
}
