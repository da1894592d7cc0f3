package objects

import (
	"reflect"
	"strings"
	"sync"
)

// ResolveStructKey returns the external key of a struct field.
// Priority: kairo:"name=..." > json tag name > field name; "-" disables the field.
func ResolveStructKey(sf reflect.StructField) string {
	if kt := sf.Tag.Get("kairo"); kt != "" {
		for _, p := range strings.Split(kt, ",") {
			p = strings.TrimSpace(p)
			if strings.HasPrefix(p, "name=") {
				return strings.TrimPrefix(p, "name=")
			}
		}
	}
	if jt := sf.Tag.Get("json"); jt != "" {
		if jt == "-" {
			return "-"
		}
		if i := strings.IndexByte(jt, ','); i >= 0 {
			if i == 0 {
				return sf.Name
			}
			return jt[:i]
		}
		return jt
	}
	return sf.Name
}

type structKey struct {
	name  string
	index int
}

var structKeyCache sync.Map // reflect.Type -> []structKey

// structKeys lists the exported, addressable fields of t with their resolved
// keys, in declaration order.
func structKeys(t reflect.Type) []structKey {
	if v, ok := structKeyCache.Load(t); ok {
		return v.([]structKey)
	}
	keys := make([]structKey, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		k := ResolveStructKey(sf)
		if k == "-" {
			continue
		}
		keys = append(keys, structKey{name: k, index: i})
	}
	structKeyCache.Store(t, keys)
	return keys
}

func structFieldIndex(t reflect.Type, key string) (int, bool) {
	for _, sk := range structKeys(t) {
		if sk.name == key {
			return sk.index, true
		}
	}
	return 0, false
}

// ToPlain converts typed maps, slices, structs and pointers into the
// JSON-like representation (map[string]any, []any, primitives) used across
// the engine. Cycles are preserved in the output.
func ToPlain(v any) any {
	c := newCloner(CloneOptions{PreservePrototype: false, HandleCircular: true})
	out, err := c.cloneAny(v)
	if err != nil {
		return v
	}
	return out
}

var basicTypes = map[reflect.Kind]reflect.Type{
	reflect.Bool:    reflect.TypeOf(false),
	reflect.String:  reflect.TypeOf(""),
	reflect.Int:     reflect.TypeOf(int(0)),
	reflect.Int8:    reflect.TypeOf(int8(0)),
	reflect.Int16:   reflect.TypeOf(int16(0)),
	reflect.Int32:   reflect.TypeOf(int32(0)),
	reflect.Int64:   reflect.TypeOf(int64(0)),
	reflect.Uint:    reflect.TypeOf(uint(0)),
	reflect.Uint8:   reflect.TypeOf(uint8(0)),
	reflect.Uint16:  reflect.TypeOf(uint16(0)),
	reflect.Uint32:  reflect.TypeOf(uint32(0)),
	reflect.Uint64:  reflect.TypeOf(uint64(0)),
	reflect.Float32: reflect.TypeOf(float32(0)),
	reflect.Float64: reflect.TypeOf(float64(0)),
}

// toBasic converts a named primitive (type Status string) to its underlying
// basic type. Other values are returned unchanged.
func toBasic(rv reflect.Value) any {
	if bt, ok := basicTypes[rv.Kind()]; ok && rv.Type() != bt {
		return rv.Convert(bt).Interface()
	}
	return rv.Interface()
}
