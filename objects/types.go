package objects

import (
	"math"
	"reflect"
	"time"

	"github.com/goccy/go-json"
)

// Type is the coarse type tag shared by type inference and schema fields.
type Type string

const (
	TypeString    Type = "string"
	TypeNumber    Type = "number"
	TypeBoolean   Type = "boolean"
	TypeArray     Type = "array"
	TypeObject    Type = "object"
	TypeDate      Type = "date"
	TypeNull      Type = "null"
	TypeUndefined Type = "undefined"
)

// Valid reports whether t is one of the known type tags.
func (t Type) Valid() bool {
	switch t {
	case TypeString, TypeNumber, TypeBoolean, TypeArray, TypeObject, TypeDate, TypeNull, TypeUndefined:
		return true
	}
	return false
}

var timeType = reflect.TypeOf(time.Time{})

// InferType classifies v. Arrays and dates are recognised ahead of the
// generic object bucket.
func InferType(v any) Type {
	switch t := v.(type) {
	case nil:
		return TypeNull
	case undefined:
		return TypeUndefined
	case string:
		return TypeString
	case bool:
		return TypeBoolean
	case time.Time:
		return TypeDate
	case *time.Time:
		if t == nil {
			return TypeNull
		}
		return TypeDate
	case json.Number:
		return TypeNumber
	case []any:
		return TypeArray
	case map[string]any:
		return TypeObject
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return TypeNull
		}
		return InferType(rv.Elem().Interface())
	case reflect.Slice:
		if rv.IsNil() {
			return TypeNull
		}
		return TypeArray
	case reflect.Array:
		return TypeArray
	case reflect.Map:
		if rv.IsNil() {
			return TypeNull
		}
		return TypeObject
	case reflect.Struct:
		if rv.Type().ConvertibleTo(timeType) {
			return TypeDate
		}
		return TypeObject
	case reflect.String:
		return TypeString
	case reflect.Bool:
		return TypeBoolean
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return TypeNumber
	}
	return TypeObject
}

// Number extracts a float64 from any Go numeric value or json.Number.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case nil, string, bool:
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// IsNumeric reports whether v is a finite-or-infinite number (NaN excluded).
func IsNumeric(v any) bool {
	f, ok := Number(v)
	return ok && !math.IsNaN(f)
}

// IsPlainObject reports whether v is a string-keyed map.
func IsPlainObject(v any) bool {
	if _, ok := v.(map[string]any); ok {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String && !rv.IsNil()
}

// IsEmpty reports whether v is nil, Undefined, an empty string, or an empty
// map, slice or array. Numbers, booleans and structs are never empty.
func IsEmpty(v any) bool {
	if v == nil || IsUndefined(v) {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
