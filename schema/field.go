package schema

import (
	"github.com/reoring/kairo/objects"
)

// TypeAny accepts every value. It is not produced by objects.InferType.
const TypeAny objects.Type = "any"

// FieldSpec describes one field of a Definition. It is implemented by
// TypeName (the shorthand form) and Field (the full descriptor); both are
// normalized to a Field when the schema is built.
type FieldSpec interface {
	descriptor() Field
}

// Definition maps field names to their descriptors.
type Definition map[string]FieldSpec

// TypeName is the shorthand descriptor: TypeName("string") is equivalent to
// Field{Type: objects.TypeString}.
type TypeName string

func (t TypeName) descriptor() Field { return Field{Type: objects.Type(t)} }

// Field is the full field descriptor.
type Field struct {
	Type     objects.Type
	Required bool
	Nullable bool
	// Integer rejects numbers with a fractional part.
	Integer bool
	Format  StringFormat
	// Min and Max bound the length of strings, the size of arrays, the
	// value of numbers and the unix milliseconds of dates.
	Min    *float64
	Max    *float64
	Length *int
	// Pattern is a regular expression the whole string must match.
	Pattern string
	Enum    []any
	// Items describes array elements; nil accepts any element.
	Items FieldSpec
	// Schema describes a nested object inline. Nested reuses a built schema
	// instead; at most one of the two may be set.
	Schema Definition
	Nested *Schema
	// Default is used when the field is absent. A func() any is called on
	// every validation to produce a fresh value.
	Default     any
	Description string
}

// clone copies the pointer and slice members so a compiled schema never
// shares them with the caller.
func (f Field) clone() Field {
	if f.Min != nil {
		v := *f.Min
		f.Min = &v
	}
	if f.Max != nil {
		v := *f.Max
		f.Max = &v
	}
	if f.Length != nil {
		v := *f.Length
		f.Length = &v
	}
	if f.Enum != nil {
		f.Enum = append([]any(nil), f.Enum...)
	}
	if f.Schema != nil {
		def := make(Definition, len(f.Schema))
		for k, v := range f.Schema {
			def[k] = v
		}
		f.Schema = def
	}
	return f
}

func (f Field) descriptor() Field { return f }

// FieldOption configures a Field built by one of the constructors below.
type FieldOption func(*Field)

func build(t objects.Type, opts []FieldOption) Field {
	f := Field{Type: t}
	for _, o := range opts {
		if o != nil {
			o(&f)
		}
	}
	return f
}

func String(opts ...FieldOption) Field  { return build(objects.TypeString, opts) }
func Number(opts ...FieldOption) Field  { return build(objects.TypeNumber, opts) }
func Boolean(opts ...FieldOption) Field { return build(objects.TypeBoolean, opts) }
func Date(opts ...FieldOption) Field    { return build(objects.TypeDate, opts) }
func Null(opts ...FieldOption) Field    { return build(objects.TypeNull, opts) }
func Any(opts ...FieldOption) Field     { return build(TypeAny, opts) }

// Undefined describes a field that must be absent.
func Undefined(opts ...FieldOption) Field { return build(objects.TypeUndefined, opts) }

// Integer is a number without fractional part.
func Integer(opts ...FieldOption) Field {
	f := build(objects.TypeNumber, opts)
	f.Integer = true
	return f
}

// Array describes a list whose elements match items (nil for any).
func Array(items FieldSpec, opts ...FieldOption) Field {
	f := build(objects.TypeArray, opts)
	f.Items = items
	return f
}

// Object describes a nested object with an inline definition.
func Object(def Definition, opts ...FieldOption) Field {
	f := build(objects.TypeObject, opts)
	f.Schema = def
	return f
}

// ObjectOf describes a nested object validated by an existing schema.
func ObjectOf(s *Schema, opts ...FieldOption) Field {
	f := build(objects.TypeObject, opts)
	f.Nested = s
	return f
}

func Required() FieldOption { return func(f *Field) { f.Required = true } }
func Nullable() FieldOption { return func(f *Field) { f.Nullable = true } }

func WithMin(n float64) FieldOption { return func(f *Field) { f.Min = &n } }
func WithMax(n float64) FieldOption { return func(f *Field) { f.Max = &n } }

// WithLength requires an exact string length or array size.
func WithLength(n int) FieldOption { return func(f *Field) { f.Length = &n } }

func WithPattern(re string) FieldOption          { return func(f *Field) { f.Pattern = re } }
func WithFormat(format StringFormat) FieldOption { return func(f *Field) { f.Format = format } }
func WithEnum(values ...any) FieldOption         { return func(f *Field) { f.Enum = values } }
func WithDefault(v any) FieldOption              { return func(f *Field) { f.Default = v } }
func WithDescription(s string) FieldOption       { return func(f *Field) { f.Description = s } }

// WithDefaultFunc sets a default producer called on each validation.
func WithDefaultFunc(fn func() any) FieldOption { return func(f *Field) { f.Default = fn } }
