package schema

import (
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/reoring/kairo"
	"github.com/reoring/kairo/objects"
)

// UnknownPolicy is the handling policy for keys not declared in a schema.
type UnknownPolicy int

const (
	// UnknownStrip drops undeclared keys from the validated value.
	UnknownStrip UnknownPolicy = iota
	// UnknownStrict reports undeclared keys as unknown_key issues.
	UnknownStrict
	// UnknownPassthrough copies undeclared keys unchanged.
	UnknownPassthrough
)

// Timestamp fields injected by Options.Timestamps.
const (
	CreatedAt = "createdAt"
	UpdatedAt = "updatedAt"
)

// Options configures a schema at construction time.
type Options struct {
	Unknown UnknownPolicy
	// Coerce enables best-effort conversion before structural checks.
	Coerce bool
	// Timestamps injects createdAt and updatedAt date fields defaulting to Now.
	Timestamps bool
	// Now is the clock used by Timestamps; time.Now when nil.
	Now func() time.Time
	// Cache and Parallel are accepted for configuration compatibility and
	// have no effect.
	Cache    bool
	Parallel bool
}

// Schema is a compiled, immutable validator. It is safe for concurrent use.
type Schema struct {
	def    Definition
	fields map[string]*compiled
	keys   []string
	opts   Options
}

type compiled struct {
	Field
	name   string
	re     *regexp.Regexp
	items  *compiled
	nested *Schema
	deflt  func() any
}

// New normalizes def and compiles it into a Schema. Malformed descriptors
// fail here, never at validation time. When several Options are given the
// last one wins.
func New(def Definition, opts ...Options) kairo.Result[*Schema] {
	var opt Options
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	return kairo.Guard(kairo.OpSchema, nil, func() kairo.Result[*Schema] {
		s, err := compile(def, opt)
		if err != nil {
			return kairo.Fail[*Schema](err)
		}
		return kairo.Ok(s)
	})
}

// MustNew is New that panics on failure. Intended for package-level schemas.
func MustNew(def Definition, opts ...Options) *Schema {
	return New(def, opts...).Must()
}

func compile(def Definition, opt Options) (*Schema, *kairo.Error) {
	norm := make(Definition, len(def)+2)
	for k, v := range def {
		norm[k] = v
	}
	if opt.Timestamps {
		now := opt.Now
		if now == nil {
			now = time.Now
		}
		stamp := func() any { return now() }
		for _, k := range []string{CreatedAt, UpdatedAt} {
			if _, taken := norm[k]; !taken {
				norm[k] = Date(WithDefaultFunc(stamp))
			}
		}
	}
	s := &Schema{def: norm, fields: make(map[string]*compiled, len(norm)), opts: opt}
	for name, spec := range norm {
		if name == "" {
			return nil, kairo.NewError(kairo.OpSchema, "field name must not be empty", nil)
		}
		if spec == nil {
			return nil, fieldError(name, "descriptor is nil")
		}
		c, err := compileField(name, spec.descriptor(), opt)
		if err != nil {
			return nil, err
		}
		s.fields[name] = c
		s.keys = append(s.keys, name)
		norm[name] = c.Field
	}
	sort.Strings(s.keys)
	return s, nil
}

func fieldError(name, format string, args ...any) *kairo.Error {
	return kairo.NewError(kairo.OpSchema, fmt.Sprintf("field %q: ", name)+fmt.Sprintf(format, args...), map[string]any{"field": name})
}

func compileField(name string, f Field, opt Options) (*compiled, *kairo.Error) {
	if f.Type == "" {
		return nil, fieldError(name, "type is required")
	}
	if !f.Type.Valid() && f.Type != TypeAny {
		return nil, fieldError(name, "unknown type %q", f.Type)
	}
	f = f.clone()
	c := &compiled{Field: f, name: name}
	if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
		return nil, fieldError(name, "min %v is greater than max %v", *f.Min, *f.Max)
	}
	if f.Length != nil && *f.Length < 0 {
		return nil, fieldError(name, "length must not be negative")
	}
	if f.Pattern != "" {
		if f.Type != objects.TypeString {
			return nil, fieldError(name, "pattern is only valid on strings")
		}
		re, err := regexp.Compile("^(?:" + f.Pattern + ")$")
		if err != nil {
			return nil, fieldError(name, "invalid pattern: %v", err)
		}
		c.re = re
	}
	if f.Format != "" {
		if f.Type != objects.TypeString {
			return nil, fieldError(name, "format is only valid on strings")
		}
		if _, ok := formatCheckers[f.Format]; !ok {
			return nil, fieldError(name, "unknown format %q", f.Format)
		}
	}
	if f.Items != nil {
		if f.Type != objects.TypeArray {
			return nil, fieldError(name, "items is only valid on arrays")
		}
		it, err := compileField(name+"[]", f.Items.descriptor(), opt)
		if err != nil {
			return nil, err
		}
		c.items = it
	}
	switch {
	case f.Schema != nil && f.Nested != nil:
		return nil, fieldError(name, "schema and nested are mutually exclusive")
	case f.Schema != nil || f.Nested != nil:
		if f.Type != objects.TypeObject {
			return nil, fieldError(name, "a nested schema is only valid on objects")
		}
	}
	if f.Schema != nil {
		// nested definitions inherit the parent options but never timestamps
		sub := opt
		sub.Timestamps = false
		ns, err := compile(f.Schema, sub)
		if err != nil {
			return nil, fieldError(name, "%s", err.Message)
		}
		c.nested = ns
	} else if f.Nested != nil {
		c.nested = f.Nested
	}
	switch d := f.Default.(type) {
	case nil:
	case func() any:
		c.deflt = d
	default:
		if _, iss := validateValue(c, d, objects.Path{name}, validator{}); len(iss) > 0 {
			return nil, fieldError(name, "default does not satisfy the field: %s", iss.Error())
		}
		c.deflt = func() any { return objects.DeepClone(d).OrElse(d) }
	}
	return c, nil
}

// Options returns the options the schema was built with.
func (s *Schema) Options() Options { return s.opts }

// Fields lists the declared field names in ascending order.
func (s *Schema) Fields() []string { return append([]string(nil), s.keys...) }

// Field returns the normalized descriptor of name.
func (s *Schema) Field(name string) (Field, bool) {
	c, ok := s.fields[name]
	if !ok {
		return Field{}, false
	}
	return c.Field.clone(), true
}

// Is reports whether input validates against s.
func (s *Schema) Is(input any) bool { return s.Validate(input).IsOk() }

// Extend returns a new schema with the fields of def added. Fields already
// present are replaced.
func (s *Schema) Extend(def Definition) kairo.Result[*Schema] {
	merged := make(Definition, len(s.def)+len(def))
	for k, v := range s.def {
		merged[k] = v
	}
	for k, v := range def {
		merged[k] = v
	}
	return New(merged, s.opts)
}

// Pick returns a schema holding only the listed fields.
func (s *Schema) Pick(names ...string) *Schema {
	keep := make(map[string]bool, len(names))
	for _, n := range names {
		keep[n] = true
	}
	return s.subset(func(name string) bool { return keep[name] }, false)
}

// Omit returns a schema without the listed fields.
func (s *Schema) Omit(names ...string) *Schema {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	return s.subset(func(name string) bool { return !drop[name] }, false)
}

// Partial returns a schema in which no top-level field is required.
func (s *Schema) Partial() *Schema {
	return s.subset(func(string) bool { return true }, true)
}

func (s *Schema) subset(keep func(string) bool, optional bool) *Schema {
	out := &Schema{def: Definition{}, fields: map[string]*compiled{}, opts: s.opts}
	for _, k := range s.keys {
		if !keep(k) {
			continue
		}
		c := s.fields[k]
		if optional && c.Required {
			cp := *c
			cp.Required = false
			c = &cp
		}
		out.def[k] = c.Field
		out.fields[k] = c
		out.keys = append(out.keys, k)
	}
	return out
}
