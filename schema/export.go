package schema

import (
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"

	js "github.com/reoring/kairo/jsonschema"
	"github.com/reoring/kairo/objects"
)

// JSONSchema projects s onto a JSON Schema document. Dates are exported as
// date-time strings; default producers are not representable and are left
// out.
func (s *Schema) JSONSchema() (*js.Schema, error) {
	out := s.jsonObject()
	out.SchemaURI = js.Draft
	return out, nil
}

func (s *Schema) jsonObject() *js.Schema {
	out := &js.Schema{Type: "object", Properties: make(map[string]*js.Schema, len(s.keys))}
	for _, k := range s.keys {
		c := s.fields[k]
		if c.Type == objects.TypeUndefined {
			continue
		}
		out.Properties[k] = c.jsonSchema()
		if c.Required {
			out.Required = append(out.Required, k)
		}
	}
	if s.opts.Unknown == UnknownStrict {
		out.AdditionalProperties = false
	}
	return out
}

func (c *compiled) jsonSchema() *js.Schema {
	var out *js.Schema
	switch c.Type {
	case objects.TypeObject:
		if c.nested != nil {
			out = c.nested.jsonObject()
		} else {
			out = &js.Schema{Type: "object"}
		}
	case objects.TypeArray:
		out = &js.Schema{Type: "array"}
		if c.items != nil {
			out.Items = c.items.jsonSchema()
		}
		out.MinItems, out.MaxItems = intBounds(c)
	case objects.TypeString:
		out = &js.Schema{Type: "string", Format: string(c.Format)}
		if c.re != nil {
			out.Pattern = c.re.String()
		}
		out.MinLength, out.MaxLength = intBounds(c)
	case objects.TypeNumber:
		f := c.Field.clone()
		out = &js.Schema{Type: "number", Minimum: f.Min, Maximum: f.Max}
		if c.Integer {
			out.Type = "integer"
		}
	case objects.TypeDate:
		out = &js.Schema{Type: "string", Format: string(FormatDateTime)}
	case objects.TypeBoolean, objects.TypeNull:
		out = &js.Schema{Type: string(c.Type)}
	default:
		out = &js.Schema{}
	}
	out.Description = c.Description
	out.Enum = c.Field.clone().Enum
	if _, isFunc := c.Default.(func() any); !isFunc {
		out.Default = c.Default
	}
	if c.Nullable {
		out.Nullable()
	}
	return out
}

func intBounds(c *compiled) (lo, hi *int) {
	if c.Length != nil {
		n := *c.Length
		return &n, &n
	}
	if c.Min != nil {
		n := int(*c.Min)
		lo = &n
	}
	if c.Max != nil {
		n := int(*c.Max)
		hi = &n
	}
	return lo, hi
}

// Fingerprint is a stable 64-bit hash of the normalized descriptor. Two
// schemas with the same fields, constraints and options share a
// fingerprint; default producers only contribute their presence.
func (s *Schema) Fingerprint() uint64 {
	d := xxhash.New()
	s.canonical(d)
	return d.Sum64()
}

func (s *Schema) canonical(d *xxhash.Digest) {
	fmt.Fprintf(d, "{unknown=%d;coerce=%t;", s.opts.Unknown, s.opts.Coerce)
	for _, k := range s.keys {
		_, _ = d.WriteString(strconv.Quote(k) + ":")
		s.fields[k].canonical(d)
	}
	_, _ = d.WriteString("}")
}

func (c *compiled) canonical(d *xxhash.Digest) {
	fmt.Fprintf(d, "(%s r=%t n=%t i=%t f=%s", c.Type, c.Required, c.Nullable, c.Integer, c.Format)
	if c.Min != nil {
		fmt.Fprintf(d, " min=%v", *c.Min)
	}
	if c.Max != nil {
		fmt.Fprintf(d, " max=%v", *c.Max)
	}
	if c.Length != nil {
		fmt.Fprintf(d, " len=%d", *c.Length)
	}
	if c.Pattern != "" {
		fmt.Fprintf(d, " re=%q", c.Pattern)
	}
	if len(c.Enum) > 0 {
		fmt.Fprintf(d, " enum=%#v", c.Enum)
	}
	switch c.Default.(type) {
	case nil:
	case func() any:
		_, _ = d.WriteString(" default=func")
	default:
		fmt.Fprintf(d, " default=%#v", c.Default)
	}
	if c.items != nil {
		_, _ = d.WriteString(" items=")
		c.items.canonical(d)
	}
	if c.nested != nil {
		_, _ = d.WriteString(" nested=")
		c.nested.canonical(d)
	}
	_, _ = d.WriteString(")")
}
