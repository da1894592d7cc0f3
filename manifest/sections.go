package manifest

import (
	"fmt"
	"math"

	"github.com/reoring/kairo/aggregate"
	"github.com/reoring/kairo/objects"
	"github.com/reoring/kairo/schema"
	"github.com/reoring/kairo/transform"
)

var unknownPolicies = map[string]schema.UnknownPolicy{
	"strip":       schema.UnknownStrip,
	"strict":      schema.UnknownStrict,
	"passthrough": schema.UnknownPassthrough,
}

func parseSchema(v any) (*schema.Schema, error) {
	m, err := asMap("schema", v)
	if err != nil {
		return nil, err
	}
	if err := onlyKeys("schema", m, "options", "fields"); err != nil {
		return nil, err
	}
	var opt schema.Options
	if raw, ok := m["options"]; ok {
		if opt, err = parseSchemaOptions(raw); err != nil {
			return nil, err
		}
	}
	def := schema.Definition{}
	if raw, ok := m["fields"]; ok {
		if def, err = parseDefinition("schema.fields", raw); err != nil {
			return nil, err
		}
	}
	s, err := schema.New(def, opt).Unwrap()
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	return s, nil
}

func parseSchemaOptions(v any) (schema.Options, error) {
	var opt schema.Options
	m, err := asMap("schema.options", v)
	if err != nil {
		return opt, err
	}
	if err := onlyKeys("schema.options", m, "unknown", "coerce", "timestamps", "cache", "parallel"); err != nil {
		return opt, err
	}
	if raw, ok := m["unknown"]; ok {
		s, err := asString("schema.options.unknown", raw)
		if err != nil {
			return opt, err
		}
		p, ok := unknownPolicies[s]
		if !ok {
			return opt, fmt.Errorf("schema.options.unknown: %q is not one of strip, strict, passthrough", s)
		}
		opt.Unknown = p
	}
	flags := []struct {
		key string
		dst *bool
	}{
		{"coerce", &opt.Coerce},
		{"timestamps", &opt.Timestamps},
		{"cache", &opt.Cache},
		{"parallel", &opt.Parallel},
	}
	for _, f := range flags {
		raw, ok := m[f.key]
		if !ok {
			continue
		}
		if *f.dst, err = asBool("schema.options."+f.key, raw); err != nil {
			return opt, err
		}
	}
	return opt, nil
}

func parseDefinition(where string, v any) (schema.Definition, error) {
	m, err := asMap(where, v)
	if err != nil {
		return nil, err
	}
	def := make(schema.Definition, len(m))
	for name, raw := range m {
		f, err := parseField(where+"."+name, raw)
		if err != nil {
			return nil, err
		}
		def[name] = f
	}
	return def, nil
}

var fieldKeys = []string{
	"type", "required", "nullable", "format", "min", "max", "length",
	"pattern", "enum", "items", "schema", "default", "description",
}

// parseField accepts a bare type name or a full descriptor. "integer" is
// read as a number without fractional part.
func parseField(where string, v any) (schema.Field, error) {
	if name, ok := v.(string); ok {
		return typeField(name), nil
	}
	m, err := asMap(where, v)
	if err != nil {
		return schema.Field{}, err
	}
	if err := onlyKeys(where, m, fieldKeys...); err != nil {
		return schema.Field{}, err
	}
	raw, ok := m["type"]
	if !ok {
		return schema.Field{}, fmt.Errorf("%s: type is required", where)
	}
	name, err := asString(where+".type", raw)
	if err != nil {
		return schema.Field{}, err
	}
	f := typeField(name)

	for _, flag := range []struct {
		key string
		dst *bool
	}{{"required", &f.Required}, {"nullable", &f.Nullable}} {
		if raw, ok := m[flag.key]; ok {
			if *flag.dst, err = asBool(where+"."+flag.key, raw); err != nil {
				return f, err
			}
		}
	}
	for _, bound := range []struct {
		key string
		dst **float64
	}{{"min", &f.Min}, {"max", &f.Max}} {
		if raw, ok := m[bound.key]; ok {
			n, err := asFloat(where+"."+bound.key, raw)
			if err != nil {
				return f, err
			}
			*bound.dst = &n
		}
	}
	if raw, ok := m["length"]; ok {
		n, err := asFloat(where+".length", raw)
		if err != nil {
			return f, err
		}
		if n != math.Trunc(n) {
			return f, fmt.Errorf("%s.length: expected a whole number, got %v", where, n)
		}
		l := int(n)
		f.Length = &l
	}
	if raw, ok := m["format"]; ok {
		s, err := asString(where+".format", raw)
		if err != nil {
			return f, err
		}
		f.Format = schema.StringFormat(s)
	}
	if raw, ok := m["pattern"]; ok {
		if f.Pattern, err = asString(where+".pattern", raw); err != nil {
			return f, err
		}
	}
	if raw, ok := m["description"]; ok {
		if f.Description, err = asString(where+".description", raw); err != nil {
			return f, err
		}
	}
	if raw, ok := m["enum"]; ok {
		list, ok := raw.([]any)
		if !ok {
			return f, fmt.Errorf("%s.enum: expected a list, got %s", where, objects.InferType(raw))
		}
		f.Enum = list
	}
	if raw, ok := m["items"]; ok {
		items, err := parseField(where+".items", raw)
		if err != nil {
			return f, err
		}
		f.Items = items
	}
	if raw, ok := m["schema"]; ok {
		if f.Schema, err = parseDefinition(where+".schema", raw); err != nil {
			return f, err
		}
	}
	if raw, ok := m["default"]; ok {
		f.Default = raw
	}
	return f, nil
}

func typeField(name string) schema.Field {
	if name == "integer" {
		return schema.Integer()
	}
	return schema.Field{Type: objects.Type(name)}
}

// parseMapping accepts an ordered list of {key, from, default} entries or a
// mapping from output key to source path (applied in key order).
func parseMapping(v any) (transform.Mapping, error) {
	switch t := v.(type) {
	case []any:
		m := make(transform.Mapping, 0, len(t))
		for i, raw := range t {
			where := fmt.Sprintf("transform[%d]", i)
			e, err := asMap(where, raw)
			if err != nil {
				return nil, err
			}
			if err := onlyKeys(where, e, "key", "from", "default"); err != nil {
				return nil, err
			}
			key, err := asString(where+".key", e["key"])
			if err != nil {
				return nil, err
			}
			r, err := parseRule(where, e)
			if err != nil {
				return nil, err
			}
			m = append(m, transform.Field(key, r))
		}
		return m, nil
	case map[string]any:
		specs := make(map[string]transform.Spec, len(t))
		for key, raw := range t {
			where := "transform." + key
			if path, ok := raw.(string); ok {
				specs[key] = transform.From(path)
				continue
			}
			e, err := asMap(where, raw)
			if err != nil {
				return nil, err
			}
			if err := onlyKeys(where, e, "from", "default"); err != nil {
				return nil, err
			}
			r, err := parseRule(where, e)
			if err != nil {
				return nil, err
			}
			specs[key] = r
		}
		return transform.FromMap(specs), nil
	}
	return nil, fmt.Errorf("transform: expected a list or a mapping, got %s", objects.InferType(v))
}

func parseRule(where string, e map[string]any) (transform.Rule, error) {
	var r transform.Rule
	if raw, ok := e["from"]; ok {
		src, err := asString(where+".from", raw)
		if err != nil {
			return r, err
		}
		r.Source = src
	}
	if def, ok := e["default"]; ok {
		r = r.Or(def)
	}
	return r, nil
}

func parseOperations(v any) (*aggregate.Operations[any], error) {
	m, err := asMap("aggregate", v)
	if err != nil {
		return nil, err
	}
	if err := onlyKeys("aggregate", m, "groupBy", "sum", "avg", "count", "min", "max"); err != nil {
		return nil, err
	}
	ops := &aggregate.Operations[any]{}
	if raw, ok := m["groupBy"]; ok {
		fields, err := asStrings("aggregate.groupBy", raw)
		if err != nil {
			return nil, err
		}
		if len(fields) > 0 {
			ops.GroupBy = aggregate.By(fields...)
		}
	}
	lists := []struct {
		key string
		dst *[]string
	}{
		{"sum", &ops.Sum},
		{"avg", &ops.Avg},
		{"count", &ops.Count},
		{"min", &ops.Min},
		{"max", &ops.Max},
	}
	for _, l := range lists {
		raw, ok := m[l.key]
		if !ok {
			continue
		}
		if *l.dst, err = asStrings("aggregate."+l.key, raw); err != nil {
			return nil, err
		}
	}
	return ops, nil
}
