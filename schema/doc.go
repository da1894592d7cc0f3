// Package schema compiles field definitions into reusable validators.
//
// A Definition maps field names to descriptors. A descriptor is either a
// TypeName shorthand or a full Field, usually built with the constructors:
//
//	user := schema.MustNew(schema.Definition{
//		"name":  schema.String(schema.Required(), schema.WithMin(2)),
//		"email": schema.String(schema.WithFormat(schema.FormatEmail)),
//		"age":   schema.Integer(schema.WithMin(0)),
//		"tags":  schema.Array(schema.TypeName("string")),
//	}, schema.Options{Unknown: schema.UnknownStrict})
//
//	res := user.Validate(input)
//	if iss, ok := kairo.AsIssues(res.Err()); ok { ... }
//
// Descriptors are checked once by New; a built Schema is immutable and may be
// shared between goroutines.
package schema
