// Package kairo provides:
//
// - A two-variant outcome type (Result) returned by every public operation
// - A single failure record (Error) tagged with the operation that produced it
// - A stable validation error model via Issues (JSON Pointer, code, message)
//
// The engine itself lives in subpackages:
//
//   - objects:   path get/set/has, deep clone, merge, array helpers, type inference
//   - schema:    field definitions compiled into reusable validators
//   - transform: field remapping between shapes, schema-to-schema conversion
//   - aggregate: grouping and per-group statistics
//   - codec:     JSON/CSV serialization with schema re-validation
//   - manifest:  schema, mapping and aggregate operations loaded from YAML
//   - i18n:      issue messages (en, ja)
//
// Design policy:
// - Keep only the outcome and error model in the root package.
// - No operation mutates its inputs, holds shared state, or logs.
// - Panics from caller callbacks are converted into failures at the operation boundary.
//
// Typical usage:
//
//	s := schema.MustNew(schema.Definition{
//	    "name":  schema.String(schema.Required(), schema.WithMin(2)),
//	    "email": schema.String(schema.WithFormat(schema.FormatEmail)),
//	})
//	res := s.Validate(input)
//	if err := res.Err(); err != nil {
//	    for _, it := range err.Issues { ... }
//	}
//	out := kairo.Then(res, func(v map[string]any) kairo.Result[any] {
//	    return transform.Transform(v, mapping)
//	})
package kairo
