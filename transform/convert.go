package transform

import (
	"github.com/reoring/kairo"
	"github.com/reoring/kairo/schema"
)

// ConvertOptions configures Convert.
type ConvertOptions struct {
	// Migrate rewrites the value validated by the source schema.
	Migrate func(map[string]any) (map[string]any, error)
	// Mapping, when set, reshapes the migrated value.
	Mapping   Mapping
	Transform Options
	Validate  schema.ValidateOptions
}

// Convert validates input against from, migrates it, optionally reshapes it
// with a Mapping and validates the result against to. The first failing
// step's outcome is returned unchanged.
func Convert(input any, from, to *schema.Schema, opts ...ConvertOptions) kairo.Result[map[string]any] {
	var opt ConvertOptions
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	if from == nil || to == nil {
		return kairo.Failf[map[string]any](kairo.OpConvert, nil, "source and target schemas are required")
	}
	r := from.Validate(input, opt.Validate)
	if opt.Migrate != nil {
		r = kairo.Then(r, func(v map[string]any) kairo.Result[map[string]any] {
			return kairo.Guard(kairo.OpConvert, nil, func() kairo.Result[map[string]any] {
				out, err := opt.Migrate(v)
				if err != nil {
					return kairo.Fail[map[string]any](kairo.Errorf(kairo.OpConvert, err, nil, "migrate: %s", err.Error()))
				}
				return kairo.Ok(out)
			})
		})
	}
	if opt.Mapping != nil {
		r = kairo.Then(r, func(v map[string]any) kairo.Result[map[string]any] {
			return Object(v, opt.Mapping, opt.Transform)
		})
	}
	return kairo.Then(r, func(v map[string]any) kairo.Result[map[string]any] {
		return to.Validate(v, opt.Validate)
	})
}
