// Package transform reshapes values with ordered field mappings.
//
//	m := transform.NewMapping(
//		transform.Field("id", transform.From("user_id")),
//		transform.Field("name", transform.Compute(func(any, transform.Context) (any, error) {
//			return "unknown", nil
//		})),
//		transform.Field("city", transform.Rule{Source: "address.city"}.Or("n/a")),
//	)
//	out := transform.Transform(input, m)
//
// A field whose value is undefined is left out of the result unless
// Options.Defaults is set.
package transform
