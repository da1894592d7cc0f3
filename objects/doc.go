// Package objects is the object utility layer shared by the schema,
// transform and aggregate engines.
//
// Values are handled in their JSON-like form (map[string]any, []any,
// string, float64, bool, time.Time, nil). Path lookups additionally reach
// into typed maps, slices and structs through reflection; ToPlain converts
// such values into the JSON-like form.
//
// No function mutates its arguments. Set, Delete and Merge copy only the
// containers on the modified path and share everything else.
package objects
