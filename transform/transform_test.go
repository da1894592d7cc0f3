package transform_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/kairo"
	"github.com/reoring/kairo/objects"
	"github.com/reoring/kairo/schema"
	"github.com/reoring/kairo/transform"
)

func TestTransform_CopyAndCompute(t *testing.T) {
	m := transform.NewMapping(
		transform.Field("id", transform.From("user_id")),
		transform.Field("name", transform.Compute(func(any, transform.Context) (any, error) {
			return "unknown", nil
		})),
	)
	out := transform.Transform(map[string]any{"user_id": 1}, m).Must()
	assert.Equal(t, map[string]any{"id": 1, "name": "unknown"}, out)
}

func TestTransform_ArrayOrderPreserved(t *testing.T) {
	m := transform.NewMapping(
		transform.Field("n", transform.From("v")),
		transform.Field("i", transform.Compute(func(_ any, c transform.Context) (any, error) { return c.Index, nil })),
	)
	input := []any{map[string]any{"v": "a"}, map[string]any{"v": "b"}, map[string]any{"v": "c"}}

	all := transform.Transform(input, m).Must().([]any)
	require.Len(t, all, 3)
	for i, el := range input {
		single := transform.Transform(el, transform.NewMapping(m[0])).Must().(map[string]any)
		assert.Equal(t, single["n"], all[i].(map[string]any)["n"])
		assert.Equal(t, i, all[i].(map[string]any)["i"])
	}
}

func TestTransform_StructuredRule(t *testing.T) {
	upper := func(v any, _ transform.Context) (any, error) {
		s, ok := v.(string)
		if !ok {
			return objects.Undefined, nil
		}
		return strings.ToUpper(s), nil
	}
	m := transform.NewMapping(
		transform.Field("city", transform.Rule{Source: "address.city", Fn: upper}),
		transform.Field("zip", transform.Rule{Source: "address.zip", Fn: upper}.Or("00000")),
		transform.Field("name", transform.Rule{}),
		transform.Field("missing", transform.From("nope")),
	)
	out := transform.Transform(map[string]any{
		"name":    "ada",
		"address": map[string]any{"city": "paris"},
	}, m).Must()
	assert.Equal(t, map[string]any{"city": "PARIS", "zip": "00000", "name": "ada"}, out)

	withDefaults := transform.Transform(map[string]any{}, m, transform.Options{Defaults: true}).Must()
	assert.Equal(t, map[string]any{"city": nil, "zip": "00000", "name": nil, "missing": nil}, withDefaults)
}

func TestTransform_NullIsKept(t *testing.T) {
	out := transform.Transform(map[string]any{"a": nil}, transform.NewMapping(
		transform.Field("a", transform.From("a")),
	)).Must()
	assert.Equal(t, map[string]any{"a": nil}, out)
}

func TestTransform_StrictAndLenient(t *testing.T) {
	boom := errors.New("boom")
	m := transform.NewMapping(
		transform.Field("ok", transform.From("a")),
		transform.Field("bad", transform.Compute(func(any, transform.Context) (any, error) { return nil, boom })),
		transform.Field("panics", transform.Compute(func(any, transform.Context) (any, error) { panic("kaboom") })),
	)
	in := []any{map[string]any{"a": 1}}

	lenient := transform.Transform(in, m).Must()
	assert.Equal(t, []any{map[string]any{"ok": 1}}, lenient)
	withDefaults := transform.Transform(in, m, transform.Options{Defaults: true}).Must()
	assert.Equal(t, []any{map[string]any{"ok": 1}}, withDefaults, "failed fields are skipped even with Defaults")

	strict := transform.Transform(in, m, transform.Options{Strict: true})
	require.True(t, strict.IsErr())
	e := strict.Err()
	assert.Equal(t, kairo.OpTransform, e.Op)
	assert.Equal(t, "bad", e.Context["field"])
	assert.Equal(t, 0, e.Context["index"])
	assert.ErrorIs(t, e, boom)

	strictPanic := transform.Transform(map[string]any{}, transform.NewMapping(m[2]), transform.Options{Strict: true})
	require.True(t, strictPanic.IsErr())
	assert.Contains(t, strictPanic.Err().Message, "kaboom")
}

func TestTransform_InputChecks(t *testing.T) {
	m := transform.NewMapping(transform.Field("a", transform.From("a")))
	assert.True(t, transform.Transform(nil, m).IsErr())
	assert.True(t, transform.Object([]any{}, m).IsErr())

	lenient := transform.Transform(map[string]any{"a": 1}, transform.NewMapping(transform.Field("x", nil))).Must()
	assert.Equal(t, map[string]any{}, lenient)
}

func TestTransform_ContextValuesAndTypedInput(t *testing.T) {
	type order struct {
		ID    int     `json:"id"`
		Total float64 `json:"total"`
	}
	m := transform.NewMapping(
		transform.Field("id", transform.From("id")),
		transform.Field("gross", transform.Rule{Source: "total", Fn: func(v any, c transform.Context) (any, error) {
			return v.(float64) * c.Values["vat"].(float64), nil
		}}),
	)
	out := transform.Slice([]order{{1, 10}, {2, 20}}, m, transform.Options{Values: map[string]any{"vat": 1.5}}).Must()
	assert.Equal(t, []map[string]any{{"id": 1, "gross": 15.0}, {"id": 2, "gross": 30.0}}, out)
}

func TestFromMap_SortsKeys(t *testing.T) {
	m := transform.FromMap(map[string]transform.Spec{"b": transform.From("x"), "a": transform.From("y")})
	assert.Equal(t, []string{"a", "b"}, m.Keys())
}

func TestConvert(t *testing.T) {
	v1 := schema.MustNew(schema.Definition{
		"name": schema.String(schema.Required()),
	})
	v2 := schema.MustNew(schema.Definition{
		"first": schema.String(schema.Required()),
		"last":  schema.String(schema.Required()),
	})
	split := func(in map[string]any) (map[string]any, error) {
		parts := strings.SplitN(in["name"].(string), " ", 2)
		if len(parts) != 2 {
			return nil, errors.New("name has no last part")
		}
		return map[string]any{"first": parts[0], "last": parts[1]}, nil
	}

	out := transform.Convert(map[string]any{"name": "Ada Lovelace"}, v1, v2, transform.ConvertOptions{Migrate: split}).Must()
	assert.Equal(t, map[string]any{"first": "Ada", "last": "Lovelace"}, out)

	// each step short-circuits with its own outcome
	assert.Equal(t, kairo.OpValidate, transform.Convert(map[string]any{}, v1, v2).Err().Op)
	assert.Equal(t, kairo.OpConvert, transform.Convert(map[string]any{"name": "Ada"}, v1, v2, transform.ConvertOptions{Migrate: split}).Err().Op)
	assert.Equal(t, kairo.OpValidate, transform.Convert(map[string]any{"name": "Ada"}, v1, v2).Err().Op)
	assert.Equal(t, kairo.OpConvert, transform.Convert(map[string]any{}, nil, v2).Err().Op)

	mapped := transform.Convert(map[string]any{"name": "Ada"}, v1, v2, transform.ConvertOptions{
		Mapping: transform.NewMapping(
			transform.Field("first", transform.From("name")),
			transform.Field("last", transform.Compute(func(any, transform.Context) (any, error) { return "-", nil })),
		),
	}).Must()
	assert.Equal(t, map[string]any{"first": "Ada", "last": "-"}, mapped)
}
