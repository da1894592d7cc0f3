package schema

import (
	"reflect"

	"github.com/goccy/go-json"

	"github.com/reoring/kairo"
)

// Decode validates input against s and projects the validated value into T
// through its JSON representation, so T's json tags select the fields.
func Decode[T any](s *Schema, input any, opts ...ValidateOptions) kairo.Result[T] {
	return kairo.Then(s.Validate(input, opts...), func(m map[string]any) kairo.Result[T] {
		var out T
		b, err := json.Marshal(m)
		if err != nil {
			return kairo.Fail[T](kairo.Errorf(kairo.OpValidate, err, nil, "encode validated value: %s", err.Error()))
		}
		if err := json.Unmarshal(b, &out); err != nil {
			return kairo.Fail[T](kairo.Errorf(kairo.OpValidate, err, map[string]any{"target": typeName[T]()}, "decode into %s: %s", typeName[T](), err.Error()))
		}
		return kairo.Ok(out)
	})
}

func typeName[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}
