package transform

import (
	"errors"
	"fmt"

	"github.com/reoring/kairo/objects"
)

// Context is passed to computed rules.
type Context struct {
	// Index is the position of the element in an array input, -1 for a
	// single object.
	Index int
	// Key is the output field being resolved.
	Key string
	// Root is the whole input value.
	Root any
	// Values carries Options.Values unchanged.
	Values map[string]any
}

// Spec resolves one output field. It is implemented by From, Compute and
// Rule.
type Spec interface {
	resolve(input any, c Context) (any, error)
}

// From copies the value at a path of the input ("user.id", "items[0]").
type From string

func (f From) resolve(input any, _ Context) (any, error) {
	return lookup(input, objects.ParsePath(string(f))), nil
}

// Compute derives the field from the whole input. Returning
// objects.Undefined omits the field.
type Compute func(input any, c Context) (any, error)

func (f Compute) resolve(input any, c Context) (any, error) { return f(input, c) }

// Rule reads Source (default: the output key), passes it through Fn and
// falls back to Default when the result is undefined.
type Rule struct {
	Source string
	// Fn receives objects.Undefined when Source is missing. A nil Fn
	// copies the value.
	Fn         func(value any, c Context) (any, error)
	Default    any
	HasDefault bool
}

// Or returns a copy of r with a default value.
func (r Rule) Or(def any) Rule {
	r.Default, r.HasDefault = def, true
	return r
}

func (r Rule) resolve(input any, c Context) (any, error) {
	src := r.Source
	if src == "" {
		src = c.Key
	}
	v := lookup(input, objects.ParsePath(src))
	if r.Fn != nil {
		out, err := r.Fn(v, c)
		if err != nil {
			return nil, err
		}
		v = out
	}
	if objects.IsUndefined(v) && r.HasDefault {
		return r.Default, nil
	}
	return v, nil
}

func lookup(input any, path objects.Path) any {
	if v, ok := objects.Get(input, path); ok {
		return v
	}
	return objects.Undefined
}

var errNilSpec = errors.New("rule is nil")

// apply resolves s and turns a panic into an error.
func apply(s Spec, input any, c Context) (v any, err error) {
	if s == nil {
		return nil, errNilSpec
	}
	defer func() {
		if p := recover(); p != nil {
			if e, ok := p.(error); ok {
				err = fmt.Errorf("panic: %w", e)
				return
			}
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return s.resolve(input, c)
}
