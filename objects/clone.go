package objects

import (
	"errors"
	"reflect"
	"regexp"
	"time"

	"github.com/reoring/kairo"
)

// CloneOptions controls DeepClone.
type CloneOptions struct {
	// PreservePrototype keeps concrete Go types (structs, typed maps and
	// slices, pointers). When false, containers are projected onto
	// map[string]any / []any.
	PreservePrototype bool
	// HandleCircular resolves cycles to the clone already being built. When
	// false a cycle fails the clone instead.
	HandleCircular bool
}

// DefaultCloneOptions preserves types and handles cycles.
func DefaultCloneOptions() CloneOptions {
	return CloneOptions{PreservePrototype: true, HandleCircular: true}
}

var errCircular = errors.New("circular reference detected")

// DeepClone recursively copies maps, slices, arrays, structs, pointers, dates
// and regular expressions. Primitives are returned unchanged; functions and
// channels are shared. Unexported struct fields are copied shallowly.
func DeepClone(v any, opts ...CloneOptions) kairo.Result[any] {
	opt := DefaultCloneOptions()
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	return kairo.Guard(kairo.OpClone, nil, func() kairo.Result[any] {
		out, err := newCloner(opt).cloneAny(v)
		if err != nil {
			return kairo.Fail[any](kairo.Errorf(kairo.OpClone, err, map[string]any{"handleCircular": opt.HandleCircular}, "%s", err.Error()))
		}
		return kairo.Ok(out)
	})
}

// Clone is DeepClone for a typed value. With PreservePrototype disabled the
// projected value may not be assignable to T, which fails the clone.
func Clone[T any](v T, opts ...CloneOptions) kairo.Result[T] {
	return kairo.Then(DeepClone(v, opts...), func(c any) kairo.Result[T] {
		if c == nil {
			var zero T
			return kairo.Ok(zero)
		}
		t, ok := c.(T)
		if !ok {
			return kairo.Failf[T](kairo.OpClone, nil, "clone of %T is not assignable to the requested type", v)
		}
		return kairo.Ok(t)
	})
}

// identity addresses a reference-typed container. Slices include their
// length so that two windows over one backing array stay distinct.
type identity struct {
	typ reflect.Type
	ptr uintptr
	n   int
}

func identityOf(rv reflect.Value) (identity, bool) {
	switch rv.Kind() {
	case reflect.Map, reflect.Pointer:
		if rv.IsNil() {
			return identity{}, false
		}
		return identity{typ: rv.Type(), ptr: rv.Pointer()}, true
	case reflect.Slice:
		if rv.IsNil() || rv.Len() == 0 {
			return identity{}, false
		}
		return identity{typ: rv.Type(), ptr: rv.Pointer(), n: rv.Len()}, true
	}
	return identity{}, false
}

type cloner struct {
	opt    CloneOptions
	seen   map[identity]reflect.Value // original -> clone
	active map[identity]struct{}      // ancestors of the current value
}

func newCloner(opt CloneOptions) *cloner {
	return &cloner{opt: opt, seen: map[identity]reflect.Value{}, active: map[identity]struct{}{}}
}

// visit checks id against the clones made so far. It returns the existing
// clone, or an error when a cycle is found with HandleCircular disabled.
func (c *cloner) visit(id identity) (reflect.Value, bool, error) {
	if c.opt.HandleCircular {
		if out, ok := c.seen[id]; ok {
			return out, true, nil
		}
		return reflect.Value{}, false, nil
	}
	if _, ok := c.active[id]; ok {
		return reflect.Value{}, false, errCircular
	}
	return reflect.Value{}, false, nil
}

// enter registers the clone before its children are copied so that cycles
// resolve to it.
func (c *cloner) enter(out reflect.Value, ids ...identity) {
	for _, id := range ids {
		if c.opt.HandleCircular {
			c.seen[id] = out
		} else {
			c.active[id] = struct{}{}
		}
	}
}

func (c *cloner) leave(ids ...identity) {
	if c.opt.HandleCircular {
		return
	}
	for _, id := range ids {
		delete(c.active, id)
	}
}

func (c *cloner) cloneAny(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string, bool, float64, int, int64, undefined:
		return v, nil
	case time.Time:
		return t, nil
	case *regexp.Regexp:
		if t == nil {
			return t, nil
		}
		re, err := regexp.Compile(t.String())
		if err != nil {
			return t, nil
		}
		return re, nil
	case map[string]any:
		rv := reflect.ValueOf(t)
		id, ok := identityOf(rv)
		if !ok {
			return t, nil
		}
		if prev, found, err := c.visit(id); err != nil || found {
			return valueOrNil(prev), err
		}
		out := make(map[string]any, len(t))
		c.enter(reflect.ValueOf(out), id)
		for k, e := range t {
			ce, err := c.cloneAny(e)
			if err != nil {
				return nil, err
			}
			out[k] = ce
		}
		c.leave(id)
		return out, nil
	case []any:
		rv := reflect.ValueOf(t)
		out := make([]any, len(t))
		id, ok := identityOf(rv)
		if !ok {
			if t == nil {
				return t, nil
			}
			return out, nil
		}
		if prev, found, err := c.visit(id); err != nil || found {
			return valueOrNil(prev), err
		}
		c.enter(reflect.ValueOf(out), id)
		for i, e := range t {
			ce, err := c.cloneAny(e)
			if err != nil {
				return nil, err
			}
			out[i] = ce
		}
		c.leave(id)
		return out, nil
	}
	if c.opt.PreservePrototype {
		out, err := c.preserve(reflect.ValueOf(v))
		if err != nil {
			return nil, err
		}
		return out.Interface(), nil
	}
	return c.plain(reflect.ValueOf(v))
}

func valueOrNil(rv reflect.Value) any {
	if !rv.IsValid() {
		return nil
	}
	return rv.Interface()
}

// preserve copies rv into a value of the same type.
func (c *cloner) preserve(rv reflect.Value) (reflect.Value, error) {
	switch rv.Kind() {
	case reflect.Interface:
		if rv.IsNil() {
			return rv, nil
		}
		inner, err := c.cloneAny(rv.Elem().Interface())
		if err != nil {
			return reflect.Value{}, err
		}
		out := reflect.New(rv.Type()).Elem()
		if inner != nil {
			out.Set(reflect.ValueOf(inner))
		}
		return out, nil
	case reflect.Map:
		id, ok := identityOf(rv)
		if !ok {
			return rv, nil
		}
		if prev, found, err := c.visit(id); err != nil || found {
			return prev, err
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		c.enter(out, id)
		iter := rv.MapRange()
		for iter.Next() {
			cv, err := c.preserve(iter.Value())
			if err != nil {
				return reflect.Value{}, err
			}
			out.SetMapIndex(iter.Key(), cv)
		}
		c.leave(id)
		return out, nil
	case reflect.Slice:
		if rv.IsNil() {
			return rv, nil
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		id, ok := identityOf(rv)
		if !ok {
			return out, nil
		}
		if prev, found, err := c.visit(id); err != nil || found {
			return prev, err
		}
		c.enter(out, id)
		for i := 0; i < rv.Len(); i++ {
			cv, err := c.preserve(rv.Index(i))
			if err != nil {
				return reflect.Value{}, err
			}
			out.Index(i).Set(cv)
		}
		c.leave(id)
		return out, nil
	case reflect.Array:
		out := reflect.New(rv.Type()).Elem()
		for i := 0; i < rv.Len(); i++ {
			cv, err := c.preserve(rv.Index(i))
			if err != nil {
				return reflect.Value{}, err
			}
			out.Index(i).Set(cv)
		}
		return out, nil
	case reflect.Pointer:
		id, ok := identityOf(rv)
		if !ok {
			return rv, nil
		}
		if re, isRe := rv.Interface().(*regexp.Regexp); isRe {
			cp, _ := c.cloneAny(re)
			return reflect.ValueOf(cp), nil
		}
		if prev, found, err := c.visit(id); err != nil || found {
			return prev, err
		}
		out := reflect.New(rv.Type().Elem())
		c.enter(out, id)
		ev, err := c.preserve(rv.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		out.Elem().Set(ev)
		c.leave(id)
		return out, nil
	case reflect.Struct:
		out := reflect.New(rv.Type()).Elem()
		out.Set(rv)
		if rv.Type() == timeType {
			return out, nil
		}
		for _, sk := range structKeys(rv.Type()) {
			f := out.Field(sk.index)
			if !f.CanSet() {
				continue
			}
			cv, err := c.preserve(rv.Field(sk.index))
			if err != nil {
				return reflect.Value{}, err
			}
			f.Set(cv)
		}
		return out, nil
	}
	return rv, nil
}

// plain projects rv onto map[string]any / []any.
func (c *cloner) plain(rv reflect.Value) (any, error) {
	return c.plainAliased(rv)
}

func (c *cloner) plainAliased(rv reflect.Value, aliases ...identity) (any, error) {
	switch rv.Kind() {
	case reflect.Invalid:
		return nil, nil
	case reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		return c.cloneAny(rv.Elem().Interface())
	case reflect.Pointer:
		if rv.IsNil() {
			return nil, nil
		}
		if re, isRe := rv.Interface().(*regexp.Regexp); isRe {
			return c.cloneAny(re)
		}
		id, _ := identityOf(rv)
		if prev, found, err := c.visit(id); err != nil || found {
			return valueOrNil(prev), err
		}
		switch rv.Elem().Kind() {
		case reflect.Struct, reflect.Map, reflect.Slice:
			return c.plainAliased(rv.Elem(), append(aliases, id)...)
		}
		return c.plainAliased(rv.Elem())
	case reflect.Map:
		if rv.IsNil() {
			return nil, nil
		}
		id, _ := identityOf(rv)
		if prev, found, err := c.visit(id); err != nil || found {
			return valueOrNil(prev), err
		}
		out := make(map[string]any, rv.Len())
		ids := append(aliases, id)
		c.enter(reflect.ValueOf(out), ids...)
		iter := rv.MapRange()
		for iter.Next() {
			k := iter.Key()
			var key string
			if k.Kind() == reflect.String {
				key = k.String()
			} else {
				key = renderKey(k.Interface())
			}
			cv, err := c.plainAliased(iter.Value())
			if err != nil {
				return nil, err
			}
			out[key] = cv
		}
		c.leave(ids...)
		return out, nil
	case reflect.Slice:
		if rv.IsNil() {
			return nil, nil
		}
		if b, ok := rv.Interface().([]byte); ok {
			return append([]byte(nil), b...), nil
		}
		out := make([]any, rv.Len())
		id, ok := identityOf(rv)
		if !ok {
			return out, nil
		}
		if prev, found, err := c.visit(id); err != nil || found {
			return valueOrNil(prev), err
		}
		ids := append(aliases, id)
		c.enter(reflect.ValueOf(out), ids...)
		for i := 0; i < rv.Len(); i++ {
			cv, err := c.plainAliased(rv.Index(i))
			if err != nil {
				return nil, err
			}
			out[i] = cv
		}
		c.leave(ids...)
		return out, nil
	case reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			cv, err := c.plainAliased(rv.Index(i))
			if err != nil {
				return nil, err
			}
			out[i] = cv
		}
		return out, nil
	case reflect.Struct:
		if rv.Type().ConvertibleTo(timeType) {
			return rv.Convert(timeType).Interface(), nil
		}
		keys := structKeys(rv.Type())
		out := make(map[string]any, len(keys))
		c.enter(reflect.ValueOf(out), aliases...)
		for _, sk := range keys {
			cv, err := c.plainAliased(rv.Field(sk.index))
			if err != nil {
				return nil, err
			}
			out[sk.name] = cv
		}
		c.leave(aliases...)
		return out, nil
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return rv.Interface(), nil
	}
	return toBasic(rv), nil
}
