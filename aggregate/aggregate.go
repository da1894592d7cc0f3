package aggregate

import (
	"errors"
	"math"
	"reflect"

	"github.com/reoring/kairo"
	"github.com/reoring/kairo/objects"
)

// AllGroup is the single group used when Operations.GroupBy is zero.
const AllGroup = "_all"

// CountAll counts every element of a group; its result key is "<group>.count".
const CountAll = "*"

// Options configures grouping.
type Options struct {
	// Keys pre-declares group keys. They appear in the result only with
	// IncludeEmpty.
	Keys []string
	// IncludeEmpty keeps pre-declared groups that received no element.
	IncludeEmpty bool
	// Parallel and Cache are accepted for configuration compatibility and
	// have no effect.
	Parallel bool
	Cache    bool
}

func lastOptions(opts []Options) Options {
	if len(opts) == 0 {
		return Options{}
	}
	return opts[len(opts)-1]
}

// GroupBy partitions items by key. Every element lands in exactly one group
// and elements keep their input order within a group.
func GroupBy[T any](items []T, key Key, opts ...Options) kairo.Result[map[string][]T] {
	opt := lastOptions(opts)
	return kairo.Guard(kairo.OpGroupBy, nil, func() kairo.Result[map[string][]T] {
		if key.IsZero() {
			return kairo.Failf[map[string][]T](kairo.OpGroupBy, nil, "group key is required")
		}
		groups, err := partition(items, key, opt)
		if err != nil {
			return kairo.Fail[map[string][]T](keyError(kairo.OpGroupBy, key, err))
		}
		return kairo.Ok(groups)
	})
}

// GroupByFunc groups on a key function over the concrete element type.
func GroupByFunc[T any](items []T, fn func(T) (string, error), opts ...Options) kairo.Result[map[string][]T] {
	if fn == nil {
		return kairo.Failf[map[string][]T](kairo.OpGroupBy, nil, "group key is required")
	}
	return GroupBy(items, ByFunc(func(item any) (string, error) {
		v, _ := item.(T)
		return fn(v)
	}), opts...)
}

// GroupByValue groups an untyped collection. Input that is not a slice or
// array fails.
func GroupByValue(input any, key Key, opts ...Options) kairo.Result[map[string][]any] {
	items, ok := elements(input)
	if !ok {
		return kairo.Failf[map[string][]any](kairo.OpGroupBy, map[string]any{"type": string(objects.InferType(input))}, "input is not an array")
	}
	return GroupBy(items, key, opts...)
}

type indexError struct {
	index int
	err   error
}

func (e *indexError) Error() string { return e.err.Error() }
func (e *indexError) Unwrap() error { return e.err }

func keyError(op kairo.Op, key Key, err error) *kairo.Error {
	ctx := map[string]any{"key": key.String()}
	var ie *indexError
	if errors.As(err, &ie) {
		ctx["index"] = ie.index
	}
	return kairo.Errorf(op, err, ctx, "group key: %s", err.Error())
}

func partition[T any](items []T, key Key, opt Options) (map[string][]T, error) {
	groups := make(map[string][]T)
	if opt.IncludeEmpty {
		for _, k := range opt.Keys {
			groups[k] = []T{}
		}
	}
	for i, it := range items {
		k, err := key.of(any(it))
		if err != nil {
			return nil, &indexError{index: i, err: err}
		}
		groups[k] = append(groups[k], it)
	}
	return groups, nil
}

func elements(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []byte, nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// Operations declares the reductions computed for every group.
type Operations[T any] struct {
	GroupBy Key
	Sum     []string
	Avg     []string
	// Count entries are field paths or CountAll.
	Count  []string
	Min    []string
	Max    []string
	Custom map[string]func(group []T) (any, error)
}

// Report holds the per-group results. Every map is keyed by
// FlatKey(group, field).
type Report[T any] struct {
	Groups   map[string][]T
	Totals   map[string]float64
	Averages map[string]float64
	Counts   map[string]int
	Minimums map[string]float64
	Maximums map[string]float64
	Custom   map[string]any
}

// FlatKey builds the "<group>.<field>" result key.
func FlatKey(group, field string) string { return group + "." + field }

// GroupKeys lists the group keys in ascending order.
func (r *Report[T]) GroupKeys() []string { return objects.SortedKeys(r.Groups) }

// Aggregate groups items and computes the declared reductions per group.
// Sums treat non-numeric values as 0, averages use numeric values only (0
// when there are none), and minimum and maximum keys are absent for groups
// without numeric values.
func Aggregate[T any](items []T, ops Operations[T], opts ...Options) kairo.Result[*Report[T]] {
	opt := lastOptions(opts)
	return kairo.Guard(kairo.OpAggregate, nil, func() kairo.Result[*Report[T]] {
		groups := map[string][]T{AllGroup: items}
		if !ops.GroupBy.IsZero() {
			g, err := partition(items, ops.GroupBy, opt)
			if err != nil {
				return kairo.Fail[*Report[T]](keyError(kairo.OpAggregate, ops.GroupBy, err))
			}
			groups = g
		}
		r := &Report[T]{
			Groups:   groups,
			Totals:   map[string]float64{},
			Averages: map[string]float64{},
			Counts:   map[string]int{},
			Minimums: map[string]float64{},
			Maximums: map[string]float64{},
			Custom:   map[string]any{},
		}
		for _, g := range r.GroupKeys() {
			if err := r.reduce(g, groups[g], ops); err != nil {
				return kairo.Fail[*Report[T]](err)
			}
		}
		return kairo.Ok(r)
	})
}

// AggregateValue aggregates an untyped collection. Input that is not a slice
// or array fails.
func AggregateValue(input any, ops Operations[any], opts ...Options) kairo.Result[*Report[any]] {
	items, ok := elements(input)
	if !ok {
		return kairo.Failf[*Report[any]](kairo.OpAggregate, map[string]any{"type": string(objects.InferType(input))}, "input is not an array")
	}
	return Aggregate(items, ops, opts...)
}

func numbers[T any](group []T, field string) []float64 {
	path := objects.ParsePath(field)
	out := make([]float64, 0, len(group))
	for _, it := range group {
		v, ok := objects.Get(any(it), path)
		if !ok || !objects.IsNumeric(v) {
			continue
		}
		f, _ := objects.Number(v)
		out = append(out, f)
	}
	return out
}

func (r *Report[T]) reduce(g string, group []T, ops Operations[T]) *kairo.Error {
	for _, f := range ops.Sum {
		var total float64
		for _, n := range numbers(group, f) {
			total += n
		}
		r.Totals[FlatKey(g, f)] = total
	}
	for _, f := range ops.Avg {
		var avg float64
		if ns := numbers(group, f); len(ns) > 0 {
			var total float64
			for _, n := range ns {
				total += n
			}
			avg = total / float64(len(ns))
		}
		r.Averages[FlatKey(g, f)] = avg
	}
	for _, f := range ops.Count {
		if f == CountAll {
			r.Counts[FlatKey(g, "count")] = len(group)
			continue
		}
		path := objects.ParsePath(f)
		n := 0
		for _, it := range group {
			if objects.Has(any(it), path) {
				n++
			}
		}
		r.Counts[FlatKey(g, f)] = n
	}
	for _, f := range ops.Min {
		if ns := numbers(group, f); len(ns) > 0 {
			m := math.Inf(1)
			for _, n := range ns {
				m = math.Min(m, n)
			}
			r.Minimums[FlatKey(g, f)] = m
		}
	}
	for _, f := range ops.Max {
		if ns := numbers(group, f); len(ns) > 0 {
			m := math.Inf(-1)
			for _, n := range ns {
				m = math.Max(m, n)
			}
			r.Maximums[FlatKey(g, f)] = m
		}
	}
	for _, name := range objects.SortedKeys(ops.Custom) {
		fn := ops.Custom[name]
		if fn == nil {
			continue
		}
		v, err := fn(group)
		if err != nil {
			return kairo.Errorf(kairo.OpAggregate, err, map[string]any{"group": g, "reducer": name}, "custom reducer %q on group %q: %s", name, g, err.Error())
		}
		r.Custom[FlatKey(g, name)] = v
	}
	return nil
}
