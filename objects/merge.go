package objects

import (
	"github.com/reoring/kairo"
)

// ConflictStrategy decides which side wins when a key exists in both the
// target and a source.
type ConflictStrategy int

const (
	SourceWins ConflictStrategy = iota
	TargetWins
)

// ArrayStrategy decides how two arrays under the same key are combined.
type ArrayStrategy int

const (
	// ArrayReplace treats arrays as leaves subject to the conflict strategy.
	ArrayReplace ArrayStrategy = iota
	// ArrayConcat appends the source elements to the target elements.
	ArrayConcat
	// ArrayMergeByIndex merges elements pairwise; the longer tail is kept.
	ArrayMergeByIndex
)

// Resolver settles a conflict for the key at path. It overrides the
// ConflictStrategy when set.
type Resolver func(path Path, target, source any) (any, error)

// MergeOptions configures Merge.
type MergeOptions struct {
	Conflict ConflictStrategy
	Resolve  Resolver
	Arrays   ArrayStrategy
	// Shallow disables recursion into nested maps.
	Shallow bool
}

// Merge folds sources into target from left to right and returns a new map.
// Keys missing from the accumulated target are always adopted; only keys
// present on both sides go through the conflict strategy. Inputs are not
// modified and unchanged values are shared by reference.
func Merge(target map[string]any, sources []map[string]any, opts MergeOptions) kairo.Result[map[string]any] {
	return kairo.Guard(kairo.OpMerge, nil, func() kairo.Result[map[string]any] {
		m := merger{opts: opts}
		out := target
		if out == nil {
			out = map[string]any{}
		}
		for i, src := range sources {
			merged, err := m.maps(out, src, Path{})
			if err != nil {
				return kairo.Fail[map[string]any](kairo.Errorf(kairo.OpMerge, err, map[string]any{"source": i}, "merge source %d: %s", i, err.Error()))
			}
			out = merged
		}
		if len(sources) == 0 {
			// always hand back a fresh top-level map
			out = Omit(out)
		}
		return kairo.Ok(out)
	})
}

type merger struct {
	opts MergeOptions
}

func (m merger) maps(target, source map[string]any, path Path) (map[string]any, error) {
	out := make(map[string]any, len(target)+len(source))
	for k, v := range target {
		out[k] = v
	}
	// sorted so that resolvers observe a deterministic order
	for _, k := range SortedKeys(source) {
		sv := source[k]
		if IsUndefined(sv) {
			continue
		}
		tv, exists := out[k]
		if !exists {
			out[k] = sv
			continue
		}
		v, err := m.value(tv, sv, path.Child(k))
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

func (m merger) value(tv, sv any, path Path) (any, error) {
	if ta, ok := tv.([]any); ok {
		if sa, ok := sv.([]any); ok {
			switch m.opts.Arrays {
			case ArrayConcat:
				out := make([]any, 0, len(ta)+len(sa))
				out = append(out, ta...)
				return append(out, sa...), nil
			case ArrayMergeByIndex:
				return m.byIndex(ta, sa, path)
			}
		}
	}
	if !m.opts.Shallow {
		if tm, ok := tv.(map[string]any); ok {
			if sm, ok := sv.(map[string]any); ok {
				return m.maps(tm, sm, path)
			}
		}
	}
	return m.resolve(path, tv, sv)
}

func (m merger) byIndex(ta, sa []any, path Path) ([]any, error) {
	out := make([]any, max(len(ta), len(sa)))
	for i := range out {
		switch {
		case i < len(ta) && i < len(sa):
			v, err := m.value(ta[i], sa[i], path.Index(i))
			if err != nil {
				return nil, err
			}
			out[i] = v
		case i < len(ta):
			out[i] = ta[i]
		default:
			out[i] = sa[i]
		}
	}
	return out, nil
}

func (m merger) resolve(path Path, tv, sv any) (any, error) {
	if m.opts.Resolve != nil {
		return m.opts.Resolve(path, tv, sv)
	}
	if m.opts.Conflict == TargetWins {
		return tv, nil
	}
	return sv, nil
}
