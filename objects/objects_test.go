package objects_test

import (
	"reflect"
	"regexp"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/kairo"
	"github.com/reoring/kairo/objects"
)

func samePtr(a, b any) bool {
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

func TestParsePath_Forms(t *testing.T) {
	assert.Equal(t, objects.Path{"a", "b", "0", "c"}, objects.ParsePath("a.b[0].c"))
	assert.Equal(t, objects.Path{"a", "x.y"}, objects.ParsePath(`a["x.y"]`))
	assert.Equal(t, objects.Path{"items", "0", "name"}, objects.P("items", 0, "name"))
	assert.Equal(t, objects.Path{"a.b"}, objects.Key("a.b"))
	assert.Equal(t, "/a~1b/c~0d", objects.P("a/b", "c~d").Pointer())
	assert.Equal(t, "/", objects.Path{}.Pointer())
}

func TestGet_NeverPanics(t *testing.T) {
	doc := map[string]any{
		"user":  map[string]any{"name": "ada", "tags": []any{"x", "y"}},
		"empty": nil,
	}
	v, ok := objects.Get(doc, objects.ParsePath("user.tags[1]"))
	require.True(t, ok)
	assert.Equal(t, "y", v)

	_, ok = objects.Get(doc, objects.ParsePath("empty.deeper.still"))
	assert.False(t, ok)
	_, ok = objects.Get(doc, objects.ParsePath("user.name.length"))
	assert.False(t, ok)
	_, ok = objects.Get(doc, objects.ParsePath("user.tags[9]"))
	assert.False(t, ok)
	_, ok = objects.Get(nil, objects.ParsePath("a"))
	assert.False(t, ok)
}

func TestGet_TypedValues(t *testing.T) {
	type Address struct {
		City string `json:"city"`
	}
	type User struct {
		Name    string `json:"name"`
		Address *Address
		Secret  string `json:"-"`
	}
	u := User{Name: "ada", Address: &Address{City: "Paris"}, Secret: "s"}
	v, ok := objects.Get(u, objects.ParsePath("Address.city"))
	require.True(t, ok)
	assert.Equal(t, "Paris", v)
	_, ok = objects.Get(u, objects.Key("Secret"))
	assert.False(t, ok)

	m := map[string][]int{"nums": {1, 2}}
	v, ok = objects.Get(m, objects.ParsePath("nums.1"))
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestHas_PresenceNotTruthiness(t *testing.T) {
	doc := map[string]any{"a": map[string]any{"b": nil, "c": false}}
	assert.True(t, objects.Has(doc, objects.ParsePath("a.b")))
	assert.True(t, objects.Has(doc, objects.ParsePath("a.c")))
	assert.False(t, objects.Has(doc, objects.ParsePath("a.d")))
}

func TestSet_StructuralSharing(t *testing.T) {
	sibling := map[string]any{"keep": true}
	doc := map[string]any{
		"a":       map[string]any{"b": 1},
		"sibling": sibling,
	}
	out := objects.Set(doc, objects.ParsePath("a.b"), 2).(map[string]any)

	assert.Equal(t, 1, doc["a"].(map[string]any)["b"], "input must not change")
	assert.Equal(t, 2, out["a"].(map[string]any)["b"])
	assert.True(t, samePtr(sibling, out["sibling"]), "siblings are shared")
	assert.False(t, samePtr(doc, out))
}

type setUser struct {
	Name string
	Age  int
}

func TestSet_TypedContainers(t *testing.T) {
	cfg := map[string]string{"a": "x"}
	out := objects.Set(map[string]any{"cfg": cfg}, objects.ParsePath("cfg.b"), "y").(map[string]any)
	assert.Equal(t, map[string]string{"a": "x", "b": "y"}, out["cfg"])
	assert.Equal(t, map[string]string{"a": "x"}, cfg, "input must not change")

	out = objects.Set(map[string]any{"cfg": cfg}, objects.ParsePath("cfg.n"), 3).(map[string]any)
	assert.Equal(t, map[string]any{"a": "x", "n": 3}, out["cfg"])

	u := setUser{Name: "ada", Age: 3}
	out = objects.Set(map[string]any{"u": u}, objects.ParsePath("u.Age"), 4).(map[string]any)
	assert.Equal(t, setUser{Name: "ada", Age: 4}, out["u"])
	assert.Equal(t, 3, u.Age)

	out = objects.Set(map[string]any{"u": &u}, objects.ParsePath("u.Name"), "bob").(map[string]any)
	assert.Equal(t, &setUser{Name: "bob", Age: 3}, out["u"])
	assert.Equal(t, "ada", u.Name)

	out = objects.Set(map[string]any{"u": u}, objects.ParsePath("u.Email"), "a@b").(map[string]any)
	assert.Equal(t, map[string]any{"Name": "ada", "Age": 3, "Email": "a@b"}, out["u"])

	out = objects.Set(map[string]any{"tags": []string{"a", "b"}}, objects.ParsePath("tags[1]"), "c").(map[string]any)
	assert.Equal(t, []string{"a", "c"}, out["tags"])
}

func TestSet_CreatesAndOverwritesIntermediates(t *testing.T) {
	out := objects.Set(map[string]any{"a": 5}, objects.ParsePath("a.b.c"), "x")
	v, ok := objects.Get(out, objects.ParsePath("a.b.c"))
	require.True(t, ok)
	assert.Equal(t, "x", v)

	out = objects.Set(map[string]any{"list": []any{"a"}}, objects.ParsePath("list[2]"), "c")
	assert.Equal(t, []any{"a", nil, "c"}, out.(map[string]any)["list"])
}

func TestDelete_PickOmit(t *testing.T) {
	doc := map[string]any{"a": map[string]any{"b": 1, "c": 2}, "d": 3}
	out := objects.Delete(doc, objects.ParsePath("a.b")).(map[string]any)
	assert.False(t, objects.Has(out, objects.ParsePath("a.b")))
	assert.True(t, objects.Has(doc, objects.ParsePath("a.b")))

	assert.Equal(t, map[string]any{"d": 3}, objects.Pick(doc, "d", "missing"))
	assert.Equal(t, map[string]any{"d": 3}, objects.Omit(doc, "a"))
}

func TestDeepClone_RoundTrip(t *testing.T) {
	when := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	in := map[string]any{
		"n":    1.5,
		"s":    "x",
		"when": when,
		"re":   regexp.MustCompile(`^a+$`),
		"list": []any{map[string]any{"k": "v"}, 2},
	}
	out := objects.DeepClone(in).Must().(map[string]any)

	assert.Equal(t, in["n"], out["n"])
	assert.Equal(t, in["list"], out["list"])
	assert.Equal(t, when, out["when"])
	assert.False(t, samePtr(in, out))
	assert.False(t, samePtr(in["list"], out["list"]))
	assert.False(t, samePtr(in["list"].([]any)[0], out["list"].([]any)[0]))
	assert.NotSame(t, in["re"], out["re"])
	assert.Equal(t, in["re"].(*regexp.Regexp).String(), out["re"].(*regexp.Regexp).String())
}

func TestDeepClone_SelfReference(t *testing.T) {
	o := map[string]any{"x": 1}
	o["self"] = o

	c := objects.DeepClone(o).Must().(map[string]any)
	assert.Equal(t, 1, c["x"])
	assert.True(t, samePtr(c, c["self"]), "clone.self must be the clone")
	assert.False(t, samePtr(o, c["self"]), "clone.self must not be the original")
}

func TestDeepClone_CircularDisabledFails(t *testing.T) {
	o := map[string]any{"x": 1}
	o["self"] = o

	res := objects.DeepClone(o, objects.CloneOptions{PreservePrototype: true})
	require.True(t, res.IsErr())
	assert.Equal(t, kairo.OpClone, res.Err().Op)

	// shared but acyclic references are fine without cycle handling
	shared := map[string]any{"v": 1}
	dag := map[string]any{"a": shared, "b": shared}
	assert.True(t, objects.DeepClone(dag, objects.CloneOptions{}).IsOk())
}

type node struct {
	Name string
	Next *node
	tags []string
}

func TestDeepClone_PreserveAndProject(t *testing.T) {
	n := &node{Name: "a", tags: []string{"t"}}
	n.Next = n

	c := objects.DeepClone(n).Must().(*node)
	assert.NotSame(t, n, c)
	assert.Same(t, c, c.Next)
	assert.Equal(t, "a", c.Name)

	plain := objects.DeepClone(n, objects.CloneOptions{HandleCircular: true}).Must().(map[string]any)
	assert.Equal(t, "a", plain["Name"])
	assert.True(t, samePtr(plain, plain["Next"]))
}

func TestClone_Typed(t *testing.T) {
	in := map[string][]int{"a": {1, 2}}
	out := objects.Clone(in).Must()
	out["a"][0] = 9
	assert.Equal(t, 1, in["a"][0])
}

func TestMerge_ArrayConcat(t *testing.T) {
	res := objects.Merge(
		map[string]any{"a": 1, "b": []any{1, 2}},
		[]map[string]any{{"b": []any{3, 4}}},
		objects.MergeOptions{Arrays: objects.ArrayConcat},
	)
	assert.Equal(t, map[string]any{"a": 1, "b": []any{1, 2, 3, 4}}, res.Must())
}

func TestMerge_Strategies(t *testing.T) {
	target := map[string]any{"a": 1, "nested": map[string]any{"x": 1, "y": 1}, "list": []any{map[string]any{"p": 1}, 2}}
	source := map[string]any{"a": 2, "b": 3, "nested": map[string]any{"y": 2}, "list": []any{map[string]any{"q": 1}}}

	sw := objects.Merge(target, []map[string]any{source}, objects.MergeOptions{}).Must()
	assert.Equal(t, 2, sw["a"])
	assert.Equal(t, 3, sw["b"], "new keys are adopted")
	assert.Equal(t, map[string]any{"x": 1, "y": 2}, sw["nested"])
	assert.Equal(t, source["list"], sw["list"])

	tw := objects.Merge(target, []map[string]any{source}, objects.MergeOptions{Conflict: objects.TargetWins}).Must()
	assert.Equal(t, 1, tw["a"])
	assert.Equal(t, 3, tw["b"], "new keys are adopted under target-wins too")

	byIdx := objects.Merge(target, []map[string]any{source}, objects.MergeOptions{Arrays: objects.ArrayMergeByIndex}).Must()
	assert.Equal(t, []any{map[string]any{"p": 1, "q": 1}, 2}, byIdx["list"])

	shallow := objects.Merge(target, []map[string]any{source}, objects.MergeOptions{Shallow: true}).Must()
	assert.Equal(t, map[string]any{"y": 2}, shallow["nested"])

	sum := objects.Merge(target, []map[string]any{source}, objects.MergeOptions{
		Resolve: func(path objects.Path, tv, sv any) (any, error) {
			if path.String() == "a" {
				return tv.(int) + sv.(int), nil
			}
			return sv, nil
		},
	}).Must()
	assert.Equal(t, 3, sum["a"])

	assert.Equal(t, 1, target["a"], "target is not mutated")
}

func TestMerge_ResolverPanicBecomesFailure(t *testing.T) {
	res := objects.Merge(map[string]any{"a": 1}, []map[string]any{{"a": 2}}, objects.MergeOptions{
		Resolve: func(objects.Path, any, any) (any, error) { panic("boom") },
	})
	require.True(t, res.IsErr())
	assert.Equal(t, kairo.OpMerge, res.Err().Op)
}

func TestMerge_AssociativeUnderSourceWins(t *testing.T) {
	a := map[string]any{"k": 1, "n": map[string]any{"x": 1, "y": map[string]any{"z": 1}}}
	b := map[string]any{"n": map[string]any{"y": map[string]any{"z": 2, "w": 2}}, "m": 2}
	c := map[string]any{"k": 3, "n": map[string]any{"x": 3}}
	opts := objects.MergeOptions{Conflict: objects.SourceWins}

	left := objects.Merge(objects.Merge(a, []map[string]any{b}, opts).Must(), []map[string]any{c}, opts).Must()
	right := objects.Merge(a, []map[string]any{objects.Merge(b, []map[string]any{c}, opts).Must()}, opts).Must()
	assert.Equal(t, left, right)
}

func TestUniqueAndFlatten(t *testing.T) {
	assert.Equal(t, []any{1, "a", 2.5}, objects.Unique([]any{1, "a", 1.0, 2.5, "a"}))

	big := []any{int64(1 << 53), int64(1<<53 + 1), uint64(1<<64 - 1), uint64(1<<64 - 2), json.Number("9007199254740993")}
	assert.Equal(t, []any{int64(1 << 53), int64(1<<53 + 1), uint64(1<<64 - 1), uint64(1<<64 - 2)}, objects.Unique(big))
	assert.Equal(t, []any{uint8(7), 0.5}, objects.Unique([]any{uint8(7), int64(7), json.Number("7"), 0.5, float32(0.5)}))

	m := map[string]any{"id": 1}
	other := map[string]any{"id": 1}
	assert.Len(t, objects.Unique([]any{m, m, other}), 2, "maps compare by identity")

	type user struct {
		ID   int
		Name string
	}
	users := []user{{1, "a"}, {2, "b"}, {1, "c"}}
	assert.Equal(t, []user{{1, "a"}, {2, "b"}}, objects.UniqueBy(users, func(u user) int { return u.ID }))

	nested := []any{1, []any{2, []any{3, []any{4}}}}
	assert.Equal(t, []any{1, 2, []any{3, []any{4}}}, objects.Flatten(nested, 1))
	assert.Equal(t, []any{1, 2, 3, 4}, objects.Flatten(nested, 10))
	assert.Equal(t, nested, objects.Flatten(nested, 0))

	assert.Equal(t, [][]int{{1, 2}, {3}}, objects.Chunk([]int{1, 2, 3}, 2))
}

func TestInferTypeAndPredicates(t *testing.T) {
	cases := []struct {
		in   any
		want objects.Type
	}{
		{"s", objects.TypeString},
		{3, objects.TypeNumber},
		{uint8(3), objects.TypeNumber},
		{true, objects.TypeBoolean},
		{[]any{}, objects.TypeArray},
		{[]string{"a"}, objects.TypeArray},
		{map[string]any{}, objects.TypeObject},
		{struct{}{}, objects.TypeObject},
		{time.Now(), objects.TypeDate},
		{nil, objects.TypeNull},
		{objects.Undefined, objects.TypeUndefined},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, objects.InferType(c.in), "%#v", c.in)
	}

	assert.True(t, objects.IsPlainObject(map[string]any{}))
	assert.True(t, objects.IsPlainObject(map[string]int{"a": 1}))
	assert.False(t, objects.IsPlainObject([]any{}))
	assert.True(t, objects.IsEmpty(""))
	assert.True(t, objects.IsEmpty([]any{}))
	assert.True(t, objects.IsEmpty(nil))
	assert.False(t, objects.IsEmpty(0))
}

func TestToPlain(t *testing.T) {
	type Status string
	type item struct {
		Status Status            `json:"status"`
		Labels map[string]string `json:"labels"`
	}
	out := objects.ToPlain([]item{{Status: "ok", Labels: map[string]string{"k": "v"}}})
	assert.Equal(t, []any{map[string]any{"status": "ok", "labels": map[string]any{"k": "v"}}}, out)
}
