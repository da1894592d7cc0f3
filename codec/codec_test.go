package codec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/kairo"
	"github.com/reoring/kairo/codec"
	"github.com/reoring/kairo/schema"
)

func TestParseFormat(t *testing.T) {
	f, err := codec.ParseFormat(" JSON ")
	require.NoError(t, err)
	assert.Equal(t, codec.JSON, f)
	_, err = codec.ParseFormat("toml")
	assert.Error(t, err)
}

func TestSerialize_JSON(t *testing.T) {
	in := map[string]any{"b": 1, "a": []any{"x"}}
	compact := codec.Serialize(in, codec.JSON).Must()
	assert.JSONEq(t, `{"a":["x"],"b":1}`, string(compact))

	pretty := codec.Serialize(in, codec.JSON, codec.SerializeOptions{Pretty: true}).Must()
	assert.Contains(t, string(pretty), "\n  \"a\": [")
}

func TestSerialize_CSV(t *testing.T) {
	rows := []any{
		map[string]any{"name": "Ada, Countess", "age": 36},
		map[string]any{"name": `say "hi"`, "city": "London"},
	}
	out := codec.Serialize(rows, codec.CSV).Must()
	assert.Equal(t, "age,city,name\n36,,\"Ada, Countess\"\n,London,\"say \"\"hi\"\"\"\n", string(out))

	semi := codec.Serialize(rows, codec.CSV, codec.SerializeOptions{Delimiter: ';', SkipHeader: true, Columns: []string{"name", "age"}}).Must()
	assert.Equal(t, "Ada, Countess;36\n\"say \"\"hi\"\"\";\n", string(semi))

	type person struct {
		Name string `json:"name"`
	}
	typed := codec.Serialize([]person{{"x"}}, codec.CSV).Must()
	assert.Equal(t, "name\nx\n", string(typed))
}

func TestSerialize_Failures(t *testing.T) {
	for _, f := range []codec.Format{codec.XML, codec.YAML} {
		r := codec.Serialize([]any{}, f)
		require.True(t, r.IsErr())
		assert.Equal(t, kairo.OpSerialize, r.Err().Op)
		assert.Contains(t, r.Err().Message, "not implemented")
	}
	notRows := codec.Serialize(map[string]any{"a": 1}, codec.CSV)
	require.True(t, notRows.IsErr())
	assert.Equal(t, kairo.OpSerialize, notRows.Err().Op)

	assert.True(t, codec.Serialize([]any{1}, codec.CSV).IsErr())
	assert.True(t, codec.Serialize(1, "bin").IsErr())
}

func people() *schema.Schema {
	return schema.MustNew(schema.Definition{
		"name": schema.String(schema.Required()),
		"age":  schema.Integer(),
	})
}

func TestDeserialize_JSON(t *testing.T) {
	v := codec.Deserialize([]byte(`{"name":"Ada","age":36,"x":1}`), codec.JSON, people()).Must()
	assert.Equal(t, map[string]any{"name": "Ada", "age": 36.0}, v)

	raw := codec.Deserialize([]byte(`[1,2]`), codec.JSON, nil).Must()
	assert.Equal(t, []any{1.0, 2.0}, raw)

	bad := codec.Deserialize([]byte(`{"name":`), codec.JSON, people())
	require.True(t, bad.IsErr())
	assert.Equal(t, kairo.OpDeserialize, bad.Err().Op)

	invalid := codec.Deserialize([]byte(`[{"name":"a"},{"age":"x"}]`), codec.JSON, people())
	require.True(t, invalid.IsErr())
	iss, ok := kairo.AsIssues(invalid.Err())
	require.True(t, ok)
	paths := []string{}
	for _, is := range iss {
		paths = append(paths, is.Path)
	}
	assert.ElementsMatch(t, []string{"/1/age", "/1/name"}, paths)
}

func TestDeserialize_CSVRoundTrip(t *testing.T) {
	rows := []any{
		map[string]any{"name": "Ada, Countess", "age": 36},
		map[string]any{"name": `say "hi"`},
	}
	data := codec.Serialize(rows, codec.CSV).Must()
	back := codec.Deserialize(data, codec.CSV, people()).Must()
	assert.Equal(t, []any{
		map[string]any{"name": "Ada, Countess", "age": 36.0},
		map[string]any{"name": `say "hi"`},
	}, back)

	empty := codec.Deserialize(nil, codec.CSV, nil).Must()
	assert.Equal(t, []any{}, empty)

	r := codec.Deserialize([]byte("a"), codec.YAML, nil)
	require.True(t, r.IsErr())
	assert.Equal(t, kairo.OpDeserialize, r.Err().Op)
}

func TestDeserialize_DuplicateKeys(t *testing.T) {
	data := []byte(`[{"name":"a","name":"b"},{"tags":[{"k":1,"k":2}],"x":{"y":1},"y":2}]`)

	lenient := codec.Deserialize(data, codec.JSON, nil).Must()
	assert.Equal(t, "b", lenient.([]any)[0].(map[string]any)["name"])

	r := codec.Deserialize(data, codec.JSON, nil, codec.DeserializeOptions{RejectDuplicateKeys: true})
	require.True(t, r.IsErr())
	assert.Equal(t, kairo.OpDeserialize, r.Err().Op)
	iss, ok := kairo.AsIssues(r.Err())
	require.True(t, ok)
	require.Len(t, iss, 2)
	assert.Equal(t, "/0/name", iss[0].Path)
	assert.Equal(t, kairo.CodeDuplicateKey, iss[0].Code)
	assert.Equal(t, "duplicate key name", iss[0].Message)
	assert.Equal(t, "/1/tags/0/k", iss[1].Path)

	first := codec.Deserialize(data, codec.JSON, nil, codec.DeserializeOptions{RejectDuplicateKeys: true, FailFast: true})
	iss, _ = kairo.AsIssues(first.Err())
	assert.Len(t, iss, 1)

	clean := codec.Deserialize([]byte(`{"a":{"b":1},"b":[1,{"a":2}]}`), codec.JSON, nil, codec.DeserializeOptions{RejectDuplicateKeys: true})
	assert.True(t, clean.IsOk())
}
