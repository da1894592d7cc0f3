// Package manifest loads a schema, a transform mapping and aggregate
// operations from a single YAML (or JSON) document.
//
//	schema:
//	  options: {unknown: strict, coerce: true}
//	  fields:
//	    name: {type: string, required: true, min: 2}
//	    age: integer
//	    tags: {type: array, items: string}
//	transform:
//	  - {key: fullName, from: name}
//	  - {key: city, from: address.city, default: unknown}
//	aggregate:
//	  groupBy: [region]
//	  sum: [revenue]
//	  count: ["*"]
//
// Every section is optional. Unknown keys are rejected at every level.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/reoring/kairo/aggregate"
	"github.com/reoring/kairo/objects"
	"github.com/reoring/kairo/schema"
	"github.com/reoring/kairo/transform"
)

// Manifest is a loaded document. Sections absent from the document are nil.
type Manifest struct {
	Schema    *schema.Schema
	Transform transform.Mapping
	Aggregate *aggregate.Operations[any]
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse reads the first document of data.
func Parse(data []byte) (*Manifest, error) {
	var node any
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&node); err != nil {
		if errors.Is(err, io.EOF) {
			return &Manifest{}, nil
		}
		return nil, fmt.Errorf("manifest: %w", err)
	}
	if node == nil {
		return &Manifest{}, nil
	}
	root := yamlAnyToStringMap(node)
	if root == nil {
		return nil, fmt.Errorf("manifest: top level must be a mapping")
	}
	if err := onlyKeys("manifest", root, "schema", "transform", "aggregate"); err != nil {
		return nil, err
	}

	out := &Manifest{}
	var err error
	if v, ok := root["schema"]; ok {
		if out.Schema, err = parseSchema(v); err != nil {
			return nil, err
		}
	}
	if v, ok := root["transform"]; ok {
		if out.Transform, err = parseMapping(v); err != nil {
			return nil, err
		}
	}
	if v, ok := root["aggregate"]; ok {
		if out.Aggregate, err = parseOperations(v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func yamlAnyToStringMap(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = yamlNormalizeValue(vv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[fmt.Sprint(k)] = yamlNormalizeValue(vv)
		}
		return out
	default:
		return nil
	}
}

func yamlNormalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any, map[any]any:
		return yamlAnyToStringMap(t)
	case []any:
		arr := make([]any, len(t))
		for i := range t {
			arr[i] = yamlNormalizeValue(t[i])
		}
		return arr
	default:
		return v
	}
}

func onlyKeys(where string, m map[string]any, allowed ...string) error {
	var unknown []string
	for k := range m {
		found := false
		for _, a := range allowed {
			if k == a {
				found = true
				break
			}
		}
		if !found {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("%s: unknown key(s) %s", where, strings.Join(unknown, ", "))
}

func asMap(where string, v any) (map[string]any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected a mapping, got %s", where, objects.InferType(v))
	}
	return m, nil
}

func asString(where string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s: expected a string, got %s", where, objects.InferType(v))
	}
	return s, nil
}

func asBool(where string, v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%s: expected a boolean, got %s", where, objects.InferType(v))
	}
	return b, nil
}

func asFloat(where string, v any) (float64, error) {
	if _, isBool := v.(bool); !isBool {
		if f, ok := objects.Number(v); ok {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%s: expected a number, got %s", where, objects.InferType(v))
}

// asStrings accepts a single string or a list of strings.
func asStrings(where string, v any) ([]string, error) {
	if s, ok := v.(string); ok {
		return []string{s}, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected a string or a list of strings, got %s", where, objects.InferType(v))
	}
	out := make([]string, len(list))
	for i, it := range list {
		s, err := asString(fmt.Sprintf("%s[%d]", where, i), it)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}
