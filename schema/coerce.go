package schema

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/reoring/kairo/objects"
)

var errEmpty = errors.New("empty string")

// coerce converts v toward t. Values of a kind with no conversion path are
// returned unchanged and left to the type check; a conversion that is
// attempted and fails returns an error.
func coerce(v any, t objects.Type) (any, error) {
	switch t {
	case objects.TypeString:
		return toString(v), nil
	case objects.TypeNumber:
		return toNumber(v)
	case objects.TypeBoolean:
		return toBoolean(v)
	case objects.TypeDate:
		return toDate(v)
	case objects.TypeArray, objects.TypeObject:
		if s, ok := v.(string); ok {
			var out any
			if err := json.Unmarshal([]byte(s), &out); err != nil {
				return nil, fmt.Errorf("decode %s from string: %w", t, err)
			}
			return out, nil
		}
	}
	return v, nil
}

func toString(v any) any {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return formatRFC3339Canonical(x)
	case json.Number:
		return x.String()
	}
	if f, ok := objects.Number(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return v
}

func toNumber(v any) (any, error) {
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil, errEmpty
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %q as number: %w", x, err)
		}
		return f, nil
	case bool:
		if x {
			return float64(1), nil
		}
		return float64(0), nil
	case time.Time:
		return float64(x.UnixMilli()), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return nil, err
		}
		return f, nil
	}
	return v, nil
}

func toBoolean(v any) (any, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "1", "yes", "y", "on":
			return true, nil
		case "false", "0", "no", "n", "off":
			return false, nil
		}
		return nil, fmt.Errorf("parse %q as boolean", x)
	}
	if f, ok := objects.Number(v); ok {
		switch f {
		case 0:
			return false, nil
		case 1:
			return true, nil
		}
		return nil, fmt.Errorf("number %v is not 0 or 1", f)
	}
	return v, nil
}

func toDate(v any) (any, error) {
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil, errEmpty
		}
		if t, err := parseRFC3339(s); err == nil {
			return t, nil
		}
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return nil, fmt.Errorf("parse %q as date", x)
		}
		return t, nil
	}
	if f, ok := objects.Number(v); ok {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("number %v is not a timestamp", f)
		}
		return time.UnixMilli(int64(f)).UTC(), nil
	}
	return v, nil
}
