package codec

import (
	"bytes"
	"io"

	"github.com/goccy/go-json"

	"github.com/reoring/kairo"
	"github.com/reoring/kairo/i18n"
	"github.com/reoring/kairo/objects"
)

type dupFrame struct {
	object  bool
	path    objects.Path
	keys    map[string]struct{}
	key     string
	index   int
	wantKey bool
}

// duplicateKeys scans a JSON document token by token and reports every key
// that appears twice in the same object. Decoding into a map keeps the last
// occurrence silently, so this has to run on the raw bytes.
func duplicateKeys(data []byte, failFast bool) (kairo.Issues, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var (
		iss   kairo.Issues
		stack []*dupFrame
	)
	// next returns the path of the value about to be read and moves the
	// enclosing container past it.
	next := func() objects.Path {
		if len(stack) == 0 {
			return nil
		}
		top := stack[len(stack)-1]
		if top.object {
			top.wantKey = true
			return top.path.Child(top.key)
		}
		p := top.path.Index(top.index)
		top.index++
		return p
	}
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return iss, nil
		}
		if err != nil {
			return nil, err
		}
		switch v := tok.(type) {
		case json.Delim:
			switch v {
			case '{', '[':
				stack = append(stack, &dupFrame{
					object:  v == '{',
					path:    next(),
					keys:    map[string]struct{}{},
					wantKey: true,
				})
			case '}', ']':
				if n := len(stack); n > 0 {
					stack = stack[:n-1]
				}
			}
		case string:
			if n := len(stack); n > 0 && stack[n-1].object && stack[n-1].wantKey {
				top := stack[n-1]
				if _, seen := top.keys[v]; seen {
					iss = append(iss, kairo.Issue{
						Path:    top.path.Child(v).Pointer(),
						Code:    kairo.CodeDuplicateKey,
						Message: i18n.T(kairo.CodeDuplicateKey, map[string]string{"key": v}),
						Params:  map[string]any{"key": v},
					})
					if failFast {
						return iss, nil
					}
				}
				top.keys[v] = struct{}{}
				top.key, top.wantKey = v, false
				continue
			}
			next()
		default:
			next()
		}
	}
}
