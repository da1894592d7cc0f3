package objects

import (
	"fmt"
	"strconv"
	"strings"
)

// Path addresses a value inside nested maps, slices and structs. Numeric
// segments index into arrays.
//
// The three caller-facing forms are equivalent:
//
//	objects.ParsePath("items[0].name")
//	objects.P("items", 0, "name")
//	objects.Key("literal.key.with.dots")
type Path []string

// ParsePath splits a dot-delimited path. Bracket segments ("a[0]", `a["x.y"]`)
// are accepted and taken literally.
func ParsePath(s string) Path {
	if s == "" {
		return Path{}
	}
	var (
		out Path
		cur strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '.':
			flush()
		case '[':
			flush()
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				// unterminated bracket: treat the rest as a literal segment
				cur.WriteString(s[i:])
				i = len(s)
				continue
			}
			seg := s[i+1 : i+end]
			if len(seg) >= 2 && (seg[0] == '"' || seg[0] == '\'') && seg[len(seg)-1] == seg[0] {
				seg = seg[1 : len(seg)-1]
			}
			out = append(out, seg)
			i += end
		default:
			cur.WriteByte(ch)
		}
	}
	flush()
	return out
}

// P builds a Path from string and integer segments. Strings are not split.
func P(segs ...any) Path {
	out := make(Path, 0, len(segs))
	for _, s := range segs {
		switch t := s.(type) {
		case string:
			out = append(out, t)
		case int:
			out = append(out, strconv.Itoa(t))
		case Path:
			out = append(out, t...)
		default:
			out = append(out, fmt.Sprint(t))
		}
	}
	return out
}

// Key builds a single-segment Path; the key is never split on dots.
func Key(k string) Path { return Path{k} }

// Child returns a new Path extended by seg. The receiver is not modified.
func (p Path) Child(seg string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, seg)
}

// Index returns a new Path extended by an array index.
func (p Path) Index(i int) Path { return p.Child(strconv.Itoa(i)) }

// String renders the dot form.
func (p Path) String() string { return strings.Join(p, ".") }

// Pointer renders an RFC 6901 JSON Pointer ("/" for the root).
func (p Path) Pointer() string {
	if len(p) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, seg := range p {
		b.WriteByte('/')
		// escape '~' -> '~0', '/' -> '~1'
		b.WriteString(strings.ReplaceAll(strings.ReplaceAll(seg, "~", "~0"), "/", "~1"))
	}
	return b.String()
}

// index parses a segment as a non-negative array index.
func index(seg string) (int, bool) {
	if seg == "" {
		return 0, false
	}
	for i := 0; i < len(seg); i++ {
		if seg[i] < '0' || seg[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(seg)
	if err != nil {
		return 0, false
	}
	return n, true
}
