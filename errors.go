package kairo

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes reported by the schema engine.
const (
	CodeInvalidType   = "invalid_type"
	CodeRequired      = "required"
	CodeUnknownKey    = "unknown_key"
	CodeTooSmall      = "too_small"
	CodeTooBig        = "too_big"
	CodeTooShort      = "too_short"
	CodeTooLong       = "too_long"
	CodeInvalidLength = "invalid_length"
	CodePattern       = "pattern"
	CodeInvalidEnum   = "invalid_enum"
	CodeInvalidFormat = "invalid_format"
	CodeCoercion      = "coercion_failed"
	CodeCustom        = "custom"
	CodeDuplicateKey  = "duplicate_key"
)

// Op names the public operation that produced an Error.
type Op string

const (
	OpSchema      Op = "schema"
	OpValidate    Op = "validate"
	OpTransform   Op = "transform"
	OpConvert     Op = "convert"
	OpAggregate   Op = "aggregate"
	OpGroupBy     Op = "groupBy"
	OpSerialize   Op = "serialize"
	OpDeserialize Op = "deserialize"
	OpClone       Op = "clone"
	OpMerge       Op = "merge"
)

// Pillar tags the layer an Error originated from so that collaborator layers
// (HTTP, composition) can discriminate engine failures from their own.
type Pillar string

// PillarData is set on every error produced by this module.
const PillarData Pillar = "DATA"

// Issue represents a single validation entry.
type Issue struct {
	Path    string // JSON Pointer (for example: /items/2/price).
	Code    string // One of the Code* constants.
	Message string
	// Params carries structured parameters (e.g., {"min":1, "got":0}).
	Params map[string]any
}

// Issues is a collection of validation errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := min(n, maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. invalid_type at /path
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	return append(dst, more...)
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	var e *Error
	if errors.As(err, &e) && len(e.Issues) > 0 {
		return e.Issues, true
	}
	return nil, false
}

// Error is the failure record carried by a failed Result. It is created once
// per failure site and never mutated afterwards.
type Error struct {
	Op      Op
	Message string
	Context map[string]any
	Pillar  Pillar
	// Issues is set for validate failures and mirrors Context["issues"].
	Issues Issues
	Cause  error
}

// NewError builds an Error. The context map is copied.
func NewError(op Op, msg string, ctx map[string]any) *Error {
	c := make(map[string]any, len(ctx))
	for k, v := range ctx {
		c[k] = v
	}
	return &Error{Op: op, Message: msg, Context: c, Pillar: PillarData}
}

// Errorf builds an Error whose cause is err. The cause message is recorded in
// the context under "cause".
func Errorf(op Op, err error, ctx map[string]any, format string, args ...any) *Error {
	e := NewError(op, fmt.Sprintf(format, args...), ctx)
	if err != nil {
		e.Cause = err
		e.Context["cause"] = err.Error()
	}
	return e
}

// IssuesError wraps a list of validation issues into one aggregated record.
func IssuesError(op Op, iss Issues, ctx map[string]any) *Error {
	e := NewError(op, "validation failed: "+iss.Error(), ctx)
	e.Issues = iss
	e.Context["issues"] = iss
	e.Cause = iss
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return string(e.Op) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches another *Error with the same Op, so errors.Is(err, &kairo.Error{Op: kairo.OpValidate})
// works as an operation check.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t == nil {
		return false
	}
	return t.Op == e.Op && (t.Message == "" || t.Message == e.Message)
}

// AsError extracts an *Error from err using errors.As.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
