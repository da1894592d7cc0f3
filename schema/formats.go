package schema

import (
	"net/mail"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// StringFormat names a well-known string format.
type StringFormat string

const (
	FormatEmail    StringFormat = "email"
	FormatUUID     StringFormat = "uuid"
	FormatURL      StringFormat = "url"
	FormatDateTime StringFormat = "date-time"
)

var formatCheckers = map[StringFormat]func(string) bool{
	FormatEmail: func(s string) bool {
		addr, err := mail.ParseAddress(s)
		return err == nil && addr.Address == s
	},
	FormatUUID: func(s string) bool {
		// uuid.Parse also accepts urn: and braced forms
		if len(s) != 36 {
			return false
		}
		_, err := uuid.Parse(s)
		return err == nil
	},
	FormatURL: func(s string) bool {
		u, err := url.Parse(s)
		return err == nil && u.Scheme != "" && u.Host != ""
	},
	FormatDateTime: func(s string) bool {
		_, err := parseRFC3339(s)
		return err == nil
	},
}

func parseRFC3339(s string) (time.Time, error) {
	// Accept RFC3339Nano (trailing zeros optional)
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		if t2, err2 := time.Parse(time.RFC3339, s); err2 == nil {
			return t2, nil
		}
		return time.Time{}, err
	}
	return t, nil
}

func formatRFC3339Canonical(t time.Time) string {
	// Normalize to UTC and format using RFC3339Nano (Go trims trailing zeros)
	return t.UTC().Format(time.RFC3339Nano)
}
