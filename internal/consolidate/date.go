package consolidate

import (
	"net/mail"
	"strings"
	"time"
)

// Layouts the Date header shows up in besides strict RFC 5322.
var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC850,
	time.RFC3339,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 -0700 (MST)",
}

// ParseDate parses a raw Date header value. ok is false for empty or
// unrecognized input.
func ParseDate(h string) (time.Time, bool) {
	h = strings.TrimSpace(h)
	if h == "" {
		return time.Time{}, false
	}
	if t, err := mail.ParseDate(h); err == nil {
		return t, true
	}
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, h); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// isNewer reports whether candidate is strictly later than current. If either
// side is absent or unparseable the answer is false.
func isNewer(candidate, current string) bool {
	c, ok := ParseDate(candidate)
	if !ok {
		return false
	}
	cur, ok := ParseDate(current)
	if !ok {
		return false
	}
	return c.After(cur)
}
