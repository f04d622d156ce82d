package util

import (
	"regexp"
	"strings"
)

var (
	angleAddr = regexp.MustCompile(`<(.+?)>`)
	subAddr   = regexp.MustCompile(`\+[^@]+@`)
)

// NormalizeSender derives the sender key from a From header value.
// - Uses the address inside the first <...> when present, else the whole value
// - Lowercases
// - Strips +alias in local part: user+news@x.com -> user@x.com
// It never fails: a value without a domain comes back lower-cased as is.
func NormalizeSender(fromHeader string) string {
	addr := fromHeader
	if m := angleAddr.FindStringSubmatch(fromHeader); m != nil {
		addr = m[1]
	}
	addr = strings.ToLower(strings.TrimSpace(addr))

	// Only the first +alias segment is removed. Dots are kept as-is; some
	// providers ignore them (Gmail) but most don't.
	if loc := subAddr.FindStringIndex(addr); loc != nil {
		addr = addr[:loc[0]] + "@" + addr[loc[1]:]
	}
	return addr
}

// DisplayName returns the human part of a From header, falling back to the
// local part of the sender key, e.g. "Twitter <notify@twitter.com>" -> "Twitter".
func DisplayName(fromHeader, senderKey string) string {
	if idx := strings.Index(fromHeader, "<"); idx > 0 {
		name := strings.TrimSpace(fromHeader[:idx])
		name = strings.Trim(name, `"'`)
		if name != "" {
			return name
		}
	}
	if at := strings.IndexByte(senderKey, '@'); at > 0 {
		parts := strings.Split(senderKey[:at], ".")
		for i := range parts {
			if parts[i] == "" {
				continue
			}
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
		return strings.Join(parts, " ")
	}
	return senderKey
}
