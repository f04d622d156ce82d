package detect

import (
	"encoding/base64"
	"strings"

	"subsweep/internal/model"
)

var urlSafeToStd = strings.NewReplacer("-", "+", "_", "/", "\r", "", "\n", "", " ", "", "\t", "")

// DecodeBody returns the textual body of msg. It prefers the first text/html
// part, then the first text/plain part, then the top-level body. An empty
// string with a nil error means no usable part exists.
func DecodeBody(msg model.RawMessage) (string, error) {
	mimeType, data := selectBody(msg)
	if data == "" {
		return "", nil
	}
	b, err := decodeBase64URL(data)
	if err != nil {
		return "", &model.DecodeError{MimeType: mimeType, Err: err}
	}
	return string(b), nil
}

func selectBody(msg model.RawMessage) (mimeType, data string) {
	for _, want := range []string{"text/html", "text/plain"} {
		for _, p := range msg.Parts {
			if strings.EqualFold(p.MimeType, want) && p.Data != "" {
				return want, p.Data
			}
		}
	}
	return "", msg.Body
}

// decodeBase64URL maps the URL-safe alphabet onto the standard one and
// decodes, tolerating missing padding the way Gmail sends it.
func decodeBase64URL(data string) ([]byte, error) {
	s := urlSafeToStd.Replace(data)
	if rem := len(s) % 4; rem != 0 {
		s += strings.Repeat("=", 4-rem)
	}
	return base64.StdEncoding.DecodeString(s)
}
