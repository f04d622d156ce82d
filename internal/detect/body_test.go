package detect

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subsweep/internal/model"
)

func enc(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }

func TestDecodeBody_Preference(t *testing.T) {
	tests := []struct {
		name string
		msg  model.RawMessage
		want string
	}{
		{
			name: "html wins over plain",
			msg: model.RawMessage{Parts: []model.BodyPart{
				{MimeType: "text/plain", Data: enc("plain")},
				{MimeType: "text/html", Data: enc("<p>html</p>")},
			}},
			want: "<p>html</p>",
		},
		{
			name: "plain when no html",
			msg: model.RawMessage{Parts: []model.BodyPart{
				{MimeType: "image/png", Data: enc("png")},
				{MimeType: "text/plain", Data: enc("plain")},
			}},
			want: "plain",
		},
		{
			name: "empty html part is skipped",
			msg: model.RawMessage{Parts: []model.BodyPart{
				{MimeType: "text/html"},
				{MimeType: "text/plain", Data: enc("plain")},
			}},
			want: "plain",
		},
		{
			name: "top-level body without parts",
			msg:  model.RawMessage{Body: enc("top level")},
			want: "top level",
		},
		{
			name: "nothing usable",
			msg:  model.RawMessage{Parts: []model.BodyPart{{MimeType: "image/png", Data: enc("x")}}},
			want: "",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeBody(tc.msg)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDecodeBody_URLSafeAlphabet(t *testing.T) {
	raw := "subjects?>>>~~~ and more??"
	for _, data := range []string{
		base64.RawURLEncoding.EncodeToString([]byte(raw)),
		base64.URLEncoding.EncodeToString([]byte(raw)),
	} {
		got, err := DecodeBody(model.RawMessage{Body: data})
		require.NoError(t, err)
		assert.Equal(t, raw, got)
	}
}

func TestDecodeBody_Malformed(t *testing.T) {
	_, err := DecodeBody(model.RawMessage{Parts: []model.BodyPart{{MimeType: "text/html", Data: "!!not base64!!"}}})
	require.Error(t, err)

	var decErr *model.DecodeError
	require.True(t, errors.As(err, &decErr))
	assert.Equal(t, "text/html", decErr.MimeType)
}
