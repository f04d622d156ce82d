package gmail

import (
	"context"
	"strings"

	"github.com/jaytaylor/html2text"

	"subsweep/internal/detect"
)

// GetMessageBody fetches a message and renders its body as plain text for
// the preview pane. HTML bodies are converted, falling back to the snippet
// when nothing decodes.
func (c *Client) GetMessageBody(ctx context.Context, messageID string) (string, error) {
	msg, err := c.svc.Users.Messages.Get(user, messageID).Format("full").Context(ctx).Do()
	if err != nil {
		return "", mapAPIError(err)
	}
	body, err := detect.DecodeBody(toRawMessage(msg))
	if err == nil && body != "" {
		return renderText(body), nil
	}
	if msg.Snippet != "" {
		return msg.Snippet, nil
	}
	return "(no content)", nil
}

func renderText(body string) string {
	if !strings.Contains(body, "<") {
		return strings.TrimSpace(body)
	}
	text, err := html2text.FromString(body, html2text.Options{OmitLinks: true, TextOnly: true})
	if err != nil {
		return strings.TrimSpace(body)
	}
	return strings.TrimSpace(text)
}
