package gmail

import (
	gmailv1 "google.golang.org/api/gmail/v1"

	"subsweep/internal/model"
)

// toRawMessage converts a full-format Gmail message. Parts are flattened to
// two levels: the payload's direct parts and their direct children, in
// document order. Deeper nesting is not visited.
func toRawMessage(msg *gmailv1.Message) model.RawMessage {
	raw := model.RawMessage{ID: msg.Id}
	p := msg.Payload
	if p == nil {
		return raw
	}

	raw.Headers = make([]model.Header, 0, len(p.Headers))
	for _, h := range p.Headers {
		raw.Headers = append(raw.Headers, model.Header{Name: h.Name, Value: h.Value})
	}
	if p.Body != nil {
		raw.Body = p.Body.Data
	}
	for _, part := range p.Parts {
		raw.Parts = appendPart(raw.Parts, part)
		for _, sub := range part.Parts {
			raw.Parts = appendPart(raw.Parts, sub)
		}
	}
	return raw
}

func appendPart(parts []model.BodyPart, part *gmailv1.MessagePart) []model.BodyPart {
	if part == nil {
		return parts
	}
	bp := model.BodyPart{MimeType: part.MimeType}
	if part.Body != nil {
		bp.Data = part.Body.Data
	}
	return append(parts, bp)
}
