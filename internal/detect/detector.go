package detect

import (
	"io"

	"github.com/charmbracelet/log"

	"subsweep/internal/model"
	"subsweep/internal/util"
)

// Detector turns raw messages into detections.
type Detector struct {
	logger *log.Logger
}

// NewDetector returns a Detector that logs recoverable problems to logger.
// A nil logger discards them.
func NewDetector(logger *log.Logger) *Detector {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Detector{logger: logger}
}

// Detect analyzes one message. It returns model.ErrMalformedMessage when the
// headers are unreadable; a body that fails to decode is logged and treated
// as empty.
func (d *Detector) Detect(msg model.RawMessage) (model.Detection, error) {
	if msg.Headers == nil {
		return model.Detection{}, model.ErrMalformedMessage
	}

	subject, _ := msg.Header("Subject")
	from, _ := msg.Header("From")
	date, _ := msg.Header("Date")

	body, err := DecodeBody(msg)
	if err != nil {
		d.logger.Warn("Body decode failed, using empty body", "id", msg.ID, "error", err)
		body = ""
	}

	det := model.Detection{
		ID:        msg.ID,
		Subject:   subject,
		From:      from,
		SenderKey: util.NormalizeSender(from),
		Category:  Categorize(subject, from, body),
		Date:      date,
	}
	if m, ok := ExtractLink(msg, body); ok {
		det.UnsubscribeLink = m.Link
		d.logger.Debug("Unsubscribe link found", "id", msg.ID, "rule", m.Rule)
	}
	return det, nil
}
