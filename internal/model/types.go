package model

import (
	"strings"
	"time"
)

// Category is the subscription class assigned to a sender.
type Category string

const (
	CategoryNewsletter Category = "newsletter"
	CategorySocial     Category = "social"
	CategoryService    Category = "service"
	CategoryOther      Category = "other"
)

// Header is a single message header. Names are matched case-insensitively.
type Header struct {
	Name  string
	Value string
}

// BodyPart is one MIME part with its base64url-encoded payload.
type BodyPart struct {
	MimeType string
	Data     string
}

// RawMessage is a message as handed over by the mail fetcher.
// A nil Headers slice means the headers could not be read.
type RawMessage struct {
	ID      string
	Headers []Header
	Parts   []BodyPart // flattened, at most two levels deep
	Body    string     // top-level encoded body, used when no part matches
}

// Header returns the value of the first header named name, or "".
func (m RawMessage) Header(name string) (string, bool) {
	for _, h := range m.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

// Detection is the per-message analysis result before consolidation.
type Detection struct {
	ID              string
	Subject         string
	From            string
	SenderKey       string
	Category        Category
	UnsubscribeLink string // empty when no link was found
	Date            string // raw Date header, empty when absent
}

// RelatedEmail is a compact reference to one message folded into a record.
type RelatedEmail struct {
	ID      string `json:"id" yaml:"id"`
	Subject string `json:"subject" yaml:"subject"`
	Date    string `json:"date,omitempty" yaml:"date,omitempty"`
}

// ConsolidatedRecord is the single merged record kept per sender.
type ConsolidatedRecord struct {
	ID              string         `json:"id" yaml:"id"`
	Subject         string         `json:"subject" yaml:"subject"`
	From            string         `json:"from" yaml:"from"`
	SenderKey       string         `json:"senderKey" yaml:"sender_key"`
	Category        Category       `json:"category" yaml:"category"`
	UnsubscribeLink string         `json:"unsubscribeLink,omitempty" yaml:"unsubscribe_link,omitempty"`
	Date            string         `json:"date,omitempty" yaml:"date,omitempty"`
	RelatedEmails   []RelatedEmail `json:"relatedEmails" yaml:"related_emails"`
}

// ScanProgress is emitted after each message of a scan is handled.
type ScanProgress struct {
	Processed  int
	Total      int
	Percentage int
}

// ScanResult is the terminal outcome of a scan.
type ScanResult struct {
	RunID         string
	Success       bool
	Subscriptions []ConsolidatedRecord
	Error         string
	ScannedAt     time.Time
}

// UnsubscribeTarget pairs a record id with the link used to leave the list.
type UnsubscribeTarget struct {
	ID              string
	UnsubscribeLink string
}
