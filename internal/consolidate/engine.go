// Package consolidate folds per-message detections into one record per sender.
package consolidate

import (
	"subsweep/internal/model"
)

// Engine holds the consolidated state of a single scan. It is not safe for
// concurrent use; a scan owns its engine exclusively.
type Engine struct {
	records map[string]*model.ConsolidatedRecord
	order   []string
}

// NewEngine returns an empty engine.
func NewEngine() *Engine {
	return &Engine{records: make(map[string]*model.ConsolidatedRecord)}
}

// Add merges d into the record for d.SenderKey.
//
// The first detection for a sender creates the record and pins its ID, From
// and Category. A later detection whose date is strictly newer replaces
// Subject and Date, and the link only when it carries one. Every detection is
// appended to RelatedEmails.
func (e *Engine) Add(d model.Detection) {
	related := model.RelatedEmail{ID: d.ID, Subject: d.Subject, Date: d.Date}

	rec, ok := e.records[d.SenderKey]
	if !ok {
		e.records[d.SenderKey] = &model.ConsolidatedRecord{
			ID:              d.ID,
			Subject:         d.Subject,
			From:            d.From,
			SenderKey:       d.SenderKey,
			Category:        d.Category,
			UnsubscribeLink: d.UnsubscribeLink,
			Date:            d.Date,
			RelatedEmails:   []model.RelatedEmail{related},
		}
		e.order = append(e.order, d.SenderKey)
		return
	}

	if isNewer(d.Date, rec.Date) {
		rec.Subject = d.Subject
		rec.Date = d.Date
		if d.UnsubscribeLink != "" {
			rec.UnsubscribeLink = d.UnsubscribeLink
		}
	}
	rec.RelatedEmails = append(rec.RelatedEmails, related)
}

// Len returns the number of distinct senders.
func (e *Engine) Len() int { return len(e.order) }

// Snapshot returns a copy of all records in first-seen sender order.
func (e *Engine) Snapshot() []model.ConsolidatedRecord {
	out := make([]model.ConsolidatedRecord, 0, len(e.order))
	for _, key := range e.order {
		rec := *e.records[key]
		rec.RelatedEmails = append([]model.RelatedEmail(nil), rec.RelatedEmails...)
		out = append(out, rec)
	}
	return out
}
