package tui

import (
	"sort"

	"github.com/charmbracelet/bubbles/list"

	"subsweep/internal/consolidate"
	"subsweep/internal/model"
)

// relatedItem wraps RelatedEmail for the list display.
type relatedItem struct {
	model.RelatedEmail
}

func (r relatedItem) FilterValue() string { return r.Subject }
func (r relatedItem) Title() string       { return r.Subject }
func (r relatedItem) Description() string {
	if d := trimDate(r.Date); d != "" {
		return "Date: " + d
	}
	return "Date: unknown"
}

func relatedFooter() string {
	return footerStyle.Render("enter: view body  esc: back  q: quit")
}

// sortedRelatedItems returns emails newest first. Emails with an
// unparseable date keep their order at the end.
func sortedRelatedItems(emails []model.RelatedEmail) []list.Item {
	sorted := make([]model.RelatedEmail, len(emails))
	copy(sorted, emails)
	sort.SliceStable(sorted, func(i, j int) bool {
		ti, okI := consolidate.ParseDate(sorted[i].Date)
		tj, okJ := consolidate.ParseDate(sorted[j].Date)
		if okI != okJ {
			return okI
		}
		return okI && ti.After(tj)
	})
	items := make([]list.Item, len(sorted))
	for i, e := range sorted {
		items[i] = relatedItem{e}
	}
	return items
}
