// Package subscriptions holds the operations on the stored subscription set
// that happen after a scan: stats, filtering and the unsubscribe action.
package subscriptions

import (
	"strings"

	"github.com/samber/lo"

	"subsweep/internal/model"
)

// Stats counts records per category.
type Stats struct {
	Total      int
	Newsletter int
	Social     int
	Service    int
	Other      int
}

func ComputeStats(recs []model.ConsolidatedRecord) Stats {
	counts := lo.CountValuesBy(recs, func(r model.ConsolidatedRecord) model.Category {
		return r.Category
	})
	return Stats{
		Total:      len(recs),
		Newsletter: counts[model.CategoryNewsletter],
		Social:     counts[model.CategorySocial],
		Service:    counts[model.CategoryService],
		Other:      counts[model.CategoryOther],
	}
}

// Filter keeps records of the given category ("" for all) whose sender,
// subject or category contains search, case-insensitively.
func Filter(recs []model.ConsolidatedRecord, category model.Category, search string) []model.ConsolidatedRecord {
	term := strings.ToLower(strings.TrimSpace(search))
	return lo.Filter(recs, func(r model.ConsolidatedRecord, _ int) bool {
		if category != "" && r.Category != category {
			return false
		}
		if term == "" {
			return true
		}
		return strings.Contains(strings.ToLower(r.From), term) ||
			strings.Contains(strings.ToLower(r.Subject), term) ||
			strings.Contains(string(r.Category), term)
	})
}

// Targets splits the selected records into those with an unsubscribe link
// and the ids of those without one. Unknown ids are ignored. Output follows
// the order of recs.
func Targets(recs []model.ConsolidatedRecord, selectedIDs []string) ([]model.UnsubscribeTarget, []string) {
	selected := lo.Keyify(selectedIDs)
	picked := lo.Filter(recs, func(r model.ConsolidatedRecord, _ int) bool {
		_, ok := selected[r.ID]
		return ok
	})
	withLink, withoutLink := lo.FilterReject(picked, func(r model.ConsolidatedRecord, _ int) bool {
		return r.UnsubscribeLink != ""
	})
	targets := lo.Map(withLink, func(r model.ConsolidatedRecord, _ int) model.UnsubscribeTarget {
		return model.UnsubscribeTarget{ID: r.ID, UnsubscribeLink: r.UnsubscribeLink}
	})
	noLink := lo.Map(withoutLink, func(r model.ConsolidatedRecord, _ int) string { return r.ID })
	return targets, noLink
}

// Without returns recs minus the records whose id is in ids.
func Without(recs []model.ConsolidatedRecord, ids []string) []model.ConsolidatedRecord {
	drop := lo.Keyify(ids)
	return lo.Reject(recs, func(r model.ConsolidatedRecord, _ int) bool {
		_, ok := drop[r.ID]
		return ok
	})
}

// FindByID returns the record with the given id.
func FindByID(recs []model.ConsolidatedRecord, id string) (model.ConsolidatedRecord, bool) {
	return lo.Find(recs, func(r model.ConsolidatedRecord) bool { return r.ID == id })
}
