package subscriptions

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"subsweep/internal/model"
)

func sampleRecords() []model.ConsolidatedRecord {
	return []model.ConsolidatedRecord{
		{ID: "n1", From: "Weekly Digest <digest@news.example>", Subject: "This week", Category: model.CategoryNewsletter, UnsubscribeLink: "https://news.example/unsub"},
		{ID: "s1", From: "LinkedIn <updates@linkedin.com>", Subject: "New connections", Category: model.CategorySocial},
		{ID: "v1", From: "Billing <billing@shop.example>", Subject: "Your invoice", Category: model.CategoryService, UnsubscribeLink: "unsubscribe@shop.example"},
		{ID: "o1", From: "friend@example.org", Subject: "Hello", Category: model.CategoryOther},
		{ID: "n2", From: "Daily <daily@news.example>", Subject: "Today", Category: model.CategoryNewsletter},
	}
}

func TestComputeStats(t *testing.T) {
	got := ComputeStats(sampleRecords())
	assert.Equal(t, Stats{Total: 5, Newsletter: 2, Social: 1, Service: 1, Other: 1}, got)
	assert.Equal(t, Stats{}, ComputeStats(nil))
}

func ids(recs []model.ConsolidatedRecord) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ID)
	}
	return out
}

func TestFilter(t *testing.T) {
	recs := sampleRecords()
	cases := []struct {
		name     string
		category model.Category
		search   string
		want     []string
	}{
		{name: "all", want: []string{"n1", "s1", "v1", "o1", "n2"}},
		{name: "category", category: model.CategoryNewsletter, want: []string{"n1", "n2"}},
		{name: "search from", search: "NEWS.example", want: []string{"n1", "n2"}},
		{name: "search subject", search: "invoice", want: []string{"v1"}},
		{name: "search category", search: "social", want: []string{"s1"}},
		{name: "category and search", category: model.CategoryNewsletter, search: "daily", want: []string{"n2"}},
		{name: "no match", search: "zzz", want: []string{}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, ids(Filter(recs, c.category, c.search)))
		})
	}
}

func TestTargets_SplitsByLink(t *testing.T) {
	targets, noLink := Targets(sampleRecords(), []string{"v1", "s1", "n1", "missing"})
	assert.Equal(t, []model.UnsubscribeTarget{
		{ID: "n1", UnsubscribeLink: "https://news.example/unsub"},
		{ID: "v1", UnsubscribeLink: "unsubscribe@shop.example"},
	}, targets)
	assert.Equal(t, []string{"s1"}, noLink)
}

func TestTargets_NoSelection(t *testing.T) {
	targets, noLink := Targets(sampleRecords(), nil)
	assert.Empty(t, targets)
	assert.Empty(t, noLink)
}

func TestWithout(t *testing.T) {
	recs := sampleRecords()
	assert.Equal(t, []string{"s1", "o1"}, ids(Without(recs, []string{"n1", "v1", "n2"})))
	assert.Len(t, recs, 5, "input must not be modified")
	assert.Equal(t, ids(recs), ids(Without(recs, nil)))
}

func TestFindByID(t *testing.T) {
	r, ok := FindByID(sampleRecords(), "o1")
	assert.True(t, ok)
	assert.Equal(t, "Hello", r.Subject)
	_, ok = FindByID(sampleRecords(), "nope")
	assert.False(t, ok)
}
