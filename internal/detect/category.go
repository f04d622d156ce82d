package detect

import (
	"strings"

	"subsweep/internal/model"
)

type categoryKeywords struct {
	category model.Category
	keywords []string
}

// categoryTable is ordered by priority: when text matches several
// categories the earliest one wins.
var categoryTable = []categoryKeywords{
	{model.CategoryNewsletter, []string{"unsubscribe", "subscription", "newsletter", "mailing list", "email preferences"}},
	{model.CategorySocial, []string{"linkedin", "facebook", "twitter", "instagram", "youtube", "reddit", "pinterest"}},
	{model.CategoryService, []string{"account", "billing", "payment", "service", "membership"}},
}

// Categorize classifies a message from its subject, sender and body.
// It never returns an empty category; unmatched text is CategoryOther.
func Categorize(subject, from, body string) model.Category {
	text := strings.ToLower(subject + " " + from + " " + body)
	for _, c := range categoryTable {
		for _, kw := range c.keywords {
			if strings.Contains(text, kw) {
				return c.category
			}
		}
	}
	return model.CategoryOther
}
