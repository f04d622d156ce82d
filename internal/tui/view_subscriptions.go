package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"

	"subsweep/internal/consolidate"
	"subsweep/internal/model"
	"subsweep/internal/subscriptions"
	"subsweep/internal/util"
)

// recordItem wraps ConsolidatedRecord to customize list display.
type recordItem struct {
	model.ConsolidatedRecord
	selected bool
}

func (r recordItem) displayName() string { return util.DisplayName(r.From, r.SenderKey) }

func (r recordItem) FilterValue() string { return r.From + " " + r.Subject }
func (r recordItem) Title() string {
	mark := "[ ] "
	if r.selected {
		mark = "[x] "
	}
	indicator := "  "
	if r.UnsubscribeLink != "" {
		indicator = "@ "
	}
	return fmt.Sprintf("%s%s%s (%d)", mark, indicator, r.displayName(), len(r.RelatedEmails))
}
func (r recordItem) Description() string {
	desc := fmt.Sprintf("%s · %s", r.Category, r.Subject)
	if d := trimDate(r.Date); d != "" {
		desc += " · " + d
	}
	return desc
}

var footerStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("241")).
	PaddingTop(1)

func subscriptionsFooter() string {
	return footerStyle.Render("space: select  u: unsubscribe  #: trash  tab: category  /: search  enter: emails  s: scan  q: quit  @=link available")
}

func recordsToItems(recs []model.ConsolidatedRecord, selected map[string]bool) []list.Item {
	items := make([]list.Item, len(recs))
	for i, r := range recs {
		items[i] = recordItem{ConsolidatedRecord: r, selected: selected[r.ID]}
	}
	return items
}

func listTitle(st subscriptions.Stats, category model.Category, search string, lastScan time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Subscriptions (%d)  newsletter %d · social %d · service %d · other %d",
		st.Total, st.Newsletter, st.Social, st.Service, st.Other)
	if category != "" {
		fmt.Fprintf(&b, "  [%s]", category)
	}
	if search != "" {
		fmt.Fprintf(&b, "  /%s", search)
	}
	if !lastScan.IsZero() {
		fmt.Fprintf(&b, "  scanned %s", lastScan.Local().Format("Jan 2 15:04"))
	}
	return b.String()
}

// trimDate converts a Date header to a short date string.
func trimDate(h string) string {
	if h == "" {
		return ""
	}
	if t, ok := consolidate.ParseDate(h); ok {
		return t.Format("Jan 2, 2006")
	}
	return h
}
