package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"subsweep/internal/model"
)

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("39")).
	PaddingBottom(1)

// bodyHeader shows the email's own subject and date next to the sender
// facts of the subscription it was folded into.
func bodyHeader(rec model.ConsolidatedRecord, email model.RelatedEmail) string {
	lines := []string{
		"From: " + rec.From,
		"Subject: " + email.Subject,
		"Date: " + trimDate(email.Date),
		fmt.Sprintf("Category: %s", rec.Category),
	}
	if rec.UnsubscribeLink != "" {
		lines = append(lines, "Unsubscribe: "+rec.UnsubscribeLink)
	}
	return headerStyle.Render(strings.Join(lines, "\n"))
}

func bodyFooter() string {
	return footerStyle.Render("o: open in gmail  esc: back  q: quit")
}
