package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"subsweep/internal/model"
)

var scanTitleStyle = lipgloss.NewStyle().Bold(true).PaddingBottom(1)

func scanView(bar progress.Model, p model.ScanProgress) string {
	counts := "Fetching message list..."
	if p.Total > 0 {
		counts = fmt.Sprintf("%d / %d messages (%d%%)", p.Processed, p.Total, p.Percentage)
	}
	return scanTitleStyle.Render("Scanning inbox for subscriptions") + "\n" +
		bar.ViewAs(float64(p.Percentage)/100) + "\n\n" +
		counts + "\n\n" +
		footerStyle.Render("q: quit")
}
