package tui

import (
	"time"

	"subsweep/internal/model"
	"subsweep/internal/subscriptions"
)

// Async message types for Bubble Tea commands.

type storedLoadedMsg struct {
	records  []model.ConsolidatedRecord
	lastScan time.Time
	err      error
}

type authResultMsg struct {
	mailbox Mailbox
	err     error
}

type authURLMsg string

type scanProgressMsg model.ScanProgress

type scanDoneMsg struct {
	result model.ScanResult
	err    error
}

type actionDoneMsg struct {
	mode    subscriptions.Mode
	outcome subscriptions.Outcome
	err     error
}

type bodyFetchedMsg struct {
	body string
	err  error
}

type statusMsg string
