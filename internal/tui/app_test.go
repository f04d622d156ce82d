package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subsweep/internal/model"
)

type fakeStore struct {
	recs    []model.ConsolidatedRecord
	removed []string
}

func (s *fakeStore) ReplaceSubscriptions(_ context.Context, recs []model.ConsolidatedRecord, _ time.Time) error {
	s.recs = recs
	return nil
}

func (s *fakeStore) RemoveSubscriptions(_ context.Context, ids []string) error {
	s.removed = append(s.removed, ids...)
	return nil
}

func (s *fakeStore) LoadSubscriptions(context.Context) ([]model.ConsolidatedRecord, error) {
	return s.recs, nil
}

func (s *fakeStore) LastScan(context.Context) (time.Time, bool, error) {
	return time.Time{}, false, nil
}

type fakeMailbox struct {
	trashed []string
}

func (f *fakeMailbox) ListMessageIDs(context.Context, string, int64) ([]string, error) {
	return nil, nil
}

func (f *fakeMailbox) GetMessage(context.Context, string) (model.RawMessage, error) {
	return model.RawMessage{}, errors.New("not used")
}

func (f *fakeMailbox) TrashMessages(_ context.Context, ids []string) error {
	f.trashed = append(f.trashed, ids...)
	return nil
}

func (f *fakeMailbox) GetMessageBody(context.Context, string) (string, error) {
	return "hello body", nil
}

func records() []model.ConsolidatedRecord {
	return []model.ConsolidatedRecord{
		{ID: "n1", From: "News <news@example.com>", SenderKey: "news@example.com", Subject: "Weekly", Category: model.CategoryNewsletter, UnsubscribeLink: "https://example.com/unsub",
			RelatedEmails: []model.RelatedEmail{{ID: "n1", Subject: "Weekly", Date: "Mon, 01 Jan 2024 10:00:00 +0000"}, {ID: "n0", Subject: "Later", Date: "Tue, 02 Jan 2024 10:00:00 +0000"}}},
		{ID: "s1", From: "updates@linkedin.com", SenderKey: "updates@linkedin.com", Subject: "Connections", Category: model.CategorySocial,
			RelatedEmails: []model.RelatedEmail{{ID: "s1", Subject: "Connections"}}},
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// connected returns a model that has loaded recs and authenticated.
func connected(t *testing.T, store *fakeStore, mb *fakeMailbox, opened *[]string) *AppModel {
	t.Helper()
	m := NewAppModel(Options{
		Store: store,
		Open: func(link string) error {
			*opened = append(*opened, link)
			return nil
		},
	})
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	_, cmd := m.Update(storedLoadedMsg{records: store.recs})
	require.NotNil(t, cmd)
	_, cmd = m.Update(authResultMsg{mailbox: mb})
	assert.Nil(t, cmd)
	require.Equal(t, viewSubscriptions, m.view)
	return &m
}

func TestStoredRecordsSkipInitialScan(t *testing.T) {
	var opened []string
	m := connected(t, &fakeStore{recs: records()}, &fakeMailbox{}, &opened)
	assert.Len(t, m.subsList.Items(), 2)
	assert.Contains(t, m.subsList.Title, "Subscriptions (2)")
	assert.Contains(t, m.subsList.Title, "newsletter 1")
}

func TestEmptyStoreStartsScan(t *testing.T) {
	m := NewAppModel(Options{Store: &fakeStore{}})
	m.Update(storedLoadedMsg{})
	_, cmd := m.Update(authResultMsg{mailbox: &fakeMailbox{}})
	require.NotNil(t, cmd)
	assert.Equal(t, viewScanning, m.view)

	m.Update(scanProgressMsg{Processed: 3, Total: 10, Percentage: 30})
	assert.Contains(t, m.View(), "3 / 10 messages (30%)")

	done := cmd()
	m.Update(done)
	assert.Equal(t, viewSubscriptions, m.view)
	assert.Contains(t, m.status, "Scan complete: 0")
}

func TestCategoryCycleAndSearch(t *testing.T) {
	var opened []string
	m := connected(t, &fakeStore{recs: records()}, &fakeMailbox{}, &opened)

	m.Update(key("tab"))
	assert.Equal(t, model.CategoryNewsletter, m.category)
	assert.Len(t, m.subsList.Items(), 1)

	m.Update(key("tab"))
	assert.Equal(t, model.CategorySocial, m.category)
	assert.Len(t, m.subsList.Items(), 1)

	m.category = ""
	m.Update(key("/"))
	require.True(t, m.searching)
	for _, r := range "linked" {
		m.Update(key(string(r)))
	}
	assert.Equal(t, "linked", m.search)
	assert.Len(t, m.subsList.Items(), 1)

	m.Update(key("esc"))
	assert.False(t, m.searching)
	assert.Len(t, m.subsList.Items(), 2)
}

func TestUnsubscribeSelected(t *testing.T) {
	store := &fakeStore{recs: records()}
	var opened []string
	m := connected(t, store, &fakeMailbox{}, &opened)

	m.Update(key(" "))
	assert.True(t, m.selected["n1"])

	_, cmd := m.Update(key("u"))
	require.NotNil(t, cmd)
	m.Update(cmd())

	assert.Equal(t, []string{"https://example.com/unsub"}, opened)
	assert.Equal(t, []string{"n1"}, store.removed)
	assert.Len(t, m.records, 1)
	assert.Equal(t, "s1", m.records[0].ID)
	assert.Contains(t, m.status, "Unsubscribed from 1")
}

func TestTrashCursorRecord(t *testing.T) {
	store := &fakeStore{recs: records()}
	mb := &fakeMailbox{}
	var opened []string
	m := connected(t, store, mb, &opened)

	_, cmd := m.Update(key("#"))
	require.NotNil(t, cmd)
	m.Update(cmd())

	assert.Equal(t, []string{"n1", "n0"}, mb.trashed)
	assert.Equal(t, []string{"n1"}, store.removed)
	assert.Empty(t, opened)
}

func TestDrillDownToBody(t *testing.T) {
	var opened []string
	m := connected(t, &fakeStore{recs: records()}, &fakeMailbox{}, &opened)

	m.Update(key("enter"))
	require.Equal(t, viewRelated, m.view)
	items := m.relatedList.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "n0", items[0].(relatedItem).ID, "newest first")

	_, cmd := m.Update(key("enter"))
	require.NotNil(t, cmd)
	m.Update(cmd())
	assert.Equal(t, viewBody, m.view)
	assert.True(t, strings.Contains(m.bodyViewport.View(), "hello body"))

	m.Update(key("esc"))
	assert.Equal(t, viewRelated, m.view)
	m.Update(key("esc"))
	assert.Equal(t, viewSubscriptions, m.view)
}

func TestAuthFailureQuits(t *testing.T) {
	m := NewAppModel(Options{Store: &fakeStore{}})
	m.Update(storedLoadedMsg{})
	_, cmd := m.Update(authResultMsg{err: &model.AuthError{Err: errors.New("denied")}})
	require.NotNil(t, cmd)
	assert.True(t, model.IsAuthError(m.Err))
	assert.Contains(t, m.View(), "denied")
}
