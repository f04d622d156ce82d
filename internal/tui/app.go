package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"subsweep/internal/model"
	"subsweep/internal/scan"
	"subsweep/internal/subscriptions"
)

type viewState int

const (
	viewLoading       viewState = iota
	viewAuth                    // waiting for auth code input
	viewScanning                // scan in progress
	viewSubscriptions           // main subscriptions list
	viewRelated                 // emails folded into one subscription
	viewBody                    // single message body
)

// Store is the persisted subscription set.
type Store interface {
	scan.Store
	subscriptions.Remover
	LoadSubscriptions(ctx context.Context) ([]model.ConsolidatedRecord, error)
	LastScan(ctx context.Context) (time.Time, bool, error)
}

// Mailbox is the authenticated mail account.
type Mailbox interface {
	scan.Fetcher
	subscriptions.Trasher
	GetMessageBody(ctx context.Context, id string) (string, error)
}

// Connector authenticates and returns a Mailbox. When the user has to
// authorize, the auth URL is sent on authURLs and pasted codes arrive on
// codes.
type Connector func(ctx context.Context, authURLs chan<- string, codes <-chan string) (Mailbox, error)

type Options struct {
	Store   Store
	Connect Connector
	// Open hands a link (https or mailto) to the system browser.
	Open   func(link string) error
	Scan   scan.Options
	Logger *log.Logger
}

var categoryCycle = []model.Category{
	"",
	model.CategoryNewsletter,
	model.CategorySocial,
	model.CategoryService,
	model.CategoryOther,
}

type AppModel struct {
	// Core state
	store    Store
	connect  Connector
	open     func(string) error
	scanOpts scan.Options
	logger   *log.Logger
	mailbox  Mailbox
	scanner  *scan.Scanner
	Err      error
	status   string

	// Auth flow
	authURLs  chan string
	codes     chan string
	authDone  chan authResultMsg
	textInput textinput.Model
	authURL   string

	// View state machine
	view           viewState
	records        []model.ConsolidatedRecord
	selected       map[string]bool
	category       model.Category
	search         string
	searching      bool
	lastScan       time.Time
	scanProgress   model.ScanProgress
	selectedRecord *model.ConsolidatedRecord
	selectedEmail  *model.RelatedEmail

	// Sub-models
	subsList     list.Model
	relatedList  list.Model
	bodyViewport viewport.Model
	searchInput  textinput.Model
	progressBar  progress.Model

	// Layout
	width, height int

	// Program reference for sending messages from goroutines
	program *tea.Program
}

// SetProgram stores a reference to the tea.Program so goroutines can send
// progress messages back to the Update loop.
func (m *AppModel) SetProgram(p *tea.Program) {
	m.program = p
}

func NewAppModel(opts Options) AppModel {
	ti := textinput.New()
	ti.Placeholder = "Paste auth code here"
	ti.Focus()

	si := textinput.New()
	si.Placeholder = "search sender, subject or category"
	si.Prompt = "/ "

	sl := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	sl.SetFilteringEnabled(false)
	// Remove esc from the list's built-in Quit binding so it doesn't exit on home
	sl.KeyMap.Quit.SetKeys("q")

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if opts.Scan.Logger == nil {
		opts.Scan.Logger = logger.WithPrefix("scan")
	}

	return AppModel{
		store:        opts.Store,
		connect:      opts.Connect,
		open:         opts.Open,
		scanOpts:     opts.Scan,
		logger:       logger,
		status:       "Loading subscriptions...",
		view:         viewLoading,
		authURLs:     make(chan string),
		codes:        make(chan string, 1),
		authDone:     make(chan authResultMsg, 1),
		selected:     map[string]bool{},
		textInput:    ti,
		searchInput:  si,
		subsList:     sl,
		relatedList:  list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0),
		bodyViewport: viewport.New(0, 0),
		progressBar:  progress.New(progress.WithDefaultGradient()),
	}
}

func (m *AppModel) Init() tea.Cmd {
	return tea.Batch(m.loadStoredCmd(), textinput.Blink)
}

func (m *AppModel) loadStoredCmd() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		ctx := context.Background()
		recs, err := store.LoadSubscriptions(ctx)
		if err != nil {
			return storedLoadedMsg{err: err}
		}
		last, _, err := store.LastScan(ctx)
		return storedLoadedMsg{records: recs, lastScan: last, err: err}
	}
}

func (m *AppModel) authenticateCmd() tea.Cmd {
	return func() tea.Msg {
		go func() {
			mb, err := m.connect(context.Background(), m.authURLs, m.codes)
			m.authDone <- authResultMsg{mailbox: mb, err: err}
		}()
		return m.waitAuth()
	}
}

// waitAuth blocks until the auth flow either needs the user or finishes.
func (m *AppModel) waitAuth() tea.Msg {
	select {
	case u := <-m.authURLs:
		return authURLMsg(u)
	case r := <-m.authDone:
		return r
	}
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		listH := msg.Height - 4 // room for footer
		m.subsList.SetSize(msg.Width, listH)
		m.relatedList.SetSize(msg.Width, listH)
		m.bodyViewport.Width = msg.Width
		m.bodyViewport.Height = msg.Height - 6 // room for header + footer
		m.progressBar.Width = max(10, msg.Width-4)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case storedLoadedMsg:
		if msg.err != nil {
			m.Err = msg.err
			m.status = "Could not load stored subscriptions!"
			return m, tea.Quit
		}
		m.records = msg.records
		m.lastScan = msg.lastScan
		m.refreshList()
		m.status = "Authenticating..."
		return m, m.authenticateCmd()

	case authURLMsg:
		m.authURL = string(msg)
		m.view = viewAuth
		return m, func() tea.Msg { return m.waitAuth() }

	case authResultMsg:
		if msg.err != nil {
			m.Err = msg.err
			m.status = "Authentication failed!"
			return m, tea.Quit
		}
		m.mailbox = msg.mailbox
		m.scanner = scan.NewScanner(m.mailbox, m.store, m.scanOpts)
		if len(m.records) == 0 {
			return m, m.startScan()
		}
		m.view = viewSubscriptions
		m.status = ""
		return m, nil

	case scanProgressMsg:
		m.scanProgress = model.ScanProgress(msg)
		return m, nil

	case scanDoneMsg:
		m.view = viewSubscriptions
		if msg.err != nil {
			m.status = fmt.Sprintf("Scan failed: %v", msg.err)
			if errors.Is(msg.err, model.ErrScanInProgress) {
				m.view = viewScanning
			}
			return m, nil
		}
		m.records = msg.result.Subscriptions
		m.lastScan = msg.result.ScannedAt
		m.selected = map[string]bool{}
		m.refreshList()
		m.status = fmt.Sprintf("Scan complete: %d subscriptions", len(m.records))
		return m, clearStatusAfter(3 * time.Second)

	case actionDoneMsg:
		if msg.err == nil {
			m.records = subscriptions.Without(m.records, msg.outcome.Acted)
			for _, id := range msg.outcome.Acted {
				delete(m.selected, id)
			}
			m.refreshList()
		}
		m.status = actionSummary(msg)
		return m, clearStatusAfter(4 * time.Second)

	case bodyFetchedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Failed to load body: %v", msg.err)
			return m, nil
		}
		header := ""
		if m.selectedRecord != nil && m.selectedEmail != nil {
			header = bodyHeader(*m.selectedRecord, *m.selectedEmail) + "\n\n"
		}
		m.bodyViewport.SetContent(header + msg.body)
		m.bodyViewport.GotoTop()
		m.view = viewBody
		m.status = ""
		return m, nil

	case statusMsg:
		if string(msg) == "" {
			m.status = ""
		}
		return m, nil
	}

	// Delegate to active sub-model
	var cmd tea.Cmd
	switch m.view {
	case viewAuth:
		m.textInput, cmd = m.textInput.Update(msg)
	case viewSubscriptions:
		if m.searching {
			m.searchInput, cmd = m.searchInput.Update(msg)
		} else {
			m.subsList, cmd = m.subsList.Update(msg)
		}
	case viewRelated:
		m.relatedList, cmd = m.relatedList.Update(msg)
	case viewBody:
		m.bodyViewport, cmd = m.bodyViewport.Update(msg)
	}
	return m, cmd
}

func (m *AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Global keys
	switch key {
	case "ctrl+c":
		return m, tea.Quit
	}

	switch m.view {
	case viewAuth:
		switch key {
		case "enter":
			val := m.textInput.Value()
			m.textInput.Reset()
			m.status = "Exchanging code..."
			return m, func() tea.Msg {
				select {
				case m.codes <- val:
				default:
				}
				return nil
			}
		case "esc":
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd

	case viewScanning:
		if key == "q" {
			return m, tea.Quit
		}
		return m, nil

	case viewSubscriptions:
		if m.searching {
			return m.handleSearchKey(msg)
		}
		switch key {
		case "q":
			return m, tea.Quit
		case "s":
			if m.scanner == nil {
				return m, nil
			}
			return m, m.startScan()
		case " ", "space":
			m.toggleSelected()
			return m, nil
		case "tab":
			m.cycleCategory(1)
			return m, nil
		case "shift+tab":
			m.cycleCategory(-1)
			return m, nil
		case "/":
			m.searching = true
			m.searchInput.SetValue(m.search)
			return m, m.searchInput.Focus()
		case "esc":
			if m.search != "" {
				m.search = ""
				m.refreshList()
			}
			return m, nil
		case "enter":
			return m.enterRecord()
		case "u":
			return m.applyAction(subscriptions.ModeOpen)
		case "#":
			return m.applyAction(subscriptions.ModeTrash)
		}
		var cmd tea.Cmd
		m.subsList, cmd = m.subsList.Update(msg)
		return m, cmd

	case viewRelated:
		switch key {
		case "q":
			return m, tea.Quit
		case "esc":
			m.view = viewSubscriptions
			m.selectedRecord = nil
			return m, nil
		case "enter":
			return m.enterEmail()
		}
		var cmd tea.Cmd
		m.relatedList, cmd = m.relatedList.Update(msg)
		return m, cmd

	case viewBody:
		switch key {
		case "q":
			return m, tea.Quit
		case "esc":
			m.view = viewRelated
			m.selectedEmail = nil
			return m, nil
		case "o":
			if m.selectedEmail != nil && m.open != nil {
				url := fmt.Sprintf("https://mail.google.com/mail/u/0/#inbox/%s", m.selectedEmail.ID)
				if err := m.open(url); err != nil {
					m.status = fmt.Sprintf("Open failed: %v", err)
				}
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.bodyViewport, cmd = m.bodyViewport.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *AppModel) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.searchInput.Blur()
		return m, nil
	case "esc":
		m.searching = false
		m.searchInput.Blur()
		m.searchInput.Reset()
		m.search = ""
		m.refreshList()
		return m, nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	if v := m.searchInput.Value(); v != m.search {
		m.search = v
		m.refreshList()
	}
	return m, cmd
}

// refreshList rebuilds the visible subscriptions from the category and
// search filters, keeping the cursor in range.
func (m *AppModel) refreshList() {
	idx := m.subsList.Index()
	visible := subscriptions.Filter(m.records, m.category, m.search)
	m.subsList.SetItems(recordsToItems(visible, m.selected))
	m.subsList.Title = listTitle(subscriptions.ComputeStats(m.records), m.category, m.search, m.lastScan)
	if n := len(visible); n > 0 {
		m.subsList.Select(min(idx, n-1))
	}
}

func (m *AppModel) cycleCategory(step int) {
	i := 0
	for j, c := range categoryCycle {
		if c == m.category {
			i = j
			break
		}
	}
	i = (i + step + len(categoryCycle)) % len(categoryCycle)
	m.category = categoryCycle[i]
	m.refreshList()
}

func (m *AppModel) toggleSelected() {
	item, ok := m.subsList.SelectedItem().(recordItem)
	if !ok {
		return
	}
	if m.selected[item.ID] {
		delete(m.selected, item.ID)
	} else {
		m.selected[item.ID] = true
	}
	item.selected = m.selected[item.ID]
	m.subsList.SetItem(m.subsList.Index(), item)
}

// selectedIDs returns the marked records in list order, or the record
// under the cursor when nothing is marked.
func (m *AppModel) selectedIDs() []string {
	var ids []string
	for _, r := range m.records {
		if m.selected[r.ID] {
			ids = append(ids, r.ID)
		}
	}
	if len(ids) > 0 {
		return ids
	}
	if item, ok := m.subsList.SelectedItem().(recordItem); ok {
		return []string{item.ID}
	}
	return nil
}

func (m *AppModel) applyAction(mode subscriptions.Mode) (tea.Model, tea.Cmd) {
	ids := m.selectedIDs()
	if len(ids) == 0 {
		return m, nil
	}
	if mode == subscriptions.ModeTrash && m.mailbox == nil {
		m.status = "Not connected to Gmail"
		return m, clearStatusAfter(2 * time.Second)
	}
	var trasher subscriptions.Trasher
	if m.mailbox != nil {
		trasher = m.mailbox
	}
	action := subscriptions.NewAction(m.open, trasher, m.store, m.logger.WithPrefix("unsubscribe"))
	recs := m.records
	if mode == subscriptions.ModeTrash {
		m.status = fmt.Sprintf("Trashing %d subscription(s)...", len(ids))
	} else {
		m.status = fmt.Sprintf("Unsubscribing from %d subscription(s)...", len(ids))
	}
	return m, func() tea.Msg {
		out, err := action.Apply(context.Background(), recs, ids, mode)
		return actionDoneMsg{mode: mode, outcome: out, err: err}
	}
}

func (m *AppModel) enterRecord() (tea.Model, tea.Cmd) {
	item, ok := m.subsList.SelectedItem().(recordItem)
	if !ok {
		return m, nil
	}
	rec := item.ConsolidatedRecord
	m.selectedRecord = &rec
	m.relatedList.SetItems(sortedRelatedItems(rec.RelatedEmails))
	m.relatedList.Title = fmt.Sprintf("%s · %s (%d emails)", item.displayName(), rec.Category, len(rec.RelatedEmails))
	m.view = viewRelated
	return m, nil
}

func (m *AppModel) enterEmail() (tea.Model, tea.Cmd) {
	item, ok := m.relatedList.SelectedItem().(relatedItem)
	if !ok {
		return m, nil
	}
	if m.mailbox == nil {
		m.status = "Not connected to Gmail"
		return m, clearStatusAfter(2 * time.Second)
	}
	e := item.RelatedEmail
	m.selectedEmail = &e
	m.status = "Loading message..."
	return m, m.fetchBodyCmd(e.ID)
}

// Commands

func (m *AppModel) startScan() tea.Cmd {
	m.view = viewScanning
	m.scanProgress = model.ScanProgress{}
	m.status = ""
	scanner := m.scanner
	return func() tea.Msg {
		res, err := scanner.Run(context.Background(), func(p model.ScanProgress) {
			if m.program != nil {
				m.program.Send(scanProgressMsg(p))
			}
		})
		return scanDoneMsg{result: res, err: err}
	}
}

func (m *AppModel) fetchBodyCmd(messageID string) tea.Cmd {
	mb := m.mailbox
	return func() tea.Msg {
		body, err := mb.GetMessageBody(context.Background(), messageID)
		return bodyFetchedMsg{body: body, err: err}
	}
}

func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return statusMsg("")
	})
}

func actionSummary(msg actionDoneMsg) string {
	verb := "Unsubscribed from"
	if msg.mode == subscriptions.ModeTrash {
		verb = "Trashed"
	}
	parts := []string{fmt.Sprintf("%s %d", verb, len(msg.outcome.Acted))}
	if n := len(msg.outcome.NoLink); n > 0 {
		parts = append(parts, fmt.Sprintf("%d without link", n))
	}
	if n := len(msg.outcome.Failed); n > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", n))
	}
	if msg.err != nil {
		parts = append(parts, fmt.Sprintf("error: %v", msg.err))
	}
	return strings.Join(parts, ", ")
}

// View renders the appropriate view based on current state.
func (m *AppModel) View() string {
	// Auth code input
	if m.view == viewAuth {
		return "Please open this URL in your browser to authenticate:\n\n" +
			m.authURL + "\n\n" +
			m.textInput.View() + "\n\n" +
			m.status
	}

	// Error state
	if m.Err != nil {
		return "Error: " + m.Err.Error() + "\n"
	}

	// Loading
	if m.view == viewLoading {
		if m.status != "" {
			return m.status + "\n"
		}
		return "Loading...\n"
	}

	var b strings.Builder

	switch m.view {
	case viewScanning:
		b.WriteString(scanView(m.progressBar, m.scanProgress))
	case viewSubscriptions:
		if m.searching || m.search != "" {
			b.WriteString(m.searchInput.View())
			b.WriteString("\n")
		}
		b.WriteString(m.subsList.View())
		b.WriteString("\n")
		b.WriteString(subscriptionsFooter())
	case viewRelated:
		b.WriteString(m.relatedList.View())
		b.WriteString("\n")
		b.WriteString(relatedFooter())
	case viewBody:
		b.WriteString(m.bodyViewport.View())
		b.WriteString("\n")
		b.WriteString(bodyFooter())
	}

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(m.status)
	}

	return b.String()
}
