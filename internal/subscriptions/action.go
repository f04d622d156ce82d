package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"

	"subsweep/internal/model"
)

// Mode selects what an unsubscribe action does with each record.
type Mode int

const (
	// ModeOpen opens the record's unsubscribe link.
	ModeOpen Mode = iota
	// ModeTrash moves the record's messages to trash.
	ModeTrash
)

func (m Mode) String() string {
	if m == ModeTrash {
		return "trash"
	}
	return "open"
}

// Trasher moves messages to trash.
type Trasher interface {
	TrashMessages(ctx context.Context, ids []string) error
}

// Remover drops records from the stored set.
type Remover interface {
	RemoveSubscriptions(ctx context.Context, ids []string) error
}

// Outcome reports what an action did. Acted ids were removed from storage.
type Outcome struct {
	Acted  []string
	NoLink []string
	Failed map[string]error
}

// Action applies unsubscribe decisions and keeps the stored set in step.
type Action struct {
	open    func(link string) error
	trasher Trasher
	remover Remover
	logger  *log.Logger
}

// NewAction wires the collaborators. trasher may be nil when only ModeOpen
// is used.
func NewAction(open func(link string) error, trasher Trasher, remover Remover, logger *log.Logger) *Action {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Action{open: open, trasher: trasher, remover: remover, logger: logger}
}

// Apply acts on the selected records and removes the successfully handled
// ones from storage. In ModeOpen records without a link are reported in
// NoLink and left alone; ModeTrash acts on every selected record.
func (a *Action) Apply(ctx context.Context, recs []model.ConsolidatedRecord, selectedIDs []string, mode Mode) (Outcome, error) {
	out := Outcome{Failed: map[string]error{}}

	switch mode {
	case ModeOpen:
		targets, noLink := Targets(recs, selectedIDs)
		out.NoLink = noLink
		for _, t := range targets {
			if err := a.open(t.UnsubscribeLink); err != nil {
				a.logger.Warn("Open unsubscribe link failed", "id", t.ID, "error", err)
				out.Failed[t.ID] = err
				continue
			}
			out.Acted = append(out.Acted, t.ID)
		}
	case ModeTrash:
		if a.trasher == nil {
			return out, errors.New("trash mode requires a mail client")
		}
		selected := lo.Keyify(selectedIDs)
		for _, r := range recs {
			if _, ok := selected[r.ID]; !ok {
				continue
			}
			ids := lo.Uniq(append([]string{r.ID}, lo.Map(r.RelatedEmails, func(e model.RelatedEmail, _ int) string { return e.ID })...))
			if err := a.trasher.TrashMessages(ctx, ids); err != nil {
				a.logger.Warn("Trash failed", "id", r.ID, "error", err)
				out.Failed[r.ID] = err
				if model.IsAuthError(err) {
					break
				}
				continue
			}
			out.Acted = append(out.Acted, r.ID)
		}
	default:
		return out, fmt.Errorf("unknown mode %d", mode)
	}

	if len(out.Acted) == 0 {
		return out, nil
	}
	if err := a.remover.RemoveSubscriptions(ctx, out.Acted); err != nil {
		return out, &model.PersistenceError{Err: err}
	}
	a.logger.Info("Unsubscribe applied", "mode", mode, "acted", len(out.Acted), "no_link", len(out.NoLink), "failed", len(out.Failed))
	return out, nil
}
