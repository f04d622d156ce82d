// Package scan runs one subscription scan: fetch, detect, consolidate, persist.
package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"subsweep/internal/consolidate"
	"subsweep/internal/detect"
	"subsweep/internal/model"
)

const (
	DefaultQuery      = "in:inbox (unsubscribe OR subscription OR newsletter)"
	DefaultMaxResults = 100
)

// Fetcher lists candidate messages and fetches them one at a time.
type Fetcher interface {
	ListMessageIDs(ctx context.Context, query string, max int64) ([]string, error)
	GetMessage(ctx context.Context, id string) (model.RawMessage, error)
}

// Store receives the consolidated set of a successful scan.
type Store interface {
	ReplaceSubscriptions(ctx context.Context, recs []model.ConsolidatedRecord, scannedAt time.Time) error
}

// Options tunes a Scanner. Zero values fall back to the defaults.
type Options struct {
	Query      string
	MaxResults int64
	Logger     *log.Logger
	Now        func() time.Time
}

// Scanner runs scans one at a time.
type Scanner struct {
	fetcher  Fetcher
	store    Store
	detector *detect.Detector
	logger   *log.Logger
	query    string
	max      int64
	now      func() time.Time

	mu sync.Mutex
}

// NewScanner wires a scanner around its collaborators. store may be nil, in
// which case results are returned but not persisted.
func NewScanner(fetcher Fetcher, store Store, opts Options) *Scanner {
	s := &Scanner{
		fetcher: fetcher,
		store:   store,
		logger:  opts.Logger,
		query:   opts.Query,
		max:     opts.MaxResults,
		now:     opts.Now,
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	if s.query == "" {
		s.query = DefaultQuery
	}
	if s.max <= 0 {
		s.max = DefaultMaxResults
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.detector = detect.NewDetector(s.logger.WithPrefix("detect"))
	return s
}

// Run performs a full scan. progress, if non-nil, is called after every
// message in processing order. The returned result is also filled on
// failure, with Success false and Error set.
//
// Only one scan may run at a time; a concurrent call fails fast with
// model.ErrScanInProgress.
func (s *Scanner) Run(ctx context.Context, progress func(model.ScanProgress)) (model.ScanResult, error) {
	if !s.mu.TryLock() {
		return model.ScanResult{Error: model.ErrScanInProgress.Error()}, model.ErrScanInProgress
	}
	defer s.mu.Unlock()

	runID := uuid.NewString()
	logger := s.logger.With("run", runID)

	recs, err := s.collect(ctx, logger, progress)
	if err != nil {
		logger.Error("Scan failed", "error", err)
		return model.ScanResult{RunID: runID, Error: err.Error()}, err
	}

	scannedAt := s.now().UTC()
	if s.store != nil {
		if err := s.store.ReplaceSubscriptions(ctx, recs, scannedAt); err != nil {
			err = &model.PersistenceError{Err: err}
			logger.Error("Persist failed, keeping previous subscriptions", "error", err)
			return model.ScanResult{RunID: runID, Error: err.Error()}, err
		}
	}

	logger.Info("Scan complete", "subscriptions", len(recs))
	return model.ScanResult{
		RunID:         runID,
		Success:       true,
		Subscriptions: recs,
		ScannedAt:     scannedAt,
	}, nil
}

func (s *Scanner) collect(ctx context.Context, logger *log.Logger, progress func(model.ScanProgress)) ([]model.ConsolidatedRecord, error) {
	ids, err := s.fetcher.ListMessageIDs(ctx, s.query, s.max)
	if err != nil {
		if model.IsAuthError(err) {
			return nil, err
		}
		var listErr *model.ListFetchError
		if !errors.As(err, &listErr) {
			err = &model.ListFetchError{Query: s.query, Err: err}
		}
		return nil, err
	}
	total := len(ids)
	logger.Info("Found messages", "total", total, "query", s.query)

	engine := consolidate.NewEngine()
	for i, id := range ids {
		if err := s.process(ctx, logger, engine, id); err != nil {
			return nil, err
		}
		if progress != nil {
			progress(model.ScanProgress{
				Processed:  i + 1,
				Total:      total,
				Percentage: percent(i+1, total),
			})
		}
	}
	logger.Debug("Consolidated", "messages", total, "senders", engine.Len())
	return engine.Snapshot(), nil
}

// process handles one message. Only an auth failure is returned; every other
// problem is logged and the message skipped.
func (s *Scanner) process(ctx context.Context, logger *log.Logger, engine *consolidate.Engine, id string) error {
	msg, err := s.fetcher.GetMessage(ctx, id)
	if err != nil {
		if model.IsAuthError(err) {
			return fmt.Errorf("get message %s: %w", id, err)
		}
		logger.Warn("Skipping message", "id", id, "error", &model.DetailFetchError{ID: id, Err: err})
		return nil
	}
	det, err := s.detector.Detect(msg)
	if err != nil {
		logger.Warn("Skipping message", "id", id, "error", err)
		return nil
	}
	engine.Add(det)
	return nil
}

func percent(done, total int) int {
	if total == 0 {
		return 100
	}
	return int(math.Round(float64(done) * 100 / float64(total)))
}
