package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"subsweep/internal/model"
)

const lastScanKey = "last_scan"

// SQLiteStore persists the consolidated subscription set in a local SQLite
// database. It implements scan.Store.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) the database at the given path and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func migrate(db *sqlx.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS subscriptions (
	sender_key       TEXT PRIMARY KEY,
	position         INTEGER NOT NULL,
	id               TEXT NOT NULL,
	subject          TEXT NOT NULL DEFAULT '',
	from_raw         TEXT NOT NULL DEFAULT '',
	category         TEXT NOT NULL,
	unsubscribe_link TEXT NOT NULL DEFAULT '',
	date             TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS related_emails (
	sender_key TEXT NOT NULL,
	seq        INTEGER NOT NULL,
	id         TEXT NOT NULL,
	subject    TEXT NOT NULL DEFAULT '',
	date       TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (sender_key, seq)
);

CREATE TABLE IF NOT EXISTS metadata (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL DEFAULT ''
);
`
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type subscriptionRow struct {
	SenderKey       string `db:"sender_key"`
	Position        int    `db:"position"`
	ID              string `db:"id"`
	Subject         string `db:"subject"`
	From            string `db:"from_raw"`
	Category        string `db:"category"`
	UnsubscribeLink string `db:"unsubscribe_link"`
	Date            string `db:"date"`
}

type relatedRow struct {
	SenderKey string `db:"sender_key"`
	Seq       int    `db:"seq"`
	ID        string `db:"id"`
	Subject   string `db:"subject"`
	Date      string `db:"date"`
}

// ReplaceSubscriptions swaps the stored set for recs and records scannedAt,
// all in one transaction. On error the previous set is left untouched.
func (s *SQLiteStore) ReplaceSubscriptions(ctx context.Context, recs []model.ConsolidatedRecord, scannedAt time.Time) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM related_emails"); err != nil {
		return fmt.Errorf("clear related emails: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM subscriptions"); err != nil {
		return fmt.Errorf("clear subscriptions: %w", err)
	}

	for i, r := range recs {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO subscriptions (sender_key, position, id, subject, from_raw, category, unsubscribe_link, date)
			VALUES (:sender_key, :position, :id, :subject, :from_raw, :category, :unsubscribe_link, :date)
		`, subscriptionRow{
			SenderKey:       r.SenderKey,
			Position:        i,
			ID:              r.ID,
			Subject:         r.Subject,
			From:            r.From,
			Category:        string(r.Category),
			UnsubscribeLink: r.UnsubscribeLink,
			Date:            r.Date,
		})
		if err != nil {
			return fmt.Errorf("insert subscription %s: %w", r.SenderKey, err)
		}
		for seq, re := range r.RelatedEmails {
			_, err := tx.NamedExecContext(ctx, `
				INSERT INTO related_emails (sender_key, seq, id, subject, date)
				VALUES (:sender_key, :seq, :id, :subject, :date)
			`, relatedRow{SenderKey: r.SenderKey, Seq: seq, ID: re.ID, Subject: re.Subject, Date: re.Date})
			if err != nil {
				return fmt.Errorf("insert related email %s: %w", re.ID, err)
			}
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, lastScanKey, scannedAt.UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("set last scan: %w", err)
	}
	return tx.Commit()
}

// LoadSubscriptions returns the stored set in its original order.
func (s *SQLiteStore) LoadSubscriptions(ctx context.Context) ([]model.ConsolidatedRecord, error) {
	var subs []subscriptionRow
	if err := s.db.SelectContext(ctx, &subs, "SELECT * FROM subscriptions ORDER BY position"); err != nil {
		return nil, err
	}
	var related []relatedRow
	if err := s.db.SelectContext(ctx, &related, "SELECT * FROM related_emails ORDER BY sender_key, seq"); err != nil {
		return nil, err
	}

	bySender := make(map[string][]model.RelatedEmail, len(subs))
	for _, r := range related {
		bySender[r.SenderKey] = append(bySender[r.SenderKey], model.RelatedEmail{ID: r.ID, Subject: r.Subject, Date: r.Date})
	}

	out := make([]model.ConsolidatedRecord, 0, len(subs))
	for _, r := range subs {
		out = append(out, model.ConsolidatedRecord{
			ID:              r.ID,
			Subject:         r.Subject,
			From:            r.From,
			SenderKey:       r.SenderKey,
			Category:        model.Category(r.Category),
			UnsubscribeLink: r.UnsubscribeLink,
			Date:            r.Date,
			RelatedEmails:   bySender[r.SenderKey],
		})
	}
	return out, nil
}

// RemoveSubscriptions deletes the records whose primary message id is in ids.
func (s *SQLiteStore) RemoveSubscriptions(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query, args, err := sqlx.In(
		"DELETE FROM related_emails WHERE sender_key IN (SELECT sender_key FROM subscriptions WHERE id IN (?))", ids)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
		return err
	}

	query, args, err = sqlx.In("DELETE FROM subscriptions WHERE id IN (?)", ids)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) CountSubscriptions(ctx context.Context) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM subscriptions")
	return count, err
}

// LastScan returns when the stored set was written. ok is false before the
// first successful scan.
func (s *SQLiteStore) LastScan(ctx context.Context) (time.Time, bool, error) {
	var val string
	err := s.db.GetContext(ctx, &val, "SELECT value FROM metadata WHERE key = ?", lastScanKey)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse last scan %q: %w", val, err)
	}
	return t, true, nil
}
