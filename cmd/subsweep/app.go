package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"subsweep/internal/config"
	"subsweep/internal/credential"
	"subsweep/internal/gmail"
	"subsweep/internal/logging"
	"subsweep/internal/scan"
	"subsweep/internal/store"
)

// app holds what every command needs: config, logger and the database.
type app struct {
	cfg    *config.Config
	logger *log.Logger
	logOut io.Closer
	store  *store.SQLiteStore
}

func newApp(dir string) (*app, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	logger, logOut, err := logging.New(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	db, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		logOut.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &app{cfg: cfg, logger: logger, logOut: logOut, store: db}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("Close database failed", "error", err)
	}
	a.logOut.Close()
}

func (a *app) scanOptions() scan.Options {
	return scan.Options{
		Query:      a.cfg.Scan.Query,
		MaxResults: a.cfg.Scan.MaxResults,
		Logger:     a.logger.WithPrefix("scan"),
	}
}

// connect authenticates against Gmail. With nil channels the auth flow
// prompts on the terminal.
func (a *app) connect(ctx context.Context, authURLs chan<- string, codes <-chan string) (*gmail.Client, error) {
	tokens, err := credential.NewTokenStore(a.cfg.Auth.TokenStore, a.cfg.Dir)
	if err != nil {
		return nil, err
	}
	svc, err := gmail.NewService(ctx, gmail.AuthOptions{
		ConfigDir: a.cfg.Dir,
		Tokens:    tokens,
		Logger:    a.logger.WithPrefix("auth"),
		AuthURLs:  authURLs,
		Codes:     codes,
	})
	if err != nil {
		return nil, err
	}
	return gmail.NewClient(svc), nil
}
