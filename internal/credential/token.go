// Package credential caches the OAuth token between runs.
package credential

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
)

// ErrNoToken is returned by Load when nothing is cached.
var ErrNoToken = errors.New("no cached token")

// TokenStore loads, saves and invalidates the cached OAuth token.
type TokenStore interface {
	Load() (*oauth2.Token, error)
	Save(tok *oauth2.Token) error
	Delete() error
}

// NewTokenStore returns the store for kind ("file" or "keyring"). File
// tokens live in configDir/token.json.
func NewTokenStore(kind, configDir string) (TokenStore, error) {
	switch kind {
	case "", "file":
		return &FileStore{Path: filepath.Join(configDir, "token.json")}, nil
	case "keyring":
		return NewKeyringStore(configDir)
	default:
		return nil, fmt.Errorf("unknown token store %q", kind)
	}
}

// FileStore keeps the token as JSON on disk.
type FileStore struct {
	Path string
}

func (s *FileStore) Load() (*oauth2.Token, error) {
	f, err := os.Open(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var tok oauth2.Token
	if err := json.NewDecoder(f).Decode(&tok); err != nil {
		return nil, fmt.Errorf("decode token %s: %w", s.Path, err)
	}
	return &tok, nil
}

// Save writes through a temp file so a crash never leaves half a token.
func (s *FileStore) Save(tok *oauth2.Token) error {
	tmp := s.Path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		f.Close()
		return err
	}
	f.Close()
	return os.Rename(tmp, s.Path)
}

func (s *FileStore) Delete() error {
	err := os.Remove(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
