package credential

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"golang.org/x/oauth2"
)

func TestFileStore_RoundTrip(t *testing.T) {
	s := &FileStore{Path: filepath.Join(t.TempDir(), "nested", "token.json")}

	if _, err := s.Load(); !errors.Is(err, ErrNoToken) {
		t.Fatalf("Load on empty store = %v; want ErrNoToken", err)
	}

	want := &oauth2.Token{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer", Expiry: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)}
	if err := s.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.AccessToken != want.AccessToken || got.RefreshToken != want.RefreshToken || !got.Expiry.Equal(want.Expiry) {
		t.Fatalf("Load = %+v; want %+v", got, want)
	}

	if err := s.Delete(); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(); err != nil {
		t.Fatalf("Delete twice: %v", err)
	}
	if _, err := s.Load(); !errors.Is(err, ErrNoToken) {
		t.Fatalf("Load after delete = %v; want ErrNoToken", err)
	}
}

func TestKeyringStore_ArrayBackend(t *testing.T) {
	s := &KeyringStore{ring: keyring.NewArrayKeyring(nil)}

	if _, err := s.Load(); !errors.Is(err, ErrNoToken) {
		t.Fatalf("Load on empty ring = %v; want ErrNoToken", err)
	}
	if err := s.Save(&oauth2.Token{AccessToken: "k"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load()
	if err != nil || got.AccessToken != "k" {
		t.Fatalf("Load = %+v, %v", got, err)
	}
	if err := s.Delete(); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(); err != nil {
		t.Fatalf("Delete twice: %v", err)
	}
}

func TestNewTokenStore_UnknownKind(t *testing.T) {
	if _, err := NewTokenStore("vault", t.TempDir()); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
