package gmail

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailv1 "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"subsweep/internal/credential"
	"subsweep/internal/model"
)

// AuthOptions configures NewService.
type AuthOptions struct {
	// ConfigDir holds client_secret.json.
	ConfigDir string
	Tokens    credential.TokenStore
	Logger    *log.Logger

	// AuthURLs and Codes switch the web flow to interactive mode: the auth
	// URL is sent on AuthURLs and a pasted code (or redirect URL) is read
	// from Codes. When nil the flow prompts on stderr/stdin.
	AuthURLs chan<- string
	Codes    <-chan string
}

// NewService returns an authorized Gmail service with scopes gmail.readonly
// and gmail.modify (for trash).
//
// A cached token is validated with a profile call. If it is rejected the
// cache is invalidated once and a fresh token is acquired exactly once;
// any failure after that is an *model.AuthError.
func NewService(ctx context.Context, opts AuthOptions) (*gmailv1.Service, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	credPath := filepath.Join(opts.ConfigDir, "client_secret.json")
	b, err := os.ReadFile(credPath)
	if err != nil {
		return nil, &model.AuthError{Err: fmt.Errorf("read credentials at %s: %w", credPath, err)}
	}
	cfg, err := google.ConfigFromJSON(b, gmailv1.GmailReadonlyScope, gmailv1.GmailModifyScope)
	if err != nil {
		return nil, &model.AuthError{Err: fmt.Errorf("parse oauth config: %w", err)}
	}

	var svc *gmailv1.Service
	validate := func(tok *oauth2.Token) error {
		var err error
		svc, err = validatedService(ctx, cfg, tok)
		return err
	}
	acquire := func() (*oauth2.Token, error) {
		return tokenFromWeb(ctx, cfg, opts)
	}
	if err := authorize(opts.Tokens, validate, acquire, logger); err != nil {
		return nil, err
	}
	return svc, nil
}

// authorize makes validate succeed with either the cached token or, after
// invalidating the cache once, exactly one freshly acquired token.
func authorize(tokens credential.TokenStore, validate func(*oauth2.Token) error, acquire func() (*oauth2.Token, error), logger *log.Logger) error {
	tok, err := tokens.Load()
	switch {
	case err == nil:
		verr := validate(tok)
		if verr == nil {
			return nil
		}
		logger.Warn("Cached token rejected, re-authenticating", "error", verr)
		if err := tokens.Delete(); err != nil {
			logger.Warn("Could not remove cached token", "error", err)
		}
	case !errors.Is(err, credential.ErrNoToken):
		logger.Warn("Cached token unreadable, re-authenticating", "error", err)
	}

	tok, err = acquire()
	if err != nil {
		return &model.AuthError{Err: err}
	}
	if err := validate(tok); err != nil {
		return &model.AuthError{Err: err}
	}
	if err := tokens.Save(tok); err != nil {
		logger.Warn("Could not cache token", "error", err)
	}
	return nil
}

func validatedService(ctx context.Context, cfg *oauth2.Config, tok *oauth2.Token) (*gmailv1.Service, error) {
	svc, err := gmailv1.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	if _, err := svc.Users.GetProfile("me").Context(ctx).Do(); err != nil {
		return nil, fmt.Errorf("validate token: %w", err)
	}
	return svc, nil
}

// tokenFromWeb runs a loopback HTTP server to capture the auth code. Without
// interactive channels it falls back to a manual paste on stdin after a
// timeout.
func tokenFromWeb(ctx context.Context, cfg *oauth2.Config, opts AuthOptions) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		if opts.AuthURLs != nil {
			return nil, fmt.Errorf("listen on loopback: %w", err)
		}
		return tokenFromPaste(ctx, cfg)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	redirect := fmt.Sprintf("http://127.0.0.1:%d/", port)

	oldRedirect := cfg.RedirectURL
	cfg.RedirectURL = redirect
	defer func() { cfg.RedirectURL = oldRedirect }()

	codes := make(chan string, 1)
	mux := http.NewServeMux()
	srv := &http.Server{
		ReadHeaderTimeout: 5 * time.Second,
		Handler:           mux,
	}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "Missing 'code' parameter", http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "Authentication complete. You can close this window.")
		select {
		case codes <- code:
		default:
		}
	})
	go func() { _ = srv.Serve(ln) }()
	defer func() { _ = srv.Shutdown(context.Background()) }()

	authURL := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.ApprovalForce)

	if opts.AuthURLs != nil {
		opts.AuthURLs <- authURL
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case code := <-codes:
			return exchange(ctx, cfg, code)
		case input := <-opts.Codes:
			code, err := codeFromInput(input)
			if err != nil {
				return nil, err
			}
			return exchange(ctx, cfg, code)
		}
	}

	fmt.Fprintln(os.Stderr, "A browser window will open. If it does not, copy this URL:")
	fmt.Fprintln(os.Stderr, authURL)
	fmt.Fprintf(os.Stderr, "Waiting for redirect on %s …\n", redirect)
	_ = OpenBrowser(authURL)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case code := <-codes:
		return exchange(ctx, cfg, code)
	case <-time.After(120 * time.Second):
		fmt.Fprintln(os.Stderr, "Timeout waiting for redirect; falling back to manual paste.")
	}
	cfg.RedirectURL = oldRedirect
	return tokenFromPaste(ctx, cfg)
}

func tokenFromPaste(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	authURL := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Fprintln(os.Stderr, "Open this URL in your browser to authorize subsweep:")
	fmt.Fprintln(os.Stderr, authURL)
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Paste the AUTH CODE itself or the FULL redirect URL here, then press Enter.")
	fmt.Fprint(os.Stderr, "> ")

	sc := bufio.NewScanner(os.Stdin)
	sc.Buffer(make([]byte, 0, 1024), 1024*1024)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("read auth code: %w", err)
		}
		return nil, errors.New("empty authorization code")
	}
	code, err := codeFromInput(sc.Text())
	if err != nil {
		return nil, err
	}
	return exchange(ctx, cfg, code)
}

// codeFromInput accepts either the bare code or the full redirect URL.
func codeFromInput(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", errors.New("empty authorization code")
	}
	if !strings.HasPrefix(input, "http://") && !strings.HasPrefix(input, "https://") {
		return input, nil
	}
	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("parse redirect URL: %w", err)
	}
	code := u.Query().Get("code")
	if code == "" {
		return "", errors.New("no 'code' parameter found in pasted URL")
	}
	return code, nil
}

func exchange(ctx context.Context, cfg *oauth2.Config, code string) (*oauth2.Token, error) {
	tok, err := cfg.Exchange(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, fmt.Errorf("token exchange: %w", err)
	}
	return tok, nil
}
