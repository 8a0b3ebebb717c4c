package mail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// callbackAddr is where the local OAuth2 redirect listener runs.
const callbackAddr = "localhost:8085"

// LoadOAuthConfig reads a Google OAuth2 client credentials file. The config
// always requests read-only Gmail access plus any extraScopes.
func LoadOAuthConfig(credentialsPath string, extraScopes ...string) (*oauth2.Config, error) {
	data, err := os.ReadFile(credentialsPath) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("failed to read google credentials: %w", err)
	}

	scopes := append([]string{gmail.GmailReadonlyScope}, extraScopes...)
	cfg, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse google credentials: %w", err)
	}
	cfg.RedirectURL = "http://" + callbackAddr + "/callback"
	return cfg, nil
}

// TokenSource returns a token source backed by the saved token at tokenPath.
// Refreshed tokens are written back to tokenPath.
func TokenSource(ctx context.Context, cfg *oauth2.Config, tokenPath string) (oauth2.TokenSource, error) {
	token, err := LoadToken(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("no google token at %s, run 'smsledger auth': %w", tokenPath, err)
	}

	return &savingTokenSource{
		base: cfg.TokenSource(ctx, token),
		path: tokenPath,
		last: token.AccessToken,
	}, nil
}

// NewGmailService builds a Gmail client from the saved token at tokenPath.
func NewGmailService(ctx context.Context, cfg *oauth2.Config, tokenPath string) (*gmail.Service, error) {
	source, err := TokenSource(ctx, cfg, tokenPath)
	if err != nil {
		return nil, err
	}

	svc, err := gmail.NewService(ctx, option.WithTokenSource(source))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}
	return svc, nil
}

// Authenticate runs the interactive OAuth2 flow and saves the token to tokenPath.
func Authenticate(ctx context.Context, cfg *oauth2.Config, tokenPath string) (*oauth2.Token, error) {
	codeChan := make(chan string, 1)
	errorChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			errorChan <- errors.New("no authorization code received")
			_, _ = fmt.Fprint(w, `<html><body><h1>Authentication Failed</h1><p>No authorization code received.</p></body></html>`)
			return
		}
		codeChan <- code
		_, _ = fmt.Fprint(w, `<html><body><h1>Authentication Successful</h1><p>You can close this window.</p></body></html>`)
	})

	server := &http.Server{Addr: callbackAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errorChan <- fmt.Errorf("failed to start callback server: %w", err)
		}
	}()
	defer func() {
		if err := server.Shutdown(context.Background()); err != nil {
			slog.Warn("Error shutting down callback server", "error", err)
		}
	}()

	authURL := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	slog.Info("Gmail authentication required")
	slog.Info("Please visit this URL to authenticate", "url", authURL)

	var code string
	select {
	case code = <-codeChan:
	case err := <-errorChan:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(5 * time.Minute):
		return nil, errors.New("authentication timeout: no response received within 5 minutes")
	}

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	if err := SaveToken(tokenPath, token); err != nil {
		return nil, err
	}
	slog.Info("Token saved", "file", tokenPath)
	return token, nil
}

// LoadToken loads a token from file.
func LoadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path) // #nosec G304
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return token, nil
}

// SaveToken writes token to path with owner-only permissions.
func SaveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	return nil
}

// savingTokenSource persists tokens whenever the underlying source refreshes.
type savingTokenSource struct {
	base oauth2.TokenSource
	path string
	last string
	mu   sync.Mutex
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if token.AccessToken != s.last {
		if err := SaveToken(s.path, token); err != nil {
			slog.Warn("Failed to save refreshed token", "error", err)
		} else {
			s.last = token.AccessToken
		}
	}
	return token, nil
}
