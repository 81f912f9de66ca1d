package calendar

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
)

// ErrNoToken means the user has not completed the authorization flow
var ErrNoToken = errors.New("calendar not authorized: run `briefing calendar-auth`")

// Session owns the OAuth credentials for one calendar user. It is passed
// explicitly to the client so runs do not share process-wide token state.
type Session struct {
	config    *oauth2.Config
	tokenFile string

	mu    sync.Mutex
	token *oauth2.Token
}

// NewSession reads OAuth client credentials and any stored token
func NewSession(credentialsFile, tokenFile string) (*Session, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}
	config, err := google.ConfigFromJSON(data, gcal.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}
	return NewSessionFromConfig(config, tokenFile)
}

// NewSessionFromConfig creates a session around an existing OAuth config
func NewSessionFromConfig(config *oauth2.Config, tokenFile string) (*Session, error) {
	s := &Session{config: config, tokenFile: tokenFile}
	tok, err := loadToken(tokenFile)
	switch {
	case err == nil:
		s.token = tok
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}
	return s, nil
}

// Authorized reports whether a token is available
func (s *Session) Authorized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != nil
}

// AuthCodeURL returns the consent URL for the console flow
func (s *Session) AuthCodeURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a token and stores it
func (s *Session) Exchange(ctx context.Context, code string) error {
	tok, err := s.config.Exchange(ctx, strings.TrimSpace(code))
	if err != nil {
		return fmt.Errorf("unable to exchange authorization code: %w", err)
	}
	s.mu.Lock()
	s.token = tok
	s.mu.Unlock()
	return saveToken(s.tokenFile, tok)
}

// Authorize runs the console flow: print the consent URL, read the code, store the token
func (s *Session) Authorize(ctx context.Context, in io.Reader, out io.Writer) error {
	fmt.Fprintf(out, "Open the following link in your browser, then paste the authorization code:\n\n%s\n\nCode: ",
		s.AuthCodeURL("state-token"))

	code, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("unable to read authorization code: %w", err)
	}
	if strings.TrimSpace(code) == "" {
		return errors.New("no authorization code entered")
	}
	if err := s.Exchange(ctx, code); err != nil {
		return err
	}
	fmt.Fprintf(out, "Token saved to %s\n", s.tokenFile)
	return nil
}

// TokenSource returns a source that refreshes the stored token and writes
// refreshed tokens back to the token file
func (s *Session) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	s.mu.Lock()
	tok := s.token
	s.mu.Unlock()
	if tok == nil {
		return nil, ErrNoToken
	}
	return &persistingSource{session: s, base: s.config.TokenSource(ctx, tok)}, nil
}

type persistingSource struct {
	session *Session
	base    oauth2.TokenSource
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, err
	}

	s := p.session
	s.mu.Lock()
	changed := s.token == nil || s.token.AccessToken != tok.AccessToken
	s.token = tok
	s.mu.Unlock()

	if changed {
		if err := saveToken(s.tokenFile, tok); err != nil {
			return nil, err
		}
	}
	return tok, nil
}

func loadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("unable to parse token file %s: %w", path, err)
	}
	return tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("unable to save token: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(tok)
}
