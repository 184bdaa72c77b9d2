package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"xwatch/pkg/browser"
	errs "xwatch/pkg/errors"
)

// AuthCookie is the cookie that marks a logged-in X session
const AuthCookie = "auth_token"

// Session is a stored browser login for one account
type Session struct {
	Account      string           `json:"account"`
	Cookies      []browser.Cookie `json:"cookies"`
	UserAgent    string           `json:"user_agent,omitempty"`
	LastModified time.Time        `json:"last_modified"`
}

// Validate checks that the session can authenticate a browser
func (s *Session) Validate() error {
	if s == nil || s.Account == "" {
		return errors.New("account name is required")
	}
	if len(s.Cookies) == 0 {
		return errors.New("session has no cookies")
	}
	if _, ok := s.Cookie(AuthCookie); !ok {
		return fmt.Errorf("session has no %s cookie", AuthCookie)
	}
	return nil
}

// Cookie returns the named cookie
func (s *Session) Cookie(name string) (browser.Cookie, bool) {
	for _, c := range s.Cookies {
		if c.Name == name {
			return c, true
		}
	}
	return browser.Cookie{}, false
}

// Expired reports whether the auth cookie has a past expiry
func (s *Session) Expired(now time.Time) bool {
	c, ok := s.Cookie(AuthCookie)
	return ok && !c.Expires.IsZero() && c.Expires.Before(now)
}

// SessionStore persists sessions by account name
type SessionStore interface {
	// Store saves a session
	Store(session *Session) error

	// Retrieve gets the session for an account
	Retrieve(account string) (*Session, error)

	// List returns all stored sessions
	List() ([]*Session, error)

	// Delete removes the session for an account
	Delete(account string) error

	// Exists checks if a session exists for an account
	Exists(account string) bool
}

// Manager handles session storage with fallback mechanisms
type Manager struct {
	stores []SessionStore
}

// NewManager creates a manager over the system keychain, an encrypted file
// and the environment, in that order
func NewManager() (*Manager, error) {
	var stores []SessionStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "sessions.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a manager over the given stores
func NewManagerWithStores(stores ...SessionStore) *Manager {
	return &Manager{stores: stores}
}

// Store validates and saves a session using the first store that accepts it
func (m *Manager) Store(session *Session) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	session.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		err := store.Store(session)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return fmt.Errorf("failed to store session: %w", lastErr)
	}
	return ErrStoreUnavailable
}

// Retrieve gets a session from the first store that has it
func (m *Manager) Retrieve(account string) (*Session, error) {
	for _, store := range m.stores {
		if session, err := store.Retrieve(account); err == nil && session != nil {
			return session, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, account)
}

// List returns all stored sessions, keeping the newest copy per account
func (m *Manager) List() ([]*Session, error) {
	byAccount := make(map[string]*Session)
	for _, store := range m.stores {
		sessions, err := store.List()
		if err != nil {
			continue
		}
		for _, s := range sessions {
			if existing, ok := byAccount[s.Account]; !ok || s.LastModified.After(existing.LastModified) {
				byAccount[s.Account] = s
			}
		}
	}

	result := make([]*Session, 0, len(byAccount))
	for _, s := range byAccount {
		result = append(result, s)
	}
	return result, nil
}

// Delete removes a session from every store
func (m *Manager) Delete(account string) error {
	var deleted bool
	var lastErr error
	for _, store := range m.stores {
		if err := store.Delete(account); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if deleted {
		return nil
	}
	if lastErr != nil && !errors.Is(lastErr, ErrSessionNotFound) && !errors.Is(lastErr, ErrStoreUnavailable) {
		return fmt.Errorf("failed to delete session: %w", lastErr)
	}
	return fmt.Errorf("%w: %s", ErrSessionNotFound, account)
}

// Load resolves the session the crawler starts with. A cookie export file,
// when given, wins over stored sessions. Any failure is a fatal session
// error: the crawler must not browse unauthenticated.
func (m *Manager) Load(account, cookieFile string) (*Session, error) {
	var (
		session *Session
		err     error
	)
	if cookieFile != "" {
		session, err = ImportCookieFile(cookieFile, account)
	} else {
		session, err = m.Retrieve(account)
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeSession, err, "load login session")
	}
	if err := session.Validate(); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeSession, err, "invalid login session")
	}
	if session.Expired(time.Now()) {
		return nil, errs.New(errs.ErrorTypeSession, "login session has expired, import fresh cookies")
	}
	return session, nil
}

// getConfigDir returns the per-user configuration directory
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "xwatch")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "xwatch")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "xwatch")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "xwatch")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return configDir, nil
}

// SanitizeSession returns a copy safe to print: cookie values are masked
func SanitizeSession(session *Session) *Session {
	if session == nil {
		return nil
	}
	out := *session
	out.Cookies = make([]browser.Cookie, len(session.Cookies))
	for i, c := range session.Cookies {
		c.Value = maskString(c.Value)
		out.Cookies[i] = c
	}
	return &out
}

// CookieNames lists the cookie names in stored order
func (s *Session) CookieNames() string {
	names := make([]string, len(s.Cookies))
	for i, c := range s.Cookies {
		names[i] = c.Name
	}
	return strings.Join(names, ", ")
}

// maskString masks all but the first 4 and last 4 characters of a string
func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Errors
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrInvalidSession   = errors.New("invalid session")
	ErrStoreUnavailable = errors.New("session store unavailable")
)
