package auth

import (
	"os"
	"time"
)

// Environment variables read by EnvironmentStore
const (
	EnvCookies   = "XWATCH_COOKIES"
	EnvUserAgent = "XWATCH_USER_AGENT"
)

// EnvironmentStore implements SessionStore over XWATCH_COOKIES, which holds
// either a Cookie header or a JSON cookie export. It is read-only.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based session store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(session *Session) error {
	return ErrStoreUnavailable
}

// Retrieve builds a session from the environment. The variable is not
// scoped by account, so any account name matches.
func (e *EnvironmentStore) Retrieve(account string) (*Session, error) {
	raw := os.Getenv(EnvCookies)
	if raw == "" {
		return nil, ErrSessionNotFound
	}
	cookies, err := ParseCookies([]byte(raw))
	if err != nil {
		return nil, err
	}
	if account == "" {
		account = "default"
	}
	return &Session{
		Account:      account,
		Cookies:      cookies,
		UserAgent:    os.Getenv(EnvUserAgent),
		LastModified: time.Now(),
	}, nil
}

// List returns a single session if the environment provides one
func (e *EnvironmentStore) List() ([]*Session, error) {
	session, err := e.Retrieve("")
	if err != nil {
		return []*Session{}, nil
	}
	return []*Session{session}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(account string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment cookies are set
func (e *EnvironmentStore) Exists(account string) bool {
	return os.Getenv(EnvCookies) != ""
}
