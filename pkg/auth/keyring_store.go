package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/zalando/go-keyring"
)

const (
	keyringService  = "xwatch"
	keyringPrefix   = "session_"
	keyringIndexKey = "accounts"
)

// KeyringStore implements SessionStore using the system keychain. The
// keychain cannot enumerate entries, so account names are kept in an index
// entry of their own.
type KeyringStore struct{}

// NewKeyringStore creates a keychain store if the keychain is usable
func NewKeyringStore() (*KeyringStore, error) {
	testKey := "test_availability"
	if err := keyring.Set(keyringService, testKey, "test"); err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(keyringService, testKey)

	return &KeyringStore{}, nil
}

// Store saves a session to the keychain
func (k *KeyringStore) Store(session *Session) error {
	if session == nil || session.Account == "" {
		return ErrInvalidSession
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := keyring.Set(keyringService, keyringPrefix+session.Account, string(data)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}
	return k.updateIndex(session.Account, true)
}

// Retrieve gets a session from the keychain
func (k *KeyringStore) Retrieve(account string) (*Session, error) {
	if account == "" {
		return nil, ErrInvalidSession
	}

	data, err := keyring.Get(keyringService, keyringPrefix+account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to retrieve from keyring: %w", err)
	}

	var session Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

// List returns the sessions named in the index
func (k *KeyringStore) List() ([]*Session, error) {
	names, err := k.index()
	if err != nil {
		return nil, err
	}
	var sessions []*Session
	for _, name := range names {
		if s, err := k.Retrieve(name); err == nil {
			sessions = append(sessions, s)
		}
	}
	return sessions, nil
}

// Delete removes a session from the keychain
func (k *KeyringStore) Delete(account string) error {
	if account == "" {
		return ErrInvalidSession
	}

	if err := keyring.Delete(keyringService, keyringPrefix+account); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return k.updateIndex(account, false)
}

// Exists checks if a session exists in the keychain
func (k *KeyringStore) Exists(account string) bool {
	if account == "" {
		return false
	}
	_, err := keyring.Get(keyringService, keyringPrefix+account)
	return err == nil
}

func (k *KeyringStore) index() ([]string, error) {
	data, err := keyring.Get(keyringService, keyringIndexKey)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read keyring index: %w", err)
	}
	var names []string
	if err := json.Unmarshal([]byte(data), &names); err != nil {
		return nil, fmt.Errorf("failed to parse keyring index: %w", err)
	}
	return names, nil
}

func (k *KeyringStore) updateIndex(account string, present bool) error {
	names, err := k.index()
	if err != nil {
		return err
	}

	set := make(map[string]bool, len(names)+1)
	for _, n := range names {
		set[n] = true
	}
	if present {
		set[account] = true
	} else {
		delete(set, account)
	}

	names = names[:0]
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)

	data, err := json.Marshal(names)
	if err != nil {
		return err
	}
	return keyring.Set(keyringService, keyringIndexKey, string(data))
}
