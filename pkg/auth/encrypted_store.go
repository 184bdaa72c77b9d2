package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize      = 32
	keySize       = 32
	kdfIterations = 100000
	vaultVersion  = 1
)

// EnvPassphrase overrides the generated vault passphrase
const EnvPassphrase = "XWATCH_PASSPHRASE"

// EncryptedFileStore keeps every session in one AES-GCM sealed file. The key
// is derived with PBKDF2 from XWATCH_PASSPHRASE, or from a random passphrase
// generated once and kept in the config directory.
type EncryptedFileStore struct {
	path       string
	passphrase []byte
	mu         sync.RWMutex
}

// vault is the on-disk document; Sealed holds nonce||ciphertext of the
// JSON-encoded account->session map
type vault struct {
	Version  int       `json:"version"`
	Salt     []byte    `json:"salt"`
	Sealed   []byte    `json:"sealed"`
	Modified time.Time `json:"modified"`
}

// NewEncryptedFileStore opens the vault at path with the resolved passphrase
func NewEncryptedFileStore(path string) (*EncryptedFileStore, error) {
	pass, err := resolvePassphrase()
	if err != nil {
		return nil, fmt.Errorf("failed to get passphrase: %w", err)
	}
	return NewEncryptedFileStoreWithPassphrase(path, pass)
}

// NewEncryptedFileStoreWithPassphrase opens the vault at path with passphrase
func NewEncryptedFileStoreWithPassphrase(path, passphrase string) (*EncryptedFileStore, error) {
	if passphrase == "" {
		return nil, errors.New("empty vault passphrase")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	return &EncryptedFileStore{path: path, passphrase: []byte(passphrase)}, nil
}

func (e *EncryptedFileStore) Store(session *Session) error {
	if session == nil || session.Account == "" {
		return ErrInvalidSession
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	sessions, salt, err := e.open()
	if err != nil {
		return err
	}
	sessions[session.Account] = *session
	return e.seal(sessions, salt)
}

func (e *EncryptedFileStore) Retrieve(account string) (*Session, error) {
	if account == "" {
		return nil, ErrInvalidSession
	}
	e.mu.RLock()
	defer e.mu.RUnlock()

	sessions, _, err := e.open()
	if err != nil {
		return nil, err
	}
	s, ok := sessions[account]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

func (e *EncryptedFileStore) List() ([]*Session, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	sessions, _, err := e.open()
	if err != nil {
		return nil, err
	}
	out := make([]*Session, 0, len(sessions))
	for _, s := range sessions {
		s := s // per-iteration copy; go.mod targets go1.21 loop semantics
		out = append(out, &s)
	}
	return out, nil
}

// Delete removes account; the file goes away with the last session
func (e *EncryptedFileStore) Delete(account string) error {
	if account == "" {
		return ErrInvalidSession
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	sessions, salt, err := e.open()
	if err != nil {
		return err
	}
	if _, ok := sessions[account]; !ok {
		return ErrSessionNotFound
	}
	delete(sessions, account)
	if len(sessions) == 0 {
		return os.Remove(e.path)
	}
	return e.seal(sessions, salt)
}

func (e *EncryptedFileStore) Exists(account string) bool {
	s, err := e.Retrieve(account)
	return err == nil && s != nil
}

// open decrypts the vault. A missing file is an empty vault with no salt yet.
func (e *EncryptedFileStore) open() (map[string]Session, []byte, error) {
	sessions := make(map[string]Session)
	raw, err := os.ReadFile(e.path)
	if os.IsNotExist(err) {
		return sessions, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read session vault: %w", err)
	}

	var v vault
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, nil, fmt.Errorf("failed to parse session vault: %w", err)
	}
	plain, err := openGCM(e.key(v.Salt), v.Sealed)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decrypt session vault (wrong passphrase?): %w", err)
	}
	if err := json.Unmarshal(plain, &sessions); err != nil {
		return nil, nil, fmt.Errorf("failed to parse sessions: %w", err)
	}
	return sessions, v.Salt, nil
}

// seal encrypts sessions under salt (a fresh one when nil) and replaces the file
func (e *EncryptedFileStore) seal(sessions map[string]Session, salt []byte) error {
	if salt == nil {
		salt = make([]byte, saltSize)
		if _, err := rand.Read(salt); err != nil {
			return fmt.Errorf("failed to generate salt: %w", err)
		}
	}
	plain, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("failed to marshal sessions: %w", err)
	}
	sealed, err := sealGCM(e.key(salt), plain)
	if err != nil {
		return fmt.Errorf("failed to encrypt sessions: %w", err)
	}
	doc, err := json.MarshalIndent(vault{
		Version:  vaultVersion,
		Salt:     salt,
		Sealed:   sealed,
		Modified: time.Now(),
	}, "", "  ")
	if err != nil {
		return err
	}

	tmp := e.path + ".tmp"
	if err := os.WriteFile(tmp, doc, 0600); err != nil {
		return fmt.Errorf("failed to write session vault: %w", err)
	}
	if err := os.Rename(tmp, e.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace session vault: %w", err)
	}
	return nil
}

func (e *EncryptedFileStore) key(salt []byte) []byte {
	return pbkdf2.Key(e.passphrase, salt, kdfIterations, keySize, sha256.New)
}

// resolvePassphrase prefers the environment, then the saved passphrase file,
// and otherwise generates and saves a new one
func resolvePassphrase() (string, error) {
	if pass := os.Getenv(EnvPassphrase); pass != "" {
		return pass, nil
	}
	dir, err := getConfigDir()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, ".passphrase")
	if saved, err := os.ReadFile(path); err == nil && len(saved) > 0 {
		return string(saved), nil
	}

	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate passphrase: %w", err)
	}
	pass := base64.RawURLEncoding.EncodeToString(b)
	if err := os.WriteFile(path, []byte(pass), 0600); err != nil {
		return "", fmt.Errorf("failed to save passphrase: %w", err)
	}
	return pass, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func sealGCM(key, plain []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plain, nil), nil
}

func openGCM(key, sealed []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, body := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	return gcm.Open(nil, nonce, body, nil)
}
