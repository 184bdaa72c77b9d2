package auth

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xwatch/pkg/browser"
	errs "xwatch/pkg/errors"
)

func testSession(account string) *Session {
	return &Session{
		Account: account,
		Cookies: []browser.Cookie{
			{Name: AuthCookie, Value: "0123456789abcdef", Domain: ".x.com", Path: "/"},
			{Name: "ct0", Value: "fedcba9876543210", Domain: ".x.com", Path: "/"},
		},
		UserAgent: "TestAgent/1.0",
	}
}

func TestManagerLifecycle(t *testing.T) {
	mem := NewMemoryStore()
	m := NewManagerWithStores(mem)

	require.NoError(t, m.Store(testSession("main")))
	assert.Equal(t, 1, mem.Count())

	got, err := m.Retrieve("main")
	require.NoError(t, err)
	assert.Equal(t, "TestAgent/1.0", got.UserAgent)
	assert.False(t, got.LastModified.IsZero())

	list, err := m.List()
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, m.Delete("main"))
	_, err = m.Retrieve("main")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, m.Delete("main"), ErrSessionNotFound)
}

func TestManagerRejectsSessionWithoutAuthCookie(t *testing.T) {
	m := NewManagerWithStores(NewMemoryStore())
	s := testSession("main")
	s.Cookies = s.Cookies[1:]

	err := m.Store(s)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestManagerFallsBackAcrossStores(t *testing.T) {
	broken := NewMemoryStore()
	broken.StoreError = assert.AnError
	backup := NewMemoryStore()
	m := NewManagerWithStores(broken, backup)

	require.NoError(t, m.Store(testSession("main")))
	assert.Equal(t, 0, broken.Count())
	assert.Equal(t, 1, backup.Count())
}

func TestLoadIsFatalWithoutSession(t *testing.T) {
	m := NewManagerWithStores(NewMemoryStore())

	_, err := m.Load("missing", "")
	require.Error(t, err)
	assert.True(t, errs.IsFatal(err))
}

func TestLoadRejectsExpiredSession(t *testing.T) {
	mem := NewMemoryStore()
	s := testSession("main")
	s.Cookies[0].Expires = time.Now().Add(-time.Hour)
	require.NoError(t, mem.Store(s))

	_, err := NewManagerWithStores(mem).Load("main", "")
	require.Error(t, err)
	assert.True(t, errs.IsFatal(err))
}

func TestLoadPrefersCookieFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.txt")
	require.NoError(t, os.WriteFile(path, []byte("auth_token=abc; ct0=def"), 0600))

	s, err := NewManagerWithStores(NewMemoryStore()).Load("main", path)
	require.NoError(t, err)
	assert.Equal(t, "main", s.Account)
	assert.Equal(t, "auth_token, ct0", s.CookieNames())
}

func TestEncryptedFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.enc")
	store, err := NewEncryptedFileStoreWithPassphrase(path, "test_passphrase_123")
	require.NoError(t, err)

	require.NoError(t, store.Store(testSession("enc")))
	got, err := store.Retrieve("enc")
	require.NoError(t, err)
	c, ok := got.Cookie(AuthCookie)
	require.True(t, ok)
	assert.Equal(t, "0123456789abcdef", c.Value)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "0123456789abcdef")

	other, err := NewEncryptedFileStoreWithPassphrase(path, "wrong")
	require.NoError(t, err)
	_, err = other.Retrieve("enc")
	assert.Error(t, err)

	require.NoError(t, store.Delete("enc"))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "last delete removes the file")
}

func TestEnvironmentStore(t *testing.T) {
	t.Setenv(EnvCookies, "auth_token=abc; ct0=def")
	t.Setenv(EnvUserAgent, "EnvAgent/2.0")

	store := NewEnvironmentStore()
	assert.True(t, store.Exists("anything"))

	s, err := store.Retrieve("bot")
	require.NoError(t, err)
	assert.Equal(t, "bot", s.Account)
	assert.Equal(t, "EnvAgent/2.0", s.UserAgent)
	assert.NoError(t, s.Validate())

	assert.ErrorIs(t, store.Store(s), ErrStoreUnavailable)

	t.Setenv(EnvCookies, "")
	_, err = store.Retrieve("bot")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSanitizeSession(t *testing.T) {
	s := testSession("main")
	clean := SanitizeSession(s)

	assert.Equal(t, "0123...cdef", clean.Cookies[0].Value)
	assert.Equal(t, "0123456789abcdef", s.Cookies[0].Value, "original untouched")
	assert.Nil(t, SanitizeSession(nil))
}

func TestWriteCookieExportGuide(t *testing.T) {
	var buf bytes.Buffer
	WriteCookieExportGuide(&buf)
	assert.Contains(t, buf.String(), "xwatch auth import")
	assert.Contains(t, buf.String(), AuthCookie)
}
