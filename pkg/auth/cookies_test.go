package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCookiesExtensionExport(t *testing.T) {
	data := []byte(`[
	  {"domain": ".x.com", "expirationDate": 1767225600.5, "httpOnly": true, "name": "auth_token",
	   "path": "/", "sameSite": "no_restriction", "secure": true, "value": "abc"},
	  {"domain": ".x.com", "name": "ct0", "path": "/", "value": "def", "session": true},
	  {"value": "nameless"}
	]`)

	cookies, err := ParseCookies(data)
	require.NoError(t, err)
	require.Len(t, cookies, 2)

	assert.Equal(t, "auth_token", cookies[0].Name)
	assert.True(t, cookies[0].Secure)
	assert.True(t, cookies[0].HTTPOnly)
	assert.Equal(t, time.Unix(1767225600, 500000000).UTC(), cookies[0].Expires)
	assert.True(t, cookies[1].Expires.IsZero())
}

func TestParseCookiesStorageState(t *testing.T) {
	data := []byte(`{"cookies": [{"name": "auth_token", "value": "abc", "domain": "x.com", "expires": -1}], "origins": []}`)

	cookies, err := ParseCookies(data)
	require.NoError(t, err)
	require.Len(t, cookies, 1)
	assert.Equal(t, "x.com", cookies[0].Domain)
	assert.Equal(t, "/", cookies[0].Path)
	assert.True(t, cookies[0].Expires.IsZero())
}

func TestParseCookiesSeleniumExpiry(t *testing.T) {
	data := []byte(`[{"name": "auth_token", "value": "abc", "expiry": 1767225600}]`)
	cookies, err := ParseCookies(data)
	require.NoError(t, err)
	assert.Equal(t, time.Unix(1767225600, 0).UTC(), cookies[0].Expires)
	assert.Equal(t, defaultCookieDomain, cookies[0].Domain)
}

func TestParseCookieHeader(t *testing.T) {
	cookies, err := ParseCookies([]byte("Cookie: auth_token=abc; ct0=d=e ; junk; =x"))
	require.NoError(t, err)
	require.Len(t, cookies, 2)
	assert.Equal(t, "d=e", cookies[1].Value)
	assert.Equal(t, defaultCookieDomain, cookies[1].Domain)
}

func TestParseCookiesErrors(t *testing.T) {
	for name, input := range map[string]string{
		"empty":      "   ",
		"bad json":   `[{"name": }`,
		"no list":    `{"origins": []}`,
		"no cookies": `[]`,
		"no pairs":   "junk;",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCookies([]byte(input))
			assert.Error(t, err)
		})
	}
}
