package auth

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"xwatch/pkg/browser"
)

const defaultCookieDomain = ".x.com"

// ParseCookies reads cookies from any of the common export shapes:
//   - a JSON array of cookie objects (browser extensions, Selenium dumps)
//   - a JSON object with a "cookies" array (Playwright storage state)
//   - a Cookie request header, "name=value; name2=value2"
//
// Expiry is taken from expirationDate, expiry or expires, in seconds.
// Non-positive expiries mean a session cookie. SameSite is dropped.
func ParseCookies(data []byte) ([]browser.Cookie, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty cookie export")
	}
	if data[0] != '[' && data[0] != '{' {
		return ParseCookieHeader(string(data))
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("cookie export is not valid JSON")
	}

	list := gjson.ParseBytes(data)
	if list.IsObject() {
		list = list.Get("cookies")
	}
	if !list.IsArray() {
		return nil, fmt.Errorf("cookie export has no cookie list")
	}

	var cookies []browser.Cookie
	list.ForEach(func(_, c gjson.Result) bool {
		name := c.Get("name").String()
		if name == "" {
			return true
		}
		cookie := browser.Cookie{
			Name:     name,
			Value:    c.Get("value").String(),
			Domain:   c.Get("domain").String(),
			Path:     c.Get("path").String(),
			Secure:   c.Get("secure").Bool(),
			HTTPOnly: c.Get("httpOnly").Bool(),
		}
		for _, key := range []string{"expirationDate", "expiry", "expires"} {
			if v := c.Get(key); v.Exists() {
				cookie.Expires = fromEpoch(v.Float())
				break
			}
		}
		cookies = append(cookies, withDefaults(cookie))
		return true
	})

	if len(cookies) == 0 {
		return nil, fmt.Errorf("cookie export contains no cookies")
	}
	return cookies, nil
}

// ParseCookieHeader splits a Cookie request header into cookies for x.com
func ParseCookieHeader(header string) ([]browser.Cookie, error) {
	header = strings.TrimPrefix(strings.TrimSpace(header), "Cookie:")
	var cookies []browser.Cookie
	for _, part := range strings.Split(header, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || strings.TrimSpace(name) == "" {
			continue
		}
		cookies = append(cookies, withDefaults(browser.Cookie{
			Name:  strings.TrimSpace(name),
			Value: strings.TrimSpace(value),
		}))
	}
	if len(cookies) == 0 {
		return nil, fmt.Errorf("no name=value pairs in cookie header")
	}
	return cookies, nil
}

// ImportCookieFile builds a session from a cookie export on disk
func ImportCookieFile(path, account string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cookie file: %w", err)
	}
	cookies, err := ParseCookies(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if account == "" {
		account = "default"
	}
	return &Session{Account: account, Cookies: cookies, LastModified: time.Now()}, nil
}

func withDefaults(c browser.Cookie) browser.Cookie {
	if c.Domain == "" {
		c.Domain = defaultCookieDomain
	}
	if c.Path == "" {
		c.Path = "/"
	}
	return c
}

func fromEpoch(seconds float64) time.Time {
	if seconds <= 0 || math.IsNaN(seconds) {
		return time.Time{}
	}
	sec, frac := math.Modf(seconds)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}
