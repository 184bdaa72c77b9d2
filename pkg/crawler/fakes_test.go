package crawler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"xwatch/pkg/browser"
	"xwatch/pkg/models"
	"xwatch/pkg/storage"
)

// fakeDriver serves canned HTML per URL. Each URL holds a sequence of
// snapshots; every scroll reveals the next one and the page height grows
// until the sequence runs out.
type fakeDriver struct {
	mu       sync.Mutex
	pages    map[string][]string
	failNav  map[string]error
	failCook error

	current string
	scrolls int
	visited []string
	cookies []browser.Cookie
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{pages: map[string][]string{}, failNav: map[string]error{}}
}

func (d *fakeDriver) set(url string, snapshots ...string) {
	d.mu.Lock()
	d.pages[url] = snapshots
	d.mu.Unlock()
}

func (d *fakeDriver) Navigate(ctx context.Context, url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.visited = append(d.visited, url)
	if err := d.failNav[url]; err != nil {
		return err
	}
	d.current = url
	d.scrolls = 0
	return nil
}

func (d *fakeDriver) frame() int {
	n := len(d.pages[d.current])
	if n == 0 {
		return 0
	}
	if d.scrolls >= n {
		return n - 1
	}
	return d.scrolls
}

func (d *fakeDriver) Snapshot(ctx context.Context) (*browser.Page, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	html := "<html><body></body></html>"
	if snaps := d.pages[d.current]; len(snaps) > 0 {
		html = snaps[d.frame()]
	}
	return browser.NewPageFromHTML(html, d.current)
}

func (d *fakeDriver) ScrollToBottom(ctx context.Context) error {
	d.mu.Lock()
	d.scrolls++
	d.mu.Unlock()
	return nil
}

func (d *fakeDriver) PageHeight(ctx context.Context) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(1000 * (d.frame() + 1)), nil
}

func (d *fakeDriver) ExecuteScript(ctx context.Context, script string, out interface{}) error {
	return nil
}

func (d *fakeDriver) SetCookies(ctx context.Context, cookies []browser.Cookie) error {
	if d.failCook != nil {
		return d.failCook
	}
	d.mu.Lock()
	d.cookies = append(d.cookies, cookies...)
	d.mu.Unlock()
	return nil
}

func (d *fakeDriver) Close() error { return nil }

func (d *fakeDriver) visits() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.visited...)
}

// fakeSleeper returns immediately. cancelAfter cancels the run's context
// once that many sleeps have happened.
type fakeSleeper struct {
	mu          sync.Mutex
	slept       []time.Duration
	cancelAfter int
	cancel      context.CancelFunc
}

func (s *fakeSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.slept = append(s.slept, d)
	if s.cancel != nil && len(s.slept) >= s.cancelAfter {
		s.cancel()
	}
	s.mu.Unlock()
	return ctx.Err()
}

// englishDetector calls everything English unless it starts with "hola"
type englishDetector struct{}

func (englishDetector) Detect(text string) (string, error) {
	if strings.HasPrefix(strings.ToLower(text), "hola") {
		return "es", nil
	}
	return "en", nil
}

// failingStore fails every profile write
type failingStore struct {
	storage.Gateway
}

func (f failingStore) UpsertUser(ctx context.Context, previousID string, u models.UserProfile) error {
	return errors.New("disk full")
}

func profileHTML(name, handle, followers string) string {
	return `<html><body>
<div data-testid="UserName">
  <div><div dir="ltr"><span><span>` + name + `</span></span></div></div>
  <div><div dir="ltr"><span>@` + handle + `</span></div></div>
</div>
<div data-testid="UserDescription">building things</div>
<a href="/` + handle + `/following"><span><span>12</span></span><span>Following</span></a>
<a href="/` + handle + `/verified_followers"><span><span>` + followers + `</span></span><span>Followers</span></a>
</body></html>`
}

func article(id, handle, name, text, likes string) string {
	return `<article role="article">` +
		`<div data-testid="User-Name"><span>` + name + `</span><span>@` + handle + `</span></div>` +
		`<a href="/` + handle + `/status/` + id + `"><time datetime="2024-05-01T10:20:30.000Z">May 1</time></a>` +
		`<div data-testid="tweetText">` + text + `</div>` +
		`<button data-testid="like" aria-label="` + likes + ` Likes. Like"></button>` +
		`</article>`
}

func feed(articles ...string) string {
	return "<html><body>" + strings.Join(articles, "") + "</body></html>"
}
