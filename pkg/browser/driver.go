package browser

import (
	"context"
	"time"
)

// Driver is the browser capability the crawler needs. ChromeSession is the
// production implementation; tests substitute scripted fakes.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	Snapshot(ctx context.Context) (*Page, error)
	ScrollToBottom(ctx context.Context) error
	PageHeight(ctx context.Context) (int64, error)
	ExecuteScript(ctx context.Context, script string, out interface{}) error
	SetCookies(ctx context.Context, cookies []Cookie) error
	Close() error
}

// Cookie is a browser cookie to inject. SameSite is never sent.
type Cookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Domain   string    `json:"domain"`
	Path     string    `json:"path"`
	Secure   bool      `json:"secure"`
	HTTPOnly bool      `json:"httpOnly"`
	Expires  time.Time `json:"expires,omitempty"`
}

// Throttle gates navigations
type Throttle interface {
	Wait(ctx context.Context) error
}
