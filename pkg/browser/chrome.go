package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"xwatch/pkg/logger"
)

// hides the automation flag from page scripts
const stealthScript = `Object.defineProperty(navigator, 'webdriver', {get: () => undefined});`

// Options configures a ChromeSession
type Options struct {
	Headless      bool
	ExecPath      string
	UserDataDir   string
	ProfileDir    string
	UserAgent     string
	Language      string
	WindowWidth   int
	WindowHeight  int
	NavTimeout    time.Duration
	ScriptTimeout time.Duration
	// Throttle, when set, is waited on before every navigation
	Throttle Throttle
}

// ChromeSession drives a single Chrome tab through chromedp
type ChromeSession struct {
	opts        Options
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	logger      logger.Logger
}

// Open starts Chrome and prepares a tab. The returned session must be closed.
func Open(ctx context.Context, opts Options, log logger.Logger) (*ChromeSession, error) {
	if opts.NavTimeout <= 0 {
		opts.NavTimeout = time.Minute
	}
	if opts.ScriptTimeout <= 0 {
		opts.ScriptTimeout = 15 * time.Second
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("enable-automation", false),
	)
	if opts.Language != "" {
		allocOpts = append(allocOpts, chromedp.Flag("lang", opts.Language))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.WindowWidth > 0 && opts.WindowHeight > 0 {
		allocOpts = append(allocOpts, chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight))
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.UserDataDir != "" {
		allocOpts = append(allocOpts, chromedp.UserDataDir(opts.UserDataDir))
	}
	if opts.ProfileDir != "" {
		allocOpts = append(allocOpts, chromedp.Flag("profile-directory", opts.ProfileDir))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)
	tabCtx, cancel := chromedp.NewContext(allocCtx)

	s := &ChromeSession{
		opts:        opts,
		ctx:         tabCtx,
		cancel:      cancel,
		allocCancel: allocCancel,
		logger:      log.WithField("component", "browser"),
	}

	err := chromedp.Run(tabCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
		return err
	}))
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	s.logger.InfoWithFields("Browser started", map[string]interface{}{
		"headless": opts.Headless,
		"profile":  opts.ProfileDir,
	})
	return s, nil
}

// run executes actions on the tab, bounded by timeout and by the caller's ctx
func (s *ChromeSession) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

// Navigate loads url and waits for the load event
func (s *ChromeSession) Navigate(ctx context.Context, url string) error {
	if s.opts.Throttle != nil {
		if err := s.opts.Throttle.Wait(ctx); err != nil {
			return err
		}
	}
	s.logger.DebugWithFields("Navigating", map[string]interface{}{"url": url})
	if err := s.run(ctx, s.opts.NavTimeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// Snapshot captures the current DOM
func (s *ChromeSession) Snapshot(ctx context.Context) (*Page, error) {
	var html, location string
	err := s.run(ctx, s.opts.ScriptTimeout,
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return NewPageFromHTML(html, location)
}

// ScrollToBottom scrolls the window to the current end of the document
func (s *ChromeSession) ScrollToBottom(ctx context.Context) error {
	return s.ExecuteScript(ctx, `window.scrollTo(0, document.body.scrollHeight);`, nil)
}

// PageHeight returns document.body.scrollHeight
func (s *ChromeSession) PageHeight(ctx context.Context) (int64, error) {
	var h int64
	if err := s.ExecuteScript(ctx, `document.body.scrollHeight`, &h); err != nil {
		return 0, err
	}
	return h, nil
}

// ExecuteScript evaluates script in the page; out may be nil
func (s *ChromeSession) ExecuteScript(ctx context.Context, script string, out interface{}) error {
	if err := s.run(ctx, s.opts.ScriptTimeout, chromedp.Evaluate(script, out)); err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	return nil
}

// SetCookies injects cookies into the browser's cookie jar
func (s *ChromeSession) SetCookies(ctx context.Context, cookies []Cookie) error {
	return s.run(ctx, s.opts.ScriptTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		for _, c := range cookies {
			params := network.SetCookie(c.Name, c.Value).
				WithDomain(c.Domain).
				WithPath(c.Path).
				WithSecure(c.Secure).
				WithHTTPOnly(c.HTTPOnly)
			if !c.Expires.IsZero() {
				exp := cdp.TimeSinceEpoch(c.Expires)
				params = params.WithExpires(&exp)
			}
			if err := params.Do(ctx); err != nil {
				return fmt.Errorf("set cookie %s: %w", c.Name, err)
			}
		}
		return nil
	}))
}

// Close shuts the tab and the browser process
func (s *ChromeSession) Close() error {
	s.cancel()
	s.allocCancel()
	s.logger.Debug("Browser closed")
	return nil
}
