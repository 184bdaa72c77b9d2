// Package ratelimit caps how fast the crawler drives the browser.
//
// NavigationLimiter wraps golang.org/x/time/rate and is handed to the
// browser session as its navigation throttle, so every page load waits
// for a token regardless of which crawl mode issued it:
//
//	limiter := ratelimit.NewNavigationLimiter(cfg.Browser.NavigationsPerMinute, 1)
//	session, err := browser.Open(ctx, browser.Options{Throttle: limiter}, log)
package ratelimit
