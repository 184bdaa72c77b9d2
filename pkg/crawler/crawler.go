package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"xwatch/pkg/auth"
	"xwatch/pkg/browser"
	"xwatch/pkg/checkpoint"
	"xwatch/pkg/config"
	errs "xwatch/pkg/errors"
	"xwatch/pkg/extract"
	"xwatch/pkg/logger"
	"xwatch/pkg/metrics"
	"xwatch/pkg/models"
	"xwatch/pkg/pacing"
	"xwatch/pkg/status"
	"xwatch/pkg/storage"
)

// Item outcomes reported to metrics
const (
	outcomeOK      = "ok"
	outcomeSkipped = "skipped"
	outcomeFailed  = "failed"
)

// Options are the crawler's collaborators. Config, Driver, Store and
// Progress are required.
type Options struct {
	Config   *config.Config
	Driver   browser.Driver
	Store    storage.Gateway
	Progress *checkpoint.Manager

	// Pacer defaults to wall-clock pacing for the configured mode
	Pacer *pacing.Pacer
	// Detector defaults to whatlanggo
	Detector extract.LanguageDetector
	// Session is replayed into the browser before the first item. Nil
	// means the browser profile is already logged in.
	Session *auth.Session
	Metrics *metrics.Metrics
	Tracker *status.Tracker
	Logger  logger.Logger

	// RunID labels logs and the progress file; generated when empty
	RunID string
	// MaxCycles stops the crawler after that many full passes; 0 runs forever
	MaxCycles int
	// Now stamps change events
	Now func() time.Time
}

// Crawler processes a work list forever, one item at a time
type Crawler struct {
	cfg      *config.Config
	driver   browser.Driver
	store    storage.Gateway
	progress *checkpoint.Manager
	pacer    *pacing.Pacer
	detector extract.LanguageDetector
	session  *auth.Session
	metrics  *metrics.Metrics
	tracker  *status.Tracker
	log      logger.Logger

	maxCycles int
	now       func() time.Time
	runID     string
}

// New validates the options and builds a crawler
func New(opts Options) (*Crawler, error) {
	switch {
	case opts.Config == nil:
		return nil, errors.New("crawler: config is required")
	case opts.Driver == nil:
		return nil, errors.New("crawler: browser driver is required")
	case opts.Store == nil:
		return nil, errors.New("crawler: storage gateway is required")
	case opts.Progress == nil:
		return nil, errors.New("crawler: progress manager is required")
	}

	c := &Crawler{
		cfg:       opts.Config,
		driver:    opts.Driver,
		store:     opts.Store,
		progress:  opts.Progress,
		pacer:     opts.Pacer,
		detector:  opts.Detector,
		session:   opts.Session,
		metrics:   opts.Metrics,
		tracker:   opts.Tracker,
		log:       opts.Logger,
		maxCycles: opts.MaxCycles,
		now:       opts.Now,
		runID:     opts.RunID,
	}
	if c.runID == "" {
		c.runID = xid.New().String()
	}
	if c.log == nil {
		c.log = logger.GetLogger()
	}
	c.log = c.log.WithFields(map[string]interface{}{
		"component": "crawler",
		"run_id":    c.runID,
		"mode":      c.cfg.Crawl.Mode,
	})
	if c.pacer == nil {
		c.pacer = pacing.New(c.cfg, nil, c.log)
	}
	c.pacer.OnWait(func(kind string, d time.Duration) {
		switch kind {
		case pacing.WaitBetweenItems:
			c.tracker.Sleeping(status.StatePacing, d)
		case pacing.WaitCooldown:
			c.tracker.Sleeping(status.StateCooldown, d)
		}
	})
	if c.detector == nil {
		c.detector = extract.WhatlangDetector{RequireReliable: c.cfg.Crawl.RequireReliable}
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c, nil
}

// RunID identifies this crawler's run in logs and progress files
func (c *Crawler) RunID() string {
	return c.runID
}

// WorkItems turns raw work list values into items of the configured mode
func WorkItems(mode string, values []string) []models.WorkItem {
	kind := models.WorkUser
	if mode == config.ModeHashtags {
		kind = models.WorkHashtag
	}
	items := make([]models.WorkItem, 0, len(values))
	for _, v := range values {
		if kind == models.WorkUser {
			v = extract.NormalizeHandle(v)
		}
		if v = strings.TrimSpace(v); v != "" {
			items = append(items, models.WorkItem{Kind: kind, Value: v})
		}
	}
	return items
}

// Run crawls items until ctx is cancelled, MaxCycles is reached or a fatal
// error occurs. Cancellation returns ctx.Err().
func (c *Crawler) Run(ctx context.Context, items []models.WorkItem) (err error) {
	n := len(items)
	if n == 0 {
		return errors.New("work list is empty")
	}
	defer func() { c.tracker.Stopped(err) }()

	logger.LogComponentStart(c.log, "crawler", map[string]interface{}{
		"work_items": n,
		"max_cycles": c.maxCycles,
	})

	if c.session != nil {
		if err := c.login(ctx); err != nil {
			return err
		}
	}

	cursor, err := c.progress.Load()
	if err != nil {
		c.log.WithError(err).Warn("Progress file unreadable, starting from the top")
		cursor = &checkpoint.Cursor{}
	}
	if cursor.Clamp(n) {
		c.log.InfoWithFields("Progress clamped to work list", map[string]interface{}{
			"last_index": cursor.LastIndex,
			"size":       n,
		})
	}
	cursor.RunID = c.runID

	completed := 0
	for {
		if err := ctx.Err(); err != nil {
			logger.LogComponentStop(c.log, "crawler", "cancelled")
			return err
		}

		if cursor.Exhausted(n) {
			completed++
			c.metrics.CycleCompleted()
			c.log.InfoWithFields("Cycle complete", map[string]interface{}{
				"cycle": cursor.Cycle,
			})
			if c.maxCycles > 0 && completed >= c.maxCycles {
				if err := c.progress.Wrap(cursor); err != nil {
					c.log.WithError(err).Error("Failed to save progress")
				}
				logger.LogComponentStop(c.log, "crawler", "cycle limit reached")
				return nil
			}

			if _, err := c.pacer.Cooldown(ctx); err != nil {
				return err
			}
			if err := c.progress.Wrap(cursor); err != nil {
				c.log.WithError(err).Error("Failed to save progress")
			}
			continue
		}

		index := cursor.LastIndex
		item := items[index]
		c.tracker.Processing(cursor.Cycle, index, n, item.Value)
		itemErr := c.processItem(context.WithoutCancel(ctx), index, n, item)
		c.tracker.ItemDone(itemErr)
		if errs.IsFatal(itemErr) {
			return itemErr
		}

		if err := c.progress.Advance(cursor, index); err != nil {
			c.log.WithError(err).Error("Failed to save progress")
		}
		c.metrics.Cursor(cursor.LastIndex, n)

		if !cursor.Exhausted(n) {
			if _, err := c.pacer.BetweenItems(ctx); err != nil {
				return err
			}
		}
	}
}

// processItem runs one work item and classifies its outcome. Only session
// errors escape as fatal; everything else is logged and skipped.
func (c *Crawler) processItem(ctx context.Context, index, total int, item models.WorkItem) error {
	started := time.Now()
	logger.LogItemStart(c.log, index, total, string(item.Kind), item.Value)

	var (
		stats itemStats
		err   error
	)
	switch item.Kind {
	case models.WorkHashtag:
		stats, err = c.processHashtag(ctx, item.Value)
	default:
		stats, err = c.processProfile(ctx, item.Value)
	}

	outcome := outcomeOK
	switch {
	case err == nil:
	case errs.IsFatal(err):
		c.log.WithError(err).Error("Session is no longer valid")
		outcome = outcomeFailed
	case errs.Is(err, errs.ErrorTypeTransientBlock), errs.Is(err, errs.ErrorTypeBrowser):
		logger.LogSkip(c.log, item.Value, string(errs.TypeOf(err)), err)
		outcome = outcomeSkipped
	default:
		logger.LogSkip(c.log, item.Value, string(errs.TypeOf(err)), err)
		outcome = outcomeFailed
	}

	c.metrics.ItemDone(c.cfg.Crawl.Mode, outcome, started)
	logger.LogItemDone(c.log, index, item.Value, time.Since(started), stats.fields(outcome))
	return err
}

// login opens the site, replays the session cookies and lands on /home
func (c *Crawler) login(ctx context.Context) error {
	base := c.baseURL()
	if err := c.driver.Navigate(ctx, base); err != nil {
		return errs.Wrap(errs.ErrorTypeSession, err, "failed to open site root")
	}
	if err := c.driver.SetCookies(ctx, c.session.Cookies); err != nil {
		return errs.Wrap(errs.ErrorTypeSession, err, "failed to inject session cookies")
	}
	if err := c.driver.Navigate(ctx, base+"/home"); err != nil {
		return errs.Wrap(errs.ErrorTypeSession, err, "failed to open home timeline")
	}
	if _, err := c.pacer.PageSettle(ctx); err != nil {
		return err
	}
	c.log.InfoWithFields("Session restored", map[string]interface{}{
		"account": c.session.Account,
		"cookies": len(c.session.Cookies),
	})
	return nil
}

func (c *Crawler) baseURL() string {
	return strings.TrimRight(c.cfg.Session.BaseURL, "/")
}

// open navigates to url, lets it settle and probes for the site's retry
// marker. A marker means the site is throttling us and the item is skipped.
func (c *Crawler) open(ctx context.Context, url string) (*browser.Page, error) {
	if err := c.driver.Navigate(ctx, url); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeBrowser, err, fmt.Sprintf("failed to open %s", url))
	}
	if _, err := c.pacer.PageSettle(ctx); err != nil {
		return nil, err
	}

	var page *browser.Page
	blocked, err := pacing.Probe(ctx, c.pacer, c.cfg.Pacing.RetryProbe, 0, func() (bool, error) {
		p, err := c.driver.Snapshot(ctx)
		if err != nil {
			return false, errs.Wrap(errs.ErrorTypeBrowser, err, "failed to read page")
		}
		page = p
		_, found := p.Find(extract.RetryMarkerSelector)
		return found, nil
	})
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, errs.New(errs.ErrorTypeTransientBlock, "site shows a retry marker")
	}
	return page, nil
}

// storageFailed logs a failed gateway call and counts it
func (c *Crawler) storageFailed(op, subject string, err error, stats *itemStats) {
	stats.storageErrors++
	c.metrics.StorageFailed(op)
	c.log.WithError(err).WithFields(map[string]interface{}{
		"operation": op,
		"subject":   subject,
	}).Error("Storage operation failed")
}

// recordEvents appends change events; failures are logged and skipped
func (c *Crawler) recordEvents(ctx context.Context, events []models.ChangeEvent, stats *itemStats) {
	for _, e := range events {
		if err := c.store.AppendChange(ctx, e); err != nil {
			c.storageFailed("append_change", e.SubjectID, err, stats)
			continue
		}
		stats.changes++
		c.metrics.ChangeLogged(e.Field)
		logger.LogChange(c.log, e.SubjectID, e.Field, e.OldValue, e.NewValue, e.Delta.String())
	}
}

type itemStats struct {
	profile       string
	changes       int
	newPosts      int
	amendedPosts  int
	filtered      int
	sightings     int
	newUsers      int
	scrolls       int
	storageErrors int
}

func (s itemStats) fields(outcome string) map[string]interface{} {
	f := map[string]interface{}{
		"outcome":   outcome,
		"changes":   s.changes,
		"new_posts": s.newPosts,
	}
	if s.profile != "" {
		f["profile"] = s.profile
	}
	if s.amendedPosts > 0 {
		f["amended_posts"] = s.amendedPosts
	}
	if s.filtered > 0 {
		f["filtered"] = s.filtered
	}
	if s.sightings > 0 {
		f["sightings"] = s.sightings
		f["new_users"] = s.newUsers
	}
	if s.scrolls > 0 {
		f["scrolls"] = s.scrolls
	}
	if s.storageErrors > 0 {
		f["storage_errors"] = s.storageErrors
	}
	return f
}
