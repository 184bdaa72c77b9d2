package pacing

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"xwatch/pkg/config"
	"xwatch/pkg/logger"
	"xwatch/pkg/retry"
)

// Range is an inclusive window a randomized wait is drawn from
type Range struct {
	Min time.Duration
	Max time.Duration
}

// FromConfig converts a configured duration range
func FromConfig(r config.DurationRange) Range {
	return Range{Min: r.Min, Max: r.Max}
}

// Pick draws a uniform duration from the range. A reversed range is
// treated as its swap; an empty one yields Min.
func (r Range) Pick(rnd *rand.Rand) time.Duration {
	lo, hi := r.Min, r.Max
	if hi < lo {
		lo, hi = hi, lo
	}
	if hi == lo {
		return lo
	}
	return lo + time.Duration(rnd.Int63n(int64(hi-lo)+1))
}

// Sleeper performs every wait the crawler makes
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// TimerSleeper waits on the wall clock and returns early when ctx is done
type TimerSleeper struct{}

// Sleep blocks for d or until ctx is cancelled
func (TimerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	return retry.Wait(ctx, d)
}

// Wait kinds passed to a Pacer's wait hook
const (
	WaitBetweenItems = "between_items"
	WaitCooldown     = "cooldown"
	WaitPageSettle   = "page_settle"
	WaitScrollPause  = "scroll_pause"
)

// Pacer draws and performs the randomized waits of one crawl mode
type Pacer struct {
	sleeper Sleeper
	log     logger.Logger

	mu     sync.Mutex
	rnd    *rand.Rand
	onWait func(kind string, d time.Duration)

	itemDelay   Range
	cooldown    Range
	pageSettle  Range
	scrollPause Range
}

// New builds a pacer for the configured crawl mode. A nil sleeper waits on
// the wall clock.
func New(cfg *config.Config, sleeper Sleeper, log logger.Logger) *Pacer {
	if sleeper == nil {
		sleeper = TimerSleeper{}
	}
	if log == nil {
		log = logger.GetLogger()
	}
	mode := cfg.ActivePacing()
	return &Pacer{
		sleeper:     sleeper,
		log:         log.WithField("component", "pacing"),
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())),
		itemDelay:   FromConfig(mode.ItemDelay),
		cooldown:    FromConfig(mode.Cooldown),
		pageSettle:  FromConfig(cfg.Pacing.PageSettle),
		scrollPause: FromConfig(cfg.Pacing.ScrollPause),
	}
}

// WithSeed makes the drawn delays reproducible
func (p *Pacer) WithSeed(seed int64) *Pacer {
	p.mu.Lock()
	p.rnd = rand.New(rand.NewSource(seed))
	p.mu.Unlock()
	return p
}

// OnWait registers fn to be told about every drawn wait before it starts
func (p *Pacer) OnWait(fn func(kind string, d time.Duration)) {
	p.mu.Lock()
	p.onWait = fn
	p.mu.Unlock()
}

func (p *Pacer) wait(ctx context.Context, kind string, r Range) (time.Duration, error) {
	p.mu.Lock()
	d := r.Pick(p.rnd)
	hook := p.onWait
	p.mu.Unlock()

	switch kind {
	case WaitBetweenItems:
		p.log.InfoWithFields("Sleeping before next item", map[string]interface{}{
			"duration": d.Round(time.Second).String(),
		})
	case WaitCooldown:
		p.log.InfoWithFields("Work list exhausted, cooling down", map[string]interface{}{
			"duration": d.Round(time.Second).String(),
		})
	default:
		p.log.DebugWithFields("Waiting", map[string]interface{}{
			"wait":     kind,
			"duration": d.String(),
		})
	}
	if hook != nil {
		hook(kind, d)
	}
	return d, p.sleeper.Sleep(ctx, d)
}

// BetweenItems waits the inter-item delay
func (p *Pacer) BetweenItems(ctx context.Context) (time.Duration, error) {
	return p.wait(ctx, WaitBetweenItems, p.itemDelay)
}

// Cooldown waits the end-of-cycle delay
func (p *Pacer) Cooldown(ctx context.Context) (time.Duration, error) {
	return p.wait(ctx, WaitCooldown, p.cooldown)
}

// PageSettle waits for a freshly loaded page to render
func (p *Pacer) PageSettle(ctx context.Context) (time.Duration, error) {
	return p.wait(ctx, WaitPageSettle, p.pageSettle)
}

// ScrollPause waits for content to load after a scroll
func (p *Pacer) ScrollPause(ctx context.Context) (time.Duration, error) {
	return p.wait(ctx, WaitScrollPause, p.scrollPause)
}

// Sleep waits exactly d through the pacer's sleeper
func (p *Pacer) Sleep(ctx context.Context, d time.Duration) error {
	return p.sleeper.Sleep(ctx, d)
}
