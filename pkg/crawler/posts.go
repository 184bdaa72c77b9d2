package crawler

import (
	"context"

	errs "xwatch/pkg/errors"
	"xwatch/pkg/extract"
	"xwatch/pkg/ledger"
	"xwatch/pkg/pacing"
)

// Post results reported to metrics
const (
	postNew       = "new"
	postAmended   = "amended"
	postUnchanged = "unchanged"
	postFiltered  = "filtered"
)

// collectPosts reads the current page, then keeps scrolling and reading
// until the scroll session stops. A stuck page ends collection with what
// was gathered. Browser failures end it too; they never fail the item.
func (c *Crawler) collectPosts(ctx context.Context, pc extract.PostContext, sightings bool, stats *itemStats) {
	mp := c.cfg.ActivePacing()
	height, err := c.driver.PageHeight(ctx)
	if err != nil {
		c.log.WithError(err).Warn("Failed to read page height")
	}
	scroll := pacing.NewScrollSession(mp.MaxScrolls, mp.StuckThreshold, height)
	seen := extract.NewSeenSet()

	for {
		page, err := c.driver.Snapshot(ctx)
		if err != nil {
			c.log.WithError(errs.Wrap(errs.ErrorTypeBrowser, err, "failed to read page")).Warn("Post collection ended early")
			return
		}
		c.storeBatch(ctx, extract.ExtractPosts(page, pc, seen), sightings, stats)

		if scroll.State() != pacing.Scrolling {
			break
		}
		if err := c.driver.ScrollToBottom(ctx); err != nil {
			c.log.WithError(errs.Wrap(errs.ErrorTypeBrowser, err, "failed to scroll")).Warn("Post collection ended early")
			return
		}
		if _, err := c.pacer.ScrollPause(ctx); err != nil {
			return
		}
		h, err := c.driver.PageHeight(ctx)
		if err != nil {
			c.log.WithError(err).Warn("Failed to read page height")
		}
		scroll.Observe(h)
	}

	stats.scrolls = scroll.Attempts()
	if scroll.State() == pacing.Stuck {
		stuck := errs.New(errs.ErrorTypeStuckPage, "page stopped growing")
		c.log.WithError(stuck).InfoWithFields("Scrolling stopped", map[string]interface{}{
			"scrolls": scroll.Attempts(),
			"stalls":  scroll.Stalls(),
		})
	}
}

// storeBatch persists one snapshot's worth of posts and sightings
func (c *Crawler) storeBatch(ctx context.Context, batch extract.PostBatch, sightings bool, stats *itemStats) {
	for _, skip := range batch.Skipped {
		c.log.WithError(skip.Reason).DebugWithFields("Post skipped", map[string]interface{}{
			"permalink": skip.Permalink,
		})
	}

	if sightings {
		for _, s := range batch.Sightings {
			created, err := c.store.RecordSighting(ctx, s.Handle, s.Name)
			if err != nil {
				c.storageFailed("record_sighting", s.Handle, err, stats)
				continue
			}
			stats.sightings++
			if created {
				stats.newUsers++
			}
			c.metrics.SightingRecorded(created)
		}
	}

	if batch.Filtered > 0 {
		stats.filtered += batch.Filtered
		c.metrics.PostSeen(postFiltered, batch.Filtered)
	}

	for _, p := range batch.Posts {
		existing, err := c.store.GetPost(ctx, p.PostID)
		if err != nil {
			c.storageFailed("get_post", p.PostID, err, stats)
			continue
		}

		r := ledger.ReconcilePost(existing, p, c.now())
		switch r.Action {
		case ledger.Insert:
			added, err := c.store.AppendPostIfNew(ctx, r.Record)
			if err != nil {
				c.storageFailed("append_post", p.PostID, err, stats)
				continue
			}
			if !added {
				c.metrics.PostSeen(postUnchanged, 1)
				continue
			}
			stats.newPosts++
			c.metrics.PostSeen(postNew, 1)
		case ledger.Update:
			if err := c.store.AmendPost(ctx, r.Record); err != nil {
				c.storageFailed("amend_post", p.PostID, err, stats)
				continue
			}
			stats.amendedPosts++
			c.metrics.PostSeen(postAmended, 1)
			c.recordEvents(ctx, r.Events, stats)
		default:
			c.metrics.PostSeen(postUnchanged, 1)
		}
	}
}
