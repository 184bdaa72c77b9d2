package crawler

import (
	"context"
	"net/url"

	errs "xwatch/pkg/errors"
	"xwatch/pkg/extract"
	"xwatch/pkg/ledger"
	"xwatch/pkg/models"
)

// processProfile visits one profile, reconciles it with the stored user and
// records any field changes. With crawl.scrape_posts it also sweeps the
// profile's timeline.
func (c *Crawler) processProfile(ctx context.Context, handle string) (itemStats, error) {
	var stats itemStats
	handle = extract.NormalizeHandle(handle)

	page, err := c.open(ctx, c.baseURL()+"/"+url.PathEscape(handle))
	if err != nil {
		return stats, err
	}

	res := extract.ExtractProfile(page, handle)
	if !res.Complete() {
		c.log.DebugWithFields("Profile fields not found", map[string]interface{}{
			"handle":  handle,
			"missing": res.Missing,
		})
	}
	incoming := res.Profile

	existing, err := c.store.GetUser(ctx, handle)
	if err == nil && existing == nil && incoming.Handle != handle {
		existing, err = c.store.GetUser(ctx, incoming.Handle)
	}
	if err != nil {
		c.storageFailed("get_user", handle, err, &stats)
		return stats, errs.Wrap(errs.ErrorTypePersistence, err, "failed to load stored profile")
	}

	r := ledger.ReconcileProfile(existing, incoming, c.now())
	stats.profile = r.Action.String()
	if r.Action != ledger.NoOp {
		if err := c.store.UpsertUser(ctx, r.PreviousID, r.Record); err != nil {
			c.storageFailed("upsert_user", r.Record.Handle, err, &stats)
			return stats, errs.Wrap(errs.ErrorTypePersistence, err, "failed to store profile")
		}
	}
	c.metrics.UserReconciled(r.Action.String())
	c.recordEvents(ctx, r.Events, &stats)

	if c.cfg.Crawl.ScrapePosts {
		c.collectPosts(ctx, extract.PostContext{
			Language: c.cfg.Crawl.TargetLanguage,
			Detector: c.detector,
		}, false, &stats)
	}
	return stats, nil
}

// processHashtag runs a live search for tag, scrolls through the results
// and stores every new or changed post. Each post's author is counted as
// a sighting.
func (c *Crawler) processHashtag(ctx context.Context, tag string) (itemStats, error) {
	var stats itemStats

	if _, err := c.open(ctx, c.searchURL(tag)); err != nil {
		return stats, err
	}
	c.collectPosts(ctx, extract.PostContext{
		Hashtag:  models.Some(tag),
		Language: c.cfg.Crawl.TargetLanguage,
		Detector: c.detector,
	}, true, &stats)
	return stats, nil
}

func (c *Crawler) searchURL(tag string) string {
	return c.baseURL() + "/search?q=" + url.QueryEscape(tag) + "&src=typed_query&f=live"
}
