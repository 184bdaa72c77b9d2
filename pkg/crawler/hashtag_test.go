package crawler

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xwatch/pkg/config"
	"xwatch/pkg/models"
)

const golangSearch = "https://x.com/search?q=%23golang&src=typed_query&f=live"

func tags(values ...string) []models.WorkItem {
	return WorkItems(config.ModeHashtags, values)
}

func TestHashtagSweepStoresEachPostOnce(t *testing.T) {
	h := newHarness(t, config.ModeHashtags)
	h.driver.set(golangSearch,
		feed(article("1", "ann", "Ann", "first post", "3")),
		feed(article("1", "ann", "Ann", "first post", "3"), article("2", "bob", "Bob", "second post", "1.2K")),
		feed(article("2", "bob", "Bob", "second post", "1.2K"), article("3", "ann", "Ann", "hola amigos", "0")),
	)

	require.NoError(t, h.crawler(t, nil).Run(context.Background(), tags("#golang")))
	assert.Equal(t, []string{golangSearch}, h.driver.visits())

	first, err := h.store.GetPost(context.Background(), "1")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, models.Some("#golang"), first.Hashtag)
	assert.Equal(t, "2024-05-01", first.PublishDate)

	second, err := h.store.GetPost(context.Background(), "2")
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, int64(1200), second.Likes)

	spanish, err := h.store.GetPost(context.Background(), "3")
	require.NoError(t, err)
	assert.Nil(t, spanish, "posts in other languages are dropped")

	// sightings count every parsed post, including filtered ones
	ann, err := h.store.GetUser(context.Background(), "ann")
	require.NoError(t, err)
	require.NotNil(t, ann)
	assert.Equal(t, int64(2), ann.TweetCount)
	assert.Equal(t, models.Some("Ann"), ann.Name)

	assert.Equal(t, 2.0, testutil.ToFloat64(h.metrics.Posts.WithLabelValues(postNew)))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Posts.WithLabelValues(postFiltered)))
	assert.Equal(t, 2.0, testutil.ToFloat64(h.metrics.Sightings.WithLabelValues("created")))
}

func TestHashtagRediscoveryAmendsLikes(t *testing.T) {
	h := newHarness(t, config.ModeHashtags)
	h.driver.set(golangSearch, feed(article("9", "ann", "Ann", "post", "10")))
	require.NoError(t, h.crawler(t, nil).Run(context.Background(), tags("#golang")))

	h.driver.set(golangSearch, feed(article("9", "ann", "Ann", "post", "25")))
	require.NoError(t, h.crawler(t, nil).Run(context.Background(), tags("#golang")))

	post, err := h.store.GetPost(context.Background(), "9")
	require.NoError(t, err)
	require.NotNil(t, post)
	assert.Equal(t, int64(25), post.Likes)

	changes, err := h.store.ListChanges()
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "9", changes[0].SubjectID)
	assert.Equal(t, models.ColLikes, changes[0].Field)
	assert.Equal(t, "15", changes[0].Delta.String())

	ann, err := h.store.GetUser(context.Background(), "ann")
	require.NoError(t, err)
	require.NotNil(t, ann)
	assert.Equal(t, int64(2), ann.TweetCount, "every sweep counts a sighting")
}

func TestHashtagScrollStopsWhenStuck(t *testing.T) {
	h := newHarness(t, config.ModeHashtags)
	h.driver.set(golangSearch, feed(article("1", "ann", "Ann", "only post", "1")))

	require.NoError(t, h.crawler(t, nil).Run(context.Background(), tags("#golang")))

	assert.Equal(t, 2, h.driver.scrolls, "stuck threshold of two no-growth scrolls")
}
