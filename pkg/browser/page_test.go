package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<html><body>
<div data-testid="UserDescription">  hello <b>world</b> </div>
<article role="article"><a href="/jack/status/20">one</a><span>Retry</span></article>
<article role="article"><a href="/jack/status/21">two</a></article>
</body></html>`

func TestPageLookups(t *testing.T) {
	p, err := NewPageFromHTML(samplePage, "https://x.com/jack")
	require.NoError(t, err)
	assert.Equal(t, "https://x.com/jack", p.URL())

	desc, ok := p.Find(`[data-testid="UserDescription"]`)
	require.True(t, ok)
	assert.Equal(t, "hello world", desc.Text())

	_, ok = p.Find(`[data-testid="UserLocation"]`)
	assert.False(t, ok)

	articles := p.FindAll(`article[role="article"]`)
	require.Len(t, articles, 2)

	link, ok := articles[1].Find(`a[href*="/status/"]`)
	require.True(t, ok)
	href, ok := link.Attr("href")
	assert.True(t, ok)
	assert.Equal(t, "/jack/status/21", href)

	_, ok = link.Attr("title")
	assert.False(t, ok)
}

func TestPageContainsPseudoClass(t *testing.T) {
	p, err := NewPageFromHTML(samplePage, "")
	require.NoError(t, err)

	span, ok := p.Find(`span:contains("Retry")`)
	require.True(t, ok)

	art, ok := span.Closest("article")
	require.True(t, ok)
	assert.Len(t, art.FindAll("a"), 1)
}

func TestInvalidSelectorIsAbsent(t *testing.T) {
	p, err := NewPageFromHTML(samplePage, "")
	require.NoError(t, err)

	_, ok := p.Find(`a[[`)
	assert.False(t, ok)
	assert.Empty(t, p.FindAll(`::nope`))
}
