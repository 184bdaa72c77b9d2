package browser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Page is a parsed snapshot of the live DOM. Lookups never fail loudly:
// a selector that matches nothing, or does not compile, is simply absent.
type Page struct {
	url string
	doc *goquery.Document
}

// Element is a node inside a Page
type Element struct {
	sel *goquery.Selection
}

// NewPageFromHTML parses an HTML document
func NewPageFromHTML(html, url string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	return &Page{url: url, doc: doc}, nil
}

// URL is the address the snapshot was taken at
func (p *Page) URL() string {
	return p.url
}

// Find returns the first match for selector
func (p *Page) Find(selector string) (*Element, bool) {
	return first(p.doc.Find(selector))
}

// FindAll returns every match for selector in document order
func (p *Page) FindAll(selector string) []*Element {
	return all(p.doc.Find(selector))
}

// Text returns the element's trimmed text content
func (e *Element) Text() string {
	return strings.TrimSpace(e.sel.Text())
}

// Attr returns an attribute value
func (e *Element) Attr(name string) (string, bool) {
	return e.sel.Attr(name)
}

// Find returns the first descendant matching selector
func (e *Element) Find(selector string) (*Element, bool) {
	return first(e.sel.Find(selector))
}

// FindAll returns every descendant matching selector
func (e *Element) FindAll(selector string) []*Element {
	return all(e.sel.Find(selector))
}

// Closest returns the nearest ancestor (or the element itself) matching selector
func (e *Element) Closest(selector string) (*Element, bool) {
	return first(e.sel.Closest(selector))
}

func first(s *goquery.Selection) (*Element, bool) {
	if s.Length() == 0 {
		return nil, false
	}
	return &Element{sel: s.First()}, true
}

func all(s *goquery.Selection) []*Element {
	out := make([]*Element, 0, s.Length())
	s.Each(func(_ int, item *goquery.Selection) {
		out = append(out, &Element{sel: item})
	})
	return out
}
