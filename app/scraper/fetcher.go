package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const DefaultNavigationTimeout = 70 * time.Second

// Page is a fetched, parsed source page.
type Page struct {
	doc     *goquery.Document
	baseURL *url.URL
}

// NewPage parses rendered page content. pageURL is used as the base for
// resolving relative links.
func NewPage(r io.Reader, pageURL string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page HTML: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page URL: %w", err)
	}

	return &Page{doc: doc, baseURL: base}, nil
}

// Title returns the page's <title> text.
func (p *Page) Title() string {
	return CleanText(p.doc.Find("title").First().Text())
}

// EmbeddedJSON returns the raw text of every embedded ld+json block.
func (p *Page) EmbeddedJSON() []string {
	var blocks []string
	p.doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		blocks = append(blocks, sel.Text())
	})
	return blocks
}

// Find exposes the underlying document for DOM queries.
func (p *Page) Find(selector string) *goquery.Selection {
	return p.doc.Find(selector)
}

// Resolve turns an href from the page into an absolute URL. Returns "" when
// the href does not resolve.
func (p *Page) Resolve(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}

	return p.baseURL.ResolveReference(ref).String()
}

// Fetcher delivers rendered page content to the extractor. Implementations
// must honor a navigation timeout and return control even on slow or failing
// responses.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (*Page, error)
}

// HTTPFetcher fetches source pages over plain HTTP.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

func NewHTTPFetcher(client *http.Client, userAgent string) *HTTPFetcher {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPFetcher{client: client, userAgent: userAgent}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	page, err := NewPage(resp.Body, pageURL)
	if err != nil {
		return nil, err
	}

	return page, nil
}
