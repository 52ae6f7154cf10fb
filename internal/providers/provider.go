package providers

import (
	"context"
	"net/url"
	"time"
)

// Locator points at one chapter on the source site. Extractors return
// locators in reading order.
type Locator struct {
	URL   string
	Title string
	// Slug is an extractor-specific key, e.g. an API path segment.
	Slug string
}

type Chapter struct {
	ID    string
	Title string
	Text  string
	URL   string
}

type Author struct {
	Name     string
	HomePage string
}

type Book struct {
	Alias       string
	Title       string
	Subtitle    string
	Description string
	Authors     []Author
	Genres      []string
	Keywords    []string
	Covers      []string
	Published   time.Time
	Lang        string
	HomePage    string
}

// Date formats the publish date, or returns "" when it is unknown.
func (b *Book) Date(layout string) string {
	if b.Published.IsZero() {
		return ""
	}
	return b.Published.Format(layout)
}

// Extractor knows the markup of one site. Implementations fetch pages
// through the shared HTTP client and return raw site HTML; normalization
// happens in the chapter pipeline.
type Extractor interface {
	Name() string
	Match(u *url.URL) bool
	Book(ctx context.Context, pageURL string) (*Book, error)
	Chapters(ctx context.Context, book *Book) ([]Locator, error)
	Chapter(ctx context.Context, book *Book, loc Locator) (Chapter, error)
}
