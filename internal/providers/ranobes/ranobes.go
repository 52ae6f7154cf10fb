// Package ranobes reads books from ranobes.com.
package ranobes

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/brogergvhs/ranobed/internal/providers"
	"github.com/brogergvhs/ranobed/internal/util"

	"github.com/PuerkitoBio/goquery"
)

type Extractor struct {
	f *util.Fetcher
	// Base is the site root without a trailing slash.
	Base string
}

func New(f *util.Fetcher) *Extractor {
	return &Extractor{f: f, Base: "https://ranobes.com"}
}

func (e *Extractor) Name() string { return "ranobes" }

func (e *Extractor) Match(u *url.URL) bool {
	return providers.HostIs(u, "ranobes.com")
}

func (e *Extractor) Book(ctx context.Context, pageURL string) (*providers.Book, error) {
	doc, err := e.f.Document(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	href, _ := doc.Find(".r-fullstory-chapters-foot > a:nth-child(3n)").First().Attr("href")
	alias := aliasOf(href)
	if alias == "" {
		return nil, fmt.Errorf("ranobes: chapter list link not found on %s", pageURL)
	}

	b := &providers.Book{
		Alias:    alias,
		Title:    providers.Title(doc),
		Subtitle: strings.TrimSpace(doc.Find(`[itemprop="alternateName"]`).First().Text()),
		Genres:   providers.Texts(doc.Find(`[itemprop="genre"] a`)),
		Keywords: providers.Texts(doc.Find(`[itemprop="keywords"] a`)),
		Lang:     "ru",
		HomePage: pageURL,
	}

	if d, err := doc.Find(`[itemprop="description"]`).First().Html(); err == nil {
		b.Description = strings.TrimSpace(d)
	}
	if published, ok := doc.Find(`[itemprop="datePublished"]`).First().Attr("content"); ok {
		b.Published = providers.ParseISODate(published)
	}

	img := doc.Find(`[itemprop="image"]`).First()
	cover := img.AttrOr("href", img.AttrOr("src", img.AttrOr("content", "")))
	if cover != "" {
		b.Covers = []string{util.ResolveURL(pageURL, cover)}
	}

	doc.Find(`[itemprop="creator"] a`).Each(func(_ int, a *goquery.Selection) {
		b.Authors = append(b.Authors, providers.Author{
			Name:     strings.TrimSpace(a.Text()),
			HomePage: util.ResolveURL(pageURL, a.AttrOr("href", "")),
		})
	})

	return b, nil
}

// Chapters walks the paginated chapter list until a page is missing or
// brings nothing new.
func (e *Extractor) Chapters(ctx context.Context, b *providers.Book) ([]providers.Locator, error) {
	prefix := e.chaptersURL(b.Alias)
	seen := map[string]bool{}

	var locs []providers.Locator
	for page := 1; ; page++ {
		doc, err := e.f.Optional(ctx, fmt.Sprintf("%spage/%d/", prefix, page))
		if err != nil {
			return nil, err
		}
		if doc == nil {
			break
		}

		added := 0
		doc.Find(`.cat_block a[href^="` + prefix + `"]`).Each(func(_ int, a *goquery.Selection) {
			href := a.AttrOr("href", "")
			if seen[href] || strings.Contains(href, "/page/") {
				return
			}
			seen[href] = true
			added++
			locs = append(locs, providers.Locator{
				URL:   href,
				Title: strings.TrimSpace(a.AttrOr("title", a.Text())),
			})
		})
		if added == 0 {
			break
		}
	}

	return providers.Reverse(locs), nil
}

// Chapter joins every page of a split chapter.
func (e *Extractor) Chapter(ctx context.Context, b *providers.Book, loc providers.Locator) (providers.Chapter, error) {
	prefix := e.chaptersURL(b.Alias)
	pages := []string{loc.URL}
	queued := map[string]bool{loc.URL: true}

	c := providers.Chapter{URL: loc.URL}
	var text strings.Builder

	for i := 0; i < len(pages); i++ {
		var doc *goquery.Document
		var err error
		if i == 0 {
			doc, err = e.f.Document(ctx, pages[i])
		} else {
			doc, err = e.f.Optional(ctx, pages[i])
		}
		if err != nil {
			return c, err
		}
		if doc == nil {
			break
		}

		content := doc.Find("#arrticle").First()
		if content.Length() == 0 {
			return c, fmt.Errorf("ranobes: no chapter text on %s", pages[i])
		}
		outer, err := goquery.OuterHtml(content)
		if err != nil {
			return c, err
		}
		text.WriteString(outer)

		if i == 0 {
			c.Title = providers.Title(doc)
			doc.Find(`.splitnewsnavigation a[href^="` + prefix + `"]`).Each(func(_ int, a *goquery.Selection) {
				href := a.AttrOr("href", "")
				if !queued[href] {
					queued[href] = true
					pages = append(pages, href)
				}
			})
		}
	}

	c.Text = text.String()
	return c, nil
}

func (e *Extractor) chaptersURL(alias string) string {
	return e.Base + "/chapters/" + alias + "/"
}

// aliasOf extracts the book id from ".../chapters/<alias>/".
func aliasOf(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segs) >= 2 && segs[0] == "chapters" {
		return segs[1]
	}
	return ""
}
