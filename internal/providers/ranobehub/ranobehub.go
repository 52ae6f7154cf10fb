// Package ranobehub reads books from ranobehub.org. Pages are queried
// with XPath.
package ranobehub

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/brogergvhs/ranobed/internal/providers"
	"github.com/brogergvhs/ranobed/internal/util"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

type Extractor struct {
	f *util.Fetcher
	// Root is the site origin without a trailing slash.
	Root string
}

func New(f *util.Fetcher) *Extractor {
	return &Extractor{f: f, Root: "https://ranobehub.org"}
}

func (e *Extractor) Name() string { return "ranobehub" }

func (e *Extractor) Match(u *url.URL) bool {
	return providers.HostIs(u, "ranobehub.org")
}

func (e *Extractor) Book(ctx context.Context, pageURL string) (*providers.Book, error) {
	id := bookID(pageURL)
	if id == "" {
		return nil, fmt.Errorf("ranobehub: no book id in %s", pageURL)
	}

	doc, err := e.page(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	b := &providers.Book{
		Alias:    id,
		Title:    firstText(doc, "//h1[contains(@class,'header')]", "//h1"),
		Subtitle: firstText(doc, "//h3[contains(@class,'header')]"),
		Genres:   texts(doc, "//a[contains(@href,'genres')]"),
		Keywords: texts(doc, "//a[contains(@href,'tags')]"),
		Lang:     "ru",
		HomePage: pageURL,
	}

	if n := htmlquery.FindOne(doc, "//div[contains(@class,'book-description__text')]"); n != nil {
		b.Description = strings.TrimSpace(htmlquery.OutputHTML(n, false))
	}
	if n := htmlquery.FindOne(doc, "//div[contains(@class,'poster')]//img"); n != nil {
		src := htmlquery.SelectAttr(n, "data-src")
		if src == "" {
			src = htmlquery.SelectAttr(n, "src")
		}
		if src != "" {
			b.Covers = []string{util.ResolveURL(pageURL, src)}
		}
	}
	for _, a := range htmlquery.Find(doc, "//a[contains(@href,'author')]") {
		name := strings.TrimSpace(htmlquery.InnerText(a))
		if name == "" {
			continue
		}
		b.Authors = append(b.Authors, providers.Author{
			Name:     name,
			HomePage: util.ResolveURL(pageURL, htmlquery.SelectAttr(a, "href")),
		})
	}
	if n := htmlquery.FindOne(doc, "//meta[@itemprop='datePublished']"); n != nil {
		b.Published = providers.ParseISODate(htmlquery.SelectAttr(n, "content"))
	}

	return b, nil
}

type contentsJSON struct {
	Volumes []struct {
		Num      int `json:"num"`
		Chapters []struct {
			ID   int    `json:"id"`
			Name string `json:"name"`
			URL  string `json:"url"`
		} `json:"chapters"`
	} `json:"volumes"`
}

// Chapters reads the table of contents API. Volumes and chapters come
// oldest first.
func (e *Extractor) Chapters(ctx context.Context, b *providers.Book) ([]providers.Locator, error) {
	var data contentsJSON
	if err := e.f.JSON(ctx, e.Root+"/api/ranobe/"+b.Alias+"/contents", &data); err != nil {
		return nil, err
	}

	var locs []providers.Locator
	for _, v := range data.Volumes {
		for _, c := range v.Chapters {
			locs = append(locs, providers.Locator{
				URL:   util.ResolveURL(e.Root+"/", c.URL),
				Title: c.Name,
				Slug:  fmt.Sprint(c.ID),
			})
		}
	}
	return locs, nil
}

func (e *Extractor) Chapter(ctx context.Context, b *providers.Book, loc providers.Locator) (providers.Chapter, error) {
	doc, err := e.page(ctx, loc.URL)
	if err != nil {
		return providers.Chapter{}, err
	}

	content := htmlquery.FindOne(doc, "//div[@data-container]")
	if content == nil {
		return providers.Chapter{}, fmt.Errorf("ranobehub: no chapter text on %s", loc.URL)
	}

	// the heading is part of the container; it becomes the title instead
	title := firstText(content, ".//div[contains(@class,'title-wrapper')]//h1", ".//h1")
	for _, h := range htmlquery.Find(content, ".//div[contains(@class,'title-wrapper')]") {
		h.Parent.RemoveChild(h)
	}
	if title == "" {
		title = loc.Title
	}

	return providers.Chapter{
		Title: title,
		Text:  htmlquery.OutputHTML(content, true),
		URL:   loc.URL,
	}, nil
}

func (e *Extractor) page(ctx context.Context, target string) (*html.Node, error) {
	body, err := e.f.Body(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	return htmlquery.Parse(strings.NewReader(body))
}

// bookID takes the numeric prefix of "/ranobe/<id>-<slug>".
func bookID(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segs) < 2 || segs[0] != "ranobe" {
		return ""
	}
	id, _, _ := strings.Cut(segs[1], "-")
	for _, r := range id {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return id
}

func firstText(top *html.Node, exprs ...string) string {
	for _, expr := range exprs {
		if n := htmlquery.FindOne(top, expr); n != nil {
			if t := strings.TrimSpace(htmlquery.InnerText(n)); t != "" {
				return t
			}
		}
	}
	return ""
}

func texts(top *html.Node, expr string) []string {
	var out []string
	for _, n := range htmlquery.Find(top, expr) {
		out = append(out, htmlquery.InnerText(n))
	}
	return providers.Unique(out)
}
