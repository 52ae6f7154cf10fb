// Package jaomix reads books from jaomix.ru.
package jaomix

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/brogergvhs/ranobed/internal/downloader"
	"github.com/brogergvhs/ranobed/internal/providers"
	"github.com/brogergvhs/ranobed/internal/util"

	"github.com/PuerkitoBio/goquery"
)

type Extractor struct {
	f *util.Fetcher
	// Base is the site root without a trailing slash.
	Base    string
	Workers int
}

func New(f *util.Fetcher) *Extractor {
	return &Extractor{f: f, Base: "https://jaomix.ru", Workers: downloader.DefaultWorkers}
}

func (e *Extractor) Name() string { return "jaomix" }

func (e *Extractor) Match(u *url.URL) bool {
	return providers.HostIs(u, "jaomix.ru")
}

func (e *Extractor) Book(ctx context.Context, pageURL string) (*providers.Book, error) {
	doc, err := e.f.Document(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	info := doc.Find(".box-book").First()
	if info.Length() == 0 {
		return nil, fmt.Errorf("jaomix: no book info on %s", pageURL)
	}

	title := providers.Title(doc)
	b := &providers.Book{
		Alias:     util.SanitizeFilename(title),
		Title:     title,
		Published: providers.ParseRuDate(info.Find(".date-home").First().Text()),
		Lang:      "ru",
		HomePage:  pageURL,
	}

	info.Find(".img-book img").Each(func(_ int, img *goquery.Selection) {
		if src := img.AttrOr("src", ""); src != "" {
			b.Covers = append(b.Covers, util.ResolveURL(pageURL, src))
		}
	})

	var original string
	for _, line := range providers.Texts(doc.Find("#info-book > p")) {
		switch {
		case strings.HasPrefix(line, "Жанры: "):
			b.Genres = providers.Unique(strings.Split(strings.TrimPrefix(line, "Жанры: "), ", "))
		case strings.HasPrefix(line, "Автор: "):
			b.Authors = append(b.Authors, providers.Author{Name: strings.TrimPrefix(line, "Автор: ")})
		case strings.HasPrefix(line, "Название: "):
			original = strings.TrimPrefix(line, "Название: ")
		}
	}
	b.Subtitle = strings.Join(providers.Unique([]string{title, original}), " • ")

	if d, err := info.Find("#desc-tab").First().Html(); err == nil {
		b.Description = strings.TrimSpace(d)
	}

	return b, nil
}

// Chapters asks the table of contents endpoint for every page of the
// chapter list. The first page is embedded in the book page itself.
func (e *Extractor) Chapters(ctx context.Context, b *providers.Book) ([]providers.Locator, error) {
	home, err := e.f.Document(ctx, b.HomePage)
	if err != nil {
		return nil, err
	}

	termID, ok := home.Find(".box-book .like-but").First().Attr("id")
	if !ok || termID == "" {
		return nil, fmt.Errorf("jaomix: no term id on %s", b.HomePage)
	}

	toc, err := e.f.PostForm(ctx, e.ajaxURL(), url.Values{"action": {"toc"}, "selectall": {termID}})
	if err != nil {
		return nil, err
	}
	if toc == nil {
		return nil, fmt.Errorf("jaomix: table of contents unavailable for %s", b.Title)
	}

	var pages []string
	toc.Find("option").Each(func(_ int, o *goquery.Selection) {
		pages = append(pages, o.AttrOr("value", strings.TrimSpace(o.Text())))
	})
	if len(pages) == 0 {
		pages = []string{"0"}
	}

	lists, err := downloader.Map(ctx, pages, e.Workers, func(ctx context.Context, _ int, page string) ([]providers.Locator, error) {
		if page == "0" {
			return links(home.Find("#open-0"), b.HomePage), nil
		}

		doc, err := e.f.PostForm(ctx, e.ajaxURL(), url.Values{"action": {"toc"}, "page": {page}, "termid": {termID}})
		if err != nil || doc == nil {
			return nil, err
		}
		return links(doc.Selection, b.HomePage), nil
	})
	if err != nil {
		return nil, err
	}

	return providers.Reverse(slices.Concat(lists...)), nil
}

func (e *Extractor) Chapter(ctx context.Context, b *providers.Book, loc providers.Locator) (providers.Chapter, error) {
	doc, err := e.f.Document(ctx, loc.URL)
	if err != nil {
		return providers.Chapter{}, err
	}

	entry := doc.Find(".entry").First()
	if entry.Length() == 0 {
		return providers.Chapter{}, fmt.Errorf("jaomix: no chapter text on %s", loc.URL)
	}
	text, err := goquery.OuterHtml(entry)
	if err != nil {
		return providers.Chapter{}, err
	}

	return providers.Chapter{
		Title: providers.Title(doc),
		Text:  text,
		URL:   loc.URL,
	}, nil
}

func (e *Extractor) ajaxURL() string {
	return e.Base + "/wp-admin/admin-ajax.php"
}

func links(sel *goquery.Selection, base string) []providers.Locator {
	var out []providers.Locator
	sel.Find("a").Each(func(_ int, a *goquery.Selection) {
		if href := a.AttrOr("href", ""); href != "" {
			out = append(out, providers.Locator{
				URL:   util.ResolveURL(base, href),
				Title: strings.TrimSpace(a.Text()),
			})
		}
	})
	return out
}
