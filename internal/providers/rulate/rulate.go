// Package rulate reads translated books from tl.rulate.ru.
package rulate

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/brogergvhs/ranobed/internal/providers"
	"github.com/brogergvhs/ranobed/internal/util"

	"github.com/PuerkitoBio/goquery"
)

type Extractor struct {
	f *util.Fetcher
}

func New(f *util.Fetcher) *Extractor {
	return &Extractor{f: f}
}

func (e *Extractor) Name() string { return "rulate" }

func (e *Extractor) Match(u *url.URL) bool {
	return providers.HostIs(u, "tl.rulate.ru", "rulate.ru")
}

func (e *Extractor) Book(ctx context.Context, pageURL string) (*providers.Book, error) {
	doc, err := e.f.Document(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	info := doc.Find("#Info").First()
	if info.Length() == 0 {
		return nil, fmt.Errorf("rulate: no book info on %s", pageURL)
	}

	subtitle := providers.Title(doc)
	title := subtitle
	if i := strings.LastIndex(subtitle, " / "); i >= 0 {
		title = subtitle[i+3:]
	}

	b := &providers.Book{
		Alias:    util.SanitizeFilename(title),
		Title:    title,
		Subtitle: subtitle,
		Genres:   providers.Texts(doc.Find(`.info a[href^="/search?genres"]`)),
		Keywords: providers.Texts(doc.Find(`.info a[href^="/search?tags"]`)),
		Lang:     "ru",
		HomePage: pageURL,
	}

	var covers []string
	info.Find(".slick img").Each(func(_ int, img *goquery.Selection) {
		if src := img.AttrOr("src", ""); src != "" {
			covers = append(covers, util.ResolveURL(pageURL, src))
		}
	})
	b.Covers = providers.OrderCovers(covers)

	if d, err := info.Find(".btn-toolbar + .clear + div").First().Html(); err == nil {
		b.Description = strings.TrimSpace(d)
	}

	// the oldest chapter row carries the publication date in a title
	if last := chapterLinks(doc).Last(); last.Length() > 0 {
		stamp := last.Parent().Prev().Prev().Children().First().AttrOr("title", "")
		b.Published = providers.ParseRuDate(stamp)
	}

	info.Find(`a[href^="/search?from=book&t="]`).Each(func(_ int, a *goquery.Selection) {
		if strings.TrimSpace(a.Parent().Prev().Text()) != "Автор:" {
			return
		}
		b.Authors = append(b.Authors, providers.Author{
			Name:     strings.TrimSpace(a.Text()),
			HomePage: util.ResolveURL(pageURL, a.AttrOr("href", "")),
		})
	})

	return b, nil
}

func (e *Extractor) Chapters(ctx context.Context, b *providers.Book) ([]providers.Locator, error) {
	doc, err := e.f.Document(ctx, b.HomePage)
	if err != nil {
		return nil, err
	}

	var locs []providers.Locator
	chapterLinks(doc).Each(func(_ int, a *goquery.Selection) {
		href := a.AttrOr("href", "")
		if href == "" {
			return
		}
		locs = append(locs, providers.Locator{
			URL:   util.ResolveURL(b.HomePage, href),
			Title: rowTitle(a),
		})
	})
	return locs, nil
}

type chapterJSON struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

var contentSplitRe = regexp.MustCompile(`<div class="content-text" style="word-wrap: break-word;">|<p>https?://tl\.rulate\.ru/book/`)

func (e *Extractor) Chapter(ctx context.Context, b *providers.Book, loc providers.Locator) (providers.Chapter, error) {
	var resp chapterJSON
	if err := e.f.JSON(ctx, ajaxURL(loc.URL), &resp); err != nil {
		return providers.Chapter{}, err
	}

	text := resp.Content
	if parts := contentSplitRe.Split(text, 3); len(parts) > 1 {
		text = parts[1]
	}

	return providers.Chapter{
		Title: strings.TrimSpace(resp.Title),
		Text:  text,
		URL:   loc.URL,
	}, nil
}

// rowTitle reads the chapter name from the table row of a reader link.
func rowTitle(a *goquery.Selection) string {
	if t := strings.TrimSpace(a.Closest("tr").Find("td.t").First().Text()); t != "" {
		return t
	}
	return strings.TrimSpace(a.AttrOr("title", ""))
}

func chapterLinks(doc *goquery.Document) *goquery.Selection {
	return doc.Find("#Chapters .btn-info")
}

// ajaxURL turns a reader link into the JSON endpoint of the chapter.
func ajaxURL(chapter string) string {
	return strings.TrimSuffix(chapter, "_new") + "ajax?is_new=true"
}
