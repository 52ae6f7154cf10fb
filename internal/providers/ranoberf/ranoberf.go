// Package ranoberf reads books from ранобэ.рф through its JSON API.
package ranoberf

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/brogergvhs/ranobed/internal/providers"
	"github.com/brogergvhs/ranobed/internal/util"
)

const (
	siteRoot = "https://xn--80ac9aeh6f.xn--p1ai"
	apiPath  = "/api/v2/books/"
)

type Extractor struct {
	f *util.Fetcher
	// Root is the site origin; the API lives below it.
	Root string
}

func New(f *util.Fetcher) *Extractor {
	return &Extractor{f: f, Root: siteRoot}
}

func (e *Extractor) Name() string { return "ranoberf" }

func (e *Extractor) Match(u *url.URL) bool {
	return providers.HostIs(u, "xn--80ac9aeh6f.xn--p1ai", "ранобэ.рф")
}

type bookJSON struct {
	Title       string `json:"title"`
	FullTitle   string `json:"fullTitle"`
	TitleEn     string `json:"titleEn"`
	Description string `json:"description"`
	CreateTime  string `json:"createTime"`
	Genres      []struct {
		Title string `json:"title"`
	} `json:"genres"`
	Author *struct {
		Name string `json:"name"`
		Slug string `json:"slug"`
	} `json:"author"`
	Images struct {
		Vertical []struct {
			Processor string `json:"processor"`
			URL       string `json:"url"`
		} `json:"vertical"`
	} `json:"images"`
	Country *struct {
		Code string `json:"code"`
	} `json:"country"`
}

type chapterItem struct {
	Slug               string `json:"slug"`
	Title              string `json:"title"`
	HasUserPaid        bool   `json:"hasUserPaid"`
	AvailabilityStatus string `json:"availabilityStatus"`
}

type chapterJSON struct {
	Title string `json:"title"`
	Text  struct {
		Text string `json:"text"`
	} `json:"text"`
}

func (e *Extractor) Book(ctx context.Context, pageURL string) (*providers.Book, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}
	alias, _, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
	if alias == "" {
		return nil, fmt.Errorf("ranoberf: no book alias in %s", pageURL)
	}

	var data bookJSON
	if err := e.f.JSON(ctx, e.api(alias), &data); err != nil {
		return nil, err
	}

	b := &providers.Book{
		Alias:       alias,
		Title:       data.Title,
		Subtitle:    strings.Join(providers.Unique([]string{data.FullTitle, data.TitleEn}), " • "),
		Description: data.Description,
		Published:   providers.ParseISODate(data.CreateTime),
		HomePage:    e.Root + "/" + alias + "/",
		Lang:        "ru",
	}

	for _, g := range data.Genres {
		b.Genres = append(b.Genres, g.Title)
	}
	for _, img := range data.Images.Vertical {
		if img.Processor == "bookMain" && img.URL != "" {
			b.Covers = append(b.Covers, util.ResolveURL(b.HomePage, img.URL))
		}
	}
	if data.Author != nil && data.Author.Name != "" {
		a := providers.Author{Name: data.Author.Name}
		if data.Author.Slug != "" {
			a.HomePage = e.Root + "/author/" + data.Author.Slug
		}
		b.Authors = append(b.Authors, a)
	}
	if data.Country != nil && data.Country.Code != "" {
		b.Lang = strings.ToLower(data.Country.Code)
	}

	return b, nil
}

// Chapters lists the chapters the current user may read: free ones and
// those already paid for.
func (e *Extractor) Chapters(ctx context.Context, b *providers.Book) ([]providers.Locator, error) {
	var data struct {
		Items []chapterItem `json:"items"`
	}
	if err := e.f.JSON(ctx, e.api(b.Alias)+"/chapters", &data); err != nil {
		return nil, err
	}

	var locs []providers.Locator
	for _, it := range data.Items {
		if !it.HasUserPaid && it.AvailabilityStatus != "free" {
			continue
		}
		locs = append(locs, providers.Locator{
			URL:   b.HomePage + it.Slug,
			Title: it.Title,
			Slug:  it.Slug,
		})
	}
	return providers.Reverse(locs), nil
}

func (e *Extractor) Chapter(ctx context.Context, b *providers.Book, loc providers.Locator) (providers.Chapter, error) {
	var data chapterJSON
	if err := e.f.JSON(ctx, e.api(b.Alias)+"/chapters/"+url.PathEscape(loc.Slug), &data); err != nil {
		return providers.Chapter{}, err
	}
	return providers.Chapter{
		Title: data.Title,
		Text:  data.Text.Text,
		URL:   loc.URL,
	}, nil
}

func (e *Extractor) api(alias string) string {
	return e.Root + apiPath + url.PathEscape(alias)
}
