package providers

import (
	"context"
	"errors"
	"net/url"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
)

func TestParseRuDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"5 марта 2021", time.Date(2021, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"05 мар. 2021 г. 14:07", time.Date(2021, 3, 5, 14, 7, 0, 0, time.UTC)},
		{"1 Мая 2020", time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC)},
		{"31.12.2019 23:59", time.Date(2019, 12, 31, 23, 59, 0, 0, time.UTC)},
		{"вчера", time.Time{}},
		{"3 смарта 2020", time.Time{}},
	}
	for _, tt := range tests {
		if got := ParseRuDate(tt.in); !got.Equal(tt.want) {
			t.Errorf("ParseRuDate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestOrderCovers(t *testing.T) {
	got := OrderCovers([]string{"a.png", "b.JPG?v=1", "a.png", "", "c.jpeg"})
	want := []string{"b.JPG?v=1", "a.png", "c.jpeg"}
	if !slices.Equal(got, want) {
		t.Errorf("OrderCovers = %v, want %v", got, want)
	}
}

func TestTitle(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<h1>
	  Name <span>badge</span></h1><h1>Other</h1>`))
	if err != nil {
		t.Fatal(err)
	}
	if got := Title(doc); got != "Name" {
		t.Errorf("Title = %q", got)
	}
}

func TestBookDate(t *testing.T) {
	var b Book
	if b.Date("2006") != "" {
		t.Error("zero date must format as empty string")
	}
	b.Published = time.Date(2001, 2, 3, 0, 0, 0, 0, time.UTC)
	if b.Date("2006-01-02") != "2001-02-03" {
		t.Errorf("Date = %q", b.Date("2006-01-02"))
	}
}

type hostExtractor struct{ host string }

func (h hostExtractor) Name() string          { return h.host }
func (h hostExtractor) Match(u *url.URL) bool { return HostIs(u, h.host) }
func (h hostExtractor) Book(context.Context, string) (*Book, error) {
	return nil, nil
}
func (h hostExtractor) Chapters(context.Context, *Book) ([]Locator, error) { return nil, nil }
func (h hostExtractor) Chapter(context.Context, *Book, Locator) (Chapter, error) {
	return Chapter{}, nil
}

func TestRegistrySelect(t *testing.T) {
	r := NewRegistry(hostExtractor{"a.org"}, hostExtractor{"b.org"})

	ex, err := r.Select("https://www.b.org/book/1")
	if err != nil || ex.Name() != "b.org" {
		t.Fatalf("Select = %v, %v", ex, err)
	}

	if _, err := r.Select("https://c.org/"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("err = %v, want ErrUnsupported", err)
	}
	if _, err := r.Select("not a url"); err == nil || errors.Is(err, ErrUnsupported) {
		t.Errorf("err = %v, want an invalid URL error", err)
	}
}
