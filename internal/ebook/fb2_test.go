package ebook

import (
	"bytes"
	"context"
	"encoding/xml"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/brogergvhs/ranobed/internal/images"
	"github.com/brogergvhs/ranobed/internal/markup"
	"github.com/brogergvhs/ranobed/internal/providers"
)

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func sampleInput(t *testing.T) *Input {
	t.Helper()
	cover := images.NewInfo("https://example.com/cover.png", pngBytes(t, 4, 4, color.White))
	inner := images.NewInfo("https://example.com/a.png", pngBytes(t, 2, 2, color.Black))
	return &Input{
		Book: &providers.Book{
			Alias:       "book",
			Title:       "Книга & Co",
			Subtitle:    "Book",
			Description: "Desc <b>x</b><script>bad()</script>",
			Authors:     []providers.Author{{Name: "Автор", HomePage: "https://example.com/a"}},
			Genres:      []string{"fantasy", "drama"},
			Keywords:    []string{"magic"},
			Published:   time.Date(2021, 3, 5, 0, 0, 0, 0, time.UTC),
			HomePage:    "https://example.com/book",
		},
		Chapters: []providers.Chapter{
			{ID: "chapter-0001", Title: "Глава 1", Text: "<p>one</p>"},
			{ID: "chapter-0002", Title: "Глава <2>", Text: ""},
		},
		Images:  []*images.Info{inner, cover},
		Cover:   cover,
		Program: "ranobed test",
		Now:     time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}
}

func wellFormed(t *testing.T, doc []byte) {
	t.Helper()
	d := xml.NewDecoder(bytes.NewReader(doc))
	d.Strict = true
	for {
		_, err := d.Token()
		if err == io.EOF {
			return
		}
		if err != nil {
			t.Fatalf("not well-formed: %v\n%s", err, doc)
		}
	}
}

func TestFB2(t *testing.T) {
	in := sampleInput(t)
	out, err := FB2(context.Background(), in)
	if err != nil {
		t.Fatalf("FB2: %v", err)
	}
	wellFormed(t, []byte(out))

	for _, want := range []string{
		`xmlns:l="http://www.w3.org/1999/xlink"`,
		"<genre>fantasy</genre><genre>drama</genre>",
		"<author><nickname>Автор</nickname><home-page>https://example.com/a</home-page></author>",
		"<book-title>Книга &amp; Co</book-title>",
		"<annotation><p>Desc <strong>x</strong></p></annotation>",
		"<keywords>magic</keywords>",
		`<date value="2021-03-05">2021-03-05</date>`,
		`<coverpage><image l:href="#` + in.Cover.ID + `"/></coverpage>`,
		"<lang>ru</lang>",
		"<program-used>ranobed test</program-used>",
		"<id>" + in.ID() + "</id>",
		`<section id="chapter-0001"><title><p>Глава 1</p></title><p>one</p></section>`,
		`<section id="chapter-0002"><title><p>Глава &lt;2&gt;</p></title><empty-line/></section>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q", want)
		}
	}

	if strings.Contains(out, "bad()") {
		t.Error("script leaked into annotation")
	}

	coverAt := strings.Index(out, `<binary id="`+in.Cover.ID+`"`)
	innerAt := strings.Index(out, `<binary id="`+in.Images[0].ID+`"`)
	if coverAt < 0 || innerAt < 0 || coverAt > innerAt {
		t.Errorf("cover binary must come first: cover=%d inner=%d", coverAt, innerAt)
	}
	if n := strings.Count(out, "<binary "); n != 2 {
		t.Errorf("got %d binaries, want 2", n)
	}
}

func TestFB2NoAuthors(t *testing.T) {
	in := &Input{Book: &providers.Book{Title: "T"}}
	out, err := FB2(context.Background(), in)
	if err != nil {
		t.Fatalf("FB2: %v", err)
	}
	wellFormed(t, []byte(out))
	if !strings.Contains(out, "<author><nickname>Unknown</nickname></author>") {
		t.Error("placeholder author missing")
	}
	if strings.Contains(out, "<coverpage>") || strings.Contains(out, "<annotation>") {
		t.Error("unexpected optional elements")
	}
}

func TestAnnotationImages(t *testing.T) {
	in := &Input{Book: &providers.Book{
		Title:       "T",
		Description: `<p>About</p><img src="https://example.com/c.jpg">`,
	}}

	out, err := FB2(context.Background(), in)
	if err != nil {
		t.Fatalf("FB2: %v", err)
	}
	wellFormed(t, []byte(out))
	if !strings.Contains(out, "<annotation><p>About</p></annotation>") {
		t.Errorf("unexpected annotation in\n%s", out)
	}
	if strings.Contains(out, "<img") {
		t.Error("FB2 output contains an HTML img element")
	}

	desc, err := in.description(context.Background(), markup.EPUB)
	if err != nil {
		t.Fatalf("description: %v", err)
	}
	if desc != "<p>About</p>" {
		t.Errorf("epub description = %q", desc)
	}
}

func TestInputID(t *testing.T) {
	a := &Input{Book: &providers.Book{HomePage: "https://example.com/book"}}
	b := &Input{Book: &providers.Book{HomePage: "https://example.com/book", Title: "other"}}
	c := &Input{Book: &providers.Book{HomePage: "https://example.com/other"}}
	if a.ID() != b.ID() {
		t.Error("same home page must give the same id")
	}
	if a.ID() == c.ID() {
		t.Error("different home pages must differ")
	}
}
