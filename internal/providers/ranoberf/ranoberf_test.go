package ranoberf

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brogergvhs/ranobed/internal/util"
)

func TestRanobeRf(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/books/novel", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"title": "Роман", "fullTitle": "Роман полностью", "titleEn": "Novel",
			"description": "<p>Описание</p>", "createTime": "2020-05-01T10:00:00+00:00",
			"genres": [{"title": "Фэнтези"}],
			"author": {"name": "Автор", "slug": "avtor"},
			"images": {"vertical": [{"processor": "thumb", "url": "/t.jpg"}, {"processor": "bookMain", "url": "/main.jpg"}]},
			"country": {"code": "KR"}
		}`)
	})
	mux.HandleFunc("/api/v2/books/novel/chapters", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items": [
			{"slug": "c3", "title": "3", "hasUserPaid": false, "availabilityStatus": "paid"},
			{"slug": "c2", "title": "2", "hasUserPaid": true, "availabilityStatus": "paid"},
			{"slug": "c1", "title": "1", "hasUserPaid": false, "availabilityStatus": "free"}
		]}`)
	})
	mux.HandleFunc("/api/v2/books/novel/chapters/c1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"title": "Глава 1", "text": {"text": "<p>Текст</p>"}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	e := New(util.NewFetcher(srv.Client(), 1))
	e.Root = srv.URL
	ctx := context.Background()

	b, err := e.Book(ctx, srv.URL+"/novel/")
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if b.Title != "Роман" || b.Subtitle != "Роман полностью • Novel" || b.Lang != "kr" {
		t.Errorf("book = %+v", b)
	}
	if len(b.Covers) != 1 || b.Covers[0] != srv.URL+"/main.jpg" {
		t.Errorf("covers = %v", b.Covers)
	}
	if len(b.Authors) != 1 || b.Authors[0].HomePage != srv.URL+"/author/avtor" {
		t.Errorf("authors = %+v", b.Authors)
	}
	if b.Date("2006") != "2020" {
		t.Errorf("date = %q", b.Date("2006"))
	}

	locs, err := e.Chapters(ctx, b)
	if err != nil {
		t.Fatalf("Chapters: %v", err)
	}
	if len(locs) != 2 || locs[0].Slug != "c1" || locs[1].Slug != "c2" {
		t.Fatalf("locators = %+v", locs)
	}

	c, err := e.Chapter(ctx, b, locs[0])
	if err != nil {
		t.Fatalf("Chapter: %v", err)
	}
	if c.Title != "Глава 1" || c.Text != "<p>Текст</p>" || c.URL != srv.URL+"/novel/c1" {
		t.Errorf("chapter = %+v", c)
	}
}
