package rulate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/brogergvhs/ranobed/internal/util"
)

const bookPage = `<html><body>
<h1>Original Name / Translated Name</h1>
<div id="Info">
  <div class="slick"><img src="/c1.png"><img src="/c2.jpg"><img src="/c1.png"></div>
  <div class="btn-toolbar"></div><div class="clear"></div><div><p>Description</p></div>
  <p><strong>Автор:</strong><em><a href="/search?from=book&t=Writer">Writer</a></em></p>
  <p><strong>Переводчик:</strong><em><a href="/search?from=book&t=Tr">Tr</a></em></p>
</div>
<div class="info"><a href="/search?genres[]=1">Фэнтези</a><a href="/search?tags[]=2">магия</a></div>
<table id="Chapters">
<tr><td class="t">Глава 1</td><td><span title="5 марта 2021 г. 14:07">5.03</span></td><td>-</td><td><a class="btn btn-info" href="/book/1/10/ready_new">read</a></td></tr>
</table>
</body></html>`

func TestRulate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/book/1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, bookPage)
	})
	mux.HandleFunc("/book/1/10/readyajax", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("is_new") != "true" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"title":   "Глава 1",
			"content": `<div class="content-text" style="word-wrap: break-word;"><p>Text</p></div>`,
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	e := New(util.NewFetcher(srv.Client(), 1))
	ctx := context.Background()

	b, err := e.Book(ctx, srv.URL+"/book/1")
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	if b.Title != "Translated Name" || b.Subtitle != "Original Name / Translated Name" || b.Alias != "Translated Name" {
		t.Errorf("titles: %+v", b)
	}
	if len(b.Authors) != 1 || b.Authors[0].Name != "Writer" {
		t.Errorf("authors = %+v", b.Authors)
	}
	wantCovers := []string{srv.URL + "/c2.jpg", srv.URL + "/c1.png"}
	if strings.Join(b.Covers, " ") != strings.Join(wantCovers, " ") {
		t.Errorf("covers = %v, want %v", b.Covers, wantCovers)
	}
	if !b.Published.Equal(time.Date(2021, time.March, 5, 14, 7, 0, 0, time.UTC)) {
		t.Errorf("published = %v", b.Published)
	}
	if b.Description != "<p>Description</p>" {
		t.Errorf("description = %q", b.Description)
	}
	if len(b.Genres) != 1 || len(b.Keywords) != 1 {
		t.Errorf("genres %v keywords %v", b.Genres, b.Keywords)
	}

	locs, err := e.Chapters(ctx, b)
	if err != nil {
		t.Fatalf("Chapters: %v", err)
	}
	if len(locs) != 1 || locs[0].Title != "Глава 1" {
		t.Fatalf("locators = %+v", locs)
	}

	c, err := e.Chapter(ctx, b, locs[0])
	if err != nil {
		t.Fatalf("Chapter: %v", err)
	}
	if c.Title != "Глава 1" || c.Text != "<p>Text</p></div>" {
		t.Errorf("chapter = %+v", c)
	}
}

func TestAjaxURL(t *testing.T) {
	if got := ajaxURL("https://tl.rulate.ru/book/1/10/ready_new"); got != "https://tl.rulate.ru/book/1/10/readyajax?is_new=true" {
		t.Errorf("ajaxURL = %q", got)
	}
}
