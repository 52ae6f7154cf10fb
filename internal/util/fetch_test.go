package util

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestFetcher(t *testing.T, h http.HandlerFunc) (*Fetcher, string) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewHTTPClient(HTTPClientOptions{
		Timeout:   5 * time.Second,
		UserAgent: "ranobed-test",
		Cookie:    "a=1",
	})
	if err != nil {
		t.Fatal(err)
	}
	f := NewFetcher(c, 3)
	f.Backoff = time.Millisecond
	return f, srv.URL
}

func TestFetcherDocument(t *testing.T) {
	f, base := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "ranobed-test" || r.Header.Get("Cookie") != "a=1" {
			http.Error(w, "headers", http.StatusBadRequest)
			return
		}
		switch r.URL.Path {
		case "/cp1251":
			w.Header().Set("Content-Type", "text/html; charset=windows-1251")
			// "Глава" in windows-1251
			_, _ = w.Write([]byte("<h1>\xc3\xeb\xe0\xe2\xe0</h1>"))
		default:
			http.NotFound(w, r)
		}
	})

	doc, err := f.Document(context.Background(), base+"/cp1251")
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	if got := doc.Find("h1").Text(); got != "Глава" {
		t.Errorf("h1 = %q", got)
	}
	if doc.Url == nil || doc.Url.Path != "/cp1251" {
		t.Errorf("document URL = %v", doc.Url)
	}

	_, err = f.Document(context.Background(), base+"/missing")
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusNotFound || se.Temporary() {
		t.Errorf("err = %v", err)
	}

	doc, err = f.Optional(context.Background(), base+"/missing")
	if doc != nil || err != nil {
		t.Errorf("Optional on 404 = %v, %v", doc, err)
	}
}

func TestFetcherRetries(t *testing.T) {
	var calls atomic.Int32
	f, base := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/flaky":
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(`{"title":"ok","n":2}`))
		case "/form":
			_ = r.ParseForm()
			_, _ = w.Write([]byte("<p>" + r.PostForm.Get("action") + "</p>"))
		case "/gone":
			calls.Add(100)
			w.WriteHeader(http.StatusGone)
		}
	})

	var v struct {
		Title string `json:"title"`
		N     int    `json:"n"`
	}
	if err := f.JSON(context.Background(), base+"/flaky", &v); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	if v.Title != "ok" || v.N != 2 || calls.Load() != 3 {
		t.Errorf("v=%+v calls=%d", v, calls.Load())
	}

	doc, err := f.PostForm(context.Background(), base+"/form", map[string][]string{"action": {"toc"}})
	if err != nil || doc.Find("p").Text() != "toc" {
		t.Errorf("PostForm = %v, %v", doc, err)
	}

	calls.Store(0)
	if _, err := f.Body(context.Background(), http.MethodGet, base+"/gone", nil); err == nil {
		t.Error("410 must fail")
	}
	if calls.Load() != 100 {
		t.Errorf("4xx must not be retried, calls=%d", calls.Load())
	}
}

func TestFetcherCanceled(t *testing.T) {
	f, base := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.Body(ctx, http.MethodGet, base, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestResolveURL(t *testing.T) {
	tests := []struct{ base, href, want string }{
		{"https://a.ru/book/1/", "ch/2", "https://a.ru/book/1/ch/2"},
		{"https://a.ru/book/1/", "/x", "https://a.ru/x"},
		{"https://a.ru/book/", "https://b.ru/y", "https://b.ru/y"},
		{"https://a.ru/book/", "", "https://a.ru/book/"},
	}
	for _, tt := range tests {
		if got := ResolveURL(tt.base, tt.href); got != tt.want {
			t.Errorf("ResolveURL(%q, %q) = %q, want %q", tt.base, tt.href, got, tt.want)
		}
	}
}

func TestPickUserAgent(t *testing.T) {
	if got := PickUserAgent("mine"); got != "mine" {
		t.Errorf("override ignored: %q", got)
	}
	if got := PickUserAgent(""); got == "" {
		t.Error("empty default user agent")
	}
}
