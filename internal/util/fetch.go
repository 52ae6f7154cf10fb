package util

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

// Fetcher retrieves pages for site extractors.
type Fetcher struct {
	Client  *http.Client
	Retries int
	Backoff time.Duration
}

func NewFetcher(c *http.Client, retries int) *Fetcher {
	return &Fetcher{Client: c, Retries: retries, Backoff: 500 * time.Millisecond}
}

// Body performs the request and returns the decoded body. Any status
// outside 2xx is reported as *StatusError.
func (f *Fetcher) Body(ctx context.Context, method, target string, form url.Values) (string, error) {
	resp, err := f.do(ctx, method, target, form, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{URL: target, Code: resp.StatusCode}
	}

	r, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", target, err)
	}

	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", target, err)
	}
	return string(b), nil
}

// Document fetches and parses target. HTTP errors are fatal.
func (f *Fetcher) Document(ctx context.Context, target string) (*goquery.Document, error) {
	body, err := f.Body(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	return ParseDocument(body, target)
}

// Optional is like Document but returns a nil document for any non-200
// status, which paginated listings use to detect their last page.
func (f *Fetcher) Optional(ctx context.Context, target string) (*goquery.Document, error) {
	return f.optional(ctx, http.MethodGet, target, nil)
}

// PostForm submits form and parses the answer like Optional.
func (f *Fetcher) PostForm(ctx context.Context, target string, form url.Values) (*goquery.Document, error) {
	return f.optional(ctx, http.MethodPost, target, form)
}

func (f *Fetcher) optional(ctx context.Context, method, target string, form url.Values) (*goquery.Document, error) {
	body, err := f.Body(ctx, method, target, form)
	var se *StatusError
	if errors.As(err, &se) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ParseDocument(body, target)
}

// JSON decodes a JSON answer into v.
func (f *Fetcher) JSON(ctx context.Context, target string, v any) error {
	resp, err := f.do(ctx, http.MethodGet, target, nil, map[string]string{
		"Accept":           "application/json",
		"X-Requested-With": "XMLHttpRequest",
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{URL: target, Code: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding JSON from %s: %w", target, err)
	}
	return nil
}

func (f *Fetcher) do(ctx context.Context, method, target string, form url.Values, headers map[string]string) (*http.Response, error) {
	return DoWithRetry(ctx, f.Client, func(ctx context.Context) (*http.Request, error) {
		var body io.Reader
		if form != nil {
			body = strings.NewReader(form.Encode())
		}

		req, err := http.NewRequestWithContext(ctx, method, target, body)
		if err != nil {
			return nil, err
		}
		if form != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
		}
		req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7")
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return req, nil
	}, f.Retries, f.Backoff)
}

// ParseDocument parses HTML and records base as the document URL so
// relative links can be resolved.
func ParseDocument(body, base string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", base, err)
	}
	if u, err := url.Parse(base); err == nil {
		doc.Url = u
	}
	return doc, nil
}

// ResolveURL resolves href against baseURL.
func ResolveURL(baseURL, href string) string {
	if href == "" {
		return baseURL
	}

	u, err := url.Parse(href)
	if err == nil && u.IsAbs() {
		return u.String()
	}

	b, err := url.Parse(baseURL)
	if err != nil || u == nil {
		return href
	}

	return b.ResolveReference(u).String()
}
