package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/brogergvhs/ranobed/internal/util"

	"github.com/vincent-petithory/dataurl"
	"golang.org/x/sync/singleflight"
)

// errExist aborts a transfer whose target showed up in the cache while
// the body was still being read.
var errExist = errors.New("image already cached")

type Notifier interface {
	Add(v any)
}

type Options struct {
	Book    string
	Retries int
	Notes   Notifier
	Log     interface {
		Debugf(string, ...any)
	}
}

type Downloader struct {
	client  *http.Client
	cache   *Cache
	book    string
	retries int
	notes   Notifier
	log     interface{ Debugf(string, ...any) }

	flight singleflight.Group
}

func NewDownloader(c *http.Client, cache *Cache, opts Options) *Downloader {
	if opts.Retries < 1 {
		opts.Retries = 1
	}
	return &Downloader{
		client:  c,
		cache:   cache,
		book:    opts.Book,
		retries: opts.Retries,
		notes:   opts.Notes,
		log:     opts.Log,
	}
}

// Download resolves src (relative to page) to a cached image. A nil
// result means the image could not be obtained and should be dropped;
// the failure has already been reported unless the context was canceled.
func (d *Downloader) Download(ctx context.Context, title, src, page string) *Info {
	src = resolve(page, strings.TrimSpace(src))
	if src == "" {
		return nil
	}

	info, err := d.get(ctx, src, page)
	if err == nil {
		return info
	}

	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return nil
	}

	d.debugf("image %s failed: %v", src, err)
	if d.notes != nil {
		d.notes.Add(fmt.Sprintf("%s: %s: %v", d.book, title, err))
	}
	return nil
}

func (d *Downloader) get(ctx context.Context, src, page string) (*Info, error) {
	if info, ok := d.cache.Lookup(src); ok {
		return info, nil
	}

	if strings.HasPrefix(strings.ToLower(src), "data:") {
		return d.decode(src)
	}

	ch := d.flight.DoChan(src, func() (any, error) {
		return d.fetchWithRetry(ctx, src, page)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*Info), nil
	}
}

func (d *Downloader) decode(src string) (*Info, error) {
	du, err := dataurl.DecodeString(src)
	if err != nil {
		return nil, fmt.Errorf("malformed data URL: %w", err)
	}
	if len(du.Data) == 0 {
		return nil, errors.New("empty data URL")
	}

	info := NewInfo("data:"+du.MediaType.ContentType(), du.Data)
	return d.cache.Put(info, src), nil
}

func (d *Downloader) fetchWithRetry(ctx context.Context, src, page string) (*Info, error) {
	var err error
	for attempt := 1; attempt <= d.retries; attempt++ {
		var info *Info
		info, err = d.fetch(ctx, src, page)
		if err == nil {
			return info, nil
		}

		var se *util.StatusError
		if errors.As(err, &se) && !se.Temporary() {
			return nil, err
		}
		if attempt == d.retries {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
		}
	}

	return nil, err
}

func (d *Downloader) fetch(ctx context.Context, src, page string) (*Info, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8")
	if crossOrigin(src, page) {
		req.Header.Set("Referer", page)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	final := resp.Request.URL.String()
	if info, ok := d.joinExisting(src, final); ok {
		return info, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &util.StatusError{URL: src, Code: resp.StatusCode}
	}

	var existing *Info
	data, err := readWithProgress(resp.Body, func(int64) error {
		if info, ok := d.joinExisting(src, final); ok {
			existing = info
			return errExist
		}
		return nil
	})
	if errors.Is(err, errExist) {
		d.debugf("image %s joined an existing download", src)
		return existing, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("empty response")
	}

	return d.cache.Put(NewInfo(final, data), src, final), nil
}

// joinExisting re-checks the cache after a suspension point; another
// chapter may have registered the same image meanwhile.
func (d *Downloader) joinExisting(src, final string) (*Info, bool) {
	if info, ok := d.cache.Lookup(src); ok {
		return info, true
	}
	if final != src {
		if info, ok := d.cache.Lookup(final); ok {
			d.cache.Alias(src, info)
			return info, true
		}
	}
	return nil, false
}

func (d *Downloader) debugf(format string, args ...any) {
	if d.log != nil {
		d.log.Debugf(format, args...)
	}
}

func readWithProgress(src io.Reader, progress func(done int64) error) ([]byte, error) {
	buf := make([]byte, 32*1024)
	var out []byte
	for {
		nr, er := src.Read(buf)
		if nr > 0 {
			out = append(out, buf[:nr]...)
			if progress != nil {
				if err := progress(int64(len(out))); err != nil {
					return out, err
				}
			}
		}

		if er != nil {
			if er == io.EOF {
				break
			}
			return out, er
		}
	}

	return out, nil
}

func resolve(page, raw string) string {
	if raw == "" || page == "" || strings.HasPrefix(strings.ToLower(raw), "data:") {
		return raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() {
		return raw
	}
	base, err := url.Parse(page)
	if err != nil {
		return raw
	}
	return base.ResolveReference(u).String()
}

func crossOrigin(src, page string) bool {
	if page == "" {
		return false
	}
	a, err := url.Parse(src)
	if err != nil {
		return false
	}
	b, err := url.Parse(page)
	if err != nil {
		return false
	}
	return a.Scheme != b.Scheme || a.Host != b.Host
}
