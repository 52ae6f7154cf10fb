// Package ebook packages normalized chapters into FB2 documents and EPUB
// containers.
package ebook

import (
	"context"
	"encoding/xml"
	"strings"
	"time"

	"github.com/brogergvhs/ranobed/internal/images"
	"github.com/brogergvhs/ranobed/internal/markup"
	"github.com/brogergvhs/ranobed/internal/providers"

	"github.com/google/uuid"
)

// Input is everything a packager needs. Chapter text must already be
// normalized for the target format.
type Input struct {
	Book     *providers.Book
	Chapters []providers.Chapter
	// Images are the images referenced by chapter text.
	Images []*images.Info
	Cover  *images.Info

	Program string
	Now     time.Time
}

func (in *Input) now() time.Time {
	if in.Now.IsZero() {
		return time.Now()
	}
	return in.Now
}

// ID derives a stable book identifier from the book's home page, so
// repeated downloads of one book share an id.
func (in *Input) ID() string {
	key := in.Book.HomePage
	if key == "" {
		key = in.Book.Alias + "/" + in.Book.Title
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
}

func (in *Input) lang() string {
	if in.Book.Lang != "" {
		return in.Book.Lang
	}
	return "ru"
}

// images returns the chapter images without the cover.
func (in *Input) images() []*images.Info {
	out := make([]*images.Info, 0, len(in.Images))
	for _, img := range in.Images {
		if in.Cover != nil && img.ID == in.Cover.ID {
			continue
		}
		out = append(out, img)
	}
	return out
}

// description normalizes the site annotation for f. Its images are not
// fetched, so they are dropped.
func (in *Input) description(ctx context.Context, f markup.Format) (string, error) {
	if strings.TrimSpace(in.Book.Description) == "" {
		return "", nil
	}
	d, err := markup.Normalize(ctx, in.Book.Description, f)
	if err != nil {
		return "", err
	}
	if d != "" && !strings.HasPrefix(d, "<p>") {
		d = "<p>" + d + "</p>"
	}
	return d, nil
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
