package downloader

import (
	"context"
	"fmt"

	"github.com/brogergvhs/ranobed/internal/images"
	"github.com/brogergvhs/ranobed/internal/markup"
	"github.com/brogergvhs/ranobed/internal/providers"
	"github.com/brogergvhs/ranobed/internal/run"
)

const DefaultWorkers = 5

type Logger interface {
	Debugf(format string, args ...any)
}

// Pipeline fetches and normalizes the chapters of one book. All chapters
// share the image downloader, so identical images end up in one cache
// entry.
type Pipeline struct {
	images         *images.Downloader
	run            *run.Run
	format         markup.Format
	chapterWorkers int
	imageWorkers   int
	log            Logger

	// Transform, when set, is applied to every normalized chapter.
	Transform func(ctx context.Context, c providers.Chapter) (providers.Chapter, error)
}

type Options struct {
	ChapterWorkers int
	ImageWorkers   int
	Log            Logger
}

func New(imgs *images.Downloader, r *run.Run, f markup.Format, opts Options) *Pipeline {
	if opts.ChapterWorkers < 1 {
		opts.ChapterWorkers = DefaultWorkers
	}
	if opts.ImageWorkers < 1 {
		opts.ImageWorkers = DefaultWorkers
	}
	if r == nil {
		r = run.New()
	}
	return &Pipeline{
		images:         imgs,
		run:            r,
		format:         f,
		chapterWorkers: opts.ChapterWorkers,
		imageWorkers:   opts.ImageWorkers,
		log:            opts.Log,
	}
}

// Parts downloads every located chapter and returns them in locator
// order. Any chapter failure cancels the rest and fails the whole call.
func (p *Pipeline) Parts(ctx context.Context, ex providers.Extractor, book *providers.Book, locs []providers.Locator) ([]providers.Chapter, error) {
	p.run.Progress.SetTotal(len(locs))

	return Map(ctx, locs, p.chapterWorkers, func(ctx context.Context, i int, loc providers.Locator) (providers.Chapter, error) {
		c, err := ex.Chapter(ctx, book, loc)
		if err != nil {
			return providers.Chapter{}, fmt.Errorf("chapter %q: %w", label(loc), err)
		}
		if c.Title == "" {
			c.Title = loc.Title
		}
		if c.URL == "" {
			c.URL = loc.URL
		}
		if c.ID == "" {
			c.ID = fmt.Sprintf("chapter-%04d", i+1)
		}

		p.debugf("chapter %d %q fetched", i+1, c.Title)

		opts := []markup.Option{markup.WithConcurrency(p.imageWorkers)}
		if p.images != nil {
			title, page := c.Title, c.URL
			opts = append(opts, markup.WithImages(func(ctx context.Context, src string) *images.Info {
				return p.images.Download(ctx, title, src, page)
			}))
		}

		c.Text, err = markup.Normalize(ctx, c.Text, p.format, opts...)
		if err != nil {
			return providers.Chapter{}, fmt.Errorf("chapter %q: %w", c.Title, err)
		}

		p.run.Progress.Inc()

		if p.Transform != nil {
			if c, err = p.Transform(ctx, c); err != nil {
				return providers.Chapter{}, err
			}
		}
		return c, nil
	})
}

func label(loc providers.Locator) string {
	if loc.Title != "" {
		return loc.Title
	}
	return loc.URL
}

func (p *Pipeline) debugf(format string, args ...any) {
	if p.log != nil {
		p.log.Debugf(format, args...)
	}
}
