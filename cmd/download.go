package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/brogergvhs/ranobed/internal/chapters"
	"github.com/brogergvhs/ranobed/internal/config"
	"github.com/brogergvhs/ranobed/internal/downloader"
	"github.com/brogergvhs/ranobed/internal/ebook"
	"github.com/brogergvhs/ranobed/internal/images"
	"github.com/brogergvhs/ranobed/internal/markup"
	"github.com/brogergvhs/ranobed/internal/providers"
	"github.com/brogergvhs/ranobed/internal/run"
	"github.com/brogergvhs/ranobed/internal/ui"
	"github.com/brogergvhs/ranobed/internal/util"

	"github.com/spf13/cobra"
)

var (
	// selection
	flagURL     string
	flagChapter string
	flagRange   string
	flagList    string

	// runtime
	flagOutput         string
	flagFormat         string
	flagImageWorkers   int
	flagChapterWorkers int
	flagRetries        int
	flagDryRun         bool

	// headers/auth
	flagCookie           string
	flagCookieFile       string
	flagUserAgent        string
	flagCloudflareBypass bool
	flagRateLimit        float64
)

func init() {
	downloadCmd := &cobra.Command{
		Use:   "download",
		Short: "Download a book and produce an FB2 or EPUB file. Uses the defaults from the selected config, overwritten by CLI flags",
		RunE:  runDownload,
	}

	// selection
	downloadCmd.Flags().StringVar(&flagURL, "url", "", "book page URL")
	downloadCmd.Flags().StringVar(&flagChapter, "chapter", "", "download a single chapter by index or title")
	downloadCmd.Flags().StringVar(&flagRange, "range", "", "download a range of chapters by index (e.g. 5-12 or 5-)")
	downloadCmd.Flags().StringVar(&flagList, "list", "", "download specific chapter indices (e.g. 1,3,5)")

	// runtime
	downloadCmd.Flags().StringVar(&flagOutput, "output", "", "output folder")
	downloadCmd.Flags().StringVarP(&flagFormat, "format", "f", "", "output format: fb2 or epub")
	downloadCmd.Flags().IntVar(&flagImageWorkers, "image-workers", downloader.DefaultWorkers, "parallel image downloads per chapter")
	downloadCmd.Flags().IntVar(&flagChapterWorkers, "chapter-workers", downloader.DefaultWorkers, "parallel chapter downloads")
	downloadCmd.Flags().IntVar(&flagRetries, "retries", config.DefaultRetries, "attempts per request")
	downloadCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "show what would be downloaded, don't download")

	// headers/auth
	downloadCmd.Flags().StringVar(&flagCookie, "cookie", "", "cookie string, e.g. \"key=value; other=123\"")
	downloadCmd.Flags().StringVar(&flagCookieFile, "cookie-file", "", "path to a text file with cookies (one header line)")
	downloadCmd.Flags().StringVar(&flagUserAgent, "user-agent", "", "override User-Agent")
	downloadCmd.Flags().BoolVar(&flagCloudflareBypass, "cloudflare-bypass", false, "use a browser-like TLS transport")
	downloadCmd.Flags().Float64Var(&flagRateLimit, "rate-limit", 0, "max requests per second (0 = unlimited)")

	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, _ []string) error {
	if flagFormat != "" {
		if _, ok := markup.ParseFormat(flagFormat); !ok {
			return fmt.Errorf("unknown format %q, want fb2 or epub", flagFormat)
		}
	}

	cfg, usedPath, err := config.LoadMerged(config.Options{
		IgnoreConfig:     flagIgnoreConfig,
		Debug:            flagDebug,
		Output:           flagOutput,
		Format:           flagFormat,
		DefaultURL:       flagURL,
		DefaultRange:     flagRange,
		DefaultList:      flagList,
		Cookie:           flagCookie,
		CookieFile:       flagCookieFile,
		UserAgent:        flagUserAgent,
		CloudflareBypass: flagCloudflareBypass,
		RateLimit:        flagRateLimit,
	})
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("image-workers") {
		cfg.ImageWorkers = max(1, flagImageWorkers)
	}
	if cmd.Flags().Changed("chapter-workers") {
		cfg.ChapterWorkers = max(1, flagChapterWorkers)
	}
	if cmd.Flags().Changed("retries") {
		cfg.Retries = max(1, flagRetries)
	}

	out := cmd.OutOrStdout()
	logSvc := ui.NewLogger(cfg.Debug)
	if usedPath != "" {
		fmt.Fprintf(out, "Config file: %s\n", usedPath)
	}

	_, statErr := os.Stat(cfg.Output)
	createdOutput := errors.Is(statErr, os.ErrNotExist)
	if err := os.MkdirAll(cfg.Output, 0o755); err != nil {
		return fmt.Errorf("cannot create output folder: %w", err)
	}

	fmt.Fprintln(out, "Full config:")
	cfg.Print(out)
	fmt.Fprintln(out)

	if cfg.DefaultURL == "" {
		return fmt.Errorf("missing --url and no default_url in config")
	}

	fetcher, err := newFetcher(cfg, logSvc)
	if err != nil {
		return err
	}
	ex, err := newRegistry(fetcher, cfg.ChapterWorkers).Select(cfg.DefaultURL)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	book, err := ex.Book(ctx, cfg.DefaultURL)
	if err != nil {
		return fmt.Errorf("book: %w", err)
	}
	all, err := ex.Chapters(ctx, book)
	if err != nil {
		return fmt.Errorf("chapters: %w", err)
	}
	fmt.Fprintf(out, "%s: %q, %d chapters on the site.\n\n", ex.Name(), book.Title, len(all))

	// --chapter only comes from the command line
	rng, list := cfg.DefaultRange, cfg.DefaultList
	selected := chapters.Filter(all, flagChapter, rng, list)
	if len(selected) == 0 {
		if flagChapter != "" {
			return fmt.Errorf("chapter %q not found", flagChapter)
		}
		return fmt.Errorf("no chapters selected")
	}

	if flagDryRun {
		fmt.Fprintf(out, "Dry-run: %d chapters selected.\n\n", len(selected))
		for i, l := range selected {
			fmt.Fprintf(out, "%3d) %s\n    %s\n", i+1, l.Title, l.URL)
		}
		return nil
	}

	format := cfg.Markup()
	selection := ""
	if len(selected) != len(all) {
		selection = chapters.Describe(flagChapter, rng, list)
	}
	output := chapters.OutputPath(cfg.Output, book, format, selection)

	start := time.Now()
	stats, notes, err := downloadBook(ctx, out, cfg, fetcher, logSvc, ex, book, selected, output)
	for _, n := range notes {
		logSvc.Warnf("%s", n)
	}
	if err != nil {
		for _, p := range util.CleanupPartialFiles(cfg.Output) {
			logSvc.Infof("removed partial file %s", p)
		}
		if createdOutput {
			util.RemoveIfEmpty(cfg.Output)
		}
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("interrupted")
		}
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Download Summary:")
	fmt.Fprintf(out, "Book:     %s\n", output)
	fmt.Fprintf(out, "Content:  %s\n", stats.Summary())
	fmt.Fprintf(out, "Warnings: %d\n", len(notes))
	fmt.Fprintf(out, "Time:     %s\n", time.Since(start).Round(time.Second))
	fmt.Fprintln(out, "\nAll done.")
	return nil
}

// downloadBook runs the chapter pipeline for one book and writes the
// packaged result to output. Image failures come back as notes.
func downloadBook(
	ctx context.Context,
	w io.Writer,
	cfg *config.Config,
	fetcher *util.Fetcher,
	logSvc *ui.Logger,
	ex providers.Extractor,
	book *providers.Book,
	selected []providers.Locator,
	output string,
) (*ui.Stats, []string, error) {
	r := run.New()
	stats := &ui.Stats{}

	cache := images.NewCache()
	cache.OnSave(stats.Image)
	imgs := images.NewDownloader(fetcher.Client, cache, images.Options{
		Book:    book.Title,
		Retries: cfg.Retries,
		Notes:   r.Notes,
		Log:     logSvc,
	})

	format := cfg.Markup()
	pipe := downloader.New(imgs, r, format, downloader.Options{
		ChapterWorkers: cfg.ChapterWorkers,
		ImageWorkers:   cfg.ImageWorkers,
		Log:            logSvc,
	})

	pm := ui.NewProgressManager(w)
	handle := pm.Register(chapters.BaseName(book, ""), stats)
	handle.Attach(r.Progress)

	parts, err := pipe.Parts(ctx, ex, book, selected)
	handle.MarkDone(err == nil)
	pm.Close()
	if err != nil {
		return stats, r.Notes.List(), err
	}
	stats.TotalChapters.Store(int64(len(parts)))

	cover := fetchCover(ctx, fetcher, r.Notes, logSvc, book, cfg)

	in := &ebook.Input{
		Book:     book,
		Chapters: parts,
		Images:   cache.Images(),
		Cover:    cover,
		Program:  programName(),
	}

	switch format.Name {
	case markup.EPUB.Name:
		stream, err := ebook.EPUB(ctx, in)
		if err != nil {
			return stats, r.Notes.List(), err
		}
		_, err = util.WriteChunks(output, stream)
		return stats, r.Notes.List(), err
	default:
		doc, err := ebook.FB2(ctx, in)
		if err != nil {
			return stats, r.Notes.List(), err
		}
		_, err = util.WriteString(output, doc)
		return stats, r.Notes.List(), err
	}
}

// fetchCover returns the first cover that downloads. Covers live in their
// own cache so an unused original never ends up in the book.
func fetchCover(ctx context.Context, fetcher *util.Fetcher, notes *run.Notes, logSvc *ui.Logger, book *providers.Book, cfg *config.Config) *images.Info {
	dl := images.NewDownloader(fetcher.Client, images.NewCache(), images.Options{
		Book:    book.Title,
		Retries: cfg.Retries,
		Notes:   notes,
		Log:     logSvc,
	})
	for _, src := range book.Covers {
		info := dl.Download(ctx, "cover", src, book.HomePage)
		if info == nil {
			continue
		}
		prepared, err := ebook.PrepareCover(info, ebook.CoverOptions{
			JPEG:     cfg.CoverJPEG,
			MaxWidth: cfg.CoverMaxWidth,
		})
		if err != nil {
			logSvc.Debugf("cover %s kept as is: %v", src, err)
		}
		return prepared
	}
	return nil
}
