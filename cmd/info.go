package cmd

import (
	"fmt"
	"strings"

	"github.com/brogergvhs/ranobed/internal/config"
	"github.com/brogergvhs/ranobed/internal/ui"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info <url>",
	Short: "Show book metadata and the number of chapters without downloading",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := config.LoadMerged(config.Options{
			IgnoreConfig: flagIgnoreConfig,
			Debug:        flagDebug,
		})
		if err != nil {
			return err
		}
		logSvc := ui.NewLogger(cfg.Debug)

		f, err := newFetcher(cfg, logSvc)
		if err != nil {
			return err
		}
		ex, err := newRegistry(f, cfg.ChapterWorkers).Select(args[0])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		book, err := ex.Book(ctx, args[0])
		if err != nil {
			return fmt.Errorf("book: %w", err)
		}
		locs, err := ex.Chapters(ctx, book)
		if err != nil {
			return fmt.Errorf("chapters: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Site:      %s\n", ex.Name())
		fmt.Fprintf(out, "Title:     %s\n", book.Title)
		if book.Subtitle != "" && book.Subtitle != book.Title {
			fmt.Fprintf(out, "Subtitle:  %s\n", book.Subtitle)
		}
		names := make([]string, len(book.Authors))
		for i, a := range book.Authors {
			names[i] = a.Name
		}
		if len(names) > 0 {
			fmt.Fprintf(out, "Authors:   %s\n", strings.Join(names, ", "))
		}
		if len(book.Genres) > 0 {
			fmt.Fprintf(out, "Genres:    %s\n", strings.Join(book.Genres, ", "))
		}
		if d := book.Date("2006-01-02"); d != "" {
			fmt.Fprintf(out, "Published: %s\n", d)
		}
		fmt.Fprintf(out, "Chapters:  %d\n", len(locs))
		fmt.Fprintf(out, "Covers:    %d\n", len(book.Covers))

		if strings.TrimSpace(book.Description) != "" {
			md, err := htmltomarkdown.ConvertString(book.Description)
			if err != nil {
				logSvc.Debugf("description to markdown: %v", err)
				md = book.Description
			}
			fmt.Fprintf(out, "\n%s\n", strings.TrimSpace(md))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
