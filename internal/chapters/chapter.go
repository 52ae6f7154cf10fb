// Package chapters selects which chapters of a book are downloaded and
// names the resulting file.
package chapters

import (
	"strings"

	"github.com/brogergvhs/ranobed/internal/markup"
	"github.com/brogergvhs/ranobed/internal/providers"
	"github.com/brogergvhs/ranobed/internal/util"
)

// BaseName is the file name of a book without extension. Numeric site
// aliases make poor names, so the title is preferred.
func BaseName(b *providers.Book, selection string) string {
	name := strings.TrimSpace(b.Title)
	if name == "" {
		name = b.Alias
	}
	if name == "" {
		name = "book"
	}
	if selection != "" {
		name += " (" + selection + ")"
	}
	return util.SanitizeFilename(name)
}

func OutputPath(dir string, b *providers.Book, f markup.Format, selection string) string {
	return util.OutputPath(dir, BaseName(b, selection), f.Ext)
}
