package util

import (
	"bufio"
	"fmt"
	"iter"
	"log"
	"os"
	"path/filepath"
	"regexp"
)

// PartialSuffix marks output that is still being written.
const PartialSuffix = ".part"

// WriteChunks streams chunks into output. Data goes to output+".part"
// first and is renamed into place only after every chunk was written.
func WriteChunks(output string, chunks iter.Seq[[]byte]) (int64, error) {
	tmp := output + PartialSuffix

	out, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", tmp, err)
	}

	closed := false
	defer func() {
		if !closed {
			if cerr := out.Close(); cerr != nil {
				log.Printf("error closing output file %s: %v", tmp, cerr)
			}
		}
		CleanupFolder(tmp)
	}()

	w := bufio.NewWriterSize(out, 64*1024)
	var written int64
	for chunk := range chunks {
		n, err := w.Write(chunk)
		written += int64(n)
		if err != nil {
			return written, fmt.Errorf("write %s: %w", tmp, err)
		}
	}

	if err := w.Flush(); err != nil {
		return written, fmt.Errorf("write %s: %w", tmp, err)
	}

	closed = true
	if err := out.Close(); err != nil {
		return written, fmt.Errorf("close %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, output); err != nil {
		return written, fmt.Errorf("rename %s: %w", tmp, err)
	}

	return written, nil
}

// WriteString stores a single document using WriteChunks.
func WriteString(output, s string) (int64, error) {
	return WriteChunks(output, func(yield func([]byte) bool) {
		yield([]byte(s))
	})
}

var (
	illegalRe         = regexp.MustCompile(`[/?<>\\:*|"]`)
	controlRe         = regexp.MustCompile(`[\x00-\x1f\x{80}-\x{9f}]`)
	reservedRe        = regexp.MustCompile(`^\.+$`)
	windowsReservedRe = regexp.MustCompile(`(?i)^(con|prn|aux|nul|com[0-9]|lpt[0-9])(\..*)?$`)
	windowsTrailingRe = regexp.MustCompile(`[. ]+$`)
)

// SanitizeFilename replaces characters that are not allowed in file names
// on common filesystems with "-".
func SanitizeFilename(s string) string {
	s = illegalRe.ReplaceAllString(s, "-")
	s = controlRe.ReplaceAllString(s, "-")
	s = reservedRe.ReplaceAllString(s, "-")
	s = windowsReservedRe.ReplaceAllString(s, "-")
	s = windowsTrailingRe.ReplaceAllString(s, "-")
	return s
}

// OutputPath joins dir with a sanitized file name.
func OutputPath(dir, name, ext string) string {
	return filepath.Join(dir, SanitizeFilename(name)+ext)
}
