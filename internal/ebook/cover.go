package ebook

import (
	"bytes"
	"fmt"

	"github.com/brogergvhs/ranobed/internal/images"

	"github.com/disintegration/imaging"
)

const defaultCoverQuality = 90

type CoverOptions struct {
	// JPEG re-encodes covers that are not JPEG already.
	JPEG     bool
	MaxWidth int
	Quality  int
}

// PrepareCover shrinks the cover to MaxWidth and converts it to JPEG if
// asked. When the image cannot be decoded the original is returned along
// with the error, so callers may still embed it.
func PrepareCover(info *images.Info, opts CoverOptions) (*images.Info, error) {
	if info == nil {
		return nil, nil
	}

	src, err := imaging.Decode(bytes.NewReader(info.Data()), imaging.AutoOrientation(true))
	if err != nil {
		return info, fmt.Errorf("decode cover: %w", err)
	}

	resize := opts.MaxWidth > 0 && src.Bounds().Dx() > opts.MaxWidth
	convert := opts.JPEG && info.MIME != "image/jpeg"
	if !resize && !convert {
		return info, nil
	}

	img := src
	if resize {
		img = imaging.Resize(src, opts.MaxWidth, 0, imaging.Lanczos)
	}

	format := imaging.JPEG
	if !opts.JPEG && info.MIME != "image/jpeg" {
		if format, err = imaging.FormatFromExtension(info.Ext); err != nil {
			format = imaging.PNG
		}
	}

	quality := opts.Quality
	if quality <= 0 || quality > 100 {
		quality = defaultCoverQuality
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(quality)); err != nil {
		return info, fmt.Errorf("encode cover: %w", err)
	}
	return images.NewInfo(info.URL, buf.Bytes()), nil
}
