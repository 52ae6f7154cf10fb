package images

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

type signature struct {
	mime    string
	ext     string
	pattern []int // -1 matches any byte
}

// Checked in order; the first match wins.
var signatures = []signature{
	{"image/webp", ".webp", []int{0x52, 0x49, 0x46, 0x46, -1, -1, -1, -1, 0x57, 0x45, 0x42, 0x50, 0x56, 0x50}},
	{"image/png", ".png", []int{0x89, 0x50, 0x4e, 0x47}},
	{"image/gif", ".gif", []int{0x47, 0x49, 0x46, 0x38}},
	{"image/jpeg", ".jpg", []int{0xff, 0xd8, 0xff}},
	{"image/bmp", ".bmp", []int{0x42, 0x4d}},
}

const (
	defaultMIME = "image/jpeg"
	defaultExt  = ".jpg"
)

// Sniff classifies an image by its leading bytes. Formats outside the
// signature table are looked up with mimetype; anything that is still not
// an image is treated as JPEG.
func Sniff(b []byte) (mime, ext string) {
	for _, s := range signatures {
		if matches(b, s.pattern) {
			return s.mime, s.ext
		}
	}

	if len(b) > 0 {
		if m := mimetype.Detect(b); strings.HasPrefix(m.String(), "image/") && m.Extension() != "" {
			mt := m.String()
			if i := strings.IndexByte(mt, ';'); i >= 0 {
				mt = mt[:i]
			}
			return mt, m.Extension()
		}
	}

	return defaultMIME, defaultExt
}

func matches(b []byte, pattern []int) bool {
	if len(b) < len(pattern) {
		return false
	}
	for i, p := range pattern {
		if p >= 0 && int(b[i]) != p {
			return false
		}
	}
	return true
}
