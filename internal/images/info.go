// Package images downloads book images and deduplicates them by content.
//
// An Info is identified by the SHA-256 of its bytes, so two URLs that
// serve the same file collapse into one entry of the Cache and one image
// in the packaged book.
package images

import (
	"crypto/sha256"
	"encoding/base64"
	"sync"
)

type Info struct {
	ID   string
	URL  string
	MIME string
	Ext  string

	data []byte

	b64Once sync.Once
	b64     string
}

// NewInfo hashes data and sniffs its type. The declared MIME type is
// ignored when the leading bytes say otherwise.
func NewInfo(src string, data []byte) *Info {
	mime, ext := Sniff(data)
	return &Info{
		ID:   HashID(data),
		URL:  src,
		MIME: mime,
		Ext:  ext,
		data: data,
	}
}

func (i *Info) Data() []byte {
	return i.data
}

// Base64 encodes the payload on first use.
func (i *Info) Base64() string {
	i.b64Once.Do(func() {
		i.b64 = base64.StdEncoding.EncodeToString(i.data)
	})
	return i.b64
}

// FileName is the name the image gets inside an EPUB container.
func (i *Info) FileName() string {
	return i.ID + i.Ext
}

// HashID returns a content id usable as an XML id and as a file name.
func HashID(data []byte) string {
	sum := sha256.Sum256(data)
	return "_" + base64.RawURLEncoding.EncodeToString(sum[:])
}
