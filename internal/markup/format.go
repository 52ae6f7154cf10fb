// Package markup rewrites site HTML into the small tag vocabulary shared by
// the FB2 and EPUB outputs.
package markup

import "strings"

type Role int

const (
	RoleImage Role = iota
	RoleEmphasis
	RoleStrong
	RoleStrikethrough
	RoleUnderline
	RoleBlockquote
)

// Format names the concrete tag for every role in one output format.
// The normalizer only consults this table, never the format name.
type Format struct {
	Name string
	Ext  string
	tags map[Role]string
}

var (
	FB2 = Format{
		Name: "fb2",
		Ext:  ".fb2",
		tags: map[Role]string{
			RoleImage:         "image",
			RoleEmphasis:      "emphasis",
			RoleStrong:        "strong",
			RoleStrikethrough: "strikethrough",
			RoleUnderline:     "emphasis", // FB2 has no underline
			RoleBlockquote:    "cite",
		},
	}

	EPUB = Format{
		Name: "epub",
		Ext:  ".epub",
		tags: map[Role]string{
			RoleImage:         "img",
			RoleEmphasis:      "i",
			RoleStrong:        "b",
			RoleStrikethrough: "s",
			RoleUnderline:     "u",
			RoleBlockquote:    "blockquote",
		},
	}
)

func (f Format) Tag(r Role) string {
	return f.tags[r]
}

// ParseFormat accepts "fb2" or "epub" in any case.
func ParseFormat(s string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fb2":
		return FB2, true
	case "epub":
		return EPUB, true
	}
	return Format{}, false
}

// structural tags survive normalization in every format. Images are
// preserved only under the tag of RoleImage.
var structural = map[string]bool{
	"p":       true,
	"section": true,
	"sub":     true,
	"sup":     true,
}

func (f Format) preserved(tag string) bool {
	if structural[tag] {
		return true
	}
	for _, t := range f.tags {
		if t == tag {
			return true
		}
	}
	return false
}
