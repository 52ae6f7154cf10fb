package ebook

import (
	"context"
	"encoding/xml"
	"fmt"
	"iter"
	"strings"

	"github.com/brogergvhs/ranobed/internal/markup"
)

const containerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
<rootfiles><rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/></rootfiles>
</container>`

const styleCSS = `body { margin: 0 5%; text-align: justify; }
h1, h2 { text-align: center; }
p { text-indent: 1.5em; margin: 0.3em 0; }
img { max-width: 100%; }
blockquote { margin: 1em 2em; font-style: italic; }
.cover { text-align: center; }
`

type opfPackage struct {
	XMLName  xml.Name       `xml:"http://www.idpf.org/2007/opf package"`
	Version  string         `xml:"version,attr"`
	UniqueID string         `xml:"unique-identifier,attr"`
	Metadata opfMetadata    `xml:"metadata"`
	Manifest []opfItem      `xml:"manifest>item"`
	Spine    opfSpine       `xml:"spine"`
	Guide    []opfReference `xml:"guide>reference,omitempty"`
}

type opfMetadata struct {
	DC          string        `xml:"xmlns:dc,attr"`
	OPF         string        `xml:"xmlns:opf,attr"`
	Title       string        `xml:"dc:title"`
	Creators    []opfCreator  `xml:"dc:creator"`
	Subjects    []string      `xml:"dc:subject"`
	Description string        `xml:"dc:description,omitempty"`
	Language    string        `xml:"dc:language"`
	Identifier  opfIdentifier `xml:"dc:identifier"`
	Date        string        `xml:"dc:date,omitempty"`
	Source      string        `xml:"dc:source,omitempty"`
	Meta        []opfMeta     `xml:"meta"`
}

type opfCreator struct {
	Role string `xml:"opf:role,attr"`
	Name string `xml:",chardata"`
}

type opfIdentifier struct {
	ID     string `xml:"id,attr"`
	Scheme string `xml:"opf:scheme,attr"`
	Value  string `xml:",chardata"`
}

type opfMeta struct {
	Name    string `xml:"name,attr"`
	Content string `xml:"content,attr"`
}

type opfItem struct {
	ID        string `xml:"id,attr"`
	Href      string `xml:"href,attr"`
	MediaType string `xml:"media-type,attr"`
}

type opfSpine struct {
	Toc      string       `xml:"toc,attr"`
	ItemRefs []opfItemRef `xml:"itemref"`
}

type opfItemRef struct {
	IDRef string `xml:"idref,attr"`
}

type opfReference struct {
	Type  string `xml:"type,attr"`
	Title string `xml:"title,attr"`
	Href  string `xml:"href,attr"`
}

type ncx struct {
	XMLName xml.Name   `xml:"http://www.daisy.org/z3986/2005/ncx/ ncx"`
	Version string     `xml:"version,attr"`
	Head    []ncxMeta  `xml:"head>meta"`
	Title   string     `xml:"docTitle>text"`
	NavMap  []navPoint `xml:"navMap>navPoint"`
}

type ncxMeta struct {
	Name    string `xml:"name,attr"`
	Content string `xml:"content,attr"`
}

type navPoint struct {
	ID        string `xml:"id,attr"`
	PlayOrder int    `xml:"playOrder,attr"`
	Label     string `xml:"navLabel>text"`
	Content   struct {
		Src string `xml:"src,attr"`
	} `xml:"content"`
}

// page is one XHTML document of the spine.
type page struct {
	id, href, title, body string
}

// EPUB builds an EPUB 2 container and returns it as a stream of ZIP
// chunks. The mimetype entry comes first.
func EPUB(ctx context.Context, in *Input) (iter.Seq[[]byte], error) {
	annotation, err := in.description(ctx, markup.EPUB)
	if err != nil {
		return nil, fmt.Errorf("annotation: %w", err)
	}

	var pages []page
	if in.Cover != nil {
		pages = append(pages, page{
			id:    "cover",
			href:  "cover.xhtml",
			title: in.Book.Title,
			body:  fmt.Sprintf(`<div class="cover"><img src="images/%s" alt="%s"/></div>`, in.Cover.FileName(), escape(in.Book.Title)),
		})
	}
	pages = append(pages, page{
		id:    "info",
		href:  "info.xhtml",
		title: in.Book.Title,
		body:  in.infoBody(annotation),
	})
	for _, ch := range in.Chapters {
		pages = append(pages, page{
			id:    ch.ID,
			href:  ch.ID + ".xhtml",
			title: ch.Title,
			body:  "<h2>" + escape(ch.Title) + "</h2>" + ch.Text,
		})
	}

	files := 5 + len(pages) + len(in.images())
	if in.Cover != nil {
		files++
	}
	if files > MaxEntries {
		return nil, fmt.Errorf("book needs %d files, a ZIP holds at most %d", files, MaxEntries)
	}

	opf, err := in.opf(pages, annotation)
	if err != nil {
		return nil, err
	}
	toc, err := in.ncx(pages)
	if err != nil {
		return nil, err
	}

	entries := func(yield func(Entry) bool) {
		head := []Entry{
			{Path: "mimetype", Data: []byte("application/epub+zip")},
			{Path: "META-INF/container.xml", Data: []byte(containerXML)},
			{Path: "OEBPS/content.opf", Data: opf},
			{Path: "OEBPS/toc.ncx", Data: toc},
			{Path: "OEBPS/style.css", Data: []byte(styleCSS)},
		}
		for _, e := range head {
			if !yield(e) {
				return
			}
		}
		for _, p := range pages {
			if !yield(Entry{Path: "OEBPS/" + p.href, Data: []byte(in.xhtml(p))}) {
				return
			}
		}
		if in.Cover != nil {
			if !yield(Entry{Path: "OEBPS/images/" + in.Cover.FileName(), Data: in.Cover.Data()}) {
				return
			}
		}
		for _, img := range in.images() {
			if !yield(Entry{Path: "OEBPS/images/" + img.FileName(), Data: img.Data()}) {
				return
			}
		}
	}
	return Zip(entries), nil
}

func (in *Input) infoBody(annotation string) string {
	var sb strings.Builder
	sb.WriteString("<h1>" + escape(in.Book.Title) + "</h1>")
	if s := in.Book.Subtitle; s != "" && s != in.Book.Title {
		sb.WriteString("<p><i>" + escape(s) + "</i></p>")
	}
	for _, a := range in.Book.Authors {
		sb.WriteString("<p><b>" + escape(a.Name) + "</b></p>")
	}
	if len(in.Book.Genres) > 0 {
		sb.WriteString("<p>" + escape(strings.Join(in.Book.Genres, ", ")) + "</p>")
	}
	sb.WriteString(annotation)
	return sb.String()
}

func (in *Input) xhtml(p page) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.1//EN" "http://www.w3.org/TR/xhtml11/DTD/xhtml11.dtd">
<html xmlns="http://www.w3.org/1999/xhtml" xml:lang="` + escape(in.lang()) + `">
<head><title>` + escape(p.title) + `</title><link rel="stylesheet" type="text/css" href="style.css"/></head>
<body>` + p.body + `</body>
</html>`
}

func (in *Input) opf(pages []page, annotation string) ([]byte, error) {
	b := in.Book
	pkg := opfPackage{
		Version:  "2.0",
		UniqueID: "BookId",
		Metadata: opfMetadata{
			DC:          "http://purl.org/dc/elements/1.1/",
			OPF:         "http://www.idpf.org/2007/opf",
			Title:       b.Title,
			Subjects:    b.Genres,
			Description: annotation,
			Language:    in.lang(),
			Identifier:  opfIdentifier{ID: "BookId", Scheme: "UUID", Value: "urn:uuid:" + in.ID()},
			Date:        b.Date("2006-01-02"),
			Source:      b.HomePage,
		},
		Spine: opfSpine{Toc: "ncx"},
	}
	for _, a := range b.Authors {
		pkg.Metadata.Creators = append(pkg.Metadata.Creators, opfCreator{Role: "aut", Name: a.Name})
	}

	pkg.Manifest = append(pkg.Manifest,
		opfItem{ID: "ncx", Href: "toc.ncx", MediaType: "application/x-dtbncx+xml"},
		opfItem{ID: "style", Href: "style.css", MediaType: "text/css"},
	)
	if in.Cover != nil {
		pkg.Metadata.Meta = append(pkg.Metadata.Meta, opfMeta{Name: "cover", Content: "cover-image"})
		pkg.Manifest = append(pkg.Manifest, opfItem{ID: "cover-image", Href: "images/" + in.Cover.FileName(), MediaType: in.Cover.MIME})
		pkg.Guide = append(pkg.Guide, opfReference{Type: "cover", Title: "Cover", Href: "cover.xhtml"})
	}
	for _, p := range pages {
		pkg.Manifest = append(pkg.Manifest, opfItem{ID: p.id, Href: p.href, MediaType: "application/xhtml+xml"})
		pkg.Spine.ItemRefs = append(pkg.Spine.ItemRefs, opfItemRef{IDRef: p.id})
	}
	for _, img := range in.images() {
		pkg.Manifest = append(pkg.Manifest, opfItem{ID: img.ID, Href: "images/" + img.FileName(), MediaType: img.MIME})
	}

	out, err := xml.MarshalIndent(pkg, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("content.opf: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

func (in *Input) ncx(pages []page) ([]byte, error) {
	doc := ncx{
		Version: "2005-1",
		Head: []ncxMeta{
			{Name: "dtb:uid", Content: "urn:uuid:" + in.ID()},
			{Name: "dtb:depth", Content: "1"},
			{Name: "dtb:totalPageCount", Content: "0"},
			{Name: "dtb:maxPageNumber", Content: "0"},
		},
		Title: in.Book.Title,
	}
	for _, p := range pages {
		if p.id == "cover" {
			continue
		}
		np := navPoint{ID: "nav-" + p.id, PlayOrder: len(doc.NavMap) + 1, Label: p.title}
		np.Content.Src = p.href
		doc.NavMap = append(doc.NavMap, np)
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("toc.ncx: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}
