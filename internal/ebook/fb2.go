package ebook

import (
	"context"
	"fmt"
	"strings"

	"github.com/brogergvhs/ranobed/internal/images"
	"github.com/brogergvhs/ranobed/internal/markup"
)

const (
	fb2NS   = "http://www.gribuser.ru/xml/fictionbook/2.0"
	xlinkNS = "http://www.w3.org/1999/xlink"
)

// FB2 renders a FictionBook 2.0 document. Images are embedded as base64
// binaries, the cover first.
func FB2(ctx context.Context, in *Input) (string, error) {
	annotation, err := in.description(ctx, markup.FB2)
	if err != nil {
		return "", fmt.Errorf("annotation: %w", err)
	}

	b := in.Book
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	fmt.Fprintf(&sb, `<FictionBook xmlns=%q xmlns:l=%q>`, fb2NS, xlinkNS)

	sb.WriteString("<description><title-info>")
	for _, g := range b.Genres {
		fmt.Fprintf(&sb, "<genre>%s</genre>", escape(g))
	}
	if len(b.Authors) == 0 {
		sb.WriteString("<author><nickname>Unknown</nickname></author>")
	}
	for _, a := range b.Authors {
		sb.WriteString("<author><nickname>" + escape(a.Name) + "</nickname>")
		if a.HomePage != "" {
			sb.WriteString("<home-page>" + escape(a.HomePage) + "</home-page>")
		}
		sb.WriteString("</author>")
	}
	sb.WriteString("<book-title>" + escape(b.Title) + "</book-title>")
	if annotation != "" {
		sb.WriteString("<annotation>" + annotation + "</annotation>")
	}
	if len(b.Keywords) > 0 {
		sb.WriteString("<keywords>" + escape(strings.Join(b.Keywords, ", ")) + "</keywords>")
	}
	if d := b.Date("2006-01-02"); d != "" {
		fmt.Fprintf(&sb, `<date value="%s">%s</date>`, d, d)
	}
	if in.Cover != nil {
		fmt.Fprintf(&sb, `<coverpage><image l:href="#%s"/></coverpage>`, in.Cover.ID)
	}
	sb.WriteString("<lang>" + escape(in.lang()) + "</lang>")
	sb.WriteString("</title-info>")

	now := in.now().Format("2006-01-02")
	sb.WriteString("<document-info>")
	sb.WriteString("<author><nickname>" + escape(in.program()) + "</nickname></author>")
	sb.WriteString("<program-used>" + escape(in.program()) + "</program-used>")
	fmt.Fprintf(&sb, `<date value="%s">%s</date>`, now, now)
	if b.HomePage != "" {
		sb.WriteString("<src-url>" + escape(b.HomePage) + "</src-url>")
	}
	sb.WriteString("<id>" + in.ID() + "</id>")
	sb.WriteString("<version>1.0</version>")
	sb.WriteString("</document-info></description>")

	sb.WriteString("<body><title><p>" + escape(b.Title) + "</p>")
	if b.Subtitle != "" && b.Subtitle != b.Title {
		sb.WriteString("<p>" + escape(b.Subtitle) + "</p>")
	}
	sb.WriteString("</title>")
	for _, ch := range in.Chapters {
		fmt.Fprintf(&sb, `<section id="%s"><title><p>%s</p></title>`, ch.ID, escape(ch.Title))
		if strings.TrimSpace(ch.Text) == "" {
			sb.WriteString("<empty-line/>")
		} else {
			sb.WriteString(ch.Text)
		}
		sb.WriteString("</section>")
	}
	sb.WriteString("</body>")

	if in.Cover != nil {
		writeBinary(&sb, in.Cover)
	}
	for _, img := range in.images() {
		writeBinary(&sb, img)
	}
	sb.WriteString("</FictionBook>")
	return sb.String(), nil
}

func writeBinary(sb *strings.Builder, img *images.Info) {
	fmt.Fprintf(sb, `<binary id="%s" content-type="%s">`, img.ID, img.MIME)
	sb.WriteString(img.Base64())
	sb.WriteString("</binary>")
}

func (in *Input) program() string {
	if in.Program != "" {
		return in.Program
	}
	return "ranobed"
}
