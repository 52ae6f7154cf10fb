package markup

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/brogergvhs/ranobed/internal/images"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/sync/errgroup"
)

const DefaultConcurrency = 5

// Resolver turns an image source into a cached image, or nil when the
// image has to be dropped.
type Resolver func(ctx context.Context, src string) *images.Info

type options struct {
	resolve     Resolver
	concurrency int
}

type Option func(*options)

// WithImages enables image resolution through r.
func WithImages(r Resolver) Option {
	return func(o *options) { o.resolve = r }
}

// WithConcurrency limits parallel image lookups.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// ParseError carries the parser message for markup that could not be
// turned into a well-formed fragment.
type ParseError struct {
	Msg string
}

func (e *ParseError) Error() string {
	return "parsererror: " + e.Msg
}

var (
	// removed before anything else
	dropSelector = strings.Join([]string{
		".message-delete", ".splitnewsnavigation",
		"script", "style", "noscript", "template",
		"iframe", "object", "embed", "svg", "canvas",
		"form", "button", "input", "select", "textarea",
		".adsbygoogle", ".ads", ".advertisement", "[id^=yandex_rtb]",
	}, ",")

	roleSelectors = []struct {
		role Role
		sel  string
	}{
		{RoleEmphasis, "i,em,dfn,var,q,dd,address"},
		{RoleStrong, "b,strong,mark,h2,h3,h4,h5,h6"},
		{RoleStrikethrough, "s,strike,del"},
		{RoleUnderline, "u,ins,abbr,a"},
		{RoleBlockquote, "blockquote,.game-message,.quote"},
	}

	blockTags = map[string]bool{
		"address": true, "article": true, "aside": true, "blockquote": true,
		"center": true, "dd": true, "details": true, "dialog": true, "div": true,
		"dl": true, "dt": true, "fieldset": true, "figcaption": true, "figure": true,
		"footer": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true,
		"h6": true, "header": true, "hgroup": true, "hr": true, "li": true,
		"main": true, "menu": true, "nav": true, "ol": true, "p": true, "pre": true,
		"section": true, "summary": true, "table": true, "tbody": true, "td": true,
		"tfoot": true, "th": true, "thead": true, "tr": true, "ul": true,
		"caption": true, "legend": true,
	}

	brRe         = regexp.MustCompile(`(?i)(\s*<br(\s+[^/<>]+)?/?>\s*)+`)
	divRe        = regexp.MustCompile(`</?div>`)
	displayRe    = regexp.MustCompile(`(?i)display\s*:\s*([a-z-]+)`)
	tagRe        = regexp.MustCompile(`<[^>]*>`)
	imgOpenRe    = regexp.MustCompile(`<img((?:\s[^>]*?)?)\s*/?>`)
	emptyParaRe  = regexp.MustCompile(`(?:\s*<p>(?:\s|\x{00a0})*</p>\s*)+`)
	badXMLCharRe = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f]`)

	// references written by an earlier pass
	fb2RefRe  = regexp.MustCompile(`^#_[A-Za-z0-9_-]{43}$`)
	epubRefRe = regexp.MustCompile(`^images/_[A-Za-z0-9_-]{43}\.[a-z0-9]+$`)
)

// Normalize rewrites a site HTML fragment into the canonical vocabulary of
// f. Images are resolved only when WithImages is given; images that
// cannot be resolved are removed. Images already referencing a content id
// in the vocabulary of f are kept as they are.
func Normalize(ctx context.Context, raw string, f Format, opts ...Option) (string, error) {
	o := options{concurrency: DefaultConcurrency}
	for _, opt := range opts {
		opt(&o)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	body, err := parseBody(brRe.ReplaceAllString(raw, "</p><p>"))
	if err != nil {
		return "", err
	}

	stripAndRemap(body, f)
	reclassify(body, f)

	inner, err := body.Html()
	if err != nil {
		return "", &ParseError{Msg: err.Error()}
	}

	bq := regexp.MustCompile(`<(/?)` + regexp.QuoteMeta(f.Tag(RoleBlockquote)) + `>`)
	inner = divRe.ReplaceAllString(inner, "</p><p>")
	inner = bq.ReplaceAllString(inner, "</p><${1}"+f.Tag(RoleBlockquote)+"><p>")

	body, err = parseBody(inner)
	if err != nil {
		return "", err
	}

	if err := resolveImages(ctx, body, f, o); err != nil {
		return "", err
	}

	stripAttributes(body, f)

	out, err := body.Html()
	if err != nil {
		return "", &ParseError{Msg: err.Error()}
	}

	out = unescapeText(out)
	out = closeSingletons(out, f)
	out = badXMLCharRe.ReplaceAllString(out, "")
	out = emptyParaRe.ReplaceAllString(out, "")
	out = strings.TrimSpace(out)

	if err := checkWellFormed(out); err != nil {
		return "", err
	}
	return out, nil
}

func parseBody(s string) (*goquery.Selection, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<!DOCTYPE html><html><head></head><body>" + s + "</body></html>"))
	if err != nil {
		return nil, &ParseError{Msg: err.Error()}
	}
	body := doc.Find("body").First()
	if body.Length() == 0 {
		return nil, &ParseError{Msg: "document has no body"}
	}
	return body, nil
}

func stripAndRemap(body *goquery.Selection, f Format) {
	body.Find(dropSelector).Remove()

	for _, rs := range roleSelectors {
		tag := f.Tag(rs.role)
		for _, n := range body.Find(rs.sel).Nodes {
			rename(n, tag)
		}
	}
}

// reclassify turns every element outside the whitelist into a generic
// block container or dissolves it into its parent. The parser reads both
// img and FB2 image as img; those wait for resolveImages.
func reclassify(body *goquery.Selection, f Format) {
	for _, n := range body.Find("*").Nodes {
		if n.Data == "img" || f.preserved(n.Data) {
			continue
		}
		if parentIs(n, "section") || isBlock(n) {
			rename(n, "div")
		} else {
			unwrap(n)
		}
	}
}

func isBlock(n *html.Node) bool {
	if m := displayRe.FindStringSubmatch(attr(n, "style")); m != nil {
		return !strings.Contains(strings.ToLower(m[1]), "inline")
	}
	return blockTags[n.Data]
}

func resolveImages(ctx context.Context, body *goquery.Selection, f Format, o options) error {
	nodes := body.Find("img").Nodes
	if len(nodes) == 0 {
		return nil
	}

	refs := make([]string, len(nodes))
	found := make([]*images.Info, len(nodes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i, n := range nodes {
		refs[i] = canonicalRef(n, f)
		if refs[i] != "" || o.resolve == nil {
			continue
		}
		src := attr(n, "src")
		if src == "" {
			src = attr(n, "data-src")
		}
		if src == "" {
			continue
		}
		g.Go(func() error {
			found[i] = o.resolve(gctx, src)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	key := "src"
	if f.Tag(RoleImage) == "image" {
		key = "l:href"
	}

	for i, n := range nodes {
		ref := refs[i]
		if info := found[i]; ref == "" && info != nil {
			ref = imageRef(info, f)
		}
		if ref == "" {
			if n.Parent != nil {
				n.Parent.RemoveChild(n)
			}
			continue
		}

		alt, title := sanitizeAttr(attr(n, "alt")), sanitizeAttr(attr(n, "title"))
		attrs := []html.Attribute{{Key: key, Val: ref}}
		if alt != "" {
			attrs = append(attrs, html.Attribute{Key: "alt", Val: alt})
		}
		if title != "" {
			attrs = append(attrs, html.Attribute{Key: "title", Val: title})
		}

		rename(n, f.Tag(RoleImage))
		n.Attr = attrs
	}
	return nil
}

// canonicalRef returns the reference of an image that is already written
// in the vocabulary of f, or "".
func canonicalRef(n *html.Node, f Format) string {
	if f.Tag(RoleImage) == "image" {
		if ref := attr(n, "l:href"); fb2RefRe.MatchString(ref) {
			return ref
		}
		return ""
	}
	if src := attr(n, "src"); epubRefRe.MatchString(src) {
		return src
	}
	return ""
}

func imageRef(info *images.Info, f Format) string {
	if f.Tag(RoleImage) == "image" {
		// the binary section is written from the base64 payload
		_ = info.Base64()
		return "#" + info.ID
	}
	return "images/" + info.FileName()
}

var keepImageAttrs = map[string]bool{"src": true, "alt": true, "title": true, "l:href": true}

func stripAttributes(body *goquery.Selection, f Format) {
	img := f.Tag(RoleImage)
	for _, n := range body.Find("*").Nodes {
		if n.Data != img {
			n.Attr = nil
			continue
		}

		kept := n.Attr[:0]
		for _, a := range n.Attr {
			if !keepImageAttrs[a.Key] {
				continue
			}
			if a.Key == "alt" || a.Key == "title" {
				a.Val = sanitizeAttr(a.Val)
			}
			kept = append(kept, a)
		}
		n.Attr = kept
	}
}

// sanitizeAttr keeps attribute text safe inside double-quoted values.
func sanitizeAttr(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), `"`, "'")
}

// unescapeText resolves entities between tags. Attribute values stay
// escaped apart from single quotes, which are safe inside double quotes.
func unescapeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	text := func(t string) string {
		return strings.ReplaceAll(unescape(t), "\u00a0", " ")
	}

	last := 0
	for _, loc := range tagRe.FindAllStringIndex(s, -1) {
		b.WriteString(text(s[last:loc[0]]))
		b.WriteString(strings.ReplaceAll(s[loc[0]:loc[1]], "&#39;", "'"))
		last = loc[1]
	}
	b.WriteString(text(s[last:]))
	return b.String()
}

func closeSingletons(s string, f Format) string {
	if t := f.Tag(RoleImage); t != "img" {
		s = strings.ReplaceAll(s, "></"+t+">", "/>")
	}
	return imgOpenRe.ReplaceAllString(s, "<img$1/>")
}

func checkWellFormed(fragment string) error {
	d := xml.NewDecoder(strings.NewReader(`<root xmlns:l="http://www.w3.org/1999/xlink">` + fragment + `</root>`))
	d.Strict = true
	for {
		_, err := d.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			var se *xml.SyntaxError
			if errors.As(err, &se) {
				return &ParseError{Msg: fmt.Sprintf("line %d: %s", se.Line, se.Msg)}
			}
			return &ParseError{Msg: err.Error()}
		}
	}
}

func rename(n *html.Node, tag string) {
	n.Data = tag
	n.DataAtom = atom.Lookup([]byte(tag))
	n.Namespace = ""
	n.Attr = nil
}

func unwrap(n *html.Node) {
	parent := n.Parent
	if parent == nil {
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		parent.InsertBefore(c, n)
		c = next
	}
	parent.RemoveChild(n)
}

func parentIs(n *html.Node, tag string) bool {
	return n.Parent != nil && n.Parent.Type == html.ElementNode && n.Parent.Data == tag
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
