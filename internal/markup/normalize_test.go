package markup

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/brogergvhs/ranobed/internal/images"
)

var (
	pngBytes = append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, []byte("not really a png")...)
	pngID    = images.HashID(pngBytes)
)

func dataResolver(t *testing.T) (Resolver, *images.Cache) {
	t.Helper()
	cache := images.NewCache()
	d := images.NewDownloader(nil, cache, images.Options{Book: "Book"})
	return func(ctx context.Context, src string) *images.Info {
		return d.Download(ctx, "Chapter", src, "")
	}, cache
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		in     string
		want   string
	}{
		{
			name:   "fb2 inline remap",
			format: FB2,
			in:     `<p><i>a</i> <u>b</u> <del>c</del> <mark>d</mark></p>`,
			want:   `<p><emphasis>a</emphasis> <emphasis>b</emphasis> <strikethrough>c</strikethrough> <strong>d</strong></p>`,
		},
		{
			name:   "epub inline remap",
			format: EPUB,
			in:     `<p><em>a</em> <ins>b</ins> <strike>c</strike> <strong>d</strong></p>`,
			want:   `<p><i>a</i> <u>b</u> <s>c</s> <b>d</b></p>`,
		},
		{
			name:   "line breaks split paragraphs",
			format: EPUB,
			in:     "<p>first<br>second<br/> <br class=\"x\">third</p>",
			want:   `<p>first</p><p>second</p><p>third</p>`,
		},
		{
			name:   "block and inline containers",
			format: EPUB,
			in:     `<div>one <span>two</span></div><div style="display: inline">three</div>`,
			want:   `<p>one two</p><p>three</p>`,
		},
		{
			name:   "quote block",
			format: EPUB,
			in:     `<div class="quote">said</div>`,
			want:   `<blockquote><p>said</p></blockquote>`,
		},
		{
			name:   "fb2 quote block",
			format: FB2,
			in:     `<blockquote>said</blockquote>`,
			want:   `<cite><p>said</p></cite>`,
		},
		{
			name:   "site noise removed",
			format: FB2,
			in:     `<p>keep</p><div class="message-delete">x</div><div class="splitnewsnavigation">nav</div><script>evil()</script><style>p{}</style>`,
			want:   `<p>keep</p>`,
		},
		{
			name:   "attributes stripped",
			format: EPUB,
			in:     `<p class="x" style="color:red" onclick="y()">t</p>`,
			want:   `<p>t</p>`,
		},
		{
			name:   "entities",
			format: EPUB,
			in:     `<p>a &amp; b &lt;c&gt; &quot;q&quot;&nbsp;x</p>`,
			want:   `<p>a ＆ b ＜c＞ "q" x</p>`,
		},
		{
			name:   "section children become paragraphs",
			format: FB2,
			in:     `<section><span>a</span></section>`,
			want:   `<section><p>a</p></section>`,
		},
		{
			name:   "empty paragraphs dropped",
			format: EPUB,
			in:     `<p> </p><p>x</p><p>&nbsp;</p>`,
			want:   `<p>x</p>`,
		},
		{
			name:   "links unwrapped into underline",
			format: EPUB,
			in:     `<p><a href="https://example.com">link</a></p>`,
			want:   `<p><u>link</u></p>`,
		},
		{
			name:   "images dropped without resolver",
			format: EPUB,
			in:     `<p>a<img src="/a.png" class="c" alt="x">b</p>`,
			want:   `<p>ab</p>`,
		},
		{
			name:   "fb2 images dropped without resolver",
			format: FB2,
			in:     `<p>About</p><img src="https://example.com/c.jpg">`,
			want:   `<p>About</p>`,
		},
		{
			name:   "epub content reference kept",
			format: EPUB,
			in:     `<p><img src="images/` + pngID + `.png" class="c" alt="say &quot;hi&quot;"></p>`,
			want:   `<p><img src="images/` + pngID + `.png" alt="say 'hi'"/></p>`,
		},
		{
			name:   "fb2 content reference kept",
			format: FB2,
			in:     `<p>a<image l:href="#` + pngID + `" title="t"/>b</p>`,
			want:   `<p>a<image l:href="#` + pngID + `" title="t"/>b</p>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(context.Background(), tt.in, tt.format)
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q)\n got %q\nwant %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	src := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
	inputs := []string{
		`<p><em>a</em> text</p><div>block</div>`,
		`<blockquote>said<br>twice</blockquote><p>after</p>`,
		`<p>x &amp; y</p><h3>Title</h3>`,
		`<section><span>a</span><div>b</div></section>`,
		`<p>a<img src="` + src + `" title="t">b</p>`,
		`<div><img src="` + src + `" alt="pic"></div><p>tail</p>`,
	}

	for _, f := range []Format{FB2, EPUB} {
		for _, in := range inputs {
			resolve, cache := dataResolver(t)
			ctx := context.Background()

			once, err := Normalize(ctx, in, f, WithImages(resolve))
			if err != nil {
				t.Fatalf("%s first pass %q: %v", f.Name, in, err)
			}
			twice, err := Normalize(ctx, once, f, WithImages(resolve))
			if err != nil {
				t.Fatalf("%s second pass %q: %v", f.Name, once, err)
			}
			plain, err := Normalize(ctx, once, f)
			if err != nil {
				t.Fatalf("%s pass without resolver %q: %v", f.Name, once, err)
			}

			if once != twice || once != plain {
				t.Errorf("%s not idempotent for %q\nonce  %q\ntwice %q\nplain %q", f.Name, in, once, twice, plain)
			}
			if strings.Contains(in, "<img") {
				if !strings.Contains(once, "<"+f.Tag(RoleImage)+" ") {
					t.Errorf("%s lost the image of %q: %q", f.Name, in, once)
				}
				if cache.Len() != 1 {
					t.Errorf("%s cache holds %d images, want 1", f.Name, cache.Len())
				}
			}
			if f.Name == FB2.Name && strings.Contains(once, "<img") {
				t.Errorf("fb2 output contains an img element: %q", once)
			}
		}
	}
}

func TestNormalizeDataImage(t *testing.T) {
	resolve, cache := dataResolver(t)
	src := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
	in := `<b>bold</b><script>evil()</script><img src="` + src + `">`

	got, err := Normalize(context.Background(), in, EPUB, WithImages(resolve))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	want := `<b>bold</b><img src="images/` + pngID + `.png"/>`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if cache.Len() != 1 {
		t.Errorf("cache holds %d images, want 1", cache.Len())
	}
}

func TestNormalizeFB2Image(t *testing.T) {
	resolve, cache := dataResolver(t)
	src := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
	in := `<p>a<img src="` + src + `" title="t">b</p>`

	got, err := Normalize(context.Background(), in, FB2, WithImages(resolve))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	want := `<p>a<image l:href="#` + pngID + `" title="t"/>b</p>`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	info, ok := cache.Lookup(pngID)
	if !ok {
		t.Fatal("image missing from cache")
	}
	if info.Base64() != base64.StdEncoding.EncodeToString(pngBytes) {
		t.Error("base64 payload does not match image bytes")
	}
}

func TestNormalizeDropsUnresolvedImages(t *testing.T) {
	none := func(context.Context, string) *images.Info { return nil }

	got, err := Normalize(context.Background(), `<p>a<img src="x.png">b</p>`, EPUB, WithImages(none))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got != `<p>ab</p>` {
		t.Errorf("got %q", got)
	}
}

func TestNormalizeCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	resolve := func(ctx context.Context, src string) *images.Info {
		cancel()
		<-ctx.Done()
		return nil
	}

	_, err := Normalize(ctx, `<p><img src="a.png"><img src="b.png"></p>`, EPUB, WithImages(resolve), WithConcurrency(1))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestCheckWellFormed(t *testing.T) {
	if err := checkWellFormed(`<p>a<image l:href="#x"/></p>`); err != nil {
		t.Errorf("valid fragment rejected: %v", err)
	}

	err := checkWellFormed(`<p>a<b>b</p>`)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *ParseError", err)
	}
	if !strings.HasPrefix(pe.Error(), "parsererror") {
		t.Errorf("unexpected message %q", pe.Error())
	}
}

func TestUnescape(t *testing.T) {
	tests := map[string]string{
		"&amp;":       "＆",
		"&#38;&#60;":  "＆＜",
		"&#x3e;":      "＞",
		"&#8470;":     "№",
		"&hellip;":    "…",
		"&unknown;":   "&unknown;",
		"plain text":  "plain text",
		"&#160;space": " space",
	}
	for in, want := range tests {
		if got := unescape(in); got != want {
			t.Errorf("unescape(%q) = %q, want %q", in, got, want)
		}
	}
}
