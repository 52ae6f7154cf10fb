package providers

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var ruMonths = map[string]time.Month{
	"янв": time.January,
	"фев": time.February,
	"мар": time.March,
	"апр": time.April,
	"мая": time.May,
	"май": time.May,
	"июн": time.June,
	"июл": time.July,
	"авг": time.August,
	"сен": time.September,
	"окт": time.October,
	"ноя": time.November,
	"дек": time.December,
}

var (
	ruDateRe  = regexp.MustCompile(`(\d{1,2})\s+([а-яё]+)\.?\s+(\d{4})(?:[^\d]+(\d{1,2}):(\d{2}))?`)
	numDateRe = regexp.MustCompile(`(\d{1,2})\.(\d{1,2})\.(\d{4})(?:[^\d]+(\d{1,2}):(\d{2}))?`)
	spaceRe   = regexp.MustCompile(`\s+`)
)

// ParseRuDate understands "5 марта 2021", "05 мар. 2021 г. 14:07" and
// "05.03.2021 14:07". The zero time is returned for anything else.
func ParseRuDate(s string) time.Time {
	s = strings.ToLower(spaceRe.ReplaceAllString(strings.TrimSpace(s), " "))

	if m := ruDateRe.FindStringSubmatch(s); m != nil {
		name := []rune(m[2])
		if len(name) < 3 {
			return time.Time{}
		}
		month, ok := ruMonths[string(name[:3])]
		if !ok {
			return time.Time{}
		}
		return makeDate(m[3], month, m[1], m[4], m[5])
	}

	if m := numDateRe.FindStringSubmatch(s); m != nil {
		mon, _ := strconv.Atoi(m[2])
		if mon < 1 || mon > 12 {
			return time.Time{}
		}
		return makeDate(m[3], time.Month(mon), m[1], m[4], m[5])
	}

	return time.Time{}
}

func makeDate(year string, month time.Month, day, hour, minute string) time.Time {
	y, _ := strconv.Atoi(year)
	d, _ := strconv.Atoi(day)
	h, _ := strconv.Atoi(hour)
	mi, _ := strconv.Atoi(minute)
	return time.Date(y, month, d, h, mi, 0, 0, time.UTC)
}

// ParseISODate accepts RFC 3339 timestamps and plain dates.
func ParseISODate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Title returns the text of the first node inside the first h1, which
// leaves out badges and counters sites append to the heading.
func Title(doc *goquery.Document) string {
	h1 := doc.Find("h1").First()
	if h1.Length() == 0 {
		return ""
	}
	n := h1.Nodes[0].FirstChild
	for n != nil && n.Type == html.TextNode && strings.TrimSpace(n.Data) == "" {
		n = n.NextSibling
	}
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}
	return strings.TrimSpace(goquery.NewDocumentFromNode(n).Text())
}

var jpegRe = regexp.MustCompile(`(?i)\.jpe?g($|\?)`)

// OrderCovers moves the first JPEG cover to the front and drops
// duplicates; some readers only accept JPEG covers.
func OrderCovers(covers []string) []string {
	var out []string
	if i := slices.IndexFunc(covers, jpegRe.MatchString); i >= 0 {
		out = append(out, covers[i])
	}
	out = append(out, covers...)
	return Unique(out)
}

// Unique drops empty and repeated strings, keeping the first occurrence.
func Unique(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// Texts collects the trimmed text of every selected node.
func Texts(sel *goquery.Selection) []string {
	var out []string
	sel.Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			out = append(out, t)
		}
	})
	return out
}

// Reverse returns a reversed copy; sites list chapters newest first.
func Reverse[T any](in []T) []T {
	out := slices.Clone(in)
	slices.Reverse(out)
	return out
}
