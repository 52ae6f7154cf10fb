package markup

import (
	"html"
	"regexp"
	"strconv"
)

// Markup-significant characters are replaced by their full-width forms so
// the unescaped text can never be mistaken for a tag or an entity.
var entityTable = map[string]string{
	"&amp;":  "＆",
	"&lt;":   "＜",
	"&gt;":   "＞",
	"&quot;": `"`,
	"&apos;": "'",
	"&nbsp;": " ",
}

var entityRe = regexp.MustCompile(`&#?[0-9A-Za-z]+;`)

// unescape resolves entity references in serialized markup. Numeric and
// common named entities use the fast table; the rest are decoded by the
// HTML entity database.
func unescape(s string) string {
	return entityRe.ReplaceAllStringFunc(s, func(m string) string {
		if r, ok := entityTable[m]; ok {
			return r
		}

		if m[1] == '#' {
			var code int64
			var err error
			if m[2] == 'x' || m[2] == 'X' {
				code, err = strconv.ParseInt(m[3:len(m)-1], 16, 32)
			} else {
				code, err = strconv.ParseInt(m[2:len(m)-1], 10, 32)
			}
			if err != nil {
				return m
			}

			switch code {
			case 38:
				return "＆"
			case 60:
				return "＜"
			case 62:
				return "＞"
			case 160:
				return " "
			}
			if code > 0 && code <= 0x10ffff {
				return string(rune(code))
			}
			return m
		}

		u := html.UnescapeString(m)
		switch u {
		case "&":
			return "＆"
		case "<":
			return "＜"
		case ">":
			return "＞"
		}
		return u
	})
}
