package chapters

import (
	"strconv"
	"strings"

	"github.com/brogergvhs/ranobed/internal/providers"
)

// Filter narrows the locators by a single chapter (title or 1-based
// index), an inclusive range "A-B" or a comma separated list. The first
// non-empty selector wins; with none set all locators are returned.
func Filter(all []providers.Locator, chapter, rng, list string) []providers.Locator {
	if chapter != "" {
		byTitle := FilterByTitle(all, chapter)
		if len(byTitle) > 0 {
			return byTitle
		}
		if idx, err := atoi(chapter); err == nil {
			if idx > 0 && idx <= len(all) {
				return []providers.Locator{all[idx-1]}
			}
		}
		return []providers.Locator{}
	}
	if rng != "" {
		return FilterRange(all, rng)
	}
	if list != "" {
		return FilterList(all, list)
	}
	return all
}

func FilterByTitle(all []providers.Locator, title string) []providers.Locator {
	var out []providers.Locator
	for _, l := range all {
		if strings.EqualFold(strings.TrimSpace(l.Title), strings.TrimSpace(title)) {
			out = append(out, l)
		}
	}
	return out
}

// FilterRange accepts "A-B" and the open form "A-".
func FilterRange(all []providers.Locator, rng string) []providers.Locator {
	parts := strings.Split(rng, "-")
	if len(parts) != 2 {
		return nil
	}
	start, err1 := atoi(parts[0])
	end, err2 := atoi(parts[1])
	if strings.TrimSpace(parts[1]) == "" {
		end, err2 = len(all), nil
	}
	if err1 != nil || err2 != nil {
		return nil
	}
	if start <= 0 || end <= 0 || start > end || end > len(all) {
		return nil
	}
	return all[start-1 : end]
}

func FilterList(all []providers.Locator, list string) []providers.Locator {
	out := []providers.Locator{}
	for n := range strings.SplitSeq(list, ",") {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		idx, err := atoi(n)
		if err != nil {
			continue
		}
		if idx > 0 && idx <= len(all) {
			out = append(out, all[idx-1])
		}
	}
	return out
}

// Describe renders the active selector for output file names.
func Describe(chapter, rng, list string) string {
	switch {
	case chapter != "":
		return "ch " + strings.TrimSpace(chapter)
	case rng != "":
		return strings.ReplaceAll(rng, " ", "")
	case list != "":
		return strings.ReplaceAll(list, " ", "")
	}
	return ""
}

func atoi(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}
