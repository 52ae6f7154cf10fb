package providers

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var ErrUnsupported = errors.New("unsupported site")

// Registry picks the extractor responsible for a book URL.
type Registry struct {
	list []Extractor
}

func NewRegistry(ex ...Extractor) *Registry {
	return &Registry{list: ex}
}

func (r *Registry) Select(raw string) (Extractor, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid book URL %q", raw)
	}

	for _, ex := range r.list {
		if ex.Match(u) {
			return ex, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, u.Host)
}

func (r *Registry) All() []Extractor {
	return append([]Extractor(nil), r.list...)
}

// HostIs reports whether u belongs to host or one of its subdomains.
func HostIs(u *url.URL, hosts ...string) bool {
	h := strings.ToLower(u.Hostname())
	for _, want := range hosts {
		if h == want || strings.HasSuffix(h, "."+want) {
			return true
		}
	}
	return false
}
