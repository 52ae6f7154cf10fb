package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/brogergvhs/ranobed/internal/providers"
	"github.com/brogergvhs/ranobed/internal/util"
)

func TestRegistryRoutes(t *testing.T) {
	reg := newRegistry(util.NewFetcher(nil, 1), 2)

	tests := []struct {
		url  string
		want string
	}{
		{"https://ranobes.com/ranobe/123-book.html", "ranobes"},
		{"https://tl.rulate.ru/book/42", "rulate"},
		{"https://jaomix.ru/category/book/", "jaomix"},
		{"https://xn--80ac9aeh6f.xn--p1ai/book", "ranoberf"},
		{"https://ранобэ.рф/book", "ranoberf"},
		{"https://ranobehub.org/ranobe/92-book", "ranobehub"},
	}
	for _, tt := range tests {
		ex, err := reg.Select(tt.url)
		if err != nil {
			t.Errorf("%s: %v", tt.url, err)
			continue
		}
		if ex.Name() != tt.want {
			t.Errorf("%s handled by %s, want %s", tt.url, ex.Name(), tt.want)
		}
	}

	if _, err := reg.Select("https://example.com/book"); !errors.Is(err, providers.ErrUnsupported) {
		t.Errorf("unknown host: %v", err)
	}
}

func TestSitesCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"sites"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	got := strings.Fields(out.String())
	want := []string{"ranobes", "rulate", "jaomix", "ranoberf", "ranobehub"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("sites = %v, want %v", got, want)
	}
}

func TestEditorFallback(t *testing.T) {
	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", "nano")
	if got := editor(""); got != "nano" {
		t.Errorf("editor() = %q", got)
	}
	if got := editor("code -w"); got != "code -w" {
		t.Errorf("configured editor ignored: %q", got)
	}
}
