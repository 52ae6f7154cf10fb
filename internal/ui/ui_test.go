package ui

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/brogergvhs/ranobed/internal/images"
	"github.com/brogergvhs/ranobed/internal/run"
)

func TestLoggerLevels(t *testing.T) {
	tests := []struct {
		debug     bool
		wantDebug bool
	}{
		{false, false},
		{true, true},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		l := NewLoggerTo(&buf, tt.debug)
		l.Debugf("fetching %s\n", "a")
		l.Infof("saved %d", 3)
		l.Warnf("slow")
		l.Errorf("failed: %v", io.EOF)

		out := buf.String()
		if got := strings.Contains(out, "fetching a"); got != tt.wantDebug {
			t.Errorf("debug=%v: debug line present = %v\n%s", tt.debug, got, out)
		}
		for _, want := range []string{"level=INFO", `msg="saved 3"`, "level=WARN", "level=ERROR", `msg="failed: EOF"`} {
			if !strings.Contains(out, want) {
				t.Errorf("debug=%v: missing %q in\n%s", tt.debug, want, out)
			}
		}
		if strings.Contains(out, `\n`) {
			t.Errorf("trailing newline kept: %s", out)
		}
	}
}

func TestStats(t *testing.T) {
	var s Stats
	c := images.NewCache()
	c.OnSave(s.Image)
	c.Put(images.NewInfo("a", make([]byte, 2048)))
	c.Put(images.NewInfo("b", []byte{1, 2, 3}))
	s.TotalChapters.Store(4)

	if got := s.TotalImages.Load(); got != 2 {
		t.Errorf("images = %d", got)
	}
	if got, want := s.Summary(), "4 chapters, 2 images (2.00 KB)"; got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}

func TestProgressFollowsRun(t *testing.T) {
	pm := NewProgressManager(io.Discard)
	h := pm.Register("book", &Stats{})

	r := run.New()
	h.Attach(r.Progress)
	r.Progress.SetTotal(3)
	for range 3 {
		r.Progress.Inc()
	}
	if got := h.total.Load(); got != 3 {
		t.Errorf("total = %d", got)
	}
	h.MarkDone(true)
	h.MarkDone(false)
	pm.Close()

	if !h.bar.Completed() {
		t.Error("bar not completed")
	}
}
