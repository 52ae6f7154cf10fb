package run

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestProgress(t *testing.T) {
	r := New()
	var got []int
	r.Progress.Subscribe(func(done, total, percent int) {
		got = append(got, percent)
	})

	r.Progress.SetTotal(3)
	for range 3 {
		r.Progress.Inc()
	}
	want := []int{0, 0, 33, 66, 100}
	if len(got) != len(want) {
		t.Fatalf("notifications = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("notifications = %v, want %v", got, want)
		}
	}
	if done, total := r.Progress.Counts(); done != 3 || total != 3 {
		t.Errorf("Counts() = %d/%d", done, total)
	}

	r.Reset()
	if r.Progress.Percent() != 0 || got[len(got)-1] != 0 {
		t.Error("Reset must zero the counter and notify")
	}
}

func TestProgressConcurrent(t *testing.T) {
	var p Progress
	p.SetTotal(100)
	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Inc()
		}()
	}
	wg.Wait()
	if p.Percent() != 100 {
		t.Errorf("Percent() = %d", p.Percent())
	}
}

func TestNotes(t *testing.T) {
	r := New()
	n := r.Notes
	n.Add("first")
	n.Add(errors.New("boom"))
	n.Add("first")
	n.Add(struct {
		Code int `json:"code"`
	}{404})

	list := n.List()
	if len(list) != 3 {
		t.Fatalf("List() = %v", list)
	}
	if list[0] != "first" || list[1] != "boom" || !strings.Contains(list[2], `"code": 404`) {
		t.Errorf("List() = %v", list)
	}

	n.Remove("boom")
	n.Remove("missing")
	if n.Len() != 2 || n.List()[1] != list[2] {
		t.Errorf("after Remove: %v", n.List())
	}

	r.Reset()
	if n.Len() != 0 {
		t.Error("Reset must clear notes")
	}
}

func TestStringify(t *testing.T) {
	if got := Stringify(nil); got != "<nil>" {
		t.Errorf("nil = %q", got)
	}
	if got := Stringify(42); got != "42" {
		t.Errorf("int = %q", got)
	}
	if got := Stringify(func() {}); got == "" {
		t.Error("unmarshalable value must still render")
	}
}
