// Package run holds the state observed by the UI while one book is being
// downloaded: a progress counter and a set of user-facing notifications.
// A fresh Run is created for every download.
package run

import (
	"encoding/json"
	"fmt"
	"sync"
)

type Run struct {
	Progress *Progress
	Notes    *Notes
}

func New() *Run {
	return &Run{
		Progress: &Progress{},
		Notes:    &Notes{set: map[string]struct{}{}},
	}
}

// Reset clears both the counter and the notifications.
func (r *Run) Reset() {
	r.Progress.Reset()
	r.Notes.Clear()
}

// Progress counts completed chapters out of a total. Subscribers receive
// done, total and the integer percentage after every change.
type Progress struct {
	mu    sync.Mutex
	total int
	done  int
	subs  []func(done, total, percent int)
}

func (p *Progress) Subscribe(fn func(done, total, percent int)) {
	p.mu.Lock()
	p.subs = append(p.subs, fn)
	done, total := p.done, p.total
	p.mu.Unlock()

	fn(done, total, percent(done, total))
}

func (p *Progress) SetTotal(total int) {
	p.mu.Lock()
	p.total = total
	p.mu.Unlock()
	p.notify()
}

func (p *Progress) Inc() {
	p.mu.Lock()
	p.done++
	p.mu.Unlock()
	p.notify()
}

func (p *Progress) Reset() {
	p.mu.Lock()
	p.done, p.total = 0, 0
	p.mu.Unlock()
	p.notify()
}

// Percent returns the completed share in whole percents.
func (p *Progress) Percent() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return percent(p.done, p.total)
}

func (p *Progress) Counts() (done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done, p.total
}

func (p *Progress) notify() {
	p.mu.Lock()
	done, total := p.done, p.total
	subs := append([]func(int, int, int){}, p.subs...)
	p.mu.Unlock()

	pc := percent(done, total)
	for _, fn := range subs {
		fn(done, total, pc)
	}
}

func percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	return done * 100 / total
}

// Notes is an ordered set of dismissible messages.
type Notes struct {
	mu    sync.Mutex
	set   map[string]struct{}
	order []string
}

// Add stringifies v and records it once.
func (n *Notes) Add(v any) {
	s := Stringify(v)
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.set[s]; ok {
		return
	}
	n.set[s] = struct{}{}
	n.order = append(n.order, s)
}

func (n *Notes) Remove(s string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.set[s]; !ok {
		return
	}
	delete(n.set, s)
	for i, v := range n.order {
		if v == s {
			n.order = append(n.order[:i], n.order[i+1:]...)
			break
		}
	}
}

func (n *Notes) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.set = map[string]struct{}{}
	n.order = nil
}

func (n *Notes) List() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.order...)
}

func (n *Notes) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.order)
}

// Stringify renders arbitrary values the way they are shown to the user.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return "<nil>"
	case string:
		return t
	case error:
		return t.Error()
	case fmt.Stringer:
		return t.String()
	}

	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
