package images

import "sync"

// Cache stores each image once under its content id and keeps a separate
// alias index from source URLs to that id. It is shared by every chapter
// of a run and is safe for concurrent use. Entries are never evicted.
type Cache struct {
	mu     sync.RWMutex
	byID   map[string]*Info
	alias  map[string]string
	order  []string
	onSave func(*Info)
}

func NewCache() *Cache {
	return &Cache{
		byID:  map[string]*Info{},
		alias: map[string]string{},
	}
}

// Lookup resolves a content id or a known URL.
func (c *Cache) Lookup(key string) (*Info, bool) {
	if key == "" {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if info, ok := c.byID[key]; ok {
		return info, true
	}
	if id, ok := c.alias[key]; ok {
		return c.byID[id], true
	}
	return nil, false
}

// Put stores info unless an entry with the same content already exists,
// and points every alias at the stored entry. The stored entry is
// returned, so callers always continue with the canonical instance.
func (c *Cache) Put(info *Info, aliases ...string) *Info {
	c.mu.Lock()

	stored, ok := c.byID[info.ID]
	if !ok {
		stored = info
		c.byID[info.ID] = info
		c.order = append(c.order, info.ID)
	}
	for _, a := range aliases {
		if a != "" {
			c.alias[a] = stored.ID
		}
	}
	hook := c.onSave
	c.mu.Unlock()

	if !ok && hook != nil {
		hook(stored)
	}
	return stored
}

// Alias points key at an already stored entry.
func (c *Cache) Alias(key string, info *Info) {
	if key == "" || info == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byID[info.ID]; ok {
		c.alias[key] = info.ID
	}
}

// Images returns the stored entries in the order they were first added.
func (c *Cache) Images() []*Info {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Info, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}

// OnSave registers a callback invoked once per newly stored image.
func (c *Cache) OnSave(fn func(*Info)) {
	c.mu.Lock()
	c.onSave = fn
	c.mu.Unlock()
}
