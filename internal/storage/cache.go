package storage

import (
	"sort"
	"strings"
)

// Cache buffers writes on top of a base DB. Reads see pending writes.
// Nothing reaches the base until Commit; Discard drops everything.
type Cache struct {
	base    DB
	pending map[string][]byte // nil value marks a delete
}

// NewCache creates a write-buffering overlay over base.
func NewCache(base DB) *Cache {
	return &Cache{base: base, pending: make(map[string][]byte)}
}

// Get retrieves a value, preferring pending writes.
func (c *Cache) Get(key []byte) ([]byte, error) {
	if v, ok := c.pending[string(key)]; ok {
		if v == nil {
			return nil, ErrNotFound
		}
		return append([]byte(nil), v...), nil
	}
	return c.base.Get(key)
}

// Put buffers a write.
func (c *Cache) Put(key, value []byte) error {
	v := make([]byte, len(value))
	copy(v, value)
	c.pending[string(key)] = v
	return nil
}

// Delete buffers a delete.
func (c *Cache) Delete(key []byte) error {
	c.pending[string(key)] = nil
	return nil
}

// Has checks pending writes first, then the base.
func (c *Cache) Has(key []byte) (bool, error) {
	if v, ok := c.pending[string(key)]; ok {
		return v != nil, nil
	}
	return c.base.Has(key)
}

// ForEach merges base entries with pending writes and visits the result in
// ascending key order.
func (c *Cache) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	merged := make(map[string][]byte)
	err := c.base.ForEach(prefix, func(key, value []byte) error {
		merged[string(key)] = append([]byte(nil), value...)
		return nil
	})
	if err != nil {
		return err
	}

	p := string(prefix)
	for k, v := range c.pending {
		if !strings.HasPrefix(k, p) {
			continue
		}
		if v == nil {
			delete(merged, k)
		} else {
			merged[k] = v
		}
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := fn([]byte(k), append([]byte(nil), merged[k]...)); err != nil {
			return err
		}
	}
	return nil
}

// Dirty reports whether there are uncommitted writes.
func (c *Cache) Dirty() bool {
	return len(c.pending) > 0
}

// Commit flushes pending writes to the base. When the base is a Batcher
// the flush is atomic.
func (c *Cache) Commit() error {
	if len(c.pending) == 0 {
		return nil
	}

	keys := make([]string, 0, len(c.pending))
	for k := range c.pending {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var batch Batch
	if batcher, ok := c.base.(Batcher); ok {
		batch = batcher.NewBatch()
	} else {
		batch = &directBatch{db: c.base}
	}

	for _, k := range keys {
		var err error
		if v := c.pending[k]; v == nil {
			err = batch.Delete([]byte(k))
		} else {
			err = batch.Put([]byte(k), v)
		}
		if err != nil {
			return err
		}
	}
	if err := batch.Commit(); err != nil {
		return err
	}
	c.pending = make(map[string][]byte)
	return nil
}

// Discard drops all pending writes.
func (c *Cache) Discard() {
	c.pending = make(map[string][]byte)
}

// Close is a no-op. The base DB manages its own lifecycle.
func (c *Cache) Close() error {
	return nil
}

// directBatch writes straight through for bases without batch support.
type directBatch struct {
	db DB
}

func (d *directBatch) Put(key, value []byte) error { return d.db.Put(key, value) }
func (d *directBatch) Delete(key []byte) error     { return d.db.Delete(key) }
func (d *directBatch) Commit() error               { return nil }
