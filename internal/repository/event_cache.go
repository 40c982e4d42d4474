package repository

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/opencenters/catalog-api/internal/store"
	appErrors "github.com/opencenters/catalog-api/pkg/errors"
)

// EventCache memoizes the raw serialized text of event documents, keyed
// by id. The text form avoids re-serialization on read. It is not
// cleared on a store pull unless the catalog's policy says so, so
// readers may see a stale document after an out-of-band change until
// the next local write overwrites it.
type EventCache struct {
	store   store.Store
	metrics LookupRecorder
	logger  *zap.Logger

	mu   sync.RWMutex
	docs map[int]string
}

// NewEventCache builds an empty cache.
func NewEventCache(st store.Store, metrics LookupRecorder, logger *zap.Logger) *EventCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventCache{store: st, metrics: metrics, logger: logger, docs: make(map[int]string)}
}

// Get returns the cached document text, fetching from the store on a
// miss.
func (c *EventCache) Get(ctx context.Context, id int) (string, error) {
	c.mu.RLock()
	raw, ok := c.docs[id]
	c.mu.RUnlock()
	if ok {
		c.record(true)
		return raw, nil
	}
	c.record(false)

	raw, err := c.store.GetText(ctx, store.EventPath(id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", appErrors.Clone(appErrors.ErrNotFound, "unknown event")
		}
		return "", appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to read event document")
	}

	c.mu.Lock()
	c.docs[id] = raw
	c.mu.Unlock()
	return raw, nil
}

// Put overwrites the cached text after a successful write.
func (c *EventCache) Put(id int, raw string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs[id] = raw
}

// Invalidate empties the cache.
func (c *EventCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs = make(map[int]string)
}

// Len returns the number of cached documents.
func (c *EventCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}

func (c *EventCache) record(hit bool) {
	if c.metrics != nil {
		c.metrics.RecordCacheLookup("events", hit)
	}
}
