package repository

import (
	"context"

	"go.uber.org/zap"

	"github.com/opencenters/catalog-api/internal/store"
	"github.com/opencenters/catalog-api/pkg/geocode"
)

// LookupRecorder receives cache hit/miss observations.
type LookupRecorder interface {
	RecordCacheLookup(cache string, hit bool)
}

// CatalogOptions tunes catalog construction.
type CatalogOptions struct {
	// Author attributes snapshot commits.
	Author store.Author
	// InvalidateEventsOnPull extends pull invalidation to the event
	// cache. Off by default: the event cache deliberately survives a
	// pull under single-writer usage.
	InvalidateEventsOnPull bool
	// Metrics, when set, receives cache lookup observations.
	Metrics LookupRecorder
}

// Catalog bundles the three process-wide caches behind one object with
// a single invalidation entry point. It subscribes to the store's pull
// notification at construction, so invalidation is synchronous with
// respect to reads issued after the notification.
type Catalog struct {
	Index   *IndexRepository
	Centers *CenterDirectory
	Events  *EventCache

	logger           *zap.Logger
	invalidateEvents bool
}

// NewCatalog wires the caches to the store and geocoder and registers
// the pull handler.
func NewCatalog(st store.Store, geocoder geocode.Geocoder, logger *zap.Logger, opts CatalogOptions) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Catalog{
		Index:            NewIndexRepository(st, opts.Author, logger),
		Centers:          NewCenterDirectory(st, geocoder, opts.Metrics, logger),
		Events:           NewEventCache(st, opts.Metrics, logger),
		logger:           logger,
		invalidateEvents: opts.InvalidateEventsOnPull,
	}
	st.Subscribe(func(isPull bool) {
		if isPull {
			c.Invalidate()
		}
	})
	return c
}

// Load initializes the index from the store.
func (c *Catalog) Load(ctx context.Context) error {
	return c.Index.Load(ctx)
}

// Invalidate clears the center directory, and the event cache when the
// pull policy extends to it. The in-memory index is left alone: it is
// this process's authoritative working state, and its snapshot is a
// derived artifact.
func (c *Catalog) Invalidate() {
	c.Centers.Invalidate()
	if c.invalidateEvents {
		c.Events.Invalidate()
	}
	c.logger.Info("caches invalidated after store pull", zap.Bool("events_included", c.invalidateEvents))
}
