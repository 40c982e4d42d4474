package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/opencenters/catalog-api/internal/models"
	"github.com/opencenters/catalog-api/internal/store"
	appErrors "github.com/opencenters/catalog-api/pkg/errors"
	"github.com/opencenters/catalog-api/pkg/geocode"
)

// Population describes how much of the center universe has been loaded.
type Population int

const (
	// PopulationEmpty means no center has been loaded yet.
	PopulationEmpty Population = iota
	// PopulationPartial means some centers were loaded lazily.
	PopulationPartial
	// PopulationFull means every center in the store has been
	// enumerated; an absent key is then authoritatively not found.
	PopulationFull
)

// CenterDirectory is the lazily-populated center cache. A pull from the
// external store empties it wholesale.
type CenterDirectory struct {
	store    store.Store
	geocoder geocode.Geocoder
	metrics  LookupRecorder
	logger   *zap.Logger

	mu         sync.RWMutex
	centers    map[string]*models.Center
	population Population
}

// NewCenterDirectory builds an empty directory.
func NewCenterDirectory(st store.Store, geocoder geocode.Geocoder, metrics LookupRecorder, logger *zap.Logger) *CenterDirectory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CenterDirectory{
		store:    st,
		geocoder: geocoder,
		metrics:  metrics,
		logger:   logger,
		centers:  make(map[string]*models.Center),
	}
}

// Get returns the center for id, fetching it from the store on a miss.
// When the directory is fully populated an absent key is not found
// without touching the store.
func (d *CenterDirectory) Get(ctx context.Context, id string) (*models.Center, error) {
	d.mu.RLock()
	center, ok := d.centers[id]
	full := d.population == PopulationFull
	d.mu.RUnlock()

	if ok {
		d.record(true)
		return center, nil
	}
	d.record(false)
	if full {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown center "+id)
	}

	loaded, err := d.fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.centers[id] = loaded
	if d.population == PopulationEmpty {
		d.population = PopulationPartial
	}
	d.mu.Unlock()
	return loaded, nil
}

// GetAll enumerates every center in the store, loads the ones not yet
// cached, marks the directory fully populated, and returns the mapping.
func (d *CenterDirectory) GetAll(ctx context.Context) (map[string]*models.Center, error) {
	d.mu.RLock()
	if d.population == PopulationFull {
		snapshot := d.snapshotLocked()
		d.mu.RUnlock()
		d.record(true)
		return snapshot, nil
	}
	d.mu.RUnlock()
	d.record(false)

	names, err := d.store.List(ctx, store.CentersDir)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list centers")
	}

	for _, name := range names {
		id := strings.TrimSuffix(name, ".json")
		if id == name {
			continue
		}
		d.mu.RLock()
		_, cached := d.centers[id]
		d.mu.RUnlock()
		if cached {
			continue
		}
		loaded, err := d.fetch(ctx, id)
		if err != nil {
			return nil, err
		}
		d.mu.Lock()
		d.centers[id] = loaded
		d.mu.Unlock()
	}

	d.mu.Lock()
	d.population = PopulationFull
	snapshot := d.snapshotLocked()
	d.mu.Unlock()
	return snapshot, nil
}

// Put replaces the cached record after a successful write.
func (d *CenterDirectory) Put(center *models.Center) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.centers[center.ID] = center
	if d.population == PopulationEmpty {
		d.population = PopulationPartial
	}
}

// Invalidate empties the directory. Coarse on purpose: correctness over
// freshness granularity.
func (d *CenterDirectory) Invalidate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.centers = make(map[string]*models.Center)
	d.population = PopulationEmpty
}

// State reports the current population state.
func (d *CenterDirectory) State() Population {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.population
}

func (d *CenterDirectory) fetch(ctx context.Context, id string) (*models.Center, error) {
	raw, err := d.store.GetText(ctx, store.CenterPath(id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown center "+id)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to read center "+id)
	}
	var center models.Center
	if err := json.Unmarshal([]byte(raw), &center); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "center document "+id+" could not be parsed")
	}
	if center.ID == "" {
		center.ID = id
	}

	if center.Fullcity == "" && d.geocoder != nil && center.Address != "" {
		if result, err := d.geocoder.ResolveAddress(ctx, center.Address); err == nil {
			center.Fullcity = result.Fullcity
		} else {
			// Enrichment degrades to an absent field.
			d.logger.Warn("geocoding failed", zap.String("center", id), zap.Error(err))
		}
	}
	return &center, nil
}

func (d *CenterDirectory) record(hit bool) {
	if d.metrics != nil {
		d.metrics.RecordCacheLookup("centers", hit)
	}
}

func (d *CenterDirectory) snapshotLocked() map[string]*models.Center {
	out := make(map[string]*models.Center, len(d.centers))
	for id, c := range d.centers {
		out[id] = c
	}
	return out
}
