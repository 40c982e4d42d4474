package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/opencenters/catalog-api/internal/models"
	"github.com/opencenters/catalog-api/internal/store"
	appErrors "github.com/opencenters/catalog-api/pkg/errors"
)

// IndexRepository owns the ordered event summaries and the monotonic id
// counter, persisting the snapshot to the store on every mutation.
type IndexRepository struct {
	store  store.Store
	author store.Author
	logger *zap.Logger

	mu    sync.RWMutex
	index models.EventIndex
}

// NewIndexRepository constructs the index manager. Load must be called
// before use.
func NewIndexRepository(st store.Store, author store.Author, logger *zap.Logger) *IndexRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IndexRepository{store: st, author: author, logger: logger}
}

// Load deserializes the persisted snapshot, or rebuilds it by scanning
// every stored event document when no snapshot exists. An unparsable
// document during rebuild is fatal: no partial index is accepted.
func (r *IndexRepository) Load(ctx context.Context) error {
	raw, err := r.store.GetText(ctx, store.IndexFile)
	if err == nil {
		var idx models.EventIndex
		if err := json.Unmarshal([]byte(raw), &idx); err != nil {
			return appErrors.Wrap(err, appErrors.ErrStartupCorruption.Code, appErrors.ErrStartupCorruption.Status,
				"index snapshot could not be parsed")
		}
		// NextID must stay strictly above every id ever issued.
		for _, e := range idx.Events {
			if e.ID >= idx.NextID {
				idx.NextID = e.ID + 1
			}
		}
		if idx.NextID < 1 {
			idx.NextID = 1
		}
		r.mu.Lock()
		r.index = idx
		r.mu.Unlock()
		r.logger.Info("index snapshot loaded", zap.Int("events", len(idx.Events)), zap.Int("nextId", idx.NextID))
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to read index snapshot")
	}

	return r.rebuild(ctx)
}

func (r *IndexRepository) rebuild(ctx context.Context) error {
	names, err := r.store.List(ctx, store.EventsDir)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list event documents")
	}

	idx := models.EventIndex{Events: make([]models.EventIndexEntry, 0, len(names))}
	maxID := 0
	for _, name := range names {
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		raw, err := r.store.GetText(ctx, store.EventsDir+"/"+name)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status,
				fmt.Sprintf("failed to read event document %s", name))
		}
		var ev models.FullEvent
		if err := json.Unmarshal([]byte(raw), &ev); err != nil {
			return appErrors.Wrap(err, appErrors.ErrStartupCorruption.Code, appErrors.ErrStartupCorruption.Status,
				fmt.Sprintf("event document %s could not be parsed", name))
		}
		idx.Events = append(idx.Events, ev.Summary())
		if ev.ID > maxID {
			maxID = ev.ID
		}
	}
	idx.NextID = maxID + 1

	if err := r.store.SetJSON(ctx, store.IndexFile, idx, "rebuild event index", r.author); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to persist rebuilt index")
	}

	r.mu.Lock()
	r.index = idx
	r.mu.Unlock()
	r.logger.Info("index rebuilt from event documents", zap.Int("events", len(idx.Events)), zap.Int("nextId", idx.NextID))
	return nil
}

// Upsert replaces the entry with the same id in place, or appends when
// absent, then persists the whole snapshot.
func (r *IndexRepository) Upsert(ctx context.Context, entry models.EventIndexEntry) error {
	r.mu.Lock()
	replaced := false
	for i := range r.index.Events {
		if r.index.Events[i].ID == entry.ID {
			r.index.Events[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		r.index.Events = append(r.index.Events, entry)
	}
	snapshot := r.snapshotLocked()
	r.mu.Unlock()

	message := fmt.Sprintf("update index for event %d", entry.ID)
	if err := r.store.SetJSON(ctx, store.IndexFile, snapshot, message, r.author); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to persist index snapshot")
	}
	return nil
}

// AllocateID returns the id a new event would receive. The allocation is
// only burned by ConsumeID, so a failed creation never wastes an id.
func (r *IndexRepository) AllocateID() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index.NextID
}

// ConsumeID marks the current allocation as used. The new counter value
// reaches the store with the next snapshot write.
func (r *IndexRepository) ConsumeID() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.index.NextID++
}

// Entries returns a copy of the index entries in their stored order.
func (r *IndexRepository) Entries() []models.EventIndexEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.EventIndexEntry{}, r.index.Events...)
}

// Find returns the entry for id.
func (r *IndexRepository) Find(id int) (models.EventIndexEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.index.Events {
		if e.ID == id {
			return e, true
		}
	}
	return models.EventIndexEntry{}, false
}

func (r *IndexRepository) snapshotLocked() models.EventIndex {
	return models.EventIndex{
		Events: append([]models.EventIndexEntry{}, r.index.Events...),
		NextID: r.index.NextID,
	}
}
