package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/opencenters/catalog-api/internal/models"
	"github.com/opencenters/catalog-api/internal/repository"
	appErrors "github.com/opencenters/catalog-api/pkg/errors"
)

const (
	// Wildcard matches any center or country.
	Wildcard = "*"
	// farFuture sorts after every real ISO date.
	farFuture = "9999-12-31"

	defaultStartBackDays = 3
	maxQueryCount        = 100
)

// QueryRequest narrows and pages the event listing. Zero values mean
// defaults: start = today minus 3 days, stop = unbounded, wildcard
// center and country, skip 0, count 100.
type QueryRequest struct {
	Start   string
	Stop    string
	Center  string
	Country string
	Skip    int
	Count   int
}

func (r *QueryRequest) normalize(now time.Time) {
	if r.Start == "" {
		r.Start = now.AddDate(0, 0, -defaultStartBackDays).Format(isoDate)
	}
	if r.Stop == "" {
		r.Stop = farFuture
	}
	if r.Center == "" {
		r.Center = Wildcard
	}
	if r.Country == "" {
		r.Country = Wildcard
	}
	if r.Skip < 0 {
		r.Skip = 0
	}
	if r.Count < 0 {
		r.Count = -r.Count
	}
	if r.Count == 0 || r.Count > maxQueryCount {
		r.Count = maxQueryCount
	}
}

// QueryService filters, joins, sorts, and paginates the index.
type QueryService struct {
	catalog *repository.Catalog
	logger  *zap.Logger
	now     func() time.Time
}

// NewQueryService constructs the query engine.
func NewQueryService(catalog *repository.Catalog, logger *zap.Logger) *QueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryService{catalog: catalog, logger: logger, now: time.Now}
}

// Query runs the engine. ISO dates order lexicographically, so the
// window filter compares strings. Events whose window touches
// [start, stop] survive; the country filter drops entries whose
// resolved center's country differs; results are sorted by
// (startDate, id) and TotalCount is taken before pagination.
func (s *QueryService) Query(ctx context.Context, req QueryRequest) (*models.QueryResult, error) {
	req.normalize(s.now())

	type match struct {
		entry  models.EventIndexEntry
		center *models.Center
	}

	var matches []match
	for _, entry := range s.catalog.Index.Entries() {
		last := entry.EndDate
		if last == "" {
			last = entry.StartDate
		}
		if last < req.Start || entry.StartDate > req.Stop {
			continue
		}
		if req.Center != Wildcard && entry.Center != req.Center {
			continue
		}

		// Resolving the center populates the directory as a side
		// effect; a missing center only disqualifies the entry when a
		// country filter is active.
		center, err := s.catalog.Centers.Get(ctx, entry.Center)
		if err != nil && !errors.Is(err, appErrors.ErrNotFound) {
			return nil, err
		}
		if req.Country != Wildcard && (center == nil || center.Country != req.Country) {
			continue
		}
		matches = append(matches, match{entry: entry, center: center})
	}

	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i].entry, matches[j].entry
		if a.StartDate != b.StartDate {
			return a.StartDate < b.StartDate
		}
		return a.ID < b.ID
	})

	total := len(matches)
	if req.Skip < len(matches) {
		matches = matches[req.Skip:]
	} else {
		matches = nil
	}
	if len(matches) > req.Count {
		matches = matches[:req.Count]
	}

	events := make([]models.EventListEntry, 0, len(matches))
	for _, m := range matches {
		events = append(events, Augment(m.entry, m.center))
	}
	return &models.QueryResult{TotalCount: total, Events: events}, nil
}
