package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencenters/catalog-api/internal/models"
	"github.com/opencenters/catalog-api/internal/store"
)

func seedQueryFixture(t *testing.T) (*QueryService, *store.MemStore) {
	t.Helper()
	st := store.NewMemStore()
	seedCenterDoc(t, st, models.Center{ID: "x", Name: "X Center", Country: "US"})
	seedCenterDoc(t, st, models.Center{ID: "y", Name: "Y Center", Country: "DE"})
	st.SeedText(store.IndexFile, `{
  "events": [
    {"id": 1, "startDate": "2024-05-01", "title": "A", "center": "x"},
    {"id": 2, "startDate": "2024-05-01", "title": "B", "center": "y"},
    {"id": 3, "startDate": "2024-04-20", "endDate": "2024-05-02", "title": "Long", "center": "x"},
    {"id": 4, "startDate": "2024-03-01", "title": "Past", "center": "x"},
    {"id": 5, "startDate": "2024-06-15", "title": "Future", "center": "ghost"}
  ],
  "nextId": 6
}`)
	catalog := newTestCatalog(t, st)
	svc := NewQueryService(catalog, nil)
	svc.now = func() time.Time {
		return time.Date(2024, time.May, 4, 12, 0, 0, 0, time.UTC)
	}
	return svc, st
}

func queryIDs(result *models.QueryResult) []int {
	var ids []int
	for _, ev := range result.Events {
		ids = append(ids, ev.ID)
	}
	return ids
}

func TestQueryDefaultsToRecentWindow(t *testing.T) {
	svc, _ := seedQueryFixture(t)

	// Default start is three days before "today"; event 4 fell out, and
	// the long-running event 3 survives because its end touches the
	// window.
	result, err := svc.Query(context.Background(), QueryRequest{})
	require.NoError(t, err)
	assert.Equal(t, 4, result.TotalCount)
	assert.Equal(t, []int{3, 1, 2, 5}, queryIDs(result))
}

func TestQueryExplicitWindow(t *testing.T) {
	svc, _ := seedQueryFixture(t)

	result, err := svc.Query(context.Background(), QueryRequest{Start: "2024-05-01", Stop: "2024-05-31"})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1, 2}, queryIDs(result))
}

func TestQuerySortsByStartDateThenID(t *testing.T) {
	svc, _ := seedQueryFixture(t)

	result, err := svc.Query(context.Background(), QueryRequest{Start: "2024-05-01", Stop: "2024-05-01"})
	require.NoError(t, err)
	// Events 1 and 2 share a start date; the id breaks the tie.
	assert.Equal(t, []int{3, 1, 2}, queryIDs(result))
}

func TestQueryCenterFilter(t *testing.T) {
	svc, _ := seedQueryFixture(t)

	result, err := svc.Query(context.Background(), QueryRequest{Start: "2024-01-01", Center: "x"})
	require.NoError(t, err)
	assert.Equal(t, []int{4, 3, 1}, queryIDs(result))

	result, err = svc.Query(context.Background(), QueryRequest{Start: "2024-01-01", Center: Wildcard})
	require.NoError(t, err)
	assert.Equal(t, 5, result.TotalCount)
}

func TestQueryCountryFilterDropsUnresolvableCenters(t *testing.T) {
	svc, _ := seedQueryFixture(t)

	result, err := svc.Query(context.Background(), QueryRequest{Start: "2024-01-01", Country: "US"})
	require.NoError(t, err)
	assert.Equal(t, []int{4, 3, 1}, queryIDs(result))

	// Event 5's center does not exist; without a country filter it is
	// listed anyway.
	result, err = svc.Query(context.Background(), QueryRequest{Start: "2024-01-01"})
	require.NoError(t, err)
	assert.Contains(t, queryIDs(result), 5)
}

func TestQueryPagination(t *testing.T) {
	svc, _ := seedQueryFixture(t)

	result, err := svc.Query(context.Background(), QueryRequest{Start: "2024-01-01", Skip: 1, Count: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, result.TotalCount, "total is taken before pagination")
	assert.Equal(t, []int{3, 1}, queryIDs(result))

	// Negative count is treated as its absolute value.
	result, err = svc.Query(context.Background(), QueryRequest{Start: "2024-01-01", Count: -2})
	require.NoError(t, err)
	assert.Len(t, result.Events, 2)

	// Skip past the end yields an empty page with the true total.
	result, err = svc.Query(context.Background(), QueryRequest{Start: "2024-01-01", Skip: 50})
	require.NoError(t, err)
	assert.Equal(t, 5, result.TotalCount)
	assert.Empty(t, result.Events)
}

func TestQueryCountClamp(t *testing.T) {
	st := store.NewMemStore()
	seedCenterDoc(t, st, models.Center{ID: "x", Country: "US"})
	entries := `{"events":[`
	for i := 1; i <= 120; i++ {
		if i > 1 {
			entries += ","
		}
		entries += fmt.Sprintf(`{"id":%d,"startDate":"2024-05-01","title":"E%d","center":"x"}`, i, i)
	}
	entries += `],"nextId":121}`
	st.SeedText(store.IndexFile, entries)
	catalog := newTestCatalog(t, st)
	svc := NewQueryService(catalog, nil)

	result, err := svc.Query(context.Background(), QueryRequest{Start: "2024-01-01", Count: 500})
	require.NoError(t, err)
	assert.Equal(t, 120, result.TotalCount)
	assert.Len(t, result.Events, 100)
}

func TestQueryAugmentsEntries(t *testing.T) {
	svc, _ := seedQueryFixture(t)

	result, err := svc.Query(context.Background(), QueryRequest{Start: "2024-04-20", Stop: "2024-04-20"})
	require.NoError(t, err)
	require.Len(t, result.Events, 1)
	ev := result.Events[0]
	assert.Equal(t, 3, ev.ID)
	assert.Equal(t, "Saturday - Thursday", ev.WeekdayRange)
	assert.Equal(t, "April 20 - May 2", ev.DateRange)
}
