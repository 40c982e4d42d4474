package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencenters/catalog-api/internal/models"
	"github.com/opencenters/catalog-api/internal/store"
	appErrors "github.com/opencenters/catalog-api/pkg/errors"
)

func newExportFixture(t *testing.T) *ExportService {
	t.Helper()
	st := store.NewMemStore()
	seedCenterDoc(t, st, models.Center{ID: "x", Name: "X Center", Address: "1 Main St", Country: "US"})
	st.SeedText(store.IndexFile, `{
  "events": [
    {"id": 1, "startDate": "2024-05-01", "title": "A", "center": "x"},
    {"id": 2, "startDate": "2024-05-02", "endDate": "2024-05-03", "title": "B", "center": "x"}
  ],
  "nextId": 3
}`)
	catalog := newTestCatalog(t, st)
	query := NewQueryService(catalog, nil)
	query.now = func() time.Time {
		return time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	}
	return NewExportService(query, nil)
}

func TestExportCSV(t *testing.T) {
	svc := newExportFixture(t)

	result, err := svc.Render(context.Background(), QueryRequest{}, "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Equal(t, "events.csv", result.Filename)

	want := "ID,Title,Center,Start,End,City\n" +
		"1,A,x,2024-05-01,,\"Springfield, US\"\n" +
		"2,B,x,2024-05-02,2024-05-03,\"Springfield, US\"\n"
	assert.Equal(t, want, string(result.Data))
}

func TestExportCSVIsDefaultFormat(t *testing.T) {
	svc := newExportFixture(t)

	result, err := svc.Render(context.Background(), QueryRequest{}, "")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
}

func TestExportPDF(t *testing.T) {
	svc := newExportFixture(t)

	result, err := svc.Render(context.Background(), QueryRequest{}, "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.Equal(t, "events.pdf", result.Filename)
	require.NotEmpty(t, result.Data)
	assert.Equal(t, "%PDF", string(result.Data[:4]))
}

func TestExportUnknownFormat(t *testing.T) {
	svc := newExportFixture(t)

	_, err := svc.Render(context.Background(), QueryRequest{}, "xlsx")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
