package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencenters/catalog-api/internal/models"
	appErrors "github.com/opencenters/catalog-api/pkg/errors"
)

func TestApplyEventChangesMergesWhitelistedFields(t *testing.T) {
	ev := models.FullEvent{}
	ev.Center = "x"
	err := ApplyEventChanges(&ev, map[string]string{
		"title":       "Spring Meeting",
		"startDate":   "2024-05-01",
		"endDate":     "2024-05-03",
		"startTime":   "18:30",
		"description": "Doors open early.",
	})
	require.NoError(t, err)
	assert.Equal(t, "Spring Meeting", ev.Title)
	assert.Equal(t, "2024-05-01", ev.StartDate)
	assert.Equal(t, "2024-05-03", ev.EndDate)
	assert.Equal(t, "18:30", ev.StartTime)
}

func TestApplyEventChangesIgnoresUnknownKeys(t *testing.T) {
	ev := models.FullEvent{}
	ev.Center = "x"
	err := ApplyEventChanges(&ev, map[string]string{
		"title":    "T",
		"hacker":   "payload",
		"users":    "nope",
		"fullcity": "not settable",
	})
	require.NoError(t, err)
	assert.Equal(t, "T", ev.Title)
	assert.Empty(t, ev.Fullcity)
}

func TestApplyEventChangesTitleTooLong(t *testing.T) {
	ev := models.FullEvent{}
	ev.Center = "x"
	ev.Title = "before"

	err := ApplyEventChanges(&ev, map[string]string{"title": strings.Repeat("a", 201)})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Contains(t, err.Error(), "title too long")
	assert.Equal(t, "before", ev.Title, "failed validation must not mutate the target")
}

func TestApplyEventChangesAtomicOnLateFailure(t *testing.T) {
	ev := models.FullEvent{}
	ev.Center = "x"
	ev.Title = "keep"
	ev.Description = "keep"

	// title is valid, description is not; neither may be applied.
	err := ApplyEventChanges(&ev, map[string]string{
		"title":       "new title",
		"description": strings.Repeat("d", 4001),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "description too long")
	assert.Equal(t, "keep", ev.Title)
	assert.Equal(t, "keep", ev.Description)
}

func TestApplyEventChangesDatePatterns(t *testing.T) {
	ev := models.FullEvent{}
	ev.Center = "x"

	require.NoError(t, ApplyEventChanges(&ev, map[string]string{"startDate": ""}), "empty dates are allowed")
	require.NoError(t, ApplyEventChanges(&ev, map[string]string{"startDate": "2024-12-31"}))

	err := ApplyEventChanges(&ev, map[string]string{"startDate": "31.12.2024"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "startDate")

	err = ApplyEventChanges(&ev, map[string]string{"startTime": "6pm"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "startTime")
	require.NoError(t, ApplyEventChanges(&ev, map[string]string{"startTime": "09:00"}))
}

func TestApplyEventChangesCenterImmutable(t *testing.T) {
	ev := models.FullEvent{}
	ev.Center = "x"

	err := ApplyEventChanges(&ev, map[string]string{"center": "y", "title": "T"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "center cannot be changed")
	assert.Empty(t, ev.Title)

	// Restating the current center is a no-op, not an error.
	require.NoError(t, ApplyEventChanges(&ev, map[string]string{"center": "x", "title": "T"}))
	assert.Equal(t, "T", ev.Title)
}

func TestApplyCenterChanges(t *testing.T) {
	c := models.Center{ID: "x", Name: "X", Country: "US", Users: []string{"u1"}}

	require.NoError(t, ApplyCenterChanges(&c, map[string]string{
		"name":    "X Center",
		"program": "Weekly meetings",
		"country": "DE",
		"users":   "u2",
	}))
	assert.Equal(t, "X Center", c.Name)
	assert.Equal(t, "Weekly meetings", c.Program)
	assert.Equal(t, "US", c.Country, "country is not in the whitelist")
	assert.Equal(t, []string{"u1"}, c.Users, "roster is not in the whitelist")

	err := ApplyCenterChanges(&c, map[string]string{"about": strings.Repeat("a", 4001)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "about too long")
}
