package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStoreRoundTrip(t *testing.T) {
	st := NewMemStore()
	ctx := context.Background()

	_, err := st.GetText(ctx, "missing.json")
	assert.ErrorIs(t, err, ErrNotFound)

	author := Author{Name: "tester", Email: "tester@localhost"}
	require.NoError(t, st.SetJSON(ctx, "index.json", map[string]int{"nextId": 1}, "init index", author))

	text, err := st.GetText(ctx, "index.json")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"nextId\": 1\n}\n", text, "documents are pretty-printed with a trailing newline")

	commits := st.Commits()
	require.Len(t, commits, 1)
	assert.Equal(t, "index.json", commits[0].Path)
	assert.Equal(t, "init index", commits[0].Message)
	assert.Equal(t, author, commits[0].Author)
}

func TestMemStoreListOnlyDirectChildren(t *testing.T) {
	st := NewMemStore()
	st.SeedText("current/000002.json", "{}")
	st.SeedText("current/000001.json", "{}")
	st.SeedText("current/archive/000003.json", "{}")
	st.SeedText("centers/x.json", "{}")

	names, err := st.List(context.Background(), EventsDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001.json", "000002.json"}, names)
}

func TestMemStoreSeedDoesNotCommit(t *testing.T) {
	st := NewMemStore()
	st.SeedText("centers/x.json", "{}")
	assert.Empty(t, st.Commits())

	st.Delete("centers/x.json")
	_, err := st.GetText(context.Background(), "centers/x.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemStoreFirePullNotifiesSubscribers(t *testing.T) {
	st := NewMemStore()
	var got []bool
	st.Subscribe(func(isPull bool) { got = append(got, isPull) })
	st.Subscribe(func(isPull bool) { got = append(got, isPull) })

	st.FirePull(true)
	st.FirePull(false)
	assert.Equal(t, []bool{true, true, false, false}, got)
}

func TestPathHelpers(t *testing.T) {
	assert.Equal(t, "current/000042.json", EventPath(42))
	assert.Equal(t, "current/000001.json", EventPath(1))
	assert.Equal(t, "centers/x.json", CenterPath("x"))
}
