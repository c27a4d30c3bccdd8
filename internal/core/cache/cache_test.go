package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/tick/internal/core/checklist"
	"github.com/colonyops/tick/internal/core/expr"
	"github.com/colonyops/tick/internal/core/plan"
)

func cacheChecklist() checklist.Checklist {
	return checklist.Checklist{
		Name:    "Cached Review",
		Version: "1.0",
		Domain:  "ops",
		Variables: checklist.Variables{
			{Name: "environment", Prompt: "Environment"},
		},
		Sections: []checklist.Section{
			{Name: "Main", Items: []checklist.Item{{ID: "a-1", Check: "First"}}},
		},
	}
}

func TestCache_RoundTrip(t *testing.T) {
	c := New(t.TempDir())
	cl := cacheChecklist()
	bindings := expr.Bindings{"environment": "prod"}

	items, err := plan.Build(&cl, bindings)
	require.NoError(t, err)

	assert.Nil(t, c.ReadExpansion(&cl, bindings), "cold cache misses")

	c.WriteExpansion(&cl, bindings, items)
	got := c.ReadExpansion(&cl, bindings)
	assert.Equal(t, items, got)
}

func TestCache_KeyedByBindings(t *testing.T) {
	c := New(t.TempDir())
	cl := cacheChecklist()

	items, err := plan.Build(&cl, expr.Bindings{"environment": "prod"})
	require.NoError(t, err)
	c.WriteExpansion(&cl, expr.Bindings{"environment": "prod"}, items)

	assert.Nil(t, c.ReadExpansion(&cl, expr.Bindings{"environment": "dev"}))
}

func TestCache_KeyedByChecklistContent(t *testing.T) {
	c := New(t.TempDir())
	cl := cacheChecklist()
	bindings := expr.Bindings{"environment": "prod"}

	items, err := plan.Build(&cl, bindings)
	require.NoError(t, err)
	c.WriteExpansion(&cl, bindings, items)

	edited := cacheChecklist()
	edited.Sections[0].Items[0].Check = "Changed"
	assert.Nil(t, c.ReadExpansion(&edited, bindings))
}

func TestCache_VersionMismatchIgnored(t *testing.T) {
	dir := t.TempDir()
	c := New(dir)
	cl := cacheChecklist()
	bindings := expr.Bindings{"environment": "prod"}

	items, err := plan.Build(&cl, bindings)
	require.NoError(t, err)
	c.WriteExpansion(&cl, bindings, items)

	key, err := c.Key(&cl, bindings)
	require.NoError(t, err)
	path := filepath.Join(dir, key+".json")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var entry Entry
	require.NoError(t, json.Unmarshal(data, &entry))
	entry.Version = Version + 1
	stale, err := json.Marshal(entry)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, stale, 0o644))

	assert.Nil(t, c.ReadExpansion(&cl, bindings))
}

func TestCache_CorruptEntryIgnored(t *testing.T) {
	dir := t.TempDir()
	c := New(dir)
	cl := cacheChecklist()
	bindings := expr.Bindings{"environment": "prod"}

	key, err := c.Key(&cl, bindings)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, key+".json"), []byte("junk"), 0o644))

	assert.Nil(t, c.ReadExpansion(&cl, bindings))
}

func TestCache_StatsCleanPrune(t *testing.T) {
	dir := t.TempDir()
	c := New(dir)
	cl := cacheChecklist()
	bindings := expr.Bindings{"environment": "prod"}

	items, err := plan.Build(&cl, bindings)
	require.NoError(t, err)
	c.WriteExpansion(&cl, bindings, items)

	stats, err := c.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Entries)
	assert.Positive(t, stats.TotalBytes)

	t.Run("prune keeps fresh entries", func(t *testing.T) {
		removed, err := c.Prune(24 * time.Hour)
		require.NoError(t, err)
		assert.Zero(t, removed)
	})

	t.Run("prune removes old entries", func(t *testing.T) {
		key, err := c.Key(&cl, bindings)
		require.NoError(t, err)
		old := time.Now().Add(-48 * time.Hour)
		require.NoError(t, os.Chtimes(filepath.Join(dir, key+".json"), old, old))

		removed, err := c.Prune(24 * time.Hour)
		require.NoError(t, err)
		assert.Equal(t, 1, removed)
	})

	t.Run("clean empties the cache", func(t *testing.T) {
		c.WriteExpansion(&cl, bindings, items)
		require.NoError(t, c.Clean())
		stats, err := c.Stats()
		require.NoError(t, err)
		assert.Zero(t, stats.Entries)
	})
}
