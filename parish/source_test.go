package parish

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testContentDir = "testdata/content"

// copyContent copies the fixture content into a temp dir the test may edit.
func copyContent(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	entries, err := os.ReadDir(testContentDir)
	require.NoError(t, err)
	for _, e := range entries {
		data, err := os.ReadFile(filepath.Join(testContentDir, e.Name()))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, e.Name()), data, 0o600))
	}
	return dir
}

func TestNewSource(t *testing.T) {
	_, err := NewSource(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	_, err = NewSource(filepath.Join(testContentDir, SettingsFile))
	assert.Error(t, err)

	src, err := NewSource(testContentDir)
	require.NoError(t, err)
	assert.Equal(t, testContentDir, src.Dir())
}

func TestSourceContent(t *testing.T) {
	src, err := NewSource(testContentDir)
	require.NoError(t, err)

	c, err := src.Content(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "St. Joseph Parish", c.Settings.Name)
	assert.Len(t, c.MassTimes, 3)
	assert.Len(t, c.Sacraments, 2)

	var ids []string
	for _, n := range c.News {
		ids = append(ids, n.ID)
	}
	if diff := cmp.Diff([]string{"advent-retreat", "new-choir", "parish-picnic"}, ids); diff != "" {
		t.Errorf("news order mismatch (-want +got):\n%s", diff)
	}
}

func TestSourceChurch(t *testing.T) {
	src, err := NewSource(testContentDir)
	require.NoError(t, err)
	ctx := context.Background()

	got, err := src.Church(ctx, "st-anne")
	require.NoError(t, err)
	want := Church{
		ID:          "st-anne",
		Name:        "St. Anne Chapel",
		Address:     "4 Mill Lane, Millbrook",
		Description: "Built in 1887.",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("church mismatch (-want +got):\n%s", diff)
	}

	_, err = src.Church(ctx, "st-nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSourceOptionalAndRequiredFiles(t *testing.T) {
	dir := t.TempDir()
	src, err := NewSource(dir)
	require.NoError(t, err)
	ctx := context.Background()

	times, err := src.MassTimes(ctx)
	require.NoError(t, err)
	assert.Empty(t, times)

	_, err = src.Settings(ctx)
	assert.ErrorContains(t, err, SettingsFile)

	_, err = src.Content(ctx)
	assert.Error(t, err)
}

func TestSourceDecodeError(t *testing.T) {
	dir := copyContent(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, NewsFile), []byte("[{"), 0o600))

	src, err := NewSource(dir)
	require.NoError(t, err)

	_, err = src.Content(context.Background())
	assert.ErrorContains(t, err, "decode news.json")
}

func TestSourceCancelled(t *testing.T) {
	src, err := NewSource(testContentDir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Settings(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEntityKey(t *testing.T) {
	assert.Equal(t, "church-entity-st-joseph", EntityKey("st-joseph"))

	id, ok := ParseEntityKey("church-entity-st-anne")
	assert.True(t, ok)
	assert.Equal(t, "st-anne", id)

	_, ok = ParseEntityKey("church-entity-")
	assert.False(t, ok)
	_, ok = ParseEntityKey(ContentKey)
	assert.False(t, ok)
}
