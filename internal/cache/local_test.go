package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewLocalCache(filepath.Join(t.TempDir(), "nested"))

	_, err := c.Get(ctx, testKey("src"))
	assert.ErrorIs(t, err, ErrCacheMiss)

	entry := testEntry("src")
	require.NoError(t, c.Put(ctx, entry))

	got, err := c.Get(ctx, testKey("src"))
	require.NoError(t, err)
	assert.Equal(t, entry.Key, got.Key)
	assert.Equal(t, entry.Violations, got.Violations)
	assert.NotZero(t, got.Timestamp)

	_, err = os.Stat(filepath.Join(c.Dir(), entry.Key.Hash()+".json"))
	assert.NoError(t, err)
}

func TestLocalCache_NoTempFilesLeft(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c := NewLocalCache(dir)
	require.NoError(t, c.Put(ctx, testEntry("a")))
	require.NoError(t, c.Put(ctx, testEntry("a")))

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, testKey("a").Hash()+".json", files[0].Name())
}

func TestLocalCache_Delete(t *testing.T) {
	ctx := context.Background()
	c := NewLocalCache(t.TempDir())
	require.NoError(t, c.Put(ctx, testEntry("a")))
	require.NoError(t, c.Delete(ctx, testKey("a")))

	_, err := c.Get(ctx, testKey("a"))
	assert.ErrorIs(t, err, ErrCacheMiss)

	assert.NoError(t, c.Delete(ctx, testKey("a")), "deleting a missing entry")
}

func TestLocalCache_CorruptEntry(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c := NewLocalCache(dir)
	hash := testKey("a").Hash()
	require.NoError(t, os.WriteFile(filepath.Join(dir, hash+".json"), []byte("{not json"), 0644))

	_, err := c.Lookup(ctx, hash)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}
