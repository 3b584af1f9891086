package cache

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var cacheTracer = otel.Tracer("github.com/chris-regnier/warden/internal/cache")

var _ Store = (*LocalCache)(nil)

// LocalCache keeps one JSON file per entry in a directory.
type LocalCache struct {
	dir string
}

func NewLocalCache(dir string) *LocalCache {
	return &LocalCache{dir: dir}
}

// Dir returns the cache directory.
func (c *LocalCache) Dir() string { return c.dir }

func (c *LocalCache) entryPath(hash string) string {
	return filepath.Join(c.dir, hash+".json")
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func (c *LocalCache) Get(ctx context.Context, key CacheKey) (*CacheEntry, error) {
	return c.Lookup(ctx, key.Hash())
}

// Lookup reads the entry stored under a key hash.
func (c *LocalCache) Lookup(ctx context.Context, hash string) (*CacheEntry, error) {
	ctx, span := cacheTracer.Start(ctx, "cache lookup")
	defer span.End()

	span.SetAttributes(attribute.String("warden.cache.key", hash))

	if err := ctx.Err(); err != nil {
		return nil, fail(span, err)
	}

	data, err := os.ReadFile(c.entryPath(hash))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			span.SetAttributes(attribute.Bool("warden.cache.hit", false))
			return nil, ErrCacheMiss
		}
		return nil, fail(span, err)
	}

	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fail(span, err)
	}

	span.SetAttributes(attribute.Bool("warden.cache.hit", true))
	return &entry, nil
}

func (c *LocalCache) Put(ctx context.Context, entry *CacheEntry) error {
	_, span := cacheTracer.Start(ctx, "cache store")
	defer span.End()

	hash := entry.Key.Hash()
	span.SetAttributes(attribute.String("warden.cache.key", hash))

	if err := ctx.Err(); err != nil {
		return fail(span, err)
	}
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fail(span, err)
	}

	entry.Timestamp = time.Now().Unix()
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fail(span, err)
	}

	// Write then rename so concurrent readers never see a partial file.
	tmp, err := os.CreateTemp(c.dir, hash+".*.tmp")
	if err != nil {
		return fail(span, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fail(span, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fail(span, err)
	}
	if err := os.Rename(tmp.Name(), c.entryPath(hash)); err != nil {
		os.Remove(tmp.Name())
		return fail(span, err)
	}
	return nil
}

func (c *LocalCache) Delete(ctx context.Context, key CacheKey) error {
	return c.Remove(ctx, key.Hash())
}

// Remove deletes the entry stored under a key hash. Missing entries are
// not an error.
func (c *LocalCache) Remove(ctx context.Context, hash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(c.entryPath(hash))
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
