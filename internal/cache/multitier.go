package cache

import (
	"context"
	"errors"
	"log/slog"
)

// MultiTierConfig configures the multi-tier cache behavior
type MultiTierConfig struct {
	// WriteToRemote controls whether entries are also written to the remote tier
	WriteToRemote bool

	// ReadFromRemote controls whether the remote tier is consulted at all on reads
	ReadFromRemote bool

	// PreferLocal checks the local tier first when set, the remote tier otherwise
	PreferLocal bool

	// WarmLocalOnRemoteHit copies remote hits into the local tier
	WarmLocalOnRemoteHit bool
}

// DefaultMultiTierConfig returns the default multi-tier cache configuration
func DefaultMultiTierConfig() MultiTierConfig {
	return MultiTierConfig{
		WriteToRemote:        true,
		ReadFromRemote:       true,
		PreferLocal:          true,
		WarmLocalOnRemoteHit: true,
	}
}

// MultiTierCache puts a fast local tier, typically a MemoryCache or a
// LocalCache, in front of an optional shared remote tier.
type MultiTierCache struct {
	local  CacheManager
	remote CacheManager
	config MultiTierConfig
	logger *slog.Logger
}

var _ CacheManager = (*MultiTierCache)(nil)

// NewMultiTierCache creates a new multi-tier cache. A nil remote runs it
// in local-only mode.
func NewMultiTierCache(local, remote CacheManager, config MultiTierConfig) *MultiTierCache {
	return &MultiTierCache{
		local:  local,
		remote: remote,
		config: config,
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for remote failures that do not fail the call.
func (c *MultiTierCache) WithLogger(l *slog.Logger) *MultiTierCache {
	c.logger = l
	return c
}

func (c *MultiTierCache) readRemote() bool {
	return c.config.ReadFromRemote && c.remote != nil
}

// Get looks the key up in tier order. Remote errors count as misses so a
// flaky shared cache never fails a check.
func (c *MultiTierCache) Get(ctx context.Context, key CacheKey) (*CacheEntry, error) {
	if !c.config.PreferLocal && c.readRemote() {
		if entry, err := c.remote.Get(ctx, key); err == nil {
			c.warm(ctx, entry)
			return entry, nil
		} else if !errors.Is(err, ErrCacheMiss) {
			c.logger.Warn("remote cache lookup failed", "err", err)
		}
		return c.local.Get(ctx, key)
	}

	entry, err := c.local.Get(ctx, key)
	if err == nil {
		return entry, nil
	}
	if !c.readRemote() {
		return nil, ErrCacheMiss
	}
	entry, err = c.remote.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			c.logger.Warn("remote cache lookup failed", "err", err)
		}
		return nil, ErrCacheMiss
	}
	c.warm(ctx, entry)
	return entry, nil
}

func (c *MultiTierCache) warm(ctx context.Context, entry *CacheEntry) {
	if !c.config.WarmLocalOnRemoteHit {
		return
	}
	if err := c.local.Put(ctx, entry); err != nil {
		c.logger.Warn("failed to warm local cache", "err", err)
	}
}

// Put always writes the local tier; the remote write is best effort.
func (c *MultiTierCache) Put(ctx context.Context, entry *CacheEntry) error {
	if err := c.local.Put(ctx, entry); err != nil {
		return err
	}
	if c.config.WriteToRemote && c.remote != nil {
		if err := c.remote.Put(ctx, entry); err != nil {
			c.logger.Warn("failed to write to remote cache", "err", err)
		}
	}
	return nil
}

func (c *MultiTierCache) Delete(ctx context.Context, key CacheKey) error {
	if err := c.local.Delete(ctx, key); err != nil {
		return err
	}
	if c.remote != nil {
		if err := c.remote.Delete(ctx, key); err != nil {
			c.logger.Warn("failed to delete from remote cache", "err", err)
		}
	}
	return nil
}

// HasRemote returns true if a remote cache is configured
func (c *MultiTierCache) HasRemote() bool {
	return c.remote != nil
}

func (c *MultiTierCache) Local() CacheManager  { return c.local }
func (c *MultiTierCache) Remote() CacheManager { return c.remote }

func (c *MultiTierCache) Config() MultiTierConfig { return c.config }
