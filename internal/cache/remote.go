package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RemoteCache is a CacheManager backed by the cache endpoints of a
// `warden serve` instance.
type RemoteCache struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

var _ CacheManager = (*RemoteCache)(nil)

// RemoteCacheOption configures a RemoteCache
type RemoteCacheOption func(*RemoteCache)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) RemoteCacheOption {
	return func(c *RemoteCache) {
		c.httpClient = client
	}
}

// WithToken sets the bearer token sent with every request
func WithToken(token string) RemoteCacheOption {
	return func(c *RemoteCache) {
		c.token = token
	}
}

// WithTimeout sets the HTTP client timeout
func WithTimeout(timeout time.Duration) RemoteCacheOption {
	return func(c *RemoteCache) {
		c.httpClient.Timeout = timeout
	}
}

// NewRemoteCache creates a new remote cache client
func NewRemoteCache(baseURL string, opts ...RemoteCacheOption) *RemoteCache {
	c := &RemoteCache{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RemoteCache) entryURL(hash string) string {
	return c.baseURL + "/v1/cache/" + url.PathEscape(hash)
}

func (c *RemoteCache) do(ctx context.Context, method, target string, body []byte) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, r)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	return resp, nil
}

func unexpected(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}

// Get retrieves a cache entry from the remote server
func (c *RemoteCache) Get(ctx context.Context, key CacheKey) (*CacheEntry, error) {
	resp, err := c.do(ctx, http.MethodGet, c.entryURL(key.Hash()), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrCacheMiss
	default:
		return nil, unexpected(resp)
	}

	var entry CacheEntry
	if err := json.NewDecoder(resp.Body).Decode(&entry); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &entry, nil
}

// Put stores a cache entry on the remote server
func (c *RemoteCache) Put(ctx context.Context, entry *CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding entry: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPut, c.entryURL(entry.Key.Hash()), data)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		return unexpected(resp)
	}
	return nil
}

// Delete removes a cache entry from the remote server. A missing entry is
// not an error.
func (c *RemoteCache) Delete(ctx context.Context, key CacheKey) error {
	resp, err := c.do(ctx, http.MethodDelete, c.entryURL(key.Hash()), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		return nil
	}
	return unexpected(resp)
}

// Stats retrieves the statistics of the server's cache
func (c *RemoteCache) Stats(ctx context.Context) (*CacheStats, error) {
	resp, err := c.do(ctx, http.MethodGet, c.baseURL+"/v1/cache/stats", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, unexpected(resp)
	}
	var stats CacheStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &stats, nil
}

// Ping checks if the remote server is reachable
func (c *RemoteCache) Ping(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	return nil
}
