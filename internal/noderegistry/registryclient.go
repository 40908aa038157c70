package noderegistry

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/comfyhub-org/comfygit/internal/xerrors"
	"github.com/go-resty/resty/v2"
	"github.com/sethvargo/go-retry"
)

// RegistryVersion is one published version of a registry package.
type RegistryVersion struct {
	Version      string   `json:"version"`
	DownloadURL  string   `json:"download_url"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// RegistryNode is a package as returned by the node registry API.
type RegistryNode struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Repository    string            `json:"repository"`
	LatestVersion string            `json:"latest_version"`
	Versions      []RegistryVersion `json:"versions"`
}

// RegistryClient fetches node package metadata from the node registry
// API, rate-limited per host and cached for successful lookups.
type RegistryClient struct {
	client  *resty.Client
	limiter *hostLimiter
	cache   *apiCache
	host    string
}

// NewRegistryClient builds a client against baseURL, with a fixed
// minimum interval between requests and a small TTL cache of successful
// lookups.
func NewRegistryClient(baseURL string, minInterval time.Duration, cacheTTL time.Duration) *RegistryClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetHeader("Accept", "application/json")

	host := baseURL
	if parsed, err := url.Parse(baseURL); err == nil && parsed.Host != "" {
		host = parsed.Host
	}

	return &RegistryClient{
		client:  client,
		limiter: newHostLimiter(1, minInterval),
		cache:   newAPICache(256, cacheTTL),
		host:    host,
	}
}

// GetNode fetches a single package by its registry ID.
func (c *RegistryClient) GetNode(ctx context.Context, id string) (*RegistryNode, error) {
	if cached, ok := c.cache.get("registry", id); ok {
		node, _ := cached.(*RegistryNode)
		return node, nil
	}

	var node *RegistryNode
	backoff := retry.NewExponential(200 * time.Millisecond)
	backoff = retry.WithCappedDuration(5*time.Second, backoff)
	backoff = retry.WithJitter(50*time.Millisecond, backoff)
	backoff = retry.WithMaxRetries(3, backoff)

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx, c.host); err != nil {
			return err
		}
		var result RegistryNode
		resp, err := c.client.R().SetContext(ctx).SetResult(&result).Get("/nodes/" + id)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("registry request for %q failed: %w", id, err))
		}
		switch {
		case resp.StatusCode() == http.StatusNotFound:
			return xerrors.Newf(xerrors.KindRegistryNotFound, map[string]any{"id": id}, "node %q not found in registry", id)
		case resp.StatusCode() >= 500:
			return retry.RetryableError(fmt.Errorf("registry returned %d for %q", resp.StatusCode(), id))
		case resp.StatusCode() >= 400:
			return xerrors.Newf(xerrors.KindRegistryUnavailable, map[string]any{"status": resp.StatusCode()},
				"registry request for %q failed with status %d", id, resp.StatusCode())
		}
		node = &result
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.cache.set("registry", id, node)
	return node, nil
}

// SearchNodes queries the registry's search endpoint.
func (c *RegistryClient) SearchNodes(ctx context.Context, query string, limit int) ([]RegistryNode, error) {
	if err := c.limiter.Wait(ctx, c.host); err != nil {
		return nil, err
	}
	var result struct {
		Nodes []RegistryNode `json:"nodes"`
	}
	resp, err := c.client.R().SetContext(ctx).
		SetQueryParam("search", query).
		SetQueryParam("limit", fmt.Sprintf("%d", limit)).
		SetResult(&result).
		Get("/nodes")
	if err != nil {
		return nil, fmt.Errorf("registry search for %q failed: %w", query, err)
	}
	if resp.StatusCode() >= 400 {
		return nil, xerrors.Newf(xerrors.KindRegistryUnavailable, map[string]any{"status": resp.StatusCode()},
			"registry search for %q failed with status %d", query, resp.StatusCode())
	}
	return result.Nodes, nil
}
