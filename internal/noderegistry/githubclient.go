package noderegistry

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/comfyhub-org/comfygit/internal/nodemap"
	"github.com/comfyhub-org/comfygit/internal/xerrors"
	"github.com/go-resty/resty/v2"
	"github.com/sethvargo/go-retry"
)

// RepoInfo is the subset of GitHub repository metadata the resolver and
// downloader need.
type RepoInfo struct {
	Owner         string
	Name          string
	DefaultBranch string
	CloneURL      string
	LatestCommit  string
	LatestRelease string
}

// GitHubClient fetches repository metadata for git-sourced custom
// nodes, rate-limited and cached the same way RegistryClient is.
type GitHubClient struct {
	client  *resty.Client
	limiter *hostLimiter
	cache   *apiCache
}

// NewGitHubClient builds a client against the public GitHub API.
func NewGitHubClient(cacheTTL time.Duration) *GitHubClient {
	client := resty.New().
		SetBaseURL("https://api.github.com").
		SetTimeout(15 * time.Second).
		SetHeader("Accept", "application/vnd.github+json")

	return &GitHubClient{
		client:  client,
		limiter: newHostLimiter(1, 50*time.Millisecond),
		cache:   newAPICache(256, cacheTTL),
	}
}

// GetRepositoryInfo resolves a repository URL (any of the four forms
// nodemap.NormalizeGitHubURL accepts) to its owner/repo/default branch
// and latest commit on that branch.
func (c *GitHubClient) GetRepositoryInfo(ctx context.Context, repoURL string) (*RepoInfo, error) {
	canonical := nodemap.NormalizeGitHubURL(repoURL)
	owner, name, ok := ownerAndName(canonical)
	if !ok {
		return nil, fmt.Errorf("not a github repository url: %q", repoURL)
	}
	cacheKey := owner + "/" + name

	if cached, ok := c.cache.get("github", cacheKey); ok {
		info, _ := cached.(*RepoInfo)
		return info, nil
	}

	var info *RepoInfo
	backoff := retry.NewExponential(200 * time.Millisecond)
	backoff = retry.WithCappedDuration(5*time.Second, backoff)
	backoff = retry.WithJitter(50*time.Millisecond, backoff)
	backoff = retry.WithMaxRetries(3, backoff)

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx, "api.github.com"); err != nil {
			return err
		}

		var repo struct {
			DefaultBranch string `json:"default_branch"`
			CloneURL      string `json:"clone_url"`
		}
		resp, err := c.client.R().SetContext(ctx).SetResult(&repo).Get("/repos/" + owner + "/" + name)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("github repo request for %s/%s failed: %w", owner, name, err))
		}
		switch {
		case resp.StatusCode() == http.StatusNotFound:
			return xerrors.Newf(xerrors.KindRegistryNotFound, map[string]any{"owner": owner, "name": name},
				"repository %s/%s not found", owner, name)
		case resp.StatusCode() >= 500 || resp.StatusCode() == http.StatusTooManyRequests:
			return retry.RetryableError(fmt.Errorf("github returned %d for %s/%s", resp.StatusCode(), owner, name))
		case resp.StatusCode() >= 400:
			return xerrors.Newf(xerrors.KindRegistryUnavailable, map[string]any{"status": resp.StatusCode()},
				"github request for %s/%s failed with status %d", owner, name, resp.StatusCode())
		}

		var commit struct {
			SHA string `json:"sha"`
		}
		commitResp, err := c.client.R().SetContext(ctx).SetResult(&commit).
			Get("/repos/" + owner + "/" + name + "/commits/" + repo.DefaultBranch)
		if err == nil && commitResp.StatusCode() < 400 {
			// latest commit is best-effort; a failure here doesn't invalidate the repo lookup
		}

		info = &RepoInfo{
			Owner:         owner,
			Name:          name,
			DefaultBranch: repo.DefaultBranch,
			CloneURL:      repo.CloneURL,
			LatestCommit:  commit.SHA,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.cache.set("github", cacheKey, info)
	return info, nil
}

// ownerAndName splits a canonical https://github.com/<owner>/<repo> URL.
func ownerAndName(canonical string) (owner, name string, ok bool) {
	const prefix = "https://github.com/"
	if len(canonical) <= len(prefix) || canonical[:len(prefix)] != prefix {
		return "", "", false
	}
	rest := canonical[len(prefix):]
	for i := 0; i < len(rest); i++ {
		if rest[i] == '/' {
			tail := rest[i+1:]
			for j := 0; j < len(tail); j++ {
				if tail[j] == '/' {
					tail = tail[:j]
					break
				}
			}
			return rest[:i], tail, rest[:i] != "" && tail != ""
		}
	}
	return "", "", false
}
