package noderegistry

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/comfyhub-org/comfygit/internal/logging"
	"github.com/comfyhub-org/comfygit/internal/xerrors"
	"github.com/go-resty/resty/v2"
)

// Service bundles the registry client, GitHub client, and the on-disk
// custom-node cache into the single entry point the environment manager
// uses to resolve and materialize custom nodes.
type Service struct {
	registry   *RegistryClient
	github     *GitHubClient
	cache      *CustomNodeCacheManager
	downloader *resty.Client
}

// NewService wires a Service rooted at cacheDir
// (normally "<workspace>/comfydock_cache/custom_nodes").
func NewService(registryBaseURL, cacheDir string) *Service {
	const apiCacheTTL = 10 * time.Minute
	return &Service{
		registry:   NewRegistryClient(registryBaseURL, 100*time.Millisecond, apiCacheTTL),
		github:     NewGitHubClient(apiCacheTTL),
		cache:      NewCustomNodeCacheManager(cacheDir),
		downloader: resty.New().SetTimeout(60 * time.Second),
	}
}

// FindNode resolves identifier — a registry ID (optionally "@version"),
// or a git URL — to NodeInfo, without downloading anything.
func (s *Service) FindNode(ctx context.Context, identifier string) (*NodeInfo, error) {
	id, version := splitVersion(identifier)

	if strings.HasPrefix(id, "https://") || strings.HasPrefix(id, "git@") || strings.HasPrefix(id, "ssh://") {
		repo, err := s.github.GetRepositoryInfo(ctx, id)
		if err != nil {
			return nil, err
		}
		commit := repo.LatestCommit
		if version != "" {
			commit = version
		}
		return &NodeInfo{
			Name:       repo.Name,
			Repository: repo.CloneURL,
			Version:    commit,
			CommitHash: commit,
			Source:     SourceGit,
		}, nil
	}

	node, err := s.registry.GetNode(ctx, id)
	if err != nil {
		return nil, err
	}
	resolvedVersion := version
	if resolvedVersion == "" {
		resolvedVersion = node.LatestVersion
	}
	downloadURL := ""
	for _, v := range node.Versions {
		if v.Version == resolvedVersion {
			downloadURL = v.DownloadURL
			break
		}
	}
	return &NodeInfo{
		Name:        node.Name,
		Repository:  node.Repository,
		Version:     resolvedVersion,
		Source:      SourceRegistry,
		PackageID:   node.ID,
		DownloadURL: downloadURL,
	}, nil
}

func splitVersion(identifier string) (id, version string) {
	if strings.HasPrefix(identifier, "https://") || strings.HasPrefix(identifier, "git@") ||
		strings.HasPrefix(identifier, "ssh://") {
		return identifier, ""
	}
	if idx := strings.Index(identifier, "@"); idx >= 0 {
		return identifier[:idx], identifier[idx+1:]
	}
	return identifier, ""
}

// DownloadNode materializes info's source tree at targetPath: a cache
// copy if present, otherwise a fresh download or clone followed by a
// cache write.
func (s *Service) DownloadNode(ctx context.Context, info NodeInfo, targetPath string) error {
	log := logging.FromContext(ctx)

	if cached, ok := s.cache.CachedPath(info); ok {
		log.Debug("using cached node tree", "node", info.Name, "cache_path", cached)
		return copyTree(cached, targetPath)
	}

	switch info.Source {
	case SourceRegistry:
		if info.DownloadURL == "" {
			return xerrors.Newf(xerrors.KindDownloadFailed, map[string]any{"node": info.Name},
				"no download url for node %q", info.Name)
		}
		if err := downloadAndExtractZip(ctx, s.downloader, info.DownloadURL, targetPath); err != nil {
			return fmt.Errorf("download node %q: %w", info.Name, err)
		}
	case SourceGit:
		if info.Repository == "" {
			return xerrors.Newf(xerrors.KindDownloadFailed, map[string]any{"node": info.Name},
				"no repository url for node %q", info.Name)
		}
		if err := gitClone(ctx, info.Repository, info.CommitHash, targetPath); err != nil {
			return fmt.Errorf("clone node %q: %w", info.Name, err)
		}
	default:
		return fmt.Errorf("unsupported source %q for node %q", info.Source, info.Name)
	}

	if err := s.cache.CacheNode(ctx, info, targetPath); err != nil {
		log.Warn("failed to cache downloaded node", "node", info.Name, "error", err)
	}
	return nil
}

// PrepareNode resolves identifier, materializes it into a scratch
// directory (reused from cache when possible), and scans it for Python
// requirement specifiers.
func (s *Service) PrepareNode(ctx context.Context, identifier string) (*NodePackage, error) {
	info, err := s.FindNode(ctx, identifier)
	if err != nil {
		return nil, err
	}

	if cached, ok := s.cache.CachedPath(*info); ok {
		reqs, err := ScanRequirements(cached)
		if err != nil {
			return nil, fmt.Errorf("scan cached node %q: %w", info.Name, err)
		}
		return &NodePackage{Info: *info, Requirements: reqs}, nil
	}

	scratch, err := os.MkdirTemp("", "comfygit-prepare-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	if err := s.DownloadNode(ctx, *info, scratch); err != nil {
		return nil, err
	}
	reqs, err := ScanRequirements(scratch)
	if err != nil {
		return nil, fmt.Errorf("scan node %q: %w", info.Name, err)
	}
	return &NodePackage{Info: *info, Requirements: reqs}, nil
}
