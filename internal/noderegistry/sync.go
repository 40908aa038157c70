package noderegistry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/comfyhub-org/comfygit/internal/logging"
	"github.com/comfyhub-org/comfygit/internal/manifest"
)

// SyncReport summarizes what SyncNodesToFilesystem changed.
type SyncReport struct {
	Installed []string
	Removed   []string
	Disabled  []string
	Errors    []error
}

// SyncNodesToFilesystem reconciles customNodesDir's children against
// expected (keyed by directory name). Extra directories are deleted
// unless lastCommitted records them with source=development, in which
// case they are renamed to "<name>.disabled" (backing up any prior
// .disabled first). Missing expected directories are materialized via
// s, preferring the on-disk cache.
func (s *Service) SyncNodesToFilesystem(
	ctx context.Context,
	expected map[string]NodeInfo,
	customNodesDir string,
	lastCommitted *manifest.Manifest,
) (*SyncReport, error) {
	log := logging.FromContext(ctx)
	report := &SyncReport{}

	if err := os.MkdirAll(customNodesDir, 0o755); err != nil {
		return nil, fmt.Errorf("create custom_nodes dir: %w", err)
	}

	existing, err := existingActiveDirs(customNodesDir)
	if err != nil {
		return nil, fmt.Errorf("list custom_nodes dir: %w", err)
	}

	for name := range existing {
		if _, ok := expected[name]; ok {
			continue
		}
		if isDevelopmentNode(lastCommitted, name) {
			if err := disableNode(customNodesDir, name); err != nil {
				report.Errors = append(report.Errors, err)
				continue
			}
			report.Disabled = append(report.Disabled, name)
			log.Info("disabled development node no longer expected", "node", name)
			continue
		}
		path := filepath.Join(customNodesDir, name)
		if err := os.RemoveAll(path); err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("remove %s: %w", name, err))
			continue
		}
		report.Removed = append(report.Removed, name)
		log.Info("removed node, cache retains a copy", "node", name)
	}

	for name, info := range expected {
		if info.Source == SourceDevelopment {
			if _, ok := existing[name]; !ok {
				log.Warn("development node expected but missing from filesystem", "node", name)
			}
			continue
		}
		if _, ok := existing[name]; ok {
			continue
		}
		path := filepath.Join(customNodesDir, name)
		if err := s.DownloadNode(ctx, info, path); err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("install %s: %w", name, err))
			continue
		}
		report.Installed = append(report.Installed, name)
		log.Info("installed node", "node", name)
	}

	return report, nil
}

func existingActiveDirs(customNodesDir string) (map[string]struct{}, error) {
	entries, err := os.ReadDir(customNodesDir)
	if err != nil {
		return nil, err
	}
	active := make(map[string]struct{})
	for _, e := range entries {
		if e.IsDir() && !strings.HasSuffix(e.Name(), ".disabled") {
			active[e.Name()] = struct{}{}
		}
	}
	return active, nil
}

// isDevelopmentNode checks the last committed manifest (rather than the
// working tree, which is about to change) for whether name was tracked
// with source=development — the only signal authoritative enough to
// justify preserving a directory instead of deleting it.
func isDevelopmentNode(lastCommitted *manifest.Manifest, name string) bool {
	if lastCommitted == nil {
		return false
	}
	for _, node := range lastCommitted.Nodes {
		if node.Name == name {
			return node.Source == string(SourceDevelopment)
		}
	}
	return false
}

func disableNode(customNodesDir, name string) error {
	src := filepath.Join(customNodesDir, name)
	dst := filepath.Join(customNodesDir, name+".disabled")

	if _, err := os.Stat(dst); err == nil {
		backup := filepath.Join(customNodesDir, name+".disabled."+strconv.FormatInt(time.Now().Unix(), 10))
		if err := os.Rename(dst, backup); err != nil {
			return fmt.Errorf("back up existing .disabled for %s: %w", name, err)
		}
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("disable %s: %w", name, err)
	}
	return nil
}
