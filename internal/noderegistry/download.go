package noderegistry

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// downloadAndExtractZip fetches a zip archive from url and extracts it
// into destDir, stripping a single leading directory component when
// every entry shares one (the common shape of a GitHub archive export).
func downloadAndExtractZip(ctx context.Context, client *resty.Client, url, destDir string) error {
	tmp, err := os.CreateTemp("", "comfygit-node-*.zip")
	if err != nil {
		return fmt.Errorf("create temp archive: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	resp, err := client.R().SetContext(ctx).SetOutput(tmp.Name()).Get(url)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	if resp.StatusCode() >= 400 {
		return fmt.Errorf("download %s: status %d", url, resp.StatusCode())
	}

	reader, err := zip.OpenReader(tmp.Name())
	if err != nil {
		return fmt.Errorf("open downloaded archive: %w", err)
	}
	defer reader.Close()

	prefix := commonPrefix(reader.File)
	for _, file := range reader.File {
		name := strings.TrimPrefix(file.Name, prefix)
		if name == "" {
			continue
		}
		target := filepath.Join(destDir, name)
		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := extractZipEntry(file, target); err != nil {
			return fmt.Errorf("extract %s: %w", file.Name, err)
		}
	}
	return nil
}

func extractZipEntry(file *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, file.Mode())
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

// commonPrefix returns the shared leading path component of every file
// in a zip, or "" if none exists.
func commonPrefix(files []*zip.File) string {
	if len(files) == 0 {
		return ""
	}
	first := files[0].Name
	idx := strings.Index(first, "/")
	if idx < 0 {
		return ""
	}
	prefix := first[:idx+1]
	for _, f := range files {
		if !strings.HasPrefix(f.Name, prefix) {
			return ""
		}
	}
	return prefix
}

// gitClone shallow-clones repoURL at ref (or the default branch if
// ref == "") into destDir, shelling out to the git binary the same way
// internal/gitrepo does.
func gitClone(ctx context.Context, repoURL, ref, destDir string) error {
	args := []string{"clone", "--depth", "1"}
	if ref != "" {
		args = append(args, "--branch", ref)
	}
	args = append(args, repoURL, destDir)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git clone %s: %w: %s", repoURL, err, strings.TrimSpace(string(output)))
	}
	return nil
}
