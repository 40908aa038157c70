package downloader

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
	"lukechampine.com/blake3"

	"github.com/comfyhub-org/comfygit/internal/ids"
	"github.com/comfyhub-org/comfygit/internal/logging"
	"github.com/comfyhub-org/comfygit/internal/modelindex"
	"github.com/comfyhub-org/comfygit/internal/xerrors"
)

// Downloader streams models into the global models directory and keeps
// the model index in sync with what's actually on disk.
type Downloader struct {
	Index     *modelindex.Store
	ModelsDir string
	client    *resty.Client
}

// New builds a Downloader. The client has no timeout set — model
// downloads can legitimately run for a long time; cancellation is the
// caller's context, not a fixed deadline.
func New(index *modelindex.Store, modelsDir string) *Downloader {
	return &Downloader{
		Index:     index,
		ModelsDir: modelsDir,
		client:    resty.New(),
	}
}

// Download fetches req.URL into req.TargetPath, hashing as it streams.
// If req.URL was already downloaded under the same source, that model
// is returned immediately without touching the network.
//
// On success the temp file is renamed atomically onto the final path,
// and the model, one location, and one source row are recorded in the
// index. On any failure the temp file is removed before the error is
// returned.
func (d *Downloader) Download(ctx context.Context, req DownloadRequest, onProgress ProgressFunc) (*DownloadResult, error) {
	log := logging.FromContext(ctx)

	if existing, ok, err := d.alreadyDownloaded(ctx, req.URL); err != nil {
		return nil, err
	} else if ok {
		log.Info("model already downloaded from this source", "url", req.URL, "hash", existing.Model.Hash)
		return existing, nil
	}

	if err := os.MkdirAll(filepath.Dir(req.TargetPath), 0o755); err != nil {
		return nil, xerrors.New(xerrors.KindDownloadFailed, err, map[string]any{"url": req.URL})
	}

	tmp, err := os.CreateTemp(filepath.Dir(req.TargetPath), ".download-*.part")
	if err != nil {
		return nil, xerrors.New(xerrors.KindDownloadFailed, err, map[string]any{"url": req.URL})
	}
	tmpPath := tmp.Name()
	cleanup := true
	defer func() {
		tmp.Close()
		if cleanup {
			os.Remove(tmpPath)
		}
	}()

	fileSize, blake3Hash, err := d.stream(ctx, req.URL, tmp, onProgress)
	if err != nil {
		return nil, xerrors.New(xerrors.KindDownloadFailed, err, map[string]any{"url": req.URL})
	}
	if err := tmp.Close(); err != nil {
		return nil, xerrors.New(xerrors.KindDownloadFailed, err, map[string]any{"url": req.URL})
	}

	targetPath := ensureExtension(req.TargetPath, tmpPath)
	if err := os.Rename(tmpPath, targetPath); err != nil {
		return nil, xerrors.New(xerrors.KindDownloadFailed, err, map[string]any{"url": req.URL})
	}
	cleanup = false

	shortHash, err := ids.ShortHash(targetPath)
	if err != nil {
		return nil, xerrors.New(xerrors.KindDownloadFailed, err, map[string]any{"url": req.URL})
	}

	relPath, err := filepath.Rel(d.ModelsDir, targetPath)
	if err != nil {
		return nil, xerrors.New(xerrors.KindDownloadFailed, err, map[string]any{"url": req.URL})
	}

	info, err := os.Stat(targetPath)
	if err != nil {
		return nil, xerrors.New(xerrors.KindDownloadFailed, err, map[string]any{"url": req.URL})
	}

	model, err := d.Index.EnsureModel(ctx, shortHash, fileSize, &blake3Hash, nil)
	if err != nil {
		return nil, err
	}
	if err := d.Index.AddLocation(ctx, shortHash, relPath, filepath.Base(targetPath), info.ModTime()); err != nil {
		return nil, err
	}
	sourceType := DetectSourceType(req.URL)
	if err := d.Index.AddSource(ctx, shortHash, sourceType, req.URL, nil); err != nil {
		return nil, err
	}

	log.Info("downloaded and indexed model", "url", req.URL, "hash", shortHash, "path", relPath)

	return &DownloadResult{
		Model: *model,
		Location: modelindex.Location{
			ModelHash: shortHash, RelativePath: relPath, Filename: filepath.Base(targetPath),
			Mtime: info.ModTime(), LastSeen: time.Now(),
		},
	}, nil
}

// alreadyDownloaded consults the index for a prior source row recorded
// against url and, if found, resolves it to one of the model's current
// locations.
func (d *Downloader) alreadyDownloaded(ctx context.Context, url string) (*DownloadResult, bool, error) {
	sources, err := d.Index.FindBySourceURL(ctx, url)
	if err != nil {
		return nil, false, err
	}
	if len(sources) == 0 {
		return nil, false, nil
	}
	hash := sources[0].ModelHash

	model, err := d.Index.GetModel(ctx, hash)
	if err != nil {
		return nil, false, err
	}
	locations, err := d.Index.FindLocationsByHash(ctx, hash)
	if err != nil {
		return nil, false, err
	}
	result := &DownloadResult{Model: *model, AlreadyIndexed: true}
	if len(locations) > 0 {
		result.Location = locations[0]
	}
	return result, true, nil
}

// stream performs the actual HTTP GET through a plain resty client (no
// retry or backoff is configured), writing the raw response body to dst
// while simultaneously hashing it with blake3 and reporting progress.
// The body is consumed as a stream rather than buffered so a
// multi-gigabyte model never sits fully in memory.
func (d *Downloader) stream(ctx context.Context, url string, dst *os.File, onProgress ProgressFunc) (int64, string, error) {
	resp, err := d.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return 0, "", fmt.Errorf("request %s: %w", url, err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() >= 400 {
		return 0, "", fmt.Errorf("download %s: status %d", url, resp.StatusCode())
	}

	total := int64(-1)
	if cl := resp.Header().Get("Content-Length"); cl != "" {
		if n, err := parseContentLength(cl); err == nil {
			total = n
		}
	}

	hasher := blake3.New(32, nil)
	var written int64
	buf := make([]byte, 256*1024)
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return 0, "", fmt.Errorf("write chunk: %w", err)
			}
			hasher.Write(buf[:n])
			written += int64(n)
			if onProgress != nil {
				onProgress(written, total)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return 0, "", fmt.Errorf("read response body: %w", readErr)
		}
	}

	return written, fmt.Sprintf("%x", hasher.Sum(nil)), nil
}

func parseContentLength(s string) (int64, error) {
	var n int64
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}

// ensureExtension appends a mimetype-sniffed extension to target when it
// has none of its own — the last-resort category/extension hint for a
// URL whose path and filename hint both lacked one.
func ensureExtension(target, tmpPath string) string {
	if filepath.Ext(target) != "" {
		return target
	}
	kind, err := mimetype.DetectFile(tmpPath)
	if err != nil || kind.Extension() == "" {
		return target
	}
	return target + kind.Extension()
}
