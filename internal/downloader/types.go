// Package downloader streams a model from a URL into the global models
// directory, hashing it as it goes and registering the result with the
// model index, without ever duplicating a model already known by its
// source URL.
package downloader

import "github.com/comfyhub-org/comfygit/internal/modelindex"

// DownloadRequest describes one model fetch.
type DownloadRequest struct {
	URL string
	// TargetPath is the absolute destination path, normally produced by
	// SuggestPath and joined onto the global models directory.
	TargetPath string
	WorkflowName string
}

// ProgressFunc is invoked as bytes arrive. Total is -1 when the server
// didn't send a Content-Length.
type ProgressFunc func(downloaded, total int64)

// DownloadResult is what a successful Download returns: the indexed
// model plus the location it now lives at, and whether this call found
// it already downloaded under the same source URL rather than fetching
// it again.
type DownloadResult struct {
	Model          modelindex.Model
	Location       modelindex.Location
	AlreadyIndexed bool
}
