package downloader

import (
	"net/url"
	"strings"
)

// Source type identifiers matching internal/modelindex's Source.SourceType
// column — spec.md's closed set of known model hosts plus a catch-all.
const (
	SourceCivitai     = "civitai"
	SourceHuggingFace = "huggingface"
	SourceCustom      = "custom"
)

// DetectSourceType classifies rawURL's host into one of the known model
// host families, falling back to "custom" for anything else — including
// a malformed URL, since an unparseable host is certainly not one of
// the two known ones.
func DetectSourceType(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return SourceCustom
	}
	host := strings.ToLower(u.Hostname())
	switch {
	case strings.HasSuffix(host, "civitai.com"):
		return SourceCivitai
	case strings.HasSuffix(host, "huggingface.co"), strings.HasSuffix(host, "hf.co"):
		return SourceHuggingFace
	default:
		return SourceCustom
	}
}
