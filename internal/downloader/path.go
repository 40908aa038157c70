package downloader

import (
	"net/url"
	"path"
	"strings"

	"github.com/comfyhub-org/comfygit/internal/modelresolve"
)

const defaultFilename = "downloaded_model.safetensors"
const genericCategory = "models"

// categoryHints maps a filename substring to the model sub-directory it
// suggests, for a URL whose node type isn't a known loader. Built from
// the reverse of modelresolve's loader base directories plus the common
// naming conventions those loaders' files carry, since neither spec.md
// nor the retrieval pack's filtered original_source/ names an explicit
// filename-to-category table to port.
var categoryHints = []struct {
	substr   string
	category string
}{
	{"lora", "loras"},
	{"lycoris", "loras"},
	{"vae", "vae"},
	{"controlnet", "controlnet"},
	{"control_net", "controlnet"},
	{"upscale", "upscale_models"},
	{"esrgan", "upscale_models"},
	{"clip_vision", "clip_vision"},
	{"clip", "clip"},
	{"embedding", "embeddings"},
	{"textual_inversion", "embeddings"},
	{"hypernetwork", "hypernetworks"},
	{"gligen", "gligen"},
	{"style_model", "style_models"},
	{"checkpoint", "checkpoints"},
}

// SuggestPath proposes a relative path (base directory plus filename)
// for a download, matching the original's layered fallback: the node
// type's known loader directory takes priority, then a filename-based
// category guess, then a generic catch-all directory.
func SuggestPath(rawURL, nodeType, filenameHint string) string {
	filename := extractFilename(rawURL, filenameHint)

	if nodeType != "" {
		if base, ok := modelresolve.LoaderBaseDir(nodeType); ok {
			return path.Join(strings.TrimSuffix(base, "/"), filename)
		}
	}

	if category, ok := guessCategory(filenameHint); ok {
		return path.Join(category, filename)
	}
	if category, ok := guessCategory(filename); ok {
		return path.Join(category, filename)
	}

	return path.Join(genericCategory, filename)
}

func extractFilename(rawURL, filenameHint string) string {
	if u, err := url.Parse(rawURL); err == nil {
		base := path.Base(u.Path)
		if base != "" && base != "." && base != "/" && strings.Contains(base, ".") {
			return base
		}
	}
	if filenameHint != "" {
		return path.Base(filenameHint)
	}
	return defaultFilename
}

func guessCategory(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	lower := strings.ToLower(name)
	for _, hint := range categoryHints {
		if strings.Contains(lower, hint.substr) {
			return hint.category, true
		}
	}
	return "", false
}
