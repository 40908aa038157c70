package modelindex

import "time"

// Model is a single content-addressed model entry, keyed by its sampled
// short hash (see internal/ids.ShortHash). Blake3 and SHA256 are filled
// in lazily, only once something actually needs the stronger hash (a
// registry upload, a checksum-verified download).
type Model struct {
	Hash      string
	FileSize  int64
	Blake3    *string
	SHA256    *string
	FirstSeen time.Time
}

// Location is one place on disk a model with the given hash has been
// seen. A model can live at more than one location (symlink farms,
// per-environment copies); relative paths are unique across the whole
// index so the same file is never tracked twice under itself.
type Location struct {
	ID           int64
	ModelHash    string
	RelativePath string
	Filename     string
	Mtime        time.Time
	LastSeen     time.Time
}

// Source is a record of where a model was downloaded from, used to
// answer "have I already fetched this URL" without re-hashing.
type Source struct {
	ID         int64
	ModelHash  string
	SourceType string
	SourceURL  string
	Metadata   map[string]string
}

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now().UTC()
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
