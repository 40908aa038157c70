package downloader

import "testing"

func TestDetectSourceType(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://civitai.com/api/download/models/12345", SourceCivitai},
		{"https://huggingface.co/org/model/resolve/main/model.safetensors", SourceHuggingFace},
		{"https://hf.co/org/model/resolve/main/model.safetensors", SourceHuggingFace},
		{"https://example.com/models/model.safetensors", SourceCustom},
		{"not a url at all", SourceCustom},
	}
	for _, c := range cases {
		if got := DetectSourceType(c.url); got != c.want {
			t.Errorf("DetectSourceType(%q) = %q, want %q", c.url, got, c.want)
		}
	}
}
