package modelresolve

// loaderBaseDirs maps a known ComfyUI loader node type to the
// directory its widget values are relative to. Only the base directory
// matters to path reconstruction; the widget value itself never
// carries the directory prefix in a well-formed workflow.
var loaderBaseDirs = map[string]string{
	"CheckpointLoader":       "checkpoints/",
	"CheckpointLoaderSimple": "checkpoints/",
	"LoraLoader":             "loras/",
	"LoraLoaderModelOnly":    "loras/",
	"VAELoader":              "vae/",
	"ControlNetLoader":       "controlnet/",
	"DiffControlNetLoader":   "controlnet/",
	"ControlNetApply":        "controlnet/",
	"UpscaleModelLoader":     "upscale_models/",
	"ImageUpscaleWithModel":  "upscale_models/",
	"CLIPLoader":             "clip/",
	"DualCLIPLoader":         "clip/",
	"CLIPVisionLoader":       "clip_vision/",
	"UNETLoader":             "diffusion_models/",
	"StyleModelLoader":       "style_models/",
	"GLIGENLoader":           "gligen/",
	"HypernetworkLoader":     "hypernetworks/",
	"CLIPLoaderGGUF":         "text_encoders/",
	"DualCLIPLoaderGGUF":     "text_encoders/",
	"QuadrupleCLIPLoader":    "text_encoders/",
	"EmbeddingLoader":        "embeddings/",
}

// LoaderBaseDir returns the base directory for a known loader node
// type and whether one is known at all.
func LoaderBaseDir(nodeType string) (string, bool) {
	base, ok := loaderBaseDirs[nodeType]
	return base, ok
}
