package nodemap

func testTable() *Table {
	return &Table{
		Mappings: map[string][]MappingEntry{
			"KSamplerAdvanced::deadbeefdeadbeef": {{PackageID: "comfyui-impact-pack", Rank: 1}},
			"KSamplerAdvanced::_":                {{PackageID: "comfyui-impact-pack", Rank: 1}},
			"WeirdUpscaler::_":                   {{PackageID: "comfyui-upscale-a", Rank: 1}, {PackageID: "comfyui-upscale-b", Rank: 2}},
		},
		Packages: map[string]Package{
			"comfyui-impact-pack": {ID: "comfyui-impact-pack", DisplayName: "Impact Pack"},
			"comfyui-upscale-a":   {ID: "comfyui-upscale-a", DisplayName: "Upscale A"},
			"comfyui-upscale-b":   {ID: "comfyui-upscale-b", DisplayName: "Upscale B"},
			"some-other-upscaler": {ID: "some-other-upscaler", DisplayName: "Other Upscaler"},
		},
	}
}
