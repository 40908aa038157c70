package workflow

import (
	_ "embed"
	"encoding/json"
	"sync"
)

//go:embed builtin_types.json
var builtinTypesRaw []byte

type builtinTypesFile struct {
	AllBuiltinNodes []string `json:"all_builtin_nodes"`
}

var (
	builtinTypesOnce sync.Once
	builtinTypesSet  map[string]struct{}
)

func builtinTypes() map[string]struct{} {
	builtinTypesOnce.Do(func() {
		var f builtinTypesFile
		// The embedded list is a build-time constant; a parse failure here
		// means the JSON file itself is malformed, not bad runtime input.
		if err := json.Unmarshal(builtinTypesRaw, &f); err != nil {
			panic("workflow: invalid embedded builtin_types.json: " + err.Error())
		}
		builtinTypesSet = make(map[string]struct{}, len(f.AllBuiltinNodes))
		for _, t := range f.AllBuiltinNodes {
			builtinTypesSet[t] = struct{}{}
		}
	})
	return builtinTypesSet
}

// IsBuiltinType reports whether nodeType ships with ComfyUI itself.
func IsBuiltinType(nodeType string) bool {
	_, ok := builtinTypes()[nodeType]
	return ok
}
