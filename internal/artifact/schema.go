package artifact

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/invopop/jsonschema"
)

// SchemaName identifies the profile schema in structured-output requests.
const SchemaName = "final_profile"

var (
	schemaOnce sync.Once
	schemaMap  map[string]any
	schemaErr  error
)

// Schema returns the strict JSON Schema of FinalProfile: no references,
// additionalProperties false and every property required. Callers must not
// mutate the returned map.
func Schema() (map[string]any, error) {
	schemaOnce.Do(func() {
		r := jsonschema.Reflector{
			AllowAdditionalProperties: false,
			DoNotReference:            true,
		}
		s := r.Reflect(&FinalProfile{})
		b, err := json.Marshal(s)
		if err != nil {
			schemaErr = err
			return
		}
		var m map[string]any
		if err := json.Unmarshal(b, &m); err != nil {
			schemaErr = err
			return
		}
		delete(m, "$schema")
		delete(m, "$id")
		makeStrict(m)
		schemaMap = m
	})
	return schemaMap, schemaErr
}

func makeStrict(node map[string]any) {
	if t, _ := node["type"].(string); t == "object" {
		node["additionalProperties"] = false
		if props, ok := node["properties"].(map[string]any); ok {
			req := make([]any, 0, len(props))
			names := make([]string, 0, len(props))
			for name := range props {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, n := range names {
				req = append(req, n)
			}
			node["required"] = req
		}
	}
	if props, ok := node["properties"].(map[string]any); ok {
		for _, p := range props {
			if pm, ok := p.(map[string]any); ok {
				makeStrict(pm)
			}
		}
	}
	if items, ok := node["items"].(map[string]any); ok {
		makeStrict(items)
	}
}
