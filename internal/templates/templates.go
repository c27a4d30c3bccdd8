// Package templates embeds the bundled starter checklists used by
// `tick init`.
package templates

import (
	"embed"
	"fmt"
	"sort"
)

//go:embed checklists/*.yaml
var checklistFS embed.FS

// keyToFile maps a template key to its bundled file.
var keyToFile = map[string]string{
	"web":           "web_general.yaml",
	"api":           "api_general.yaml",
	"accessibility": "accessibility.yaml",
}

// Keys lists the available template keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(keyToFile))
	for k := range keyToFile {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the raw YAML for a template key.
func Get(key string) ([]byte, error) {
	filename, ok := keyToFile[key]
	if !ok {
		return nil, fmt.Errorf("unknown template %q (available: %v)", key, Keys())
	}
	data, err := checklistFS.ReadFile("checklists/" + filename)
	if err != nil {
		return nil, fmt.Errorf("read embedded template %s: %w", filename, err)
	}
	return data, nil
}
