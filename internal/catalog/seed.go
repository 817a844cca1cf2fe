package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed seed_catalog.json
var seedCatalogJSON []byte

// SeedTemplates returns the embedded seed catalog. The slice is freshly
// decoded on every call so callers may mutate their copy.
func SeedTemplates() ([]Template, error) {
	var templates []Template
	if err := json.Unmarshal(seedCatalogJSON, &templates); err != nil {
		return nil, fmt.Errorf("failed to decode embedded seed catalog: %w", err)
	}
	return templates, nil
}
