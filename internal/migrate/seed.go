// Package migrate implements the one-shot batch pipeline that transforms a
// JSON seed file into the normalized relational schema, with per-stage audit
// logging and post-load integrity verification.
package migrate

import (
	"encoding/json"
	"fmt"
	"os"
)

// Seed is the JSON snapshot the pipeline consumes. Identifiers are
// slug-style ("tool-001", "category-6"); the numeric part becomes the
// legacy id.
type Seed struct {
	SiteConfig SeedSiteConfig `json:"siteConfig"`
	Categories []SeedCategory `json:"categories"`
	Tools      []SeedTool     `json:"tools"`
}

// SeedSiteConfig is the site-wide configuration block.
type SeedSiteConfig struct {
	SiteName    string   `json:"siteName"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

// SeedCategory is one category entry; display order is its array index.
type SeedCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// SeedTool is one tool entry. CategoryID references a category's slug id.
type SeedTool struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Logo        string   `json:"logo"`
	URL         string   `json:"url"`
	CategoryID  string   `json:"categoryId"`
	IsFeatured  bool     `json:"isFeatured"`
	IsNew       bool     `json:"isNew"`
	ViewCount   int64    `json:"viewCount"`
	AddedDate   string   `json:"addedDate"`
	Tags        []string `json:"tags"`
}

// LoadSeed reads and parses the seed file.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("migrate: read seed %s: %w", path, err)
	}
	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("migrate: parse seed %s: %w", path, err)
	}
	return &seed, nil
}
