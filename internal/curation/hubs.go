package curation

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jonesrussell/north-cloud/curator/internal/urlutil"
)

// HubCatalog is the static category to hub-URL map.
type HubCatalog struct {
	byCategory map[string][]string
	defaults   []string
}

// NewHubCatalog builds a catalog. Category keys are matched case-insensitively.
func NewHubCatalog(hubs map[string][]string, defaults []string) *HubCatalog {
	c := &HubCatalog{byCategory: make(map[string][]string, len(hubs))}
	for category, urls := range hubs {
		c.byCategory[categoryKey(category)] = validHubs(urls)
	}
	c.defaults = validHubs(defaults)
	if len(c.defaults) == 0 {
		c.defaults = append([]string(nil), DefaultHubPair...)
	}
	return c
}

// hubFile is the YAML layout of a hubs file.
type hubFile struct {
	Categories map[string][]string `yaml:"categories"`
}

// LoadHubFile reads a YAML file of the form "categories: {name: [url, ...]}".
func LoadHubFile(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read hubs file: %w", err)
	}
	var f hubFile
	if err = yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse hubs file %s: %w", path, err)
	}
	return f.Categories, nil
}

// MergeHubs returns base overlaid with extra; extra wins per category.
func MergeHubs(base, extra map[string][]string) map[string][]string {
	out := make(map[string][]string, len(base)+len(extra))
	for k, v := range base {
		out[categoryKey(k)] = v
	}
	for k, v := range extra {
		out[categoryKey(k)] = v
	}
	return out
}

// For returns the hubs for category, or the default pair when none are configured.
func (c *HubCatalog) For(category string) []string {
	if hubs := c.byCategory[categoryKey(category)]; len(hubs) > 0 {
		return append([]string(nil), hubs...)
	}
	return c.Defaults()
}

// Defaults returns the fallback hub pair.
func (c *HubCatalog) Defaults() []string {
	return append([]string(nil), c.defaults...)
}

// Categories lists configured categories, sorted.
func (c *HubCatalog) Categories() []string {
	out := make([]string, 0, len(c.byCategory))
	for k, v := range c.byCategory {
		if len(v) > 0 {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func categoryKey(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

// validHubs keeps absolute http(s) URLs, deduplicated in order.
func validHubs(urls []string) []string {
	out := make([]string, 0, len(urls))
	seen := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if !urlutil.IsAbsoluteHTTP(u) {
			continue
		}
		key := urlutil.Key(u)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, u)
	}
	return out
}
