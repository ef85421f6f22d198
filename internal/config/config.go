// Package config loads and validates the specsync configuration file.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration.
type Config struct {
	// DocsDir is the root of the documentation tree (read-only input).
	DocsDir string `yaml:"docs_dir"`

	OpenAPI OpenAPIConfig `yaml:"openapi"`

	// OutputDir receives generated artifacts (mapping, search index,
	// collections, cache).
	OutputDir string `yaml:"output_dir"`

	// Versions maps a top-level docs directory name onto a version tag,
	// e.g. "v20" -> "v2". Directories without a mapping are skipped.
	Versions map[string]string `yaml:"versions"`

	// Categories maps documentation path prefixes onto functional category
	// names for collection grouping. First (longest-prefix) match wins.
	Categories []CategoryRule `yaml:"categories"`

	// Workers bounds the scan/extract worker pool. Zero selects a sensible
	// default based on available CPUs.
	Workers int `yaml:"workers"`

	Cache CacheConfig `yaml:"cache"`
}

// OpenAPIConfig locates the declared schema inputs.
type OpenAPIConfig struct {
	// Aggregate is the composed specification document (read-write).
	Aggregate string `yaml:"aggregate"`
	// PathsDir holds per-version fragment directories (read-only unless
	// updating).
	PathsDir string `yaml:"paths_dir"`
}

// CategoryRule assigns a category name to documentation paths under a
// prefix.
type CategoryRule struct {
	Prefix string `yaml:"prefix"`
	Name   string `yaml:"name"`
}

// CacheConfig controls the extraction cache.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	// Path overrides the default cache location under the output directory.
	Path string `yaml:"path,omitempty"`
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read configuration: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if c.DocsDir == "" {
		return fmt.Errorf("configuration: docs_dir is required")
	}
	if c.OpenAPI.Aggregate == "" {
		return fmt.Errorf("configuration: openapi.aggregate is required")
	}
	if c.OpenAPI.PathsDir == "" {
		return fmt.Errorf("configuration: openapi.paths_dir is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("configuration: output_dir is required")
	}
	if len(c.Versions) == 0 {
		return fmt.Errorf("configuration: at least one versions mapping is required")
	}
	for i, rule := range c.Categories {
		if rule.Prefix == "" || rule.Name == "" {
			return fmt.Errorf("configuration: categories[%d] needs both prefix and name", i)
		}
	}
	return nil
}

// VersionFor maps a documentation-relative path onto its version tag. The
// first path segment selects the version directory.
func (c *Config) VersionFor(relPath string) (string, bool) {
	segment := relPath
	if idx := strings.IndexByte(relPath, '/'); idx >= 0 {
		segment = relPath[:idx]
	}
	version, ok := c.Versions[segment]
	return version, ok
}

// CategoryFor resolves the functional category for a documentation path.
// The longest matching prefix wins; an empty string means no rule matched.
func (c *Config) CategoryFor(relPath string) string {
	best := ""
	bestLen := -1
	for _, rule := range c.Categories {
		if strings.HasPrefix(relPath, rule.Prefix) && len(rule.Prefix) > bestLen {
			best = rule.Name
			bestLen = len(rule.Prefix)
		}
	}
	return best
}

// VersionTags returns the configured version tags, sorted and deduplicated.
func (c *Config) VersionTags() []string {
	seen := make(map[string]bool)
	var tags []string
	for _, v := range c.Versions {
		if !seen[v] {
			seen[v] = true
			tags = append(tags, v)
		}
	}
	sort.Strings(tags)
	return tags
}
