package config

import (
	"fmt"
	"os"
)

// Default returns the configuration defaults applied before file values.
func Default() *Config {
	return &Config{
		DocsDir: "docs",
		OpenAPI: OpenAPIConfig{
			Aggregate: "openapi/openapi.yaml",
			PathsDir:  "openapi/paths",
		},
		OutputDir: "data/specsync",
		Versions: map[string]string{
			"legacy": "legacy",
			"v20":    "v2",
			"v20-dev": "v2-dev",
		},
		Cache: CacheConfig{Enabled: true},
	}
}

const initTemplate = `# specsync configuration
docs_dir: docs
openapi:
  aggregate: openapi/openapi.yaml
  paths_dir: openapi/paths
output_dir: data/specsync
# Map top-level docs directories onto version tags.
versions:
  legacy: legacy
  v20: v2
  v20-dev: v2-dev
# Functional categories for collection grouping (longest prefix wins).
categories:
  - prefix: legacy/wallet/
    name: Wallet
  - prefix: v20/utils/
    name: Utilities
cache:
  enabled: true
`

// Init writes a starter configuration file.
func Init(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("configuration file %s already exists (use --force to overwrite)", path)
		}
	}
	return os.WriteFile(path, []byte(initTemplate), 0644)
}
