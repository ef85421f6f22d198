package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "specsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "docs_dir: my-docs\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "my-docs", cfg.DocsDir)
	require.Equal(t, "openapi/openapi.yaml", cfg.OpenAPI.Aggregate)
	require.Equal(t, "openapi/paths", cfg.OpenAPI.PathsDir)
	require.True(t, cfg.Cache.Enabled)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	path := writeConfig(t, "docs_dir: [unterminated\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestValidateRequiredFields(t *testing.T) {
	cfg := Default()
	cfg.DocsDir = ""
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Versions = nil
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Categories = []CategoryRule{{Prefix: "legacy/", Name: ""}}
	require.Error(t, cfg.Validate())
}

func TestVersionFor(t *testing.T) {
	cfg := Default()

	version, ok := cfg.VersionFor("v20/utils/index.mdx")
	require.True(t, ok)
	require.Equal(t, "v2", version)

	version, ok = cfg.VersionFor("legacy/setprice/index.mdx")
	require.True(t, ok)
	require.Equal(t, "legacy", version)

	_, ok = cfg.VersionFor("unmapped/index.mdx")
	require.False(t, ok)
}

func TestCategoryForLongestPrefixWins(t *testing.T) {
	cfg := Default()
	cfg.Categories = []CategoryRule{
		{Prefix: "v20/", Name: "General"},
		{Prefix: "v20/utils/", Name: "Utilities"},
	}

	require.Equal(t, "Utilities", cfg.CategoryFor("v20/utils/index.mdx"))
	require.Equal(t, "General", cfg.CategoryFor("v20/wallet/index.mdx"))
	require.Equal(t, "", cfg.CategoryFor("legacy/setprice/index.mdx"))
}

func TestVersionTags(t *testing.T) {
	cfg := Default()
	require.Equal(t, []string{"legacy", "v2", "v2-dev"}, cfg.VersionTags())
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "specsync.yaml")
	require.NoError(t, Init(path, false))

	// The generated scaffold must load cleanly.
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "docs", cfg.DocsDir)

	require.Error(t, Init(path, false))
	require.NoError(t, Init(path, true))
}
