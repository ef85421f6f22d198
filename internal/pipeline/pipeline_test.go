package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/specsync/internal/config"
	"git.home.luguber.info/inful/specsync/internal/report"
)

const myBalanceDoc = `export const title = "My Balance";
export const description = "Check coin balance.";

## my_balance

Returns the balance of a coin.

### Arguments

| Structure | Type   | Description          |
| --------- | ------ | -------------------- |
| coin      | string | the name of the coin |
`

const faucetgetDoc = `export const title = "Faucetget";
export const description = "Request test coins from the faucet.";

## faucetget

Requests test coins from the faucet.

### Arguments

| Structure | Type   | Description     |
| --------- | ------ | --------------- |
| coin      | string | the coin ticker |

#### Command

` + "```json" + `
{
  "userpass": "RPC_UserP@SSW0RD",
  "method": "faucetget",
  "coin": "RICK"
}
` + "```" + `
`

const myBalanceFragment = `# OpenAPI path spec for my_balance (legacy)
/api/legacy/my_balance:
  post:
    operationId: my_balance
    summary: Returns the balance of a coin.
    requestBody:
      content:
        application/json:
          schema:
            type: object
            required:
              - userpass
              - method
              - coin
            properties:
              userpass:
                type: string
              method:
                type: string
              coin:
                type: string
`

const baseAggregate = `openapi: 3.0.0
info:
  title: Test API
paths:
  /api/legacy/my_balance:
    $ref: ./paths/legacy/my_balance.yaml
`

type fixture struct {
	root string
	cfg  *config.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()

	f := &fixture{root: root}
	f.cfg = &config.Config{
		DocsDir:   filepath.Join(root, "docs"),
		OutputDir: filepath.Join(root, "out"),
		OpenAPI: config.OpenAPIConfig{
			Aggregate: filepath.Join(root, "openapi", "openapi.yaml"),
			PathsDir:  filepath.Join(root, "openapi", "paths"),
		},
		Versions: map[string]string{"legacy": "legacy", "v20": "v2"},
		Workers:  2,
	}

	f.writeFile(t, "docs/legacy/my_balance/index.mdx", myBalanceDoc)
	f.writeFile(t, "docs/legacy/faucetget/index.mdx", faucetgetDoc)
	f.writeFile(t, "openapi/paths/legacy/my_balance.yaml", myBalanceFragment)
	f.writeFile(t, "openapi/openapi.yaml", baseAggregate)
	return f
}

func (f *fixture) writeFile(t *testing.T, rel, content string) {
	t.Helper()
	path := filepath.Join(f.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func (f *fixture) readFile(t *testing.T, rel string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return data
}

func (f *fixture) run(t *testing.T, opts Options) *report.Summary {
	t.Helper()
	summary, err := New(f.cfg, opts).Run(context.Background())
	require.NoError(t, err)
	return summary
}

func TestRunClassifiesCoverage(t *testing.T) {
	f := newFixture(t)
	summary := f.run(t, Options{})

	require.Equal(t, 2, summary.DocsTotal)
	require.Equal(t, 2, summary.Methods)
	require.Equal(t, 1, summary.Operations)

	coverage := summary.Coverage["legacy"]
	require.Equal(t, 1, coverage.Matched)
	require.Equal(t, 1, coverage.DocOnly)
	require.Equal(t, 0, coverage.Changed)

	// Doc-only coverage is informational, not a defect.
	require.Equal(t, 0, summary.ExitCode())
}

func TestRunWritesArtifacts(t *testing.T) {
	f := newFixture(t)
	f.run(t, Options{})

	mapping := f.readFile(t, "out/unified_method_mapping.json")
	require.Contains(t, string(mapping), `"my_balance"`)
	require.Contains(t, string(mapping), `"faucetget"`)
	require.Contains(t, string(mapping), `"doc_only"`)

	index := f.readFile(t, "out/search_index.json")
	require.Contains(t, string(index), `"faucetget"`)

	collection := f.readFile(t, "out/collections/collection_legacy.json")
	require.Contains(t, string(collection), `"method": "faucetget"`)
}

func TestRunArtifactsAreIdempotent(t *testing.T) {
	f := newFixture(t)
	f.run(t, Options{})
	first := f.readFile(t, "out/unified_method_mapping.json")

	f.run(t, Options{})
	second := f.readFile(t, "out/unified_method_mapping.json")
	require.Equal(t, first, second)
}

func TestRunMappingOnlySkipsCollections(t *testing.T) {
	f := newFixture(t)
	f.run(t, Options{MappingOnly: true})

	f.readFile(t, "out/unified_method_mapping.json")
	f.readFile(t, "out/search_index.json")

	_, err := os.Stat(filepath.Join(f.root, "out", "collections"))
	require.True(t, os.IsNotExist(err))
}

func TestRunDryRunWritesNothing(t *testing.T) {
	f := newFixture(t)
	aggregateBefore := f.readFile(t, "openapi/openapi.yaml")

	summary := f.run(t, Options{DryRun: true, UpdateOpenAPI: true})

	require.True(t, summary.DryRun)
	require.NotEmpty(t, summary.PatchText)
	require.Contains(t, summary.PatchText, "/api/legacy/faucetget")

	_, err := os.Stat(filepath.Join(f.root, "out"))
	require.True(t, os.IsNotExist(err))
	require.Equal(t, aggregateBefore, f.readFile(t, "openapi/openapi.yaml"))
}

func TestRunUpdateOpenAPIInsertsDocOnlyMethod(t *testing.T) {
	f := newFixture(t)

	summary := f.run(t, Options{UpdateOpenAPI: true})
	require.Equal(t, []string{"faucetget (legacy)"}, summary.Inserted)

	fragment := f.readFile(t, "openapi/paths/legacy/faucetget.yaml")
	require.Contains(t, string(fragment), "# OpenAPI path spec for faucetget (legacy)")
	require.Contains(t, string(fragment), "operationId: faucetget")

	aggregate := string(f.readFile(t, "openapi/openapi.yaml"))
	require.Contains(t, aggregate, "/api/legacy/faucetget")
	require.Contains(t, aggregate, "/api/legacy/my_balance")

	// The synthesized fragment must reconcile clean on the next run.
	second := f.run(t, Options{})
	coverage := second.Coverage["legacy"]
	require.Equal(t, 2, coverage.Matched)
	require.Equal(t, 0, coverage.DocOnly)
	require.Equal(t, 0, coverage.Changed)
}

func TestRunUpdateOpenAPIIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.run(t, Options{UpdateOpenAPI: true})
	aggregateAfterFirst := f.readFile(t, "openapi/openapi.yaml")

	summary := f.run(t, Options{UpdateOpenAPI: true})
	require.Empty(t, summary.Inserted)
	require.Equal(t, aggregateAfterFirst, f.readFile(t, "openapi/openapi.yaml"))
}

func TestRunReportsDrift(t *testing.T) {
	f := newFixture(t)

	drifted := myBalanceDoc + `
### Response

| Structure | Type   | Description |
| --------- | ------ | ----------- |
| balance   | string | the balance |
`
	f.writeFile(t, "docs/legacy/my_balance/index.mdx", drifted)

	summary := f.run(t, Options{})
	require.Equal(t, 1, summary.Coverage["legacy"].Changed)
	require.Equal(t, 1, summary.CountKind(report.KindDrift))
	require.Equal(t, 2, summary.ExitCode())

	// Drift is never auto-applied to the schema tree.
	require.NotContains(t, string(f.readFile(t, "openapi/paths/legacy/my_balance.yaml")), "balance")
}

func TestRunReportsDuplicateMethod(t *testing.T) {
	f := newFixture(t)
	f.writeFile(t, "docs/legacy/zz_duplicate/index.mdx", faucetgetDoc)

	summary := f.run(t, Options{})
	require.Equal(t, 1, summary.CountKind(report.KindDuplicateMethod))
	require.Equal(t, 2, summary.ExitCode())

	// Sorted path order makes the later document win deterministically.
	mapping := string(f.readFile(t, "out/unified_method_mapping.json"))
	require.Contains(t, mapping, "zz_duplicate")
}

func TestRunSkipsUnmappedVersionDirectories(t *testing.T) {
	f := newFixture(t)
	f.writeFile(t, "docs/unmapped/thing/index.mdx", "## some_method\n\nNot counted.\n")

	summary := f.run(t, Options{})
	require.Equal(t, 3, summary.DocsTotal)
	require.Equal(t, 2, summary.Methods)
}

func TestRunUnreadableDocumentIsWarning(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(
		filepath.Join(f.root, "docs", "legacy", "broken.mdx"), []byte{0xff, 0xfe, 0x00}, 0644))

	summary := f.run(t, Options{})
	require.Equal(t, 1, summary.CountKind(report.KindUnreadableDocument))
	require.Equal(t, 1, summary.WarningCount())
	require.Equal(t, 0, summary.ExitCode())
}

func TestRunWithCacheEnabled(t *testing.T) {
	f := newFixture(t)
	f.cfg.Cache = config.CacheConfig{Enabled: true}

	first := f.run(t, Options{})
	second := f.run(t, Options{})

	require.Equal(t, first.Methods, second.Methods)
	require.Equal(t, first.Coverage["legacy"], second.Coverage["legacy"])

	_, err := os.Stat(filepath.Join(f.root, "out", "specsync-cache.db"))
	require.NoError(t, err)
}

func TestRunCancelledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(f.cfg, Options{}).Run(ctx)
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(f.root, "out"))
	require.True(t, os.IsNotExist(statErr))
}
