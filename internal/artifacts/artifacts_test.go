package artifacts

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/specsync/internal/extract"
	"git.home.luguber.info/inful/specsync/internal/reconcile"
)

func sampleResults() []reconcile.Result {
	setprice := &extract.MethodDefinition{
		Name:        "setprice",
		Version:     "legacy",
		SourcePath:  "legacy/setprice/index.mdx",
		Description: "Place an order on the orderbook.",
		Arguments: []extract.FieldDescriptor{
			{Name: "base", Kind: extract.KindString},
			{Name: "rel", Kind: extract.KindString},
		},
		Examples: []extract.Example{{
			Outcome:  "success",
			Request:  map[string]any{"userpass": "x", "method": "setprice", "base": "KMD"},
			Response: map[string]any{"result": map[string]any{"uuid": "abc"}},
		}},
	}
	taskInit := &extract.MethodDefinition{
		Name:       "task::enable_utxo::init",
		Version:    "v2",
		SourcePath: "v20-dev/task_enable_utxo/index.mdx",
	}

	return []reconcile.Result{
		{Method: "setprice", Version: "legacy", Status: reconcile.StatusDocOnly, Doc: setprice},
		{Method: "task::enable_utxo::init", Version: "v2", Status: reconcile.StatusDocOnly, Doc: taskInit},
		{Method: "withdraw", Version: "v2", Status: reconcile.StatusSchemaOnly},
	}
}

func TestBuildMapping(t *testing.T) {
	mapping := BuildMapping(sampleResults())

	require.Len(t, mapping, 2)
	require.Equal(t, "legacy/setprice/index.mdx", mapping["legacy"]["setprice"].DocLocation)
	require.Equal(t, "doc_only", mapping["legacy"]["setprice"].Status)
	require.Equal(t, "schema_only", mapping["v2"]["withdraw"].Status)
	require.Empty(t, mapping["v2"]["withdraw"].DocLocation)
}

func TestEncodeJSONDeterministic(t *testing.T) {
	mapping := BuildMapping(sampleResults())

	first, err := EncodeJSON(mapping)
	require.NoError(t, err)
	second, err := EncodeJSON(mapping)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.True(t, json.Valid(first))
	require.Equal(t, byte('\n'), first[len(first)-1])
}

func TestBuildSearchIndex(t *testing.T) {
	entries := BuildSearchIndex(sampleResults())
	require.Len(t, entries, 3)

	// Sorted by (version, method).
	require.Equal(t, "setprice", entries[0].Method)
	require.Equal(t, "task::enable_utxo::init", entries[1].Method)
	require.Equal(t, "withdraw", entries[2].Method)

	require.Contains(t, entries[0].Tokens, "setprice")
	require.Contains(t, entries[0].Tokens, "orderbook")
	require.Contains(t, entries[0].Tokens, "base")

	// Namespaced names are findable by their components.
	require.Contains(t, entries[1].Tokens, "task")
	require.Contains(t, entries[1].Tokens, "enable_utxo")
	require.Contains(t, entries[1].Tokens, "init")
}

func TestBuildCollections(t *testing.T) {
	collections := BuildCollections(sampleResults(), func(def *extract.MethodDefinition) string {
		return DefaultCategory(def.Name)
	})

	// Schema-only methods have nothing to import.
	require.Len(t, collections, 2)

	legacy := collections["legacy"]
	require.Equal(t, "API methods (legacy)", legacy.Info.Name)
	require.Len(t, legacy.Folders, 1)
	require.Equal(t, "general", legacy.Folders[0].Name)

	item := legacy.Folders[0].Items[0]
	require.Equal(t, "setprice", item.Name)
	require.Equal(t, "POST", item.Request.Method)
	require.Contains(t, item.Request.Body.Raw, `"method": "setprice"`)
	require.Len(t, item.Responses, 1)
	require.Equal(t, "success", item.Responses[0].Name)

	v2 := collections["v2"]
	require.Equal(t, "task", v2.Folders[0].Name)

	// No captured request example: the minimal envelope is synthesized.
	body := v2.Folders[0].Items[0].Request.Body.Raw
	require.Contains(t, body, `"method": "task::enable_utxo::init"`)
	require.Contains(t, body, "userpass")
}

func TestDefaultCategory(t *testing.T) {
	require.Equal(t, "task", DefaultCategory("task::withdraw::init"))
	require.Equal(t, "lightning", DefaultCategory("lightning::nodes::connect_to_node"))
	require.Equal(t, "general", DefaultCategory("setprice"))
}

func TestTokenize(t *testing.T) {
	tokens := tokenize("task::enable_utxo::init")
	require.Equal(t, []string{"task", "enable_utxo", "init"}, tokens)

	require.Empty(t, tokenize(""))
	require.Empty(t, tokenize("a"))
}
