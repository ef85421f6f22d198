package artifacts

import (
	"bytes"
	"encoding/json"

	"git.home.luguber.info/inful/specsync/internal/reconcile"
)

// MappingEntry records where one method is defined on each side.
type MappingEntry struct {
	Version        string `json:"version"`
	DocLocation    string `json:"doc_location,omitempty"`
	SchemaLocation string `json:"schema_location,omitempty"`
	Status         string `json:"status"`
}

// BuildMapping produces the unified cross-reference map, grouped by version:
// the single source of truth for "where is X defined" used by downstream
// consumers.
func BuildMapping(results []reconcile.Result) map[string]map[string]MappingEntry {
	mapping := make(map[string]map[string]MappingEntry)
	for _, r := range results {
		entry := MappingEntry{Version: r.Version, Status: string(r.Status)}
		if r.Doc != nil {
			entry.DocLocation = r.Doc.SourcePath
		}
		if r.Schema != nil {
			entry.SchemaLocation = r.Schema.SourceFragmentPath
		}

		byMethod := mapping[r.Version]
		if byMethod == nil {
			byMethod = make(map[string]MappingEntry)
			mapping[r.Version] = byMethod
		}
		byMethod[r.Method] = entry
	}
	return mapping
}

// EncodeJSON serializes an artifact deterministically: two-space indent,
// sorted object keys (encoding/json sorts map keys), trailing newline.
func EncodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
