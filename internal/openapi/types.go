// Package openapi parses per-endpoint schema fragments and the aggregate
// specification document.
package openapi

import (
	"sort"

	"git.home.luguber.info/inful/specsync/internal/extract"
)

// DeclaredOperation is the unit of formally declared schema: one HTTP verb
// on one path, traceable to exactly one fragment file.
type DeclaredOperation struct {
	OperationID string
	// Method is the RPC method name derived from the operation ID
	// (`-` separators restored to `::` for namespaced methods).
	Method     string
	Version    string
	Path       string
	HTTPMethod string

	Summary     string
	Description string
	// DocPath is the x-mdx-doc-path extension value, when present.
	DocPath string

	// Parameters describes the request body fields (shared envelope fields
	// such as userpass and method are excluded).
	Parameters []extract.FieldDescriptor
	// ResponseFields describes the success response shape.
	ResponseFields []extract.FieldDescriptor

	// SourceFragmentPath is the fragment file, relative to the paths root.
	SourceFragmentPath string
}

// Key identifies the operation within its version namespace.
func (op *DeclaredOperation) Key() string {
	return op.Version + "/" + op.Method
}

// Index holds all declared operations keyed by (method, version).
type Index struct {
	byKey map[string]*DeclaredOperation
}

// NewIndex returns an empty operation index.
func NewIndex() *Index {
	return &Index{byKey: make(map[string]*DeclaredOperation)}
}

// Add inserts an operation, replacing any previous entry for the same key.
func (ix *Index) Add(op *DeclaredOperation) {
	ix.byKey[op.Key()] = op
}

// Get returns the operation for (method, version), if declared.
func (ix *Index) Get(method, version string) (*DeclaredOperation, bool) {
	op, ok := ix.byKey[version+"/"+method]
	return op, ok
}

// All returns the operations sorted by (version, method).
func (ix *Index) All() []*DeclaredOperation {
	keys := make([]string, 0, len(ix.byKey))
	for k := range ix.byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ops := make([]*DeclaredOperation, 0, len(keys))
	for _, k := range keys {
		ops = append(ops, ix.byKey[k])
	}
	return ops
}

// Len returns the number of declared operations.
func (ix *Index) Len() int {
	return len(ix.byKey)
}
