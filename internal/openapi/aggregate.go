package openapi

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// AggregateEntry is one operation reference inside the aggregate document.
type AggregateEntry struct {
	// APIPath is the key under `paths`, e.g. /api/v2/setprice.
	APIPath string
	// Ref is the fragment reference, e.g. ./paths/v2/setprice.yaml.
	Ref string
	// Version and OperationID are derived from the reference path.
	Version     string
	OperationID string
}

// Aggregate is the composed specification document. It is held as a parsed
// YAML node tree so that insertions preserve key order and comments instead
// of rewriting the whole file shape.
type Aggregate struct {
	// FilePath is the on-disk location of the aggregate document.
	FilePath string

	doc     *yaml.Node
	entries []AggregateEntry
}

// LoadAggregate reads and parses the aggregate specification. Failure to
// parse the aggregate is fatal for the whole run.
func LoadAggregate(filePath string) (*Aggregate, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read aggregate document: %w", err)
	}
	return ParseAggregate(filePath, data)
}

// ParseAggregate parses aggregate document content.
func ParseAggregate(filePath string, data []byte) (*Aggregate, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse aggregate document: %w", err)
	}
	if docRoot(&doc) == nil || docRoot(&doc).Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse aggregate document: root is not a mapping")
	}

	agg := &Aggregate{FilePath: filePath, doc: &doc}
	agg.reindex()
	return agg, nil
}

// PathsNode returns the mapping node under the `paths` key, creating it if
// the document does not have one yet.
func (a *Aggregate) PathsNode() *yaml.Node {
	root := docRoot(a.doc)
	if paths := mapGet(root, "paths"); paths != nil {
		return paths
	}

	keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "paths"}
	valNode := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	root.Content = append(root.Content, keyNode, valNode)
	return valNode
}

// Entries returns the operation references in document order.
func (a *Aggregate) Entries() []AggregateEntry {
	return a.entries
}

// Find returns the entry for an API path, if present.
func (a *Aggregate) Find(apiPath string) (AggregateEntry, bool) {
	for _, e := range a.entries {
		if e.APIPath == apiPath {
			return e, true
		}
	}
	return AggregateEntry{}, false
}

// Reindex rebuilds the entry list after the node tree has been mutated.
func (a *Aggregate) Reindex() {
	a.reindex()
}

func (a *Aggregate) reindex() {
	a.entries = a.entries[:0]
	paths := mapGet(docRoot(a.doc), "paths")
	forEachPair(paths, func(apiPath string, item *yaml.Node) {
		entry := AggregateEntry{APIPath: apiPath}
		if ref := scalarOf(mapGet(item, "$ref")); ref != "" {
			entry.Ref = ref
			entry.Version, entry.OperationID = refVersionAndOp(ref)
		}
		a.entries = append(a.entries, entry)
	})
}

// Encode serializes the aggregate document, preserving key order and
// comments captured at parse time.
func (a *Aggregate) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(docRoot(a.doc)); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// refVersionAndOp extracts the version directory and operation ID from a
// fragment reference like ./paths/v2/setprice.yaml.
func refVersionAndOp(ref string) (version, opid string) {
	cleaned := strings.TrimPrefix(ref, "./")
	if idx := strings.Index(cleaned, "#"); idx >= 0 {
		cleaned = cleaned[:idx]
	}
	segments := strings.Split(cleaned, "/")
	for i, seg := range segments {
		if seg == "paths" && i+1 < len(segments) {
			version = segments[i+1]
			break
		}
	}
	stem := path.Base(cleaned)
	opid = strings.TrimSuffix(stem, path.Ext(stem))
	return version, opid
}
