// Package extract locates method-defining sections in normalized
// documentation and produces structured method definitions.
package extract

import (
	"encoding/json"
	"sort"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/specsync/internal/report"
)

// FieldKind is the closed set of semantic type kinds a documented field is
// normalized into.
type FieldKind string

const (
	KindString  FieldKind = "string"
	KindNumber  FieldKind = "number"
	KindBoolean FieldKind = "boolean"
	KindObject  FieldKind = "object"
	KindArray   FieldKind = "array"
	KindEnum    FieldKind = "enum"
)

// FieldDescriptor describes one argument or response field.
type FieldDescriptor struct {
	Name        string    `json:"name"`
	Kind        FieldKind `json:"kind"`
	Required    bool      `json:"required"`
	Description string    `json:"description,omitempty"`
	// RawTypeHint preserves the original free-text type when it does not
	// cleanly map onto Kind.
	RawTypeHint string `json:"raw_type_hint,omitempty"`
	Default     string `json:"default,omitempty"`
}

// Example is one captured request/response payload pair. Payloads are
// decoded JSON trees, not raw text, to permit structural comparison.
type Example struct {
	// Outcome is "success" or a named error kind inferred from the
	// surrounding heading text.
	Outcome  string `json:"outcome"`
	Request  any    `json:"request,omitempty"`
	Response any    `json:"response,omitempty"`
}

// MethodDefinition is the unit of knowledge extracted from documentation.
//
// (Name, Version) is unique among successfully extracted definitions; a
// single document may contribute several definitions.
type MethodDefinition struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	SourcePath  string `json:"source_path"`
	Description string `json:"description,omitempty"`

	Arguments      []FieldDescriptor `json:"arguments"`
	ResponseFields []FieldDescriptor `json:"response_fields"`
	Examples       []Example         `json:"examples,omitempty"`
	ErrorTypes     []string          `json:"error_types,omitempty"`

	// ContentHash digests the normalized extracted content for change
	// detection across runs.
	ContentHash string `json:"content_hash"`

	// Warnings holds non-fatal extraction issues (malformed examples).
	Warnings []report.Defect `json:"warnings,omitempty"`
}

// Key identifies a definition within its version namespace.
func (m *MethodDefinition) Key() string {
	return m.Version + "/" + m.Name
}

// computeContentHash derives the canonical fingerprint of the normalized
// definition content. Source path and warnings are excluded so that moving a
// file without changing its content keeps the hash stable.
func computeContentHash(m *MethodDefinition) string {
	normalized := struct {
		Description    string            `json:"description,omitempty"`
		Arguments      []FieldDescriptor `json:"arguments"`
		ResponseFields []FieldDescriptor `json:"response_fields"`
		Examples       []Example         `json:"examples,omitempty"`
		ErrorTypes     []string          `json:"error_types,omitempty"`
	}{m.Description, m.Arguments, m.ResponseFields, m.Examples, m.ErrorTypes}

	payload, err := json.Marshal(normalized)
	if err != nil {
		// Decoded JSON trees and plain structs always marshal.
		payload = []byte(err.Error())
	}
	return mdfp.CalculateFingerprintFromParts(m.Version+"/"+m.Name, string(payload))
}

// Set accumulates definitions keyed by (name, version), resolving duplicates
// deterministically: when definitions must be added in sorted source-path
// order, the last occurrence wins.
type Set struct {
	byKey map[string]*MethodDefinition
	order []string
}

// NewSet returns an empty definition set.
func NewSet() *Set {
	return &Set{byKey: make(map[string]*MethodDefinition)}
}

// Add inserts a definition. If the key already exists the new definition
// replaces the old one and the returned defect records the duplicate.
func (s *Set) Add(def *MethodDefinition) *report.Defect {
	key := def.Key()
	prev, exists := s.byKey[key]
	s.byKey[key] = def
	if !exists {
		s.order = append(s.order, key)
		return nil
	}
	return &report.Defect{
		Kind:    report.KindDuplicateMethod,
		Method:  def.Name,
		Version: def.Version,
		Path:    def.SourcePath,
		Message: "method already defined in " + prev.SourcePath + "; last occurrence wins",
	}
}

// Get returns the definition for (name, version), if present.
func (s *Set) Get(name, version string) (*MethodDefinition, bool) {
	def, ok := s.byKey[version+"/"+name]
	return def, ok
}

// All returns the definitions sorted by (version, name).
func (s *Set) All() []*MethodDefinition {
	keys := make([]string, len(s.order))
	copy(keys, s.order)
	sort.Strings(keys)

	defs := make([]*MethodDefinition, 0, len(keys))
	for _, k := range keys {
		defs = append(defs, s.byKey[k])
	}
	return defs
}

// Len returns the number of distinct definitions.
func (s *Set) Len() int {
	return len(s.byKey)
}
