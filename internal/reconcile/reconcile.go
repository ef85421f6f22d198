// Package reconcile matches extracted method definitions against declared
// schema operations and classifies the outcome.
package reconcile

import (
	"sort"

	"git.home.luguber.info/inful/specsync/internal/extract"
	"git.home.luguber.info/inful/specsync/internal/openapi"
)

// Status classifies one reconciled method.
type Status string

const (
	// StatusMatched means documentation and schema agree structurally.
	StatusMatched Status = "matched"
	// StatusDocOnly means the method is documented but not declared:
	// a candidate for schema generation.
	StatusDocOnly Status = "doc_only"
	// StatusSchemaOnly means the operation is declared but undocumented.
	// Reported, never removed: aggregate specs may be hand-curated.
	StatusSchemaOnly Status = "schema_only"
	// StatusChanged means both sides exist but their structural shapes
	// diverge.
	StatusChanged Status = "changed"
)

// Result is the reconciliation outcome for one (method, version) key.
type Result struct {
	Method  string
	Version string
	Status  Status
	Doc     *extract.MethodDefinition
	Schema  *openapi.DeclaredOperation
	// Diff is present only when Status is StatusChanged.
	Diff *Diff
}

// Reconcile produces one result per method name observed on either side,
// sorted by (version, method) for deterministic downstream output.
//
// Comparison is structural only (field names and kinds): prose rewording in
// documentation never produces a false positive.
func Reconcile(defs *extract.Set, index *openapi.Index) []Result {
	seen := make(map[string]bool)
	var results []Result

	for _, def := range defs.All() {
		seen[def.Key()] = true

		op, declared := index.Get(def.Name, def.Version)
		if !declared {
			results = append(results, Result{
				Method: def.Name, Version: def.Version, Status: StatusDocOnly, Doc: def,
			})
			continue
		}

		diff := compare(def, op)
		r := Result{Method: def.Name, Version: def.Version, Doc: def, Schema: op}
		if diff.Empty() {
			r.Status = StatusMatched
		} else {
			r.Status = StatusChanged
			r.Diff = diff
		}
		results = append(results, r)
	}

	for _, op := range index.All() {
		if seen[op.Key()] {
			continue
		}
		results = append(results, Result{
			Method: op.Method, Version: op.Version, Status: StatusSchemaOnly, Schema: op,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Version != results[j].Version {
			return results[i].Version < results[j].Version
		}
		return results[i].Method < results[j].Method
	})
	return results
}

func compare(def *extract.MethodDefinition, op *openapi.DeclaredOperation) *Diff {
	return &Diff{
		Arguments: diffFields(def.Arguments, op.Parameters),
		Response:  diffFields(def.ResponseFields, op.ResponseFields),
	}
}
