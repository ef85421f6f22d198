package reconcile

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/specsync/internal/extract"
)

// Retype records a field present on both sides with diverging kinds.
type Retype struct {
	Name string            `json:"name"`
	Doc  extract.FieldKind `json:"doc"`
	Decl extract.FieldKind `json:"declared"`
}

// Rename records a probable field rename: one field removed and one added
// with an identical kind.
type Rename struct {
	From string            `json:"from"`
	To   string            `json:"to"`
	Kind extract.FieldKind `json:"kind"`
}

// SectionDiff describes the structural divergence of one field list.
type SectionDiff struct {
	// Added lists fields present in documentation but not in the schema.
	Added []string `json:"added,omitempty"`
	// Removed lists fields declared in the schema but absent from
	// documentation.
	Removed []string  `json:"removed,omitempty"`
	Retyped []Retype  `json:"retyped,omitempty"`
	Renamed []Rename  `json:"renamed,omitempty"`
}

// Empty reports whether the section shapes agree.
func (d SectionDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Retyped) == 0 && len(d.Renamed) == 0
}

// Diff describes what changed between a documented method and its declared
// operation.
type Diff struct {
	Arguments SectionDiff `json:"arguments"`
	Response  SectionDiff `json:"response"`
}

// Empty reports whether both sides agree structurally.
func (d *Diff) Empty() bool {
	return d.Arguments.Empty() && d.Response.Empty()
}

// String renders the diff compactly for run summaries.
func (d *Diff) String() string {
	var parts []string
	if s := d.Arguments.describe("arguments"); s != "" {
		parts = append(parts, s)
	}
	if s := d.Response.describe("response"); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, "; ")
}

func (d SectionDiff) describe(label string) string {
	if d.Empty() {
		return ""
	}
	var parts []string
	for _, r := range d.Renamed {
		parts = append(parts, fmt.Sprintf("renamed: %s -> %s", r.From, r.To))
	}
	for _, name := range d.Added {
		parts = append(parts, "added: "+name)
	}
	for _, name := range d.Removed {
		parts = append(parts, "removed: "+name)
	}
	for _, r := range d.Retyped {
		parts = append(parts, fmt.Sprintf("retyped: %s (%s -> %s)", r.Name, r.Decl, r.Doc))
	}
	return label + " {" + strings.Join(parts, ", ") + "}"
}

// diffFields compares documented fields against declared fields by name and
// kind. A lone removed/added pair sharing a kind is folded into a rename,
// which keeps common field renames from reading as two unrelated edits.
func diffFields(docFields, declFields []extract.FieldDescriptor) SectionDiff {
	docByName := fieldMap(docFields)
	declByName := fieldMap(declFields)

	var d SectionDiff
	for _, f := range docFields {
		decl, ok := declByName[f.Name]
		if !ok {
			d.Added = append(d.Added, f.Name)
			continue
		}
		if decl.Kind != f.Kind {
			d.Retyped = append(d.Retyped, Retype{Name: f.Name, Doc: f.Kind, Decl: decl.Kind})
		}
	}
	for _, f := range declFields {
		if _, ok := docByName[f.Name]; !ok {
			d.Removed = append(d.Removed, f.Name)
		}
	}

	if len(d.Added) == 1 && len(d.Removed) == 1 {
		added := docByName[d.Added[0]]
		removed := declByName[d.Removed[0]]
		if added.Kind == removed.Kind {
			d.Renamed = []Rename{{From: d.Removed[0], To: d.Added[0], Kind: added.Kind}}
			d.Added = nil
			d.Removed = nil
		}
	}

	return d
}

func fieldMap(fields []extract.FieldDescriptor) map[string]extract.FieldDescriptor {
	m := make(map[string]extract.FieldDescriptor, len(fields))
	for _, f := range fields {
		m[f.Name] = f
	}
	return m
}
