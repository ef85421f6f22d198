package aggregate

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/specsync/internal/openapi"
	"git.home.luguber.info/inful/specsync/internal/reconcile"
	"git.home.luguber.info/inful/specsync/internal/report"
)

// Insertion is one planned aggregate addition: a synthesized fragment file
// plus a reference spliced into the aggregate document.
type Insertion struct {
	Method  string
	Version string
	// APIPath is the key inserted under `paths`.
	APIPath string
	// Ref is the reference value, relative to the aggregate document.
	Ref string
	// FragmentRelPath is the fragment file path relative to the paths root.
	FragmentRelPath string
	// FragmentData is the synthesized fragment content.
	FragmentData []byte
}

// Plan is the computed aggregate patch. Nothing is written until Apply.
type Plan struct {
	Insertions []Insertion
	Conflicts  []report.Defect
}

// Empty reports whether the plan changes anything.
func (p *Plan) Empty() bool {
	return len(p.Insertions) == 0
}

// Render formats the patch for dry-run output.
func (p *Plan) Render() string {
	if p.Empty() && len(p.Conflicts) == 0 {
		return "aggregate patch: no changes\n"
	}
	var b strings.Builder
	for _, ins := range p.Insertions {
		fmt.Fprintf(&b, "+ %s -> %s (fragment %s)\n", ins.APIPath, ins.Ref, ins.FragmentRelPath)
		b.Write(ins.FragmentData)
	}
	for _, c := range p.Conflicts {
		fmt.Fprintf(&b, "! %s\n", c.String())
	}
	return b.String()
}

// Updater plans and applies structural patches to the aggregate document.
type Updater struct {
	Aggregate *openapi.Aggregate
	// RefPrefix is the fragment reference prefix as seen from the aggregate
	// document, typically "./paths".
	RefPrefix string
}

// BuildPlan synthesizes fragments for every doc-only result and computes the
// aggregate insertions. Changed results are never planned: overwriting a
// hand-maintained schema could delete intentional extensions absent from
// documentation.
func (u *Updater) BuildPlan(results []reconcile.Result) (*Plan, error) {
	plan := &Plan{}

	for _, r := range results {
		if r.Status != reconcile.StatusDocOnly || r.Doc == nil {
			continue
		}

		opid := openapi.MethodToOperationID(r.Method)
		apiPath := "/api/" + r.Version + "/" + opid
		ref := u.RefPrefix + "/" + r.Version + "/" + opid + ".yaml"

		if existing, ok := u.Aggregate.Find(apiPath); ok {
			if existing.Ref == ref {
				// Already referenced; nothing to do.
				continue
			}
			plan.Conflicts = append(plan.Conflicts, report.Defect{
				Kind:    report.KindAggregateWriteConflict,
				Method:  r.Method,
				Version: r.Version,
				Path:    u.Aggregate.FilePath,
				Message: fmt.Sprintf("entry %s already present with conflicting content %q", apiPath, existing.Ref),
			})
			continue
		}

		data, err := SynthesizeFragment(r.Doc, apiPath)
		if err != nil {
			return nil, fmt.Errorf("synthesize fragment for %s (%s): %w", r.Method, r.Version, err)
		}

		plan.Insertions = append(plan.Insertions, Insertion{
			Method:          r.Method,
			Version:         r.Version,
			APIPath:         apiPath,
			Ref:             ref,
			FragmentRelPath: r.Version + "/" + opid + ".yaml",
			FragmentData:    data,
		})
	}

	return plan, nil
}

// Apply splices the planned references into the aggregate node tree.
// Existing entries keep their order; each new entry lands at the
// alphabetical position (by operation ID) within its version group, so
// repeated runs produce identical documents.
func (u *Updater) Apply(plan *Plan) {
	for _, ins := range plan.Insertions {
		u.insertRef(ins)
	}
	u.Aggregate.Reindex()
}

func (u *Updater) insertRef(ins Insertion) {
	paths := u.Aggregate.PathsNode()
	opid := openapi.MethodToOperationID(ins.Method)

	// Entry index within the mapping, counted in pairs.
	insertAt := len(paths.Content) / 2
	groupEnd := -1
	for i := 0; i+1 < len(paths.Content); i += 2 {
		entryVersion, entryOp := refInfo(paths.Content[i+1])
		if entryVersion != ins.Version {
			continue
		}
		if entryOp > opid {
			insertAt = i / 2
			groupEnd = -1
			break
		}
		groupEnd = i / 2
	}
	if groupEnd >= 0 {
		insertAt = groupEnd + 1
	}

	keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: ins.APIPath}
	valNode := mapping(scalar("$ref"), scalar(ins.Ref))

	at := insertAt * 2
	paths.Content = append(paths.Content, nil, nil)
	copy(paths.Content[at+2:], paths.Content[at:])
	paths.Content[at] = keyNode
	paths.Content[at+1] = valNode
}

// refInfo extracts version and operation ID from a path item's $ref value.
func refInfo(item *yaml.Node) (version, opid string) {
	if item == nil || item.Kind != yaml.MappingNode {
		return "", ""
	}
	for i := 0; i+1 < len(item.Content); i += 2 {
		if item.Content[i].Value == "$ref" {
			ref := item.Content[i+1].Value
			return refParts(ref)
		}
	}
	return "", ""
}

func refParts(ref string) (version, opid string) {
	cleaned := strings.TrimPrefix(ref, "./")
	segments := strings.Split(cleaned, "/")
	if len(segments) >= 2 {
		version = segments[len(segments)-2]
	}
	last := segments[len(segments)-1]
	opid = strings.TrimSuffix(last, ".yaml")
	opid = strings.TrimSuffix(opid, ".yml")
	return version, opid
}
