package reconcile

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/specsync/internal/extract"
	"git.home.luguber.info/inful/specsync/internal/openapi"
)

func docDef(name, version string, args ...extract.FieldDescriptor) *extract.MethodDefinition {
	return &extract.MethodDefinition{
		Name:           name,
		Version:        version,
		SourcePath:     version + "/" + name + "/index.mdx",
		Arguments:      args,
		ResponseFields: []extract.FieldDescriptor{},
	}
}

func declaredOp(name, version string, params ...extract.FieldDescriptor) *openapi.DeclaredOperation {
	return &openapi.DeclaredOperation{
		OperationID:        openapi.MethodToOperationID(name),
		Method:             name,
		Version:            version,
		Parameters:         params,
		ResponseFields:     []extract.FieldDescriptor{},
		SourceFragmentPath: version + "/" + openapi.MethodToOperationID(name) + ".yaml",
	}
}

func field(name string, kind extract.FieldKind) extract.FieldDescriptor {
	return extract.FieldDescriptor{Name: name, Kind: kind}
}

func TestReconcileStatuses(t *testing.T) {
	defs := extract.NewSet()
	require.Nil(t, defs.Add(docDef("matched", "v2", field("coin", extract.KindString))))
	require.Nil(t, defs.Add(docDef("undeclared", "v2")))
	require.Nil(t, defs.Add(docDef("drifted", "v2", field("coin", extract.KindString), field("extra", extract.KindNumber))))

	index := openapi.NewIndex()
	index.Add(declaredOp("matched", "v2", field("coin", extract.KindString)))
	index.Add(declaredOp("drifted", "v2", field("coin", extract.KindString)))
	index.Add(declaredOp("undocumented", "v2"))

	results := Reconcile(defs, index)
	require.Len(t, results, 4)

	byMethod := map[string]Result{}
	for _, r := range results {
		byMethod[r.Method] = r
	}

	require.Equal(t, StatusMatched, byMethod["matched"].Status)
	require.Nil(t, byMethod["matched"].Diff)

	require.Equal(t, StatusDocOnly, byMethod["undeclared"].Status)
	require.NotNil(t, byMethod["undeclared"].Doc)
	require.Nil(t, byMethod["undeclared"].Schema)

	require.Equal(t, StatusSchemaOnly, byMethod["undocumented"].Status)
	require.Nil(t, byMethod["undocumented"].Doc)

	require.Equal(t, StatusChanged, byMethod["drifted"].Status)
	require.NotNil(t, byMethod["drifted"].Diff)
	require.Equal(t, []string{"extra"}, byMethod["drifted"].Diff.Arguments.Added)
}

func TestReconcileResultsSorted(t *testing.T) {
	defs := extract.NewSet()
	require.Nil(t, defs.Add(docDef("zebra", "v2")))
	require.Nil(t, defs.Add(docDef("alpha", "v2")))
	require.Nil(t, defs.Add(docDef("beta", "legacy")))

	results := Reconcile(defs, openapi.NewIndex())

	var keys []string
	for _, r := range results {
		keys = append(keys, r.Version+"/"+r.Method)
	}
	require.Equal(t, []string{"legacy/beta", "v2/alpha", "v2/zebra"}, keys)
}

func TestReconcileIgnoresProseChanges(t *testing.T) {
	doc := docDef("setprice", "legacy",
		extract.FieldDescriptor{Name: "base", Kind: extract.KindString, Description: "reworded description", Required: true})
	op := declaredOp("setprice", "legacy",
		extract.FieldDescriptor{Name: "base", Kind: extract.KindString, Description: "original description"})

	defs := extract.NewSet()
	require.Nil(t, defs.Add(doc))
	index := openapi.NewIndex()
	index.Add(op)

	results := Reconcile(defs, index)
	require.Len(t, results, 1)
	require.Equal(t, StatusMatched, results[0].Status)
}

func TestDiffRenameFolding(t *testing.T) {
	doc := []extract.FieldDescriptor{
		field("base", extract.KindString),
		field("minimum_volume", extract.KindString),
	}
	decl := []extract.FieldDescriptor{
		field("base", extract.KindString),
		field("min_volume", extract.KindString),
	}

	d := diffFields(doc, decl)
	require.Empty(t, d.Added)
	require.Empty(t, d.Removed)
	require.Len(t, d.Renamed, 1)
	require.Equal(t, "min_volume", d.Renamed[0].From)
	require.Equal(t, "minimum_volume", d.Renamed[0].To)
	require.Equal(t, extract.KindString, d.Renamed[0].Kind)
}

func TestDiffRenameNotFoldedAcrossKinds(t *testing.T) {
	doc := []extract.FieldDescriptor{field("count", extract.KindNumber)}
	decl := []extract.FieldDescriptor{field("amount", extract.KindString)}

	d := diffFields(doc, decl)
	require.Equal(t, []string{"count"}, d.Added)
	require.Equal(t, []string{"amount"}, d.Removed)
	require.Empty(t, d.Renamed)
}

func TestDiffRetype(t *testing.T) {
	doc := []extract.FieldDescriptor{field("max", extract.KindBoolean)}
	decl := []extract.FieldDescriptor{field("max", extract.KindString)}

	d := diffFields(doc, decl)
	require.Len(t, d.Retyped, 1)
	require.Equal(t, "max", d.Retyped[0].Name)
	require.Equal(t, extract.KindBoolean, d.Retyped[0].Doc)
	require.Equal(t, extract.KindString, d.Retyped[0].Decl)
}

func TestDiffString(t *testing.T) {
	diff := &Diff{
		Arguments: SectionDiff{Renamed: []Rename{{From: "min_volume", To: "minimum_volume", Kind: extract.KindString}}},
	}
	require.Equal(t, "arguments {renamed: min_volume -> minimum_volume}", diff.String())
	require.False(t, diff.Empty())

	require.True(t, (&Diff{}).Empty())
}
