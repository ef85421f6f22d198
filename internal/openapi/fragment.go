package openapi

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/specsync/internal/extract"
	"git.home.luguber.info/inful/specsync/internal/report"
)

// envelopeFields are request fields injected by the shared RPC envelope and
// therefore excluded from per-method parameter comparison.
var envelopeFields = map[string]bool{"userpass": true, "method": true}

var httpVerbs = []string{"get", "post", "put", "patch", "delete"}

// ParseFragment parses one schema-fragment file into its declared
// operations. A fragment may describe multiple HTTP verbs on one path.
func ParseFragment(relPath string, data []byte, version string) ([]*DeclaredOperation, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", relPath, err)
	}

	root := docRoot(&doc)
	if root == nil || root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse %s: fragment root is not a mapping", relPath)
	}

	var ops []*DeclaredOperation
	var parseErr error
	forEachPair(root, func(key string, pathItem *yaml.Node) {
		if parseErr != nil || !strings.HasPrefix(key, "/") || pathItem.Kind != yaml.MappingNode {
			return
		}
		for _, verb := range httpVerbs {
			opNode := mapGet(pathItem, verb)
			if opNode == nil {
				continue
			}
			op, err := parseOperation(opNode, key, verb, version, relPath)
			if err != nil {
				parseErr = err
				return
			}
			ops = append(ops, op)
		}
	})

	if parseErr != nil {
		return nil, fmt.Errorf("parse %s: %w", relPath, parseErr)
	}
	if len(ops) == 0 {
		return nil, fmt.Errorf("parse %s: no operations declared", relPath)
	}
	return ops, nil
}

func parseOperation(opNode *yaml.Node, path, verb, version, relPath string) (*DeclaredOperation, error) {
	opid := scalarOf(mapGet(opNode, "operationId"))
	if opid == "" {
		return nil, fmt.Errorf("operation %s %s has no operationId", verb, path)
	}

	op := &DeclaredOperation{
		OperationID:        opid,
		Method:             OperationIDToMethod(opid),
		Version:            version,
		Path:               path,
		HTTPMethod:         strings.ToUpper(verb),
		Summary:            scalarOf(mapGet(opNode, "summary")),
		Description:        scalarOf(mapGet(opNode, "description")),
		DocPath:            scalarOf(mapGet(opNode, "x-mdx-doc-path")),
		SourceFragmentPath: relPath,
		Parameters:         []extract.FieldDescriptor{},
		ResponseFields:     []extract.FieldDescriptor{},
	}

	if schema := dig(opNode, "requestBody", "content", "application/json", "schema"); schema != nil {
		op.Parameters = schemaFields(schema)
	}
	if schema := dig(opNode, "responses", "200", "content", "application/json", "schema"); schema != nil {
		op.ResponseFields = responseFields(schema)
	}
	return op, nil
}

// schemaFields flattens an object schema into ordered field descriptors.
// allOf compositions are merged in order; $ref members (the shared request
// envelope) contribute no fields here.
func schemaFields(schema *yaml.Node) []extract.FieldDescriptor {
	fields := []extract.FieldDescriptor{}
	if schema == nil {
		return fields
	}

	if allOf := mapGet(schema, "allOf"); allOf != nil && allOf.Kind == yaml.SequenceNode {
		for _, member := range allOf.Content {
			fields = append(fields, schemaFields(member)...)
		}
		return fields
	}

	props := mapGet(schema, "properties")
	if props == nil || props.Kind != yaml.MappingNode {
		return fields
	}

	required := map[string]bool{}
	if reqNode := mapGet(schema, "required"); reqNode != nil && reqNode.Kind == yaml.SequenceNode {
		for _, item := range reqNode.Content {
			required[item.Value] = true
		}
	}

	forEachPair(props, func(name string, prop *yaml.Node) {
		if envelopeFields[name] {
			return
		}
		fields = append(fields, propertyField(name, prop, required[name]))
	})
	return fields
}

// responseFields handles the success-response convention of wrapping the
// payload in a single `result` object.
func responseFields(schema *yaml.Node) []extract.FieldDescriptor {
	props := mapGet(schema, "properties")
	if props != nil && props.Kind == yaml.MappingNode && len(props.Content) == 2 {
		if props.Content[0].Value == "result" {
			return schemaFields(props.Content[1])
		}
	}
	return schemaFields(schema)
}

func propertyField(name string, prop *yaml.Node, required bool) extract.FieldDescriptor {
	f := extract.FieldDescriptor{
		Name:        name,
		Required:    required,
		Description: scalarOf(mapGet(prop, "description")),
	}

	if ref := scalarOf(mapGet(prop, "$ref")); ref != "" {
		f.Kind = extract.KindObject
		f.RawTypeHint = ref
		return f
	}
	if enum := mapGet(prop, "enum"); enum != nil {
		f.Kind = extract.KindEnum
		return f
	}

	switch scalarOf(mapGet(prop, "type")) {
	case "string":
		f.Kind = extract.KindString
	case "integer", "number":
		f.Kind = extract.KindNumber
	case "boolean":
		f.Kind = extract.KindBoolean
	case "array":
		f.Kind = extract.KindArray
	case "object":
		f.Kind = extract.KindObject
	default:
		f.Kind = extract.KindString
	}
	if d := scalarOf(mapGet(prop, "default")); d != "" {
		f.Default = d
	}
	return f
}

// ScanFragments walks the per-version fragment tree (pathsRoot/<version>/*.yaml)
// and parses every fragment. Malformed fragments are recorded as defects and
// excluded; only an unreadable root is fatal.
func ScanFragments(pathsRoot string) (*Index, []report.Defect, error) {
	if _, err := os.Stat(pathsRoot); err != nil {
		return nil, nil, fmt.Errorf("schema fragments root: %w", err)
	}

	index := NewIndex()
	var defects []report.Defect

	entries, err := os.ReadDir(pathsRoot)
	if err != nil {
		return nil, nil, fmt.Errorf("schema fragments root: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		version := entry.Name()

		var files []string
		walkErr := filepath.WalkDir(filepath.Join(pathsRoot, version), func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !isYAMLFile(path) {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if walkErr != nil {
			return nil, nil, walkErr
		}
		sort.Strings(files)

		for _, path := range files {
			rel, _ := filepath.Rel(pathsRoot, path)
			rel = filepath.ToSlash(rel)

			data, err := os.ReadFile(path)
			if err != nil {
				defects = append(defects, report.Defect{
					Kind: report.KindSchemaParse, Path: rel, Message: err.Error(),
				})
				continue
			}
			ops, err := ParseFragment(rel, data, version)
			if err != nil {
				defects = append(defects, report.Defect{
					Kind: report.KindSchemaParse, Path: rel, Message: err.Error(),
				})
				continue
			}
			for _, op := range ops {
				index.Add(op)
			}
		}
	}

	return index, defects, nil
}

func isYAMLFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}
