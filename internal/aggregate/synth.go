// Package aggregate applies doc-only reconciliation results to the schema
// tree: it synthesizes minimal fragments and splices references into the
// aggregate document without rewriting untouched entries.
package aggregate

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/specsync/internal/extract"
	"git.home.luguber.info/inful/specsync/internal/openapi"
)

// SynthesizeFragment builds a minimal schema fragment for a documented
// method with no declared operation. The request/response shape comes from
// the extracted field descriptors; scalar values from the first success
// example are attached as property examples.
func SynthesizeFragment(def *extract.MethodDefinition, apiPath string) ([]byte, error) {
	opid := openapi.MethodToOperationID(def.Name)

	summary := def.Description
	if summary == "" {
		summary = def.Name
	}

	op := mapping(
		scalar("operationId"), scalar(opid),
		scalar("summary"), scalar(summary),
	)
	if def.Description != "" {
		appendPair(op, scalar("description"), scalar(def.Description))
	}
	appendPair(op, scalar("x-mdx-doc-path"), scalar(def.SourcePath))
	appendPair(op, scalar("requestBody"), requestBodyNode(def, opid))
	appendPair(op, scalar("responses"), responsesNode(def))

	root := mapping(
		scalar(apiPath), mapping(scalar("post"), op),
	)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# OpenAPI path spec for %s (%s)\n", def.Name, def.Version)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func requestBodyNode(def *extract.MethodDefinition, opid string) *yaml.Node {
	props := mapping(
		scalar("userpass"), mapping(
			scalar("type"), scalar("string"),
			scalar("description"), scalar("RPC authentication password"),
		),
		scalar("method"), mapping(
			scalar("type"), scalar("string"),
			scalar("enum"), sequence(scalar(def.Name)),
			scalar("description"), scalar("Method name"),
		),
	)

	required := sequence(scalar("userpass"), scalar("method"))
	example := firstSuccessRequest(def)

	for _, f := range def.Arguments {
		appendPair(props, scalar(f.Name), propertyNode(f, example))
		if f.Required {
			required.Content = append(required.Content, scalar(f.Name))
		}
	}

	schema := mapping(
		scalar("type"), scalar("object"),
		scalar("required"), required,
		scalar("properties"), props,
	)
	return mapping(
		scalar("required"), boolNode(true),
		scalar("content"), mapping(
			scalar("application/json"), mapping(scalar("schema"), schema),
		),
	)
}

func responsesNode(def *extract.MethodDefinition) *yaml.Node {
	resultProps := mapping()
	for _, f := range def.ResponseFields {
		appendPair(resultProps, scalar(f.Name), propertyNode(f, nil))
	}

	schema := mapping(
		scalar("type"), scalar("object"),
		scalar("properties"), mapping(
			scalar("result"), mapping(
				scalar("type"), scalar("object"),
				scalar("properties"), resultProps,
			),
		),
	)

	return mapping(
		quotedScalar("200"), mapping(
			scalar("description"), scalar("Success"),
			scalar("content"), mapping(
				scalar("application/json"), mapping(scalar("schema"), schema),
			),
		),
	)
}

func propertyNode(f extract.FieldDescriptor, example map[string]any) *yaml.Node {
	prop := mapping()

	switch f.Kind {
	case extract.KindEnum:
		appendPair(prop, scalar("type"), scalar("string"))
		values := sequence()
		if example != nil {
			if v, ok := example[f.Name].(string); ok {
				values.Content = append(values.Content, scalar(v))
			}
		}
		appendPair(prop, scalar("enum"), values)
	case extract.KindNumber:
		appendPair(prop, scalar("type"), scalar("number"))
	case extract.KindBoolean:
		appendPair(prop, scalar("type"), scalar("boolean"))
	case extract.KindArray:
		appendPair(prop, scalar("type"), scalar("array"))
		appendPair(prop, scalar("items"), mapping(scalar("type"), scalar("string")))
	case extract.KindObject:
		appendPair(prop, scalar("type"), scalar("object"))
	default:
		appendPair(prop, scalar("type"), scalar("string"))
	}

	if f.Description != "" {
		appendPair(prop, scalar("description"), scalar(f.Description))
	}
	if f.Default != "" {
		appendPair(prop, scalar("default"), scalar(f.Default))
	}
	if example != nil && f.Kind != extract.KindEnum {
		if v, ok := example[f.Name]; ok {
			if ex := exampleNode(v); ex != nil {
				appendPair(prop, scalar("example"), ex)
			}
		}
	}
	return prop
}

// firstSuccessRequest returns the request payload of the first success
// example, when it is a JSON object.
func firstSuccessRequest(def *extract.MethodDefinition) map[string]any {
	for _, ex := range def.Examples {
		if ex.Outcome != "success" || ex.Request == nil {
			continue
		}
		if obj, ok := ex.Request.(map[string]any); ok {
			return obj
		}
	}
	return nil
}

func exampleNode(v any) *yaml.Node {
	switch val := v.(type) {
	case string:
		return scalar(val)
	case bool:
		return boolNode(val)
	case float64:
		n := &yaml.Node{Kind: yaml.ScalarNode}
		if val == float64(int64(val)) {
			n.Tag = "!!int"
			n.Value = fmt.Sprintf("%d", int64(val))
		} else {
			n.Tag = "!!float"
			n.Value = fmt.Sprintf("%g", val)
		}
		return n
	default:
		// Composite example values are omitted rather than serialized.
		return nil
	}
}

// Node construction helpers.

func scalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func quotedScalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v, Style: yaml.DoubleQuotedStyle}
}

func boolNode(v bool) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: "false"}
	if v {
		n.Value = "true"
	}
	return n
}

func mapping(pairs ...*yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Content: pairs}
}

func sequence(items ...*yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Content: items}
}

func appendPair(m *yaml.Node, key, value *yaml.Node) {
	m.Content = append(m.Content, key, value)
}
