package openapi

import "gopkg.in/yaml.v3"

// Node helpers for order-preserving traversal of parsed YAML documents.

// docRoot unwraps a document node to its content mapping.
func docRoot(n *yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	if n.Kind == yaml.DocumentNode {
		if len(n.Content) == 0 {
			return nil
		}
		return n.Content[0]
	}
	return n
}

// mapGet returns the value node for a key in a mapping node, or nil.
func mapGet(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

// forEachPair visits mapping entries in declaration order.
func forEachPair(n *yaml.Node, fn func(key string, value *yaml.Node)) {
	if n == nil || n.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		fn(n.Content[i].Value, n.Content[i+1])
	}
}

// scalarOf returns the scalar value of a node, or "".
func scalarOf(n *yaml.Node) string {
	if n == nil || n.Kind != yaml.ScalarNode {
		return ""
	}
	return n.Value
}

// dig follows a chain of mapping keys, returning nil if any link is absent.
func dig(n *yaml.Node, keys ...string) *yaml.Node {
	cur := n
	for _, key := range keys {
		cur = mapGet(cur, key)
		if cur == nil {
			return nil
		}
	}
	return cur
}
