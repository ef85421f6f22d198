package extract

import "strings"

// NormalizeKind maps a free-text type descriptor from a documentation table
// onto the closed set of semantic kinds. The original text is returned as a
// hint whenever the mapping is lossy.
func NormalizeKind(raw string) (kind FieldKind, rawHint string) {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	cleaned = strings.Trim(cleaned, "`")

	switch {
	case cleaned == "":
		return KindString, raw
	case strings.Contains(cleaned, "enum"):
		kind = KindEnum
	case strings.HasPrefix(cleaned, "array") || strings.HasPrefix(cleaned, "list") ||
		strings.HasSuffix(cleaned, "[]"):
		kind = KindArray
	case cleaned == "object" || cleaned == "map" || cleaned == "json" ||
		strings.HasPrefix(cleaned, "object"):
		kind = KindObject
	case cleaned == "bool" || cleaned == "boolean":
		kind = KindBoolean
	case cleaned == "int" || cleaned == "integer" || cleaned == "float" ||
		cleaned == "number" || cleaned == "numeric" || cleaned == "decimal" ||
		cleaned == "u32" || cleaned == "u64" || cleaned == "i32" || cleaned == "i64" ||
		cleaned == "f32" || cleaned == "f64":
		kind = KindNumber
	case cleaned == "str" || cleaned == "string":
		kind = KindString
	default:
		// Unknown descriptors default to string and keep the original text.
		return KindString, strings.TrimSpace(raw)
	}

	if cleaned != string(kind) {
		rawHint = strings.TrimSpace(raw)
	}
	return kind, rawHint
}

// InferKindFromValue maps a decoded JSON value onto a semantic kind. Used
// when synthesizing schemas from captured examples.
func InferKindFromValue(v any) FieldKind {
	switch v.(type) {
	case bool:
		return KindBoolean
	case float64, int, int64:
		return KindNumber
	case []any:
		return KindArray
	case map[string]any:
		return KindObject
	default:
		return KindString
	}
}
