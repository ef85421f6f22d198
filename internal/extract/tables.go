package extract

import "strings"

// columnRole identifies what a table column contains, learned from the
// header row.
type columnRole int

const (
	colUnknown columnRole = iota
	colName
	colType
	colRequired
	colDefault
	colDescription
)

// parseFieldTable scans a section's raw text for the first pipe-delimited
// table and parses its rows into field descriptors.
//
// Tables in the docs tree come in several shapes: three columns
// (name | type | description), and four or five columns with explicit
// Required and Default columns. Column roles are learned from the header row;
// when no Required column exists, requiredness is inferred from the
// description text ("optional", "defaults to").
func parseFieldTable(section string) []FieldDescriptor {
	lines := strings.Split(section, "\n")

	var roles []columnRole
	var fields []FieldDescriptor

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "|") {
			if roles != nil && trimmed != "" {
				// Table ended; only the first table in a section counts.
				break
			}
			continue
		}

		cells := splitRow(trimmed)
		if len(cells) == 0 {
			continue
		}
		if isSeparatorRow(cells) {
			continue
		}

		if roles == nil {
			roles = headerRoles(cells)
			if roles != nil {
				continue
			}
			// Headerless table: assume name | type | description.
			roles = []columnRole{colName, colType, colDescription}
		}

		if f, ok := rowToField(cells, roles); ok {
			fields = append(fields, f)
		}
	}

	return fields
}

func splitRow(line string) []string {
	line = strings.Trim(line, "|")
	parts := strings.Split(line, "|")
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}

func isSeparatorRow(cells []string) bool {
	for _, c := range cells {
		if c == "" {
			continue
		}
		if strings.Trim(c, "-: ") != "" {
			return false
		}
	}
	return true
}

// headerRoles maps a header row onto column roles, or nil when the row does
// not look like a header.
func headerRoles(cells []string) []columnRole {
	roles := make([]columnRole, len(cells))
	recognized := 0
	for i, c := range cells {
		switch h := strings.ToLower(c); {
		case strings.Contains(h, "parameter") || strings.Contains(h, "structure") ||
			h == "field" || h == "name" || h == "argument":
			roles[i] = colName
			recognized++
		case h == "type":
			roles[i] = colType
			recognized++
		case strings.Contains(h, "required"):
			roles[i] = colRequired
			recognized++
		case strings.Contains(h, "default"):
			roles[i] = colDefault
			recognized++
		case strings.Contains(h, "description"):
			roles[i] = colDescription
			recognized++
		}
	}
	if recognized < 2 {
		return nil
	}
	return roles
}

func rowToField(cells []string, roles []columnRole) (FieldDescriptor, bool) {
	var f FieldDescriptor
	hasRequiredCol := false
	requiredVal := false

	for i, c := range cells {
		if i >= len(roles) {
			break
		}
		switch roles[i] {
		case colName:
			f.Name = strings.Trim(c, "`")
		case colType:
			f.Kind, f.RawTypeHint = NormalizeKind(c)
		case colRequired:
			hasRequiredCol = true
			requiredVal = parseRequiredCell(c)
		case colDefault:
			if c != "" && c != "-" {
				f.Default = strings.Trim(c, "`")
			}
		case colDescription:
			f.Description = StripTags(c)
		}
	}

	if f.Name == "" {
		return FieldDescriptor{}, false
	}

	if hasRequiredCol {
		f.Required = requiredVal
	} else {
		lower := strings.ToLower(f.Description)
		f.Required = !strings.Contains(lower, "optional") && !strings.Contains(lower, "defaults to")
	}
	return f, true
}

func parseRequiredCell(c string) bool {
	lower := strings.ToLower(strings.TrimSpace(c))
	switch lower {
	case "✓", "✔", "true", "yes", "required":
		return true
	}
	return strings.Contains(lower, "✓") || strings.Contains(lower, "true")
}
