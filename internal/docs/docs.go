// Package docs discovers and parses MDX documentation files into a
// normalized form consumed by the method extractor.
package docs

// BlockKind distinguishes the structural elements surfaced from a parsed
// document body.
type BlockKind int

const (
	// BlockHeading is an ATX heading.
	BlockHeading BlockKind = iota
	// BlockFence is a fenced code block with an optional language tag.
	BlockFence
)

// Block is one structural element of a document body, in source order.
type Block struct {
	Kind BlockKind
	// Level is the heading level (1-6). Zero for fences.
	Level int
	// Text is the heading text with MDX attribute markup stripped.
	Text string
	// Lang is the declared language tag of a fence (lowercased).
	Lang string
	// Body is the raw content of a fence.
	Body string
	// Offset is the byte offset of the block within Document.Body. Heading
	// offsets point at the start of the heading line, so the half-open range
	// between two consecutive headings covers the full section text.
	Offset int
}

// Document is a normalized documentation file.
type Document struct {
	// Path is the absolute path of the source file.
	Path string
	// RelPath is the path relative to the documentation root, with forward
	// slashes. Used as the stable identity of the document.
	RelPath string
	// Frontmatter holds parsed YAML frontmatter fields, if any.
	Frontmatter map[string]any
	// Exports holds MDX `export const` string bindings (title, description).
	Exports map[string]string
	// Body is the document body with frontmatter removed.
	Body []byte
	// Blocks lists headings and fences in source order.
	Blocks []Block
	// ContentHash is the canonical fingerprint of the raw document, used by
	// the extraction cache for change detection.
	ContentHash string
}

// SectionText returns the raw body text of the half-open byte range
// [start, end). Callers pass heading offsets to obtain section slices.
func (d *Document) SectionText(start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(d.Body) || end <= 0 {
		end = len(d.Body)
	}
	if start >= end {
		return ""
	}
	return string(d.Body[start:end])
}

// Title returns the exported MDX title, falling back to frontmatter.
func (d *Document) Title() string {
	if t := d.Exports["title"]; t != "" {
		return t
	}
	if t, ok := d.Frontmatter["title"].(string); ok {
		return t
	}
	return ""
}

// Description returns the exported MDX description, falling back to
// frontmatter.
func (d *Document) Description() string {
	if s := d.Exports["description"]; s != "" {
		return s
	}
	if s, ok := d.Frontmatter["description"].(string); ok {
		return s
	}
	return ""
}
