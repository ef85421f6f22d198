package docs

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/inful/mdfp"
	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// exportConstRe matches MDX `export const name = "value"` bindings. The docs
// tree uses these for page title and description metadata.
var exportConstRe = regexp.MustCompile(`(?m)^export\s+const\s+(\w+)\s*=\s*(?:"((?:[^"\\]|\\.)*)"|'((?:[^'\\]|\\.)*)')\s*;?\s*$`)

// Parse normalizes raw file content into a Document.
//
// Returns an error when the content cannot be treated as a text document
// (invalid UTF-8 or embedded NUL bytes) or when frontmatter is malformed.
func Parse(relPath string, content []byte) (*Document, error) {
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%s: content is not valid UTF-8", relPath)
	}
	if strings.ContainsRune(string(content), 0) {
		return nil, fmt.Errorf("%s: content contains NUL bytes", relPath)
	}

	raw, body, had, err := splitFrontmatter(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", relPath, err)
	}

	fields := map[string]any{}
	if had {
		fields, err = parseFrontmatterYAML(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: parse frontmatter: %w", relPath, err)
		}
	}

	doc := &Document{
		Path:        relPath,
		RelPath:     relPath,
		Frontmatter: fields,
		Exports:     extractExports(body),
		Body:        body,
		ContentHash: mdfp.CalculateFingerprintFromParts(string(raw), string(body)),
	}
	doc.Blocks = extractBlocks(body)
	return doc, nil
}

func extractExports(body []byte) map[string]string {
	exports := make(map[string]string)
	for _, m := range exportConstRe.FindAllSubmatch(body, -1) {
		name := string(m[1])
		value := string(m[2])
		if value == "" {
			value = string(m[3])
		}
		exports[name] = strings.ReplaceAll(value, `\"`, `"`)
	}
	return exports
}

// extractBlocks walks the Goldmark AST and surfaces headings and fenced code
// blocks in source order. Pipe tables are intentionally not parsed here: the
// extractor scans them line-oriented from the raw section text, since the
// docs tree uses table shapes Goldmark's strict CommonMark parser ignores.
func extractBlocks(body []byte) []Block {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(body))

	blocks := make([]Block, 0)
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *gmast.Heading:
			offset := headingOffset(node, body)
			blocks = append(blocks, Block{
				Kind:   BlockHeading,
				Level:  node.Level,
				Text:   cleanHeadingText(inlineText(node, body)),
				Offset: offset,
			})
			return gmast.WalkSkipChildren, nil
		case *gmast.FencedCodeBlock:
			lang := strings.ToLower(string(node.Language(body)))
			blocks = append(blocks, Block{
				Kind:   BlockFence,
				Lang:   lang,
				Body:   fenceBody(node, body),
				Offset: fenceOffset(node),
			})
			return gmast.WalkSkipChildren, nil
		}
		return gmast.WalkContinue, nil
	})
	return blocks
}

// inlineText concatenates the raw text of a node's inline children.
func inlineText(n gmast.Node, src []byte) string {
	var b strings.Builder
	_ = gmast.Walk(n, func(child gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch t := child.(type) {
		case *gmast.Text:
			b.Write(t.Segment.Value(src))
		case *gmast.String:
			b.Write(t.Value)
		}
		return gmast.WalkContinue, nil
	})
	return b.String()
}

// cleanHeadingText strips MDX heading attribute markup, e.g.
// `enable {{label="enable"}}` becomes `enable`.
func cleanHeadingText(s string) string {
	if idx := strings.Index(s, "{{"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

func headingOffset(n *gmast.Heading, src []byte) int {
	pos := -1
	_ = gmast.Walk(n, func(child gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering || pos >= 0 {
			return gmast.WalkContinue, nil
		}
		if t, ok := child.(*gmast.Text); ok {
			pos = t.Segment.Start
			return gmast.WalkStop, nil
		}
		return gmast.WalkContinue, nil
	})
	if pos < 0 {
		if n.Lines().Len() > 0 {
			pos = n.Lines().At(0).Start
		} else {
			return 0
		}
	}
	return lineStart(src, pos)
}

func fenceOffset(n *gmast.FencedCodeBlock) int {
	if n.Lines().Len() > 0 {
		return n.Lines().At(0).Start
	}
	return 0
}

func fenceBody(n *gmast.FencedCodeBlock, src []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(src))
	}
	return b.String()
}

func lineStart(src []byte, pos int) int {
	if pos > len(src) {
		pos = len(src)
	}
	for pos > 0 && src[pos-1] != '\n' {
		pos--
	}
	return pos
}
