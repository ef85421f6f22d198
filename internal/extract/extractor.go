package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/specsync/internal/docs"
	"git.home.luguber.info/inful/specsync/internal/report"
)

// methodNameRe matches RPC method names: lowercase tokens, optionally
// namespaced with `::` or dotted, e.g. `task::enable_utxo::init`.
var methodNameRe = regexp.MustCompile(`^[a-z][a-z0-9_]*(?:(?:::|\.)[a-z0-9_]+)*$`)

// Extractor produces method definitions from normalized documents.
type Extractor struct{}

// Extract returns all method definitions found in the document, in source
// order. The version tag is assigned by the caller (derived from the
// document's location in the tree).
//
// Extraction is tolerant: malformed JSON examples become warnings attached
// to the definition, never extraction failures.
func (e *Extractor) Extract(doc *docs.Document, version string) []*MethodDefinition {
	var defs []*MethodDefinition

	boundaries := methodBoundaries(doc)
	for _, mb := range boundaries {
		def := e.extractSection(doc, version, mb)
		defs = append(defs, def)
	}
	return defs
}

// methodBoundary delimits one method's section within a document body.
type methodBoundary struct {
	name       string
	start, end int
	blocks     []docs.Block
}

// methodBoundaries finds level-2 headings whose text follows the method
// naming convention and computes each method's section range, which extends
// to the next heading of level 2 or higher.
func methodBoundaries(doc *docs.Document) []methodBoundary {
	var out []methodBoundary
	for i, b := range doc.Blocks {
		if b.Kind != docs.BlockHeading || b.Level != 2 || !methodNameRe.MatchString(b.Text) {
			continue
		}

		end := len(doc.Body)
		for _, nb := range doc.Blocks[i+1:] {
			if nb.Kind == docs.BlockHeading && nb.Level <= 2 {
				end = nb.Offset
				break
			}
		}

		mb := methodBoundary{name: b.Text, start: b.Offset, end: end}
		for _, sb := range doc.Blocks {
			if sb.Offset > mb.start && sb.Offset < mb.end {
				mb.blocks = append(mb.blocks, sb)
			}
		}
		out = append(out, mb)
	}
	return out
}

func (e *Extractor) extractSection(doc *docs.Document, version string, mb methodBoundary) *MethodDefinition {
	def := &MethodDefinition{
		Name:        mb.name,
		Version:     version,
		SourcePath:  doc.RelPath,
		Description: sectionDescription(doc, mb),
		Arguments:   []FieldDescriptor{},
	}

	def.ResponseFields = []FieldDescriptor{}

	for i, b := range mb.blocks {
		if b.Kind != docs.BlockHeading {
			continue
		}
		sub := subSectionText(doc, mb, i)
		lower := strings.ToLower(b.Text)

		switch {
		case strings.Contains(lower, "argument") ||
			(strings.Contains(lower, "parameter") && strings.Contains(lower, "request")) ||
			lower == "parameters":
			if len(def.Arguments) == 0 {
				def.Arguments = parseFieldTable(sub)
				if def.Arguments == nil {
					def.Arguments = []FieldDescriptor{}
				}
			}
		case strings.Contains(lower, "error"):
			def.ErrorTypes = append(def.ErrorTypes, errorTypeNames(sub)...)
		case strings.Contains(lower, "response"):
			if len(def.ResponseFields) == 0 {
				def.ResponseFields = parseFieldTable(sub)
				if def.ResponseFields == nil {
					def.ResponseFields = []FieldDescriptor{}
				}
			}
		}
	}

	e.extractExamples(def, mb)

	def.ContentHash = computeContentHash(def)
	return def
}

// extractExamples walks the section's blocks in order, pairing JSON fences
// with the nearest preceding Command/Request or Response marker heading.
func (e *Extractor) extractExamples(def *MethodDefinition, mb methodBoundary) {
	const (
		markerNone = iota
		markerRequest
		markerResponse
	)
	marker := markerNone
	outcome := "success"

	for _, b := range mb.blocks {
		switch b.Kind {
		case docs.BlockHeading:
			lower := strings.ToLower(b.Text)
			switch {
			case strings.Contains(lower, "command") ||
				(strings.Contains(lower, "request") && !strings.Contains(lower, "parameter")):
				marker = markerRequest
			case strings.Contains(lower, "response") || strings.Contains(lower, "error"):
				if strings.Contains(lower, "parameter") {
					continue
				}
				marker = markerResponse
				outcome = outcomeFromHeading(b.Text)
			}
		case docs.BlockFence:
			if b.Lang != "json" && b.Lang != "jsonc" {
				continue
			}
			if marker == markerNone {
				continue
			}

			payload, err := decodePayload(b.Body)
			if err != nil {
				def.Warnings = append(def.Warnings, report.Defect{
					Kind:    report.KindExampleParseWarning,
					Method:  def.Name,
					Version: def.Version,
					Path:    def.SourcePath,
					Message: "malformed JSON example: " + err.Error(),
				})
				continue
			}

			if marker == markerRequest {
				def.Examples = append(def.Examples, Example{Outcome: "success", Request: payload})
				continue
			}

			// Attach the response to the most recent example still missing
			// one; a response without a preceding request stands alone.
			attached := false
			for i := len(def.Examples) - 1; i >= 0; i-- {
				if def.Examples[i].Response == nil {
					def.Examples[i].Response = payload
					def.Examples[i].Outcome = outcome
					attached = true
					break
				}
			}
			if !attached {
				def.Examples = append(def.Examples, Example{Outcome: outcome, Response: payload})
			}
		}
	}
}

func decodePayload(raw string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &v); err != nil {
		return nil, err
	}
	return v, nil
}

// outcomeFromHeading classifies a response marker heading into "success" or
// a named error kind, e.g. "Response (error)" or "Error responses".
func outcomeFromHeading(text string) string {
	lower := strings.ToLower(text)
	if !strings.Contains(lower, "error") {
		return "success"
	}

	if open := strings.Index(text, "("); open >= 0 {
		if closing := strings.Index(text[open:], ")"); closing > 0 {
			inside := text[open+1 : open+closing]
			named := strings.TrimSpace(strings.Trim(
				strings.ReplaceAll(strings.ToLower(inside), "error", ""), " ,-"))
			if named != "" {
				return named
			}
		}
	}
	return "error"
}

// errorTypeNames returns the first-column names of an error types table.
func errorTypeNames(section string) []string {
	fields := parseFieldTable(section)
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Name)
	}
	return names
}

// subSectionText returns the raw text from the i-th block of a method
// section up to the next heading of the same or higher level.
func subSectionText(doc *docs.Document, mb methodBoundary, i int) string {
	b := mb.blocks[i]
	end := mb.end
	for _, nb := range mb.blocks[i+1:] {
		if nb.Kind == docs.BlockHeading && nb.Level <= b.Level {
			end = nb.Offset
			break
		}
	}
	return doc.SectionText(b.Offset, end)
}

// sectionDescription takes the first prose line between the method heading
// and its first sub-heading, falling back to the document description.
func sectionDescription(doc *docs.Document, mb methodBoundary) string {
	end := mb.end
	if len(mb.blocks) > 0 {
		end = mb.blocks[0].Offset
	}
	text := doc.SectionText(mb.start, end)

	lines := strings.Split(text, "\n")
	for _, line := range lines[1:] { // skip the heading line itself
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "<") || strings.HasPrefix(trimmed, "|") {
			continue
		}
		if s := StripTags(trimmed); s != "" {
			return s
		}
	}
	return doc.Description()
}
