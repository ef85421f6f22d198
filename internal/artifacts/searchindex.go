package artifacts

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"git.home.luguber.info/inful/specsync/internal/reconcile"
)

// SearchEntry is one tokenizable projection of a method for substring and
// keyword lookup.
type SearchEntry struct {
	Method      string   `json:"method"`
	Version     string   `json:"version"`
	Description string   `json:"description,omitempty"`
	DocLocation string   `json:"doc_location,omitempty"`
	Tokens      []string `json:"tokens"`
}

var lowercaser = cases.Lower(language.Und)

// BuildSearchIndex flattens the reconciled set into search entries sorted by
// (version, method).
func BuildSearchIndex(results []reconcile.Result) []SearchEntry {
	entries := make([]SearchEntry, 0, len(results))
	for _, r := range results {
		entry := SearchEntry{Method: r.Method, Version: r.Version}

		tokens := tokenize(r.Method)
		if r.Doc != nil {
			entry.Description = r.Doc.Description
			entry.DocLocation = r.Doc.SourcePath
			tokens = append(tokens, tokenize(r.Doc.Description)...)
			for _, f := range r.Doc.Arguments {
				tokens = append(tokens, tokenize(f.Name)...)
			}
			for _, f := range r.Doc.ResponseFields {
				tokens = append(tokens, tokenize(f.Name)...)
			}
		} else if r.Schema != nil {
			entry.Description = r.Schema.Description
			tokens = append(tokens, tokenize(r.Schema.Description)...)
			for _, f := range r.Schema.Parameters {
				tokens = append(tokens, tokenize(f.Name)...)
			}
			for _, f := range r.Schema.ResponseFields {
				tokens = append(tokens, tokenize(f.Name)...)
			}
		}

		entry.Tokens = dedupe(tokens)
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Version != entries[j].Version {
			return entries[i].Version < entries[j].Version
		}
		return entries[i].Method < entries[j].Method
	})
	return entries
}

// tokenize splits text into normalized lowercase tokens. Method names break
// on their namespace separators so `task::enable_utxo::init` is findable by
// `enable_utxo`.
func tokenize(text string) []string {
	if text == "" {
		return nil
	}
	normalized := lowercaser.String(norm.NFC.String(text))

	splitter := func(r rune) bool {
		switch r {
		case ':', '.', ',', ';', '(', ')', '[', ']', '{', '}', '"', '\'', '`', '/', ' ', '\t', '\n', '|', '!', '?':
			return true
		}
		return false
	}

	var tokens []string
	for _, tok := range strings.FieldsFunc(normalized, splitter) {
		tok = strings.Trim(tok, "-_")
		if len(tok) >= 2 {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

func dedupe(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}
