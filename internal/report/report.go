// Package report accumulates non-fatal defects found during a pipeline run
// into a structured summary that callers can inspect programmatically.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Kind classifies a defect for routing and exit-code decisions.
type Kind string

const (
	// KindUnreadableDocument marks a documentation file that could not be
	// decoded as text. The file is skipped; the run continues.
	KindUnreadableDocument Kind = "unreadable_document"
	// KindExampleParseWarning marks a malformed JSON example inside an
	// otherwise extractable method section.
	KindExampleParseWarning Kind = "example_parse_warning"
	// KindDuplicateMethod marks a method name defined more than once within
	// the same version namespace. The last occurrence wins.
	KindDuplicateMethod Kind = "duplicate_method"
	// KindSchemaParse marks a schema fragment that could not be parsed. The
	// fragment is excluded from reconciliation until fixed.
	KindSchemaParse Kind = "schema_parse_error"
	// KindAggregateWriteConflict marks an aggregate entry that could not be
	// inserted because a conflicting entry already exists.
	KindAggregateWriteConflict Kind = "aggregate_write_conflict"
	// KindDrift marks a method whose documented shape diverges from its
	// declared schema. Never auto-applied; reported for human review.
	KindDrift Kind = "drift"
)

// Severity indicates the impact of a defect on the run outcome.
type Severity int

const (
	// SeverityWarning does not affect the exit code.
	SeverityWarning Severity = iota
	// SeverityDefect completes the run but yields exit code 2.
	SeverityDefect
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "WARNING"
	case SeverityDefect:
		return "DEFECT"
	default:
		return "UNKNOWN"
	}
}

// severityFor maps each defect kind to its run-level severity.
func severityFor(kind Kind) Severity {
	switch kind {
	case KindUnreadableDocument, KindExampleParseWarning:
		return SeverityWarning
	default:
		return SeverityDefect
	}
}

// Defect is a single reportable problem tied to a source location.
type Defect struct {
	Kind     Kind     `json:"kind"`
	Severity Severity `json:"severity"`
	Path     string   `json:"path,omitempty"`
	Method   string   `json:"method,omitempty"`
	Version  string   `json:"version,omitempty"`
	Message  string   `json:"message"`
}

func (d Defect) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", d.Severity, d.Kind)
	if d.Method != "" {
		fmt.Fprintf(&b, " %s", d.Method)
		if d.Version != "" {
			fmt.Fprintf(&b, " (%s)", d.Version)
		}
	}
	if d.Path != "" {
		fmt.Fprintf(&b, " at %s", d.Path)
	}
	fmt.Fprintf(&b, ": %s", d.Message)
	return b.String()
}

// Coverage counts mapping coverage for one version namespace.
type Coverage struct {
	Matched    int `json:"matched"`
	DocOnly    int `json:"doc_only"`
	SchemaOnly int `json:"schema_only"`
	Changed    int `json:"changed"`
}

// Summary is the structured result of a full pipeline run.
//
// It is the single source of truth for "were there zero defects": callers
// must never have to re-parse log output.
type Summary struct {
	RunID      string              `json:"run_id"`
	StartedAt  time.Time           `json:"started_at"`
	Duration   time.Duration       `json:"duration"`
	DocsTotal  int                 `json:"docs_total"`
	Methods    int                 `json:"methods"`
	Operations int                 `json:"operations"`
	Coverage   map[string]Coverage `json:"coverage"`
	Inserted   []string            `json:"inserted,omitempty"`
	DryRun     bool                `json:"dry_run"`
	Defects    []Defect            `json:"defects,omitempty"`

	// PatchText is the rendered aggregate patch, populated in dry-run mode
	// for display. Excluded from serialized summaries.
	PatchText string `json:"-"`
}

// NewSummary creates an empty summary for the given run.
func NewSummary(runID string) *Summary {
	return &Summary{
		RunID:     runID,
		StartedAt: time.Now().UTC(),
		Coverage:  make(map[string]Coverage),
	}
}

// Add records a defect with the severity implied by its kind.
func (s *Summary) Add(kind Kind, d Defect) {
	d.Kind = kind
	d.Severity = severityFor(kind)
	s.Defects = append(s.Defects, d)
}

// HasDefects reports whether any defect-level issue occurred.
func (s *Summary) HasDefects() bool {
	for _, d := range s.Defects {
		if d.Severity == SeverityDefect {
			return true
		}
	}
	return false
}

// WarningCount returns the number of warning-level issues.
func (s *Summary) WarningCount() int {
	n := 0
	for _, d := range s.Defects {
		if d.Severity == SeverityWarning {
			n++
		}
	}
	return n
}

// CountKind returns the number of defects of the given kind.
func (s *Summary) CountKind(kind Kind) int {
	n := 0
	for _, d := range s.Defects {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

// ExitCode maps the summary onto the process exit code contract:
// 0 success (warnings allowed), 2 completed with reportable defects.
func (s *Summary) ExitCode() int {
	if s.HasDefects() {
		return 2
	}
	return 0
}

// Render formats the summary for terminal output.
func (s *Summary) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s: %d docs, %d methods, %d declared operations\n",
		s.RunID, s.DocsTotal, s.Methods, s.Operations)

	versions := make([]string, 0, len(s.Coverage))
	for v := range s.Coverage {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	for _, v := range versions {
		c := s.Coverage[v]
		fmt.Fprintf(&b, "  %s: %d matched, %d doc-only, %d schema-only, %d changed\n",
			v, c.Matched, c.DocOnly, c.SchemaOnly, c.Changed)
	}

	if len(s.Inserted) > 0 {
		verb := "inserted"
		if s.DryRun {
			verb = "would insert"
		}
		fmt.Fprintf(&b, "  %s %d aggregate entries: %s\n", verb, len(s.Inserted), strings.Join(s.Inserted, ", "))
	}

	for _, d := range s.Defects {
		fmt.Fprintf(&b, "  %s\n", d.String())
	}
	fmt.Fprintf(&b, "exit code %d\n", s.ExitCode())
	return b.String()
}
