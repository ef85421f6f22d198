// Package pipeline orchestrates a full reconciliation run: scan, extract,
// schema scan, reconcile, aggregate update, and artifact generation.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/specsync/internal/aggregate"
	"git.home.luguber.info/inful/specsync/internal/artifacts"
	"git.home.luguber.info/inful/specsync/internal/config"
	"git.home.luguber.info/inful/specsync/internal/docs"
	"git.home.luguber.info/inful/specsync/internal/extract"
	"git.home.luguber.info/inful/specsync/internal/observability"
	"git.home.luguber.info/inful/specsync/internal/openapi"
	"git.home.luguber.info/inful/specsync/internal/reconcile"
	"git.home.luguber.info/inful/specsync/internal/report"
	"git.home.luguber.info/inful/specsync/internal/state"
)

// Options selects the run mode.
type Options struct {
	// UpdateOpenAPI enables aggregate and fragment writes.
	UpdateOpenAPI bool
	// DryRun computes and reports the aggregate patch without writing
	// anything.
	DryRun bool
	// MappingOnly skips schema mutation entirely and emits only the unified
	// mapping and search index.
	MappingOnly bool
}

// Pipeline drives one batch reconciliation run.
type Pipeline struct {
	cfg  *config.Config
	opts Options
}

// New creates a pipeline for the given configuration and mode.
func New(cfg *config.Config, opts Options) *Pipeline {
	return &Pipeline{cfg: cfg, opts: opts}
}

// Run executes the pipeline. The returned summary is always usable when the
// error is nil, including runs that completed with reportable defects.
//
// All artifact and schema writes happen only after reconciliation completes:
// cancellation mid-scan leaves every on-disk output untouched.
func (p *Pipeline) Run(ctx context.Context) (*report.Summary, error) {
	runID := uuid.NewString()[:8]
	ctx = observability.WithRunID(ctx, runID)
	summary := report.NewSummary(runID)
	summary.DryRun = p.opts.DryRun

	cache := p.openCache(ctx)
	if cache != nil {
		defer func() { _ = cache.Close() }()
	}

	// Stage: scan documentation.
	scanCtx := observability.WithStage(ctx, "scan")
	scanner := &docs.Scanner{Root: p.cfg.DocsDir, Workers: p.cfg.Workers}
	scanResult, err := scanner.Scan(scanCtx)
	if err != nil {
		return nil, err
	}
	summary.DocsTotal = len(scanResult.Documents)
	for _, d := range scanResult.Defects {
		summary.Add(d.Kind, d)
	}
	observability.InfoContext(scanCtx, "documentation scan complete",
		slog.Int("documents", len(scanResult.Documents)),
		slog.Int("skipped", len(scanResult.Defects)))

	// Stage: extract method definitions.
	extractCtx := observability.WithStage(ctx, "extract")
	set, err := p.extractAll(extractCtx, cache, scanResult.Documents, summary)
	if err != nil {
		return nil, err
	}
	summary.Methods = set.Len()
	observability.InfoContext(extractCtx, "method extraction complete", slog.Int("methods", set.Len()))

	// Stage: scan declared schema.
	schemaCtx := observability.WithStage(ctx, "schema")
	index, schemaDefects, err := openapi.ScanFragments(p.cfg.OpenAPI.PathsDir)
	if err != nil {
		return nil, err
	}
	for _, d := range schemaDefects {
		summary.Add(d.Kind, d)
	}
	summary.Operations = index.Len()

	agg, err := openapi.LoadAggregate(p.cfg.OpenAPI.Aggregate)
	if err != nil {
		// Complete failure to parse the aggregate document is fatal.
		return nil, err
	}
	observability.InfoContext(schemaCtx, "schema scan complete",
		slog.Int("operations", index.Len()),
		slog.Int("aggregate_entries", len(agg.Entries())))

	// Stage: reconcile.
	results := reconcile.Reconcile(set, index)
	p.recordCoverage(results, summary)

	// Stage: plan the aggregate patch.
	var plan *aggregate.Plan
	updater := &aggregate.Updater{Aggregate: agg, RefPrefix: p.refPrefix()}
	if (p.opts.UpdateOpenAPI || p.opts.DryRun) && !p.opts.MappingOnly {
		plan, err = updater.BuildPlan(results)
		if err != nil {
			return nil, err
		}
		for _, c := range plan.Conflicts {
			summary.Add(c.Kind, c)
		}
		for _, ins := range plan.Insertions {
			summary.Inserted = append(summary.Inserted, ins.Method+" ("+ins.Version+")")
		}
	}

	if err := ctx.Err(); err != nil {
		// Cancellation before the write phase leaves artifacts untouched.
		return nil, err
	}

	if p.opts.DryRun {
		if plan != nil {
			summary.PatchText = plan.Render()
		}
		summary.Duration = summaryDuration(summary)
		return summary, nil
	}

	// Write phase.
	if plan != nil && p.opts.UpdateOpenAPI {
		if err := p.applyPlan(ctx, updater, plan); err != nil {
			return nil, err
		}
	}
	if err := p.writeArtifacts(ctx, results, summary); err != nil {
		return nil, err
	}

	summary.Duration = summaryDuration(summary)
	return summary, nil
}

func (p *Pipeline) openCache(ctx context.Context) *state.Cache {
	if !p.cfg.Cache.Enabled {
		return nil
	}
	path := p.cfg.Cache.Path
	if path == "" {
		path = filepath.Join(p.cfg.OutputDir, "specsync-cache.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		observability.WarnContext(ctx, "extraction cache unavailable", slog.Any("error", err))
		return nil
	}
	cache, err := state.Open(path)
	if err != nil {
		// The cache is never a source of truth; run without it.
		observability.WarnContext(ctx, "extraction cache unavailable", slog.Any("error", err))
		return nil
	}
	return cache
}

// extractAll runs extraction over all documents in path order, consulting
// the cache keyed by document content hash.
func (p *Pipeline) extractAll(ctx context.Context, cache *state.Cache, documents []*docs.Document, summary *report.Summary) (*extract.Set, error) {
	extractor := &extract.Extractor{}
	set := extract.NewSet()

	for _, doc := range documents {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		version, ok := p.cfg.VersionFor(doc.RelPath)
		if !ok {
			continue
		}

		defs := p.cachedExtract(ctx, cache, extractor, doc, version)
		for _, def := range defs {
			for _, w := range def.Warnings {
				summary.Add(w.Kind, w)
			}
			if dup := set.Add(def); dup != nil {
				summary.Add(dup.Kind, *dup)
			}
		}
	}
	return set, nil
}

func (p *Pipeline) cachedExtract(ctx context.Context, cache *state.Cache, extractor *extract.Extractor, doc *docs.Document, version string) []*extract.MethodDefinition {
	cacheKey := version + "/" + doc.RelPath

	if cache != nil {
		if payload, hit, err := cache.Get(ctx, cacheKey, doc.ContentHash); err == nil && hit {
			var defs []*extract.MethodDefinition
			if json.Unmarshal(payload, &defs) == nil {
				return defs
			}
		}
	}

	defs := extractor.Extract(doc, version)

	if cache != nil {
		if payload, err := json.Marshal(defs); err == nil {
			if err := cache.Put(ctx, cacheKey, doc.ContentHash, payload); err != nil {
				observability.DebugContext(ctx, "cache store failed", slog.Any("error", err))
			}
		}
	}
	return defs
}

func (p *Pipeline) recordCoverage(results []reconcile.Result, summary *report.Summary) {
	for _, r := range results {
		c := summary.Coverage[r.Version]
		switch r.Status {
		case reconcile.StatusMatched:
			c.Matched++
		case reconcile.StatusDocOnly:
			c.DocOnly++
		case reconcile.StatusSchemaOnly:
			c.SchemaOnly++
		case reconcile.StatusChanged:
			c.Changed++
			summary.Add(report.KindDrift, report.Defect{
				Method:  r.Method,
				Version: r.Version,
				Path:    r.Doc.SourcePath,
				Message: "documentation and schema diverge: " + r.Diff.String(),
			})
		}
		summary.Coverage[r.Version] = c
	}
}

// refPrefix computes the fragment reference prefix as seen from the
// aggregate document's directory.
func (p *Pipeline) refPrefix() string {
	aggDir := filepath.Dir(p.cfg.OpenAPI.Aggregate)
	rel, err := filepath.Rel(aggDir, p.cfg.OpenAPI.PathsDir)
	if err != nil {
		return "./paths"
	}
	return "./" + filepath.ToSlash(rel)
}

func (p *Pipeline) applyPlan(ctx context.Context, updater *aggregate.Updater, plan *aggregate.Plan) error {
	if plan.Empty() {
		return nil
	}

	writeCtx := observability.WithStage(ctx, "update-openapi")
	fragWriter := &artifacts.Writer{Root: p.cfg.OpenAPI.PathsDir}
	for _, ins := range plan.Insertions {
		if _, err := fragWriter.Write(ins.FragmentRelPath, ins.FragmentData); err != nil {
			return fmt.Errorf("write fragment: %w", err)
		}
		observability.InfoContext(writeCtx, "fragment synthesized",
			slog.String("method", ins.Method),
			slog.String("version", ins.Version),
			slog.String("fragment", ins.FragmentRelPath))
	}

	updater.Apply(plan)
	encoded, err := updater.Aggregate.Encode()
	if err != nil {
		return fmt.Errorf("encode aggregate document: %w", err)
	}

	aggWriter := &artifacts.Writer{Root: filepath.Dir(updater.Aggregate.FilePath)}
	if _, err := aggWriter.Write(filepath.Base(updater.Aggregate.FilePath), encoded); err != nil {
		return fmt.Errorf("write aggregate document: %w", err)
	}
	return nil
}

func (p *Pipeline) writeArtifacts(ctx context.Context, results []reconcile.Result, summary *report.Summary) error {
	writeCtx := observability.WithStage(ctx, "artifacts")
	writer := &artifacts.Writer{Root: p.cfg.OutputDir}

	mapping := artifacts.BuildMapping(results)
	mappingJSON, err := artifacts.EncodeJSON(mapping)
	if err != nil {
		return fmt.Errorf("encode unified mapping: %w", err)
	}
	if _, err := writer.Write("unified_method_mapping.json", mappingJSON); err != nil {
		return err
	}

	index := artifacts.BuildSearchIndex(results)
	indexJSON, err := artifacts.EncodeJSON(index)
	if err != nil {
		return fmt.Errorf("encode search index: %w", err)
	}
	if _, err := writer.Write("search_index.json", indexJSON); err != nil {
		return err
	}

	if p.opts.MappingOnly {
		observability.InfoContext(writeCtx, "artifacts written (mapping only)")
		return nil
	}

	collections := artifacts.BuildCollections(results, p.categorizer())
	for version, col := range collections {
		data, err := artifacts.EncodeJSON(col)
		if err != nil {
			return fmt.Errorf("encode collection %s: %w", version, err)
		}
		if _, err := writer.Write("collections/collection_"+version+".json", data); err != nil {
			return err
		}
	}

	observability.InfoContext(writeCtx, "artifacts written",
		slog.Int("collections", len(collections)))
	return nil
}

func (p *Pipeline) categorizer() artifacts.Categorizer {
	return func(def *extract.MethodDefinition) string {
		if name := p.cfg.CategoryFor(def.SourcePath); name != "" {
			return name
		}
		return artifacts.DefaultCategory(def.Name)
	}
}

func summaryDuration(s *report.Summary) time.Duration {
	return time.Since(s.StartedAt)
}
