package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/specsync/internal/config"
	"git.home.luguber.info/inful/specsync/internal/docs"
	"git.home.luguber.info/inful/specsync/internal/pipeline"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"specsync.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`
	Quiet   bool   `short:"q" help:"Only log warnings and errors"`

	Sync struct {
		UpdateOpenAPI bool `help:"Synthesize fragments and insert aggregate entries for doc-only methods"`
		DryRun        bool `help:"Compute and print the aggregate patch without writing anything"`
		MappingOnly   bool `help:"Emit only the unified mapping and search index"`
	} `cmd:"" default:"1" help:"Run a full reconciliation pass and regenerate derived artifacts"`

	Scan struct{} `cmd:"" help:"Scan the documentation tree and report what would be extracted"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`
}

func main() {
	// Environment overrides are optional; a missing .env is not an error.
	_ = godotenv.Load()

	kctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	if CLI.Quiet {
		logLevel = slog.LevelWarn
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	switch kctx.Command() {
	case "sync":
		os.Exit(runSync())
	case "scan":
		os.Exit(runScan())
	case "init":
		if err := runInit(CLI.Config, CLI.Init.Force); err != nil {
			slog.Error("Init failed", "error", err)
			os.Exit(1)
		}
	}
}

func runSync() int {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	p := pipeline.New(cfg, pipeline.Options{
		UpdateOpenAPI: CLI.Sync.UpdateOpenAPI,
		DryRun:        CLI.Sync.DryRun,
		MappingOnly:   CLI.Sync.MappingOnly,
	})

	summary, err := p.Run(ctx)
	if err != nil {
		slog.Error("Reconciliation run failed", "error", err)
		return 1
	}

	if summary.PatchText != "" {
		fmt.Print(summary.PatchText)
	}
	fmt.Print(summary.Render())
	return summary.ExitCode()
}

func runScan() int {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	scanner := &docs.Scanner{Root: cfg.DocsDir, Workers: cfg.Workers}
	result, err := scanner.Scan(ctx)
	if err != nil {
		slog.Error("Documentation scan failed", "error", err)
		return 1
	}

	for _, doc := range result.Documents {
		version, ok := cfg.VersionFor(doc.RelPath)
		if !ok {
			version = "(unmapped)"
		}
		fmt.Printf("%s  version=%s  blocks=%d\n", doc.RelPath, version, len(doc.Blocks))
	}
	for _, d := range result.Defects {
		fmt.Println(d.String())
	}

	slog.Info("Scan completed", "documents", len(result.Documents), "skipped", len(result.Defects))
	return 0
}

func runInit(configPath string, force bool) error {
	slog.Info("Initializing configuration", "path", configPath, "force", force)
	return config.Init(configPath, force)
}
