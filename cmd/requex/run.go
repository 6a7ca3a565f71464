package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"path"

	"github.com/auditkraft/requex/internal/audit"
	"github.com/auditkraft/requex/internal/catalog"
	"github.com/auditkraft/requex/internal/config"
	"github.com/auditkraft/requex/internal/docconv"
	"github.com/auditkraft/requex/internal/extract"
	"github.com/auditkraft/requex/internal/llm"
	"github.com/auditkraft/requex/internal/prompts"
	"github.com/auditkraft/requex/internal/reconcile"
	"github.com/auditkraft/requex/internal/store"
)

// runAudit executes the audit pipeline end to end, or a stage range of an
// existing run when -run and -from/-to are given.
func runAudit(cfg *config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("requex run", flag.ContinueOnError)
	resumeID := fs.String("run", "", "resume an existing run id instead of starting a new one")
	from := fs.Int("from", 0, "first pipeline stage to execute (0-4)")
	to := fs.Int("to", int(audit.StageReport), "last pipeline stage to execute (0-4)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *from < 0 || *to > int(audit.StageReport) || *from > *to {
		return fmt.Errorf("invalid stage range %d-%d", *from, *to)
	}

	docs := fs.Args()
	if len(docs) == 0 && *from == int(audit.StageConvert) {
		return fmt.Errorf("usage: requex run [flags] <document.pdf> [more.pdf ...]")
	}

	needsModel := *from <= int(audit.StageExtract) && *to >= int(audit.StageExtract)
	if needsModel && cfg.APIKey == "" {
		return fmt.Errorf("no API key configured for provider %q", cfg.Provider)
	}
	if cfg.CatalogPath == "" || cfg.GroundTruthPath == "" {
		return fmt.Errorf("catalogPath and groundTruthPath must be set in requex.yml")
	}

	truth, err := catalog.LoadGroundTruth(cfg.GroundTruthPath)
	if err != nil {
		return err
	}
	cat, err := catalog.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return err
	}

	blobs, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer blobs.Close()

	ctx := context.Background()

	runID := *resumeID
	if runID == "" {
		runID = audit.NewRunID()
	}

	var extractor *extract.Orchestrator
	if needsModel {
		model, err := llm.NewClient(ctx, cfg.Provider, cfg.APIKey, cfg.BaseURL)
		if err != nil {
			return err
		}
		if closer, ok := model.(io.Closer); ok {
			defer closer.Close()
		}

		validator, err := llm.NewValidator(prompts.FragmentSchema())
		if err != nil {
			return err
		}

		cache := store.NewResultCache(blobs, path.Join("runs", runID))
		extractor = extract.NewOrchestrator(model, validator, cache,
			extract.WithModels(cfg.Models...),
			extract.WithMaxInFlight(cfg.MaxInFlight),
			extract.WithLogger(logger),
		)
	}

	engine := reconcile.NewEngine(cat, truth, cfg.GlobalModulePrefixes, logger)
	converter := docconv.NewHTTPClient(cfg.ConvertEndpoint)

	runner := audit.NewRunner(runID, blobs, converter, extractor, engine, truth,
		audit.Params{Docs: docs, WindowSize: cfg.WindowSize, Passes: cfg.Passes},
		audit.WithLogger(logger),
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range runner.Progress() {
			fmt.Println(audit.FormatProgress(ev))
		}
	}()

	fmt.Printf("Run: %s\n", runID)
	err = runner.RunPipeline(ctx, audit.Stage(*from), audit.Stage(*to))
	runner.Close()
	<-done
	if err != nil {
		return err
	}

	fmt.Printf("\nRun %s finished. 'requex export %s' writes the canonical list.\n", runID, runID)
	return nil
}
