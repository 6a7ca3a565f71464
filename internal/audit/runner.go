package audit

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/auditkraft/requex/internal/catalog"
	"github.com/auditkraft/requex/internal/chunk"
	"github.com/auditkraft/requex/internal/docconv"
	"github.com/auditkraft/requex/internal/export"
	"github.com/auditkraft/requex/internal/extract"
	"github.com/auditkraft/requex/internal/layout"
	"github.com/auditkraft/requex/internal/reconcile"
	"github.com/auditkraft/requex/internal/store"
	"github.com/google/uuid"
)

// Pass names accepted by Params.Passes.
const (
	PassWindows = "windows"
	PassGroups  = "groups"
)

// DefaultWindowSize is the page count per extraction window when Params
// leaves it unset.
const DefaultWindowSize = 100

// Document is the convert-stage artifact: the merged, re-indexed block tree
// and the page texts of the audited document set.
type Document struct {
	Blocks []layout.RawBlock `json:"blocks"`
	Pages  []chunk.Page      `json:"pages"`
}

// Params configures one audit run.
type Params struct {
	// Docs are the source document paths, converted in order.
	Docs []string

	// WindowSize is the page count per extraction window.
	WindowSize int

	// Passes names the extraction passes to run. An empty list runs both
	// the window pass and the group pass.
	Passes []string
}

// Runner executes the audit pipeline for one run, persisting one artifact
// per stage so stages can be checked and re-run independently.
type Runner struct {
	runID     string
	blobs     store.Store
	converter docconv.Client
	extractor *extract.Orchestrator
	engine    *reconcile.Engine
	truth     *catalog.GroundTruth
	params    Params
	progress  *ProgressReporter
	logger    *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger for stage-level reporting.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner wires a Runner for one audit run. The extractor must be bound to
// the same run prefix as runID so cached fragments land inside the run.
func NewRunner(runID string, blobs store.Store, converter docconv.Client, extractor *extract.Orchestrator, engine *reconcile.Engine, truth *catalog.GroundTruth, params Params, opts ...RunnerOption) *Runner {
	r := &Runner{
		runID:     runID,
		blobs:     blobs,
		converter: converter,
		extractor: extractor,
		engine:    engine,
		truth:     truth,
		params:    params,
		progress:  NewProgressReporter(),
		logger:    slog.Default(),
	}
	if r.params.WindowSize <= 0 {
		r.params.WindowSize = DefaultWindowSize
	}
	if len(r.params.Passes) == 0 {
		r.params.Passes = []string{PassWindows, PassGroups}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewRunID returns a fresh unique run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// RunID returns the run this runner operates on.
func (r *Runner) RunID() string {
	return r.runID
}

// Progress returns a channel that emits progress events.
func (r *Runner) Progress() <-chan ProgressEvent {
	return r.progress.Subscribe()
}

// Close shuts down the progress reporter. Callers should invoke this when
// the runner is no longer needed.
func (r *Runner) Close() {
	r.progress.Close()
}

// artifactKey returns the store key of a stage artifact for this run.
func (r *Runner) artifactKey(stage Stage) string {
	return path.Join("runs", r.runID, stage.Artifact())
}

// RunPipeline executes stages from..to inclusive, stopping at the first
// stage failure.
func (r *Runner) RunPipeline(ctx context.Context, from, to Stage) error {
	if from > to {
		return fmt.Errorf("audit: invalid stage range: from (%d) > to (%d)", from, to)
	}
	for stage := from; stage <= to; stage++ {
		if err := r.RunStage(ctx, stage); err != nil {
			return err
		}
	}
	return nil
}

// RunStage checks the stage's prerequisites and executes it.
func (r *Runner) RunStage(ctx context.Context, stage Stage) error {
	r.progress.Emit(ProgressEvent{
		Stage:  stage,
		Detail: FormatStageHeader(r.runID, stage),
		Status: ProgressWorking,
	})

	err := r.checkPrerequisites(ctx, stage)
	if err == nil {
		switch stage {
		case StageConvert:
			err = r.runConvert(ctx)
		case StageGroup:
			err = r.runGroup(ctx)
		case StageExtract:
			err = r.runExtract(ctx)
		case StageReconcile:
			err = r.runReconcile(ctx)
		case StageReport:
			err = r.runReport(ctx)
		default:
			err = fmt.Errorf("audit: unknown stage %d", stage)
		}
	}

	if err != nil {
		r.progress.Emit(ProgressEvent{
			Stage:   stage,
			Detail:  stage.String(),
			Status:  ProgressFailed,
			Message: err.Error(),
		})
		return fmt.Errorf("audit: stage %d (%s): %w", stage, stage, err)
	}

	r.progress.Emit(ProgressEvent{
		Stage:  stage,
		Detail: stage.String(),
		Status: ProgressComplete,
	})
	return nil
}

// checkPrerequisites verifies that every prerequisite stage has written its
// artifact, so a stage can be re-run on its own against stored inputs.
func (r *Runner) checkPrerequisites(ctx context.Context, stage Stage) error {
	for _, pre := range prerequisites(stage) {
		key := r.artifactKey(pre)
		ok, err := r.blobs.Exists(ctx, key)
		if err != nil {
			return fmt.Errorf("check prerequisite %s: %w", pre, err)
		}
		if !ok {
			return fmt.Errorf("required prerequisite stage %d (%s) not satisfied: %s missing", pre, pre, key)
		}
	}
	return nil
}

// runConvert reads every source document, converts each through the
// conversion service, renumbers pages across document boundaries, and
// re-indexes the merged block tree into one Document artifact.
func (r *Runner) runConvert(ctx context.Context) error {
	if len(r.params.Docs) == 0 {
		return fmt.Errorf("convert: no source documents configured")
	}

	var doc Document
	var blockSets [][]layout.RawBlock
	pageOffset := 0

	for _, docPath := range r.params.Docs {
		content, err := os.ReadFile(docPath)
		if err != nil {
			return fmt.Errorf("convert: read %s: %w", docPath, err)
		}

		result, err := r.converter.Convert(ctx, docconv.ConvertRequest{
			Filename: filepath.Base(docPath),
			Content:  content,
		})
		if err != nil {
			return fmt.Errorf("convert %s: %w", docPath, err)
		}

		maxPage := pageOffset
		for _, pg := range result.Pages {
			n := pg.Number + pageOffset
			if n > maxPage {
				maxPage = n
			}
			doc.Pages = append(doc.Pages, chunk.Page{Number: n, Text: pg.Text})
		}
		blockSets = append(blockSets, shiftPages(result.Blocks, pageOffset))
		pageOffset = maxPage

		r.logger.Info("audit.converted",
			"run", r.runID,
			"doc", docPath,
			"pages", len(result.Pages),
			"blocks", len(result.Blocks))
	}

	doc.Blocks = layout.Reindex(blockSets...)
	return r.blobs.WriteJSON(ctx, r.artifactKey(StageConvert), doc)
}

// shiftPages offsets the page number of every block in the tree, so page
// numbers keep increasing across document boundaries.
func shiftPages(blocks []layout.RawBlock, offset int) []layout.RawBlock {
	if offset == 0 {
		return blocks
	}
	out := make([]layout.RawBlock, len(blocks))
	for i, b := range blocks {
		b.Page += offset
		b.Children = shiftPages(b.Children, offset)
		out[i] = b
	}
	return out
}

// runGroup partitions the document's blocks by target-object heading and
// persists the grouping plus the ground truth it was built against. Zero
// markers is fatal: without a single heading the document cannot be audited
// per target object.
func (r *Runner) runGroup(ctx context.Context) error {
	var doc Document
	if err := r.blobs.ReadJSON(ctx, r.artifactKey(StageConvert), &doc); err != nil {
		return fmt.Errorf("group: read document: %w", err)
	}

	grouping, err := layout.GroupByTarget(layout.Flatten(doc.Blocks), r.truth.Codes())
	if err != nil {
		return fmt.Errorf("group: %w", err)
	}

	r.logger.Info("audit.grouped",
		"run", r.runID,
		"markers", len(grouping.Markers),
		"groups", len(grouping.Groups))

	if err := r.blobs.WriteJSON(ctx, path.Join("runs", r.runID, "groundtruth.json"), r.truth); err != nil {
		return fmt.Errorf("group: write ground truth: %w", err)
	}
	return r.blobs.WriteJSON(ctx, r.artifactKey(StageGroup), grouping)
}

// runExtract builds the configured passes and hands every unit to the
// extraction orchestrator. Unit failures degrade to empty fragments inside
// the orchestrator; only context cancellation aborts the stage.
func (r *Runner) runExtract(ctx context.Context) error {
	var doc Document
	if err := r.blobs.ReadJSON(ctx, r.artifactKey(StageConvert), &doc); err != nil {
		return fmt.Errorf("extract: read document: %w", err)
	}
	var grouping layout.Grouping
	if err := r.blobs.ReadJSON(ctx, r.artifactKey(StageGroup), &grouping); err != nil {
		return fmt.Errorf("extract: read grouping: %w", err)
	}

	var passes []extract.Pass
	for _, name := range r.params.Passes {
		switch name {
		case PassWindows:
			pages := chunk.Preprocess(doc.Pages)
			passes = append(passes, extract.Pass{
				ID:    PassWindows,
				Units: extract.WindowUnits(pages, r.params.WindowSize, r.truth.Codes()),
			})
		case PassGroups:
			passes = append(passes, extract.Pass{
				ID:    PassGroups,
				Units: extract.GroupUnits(&grouping, r.truth),
			})
		default:
			return fmt.Errorf("extract: unknown pass %q", name)
		}
	}

	frags, err := r.extractor.Run(ctx, passes)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	r.logger.Info("audit.extracted", "run", r.runID, "fragments", len(frags))
	return r.blobs.WriteJSON(ctx, r.artifactKey(StageExtract), frags)
}

// runReconcile merges all extraction fragments into the canonical
// requirement list.
func (r *Runner) runReconcile(ctx context.Context) error {
	var frags []reconcile.Fragment
	if err := r.blobs.ReadJSON(ctx, r.artifactKey(StageExtract), &frags); err != nil {
		return fmt.Errorf("reconcile: read fragments: %w", err)
	}

	reqs := r.engine.Reconcile(frags)
	r.logger.Info("audit.reconciled",
		"run", r.runID,
		"fragments", len(frags),
		"requirements", len(reqs))

	return r.blobs.WriteJSON(ctx, r.artifactKey(StageReconcile), reqs)
}

// runReport renders the Markdown compliance summary from the canonical list.
func (r *Runner) runReport(ctx context.Context) error {
	var reqs []reconcile.Requirement
	if err := r.blobs.ReadJSON(ctx, r.artifactKey(StageReconcile), &reqs); err != nil {
		return fmt.Errorf("report: read canonical list: %w", err)
	}

	report := export.Summary(reqs)
	return r.blobs.WriteBytes(ctx, r.artifactKey(StageReport), []byte(report))
}
