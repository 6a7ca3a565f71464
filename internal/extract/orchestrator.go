package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/auditkraft/requex/internal/chunk"
	"github.com/auditkraft/requex/internal/llm"
	"github.com/auditkraft/requex/internal/prompts"
	"github.com/auditkraft/requex/internal/reconcile"
	"github.com/auditkraft/requex/internal/store"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// defaultModels is the model chain used when no chain is configured: a cheap
// fast variant first, one stronger fallback.
var defaultModels = []string{"gemini-2.5-flash", "gemini-2.5-pro"}

// defaultMaxInFlight bounds concurrent generative calls across all passes.
const defaultMaxInFlight = 4

// Orchestrator runs extraction work units against the generative service,
// tolerating partial failure. Fragments are cached per (pass, unit) so a
// rerun over the same document skips completed units.
type Orchestrator struct {
	client    llm.Client
	validator *llm.Validator
	cache     *store.ResultCache
	models    []string
	limit     *semaphore.Weighted
	logger    *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithModels sets the ordered model chain. The first model serves every
// initial attempt; later models are fallbacks for failed or schema-violating
// responses. An empty list leaves the default chain in place.
func WithModels(models ...string) Option {
	return func(o *Orchestrator) {
		if len(models) > 0 {
			o.models = models
		}
	}
}

// WithMaxInFlight bounds the number of concurrent generative calls.
func WithMaxInFlight(n int64) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.limit = semaphore.NewWeighted(n)
		}
	}
}

// WithLogger sets the logger used for per-unit failure reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewOrchestrator creates an Orchestrator that extracts via client and
// validates every response with validator. cache may be nil to disable
// fragment caching.
func NewOrchestrator(client llm.Client, validator *llm.Validator, cache *store.ResultCache, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client:    client,
		validator: validator,
		cache:     cache,
		models:    defaultModels,
		limit:     semaphore.NewWeighted(defaultMaxInFlight),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Pass is one named extraction sweep over the document: a set of work units
// whose fragments share a pass id in the cache and in downstream artifacts.
type Pass struct {
	ID    string
	Units []Unit
}

// Run executes every unit of every pass concurrently and returns one
// fragment per unit, in pass-then-unit order. Each goroutine writes to its
// own result slot; a unit that fails after all retries contributes an empty
// fragment and never aborts its siblings. Only context cancellation stops
// the batch early.
func (o *Orchestrator) Run(ctx context.Context, passes []Pass) ([]reconcile.Fragment, error) {
	type task struct {
		passID string
		unit   Unit
	}
	var tasks []task
	for _, p := range passes {
		for _, u := range p.Units {
			tasks = append(tasks, task{passID: p.ID, unit: u})
		}
	}

	results := make([]reconcile.Fragment, len(tasks))
	g, gctx := errgroup.WithContext(ctx)

	for i, t := range tasks {
		g.Go(func() error {
			frag, err := o.extractUnit(gctx, t.passID, t.unit)
			if err != nil {
				if gctx.Err() != nil {
					return err
				}
				o.logger.Error("extract.unit_failed",
					"pass", t.passID,
					"unit", t.unit.Key(),
					"error", err)
				results[i] = reconcile.Fragment{PassID: t.passID, UnitKey: t.unit.Key()}
				return nil
			}
			results[i] = frag
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("extract: run passes: %w", err)
	}
	return results, nil
}

// extractUnit produces the fragment for one work unit: cache short-circuit
// first, then the model chain with bisection degradation.
func (o *Orchestrator) extractUnit(ctx context.Context, passID string, u Unit) (reconcile.Fragment, error) {
	frag := reconcile.Fragment{PassID: passID, UnitKey: u.Key()}

	if o.cache != nil {
		hit, err := o.cache.Get(ctx, passID, u.Key(), &frag)
		if err != nil {
			o.logger.Warn("extract.cache_read_failed",
				"pass", passID, "unit", u.Key(), "error", err)
		} else if hit {
			o.logger.Debug("extract.cache_hit", "pass", passID, "unit", u.Key())
			return frag, nil
		}
	}

	payload, degraded, err := o.generate(ctx, passID, u)
	if err != nil {
		return frag, err
	}

	if code := u.PinnedCode(); code != "" {
		for i := range payload.Candidates {
			if payload.Candidates[i].TargetCode == "" {
				payload.Candidates[i].TargetCode = code
			}
		}
	}
	frag.Candidates = payload.Candidates
	frag.Markers = payload.Markers

	// A degraded fragment is not cached, so a later run retries the unit.
	if o.cache != nil && !degraded {
		if err := o.cache.Put(ctx, passID, u.Key(), frag); err != nil {
			o.logger.Warn("extract.cache_write_failed",
				"pass", passID, "unit", u.Key(), "error", err)
		}
	}
	return frag, nil
}

// fragmentPayload mirrors the JSON object the fragment schema demands.
type fragmentPayload struct {
	Candidates []reconcile.Candidate     `json:"candidates"`
	Markers    []reconcile.HeadingMarker `json:"markers,omitempty"`
}

// generate obtains a schema-valid payload for the unit. Every model in the
// chain is tried in order; if all fail and the unit is still above
// chunk.MinUnitSize, the unit is bisected and both halves are extracted
// independently, concatenating whatever partial results they yield. A unit
// at or below the minimum size degrades to an empty payload instead of
// failing. The bool result reports whether any part of the unit was given
// up on; only context cancellation and instruction rendering surface as
// errors.
func (o *Orchestrator) generate(ctx context.Context, passID string, u Unit) (fragmentPayload, bool, error) {
	if err := ctx.Err(); err != nil {
		return fragmentPayload{}, false, err
	}

	instruction, err := u.Instruction()
	if err != nil {
		return fragmentPayload{}, false, fmt.Errorf("extract: render instruction for %s: %w", u.Key(), err)
	}

	payload, callErr := o.callChain(ctx, instruction)
	if callErr == nil {
		return payload, false, nil
	}
	if ctx.Err() != nil {
		return fragmentPayload{}, false, ctx.Err()
	}

	if u.Size() <= chunk.MinUnitSize {
		o.logger.Warn("extract.unit_exhausted",
			"pass", passID,
			"unit", u.Key(),
			"size", u.Size(),
			"error", callErr)
		return fragmentPayload{}, true, nil
	}

	o.logger.Info("extract.bisect",
		"pass", passID,
		"unit", u.Key(),
		"size", u.Size(),
		"error", callErr)

	left, right := u.Split()
	leftPayload, leftDegraded, err := o.generate(ctx, passID, left)
	if err != nil {
		return fragmentPayload{}, false, err
	}
	rightPayload, rightDegraded, err := o.generate(ctx, passID, right)
	if err != nil {
		return fragmentPayload{}, false, err
	}

	merged := fragmentPayload{
		Candidates: append(leftPayload.Candidates, rightPayload.Candidates...),
		Markers:    append(leftPayload.Markers, rightPayload.Markers...),
	}
	return merged, leftDegraded || rightDegraded, nil
}

// callChain tries each model in order until one yields a schema-valid
// payload. The returned error is the last model's failure.
func (o *Orchestrator) callChain(ctx context.Context, instruction string) (fragmentPayload, error) {
	var lastErr error
	for _, model := range o.models {
		payload, err := o.callModel(ctx, model, instruction)
		if err == nil {
			return payload, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		o.logger.Debug("extract.model_failed", "model", model, "error", err)
	}
	return fragmentPayload{}, lastErr
}

// callModel makes one bounded generative call and validates the response.
func (o *Orchestrator) callModel(ctx context.Context, model, instruction string) (fragmentPayload, error) {
	raw, err := o.generateLimited(ctx, model, instruction)
	if err != nil {
		return fragmentPayload{}, fmt.Errorf("extract: generate with %s: %w", model, err)
	}

	text := llm.ExtractJSON(raw)
	if err := o.validator.Validate([]byte(text)); err != nil {
		return fragmentPayload{}, fmt.Errorf("extract: %s response: %w", model, err)
	}

	var payload fragmentPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return fragmentPayload{}, fmt.Errorf("extract: decode %s response: %w", model, err)
	}
	return payload, nil
}

// generateLimited holds a semaphore slot for the duration of one call so
// concurrent requests to the generative service stay bounded.
func (o *Orchestrator) generateLimited(ctx context.Context, model, instruction string) (string, error) {
	if err := o.limit.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer o.limit.Release(1)

	return o.client.Generate(ctx, llm.Request{
		Model:  model,
		System: prompts.SystemInstruction,
		Prompt: instruction,
	})
}
