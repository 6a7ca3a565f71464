package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/auditkraft/requex/internal/llm"
	"github.com/auditkraft/requex/internal/prompts"
	"github.com/auditkraft/requex/internal/reconcile"
	"github.com/auditkraft/requex/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient implements llm.Client with a configurable generate function.
type mockClient struct {
	generate func(ctx context.Context, req llm.Request) (string, error)
}

func (m *mockClient) Generate(ctx context.Context, req llm.Request) (string, error) {
	return m.generate(ctx, req)
}

// stubUnit is a synthetic work unit whose instruction embeds its key, so the
// mock client can react per unit. Split halves get ".l"/".r" key suffixes.
type stubUnit struct {
	key  string
	size int
	code string
}

func (u stubUnit) Key() string { return u.key }
func (u stubUnit) Size() int   { return u.size }

func (u stubUnit) Split() (Unit, Unit) {
	mid := u.size / 2
	return stubUnit{key: u.key + ".l", size: mid, code: u.code},
		stubUnit{key: u.key + ".r", size: u.size - mid, code: u.code}
}

func (u stubUnit) Instruction() (string, error) { return "extract " + u.key, nil }
func (u stubUnit) PinnedCode() string           { return u.code }

// fragmentJSON builds a minimal schema-valid response with one candidate.
func fragmentJSON(controlID, targetCode string) string {
	c := map[string]any{
		"controlId":   controlID,
		"status":      "Ja",
		"title":       "Titel " + controlID,
		"explanation": "Umgesetzt.",
	}
	if targetCode != "" {
		c["targetCode"] = targetCode
	}
	b, _ := json.Marshal(map[string]any{"candidates": []any{c}})
	return string(b)
}

func newTestOrchestrator(t *testing.T, client llm.Client, cache *store.ResultCache, opts ...Option) *Orchestrator {
	t.Helper()
	validator, err := llm.NewValidator(prompts.FragmentSchema())
	require.NoError(t, err)
	opts = append(opts, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	return NewOrchestrator(client, validator, cache, opts...)
}

func TestRunFansOutAllPasses(t *testing.T) {
	var calls atomic.Int64
	client := &mockClient{
		generate: func(_ context.Context, req llm.Request) (string, error) {
			calls.Add(1)
			return fragmentJSON("SYS.1.1.A1", ""), nil
		},
	}
	o := newTestOrchestrator(t, client, nil)

	passes := []Pass{
		{ID: "windows", Units: []Unit{
			stubUnit{key: "w1-100", size: 100},
			stubUnit{key: "w91-190", size: 100},
		}},
		{ID: "groups", Units: []Unit{
			stubUnit{key: "SRV01", size: 40, code: "SRV01"},
		}},
	}

	frags, err := o.Run(context.Background(), passes)
	require.NoError(t, err)
	require.Len(t, frags, 3)
	assert.EqualValues(t, 3, calls.Load())

	// Result slots follow pass-then-unit order regardless of completion order.
	assert.Equal(t, "windows", frags[0].PassID)
	assert.Equal(t, "w1-100", frags[0].UnitKey)
	assert.Equal(t, "windows", frags[1].PassID)
	assert.Equal(t, "w91-190", frags[1].UnitKey)
	assert.Equal(t, "groups", frags[2].PassID)
	assert.Equal(t, "SRV01", frags[2].UnitKey)

	for _, f := range frags {
		require.Len(t, f.Candidates, 1)
		assert.Equal(t, "SYS.1.1.A1", f.Candidates[0].ControlID)
	}
}

func TestFallbackModelRecovers(t *testing.T) {
	var models []string
	client := &mockClient{
		generate: func(_ context.Context, req llm.Request) (string, error) {
			models = append(models, req.Model)
			if req.Model == "fast" {
				return "this is not JSON", nil
			}
			return fragmentJSON("ORP.4.A1", ""), nil
		},
	}
	o := newTestOrchestrator(t, client, nil, WithModels("fast", "strong"))

	frags, err := o.Run(context.Background(), []Pass{
		{ID: "p", Units: []Unit{stubUnit{key: "u", size: 10}}},
	})
	require.NoError(t, err)
	require.Len(t, frags, 1)
	require.Len(t, frags[0].Candidates, 1)
	assert.Equal(t, "ORP.4.A1", frags[0].Candidates[0].ControlID)
	assert.Equal(t, []string{"fast", "strong"}, models)
}

func TestBisectionRecoversPartialResults(t *testing.T) {
	// Both models fail for the full unit and its left half; only the right
	// half ever succeeds. The unit is large enough to bisect exactly once
	// before its halves reach the minimum size.
	client := &mockClient{
		generate: func(_ context.Context, req llm.Request) (string, error) {
			if req.Prompt == "extract u.r" {
				return fragmentJSON("SYS.1.1.A2", ""), nil
			}
			return "", fmt.Errorf("model overloaded")
		},
	}

	mem := store.NewMemStore()
	defer mem.Close()
	cache := store.NewResultCache(mem, "runs/r1")
	o := newTestOrchestrator(t, client, cache, WithModels("fast", "strong"))

	frags, err := o.Run(context.Background(), []Pass{
		{ID: "p", Units: []Unit{stubUnit{key: "u", size: 100}}},
	})
	require.NoError(t, err)
	require.Len(t, frags, 1)
	require.Len(t, frags[0].Candidates, 1)
	assert.Equal(t, "SYS.1.1.A2", frags[0].Candidates[0].ControlID)

	// The left half was given up on, so the degraded fragment must not be
	// cached; a rerun has to retry the unit.
	keys, err := cache.Keys(context.Background(), "p")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestCacheShortCircuits(t *testing.T) {
	var calls atomic.Int64
	client := &mockClient{
		generate: func(_ context.Context, req llm.Request) (string, error) {
			calls.Add(1)
			return fragmentJSON("APP.3.A5", ""), nil
		},
	}

	mem := store.NewMemStore()
	defer mem.Close()
	cache := store.NewResultCache(mem, "runs/r1")
	o := newTestOrchestrator(t, client, cache)

	passes := []Pass{{ID: "p", Units: []Unit{stubUnit{key: "u", size: 10}}}}

	first, err := o.Run(context.Background(), passes)
	require.NoError(t, err)
	require.EqualValues(t, 1, calls.Load())

	second, err := o.Run(context.Background(), passes)
	require.NoError(t, err)
	assert.EqualValues(t, 1, calls.Load(), "second run must be served from cache")
	assert.Equal(t, first, second)
}

func TestUnitFailureDoesNotAbortSiblings(t *testing.T) {
	client := &mockClient{
		generate: func(_ context.Context, req llm.Request) (string, error) {
			if req.Prompt == "extract bad" {
				return "", fmt.Errorf("quota exceeded")
			}
			return fragmentJSON("SYS.1.1.A1", ""), nil
		},
	}
	o := newTestOrchestrator(t, client, nil)

	frags, err := o.Run(context.Background(), []Pass{
		{ID: "p", Units: []Unit{
			stubUnit{key: "bad", size: 10},
			stubUnit{key: "good", size: 10},
		}},
	})
	require.NoError(t, err)
	require.Len(t, frags, 2)

	assert.Equal(t, "bad", frags[0].UnitKey)
	assert.Empty(t, frags[0].Candidates)

	assert.Equal(t, "good", frags[1].UnitKey)
	require.Len(t, frags[1].Candidates, 1)
}

func TestPinnedCodeStampsCandidates(t *testing.T) {
	client := &mockClient{
		generate: func(_ context.Context, req llm.Request) (string, error) {
			payload := map[string]any{"candidates": []any{
				map[string]any{"controlId": "SYS.1.1.A1", "status": "Ja"},
				map[string]any{"controlId": "SYS.1.1.A2", "status": "Nein", "targetCode": "SRV99"},
			}}
			b, _ := json.Marshal(payload)
			return string(b), nil
		},
	}
	o := newTestOrchestrator(t, client, nil)

	frags, err := o.Run(context.Background(), []Pass{
		{ID: "groups", Units: []Unit{stubUnit{key: "SRV01", size: 10, code: "SRV01"}}},
	})
	require.NoError(t, err)
	require.Len(t, frags, 1)
	require.Len(t, frags[0].Candidates, 2)

	assert.Equal(t, "SRV01", frags[0].Candidates[0].TargetCode, "blank code takes the unit's code")
	assert.Equal(t, "SRV99", frags[0].Candidates[1].TargetCode, "explicit code wins")
}

func TestRunCanceledContext(t *testing.T) {
	client := &mockClient{
		generate: func(ctx context.Context, req llm.Request) (string, error) {
			return "", ctx.Err()
		},
	}
	o := newTestOrchestrator(t, client, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.Run(ctx, []Pass{
		{ID: "p", Units: []Unit{stubUnit{key: "u", size: 10}}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMarkersSurviveExtraction(t *testing.T) {
	client := &mockClient{
		generate: func(_ context.Context, req llm.Request) (string, error) {
			payload := map[string]any{
				"candidates": []any{
					map[string]any{"controlId": "SYS.1.1.A1", "status": "teilweise", "page": 12},
				},
				"markers": []any{
					map[string]any{"code": "SRV01", "page": 11},
				},
			}
			b, _ := json.Marshal(payload)
			return string(b), nil
		},
	}
	o := newTestOrchestrator(t, client, nil)

	frags, err := o.Run(context.Background(), []Pass{
		{ID: "windows", Units: []Unit{stubUnit{key: "w1-50", size: 50}}},
	})
	require.NoError(t, err)
	require.Len(t, frags, 1)
	require.Len(t, frags[0].Markers, 1)
	assert.Equal(t, reconcile.HeadingMarker{Code: "SRV01", Page: 11}, frags[0].Markers[0])
}
