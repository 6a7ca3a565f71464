package audit

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/auditkraft/requex/internal/store"
)

// StageInfo describes the completion state of a single stage.
type StageInfo struct {
	Stage    int
	Name     string // human-readable name (e.g. "Reconcile")
	Slug     string // artifact slug (e.g. "reconcile")
	Complete bool
	Key      string // store key when complete, empty otherwise
}

// RunStatus holds the status of one audit run.
type RunStatus struct {
	RunID     string
	Stages    []StageInfo
	NextStage int // -1 if all complete
}

var stageLabels = [5]string{
	"Convert",
	"Group",
	"Extract",
	"Reconcile",
	"Report",
}

// ScanRun checks which stage artifacts exist for a run.
func ScanRun(ctx context.Context, blobs store.Store, runID string) (RunStatus, error) {
	status := RunStatus{RunID: runID, Stages: make([]StageInfo, 5)}

	var completed []int
	for i := 0; i < 5; i++ {
		stage := Stage(i)
		key := path.Join("runs", runID, stage.Artifact())
		ok, err := blobs.Exists(ctx, key)
		if err != nil {
			return RunStatus{}, fmt.Errorf("audit: scan run %s: %w", runID, err)
		}

		info := StageInfo{
			Stage:    i,
			Name:     stageLabels[i],
			Slug:     stage.String(),
			Complete: ok,
		}
		if ok {
			info.Key = key
			completed = append(completed, i)
		}
		status.Stages[i] = info
	}

	status.NextStage = NextStage(completed)
	return status, nil
}

// NextStage returns the next stage to run based on completed stages.
// Returns -1 if all stages are complete.
func NextStage(completed []int) int {
	if len(completed) == 0 {
		return 0
	}
	max := completed[0]
	for _, s := range completed[1:] {
		if s > max {
			max = s
		}
	}
	next := max + 1
	if next > int(StageReport) {
		return -1
	}
	return next
}

// ListRuns scans the store for audit runs and returns their statuses sorted
// by run id.
func ListRuns(ctx context.Context, blobs store.Store) ([]RunStatus, error) {
	keys, err := blobs.List(ctx, "runs/")
	if err != nil {
		return nil, fmt.Errorf("audit: list runs: %w", err)
	}

	seen := make(map[string]bool)
	var ids []string
	for _, key := range keys {
		rest := strings.TrimPrefix(key, "runs/")
		id, _, ok := strings.Cut(rest, "/")
		if !ok || id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	sort.Strings(ids)

	statuses := make([]RunStatus, 0, len(ids))
	for _, id := range ids {
		status, err := ScanRun(ctx, blobs, id)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}
