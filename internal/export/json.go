package export

import (
	"time"

	"github.com/auditkraft/requex/internal/reconcile"
)

// RunExport is the top-level JSON export structure for one audit run.
type RunExport struct {
	RunID        string                  `json:"runId"`
	ExportedAt   string                  `json:"exportedAt"`
	Stages       []StageExport           `json:"stages"`
	Requirements []reconcile.Requirement `json:"requirements,omitempty"`
}

// StageExport describes one pipeline stage.
type StageExport struct {
	Stage  int    `json:"stage"`
	Name   string `json:"name"`
	Status string `json:"status"`
	Key    string `json:"key,omitempty"`
}

// BuildRunExport assembles the export document for a run from its stage
// states and canonical requirement list.
func BuildRunExport(runID string, stages []StageExport, reqs []reconcile.Requirement) *RunExport {
	return &RunExport{
		RunID:        runID,
		ExportedAt:   time.Now().UTC().Format(time.RFC3339),
		Stages:       stages,
		Requirements: reqs,
	}
}
