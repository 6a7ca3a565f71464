package mcptools

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/auditkraft/requex/internal/audit"
	"github.com/auditkraft/requex/internal/reconcile"
	"github.com/auditkraft/requex/internal/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// AuditService handles MCP tool calls against a blob store of audit runs.
type AuditService struct {
	blobs store.Store
}

// NewAuditService creates an AuditService over the given store.
func NewAuditService(blobs store.Store) *AuditService {
	return &AuditService{blobs: blobs}
}

// AuditStatus reports stage completion for one run, or for every run when no
// run id is given.
func (s *AuditService) AuditStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AuditStatusInput,
) (*mcp.CallToolResult, AuditStatusOutput, error) {
	var statuses []audit.RunStatus

	if input.RunID != "" {
		status, err := audit.ScanRun(ctx, s.blobs, input.RunID)
		if err != nil {
			return nil, AuditStatusOutput{}, err
		}
		statuses = []audit.RunStatus{status}
	} else {
		var err error
		statuses, err = audit.ListRuns(ctx, s.blobs)
		if err != nil {
			return nil, AuditStatusOutput{}, err
		}
	}

	out := AuditStatusOutput{Runs: make([]RunSummary, 0, len(statuses))}
	for _, status := range statuses {
		summary := RunSummary{RunID: status.RunID, NextStage: status.NextStage}
		for _, si := range status.Stages {
			if si.Complete {
				summary.CompletedStages = append(summary.CompletedStages, si.Stage)
			}
		}
		out.Runs = append(out.Runs, summary)
	}
	return nil, out, nil
}

// ListRequirements returns the canonical requirements of a run, filtered by
// target code, status, and module prefix.
func (s *AuditService) ListRequirements(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListRequirementsInput,
) (*mcp.CallToolResult, ListRequirementsOutput, error) {
	runID, reqs, err := s.loadCanonical(ctx, input.RunID)
	if err != nil {
		return nil, ListRequirementsOutput{}, err
	}

	var statusFilter reconcile.Status
	filterStatus := input.Status != ""
	if filterStatus {
		statusFilter = reconcile.ParseStatus(input.Status)
	}

	out := ListRequirementsOutput{RunID: runID}
	for _, r := range reqs {
		if input.TargetCode != "" && r.TargetCode != input.TargetCode {
			continue
		}
		if filterStatus && r.Status != statusFilter {
			continue
		}
		if input.ModuleID != "" && !strings.HasPrefix(r.ControlID, input.ModuleID+".A") {
			continue
		}
		out.Requirements = append(out.Requirements, RequirementSummary{
			ControlID:   r.ControlID,
			TargetCode:  r.TargetCode,
			Title:       r.Title,
			Status:      r.Status.String(),
			LastChecked: formatChecked(r),
		})
	}
	out.Total = len(out.Requirements)
	return nil, out, nil
}

// GetRequirement returns one canonical requirement by control id and target
// code. When the target code is omitted the control must resolve uniquely.
func (s *AuditService) GetRequirement(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetRequirementInput,
) (*mcp.CallToolResult, GetRequirementOutput, error) {
	if input.ControlID == "" {
		return nil, GetRequirementOutput{}, fmt.Errorf("mcptools: controlId is required")
	}

	runID, reqs, err := s.loadCanonical(ctx, input.RunID)
	if err != nil {
		return nil, GetRequirementOutput{}, err
	}

	var matches []reconcile.Requirement
	for _, r := range reqs {
		if r.ControlID != input.ControlID {
			continue
		}
		if input.TargetCode != "" && r.TargetCode != input.TargetCode {
			continue
		}
		matches = append(matches, r)
	}

	switch len(matches) {
	case 0:
		return nil, GetRequirementOutput{}, fmt.Errorf("mcptools: no requirement %s in run %s", input.ControlID, runID)
	case 1:
	default:
		return nil, GetRequirementOutput{}, fmt.Errorf("mcptools: %s applies to %d targets in run %s; pass targetCode", input.ControlID, len(matches), runID)
	}

	r := matches[0]
	return nil, GetRequirementOutput{
		ControlID:   r.ControlID,
		TargetCode:  r.TargetCode,
		TargetName:  r.TargetName,
		Title:       r.Title,
		Status:      r.Status.String(),
		Explanation: r.Explanation,
		LastChecked: formatChecked(r),
	}, nil
}

// loadCanonical resolves the run id and reads its canonical requirement list.
func (s *AuditService) loadCanonical(ctx context.Context, runID string) (string, []reconcile.Requirement, error) {
	runID, err := s.resolveRunID(ctx, runID)
	if err != nil {
		return "", nil, err
	}

	key := path.Join("runs", runID, audit.StageReconcile.Artifact())
	var reqs []reconcile.Requirement
	if err := s.blobs.ReadJSON(ctx, key, &reqs); err != nil {
		return "", nil, fmt.Errorf("mcptools: run %s has no canonical list yet: %w", runID, err)
	}
	return runID, reqs, nil
}

// resolveRunID defaults the run id when the store holds exactly one run.
func (s *AuditService) resolveRunID(ctx context.Context, runID string) (string, error) {
	if runID != "" {
		return runID, nil
	}

	statuses, err := audit.ListRuns(ctx, s.blobs)
	if err != nil {
		return "", err
	}
	switch len(statuses) {
	case 0:
		return "", fmt.Errorf("mcptools: no audit runs in store")
	case 1:
		return statuses[0].RunID, nil
	default:
		return "", fmt.Errorf("mcptools: %d audit runs in store; pass runId", len(statuses))
	}
}

// formatChecked renders the last-check date, mapping the sentinel to the
// unknown label.
func formatChecked(r reconcile.Requirement) string {
	if reconcile.IsUnknownDate(r.LastChecked) {
		return ""
	}
	return r.LastChecked.Format("2006-01-02")
}
