package mcptools

import (
	"context"
	"testing"
	"time"

	"github.com/auditkraft/requex/internal/reconcile"
	"github.com/auditkraft/requex/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedRun writes a run with a document artifact and a canonical list.
func seedRun(t *testing.T, blobs store.Store, runID string) {
	t.Helper()
	ctx := context.Background()

	checked := time.Date(2024, time.March, 12, 0, 0, 0, 0, time.UTC)
	reqs := []reconcile.Requirement{
		{
			ControlID:   "ISMS.1.A3",
			TargetCode:  "Informationsverbund",
			TargetName:  "Gesamtverbund",
			Title:       "Leitlinie zur Informationssicherheit",
			Status:      reconcile.StatusPartial,
			Explanation: "Leitlinie existiert, Freigabe steht aus.",
			LastChecked: checked,
		},
		{
			ControlID:   "SYS.1.1.A1",
			TargetCode:  "APP02",
			Status:      reconcile.StatusNotImplemented,
			LastChecked: reconcile.SentinelDate,
		},
		{
			ControlID:   "SYS.1.1.A1",
			TargetCode:  "SRV01",
			TargetName:  "Fileserver",
			Title:       "Geeignete Aufstellung",
			Status:      reconcile.StatusImplemented,
			LastChecked: checked,
		},
	}

	require.NoError(t, blobs.WriteJSON(ctx, "runs/"+runID+"/document.json", struct{}{}))
	require.NoError(t, blobs.WriteJSON(ctx, "runs/"+runID+"/canonical.json", reqs))
}

func newTestService(t *testing.T) *AuditService {
	t.Helper()
	blobs := store.NewMemStore()
	t.Cleanup(func() { blobs.Close() })
	seedRun(t, blobs, "r1")
	return NewAuditService(blobs)
}

func TestAuditStatusDefaultsToOnlyRun(t *testing.T) {
	svc := newTestService(t)

	_, out, err := svc.AuditStatus(context.Background(), nil, AuditStatusInput{})
	require.NoError(t, err)
	require.Len(t, out.Runs, 1)

	run := out.Runs[0]
	assert.Equal(t, "r1", run.RunID)
	assert.Equal(t, []int{0, 3}, run.CompletedStages)
	assert.Equal(t, 4, run.NextStage)
}

func TestListRequirementsNoFilter(t *testing.T) {
	svc := newTestService(t)

	_, out, err := svc.ListRequirements(context.Background(), nil, ListRequirementsInput{})
	require.NoError(t, err)
	assert.Equal(t, "r1", out.RunID)
	assert.Equal(t, 3, out.Total)
}

func TestListRequirementsFilters(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, byTarget, err := svc.ListRequirements(ctx, nil, ListRequirementsInput{TargetCode: "SRV01"})
	require.NoError(t, err)
	require.Equal(t, 1, byTarget.Total)
	assert.Equal(t, "SYS.1.1.A1", byTarget.Requirements[0].ControlID)
	assert.Equal(t, "2024-03-12", byTarget.Requirements[0].LastChecked)

	_, byStatus, err := svc.ListRequirements(ctx, nil, ListRequirementsInput{Status: "Nein"})
	require.NoError(t, err)
	require.Equal(t, 1, byStatus.Total)
	assert.Equal(t, "APP02", byStatus.Requirements[0].TargetCode)
	assert.Empty(t, byStatus.Requirements[0].LastChecked, "sentinel date renders empty")

	_, byModule, err := svc.ListRequirements(ctx, nil, ListRequirementsInput{ModuleID: "SYS.1.1"})
	require.NoError(t, err)
	assert.Equal(t, 2, byModule.Total)

	_, byISMS, err := svc.ListRequirements(ctx, nil, ListRequirementsInput{ModuleID: "ISMS.1"})
	require.NoError(t, err)
	assert.Equal(t, 1, byISMS.Total)
}

func TestGetRequirement(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, out, err := svc.GetRequirement(ctx, nil, GetRequirementInput{
		ControlID:  "SYS.1.1.A1",
		TargetCode: "SRV01",
	})
	require.NoError(t, err)
	assert.Equal(t, "Fileserver", out.TargetName)
	assert.Equal(t, "Ja", out.Status)
	assert.Equal(t, "2024-03-12", out.LastChecked)
}

func TestGetRequirementUniqueControlNeedsNoTarget(t *testing.T) {
	svc := newTestService(t)

	_, out, err := svc.GetRequirement(context.Background(), nil, GetRequirementInput{
		ControlID: "ISMS.1.A3",
	})
	require.NoError(t, err)
	assert.Equal(t, "Informationsverbund", out.TargetCode)
	assert.Equal(t, "teilweise", out.Status)
}

func TestGetRequirementAmbiguousWithoutTarget(t *testing.T) {
	svc := newTestService(t)

	_, _, err := svc.GetRequirement(context.Background(), nil, GetRequirementInput{
		ControlID: "SYS.1.1.A1",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "targetCode")
}

func TestGetRequirementNotFound(t *testing.T) {
	svc := newTestService(t)

	_, _, err := svc.GetRequirement(context.Background(), nil, GetRequirementInput{
		ControlID: "NET.1.1.A1",
	})
	require.Error(t, err)
}

func TestRunIDRequiredWithSeveralRuns(t *testing.T) {
	blobs := store.NewMemStore()
	t.Cleanup(func() { blobs.Close() })
	seedRun(t, blobs, "r1")
	seedRun(t, blobs, "r2")
	svc := NewAuditService(blobs)

	_, _, err := svc.ListRequirements(context.Background(), nil, ListRequirementsInput{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pass runId")

	_, out, err := svc.ListRequirements(context.Background(), nil, ListRequirementsInput{RunID: "r2"})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Total)
}

func TestNewAuditMCPServer(t *testing.T) {
	blobs := store.NewMemStore()
	t.Cleanup(func() { blobs.Close() })

	server := NewAuditMCPServer(blobs)
	require.NotNil(t, server)
}
