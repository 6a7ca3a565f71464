package mcptools

// --- MCP tool types for the audit server mode (serve-mcp) ---
// These tools let an MCP client inspect audit runs and query the canonical
// requirement list without shelling out to the CLI.

// AuditStatusInput is the input for the audit_status MCP tool.
type AuditStatusInput struct {
	RunID string `json:"runId,omitempty" jsonschema:"audit run id (default: the only run in the store)"`
}

// RunSummary is a brief overview of one audit run.
type RunSummary struct {
	RunID           string `json:"runId"`
	CompletedStages []int  `json:"completedStages"`
	NextStage       int    `json:"nextStage"` // -1 if all complete
}

// AuditStatusOutput is the result of the audit_status MCP tool.
type AuditStatusOutput struct {
	Runs []RunSummary `json:"runs"`
}

// ListRequirementsInput is the input for the list_requirements MCP tool.
type ListRequirementsInput struct {
	RunID      string `json:"runId,omitempty" jsonschema:"audit run id (default: the only run in the store)"`
	TargetCode string `json:"targetCode,omitempty" jsonschema:"filter by target-object code"`
	Status     string `json:"status,omitempty" jsonschema:"filter by status (Ja, Nein, teilweise, entbehrlich, unbekannt)"`
	ModuleID   string `json:"moduleId,omitempty" jsonschema:"filter by module id prefix, e.g. SYS.1.1"`
}

// RequirementSummary is one canonical requirement in list output.
type RequirementSummary struct {
	ControlID   string `json:"controlId"`
	TargetCode  string `json:"targetCode"`
	Title       string `json:"title,omitempty"`
	Status      string `json:"status"`
	LastChecked string `json:"lastChecked,omitempty"`
}

// ListRequirementsOutput is the result of the list_requirements MCP tool.
type ListRequirementsOutput struct {
	RunID        string               `json:"runId"`
	Total        int                  `json:"total"`
	Requirements []RequirementSummary `json:"requirements"`
}

// GetRequirementInput is the input for the get_requirement MCP tool.
type GetRequirementInput struct {
	RunID      string `json:"runId,omitempty" jsonschema:"audit run id (default: the only run in the store)"`
	ControlID  string `json:"controlId" jsonschema:"control id, e.g. SYS.1.1.A1"`
	TargetCode string `json:"targetCode,omitempty" jsonschema:"target-object code; required when the control applies to several targets"`
}

// GetRequirementOutput is the result of the get_requirement MCP tool.
type GetRequirementOutput struct {
	ControlID   string `json:"controlId"`
	TargetCode  string `json:"targetCode"`
	TargetName  string `json:"targetName,omitempty"`
	Title       string `json:"title,omitempty"`
	Status      string `json:"status"`
	Explanation string `json:"explanation,omitempty"`
	LastChecked string `json:"lastChecked,omitempty"`
}
