package mcptools

import (
	"context"

	"github.com/auditkraft/requex/internal/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewAuditMCPServer creates an MCP server with the 3 audit tools registered:
// audit_status, list_requirements, and get_requirement.
func NewAuditMCPServer(blobs store.Store) *mcp.Server {
	svc := NewAuditService(blobs)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "requex",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "audit_status",
		Description: "Get the status of audit runs: which pipeline stages are complete and what stage is next.",
	}, svc.AuditStatus)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_requirements",
		Description: "List canonical compliance requirements of a run, filtered by target object, status, or module.",
	}, svc.ListRequirements)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_requirement",
		Description: "Get one canonical requirement by control id and target-object code.",
	}, svc.GetRequirement)

	return server
}

// RunAuditMCPServerStdio runs the MCP server on stdio transport, blocking
// until stdin is closed or the context is cancelled.
func RunAuditMCPServerStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}
