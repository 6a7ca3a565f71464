package main

import (
	"context"

	"github.com/auditkraft/requex/internal/config"
	"github.com/auditkraft/requex/internal/mcptools"
)

// runServeMCP serves the audit tools over stdio until the client disconnects.
func runServeMCP(cfg *config.Config) error {
	blobs, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer blobs.Close()

	server := mcptools.NewAuditMCPServer(blobs)
	return mcptools.RunAuditMCPServerStdio(context.Background(), server)
}
