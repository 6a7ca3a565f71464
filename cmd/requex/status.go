package main

import (
	"context"
	"fmt"

	"github.com/auditkraft/requex/internal/audit"
	"github.com/auditkraft/requex/internal/config"
)

func runStatus(cfg *config.Config, args []string) error {
	blobs, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer blobs.Close()

	ctx := context.Background()

	if len(args) > 0 {
		status, err := audit.ScanRun(ctx, blobs, args[0])
		if err != nil {
			return err
		}
		printRunStatus(status)
		return nil
	}

	statuses, err := audit.ListRuns(ctx, blobs)
	if err != nil {
		return err
	}

	if len(statuses) == 0 {
		fmt.Println("No audit runs found.")
		fmt.Println("Run 'requex run <document.pdf>' to start one.")
		return nil
	}

	for i, status := range statuses {
		if i > 0 {
			fmt.Println()
		}
		printRunStatus(status)
	}
	return nil
}

func printRunStatus(status audit.RunStatus) {
	fmt.Printf("Run: %s\n", status.RunID)

	for _, si := range status.Stages {
		marker := "  "
		label := "pending"
		if si.Complete {
			label = "complete"
		}
		if si.Stage == status.NextStage {
			marker = "->"
			label = "next"
		}

		fmt.Printf("  %s Stage %d: %-12s [%s]\n", marker, si.Stage, si.Name, label)
	}

	if status.NextStage == -1 {
		fmt.Println("  All stages complete.")
	}
}
