package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/auditkraft/requex/internal/audit"
	"github.com/auditkraft/requex/internal/config"
	"github.com/auditkraft/requex/internal/export"
	"github.com/auditkraft/requex/internal/reconcile"
	"github.com/auditkraft/requex/internal/store"
)

func runExport(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: requex export <run-id>")
	}
	runID := args[0]

	blobs, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer blobs.Close()

	ctx := context.Background()

	status, err := audit.ScanRun(ctx, blobs, runID)
	if err != nil {
		return err
	}

	stages := make([]export.StageExport, 0, len(status.Stages))
	for _, si := range status.Stages {
		state := "pending"
		if si.Complete {
			state = "complete"
		}
		stages = append(stages, export.StageExport{
			Stage:  si.Stage,
			Name:   si.Name,
			Status: state,
			Key:    si.Key,
		})
	}

	// The canonical list is only present once the reconcile stage has run;
	// an export before that still reports stage completion.
	var reqs []reconcile.Requirement
	key := path.Join("runs", runID, audit.StageReconcile.Artifact())
	if err := blobs.ReadJSON(ctx, key, &reqs); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("read canonical list: %w", err)
	}

	data := export.BuildRunExport(runID, stages, reqs)

	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	_, err = os.Stdout.Write(append(out, '\n'))
	return err
}
