// Copyright (C) 2026 LexForge AI (oss@lexforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/LexForgeAI/LexForge/services/revision/diff"
	"github.com/LexForgeAI/LexForge/services/revision/rollback"
	"github.com/LexForgeAI/LexForge/services/revision/statute"
)

// =============================================================================
// Command Runners
// =============================================================================

func runDiffCommand(cmd *cobra.Command, args []string) {
	oldDoc, err := readStatute(args[0])
	if err != nil {
		fail("reading old statute", err)
	}
	newDoc, err := readStatute(args[1])
	if err != nil {
		fail("reading new statute", err)
	}

	policy := diff.DefaultImpactPolicy()
	if breakingThreshold > 0 {
		policy.BreakingChangeThreshold = breakingThreshold
	}

	result, err := diff.NewDiffer(policy).Compute(oldDoc, newDoc)
	if err != nil {
		fail("computing diff", err)
	}
	logger.Info("diff computed",
		"statute_id", result.StatuteID,
		"changes", len(result.Changes),
		"severity", result.Impact.Severity)
	writeJSON(result)
}

func runRollbackPlan(cmd *cobra.Command, args []string) {
	d, err := readDiff(args[0])
	if err != nil {
		fail("reading diff", err)
	}
	writeJSON(rollback.NewPlanner().Generate(d))
}

func runRollbackAnalyze(cmd *cobra.Command, args []string) {
	d, err := readDiff(args[0])
	if err != nil {
		fail("reading diff", err)
	}

	analysis := rollback.NewPlanner().Analyze(context.Background(), d)
	logger.Info("rollback analyzed",
		"statute_id", d.StatuteID,
		"feasible", analysis.IsFeasible,
		"risk", analysis.RiskLevel)
	writeJSON(analysis)
}

func runRollbackChain(cmd *cobra.Command, args []string) {
	diffs, err := readDiffs(args)
	if err != nil {
		fail("reading diffs", err)
	}
	writeJSON(rollback.NewPlanner().GenerateChain(diffs))
}

func runRollbackStats(cmd *cobra.Command, args []string) {
	diffs, err := readDiffs(args)
	if err != nil {
		fail("reading diffs", err)
	}

	analyses := rollback.NewPlanner().AnalyzeBatch(context.Background(), diffs)
	writeJSON(map[string]any{
		"analyses":   analyses,
		"statistics": rollback.ComputeStatistics(analyses),
	})
}

// =============================================================================
// I/O Helpers
// =============================================================================

// readDocument reads a JSON document from a file, or from stdin when the
// path is "-".
func readDocument(path string, v any) error {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func readStatute(path string) (statute.Statute, error) {
	var s statute.Statute
	err := readDocument(path, &s)
	return s, err
}

func readDiff(path string) (diff.StatuteDiff, error) {
	var d diff.StatuteDiff
	err := readDocument(path, &d)
	return d, err
}

func readDiffs(paths []string) ([]diff.StatuteDiff, error) {
	diffs := make([]diff.StatuteDiff, 0, len(paths))
	for _, path := range paths {
		d, err := readDiff(path)
		if err != nil {
			return nil, err
		}
		diffs = append(diffs, d)
	}
	return diffs, nil
}

// writeJSON prints v to stdout, indented when attached to a terminal and
// compact when piped.
func writeJSON(v any) {
	var data []byte
	var err error
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		fail("encoding output", err)
	}
	fmt.Println(string(data))
}

func fail(action string, err error) {
	logger.Error(action+" failed", "error", err)
	os.Exit(1)
}
