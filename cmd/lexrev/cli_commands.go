// Copyright (C) 2026 LexForge AI (oss@lexforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "lexrev",
		Short: "A CLI for computing statute revision diffs and rollback plans",
		Long: `lexrev works offline on statute and diff documents stored as JSON.
It computes structured diffs between statute versions, classifies their
impact, and synthesizes rollback plans with risk analysis.

Pass "-" in place of any file argument to read that document from stdin.`,
	}

	// Persistent logging flags, wired in main.go's PersistentPreRun.
	logLevel string
	logDir   string
	quiet    bool

	diffCmd = &cobra.Command{
		Use:   "diff [old.json] [new.json]",
		Short: "Compute a structured diff between two statute versions",
		Long: `Reads two statute documents and prints the structured diff between
them, including per-change severity and the overall impact summary.
Both files must describe the same statute ID.`,
		Args: cobra.ExactArgs(2),
		Run:  runDiffCommand,
	}
	breakingThreshold int

	// Rollback commands
	rollbackCmd = &cobra.Command{
		Use:   "rollback",
		Short: "Synthesize and analyze rollback plans for statute diffs",
	}
	rollbackPlanCmd = &cobra.Command{
		Use:   "plan [diff.json]",
		Short: "Synthesize the inverse diff that undoes a revision",
		Args:  cobra.ExactArgs(1),
		Run:   runRollbackPlan,
	}
	rollbackAnalyzeCmd = &cobra.Command{
		Use:   "analyze [diff.json]",
		Short: "Assess the feasibility and risk of rolling back a revision",
		Args:  cobra.ExactArgs(1),
		Run:   runRollbackAnalyze,
	}
	rollbackChainCmd = &cobra.Command{
		Use:   "chain [diff.json...]",
		Short: "Synthesize a rollback chain for a sequence of revisions",
		Long: `Takes the diffs of a revision sequence in the order they were applied
and prints the rollback plans in the order they must be applied to
restore the original statute.`,
		Args: cobra.MinimumNArgs(1),
		Run:  runRollbackChain,
	}
	rollbackStatsCmd = &cobra.Command{
		Use:   "stats [diff.json...]",
		Short: "Aggregate rollback risk statistics across revisions",
		Args:  cobra.MinimumNArgs(1),
		Run:   runRollbackStats,
	}
)

// init() runs when the Go program starts
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "Also write logs to this directory")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress log output on stderr")

	rootCmd.AddCommand(diffCmd)
	diffCmd.Flags().IntVar(&breakingThreshold, "breaking-threshold", 0,
		"Number of moderate-or-worse changes that escalate a revision to breaking (0 uses the default)")

	// --- Rollback Commands ---
	rootCmd.AddCommand(rollbackCmd)
	rollbackCmd.AddCommand(rollbackPlanCmd)
	rollbackCmd.AddCommand(rollbackAnalyzeCmd)
	rollbackCmd.AddCommand(rollbackChainCmd)
	rollbackCmd.AddCommand(rollbackStatsCmd)
}
