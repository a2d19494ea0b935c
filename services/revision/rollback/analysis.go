// Copyright (C) 2026 LexForge AI (oss@lexforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package rollback

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/LexForgeAI/LexForge/services/revision/diff"
)

// =============================================================================
// Analysis Types
// =============================================================================

// Complexity grades how involved a rollback operation is.
type Complexity string

const (
	// ComplexityTrivial indicates an empty diff.
	ComplexityTrivial Complexity = "trivial"

	// ComplexitySimple indicates one or two non-breaking changes.
	ComplexitySimple Complexity = "simple"

	// ComplexityModerate indicates a handful of changes, or few but breaking.
	ComplexityModerate Complexity = "moderate"

	// ComplexityComplex indicates several breaking changes.
	ComplexityComplex Complexity = "complex"

	// ComplexityVeryComplex indicates a large change set.
	ComplexityVeryComplex Complexity = "very_complex"
)

// RiskLevel grades the operational risk of performing a rollback.
type RiskLevel string

const (
	// RiskLow indicates no issues were found.
	RiskLow RiskLevel = "low"

	// RiskMedium indicates issues exist or the change set is breaking.
	RiskMedium RiskLevel = "medium"

	// RiskHigh indicates at least one Major-or-above issue.
	RiskHigh RiskLevel = "high"

	// RiskCritical is reserved for externally-supplied assessments; the
	// built-in checks never emit it.
	RiskCritical RiskLevel = "critical"
)

// IssueKind categorizes rollback issues.
type IssueKind string

const (
	// IssueIrreversibleChange flags an effect change whose downstream
	// decisions cannot be mechanically undone.
	IssueIrreversibleChange IssueKind = "irreversible_change"

	// IssueStateInconsistency flags removed preconditions that may have
	// admitted entities which would now be re-evaluated.
	IssueStateInconsistency IssueKind = "state_inconsistency"

	// IssueMissingInformation flags a rollback that cannot be synthesized
	// from the diff alone. Reserved for extension: no built-in check emits
	// it today, so built-in analyses are always feasible. Preserve that
	// behavior when adding checks.
	IssueMissingInformation IssueKind = "missing_information"
)

// Issue is one problem found during rollback analysis.
type Issue struct {
	Kind            IssueKind     `json:"issue_type"`
	Description     string        `json:"description"`
	Severity        diff.Severity `json:"severity"`
	AffectedTargets []diff.Target `json:"affected_targets,omitempty"`
}

// Analysis is the feasibility and risk report for rolling back one diff.
type Analysis struct {
	IsFeasible      bool       `json:"is_feasible"`
	Complexity      Complexity `json:"complexity"`
	Issues          []Issue    `json:"issues"`
	Recommendations []string   `json:"recommendations"`
	RiskLevel       RiskLevel  `json:"risk_level"`
}

// =============================================================================
// Analysis
// =============================================================================

// Analyze produces the rollback risk report for a forward diff.
//
// # Description
//
// Checks, in order:
//   - An effect change raises an IrreversibleChange issue (Major): decisions
//     already made under the new effect need review.
//   - A removed precondition raises a StateInconsistency issue (Moderate):
//     currently-eligible entities must be re-checked.
//
// Complexity is a function of change count and whether the impact is Major
// or above: 0 changes is Trivial; 1-2 is Simple (Moderate when breaking);
// 3-5 is Moderate (Complex when breaking); 6+ is VeryComplex. Risk is High
// when any issue rates Major or above, Medium when the diff is breaking or
// any issue exists, Low otherwise. Feasibility is false only when a
// MissingInformation issue exists, which no built-in check emits.
func (p *Planner) Analyze(ctx context.Context, d diff.StatuteDiff) Analysis {
	ctx, span := rollbackTracer.Start(ctx, "rollback.Analyze")
	defer span.End()
	_ = ctx

	analysis := Analysis{
		IsFeasible:      true,
		Issues:          []Issue{},
		Recommendations: []string{},
	}

	breaking := d.Impact.Severity >= diff.SeverityMajor

	if targets := targetsOfKind(d, diff.TargetEffect); len(targets) > 0 {
		analysis.Issues = append(analysis.Issues, Issue{
			Kind:            IssueIrreversibleChange,
			Description:     "effect changed; review decisions already made under the new effect",
			Severity:        diff.SeverityMajor,
			AffectedTargets: targets,
		})
		analysis.Recommendations = append(analysis.Recommendations,
			"audit decisions issued under the new effect before rolling back")
	}

	if targets := removedPreconditionTargets(d); len(targets) > 0 {
		analysis.Issues = append(analysis.Issues, Issue{
			Kind:            IssueStateInconsistency,
			Description:     "preconditions were removed; check currently-eligible entities",
			Severity:        diff.SeverityModerate,
			AffectedTargets: targets,
		})
		analysis.Recommendations = append(analysis.Recommendations,
			"re-evaluate entities admitted while the removed preconditions were absent")
	}

	if breaking {
		analysis.Recommendations = append(analysis.Recommendations,
			"schedule the rollback inside a maintenance window; the change set is breaking")
	}
	if d.Impact.AffectsEligibility {
		analysis.Recommendations = append(analysis.Recommendations,
			"notify case workers that eligibility rules revert")
	}
	if d.Impact.DiscretionChanged {
		analysis.Recommendations = append(analysis.Recommendations,
			"review pending discretionary decisions before reverting discretion logic")
	}

	analysis.Complexity = gradeComplexity(len(d.Changes), breaking)
	analysis.RiskLevel = gradeRisk(analysis.Issues, breaking)
	for _, issue := range analysis.Issues {
		if issue.Kind == IssueMissingInformation {
			analysis.IsFeasible = false
		}
	}

	span.SetAttributes(
		attribute.String("statute_id", d.StatuteID),
		attribute.String("complexity", string(analysis.Complexity)),
		attribute.String("risk_level", string(analysis.RiskLevel)),
		attribute.Int("issue_count", len(analysis.Issues)),
	)
	return analysis
}

func gradeComplexity(changeCount int, breaking bool) Complexity {
	switch {
	case changeCount == 0:
		return ComplexityTrivial
	case changeCount <= 2:
		if breaking {
			return ComplexityModerate
		}
		return ComplexitySimple
	case changeCount <= 5:
		if breaking {
			return ComplexityComplex
		}
		return ComplexityModerate
	default:
		return ComplexityVeryComplex
	}
}

func gradeRisk(issues []Issue, breaking bool) RiskLevel {
	for _, issue := range issues {
		if issue.Severity >= diff.SeverityMajor {
			return RiskHigh
		}
	}
	if breaking || len(issues) > 0 {
		return RiskMedium
	}
	return RiskLow
}

func targetsOfKind(d diff.StatuteDiff, kind diff.TargetKind) []diff.Target {
	var targets []diff.Target
	for _, c := range d.Changes {
		if c.Target.Kind == kind {
			targets = append(targets, c.Target)
		}
	}
	return targets
}

func removedPreconditionTargets(d diff.StatuteDiff) []diff.Target {
	var targets []diff.Target
	for _, c := range d.Changes {
		if c.Target.Kind == diff.TargetPrecondition && c.Type == diff.ChangeRemoved {
			targets = append(targets, c.Target)
		}
	}
	return targets
}
