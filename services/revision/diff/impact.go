// Copyright (C) 2026 LexForge AI (oss@lexforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package diff

// DefaultBreakingChangeThreshold is the default number of moderate-or-above
// changes that escalates a diff to Breaking.
const DefaultBreakingChangeThreshold = 3

// ImpactPolicy holds the tunable knobs of impact classification.
//
// # Description
//
// The escalation ladder itself is fixed; the policy only tunes thresholds.
// Loaded from configuration so operators can tighten or relax the Breaking
// escalation without a rebuild.
type ImpactPolicy struct {
	// BreakingChangeThreshold is the number of changes individually rated
	// Moderate or above that escalates the whole diff to Breaking.
	BreakingChangeThreshold int `yaml:"breaking_change_threshold" json:"breaking_change_threshold"`
}

// DefaultImpactPolicy returns the policy used when no configuration is
// provided.
func DefaultImpactPolicy() ImpactPolicy {
	return ImpactPolicy{BreakingChangeThreshold: DefaultBreakingChangeThreshold}
}

// normalized returns the policy with zero values replaced by defaults.
func (p ImpactPolicy) normalized() ImpactPolicy {
	if p.BreakingChangeThreshold <= 0 {
		p.BreakingChangeThreshold = DefaultBreakingChangeThreshold
	}
	return p
}

// ClassifyImpact derives the impact classification for a change set.
//
// # Description
//
// Per-change severity: an Effect or DiscretionLogic change rates Major; a
// precondition Added/Removed/Modified rates Moderate; title, metadata and
// precondition reorders rate Minor. The overall severity is the maximum of
// the per-change ratings, escalated to Breaking when both the effect and
// the discretion logic change, or when at least
// policy.BreakingChangeThreshold changes individually rate Moderate or
// above. An empty change set rates None.
//
// # Inputs
//
//   - changes: The change set, in diff order.
//   - policy: Tunable thresholds; zero fields fall back to defaults.
//
// # Outputs
//
//   - Impact: Severity plus the eligibility/outcome/discretion flags.
func ClassifyImpact(changes []Change, policy ImpactPolicy) Impact {
	policy = policy.normalized()

	var impact Impact
	if len(changes) == 0 {
		return impact
	}

	moderateOrAbove := 0
	for _, c := range changes {
		rating := rateChange(c)
		if rating > impact.Severity {
			impact.Severity = rating
		}
		if rating >= SeverityModerate {
			moderateOrAbove++
		}

		switch c.Target.Kind {
		case TargetPrecondition:
			impact.AffectsEligibility = true
		case TargetEffect:
			impact.AffectsOutcome = true
		case TargetDiscretion:
			impact.DiscretionChanged = true
		}
	}

	if impact.AffectsOutcome && impact.DiscretionChanged {
		impact.Severity = SeverityBreaking
	}
	if moderateOrAbove >= policy.BreakingChangeThreshold {
		impact.Severity = SeverityBreaking
	}
	return impact
}

// rateChange returns the severity of a single change in isolation.
func rateChange(c Change) Severity {
	switch c.Target.Kind {
	case TargetEffect, TargetDiscretion:
		return SeverityMajor
	case TargetPrecondition:
		if c.Type == ChangeReordered {
			return SeverityMinor
		}
		return SeverityModerate
	default:
		return SeverityMinor
	}
}
