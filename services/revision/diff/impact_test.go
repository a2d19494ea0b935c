// Copyright (C) 2026 LexForge AI (oss@lexforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package diff

import "testing"

func change(kind TargetKind, ct ChangeType) Change {
	c := Change{Type: ct, Target: Target{Kind: kind}}
	v := "x"
	switch ct {
	case ChangeAdded:
		c.NewValue = &v
	case ChangeRemoved:
		c.OldValue = &v
	default:
		c.OldValue, c.NewValue = &v, &v
	}
	return c
}

func TestClassifyImpact_Ladder(t *testing.T) {
	policy := DefaultImpactPolicy()

	cases := []struct {
		name    string
		changes []Change
		want    Severity
	}{
		{name: "empty", changes: nil, want: SeverityNone},
		{name: "title only", changes: []Change{change(TargetTitle, ChangeModified)}, want: SeverityMinor},
		{name: "metadata only", changes: []Change{change(TargetMetadata, ChangeAdded)}, want: SeverityMinor},
		{name: "precondition reorder", changes: []Change{change(TargetPrecondition, ChangeReordered)}, want: SeverityMinor},
		{name: "precondition added", changes: []Change{change(TargetPrecondition, ChangeAdded)}, want: SeverityModerate},
		{name: "precondition removed", changes: []Change{change(TargetPrecondition, ChangeRemoved)}, want: SeverityModerate},
		{name: "effect", changes: []Change{change(TargetEffect, ChangeModified)}, want: SeverityMajor},
		{name: "discretion", changes: []Change{change(TargetDiscretion, ChangeModified)}, want: SeverityMajor},
		{
			name: "effect plus discretion escalates to breaking",
			changes: []Change{
				change(TargetEffect, ChangeModified),
				change(TargetDiscretion, ChangeModified),
			},
			want: SeverityBreaking,
		},
		{
			name: "three moderate changes escalate to breaking",
			changes: []Change{
				change(TargetPrecondition, ChangeAdded),
				change(TargetPrecondition, ChangeRemoved),
				change(TargetPrecondition, ChangeModified),
			},
			want: SeverityBreaking,
		},
		{
			name: "two moderate changes stay moderate",
			changes: []Change{
				change(TargetPrecondition, ChangeAdded),
				change(TargetPrecondition, ChangeModified),
			},
			want: SeverityModerate,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ClassifyImpact(tc.changes, policy)
			if got.Severity != tc.want {
				t.Errorf("severity = %v, want %v", got.Severity, tc.want)
			}
		})
	}
}

func TestClassifyImpact_Flags(t *testing.T) {
	got := ClassifyImpact([]Change{
		change(TargetPrecondition, ChangeAdded),
		change(TargetEffect, ChangeModified),
	}, DefaultImpactPolicy())

	if !got.AffectsEligibility {
		t.Errorf("AffectsEligibility = false, want true")
	}
	if !got.AffectsOutcome {
		t.Errorf("AffectsOutcome = false, want true")
	}
	if got.DiscretionChanged {
		t.Errorf("DiscretionChanged = true, want false")
	}
}

func TestClassifyImpact_TunableThreshold(t *testing.T) {
	changes := []Change{
		change(TargetPrecondition, ChangeAdded),
		change(TargetPrecondition, ChangeModified),
	}

	strict := ClassifyImpact(changes, ImpactPolicy{BreakingChangeThreshold: 2})
	if strict.Severity != SeverityBreaking {
		t.Errorf("threshold 2 severity = %v, want breaking", strict.Severity)
	}

	lax := ClassifyImpact(changes, ImpactPolicy{BreakingChangeThreshold: 5})
	if lax.Severity != SeverityModerate {
		t.Errorf("threshold 5 severity = %v, want moderate", lax.Severity)
	}
}

func TestSeverity_Ordering(t *testing.T) {
	ordered := []Severity{SeverityNone, SeverityMinor, SeverityModerate, SeverityMajor, SeverityBreaking}
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1] >= ordered[i] {
			t.Errorf("%v should sort below %v", ordered[i-1], ordered[i])
		}
	}
}

func TestSeverity_JSONRoundTrip(t *testing.T) {
	for s := SeverityNone; s <= SeverityBreaking; s++ {
		data, err := s.MarshalJSON()
		if err != nil {
			t.Fatalf("MarshalJSON(%v) error = %v", s, err)
		}
		var back Severity
		if err := back.UnmarshalJSON(data); err != nil {
			t.Fatalf("UnmarshalJSON(%s) error = %v", data, err)
		}
		if back != s {
			t.Errorf("round trip of %v produced %v", s, back)
		}
	}
}
