// Copyright (C) 2026 LexForge AI (oss@lexforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package rollback

// Statistics aggregates a batch of rollback analyses.
//
// # Description
//
// All counts and averages are well-defined zeros for an empty input; there
// is no division by zero.
type Statistics struct {
	Total                  int                `json:"total"`
	Feasible               int                `json:"feasible"`
	Infeasible             int                `json:"infeasible"`
	ByComplexity           map[Complexity]int `json:"by_complexity"`
	ByRisk                 map[RiskLevel]int  `json:"by_risk"`
	AverageRecommendations float64            `json:"average_recommendations"`
}

// ComputeStatistics aggregates feasibility counts, complexity and risk
// histograms, and the mean recommendation count over a batch of analyses.
func ComputeStatistics(analyses []Analysis) Statistics {
	stats := Statistics{
		Total:        len(analyses),
		ByComplexity: make(map[Complexity]int),
		ByRisk:       make(map[RiskLevel]int),
	}

	recommendations := 0
	for _, a := range analyses {
		if a.IsFeasible {
			stats.Feasible++
		} else {
			stats.Infeasible++
		}
		stats.ByComplexity[a.Complexity]++
		stats.ByRisk[a.RiskLevel]++
		recommendations += len(a.Recommendations)
	}

	if stats.Total > 0 {
		stats.AverageRecommendations = float64(recommendations) / float64(stats.Total)
	}
	return stats
}
