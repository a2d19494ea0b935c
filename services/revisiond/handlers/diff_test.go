// Copyright (C) 2026 LexForge AI (oss@lexforge.ai)
// Tests for the diff and rollback handlers

package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LexForgeAI/LexForge/services/revision/diff"
	"github.com/LexForgeAI/LexForge/services/revision/rollback"
	"github.com/LexForgeAI/LexForge/services/revisiond/datatypes"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testDiffer() *diff.Differ {
	return diff.NewDiffer(diff.DefaultImpactPolicy())
}

func statutePayload(title, version string) datatypes.StatutePayload {
	return datatypes.StatutePayload{
		ID:    "statute-1",
		Title: title,
		Preconditions: []datatypes.PreconditionPayload{
			{Key: "age", Expr: "age >= 18"},
		},
		EffectType: "grant",
		EffectDesc: "monthly benefit",
		Version:    version,
	}
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

// =============================================================================
// Diff Handler Tests
// =============================================================================

func TestHandleComputeDiff_Success(t *testing.T) {
	router := gin.New()
	router.POST("/v1/diff", HandleComputeDiff(testDiffer()))

	w := postJSON(t, router, "/v1/diff", datatypes.DiffRequest{
		Old: statutePayload("Benefit Eligibility", "1"),
		New: statutePayload("Benefit Eligibility (Amended)", "2"),
	})

	require.Equal(t, http.StatusOK, w.Code)

	var d diff.StatuteDiff
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	assert.Equal(t, "statute-1", d.StatuteID)
	require.Len(t, d.Changes, 1)
	assert.Equal(t, diff.ChangeModified, d.Changes[0].Type)
	assert.Equal(t, diff.TargetTitle, d.Changes[0].Target.Kind)
	require.NotNil(t, d.VersionInfo)
	assert.Equal(t, "1", d.VersionInfo.OldVersion)
	assert.Equal(t, "2", d.VersionInfo.NewVersion)
}

func TestHandleComputeDiff_IDMismatch(t *testing.T) {
	router := gin.New()
	router.POST("/v1/diff", HandleComputeDiff(testDiffer()))

	other := statutePayload("Other", "1")
	other.ID = "statute-2"
	w := postJSON(t, router, "/v1/diff", datatypes.DiffRequest{
		Old: statutePayload("Benefit Eligibility", "1"),
		New: other,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "statute ids differ")
}

func TestHandleComputeDiff_InvalidBody(t *testing.T) {
	router := gin.New()
	router.POST("/v1/diff", HandleComputeDiff(testDiffer()))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/diff", bytes.NewReader([]byte("{not json")))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleComputeDiff_MissingRequiredFields(t *testing.T) {
	router := gin.New()
	router.POST("/v1/diff", HandleComputeDiff(testDiffer()))

	// Payloads without id or title fail validation.
	w := postJSON(t, router, "/v1/diff", datatypes.DiffRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// =============================================================================
// Rollback Handler Tests
// =============================================================================

func computedDiff(t *testing.T) diff.StatuteDiff {
	t.Helper()
	before := statutePayload("Benefit Eligibility", "1")
	after := statutePayload("Benefit Eligibility (Amended)", "2")
	d, err := testDiffer().Compute(before.ToStatute(), after.ToStatute())
	require.NoError(t, err)
	return d
}

func TestHandleRollbackPlan_InvertsChanges(t *testing.T) {
	router := gin.New()
	router.POST("/v1/rollback/plan", HandleRollbackPlan(rollback.NewPlanner()))

	forward := computedDiff(t)
	w := postJSON(t, router, "/v1/rollback/plan", datatypes.RollbackRequest{Diff: forward})

	require.Equal(t, http.StatusOK, w.Code)

	var plan diff.StatuteDiff
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plan))
	require.Len(t, plan.Changes, 1)
	assert.Equal(t, forward.Changes[0].NewValue, plan.Changes[0].OldValue)
	assert.Equal(t, forward.Changes[0].OldValue, plan.Changes[0].NewValue)
	require.NotNil(t, plan.VersionInfo)
	assert.Equal(t, "2", plan.VersionInfo.OldVersion)
	assert.Equal(t, "1", plan.VersionInfo.NewVersion)
}

func TestHandleRollbackAnalysis_ReturnsAnalysis(t *testing.T) {
	router := gin.New()
	router.POST("/v1/rollback/analyze", HandleRollbackAnalysis(rollback.NewPlanner()))

	w := postJSON(t, router, "/v1/rollback/analyze", datatypes.RollbackRequest{Diff: computedDiff(t)})

	require.Equal(t, http.StatusOK, w.Code)

	var analysis rollback.Analysis
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &analysis))
	assert.True(t, analysis.IsFeasible)
	assert.NotEmpty(t, analysis.Complexity)
	assert.NotEmpty(t, analysis.RiskLevel)
}

func TestHandleRollbackChain_ReversesOrder(t *testing.T) {
	router := gin.New()
	router.POST("/v1/rollback/chain", HandleRollbackChain(rollback.NewPlanner()))

	first := computedDiff(t)
	amended := statutePayload("Benefit Eligibility (Amended)", "2")
	final := statutePayload("Benefit Eligibility (Final)", "3")
	second, err := testDiffer().Compute(amended.ToStatute(), final.ToStatute())
	require.NoError(t, err)

	w := postJSON(t, router, "/v1/rollback/chain", datatypes.ChainRequest{
		Diffs: []diff.StatuteDiff{first, second},
	})

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Rollbacks []diff.StatuteDiff `json:"rollbacks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Rollbacks, 2)
	// Last diff is unwound first.
	assert.Equal(t, "3", resp.Rollbacks[0].VersionInfo.OldVersion)
	assert.Equal(t, "1", resp.Rollbacks[1].VersionInfo.NewVersion)
}

func TestHandleRollbackChain_EmptyRejected(t *testing.T) {
	router := gin.New()
	router.POST("/v1/rollback/chain", HandleRollbackChain(rollback.NewPlanner()))

	w := postJSON(t, router, "/v1/rollback/chain", datatypes.ChainRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleRollbackStats_Aggregates(t *testing.T) {
	router := gin.New()
	router.POST("/v1/rollback/stats", HandleRollbackStats(rollback.NewPlanner()))

	w := postJSON(t, router, "/v1/rollback/stats", datatypes.BatchAnalysisRequest{
		Diffs: []diff.StatuteDiff{computedDiff(t), computedDiff(t)},
	})

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Analyses   []rollback.Analysis `json:"analyses"`
		Statistics rollback.Statistics `json:"statistics"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Analyses, 2)
	assert.Equal(t, 2, resp.Statistics.Total)
	assert.Equal(t, 2, resp.Statistics.Feasible)
}
