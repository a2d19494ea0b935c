// Copyright (C) 2026 LexForge AI (oss@lexforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes defines the request and response bodies of the
// revisiond HTTP API, with go-playground/validator rules attached.
package datatypes

import (
	"github.com/go-playground/validator/v10"

	"github.com/LexForgeAI/LexForge/pkg/validation"
	"github.com/LexForgeAI/LexForge/services/revision/collab"
	"github.com/LexForgeAI/LexForge/services/revision/diff"
	"github.com/LexForgeAI/LexForge/services/revision/statute"
)

// MaxExprBytes caps a single precondition expression. Large payloads are
// rejected before they reach the differ.
const MaxExprBytes = 16 * 1024

// MaxPreconditions caps the precondition list length per statute.
const MaxPreconditions = 256

// =============================================================================
// Shared Validator Instance
// =============================================================================

// revisionValidate is the validator instance for revision datatypes.
// Initialized in init() with custom validators.
var revisionValidate *validator.Validate

func init() {
	revisionValidate = validator.New()
	_ = revisionValidate.RegisterValidation("maxbytes", validateMaxBytes)
	_ = revisionValidate.RegisterValidation("changetype", validateChangeType)
	_ = revisionValidate.RegisterValidation("strategy", validateStrategy)
	_ = revisionValidate.RegisterValidation("identifier", validateIdentifier)
}

// validateIdentifier rejects IDs that could not safely appear in topic
// names, URL paths, or log lines.
func validateIdentifier(fl validator.FieldLevel) bool {
	return validation.IsValidIdentifier(fl.Field().String())
}

// validateMaxBytes checks byte length, not rune count, so multi-byte text
// cannot slip past the cap.
func validateMaxBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxExprBytes
}

func validateChangeType(fl validator.FieldLevel) bool {
	switch diff.ChangeType(fl.Field().String()) {
	case diff.ChangeAdded, diff.ChangeRemoved, diff.ChangeModified, diff.ChangeReordered:
		return true
	}
	return false
}

func validateStrategy(fl validator.FieldLevel) bool {
	switch collab.ResolutionStrategy(fl.Field().String()) {
	case collab.ResolveUseFirst, collab.ResolveUseSecond, collab.ResolveMerge, collab.ResolveCustom:
		return true
	}
	return false
}

// =============================================================================
// Statute Payloads
// =============================================================================

// PreconditionPayload is one keyed condition in a statute payload.
type PreconditionPayload struct {
	Key  string `json:"key" validate:"required,max=128"`
	Expr string `json:"expr" validate:"required,maxbytes"`
}

// StatutePayload is the wire form of a statute snapshot.
type StatutePayload struct {
	ID              string                `json:"id" validate:"required,identifier"`
	Title           string                `json:"title" validate:"required,max=512"`
	Preconditions   []PreconditionPayload `json:"preconditions" validate:"max=256,dive"`
	EffectType      string                `json:"effect_type" validate:"required,max=128"`
	EffectDesc      string                `json:"effect_description" validate:"max=4096"`
	DiscretionLogic *string               `json:"discretion_logic,omitempty" validate:"omitempty,maxbytes"`
	Metadata        map[string]string     `json:"metadata,omitempty"`
	Version         string                `json:"version,omitempty" validate:"max=64"`
}

// ToStatute converts the payload to the engine's statute type.
func (p *StatutePayload) ToStatute() statute.Statute {
	s := statute.Statute{
		ID:              p.ID,
		Title:           p.Title,
		Effect:          statute.Effect{Type: p.EffectType, Description: p.EffectDesc},
		DiscretionLogic: p.DiscretionLogic,
		Metadata:        p.Metadata,
		Version:         p.Version,
	}
	for _, pc := range p.Preconditions {
		s.Preconditions = append(s.Preconditions, statute.Precondition{Key: pc.Key, Expr: pc.Expr})
	}
	return s
}

// =============================================================================
// Diff / Rollback Requests
// =============================================================================

// DiffRequest asks for the structured diff between two snapshots of one
// statute.
type DiffRequest struct {
	Old StatutePayload `json:"old" validate:"required"`
	New StatutePayload `json:"new" validate:"required"`
}

// Validate validates the DiffRequest fields.
func (r *DiffRequest) Validate() error {
	return revisionValidate.Struct(r)
}

// RollbackRequest carries a previously computed diff to invert or analyze.
type RollbackRequest struct {
	Diff diff.StatuteDiff `json:"diff" validate:"required"`
}

// Validate validates the RollbackRequest fields.
func (r *RollbackRequest) Validate() error {
	return revisionValidate.Struct(r)
}

// ChainRequest carries an ordered sequence of diffs whose combined rollback
// is wanted.
type ChainRequest struct {
	Diffs []diff.StatuteDiff `json:"diffs" validate:"required,min=1,max=256"`
}

// Validate validates the ChainRequest fields.
func (r *ChainRequest) Validate() error {
	return revisionValidate.Struct(r)
}

// BatchAnalysisRequest carries diffs for parallel feasibility analysis and
// aggregate statistics.
type BatchAnalysisRequest struct {
	Diffs []diff.StatuteDiff `json:"diffs" validate:"required,min=1,max=1024"`
}

// Validate validates the BatchAnalysisRequest fields.
func (r *BatchAnalysisRequest) Validate() error {
	return revisionValidate.Struct(r)
}

// =============================================================================
// Session Requests
// =============================================================================

// CreateSessionRequest opens a collaborative session on a statute.
type CreateSessionRequest struct {
	StatuteID string `json:"statute_id" validate:"required,identifier"`
}

// Validate validates the CreateSessionRequest fields.
func (r *CreateSessionRequest) Validate() error {
	return revisionValidate.Struct(r)
}

// UserRequest identifies the acting user for join/leave operations.
type UserRequest struct {
	UserID string `json:"user_id" validate:"required,identifier"`
}

// Validate validates the UserRequest fields.
func (r *UserRequest) Validate() error {
	return revisionValidate.Struct(r)
}

// ChangePayload is the wire form of one field-level change.
type ChangePayload struct {
	Type        string  `json:"change_type" validate:"required,changetype"`
	TargetKind  string  `json:"target_kind" validate:"required,oneof=title precondition effect discretion_logic metadata"`
	TargetIndex int     `json:"target_index,omitempty" validate:"gte=0"`
	TargetKey   string  `json:"target_key,omitempty" validate:"max=128"`
	Description string  `json:"description,omitempty" validate:"max=1024"`
	OldValue    *string `json:"old_value,omitempty" validate:"omitempty,maxbytes"`
	NewValue    *string `json:"new_value,omitempty" validate:"omitempty,maxbytes"`
}

// ToChange converts the payload to the engine's change type.
func (p *ChangePayload) ToChange() diff.Change {
	return diff.Change{
		Type: diff.ChangeType(p.Type),
		Target: diff.Target{
			Kind:  diff.TargetKind(p.TargetKind),
			Index: p.TargetIndex,
			Key:   p.TargetKey,
		},
		Description: p.Description,
		OldValue:    p.OldValue,
		NewValue:    p.NewValue,
	}
}

// SubmitChangeRequest records one change in a session.
type SubmitChangeRequest struct {
	UserID string        `json:"user_id" validate:"required,identifier"`
	Change ChangePayload `json:"change" validate:"required"`
}

// Validate validates the SubmitChangeRequest fields.
func (r *SubmitChangeRequest) Validate() error {
	return revisionValidate.Struct(r)
}

// ResolveConflictRequest settles a recorded conflict.
//
// MergedChange is required when Strategy is "custom".
type ResolveConflictRequest struct {
	UpdateID     string         `json:"update_id" validate:"required"`
	Strategy     string         `json:"strategy" validate:"required,strategy"`
	MergedChange *ChangePayload `json:"merged_change,omitempty"`
}

// Validate validates the ResolveConflictRequest fields.
func (r *ResolveConflictRequest) Validate() error {
	return revisionValidate.Struct(r)
}

// ToResolution converts the request to the engine's resolution type.
func (r *ResolveConflictRequest) ToResolution() collab.Resolution {
	res := collab.Resolution{Strategy: collab.ResolutionStrategy(r.Strategy)}
	if r.MergedChange != nil {
		c := r.MergedChange.ToChange()
		res.MergedChange = &c
	}
	return res
}

// =============================================================================
// Streaming Requests
// =============================================================================

// StreamDiffRequest asks for a diff delivered as an incremental update
// sequence over SSE.
type StreamDiffRequest struct {
	Baseline  StatutePayload `json:"baseline" validate:"required"`
	Target    StatutePayload `json:"target" validate:"required"`
	BatchSize int            `json:"batch_size,omitempty" validate:"gte=0,lte=1000"`
}

// Validate validates the StreamDiffRequest fields.
func (r *StreamDiffRequest) Validate() error {
	return revisionValidate.Struct(r)
}
