// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"strings"
	"testing"
)

func TestStateValid(t *testing.T) {
	for _, s := range AllStates {
		if !s.Valid() {
			t.Errorf("state %s should be valid", s)
		}
	}
	if State("md_bogus").Valid() {
		t.Error("unknown state should not be valid")
	}
}

func TestStateAtLeast(t *testing.T) {
	tests := []struct {
		state State
		min   State
		want  bool
	}{
		{StateImported, StateRetrieved, true},
		{StateImported, StateImported, true},
		{StateImported, StatePrepared, false},
		{StateProcessed, StateImported, true},
		{StatePrescreenExcluded, StateProcessed, true},
		// Exclusion states rank with their inclusion counterparts.
		{StatePrescreenExcluded, StatePrescreenIncluded, true},
		{StateExcluded, StateIncluded, true},
		{StateSynthesized, StateIncluded, true},
		{StatePDFImported, StatePrescreenIncluded, true},
		{StatePrepared, StateProcessed, false},
	}
	for _, tt := range tests {
		if got := tt.state.AtLeast(tt.min); got != tt.want {
			t.Errorf("%s.AtLeast(%s) = %v, want %v", tt.state, tt.min, got, tt.want)
		}
	}
}

func TestCheckPrecondition(t *testing.T) {
	tests := []struct {
		name    string
		op      Operation
		status  State
		wantErr string
	}{
		{"prep accepts imported", OpPrep, StateImported, ""},
		{"prep accepts prepared", OpPrep, StatePrepared, ""},
		{"prep rejects retrieved", OpPrep, StateRetrieved, "has not reached md_imported"},
		{"dedupe rejects imported", OpDedupe, StateImported, "has not reached md_prepared"},
		{"prescreen accepts processed", OpPrescreen, StateProcessed, ""},
		{"pdfs rejects processed", OpPDFGet, StateProcessed, "has not reached rev_prescreen_included"},
		{"screen accepts pdf imported", OpScreen, StatePDFImported, ""},
		{"sync accepts included", OpSync, StateIncluded, ""},
		{"pdfs skips prescreen excluded", OpPDFGet, StatePrescreenExcluded, ""},
		{"screen skips manual pdf retrieval", OpScreen, StatePDFNeedsManualRetrieval, ""},
		{"sync skips excluded", OpSync, StateExcluded, ""},
		{"invalid state", OpPrep, State("nonsense"), "invalid state"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Record{ID: "smith2020", Status: tt.status}
			err := CheckPrecondition(tt.op, r)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestCheckPreconditionUnknownOperation(t *testing.T) {
	err := CheckPrecondition(Operation("frobnicate"), &Record{ID: "x", Status: StateImported})
	if err == nil || !strings.Contains(err.Error(), "unknown operation") {
		t.Errorf("expected unknown-operation error, got %v", err)
	}
}
