// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// State is a record's position in the review workflow. Records only move
// forward; each operation requires its input records to have reached a
// minimum state.
type State string

const (
	// Metadata stages.
	StateRetrieved        State = "md_retrieved"
	StateImported         State = "md_imported"
	StateNeedsManualPrep  State = "md_needs_manual_preparation"
	StatePrepared         State = "md_prepared"
	StateProcessed        State = "md_processed"

	// Prescreen outcomes.
	StatePrescreenExcluded State = "rev_prescreen_excluded"
	StatePrescreenIncluded State = "rev_prescreen_included"

	// PDF stages.
	StatePDFNeedsManualRetrieval State = "pdf_needs_manual_retrieval"
	StatePDFImported             State = "pdf_imported"
	StatePDFNotAvailable         State = "pdf_not_available"
	StatePDFNeedsManualPrep      State = "pdf_needs_manual_preparation"
	StatePDFPrepared             State = "pdf_prepared"

	// Screen outcomes and synthesis.
	StateExcluded    State = "rev_excluded"
	StateIncluded    State = "rev_included"
	StateSynthesized State = "rev_synthesized"
)

// stateOrder assigns a workflow rank to every state. Exclusion states rank
// alongside their inclusion counterparts: both terminate the same stage.
var stateOrder = map[State]int{
	StateRetrieved:              0,
	StateImported:               1,
	StateNeedsManualPrep:        2,
	StatePrepared:               3,
	StateProcessed:              4,
	StatePrescreenExcluded:      5,
	StatePrescreenIncluded:      5,
	StatePDFNeedsManualRetrieval: 6,
	StatePDFImported:            6,
	StatePDFNotAvailable:        6,
	StatePDFNeedsManualPrep:     7,
	StatePDFPrepared:            8,
	StateExcluded:               9,
	StateIncluded:               9,
	StateSynthesized:            10,
}

// AllStates lists every state in workflow order. Used for stable iteration
// in reports.
var AllStates = []State{
	StateRetrieved, StateImported, StateNeedsManualPrep, StatePrepared,
	StateProcessed, StatePrescreenExcluded, StatePrescreenIncluded,
	StatePDFNeedsManualRetrieval, StatePDFImported, StatePDFNotAvailable,
	StatePDFNeedsManualPrep, StatePDFPrepared,
	StateExcluded, StateIncluded, StateSynthesized,
}

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	_, ok := stateOrder[s]
	return ok
}

// AtLeast reports whether s has reached the given state in the workflow.
func (s State) AtLeast(min State) bool {
	return stateOrder[s] >= stateOrder[min]
}

// Operation names a workflow step that transforms records.
type Operation string

const (
	OpLoad      Operation = "load"
	OpPrep      Operation = "prep"
	OpDedupe    Operation = "dedupe"
	OpPrescreen Operation = "prescreen"
	OpPDFGet    Operation = "pdfs"
	OpScreen    Operation = "screen"
	OpSync      Operation = "sync"
)

// opPreconditions maps each operation to the minimum state its input
// records must have reached.
var opPreconditions = map[Operation]State{
	OpLoad:      StateRetrieved,
	OpPrep:      StateImported,
	OpDedupe:    StatePrepared,
	OpPrescreen: StateProcessed,
	OpPDFGet:    StatePrescreenIncluded,
	OpScreen:    StatePDFImported,
	OpSync:      StateIncluded,
}

// branchStates hold records parked off the main path: workflow exits and
// queues for manual work. They sort before later operations' input states
// without meaning the workflow was run out of order.
var branchStates = map[State]bool{
	StatePrescreenExcluded:       true,
	StatePDFNeedsManualRetrieval: true,
	StatePDFNotAvailable:         true,
	StateExcluded:                true,
}

// CheckPrecondition verifies that the record can be handled by the given
// operation. Records beyond the operation's input state are ignored by the
// operation, not errors; records before it indicate the workflow was run
// out of order. Branch states never block.
func CheckPrecondition(op Operation, r *Record) error {
	min, ok := opPreconditions[op]
	if !ok {
		return fmt.Errorf("unknown operation: %s", op)
	}
	if !r.Status.Valid() {
		return fmt.Errorf("record %s: invalid state %q", r.ID, r.Status)
	}
	if branchStates[r.Status] {
		return nil
	}
	if !r.Status.AtLeast(min) {
		return fmt.Errorf(
			"record %s in state %s has not reached %s (required for %s)",
			r.ID, r.Status, min, op,
		)
	}
	return nil
}
