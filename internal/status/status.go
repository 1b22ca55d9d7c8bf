// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package status reports on the progress of a review project: per-state
// record counts, analytical profiles of the included sample, and the
// change history of individual records.
package status

import (
	"fmt"
	"io"

	"github.com/pdiddy/review-engine/internal/dataset"
	"github.com/pdiddy/review-engine/pkg/types"
)

// stage groups workflow states for the status tree.
type stage struct {
	name   string
	states []types.State
}

var stages = []stage{
	{"metadata", []types.State{
		types.StateRetrieved, types.StateImported,
		types.StateNeedsManualPrep, types.StatePrepared, types.StateProcessed,
	}},
	{"prescreen", []types.State{
		types.StatePrescreenExcluded, types.StatePrescreenIncluded,
	}},
	{"pdfs", []types.State{
		types.StatePDFNeedsManualRetrieval, types.StatePDFImported,
		types.StatePDFNotAvailable, types.StatePDFNeedsManualPrep,
		types.StatePDFPrepared,
	}},
	{"screen", []types.State{
		types.StateExcluded, types.StateIncluded, types.StateSynthesized,
	}},
}

// PrintTree writes the per-state record counts grouped by workflow stage.
// States with no records are omitted; empty stages still appear so the
// reader sees which phases have not started.
func PrintTree(ds *dataset.Dataset, w io.Writer) {
	counts := ds.StateCounts()
	total := 0
	for _, n := range counts {
		total += n
	}
	fmt.Fprintf(w, "records: %d\n", total)

	for _, st := range stages {
		stageTotal := 0
		for _, s := range st.states {
			stageTotal += counts[s]
		}
		fmt.Fprintf(w, " %s (%d)\n", st.name, stageTotal)
		var present []types.State
		for _, s := range st.states {
			if counts[s] > 0 {
				present = append(present, s)
			}
		}
		for i, s := range present {
			branch := "├─"
			if i == len(present)-1 {
				branch = "└─"
			}
			fmt.Fprintf(w, "  %s %-28s %d\n", branch, s, counts[s])
		}
	}
}

// NextOperation suggests the operation to run next, based on the earliest
// state that still has records waiting.
func NextOperation(ds *dataset.Dataset) types.Operation {
	counts := ds.StateCounts()
	switch {
	case counts[types.StateImported] > 0 || counts[types.StateNeedsManualPrep] > 0:
		return types.OpPrep
	case counts[types.StatePrepared] > 0:
		return types.OpDedupe
	case counts[types.StateProcessed] > 0:
		return types.OpPrescreen
	case counts[types.StatePrescreenIncluded] > 0:
		return types.OpPDFGet
	case counts[types.StatePDFImported] > 0 || counts[types.StatePDFPrepared] > 0:
		return types.OpScreen
	case counts[types.StateIncluded] > 0:
		return types.OpSync
	default:
		return types.OpLoad
	}
}
