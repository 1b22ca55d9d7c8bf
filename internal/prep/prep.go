// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package prep improves imported record metadata until it is fit for
// deduplication and screening. Rule-based fixes run first, then remote
// sources (Crossref, DBLP, doi.org) are consulted, and finally each
// record is checked for completeness and field consistency.
package prep

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/review-engine/internal/dataset"
	"github.com/pdiddy/review-engine/internal/httputil"
	"github.com/pdiddy/review-engine/internal/reportlog"
	"github.com/pdiddy/review-engine/pkg/types"
)

// Summary reports the outcome of a preparation run.
type Summary struct {
	Prepared    int
	NeedsManual int
}

// Committer batches dataset changes into version-control commits. The
// prep operation commits after every batch so long runs can be resumed.
type Committer interface {
	Commit(msg string) error
}

// Preparer runs the metadata preparation pipeline.
type Preparer struct {
	Config types.PrepConfig
	Rules  *Rules
	Client *http.Client
	Log    *reportlog.Logger
}

// New builds a Preparer, loading packaged outlet rules merged with any
// project-local rules file in dir.
func New(cfg types.PrepConfig, dir string, log *reportlog.Logger) (*Preparer, error) {
	rules, err := LoadRules(filepath.Join(dir, "outlet_rules.yaml"))
	if err != nil {
		return nil, fmt.Errorf("loading outlet rules: %w", err)
	}
	return &Preparer{
		Config: cfg,
		Rules:  rules,
		Client: httputil.NewClient(cfg.HTTPConfig),
		Log:    log,
	}, nil
}

// PrepareRecord runs the full pipeline on a single record and sets its
// resulting status. Remote lookup failures are logged and skipped; a
// record that cannot be completed goes to manual preparation rather than
// blocking the run.
func (p *Preparer) PrepareRecord(ctx context.Context, rec *types.Record) {
	CorrectEntryType(rec, p.Rules)
	Homogenize(rec)
	p.Rules.Apply(rec)

	for _, step := range []struct {
		name    string
		enabled bool
		run     func(context.Context, *http.Client, *types.Record, types.PrepConfig) error
	}{
		{"crossref", p.Config.EnableCrossref, retrieveCrossrefDOI},
		{"dblp", p.Config.EnableDBLP, retrieveDBLPMetadata},
		{"link", true, retrieveDOIFromLink},
		{"doi", true, RetrieveDOIMetadata},
	} {
		if !step.enabled {
			continue
		}
		if err := step.run(ctx, p.Client, rec, p.Config); err != nil {
			p.Log.Report.Warn().Str("record", rec.ID).Str("source", step.name).Err(err).Msg("metadata lookup failed")
		}
		if p.Config.APIDelay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.Config.APIDelay):
			}
		}
	}

	EvaluateStatus(rec)
}

// EvaluateStatus settles a record's preparation outcome: complete and
// consistent records become md_prepared, the rest keep a prep_note
// explaining what is wrong and wait for manual preparation. Also used to
// re-check a record after its fields were fixed by hand.
func EvaluateStatus(rec *types.Record) {
	curated := rec.Get("metadata_source") == "doi.org"
	inconsistent := InconsistentFields(rec)
	switch {
	case len(inconsistent) > 0:
		rec.Set("prep_note", "inconsistent fields: "+strings.Join(inconsistent, ", "))
		rec.Status = types.StateNeedsManualPrep
	case HasIncompleteFields(rec):
		rec.Set("prep_note", "incomplete field values")
		rec.Status = types.StateNeedsManualPrep
	case !curated && !IsComplete(rec):
		rec.Set("prep_note", "missing: "+strings.Join(missingFields(rec), ", "))
		rec.Status = types.StateNeedsManualPrep
	default:
		rec.Del("prep_note")
		DropFields(rec)
		rec.Status = types.StatePrepared
	}
}

func missingFields(rec *types.Record) []string {
	var missing []string
	for _, f := range fieldRequirements[rec.Type] {
		if !rec.Has(f) {
			missing = append(missing, f)
		}
	}
	sort.Strings(missing)
	return missing
}

// Run prepares all imported records in batches. After each batch the
// dataset is saved and committed, so an interrupted run picks up where it
// left off.
func (p *Preparer) Run(ctx context.Context, ds *dataset.Dataset, committer Committer) (Summary, error) {
	var summary Summary

	batchSize := p.Config.BatchSize
	if batchSize <= 0 {
		batchSize = 500
	}

	for batch := 1; ; batch++ {
		queue := ds.InState(types.StateImported)
		if len(queue) > batchSize {
			queue = queue[:batchSize]
		}
		if len(queue) == 0 {
			break
		}

		for _, rec := range queue {
			if err := ctx.Err(); err != nil {
				return summary, err
			}
			before := rec.Clone()
			p.PrepareRecord(ctx, rec)
			p.logChanges(before, rec)
			switch rec.Status {
			case types.StatePrepared:
				summary.Prepared++
			case types.StateNeedsManualPrep:
				summary.NeedsManual++
			}
		}

		if err := ds.Save(); err != nil {
			return summary, fmt.Errorf("saving records: %w", err)
		}
		if committer != nil {
			msg := fmt.Sprintf("Prepare records (batch %d)", batch)
			if err := committer.Commit(msg); err != nil {
				return summary, fmt.Errorf("committing batch %d: %w", batch, err)
			}
		}
		p.Log.Infof("prepared batch %d (%d records)", batch, len(queue))
	}
	return summary, nil
}

func (p *Preparer) logChanges(before, after *types.Record) {
	for key, val := range after.Fields {
		old := before.Get(key)
		if old == val {
			continue
		}
		if old == "" {
			p.Log.Line("%s: set %s = %q", after.ID, key, val)
			continue
		}
		p.Log.Line("%s: change %s %q -> %q", after.ID, key, old, val)
	}
	for key := range before.Fields {
		if !after.Has(key) {
			p.Log.Line("%s: drop %s", after.ID, key)
		}
	}
	if before.Status != after.Status {
		p.Log.Line("%s: %s -> %s", after.ID, before.Status, after.Status)
	}
}
