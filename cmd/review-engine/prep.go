// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/gitutil"
	"github.com/pdiddy/review-engine/internal/prep"
	"github.com/pdiddy/review-engine/pkg/types"
)

var prepCmd = &cobra.Command{
	Use:   "prep",
	Short: "Prepare imported record metadata",
	Long: `Prep corrects entry types, homogenizes field values, applies outlet
rules, and enriches records from Crossref, DBLP, and doi.org. Records
that end up complete and consistent move on; the rest are flagged for
manual preparation with a note explaining what is wrong.

Records are processed in batches with one commit per batch, so an
interrupted run resumes where it stopped.`,
	RunE: runPrep,
}

// batchCommitter commits the dataset after each preparation batch.
type batchCommitter struct {
	p *project
}

func (b *batchCommitter) Commit(msg string) error {
	_, err := b.p.git.CommitOperation(b.p.cfg.Git, gitutil.CommitOptions{
		Msg:    msg,
		Files:  []string{b.p.cfg.Project.RecordsFile},
		Script: "prep",
	})
	return err
}

func runPrep(cmd *cobra.Command, args []string) error {
	p, err := openProject(true)
	if err != nil {
		return err
	}
	defer p.log.Close()

	if err := p.checkPrecondition(types.OpPrep); err != nil {
		return err
	}

	preparer, err := prep.New(p.cfg.Prep, ".", p.log)
	if err != nil {
		return err
	}

	summary, err := preparer.Run(context.Background(), p.ds, &batchCommitter{p})
	if err != nil {
		return err
	}
	p.log.Infof("prep: %d prepared, %d need manual preparation",
		summary.Prepared, summary.NeedsManual)
	if summary.NeedsManual > 0 {
		fmt.Println("records needing manual preparation carry a prep_note field")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(prepCmd)
}
