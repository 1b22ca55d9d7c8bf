// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/prep"
	"github.com/pdiddy/review-engine/pkg/types"
)

var fixCmd = &cobra.Command{
	Use:   "fix [field] [value] [ID...]",
	Short: "Set a field on records by hand",
	Long: `Fix sets one bibliographic field to the given value on each of the
listed records. Records flagged for manual preparation are re-checked
afterwards; once complete and consistent they move on to md_prepared.`,
	Args: cobra.MinimumNArgs(3),
	RunE: runFix,
}

func runFix(cmd *cobra.Command, args []string) error {
	field, value, ids := args[0], args[1], args[2:]

	p, err := openProject(true)
	if err != nil {
		return err
	}
	defer p.log.Close()

	for _, id := range ids {
		if _, ok := p.ds.Records[id]; !ok {
			return fmt.Errorf("unknown record %s", id)
		}
	}
	p.ds.ReplaceField(ids, field, value)

	for _, id := range ids {
		p.log.Line("%s: set %s = %q", id, field, value)
		rec := p.ds.Records[id]
		if rec.Status == types.StateNeedsManualPrep {
			prep.EvaluateStatus(rec)
			if rec.Status == types.StatePrepared {
				p.log.Line("%s: prepared", id)
			}
		}
	}
	return p.commit(fmt.Sprintf("Fix records (%s)", field), "fix", true)
}

func init() {
	rootCmd.AddCommand(fixCmd)
}
