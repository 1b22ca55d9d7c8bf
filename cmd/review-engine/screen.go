// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/screen"
	"github.com/pdiddy/review-engine/pkg/types"
)

const criteriaFile = "criteria.yaml"

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Screen full texts against exclusion criteria",
	Long: `Screen walks through the records with a PDF and asks, per exclusion
criterion, whether it applies. A record is excluded as soon as one
criterion applies; the decisions are stored on the record, so the
excluded papers remain accountable to a criterion.

Criteria are read from criteria.yaml (name and explanation per entry).
Without one the screen is a single include/exclude decision.

Use --export and --import to screen in a spreadsheet instead.`,
	RunE: runScreen,
}

func runScreen(cmd *cobra.Command, args []string) error {
	doExport, _ := cmd.Flags().GetBool("export")
	doImport, _ := cmd.Flags().GetBool("import")

	p, err := openProject(true)
	if err != nil {
		return err
	}
	defer p.log.Close()

	if err := p.checkPrecondition(types.OpScreen); err != nil {
		return err
	}

	criteria, err := screen.LoadCriteria(criteriaFile)
	if err != nil {
		return err
	}
	s := &screen.Screener{
		Criteria: criteria,
		Log:      p.log,
		In:       os.Stdin,
		Out:      os.Stdout,
	}

	switch {
	case doExport:
		f, err := os.Create(p.cfg.Project.ScreenFile)
		if err != nil {
			return err
		}
		defer f.Close()
		n, err := s.ExportScreen(p.ds, f)
		if err != nil {
			return err
		}
		fmt.Printf("exported %d records to %s\n", n, p.cfg.Project.ScreenFile)
		return nil

	case doImport:
		f, err := os.Open(p.cfg.Project.ScreenFile)
		if err != nil {
			return err
		}
		defer f.Close()
		summary, err := s.ImportScreen(p.ds, f)
		if err != nil {
			return err
		}
		p.log.Infof("screen: %d included, %d excluded, %d still open",
			summary.Included, summary.Excluded, summary.Open)
		return p.commit(
			fmt.Sprintf("Screen (%d included, %d excluded)", summary.Included, summary.Excluded),
			"screen", true, p.cfg.Project.ScreenFile)

	default:
		summary, err := s.RunInteractive(p.ds)
		if err != nil {
			return err
		}
		p.log.Infof("screen: %d included, %d excluded, %d still open",
			summary.Included, summary.Excluded, summary.Open)
		if summary.Included+summary.Excluded == 0 {
			return nil
		}
		return p.commit(
			fmt.Sprintf("Screen (%d included, %d excluded)", summary.Included, summary.Excluded),
			"screen", true)
	}
}

func init() {
	screenCmd.Flags().Bool("export", false, "export the screening sheet")
	screenCmd.Flags().Bool("import", false, "import decisions from the screening sheet")
	rootCmd.AddCommand(screenCmd)
}
