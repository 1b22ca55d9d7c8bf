// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/screen"
	"github.com/pdiddy/review-engine/pkg/types"
)

const prescreenSheet = "prescreen.csv"

var prescreenCmd = &cobra.Command{
	Use:   "prescreen",
	Short: "Decide inclusion based on metadata",
	Long: `Prescreen exports the processed records to a CSV sheet. Fill the
prescreen_inclusion column with yes or no and run prescreen --import to
apply the decisions. Rows left as TODO stay open.

Use --include-all to skip the prescreen and take every record into the
full-text screen.`,
	RunE: runPrescreen,
}

func runPrescreen(cmd *cobra.Command, args []string) error {
	doImport, _ := cmd.Flags().GetBool("import")
	includeAll, _ := cmd.Flags().GetBool("include-all")

	p, err := openProject(true)
	if err != nil {
		return err
	}
	defer p.log.Close()

	if err := p.checkPrecondition(types.OpPrescreen); err != nil {
		return err
	}

	switch {
	case includeAll:
		n, err := screen.IncludeAll(p.ds, p.log)
		if err != nil {
			return err
		}
		p.log.Infof("prescreen: included all %d records", n)
		return p.commit(fmt.Sprintf("Prescreen (include all, %d records)", n), "prescreen", false)

	case doImport:
		summary, err := screen.ImportPrescreenFile(p.ds, prescreenSheet, p.log)
		if err != nil {
			return err
		}
		p.log.Infof("prescreen: %d included, %d excluded, %d still open",
			summary.Included, summary.Excluded, summary.Open)
		return p.commit(
			fmt.Sprintf("Prescreen (%d included, %d excluded)", summary.Included, summary.Excluded),
			"prescreen", true, prescreenSheet)

	default:
		n, err := screen.ExportPrescreenFile(p.ds, prescreenSheet)
		if err != nil {
			return err
		}
		fmt.Printf("exported %d records to %s\n", n, prescreenSheet)
		return nil
	}
}

func init() {
	prescreenCmd.Flags().Bool("import", false, "import decisions from the prescreen sheet")
	prescreenCmd.Flags().Bool("include-all", false, "include every record without prescreening")
	rootCmd.AddCommand(prescreenCmd)
}
