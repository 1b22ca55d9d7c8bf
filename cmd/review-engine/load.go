// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/load"
	"github.com/pdiddy/review-engine/pkg/types"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Import search results into the records file",
	Long: `Load imports the RIS and CSV files in the search directory. Each entry
becomes a record with a provenance origin; entries already imported are
skipped, so re-running load after adding new search results is safe.`,
	RunE: runLoad,
}

func runLoad(cmd *cobra.Command, args []string) error {
	p, err := openProject(true)
	if err != nil {
		return err
	}
	defer p.log.Close()

	if err := p.checkPrecondition(types.OpLoad); err != nil {
		return err
	}

	summary, err := load.Run(p.ds, p.cfg.Project.SearchDir, p.log)
	if err != nil {
		return err
	}
	p.log.Infof("load: %d files, %d imported, %d already known",
		summary.Files, summary.Imported, summary.Skipped)

	if summary.Imported == 0 {
		return nil
	}
	return p.commit(fmt.Sprintf("Load %d records", summary.Imported), "load", false,
		p.cfg.Project.SearchDir)
}

func init() {
	rootCmd.AddCommand(loadCmd)
}
