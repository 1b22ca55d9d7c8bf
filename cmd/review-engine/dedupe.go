// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/dataset"
	"github.com/pdiddy/review-engine/internal/dedupe"
	"github.com/pdiddy/review-engine/pkg/types"
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Merge duplicate records",
	Long: `Dedupe compares prepared records pairwise and merges pairs whose
similarity exceeds the configured threshold. Merged records keep the
origins of both sides, so provenance survives the merge. Merges within
a single search source are handled per the same_source_merges policy.`,
	RunE: runDedupe,
}

var dedupeFixCmd = &cobra.Command{
	Use:   "unmerge [ID]...",
	Short: "Undo a wrong merge using the previous committed records",
	RunE:  runDedupeUnmerge,
}

var dedupeInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "List merges whose records shared a search source",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProject(false)
		if err != nil {
			return err
		}
		defer p.log.Close()
		for _, line := range dedupe.Info(p.ds) {
			fmt.Println(line)
		}
		return nil
	},
}

var dedupeCompareCmd = &cobra.Command{
	Use:   "source-comparison [source-file]...",
	Short: "Export records that are missing from some of the given sources",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProject(false)
		if err != nil {
			return err
		}
		defer p.log.Close()
		out, _ := cmd.Flags().GetString("output")
		n, err := dedupe.SourceComparison(p.ds, args, out)
		if err != nil {
			return err
		}
		fmt.Printf("wrote %d records to %s\n", n, out)
		return nil
	},
}

func runDedupe(cmd *cobra.Command, args []string) error {
	p, err := openProject(true)
	if err != nil {
		return err
	}
	defer p.log.Close()

	if err := p.checkPrecondition(types.OpDedupe); err != nil {
		return err
	}

	manualFile, _ := cmd.Flags().GetString("decisions")
	if manualFile != "" {
		n, err := dedupe.ApplyManualDecisions(p.ds, manualFile, p.log)
		if err != nil {
			return err
		}
		p.log.Infof("dedupe: applied %d manual decisions", n)
		return p.commit(fmt.Sprintf("Merge %d duplicate pairs (manual)", n), "dedupe", true)
	}

	summary, err := dedupe.Run(p.ds, p.cfg.Dedupe, p.log)
	if err != nil {
		return err
	}
	p.log.Infof("dedupe: %d compared, %d merged, %d prevented",
		summary.Compared, summary.Merged, summary.Prevented)

	return p.commit(fmt.Sprintf("Merge %d duplicate pairs", summary.Merged), "dedupe", false)
}

func runDedupeUnmerge(cmd *cobra.Command, args []string) error {
	p, err := openProject(true)
	if err != nil {
		return err
	}
	defer p.log.Close()

	prior, err := p.git.PriorFileContents(p.cfg.Project.RecordsFile)
	if err != nil {
		return err
	}
	priorRecords, err := dataset.Parse(prior)
	if err != nil {
		return err
	}
	if err := dedupe.Unmerge(p.ds, priorRecords, args, p.log); err != nil {
		return err
	}
	return p.commit(fmt.Sprintf("Unmerge %d records", len(args)), "dedupe", true)
}

func init() {
	dedupeCmd.Flags().String("decisions", "", "file of manual merge decisions (one \"id1,id2\" per line)")
	dedupeCompareCmd.Flags().String("output", "source_comparison.csv", "output file")

	dedupeCmd.AddCommand(dedupeFixCmd)
	dedupeCmd.AddCommand(dedupeInfoCmd)
	dedupeCmd.AddCommand(dedupeCompareCmd)
	rootCmd.AddCommand(dedupeCmd)
}
