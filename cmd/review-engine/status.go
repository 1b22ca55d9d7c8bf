// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/status"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show review progress and the next operation to run",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProject(false)
		if err != nil {
			return err
		}
		defer p.log.Close()

		status.PrintTree(p.ds, os.Stdout)
		fmt.Printf("\nnext operation: review-engine %s\n", status.NextOperation(p.ds))
		return nil
	},
}

var traceCmd = &cobra.Command{
	Use:   "trace [ID]",
	Short: "Show the change history of one record",
	Long: `Trace walks the git history of the records file and prints every
commit that changed the given record, with a field-level diff, followed
by changes in the screening and data sheets that mention it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProject(false)
		if err != nil {
			return err
		}
		defer p.log.Close()

		aux := []string{p.cfg.Project.ScreenFile, p.cfg.Project.DataFile}
		return status.Trace(p.git, p.cfg.Project.RecordsFile, aux, args[0], os.Stdout)
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Export analytical profiles of the included sample",
	Long: `Profile writes the included sample and two summaries to the output
directory: outlet-by-year counts (journals_years.csv) and entry type
counts (ENTRYTYPES.csv).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProject(false)
		if err != nil {
			return err
		}
		defer p.log.Close()

		if err := status.Profile(p.ds, p.cfg.Project.OutputDir); err != nil {
			return err
		}
		fmt.Printf("wrote sample.csv, journals_years.csv, ENTRYTYPES.csv to %s/\n",
			p.cfg.Project.OutputDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(traceCmd)
	rootCmd.AddCommand(profileCmd)
}
