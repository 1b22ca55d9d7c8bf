// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/localindex"
	"github.com/pdiddy/review-engine/internal/reportlog"
	"github.com/pdiddy/review-engine/internal/syncer"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Update references.bib from the citations in the manuscript",
	Long: `Sync collects the citation keys used in paper.md, review.md, and any
*.rst files, resolves them against the machine-wide record index, and
appends the entries missing from references.bib. Keys the index cannot
resolve are listed so the citation or the index can be fixed.`,
	RunE: runSync,
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := projectConfig()
	if err != nil {
		return err
	}
	store, err := localindex.NewStore(cfg.Index)
	if err != nil {
		return err
	}
	defer store.Close()

	log, err := reportlog.New("report.log")
	if err != nil {
		return err
	}
	defer log.Close()

	s := &syncer.Syncer{Index: store, Log: log}
	summary, err := s.Run(context.Background(), ".")
	if err != nil {
		return err
	}
	log.Infof("sync: %d cited, %d added", summary.Cited, summary.Added)
	for _, key := range summary.Missing {
		fmt.Printf("not found: %s\n", key)
	}
	for _, key := range summary.Ambiguous {
		fmt.Printf("ambiguous: %s\n", key)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
