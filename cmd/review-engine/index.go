// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/localindex"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Maintain the machine-wide record index",
	Long: `Index maintains a SQLite index over the records of all registered
review projects. Other projects and the sync command resolve citation
keys against it, so curated metadata is entered once and reused.`,
	RunE: runIndex,
}

var indexRegisterCmd = &cobra.Command{
	Use:   "register [dir]",
	Short: "Register a review project for indexing",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) > 0 {
			dir = args[0]
		}
		cfg, err := projectConfig()
		if err != nil {
			return err
		}
		store, err := localindex.NewStore(cfg.Index)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.RegisterRepo(context.Background(), dir); err != nil {
			return err
		}
		fmt.Printf("registered %s\n", dir)
		return nil
	},
}

var indexSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the index by title, author, or outlet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := projectConfig()
		if err != nil {
			return err
		}
		store, err := localindex.NewStore(cfg.Index)
		if err != nil {
			return err
		}
		defer store.Close()

		results, err := store.Search(context.Background(), args[0])
		if err != nil {
			return err
		}
		for _, rec := range results {
			fmt.Printf("%s\n  %s\n", rec.ID, rec.CitationString())
		}
		if len(results) == 0 {
			fmt.Println("no matches")
		}
		return nil
	},
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, err := projectConfig()
	if err != nil {
		return err
	}
	store, err := localindex.NewStore(cfg.Index)
	if err != nil {
		return err
	}
	defer store.Close()

	_, err = store.Index(context.Background(), cfg.Project.RecordsFile, os.Stdout)
	return err
}

func init() {
	indexCmd.AddCommand(indexRegisterCmd)
	indexCmd.AddCommand(indexSearchCmd)
	rootCmd.AddCommand(indexCmd)
}
