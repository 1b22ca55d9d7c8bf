// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the review-engine CLI.
//
// A review project is a git repository holding records.yaml, search
// result files, PDFs, and screening sheets. Each workflow stage is a
// subcommand: load, prep, dedupe, prescreen, pdfs, screen, status.
// The sync and index commands work across projects.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/review-engine/internal/dataset"
	"github.com/pdiddy/review-engine/internal/gitutil"
	"github.com/pdiddy/review-engine/internal/reportlog"
	"github.com/pdiddy/review-engine/internal/secrets"
	"github.com/pdiddy/review-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys and contact addresses loaded from
// .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns the secret value for key if it exists, or
// fallback otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the review-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "review-engine",
	Short: "Collaborative management of systematic literature reviews",
	Long: `review-engine manages the records of a systematic literature review
through an explicit state machine, from search result import to the
synthesized sample. Every operation commits its changes to git with a
processing report, so each record's path through the review is traceable.

Each workflow stage is a subcommand: load, prep, dedupe, prescreen,
pdfs, screen. The status command shows progress and suggests the next
operation; index and sync share curated records across projects.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./review-engine.yaml or ~/.config/review-engine/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("review-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "review-engine"))
		}
	}

	viper.SetEnvPrefix("REVIEW_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// projectConfig merges the config file over the defaults and fills
// contact addresses from secrets.
func projectConfig() (types.Config, error) {
	cfg := types.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading configuration: %w", err)
	}
	cfg.Prep.Email = secretDefault("crossref-email", cfg.Prep.Email)
	cfg.PDF.Email = secretDefault("unpaywall-email", cfg.PDF.Email)
	if cfg.Index.IndexDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return cfg, fmt.Errorf("resolving index directory: %w", err)
		}
		cfg.Index.IndexDir = filepath.Join(home, ".local", "share", "review-engine")
	}
	return cfg, nil
}

// project bundles everything an operation command needs.
type project struct {
	cfg types.Config
	ds  *dataset.Dataset
	git *gitutil.Repo
	log *reportlog.Logger
}

// openProject loads the dataset, opens the git repository, and starts a
// fresh processing report. requireClean refuses to run on a dirty
// worktree, which every record-modifying operation should.
func openProject(requireClean bool) (*project, error) {
	cfg, err := projectConfig()
	if err != nil {
		return nil, err
	}

	repo, err := gitutil.Open(".")
	if err != nil {
		return nil, err
	}
	if requireClean {
		ignore := []string{cfg.Project.SearchDir + "/"}
		if !cfg.Git.TrackPDFs {
			ignore = append(ignore, cfg.Project.PDFDir+"/")
		}
		if err := repo.RequireClean(ignore...); err != nil {
			return nil, err
		}
	}

	ds, err := dataset.Load(cfg.Project.RecordsFile)
	if err != nil {
		return nil, err
	}

	log, err := reportlog.New("report.log")
	if err != nil {
		return nil, err
	}

	return &project{cfg: cfg, ds: ds, git: repo, log: log}, nil
}

// checkPrecondition refuses to run an operation while records still sit in
// an earlier state of the workflow, so steps cannot be skipped.
func (p *project) checkPrecondition(op types.Operation) error {
	for _, rec := range p.ds.Sorted() {
		if err := types.CheckPrecondition(op, rec); err != nil {
			return err
		}
	}
	return nil
}

// commit saves the dataset and creates an operation commit.
func (p *project) commit(msg, script string, manual bool, extraFiles ...string) error {
	if err := p.ds.Save(); err != nil {
		return err
	}
	files := append([]string{p.cfg.Project.RecordsFile}, extraFiles...)
	_, err := p.git.CommitOperation(p.cfg.Git, gitutil.CommitOptions{
		Msg:          msg,
		Files:        files,
		Script:       script,
		ManualAuthor: manual,
	})
	return err
}

func main() {
	gitutil.Version = version
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
