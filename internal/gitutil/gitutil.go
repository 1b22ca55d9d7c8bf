// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package gitutil wraps the git operations of a review project: staging and
// committing operation results, checking for a clean worktree, and reading
// prior versions of the records file from history.
package gitutil

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/pdiddy/review-engine/pkg/types"
)

// reportFile is the processing report folded into commit messages.
const reportFile = "report.log"

// Repo is a review project's git repository.
type Repo struct {
	repo *git.Repository
	path string
}

// Open opens the git repository at path (or any parent).
func Open(path string) (*Repo, error) {
	r, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening git repository at %s: %w", path, err)
	}
	return &Repo{repo: r, path: path}, nil
}

// RequireClean returns an error when the worktree has uncommitted changes.
// Paths under the given prefixes (e.g. "search/", "pdfs/") are ignored, as
// is the report file, so freshly added search results and untracked PDFs do
// not block an operation.
func (r *Repo) RequireClean(ignorePrefixes ...string) error {
	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return fmt.Errorf("git status: %w", err)
	}

	var dirty []string
	for path, st := range status {
		if st.Worktree == git.Unmodified && st.Staging == git.Unmodified {
			continue
		}
		if path == reportFile {
			continue
		}
		ignored := false
		for _, prefix := range ignorePrefixes {
			if prefix != "" && strings.HasPrefix(path, prefix) {
				ignored = true
				break
			}
		}
		if ignored {
			continue
		}
		dirty = append(dirty, path)
	}
	if len(dirty) > 0 {
		return fmt.Errorf("clean repository required, uncommitted changes: %s", strings.Join(dirty, ", "))
	}
	return nil
}

// HasChanges reports whether the given path differs from HEAD or is
// untracked.
func (r *Repo) HasChanges(path string) (bool, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return false, fmt.Errorf("git status: %w", err)
	}
	st := status.File(path)
	return st.Worktree != git.Unmodified || st.Staging != git.Unmodified, nil
}

// CommitOptions control an operation commit.
type CommitOptions struct {
	// Msg is the first line of the commit message.
	Msg string

	// Files are staged before committing.
	Files []string

	// Script names the operation that produced the change; it becomes the
	// commit author when the change was automated.
	Script string

	// ManualAuthor records the configured actor as the author instead of
	// the script (for operations driven by human decisions).
	ManualAuthor bool

	// Report is appended to the commit message body. When empty, the
	// contents of report.log are used and the file is truncated afterwards.
	Report string
}

// CommitOperation stages the given files and commits them with the
// operation report in the message body. Returns false when none of the
// files had changes to commit.
func (r *Repo) CommitOperation(cfg types.GitConfig, opts CommitOptions) (bool, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("worktree: %w", err)
	}

	changed := false
	for _, f := range opts.Files {
		has, err := r.HasChanges(f)
		if err != nil {
			return false, err
		}
		if !has {
			continue
		}
		if _, err := wt.Add(f); err != nil {
			return false, fmt.Errorf("staging %s: %w", f, err)
		}
		changed = true
	}
	if !changed {
		return false, nil
	}

	report := opts.Report
	if report == "" {
		if data, err := os.ReadFile(reportFile); err == nil && len(data) > 0 {
			report = string(data)
			// Start the next operation with an empty report.
			defer os.Truncate(reportFile, 0)
		}
	}

	msg := opts.Msg + versionFlag()
	if report != "" {
		msg += "\n\nReport:\n" + report
	}

	committer := &object.Signature{Name: cfg.Actor, Email: cfg.Email, When: time.Now()}
	author := committer
	if !opts.ManualAuthor && opts.Script != "" {
		author = &object.Signature{Name: "script:" + opts.Script, When: time.Now()}
	}

	if _, err := wt.Commit(msg, &git.CommitOptions{Author: author, Committer: committer}); err != nil {
		return false, fmt.Errorf("committing: %w", err)
	}
	return true, nil
}

// versionFlag marks commits created by an unreleased build.
func versionFlag() string {
	if strings.Contains(Version, "dev") {
		return " (unreleased)"
	}
	return ""
}

// Version is set by the main package at startup so commit messages can
// carry the build version.
var Version = "dev"

// FileVersion is one historical version of a file.
type FileVersion struct {
	Hash     string
	Message  string
	Author   string
	When     time.Time
	Contents []byte
	// Present is false when the file did not exist in the commit.
	Present bool
}

// FileHistory returns the versions of path from git history, newest first.
func (r *Repo) FileHistory(path string) ([]FileVersion, error) {
	iter, err := r.repo.Log(&git.LogOptions{})
	if err != nil {
		return nil, fmt.Errorf("git log: %w", err)
	}
	defer iter.Close()

	var versions []FileVersion
	err = iter.ForEach(func(c *object.Commit) error {
		v := FileVersion{
			Hash:    c.Hash.String(),
			Message: strings.SplitN(c.Message, "\n", 2)[0],
			Author:  c.Author.Name,
			When:    c.Committer.When,
		}
		f, err := c.File(path)
		if err == nil {
			contents, err := f.Contents()
			if err != nil {
				return fmt.Errorf("reading %s at %s: %w", path, c.Hash, err)
			}
			v.Contents = []byte(contents)
			v.Present = true
		} else if err != object.ErrFileNotFound {
			return err
		}
		versions = append(versions, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return versions, nil
}

// PriorFileContents returns the most recently committed version of path.
func (r *Repo) PriorFileContents(path string) ([]byte, error) {
	versions, err := r.FileHistory(path)
	if err != nil {
		return nil, err
	}
	for _, v := range versions {
		if v.Present {
			return v.Contents, nil
		}
	}
	return nil, fmt.Errorf("%s not found in git history", path)
}
