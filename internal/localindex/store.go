// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package localindex maintains a SQLite index over the records of all
// registered review projects on this machine. The index answers exact
// citation-key lookups and full-text searches, which lets one project
// reuse metadata curated in another.
package localindex

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/review-engine/internal/dataset"
	"github.com/pdiddy/review-engine/pkg/types"
)

const dbFile = "local_index.db"

// indexedFields are the bibliographic fields worth returning from the
// index. Process metadata of the source project stays behind.
var indexedFields = []string{
	"author", "title", "year", "journal", "booktitle", "volume", "number", "pages", "doi", "abstract",
}

// Store manages the local index SQLite database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates the index database under cfg.IndexDir.
func NewStore(cfg types.IndexConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.IndexDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(cfg.IndexDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS repos (
			path TEXT PRIMARY KEY,
			records_mod_time TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS records (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			key TEXT NOT NULL,
			repo TEXT NOT NULL REFERENCES repos(path),
			entry_type TEXT NOT NULL,
			search_text TEXT NOT NULL,
			fields TEXT NOT NULL,
			UNIQUE(key, repo)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_key ON records(key)`,
		`CREATE INDEX IF NOT EXISTS idx_records_repo ON records(repo)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='records_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE records_fts USING fts5(search_text, content=records, content_rowid=rowid)`,
			`CREATE TRIGGER records_ai AFTER INSERT ON records BEGIN
				INSERT INTO records_fts(rowid, search_text) VALUES (new.rowid, new.search_text);
			END`,
			`CREATE TRIGGER records_ad AFTER DELETE ON records BEGIN
				INSERT INTO records_fts(records_fts, rowid, search_text) VALUES('delete', old.rowid, old.search_text);
			END`,
			`CREATE TRIGGER records_au AFTER UPDATE ON records BEGIN
				INSERT INTO records_fts(records_fts, rowid, search_text) VALUES('delete', old.rowid, old.search_text);
				INSERT INTO records_fts(rowid, search_text) VALUES (new.rowid, new.search_text);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}
	return nil
}

// IndexSummary holds counts from an indexing run.
type IndexSummary struct {
	Repos   int
	Indexed int
	Skipped int
}

// RegisterRepo adds a project directory to the registry so its records
// are picked up by Index runs.
func (s *Store) RegisterRepo(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO repos (path, records_mod_time) VALUES (?, '')`, abs)
	return err
}

// Repos lists the registered project directories.
func (s *Store) Repos(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path FROM repos ORDER BY path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// Index refreshes the index from all registered repos. Repos whose
// records file is unchanged since the last run are skipped.
func (s *Store) Index(ctx context.Context, recordsFile string, w io.Writer) (IndexSummary, error) {
	repos, err := s.Repos(ctx)
	if err != nil {
		return IndexSummary{}, err
	}

	var summary IndexSummary
	for _, repo := range repos {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}
		summary.Repos++

		recordsPath := filepath.Join(repo, recordsFile)
		info, err := os.Stat(recordsPath)
		if err != nil {
			fmt.Fprintf(w, "skipped %s: %v\n", repo, err)
			summary.Skipped++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT records_mod_time FROM repos WHERE path = ?`, repo,
		).Scan(&storedModTime)
		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s (unchanged)\n", repo)
			summary.Skipped++
			continue
		}

		ds, err := dataset.Load(recordsPath)
		if err != nil {
			fmt.Fprintf(w, "skipped %s: %v\n", repo, err)
			summary.Skipped++
			continue
		}

		n, err := s.indexRepo(ctx, repo, ds, modTime)
		if err != nil {
			return summary, fmt.Errorf("indexing %s: %w", repo, err)
		}
		fmt.Fprintf(w, "indexed %s (%d records)\n", repo, n)
		summary.Indexed += n
	}

	fmt.Fprintf(w, "\nrepos: %d, indexed: %d, skipped: %d\n",
		summary.Repos, summary.Indexed, summary.Skipped)
	return summary, nil
}

// indexRepo replaces all of one repo's rows in a single transaction.
// Only records that finished metadata processing are indexed.
func (s *Store) indexRepo(ctx context.Context, repo string, ds *dataset.Dataset, modTime string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE repo = ?`, repo); err != nil {
		return 0, fmt.Errorf("deleting old records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO records (key, repo, entry_type, search_text, fields)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	var n int
	for _, rec := range ds.Sorted() {
		if !rec.Status.AtLeast(types.StateProcessed) {
			continue
		}
		fields := map[string]string{}
		for _, f := range indexedFields {
			if v := rec.Get(f); v != "" {
				fields[f] = v
			}
		}
		fieldsYAML, err := yaml.Marshal(fields)
		if err != nil {
			return n, fmt.Errorf("marshalling record %s: %w", rec.ID, err)
		}
		searchText := rec.Get("title") + " " + rec.Get("author") + " " + rec.ContainerTitle()

		if _, err := stmt.ExecContext(ctx,
			rec.ID, repo, string(rec.Type), searchText, string(fieldsYAML),
		); err != nil {
			return n, fmt.Errorf("inserting record %s: %w", rec.ID, err)
		}
		n++
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE repos SET records_mod_time = ? WHERE path = ?`, modTime, repo,
	); err != nil {
		return n, fmt.Errorf("updating repo status: %w", err)
	}
	return n, tx.Commit()
}
