// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package localindex

import (
	"context"
	"errors"
	"fmt"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/review-engine/pkg/types"
)

// Lookup failures callers are expected to branch on.
var (
	ErrNotFound  = errors.New("citation key not found in local index")
	ErrAmbiguous = errors.New("citation key matches records in multiple repos")
)

func scanRecord(key, entryType, fieldsYAML string) (*types.Record, error) {
	fields := map[string]string{}
	if err := yaml.Unmarshal([]byte(fieldsYAML), &fields); err != nil {
		return nil, fmt.Errorf("decoding indexed record %s: %w", key, err)
	}
	return &types.Record{
		ID:     key,
		Type:   types.EntryType(entryType),
		Status: types.StateProcessed,
		Fields: fields,
	}, nil
}

// GetKey returns the record indexed under the exact citation key. When
// distinct records carry the same key in different repos the lookup is
// ambiguous; identical copies are not.
func (s *Store) GetKey(ctx context.Context, key string) (*types.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT entry_type, fields FROM records WHERE key = ?`, key)
	if err != nil {
		return nil, fmt.Errorf("looking up %s: %w", key, err)
	}
	defer rows.Close()

	var rec *types.Record
	for rows.Next() {
		var entryType, fieldsYAML string
		if err := rows.Scan(&entryType, &fieldsYAML); err != nil {
			return nil, err
		}
		candidate, err := scanRecord(key, entryType, fieldsYAML)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			rec = candidate
			continue
		}
		if rec.Type != candidate.Type || !sameFields(rec.Fields, candidate.Fields) {
			return nil, fmt.Errorf("%w: %s", ErrAmbiguous, key)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return rec, nil
}

func sameFields(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

// Search runs a full-text query over title, author, and outlet of all
// indexed records, ranked by relevance.
func (s *Store) Search(ctx context.Context, query string) ([]*types.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.key, r.entry_type, r.fields
		FROM records_fts
		JOIN records r ON r.rowid = records_fts.rowid
		WHERE records_fts MATCH ?
		ORDER BY records_fts.rank
		LIMIT ?`, query, s.maxResults)
	if err != nil {
		return nil, fmt.Errorf("searching local index: %w", err)
	}
	defer rows.Close()

	var results []*types.Record
	for rows.Next() {
		var key, entryType, fieldsYAML string
		if err := rows.Scan(&key, &entryType, &fieldsYAML); err != nil {
			return nil, err
		}
		rec, err := scanRecord(key, entryType, fieldsYAML)
		if err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}
