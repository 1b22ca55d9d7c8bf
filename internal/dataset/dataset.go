// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dataset persists the review records file.
//
// Records are stored in a single YAML file, sorted by citation key so that
// diffs between commits stay readable. Writes are atomic: the file is
// replaced via rename, never truncated in place.
package dataset

import (
	"fmt"
	"os"
	"sort"

	"github.com/google/renameio/v2"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/review-engine/pkg/types"
)

// Dataset holds the records of a review project, keyed by citation key.
type Dataset struct {
	path    string
	Records map[string]*types.Record
}

// Load reads the records file at path. A missing file yields an empty
// dataset; the file is created on the first Save.
func Load(path string) (*Dataset, error) {
	ds := &Dataset{path: path, Records: map[string]*types.Record{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ds, nil
		}
		return nil, fmt.Errorf("reading records file %s: %w", path, err)
	}

	records, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing records file %s: %w", path, err)
	}
	ds.Records = records
	return ds, nil
}

// Parse decodes a records file payload into a map keyed by citation key.
func Parse(data []byte) (map[string]*types.Record, error) {
	var list []*types.Record
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	records := make(map[string]*types.Record, len(list))
	for _, r := range list {
		if r.ID == "" {
			return nil, fmt.Errorf("record without id")
		}
		if _, ok := records[r.ID]; ok {
			return nil, fmt.Errorf("duplicate record id %s", r.ID)
		}
		records[r.ID] = r
	}
	return records, nil
}

// Save writes all records back to the records file, sorted by ID.
func (d *Dataset) Save() error {
	data, err := Marshal(d.Records)
	if err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}
	if err := renameio.WriteFile(d.path, data, 0o644); err != nil {
		return fmt.Errorf("writing records file %s: %w", d.path, err)
	}
	return nil
}

// Marshal encodes records as the sorted YAML list used on disk.
func Marshal(records map[string]*types.Record) ([]byte, error) {
	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	list := make([]*types.Record, 0, len(records))
	for _, id := range ids {
		list = append(list, records[id])
	}
	return yaml.Marshal(list)
}

// Path returns the records file path.
func (d *Dataset) Path() string {
	return d.path
}

// Add inserts a record. Returns an error when the ID is already taken.
func (d *Dataset) Add(r *types.Record) error {
	if _, ok := d.Records[r.ID]; ok {
		return fmt.Errorf("record id %s already exists", r.ID)
	}
	d.Records[r.ID] = r
	return nil
}

// ReplaceField sets a bibliographic field on every listed record.
func (d *Dataset) ReplaceField(ids []string, key, value string) {
	for _, id := range ids {
		if r, ok := d.Records[id]; ok {
			r.Set(key, value)
		}
	}
}

// SetStatus moves every listed record to the given state.
func (d *Dataset) SetStatus(ids []string, s types.State) {
	for _, id := range ids {
		if r, ok := d.Records[id]; ok {
			r.Status = s
		}
	}
}

// StateCounts tallies records per state.
func (d *Dataset) StateCounts() map[types.State]int {
	counts := map[types.State]int{}
	for _, r := range d.Records {
		counts[r.Status]++
	}
	return counts
}

// InState returns the records currently in any of the given states,
// sorted by ID.
func (d *Dataset) InState(states ...types.State) []*types.Record {
	want := map[types.State]bool{}
	for _, s := range states {
		want[s] = true
	}
	var out []*types.Record
	for _, r := range d.Records {
		if want[r.Status] {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Sorted returns all records sorted by ID.
func (d *Dataset) Sorted() []*types.Record {
	out := make([]*types.Record, 0, len(d.Records))
	for _, r := range d.Records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// OriginExists reports whether any record carries the given origin.
func (d *Dataset) OriginExists(origin string) bool {
	for _, r := range d.Records {
		for _, o := range r.Origins {
			if o == origin {
				return true
			}
		}
	}
	return false
}
