// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package prep

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pdiddy/review-engine/pkg/types"
)

func TestLoadRulesPackaged(t *testing.T) {
	rules, err := LoadRules("")
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	if len(rules.JournalAbbreviations) == 0 {
		t.Error("packaged rules should contain journal abbreviations")
	}
	if len(rules.ConferenceAbbreviations) == 0 {
		t.Error("packaged rules should contain conference abbreviations")
	}
}

func TestLoadRulesLocalMerge(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "outlet_rules.yaml")
	content := `journal_abbreviations:
  - abbreviation: JTR
    journal: Journal of Test Research
conference_abbreviations:
  - abbreviation: TCONF
    conference: Test Conference
`
	if err := os.WriteFile(local, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	rules, err := LoadRules(local)
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}

	rec := &types.Record{ID: "a", Type: types.Article, Fields: map[string]string{"journal": "jtr"}}
	rules.Apply(rec)
	if got := rec.Get("journal"); got != "Journal of Test Research" {
		t.Errorf("journal = %q, want %q", got, "Journal of Test Research")
	}
}

func TestLoadRulesMissingLocalFile(t *testing.T) {
	rules, err := LoadRules(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	if rules == nil {
		t.Fatal("rules should not be nil")
	}
}

func TestRulesApply(t *testing.T) {
	rules := &Rules{
		JournalAbbreviations: []JournalRule{
			{Abbreviation: "MISQ", Journal: "MIS Quarterly"},
		},
		JournalVariations: []JournalRule{
			{Variation: "mis quart.", Journal: "MIS Quarterly"},
		},
		ConferenceAbbreviations: []ConferenceRule{
			{Abbreviation: "ECIS", Conference: "European Conference on Information Systems"},
		},
	}

	tests := []struct {
		name  string
		in    map[string]string
		field string
		want  string
	}{
		{
			name:  "journal abbreviation case-insensitive",
			in:    map[string]string{"journal": "misq"},
			field: "journal",
			want:  "MIS Quarterly",
		},
		{
			name:  "journal variation",
			in:    map[string]string{"journal": "MIS Quart."},
			field: "journal",
			want:  "MIS Quarterly",
		},
		{
			name:  "conference abbreviation",
			in:    map[string]string{"booktitle": "ecis"},
			field: "booktitle",
			want:  "European Conference on Information Systems",
		},
		{
			name:  "unknown outlet untouched",
			in:    map[string]string{"journal": "Journal of Obscurity"},
			field: "journal",
			want:  "Journal of Obscurity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &types.Record{ID: "x", Type: types.Article, Fields: tt.in}
			rules.Apply(rec)
			if got := rec.Get(tt.field); got != tt.want {
				t.Errorf("%s = %q, want %q", tt.field, got, tt.want)
			}
		})
	}
}
