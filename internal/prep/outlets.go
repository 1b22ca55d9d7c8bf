// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package prep

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/review-engine/pkg/types"
)

// JournalRule maps an abbreviation or variation to the canonical journal
// name.
type JournalRule struct {
	Abbreviation string `yaml:"abbreviation,omitempty"`
	Variation    string `yaml:"variation,omitempty"`
	Journal      string `yaml:"journal"`
}

// ConferenceRule maps an abbreviation to the canonical conference name.
type ConferenceRule struct {
	Abbreviation string `yaml:"abbreviation"`
	Conference   string `yaml:"conference"`
}

// Rules holds the outlet-name correction tables. The packaged rules ship
// with the binary; projects can extend them with a local rules file.
type Rules struct {
	JournalAbbreviations    []JournalRule    `yaml:"journal_abbreviations"`
	JournalVariations       []JournalRule    `yaml:"journal_variations"`
	ConferenceAbbreviations []ConferenceRule `yaml:"conference_abbreviations"`
}

//go:embed outlet_rules.yaml
var packagedRules []byte

// LoadRules parses the packaged rules and merges the project-local rules
// file when it exists.
func LoadRules(localPath string) (*Rules, error) {
	var rules Rules
	if err := yaml.Unmarshal(packagedRules, &rules); err != nil {
		return nil, fmt.Errorf("parsing packaged outlet rules: %w", err)
	}

	if localPath != "" {
		data, err := os.ReadFile(localPath)
		if err != nil {
			if os.IsNotExist(err) {
				return &rules, nil
			}
			return nil, fmt.Errorf("reading local outlet rules %s: %w", localPath, err)
		}
		var local Rules
		if err := yaml.Unmarshal(data, &local); err != nil {
			return nil, fmt.Errorf("parsing local outlet rules %s: %w", localPath, err)
		}
		// Local rules take precedence by being applied after the packaged
		// ones; append keeps that order.
		rules.JournalAbbreviations = append(rules.JournalAbbreviations, local.JournalAbbreviations...)
		rules.JournalVariations = append(rules.JournalVariations, local.JournalVariations...)
		rules.ConferenceAbbreviations = append(rules.ConferenceAbbreviations, local.ConferenceAbbreviations...)
	}
	return &rules, nil
}

// Apply replaces abbreviated or variant outlet names with their canonical
// form.
func (r *Rules) Apply(rec *types.Record) {
	if rec.Has("journal") {
		journal := strings.ToLower(rec.Get("journal"))
		for _, rule := range r.JournalAbbreviations {
			if strings.ToLower(rule.Abbreviation) == journal {
				rec.Set("journal", rule.Journal)
			}
		}
		journal = strings.ToLower(rec.Get("journal"))
		for _, rule := range r.JournalVariations {
			if strings.ToLower(rule.Variation) == journal {
				rec.Set("journal", rule.Journal)
			}
		}
	}

	if rec.Has("booktitle") {
		booktitle := strings.ToLower(rec.Get("booktitle"))
		for _, rule := range r.ConferenceAbbreviations {
			if strings.ToLower(rule.Abbreviation) == booktitle {
				rec.Set("booktitle", rule.Conference)
			}
		}
	}
}
