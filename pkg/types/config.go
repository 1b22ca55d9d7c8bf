// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network
// requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "review-engine/0.1"). API operators ask for a contact address,
	// which is appended from Email where configured.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ProjectConfig holds the file layout of a review project.
type ProjectConfig struct {
	// RecordsFile is the dataset file holding all records (default "records.yaml").
	RecordsFile string `json:"records_file" yaml:"records_file"`

	// SearchDir contains the search result files to import (default "search").
	SearchDir string `json:"search_dir" yaml:"search_dir"`

	// PDFDir is where acquired PDFs are stored (default "pdfs").
	PDFDir string `json:"pdf_dir" yaml:"pdf_dir"`

	// ScreenFile is the screening table (default "screen.csv").
	ScreenFile string `json:"screen_file" yaml:"screen_file"`

	// DataFile is the data extraction table (default "data.csv").
	DataFile string `json:"data_file" yaml:"data_file"`

	// OutputDir receives profile exports (default "output").
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// GitConfig holds commit authoring settings.
type GitConfig struct {
	// Actor is the committer name used for operation commits.
	Actor string `json:"actor" yaml:"actor"`

	// Email is the committer email.
	Email string `json:"email" yaml:"email"`

	// TrackPDFs controls whether acquired PDFs are staged in git.
	TrackPDFs bool `json:"track_pdfs" yaml:"track_pdfs"`
}

// PrepConfig holds settings for the metadata preparation stage.
type PrepConfig struct {
	HTTPConfig `yaml:",inline"`

	// BatchSize is the number of records prepared per commit (default 500).
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// Email is the contact address sent to Crossref and DBLP.
	Email string `json:"email,omitempty" yaml:"email,omitempty"`

	// EnableCrossref controls DOI lookup via the Crossref REST API.
	EnableCrossref bool `json:"enable_crossref" yaml:"enable_crossref"`

	// EnableDBLP controls metadata lookup via the DBLP publication API.
	EnableDBLP bool `json:"enable_dblp" yaml:"enable_dblp"`

	// APIDelay is the pause between consecutive API calls (default 1s).
	APIDelay time.Duration `json:"api_delay" yaml:"api_delay"`
}

// SameSourceMergePolicy controls how merges of records that share a search
// source are handled during deduplication.
type SameSourceMergePolicy string

const (
	SameSourceApply   SameSourceMergePolicy = "apply"
	SameSourceWarn    SameSourceMergePolicy = "warn"
	SameSourcePrevent SameSourceMergePolicy = "prevent"
)

// DedupeConfig holds settings for the deduplication stage.
type DedupeConfig struct {
	// MergeThreshold is the similarity above which a pair is merged
	// automatically (default 0.95).
	MergeThreshold float64 `json:"merge_threshold" yaml:"merge_threshold"`

	// SameSourceMerges is the policy for merges within one source:
	// apply, warn, or prevent (default prevent).
	SameSourceMerges SameSourceMergePolicy `json:"same_source_merges" yaml:"same_source_merges"`
}

// PDFConfig holds settings for PDF acquisition.
type PDFConfig struct {
	HTTPConfig `yaml:",inline"`

	// Email is the contact address sent to the Unpaywall API.
	Email string `json:"email,omitempty" yaml:"email,omitempty"`

	// DownloadDelay is the pause between consecutive downloads (default 1s).
	DownloadDelay time.Duration `json:"download_delay" yaml:"download_delay"`

	// HashImage is the container image used to fingerprint PDFs.
	HashImage string `json:"hash_image" yaml:"hash_image"`

	// HashPage is the page rendered for the fingerprint (default 1).
	HashPage int `json:"hash_page" yaml:"hash_page"`

	// HashSize is the fingerprint edge length in bits (default 32).
	HashSize int `json:"hash_size" yaml:"hash_size"`
}

// IndexConfig holds settings for the local record index.
type IndexConfig struct {
	// IndexDir is the directory holding the index database
	// (default "~/.local/share/review-engine").
	IndexDir string `json:"index_dir" yaml:"index_dir"`

	// MaxResults is the default maximum number of search results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// Config groups all stage configurations.
type Config struct {
	Project ProjectConfig `json:"project" yaml:"project"`
	Git     GitConfig     `json:"git" yaml:"git"`
	Prep    PrepConfig    `json:"prep" yaml:"prep"`
	Dedupe  DedupeConfig  `json:"dedupe" yaml:"dedupe"`
	PDF     PDFConfig     `json:"pdf" yaml:"pdf"`
	Index   IndexConfig   `json:"index" yaml:"index"`
}

// DefaultConfig returns the configuration used when no config file is
// present.
func DefaultConfig() Config {
	return Config{
		Project: ProjectConfig{
			RecordsFile: "records.yaml",
			SearchDir:   "search",
			PDFDir:      "pdfs",
			ScreenFile:  "screen.csv",
			DataFile:    "data.csv",
			OutputDir:   "output",
		},
		Git: GitConfig{
			Actor: "review-engine",
		},
		Prep: PrepConfig{
			HTTPConfig:     HTTPConfig{Timeout: 30 * time.Second, UserAgent: "review-engine/0.1"},
			BatchSize:      500,
			EnableCrossref: true,
			EnableDBLP:     true,
			APIDelay:       time.Second,
		},
		Dedupe: DedupeConfig{
			MergeThreshold:   0.95,
			SameSourceMerges: SameSourcePrevent,
		},
		PDF: PDFConfig{
			HTTPConfig:    HTTPConfig{Timeout: 60 * time.Second, UserAgent: "review-engine/0.1"},
			DownloadDelay: time.Second,
			HashImage:     "review-engine/pdf-hash:latest",
			HashPage:      1,
			HashSize:      32,
		},
		Index: IndexConfig{
			MaxResults: 20,
		},
	}
}
