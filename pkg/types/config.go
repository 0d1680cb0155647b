// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error (default info).
	Level string `json:"level" yaml:"level"`

	// Format is text or json (default text).
	Format string `json:"format" yaml:"format"`
}

// StoreConfig holds settings for opening the association database.
type StoreConfig struct {
	// Path is the SQLite database file.
	Path string `json:"path" yaml:"path"`

	// Create builds a fresh database. Open fails if the file exists.
	Create bool `json:"create" yaml:"create"`
}

// BuildConfig holds settings for the offline database build.
type BuildConfig struct {
	// AssocDump is the GO association MySQL dump (go_monthly-assocdb-data.gz).
	AssocDump string `json:"assoc_dump" yaml:"assoc_dump"`

	// UniProtMapping is UniProt idmapping.dat(.gz).
	UniProtMapping string `json:"uniprot_mapping" yaml:"uniprot_mapping"`

	// PIRMapping is PIR idmapping.tb(.gz).
	PIRMapping string `json:"pir_mapping" yaml:"pir_mapping"`

	// BestEffort skips malformed dump lines instead of aborting the build.
	BestEffort bool `json:"best_effort" yaml:"best_effort"`

	// BatchSize is the number of mapping rows inserted per transaction
	// (default 10000).
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// Report is an optional YAML or JSON file receiving table counts and
	// mapping conflicts after the build.
	Report string `json:"report,omitempty" yaml:"report,omitempty"`
}

// AnnotateConfig holds settings for turning alignments into annotations.
type AnnotateConfig struct {
	// Workers bounds concurrent accession lookups per query group
	// (default 1).
	Workers int `json:"workers" yaml:"workers"`

	// MinEvidence drops annotations whose evidence rank is lower.
	MinEvidence int `json:"min_evidence" yaml:"min_evidence"`

	// Ontology is an optional OBO file. When set, alternate ids are mapped
	// to canonical terms and the obsolete/namespace filters apply.
	Ontology string `json:"ontology,omitempty" yaml:"ontology,omitempty"`

	// DropObsolete removes obsolete terms. Requires Ontology.
	DropObsolete bool `json:"drop_obsolete" yaml:"drop_obsolete"`

	// Namespaces restricts output to these categories. Requires Ontology.
	Namespaces []Category `json:"namespaces,omitempty" yaml:"namespaces,omitempty"`

	// Retries is the number of retries for transient storage failures.
	Retries int `json:"retries" yaml:"retries"`
}

// AlignerConfig holds settings passed to the external aligner.
type AlignerConfig struct {
	// Program is diamond, blast or rapsearch.
	Program string `json:"program" yaml:"program"`

	// DB is the protein database path.
	DB string `json:"db" yaml:"db"`

	// Threads is the aligner thread count (default 1).
	Threads int `json:"threads" yaml:"threads"`

	// EValue is the e-value cutoff (default 1e-5).
	EValue float64 `json:"evalue" yaml:"evalue"`

	// SeqType is dna or protein.
	SeqType SeqType `json:"seqtype" yaml:"seqtype"`

	// Sensitive selects the more sensitive alignment mode.
	Sensitive bool `json:"sensitive" yaml:"sensitive"`
}

// Config groups all settings for the topaz CLI.
type Config struct {
	Database string         `json:"database" yaml:"database"`
	Log      LogConfig      `json:"log" yaml:"log"`
	Build    BuildConfig    `json:"build" yaml:"build"`
	Annotate AnnotateConfig `json:"annotate" yaml:"annotate"`
	Aligner  AlignerConfig  `json:"aligner" yaml:"aligner"`
}
