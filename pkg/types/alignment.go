// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// AlignmentRecord is one row of 12-column tabular aligner output.
// Records are equal for deduplication when their Subject matches.
type AlignmentRecord struct {
	Query    string
	Subject  string
	Identity float64
	Length   int
	Mismatch int
	GapOpen  int
	QStart   int
	QEnd     int
	SStart   int
	SEnd     int
	EValue   float64
	BitScore float64
}

// SeqType is the query sequence alphabet handed to the aligner.
type SeqType string

const (
	SeqDNA     SeqType = "dna"
	SeqProtein SeqType = "protein"
)
