// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// EvidenceCode describes how an annotation was inferred.
type EvidenceCode struct {
	// Code is the three-letter (or two-letter) GO evidence code, e.g. "IDA".
	Code string `json:"code" yaml:"code"`

	// ID is the numeric identifier used in the association database.
	ID int `json:"id" yaml:"id"`

	// Rank is a coarse confidence score; experimental codes rank highest.
	Rank int `json:"rank" yaml:"rank"`
}

// EvidenceCodes lists every known evidence code in ID order.
var EvidenceCodes = []EvidenceCode{
	// Experimental
	{"EXP", 1, 5},
	{"IDA", 2, 5},
	{"IPI", 3, 5},
	{"IMP", 4, 5},
	{"IGI", 5, 5},
	{"IEP", 6, 3},

	// Computational analysis
	{"ISS", 7, 3},
	{"ISO", 8, 3},
	{"ISA", 9, 3},
	{"ISM", 10, 3},
	{"IGC", 11, 2},
	{"IBA", 12, 3},
	{"IBD", 13, 3},
	{"IKR", 14, 3},
	{"IRD", 15, 3},
	{"RCA", 16, 4},

	// Author statement
	{"TAS", 17, 4},
	{"NAS", 18, 3},

	// Curatorial statement
	{"IC", 19, 4},
	{"ND", 20, 1},

	// Automatically assigned
	{"IEA", 21, 1},

	// Obsolete
	{"NR", 22, 0},
}

var evidenceByCode = func() map[string]EvidenceCode {
	m := make(map[string]EvidenceCode, len(EvidenceCodes))
	for _, e := range EvidenceCodes {
		m[e.Code] = e
	}
	return m
}()

// LookupEvidence returns the EvidenceCode for a code such as "IEA".
// Matching is case-insensitive.
func LookupEvidence(code string) (EvidenceCode, bool) {
	e, ok := evidenceByCode[strings.ToUpper(strings.TrimSpace(code))]
	return e, ok
}

// AssociationRow links a gene product to a term with one evidence rank.
type AssociationRow struct {
	ID            int64
	TermID        int64
	GeneProductID int64
	Evidence      int
}

// EvidenceRow assigns an evidence rank to an association. Several rows may
// exist for the same association; the store keeps the highest rank.
type EvidenceRow struct {
	AssociationID int64
	Rank          int
}

// GeneProduct owns a single cross-reference.
type GeneProduct struct {
	ID       int64
	DbXrefID int64
}

// DbXref is an external accession used as join key.
type DbXref struct {
	ID      int64
	XrefKey string
}

// TermAccession maps the association database's numeric term id to the
// GO accession ("GO:0008150").
type TermAccession struct {
	ID        int64
	Accession string
}

// AccessionMap maps an external accession to a UniProt accession.
type AccessionMap struct {
	Accession string `json:"accession" yaml:"accession"`
	UniProt   string `json:"uniprot" yaml:"uniprot"`

	// Source names the mapping dump the row came from ("uniprot", "pir").
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
}

// MappingConflict records an accession whose sources disagree. The first
// seen mapping is kept.
type MappingConflict struct {
	Accession string `json:"accession" yaml:"accession"`
	Kept      string `json:"kept" yaml:"kept"`
	Rejected  string `json:"rejected" yaml:"rejected"`
	Source    string `json:"source" yaml:"source"`
}

// Annotation is one (term, evidence) pair produced by accession
// resolution.
type Annotation struct {
	// TermID is the association database's numeric term id.
	TermID int64 `json:"term_id" yaml:"term_id"`

	// Accession is the GO accession for TermID.
	Accession string `json:"accession" yaml:"accession"`

	// Evidence is the evidence rank.
	Evidence int `json:"evidence" yaml:"evidence"`
}
