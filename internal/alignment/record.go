// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package alignment reads tabular aligner output (BLAST -outfmt 6 and
// compatible) and groups hits by query.
package alignment

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pdiddy/topaz/pkg/types"
)

// Columns is the number of fields in a tabular alignment record.
const Columns = 12

// RecordError reports an alignment line that cannot be parsed.
type RecordError struct {
	Line    int
	Columns int
	Err     error
}

func (e *RecordError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("alignment line %d (%d columns): %v", e.Line, e.Columns, e.Err)
	}
	return fmt.Sprintf("alignment record (%d columns): %v", e.Columns, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// ParseRecord parses one whitespace-separated line of the twelve columns
// query, subject, identity, length, mismatches, gap opens, q start,
// q end, s start, s end, e-value and bit score.
func ParseRecord(line string) (types.AlignmentRecord, error) {
	f := strings.Fields(line)
	if len(f) != Columns {
		return types.AlignmentRecord{}, &RecordError{
			Columns: len(f),
			Err:     fmt.Errorf("want %d columns", Columns),
		}
	}

	rec := types.AlignmentRecord{Query: f[0], Subject: f[1]}
	p := fieldParser{fields: f}
	rec.Identity = p.atof(2)
	rec.Length = p.atoi(3)
	rec.Mismatch = p.atoi(4)
	rec.GapOpen = p.atoi(5)
	rec.QStart = p.atoi(6)
	rec.QEnd = p.atoi(7)
	rec.SStart = p.atoi(8)
	rec.SEnd = p.atoi(9)
	rec.EValue = p.atof(10)
	rec.BitScore = p.atof(11)
	if p.err != nil {
		return types.AlignmentRecord{}, &RecordError{Columns: len(f), Err: p.err}
	}
	return rec, nil
}

// fieldParser keeps the first conversion error.
type fieldParser struct {
	fields []string
	err    error
}

func (p *fieldParser) atoi(i int) int {
	if p.err != nil {
		return 0
	}
	v, err := strconv.Atoi(p.fields[i])
	if err != nil {
		p.err = fmt.Errorf("column %d: %q is not an integer", i+1, p.fields[i])
	}
	return v
}

func (p *fieldParser) atof(i int) float64 {
	if p.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(p.fields[i], 64)
	if err != nil {
		p.err = fmt.Errorf("column %d: %q is not a number", i+1, p.fields[i])
	}
	return v
}

// dbPrefixes are FASTA header database tags whose accession is the
// second |-separated field.
var dbPrefixes = map[string]bool{
	"sp": true, "tr": true, "ref": true, "gb": true,
	"emb": true, "dbj": true, "pir": true, "prf": true,
}

// SubjectAccession extracts the accession from a subject id such as
// "sp|P12345|HXK1_YEAST" or "gi|6319280|ref|NP_009362.1|". Other ids are
// returned unchanged.
func SubjectAccession(subject string) string {
	if !strings.Contains(subject, "|") {
		return subject
	}
	parts := strings.Split(subject, "|")
	switch {
	case dbPrefixes[parts[0]] && parts[1] != "":
		return parts[1]
	case parts[0] == "gi" && len(parts) >= 4 && parts[3] != "":
		return parts[3]
	}
	return subject
}
