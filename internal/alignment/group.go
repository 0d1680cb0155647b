// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package alignment

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"github.com/pdiddy/topaz/pkg/types"
)

const scannerBuffer = 1024 * 1024

// Group holds the deduplicated hits of one query.
type Group struct {
	Query      string
	Records    []types.AlignmentRecord
	Duplicates int
}

// Dedup keeps the first record per subject in input order. Coordinates
// and scores are not compared.
func Dedup(records []types.AlignmentRecord) []types.AlignmentRecord {
	seen := make(map[string]bool, len(records))
	out := make([]types.AlignmentRecord, 0, len(records))
	for _, r := range records {
		if seen[r.Subject] {
			continue
		}
		seen[r.Subject] = true
		out = append(out, r)
	}
	return out
}

// Grouper streams groups from alignment output sorted by query. Records
// of one query must be contiguous; a query that reappears later starts a
// new group. Blank lines and lines starting with '#' are skipped.
type Grouper struct {
	scanner *bufio.Scanner
	line    int
	pending *types.AlignmentRecord
	err     error
}

// NewGrouper returns a Grouper reading from r.
func NewGrouper(r io.Reader) *Grouper {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), scannerBuffer)
	return &Grouper{scanner: s}
}

// Next returns the next group, or io.EOF when the input is exhausted.
// Input with no records yields io.EOF without a group.
func (g *Grouper) Next() (Group, error) {
	if g.err != nil {
		return Group{}, g.err
	}

	var records []types.AlignmentRecord
	if g.pending != nil {
		records = append(records, *g.pending)
		g.pending = nil
	}

	for {
		rec, err := g.read()
		if errors.Is(err, io.EOF) {
			g.err = io.EOF
			break
		}
		if err != nil {
			g.err = err
			return Group{}, err
		}
		if len(records) > 0 && rec.Query != records[0].Query {
			g.pending = &rec
			break
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return Group{}, io.EOF
	}
	kept := Dedup(records)
	return Group{
		Query:      records[0].Query,
		Records:    kept,
		Duplicates: len(records) - len(kept),
	}, nil
}

// Line returns the number of lines read so far.
func (g *Grouper) Line() int { return g.line }

func (g *Grouper) read() (types.AlignmentRecord, error) {
	for g.scanner.Scan() {
		g.line++
		text := strings.TrimSpace(g.scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		rec, err := ParseRecord(text)
		if err != nil {
			var re *RecordError
			if errors.As(err, &re) {
				re.Line = g.line
			}
			return types.AlignmentRecord{}, err
		}
		return rec, nil
	}
	if err := g.scanner.Err(); err != nil {
		return types.AlignmentRecord{}, err
	}
	return types.AlignmentRecord{}, io.EOF
}
