// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ontology parses Gene Ontology OBO files and holds the term DAG
// with derived children, level and depth.
package ontology

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/topaz/internal/input"
	"github.com/pdiddy/topaz/pkg/types"
)

const (
	scannerBufferSize = 1 << 20 // 1 MB
	initialTerms      = 50000   // go-basic.obo has ~48k terms
)

// stanza markers, compared case-insensitively
const (
	stanzaTerm    = "[term]"
	stanzaTypedef = "[typedef]"
)

// ParseOBO reads [Term] stanzas from r. Parsing stops at the first
// [Typedef] stanza, which marks the end of the terms in GO releases. Other
// stanzas are skipped, as are unrecognized fields.
func ParseOBO(r io.Reader) ([]types.Term, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, scannerBufferSize), scannerBufferSize)

	terms := make([]types.Term, 0, initialTerms)

	var (
		cur      *types.Term
		curLine  int
		lineNo   int
		skipping bool
	)

	flush := func() error {
		if cur == nil {
			return nil
		}
		if cur.ID == "" {
			return &ParseError{Line: curLine, Err: ErrMissingID}
		}
		terms = append(terms, *cur)
		cur = nil
		return nil
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '!' {
			continue
		}

		if line[0] == '[' {
			if err := flush(); err != nil {
				return nil, err
			}
			switch strings.ToLower(line) {
			case stanzaTerm:
				cur = &types.Term{}
				curLine = lineNo
				skipping = false
			case stanzaTypedef:
				return terms, nil
			default:
				skipping = true
			}
			continue
		}

		if cur == nil || skipping {
			continue
		}

		key, val, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		if err := applyField(cur, key, val); err != nil {
			return nil, &ParseError{Line: lineNo, Err: err}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading obo: %w", err)
	}

	if err := flush(); err != nil {
		return nil, err
	}
	return terms, nil
}

func applyField(t *types.Term, key, val string) error {
	switch key {
	case "id":
		t.ID = val
	case "name":
		t.Name = val
	case "namespace":
		c, err := types.CategoryFromNamespace(val)
		if err != nil {
			return err
		}
		t.Category = c
	case "is_a":
		// "GO:0008150 ! biological_process": only the id is kept.
		fields := strings.Fields(val)
		if len(fields) == 0 {
			return fmt.Errorf("empty is_a value")
		}
		t.AddParent(fields[0])
	case "is_obsolete":
		t.Obsolete = val == "true"
	case "alt_id":
		t.AddAltID(val)
	}
	return nil
}

// Load reads an OBO file (optionally gzipped), builds the graph and
// completes it.
func Load(path string, opts ...Option) (*Graph, error) {
	rc, err := input.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening ontology %s: %w", path, err)
	}
	defer rc.Close()

	terms, err := ParseOBO(rc)
	if err != nil {
		return nil, fmt.Errorf("parsing ontology %s: %w", path, err)
	}

	g := NewGraph(opts...)
	for _, t := range terms {
		if err := g.Add(t); err != nil {
			return nil, err
		}
	}
	if err := g.Complete(); err != nil {
		return nil, err
	}
	return g, nil
}
