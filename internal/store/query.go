// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/pdiddy/topaz/pkg/types"
)

const (
	lookupXrefQuery = `SELECT DISTINCT a.term_id, a.evidence
		FROM association a
		JOIN gene_product g ON g.id = a.gene_product_id
		JOIN dbxref d ON d.id = g.dbxref_id
		WHERE d.xref_key = ?
		ORDER BY a.term_id, a.evidence`

	lookupUniProtQuery = `SELECT uniprot FROM acc2uniprot WHERE acc = ? LIMIT 1`
)

// LookupByXrefKey returns the (term, evidence) pairs of every association
// whose gene product carries the cross-reference key. Matching is
// case-insensitive and pairs are distinct. An unknown key yields an empty
// result, not an error.
func (s *Store) LookupByXrefKey(ctx context.Context, key string) ([]types.Annotation, error) {
	rows, err := s.db.QueryContext(ctx, lookupXrefQuery, key)
	if err != nil {
		return nil, &Error{Op: "lookup xref", Err: err}
	}
	defer rows.Close()

	var out []types.Annotation
	for rows.Next() {
		var a types.Annotation
		if err := rows.Scan(&a.TermID, &a.Evidence); err != nil {
			return nil, &Error{Op: "lookup xref", Err: err}
		}
		a.Accession, _ = s.TermAccession(a.TermID)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, &Error{Op: "lookup xref", Err: err}
	}
	return out, nil
}

// LookupUniProt maps an external accession to its UniProt accession.
// Matching is case-insensitive.
func (s *Store) LookupUniProt(ctx context.Context, acc string) (string, bool, error) {
	var uniprot string
	err := s.db.QueryRowContext(ctx, lookupUniProtQuery, acc).Scan(&uniprot)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &Error{Op: "lookup uniprot", Err: err}
	}
	return uniprot, true, nil
}
