// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pdiddy/topaz/pkg/types"
)

// Tables accepted by BulkInsert and their column order.
var tableColumns = map[string][]string{
	"term":         {"id", "acc"},
	"association":  {"id", "term_id", "gene_product_id", "evidence"},
	"gene_product": {"id", "dbxref_id"},
	"dbxref":       {"id", "xref_key"},
	"acc2uniprot":  {"acc", "uniprot"},
}

// BulkInsert inserts rows into table inside one transaction using a
// prepared statement. Each row must match the table's column order.
func (s *Store) BulkInsert(ctx context.Context, table string, rows [][]any) error {
	op := "insert " + table
	if s.readOnly {
		return &Error{Op: op, Err: ErrReadOnly}
	}
	cols, ok := tableColumns[table]
	if !ok {
		return &Error{Op: op, Err: ErrUnknownTable}
	}
	if len(rows) == 0 {
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		table, strings.Join(cols, ", "), placeholders(len(cols)))

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("preparing insert: %w", err)
		}
		defer stmt.Close()

		for i, row := range rows {
			if len(row) != len(cols) {
				return fmt.Errorf("row %d has %d values, want %d", i+1, len(row), len(cols))
			}
			if _, err := stmt.ExecContext(ctx, row...); err != nil {
				return fmt.Errorf("row %d: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		return &Error{Op: op, Err: err}
	}
	return nil
}

// InsertTerms stores term id to accession rows and makes them visible to
// TermAccession.
func (s *Store) InsertTerms(ctx context.Context, rows []types.TermAccession) error {
	vals := make([][]any, len(rows))
	for i, r := range rows {
		vals[i] = []any{r.ID, r.Accession}
	}
	if err := s.BulkInsert(ctx, "term", vals); err != nil {
		return err
	}

	s.mu.Lock()
	for _, r := range rows {
		s.terms[r.ID] = r.Accession
	}
	s.mu.Unlock()
	return nil
}

// InsertAssociations stores association rows.
func (s *Store) InsertAssociations(ctx context.Context, rows []types.AssociationRow) error {
	vals := make([][]any, len(rows))
	for i, r := range rows {
		vals[i] = []any{r.ID, r.TermID, r.GeneProductID, r.Evidence}
	}
	return s.BulkInsert(ctx, "association", vals)
}

// InsertGeneProducts stores gene product rows.
func (s *Store) InsertGeneProducts(ctx context.Context, rows []types.GeneProduct) error {
	vals := make([][]any, len(rows))
	for i, r := range rows {
		vals[i] = []any{r.ID, r.DbXrefID}
	}
	return s.BulkInsert(ctx, "gene_product", vals)
}

// InsertDbXrefs stores cross-reference rows.
func (s *Store) InsertDbXrefs(ctx context.Context, rows []types.DbXref) error {
	vals := make([][]any, len(rows))
	for i, r := range rows {
		vals[i] = []any{r.ID, r.XrefKey}
	}
	return s.BulkInsert(ctx, "dbxref", vals)
}

// ApplyEvidence raises each association's evidence rank to the row's rank
// when it is higher. Rows for unknown associations are ignored.
func (s *Store) ApplyEvidence(ctx context.Context, rows []types.EvidenceRow) error {
	const op = "apply evidence"
	if s.readOnly {
		return &Error{Op: op, Err: ErrReadOnly}
	}
	if len(rows) == 0 {
		return nil
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`UPDATE association SET evidence = max(evidence, ?) WHERE id = ?`)
		if err != nil {
			return fmt.Errorf("preparing update: %w", err)
		}
		defer stmt.Close()

		for _, r := range rows {
			if _, err := stmt.ExecContext(ctx, r.Rank, r.AssociationID); err != nil {
				return fmt.Errorf("association %d: %w", r.AssociationID, err)
			}
		}
		return nil
	})
	if err != nil {
		return &Error{Op: op, Err: err}
	}
	return nil
}

// InsertAccessionMaps adds accession to UniProt mappings. The first
// mapping seen for an accession (case-insensitive) is kept. A later row
// naming a different UniProt accession is recorded in mapping_conflict
// and returned; a repeat of the kept mapping is not a conflict. inserted
// counts the rows that added a new accession.
func (s *Store) InsertAccessionMaps(ctx context.Context, rows []types.AccessionMap) (inserted int, conflicts []types.MappingConflict, err error) {
	const op = "insert accession maps"
	if s.readOnly {
		return 0, nil, &Error{Op: op, Err: ErrReadOnly}
	}
	if len(rows) == 0 {
		return 0, nil, nil
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		insert, err := tx.PrepareContext(ctx,
			`INSERT INTO acc2uniprot (acc, uniprot) VALUES (?, ?) ON CONFLICT(acc) DO NOTHING`)
		if err != nil {
			return fmt.Errorf("preparing insert: %w", err)
		}
		defer insert.Close()

		existing, err := tx.PrepareContext(ctx, `SELECT uniprot FROM acc2uniprot WHERE acc = ?`)
		if err != nil {
			return fmt.Errorf("preparing select: %w", err)
		}
		defer existing.Close()

		record, err := tx.PrepareContext(ctx,
			`INSERT INTO mapping_conflict (acc, kept, rejected, source) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("preparing conflict insert: %w", err)
		}
		defer record.Close()

		for _, r := range rows {
			res, err := insert.ExecContext(ctx, r.Accession, r.UniProt)
			if err != nil {
				return fmt.Errorf("accession %s: %w", r.Accession, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("accession %s: %w", r.Accession, err)
			}
			if n > 0 {
				inserted++
				continue
			}

			var kept string
			if err := existing.QueryRowContext(ctx, r.Accession).Scan(&kept); err != nil {
				return fmt.Errorf("accession %s: %w", r.Accession, err)
			}
			if strings.EqualFold(kept, r.UniProt) {
				continue
			}

			c := types.MappingConflict{Accession: r.Accession, Kept: kept, Rejected: r.UniProt, Source: r.Source}
			if _, err := record.ExecContext(ctx, c.Accession, c.Kept, c.Rejected, c.Source); err != nil {
				return fmt.Errorf("recording conflict for %s: %w", r.Accession, err)
			}
			conflicts = append(conflicts, c)
		}
		return nil
	})
	if err != nil {
		return 0, nil, &Error{Op: op, Err: err}
	}
	return inserted, conflicts, nil
}

func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
