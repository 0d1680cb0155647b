// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dump

import (
	"fmt"
	"strconv"

	"github.com/pdiddy/topaz/pkg/types"
)

// Tables read from the association dump.
const (
	TableTerm        = "term"
	TableAssociation = "association"
	TableGeneProduct = "gene_product"
	TableDbXref      = "dbxref"
	TableEvidence    = "evidence"
)

// ProjectTerms keeps id (col 0) and acc (col 3) of term rows.
func ProjectTerms(rows [][]string) ([]types.TermAccession, error) {
	out := make([]types.TermAccession, 0, len(rows))
	for i, row := range rows {
		id, err := intColumn(row, 0)
		if err != nil {
			return nil, rowError(TableTerm, i, err)
		}
		acc, err := column(row, 3)
		if err != nil {
			return nil, rowError(TableTerm, i, err)
		}
		out = append(out, types.TermAccession{ID: id, Accession: acc})
	}
	return out, nil
}

// ProjectAssociations keeps id (col 0), term_id (col 1) and
// gene_product_id (col 2). Evidence starts at zero and is raised by
// evidence rows.
func ProjectAssociations(rows [][]string) ([]types.AssociationRow, error) {
	out := make([]types.AssociationRow, 0, len(rows))
	for i, row := range rows {
		ids, err := intColumns(row, 0, 1, 2)
		if err != nil {
			return nil, rowError(TableAssociation, i, err)
		}
		out = append(out, types.AssociationRow{ID: ids[0], TermID: ids[1], GeneProductID: ids[2]})
	}
	return out, nil
}

// ProjectGeneProducts keeps id (col 0) and dbxref_id (col 2).
func ProjectGeneProducts(rows [][]string) ([]types.GeneProduct, error) {
	out := make([]types.GeneProduct, 0, len(rows))
	for i, row := range rows {
		ids, err := intColumns(row, 0, 2)
		if err != nil {
			return nil, rowError(TableGeneProduct, i, err)
		}
		out = append(out, types.GeneProduct{ID: ids[0], DbXrefID: ids[1]})
	}
	return out, nil
}

// ProjectDbXrefs keeps id (col 0) and xref_key (col 2).
func ProjectDbXrefs(rows [][]string) ([]types.DbXref, error) {
	out := make([]types.DbXref, 0, len(rows))
	for i, row := range rows {
		id, err := intColumn(row, 0)
		if err != nil {
			return nil, rowError(TableDbXref, i, err)
		}
		key, err := column(row, 2)
		if err != nil {
			return nil, rowError(TableDbXref, i, err)
		}
		out = append(out, types.DbXref{ID: id, XrefKey: key})
	}
	return out, nil
}

// ProjectEvidence maps the code (col 1) of each evidence row to its rank
// and keeps association_id (col 2). Unknown codes are malformed input.
func ProjectEvidence(rows [][]string) ([]types.EvidenceRow, error) {
	out := make([]types.EvidenceRow, 0, len(rows))
	for i, row := range rows {
		code, err := column(row, 1)
		if err != nil {
			return nil, rowError(TableEvidence, i, err)
		}
		ev, ok := types.LookupEvidence(code)
		if !ok {
			return nil, rowError(TableEvidence, i, &ParseError{Reason: fmt.Sprintf("unknown evidence code %q", code)})
		}
		assoc, err := intColumn(row, 2)
		if err != nil {
			return nil, rowError(TableEvidence, i, err)
		}
		out = append(out, types.EvidenceRow{AssociationID: assoc, Rank: ev.Rank})
	}
	return out, nil
}

func column(row []string, idx int) (string, error) {
	if idx >= len(row) {
		return "", &ParseError{Reason: fmt.Sprintf("row has %d columns, need %d", len(row), idx+1)}
	}
	return row[idx], nil
}

func intColumn(row []string, idx int) (int64, error) {
	s, err := column(row, idx)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, &ParseError{Reason: fmt.Sprintf("column %d: %q is not an integer", idx, s)}
	}
	return v, nil
}

func intColumns(row []string, idx ...int) ([]int64, error) {
	out := make([]int64, len(idx))
	for i, c := range idx {
		v, err := intColumn(row, c)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func rowError(table string, row int, err error) error {
	return fmt.Errorf("%s tuple %d: %w", table, row+1, err)
}
