// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/topaz/pkg/types"
)

// conflictSample bounds the conflicts listed in a Report.
const conflictSample = 100

// Report summarizes a built database.
type Report struct {
	Path      string                  `json:"path" yaml:"path"`
	BuildInfo map[string]string       `json:"build_info,omitempty" yaml:"build_info,omitempty"`
	Tables    map[string]int64        `json:"tables" yaml:"tables"`
	Conflicts int64                   `json:"conflicts" yaml:"conflicts"`
	Sample    []types.MappingConflict `json:"conflict_sample,omitempty" yaml:"conflict_sample,omitempty"`
}

// Report counts the rows of every table and samples mapping conflicts.
func (s *Store) Report(ctx context.Context) (Report, error) {
	r := Report{Path: s.path, Tables: make(map[string]int64)}

	tables := make([]string, 0, len(tableColumns))
	for t := range tableColumns {
		tables = append(tables, t)
	}
	sort.Strings(tables)

	for _, t := range tables {
		var n int64
		if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM `+t).Scan(&n); err != nil {
			return Report{}, &Error{Op: "report", Err: fmt.Errorf("counting %s: %w", t, err)}
		}
		r.Tables[t] = n
	}

	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM mapping_conflict`).Scan(&r.Conflicts); err != nil {
		return Report{}, &Error{Op: "report", Err: fmt.Errorf("counting conflicts: %w", err)}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT acc, kept, rejected, source FROM mapping_conflict ORDER BY rowid LIMIT ?`, conflictSample)
	if err != nil {
		return Report{}, &Error{Op: "report", Err: err}
	}
	defer rows.Close()
	for rows.Next() {
		var c types.MappingConflict
		if err := rows.Scan(&c.Accession, &c.Kept, &c.Rejected, &c.Source); err != nil {
			return Report{}, &Error{Op: "report", Err: err}
		}
		r.Sample = append(r.Sample, c)
	}
	if err := rows.Err(); err != nil {
		return Report{}, &Error{Op: "report", Err: err}
	}

	info, err := s.buildInfo(ctx)
	if err != nil {
		return Report{}, err
	}
	r.BuildInfo = info
	return r, nil
}

func (s *Store) buildInfo(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM build_info`)
	if err != nil {
		return nil, &Error{Op: "report", Err: err}
	}
	defer rows.Close()

	info := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, &Error{Op: "report", Err: err}
		}
		info[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, &Error{Op: "report", Err: err}
	}
	if len(info) == 0 {
		return nil, nil
	}
	return info, nil
}

// ExportReport writes Report to path as JSON when the extension is .json
// and as YAML otherwise.
func (s *Store) ExportReport(ctx context.Context, path string) error {
	r, err := s.Report(ctx)
	if err != nil {
		return err
	}

	var data []byte
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(r, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
	} else {
		data, err = yaml.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}
