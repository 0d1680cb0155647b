// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dump

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/topaz/internal/input"
	"github.com/pdiddy/topaz/internal/logging"
	"github.com/pdiddy/topaz/pkg/types"
)

// Sink receives projected rows. The association store implements it.
type Sink interface {
	InsertTerms(ctx context.Context, rows []types.TermAccession) error
	InsertAssociations(ctx context.Context, rows []types.AssociationRow) error
	InsertGeneProducts(ctx context.Context, rows []types.GeneProduct) error
	InsertDbXrefs(ctx context.Context, rows []types.DbXref) error
	ApplyEvidence(ctx context.Context, rows []types.EvidenceRow) error
}

// LineError locates a failure in the dump.
type LineError struct {
	Line  int
	Table string
	Err   error
}

func (e *LineError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d (%s): %v", e.Line, e.Table, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// LoadOptions controls dump loading.
type LoadOptions struct {
	// BestEffort logs and skips malformed lines instead of aborting.
	// Storage failures always abort.
	BestEffort bool

	// Log receives skipped-line diagnostics. Nil discards them.
	Log logrus.FieldLogger

	// Progress receives per-table counts and the run summary. Nil
	// discards them.
	Progress io.Writer
}

// LoadSummary holds counts from one dump load.
type LoadSummary struct {
	Lines      int
	Statements int
	Skipped    int
	Ignored    int
	Rows       map[string]int
}

// Total returns the number of rows handed to the sink.
func (s LoadSummary) Total() int {
	n := 0
	for _, c := range s.Rows {
		n += c
	}
	return n
}

// HasFailures reports whether any line was skipped.
func (s LoadSummary) HasFailures() bool {
	return s.Skipped > 0
}

// Loader streams an association dump into a Sink.
type Loader struct {
	opts LoadOptions
}

// NewLoader returns a Loader with the given options.
func NewLoader(opts LoadOptions) *Loader {
	if opts.Log == nil {
		opts.Log = logging.Discard()
	}
	if opts.Progress == nil {
		opts.Progress = io.Discard
	}
	return &Loader{opts: opts}
}

// LoadFile opens path (gzip or plain, "-" for stdin) and loads it.
func (l *Loader) LoadFile(ctx context.Context, path string, sink Sink) (LoadSummary, error) {
	rc, err := input.Open(path)
	if err != nil {
		return LoadSummary{}, fmt.Errorf("opening dump %s: %w", path, err)
	}
	defer rc.Close()
	return l.Load(ctx, rc, sink)
}

// Load reads INSERT statements from r line by line. Tables other than
// term, association, gene_product, dbxref and evidence are counted as
// ignored. Evidence rows raise the rank of associations already loaded;
// mysqldump writes tables in name order so association precedes evidence.
func (l *Loader) Load(ctx context.Context, r io.Reader, sink Sink) (LoadSummary, error) {
	summary := LoadSummary{Rows: make(map[string]int)}
	br := bufio.NewReader(r)

	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		line, readErr := br.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return summary, fmt.Errorf("reading dump at line %d: %w", summary.Lines+1, readErr)
		}
		if line == "" && readErr != nil {
			break
		}
		summary.Lines++

		table, n, err := l.loadLine(ctx, strings.TrimRight(line, "\r\n"), sink)
		switch {
		case err == nil:
			if table != "" {
				summary.Statements++
				summary.Rows[table] += n
			}
		case errors.Is(err, errIgnored):
			summary.Ignored++
		case errors.Is(err, ErrMalformed) && l.opts.BestEffort:
			summary.Skipped++
			l.opts.Log.WithFields(logrus.Fields{
				"line":  summary.Lines,
				"table": table,
			}).WithError(err).Warn("skipping malformed dump line")
		default:
			return summary, &LineError{Line: summary.Lines, Table: table, Err: err}
		}

		if readErr != nil {
			break
		}
	}

	l.report(summary)
	return summary, nil
}

var errIgnored = errors.New("table ignored")

// loadLine parses one line and hands its rows to the sink. It returns
// the table name and row count for INSERT statements, and "" for other
// lines.
func (l *Loader) loadLine(ctx context.Context, line string, sink Sink) (string, int, error) {
	table, rows, ok, err := ParseInsert(line)
	if !ok {
		return "", 0, nil
	}
	if err != nil {
		return table, 0, err
	}

	switch table {
	case TableTerm:
		out, err := ProjectTerms(rows)
		if err != nil {
			return table, 0, err
		}
		return table, len(out), sink.InsertTerms(ctx, out)
	case TableAssociation:
		out, err := ProjectAssociations(rows)
		if err != nil {
			return table, 0, err
		}
		return table, len(out), sink.InsertAssociations(ctx, out)
	case TableGeneProduct:
		out, err := ProjectGeneProducts(rows)
		if err != nil {
			return table, 0, err
		}
		return table, len(out), sink.InsertGeneProducts(ctx, out)
	case TableDbXref:
		out, err := ProjectDbXrefs(rows)
		if err != nil {
			return table, 0, err
		}
		return table, len(out), sink.InsertDbXrefs(ctx, out)
	case TableEvidence:
		out, err := ProjectEvidence(rows)
		if err != nil {
			return table, 0, err
		}
		return table, len(out), sink.ApplyEvidence(ctx, out)
	}
	return table, 0, errIgnored
}

func (l *Loader) report(s LoadSummary) {
	w := l.opts.Progress
	tables := make([]string, 0, len(s.Rows))
	for t := range s.Rows {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	for _, t := range tables {
		fmt.Fprintf(w, "loaded   %s (%d rows)\n", t, s.Rows[t])
	}
	fmt.Fprintf(w, "\nlines: %d, statements: %d, rows: %d, skipped: %d, ignored: %d\n",
		s.Lines, s.Statements, s.Total(), s.Skipped, s.Ignored)
}
