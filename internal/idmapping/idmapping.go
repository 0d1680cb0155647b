// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package idmapping reads the UniProt and PIR identifier mapping dumps
// and loads accession to UniProt equivalences into the store.
package idmapping

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/topaz/internal/input"
	"github.com/pdiddy/topaz/internal/logging"
	"github.com/pdiddy/topaz/pkg/types"
)

// Format selects the mapping dump layout.
type Format string

const (
	// FormatUniProt is idmapping.dat: uniprot, id type, accession.
	FormatUniProt Format = "uniprot"

	// FormatPIR is idmapping.tb: 22 tab-separated columns with the
	// UniProt accession first.
	FormatPIR Format = "pir"
)

const (
	defaultBatchSize = 10000
	pirColumns       = 22
	scannerBuffer    = 1024 * 1024
)

// excludedTypes are idmapping.dat id types that are not accession
// equivalences.
var excludedTypes = map[string]bool{
	"GI":           true,
	"NCBI_TaxID":   true,
	"GeneID":       true,
	"UniRef100":    true,
	"UniRef90":     true,
	"UniRef50":     true,
	"Gene_ORFName": true,
	"UniProtKB-ID": true,
}

// pirAccessionColumns are the idmapping.tb columns holding accessions.
var pirAccessionColumns = []int{2, 3, 5, 6, 8, 9, 13, 16, 17, 18, 20, 21}

// Sink stores mappings. It returns how many rows added a new accession
// and the rows that disagree with an earlier mapping.
type Sink interface {
	InsertAccessionMaps(ctx context.Context, rows []types.AccessionMap) (int, []types.MappingConflict, error)
}

// LineError locates a malformed line in a mapping dump.
type LineError struct {
	Source Format
	Line   int
	Err    error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("%s mapping line %d: %v", e.Source, e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// ParseUniProtLine returns the mapping on one idmapping.dat line. ok is
// false for excluded id types; err is set for lines with fewer than three
// columns.
func ParseUniProtLine(line string) (m types.AccessionMap, ok bool, err error) {
	cols := strings.Fields(line)
	if len(cols) < 3 {
		return types.AccessionMap{}, false, fmt.Errorf("expected 3 columns, got %d", len(cols))
	}
	if excludedTypes[cols[1]] {
		return types.AccessionMap{}, false, nil
	}
	return types.AccessionMap{Accession: cols[2], UniProt: cols[0], Source: string(FormatUniProt)}, true, nil
}

// ParsePIRLine returns the mappings on one idmapping.tb line. Multi-valued
// cells ("NP_1; NP_2") yield one mapping per value and empty cells none.
func ParsePIRLine(line string) ([]types.AccessionMap, error) {
	cols := strings.Split(line, "\t")
	if len(cols) != pirColumns {
		return nil, fmt.Errorf("expected %d columns, got %d", pirColumns, len(cols))
	}
	uniprot := strings.TrimSpace(cols[0])
	if uniprot == "" {
		return nil, errors.New("empty UniProt accession")
	}

	var out []types.AccessionMap
	for _, idx := range pirAccessionColumns {
		for _, acc := range strings.Split(cols[idx], ";") {
			acc = strings.TrimSpace(acc)
			if acc == "" {
				continue
			}
			out = append(out, types.AccessionMap{Accession: acc, UniProt: uniprot, Source: string(FormatPIR)})
		}
	}
	return out, nil
}

// Summary holds counts from one mapping file. Repeated counts mappings
// identical to one already kept.
type Summary struct {
	Lines     int
	Mapped    int
	Repeated  int
	Excluded  int
	Malformed int
	Conflicts int
}

// Options controls loading.
type Options struct {
	// BatchSize is the number of mappings per store transaction.
	BatchSize int

	// BestEffort logs and skips malformed lines instead of aborting.
	// Storage failures always abort.
	BestEffort bool

	Log logrus.FieldLogger
}

// Loader streams mapping dumps into a Sink.
type Loader struct {
	sink Sink
	opts Options
}

// NewLoader returns a Loader writing to sink.
func NewLoader(sink Sink, opts Options) *Loader {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.Log == nil {
		opts.Log = logging.Discard()
	}
	return &Loader{sink: sink, opts: opts}
}

// LoadFile opens path (gzip or plain) and loads it in the given format.
func (l *Loader) LoadFile(ctx context.Context, path string, format Format) (Summary, error) {
	rc, err := input.Open(path)
	if err != nil {
		return Summary{}, fmt.Errorf("opening %s mapping %s: %w", format, path, err)
	}
	defer rc.Close()
	return l.Load(ctx, rc, format)
}

// Load reads mappings from r. A malformed line aborts the load with a
// LineError unless BestEffort is set, in which case it is counted and
// skipped. Conflicts with mappings already in the store are logged and
// counted; the first-seen mapping is kept.
func (l *Loader) Load(ctx context.Context, r io.Reader, format Format) (Summary, error) {
	if format != FormatUniProt && format != FormatPIR {
		return Summary{}, fmt.Errorf("unknown mapping format %q", format)
	}

	var (
		summary Summary
		batch   = make([]types.AccessionMap, 0, l.opts.BatchSize)
	)
	log := l.opts.Log.WithField("source", string(format))

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		inserted, conflicts, err := l.sink.InsertAccessionMaps(ctx, batch)
		if err != nil {
			return err
		}
		for _, c := range conflicts {
			log.WithFields(logrus.Fields{
				"acc":      c.Accession,
				"kept":     c.Kept,
				"rejected": c.Rejected,
			}).Debug("mapping conflict")
		}
		summary.Mapped += inserted
		summary.Repeated += len(batch) - inserted - len(conflicts)
		summary.Conflicts += len(conflicts)
		batch = batch[:0]
		return nil
	}

	malformed := func(err error) error {
		if !l.opts.BestEffort {
			return &LineError{Source: format, Line: summary.Lines, Err: err}
		}
		summary.Malformed++
		log.WithField("line", summary.Lines).WithError(err).Warn("skipping malformed mapping line")
		return nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), scannerBuffer)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Lines++

		line := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}

		switch format {
		case FormatUniProt:
			m, ok, err := ParseUniProtLine(line)
			if err != nil {
				if err := malformed(err); err != nil {
					return summary, err
				}
				continue
			}
			if !ok {
				summary.Excluded++
				continue
			}
			batch = append(batch, m)
		case FormatPIR:
			ms, err := ParsePIRLine(line)
			if err != nil {
				if err := malformed(err); err != nil {
					return summary, err
				}
				continue
			}
			batch = append(batch, ms...)
		}

		if len(batch) >= l.opts.BatchSize {
			if err := flush(); err != nil {
				return summary, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return summary, fmt.Errorf("reading %s mapping: %w", format, err)
	}
	if err := flush(); err != nil {
		return summary, err
	}

	log.WithFields(logrus.Fields{
		"lines":     summary.Lines,
		"mapped":    summary.Mapped,
		"repeated":  summary.Repeated,
		"excluded":  summary.Excluded,
		"malformed": summary.Malformed,
		"conflicts": summary.Conflicts,
	}).Info("loaded accession mappings")
	return summary, nil
}
