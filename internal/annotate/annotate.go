// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package annotate assigns GO terms to query sequences from their
// alignment hits.
//
// Each query group from the aligner output is deduplicated by subject,
// every subject accession is resolved to (term, evidence) pairs, and the
// union of terms is written as one line:
//
//	query<TAB>GO:0000001<TAB>GO:0000002
//
// A query whose hits resolve to nothing still gets a line ("query<TAB>").
// Queries without hits do not appear in the aligner output and so produce
// no line.
package annotate

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/topaz/internal/alignment"
	"github.com/pdiddy/topaz/internal/input"
	"github.com/pdiddy/topaz/internal/logging"
	"github.com/pdiddy/topaz/internal/ontology"
	"github.com/pdiddy/topaz/pkg/types"
)

// ErrNeedsOntology is returned when a term filter is requested without an
// ontology graph.
var ErrNeedsOntology = errors.New("obsolete and namespace filters need an ontology")

// Resolver resolves many accessions at once; *resolve.Resolver
// implements it.
type Resolver interface {
	ResolveAll(ctx context.Context, accs []string, limit int) ([][]types.Annotation, error)
}

// Options controls annotation.
type Options struct {
	// Workers bounds concurrent accession lookups within one query.
	Workers int

	// MinEvidence drops annotations with a lower evidence rank.
	MinEvidence int

	// Ontology maps alternate ids to canonical terms. Required by
	// DropObsolete and Namespaces.
	Ontology *ontology.Graph

	DropObsolete bool
	Namespaces   []types.Category

	Log logrus.FieldLogger
}

// Summary holds counts from one annotation run.
type Summary struct {
	Queries     int
	Annotated   int
	Unannotated int
	Hits        int
	Duplicates  int
}

// Add accumulates o into s.
func (s *Summary) Add(o Summary) {
	s.Queries += o.Queries
	s.Annotated += o.Annotated
	s.Unannotated += o.Unannotated
	s.Hits += o.Hits
	s.Duplicates += o.Duplicates
}

func (s Summary) String() string {
	return fmt.Sprintf("queries: %d, annotated: %d, unannotated: %d, hits: %d, duplicates: %d",
		s.Queries, s.Annotated, s.Unannotated, s.Hits, s.Duplicates)
}

// Annotator turns alignment groups into annotation lines.
type Annotator struct {
	res  Resolver
	opts Options
	ns   map[types.Category]bool
}

// New returns an Annotator using res for lookups.
func New(res Resolver, opts Options) (*Annotator, error) {
	if (opts.DropObsolete || len(opts.Namespaces) > 0) && opts.Ontology == nil {
		return nil, ErrNeedsOntology
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Log == nil {
		opts.Log = logging.Discard()
	}

	a := &Annotator{res: res, opts: opts}
	if len(opts.Namespaces) > 0 {
		a.ns = make(map[types.Category]bool, len(opts.Namespaces))
		for _, c := range opts.Namespaces {
			a.ns[c] = true
		}
	}
	return a, nil
}

// Terms returns the GO accessions for one query group in first-seen
// order after filtering.
func (a *Annotator) Terms(ctx context.Context, g alignment.Group) ([]string, error) {
	var accs []string
	for _, r := range g.Records {
		acc := alignment.SubjectAccession(r.Subject)
		if !slices.Contains(accs, acc) {
			accs = append(accs, acc)
		}
	}

	results, err := a.res.ResolveAll(ctx, accs, a.opts.Workers)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", g.Query, err)
	}

	seen := make(map[string]bool)
	var terms []string
	for _, anns := range results {
		for _, ann := range anns {
			id, ok := a.keep(ann)
			if !ok || seen[id] {
				continue
			}
			seen[id] = true
			terms = append(terms, id)
		}
	}
	return terms, nil
}

// keep applies the filters and returns the accession to emit.
func (a *Annotator) keep(ann types.Annotation) (string, bool) {
	if ann.Accession == "" {
		a.opts.Log.WithField("term_id", ann.TermID).Debug("term id without accession")
		return "", false
	}
	if ann.Evidence < a.opts.MinEvidence {
		return "", false
	}

	g := a.opts.Ontology
	if g == nil {
		return ann.Accession, true
	}
	id, ok := g.Canonical(ann.Accession)
	if !ok {
		// Unknown to the ontology: only a namespace filter can reject it.
		return ann.Accession, a.ns == nil
	}
	term, _ := g.Get(id)
	if a.opts.DropObsolete && term.Obsolete {
		return "", false
	}
	if a.ns != nil && !a.ns[term.Category] {
		return "", false
	}
	return id, true
}

// Run annotates every query group read from r and writes one line per
// query to w.
func (a *Annotator) Run(ctx context.Context, r io.Reader, w io.Writer) (Summary, error) {
	var summary Summary
	bw := bufio.NewWriter(w)
	grouper := alignment.NewGrouper(r)

	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		g, err := grouper.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return summary, err
		}

		terms, err := a.Terms(ctx, g)
		if err != nil {
			return summary, err
		}

		summary.Queries++
		summary.Hits += len(g.Records)
		summary.Duplicates += g.Duplicates
		if len(terms) > 0 {
			summary.Annotated++
		} else {
			summary.Unannotated++
		}

		if _, err := fmt.Fprintf(bw, "%s\t%s\n", g.Query, strings.Join(terms, "\t")); err != nil {
			return summary, fmt.Errorf("writing annotation: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return summary, fmt.Errorf("writing annotation: %w", err)
	}
	return summary, nil
}

// Job pairs an alignment file with its annotation output file.
type Job struct {
	Input  string
	Output string
}

// RunFiles annotates several alignment files, at most limit at a time.
// Each file gets its own Grouper. The returned summaries are parallel to
// jobs.
func (a *Annotator) RunFiles(ctx context.Context, jobs []Job, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 1
	}
	summaries := make([]Summary, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, job := range jobs {
		g.Go(func() error {
			s, err := a.runFile(gctx, job)
			if err != nil {
				return fmt.Errorf("%s: %w", job.Input, err)
			}
			summaries[i] = s
			a.opts.Log.WithFields(logrus.Fields{
				"input":       job.Input,
				"output":      job.Output,
				"queries":     s.Queries,
				"annotated":   s.Annotated,
				"unannotated": s.Unannotated,
			}).Info("annotated alignment file")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summaries, nil
}

func (a *Annotator) runFile(ctx context.Context, job Job) (Summary, error) {
	in, err := input.Open(job.Input)
	if err != nil {
		return Summary{}, err
	}
	defer in.Close()

	out, err := os.Create(job.Output)
	if err != nil {
		return Summary{}, fmt.Errorf("creating output: %w", err)
	}

	s, err := a.Run(ctx, in, out)
	if cerr := out.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("closing output: %w", cerr)
	}
	return s, err
}
