// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/topaz/internal/annotate"
	"github.com/pdiddy/topaz/internal/input"
	"github.com/pdiddy/topaz/internal/ontology"
	"github.com/pdiddy/topaz/internal/resolve"
	"github.com/pdiddy/topaz/internal/retry"
	"github.com/pdiddy/topaz/internal/store"
	"github.com/pdiddy/topaz/pkg/types"
)

// annotationSuffix is appended to an alignment file name to name its
// annotation output.
const annotationSuffix = ".annot"

var annotateCmd = &cobra.Command{
	Use:   "annotate [alignment files...]",
	Short: "Assign GO terms to queries in tabular aligner output",
	Long: `Annotate reads 12-column tabular aligner output (BLAST -outfmt 6, DIAMOND,
RAPSearch2 .m8; plain or .gz), groups hits by query, and writes one line per
query:

	query<TAB>GO:0000001<TAB>GO:0000002

A query whose hits map to no terms gets a line with the query id only.
With no arguments (or "-") alignments are read from stdin. A single input
is written to --out (default stdout); several inputs are annotated in
parallel, each to <input>.annot or into --out-dir.`,
	RunE: runAnnotate,
}

func init() {
	f := annotateCmd.Flags()
	f.StringP("out", "o", "", "output file for a single input (default stdout)")
	f.String("out-dir", "", "directory for per-file output when annotating several files")
	f.Int("jobs", 1, "alignment files annotated concurrently")
	addAnnotateFlags(annotateCmd)

	rootCmd.AddCommand(annotateCmd)
}

// addAnnotateFlags registers the annotate.* flags on cmd. Only one
// command may call it, see bindFlag.
func addAnnotateFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("workers", 0, "concurrent accession lookups per query (default 1)")
	f.Int("min-evidence", 0, "drop annotations with a lower evidence rank (0-5)")
	f.String("ontology", "", "OBO file used to map alternate ids and filter terms")
	f.Bool("drop-obsolete", false, "drop obsolete terms (needs --ontology)")
	f.StringSlice("namespace", nil, "keep only these categories: BP, MF, CC (needs --ontology)")
	f.Int("retries", 0, "retries for transient database errors (default 3)")

	bindFlag("annotate.workers", f.Lookup("workers"))
	bindFlag("annotate.min_evidence", f.Lookup("min-evidence"))
	bindFlag("annotate.ontology", f.Lookup("ontology"))
	bindFlag("annotate.drop_obsolete", f.Lookup("drop-obsolete"))
	bindFlag("annotate.namespaces", f.Lookup("namespace"))
	bindFlag("annotate.retries", f.Lookup("retries"))
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	outFile, _ := cmd.Flags().GetString("out")
	outDir, _ := cmd.Flags().GetString("out-dir")
	jobs, _ := cmd.Flags().GetInt("jobs")

	if len(args) > 1 && outFile != "" {
		return errors.New("--out takes a single input; use --out-dir for several files")
	}

	ctx := cmd.Context()
	db, err := openQueryStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	a, err := newAnnotator(db, cfg.Annotate)
	if err != nil {
		return err
	}

	if len(args) <= 1 {
		in := input.Stdin
		if len(args) == 1 {
			in = args[0]
		}
		if outFile == "" && outDir == "" {
			return annotateToStdout(ctx, a, in)
		}
		if outFile == "" {
			outFile = annotationPath(in, outDir)
		}
		return annotateFiles(ctx, a, []annotate.Job{{Input: in, Output: outFile}}, 1)
	}

	var list []annotate.Job
	for _, in := range args {
		list = append(list, annotate.Job{Input: in, Output: annotationPath(in, outDir)})
	}
	return annotateFiles(ctx, a, list, jobs)
}

func annotateToStdout(ctx context.Context, a *annotate.Annotator, in string) error {
	rc, err := input.Open(in)
	if err != nil {
		return err
	}
	defer rc.Close()

	summary, err := a.Run(ctx, rc, os.Stdout)
	if err != nil {
		return err
	}
	logger.Info(summary.String())
	return nil
}

func annotateFiles(ctx context.Context, a *annotate.Annotator, jobs []annotate.Job, limit int) error {
	summaries, err := a.RunFiles(ctx, jobs, limit)
	if err != nil {
		return err
	}
	var total annotate.Summary
	for i, s := range summaries {
		fmt.Fprintf(os.Stdout, "annotated %s -> %s (%s)\n", jobs[i].Input, jobs[i].Output, s)
		total.Add(s)
	}
	if len(summaries) > 1 {
		fmt.Fprintf(os.Stdout, "\n%s\n", total)
	}
	return nil
}

// annotationPath names the output for an alignment file: <input>.annot,
// placed in dir when dir is set.
func annotationPath(in, dir string) string {
	if in == input.Stdin {
		in = "stdin"
	}
	out := in + annotationSuffix
	if dir != "" {
		out = filepath.Join(dir, filepath.Base(out))
	}
	return out
}

func openQueryStore(ctx context.Context, path string) (*store.Store, error) {
	db, err := store.Open(ctx, types.StoreConfig{Path: path})
	if err != nil {
		return nil, fmt.Errorf("opening database (run topaz build first): %w", err)
	}
	return db, nil
}

// newAnnotator wires the resolver, retry policy and optional ontology
// over db.
func newAnnotator(db *store.Store, cfg types.AnnotateConfig) (*annotate.Annotator, error) {
	res := resolve.New(db,
		resolve.WithCache(),
		resolve.WithRetry(retry.Policy{
			MaxRetries: cfg.Retries,
			Retryable:  store.IsTransient,
			Log:        logger,
		}),
	)

	opts := annotate.Options{
		Workers:      cfg.Workers,
		MinEvidence:  cfg.MinEvidence,
		DropObsolete: cfg.DropObsolete,
		Namespaces:   cfg.Namespaces,
		Log:          logger,
	}
	if cfg.Ontology != "" {
		g, err := ontology.Load(cfg.Ontology, ontology.WithDanglingPolicy(ontology.DanglingRoot))
		if err != nil {
			return nil, err
		}
		logger.WithField("terms", g.Len()).Info("loaded ontology")
		opts.Ontology = g
	}
	return annotate.New(res, opts)
}
