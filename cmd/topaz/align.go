// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/topaz/internal/aligner"
	"github.com/pdiddy/topaz/internal/annotate"
)

var alignCmd = &cobra.Command{
	Use:   "align <query.fasta>",
	Short: "Run an external aligner against a protein database",
	Long: `Align runs DIAMOND, BLAST+ (blastx/blastp) or RAPSearch2 on a FASTA file
and leaves 12-column tabular output at --out (default
<program>_aligned_to_<db>.out). The database must already be formatted for
the chosen program.

With --annotate the alignment is annotated right away using the annotate.*
settings from the config file or TOPAZ_ANNOTATE_* variables, and the
annotation is written to <out>.annot.`,
	Args: cobra.ExactArgs(1),
	RunE: runAlign,
}

func init() {
	f := alignCmd.Flags()
	f.String("program", "", "aligner: diamond, blast or rapsearch (default diamond)")
	f.String("db", "", "protein database formatted for the aligner")
	f.Int("threads", 0, "aligner threads (default 1)")
	f.Float64("evalue", 0, "e-value cutoff (default 1e-5)")
	f.String("seqtype", "", "query sequence type: dna or protein (default dna)")
	f.Bool("sensitive", false, "use the aligner's more sensitive mode")
	f.StringP("out", "o", "", "alignment output file")
	f.Bool("annotate", false, "annotate the alignment after it completes")

	bindFlag("aligner.program", f.Lookup("program"))
	bindFlag("aligner.db", f.Lookup("db"))
	bindFlag("aligner.threads", f.Lookup("threads"))
	bindFlag("aligner.evalue", f.Lookup("evalue"))
	bindFlag("aligner.seqtype", f.Lookup("seqtype"))
	bindFlag("aligner.sensitive", f.Lookup("sensitive"))

	rootCmd.AddCommand(alignCmd)
}

func runAlign(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Aligner.DB == "" {
		return errors.New("provide the protein database with --db or aligner.db")
	}
	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = aligner.DefaultOutput(cfg.Aligner.Program, cfg.Aligner.DB)
	}
	withAnnotation, _ := cmd.Flags().GetBool("annotate")

	runner, err := aligner.NewRunner(cfg.Aligner.Program, logger)
	if err != nil {
		return err
	}
	job := aligner.JobFromConfig(cfg.Aligner, args[0], out)
	if !runner.Available(job) {
		return fmt.Errorf("%s is not installed or not on PATH", runner.Program().Name())
	}

	ctx := cmd.Context()
	if err := runner.Run(ctx, job); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "aligned  %s -> %s\n", args[0], out)

	if !withAnnotation {
		return nil
	}

	db, err := openQueryStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	a, err := newAnnotator(db, cfg.Annotate)
	if err != nil {
		return err
	}
	return annotateFiles(ctx, a, []annotate.Job{{Input: out, Output: annotationPath(out, "")}}, 1)
}
