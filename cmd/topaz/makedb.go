// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/topaz/internal/aligner"
)

var makedbCmd = &cobra.Command{
	Use:   "makedb <proteins.fasta>",
	Short: "Format a protein FASTA file as an aligner database",
	Long: `Makedb runs makeblastdb, diamond makedb or prerapsearch on a protein FASTA
file so that "topaz align" can search it. The program defaults to
aligner.program and the database name to the FASTA path without its
extension.`,
	Args: cobra.ExactArgs(1),
	RunE: runMakeDB,
}

func init() {
	makedbCmd.Flags().String("program", "", "aligner: diamond, blast or rapsearch (default aligner.program)")
	makedbCmd.Flags().StringP("out", "o", "", "database name")

	rootCmd.AddCommand(makedbCmd)
}

func runMakeDB(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	program, _ := cmd.Flags().GetString("program")
	if program == "" {
		program = cfg.Aligner.Program
	}
	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = databaseName(args[0])
	}

	runner, err := aligner.NewRunner(program, logger)
	if err != nil {
		return err
	}
	if err := runner.MakeDB(cmd.Context(), args[0], out); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "formatted %s -> %s (%s)\n", args[0], out, runner.Program().Name())
	return nil
}

// databaseName strips a .gz suffix and then the FASTA extension.
func databaseName(fasta string) string {
	name := strings.TrimSuffix(fasta, ".gz")
	return strings.TrimSuffix(name, filepath.Ext(name))
}
