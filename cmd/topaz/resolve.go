// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/topaz/internal/resolve"
	"github.com/pdiddy/topaz/pkg/types"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <accession>...",
	Short: "Look up the GO annotations of sequence accessions",
	Long: `Resolve looks up each accession as a cross-reference key, then through
its UniProt equivalent, and prints the GO terms found with their evidence
rank. An accession with no annotations is printed alone.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().String("format", "text", "output format: text, json or yaml")

	rootCmd.AddCommand(resolveCmd)
}

// resolved is one accession's lookup result.
type resolved struct {
	Accession   string             `json:"accession" yaml:"accession"`
	Annotations []types.Annotation `json:"annotations" yaml:"annotations"`
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")

	ctx := cmd.Context()
	db, err := openQueryStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	res := resolve.New(db)
	results, err := res.ResolveAll(ctx, args, cfg.Annotate.Workers)
	if err != nil {
		return err
	}

	out := make([]resolved, len(args))
	for i, acc := range args {
		out[i] = resolved{Accession: acc, Annotations: results[i]}
	}

	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "yaml":
		return writeYAML(out)
	case "text", "":
		for _, r := range out {
			terms := make([]string, len(r.Annotations))
			for i, a := range r.Annotations {
				terms[i] = fmt.Sprintf("%s(%d)", a.Accession, a.Evidence)
			}
			fmt.Fprintf(os.Stdout, "%s\t%s\n", r.Accession, strings.Join(terms, "\t"))
		}
		return nil
	}
	return fmt.Errorf("unsupported format %q: use text, json or yaml", format)
}
