// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pdiddy/topaz/internal/ontology"
	"github.com/pdiddy/topaz/pkg/types"
)

var ontologyCmd = &cobra.Command{
	Use:   "ontology <file.obo>",
	Short: "Load an OBO ontology and print its shape",
	Long: `Ontology parses a GO OBO file (plain or .gz), links every term to its
is_a parents, computes levels and depths, and prints term counts per
category and per level. It fails on cycles, and on is_a edges to unknown
terms unless --dangling=root.`,
	Args: cobra.ExactArgs(1),
	RunE: runOntology,
}

func init() {
	ontologyCmd.Flags().String("dangling", "error", "unresolved is_a parents: error or root")
	ontologyCmd.Flags().String("format", "text", "output format: text, json or yaml")

	rootCmd.AddCommand(ontologyCmd)
}

func runOntology(cmd *cobra.Command, args []string) error {
	dangling, _ := cmd.Flags().GetString("dangling")
	format, _ := cmd.Flags().GetString("format")

	var policy ontology.DanglingPolicy
	switch dangling {
	case "error":
		policy = ontology.DanglingError
	case "root":
		policy = ontology.DanglingRoot
	default:
		return fmt.Errorf("unsupported dangling policy %q: use error or root", dangling)
	}

	g, err := ontology.Load(args[0], ontology.WithDanglingPolicy(policy))
	if err != nil {
		return err
	}
	stats := g.Stats()

	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	case "yaml":
		return writeYAML(stats)
	case "text", "":
		printStats(stats)
		return nil
	}
	return fmt.Errorf("unsupported format %q: use text, json or yaml", format)
}

func printStats(s ontology.Stats) {
	fmt.Fprintf(os.Stdout, "terms:     %d\n", s.Terms)
	fmt.Fprintf(os.Stdout, "obsolete:  %d\n", s.Obsolete)
	fmt.Fprintf(os.Stdout, "roots:     %d\n", s.Roots)
	fmt.Fprintf(os.Stdout, "max depth: %d\n", s.MaxDepth)

	fmt.Fprintln(os.Stdout, "\ncategory")
	for _, c := range []types.Category{
		types.CategoryBiologicalProcess,
		types.CategoryMolecularFunction,
		types.CategoryCellularComponent,
	} {
		fmt.Fprintf(os.Stdout, "  %-4s %d\n", c, s.ByCategory[c])
	}

	levels := make([]int, 0, len(s.ByLevel))
	for l := range s.ByLevel {
		levels = append(levels, l)
	}
	sort.Ints(levels)
	fmt.Fprintln(os.Stdout, "\nlevel")
	for _, l := range levels {
		fmt.Fprintf(os.Stdout, "  %-4d %d\n", l, s.ByLevel[l])
	}
}
