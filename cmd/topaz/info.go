// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Describe a built association database",
	Long: `Info prints how the database was built, the row count of each table and
a sample of accession mapping conflicts.`,
	RunE: runInfo,
}

func init() {
	infoCmd.Flags().String("format", "text", "output format: text, json or yaml")

	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
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

	r, err := db.Report(ctx)
	if err != nil {
		return err
	}

	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		return writeYAML(r)
	case "text", "":
	default:
		return fmt.Errorf("unsupported format %q: use text, json or yaml", format)
	}

	fmt.Fprintf(os.Stdout, "database: %s\n", r.Path)
	for _, k := range sortedKeys(r.BuildInfo) {
		fmt.Fprintf(os.Stdout, "  %-16s %s\n", k, r.BuildInfo[k])
	}
	fmt.Fprintln(os.Stdout, "\ntables")
	for _, k := range sortedKeys(r.Tables) {
		fmt.Fprintf(os.Stdout, "  %-16s %d\n", k, r.Tables[k])
	}
	fmt.Fprintf(os.Stdout, "\nmapping conflicts: %d\n", r.Conflicts)
	for _, c := range r.Sample {
		fmt.Fprintf(os.Stdout, "  %s kept %s, rejected %s (%s)\n", c.Accession, c.Kept, c.Rejected, c.Source)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
