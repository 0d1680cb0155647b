// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/topaz/internal/dump"
	"github.com/pdiddy/topaz/internal/idmapping"
	"github.com/pdiddy/topaz/internal/store"
	"github.com/pdiddy/topaz/pkg/types"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the association database from the GO dump and id mappings",
	Long: `Build loads the term, association, gene_product, dbxref and evidence
tables of the GO monthly MySQL dump (go_monthly-assocdb-data.gz) into a new
SQLite database, then adds accession to UniProt equivalences from UniProt
idmapping.dat and PIR idmapping.tb when given.

The database file must not exist. A failed build removes the partial file.
Malformed dump and mapping lines abort the build unless --best-effort is
set.`,
	RunE: runBuild,
}

func init() {
	f := buildCmd.Flags()
	f.String("dump", "", "GO association MySQL dump (plain or .gz)")
	f.String("uniprot", "", "UniProt idmapping.dat (plain or .gz)")
	f.String("pir", "", "PIR idmapping.tb (plain or .gz)")
	f.Bool("best-effort", false, "skip malformed dump and mapping lines instead of aborting")
	f.Int("batch-size", 0, "mapping rows per transaction (default 10000)")
	f.String("report", "", "write table counts and mapping conflicts to this .yaml or .json file")

	bindFlag("build.assoc_dump", f.Lookup("dump"))
	bindFlag("build.uniprot_mapping", f.Lookup("uniprot"))
	bindFlag("build.pir_mapping", f.Lookup("pir"))
	bindFlag("build.best_effort", f.Lookup("best-effort"))
	bindFlag("build.batch_size", f.Lookup("batch-size"))
	bindFlag("build.report", f.Lookup("report"))

	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Build.AssocDump == "" {
		return errors.New("provide the association dump with --dump or build.assoc_dump")
	}

	ctx := cmd.Context()
	db, err := store.Open(ctx, types.StoreConfig{Path: cfg.Database, Create: true})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); err == nil && cerr != nil {
			err = cerr
		}
		if err != nil {
			os.Remove(cfg.Database)
		}
	}()

	start := time.Now()
	loader := dump.NewLoader(dump.LoadOptions{
		BestEffort: cfg.Build.BestEffort,
		Log:        logger,
		Progress:   os.Stdout,
	})
	summary, err := loader.LoadFile(ctx, cfg.Build.AssocDump, db)
	if err != nil {
		return err
	}
	if summary.HasFailures() {
		logger.WithField("skipped", summary.Skipped).Warn("malformed dump lines were skipped")
	}

	mapper := idmapping.NewLoader(db, idmapping.Options{
		BatchSize:  cfg.Build.BatchSize,
		BestEffort: cfg.Build.BestEffort,
		Log:        logger,
	})
	mappings := []struct {
		path   string
		format idmapping.Format
	}{
		{cfg.Build.UniProtMapping, idmapping.FormatUniProt},
		{cfg.Build.PIRMapping, idmapping.FormatPIR},
	}
	for _, m := range mappings {
		if m.path == "" {
			continue
		}
		s, err := mapper.LoadFile(ctx, m.path, m.format)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "mapped   %s (%d accessions, %d repeated, %d conflicts, %d malformed)\n",
			m.format, s.Mapped, s.Repeated, s.Conflicts, s.Malformed)
	}

	fmt.Fprintln(os.Stdout, "indexing ...")
	if err := db.Finalize(ctx); err != nil {
		return err
	}

	info := map[string]string{
		"assoc_dump":      cfg.Build.AssocDump,
		"uniprot_mapping": cfg.Build.UniProtMapping,
		"pir_mapping":     cfg.Build.PIRMapping,
		"built_at":        time.Now().UTC().Format(time.RFC3339),
		"topaz_version":   version,
	}
	for k, v := range info {
		if err := db.SetBuildInfo(ctx, k, v); err != nil {
			return err
		}
	}

	if cfg.Build.Report != "" {
		if err := db.ExportReport(ctx, cfg.Build.Report); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "report   %s\n", cfg.Build.Report)
	}

	fmt.Fprintf(os.Stdout, "built %s in %s\n", cfg.Database, time.Since(start).Round(time.Second))
	return nil
}
