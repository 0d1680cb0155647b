// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the topaz CLI.
//
// topaz builds a SQLite association database from the GO monthly MySQL
// dump and the UniProt/PIR identifier mappings, then annotates aligner
// output with GO terms.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/topaz/internal/logging"
)

// version is set at build time via ldflags.
var version = "dev"

// logger is configured from log.* settings before any subcommand runs.
var logger logrus.FieldLogger = logging.Discard()

// rootCmd is the base command for the topaz CLI.
var rootCmd = &cobra.Command{
	Use:   "topaz",
	Short: "Gene Ontology annotation of aligned sequences",
	Long: `topaz assigns Gene Ontology terms to query sequences from the hits an
external aligner (DIAMOND, BLAST+, RAPSearch2) found in a protein database.

Build the association database once with "topaz build", then run
"topaz annotate" on tabular aligner output, or "topaz align --annotate"
to do both steps in one go.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		l, err := logging.New(cfg.Log)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./topaz.yaml or ~/.config/topaz/config.yaml)")
	pf.String("database", "", "association database file (default topaz.db)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: text or json")

	bindFlag("database", pf.Lookup("database"))
	bindFlag("log.level", pf.Lookup("log-level"))
	bindFlag("log.format", pf.Lookup("log-format"))
	setDefaults()
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile == "" {
		cfgFile = defaultConfigFile()
	}
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	viper.SetEnvPrefix("TOPAZ")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// defaultConfigFile returns ./topaz.yaml if it exists, else
// ~/.config/topaz/config.yaml if that exists, else "".
func defaultConfigFile() string {
	candidates := []string{"topaz.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "topaz", "config.yaml"))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
