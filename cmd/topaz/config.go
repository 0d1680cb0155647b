// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/topaz/pkg/types"
)

const (
	defaultDatabase   = "topaz.db"
	defaultBatchSize  = 10000
	defaultAligner    = "diamond"
	defaultEValue     = 1e-5
	defaultLogLevel   = "info"
	defaultLogFormat  = "text"
	defaultMaxRetries = 3
)

func setDefaults() {
	viper.SetDefault("database", defaultDatabase)
	viper.SetDefault("log.level", defaultLogLevel)
	viper.SetDefault("log.format", defaultLogFormat)
	viper.SetDefault("build.batch_size", defaultBatchSize)
	viper.SetDefault("annotate.workers", 1)
	viper.SetDefault("annotate.retries", defaultMaxRetries)
	viper.SetDefault("aligner.program", defaultAligner)
	viper.SetDefault("aligner.threads", 1)
	viper.SetDefault("aligner.evalue", defaultEValue)
	viper.SetDefault("aligner.seqtype", string(types.SeqDNA))
}

// bindFlag binds a flag to a viper key. Every key is bound by one command
// only, since a later BindPFlag on the same key replaces the earlier one.
func bindFlag(key string, f *pflag.Flag) {
	if err := viper.BindPFlag(key, f); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", key, err))
	}
}

// loadConfig assembles the effective configuration from defaults, the
// config file, TOPAZ_* environment variables and flags.
func loadConfig() (types.Config, error) {
	cfg := types.Config{
		Database: viper.GetString("database"),
		Log: types.LogConfig{
			Level:  viper.GetString("log.level"),
			Format: viper.GetString("log.format"),
		},
		Build: types.BuildConfig{
			AssocDump:      viper.GetString("build.assoc_dump"),
			UniProtMapping: viper.GetString("build.uniprot_mapping"),
			PIRMapping:     viper.GetString("build.pir_mapping"),
			BestEffort:     viper.GetBool("build.best_effort"),
			BatchSize:      viper.GetInt("build.batch_size"),
			Report:         viper.GetString("build.report"),
		},
		Annotate: types.AnnotateConfig{
			Workers:      viper.GetInt("annotate.workers"),
			MinEvidence:  viper.GetInt("annotate.min_evidence"),
			Ontology:     viper.GetString("annotate.ontology"),
			DropObsolete: viper.GetBool("annotate.drop_obsolete"),
			Retries:      viper.GetInt("annotate.retries"),
		},
		Aligner: types.AlignerConfig{
			Program:   viper.GetString("aligner.program"),
			DB:        viper.GetString("aligner.db"),
			Threads:   viper.GetInt("aligner.threads"),
			EValue:    viper.GetFloat64("aligner.evalue"),
			SeqType:   types.SeqType(viper.GetString("aligner.seqtype")),
			Sensitive: viper.GetBool("aligner.sensitive"),
		},
	}

	for _, ns := range viper.GetStringSlice("annotate.namespaces") {
		c, err := types.ParseCategory(ns)
		if err != nil {
			return types.Config{}, fmt.Errorf("annotate.namespaces: %w", err)
		}
		cfg.Annotate.Namespaces = append(cfg.Annotate.Namespaces, c)
	}

	switch cfg.Aligner.SeqType {
	case types.SeqDNA, types.SeqProtein:
	default:
		return types.Config{}, fmt.Errorf("aligner.seqtype %q: want dna or protein", cfg.Aligner.SeqType)
	}
	return cfg, nil
}
