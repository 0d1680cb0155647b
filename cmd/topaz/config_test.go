// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/topaz/pkg/types"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, defaultDatabase, cfg.Database)
	assert.Equal(t, types.LogConfig{Level: "info", Format: "text"}, cfg.Log)
	assert.Equal(t, defaultBatchSize, cfg.Build.BatchSize)
	assert.Equal(t, 1, cfg.Annotate.Workers)
	assert.Equal(t, defaultMaxRetries, cfg.Annotate.Retries)
	assert.Equal(t, "diamond", cfg.Aligner.Program)
	assert.Equal(t, types.SeqDNA, cfg.Aligner.SeqType)
	assert.InDelta(t, 1e-5, cfg.Aligner.EValue, 1e-12)
}

func TestLoadConfigOverrides(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   any
		check   func(t *testing.T, cfg types.Config)
		wantErr bool
	}{
		{
			name:  "namespaces short and long form",
			key:   "annotate.namespaces",
			value: []string{"MF", "cellular_component"},
			check: func(t *testing.T, cfg types.Config) {
				assert.Equal(t, []types.Category{types.CategoryMolecularFunction, types.CategoryCellularComponent}, cfg.Annotate.Namespaces)
			},
		},
		{
			name:    "unknown namespace",
			key:     "annotate.namespaces",
			value:   []string{"XX"},
			wantErr: true,
		},
		{
			name:  "protein queries",
			key:   "aligner.seqtype",
			value: "protein",
			check: func(t *testing.T, cfg types.Config) {
				assert.Equal(t, types.SeqProtein, cfg.Aligner.SeqType)
			},
		},
		{
			name:    "bad seqtype",
			key:     "aligner.seqtype",
			value:   "rna",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := viper.Get(tt.key)
			viper.Set(tt.key, tt.value)
			t.Cleanup(func() { viper.Set(tt.key, prev) })

			cfg, err := loadConfig()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestAnnotationPath(t *testing.T) {
	tests := []struct {
		in, dir, want string
	}{
		{in: "hits.m8", want: "hits.m8.annot"},
		{in: "/data/run1/hits.m8.gz", dir: "out", want: filepath.Join("out", "hits.m8.gz.annot")},
		{in: "-", want: "stdin.annot"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, annotationPath(tt.in, tt.dir))
	}
}

func TestDefaultConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())

	assert.Empty(t, defaultConfigFile())

	homeConfig := filepath.Join(home, ".config", "topaz", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(homeConfig), 0o755))
	require.NoError(t, os.WriteFile(homeConfig, []byte("log:\n  level: debug\n"), 0o644))
	assert.Equal(t, homeConfig, defaultConfigFile())

	require.NoError(t, os.WriteFile("topaz.yaml", []byte("database: local.db\n"), 0o644))
	assert.Equal(t, "topaz.yaml", defaultConfigFile())
}

func TestDatabaseName(t *testing.T) {
	assert.Equal(t, "/data/uniprot_sprot", databaseName("/data/uniprot_sprot.fasta"))
	assert.Equal(t, "nr", databaseName("nr.fa.gz"))
	assert.Equal(t, "proteins", databaseName("proteins"))
}
