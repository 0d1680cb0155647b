// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package idmapping

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/topaz/pkg/types"
)

// memorySink keeps the first mapping per upper-cased accession.
type memorySink struct {
	maps    map[string]string
	batches int
	fail    error
}

func newMemorySink() *memorySink {
	return &memorySink{maps: make(map[string]string)}
}

func (s *memorySink) InsertAccessionMaps(_ context.Context, rows []types.AccessionMap) (int, []types.MappingConflict, error) {
	if s.fail != nil {
		return 0, nil, s.fail
	}
	s.batches++
	inserted := 0
	var conflicts []types.MappingConflict
	for _, r := range rows {
		key := strings.ToUpper(r.Accession)
		kept, ok := s.maps[key]
		if !ok {
			s.maps[key] = r.UniProt
			inserted++
			continue
		}
		if !strings.EqualFold(kept, r.UniProt) {
			conflicts = append(conflicts, types.MappingConflict{Accession: r.Accession, Kept: kept, Rejected: r.UniProt, Source: r.Source})
		}
	}
	return inserted, conflicts, nil
}

func TestParseUniProtLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    types.AccessionMap
		ok      bool
		wantErr bool
	}{
		{"refseq", "P12345\tRefSeq\tNP_001001", types.AccessionMap{Accession: "NP_001001", UniProt: "P12345", Source: "uniprot"}, true, false},
		{"embl cds", "P12345\tEMBL-CDS\tAAA12345.1", types.AccessionMap{Accession: "AAA12345.1", UniProt: "P12345", Source: "uniprot"}, true, false},
		{"excluded GI", "P12345\tGI\t123456", types.AccessionMap{}, false, false},
		{"excluded taxid", "P12345\tNCBI_TaxID\t9606", types.AccessionMap{}, false, false},
		{"excluded uniref", "P12345\tUniRef90\tUniRef90_P12345", types.AccessionMap{}, false, false},
		{"short line", "P12345\tRefSeq", types.AccessionMap{}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := ParseUniProtLine(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func pirLine(uniprot string, cells map[int]string) string {
	cols := make([]string, pirColumns)
	cols[0] = uniprot
	for i, v := range cells {
		cols[i] = v
	}
	return strings.Join(cols, "\t")
}

func TestParsePIRLine(t *testing.T) {
	line := pirLine("P12345", map[int]string{
		1:  "HXK1_YEAST",
		2:  "850491",
		3:  "NP_116711.1; NP_999.2",
		4:  "not-an-accession-column",
		21: "CAA12345.1",
	})

	got, err := ParsePIRLine(line)
	require.NoError(t, err)
	assert.Equal(t, []types.AccessionMap{
		{Accession: "850491", UniProt: "P12345", Source: "pir"},
		{Accession: "NP_116711.1", UniProt: "P12345", Source: "pir"},
		{Accession: "NP_999.2", UniProt: "P12345", Source: "pir"},
		{Accession: "CAA12345.1", UniProt: "P12345", Source: "pir"},
	}, got)

	_, err = ParsePIRLine("P12345\tNP_1")
	assert.Error(t, err)

	_, err = ParsePIRLine(pirLine("", map[int]string{2: "x"}))
	assert.Error(t, err)
}

func TestLoadUniProt(t *testing.T) {
	in := "P12345\tRefSeq\tNP_001\n" +
		"P12345\tGI\t123\n" +
		"\n" +
		"P99999\tRefSeq\tnp_001\n" +
		"broken\n" +
		"P99999\tEMBL\tAAA1\n"

	sink := newMemorySink()
	l := NewLoader(sink, Options{BatchSize: 2, BestEffort: true})
	summary, err := l.Load(context.Background(), strings.NewReader(in), FormatUniProt)
	require.NoError(t, err)

	assert.Equal(t, 6, summary.Lines)
	assert.Equal(t, 1, summary.Excluded)
	assert.Equal(t, 1, summary.Malformed)
	assert.Equal(t, 1, summary.Conflicts)
	assert.Equal(t, 2, summary.Mapped)
	assert.Zero(t, summary.Repeated)
	assert.Equal(t, 2, sink.batches)
	assert.Equal(t, "P12345", sink.maps["NP_001"])
}

func TestLoadPIRAfterUniProtKeepsFirstSeen(t *testing.T) {
	sink := newMemorySink()
	l := NewLoader(sink, Options{BestEffort: true})
	ctx := context.Background()

	_, err := l.Load(ctx, strings.NewReader("P12345\tRefSeq\tNP_001\n"), FormatUniProt)
	require.NoError(t, err)

	in := pirLine("Q11111", map[int]string{3: "NP_001", 5: "XP_777"}) + "\n" +
		"short\tline\n"
	summary, err := l.Load(ctx, strings.NewReader(in), FormatPIR)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Conflicts)
	assert.Equal(t, 1, summary.Mapped)
	assert.Equal(t, 1, summary.Malformed)
	assert.Equal(t, "P12345", sink.maps["NP_001"])
	assert.Equal(t, "Q11111", sink.maps["XP_777"])
}

func TestLoadMalformedLine(t *testing.T) {
	tests := []struct {
		name       string
		format     Format
		in         string
		bestEffort bool
		wantLine   int
		malformed  int
		mapped     int
	}{
		{name: "uniprot aborts", format: FormatUniProt, in: "P1\tRefSeq\tNP_1\ngarbage\nP2 only\n", wantLine: 2},
		{name: "pir aborts", format: FormatPIR, in: pirLine("P1", map[int]string{3: "NP_1"}) + "\nshort\tline\n", wantLine: 2},
		{name: "uniprot best effort", format: FormatUniProt, in: "garbage\nP2 only\nP1\tRefSeq\tNP_1\n", bestEffort: true, malformed: 2, mapped: 1},
		{name: "pir best effort", format: FormatPIR, in: "short\tline\n" + pirLine("P1", map[int]string{3: "NP_1"}) + "\n", bestEffort: true, malformed: 1, mapped: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLoader(newMemorySink(), Options{BestEffort: tt.bestEffort})
			summary, err := l.Load(context.Background(), strings.NewReader(tt.in), tt.format)
			if !tt.bestEffort {
				var le *LineError
				require.ErrorAs(t, err, &le)
				assert.Equal(t, tt.wantLine, le.Line)
				assert.Equal(t, tt.format, le.Source)
				assert.Contains(t, err.Error(), string(tt.format))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.malformed, summary.Malformed)
			assert.Equal(t, tt.mapped, summary.Mapped)
		})
	}
}

func TestLoadCountsRepeatedMappings(t *testing.T) {
	in := "P1\tRefSeq\tNP_1\n" +
		"P1\tRefSeq\tNP_1\n" +
		"P1\tRefSeq\tNP_1\n" +
		"P2\tRefSeq\tNP_1\n"

	sink := newMemorySink()
	summary, err := NewLoader(sink, Options{BatchSize: 2}).Load(context.Background(), strings.NewReader(in), FormatUniProt)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Mapped)
	assert.Equal(t, 2, summary.Repeated)
	assert.Equal(t, 1, summary.Conflicts)
	assert.Len(t, sink.maps, 1)
}

func TestLoadErrors(t *testing.T) {
	ctx := context.Background()

	_, err := NewLoader(newMemorySink(), Options{}).Load(ctx, strings.NewReader(""), Format("csv"))
	assert.Error(t, err)

	sink := newMemorySink()
	sink.fail = errors.New("database is locked")
	_, err = NewLoader(sink, Options{}).Load(ctx, strings.NewReader("P1\tRefSeq\tNP_1\n"), FormatUniProt)
	assert.ErrorContains(t, err, "database is locked")
}
