// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package alignment

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/topaz/pkg/types"
)

func rec(q, s string) types.AlignmentRecord {
	return types.AlignmentRecord{Query: q, Subject: s}
}

func subjects(records []types.AlignmentRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Subject
	}
	return out
}

func TestParseRecord(t *testing.T) {
	got, err := ParseRecord("Q1\tACC1\t90.0\t100\t1\t0\t1\t100\t1\t100\t1e-10\t200")
	require.NoError(t, err)
	assert.Equal(t, types.AlignmentRecord{
		Query: "Q1", Subject: "ACC1", Identity: 90.0, Length: 100, Mismatch: 1, GapOpen: 0,
		QStart: 1, QEnd: 100, SStart: 1, SEnd: 100, EValue: 1e-10, BitScore: 200,
	}, got)
}

func TestParseRecordErrors(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		columns int
	}{
		{"too few columns", "Q1 ACC1 90.0 100", 4},
		{"too many columns", "Q1 ACC1 90.0 100 1 0 1 100 1 100 1e-10 200 extra", 13},
		{"bad integer", "Q1 ACC1 90.0 ten 1 0 1 100 1 100 1e-10 200", 12},
		{"bad evalue", "Q1 ACC1 90.0 100 1 0 1 100 1 100 small 200", 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRecord(tt.line)
			var re *RecordError
			require.True(t, errors.As(err, &re))
			assert.Equal(t, tt.columns, re.Columns)
		})
	}
}

func TestDedup(t *testing.T) {
	in := []types.AlignmentRecord{rec("q1", "s1"), rec("q1", "s1"), rec("q1", "s2"), rec("q1", "s1")}
	in[1].BitScore = 999

	got := Dedup(in)
	assert.Equal(t, []string{"s1", "s2"}, subjects(got))
	assert.Equal(t, 0.0, got[0].BitScore, "first occurrence wins")
	assert.Len(t, in, 4, "input untouched")
}

func TestGrouperDedupAcrossGroups(t *testing.T) {
	in := strings.Join([]string{
		"q1 s1 90 100 1 0 1 100 1 100 1e-10 200",
		"q1 s1 80 100 1 0 1 100 1 100 1e-5 100",
		"q1 s2 90 100 1 0 1 100 1 100 1e-10 200",
		"q2 s1 90 100 1 0 1 100 1 100 1e-10 200",
	}, "\n")

	g := NewGrouper(strings.NewReader(in))

	first, err := g.Next()
	require.NoError(t, err)
	assert.Equal(t, "q1", first.Query)
	assert.Equal(t, []string{"s1", "s2"}, subjects(first.Records))
	assert.Equal(t, 1, first.Duplicates)

	second, err := g.Next()
	require.NoError(t, err)
	assert.Equal(t, "q2", second.Query)
	assert.Equal(t, []string{"s1"}, subjects(second.Records))

	_, err = g.Next()
	assert.ErrorIs(t, err, io.EOF)
	_, err = g.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestGrouperSkipsCommentsAndBlankLines(t *testing.T) {
	in := "# DIAMOND v2.1\n\n" +
		"q1 s1 90 100 1 0 1 100 1 100 1e-10 200\n" +
		"  \n" +
		"# Fields: query id, subject id\n" +
		"q1 s2 90 100 1 0 1 100 1 100 1e-10 200\n"

	g := NewGrouper(strings.NewReader(in))
	grp, err := g.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2"}, subjects(grp.Records))

	_, err = g.Next()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 6, g.Line())
}

func TestGrouperEmptyInput(t *testing.T) {
	for _, in := range []string{"", "\n\n", "# only comments\n"} {
		_, err := NewGrouper(strings.NewReader(in)).Next()
		assert.ErrorIs(t, err, io.EOF, "%q", in)
	}
}

func TestGrouperMalformedLine(t *testing.T) {
	in := "q1 s1 90 100 1 0 1 100 1 100 1e-10 200\n" +
		"q1 s2 broken\n"

	g := NewGrouper(strings.NewReader(in))
	_, err := g.Next()
	var re *RecordError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, 2, re.Line)

	_, err = g.Next()
	assert.Error(t, err, "error is sticky")
}

func TestGrouperUnsortedQueryStartsNewGroup(t *testing.T) {
	in := "q1 s1 90 100 1 0 1 100 1 100 1e-10 200\n" +
		"q2 s1 90 100 1 0 1 100 1 100 1e-10 200\n" +
		"q1 s3 90 100 1 0 1 100 1 100 1e-10 200\n"

	g := NewGrouper(strings.NewReader(in))
	var queries []string
	for {
		grp, err := g.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		queries = append(queries, grp.Query)
	}
	assert.Equal(t, []string{"q1", "q2", "q1"}, queries)
}

func TestSubjectAccession(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"sp|P12345|HXK1_YEAST", "P12345"},
		{"tr|A0A024R161|A0A024R161_HUMAN", "A0A024R161"},
		{"gi|6319280|ref|NP_009362.1|", "NP_009362.1"},
		{"ref|NP_009362.1|", "NP_009362.1"},
		{"P12345", "P12345"},
		{"UniRef90_P12345", "UniRef90_P12345"},
		{"sp||NAME", "sp||NAME"},
		{"lcl|contig1", "lcl|contig1"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SubjectAccession(tt.in))
		})
	}
}
