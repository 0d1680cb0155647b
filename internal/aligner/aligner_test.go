// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aligner

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/topaz/pkg/types"
)

// mockExecutor records calls and returns configured responses.
type mockExecutor struct {
	availableBins map[string]bool // binary -> whether LookPath succeeds
	stderr        string          // written to stderr on every Run
	runErr        error
	renameErr     error

	commands []string
	renames  [][2]string
}

func (m *mockExecutor) LookPath(file string) (string, error) {
	if m.availableBins[file] {
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("not found: " + file)
}

func (m *mockExecutor) Run(_ context.Context, name string, args []string, stderr io.Writer) error {
	m.commands = append(m.commands, name+" "+strings.Join(args, " "))
	if m.stderr != "" {
		_, _ = io.WriteString(stderr, m.stderr)
	}
	return m.runErr
}

func (m *mockExecutor) Rename(from, to string) error {
	m.renames = append(m.renames, [2]string{from, to})
	return m.renameErr
}

func baseJob() Job {
	return Job{Query: "reads.fa", Out: "hits.m8", DB: "uniprot", Threads: 4, EValue: 1e-5}
}

func TestCommands(t *testing.T) {
	tests := []struct {
		name    string
		program string
		job     func(Job) Job
		want    string
	}{
		{
			name:    "diamond dna",
			program: ProgramDiamond,
			want:    "diamond blastx --query reads.fa --out hits.m8 --db uniprot --threads 4 --evalue 1e-05 --max-target-seqs 20 --outfmt 6 --sensitive",
		},
		{
			name:    "diamond protein more sensitive",
			program: ProgramDiamond,
			job:     func(j Job) Job { j.SeqType = types.SeqProtein; j.Sensitive = true; return j },
			want:    "diamond blastp --query reads.fa --out hits.m8 --db uniprot --threads 4 --evalue 1e-05 --max-target-seqs 20 --outfmt 6 --more-sensitive",
		},
		{
			name:    "blast dna",
			program: ProgramBlast,
			want:    "blastx -query reads.fa -out hits.m8 -db uniprot -num_threads 4 -evalue 1e-05 -word_size 3 -max_hsps 20 -max_target_seqs 20 -outfmt 6",
		},
		{
			name:    "blast protein",
			program: ProgramBlast,
			job:     func(j Job) Job { j.SeqType = types.SeqProtein; return j },
			want:    "blastp -query reads.fa -out hits.m8 -db uniprot -num_threads 4 -evalue 1e-05 -word_size 3 -max_hsps 20 -max_target_seqs 20 -outfmt 6",
		},
		{
			name:    "rapsearch fast dna",
			program: ProgramRapsearch,
			want:    "rapsearch -q reads.fa -d uniprot -o hits.m8 -z 4 -e 1e-05 -t n -a t -s f -b 0",
		},
		{
			name:    "rapsearch sensitive protein",
			program: ProgramRapsearch,
			job:     func(j Job) Job { j.SeqType = types.SeqProtein; j.Sensitive = true; return j },
			want:    "rapsearch -q reads.fa -d uniprot -o hits.m8 -z 4 -e 1e-05 -t a -a f -s f -b 0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := Lookup(tt.program)
			require.NoError(t, err)

			job := baseJob()
			if tt.job != nil {
				job = tt.job(job)
			}
			bin, args := prog.Command(job.withDefaults())
			assert.Equal(t, tt.want, bin+" "+strings.Join(args, " "))
		})
	}
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("bowtie")
	assert.Error(t, err)

	prog, err := Lookup("DIAMOND")
	require.NoError(t, err)
	assert.Equal(t, ProgramDiamond, prog.Name())
}

func TestRun(t *testing.T) {
	m := &mockExecutor{}
	r := newRunner(diamond{}, m, nil)

	require.NoError(t, r.Run(context.Background(), baseJob()))
	require.Len(t, m.commands, 1)
	assert.True(t, strings.HasPrefix(m.commands[0], "diamond blastx --query reads.fa"))
	assert.Empty(t, m.renames)
}

func TestRunDefaults(t *testing.T) {
	m := &mockExecutor{}
	r := newRunner(blast{}, m, nil)

	require.NoError(t, r.Run(context.Background(), Job{Query: "q.fa", Out: "o", DB: "db"}))
	require.Len(t, m.commands, 1)
	assert.Contains(t, m.commands[0], "-num_threads 1")
	assert.Contains(t, m.commands[0], "-evalue 1e-05")
	assert.True(t, strings.HasPrefix(m.commands[0], "blastx "))
}

func TestRunRapsearchRenamesOutput(t *testing.T) {
	m := &mockExecutor{}
	r := newRunner(rapsearch{}, m, nil)

	require.NoError(t, r.Run(context.Background(), baseJob()))
	assert.Equal(t, [][2]string{{"hits.m8.m8", "hits.m8"}}, m.renames)
}

func TestRunRenameFailure(t *testing.T) {
	m := &mockExecutor{renameErr: errors.New("no such file")}
	r := newRunner(rapsearch{}, m, nil)

	err := r.Run(context.Background(), baseJob())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "moving rapsearch output")
}

func TestRunFailureCarriesStderr(t *testing.T) {
	m := &mockExecutor{
		stderr: "Error: Database file not found\n",
		runErr: errors.New("exit status 1"),
	}
	r := newRunner(diamond{}, m, nil)

	err := r.Run(context.Background(), baseJob())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "diamond failed")
	assert.Contains(t, err.Error(), "Database file not found")
	assert.Empty(t, m.renames)
}

func TestRunInvalidJob(t *testing.T) {
	tests := []struct {
		name string
		job  Job
		want string
	}{
		{name: "missing paths", job: Job{}, want: "query, out, db"},
		{name: "missing db", job: Job{Query: "q", Out: "o"}, want: "missing db"},
		{name: "bad seqtype", job: Job{Query: "q", Out: "o", DB: "d", SeqType: "rna"}, want: "rna"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockExecutor{}
			r := newRunner(diamond{}, m, nil)

			err := r.Run(context.Background(), tt.job)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Empty(t, m.commands)
		})
	}
}

func TestAvailable(t *testing.T) {
	m := &mockExecutor{availableBins: map[string]bool{"blastp": true}}
	r := newRunner(blast{}, m, nil)

	job := baseJob()
	assert.False(t, r.Available(job))
	job.SeqType = types.SeqProtein
	assert.True(t, r.Available(job))
}

func TestJobFromConfig(t *testing.T) {
	cfg := types.AlignerConfig{Program: "diamond", DB: "nr", Threads: 8, EValue: 0.001, SeqType: types.SeqProtein, Sensitive: true}
	job := JobFromConfig(cfg, "in.fa", "out.m8")
	assert.Equal(t, Job{Query: "in.fa", Out: "out.m8", DB: "nr", Threads: 8, EValue: 0.001, SeqType: types.SeqProtein, Sensitive: true}, job)
}

func TestDefaultOutput(t *testing.T) {
	assert.Equal(t, "diamond_aligned_to_uniprot_sprot.dmnd.out", DefaultOutput("Diamond", "/data/uniprot_sprot.dmnd"))
}

func TestLimitedWriter(t *testing.T) {
	var sb strings.Builder
	w := &limitedWriter{w: &sb, n: 5}

	n, err := w.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	n, err = w.Write([]byte("defgh"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "abcde", sb.String())
}

func TestMakeDB(t *testing.T) {
	tests := []struct {
		name string
		prog Program
		want string
	}{
		{name: "blast", prog: blast{}, want: "makeblastdb -in prot.fa -dbtype prot -out protdb"},
		{name: "diamond", prog: diamond{}, want: "diamond makedb --in prot.fa -d protdb"},
		{name: "rapsearch", prog: rapsearch{}, want: "prerapsearch -d prot.fa -n protdb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bin, _ := tt.prog.MakeDB("prot.fa", "protdb")
			m := &mockExecutor{availableBins: map[string]bool{bin: true}}
			r := newRunner(tt.prog, m, nil)

			require.NoError(t, r.MakeDB(context.Background(), "prot.fa", "protdb"))
			assert.Equal(t, []string{tt.want}, m.commands)
		})
	}
}

func TestMakeDBFailures(t *testing.T) {
	r := newRunner(blast{}, &mockExecutor{}, nil)
	assert.ErrorContains(t, r.MakeDB(context.Background(), "prot.fa", "protdb"), "makeblastdb is not installed")

	m := &mockExecutor{availableBins: map[string]bool{"makeblastdb": true}}
	r = newRunner(blast{}, m, nil)
	assert.Error(t, r.MakeDB(context.Background(), "", "protdb"))
	assert.Empty(t, m.commands)

	m = &mockExecutor{
		availableBins: map[string]bool{"makeblastdb": true},
		stderr:        "BLAST Database creation error: Error reading prot.fa\n",
		runErr:        errors.New("exit status 1"),
	}
	r = newRunner(blast{}, m, nil)
	err := r.MakeDB(context.Background(), "prot.fa", "protdb")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "makeblastdb failed")
	assert.Contains(t, err.Error(), "Error reading prot.fa")
}
