// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aligner runs external protein aligners (DIAMOND, BLAST+,
// RAPSearch2) that write tabular output for annotation.
package aligner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/topaz/internal/logging"
	"github.com/pdiddy/topaz/pkg/types"
)

// Supported programs.
const (
	ProgramDiamond   = "diamond"
	ProgramBlast     = "blast"
	ProgramRapsearch = "rapsearch"
)

const (
	defaultEValue     = 1e-5
	defaultMaxTargets = 20
	stderrLimit       = 4096
)

// Job describes one alignment run.
type Job struct {
	Query      string
	Out        string
	DB         string
	Threads    int
	EValue     float64
	SeqType    types.SeqType
	Sensitive  bool
	MaxTargets int
}

// JobFromConfig fills a Job from aligner settings.
func JobFromConfig(cfg types.AlignerConfig, query, out string) Job {
	return Job{
		Query:     query,
		Out:       out,
		DB:        cfg.DB,
		Threads:   cfg.Threads,
		EValue:    cfg.EValue,
		SeqType:   cfg.SeqType,
		Sensitive: cfg.Sensitive,
	}
}

func (j Job) withDefaults() Job {
	if j.Threads <= 0 {
		j.Threads = 1
	}
	if j.EValue <= 0 {
		j.EValue = defaultEValue
	}
	if j.SeqType == "" {
		j.SeqType = types.SeqDNA
	}
	if j.MaxTargets <= 0 {
		j.MaxTargets = defaultMaxTargets
	}
	return j
}

func (j Job) validate() error {
	var missing []string
	if j.Query == "" {
		missing = append(missing, "query")
	}
	if j.Out == "" {
		missing = append(missing, "out")
	}
	if j.DB == "" {
		missing = append(missing, "db")
	}
	if len(missing) > 0 {
		return fmt.Errorf("alignment job missing %s", strings.Join(missing, ", "))
	}
	if j.SeqType != types.SeqDNA && j.SeqType != types.SeqProtein {
		return fmt.Errorf("sequence type %q: want dna or protein", j.SeqType)
	}
	return nil
}

// Program builds the command line of one aligner.
type Program interface {
	// Name returns the program name used in configuration.
	Name() string

	// Command returns the binary and arguments for job.
	Command(job Job) (bin string, args []string)

	// Output returns the file the binary writes for job. Run renames it
	// to job.Out when they differ.
	Output(job Job) string

	// MakeDB returns the binary and arguments that format a protein
	// FASTA file as a database named out.
	MakeDB(fasta, out string) (bin string, args []string)
}

type diamond struct{}

func (diamond) Name() string { return ProgramDiamond }

func (diamond) Command(j Job) (string, []string) {
	mode := "blastx"
	if j.SeqType == types.SeqProtein {
		mode = "blastp"
	}
	args := []string{
		mode,
		"--query", j.Query,
		"--out", j.Out,
		"--db", j.DB,
		"--threads", strconv.Itoa(j.Threads),
		"--evalue", formatEValue(j.EValue),
		"--max-target-seqs", strconv.Itoa(j.MaxTargets),
		"--outfmt", "6",
	}
	if j.Sensitive {
		args = append(args, "--more-sensitive")
	} else {
		args = append(args, "--sensitive")
	}
	return "diamond", args
}

func (diamond) Output(j Job) string { return j.Out }

func (diamond) MakeDB(fasta, out string) (string, []string) {
	return "diamond", []string{"makedb", "--in", fasta, "-d", out}
}

type blast struct{}

func (blast) Name() string { return ProgramBlast }

func (blast) Command(j Job) (string, []string) {
	bin := "blastx"
	if j.SeqType == types.SeqProtein {
		bin = "blastp"
	}
	return bin, []string{
		"-query", j.Query,
		"-out", j.Out,
		"-db", j.DB,
		"-num_threads", strconv.Itoa(j.Threads),
		"-evalue", formatEValue(j.EValue),
		"-word_size", "3",
		"-max_hsps", "20",
		"-max_target_seqs", strconv.Itoa(j.MaxTargets),
		"-outfmt", "6",
	}
}

func (blast) Output(j Job) string { return j.Out }

func (blast) MakeDB(fasta, out string) (string, []string) {
	return "makeblastdb", []string{"-in", fasta, "-dbtype", "prot", "-out", out}
}

type rapsearch struct{}

func (rapsearch) Name() string { return ProgramRapsearch }

func (rapsearch) Command(j Job) (string, []string) {
	seq := "n"
	if j.SeqType == types.SeqProtein {
		seq = "a"
	}
	// -a t is the fast mode.
	fast := "t"
	if j.Sensitive {
		fast = "f"
	}
	return "rapsearch", []string{
		"-q", j.Query,
		"-d", j.DB,
		"-o", j.Out,
		"-z", strconv.Itoa(j.Threads),
		"-e", formatEValue(j.EValue),
		"-t", seq,
		"-a", fast,
		"-s", "f",
		"-b", "0",
	}
}

// RAPSearch2 appends .m8 to the -o prefix.
func (rapsearch) Output(j Job) string { return j.Out + ".m8" }

func (rapsearch) MakeDB(fasta, out string) (string, []string) {
	return "prerapsearch", []string{"-d", fasta, "-n", out}
}

// Lookup returns the Program registered under name.
func Lookup(name string) (Program, error) {
	switch strings.ToLower(name) {
	case ProgramDiamond:
		return diamond{}, nil
	case ProgramBlast:
		return blast{}, nil
	case ProgramRapsearch:
		return rapsearch{}, nil
	}
	return nil, fmt.Errorf("unknown aligner %q: want %s, %s or %s", name, ProgramDiamond, ProgramBlast, ProgramRapsearch)
}

// DefaultOutput names the output file for a run of program against db:
// "<program>_aligned_to_<db base name>.out".
func DefaultOutput(program, db string) string {
	return fmt.Sprintf("%s_aligned_to_%s.out", strings.ToLower(program), filepath.Base(db))
}

func formatEValue(e float64) string {
	return strconv.FormatFloat(e, 'g', -1, 64)
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, name string, args []string, stderr io.Writer) error
	Rename(from, to string) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (osExecutor) Run(ctx context.Context, name string, args []string, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = stderr
	return cmd.Run()
}

func (osExecutor) Rename(from, to string) error {
	return os.Rename(from, to)
}

// Runner executes one Program.
type Runner struct {
	prog Program
	exec executor
	log  logrus.FieldLogger
}

// NewRunner returns a Runner for the named program. A nil log discards
// entries.
func NewRunner(program string, log logrus.FieldLogger) (*Runner, error) {
	prog, err := Lookup(program)
	if err != nil {
		return nil, err
	}
	return newRunner(prog, osExecutor{}, log), nil
}

func newRunner(prog Program, exec executor, log logrus.FieldLogger) *Runner {
	if log == nil {
		log = logging.Discard()
	}
	return &Runner{prog: prog, exec: exec, log: log}
}

// Program returns the program this Runner executes.
func (r *Runner) Program() Program { return r.prog }

// Available reports whether the program binary for job is on PATH.
func (r *Runner) Available(job Job) bool {
	bin, _ := r.prog.Command(job.withDefaults())
	_, err := r.exec.LookPath(bin)
	return err == nil
}

// Run executes job and leaves the tabular output at job.Out. A non-zero
// exit status is returned as an error carrying the program's stderr.
func (r *Runner) Run(ctx context.Context, job Job) error {
	job = job.withDefaults()
	if err := job.validate(); err != nil {
		return err
	}

	bin, args := r.prog.Command(job)
	r.log.WithFields(logrus.Fields{
		"program": r.prog.Name(),
		"query":   job.Query,
		"db":      job.DB,
		"threads": job.Threads,
	}).Info("running aligner")

	if err := r.run(ctx, bin, args); err != nil {
		return err
	}

	if produced := r.prog.Output(job); produced != job.Out {
		if err := r.exec.Rename(produced, job.Out); err != nil {
			return fmt.Errorf("moving %s output: %w", r.prog.Name(), err)
		}
	}
	return nil
}

// MakeDB formats the protein FASTA file as a database named out for this
// Runner's program.
func (r *Runner) MakeDB(ctx context.Context, fasta, out string) error {
	if fasta == "" || out == "" {
		return errors.New("makedb needs a FASTA file and an output name")
	}
	bin, args := r.prog.MakeDB(fasta, out)
	if _, err := r.exec.LookPath(bin); err != nil {
		return fmt.Errorf("%s is not installed or not on PATH", bin)
	}

	r.log.WithFields(logrus.Fields{
		"program": r.prog.Name(),
		"fasta":   fasta,
		"db":      out,
	}).Info("formatting protein database")
	return r.run(ctx, bin, args)
}

// run executes bin, returning an error carrying its stderr on failure.
func (r *Runner) run(ctx context.Context, bin string, args []string) error {
	r.log.Debugf("%s %s", bin, strings.Join(args, " "))

	var stderr bytes.Buffer
	err := r.exec.Run(ctx, bin, args, &limitedWriter{w: &stderr, n: stderrLimit})
	if err == nil {
		return nil
	}
	msg := strings.TrimSpace(stderr.String())
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && msg != "" {
		return fmt.Errorf("%s failed (exit %d): %s", bin, exitErr.ExitCode(), msg)
	}
	if msg != "" {
		return fmt.Errorf("%s failed: %w: %s", bin, err, msg)
	}
	return fmt.Errorf("%s failed: %w", bin, err)
}

// limitedWriter keeps the first n bytes and discards the rest.
type limitedWriter struct {
	w io.Writer
	n int
}

func (l *limitedWriter) Write(p []byte) (int, error) {
	total := len(p)
	if l.n <= 0 {
		return total, nil
	}
	if len(p) > l.n {
		p = p[:l.n]
	}
	n, err := l.w.Write(p)
	l.n -= n
	if err != nil {
		return n, err
	}
	return total, nil
}
