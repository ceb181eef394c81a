package mpymk

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bits-and-blooms/bitset"

	"git.fractalqb.de/fractalqb/mpymk/mkfs"
)

// DefaultDest is the collection directory for compiled outputs, resolved
// against the batch's working directory.
const DefaultDest = "../bytecode-compiled"

func DefaultSources() mkfs.Filter { return mkfs.NameMatch("*.py") }

func DefaultOutputs() mkfs.Filter { return mkfs.NameMatch("*.mpy") }

// DefaultExclude matches the outputs that are removed instead of collected.
// boot.py and main.py have to stay on the device as plain sources, their
// compiled form is useless there.
func DefaultExclude() mkfs.Filter { return ExcludeNames("boot.mpy", "main.mpy") }

// ExcludeNames builds an exclusion filter from literal file names.
func ExcludeNames(names ...string) mkfs.Filter {
	var fs mkfs.Any
	for _, n := range names {
		fs = append(fs, mkfs.Name(n))
	}
	return fs
}

// Batch is the build orchestration for one working directory: compile every
// source sequentially, remove excluded outputs, move the rest into the
// collection directory. A Batch has no state between runs; rerunning it
// against unchanged inputs reproduces the same collection contents.
//
// Batches must not run concurrently against the same directory – nothing
// guards the filesystem against a second writer.
type Batch struct {
	// Dir is the working directory holding the sources. Empty means the
	// process's current directory.
	Dir string

	// Dest is the collection directory, DefaultDest if empty. Relative
	// paths are resolved against Dir. Dest has to exist, it is never
	// created implicitly: failing loudly beats scattering output into a
	// freshly invented directory.
	Dest string

	Compiler Compiler

	// Sources, Outputs and Exclude default to DefaultSources,
	// DefaultOutputs and DefaultExclude when nil.
	Sources mkfs.Filter
	Outputs mkfs.Filter
	Exclude mkfs.Filter

	// FailFast aborts on the first compiler failure. The default is to
	// finish the batch, run the remaining steps for the outputs that do
	// exist and return all failures as one BatchError.
	FailFast bool
}

// BatchError aggregates the compiler failures of one [Batch] run.
type BatchError struct {
	Total  int      // number of sources in the batch
	Failed []string // sources whose compiler run failed, in batch order
	errs   []error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%d of %d files failed to compile: %s",
		len(e.Failed),
		e.Total,
		strings.Join(e.Failed, ", "),
	)
}

func (e *BatchError) Unwrap() []error { return e.errs }

// Run executes the batch: enumerate, compile, prune, collect. Sources are
// enumerated once, in lexicographic order, and compiled strictly one after
// the other. Returns nil only if every step succeeded; compiler failures
// come back as a [*BatchError] unless FailFast is set.
func (b *Batch) Run(ctx context.Context, tr Tracer, env *Env) error {
	if tr == nil {
		tr = DefaultTracer()
	}
	if env == nil {
		env = DefaultEnv()
	}
	// A bad optimization level must fail before any compiler runs.
	opt, err := b.Compiler.OptArg()
	if err != nil {
		return err
	}
	dir := b.dir()
	srcs, err := mkfs.List(dir, b.sources())
	if err != nil {
		return fmt.Errorf("list sources in %s: %w", dir, err)
	}
	start := time.Now()
	tr.StartBatch(dir, len(srcs))
	level := strings.TrimPrefix(opt, "-O")
	failed := bitset.New(uint(len(srcs)))
	var errs []error
	for i, src := range srcs {
		tr.CompileFile(src, level, i+1, len(srcs))
		err := b.Compiler.Compile(ctx, tr, env, dir, src)
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			return err
		}
		failed.Set(uint(i))
		tr.CompileFailed(src, err)
		errs = append(errs, err)
		if b.FailFast {
			return err
		}
	}
	if err := b.prune(tr, dir); err != nil {
		return err
	}
	if err := b.collect(tr, dir); err != nil {
		return err
	}
	tr.DoneBatch(dir, time.Since(start))
	if len(errs) > 0 {
		be := &BatchError{Total: len(srcs), errs: errs}
		for i, ok := failed.NextSet(0); ok; i, ok = failed.NextSet(i + 1) {
			be.Failed = append(be.Failed, srcs[i])
		}
		return be
	}
	return nil
}

// prune removes the outputs matching the exclusion filter. Their absence is
// not an error.
func (b *Batch) prune(tr Tracer, dir string) error {
	drop, err := mkfs.List(dir, mkfs.All{b.outputs(), b.exclude()})
	if err != nil {
		return fmt.Errorf("list outputs in %s: %w", dir, err)
	}
	for _, f := range drop {
		removed, err := mkfs.RemoveIfExists(filepath.Join(dir, f))
		if err != nil {
			return fmt.Errorf("remove %s: %w", f, err)
		}
		if removed {
			tr.RemoveOutput(f)
		}
	}
	return nil
}

// collect moves the remaining outputs into the collection directory,
// overwriting same-named files there.
func (b *Batch) collect(tr Tracer, dir string) error {
	dest := b.destPath(dir)
	st, err := os.Stat(dest)
	if err != nil {
		return fmt.Errorf("collection directory %s: %w", dest, err)
	}
	if !st.IsDir() {
		return fmt.Errorf("collection directory %s: not a directory", dest)
	}
	outs, err := mkfs.List(dir, mkfs.All{b.outputs(), mkfs.Not(b.exclude())})
	if err != nil {
		return fmt.Errorf("list outputs in %s: %w", dir, err)
	}
	for _, f := range outs {
		if _, err := mkfs.MoveInto(filepath.Join(dir, f), dest); err != nil {
			return fmt.Errorf("collect %s: %w", f, err)
		}
		tr.CollectOutput(f, dest)
	}
	return nil
}

func (b *Batch) dir() string {
	if b.Dir == "" {
		return "."
	}
	return b.Dir
}

func (b *Batch) destPath(dir string) string {
	dest := b.Dest
	if dest == "" {
		dest = DefaultDest
	}
	if filepath.IsAbs(dest) {
		return dest
	}
	return filepath.Join(dir, dest)
}

func (b *Batch) sources() mkfs.Filter {
	if b.Sources == nil {
		return DefaultSources()
	}
	return b.Sources
}

func (b *Batch) outputs() mkfs.Filter {
	if b.Outputs == nil {
		return DefaultOutputs()
	}
	return b.Outputs
}

func (b *Batch) exclude() mkfs.Filter {
	if b.Exclude == nil {
		return DefaultExclude()
	}
	return b.Exclude
}
