package mpymk

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"git.fractalqb.de/fractalqb/testerr"
)

// stubCompiler drops an executable that logs its arguments to args.log in
// its working directory and creates <stem>.mpy for the given source. Source
// names matching failOn make it exit non-zero without output.
func stubCompiler(t *testing.T, failOn string) string {
	t.Helper()
	if failOn == "" {
		failOn = `""`
	}
	script := `#!/bin/sh
printf '%s\n' "$@" >> args.log
case $1 in -O*) shift;; esac
case $1 in ` + failOn + `) exit 1;; esac
echo bytecode > "${1%.py}.mpy"
`
	exe := filepath.Join(t.TempDir(), "mpyc-stub")
	testerr.Shall(os.WriteFile(exe, []byte(script), 0o755)).BeNil(t)
	return exe
}

func newWorkDirs(t *testing.T, srcs ...string) (work, dest string) {
	t.Helper()
	base := t.TempDir()
	work = filepath.Join(base, "src")
	dest = filepath.Join(base, "bytecode-compiled")
	testerr.Shall(os.Mkdir(work, 0o777)).BeNil(t)
	testerr.Shall(os.Mkdir(dest, 0o777)).BeNil(t)
	for _, s := range srcs {
		testerr.Shall(os.WriteFile(
			filepath.Join(work, s),
			[]byte("# "+s+"\n"),
			0o666,
		)).BeNil(t)
	}
	return work, dest
}

func argsLog(t *testing.T, work string) []string {
	t.Helper()
	raw := testerr.Shall1(os.ReadFile(filepath.Join(work, "args.log"))).BeNil(t)
	return strings.Split(strings.TrimSuffix(string(raw), "\n"), "\n")
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestBatch_Run(t *testing.T) {
	work, dest := newWorkDirs(t, "b.py", "a.py", "boot.py", "main.py")
	batch := &Batch{
		Dir:      work,
		Compiler: Compiler{Exe: stubCompiler(t, "")},
	}
	testerr.Shall(batch.Run(context.Background(), TestTracer{t}, DefaultEnv())).BeNil(t)

	// lexicographic source order, one argument token per invocation
	want := []string{"a.py", "b.py", "boot.py", "main.py"}
	if got := argsLog(t, work); !slices.Equal(got, want) {
		t.Errorf("compiler invocations %q, want %q", got, want)
	}
	for _, f := range []string{"a.mpy", "b.mpy"} {
		if !exists(filepath.Join(dest, f)) {
			t.Errorf("%s not collected into %s", f, dest)
		}
	}
	for _, f := range []string{"boot.mpy", "main.mpy"} {
		if exists(filepath.Join(dest, f)) {
			t.Errorf("excluded %s ended up in %s", f, dest)
		}
	}
	ls := testerr.Shall1(filepath.Glob(filepath.Join(work, "*.mpy"))).BeNil(t)
	if len(ls) > 0 {
		t.Errorf("outputs left in working directory: %q", ls)
	}
}

func TestBatch_optimizationToken(t *testing.T) {
	work, _ := newWorkDirs(t, "a.py")
	lvl := "2"
	batch := &Batch{
		Dir:      work,
		Compiler: Compiler{Exe: stubCompiler(t, ""), OptLevel: &lvl},
	}
	testerr.Shall(batch.Run(context.Background(), TestTracer{t}, DefaultEnv())).BeNil(t)
	want := []string{"-O2", "a.py"}
	if got := argsLog(t, work); !slices.Equal(got, want) {
		t.Errorf("compiler invocation %q, want %q", got, want)
	}
}

func TestBatch_emptyOptLevel(t *testing.T) {
	work, _ := newWorkDirs(t, "a.py")
	lvl := ""
	batch := &Batch{
		Dir:      work,
		Compiler: Compiler{Exe: stubCompiler(t, ""), OptLevel: &lvl},
	}
	err := batch.Run(context.Background(), TestTracer{t}, DefaultEnv())
	if !errors.Is(err, ErrEmptyOptLevel) {
		t.Fatalf("unexpected error: %v", err)
	}
	if exists(filepath.Join(work, "args.log")) {
		t.Error("compiler ran despite the usage error")
	}
}

func TestBatch_rerunOverwrites(t *testing.T) {
	work, dest := newWorkDirs(t, "a.py", "boot.py")
	batch := &Batch{
		Dir:      work,
		Compiler: Compiler{Exe: stubCompiler(t, "")},
	}
	testerr.Shall(batch.Run(context.Background(), TestTracer{t}, DefaultEnv())).BeNil(t)
	testerr.Shall(batch.Run(context.Background(), TestTracer{t}, DefaultEnv())).BeNil(t)
	ls := testerr.Shall1(os.ReadDir(dest)).BeNil(t)
	if len(ls) != 1 || ls[0].Name() != "a.mpy" {
		t.Errorf("unexpected collection contents: %v", ls)
	}
}

func TestBatch_missingDest(t *testing.T) {
	work, dest := newWorkDirs(t, "a.py")
	testerr.Shall(os.Remove(dest)).BeNil(t)
	batch := &Batch{
		Dir:      work,
		Compiler: Compiler{Exe: stubCompiler(t, "")},
	}
	err := batch.Run(context.Background(), TestTracer{t}, DefaultEnv())
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(err.Error(), dest) {
		t.Errorf("error does not name the missing directory: %v", err)
	}
	// nothing must be lost
	if !exists(filepath.Join(work, "a.mpy")) {
		t.Error("a.mpy vanished from the working directory")
	}
}

func TestBatch_noSources(t *testing.T) {
	work, dest := newWorkDirs(t)
	// leftovers from an earlier, interrupted run
	testerr.Shall(os.WriteFile(filepath.Join(work, "boot.mpy"), []byte("x"), 0o666)).BeNil(t)
	testerr.Shall(os.WriteFile(filepath.Join(work, "x.mpy"), []byte("x"), 0o666)).BeNil(t)
	batch := &Batch{
		Dir:      work,
		Compiler: Compiler{Exe: stubCompiler(t, "")},
	}
	testerr.Shall(batch.Run(context.Background(), TestTracer{t}, DefaultEnv())).BeNil(t)
	if exists(filepath.Join(work, "args.log")) {
		t.Error("compiler ran without sources")
	}
	if exists(filepath.Join(work, "boot.mpy")) || exists(filepath.Join(dest, "boot.mpy")) {
		t.Error("excluded boot.mpy survived")
	}
	if !exists(filepath.Join(dest, "x.mpy")) {
		t.Error("leftover x.mpy not collected")
	}
}

func TestBatch_continueOnError(t *testing.T) {
	work, dest := newWorkDirs(t, "a.py", "b.py", "c.py")
	batch := &Batch{
		Dir:      work,
		Compiler: Compiler{Exe: stubCompiler(t, "b.py")},
	}
	err := batch.Run(context.Background(), TestTracer{t}, DefaultEnv())
	var be *BatchError
	if !errors.As(err, &be) {
		t.Fatalf("unexpected error: %v", err)
	}
	if be.Total != 3 || !slices.Equal(be.Failed, []string{"b.py"}) {
		t.Errorf("bad aggregate: total %d, failed %q", be.Total, be.Failed)
	}
	for _, f := range []string{"a.mpy", "c.mpy"} {
		if !exists(filepath.Join(dest, f)) {
			t.Errorf("%s not collected despite continue-on-error", f)
		}
	}
}

func TestBatch_failFast(t *testing.T) {
	work, _ := newWorkDirs(t, "a.py", "b.py")
	batch := &Batch{
		Dir:      work,
		Compiler: Compiler{Exe: stubCompiler(t, "a.py")},
		FailFast: true,
	}
	err := batch.Run(context.Background(), TestTracer{t}, DefaultEnv())
	if err == nil {
		t.Fatal("fail-fast batch succeeded")
	}
	var be *BatchError
	if errors.As(err, &be) {
		t.Fatalf("fail-fast returned an aggregate: %v", err)
	}
	if got := argsLog(t, work); !slices.Equal(got, []string{"a.py"}) {
		t.Errorf("batch went on after the failure: %q", got)
	}
}

func TestClean(t *testing.T) {
	work, _ := newWorkDirs(t, "a.py")
	testerr.Shall(os.WriteFile(filepath.Join(work, "a.mpy"), []byte("x"), 0o666)).BeNil(t)

	testerr.Shall(Clean(work, nil, true, TestTracer{t})).BeNil(t)
	if !exists(filepath.Join(work, "a.mpy")) {
		t.Fatal("dry run removed a.mpy")
	}

	testerr.Shall(Clean(work, nil, false, TestTracer{t})).BeNil(t)
	if exists(filepath.Join(work, "a.mpy")) {
		t.Error("a.mpy not cleaned")
	}
	if !exists(filepath.Join(work, "a.py")) {
		t.Error("clean removed a source file")
	}
}
