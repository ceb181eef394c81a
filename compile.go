package mpymk

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// DefaultCompiler is the byte-compiler executable looked up in PATH when
// [Compiler].Exe is empty.
const DefaultCompiler = "mpy-cross"

// ErrEmptyOptLevel rejects an optimization level that was given but empty.
// Omitting the level entirely is the only way to get an unoptimized run.
var ErrEmptyOptLevel = errors.New("empty optimization level")

// Compiler invokes the external byte-compiler on one source file per call:
//
//	exe [args…] [-O<level>] <file>
//
// The compiler is expected to drop a same-stem output file next to the
// source as a side effect. What it does inside is none of mpymk's business.
type Compiler struct {
	// Exe is the compiler executable, [DefaultCompiler] if empty.
	Exe string

	// OptLevel selects the compiler's optimization level, passed through
	// uninterpreted as the single token -O<level>. nil omits the flag,
	// which is not the same as an empty level – see [ErrEmptyOptLevel].
	OptLevel *string

	// Args are passed verbatim before the optimization flag.
	Args []string
}

func (c *Compiler) exe() string {
	if c.Exe == "" {
		return DefaultCompiler
	}
	return c.Exe
}

// OptArg returns the -O<level> argument token or "" when no level is set.
func (c *Compiler) OptArg() (string, error) {
	if c.OptLevel == nil {
		return "", nil
	}
	if *c.OptLevel == "" {
		return "", ErrEmptyOptLevel
	}
	return "-O" + *c.OptLevel, nil
}

// Compile runs the compiler on file with dir as the child process's working
// directory. The process blocks until the compiler exits; a cancelled ctx
// kills it.
func (c *Compiler) Compile(ctx context.Context, tr Tracer, env *Env, dir, file string) error {
	opt, err := c.OptArg()
	if err != nil {
		return err
	}
	args := append([]string{}, c.Args...)
	if opt != "" {
		args = append(args, opt)
	}
	args = append(args, file)
	xenv, err := env.ExecEnv()
	if err != nil {
		tr.Warn("compile `file`: `error`", `file`, file, `error`, err.Error())
	}
	cmd := exec.CommandContext(ctx, c.exe(), args...)
	cmd.Dir = dir
	cmd.Env = xenv
	cmd.Stdin = env.In
	cmd.Stdout = env.Out
	cmd.Stderr = env.Err
	tr.Debug("exec `cmd` in `dir`", `cmd`, cmd.String(), `dir`, dir)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("compile %s: %w", file, err)
	}
	return nil
}
