package mpymk

import (
	"fmt"
	"io"
	"os"
	"time"

	"git.fractalqb.de/fractalqb/sllm/v3"
)

// WriteTracer writes batch progress as plain text lines. The batch lifecycle
// and the per-file compile lines are always written, they are the tool's
// purpose. Debug/Info/Warn messages are filtered by Log.
type WriteTracer struct {
	W   io.Writer
	Log TraceLog
}

var _ Tracer = (*WriteTracer)(nil)

func DefaultTracer() *WriteTracer {
	return &WriteTracer{W: os.Stderr, Log: DefaultTraceLog}
}

func (tr *WriteTracer) ParseLogFlag(f string) error {
	switch f {
	case "":
		return nil
	case "off":
		tr.Log = 0
	case "warn", "w":
		tr.Log = TraceWarn
	case "info", "i":
		tr.Log = TraceWarn | TraceInfo
	case "debug", "d":
		tr.Log = TraceWarn | TraceInfo | TraceDebug
	default:
		return fmt.Errorf("write tracer: illegal log flag '%s'", f)
	}
	return nil
}

func (tr *WriteTracer) Debug(msg string, args ...any) {
	if tr.Log&TraceDebug == 0 {
		return
	}
	fmt.Fprint(tr.W, "  DEBUG ")
	sllm.Fprint(tr.W, msg, sllmArgs(args).append)
	fmt.Fprintln(tr.W)
}

func (tr *WriteTracer) Info(msg string, args ...any) {
	if tr.Log&(TraceInfo|TraceDebug) == 0 {
		return
	}
	fmt.Fprint(tr.W, "  INFO  ")
	sllm.Fprint(tr.W, msg, sllmArgs(args).append)
	fmt.Fprintln(tr.W)
}

func (tr *WriteTracer) Warn(msg string, args ...any) {
	if tr.Log&(TraceWarn|TraceInfo|TraceDebug) == 0 {
		return
	}
	fmt.Fprint(tr.W, "  WARN  ")
	sllm.Fprint(tr.W, msg, sllmArgs(args).append)
	fmt.Fprintln(tr.W)
}

func (tr *WriteTracer) StartBatch(dir string, files int) {
	fmt.Fprintf(tr.W, "{ compiling %d files in '%s'\n", files, dir)
}

func (tr *WriteTracer) DoneBatch(dir string, dt time.Duration) {
	fmt.Fprintf(tr.W, "} batch in '%s' took %s\n", dir, dt)
}

func (tr *WriteTracer) CompileFile(file, optLevel string, no, of int) {
	if optLevel == "" {
		fmt.Fprintf(tr.W, "[%d/%d]\tcompile %s\n", no, of, file)
	} else {
		fmt.Fprintf(tr.W, "[%d/%d]\tcompile %s -O%s\n", no, of, file, optLevel)
	}
}

func (tr *WriteTracer) CompileFailed(file string, err error) {
	fmt.Fprintf(tr.W, "!\tcompile %s: %s\n", file, err)
}

func (tr *WriteTracer) RemoveOutput(file string) {
	if tr.Log&(TraceInfo|TraceDebug) != 0 {
		fmt.Fprintf(tr.W, "-\tremove %s\n", file)
	}
}

func (tr *WriteTracer) CollectOutput(file, dest string) {
	if tr.Log&(TraceInfo|TraceDebug) != 0 {
		fmt.Fprintf(tr.W, ">\tmove %s to %s\n", file, dest)
	}
}

type sllmArgs []any

func (as sllmArgs) append(buf []byte, _ int, n string) ([]byte, error) {
	for len(as) > 0 {
		if k, ok := as[0].(string); ok {
			if len(as) == 1 {
				return buf, fmt.Errorf("no value for key '%s'", n)
			}
			if k == n {
				return sllm.AppendArg(buf, as[1]), nil
			}
			as = as[2:]
		} else {
			as = as[1:]
		}
	}
	return buf, fmt.Errorf("no arg for key '%s'", n)
}
