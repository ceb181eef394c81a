package mpymk

import "time"

// Tracer receives the observable progress of a [Batch] run. The message
// methods take sllm-style templates with alternating key/value args, see
// [WriteTracer].
type Tracer interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)

	StartBatch(dir string, files int)
	DoneBatch(dir string, dt time.Duration)

	// CompileFile announces the compiler run for file no (1-based) of of.
	// optLevel is empty for unoptimized runs.
	CompileFile(file, optLevel string, no, of int)
	CompileFailed(file string, err error)

	RemoveOutput(file string)
	CollectOutput(file, dest string)
}

type TraceLog int

const (
	TraceWarn TraceLog = 1 << iota
	TraceInfo
	TraceDebug
)

var DefaultTraceLog = TraceWarn
