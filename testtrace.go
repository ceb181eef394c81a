package mpymk

import (
	"testing"
	"time"
)

// TestTracer forwards all trace output to a testing.T log.
type TestTracer struct{ T *testing.T }

var _ Tracer = TestTracer{}

func (tr TestTracer) Debug(msg string, args ...any) {
	tr.T.Logf("mpymk-DEBUG: %s %v", msg, args)
}

func (tr TestTracer) Info(msg string, args ...any) {
	tr.T.Logf("mpymk-INFO: %s %v", msg, args)
}

func (tr TestTracer) Warn(msg string, args ...any) {
	tr.T.Logf("mpymk-WARN: %s %v", msg, args)
}

func (tr TestTracer) StartBatch(dir string, files int) {
	tr.T.Logf("mpymk-StartBatch: %d files in %s", files, dir)
}

func (tr TestTracer) DoneBatch(dir string, dt time.Duration) {
	tr.T.Logf("mpymk-DoneBatch: %s %s", dir, dt)
}

func (tr TestTracer) CompileFile(file, optLevel string, no, of int) {
	tr.T.Logf("mpymk-CompileFile: [%d/%d] %s -O'%s'", no, of, file, optLevel)
}

func (tr TestTracer) CompileFailed(file string, err error) {
	tr.T.Logf("mpymk-CompileFailed: %s: %s", file, err)
}

func (tr TestTracer) RemoveOutput(file string) {
	tr.T.Logf("mpymk-RemoveOutput: %s", file)
}

func (tr TestTracer) CollectOutput(file, dest string) {
	tr.T.Logf("mpymk-CollectOutput: %s -> %s", file, dest)
}
