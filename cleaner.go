package mpymk

import (
	"fmt"
	"path/filepath"

	"git.fractalqb.de/fractalqb/mpymk/mkfs"
)

// Clean removes compiler outputs left in dir, e.g. after an interrupted
// batch. outputs defaults to [DefaultOutputs] when nil. With dryrun the
// files are only reported.
func Clean(dir string, outputs mkfs.Filter, dryrun bool, tr Tracer) error {
	if tr == nil {
		tr = DefaultTracer()
	}
	if dir == "" {
		dir = "."
	}
	if outputs == nil {
		outputs = DefaultOutputs()
	}
	ls, err := mkfs.List(dir, outputs)
	if err != nil {
		return fmt.Errorf("list outputs in %s: %w", dir, err)
	}
	for _, f := range ls {
		tr.RemoveOutput(f)
		if dryrun {
			continue
		}
		if _, err := mkfs.RemoveIfExists(filepath.Join(dir, f)); err != nil {
			return fmt.Errorf("remove %s: %w", f, err)
		}
	}
	return nil
}
