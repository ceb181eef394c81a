// mpymk compiles every MicroPython source in a working directory with an
// external byte-compiler and collects the outputs, the way the classic
// "compile all, move to ../bytecode-compiled" device workflow does it.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"

	"git.fractalqb.de/fractalqb/qblog"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"git.fractalqb.de/fractalqb/mpymk"
)

var log = qblog.New(&qblog.DefaultConfig)

var (
	tracer = mpymk.DefaultTracer()

	flagDir      string
	flagTrace    string
	flagOpt      string
	flagCompiler string
	flagDest     string
	flagExclude  []string
	flagConfig   string
	flagFailFast bool
	flagDryRun   bool
)

var rootCmd = &cobra.Command{
	Use:   "mpymk",
	Short: "Batch-compile MicroPython sources with mpy-cross",
	Long: `mpymk runs the byte-compiler once per *.py file of the working directory,
removes the outputs of the exclusion set (boot.mpy and main.mpy by default)
and moves the remaining *.mpy files into the collection directory
(` + mpymk.DefaultDest + ` by default), overwriting what is already there.

The collection directory must exist. Compiler failures do not stop the
batch unless --fail-fast is given; they are reported together at the end.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runBatch,
}

var cleanCmd = &cobra.Command{
	Use:           "clean",
	Short:         "Remove compiler outputs left in the working directory",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runClean,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagDir, "dir", "C", ".", "working directory holding the sources")
	pf.StringVar(&flagTrace, "trace", "", "trace level: off, warn, info, debug")
	pf.StringVar(&flagConfig, "config", "",
		"config file (default: "+mpymk.DefaultConfigFile+" in the working directory, if present)")

	f := rootCmd.Flags()
	f.StringVarP(&flagOpt, "optimize", "O", "",
		"optimization level, passed to the compiler as the single token -O<level>")
	f.StringVar(&flagCompiler, "compiler", "",
		"byte-compiler executable (default "+mpymk.DefaultCompiler+")")
	f.StringVar(&flagDest, "dest", "",
		"collection directory for compiled outputs (default "+mpymk.DefaultDest+")")
	f.StringArrayVar(&flagExclude, "exclude", nil,
		"output names to delete instead of collecting (default boot.mpy, main.mpy)")
	f.BoolVar(&flagFailFast, "fail-fast", false,
		"abort the batch on the first compiler failure")

	cleanCmd.Flags().BoolVarP(&flagDryRun, "dry-run", "n", false,
		"only show what would be removed")

	rootCmd.AddCommand(cleanCmd)
}

func loadConfig() (*mpymk.Config, error) {
	path := flagConfig
	if path == "" {
		path = filepath.Join(flagDir, mpymk.DefaultConfigFile)
		if _, err := os.Stat(path); err != nil {
			return new(mpymk.Config), nil
		}
	}
	cfg, err := mpymk.LoadConfig(path)
	if err != nil {
		return nil, eris.Wrap(err, "load config")
	}
	log.Debug("using `config`", `config`, path)
	return cfg, nil
}

func runBatch(cmd *cobra.Command, _ []string) error {
	if err := tracer.ParseLogFlag(flagTrace); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	batch := cfg.Batch(flagDir)
	if cmd.Flags().Changed("optimize") {
		// -O with an empty level is a usage error, not an unoptimized run
		lvl := flagOpt
		batch.Compiler.OptLevel = &lvl
	}
	if flagCompiler != "" {
		batch.Compiler.Exe = flagCompiler
	}
	if flagDest != "" {
		batch.Dest = flagDest
	}
	if len(flagExclude) > 0 {
		batch.Exclude = mpymk.ExcludeNames(flagExclude...)
	}
	batch.FailFast = flagFailFast

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := batch.Run(ctx, tracer, mpymk.DefaultEnv()); err != nil {
		return eris.Wrapf(err, "batch in %s", flagDir)
	}
	return nil
}

func runClean(_ *cobra.Command, _ []string) error {
	if err := tracer.ParseLogFlag(flagTrace); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagDryRun && tracer.Log == mpymk.DefaultTraceLog {
		tracer.Log |= mpymk.TraceInfo // a silent dry run helps nobody
	}
	if err := mpymk.Clean(flagDir, cfg.OutputsFilter(), flagDryRun, tracer); err != nil {
		return eris.Wrapf(err, "clean %s", flagDir)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error(eris.ToString(err, false))
		os.Exit(1)
	}
}
