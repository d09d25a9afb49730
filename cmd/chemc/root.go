package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// cliFlags collects every §4.14 flag into one struct, built once per
// invocation from cobra's parsed pflag.FlagSet.
type cliFlags struct {
	output string
	mode   string

	outLL, outBC, outObj, outAsm, outBin string
	compileOnly                          bool

	lto, assertions, debugIR, noCBI, cppLike, ignoreExtension, jit bool

	resDir string

	benchmark, printAST, printCST, printIG, verbose bool

	target  string
	cacheDB string
}

var allowedModes = map[string]bool{
	"debug": true, "debug_quick": true,
	"release": true, "release_fast": true, "release_small": true,
}

func newRootCmd(argValues map[string]string) *cobra.Command {
	f := &cliFlags{}

	root := &cobra.Command{
		Use:           "chemc [files...]",
		Short:         "Compile source files to C",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(f, argValues, args)
		},
	}

	flags := root.Flags()
	flags.StringVarP(&f.output, "output", "o", "", "output path; its extension selects the job kind")
	flags.StringVar(&f.mode, "mode", "debug", "optimisation mode: debug|debug_quick|release|release_fast|release_small")
	flags.StringVar(&f.outLL, "out-ll", "", "force textual IR output to this path")
	flags.StringVar(&f.outBC, "out-bc", "", "force bitcode output to this path")
	flags.StringVar(&f.outObj, "out-obj", "", "force object output to this path")
	flags.StringVar(&f.outAsm, "out-asm", "", "force assembly output to this path")
	flags.StringVar(&f.outBin, "out-bin", "", "force binary output to this path")
	flags.BoolVarP(&f.compileOnly, "compile-only", "c", false, "compile only, do not link")
	flags.BoolVar(&f.lto, "lto", false, "enable link-time optimisation")
	flags.BoolVar(&f.assertions, "assertions", false, "enable runtime assertions")
	flags.BoolVar(&f.debugIR, "debug-ir", false, "also write the IR text to a .ll file alongside the primary output")
	flags.BoolVar(&f.noCBI, "no-cbi", false, "disable compile-time builtin interpretation")
	flags.BoolVar(&f.cppLike, "cpp-like", false, "emit C++-compatible C output")
	flags.BoolVar(&f.ignoreExtension, "ignore-extension", false, "treat inputs with an unrecognized extension as source files")
	flags.BoolVar(&f.jit, "jit", false, "JIT-execute instead of emitting a file")
	flags.StringVar(&f.resDir, "res", "", "resources directory (default: $CHEMC_RES_DIR or a path relative to the executable)")
	flags.BoolVar(&f.benchmark, "benchmark", false, "log the total build time")
	flags.BoolVar(&f.printAST, "print-ast", false, "print the converted AST and exit")
	flags.BoolVar(&f.printCST, "print-cst", false, "print the concrete syntax tree and exit")
	flags.BoolVar(&f.printIG, "print-ig", false, "print the flattened import graph and exit")
	flags.BoolVarP(&f.verbose, "verbose", "v", false, "enable debug-level logging")
	flags.StringVar(&f.target, "target", "", "target triple (IR back-end output only)")
	flags.StringVar(&f.cacheDB, "cache-db", "", "path to an on-disk cross-run cache database")

	for _, name := range reservedSubcommands {
		root.AddCommand(newReservedCmd(name))
	}

	return root
}

func newLogger(verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: false})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
	return log
}

// resourceDir resolves §4.14's --res directory: the flag wins, then
// CHEMC_RES_DIR, then a "res" directory next to the executable.
func resourceDir(flagVal string) (string, error) {
	if flagVal != "" {
		return flagVal, nil
	}
	if env := os.Getenv("CHEMC_RES_DIR"); env != "" {
		return env, nil
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("chemc: locating executable for default --res: %w", err)
	}
	return filepath.Join(filepath.Dir(exe), "res"), nil
}
