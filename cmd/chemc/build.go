package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hassan/chemc/internal/driver"
)

func runBuild(f *cliFlags, argValues map[string]string, positional []string) error {
	if !allowedModes[f.mode] {
		return fmt.Errorf("chemc: unknown --mode %q", f.mode)
	}
	if f.jit {
		return fmt.Errorf("chemc: --jit: not implemented in this core")
	}
	if f.outBC != "" || f.outObj != "" || f.outAsm != "" || f.outBin != "" {
		return fmt.Errorf("chemc: bitcode/object/assembly/binary output channels are not implemented in this core")
	}

	resDir, err := resourceDir(f.resDir)
	if err != nil {
		return err
	}

	log := newLogger(f.verbose)
	log.WithField("resDir", resDir).Debug("resolved resources directory")
	for name, val := range argValues {
		log.WithFields(map[string]interface{}{"name": name, "value": val}).Debug("build-descriptor arg")
	}
	for _, flag := range []struct {
		name string
		set  bool
	}{
		{"lto", f.lto}, {"assertions", f.assertions}, {"no-cbi", f.noCBI},
		{"cpp-like", f.cppLike}, {"ignore-extension", f.ignoreExtension},
	} {
		if flag.set {
			log.WithField("flag", flag.name).Debug("accepted, not yet enforced by this core's back ends")
		}
	}

	inputs, err := resolveInputs(positional)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("chemc: no input files")
	}

	var sources []string
	for _, in := range inputs {
		switch classifyInput(in) {
		case inputSource:
			sources = append(sources, in)
		case inputCSource, inputObject, inputBuildDescriptor:
			log.WithField("file", in).Warn("input kind not implemented in this core, skipping")
		default:
			if f.ignoreExtension {
				sources = append(sources, in)
			} else {
				log.WithField("file", in).Warn("unrecognized extension, skipping (pass --ignore-extension to force)")
			}
		}
	}
	if len(sources) == 0 {
		return fmt.Errorf("chemc: no recognized source files among the inputs")
	}

	if f.printCST {
		return printCSTFiles(sources)
	}
	if f.printAST {
		return printASTFiles(sources)
	}
	if f.printIG {
		return printImportGraph(sources, uniqueDirs(sources), log)
	}

	d, err := driver.New(driver.Options{
		Target64: true,
		Roots:    uniqueDirs(sources),
		Optimize: f.mode != "debug" && f.mode != "debug_quick",
		CacheDB:  f.cacheDB,
		Log:      log,
	})
	if err != nil {
		return err
	}
	defer d.Close()

	start := time.Now()
	units, c, diags, buildErr := d.Build(sources)
	if f.benchmark {
		log.WithField("elapsed", time.Since(start)).Info("build finished")
	}

	for _, item := range diags.Items() {
		fmt.Fprintln(os.Stderr, item.String())
	}
	if buildErr != nil {
		return buildErr
	}
	if diags.HasErrors() {
		return fmt.Errorf("chemc: %d diagnostic error(s)", len(diags.Items()))
	}

	if err := writeOutput(f, sources, units, c); err != nil {
		return err
	}

	if f.compileOnly {
		log.Debug("-c: compile-only, no link step exists in this core to skip")
	}
	return nil
}

// writeOutput picks the output channel from -o's extension (or --out-ll)
// and writes it, per §4.14.
func writeOutput(f *cliFlags, sources []string, units []*driver.Unit, c string) error {
	irText := concatIR(units)

	if f.outLL != "" {
		if err := os.WriteFile(f.outLL, []byte(irText), 0o644); err != nil {
			return fmt.Errorf("chemc: writing %s: %w", f.outLL, err)
		}
	}
	if f.debugIR && f.outLL == "" {
		sibling := defaultOutputPath(f.output, sources, ".ll")
		if err := os.WriteFile(sibling, []byte(irText), 0o644); err != nil {
			return fmt.Errorf("chemc: writing %s: %w", sibling, err)
		}
	}

	ext := filepath.Ext(f.output)
	if f.output == "" {
		ext = ".c"
	}

	switch ext {
	case ".c":
		out := defaultOutputPath(f.output, sources, ".c")
		return os.WriteFile(out, []byte(c), 0o644)
	case ".ll":
		out := defaultOutputPath(f.output, sources, ".ll")
		return os.WriteFile(out, []byte(irText), 0o644)
	case ".ch":
		return fmt.Errorf("chemc: round-trip .ch translation is not implemented in this core")
	default:
		return fmt.Errorf("chemc: output extension %q selects a job kind not implemented in this core", ext)
	}
}

func concatIR(units []*driver.Unit) string {
	var b strings.Builder
	for _, u := range units {
		if u.Module != nil {
			b.WriteString(u.Module.String())
			b.WriteString("\n")
		}
	}
	return b.String()
}

func defaultOutputPath(output string, sources []string, ext string) string {
	if output != "" {
		return output
	}
	base := filepath.Base(sources[0])
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return base + ext
}

func uniqueDirs(paths []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range paths {
		dir := filepath.Dir(p)
		if !seen[dir] {
			seen[dir] = true
			out = append(out, dir)
		}
	}
	return out
}
