package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hassan/chemc/internal/importgraph"
)

// splitArgFlags pulls `--arg-<name> <value>` / `--arg-<name>=<value>` pairs
// out of args before cobra ever sees them — pflag has no notion of a
// dynamically named flag, so these are parsed here and forwarded to the
// build descriptor context (§4.14) as a plain map.
func splitArgFlags(args []string) (filtered []string, values map[string]string) {
	values = map[string]string{}
	for i := 0; i < len(args); i++ {
		a := args[i]
		rest, ok := strings.CutPrefix(a, "--arg-")
		if !ok {
			filtered = append(filtered, a)
			continue
		}
		if name, val, found := strings.Cut(rest, "="); found {
			values[name] = val
			continue
		}
		if i+1 < len(args) {
			values[rest] = args[i+1]
			i++
			continue
		}
		values[rest] = ""
	}
	return filtered, values
}

// resolveInputs expands glob-metacharacter positional arguments (per
// §4.13's doublestar-based glob expansion) and passes through plain paths
// unchanged, returning every input as an absolute path.
func resolveInputs(args []string) ([]string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("chemc: getwd: %w", err)
	}

	var out []string
	for _, a := range args {
		if !strings.ContainsAny(a, "*?[") {
			abs, err := filepath.Abs(a)
			if err != nil {
				return nil, fmt.Errorf("chemc: resolving %q: %w", a, err)
			}
			out = append(out, abs)
			continue
		}

		matches, err := doublestar.Glob(os.DirFS(cwd), a)
		if err != nil {
			return nil, fmt.Errorf("chemc: bad glob %q: %w", a, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("chemc: glob %q matched no files", a)
		}
		for _, m := range matches {
			out = append(out, filepath.Join(cwd, m))
		}
	}
	return out, nil
}

// classifyInput reports a resolved input's job by its extension, per
// §4.14's positional-input inference (source/.c/.o/build-descriptor).
type inputKind int

const (
	inputSource inputKind = iota
	inputCSource
	inputObject
	inputBuildDescriptor
	inputUnknown
)

func classifyInput(path string) inputKind {
	switch filepath.Ext(path) {
	case importgraph.SourceExt:
		return inputSource
	case ".c":
		return inputCSource
	case ".o":
		return inputObject
	case ".lab":
		return inputBuildDescriptor
	default:
		return inputUnknown
	}
}
