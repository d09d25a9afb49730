// Command chemc is the compiler's entry point: lex -> CST -> AST -> resolve
// -> lower -> emit, wired together by internal/driver and exposed through a
// cobra CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// Ignore the error: a missing .env is the common case, not a failure
	// (termfx-morfx's cmd/morfx does the same at startup).
	_ = godotenv.Load()

	filtered, argValues := splitArgFlags(os.Args[1:])
	root := newRootCmd(argValues)
	root.SetArgs(filtered)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
