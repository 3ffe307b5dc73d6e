package main

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/aescanero/example-app/internal/cli"
)

var (
	// Version is set by build flags
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	exitCode := runSafely(os.Args[1:], runWithArgs, os.Stderr)

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

// runSafely turns a panic escaping runner into exit code 1
func runSafely(args []string, runner func([]string) int, errWriter io.Writer) (exitCode int) {
	defer func() {
		if r := recover(); r != nil {
			_, _ = fmt.Fprintf(errWriter, "panic recovered: %v\n%s", r, debug.Stack())
			exitCode = 1
		}
	}()

	return runner(args)
}

func runWithArgs(args []string) int {
	rootCmd := cli.NewRootCmd(Version, BuildTime)
	rootCmd.SetArgs(args)

	if err := cli.Execute(rootCmd); err != nil {
		_, _ = fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return 1
	}

	return 0
}
