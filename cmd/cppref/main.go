// Command cppref refactors C++ code from the command line: it implements
// inherited interfaces, defines declared functions, moves in-class
// definitions to the source file and rewrites declarations, keeping header
// and source in sync.
package main

import (
	"context"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
