// Command nexconsole is a terminal admin console for a reqres-style users API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/nexconsole/internal/cmd"
	"github.com/felixgeelhaar/nexconsole/internal/exitcode"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		exitcode.Exit(exitcode.Success)
	case ctx.Err() != nil:
		fmt.Fprintln(os.Stderr, "\nInterrupted")
		exitcode.Exit(exitcode.Interrupted)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitcode.ExitWithError(err)
	}
}
