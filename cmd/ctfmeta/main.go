// Command ctfmeta compiles CTF trace metadata.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/roach88/ctfmeta/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := cli.NewRootCommand()
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return
	}

	if !cli.IsReported(err) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	stop()
	os.Exit(cli.GetExitCode(err))
}
