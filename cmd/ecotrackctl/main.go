package main

import (
	"context"
	"fmt"
	"os"

	"ecotrack/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand(nil)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
