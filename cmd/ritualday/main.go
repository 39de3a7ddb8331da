package main

import (
	"fmt"
	"os"

	"github.com/sandeepkv93/ritualday/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ritualday: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
