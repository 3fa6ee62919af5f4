package main

import (
	"fmt"
	"os"

	"github.com/R3defined/thonny/internal/backend"
	"github.com/R3defined/thonny/internal/cli"
	"github.com/R3defined/thonny/internal/config"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == config.BackendArg {
		if err := backend.Run(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "thonny backend: %v\n", err)
			os.Exit(1)
		}
		return
	}

	code := cli.Run(os.Args[1:])
	os.Exit(code)
}
