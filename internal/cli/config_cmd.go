package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/R3defined/thonny/internal/config"
)

var (
	configPathFn = config.ExampleConfigPath
	saveConfigFn = config.SaveTo
)

func runConfig(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(rootStderr, "Usage: thonny config <path|init|check>")
		return ExitUsageErr
	}
	path := configPathFn()

	switch args[0] {
	case "path":
		fmt.Fprintln(rootStdout, path)
		return ExitOK
	case "init":
		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(rootStderr, "thonny: %s already exists\n", path)
			return ExitFalse
		} else if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(rootStderr, "thonny: %v\n", err)
			return ExitInternal
		}
		if err := saveConfigFn(path, config.Default()); err != nil {
			fmt.Fprintf(rootStderr, "thonny: %v\n", err)
			return ExitInternal
		}
		fmt.Fprintf(rootStdout, "wrote %s\n", path)
		return ExitOK
	case "check":
		cfg, err := config.LoadFrom(path)
		if err != nil {
			fmt.Fprintf(rootStderr, "thonny: %v\n", err)
			return ExitFalse
		}
		if err := config.Validate(cfg); err != nil {
			fmt.Fprintf(rootStderr, "thonny: invalid config: %v\n", err)
			return ExitFalse
		}
		fmt.Fprintln(rootStdout, "ok")
		return ExitOK
	default:
		fmt.Fprintf(rootStderr, "thonny: unknown config command: %s\n", args[0])
		return ExitUsageErr
	}
}
