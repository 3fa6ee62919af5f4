package cli

import (
	"fmt"

	"github.com/R3defined/thonny/internal/pathid"
)

var (
	canonicalCaseFn  = pathid.CanonicalCase
	samePathFn       = pathid.SamePath
	pathStartsWithFn = pathid.PathStartsWith
)

func runPath(args []string) int {
	if len(args) == 0 {
		printPathHelp()
		return ExitUsageErr
	}
	sub, rest := args[0], args[1:]
	switch {
	case sub == "canonical" && len(rest) == 1:
		p, err := canonicalCaseFn(rest[0])
		if err != nil {
			fmt.Fprintf(rootStderr, "thonny: %v\n", err)
			return ExitFalse
		}
		fmt.Fprintln(rootStdout, p)
		return ExitOK
	case sub == "same" && len(rest) == 2:
		return boolExit(samePathFn(rest[0], rest[1]))
	case sub == "within" && len(rest) == 2:
		return boolExit(pathStartsWithFn(rest[0], rest[1]))
	default:
		printPathHelp()
		return ExitUsageErr
	}
}

func boolExit(ok bool) int {
	if ok {
		fmt.Fprintln(rootStdout, "true")
		return ExitOK
	}
	fmt.Fprintln(rootStdout, "false")
	return ExitFalse
}

func printPathHelp() {
	fmt.Fprintln(rootStderr, "Usage:")
	fmt.Fprintln(rootStderr, "  thonny path canonical <absolute-path>")
	fmt.Fprintln(rootStderr, "  thonny path same <a> <b>")
	fmt.Fprintln(rootStderr, "  thonny path within <child> <dir>")
}
