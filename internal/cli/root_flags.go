package cli

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/R3defined/thonny/internal/config"
)

var (
	rootStdout   io.Writer = os.Stdout
	rootStderr   io.Writer = os.Stderr
	buildVersion           = "dev"
)

func init() {
	buildVersion = resolveBuildVersion(buildVersion)
}

func handleRootFlags(args []string) (bool, int) {
	if len(args) != 1 {
		return false, 0
	}

	switch args[0] {
	case "--version", "-V":
		fmt.Fprintf(rootStdout, "thonny %s\n", buildVersion)
		return true, 0
	case "--help", "-h", "help":
		printRootHelp(rootStdout)
		return true, 0
	default:
		return false, 0
	}
}

func resolveBuildVersion(defaultVersion string) string {
	if defaultVersion != "" && defaultVersion != "dev" {
		return defaultVersion
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return defaultVersion
	}
	if info.Main.Version == "" || info.Main.Version == "(devel)" {
		return defaultVersion
	}
	return info.Main.Version
}

func printRootHelp(out io.Writer) {
	fmt.Fprintln(out, "Usage:")
	fmt.Fprintln(out, "  thonny globals [--module NAME]     Show a module's global variables")
	fmt.Fprintln(out, "  thonny frame <id>                  Show a paused frame")
	fmt.Fprintln(out, "  thonny stack [--dir D] [--file F] [--at LINE.COL]")
	fmt.Fprintln(out, "  thonny wire <encode|decode>        Convert records between rendering and wire form")
	fmt.Fprintln(out, "  thonny path canonical <path>")
	fmt.Fprintln(out, "  thonny path same <a> <b>")
	fmt.Fprintln(out, "  thonny path within <child> <dir>")
	fmt.Fprintln(out, "  thonny mcp                         Serve state queries over MCP (stdio)")
	fmt.Fprintln(out, "  thonny serve [--socket PATH]       Run a back-end listening on a Unix socket")
	fmt.Fprintln(out, "  thonny config <path|init|check>")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Global flags:")
	fmt.Fprintln(out, "  --help, -h       Show help")
	fmt.Fprintln(out, "  --version, -V    Show version")
	fmt.Fprintln(out, "")
	fmt.Fprintf(out, "Config: %s\n", config.ExampleConfigPath())
}
