package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/R3defined/thonny/internal/protocol"
)

// runWire converts records between their rendering and the wire form,
// one per input line.
func runWire(args []string) int {
	if len(args) != 1 || (args[0] != "encode" && args[0] != "decode") {
		fmt.Fprintln(rootStderr, "Usage: thonny wire <encode|decode> < input")
		return ExitUsageErr
	}
	encode := args[0] == "encode"

	code := ExitOK
	sc := bufio.NewScanner(rootStdin)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		out, err := convertLine(line, encode)
		if err != nil {
			fmt.Fprintf(rootStderr, "thonny: line %d: %v\n", lineNo, err)
			code = ExitFalse
			continue
		}
		fmt.Fprintln(rootStdout, out)
	}
	if err := sc.Err(); err != nil {
		fmt.Fprintf(rootStderr, "thonny: reading input: %v\n", err)
		return ExitInternal
	}
	return code
}

func convertLine(line string, encode bool) (string, error) {
	if !encode {
		rec, err := protocol.Decode(line)
		if err != nil {
			return "", err
		}
		return rec.Repr(), nil
	}
	rec, err := protocol.ParseRecord(line)
	if err != nil {
		return "", err
	}
	return protocol.Encode(rec)
}
