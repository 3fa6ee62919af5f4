//go:build !windows

package pathid

import "runtime"

// macOS volumes fold case by default; the on-disk spelling is not
// recovered there, only compared.
var platformCaseInsensitive = runtime.GOOS == "darwin"

func platformCaseResolver() CaseResolver {
	return Identity{}
}
