package frontend

import "github.com/R3defined/thonny/internal/protocol"

// SmallestEnclosing returns the narrowest candidate that contains target
// or equals it. Candidates that do not nest in each other are compared
// by their position in the slice; the first wins.
func SmallestEnclosing(candidates []protocol.TextRange, target protocol.TextRange) (protocol.TextRange, bool) {
	var best protocol.TextRange
	found := false
	for _, c := range candidates {
		if !c.ContainsOrEqual(target) {
			continue
		}
		if !found || best.ContainsStrictly(c) {
			best = c
			found = true
		}
	}
	return best, found
}
