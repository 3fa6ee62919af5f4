package channel

import (
	"fmt"
	"net"
	"os"
)

func peerUIDMatchesCurrentUser(conn net.Conn) (bool, error) {
	uid, err := peerUID(conn)
	if err != nil {
		return false, fmt.Errorf("reading peer credentials: %w", err)
	}
	return uid == uint32(os.Getuid()), nil
}
