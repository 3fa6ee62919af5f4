package channel

import (
	"context"
	"fmt"
	"net"
)

// Dial connects to a back-end listening on socketPath.
func Dial(ctx context.Context, socketPath string) (*Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("connecting to backend: %w", err)
	}
	return NewConn(conn), nil
}
