package channel

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync"
)

// SessionFunc serves one connected front-end until it disconnects or ctx
// is canceled.
type SessionFunc func(ctx context.Context, conn *Conn)

// RejectFunc is told about connections refused by the peer check.
type RejectFunc func(err error)

var peerUIDMatchesCurrentUserFn = peerUIDMatchesCurrentUser

// Server accepts front-end sessions on a Unix socket.
type Server struct {
	socketPath string
	session    SessionFunc
	OnReject   RejectFunc

	listener net.Listener
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewServer creates a server that runs session for every connection.
func NewServer(socketPath string, session SessionFunc) *Server {
	return &Server{socketPath: socketPath, session: session}
}

// Start begins listening. A stale socket file is removed first.
func (s *Server) Start() error {
	os.Remove(s.socketPath)

	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.socketPath, err)
	}
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		ln.Close()
		os.Remove(s.socketPath)
		return fmt.Errorf("setting socket permissions: %w", err)
	}
	s.listener = ln
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.acceptLoop()
	}()
	return nil
}

// Addr returns the socket path.
func (s *Server) Addr() string {
	return s.socketPath
}

// Stop closes the listener, cancels running sessions and waits for them.
func (s *Server) Stop() {
	if s.listener != nil {
		s.listener.Close()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	os.Remove(s.socketPath)
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return // listener closed
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer conn.Close()
			s.handleConn(s.ctx, conn)
		}()
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	ok, err := peerUIDMatchesCurrentUserFn(conn)
	if err == nil && !ok {
		err = fmt.Errorf("peer uid mismatch")
	}
	if err != nil {
		if s.OnReject != nil {
			s.OnReject(err)
		}
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c := NewConn(conn)
	go func() {
		<-ctx.Done()
		c.Close() //nolint: errcheck
	}()
	s.session(ctx, c)
}
