// Package channel carries protocol records between the front-end and the
// back-end, one encoded record per newline-terminated line.
package channel

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/R3defined/thonny/internal/protocol"
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("channel closed")

// maxLineSize bounds one received line, terminator excluded.
var maxLineSize = 16 * 1024 * 1024

// Conn is a bidirectional record channel. Send is safe for concurrent use;
// Receive must be called from a single goroutine.
type Conn struct {
	r      *bufio.Reader
	w      io.Writer
	closer io.Closer

	mu     sync.Mutex
	closed bool
}

// New wraps a reader/writer pair, e.g. a child process's stdout and stdin.
// closer may be nil.
func New(r io.Reader, w io.Writer, closer io.Closer) *Conn {
	return &Conn{r: bufio.NewReader(r), w: w, closer: closer}
}

// NewConn wraps a single duplex stream such as a socket.
func NewConn(rwc io.ReadWriteCloser) *Conn {
	return New(rwc, rwc, rwc)
}

// Send encodes rec and writes it as one line.
func (c *Conn) Send(rec *protocol.Record) error {
	line, err := protocol.Encode(rec)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if _, err := io.WriteString(c.w, line+"\n"); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}
	return nil
}

// Receive reads and decodes the next line. It returns io.EOF when the peer
// is gone. A *protocol.DecodeError only spoils that one line; the caller
// may keep reading.
func (c *Conn) Receive() (*protocol.Record, error) {
	for {
		line, tooLong, err := c.readLine()
		if tooLong {
			return nil, &protocol.DecodeError{Offset: maxLineSize, Msg: fmt.Sprintf("line longer than %d bytes", maxLineSize)}
		}
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("reading message: %w", err)
		}
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			if err == io.EOF {
				return nil, io.EOF
			}
			continue
		}
		// a final line may lack its terminator
		return protocol.Decode(line)
	}
}

// readLine reads up to the next newline without holding more than
// maxLineSize bytes. An oversized line is consumed and dropped.
func (c *Conn) readLine() (line string, tooLong bool, err error) {
	var buf []byte
	for {
		chunk, rerr := c.r.ReadSlice('\n')
		if !tooLong {
			if len(buf)+len(chunk) > maxLineSize+1 {
				tooLong, buf = true, nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if rerr == bufio.ErrBufferFull {
			continue
		}
		if rerr == nil {
			buf = buf[:len(buf)-1]
		}
		if !tooLong && len(buf) > maxLineSize {
			tooLong, buf = true, nil
		}
		return string(buf), tooLong, rerr
	}
}

// Close closes the underlying stream. Later Sends fail with ErrClosed.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}
