package wire

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"time"
)

// Conn wraps a net.Conn with the line-framing and timeout discipline
// both node types require: a 30s recv/send timeout on client sockets, a 5s
// timeout on control-channel traffic that doubles as heartbeat cadence.
type Conn struct {
	net.Conn
	r *bufio.Reader
}

// NewConn wraps an already-accepted or dialed connection.
func NewConn(c net.Conn) *Conn {
	return &Conn{Conn: c, r: bufio.NewReader(c)}
}

// ReadFrame reads one newline-terminated frame, applying timeout as the
// read deadline. A timeout of zero disables the deadline.
func (c *Conn) ReadFrame(timeout time.Duration) (string, error) {
	if timeout > 0 {
		if err := c.Conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return "", err
		}
	}
	line, err := c.r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// WriteFrame writes body followed by a newline, applying timeout as the
// write deadline.
func (c *Conn) WriteFrame(timeout time.Duration, body string) error {
	if timeout > 0 {
		if err := c.Conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(c.Conn, "%s\n", body)
	return err
}

// RemoteAddrString returns RemoteAddr (which net.Conn already has) as a
// string, so callers importing only wire.Conn don't need the net package
// for logging.
func (c *Conn) RemoteAddrString() string {
	if a := c.Conn.RemoteAddr(); a != nil {
		return a.String()
	}
	return ""
}

// Standard timeouts used across both node types.
const (
	ClientTimeout  = 30 * time.Second
	ControlTimeout = 5 * time.Second
)
