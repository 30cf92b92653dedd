// Package client implements the wire-protocol half of a scriptoria
// client: dialing the name node, completing the INIT handshake, and
// following a REDIRECT to the responsible storage node. It backs
// scriptoriactl, the non-interactive scriptable command-line front end;
// the ANSI-coloured interactive REPL described in spec.md §1/§6 is an
// out-of-scope collaborator and is not implemented here.
package client

import (
	"fmt"
	"net"

	"github.com/scriptoria/scriptoria/pkg/wire"
)

// Client is one session's connection to the name node.
type Client struct {
	conn *wire.Conn
	user string
}

// Connect dials addr, sends INIT|user, and returns once the name node's
// welcome frame has been read. It accepts either SUCCESS or ACK as a
// positive reply, per spec.md §9's open question on the client side.
func Connect(addr, user string) (*Client, error) {
	raw, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("client: dial name node %s: %w", addr, err)
	}
	conn := wire.NewConn(raw)

	if err := conn.WriteFrame(wire.ClientTimeout, wire.Join(wire.VerbInit, user)); err != nil {
		raw.Close()
		return nil, fmt.Errorf("client: send INIT: %w", err)
	}
	reply, err := conn.ReadFrame(wire.ClientTimeout)
	if err != nil {
		raw.Close()
		return nil, fmt.Errorf("client: read welcome frame: %w", err)
	}
	fields := wire.Split(reply)
	if !wire.IsPositive(fields[0]) {
		raw.Close()
		return nil, fmt.Errorf("client: name node refused INIT: %s", reply)
	}

	return &Client{conn: conn, user: user}, nil
}

// Close sends QUIT and releases the connection.
func (c *Client) Close() error {
	_ = c.conn.WriteFrame(wire.ClientTimeout, wire.VerbQuit)
	return c.conn.Close()
}

// Command sends one frame to the name node and returns its single-line
// reply verbatim, for the inline-answer verbs (CREATE, DELETE, ADDACCESS,
// REMACCESS).
func (c *Client) Command(verb string, args ...string) (string, error) {
	frame := verb
	if len(args) > 0 {
		frame = wire.Join(append([]string{verb}, args...)...)
	}
	if err := c.conn.WriteFrame(wire.ClientTimeout, frame); err != nil {
		return "", fmt.Errorf("client: send %s: %w", verb, err)
	}
	reply, err := c.conn.ReadFrame(wire.ClientTimeout)
	if err != nil {
		return "", fmt.Errorf("client: read %s reply: %w", verb, err)
	}
	return reply, nil
}

// MultiCommand sends one frame and reads a SUCCESS header followed by
// zero or more body lines up to a trailing STOP, for VIEW, LIST, and
// INFO answered directly by the name node.
func (c *Client) MultiCommand(verb string, args ...string) ([]string, error) {
	frame := verb
	if len(args) > 0 {
		frame = wire.Join(append([]string{verb}, args...)...)
	}
	if err := c.conn.WriteFrame(wire.ClientTimeout, frame); err != nil {
		return nil, fmt.Errorf("client: send %s: %w", verb, err)
	}
	header, err := c.conn.ReadFrame(wire.ClientTimeout)
	if err != nil {
		return nil, fmt.Errorf("client: read %s header: %w", verb, err)
	}
	if !wire.IsPositive(wire.Split(header)[0]) {
		return nil, fmt.Errorf("client: %s: %s", verb, header)
	}
	return readUntilStop(c.conn)
}

// Redirect sends a redirect-seeking command (READ/WRITE/STREAM/UNDO) to
// the name node and returns the storage node address it points at.
func (c *Client) Redirect(verb, filename string) (addr string, err error) {
	reply, err := c.Command(verb, filename)
	if err != nil {
		return "", err
	}
	fields := wire.Split(reply)
	if fields[0] != wire.RespRedirect {
		return "", fmt.Errorf("client: %s: %s", verb, reply)
	}
	if len(fields) < 3 {
		return "", fmt.Errorf("client: malformed REDIRECT %q", reply)
	}
	return net.JoinHostPort(fields[1], fields[2]), nil
}

// StorageConn is a direct connection to a storage node, opened after
// following a name-node REDIRECT. It carries no ticket: the storage
// node trusts the name node transitively and re-checks nothing itself.
type StorageConn struct {
	conn *wire.Conn
}

// DialStorage opens a fresh connection to a storage node's client-
// facing address.
func DialStorage(addr string) (*StorageConn, error) {
	raw, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("client: dial storage node %s: %w", addr, err)
	}
	return &StorageConn{conn: wire.NewConn(raw)}, nil
}

// Close releases the storage connection.
func (s *StorageConn) Close() error { return s.conn.Close() }

// Command sends one frame and returns the single-line reply.
func (s *StorageConn) Command(verb string, args ...string) (string, error) {
	frame := verb
	if len(args) > 0 {
		frame = wire.Join(append([]string{verb}, args...)...)
	}
	if err := s.conn.WriteFrame(wire.ClientTimeout, frame); err != nil {
		return "", fmt.Errorf("client: send %s: %w", verb, err)
	}
	reply, err := s.conn.ReadFrame(wire.ClientTimeout)
	if err != nil {
		return "", fmt.Errorf("client: read %s reply: %w", verb, err)
	}
	return reply, nil
}

// MultiCommand sends one frame and reads a SUCCESS header followed by
// body lines up to STOP, for READ/CLEANREAD/INFO/STREAM.
func (s *StorageConn) MultiCommand(verb string, args ...string) ([]string, error) {
	frame := verb
	if len(args) > 0 {
		frame = wire.Join(append([]string{verb}, args...)...)
	}
	if err := s.conn.WriteFrame(wire.ClientTimeout, frame); err != nil {
		return nil, fmt.Errorf("client: send %s: %w", verb, err)
	}
	header, err := s.conn.ReadFrame(wire.ClientTimeout)
	if err != nil {
		return nil, fmt.Errorf("client: read %s header: %w", verb, err)
	}
	if !wire.IsPositive(wire.Split(header)[0]) {
		return nil, fmt.Errorf("client: %s: %s", verb, header)
	}
	return readUntilStop(s.conn)
}

// OpenWrite sends WRITE|filename|sentenceIndex|user and returns once the
// storage node has replied with its SUCCESS write-session prompt.
func (s *StorageConn) OpenWrite(filename string, sentenceIndex int, user string) error {
	reply, err := s.Command(wire.VerbWrite, filename, fmt.Sprintf("%d", sentenceIndex), user)
	if err != nil {
		return err
	}
	if !wire.IsPositive(wire.Split(reply)[0]) {
		return fmt.Errorf("client: WRITE: %s", reply)
	}
	return nil
}

// SendWord sends one "word_index|content" frame of an open write
// session and returns the storage node's per-frame reply.
func (s *StorageConn) SendWord(wordIndex int, content string) (string, error) {
	frame := fmt.Sprintf("%d|%s", wordIndex, content)
	if err := s.conn.WriteFrame(wire.ClientTimeout, frame); err != nil {
		return "", fmt.Errorf("client: send word frame: %w", err)
	}
	return s.conn.ReadFrame(wire.ClientTimeout)
}

// Commit sends the ETIRW sentinel closing a write session and returns
// the storage node's final reply.
func (s *StorageConn) Commit() (string, error) {
	if err := s.conn.WriteFrame(wire.ClientTimeout, wire.VerbEtirw); err != nil {
		return "", fmt.Errorf("client: send ETIRW: %w", err)
	}
	return s.conn.ReadFrame(wire.ClientTimeout)
}

func readUntilStop(conn *wire.Conn) ([]string, error) {
	var lines []string
	for {
		line, err := conn.ReadFrame(wire.ClientTimeout)
		if err != nil {
			return nil, fmt.Errorf("client: read body: %w", err)
		}
		if line == wire.Stop {
			return lines, nil
		}
		lines = append(lines, line)
	}
}
