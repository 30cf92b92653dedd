package nameserver

import (
	"fmt"
	"net"

	"github.com/scriptoria/scriptoria/pkg/wire"
)

// forwardSingle opens a fresh connection to a storage node's
// client-facing address, sends one frame, and returns its single-line
// reply. It is used for the name-node-to-storage-node forwarding
// CREATE, DELETE, and EXEC's CLEANREAD require — the name node
// behaves as an ordinary client of the storage node for these calls.
func forwardSingle(addr, frame string) (string, error) {
	raw, err := net.Dial("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("dial storage node %s: %w", addr, err)
	}
	defer raw.Close()
	conn := wire.NewConn(raw)

	if err := conn.WriteFrame(wire.ClientTimeout, frame); err != nil {
		return "", fmt.Errorf("send frame to %s: %w", addr, err)
	}
	reply, err := conn.ReadFrame(wire.ClientTimeout)
	if err != nil {
		return "", fmt.Errorf("read reply from %s: %w", addr, err)
	}
	return reply, nil
}

// forwardMultiframe is forwardSingle's counterpart for commands whose
// reply is a SUCCESS header, zero or more body lines, and a trailing
// STOP (INFO). It returns only the body lines.
func forwardMultiframe(addr, frame string) ([]string, error) {
	raw, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial storage node %s: %w", addr, err)
	}
	defer raw.Close()
	conn := wire.NewConn(raw)

	if err := conn.WriteFrame(wire.ClientTimeout, frame); err != nil {
		return nil, fmt.Errorf("send frame to %s: %w", addr, err)
	}
	header, err := conn.ReadFrame(wire.ClientTimeout)
	if err != nil {
		return nil, fmt.Errorf("read header from %s: %w", addr, err)
	}
	if wire.Split(header)[0] != wire.RespSuccess {
		return nil, fmt.Errorf("storage node %s: %s", addr, header)
	}

	var lines []string
	for {
		line, err := conn.ReadFrame(wire.ClientTimeout)
		if err != nil {
			return nil, fmt.Errorf("read body from %s: %w", addr, err)
		}
		if line == wire.Stop {
			return lines, nil
		}
		lines = append(lines, line)
	}
}
