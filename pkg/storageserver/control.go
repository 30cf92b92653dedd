package storageserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/scriptoria/scriptoria/internal/logger"
	"github.com/scriptoria/scriptoria/pkg/directory"
	"github.com/scriptoria/scriptoria/pkg/wire"
)

// controlClient is the storage node's persistent outbound connection to
// the name node: one REGISTER exchange at
// startup, then an open channel carrying HEARTBEAT probes (which this
// side only ever echoes) and this side's FILE_* event pushes. corrID
// identifies this connection attempt in logs on both ends, since ssID
// isn't known until the REGISTER reply arrives.
type controlClient struct {
	s      *Server
	conn   *wire.Conn
	corrID string

	writeMu sync.Mutex

	ssID    atomic.Uint64
	isReady atomic.Bool
}

// dialControl connects to the name node's control port and completes
// the REGISTER handshake.
func dialControl(ctx context.Context, s *Server) (*controlClient, error) {
	addr := net.JoinHostPort(s.cfg.NameServerAddress, strconv.Itoa(s.cfg.NameServerPort))
	raw, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial nameserver control port %s: %w", addr, err)
	}
	conn := wire.NewConn(raw)

	cc := &controlClient{s: s, conn: conn, corrID: uuid.NewString()}

	files := strings.Join(s.knownFiles(), ",")
	register := wire.Join(wire.VerbRegister, s.cfg.Address, strconv.Itoa(s.cfg.NameServerPort), strconv.Itoa(s.cfg.ClientPort), files)
	if err := conn.WriteFrame(wire.ControlTimeout, register); err != nil {
		raw.Close()
		return nil, fmt.Errorf("send REGISTER: %w", err)
	}

	reply, err := conn.ReadFrame(wire.ControlTimeout)
	if err != nil {
		raw.Close()
		return nil, fmt.Errorf("read REGISTER reply: %w", err)
	}
	fields := wire.Split(reply)
	if len(fields) < 2 || fields[0] != wire.RespSuccess || !strings.HasPrefix(fields[1], "SS_ID=") {
		raw.Close()
		return nil, fmt.Errorf("unexpected REGISTER reply %q", reply)
	}
	id, err := strconv.ParseUint(strings.TrimPrefix(fields[1], "SS_ID="), 10, 64)
	if err != nil {
		raw.Close()
		return nil, fmt.Errorf("malformed SS_ID in %q", reply)
	}
	cc.ssID.Store(id)
	cc.isReady.Store(true)

	s.log.Info("registered with nameserver", logger.KeySSID, id, logger.KeyCorrID, cc.corrID)
	return cc, nil
}

func (cc *controlClient) registered() bool     { return cc.isReady.Load() }
func (cc *controlClient) id() directory.NodeID { return directory.NodeID(cc.ssID.Load()) }

// push sends a FILE_CREATED/FILE_UPDATED/FILE_DELETED frame to the name
// node, serialised against the read loop's own HEARTBEAT_ACK writes by
// writeMu since both share the one connection.
func (cc *controlClient) push(frame string) error {
	cc.writeMu.Lock()
	defer cc.writeMu.Unlock()
	return cc.conn.WriteFrame(wire.ControlTimeout, frame)
}

// run is the control connection's read loop: echo HEARTBEAT probes,
// ignore read timeouts (the cadence is driven entirely by the name
// node), and return when the connection is no longer usable.
func (cc *controlClient) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			_ = cc.conn.Close()
			return
		default:
		}

		line, err := cc.conn.ReadFrame(wire.ControlTimeout)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			cc.isReady.Store(false)
			cc.s.log.Warn("control connection lost", logger.KeyCorrID, cc.corrID, logger.KeyErr, err)
			return
		}

		switch line {
		case wire.VerbHeartbeat:
			if err := cc.push(wire.VerbHeartbeatAck); err != nil {
				cc.s.log.Warn("heartbeat ack failed", logger.KeyErr, err)
				return
			}
		default:
			cc.s.log.Debug("unexpected control frame", logger.KeyCommand, line)
		}
	}
}
