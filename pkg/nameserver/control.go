package nameserver

import (
	"context"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scriptoria/scriptoria/internal/logger"
	"github.com/scriptoria/scriptoria/pkg/directory"
	"github.com/scriptoria/scriptoria/pkg/wire"
)

// nodeConn is the name node's side of one storage node's control
// connection: the socket it probes with HEARTBEAT and the node's
// assigned identity, kept around so the liveness monitor can address
// it. corrID ties together the log lines of this one control
// connection; node ids come from a counter that only grows, so a node
// that registers again gets a new id and a new corrID.
type nodeConn struct {
	id     directory.NodeID
	corrID string
	conn   *wire.Conn
}

// acceptControl runs the storage-node control acceptor: each incoming
// connection sends exactly one REGISTER
// frame, which this side answers with the assigned SS_ID before
// settling into the heartbeat/file-event read loop for that
// connection's lifetime.
func (s *Server) acceptControl(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		go s.handleControlConn(ctx, conn)
	}
}

func (s *Server) handleControlConn(ctx context.Context, raw net.Conn) {
	defer raw.Close()
	conn := wire.NewConn(raw)

	line, err := conn.ReadFrame(wire.ControlTimeout)
	if err != nil {
		return
	}
	fields := wire.Split(line)
	if len(fields) < 4 || fields[0] != wire.VerbRegister {
		_ = conn.WriteFrame(wire.ControlTimeout, wire.Errorf("expected REGISTER|ip|nm_port|client_port|files"))
		return
	}
	address, clientPort := fields[1], fields[3]
	_, controlPort, _ := net.SplitHostPort(raw.RemoteAddr().String())
	var files []string
	if len(fields) > 4 && fields[4] != "" {
		files = strings.Split(fields[4], ",")
	}

	id := s.membership.Register(address, clientPort, controlPort, files)
	for _, f := range files {
		s.routing.Set(f, id)
	}

	if err := conn.WriteFrame(wire.ControlTimeout, wire.Join(wire.RespSuccess, "SS_ID="+strconv.FormatUint(uint64(id), 10))); err != nil {
		s.membership.Drop(id)
		return
	}

	nc := &nodeConn{id: id, corrID: uuid.NewString(), conn: conn}
	s.rememberNodeConn(nc)
	defer s.forgetNodeConn(id)

	s.log.Info("storage node registered", logger.KeySSID, id, logger.KeyAddr, address, logger.KeyCorrID, nc.corrID)
	s.runControlReadLoop(ctx, nc)
}

func (s *Server) rememberNodeConn(nc *nodeConn) {
	s.nodeConnMu.Lock()
	defer s.nodeConnMu.Unlock()
	s.nodeConns[nc.id] = nc
}

func (s *Server) forgetNodeConn(id directory.NodeID) {
	s.nodeConnMu.Lock()
	delete(s.nodeConns, id)
	s.nodeConnMu.Unlock()
	s.membership.Drop(id)
	s.routing.RemoveByNode(id)
}

// runControlReadLoop reads frames off a registered storage node's
// control connection until it closes: HEARTBEAT_ACK refreshes the
// liveness timestamp, FILE_* events update the routing table.
func (s *Server) runControlReadLoop(ctx context.Context, nc *nodeConn) {
	for {
		line, err := nc.conn.ReadFrame(0)
		if err != nil {
			s.log.Warn("control connection closed", logger.KeySSID, nc.id, logger.KeyCorrID, nc.corrID, logger.KeyErr, err)
			return
		}
		fields := wire.Split(line)
		verb := fields[0]

		switch verb {
		case wire.VerbHeartbeatAck:
			s.membership.Heartbeat(nc.id)
		case wire.VerbFileCreated, wire.VerbFileUpdated, wire.VerbFileDeleted:
			if len(fields) < 2 {
				continue
			}
			filename := fields[1]
			switch verb {
			case wire.VerbFileCreated:
				s.routing.Set(filename, nc.id)
			case wire.VerbFileDeleted:
				s.routing.Remove(filename)
			default:
				s.log.Debug("file updated", logger.KeyFile, filename, logger.KeySSID, nc.id)
			}
		default:
			s.log.Debug("unexpected control frame", logger.KeyCommand, verb, logger.KeySSID, nc.id)
		}
	}
}

// probeHeartbeat sends a HEARTBEAT probe down nc's connection, best
// effort: a write failure just means the read loop will observe the
// closed socket and tear the node down on its own.
func (s *Server) probeHeartbeat(nc *nodeConn) {
	_ = nc.conn.WriteFrame(wire.ControlTimeout, wire.VerbHeartbeat)
}

// runLiveness is the periodic liveness-checking task: every
// HeartbeatWindow it probes every live node, then declares failed any
// node whose last heartbeat predates LivenessTimeout, dropping its
// membership and routing entries.
func (s *Server) runLiveness(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.HeartbeatWindow)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.probeAll()
			s.reapStale()
		}
	}
}

func (s *Server) probeAll() {
	s.nodeConnMu.Lock()
	conns := make([]*nodeConn, 0, len(s.nodeConns))
	for _, nc := range s.nodeConns {
		conns = append(conns, nc)
	}
	s.nodeConnMu.Unlock()

	for _, nc := range conns {
		s.probeHeartbeat(nc)
	}
}

func (s *Server) reapStale() {
	for _, id := range s.membership.Stale(s.cfg.LivenessTimeout) {
		s.log.Warn("storage node declared failed", logger.KeySSID, id)
		if s.metrics != nil {
			s.metrics.NodesFailedTotal.Inc()
		}
		s.nodeConnMu.Lock()
		nc, ok := s.nodeConns[id]
		s.nodeConnMu.Unlock()

		s.forgetNodeConn(id)
		if ok {
			_ = nc.conn.Close()
		}
	}
}
