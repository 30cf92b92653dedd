// Package nameserver implements the directory process: the routing
// table and ACL authority every client and storage node addresses, a
// persistent per-client session loop, and the control-channel acceptor
// and liveness monitor that keep the membership list honest.
package nameserver

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/scriptoria/scriptoria/internal/logger"
	"github.com/scriptoria/scriptoria/internal/telemetry"
	"github.com/scriptoria/scriptoria/pkg/acl"
	"github.com/scriptoria/scriptoria/pkg/config"
	"github.com/scriptoria/scriptoria/pkg/directory"
	"github.com/scriptoria/scriptoria/pkg/metrics"
)

// Server holds every piece of state one name node process owns,
// constructed once by the start command and reached by every handler
// as its method receiver — never a package-level singleton.
type Server struct {
	cfg     config.NameServerConfig
	log     *logger.Logger
	metrics *metrics.NameServer
	tel     *telemetry.Provider
	exec    Executor

	routing    *directory.RoutingTable
	membership *directory.Membership
	acl        *acl.Table

	sessMu   sync.Mutex
	sessions map[string]*clientSession

	nodeConnMu sync.Mutex
	nodeConns  map[directory.NodeID]*nodeConn
}

// New builds a name node server from its static configuration and a
// preloaded ACL table (New does not touch disk; callers load the ACL
// cache themselves so start-up I/O stays in one place).
func New(cfg config.NameServerConfig, log *logger.Logger, m *metrics.NameServer, tel *telemetry.Provider, aclTable *acl.Table) *Server {
	s := &Server{
		cfg:        cfg,
		log:        log,
		metrics:    m,
		tel:        tel,
		routing:    directory.NewRoutingTable(),
		membership: directory.NewMembership(),
		acl:        aclTable,
		sessions:   make(map[string]*clientSession),
		nodeConns:  make(map[directory.NodeID]*nodeConn),
	}
	if cfg.ExecEnabled {
		s.exec = OSExecutor{}
	} else {
		s.exec = DisabledExecutor{}
	}
	return s
}

// Serve runs the name node's three concurrent tasks until ctx is
// cancelled: the client-facing accept loop, the storage-node control
// accept loop, and the liveness monitor.
func (s *Server) Serve(ctx context.Context, clientLn, controlLn net.Listener) error {
	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.acceptClients(ctx, clientLn); err != nil {
			errCh <- fmt.Errorf("nameserver: client accept loop: %w", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.acceptControl(ctx, controlLn); err != nil {
			errCh <- fmt.Errorf("nameserver: control accept loop: %w", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.runLiveness(ctx)
	}()

	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) acceptClients(ctx context.Context, ln net.Listener) error {
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
		go s.handleClient(ctx, conn)
	}
}

// Ready reports whether the name node is accepting traffic. A name node
// has no external dependency to wait on, so it is always ready once
// Serve has been called.
func (s *Server) Ready() bool { return true }

// SessionCount reports the number of active client sessions, for the
// active_sessions gauge.
func (s *Server) SessionCount() int {
	s.sessMu.Lock()
	defer s.sessMu.Unlock()
	return len(s.sessions)
}

// ACLTable exposes the server's ACL table so the owning process can
// persist it on shutdown.
func (s *Server) ACLTable() *acl.Table {
	return s.acl
}
