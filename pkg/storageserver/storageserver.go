// Package storageserver implements the storage node: a
// sentence-structured document store reachable over a persistent
// per-client command loop, plus the control connection it keeps open
// to the name node for registration, heartbeats, and file-event
// notifications.
package storageserver

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"

	"github.com/scriptoria/scriptoria/internal/logger"
	"github.com/scriptoria/scriptoria/internal/telemetry"
	"github.com/scriptoria/scriptoria/pkg/config"
	"github.com/scriptoria/scriptoria/pkg/directory"
	"github.com/scriptoria/scriptoria/pkg/document"
	"github.com/scriptoria/scriptoria/pkg/lock"
	"github.com/scriptoria/scriptoria/pkg/metrics"
)

// Server holds every piece of state one storage node process owns. It is
// a value the node's start command constructs once and every connection
// handler reaches as its method receiver — never a package-level
// singleton.
type Server struct {
	cfg     config.StorageServerConfig
	log     *logger.Logger
	metrics *metrics.StorageServer
	tel     *telemetry.Provider

	locks  *lock.Table
	limits document.Limits

	fileMuMu sync.Mutex
	fileMu   map[string]*sync.Mutex

	control *controlClient

	filesMu sync.Mutex
	files   map[string]struct{} // known filenames, for REGISTER's file list
}

// New builds a storage node server from its static configuration.
func New(cfg config.StorageServerConfig, log *logger.Logger, m *metrics.StorageServer, tel *telemetry.Provider) *Server {
	return &Server{
		cfg:     cfg,
		log:     log,
		metrics: m,
		tel:     tel,
		locks:   lock.New(),
		limits: document.Limits{
			MaxSentenceChars: cfg.Limits.MaxSentenceChars,
			MaxWordChars:     cfg.Limits.MaxWordChars,
			MaxDocumentBytes: int(cfg.Limits.MaxDocumentSize),
		},
		fileMu: make(map[string]*sync.Mutex),
		files:  make(map[string]struct{}),
	}
}

// fileMutex returns the per-filename mutex guarding on-disk mutation of
// filename, creating it on first use. One table-level mutex guards the
// map itself, a registry of finer-grained locks.
func (s *Server) fileMutex(filename string) *sync.Mutex {
	s.fileMuMu.Lock()
	defer s.fileMuMu.Unlock()
	mu, ok := s.fileMu[filename]
	if !ok {
		mu = &sync.Mutex{}
		s.fileMu[filename] = mu
	}
	return mu
}

func (s *Server) rememberFile(filename string) {
	s.filesMu.Lock()
	s.files[filename] = struct{}{}
	s.filesMu.Unlock()
}

func (s *Server) forgetFile(filename string) {
	s.filesMu.Lock()
	delete(s.files, filename)
	s.filesMu.Unlock()
}

// knownFiles returns every filename this node currently holds, in no
// particular order, for the REGISTER frame's file list.
func (s *Server) knownFiles() []string {
	s.filesMu.Lock()
	defer s.filesMu.Unlock()
	names := make([]string, 0, len(s.files))
	for f := range s.files {
		names = append(names, f)
	}
	return names
}

// LoadExisting scans the storage directory for previously created files
// (identified by their .meta sidecar) and remembers them, so a restarted
// node advertises its full file list on the next REGISTER.
func (s *Server) LoadExisting() error {
	entries, err := os.ReadDir(s.cfg.StorageDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("storageserver: scan storage dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, metaSuffix) {
			continue
		}
		s.rememberFile(strings.TrimSuffix(name, metaSuffix))
	}
	return nil
}

// Serve runs the client-facing accept loop on ln until ctx is cancelled.
// It also starts the control connection to the name node, if configured.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.cfg.HasNameServer() {
		cc, err := dialControl(ctx, s)
		if err != nil {
			return fmt.Errorf("storageserver: control channel: %w", err)
		}
		s.control = cc
		go s.control.run(ctx)
	}

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

// Ready reports whether the node has finished registering with the name
// node, for the /health/ready probe. A standalone node (no name node
// configured) is always ready.
func (s *Server) Ready() bool {
	if !s.cfg.HasNameServer() {
		return true
	}
	return s.control != nil && s.control.registered()
}

// NodeID returns the identifier the name node assigned this node, or 0
// if not yet registered.
func (s *Server) NodeID() directory.NodeID {
	if s.control == nil {
		return 0
	}
	return s.control.id()
}
