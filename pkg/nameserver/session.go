package nameserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/scriptoria/scriptoria/internal/logger"
	"github.com/scriptoria/scriptoria/pkg/acl"
	"github.com/scriptoria/scriptoria/pkg/metrics"
	"github.com/scriptoria/scriptoria/pkg/scerr"
	"github.com/scriptoria/scriptoria/pkg/wire"
)

// clientSession is the name node's record of one connected client,
// the client session record minus a liveness flag (a
// closed connection simply removes the entry, so no separate flag is
// needed). corrID ties every log line and span for this connection
// together, independent of the username, which can be reused across
// reconnects.
type clientSession struct {
	user   string
	corrID string
	conn   *wire.Conn
}

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,63}$`)

func validUsername(name string) bool {
	return usernamePattern.MatchString(name)
}

// handleClient owns one client connection for its entire lifetime: the
// INIT handshake, then the command loop, then session teardown.
func (s *Server) handleClient(ctx context.Context, raw net.Conn) {
	defer raw.Close()
	conn := wire.NewConn(raw)

	line, err := conn.ReadFrame(wire.ClientTimeout)
	if err != nil {
		return
	}
	fields := wire.Split(line)
	if len(fields) < 2 || fields[0] != wire.VerbInit {
		_ = conn.WriteFrame(wire.ClientTimeout, scerr.ToFrame(scerr.New(scerr.ErrUnknownVerb, "expected INIT|username")))
		return
	}
	user := fields[1]
	if !validUsername(user) {
		_ = conn.WriteFrame(wire.ClientTimeout, scerr.ToFrame(scerr.New(scerr.ErrInvalidUsername, "invalid username %q", user)))
		return
	}

	sess := &clientSession{user: user, corrID: uuid.NewString(), conn: conn}
	if !s.addSession(sess) {
		_ = conn.WriteFrame(wire.ClientTimeout, scerr.ToFrame(scerr.New(scerr.ErrAlreadyExists, "user %q already connected", user)))
		return
	}
	defer s.removeSession(user)

	ctx = logger.WithSession(ctx, logger.Session{Addr: conn.RemoteAddrString(), User: user, CorrID: sess.corrID})
	s.log.Ctx(ctx, logger.LevelInfo, "client session started")
	if err := conn.WriteFrame(wire.ClientTimeout, wire.Success(fmt.Sprintf("Welcome, %s", user))); err != nil {
		return
	}

	for {
		line, err := conn.ReadFrame(wire.ClientTimeout)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.log.Ctx(ctx, logger.LevelDebug, "client read error", logger.KeyErr, err)
			}
			return
		}

		fields := wire.Split(line)
		verb := fields[0]
		started := time.Now()

		if verb == wire.VerbQuit || verb == wire.VerbExit {
			s.log.Ctx(ctx, logger.LevelInfo, "client disconnecting", logger.KeyCommand, verb)
			return
		}

		reply := s.dispatch(ctx, sess, verb, fields[1:])
		if s.metrics != nil {
			metrics.ObserveCommand(s.metrics.CommandsTotal, s.metrics.CommandDuration, verb, started)
		}
		if reply == "" {
			continue
		}
		if err := conn.WriteFrame(wire.ClientTimeout, reply); err != nil {
			return
		}
	}
}

func (s *Server) addSession(sess *clientSession) bool {
	s.sessMu.Lock()
	defer s.sessMu.Unlock()
	if _, exists := s.sessions[sess.user]; exists {
		return false
	}
	s.sessions[sess.user] = sess
	return true
}

func (s *Server) removeSession(user string) {
	s.sessMu.Lock()
	defer s.sessMu.Unlock()
	delete(s.sessions, user)
}

// activeUsers returns every currently connected username, for LIST.
func (s *Server) activeUsers() []string {
	s.sessMu.Lock()
	defer s.sessMu.Unlock()
	names := make([]string, 0, len(s.sessions))
	for u := range s.sessions {
		names = append(names, u)
	}
	return names
}

func (s *Server) dispatch(ctx context.Context, sess *clientSession, verb string, args []string) string {
	if s.tel != nil {
		var span trace.Span
		ctx, span = s.tel.StartCommand(ctx, "nameserver."+verb, attribute.String("corr_id", sess.corrID))
		defer span.End()
	}

	switch verb {
	case wire.VerbCreate:
		return s.handleCreate(ctx, sess, args)
	case wire.VerbView:
		return s.handleView(ctx, sess, args)
	case wire.VerbRead:
		return s.handleRedirect(ctx, sess, args, acl.LevelRead)
	case wire.VerbWrite:
		return s.handleRedirect(ctx, sess, args, acl.LevelWrite)
	case wire.VerbStream:
		return s.handleRedirect(ctx, sess, args, acl.LevelRead)
	case wire.VerbUndo:
		return s.handleRedirect(ctx, sess, args, acl.LevelWrite)
	case wire.VerbDelete:
		return s.handleDelete(ctx, sess, args)
	case wire.VerbInfo:
		return s.handleInfo(ctx, sess, args)
	case wire.VerbList:
		return s.handleList(ctx, sess)
	case wire.VerbAddAccess:
		return s.handleAddAccess(ctx, sess, args)
	case wire.VerbRemAccess:
		return s.handleRemAccess(ctx, sess, args)
	case wire.VerbExec:
		return s.handleExec(ctx, sess, args)
	default:
		return scerr.ToFrame(scerr.New(scerr.ErrUnknownVerb, "unknown command %q", verb))
	}
}

func requireArgs(args []string, n int) error {
	if len(args) < n {
		return scerr.New(scerr.ErrMissingField, "expected %d field(s), got %d", n, len(args))
	}
	return nil
}
