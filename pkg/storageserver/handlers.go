package storageserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/scriptoria/scriptoria/internal/logger"
	"github.com/scriptoria/scriptoria/pkg/document"
	"github.com/scriptoria/scriptoria/pkg/metrics"
	"github.com/scriptoria/scriptoria/pkg/wire"
)

// handleClient owns one accepted client connection for its entire
// lifetime: it loops reading newline-framed commands until the peer
// closes the socket or sends QUIT, dispatching each to its handler.
func (s *Server) handleClient(ctx context.Context, raw net.Conn) {
	defer raw.Close()
	conn := wire.NewConn(raw)
	corrID := uuid.NewString()
	sess := logger.Session{Addr: conn.RemoteAddrString(), CorrID: corrID}
	ctx = logger.WithSession(ctx, sess)
	s.log.Ctx(ctx, logger.LevelInfo, "client connected")

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

		reply := s.dispatch(ctx, conn, verb, fields[1:])
		if s.metrics != nil {
			metrics.ObserveCommand(s.metrics.CommandsTotal, s.metrics.CommandDuration, verb, started)
		}
		if reply == "" {
			continue // handler already wrote the full response itself (READ, STREAM, INFO body)
		}
		if err := conn.WriteFrame(wire.ClientTimeout, reply); err != nil {
			s.log.Ctx(ctx, logger.LevelDebug, "client write error", logger.KeyErr, err)
			return
		}
	}
}

// dispatch runs one command and returns the single-frame reply to send,
// or "" when the handler streamed its own multi-frame response.
func (s *Server) dispatch(ctx context.Context, conn *wire.Conn, verb string, args []string) string {
	if s.tel != nil {
		var span trace.Span
		ctx, span = s.tel.StartCommand(ctx, "storageserver."+verb, attribute.String("corr_id", logger.SessionFromContext(ctx).CorrID))
		defer span.End()
	}

	switch verb {
	case wire.VerbCreate:
		return s.handleCreate(ctx, args)
	case wire.VerbRead:
		return s.handleRead(ctx, conn, args, true)
	case wire.VerbCleanRead:
		return s.handleRead(ctx, conn, args, false)
	case wire.VerbWrite:
		return s.handleWrite(ctx, conn, args)
	case wire.VerbUndo:
		return s.handleUndo(ctx, args)
	case wire.VerbDelete:
		return s.handleDelete(ctx, args)
	case wire.VerbInfo:
		return s.handleInfo(ctx, conn, args)
	case wire.VerbStream:
		return s.handleStream(ctx, conn, args)
	default:
		return wire.Errorf(fmt.Sprintf("unknown command %q", verb))
	}
}

func requireArgs(args []string, n int) error {
	if len(args) < n {
		return fmt.Errorf("expected %d field(s), got %d", n, len(args))
	}
	return nil
}

func (s *Server) handleCreate(ctx context.Context, args []string) string {
	if err := requireArgs(args, 2); err != nil {
		return wire.Errorf(err.Error())
	}
	filename, owner := args[0], args[1]

	mu := s.fileMutex(filename)
	mu.Lock()
	defer mu.Unlock()

	if _, err := loadMetadata(s.cfg.StorageDir, filename); err == nil {
		return wire.Errorf(fmt.Sprintf("file %q already exists", filename))
	}

	doc := &document.Document{}
	if err := document.Save(s.cfg.StorageDir, filename, doc); err != nil {
		return wire.Errorf(err.Error())
	}
	now := time.Now()
	meta := &Metadata{Filename: filename, Owner: owner, CreatedAt: now, ModifiedAt: now, AccessedAt: now}
	if err := saveMetadata(s.cfg.StorageDir, meta); err != nil {
		return wire.Errorf(err.Error())
	}
	s.rememberFile(filename)
	s.log.Ctx(ctx, logger.LevelInfo, "file created", logger.KeyFile, filename)

	s.notify(ctx, wire.VerbFileCreated, filename)
	return wire.Success("File created successfully!")
}

func (s *Server) handleRead(ctx context.Context, conn *wire.Conn, args []string, withIndices bool) string {
	if err := requireArgs(args, 1); err != nil {
		return wire.Errorf(err.Error())
	}
	filename := args[0]

	meta, err := loadMetadata(s.cfg.StorageDir, filename)
	if err != nil {
		return wire.Errorf(fmt.Sprintf("file %q not found", filename))
	}
	doc, err := document.Load(s.cfg.StorageDir, filename)
	if err != nil {
		return wire.Errorf(err.Error())
	}

	meta.AccessedAt = time.Now()
	_ = saveMetadata(s.cfg.StorageDir, meta)

	if !withIndices {
		// CLEANREAD has no index prefixes and no trailing STOP: its only
		// consumer is EXEC, which wants the document's words as a single
		// shell command line, not a multi-line transcript.
		content := doc.String()
		content = flattenNewlines(content)
		return wire.Success(content)
	}

	if err := conn.WriteFrame(wire.ClientTimeout, wire.Success("")); err != nil {
		return ""
	}
	for i, sent := range doc.Sentences {
		line := fmt.Sprintf("[%d] %s", i, sent.String())
		if err := conn.WriteFrame(wire.ClientTimeout, line); err != nil {
			return ""
		}
	}
	_ = conn.WriteFrame(wire.ClientTimeout, wire.Stop)
	return ""
}

func (s *Server) handleUndo(ctx context.Context, args []string) string {
	if err := requireArgs(args, 1); err != nil {
		return wire.Errorf(err.Error())
	}
	filename := args[0]

	mu := s.fileMutex(filename)
	mu.Lock()
	defer mu.Unlock()

	path := backupPath(s.cfg.StorageDir, filename)
	data, err := readFile(path)
	if err != nil {
		return wire.Errorf("no backup available")
	}

	if err := writeFileAtomic(s.cfg.StorageDir, filename, data); err != nil {
		return wire.Errorf(err.Error())
	}
	_ = removeFile(path)

	doc := document.Parse(data)
	words, chars, sentences := doc.Stats()
	if meta, err := loadMetadata(s.cfg.StorageDir, filename); err == nil {
		meta.Size, meta.Words, meta.Chars, meta.Sentences = len(data), words, chars, sentences
		meta.ModifiedAt = time.Now()
		_ = saveMetadata(s.cfg.StorageDir, meta)
	}

	s.log.Ctx(ctx, logger.LevelInfo, "file undone", logger.KeyFile, filename)
	s.notify(ctx, wire.VerbFileUpdated, filename)
	return wire.Success("Undo complete")
}

func (s *Server) handleDelete(ctx context.Context, args []string) string {
	if err := requireArgs(args, 1); err != nil {
		return wire.Errorf(err.Error())
	}
	filename := args[0]

	mu := s.fileMutex(filename)
	mu.Lock()
	defer mu.Unlock()

	if _, err := loadMetadata(s.cfg.StorageDir, filename); err != nil {
		return wire.Errorf(fmt.Sprintf("file %q not found", filename))
	}

	_ = removeFile(dataPath(s.cfg.StorageDir, filename))
	_ = removeMetadata(s.cfg.StorageDir, filename)
	_ = removeFile(backupPath(s.cfg.StorageDir, filename))
	s.forgetFile(filename)

	s.log.Ctx(ctx, logger.LevelInfo, "file deleted", logger.KeyFile, filename)
	s.notify(ctx, wire.VerbFileDeleted, filename)
	return wire.Success("File deleted successfully!")
}

func (s *Server) handleInfo(ctx context.Context, conn *wire.Conn, args []string) string {
	if err := requireArgs(args, 1); err != nil {
		return wire.Errorf(err.Error())
	}
	filename := args[0]

	meta, err := loadMetadata(s.cfg.StorageDir, filename)
	if err != nil {
		return wire.Errorf(fmt.Sprintf("file %q not found", filename))
	}

	// Line labels below are preserved exactly: the name node and the
	// VIEW -l renderer line-scan for
	// these on the client side.
	lines := []string{
		fmt.Sprintf("Filename: %s", meta.Filename),
		fmt.Sprintf("Owner: %s", meta.Owner),
		fmt.Sprintf("Words: %d", meta.Words),
		fmt.Sprintf("Characters: %d", meta.Chars),
		fmt.Sprintf("Sentences: %d", meta.Sentences),
		fmt.Sprintf("Created: %s", meta.CreatedAt.Format(time.RFC3339)),
		fmt.Sprintf("Modified: %s", meta.ModifiedAt.Format(time.RFC3339)),
		fmt.Sprintf("Accessed: %s", meta.AccessedAt.Format(time.RFC3339)),
	}

	if err := conn.WriteFrame(wire.ClientTimeout, wire.Success("")); err != nil {
		return ""
	}
	for _, line := range lines {
		if err := conn.WriteFrame(wire.ClientTimeout, line); err != nil {
			return ""
		}
	}
	_ = conn.WriteFrame(wire.ClientTimeout, wire.Stop)
	return ""
}

func (s *Server) handleStream(ctx context.Context, conn *wire.Conn, args []string) string {
	if err := requireArgs(args, 1); err != nil {
		return wire.Errorf(err.Error())
	}
	filename := args[0]

	doc, err := document.Load(s.cfg.StorageDir, filename)
	if err != nil {
		return wire.Errorf(fmt.Sprintf("file %q not found", filename))
	}

	if err := conn.WriteFrame(wire.ClientTimeout, wire.Success("Starting stream")); err != nil {
		return ""
	}
	delay := s.cfg.StreamWordDelay
	first := true
	for _, sent := range doc.Sentences {
		for _, word := range sent.Words {
			if !first {
				time.Sleep(delay)
			}
			first = false
			if err := conn.WriteFrame(wire.ClientTimeout, wire.Word(word)); err != nil {
				return ""
			}
		}
	}
	_ = conn.WriteFrame(wire.ClientTimeout, wire.Stop)
	return ""
}

// notify pushes a FILE_* event to the name node over the control
// connection, a no-op for a standalone node with no name node
// configured.
func (s *Server) notify(ctx context.Context, verb, filename string) {
	if s.control == nil {
		return
	}
	if err := s.control.push(wire.Join(verb, filename)); err != nil {
		s.log.Ctx(ctx, logger.LevelWarn, "control push failed", logger.KeyErr, err, logger.KeyCommand, verb)
	}
}

func flattenNewlines(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out[i] = ' '
		} else {
			out[i] = s[i]
		}
	}
	return string(out)
}
