package nameserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/scriptoria/scriptoria/internal/logger"
	"github.com/scriptoria/scriptoria/pkg/acl"
	"github.com/scriptoria/scriptoria/pkg/directory"
	"github.com/scriptoria/scriptoria/pkg/scerr"
	"github.com/scriptoria/scriptoria/pkg/wire"
)

var filenamePattern = `/\:*?"<>|`

func validFilename(name string) bool {
	if name == "" || len(name) > 255 {
		return false
	}
	return !strings.ContainsAny(name, filenamePattern)
}

// handleCreate picks a live storage node round-robin, forwards CREATE to
// it over a fresh connection, and on success records the routing entry
// and a fresh ACL owned by the caller.
func (s *Server) handleCreate(ctx context.Context, sess *clientSession, args []string) string {
	if err := requireArgs(args, 1); err != nil {
		return scerr.ToFrame(err)
	}
	filename := args[0]
	if !validFilename(filename) {
		return scerr.ToFrame(scerr.New(scerr.ErrInvalidFilename, "invalid filename %q", filename))
	}
	if _, ok := s.routing.Lookup(filename); ok {
		return scerr.ToFrame(scerr.New(scerr.ErrAlreadyExists, "file %q already exists", filename))
	}

	nodeID, ok := s.membership.Next()
	if !ok {
		return scerr.ToFrame(scerr.New(scerr.ErrNoStorageAvailable, "no storage node available for placement"))
	}
	node, ok := s.membership.Get(nodeID)
	if !ok {
		return scerr.ToFrame(scerr.New(scerr.ErrNoStorageAvailable, "no storage node available for placement"))
	}

	reply, err := forwardSingle(clientAddr(node), wire.Join(wire.VerbCreate, filename, sess.user))
	if err != nil {
		return scerr.ToFrame(scerr.New(scerr.ErrConnFailed, "contact storage node: %v", err))
	}
	if wire.Split(reply)[0] != wire.RespSuccess {
		return reply
	}

	s.routing.Set(filename, nodeID)
	_ = s.acl.Add(filename, sess.user)
	s.log.Ctx(ctx, logger.LevelInfo, "file routed", logger.KeyFile, filename, logger.KeySSID, nodeID)
	return wire.Success("File created successfully!")
}

// handleView enumerates the routing table. Without -a it is filtered to
// files the caller holds at least read on; -l renders NAME|PRIMARY|OWNER
// as a table instead of the terse "--> name" form.
func (s *Server) handleView(ctx context.Context, sess *clientSession, args []string) string {
	all, long := false, false
	for _, a := range args {
		switch a {
		case "-a":
			all = true
		case "-l":
			long = true
		}
	}

	names := s.routing.List()
	var visible []string
	for _, name := range names {
		if all || s.acl.Check(name, sess.user, acl.LevelRead) {
			visible = append(visible, name)
		}
	}

	var lines []string
	if long {
		lines = s.renderViewLong(visible)
	} else {
		for _, name := range visible {
			lines = append(lines, "--> "+name)
		}
	}
	return s.writeMultiframe(ctx, sess.conn, lines)
}

func (s *Server) writeMultiframe(ctx context.Context, conn *wire.Conn, lines []string) string {
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

// handleRedirect implements the READ/WRITE/STREAM/UNDO pre-check-then-
// redirect pattern: verify the ACL level, look up the primary, and hand
// the client a REDIRECT frame pointing at it directly.
func (s *Server) handleRedirect(ctx context.Context, sess *clientSession, args []string, required acl.Level) string {
	if err := requireArgs(args, 1); err != nil {
		return scerr.ToFrame(err)
	}
	filename := args[0]

	if !s.acl.Check(filename, sess.user, required) {
		return scerr.ToFrame(scerr.New(scerr.ErrInsufficientPermission, "insufficient permission on %q", filename))
	}
	nodeID, ok := s.routing.Lookup(filename)
	if !ok {
		return scerr.ToFrame(scerr.New(scerr.ErrNotFound, "File not found"))
	}
	node, ok := s.membership.Get(nodeID)
	if !ok {
		return scerr.ToFrame(scerr.New(scerr.ErrPrimaryMissing, "primary of %q has gone missing", filename))
	}
	return wire.Redirect(node.Address, node.ClientPort)
}

// handleDelete requires ownership, forwards DELETE to the primary, and
// on success drops the routing and ACL entries.
func (s *Server) handleDelete(ctx context.Context, sess *clientSession, args []string) string {
	if err := requireArgs(args, 1); err != nil {
		return scerr.ToFrame(err)
	}
	filename := args[0]

	owner, ok := s.acl.Owner(filename)
	if !ok {
		return scerr.ToFrame(scerr.New(scerr.ErrNotFound, "File not found"))
	}
	if owner != sess.user {
		return scerr.ToFrame(scerr.New(scerr.ErrNotOwner, "Only owner can delete"))
	}

	nodeID, ok := s.routing.Lookup(filename)
	if !ok {
		return scerr.ToFrame(scerr.New(scerr.ErrNotFound, "File not found"))
	}
	node, ok := s.membership.Get(nodeID)
	if !ok {
		return scerr.ToFrame(scerr.New(scerr.ErrPrimaryMissing, "primary of %q has gone missing", filename))
	}

	reply, err := forwardSingle(clientAddr(node), wire.Join(wire.VerbDelete, filename))
	if err != nil {
		return scerr.ToFrame(scerr.New(scerr.ErrConnFailed, "contact storage node: %v", err))
	}
	if wire.Split(reply)[0] != wire.RespSuccess {
		return reply
	}

	s.routing.Remove(filename)
	s.acl.Remove(filename)
	s.log.Ctx(ctx, logger.LevelInfo, "file deleted", logger.KeyFile, filename)
	return wire.Success("File deleted successfully!")
}

// handleInfo fetches the INFO block from the primary and appends an
// ACCESS section derived from the ACL table (owner, readers, writers).
func (s *Server) handleInfo(ctx context.Context, sess *clientSession, args []string) string {
	if err := requireArgs(args, 1); err != nil {
		return scerr.ToFrame(err)
	}
	filename := args[0]

	nodeID, ok := s.routing.Lookup(filename)
	if !ok {
		return scerr.ToFrame(scerr.New(scerr.ErrNotFound, "File not found"))
	}
	node, ok := s.membership.Get(nodeID)
	if !ok {
		return scerr.ToFrame(scerr.New(scerr.ErrPrimaryMissing, "primary of %q has gone missing", filename))
	}

	lines, err := forwardMultiframe(clientAddr(node), wire.Join(wire.VerbInfo, filename))
	if err != nil {
		return scerr.ToFrame(scerr.New(scerr.ErrConnFailed, "contact storage node: %v", err))
	}

	owner, _ := s.acl.Owner(filename)
	lines = append(lines, "ACCESS:")
	lines = append(lines, fmt.Sprintf("Owner: %s", owner))
	lines = append(lines, fmt.Sprintf("Readers: %s", strings.Join(s.acl.Readers(filename), ",")))
	lines = append(lines, fmt.Sprintf("Writers: %s", strings.Join(s.acl.Writers(filename), ",")))

	return s.writeMultiframe(ctx, sess.conn, lines)
}

func (s *Server) handleList(ctx context.Context, sess *clientSession) string {
	return s.writeMultiframe(ctx, sess.conn, s.activeUsers())
}

func (s *Server) handleAddAccess(ctx context.Context, sess *clientSession, args []string) string {
	if err := requireArgs(args, 3); err != nil {
		return scerr.ToFrame(err)
	}
	flag, filename, user := args[0], args[1], args[2]

	owner, ok := s.acl.Owner(filename)
	if !ok {
		return scerr.ToFrame(scerr.New(scerr.ErrNotFound, "File not found"))
	}
	if owner != sess.user {
		return scerr.ToFrame(scerr.New(scerr.ErrNotOwner, "Only owner can grant access"))
	}

	var level acl.Level
	switch flag {
	case "-R":
		level = acl.LevelRead
	case "-W":
		level = acl.LevelWrite
	default:
		return scerr.ToFrame(scerr.New(scerr.ErrMissingField, "expected -R or -W, got %q", flag))
	}

	if err := s.acl.Grant(filename, user, level); err != nil {
		return scerr.ToFrame(err)
	}
	return wire.Success("Access granted")
}

func (s *Server) handleRemAccess(ctx context.Context, sess *clientSession, args []string) string {
	if err := requireArgs(args, 2); err != nil {
		return scerr.ToFrame(err)
	}
	filename, user := args[0], args[1]

	owner, ok := s.acl.Owner(filename)
	if !ok {
		return scerr.ToFrame(scerr.New(scerr.ErrNotFound, "File not found"))
	}
	if owner != sess.user {
		return scerr.ToFrame(scerr.New(scerr.ErrNotOwner, "Only owner can revoke access"))
	}

	if err := s.acl.Revoke(filename, user); err != nil {
		return scerr.ToFrame(err)
	}
	return wire.Success("Access revoked")
}

// handleExec fetches the flattened document content via CLEANREAD and
// runs it through the configured Executor, disabled unless explicit
// configuration overrides the default.
func (s *Server) handleExec(ctx context.Context, sess *clientSession, args []string) string {
	if err := requireArgs(args, 1); err != nil {
		return scerr.ToFrame(err)
	}
	filename := args[0]

	if !s.acl.Check(filename, sess.user, acl.LevelRead) {
		return scerr.ToFrame(scerr.New(scerr.ErrInsufficientPermission, "insufficient permission on %q", filename))
	}
	nodeID, ok := s.routing.Lookup(filename)
	if !ok {
		return scerr.ToFrame(scerr.New(scerr.ErrNotFound, "File not found"))
	}
	node, ok := s.membership.Get(nodeID)
	if !ok {
		return scerr.ToFrame(scerr.New(scerr.ErrPrimaryMissing, "primary of %q has gone missing", filename))
	}

	reply, err := forwardSingle(clientAddr(node), wire.Join(wire.VerbCleanRead, filename))
	if err != nil {
		return scerr.ToFrame(scerr.New(scerr.ErrConnFailed, "contact storage node: %v", err))
	}
	fields := wire.Split(reply)
	if fields[0] != wire.RespSuccess {
		return reply
	}
	command := strings.Join(fields[1:], "|")

	output, err := s.exec.Run(ctx, command)
	if err != nil {
		return scerr.ToFrame(scerr.New(scerr.ErrIOFailure, "exec failed: %v", err))
	}
	return wire.Success(output)
}

func clientAddr(node directory.Node) string {
	return node.Address + ":" + node.ClientPort
}
