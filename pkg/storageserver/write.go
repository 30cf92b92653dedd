package storageserver

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/scriptoria/scriptoria/internal/logger"
	"github.com/scriptoria/scriptoria/pkg/document"
	"github.com/scriptoria/scriptoria/pkg/lock"
	"github.com/scriptoria/scriptoria/pkg/wire"
)

// handleWrite drives the WRITE subprotocol:
// locked → writing → committed, or locked → aborted. It owns the
// connection for the rest of the session (hence the "" sentinel return
// telling the caller not to write an extra frame), writing each
// per-frame SUCCESS/ERROR response itself.
func (s *Server) handleWrite(ctx context.Context, conn *wire.Conn, args []string) string {
	if err := requireArgs(args, 3); err != nil {
		return wire.Errorf(err.Error())
	}
	filename := args[0]
	sentenceIndex, err := strconv.Atoi(args[1])
	if err != nil {
		return wire.Errorf("malformed sentence index")
	}
	user := args[2]

	key := lock.Key{Filename: filename, Sentence: sentenceIndex}
	if err := s.locks.TryLock(key, user); err != nil {
		return wire.Errorf("Sentence locked by another user")
	}

	doc, err := document.Load(s.cfg.StorageDir, filename)
	if err != nil {
		_ = s.locks.Unlock(key, user)
		return wire.Errorf(fmt.Sprintf("file %q not found", filename))
	}

	// Validate (sentence_index, 0) against the append rule of §4.1,
	// materialising the fresh-sentence edge cases it permits. No words
	// are actually inserted yet (rawText is empty).
	curSent, err := document.InsertWords(doc, sentenceIndex, 0, "", user)
	if err != nil {
		_ = s.locks.Unlock(key, user)
		return wire.Errorf(err.Error())
	}

	mu := s.fileMutex(filename)
	mu.Lock()
	snapErr := snapshotBeforeWrite(s.cfg.StorageDir, filename)
	mu.Unlock()
	if snapErr != nil {
		_ = s.locks.Unlock(key, user)
		return wire.Errorf(snapErr.Error())
	}

	if err := conn.WriteFrame(wire.ClientTimeout, wire.Success("Write session started, send word_index|content frames, ETIRW to commit")); err != nil {
		_ = s.locks.Unlock(key, user)
		return ""
	}

	s.log.Ctx(ctx, logger.LevelInfo, "write session opened", logger.KeyFile, filename, logger.KeyUser, user)

	committed := false
	defer func() {
		_ = s.locks.Unlock(key, user)
		if !committed {
			s.log.Ctx(ctx, logger.LevelInfo, "write session aborted", logger.KeyFile, filename, logger.KeyUser, user)
		}
	}()

	for {
		line, err := conn.ReadFrame(wire.ClientTimeout)
		if err != nil {
			return "" // disconnect or timeout: abort, discard in-memory mutation
		}

		if line == wire.VerbEtirw {
			if verr := doc.Validate(s.limits); verr != nil {
				_ = conn.WriteFrame(wire.ClientTimeout, wire.Errorf(verr.Error()))
				return ""
			}
			if err := document.Save(s.cfg.StorageDir, filename, doc); err != nil {
				_ = conn.WriteFrame(wire.ClientTimeout, wire.Errorf(err.Error()))
				return ""
			}
			s.commitMetadata(filename, user, doc)
			committed = true
			s.notify(ctx, wire.VerbFileUpdated, filename)
			_ = conn.WriteFrame(wire.ClientTimeout, wire.Success(""))
			return ""
		}

		fields := strings.SplitN(line, "|", 2)
		if len(fields) != 2 {
			_ = conn.WriteFrame(wire.ClientTimeout, wire.Errorf("expected word_index|content"))
			continue
		}
		wordIndex, err := strconv.Atoi(fields[0])
		if err != nil {
			_ = conn.WriteFrame(wire.ClientTimeout, wire.Errorf("malformed word index"))
			continue
		}

		next, err := document.InsertWords(doc, curSent, wordIndex, fields[1], user)
		if err != nil {
			_ = conn.WriteFrame(wire.ClientTimeout, wire.Errorf(err.Error()))
			continue
		}
		curSent = next
		_ = conn.WriteFrame(wire.ClientTimeout, wire.Success("Word updated"))
	}
}

// commitMetadata refreshes filename's sidecar metadata to reflect doc's
// post-write state. Callers must have just persisted doc to disk.
func (s *Server) commitMetadata(filename, user string, doc *document.Document) {
	mu := s.fileMutex(filename)
	mu.Lock()
	defer mu.Unlock()

	meta, err := loadMetadata(s.cfg.StorageDir, filename)
	if err != nil {
		meta = &Metadata{Filename: filename, Owner: user, CreatedAt: time.Now()}
	}
	words, chars, sentences := doc.Stats()
	meta.Size = len(doc.String())
	meta.Words, meta.Chars, meta.Sentences = words, chars, sentences
	now := time.Now()
	meta.ModifiedAt, meta.AccessedAt = now, now
	_ = saveMetadata(s.cfg.StorageDir, meta)
	s.rememberFile(filename)
}
