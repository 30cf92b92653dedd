// Package acl implements the per-file access control list: an owner
// plus a map of (user, level) grants, persisted as a flat text
// cache and reloaded at name-node start.
package acl

import (
	"fmt"
	"strings"
	"sync"

	"github.com/scriptoria/scriptoria/pkg/scerr"
)

// Level is a grant's access tier. The order read < write < owner
// governs Check's "required ≤ held" comparison.
type Level int

const (
	LevelNone Level = iota
	LevelRead
	LevelWrite
	LevelOwner
)

// String renders a Level the way persisted cache lines and ADDACCESS
// flags spell it.
func (l Level) String() string {
	switch l {
	case LevelRead:
		return "read"
	case LevelWrite:
		return "write"
	case LevelOwner:
		return "owner"
	default:
		return "none"
	}
}

// ParseLevel turns a persisted or wire-format level name back into a
// Level.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "read":
		return LevelRead, nil
	case "write":
		return LevelWrite, nil
	case "owner":
		return LevelOwner, nil
	}
	return LevelNone, scerr.New(scerr.ErrInsufficientPermission, "unrecognised access level %q", s)
}

// Grant is one (user, level) pair on a file's ACL.
type Grant struct {
	User  string
	Level Level
}

// Entry is the full ACL for one file: its owner and every grant,
// including the owner's own entry at LevelOwner.
type Entry struct {
	Filename string
	Owner    string
	Grants   map[string]Level
}

func newEntry(filename, owner string) Entry {
	return Entry{Filename: filename, Owner: owner, Grants: map[string]Level{owner: LevelOwner}}
}

// Table is the name node's in-memory ACL table: a map of entries keyed
// by filename, one per file, with no fixed capacity. All mutation goes
// through a single mutex, held briefly.
type Table struct {
	mu      sync.Mutex
	entries map[string]Entry
}

// New returns an empty ACL table.
func New() *Table {
	return &Table{entries: make(map[string]Entry)}
}

// Add registers filename's ACL with owner. It is idempotent if an
// identical entry already exists, and rejects any attempt to add a
// second ACL for the same file under a different owner.
func (t *Table) Add(filename, owner string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.entries[filename]; ok {
		if existing.Owner == owner {
			return nil
		}
		return scerr.New(scerr.ErrAlreadyExists, "file %q already has an ACL owned by %s", filename, existing.Owner)
	}
	t.entries[filename] = newEntry(filename, owner)
	return nil
}

// Grant upserts a (user, level) pair on filename's ACL. Changing the
// owner's own entry is always refused, matching invariant 2 — exactly
// one user holds level owner, and it is never downgradable.
func (t *Table) Grant(filename, user string, level Level) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[filename]
	if !ok {
		return scerr.New(scerr.ErrNotFound, "no ACL for file %q", filename)
	}
	if user == entry.Owner {
		return scerr.New(scerr.ErrInsufficientPermission, "cannot change owner's own access level")
	}
	if level == LevelOwner {
		return scerr.New(scerr.ErrInsufficientPermission, "cannot grant owner level to a non-owner")
	}
	entry.Grants[user] = level
	return nil
}

// Revoke removes user's non-owner entry from filename's ACL. Revoking
// the owner is a no-op error; revoking a user who holds no grant is a
// no-op success.
func (t *Table) Revoke(filename, user string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[filename]
	if !ok {
		return scerr.New(scerr.ErrNotFound, "no ACL for file %q", filename)
	}
	if user == entry.Owner {
		return scerr.New(scerr.ErrInsufficientPermission, "cannot revoke the owner's access")
	}
	delete(entry.Grants, user)
	return nil
}

// Check reports whether user holds at least required on filename,
// under read < write < owner. A user with no ACL entry holds
// LevelNone.
func (t *Table) Check(filename, user string, required Level) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[filename]
	if !ok {
		return false
	}
	return entry.Grants[user] >= required
}

// Owner returns filename's owner, and whether an ACL exists for it at
// all.
func (t *Table) Owner(filename string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.entries[filename]
	if !ok {
		return "", false
	}
	return entry.Owner, true
}

// Remove drops filename's ACL entirely, called after a successful
// DELETE.
func (t *Table) Remove(filename string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, filename)
}

// Readers returns the users holding at least read on filename,
// excluding the owner, for INFO's ACCESS section.
func (t *Table) Readers(filename string) []string {
	return t.usersAtOrAbove(filename, LevelRead, LevelOwner)
}

// Writers returns the users holding at least write on filename,
// excluding the owner, for INFO's ACCESS section.
func (t *Table) Writers(filename string) []string {
	return t.usersAtOrAbove(filename, LevelWrite, LevelOwner)
}

func (t *Table) usersAtOrAbove(filename string, min, upperExclusive Level) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[filename]
	if !ok {
		return nil
	}
	var users []string
	for user, level := range entry.Grants {
		if level >= min && level < upperExclusive {
			users = append(users, user)
		}
	}
	return users
}

// Restore replaces t's contents with the entries encoded in lines,
// Snapshot's output format. It is Snapshot's inverse, for callers that
// hold the persisted cache's lines themselves instead of going through
// Load's file-path API.
func (t *Table) Restore(lines []string) error {
	fresh := New()
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := fresh.loadLine(line); err != nil {
			return fmt.Errorf("acl: restore line %q: %w", line, err)
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = fresh.entries
	return nil
}

// Snapshot renders the full table as the persisted cache format: one
// line per file, "filename|owner|user:level,user:level,…".
func (t *Table) Snapshot() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	lines := make([]string, 0, len(t.entries))
	for _, entry := range t.entries {
		var grants string
		first := true
		for user, level := range entry.Grants {
			if user == entry.Owner {
				continue
			}
			if !first {
				grants += ","
			}
			grants += fmt.Sprintf("%s:%s", user, level)
			first = false
		}
		lines = append(lines, fmt.Sprintf("%s|%s|%s", entry.Filename, entry.Owner, grants))
	}
	return lines
}
