// Package lock implements the storage node's sentence lock table: a
// cross-session guard keyed by
// (filename, sentence index), shared by every session the storage
// node is serving.
package lock

import (
	"sync"
	"time"

	"github.com/scriptoria/scriptoria/pkg/scerr"
)

// Key identifies a single lockable sentence.
type Key struct {
	Filename string
	Sentence int
}

// entry records who holds a lock and since when. Per-entry mutexes are
// not required for correctness — try/unlock both go through the
// table-wide mutex — so entry carries no lock of its own.
type entry struct {
	holder     string
	acquiredAt time.Time
}

// Table is the sentence lock table. All mutation is serialised by a
// single table-wide mutex; the linear ownership check inside it is O(1)
// via a map, never the linked-list walk an older implementation might
// use.
type Table struct {
	mu      sync.Mutex
	entries map[Key]entry
}

// New returns an empty lock table.
func New() *Table {
	return &Table{entries: make(map[Key]entry)}
}

// TryLock succeeds if key is free or already held by user — re-entrant
// for the same owner — and fails with scerr.ErrLockedByOther otherwise.
func (t *Table) TryLock(key Key, user string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e, held := t.entries[key]; held && e.holder != user {
		return scerr.New(scerr.ErrLockedByOther, "sentence %d of %q locked by %s", key.Sentence, key.Filename, e.holder)
	}
	t.entries[key] = entry{holder: user, acquiredAt: time.Now()}
	return nil
}

// Unlock releases key if user is the current holder. Releasing a lock
// the caller doesn't hold — including one that's already free — is a
// no-op error, never a panic.
func (t *Table) Unlock(key Key, user string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, held := t.entries[key]
	if !held || e.holder != user {
		return scerr.New(scerr.ErrLockedByOther, "sentence %d of %q is not held by %s", key.Sentence, key.Filename, user)
	}
	delete(t.entries, key)
	return nil
}

// HolderOf reports the current holder of key, if any. Used by
// diagnostics and by INFO-style introspection; never by the try/unlock
// decision path itself.
func (t *Table) HolderOf(key Key) (user string, held bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, held := t.entries[key]
	return e.holder, held
}

// ReleaseAll drops every lock held by user, e.g. on abrupt session
// disconnect during a WRITE's abort transition. Returns the number of
// locks released.
func (t *Table) ReleaseAll(user string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	released := 0
	for k, e := range t.entries {
		if e.holder == user {
			delete(t.entries, k)
			released++
		}
	}
	return released
}

// Len reports the number of outstanding locks, feeding the storage
// node's open-locks metric.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
