package lock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryLock_FreeSucceeds(t *testing.T) {
	tbl := New()
	err := tbl.TryLock(Key{"notes.txt", 0}, "alice")
	require.NoError(t, err)
}

func TestTryLock_ReentrantForSameOwner(t *testing.T) {
	tbl := New()
	key := Key{"notes.txt", 0}
	require.NoError(t, tbl.TryLock(key, "alice"))
	require.NoError(t, tbl.TryLock(key, "alice"))
}

// Invariant 6 / S4: at most one user holds a given (file, sentence) at
// any instant; a second user's try_lock is rejected until released.
func TestTryLock_ContentionFromOtherUser(t *testing.T) {
	tbl := New()
	key := Key{"notes.txt", 0}
	require.NoError(t, tbl.TryLock(key, "bob"))

	err := tbl.TryLock(key, "alice")
	require.Error(t, err)

	require.NoError(t, tbl.Unlock(key, "bob"))
	require.NoError(t, tbl.TryLock(key, "alice"))
}

func TestUnlock_ByNonHolderIsNoOpError(t *testing.T) {
	tbl := New()
	key := Key{"notes.txt", 0}
	require.NoError(t, tbl.TryLock(key, "bob"))

	err := tbl.Unlock(key, "alice")
	require.Error(t, err)

	holder, held := tbl.HolderOf(key)
	assert.True(t, held)
	assert.Equal(t, "bob", holder)
}

func TestUnlock_OfFreeKeyIsError(t *testing.T) {
	tbl := New()
	err := tbl.Unlock(Key{"notes.txt", 0}, "alice")
	require.Error(t, err)
}

func TestReleaseAll_OnlyReleasesGivenUser(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.TryLock(Key{"a.txt", 0}, "alice"))
	require.NoError(t, tbl.TryLock(Key{"a.txt", 1}, "alice"))
	require.NoError(t, tbl.TryLock(Key{"a.txt", 2}, "bob"))

	released := tbl.ReleaseAll("alice")
	assert.Equal(t, 2, released)
	assert.Equal(t, 1, tbl.Len())

	_, held := tbl.HolderOf(Key{"a.txt", 2})
	assert.True(t, held)
}

func TestTable_ConcurrentAccessIsSafe(t *testing.T) {
	tbl := New()
	key := Key{"shared.txt", 0}
	var wg sync.WaitGroup
	successes := make([]bool, 50)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			successes[i] = tbl.TryLock(key, "alice") == nil
		}(i)
	}
	wg.Wait()

	for _, ok := range successes {
		assert.True(t, ok)
	}
	assert.Equal(t, 1, tbl.Len())
}
