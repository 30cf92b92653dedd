package directory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoutingTable_SetLookupRemove(t *testing.T) {
	rt := NewRoutingTable()
	rt.Set("notes.txt", 1)

	node, ok := rt.Lookup("notes.txt")
	require.True(t, ok)
	assert.Equal(t, NodeID(1), node)

	rt.Remove("notes.txt")
	_, ok = rt.Lookup("notes.txt")
	assert.False(t, ok)
}

func TestRoutingTable_RemoveByNodeDropsAllItsFiles(t *testing.T) {
	rt := NewRoutingTable()
	rt.Set("a.txt", 1)
	rt.Set("b.txt", 1)
	rt.Set("c.txt", 2)

	rt.RemoveByNode(1)

	_, ok := rt.Lookup("a.txt")
	assert.False(t, ok)
	_, ok = rt.Lookup("b.txt")
	assert.False(t, ok)
	node, ok := rt.Lookup("c.txt")
	require.True(t, ok)
	assert.Equal(t, NodeID(2), node)
}

func TestMembership_RegisterAssignsMonotonicIDs(t *testing.T) {
	m := NewMembership()
	a := m.Register("10.0.0.1", "9001", "9101", nil)
	b := m.Register("10.0.0.2", "9001", "9101", nil)
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, m.Len())
}

func TestMembership_HeartbeatUpdatesTimestamp(t *testing.T) {
	m := NewMembership()
	id := m.Register("10.0.0.1", "9001", "9101", nil)

	before, _ := m.Get(id)
	time.Sleep(time.Millisecond)
	m.Heartbeat(id)
	after, _ := m.Get(id)

	assert.True(t, after.LastHeartbeat.After(before.LastHeartbeat))
}

func TestMembership_StaleDetectsTimeout(t *testing.T) {
	m := NewMembership()
	id := m.Register("10.0.0.1", "9001", "9101", nil)

	stale := m.Stale(time.Hour)
	assert.Empty(t, stale)

	stale = m.Stale(0)
	require.Len(t, stale, 1)
	assert.Equal(t, id, stale[0])
}

func TestMembership_DropRemovesNode(t *testing.T) {
	m := NewMembership()
	id := m.Register("10.0.0.1", "9001", "9101", nil)
	m.Drop(id)
	_, ok := m.Get(id)
	assert.False(t, ok)
}

// Property 7: round-robin placement over k live nodes, invoked k*n
// times with membership fixed, distributes new files exactly n per
// node.
func TestMembership_RoundRobinDistributesEvenly(t *testing.T) {
	m := NewMembership()
	const k, n = 5, 20

	ids := make([]NodeID, k)
	for i := 0; i < k; i++ {
		ids[i] = m.Register("10.0.0.1", "9001", "9101", nil)
	}

	counts := make(map[NodeID]int)
	for i := 0; i < k*n; i++ {
		id, ok := m.Next()
		require.True(t, ok)
		counts[id]++
	}

	for _, id := range ids {
		assert.Equal(t, n, counts[id], "node %d", id)
	}
}

func TestMembership_NextWithNoLiveNodesFails(t *testing.T) {
	m := NewMembership()
	_, ok := m.Next()
	assert.False(t, ok)
}
