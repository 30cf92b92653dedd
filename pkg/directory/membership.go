package directory

import (
	"sync"
	"sync/atomic"
	"time"
)

// NodeID is a storage node's monotonically assigned identifier.
type NodeID uint64

// Node is a storage-node membership record: identity, addressing, and
// the liveness bookkeeping the heartbeat monitor reads and writes.
type Node struct {
	ID            NodeID
	Address       string
	ClientPort    string
	ControlPort   string
	Files         []string
	LastHeartbeat time.Time
}

// Membership is the name node's live storage-node roster plus the
// rolling cursor round-robin placement reads from. One mutex guards
// the whole list, one mutex per structure rather than per entry.
type Membership struct {
	mu      sync.Mutex
	nextID  atomic.Uint64
	nodes   map[NodeID]*Node
	cursor  uint64
}

// NewMembership returns an empty membership roster. IDs are assigned
// starting at 1 so the zero value of NodeID can mean "unassigned".
func NewMembership() *Membership {
	return &Membership{nodes: make(map[NodeID]*Node)}
}

// Register assigns a fresh NodeID to a newly connected storage node and
// adds it to the roster, live from this instant.
func (m *Membership) Register(address, clientPort, controlPort string, files []string) NodeID {
	id := NodeID(m.nextID.Add(1))

	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes[id] = &Node{
		ID:            id,
		Address:       address,
		ClientPort:    clientPort,
		ControlPort:   controlPort,
		Files:         files,
		LastHeartbeat: time.Now(),
	}
	return id
}

// Heartbeat records that id answered a probe just now.
func (m *Membership) Heartbeat(id NodeID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.nodes[id]; ok {
		n.LastHeartbeat = time.Now()
	}
}

// Drop removes id from the roster, called by the liveness monitor on
// timeout or when a node disconnects cleanly.
func (m *Membership) Drop(id NodeID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.nodes, id)
}

// Get returns a copy of id's membership record.
func (m *Membership) Get(id NodeID) (Node, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Stale returns the IDs of every node whose last heartbeat is older
// than timeout, for the liveness monitor's periodic sweep.
func (m *Membership) Stale(timeout time.Duration) []NodeID {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	var stale []NodeID
	for id, n := range m.nodes {
		if now.Sub(n.LastHeartbeat) > timeout {
			stale = append(stale, id)
		}
	}
	return stale
}

// Live returns the IDs of every currently registered node, in
// ascending order, the order round-robin placement walks.
func (m *Membership) Live() []NodeID {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]NodeID, 0, len(m.nodes))
	for id := range m.nodes {
		ids = append(ids, id)
	}
	// Simple insertion sort: membership lists are small (≤50 nodes),
	// so this avoids importing sort for one
	// call site.
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	return ids
}

// Next returns the next live node in round-robin order, advancing the
// shared cursor. It returns false if no node is currently live.
func (m *Membership) Next() (NodeID, bool) {
	live := m.Live()
	if len(live) == 0 {
		return 0, false
	}

	m.mu.Lock()
	idx := m.cursor % uint64(len(live))
	m.cursor++
	m.mu.Unlock()

	return live[idx], true
}

// Len reports the number of live nodes.
func (m *Membership) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.nodes)
}
