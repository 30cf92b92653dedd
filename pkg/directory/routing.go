// Package directory implements the name node's routing and membership
// state: a filename→primary-node table, the
// live storage-node membership list, and round-robin placement over it.
package directory

import (
	"sync"
)

// bucketCount is the fixed prime bucket count the routing table uses.
const bucketCount = 1009

// RoutingTable maps a filename to the NodeID of the storage node that
// holds it as primary. It is implemented as a chained hash table —
// each bucket a slice of entries — rather than Go's builtin map, to
// keep the single-writer, table-wide-mutex discipline explicit in the
// data structure itself.
type RoutingTable struct {
	mu      sync.Mutex
	buckets [][]routingEntry
}

type routingEntry struct {
	filename string
	node     NodeID
}

// NewRoutingTable returns an empty routing table.
func NewRoutingTable() *RoutingTable {
	return &RoutingTable{buckets: make([][]routingEntry, bucketCount)}
}

func hashFilename(filename string) int {
	var h uint32 = 2166136261
	for i := 0; i < len(filename); i++ {
		h ^= uint32(filename[i])
		h *= 16777619
	}
	return int(h % bucketCount)
}

// Set records filename's primary as node, replacing any prior entry.
func (t *RoutingTable) Set(filename string, node NodeID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := hashFilename(filename)
	bucket := t.buckets[idx]
	for i := range bucket {
		if bucket[i].filename == filename {
			bucket[i].node = node
			return
		}
	}
	t.buckets[idx] = append(bucket, routingEntry{filename: filename, node: node})
}

// Lookup returns filename's primary node, if routed.
func (t *RoutingTable) Lookup(filename string) (NodeID, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	bucket := t.buckets[hashFilename(filename)]
	for _, e := range bucket {
		if e.filename == filename {
			return e.node, true
		}
	}
	return 0, false
}

// Remove drops filename's routing entry, e.g. after DELETE.
func (t *RoutingTable) Remove(filename string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := hashFilename(filename)
	bucket := t.buckets[idx]
	for i := range bucket {
		if bucket[i].filename == filename {
			t.buckets[idx] = append(bucket[:i], bucket[i+1:]...)
			return
		}
	}
}

// RemoveByNode drops every routing entry that points at node, called
// when the liveness monitor declares node failed.
func (t *RoutingTable) RemoveByNode(node NodeID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for idx, bucket := range t.buckets {
		kept := bucket[:0]
		for _, e := range bucket {
			if e.node != node {
				kept = append(kept, e)
			}
		}
		t.buckets[idx] = kept
	}
}

// List returns every routed filename, for VIEW.
func (t *RoutingTable) List() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var names []string
	for _, bucket := range t.buckets {
		for _, e := range bucket {
			names = append(names, e.filename)
		}
	}
	return names
}
