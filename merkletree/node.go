// Package merkletree owns the in-memory tree engine: the authoritative
// length/byte_length/fork/roots state of a log, changeset construction
// for append batches, truncation, and proof generation/verification. It
// never touches a storage backend directly; callers supply a
// NodeProvider so the engine stays a pure function of whatever nodes it
// is handed, breaking the natural cyclic reference between the tree and
// the store that holds its nodes.
package merkletree

import "github.com/datrs/hypercore/crypto/hashing"

// Node is a single flat-tree node: its own hash and the total byte size
// of the subtree it roots (a leaf's size is its block's length; a
// parent's size is the sum of its children's).
type Node struct {
	Index uint64
	Hash  hashing.Digest
	Size  uint64
}

// Root is a full-root node: a Node that currently heads one of the
// complete subtrees covering [0, length).
type Root = Node

// NodeProvider is the capability the tree engine needs from whatever
// stores nodes: read one by flat index, and persist one. A false ok with
// a nil error means the node is simply not present, not an error.
type NodeProvider interface {
	GetNode(index uint64) (Node, bool, error)
	PutNode(node Node) error
}

// MemoryNodeProvider is a NodeProvider backed by a plain map, used for
// tests and for short-lived trees that never touch disk.
type MemoryNodeProvider struct {
	nodes map[uint64]Node
}

// NewMemoryNodeProvider returns an empty MemoryNodeProvider.
func NewMemoryNodeProvider() *MemoryNodeProvider {
	return &MemoryNodeProvider{nodes: make(map[uint64]Node)}
}

func (m *MemoryNodeProvider) GetNode(index uint64) (Node, bool, error) {
	n, ok := m.nodes[index]
	return n, ok, nil
}

func (m *MemoryNodeProvider) PutNode(node Node) error {
	m.nodes[node.Index] = node
	return nil
}
