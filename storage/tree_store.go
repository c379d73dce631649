package storage

import (
	"github.com/datrs/hypercore/codec"
	"github.com/datrs/hypercore/crypto/hashing"
	"github.com/datrs/hypercore/hcerr"
	"github.com/datrs/hypercore/merkletree"
)

// NodeSize is the fixed width of one tree node's on-disk slot: a 32-byte
// hash plus an 8-byte big-endian size. An absent node is an all-zero
// slot, and GetNode reports a slot whose hash is all zero as absent.
const NodeSize = 40

// TreeStore addresses a RandomAccess store in fixed NodeSize slots keyed
// by flat-tree index, and implements merkletree.NodeProvider directly so
// the tree engine can be handed one without any adapter.
type TreeStore struct {
	ra RandomAccess
}

// NewTreeStore wraps ra as a flat-tree node store.
func NewTreeStore(ra RandomAccess) *TreeStore {
	return &TreeStore{ra: ra}
}

func slotOffset(index uint64) uint64 { return index * NodeSize }

// GetNode implements merkletree.NodeProvider.
func (s *TreeStore) GetNode(index uint64) (merkletree.Node, bool, error) {
	length, err := s.ra.Len()
	if err != nil {
		return merkletree.Node{}, false, hcerr.Wrap(hcerr.IoError, "tree store len", err)
	}
	offset := slotOffset(index)
	if offset+NodeSize > length {
		return merkletree.Node{}, false, nil
	}
	raw, err := s.ra.Read(offset, NodeSize)
	if err != nil {
		return merkletree.Node{}, false, hcerr.Wrap(hcerr.IoError, "tree store read", err)
	}

	var hash hashing.Digest
	copy(hash[:], raw[:32])
	if hash.IsZero() {
		return merkletree.Node{}, false, nil
	}
	r := codec.NewReader(raw[32:])
	size, err := r.Uint64("size")
	if err != nil {
		return merkletree.Node{}, false, hcerr.Wrap(hcerr.MalformedEntry, "tree store decode", err)
	}
	return merkletree.Node{Index: index, Hash: hash, Size: size}, true, nil
}

// PutNode implements merkletree.NodeProvider.
func (s *TreeStore) PutNode(n merkletree.Node) error {
	w := codec.NewWriter(NodeSize)
	w.Bytes32(n.Hash.Bytes())
	w.Uint64(n.Size)
	if err := s.ra.Write(slotOffset(n.Index), w.Bytes()); err != nil {
		return hcerr.Wrap(hcerr.IoError, "tree store write", err)
	}
	return nil
}

// DeleteNode zeroes a node's slot, marking it absent.
func (s *TreeStore) DeleteNode(index uint64) error {
	if err := s.ra.Del(slotOffset(index), NodeSize); err != nil {
		return hcerr.Wrap(hcerr.IoError, "tree store delete", err)
	}
	return nil
}

// TruncateAfter shrinks the tree store so that no slot at or beyond
// flat-tree index boundaryIndex remains addressable.
func (s *TreeStore) TruncateAfter(boundaryIndex uint64) error {
	if err := s.ra.Truncate(slotOffset(boundaryIndex)); err != nil {
		return hcerr.Wrap(hcerr.IoError, "tree store truncate", err)
	}
	return nil
}

// Flush persists any buffered node writes.
func (s *TreeStore) Flush() error {
	if err := s.ra.Flush(); err != nil {
		return hcerr.Wrap(hcerr.IoError, "tree store flush", err)
	}
	return nil
}
