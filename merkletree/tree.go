package merkletree

import (
	"github.com/datrs/hypercore/crypto/hashing"
	"github.com/datrs/hypercore/crypto/sign"
	"github.com/datrs/hypercore/flattree"
	"github.com/datrs/hypercore/hcerr"
)

// State is the tree engine's authoritative, signed state.
type State struct {
	Length     uint64
	ByteLength uint64
	Fork       uint64
	Roots      []Root
	Signature  []byte
}

// Upgrade describes the delta an append batch produced: length new
// leaves starting at Start, the full-roots set for the new length, and
// the fresh signature over their tree hash.
type Upgrade struct {
	Start      uint64
	Length     uint64
	Fork       uint64
	ByteLength uint64
	Roots      []Root
	Signature  []byte
}

// Changeset is a prepared, uncommitted mutation built by Append. It is
// discarded if never passed to Commit.
type Changeset struct {
	NewNodes []Node
	Upgrade  Upgrade
}

// Tree is the in-memory Merkle tree engine. It holds no storage handle:
// every node it needs is fetched from, or written through, its
// NodeProvider.
type Tree struct {
	nodes NodeProvider
	keys  *sign.KeyPair
	state State
}

// NewTree wraps a NodeProvider and keypair around an already-known
// state, e.g. one just decoded from an oplog header.
func NewTree(nodes NodeProvider, keys *sign.KeyPair, state State) *Tree {
	return &Tree{nodes: nodes, keys: keys, state: state}
}

// State returns a copy of the tree's current authoritative state.
func (t *Tree) State() State { return t.state }

// TreeHash returns the signed domain hash of the tree's current roots.
func (t *Tree) TreeHash() hashing.Digest {
	return rootHash(t.state.Roots)
}

func rootHash(roots []Root) hashing.Digest {
	inputs := make([]hashing.RootInput, len(roots))
	for i, r := range roots {
		inputs[i] = hashing.RootInput{Hash: r.Hash, Index: r.Index, Size: r.Size}
	}
	return hashing.Root(inputs)
}

// Append builds a Changeset for appending blocks on top of the tree's
// current state, without mutating it. The tree must have been opened
// with a secret key; a read-only replica cannot produce a new signature.
func (t *Tree) Append(blocks [][]byte) (*Changeset, error) {
	if len(blocks) == 0 {
		return &Changeset{Upgrade: Upgrade{
			Start: t.state.Length, Fork: t.state.Fork,
			ByteLength: t.state.ByteLength, Roots: t.state.Roots, Signature: t.state.Signature,
		}}, nil
	}
	if !t.keys.CanSign() {
		return nil, hcerr.New(hcerr.PermissionDenied, "append requires a writable keypair")
	}

	type acc struct {
		node   Node
		leaves uint64
	}
	stack := make([]acc, 0, len(t.state.Roots)+1)
	for _, r := range t.state.Roots {
		stack = append(stack, acc{node: r, leaves: flattree.Count(r.Index)})
	}

	var newNodes []Node
	byteLength := t.state.ByteLength
	for j, block := range blocks {
		leafIndex := 2 * (t.state.Length + uint64(j))
		leaf := Node{Index: leafIndex, Hash: hashing.Leaf(block), Size: uint64(len(block))}
		newNodes = append(newNodes, leaf)
		byteLength += leaf.Size
		cur := acc{node: leaf, leaves: 1}

		for len(stack) > 0 && stack[len(stack)-1].leaves == cur.leaves {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			parentIndex := flattree.Parent(cur.node.Index)
			parentHash := hashing.Parent(
				hashing.NodeInput{Hash: top.node.Hash, Size: top.node.Size},
				hashing.NodeInput{Hash: cur.node.Hash, Size: cur.node.Size},
			)
			parent := Node{Index: parentIndex, Hash: parentHash, Size: top.node.Size + cur.node.Size}
			newNodes = append(newNodes, parent)
			cur = acc{node: parent, leaves: top.leaves + cur.leaves}
		}
		stack = append(stack, cur)
	}

	newRoots := make([]Root, len(stack))
	for i, a := range stack {
		newRoots[i] = a.node
	}

	treeHash := rootHash(newRoots)
	signature, err := t.keys.Sign(treeHash.Bytes())
	if err != nil {
		return nil, hcerr.Wrap(hcerr.PermissionDenied, "sign new tree hash", err)
	}

	return &Changeset{
		NewNodes: newNodes,
		Upgrade: Upgrade{
			Start:      t.state.Length,
			Length:     uint64(len(blocks)),
			Fork:       t.state.Fork,
			ByteLength: byteLength,
			Roots:      newRoots,
			Signature:  signature,
		},
	}, nil
}

// Commit applies a Changeset built by Append: it persists every new node
// through the NodeProvider and then advances the tree's state.
func (t *Tree) Commit(cs *Changeset) error {
	for _, n := range cs.NewNodes {
		if err := t.nodes.PutNode(n); err != nil {
			return hcerr.Wrap(hcerr.IoError, "persist tree node", err)
		}
	}
	t.state.Length = cs.Upgrade.Start + cs.Upgrade.Length
	t.state.ByteLength = cs.Upgrade.ByteLength
	t.state.Fork = cs.Upgrade.Fork
	t.state.Roots = cs.Upgrade.Roots
	t.state.Signature = cs.Upgrade.Signature
	return nil
}

// Truncate replaces the roots with the full roots of newLength, bumps the
// fork counter and re-signs the resulting (shorter) roots. Nodes above
// newLength stay in the NodeProvider; removing them is left to the
// caller (see hypercore.Core.Truncate). Nodes below newLength are
// expected to still be retrievable from the NodeProvider; a missing one
// is reported as MissingNode rather than silently re-derived.
func (t *Tree) Truncate(newLength uint64) error {
	if newLength > t.state.Length {
		return hcerr.New(hcerr.OutOfRange, "truncate length exceeds current length")
	}
	if !t.keys.CanSign() {
		return hcerr.New(hcerr.PermissionDenied, "truncate requires a writable keypair")
	}

	rootIdxs := flattree.FullRoots(newLength)
	roots := make([]Root, 0, len(rootIdxs))
	var byteLength uint64
	for _, idx := range rootIdxs {
		n, ok, err := t.nodes.GetNode(idx)
		if err != nil {
			return hcerr.Wrap(hcerr.IoError, "read root node for truncate", err)
		}
		if !ok {
			return hcerr.New(hcerr.MissingNode, "root node missing for truncate")
		}
		roots = append(roots, n)
		byteLength += n.Size
	}

	treeHash := rootHash(roots)
	signature, err := t.keys.Sign(treeHash.Bytes())
	if err != nil {
		return hcerr.Wrap(hcerr.PermissionDenied, "sign truncated tree hash", err)
	}

	t.state.Fork++
	t.state.Length = newLength
	t.state.ByteLength = byteLength
	t.state.Roots = roots
	t.state.Signature = signature
	return nil
}
