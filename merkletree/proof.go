package merkletree

import (
	"fmt"

	"github.com/datrs/hypercore/crypto/hashing"
	"github.com/datrs/hypercore/crypto/sign"
	"github.com/datrs/hypercore/flattree"
	"github.com/datrs/hypercore/hcerr"
)

// UpgradeProof carries everything a peer needs to adopt a longer tree:
// the newly created nodes, the untouched prior roots needed alongside
// them to recompute the full roots set, and the signature over it.
type UpgradeProof struct {
	Start           uint64
	Length          uint64
	Fork            uint64
	Nodes           []Node
	AdditionalNodes []Node
	Signature       []byte
}

// SeekProof locates the leaf containing a given byte offset, with the
// sibling nodes needed to confirm it descends from a known root.
type SeekProof struct {
	Bytes uint64
	Nodes []Node
}

// BlockProof proves a single block's bytes against a known root.
type BlockProof struct {
	Index uint64
	Value []byte
	Nodes []Node
}

// HashProof proves an arbitrary node's hash against a known root. Target
// carries the node being proven itself, since a hash proof is not
// self-verifying without the claimed hash it is proving.
type HashProof struct {
	Target Node
	Nodes  []Node
}

// Proof bundles whichever of the four proof kinds a request asked for.
type Proof struct {
	Upgrade *UpgradeProof
	Seek    *SeekProof
	Block   *BlockProof
	Hash    *HashProof
}

// ProofRequest enumerates what a peer wants proven. Every field is
// optional; a request may combine several at once.
type ProofRequest struct {
	UpgradeFrom *uint64
	SeekByte    *uint64
	Block       *uint64
	HashIndex   *uint64
}

func (t *Tree) findCoveringRoot(leafIndex uint64) *Root {
	for i := range t.state.Roots {
		l, r := flattree.Spans(t.state.Roots[i].Index)
		if leafIndex >= l && leafIndex <= r {
			return &t.state.Roots[i]
		}
	}
	return nil
}

func (t *Tree) findCoveringRootForNode(index uint64) *Root {
	nl, nr := flattree.Spans(index)
	for i := range t.state.Roots {
		rl, rr := flattree.Spans(t.state.Roots[i].Index)
		if nl >= rl && nr <= rr {
			return &t.state.Roots[i]
		}
	}
	return nil
}

func (t *Tree) getNode(index uint64) (Node, error) {
	n, ok, err := t.nodes.GetNode(index)
	if err != nil {
		return Node{}, hcerr.Wrap(hcerr.IoError, "read node", err)
	}
	if !ok {
		return Node{}, hcerr.New(hcerr.MissingNode, fmt.Sprintf("node %d not present", index))
	}
	return n, nil
}

// siblingsUpTo collects, bottom-up, the sibling node needed at every
// level climbing from start to stopAt. It fails with MissingNode rather
// than attempting to recompute an absent node from raw blocks.
func (t *Tree) siblingsUpTo(start, stopAt uint64) ([]Node, error) {
	var out []Node
	it := flattree.NewIterator(start)
	for it.Index() != stopAt {
		sibIndex := it.Sibling()
		n, err := t.getNode(sibIndex)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
		it.Parent()
	}
	return out, nil
}

// CreateProof assembles the minimal proof material satisfying req. It
// only ever reads nodes already present via the NodeProvider; a node
// that would need recomputing from raw block data fails the whole call
// with MissingNode.
func (t *Tree) CreateProof(req ProofRequest) (*Proof, error) {
	proof := &Proof{}

	if req.Block != nil {
		idx := *req.Block
		if idx >= t.state.Length {
			return nil, hcerr.New(hcerr.OutOfRange, "block index out of range")
		}
		leafIndex := 2 * idx
		root := t.findCoveringRoot(leafIndex)
		if root == nil {
			return nil, hcerr.New(hcerr.OutOfRange, "block index not covered by current roots")
		}
		siblings, err := t.siblingsUpTo(leafIndex, root.Index)
		if err != nil {
			return nil, err
		}
		proof.Block = &BlockProof{Index: idx, Nodes: siblings}
	}

	if req.HashIndex != nil {
		idx := *req.HashIndex
		target, err := t.getNode(idx)
		if err != nil {
			return nil, err
		}
		root := t.findCoveringRootForNode(idx)
		if root == nil {
			return nil, hcerr.New(hcerr.OutOfRange, "node not covered by current roots")
		}
		siblings, err := t.siblingsUpTo(idx, root.Index)
		if err != nil {
			return nil, err
		}
		proof.Hash = &HashProof{Target: target, Nodes: siblings}
	}

	if req.UpgradeFrom != nil {
		from := *req.UpgradeFrom
		if from > t.state.Length {
			return nil, hcerr.New(hcerr.OutOfRange, "upgrade_from exceeds current length")
		}
		oldRootIdxs := flattree.FullRoots(from)
		newRootIdxs := flattree.FullRoots(t.state.Length)
		old := make(map[uint64]bool, len(oldRootIdxs))
		for _, idx := range oldRootIdxs {
			old[idx] = true
		}
		var nodes, additional []Node
		for _, idx := range newRootIdxs {
			n, err := t.getNode(idx)
			if err != nil {
				return nil, err
			}
			if old[idx] {
				additional = append(additional, n)
			} else {
				nodes = append(nodes, n)
			}
		}
		proof.Upgrade = &UpgradeProof{
			Start: from, Length: t.state.Length - from, Fork: t.state.Fork,
			Nodes: nodes, AdditionalNodes: additional, Signature: t.state.Signature,
		}
	}

	if req.SeekByte != nil {
		seek, err := t.createSeekProof(*req.SeekByte)
		if err != nil {
			return nil, err
		}
		proof.Seek = seek
	}

	return proof, nil
}

func (t *Tree) createSeekProof(byteOffset uint64) (*SeekProof, error) {
	if t.state.ByteLength == 0 || byteOffset >= t.state.ByteLength {
		return nil, hcerr.New(hcerr.OutOfRange, "seek byte beyond byte_length")
	}

	var cum uint64
	var idx uint64
	found := false
	for _, r := range t.state.Roots {
		if byteOffset < cum+r.Size {
			idx = r.Index
			found = true
			break
		}
		cum += r.Size
	}
	if !found {
		return nil, hcerr.New(hcerr.Inconsistent, "seek byte not covered by any root")
	}
	target := byteOffset - cum

	var nodes []Node
	for idx%2 != 0 {
		leftIdx, rightIdx := flattree.Children(idx)
		left, err := t.getNode(leftIdx)
		if err != nil {
			return nil, err
		}
		if target < left.Size {
			right, err := t.getNode(rightIdx)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, right)
			idx = leftIdx
		} else {
			target -= left.Size
			nodes = append(nodes, left)
			idx = rightIdx
		}
	}
	return &SeekProof{Bytes: byteOffset, Nodes: nodes}, nil
}

// climb reconstructs the hash/size of the node at stopAt by combining
// start with the sibling nodes supplied bottom-up in siblings, failing
// with Inconsistent if the sibling indices or count don't line up with
// what the flat-tree shape between start and stopAt demands.
func climb(start Node, siblings []Node, stopAt uint64) (Node, error) {
	cur := start
	it := flattree.NewIterator(start.Index)
	used := 0
	for it.Index() != stopAt {
		isLeft := it.IsLeft()
		expectedSibling := it.Sibling()
		if used >= len(siblings) {
			return Node{}, hcerr.New(hcerr.Inconsistent, "proof is missing a sibling node")
		}
		sib := siblings[used]
		used++
		if sib.Index != expectedSibling {
			return Node{}, hcerr.New(hcerr.Inconsistent, "proof sibling index mismatch")
		}
		var combined hashing.Digest
		if isLeft {
			combined = hashing.Parent(
				hashing.NodeInput{Hash: cur.Hash, Size: cur.Size},
				hashing.NodeInput{Hash: sib.Hash, Size: sib.Size},
			)
		} else {
			combined = hashing.Parent(
				hashing.NodeInput{Hash: sib.Hash, Size: sib.Size},
				hashing.NodeInput{Hash: cur.Hash, Size: cur.Size},
			)
		}
		parentIndex := it.Parent()
		cur = Node{Index: parentIndex, Hash: combined, Size: cur.Size + sib.Size}
	}
	if used != len(siblings) {
		return Node{}, hcerr.New(hcerr.Inconsistent, "proof has unused sibling nodes")
	}
	return cur, nil
}

// VerifyBlock checks proof against roots (pass nil to use the tree's own
// current roots) and reports MalformedEntry (no Value), BadHash,
// OutOfRange or Inconsistent on failure.
func (t *Tree) VerifyBlock(proof *BlockProof, roots []Node) error {
	if proof.Value == nil {
		return hcerr.New(hcerr.MalformedEntry, "block proof missing value")
	}
	if roots == nil {
		roots = t.state.Roots
	}
	leafIndex := 2 * proof.Index
	root := findCoveringRootIn(roots, leafIndex)
	if root == nil {
		return hcerr.New(hcerr.OutOfRange, "block index not covered by known roots")
	}
	leaf := Node{Index: leafIndex, Hash: hashing.Leaf(proof.Value), Size: uint64(len(proof.Value))}
	got, err := climb(leaf, proof.Nodes, root.Index)
	if err != nil {
		return err
	}
	if got.Hash != root.Hash || got.Size != root.Size {
		return hcerr.New(hcerr.BadHash, "recomputed hash does not match known root")
	}
	return nil
}

// VerifyHash is VerifyBlock's counterpart for an arbitrary interior node
// rather than a leaf block.
func (t *Tree) VerifyHash(proof *HashProof, roots []Node) error {
	if roots == nil {
		roots = t.state.Roots
	}
	root := findCoveringRootForSpan(roots, proof.Target.Index)
	if root == nil {
		return hcerr.New(hcerr.OutOfRange, "node not covered by known roots")
	}
	got, err := climb(proof.Target, proof.Nodes, root.Index)
	if err != nil {
		return err
	}
	if got.Hash != root.Hash || got.Size != root.Size {
		return hcerr.New(hcerr.BadHash, "recomputed hash does not match known root")
	}
	return nil
}

// VerifyUpgrade checks an UpgradeProof's signature and internal
// consistency, returning the candidate roots it attests to without
// mutating the tree. The caller (the core facade) decides whether to
// Commit a corresponding changeset; VerifyUpgrade never does so itself.
func (t *Tree) VerifyUpgrade(pub []byte, proof *UpgradeProof) ([]Root, error) {
	if proof.Fork != t.state.Fork {
		return nil, hcerr.New(hcerr.ForkMismatch, "upgrade targets a different fork")
	}
	newLength := proof.Start + proof.Length
	rootIdxs := flattree.FullRoots(newLength)
	lookup := make(map[uint64]Node, len(proof.Nodes)+len(proof.AdditionalNodes))
	for _, n := range proof.Nodes {
		lookup[n.Index] = n
	}
	for _, n := range proof.AdditionalNodes {
		lookup[n.Index] = n
	}
	roots := make([]Root, 0, len(rootIdxs))
	for _, idx := range rootIdxs {
		n, ok := lookup[idx]
		if !ok {
			return nil, hcerr.New(hcerr.Inconsistent, "upgrade proof missing a root node")
		}
		roots = append(roots, n)
	}
	treeHash := rootHash(roots)
	if !sign.Verify(pub, treeHash.Bytes(), proof.Signature) {
		return nil, hcerr.New(hcerr.InvalidSignature, "upgrade signature does not verify")
	}
	return roots, nil
}

// Verify checks proof's Block and Hash fields, when set, against the
// tree's current roots. Its Upgrade and Seek fields are not checked, and
// no signature is verified here (VerifyUpgrade checks an upgrade's). It
// is a convenience wrapper; callers proving against a specific
// upgrade's candidate roots should call VerifyBlock/VerifyHash directly.
func (t *Tree) Verify(proof *Proof) error {
	if proof.Block != nil {
		if err := t.VerifyBlock(proof.Block, nil); err != nil {
			return err
		}
	}
	if proof.Hash != nil {
		if err := t.VerifyHash(proof.Hash, nil); err != nil {
			return err
		}
	}
	return nil
}

func findCoveringRootIn(roots []Node, leafIndex uint64) *Node {
	for i := range roots {
		l, r := flattree.Spans(roots[i].Index)
		if leafIndex >= l && leafIndex <= r {
			return &roots[i]
		}
	}
	return nil
}

func findCoveringRootForSpan(roots []Node, index uint64) *Node {
	nl, nr := flattree.Spans(index)
	for i := range roots {
		rl, rr := flattree.Spans(roots[i].Index)
		if nl >= rl && nr <= rr {
			return &roots[i]
		}
	}
	return nil
}
