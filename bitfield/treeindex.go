package bitfield

import "github.com/datrs/hypercore/flattree"

// TreeIndex answers presence queries over flat-tree node indices, not just
// leaf positions: Has(i) is true for an interior node only when every leaf
// beneath it is present. It is a thin view over a leaf-indexed Bitfield,
// not a separate store.
type TreeIndex struct {
	leaves *Bitfield
}

// NewTreeIndex wraps a leaf-position Bitfield (bit i corresponds to leaf
// position i, i.e. flat-tree index 2*i).
func NewTreeIndex(leaves *Bitfield) *TreeIndex {
	return &TreeIndex{leaves: leaves}
}

// Has reports whether every leaf spanned by flat-tree index i is present.
func (t *TreeIndex) Has(i uint64) bool {
	left, right := flattree.Spans(i)
	startPos, endPos := left/2, right/2
	want := endPos - startPos + 1
	return t.leaves.CountRange(startPos, endPos+1) == want
}

// SetLeaf marks leaf position pos (flat-tree index 2*pos) present or not.
func (t *TreeIndex) SetLeaf(pos uint64, present bool) {
	t.leaves.SetRange(pos, pos+1, present)
}

// Leaves returns the underlying leaf-position Bitfield.
func (t *TreeIndex) Leaves() *Bitfield { return t.leaves }
