package merkletree

import (
	"github.com/datrs/hypercore/flattree"
	"github.com/datrs/hypercore/hcerr"
)

// ByteOffset returns the byte offset at which block index begins in the
// data store, derived purely from stored node sizes: Σ sizes[0..index).
// Passing index == Length returns the current byte_length, i.e. the
// offset the next appended block would start at.
func (t *Tree) ByteOffset(index uint64) (uint64, error) {
	if index > t.state.Length {
		return 0, hcerr.New(hcerr.OutOfRange, "block index exceeds length")
	}
	if index == t.state.Length {
		return t.state.ByteLength, nil
	}

	leafIndex := 2 * index
	var offset uint64
	var covering *Root
	for i := range t.state.Roots {
		l, r := flattree.Spans(t.state.Roots[i].Index)
		if leafIndex >= l && leafIndex <= r {
			covering = &t.state.Roots[i]
			break
		}
		offset += t.state.Roots[i].Size
	}
	if covering == nil {
		return 0, hcerr.New(hcerr.Inconsistent, "block index not covered by any root")
	}

	idx := covering.Index
	for idx%2 != 0 {
		leftIdx, rightIdx := flattree.Children(idx)
		left, err := t.getNode(leftIdx)
		if err != nil {
			return 0, err
		}
		ll, lr := flattree.Spans(leftIdx)
		if leafIndex >= ll && leafIndex <= lr {
			idx = leftIdx
		} else {
			offset += left.Size
			idx = rightIdx
		}
	}
	return offset, nil
}
