package flattree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepthOffsetRoundTrip(t *testing.T) {
	for i := uint64(0); i < 200; i++ {
		d := Depth(i)
		o := Offset(i)
		require.Equal(t, i, Index(d, o), "index(depth(%d), offset(%d)) should round-trip", i, i)
	}
}

func TestLeafDepthIsZero(t *testing.T) {
	for i := uint64(0); i < 50; i += 2 {
		assert.Equal(t, uint64(0), Depth(i))
	}
}

func TestParentAndChildrenAgree(t *testing.T) {
	for i := uint64(1); i < 200; i += 2 {
		l, r := Children(i)
		assert.Equal(t, i, Parent(l))
		assert.Equal(t, i, Parent(r))
	}
}

func TestSiblingIsInvolution(t *testing.T) {
	for i := uint64(0); i < 200; i++ {
		assert.Equal(t, i, Sibling(Sibling(i)))
	}
}

func TestSpansAndCount(t *testing.T) {
	// index 3 is the depth-2 parent covering leaves 0,2,4,6
	l, r := Spans(3)
	assert.Equal(t, uint64(0), l)
	assert.Equal(t, uint64(6), r)
	assert.Equal(t, uint64(4), Count(3))

	// index 11 covers leaves 8,10,12,14
	l, r = Spans(11)
	assert.Equal(t, uint64(8), l)
	assert.Equal(t, uint64(14), r)
}

func TestFullRootsKnownValues(t *testing.T) {
	assert.Nil(t, FullRoots(0))
	assert.Equal(t, []uint64{0}, FullRoots(1))
	assert.Equal(t, []uint64{1}, FullRoots(2))
	assert.Equal(t, []uint64{1, 4}, FullRoots(3))
	assert.Equal(t, []uint64{3}, FullRoots(4))
	assert.Equal(t, []uint64{3, 8}, FullRoots(5))
	assert.Equal(t, []uint64{3, 9}, FullRoots(6))
	assert.Equal(t, []uint64{3, 9, 12}, FullRoots(7))
	assert.Equal(t, []uint64{7}, FullRoots(8))
}

func TestFullRootsCoverExactlyLength(t *testing.T) {
	for length := uint64(1); length < 100; length++ {
		roots := FullRoots(length)
		var leaves uint64
		for _, r := range roots {
			leaves += Count(r)
		}
		assert.Equal(t, length, leaves, "full roots of %d should cover exactly %d leaves", length, length)
	}
}

func TestIteratorMatchesPureFunctions(t *testing.T) {
	for start := uint64(0); start < 40; start += 2 {
		it := NewIterator(start)
		i := start
		for step := 0; step < 4; step++ {
			sib := Sibling(i)
			require.Equal(t, sib, it.Sibling())
			i = sib

			par := Parent(i)
			require.Equal(t, par, it.Parent())
			i = par
		}
	}
}

func TestParentsUntilStopsAtRoot(t *testing.T) {
	roots := FullRoots(8)
	require.Len(t, roots, 1)
	path := ParentsUntil(0, roots[0])
	require.NotEmpty(t, path)
	assert.Equal(t, roots[0], path[len(path)-1])
}
