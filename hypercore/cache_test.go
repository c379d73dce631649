package hypercore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datrs/hypercore/crypto/hashing"
	"github.com/datrs/hypercore/merkletree"
)

func TestNewCachedNodeProviderDisabledForNonPositiveCapacity(t *testing.T) {
	inner := merkletree.NewMemoryNodeProvider()
	wrapped := newCachedNodeProvider(inner, 0)
	assert.Same(t, inner, wrapped)
}

func TestCachedNodeProviderPutWritesThroughToInner(t *testing.T) {
	inner := merkletree.NewMemoryNodeProvider()
	wrapped := newCachedNodeProvider(inner, 8)

	n := merkletree.Node{Index: 0, Hash: hashing.Leaf([]byte("x")), Size: 1}
	require.NoError(t, wrapped.PutNode(n))

	got, ok, err := wrapped.GetNode(0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, n, got)

	innerGot, ok, err := inner.GetNode(0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, n, innerGot)
}

func TestCachedNodeProviderInvalidateFromDropsAtAndAboveBoundary(t *testing.T) {
	inner := merkletree.NewMemoryNodeProvider()
	wrapped := newCachedNodeProvider(inner, 8)
	cached := wrapped.(*cachedNodeProvider)

	for i := uint64(0); i < 4; i++ {
		require.NoError(t, cached.PutNode(merkletree.Node{Index: i, Hash: hashing.Leaf([]byte{byte(i)}), Size: 1}))
	}

	cached.invalidateFrom(2)

	for i := uint64(0); i < 2; i++ {
		_, ok := cached.cache.Get(i)
		assert.True(t, ok, "index %d should still be cached", i)
	}
	for i := uint64(2); i < 4; i++ {
		_, ok := cached.cache.Get(i)
		assert.False(t, ok, "index %d should have been evicted", i)
	}
}
