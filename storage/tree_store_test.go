package storage

import (
	"testing"

	"github.com/datrs/hypercore/crypto/hashing"
	"github.com/datrs/hypercore/merkletree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeStoreRoundTrip(t *testing.T) {
	ts := NewTreeStore(NewMemoryStorage())

	_, ok, err := ts.GetNode(3)
	require.NoError(t, err)
	assert.False(t, ok)

	n := merkletree.Node{Index: 3, Hash: hashing.Leaf([]byte("x")), Size: 7}
	require.NoError(t, ts.PutNode(n))

	got, ok, err := ts.GetNode(3)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, n, got)
}

func TestTreeStoreDeleteMarksAbsent(t *testing.T) {
	ts := NewTreeStore(NewMemoryStorage())
	n := merkletree.Node{Index: 1, Hash: hashing.Leaf([]byte("y")), Size: 1}
	require.NoError(t, ts.PutNode(n))
	require.NoError(t, ts.DeleteNode(1))

	_, ok, err := ts.GetNode(1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTreeStoreTruncateAfterHidesLaterSlots(t *testing.T) {
	ts := NewTreeStore(NewMemoryStorage())
	require.NoError(t, ts.PutNode(merkletree.Node{Index: 0, Hash: hashing.Leaf([]byte("a")), Size: 1}))
	require.NoError(t, ts.PutNode(merkletree.Node{Index: 2, Hash: hashing.Leaf([]byte("b")), Size: 1}))

	require.NoError(t, ts.TruncateAfter(2))

	_, ok, err := ts.GetNode(0)
	require.NoError(t, err)
	assert.True(t, ok)

	_, ok, err = ts.GetNode(2)
	require.NoError(t, err)
	assert.False(t, ok)
}
