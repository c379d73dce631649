package merkletree

import (
	"testing"

	"github.com/datrs/hypercore/crypto/sign"
	"github.com/datrs/hypercore/flattree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTree(t *testing.T) (*Tree, *sign.KeyPair) {
	keys, err := sign.GenerateKeyPair()
	require.NoError(t, err)
	tree := NewTree(NewMemoryNodeProvider(), keys, State{})
	return tree, keys
}

func appendAndCommit(t *testing.T, tree *Tree, blocks ...string) {
	raw := make([][]byte, len(blocks))
	for i, b := range blocks {
		raw[i] = []byte(b)
	}
	cs, err := tree.Append(raw)
	require.NoError(t, err)
	require.NoError(t, tree.Commit(cs))
}

func TestAppendTracksLengthAndByteLength(t *testing.T) {
	tree, _ := newTestTree(t)
	appendAndCommit(t, tree, "Hello", "World")

	st := tree.State()
	assert.Equal(t, uint64(2), st.Length)
	assert.Equal(t, uint64(10), st.ByteLength)
	assert.Len(t, st.Roots, 1)
	assert.NotEmpty(t, st.Signature)
}

func TestFullRootsCountMatchesFlattree(t *testing.T) {
	tree, _ := newTestTree(t)
	for i := 0; i < 11; i++ {
		appendAndCommit(t, tree, "x")
	}
	st := tree.State()
	expected := flattree.FullRoots(st.Length)
	assert.Len(t, st.Roots, len(expected))
	for i, r := range st.Roots {
		assert.Equal(t, expected[i], r.Index)
	}
}

func TestTreeHashIsDeterministicOverState(t *testing.T) {
	treeA, keys := newTestTree(t)
	appendAndCommit(t, treeA, "a", "b", "c")

	treeB := NewTree(NewMemoryNodeProvider(), keys, State{})
	appendAndCommit(t, treeB, "a", "b", "c")

	assert.Equal(t, treeA.TreeHash(), treeB.TreeHash())
}

func TestAppendRejectsReadOnlyKeyPair(t *testing.T) {
	keys, err := sign.GenerateKeyPair()
	require.NoError(t, err)
	readOnly := sign.NewKeyPair(keys.Public(), nil)
	tree := NewTree(NewMemoryNodeProvider(), readOnly, State{})

	_, err = tree.Append([][]byte{[]byte("x")})
	assert.Error(t, err)
}

func TestTruncateIncrementsForkAndReSigns(t *testing.T) {
	tree, _ := newTestTree(t)
	for i := 0; i < 5; i++ {
		appendAndCommit(t, tree, "block")
	}
	sigBefore := tree.State().Signature

	require.NoError(t, tree.Truncate(3))
	st := tree.State()
	assert.Equal(t, uint64(3), st.Length)
	assert.Equal(t, uint64(1), st.Fork)
	assert.NotEqual(t, sigBefore, st.Signature)

	appendAndCommit(t, tree, "new-block")
	assert.Equal(t, uint64(4), tree.State().Length)
	assert.Equal(t, uint64(1), tree.State().Fork)
}

func TestTruncateRejectsLengthAboveCurrent(t *testing.T) {
	tree, _ := newTestTree(t)
	appendAndCommit(t, tree, "a")
	assert.Error(t, tree.Truncate(5))
}

func TestTruncateFailsOnMissingNode(t *testing.T) {
	tree, keys := newTestTree(t)
	for i := 0; i < 4; i++ {
		appendAndCommit(t, tree, "block")
	}
	sparse := NewTree(NewMemoryNodeProvider(), keys, tree.State())
	assert.Error(t, sparse.Truncate(2))
}
