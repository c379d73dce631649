package merkletree

import (
	"testing"

	"github.com/datrs/hypercore/hcerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTree(t *testing.T, n int) (*Tree, []string) {
	tree, _ := newTestTree(t)
	blocks := make([]string, n)
	for i := 0; i < n; i++ {
		blocks[i] = "block-" + string(rune('a'+i))
		appendAndCommit(t, tree, blocks[i])
	}
	return tree, blocks
}

func TestCreateAndVerifyBlockProof(t *testing.T) {
	tree, blocks := buildTree(t, 7)
	for i, b := range blocks {
		idx := uint64(i)
		proof, err := tree.CreateProof(ProofRequest{Block: &idx})
		require.NoError(t, err)
		require.NotNil(t, proof.Block)
		proof.Block.Value = []byte(b)

		require.NoError(t, tree.VerifyBlock(proof.Block, nil))
	}
}

func TestVerifyBlockRejectsTamperedValue(t *testing.T) {
	tree, _ := buildTree(t, 5)
	idx := uint64(2)
	proof, err := tree.CreateProof(ProofRequest{Block: &idx})
	require.NoError(t, err)
	proof.Block.Value = []byte("not the real block")

	err = tree.VerifyBlock(proof.Block, nil)
	assert.Equal(t, hcerr.BadHash, hcerr.Of(err))
}

func TestVerifyBlockRejectsOutOfRange(t *testing.T) {
	tree, _ := buildTree(t, 3)
	idx := uint64(99)
	_, err := tree.CreateProof(ProofRequest{Block: &idx})
	assert.Equal(t, hcerr.OutOfRange, hcerr.Of(err))
}

func TestCreateAndVerifyHashProof(t *testing.T) {
	tree, _ := buildTree(t, 8)
	idx := uint64(1) // parent of leaves 0 and 2
	proof, err := tree.CreateProof(ProofRequest{HashIndex: &idx})
	require.NoError(t, err)
	require.NotNil(t, proof.Hash)
	require.NoError(t, tree.VerifyHash(proof.Hash, nil))
}

func TestCreateProofUpgradeRoundTrips(t *testing.T) {
	tree, _ := buildTree(t, 4)
	from := uint64(1)
	proof, err := tree.CreateProof(ProofRequest{UpgradeFrom: &from})
	require.NoError(t, err)
	require.NotNil(t, proof.Upgrade)

	roots, err := tree.VerifyUpgrade(tree.keys.Public(), proof.Upgrade)
	require.NoError(t, err)
	assert.Equal(t, tree.State().Roots, roots)
}

func TestVerifyUpgradeRejectsForkMismatch(t *testing.T) {
	tree, _ := buildTree(t, 4)
	from := uint64(1)
	proof, err := tree.CreateProof(ProofRequest{UpgradeFrom: &from})
	require.NoError(t, err)
	proof.Upgrade.Fork = 99

	_, err = tree.VerifyUpgrade(tree.keys.Public(), proof.Upgrade)
	assert.Equal(t, hcerr.ForkMismatch, hcerr.Of(err))
}

func TestVerifyUpgradeRejectsBadSignature(t *testing.T) {
	tree, _ := buildTree(t, 4)
	from := uint64(1)
	proof, err := tree.CreateProof(ProofRequest{UpgradeFrom: &from})
	require.NoError(t, err)
	proof.Upgrade.Signature[0] ^= 0xff

	_, err = tree.VerifyUpgrade(tree.keys.Public(), proof.Upgrade)
	assert.Equal(t, hcerr.InvalidSignature, hcerr.Of(err))
}

func TestCreateSeekProofLocatesLeaf(t *testing.T) {
	tree, _ := buildTree(t, 6)
	byteOffset := uint64(3)
	proof, err := tree.CreateProof(ProofRequest{SeekByte: &byteOffset})
	require.NoError(t, err)
	require.NotNil(t, proof.Seek)
	assert.Equal(t, byteOffset, proof.Seek.Bytes)
}
