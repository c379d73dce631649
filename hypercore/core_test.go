package hypercore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datrs/hypercore/crypto/sign"
	"github.com/datrs/hypercore/merkletree"
	"github.com/datrs/hypercore/storage"
)

func newMemStorage() *storage.MemoryStorage {
	return storage.NewMemoryStorage()
}

func newTestStorages() Storages {
	return Storages{
		Oplog:    newMemStorage(),
		Tree:     newMemStorage(),
		Data:     newMemStorage(),
		Bitfield: newMemStorage(),
	}
}

func openTestCore(t *testing.T, storages Storages, keys *sign.KeyPair) *Core {
	core, err := Open(storages, keys, Config{})
	require.NoError(t, err)
	return core
}

func newTestCore(t *testing.T) (*Core, Storages, *sign.KeyPair) {
	keys, err := sign.GenerateKeyPair()
	require.NoError(t, err)
	storages := newTestStorages()
	core := openTestCore(t, storages, keys)
	return core, storages, keys
}

func TestOpenWithoutKeyPairOrHeaderFails(t *testing.T) {
	_, err := Open(newTestStorages(), nil, Config{})
	assert.Error(t, err)
}

func TestAppendThenGetRoundTrips(t *testing.T) {
	core, _, _ := newTestCore(t)
	defer core.Close()

	res, err := core.Append([][]byte{[]byte("hello"), []byte("world")})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), res.Length)
	assert.Equal(t, uint64(10), res.ByteLength)

	v, ok, err := core.Get(0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("hello"), v)

	v, ok, err = core.Get(1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("world"), v)

	_, ok, err = core.Get(2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAppendEmptyBlocksIsNoOp(t *testing.T) {
	core, _, _ := newTestCore(t)
	defer core.Close()

	res, err := core.Append([][]byte{[]byte("a")})
	require.NoError(t, err)

	res2, err := core.Append(nil)
	require.NoError(t, err)
	assert.Equal(t, res, res2)
}

func TestClearDropsPresenceWithoutShrinkingLength(t *testing.T) {
	core, _, _ := newTestCore(t)
	defer core.Close()

	_, err := core.Append([][]byte{[]byte("a"), []byte("b"), []byte("c")})
	require.NoError(t, err)

	require.NoError(t, core.Clear(1, 2))

	info, err := core.Info()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), info.Length)

	_, ok, err := core.Get(1)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = core.Get(0)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTruncateBumpsForkAndDropsBlocks(t *testing.T) {
	core, _, _ := newTestCore(t)
	defer core.Close()

	for i := 0; i < 5; i++ {
		_, err := core.Append([][]byte{[]byte("block")})
		require.NoError(t, err)
	}

	require.NoError(t, core.Truncate(3))

	info, err := core.Info()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), info.Length)
	assert.Equal(t, uint64(1), info.Fork)

	_, ok, err := core.Get(3)
	require.NoError(t, err)
	assert.False(t, ok)

	res, err := core.Append([][]byte{[]byte("new")})
	require.NoError(t, err)
	assert.Equal(t, uint64(4), res.Length)
}

func TestOpenRestoresStateAfterCloseAndReopen(t *testing.T) {
	storages := newTestStorages()
	keys, err := sign.GenerateKeyPair()
	require.NoError(t, err)

	core := openTestCore(t, storages, keys)
	_, err = core.Append([][]byte{[]byte("one"), []byte("two")})
	require.NoError(t, err)
	require.NoError(t, core.Close())

	reopened, err := Open(storages, nil, Config{})
	require.NoError(t, err)
	defer reopened.Close()

	info, err := reopened.Info()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), info.Length)

	v, ok, err := reopened.Get(1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("two"), v)
}

func TestCreateProofAndVerifyRoundTrip(t *testing.T) {
	core, _, _ := newTestCore(t)
	defer core.Close()

	_, err := core.Append([][]byte{[]byte("a"), []byte("b"), []byte("c")})
	require.NoError(t, err)

	block := uint64(1)
	proof, err := core.CreateProof(merkletree.ProofRequest{Block: &block})
	require.NoError(t, err)
	require.NoError(t, core.Verify(proof))
}

func TestDiscoveryKeyIsStableAndDerivedFromPublicKey(t *testing.T) {
	core, _, keys := newTestCore(t)
	defer core.Close()

	dk1, err := core.DiscoveryKey()
	require.NoError(t, err)
	dk2, err := core.DiscoveryKey()
	require.NoError(t, err)
	assert.Equal(t, dk1, dk2)
	assert.Equal(t, []byte(keys.Public()), core.PublicKey())
}

func TestAuditFindsAndClearsCorruptedBlock(t *testing.T) {
	core, storages, _ := newTestCore(t)
	defer core.Close()

	_, err := core.Append([][]byte{[]byte("aaa"), []byte("bbb"), []byte("ccc")})
	require.NoError(t, err)

	require.NoError(t, storages.Data.Write(3, []byte("xyz")))

	report, err := core.Audit()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), report.ValidBlocks)
	assert.Equal(t, uint64(1), report.InvalidBlocks)

	_, ok, err := core.Get(1)
	require.NoError(t, err)
	assert.False(t, ok)

	v, ok, err := core.Get(0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("aaa"), v)
}

func TestAuditOnCleanCoreReportsAllValid(t *testing.T) {
	core, _, _ := newTestCore(t)
	defer core.Close()

	_, err := core.Append([][]byte{[]byte("one"), []byte("two")})
	require.NoError(t, err)

	report, err := core.Audit()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), report.ValidBlocks)
	assert.Equal(t, uint64(0), report.InvalidBlocks)
}

func TestOperationsAfterCloseFail(t *testing.T) {
	core, _, _ := newTestCore(t)
	require.NoError(t, core.Close())

	_, err := core.Append([][]byte{[]byte("x")})
	assert.Error(t, err)

	_, _, err = core.Get(0)
	assert.Error(t, err)

	_, err = core.Info()
	assert.Error(t, err)
}
