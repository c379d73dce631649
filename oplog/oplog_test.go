package oplog

import (
	"testing"

	"github.com/datrs/hypercore/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenEmptyStoreHasNoHeaderOrEntries(t *testing.T) {
	o, header, entries, err := Open(storage.NewMemoryStorage())
	require.NoError(t, err)
	assert.Nil(t, header)
	assert.Empty(t, entries)
	assert.Equal(t, uint64(0), o.EntryRegionSize())
}

func TestAppendAndReopenReplaysEntries(t *testing.T) {
	ra := storage.NewMemoryStorage()
	o, _, _, err := Open(ra)
	require.NoError(t, err)

	e1 := Entry{TreeNodes: []TreeNode{{Index: 0, Size: 5}}}
	e2 := Entry{UserData: []byte("hi"), TreeNodes: []TreeNode{{Index: 2, Size: 3}}}
	require.NoError(t, o.Append(e1))
	require.NoError(t, o.Append(e2))

	_, header, entries, err := Open(ra)
	require.NoError(t, err)
	assert.Nil(t, header)
	require.Len(t, entries, 2)
	assert.Equal(t, e1.TreeNodes, entries[0].TreeNodes)
	assert.Equal(t, []byte("hi"), entries[1].UserData)
}

func TestCompactWritesHeaderAndTruncatesEntries(t *testing.T) {
	ra := storage.NewMemoryStorage()
	o, _, _, err := Open(ra)
	require.NoError(t, err)
	require.NoError(t, o.Append(Entry{TreeNodes: []TreeNode{{Index: 0, Size: 1}}}))

	h := HeaderSlot{Length: 1, ByteLength: 1, Fork: 0, Key: make([]byte, 32)}
	require.NoError(t, o.Compact(h))
	assert.Equal(t, uint64(0), o.EntryRegionSize())

	_, header, entries, err := Open(ra)
	require.NoError(t, err)
	require.NotNil(t, header)
	assert.Equal(t, uint64(1), header.Length)
	assert.Empty(t, entries)
}

func TestCompactAlternatesHeaderSlots(t *testing.T) {
	ra := storage.NewMemoryStorage()
	o, _, _, err := Open(ra)
	require.NoError(t, err)

	require.NoError(t, o.Compact(HeaderSlot{Length: 1, Key: make([]byte, 32)}))
	require.NoError(t, o.Compact(HeaderSlot{Length: 2, Key: make([]byte, 32)}))
	require.NoError(t, o.Compact(HeaderSlot{Length: 3, Key: make([]byte, 32)}))

	_, header, _, err := Open(ra)
	require.NoError(t, err)
	require.NotNil(t, header)
	assert.Equal(t, uint64(3), header.Length)
}

func TestOpenStopsAtTornEntry(t *testing.T) {
	ra := storage.NewMemoryStorage()
	o, _, _, err := Open(ra)
	require.NoError(t, err)
	require.NoError(t, o.Append(Entry{TreeNodes: []TreeNode{{Index: 0, Size: 1}}}))

	// Simulate a torn write: a second frame whose declared length runs
	// past what's actually on disk.
	tornHeader := make([]byte, 8)
	tornHeader[3] = 100 // declared payload length of 100 bytes, none present
	require.NoError(t, ra.Write(entryBase+o.EntryRegionSize(), tornHeader))

	_, _, entries, err := Open(ra)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestHeaderSlotRoundTripWithOptionalFields(t *testing.T) {
	h := HeaderSlot{
		Length: 7, ByteLength: 42, Fork: 2,
		Key:       make([]byte, 32),
		SecretKey: make([]byte, 64),
		Signature: make([]byte, 64),
	}
	for i := range h.Key {
		h.Key[i] = byte(i)
	}
	buf, err := encodeHeaderSlot(h)
	require.NoError(t, err)
	assert.Len(t, buf, headerSlotSize)

	decoded, err := decodeHeaderSlot(buf)
	require.NoError(t, err)
	assert.Equal(t, h.Length, decoded.Length)
	assert.Equal(t, h.Fork, decoded.Fork)
	assert.Equal(t, h.Key, decoded.Key)
	assert.Equal(t, h.SecretKey, decoded.SecretKey)
	assert.Equal(t, h.Signature, decoded.Signature)
}

func TestNewerPrefersHigherForkOverLongerLength(t *testing.T) {
	preTruncate := HeaderSlot{Length: 5, Fork: 0}
	postTruncate := HeaderSlot{Length: 3, Fork: 1}

	assert.True(t, newer(postTruncate, preTruncate))
	assert.False(t, newer(preTruncate, postTruncate))
}

func TestNewerFallsBackToLengthWithinOneFork(t *testing.T) {
	older := HeaderSlot{Length: 1, Fork: 0}
	newerSlot := HeaderSlot{Length: 2, Fork: 0}

	assert.True(t, newer(newerSlot, older))
	assert.False(t, newer(older, newerSlot))
}

func TestCompactAfterTruncateIsStillFoundOnReopen(t *testing.T) {
	ra := storage.NewMemoryStorage()
	o, _, _, err := Open(ra)
	require.NoError(t, err)

	require.NoError(t, o.Compact(HeaderSlot{Length: 5, Fork: 0, Key: make([]byte, 32)}))
	// A truncate lands a smaller length under a larger fork in the other slot.
	require.NoError(t, o.Compact(HeaderSlot{Length: 3, Fork: 1, Key: make([]byte, 32)}))

	_, header, _, err := Open(ra)
	require.NoError(t, err)
	require.NotNil(t, header)
	assert.Equal(t, uint64(3), header.Length)
	assert.Equal(t, uint64(1), header.Fork)
}

func TestDecodeHeaderSlotRejectsBadCRC(t *testing.T) {
	h := HeaderSlot{Length: 1, Key: make([]byte, 32)}
	buf, err := encodeHeaderSlot(h)
	require.NoError(t, err)
	buf[8] ^= 0xff // corrupt a payload byte without touching the length/crc prefix

	_, err = decodeHeaderSlot(buf)
	assert.Error(t, err)
}
