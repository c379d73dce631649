package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorageReadWrite(t *testing.T) {
	m := NewMemoryStorage()
	require.NoError(t, m.Write(10, []byte("hello")))

	got, err := m.Read(10, 5)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)

	got, err = m.Read(0, 10)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 10), got)

	length, err := m.Len()
	require.NoError(t, err)
	assert.Equal(t, uint64(15), length)
}

func TestMemoryStorageDelZeroesRange(t *testing.T) {
	m := NewMemoryStorage()
	require.NoError(t, m.Write(0, []byte("abcdef")))
	require.NoError(t, m.Del(2, 2))

	got, err := m.Read(0, 6)
	require.NoError(t, err)
	assert.Equal(t, []byte{'a', 'b', 0, 0, 'e', 'f'}, got)

	length, err := m.Len()
	require.NoError(t, err)
	assert.Equal(t, uint64(6), length)
}

func TestMemoryStorageTruncate(t *testing.T) {
	m := NewMemoryStorage()
	require.NoError(t, m.Write(0, []byte("abcdef")))
	require.NoError(t, m.Truncate(3))

	length, err := m.Len()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), length)

	require.NoError(t, m.Truncate(6))
	got, err := m.Read(3, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0}, got)
}

func TestFileStorageReadWriteTruncate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data")
	fs, err := OpenFileStorage(path)
	require.NoError(t, err)
	defer fs.Close()

	require.NoError(t, fs.Write(0, []byte("hypercore")))
	require.NoError(t, fs.Flush())

	got, err := fs.Read(0, 9)
	require.NoError(t, err)
	assert.Equal(t, []byte("hypercore"), got)

	got, err = fs.Read(20, 5)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 5), got)

	require.NoError(t, fs.Truncate(4))
	length, err := fs.Len()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), length)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(4), info.Size())
}
