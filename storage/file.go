package storage

import (
	"errors"
	"io"
	"os"
)

// FileStorage is a RandomAccess store backed by a single os.File. Unused
// regions left by Del or by a Write past the current end read back as
// zero, the same hole semantics a sparse file gives for free on
// filesystems that support it; this implementation does not request
// sparseness explicitly, since that is a platform-specific fallocate
// call with no portable wrapper among this module's dependencies.
type FileStorage struct {
	f *os.File
}

// OpenFileStorage opens (creating if necessary) the file at path for
// random-access reads and writes.
func OpenFileStorage(path string) (*FileStorage, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, err
	}
	return &FileStorage{f: f}, nil
}

func (fs *FileStorage) Read(offset, length uint64) ([]byte, error) {
	out := make([]byte, length)
	_, err := fs.f.ReadAt(out, int64(offset))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return out, nil
}

func (fs *FileStorage) Write(offset uint64, data []byte) error {
	_, err := fs.f.WriteAt(data, int64(offset))
	return err
}

func (fs *FileStorage) Del(offset, length uint64) error {
	zeros := make([]byte, length)
	_, err := fs.f.WriteAt(zeros, int64(offset))
	return err
}

func (fs *FileStorage) Truncate(length uint64) error {
	return fs.f.Truncate(int64(length))
}

func (fs *FileStorage) Len() (uint64, error) {
	info, err := fs.f.Stat()
	if err != nil {
		return 0, err
	}
	return uint64(info.Size()), nil
}

func (fs *FileStorage) Flush() error {
	return fs.f.Sync()
}

func (fs *FileStorage) Close() error {
	return fs.f.Close()
}
