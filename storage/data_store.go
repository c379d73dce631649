package storage

import "github.com/datrs/hypercore/hcerr"

// DataStore holds block payloads concatenated in append order. Offsets
// are supplied by the caller (derived from the tree via
// merkletree.Tree.ByteOffset), not computed here: this store only knows
// about bytes, not about the tree shape that addresses them.
type DataStore struct {
	ra RandomAccess
}

// NewDataStore wraps ra as a block payload store.
func NewDataStore(ra RandomAccess) *DataStore {
	return &DataStore{ra: ra}
}

// ReadBlock reads length bytes starting at offset.
func (s *DataStore) ReadBlock(offset, length uint64) ([]byte, error) {
	b, err := s.ra.Read(offset, length)
	if err != nil {
		return nil, hcerr.Wrap(hcerr.IoError, "data store read", err)
	}
	return b, nil
}

// WriteBlock writes data starting at offset.
func (s *DataStore) WriteBlock(offset uint64, data []byte) error {
	if err := s.ra.Write(offset, data); err != nil {
		return hcerr.Wrap(hcerr.IoError, "data store write", err)
	}
	return nil
}

// ClearBlock punches a hole over a block's byte range without shifting
// any other block, matching clear's "bitfield + data region only" rule.
func (s *DataStore) ClearBlock(offset, length uint64) error {
	if err := s.ra.Del(offset, length); err != nil {
		return hcerr.Wrap(hcerr.IoError, "data store clear", err)
	}
	return nil
}

// Flush persists any buffered block writes.
func (s *DataStore) Flush() error {
	if err := s.ra.Flush(); err != nil {
		return hcerr.Wrap(hcerr.IoError, "data store flush", err)
	}
	return nil
}
