package storage

import (
	"github.com/datrs/hypercore/bitfield"
	"github.com/datrs/hypercore/hcerr"
)

// BitfieldStore persists a bitfield.Bitfield as its RLE encoding,
// rewritten wholesale by Save rather than patched incrementally. The core
// calls Save at each oplog compaction; changes made since then are
// recovered from the oplog's entries on open.
type BitfieldStore struct {
	ra RandomAccess
}

// NewBitfieldStore wraps ra as a bitfield snapshot store.
func NewBitfieldStore(ra RandomAccess) *BitfieldStore {
	return &BitfieldStore{ra: ra}
}

// Load decodes the persisted bitfield, returning an empty one if the
// store has never been written to.
func (s *BitfieldStore) Load() (*bitfield.Bitfield, uint64, error) {
	length, err := s.ra.Len()
	if err != nil {
		return nil, 0, hcerr.Wrap(hcerr.IoError, "bitfield store len", err)
	}
	if length == 0 {
		return bitfield.New(), 0, nil
	}
	raw, err := s.ra.Read(0, length)
	if err != nil {
		return nil, 0, hcerr.Wrap(hcerr.IoError, "bitfield store read", err)
	}
	b, fieldLength, err := bitfield.DecodeRLE(raw)
	if err != nil {
		return nil, 0, err
	}
	return b, fieldLength, nil
}

// Save rewrites the store with b's RLE encoding over [0, fieldLength).
func (s *BitfieldStore) Save(b *bitfield.Bitfield, fieldLength uint64) error {
	encoded := bitfield.EncodeRLE(b, fieldLength)
	if err := s.ra.Truncate(0); err != nil {
		return hcerr.Wrap(hcerr.IoError, "bitfield store truncate", err)
	}
	if err := s.ra.Write(0, encoded); err != nil {
		return hcerr.Wrap(hcerr.IoError, "bitfield store write", err)
	}
	return nil
}

// Flush persists the most recent Save.
func (s *BitfieldStore) Flush() error {
	if err := s.ra.Flush(); err != nil {
		return hcerr.Wrap(hcerr.IoError, "bitfield store flush", err)
	}
	return nil
}
