package oplog

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/datrs/hypercore/hcerr"
	"github.com/datrs/hypercore/storage"
)

// entryBase is the byte offset where the framed entry region begins,
// immediately after the two header slots.
const entryBase = 2 * headerSlotSize

// Oplog is a crash-consistent write-ahead log: two header slots followed
// by a stream of framed entries. It owns exactly one RandomAccess store
// for its whole on-disk layout.
type Oplog struct {
	ra        storage.RandomAccess
	writeSlot int    // which header slot the next Compact call writes to
	entryEnd  uint64 // bytes currently used in the entry region
}

// Open reads both header slots, picks the newer CRC-valid one, replays
// the entry region from scratch, and returns the decoded header (nil if
// neither slot was ever written) plus every entry successfully replayed.
// A torn trailing entry is silently dropped, matching crash-recovery
// semantics: everything after the first CRC failure never happened.
func Open(ra storage.RandomAccess) (*Oplog, *HeaderSlot, []Entry, error) {
	var slots [2]*HeaderSlot
	for i := 0; i < 2; i++ {
		raw, err := ra.Read(uint64(i)*headerSlotSize, headerSlotSize)
		if err != nil {
			return nil, nil, nil, hcerr.Wrap(hcerr.IoError, "read header slot", err)
		}
		h, err := decodeHeaderSlot(raw)
		if err == nil {
			slots[i] = &h
		}
	}

	winner := -1
	switch {
	case slots[0] != nil && slots[1] != nil:
		winner = 0
		if newer(*slots[1], *slots[0]) {
			winner = 1
		}
	case slots[0] != nil:
		winner = 0
	case slots[1] != nil:
		winner = 1
	}

	writeSlot := 0
	var current *HeaderSlot
	if winner >= 0 {
		current = slots[winner]
		writeSlot = 1 - winner
	}

	total, err := ra.Len()
	if err != nil {
		return nil, nil, nil, hcerr.Wrap(hcerr.IoError, "oplog len", err)
	}
	var regionLen uint64
	if total > entryBase {
		regionLen = total - entryBase
	}

	entries, consumed, err := replayEntries(ra, regionLen)
	if err != nil {
		return nil, nil, nil, err
	}
	// Drop any torn trailing bytes left over from a crash.
	if consumed < regionLen {
		if err := ra.Truncate(entryBase + consumed); err != nil {
			return nil, nil, nil, hcerr.Wrap(hcerr.IoError, "truncate torn entry tail", err)
		}
	}

	return &Oplog{ra: ra, writeSlot: writeSlot, entryEnd: consumed}, current, entries, nil
}

func replayEntries(ra storage.RandomAccess, regionLen uint64) ([]Entry, uint64, error) {
	var entries []Entry
	var pos uint64
	for pos+8 <= regionLen {
		frameHeader, err := ra.Read(entryBase+pos, 8)
		if err != nil {
			return nil, 0, hcerr.Wrap(hcerr.IoError, "read entry frame header", err)
		}
		payloadLen := uint64(binary.BigEndian.Uint32(frameHeader[0:4]))
		crcStored := binary.BigEndian.Uint32(frameHeader[4:8])
		if pos+8+payloadLen > regionLen {
			break // torn write: declared length runs past what's on disk
		}
		payload, err := ra.Read(entryBase+pos+8, payloadLen)
		if err != nil {
			return nil, 0, hcerr.Wrap(hcerr.IoError, "read entry payload", err)
		}
		if crc32.ChecksumIEEE(payload) != crcStored {
			break
		}
		entry, err := decodeEntry(payload)
		if err != nil {
			break
		}
		entries = append(entries, entry)
		pos += 8 + payloadLen
	}
	return entries, pos, nil
}

// Append frames e and writes it at the end of the entry region, flushing
// before returning so a crash afterward never loses an acknowledged
// commit.
func (o *Oplog) Append(e Entry) error {
	frame := frameEntry(encodeEntry(e))
	if err := o.ra.Write(entryBase+o.entryEnd, frame); err != nil {
		return hcerr.Wrap(hcerr.IoError, "append oplog entry", err)
	}
	if err := o.ra.Flush(); err != nil {
		return hcerr.Wrap(hcerr.IoError, "flush oplog entry", err)
	}
	o.entryEnd += uint64(len(frame))
	return nil
}

// EntryRegionSize reports how many bytes the entry region currently
// occupies, for the caller's compaction-threshold policy.
func (o *Oplog) EntryRegionSize() uint64 { return o.entryEnd }

// Compact rewrites the currently-inactive header slot with h (the fully
// materialized state) and truncates the entry region, since every
// mutation it recorded is now folded into h.
func (o *Oplog) Compact(h HeaderSlot) error {
	buf, err := encodeHeaderSlot(h)
	if err != nil {
		return err
	}
	offset := uint64(o.writeSlot) * headerSlotSize
	if err := o.ra.Write(offset, buf); err != nil {
		return hcerr.Wrap(hcerr.IoError, "write header slot", err)
	}
	if err := o.ra.Flush(); err != nil {
		return hcerr.Wrap(hcerr.IoError, "flush header slot", err)
	}
	if err := o.ra.Truncate(entryBase); err != nil {
		return hcerr.Wrap(hcerr.IoError, "truncate entry region", err)
	}
	o.writeSlot = 1 - o.writeSlot
	o.entryEnd = 0
	return nil
}
