// Package codec implements the compact binary encoding shared by the
// oplog header, oplog entries, stored tree nodes and wire proofs.
// Encoding is deterministic and stable: equal logical values always
// encode to equal byte strings, which is required for on-disk
// compatibility with the reference implementation this module mirrors.
//
// The format is a small, hand-rolled LEB128-style varint plus
// length-prefixed byte string scheme, not a general-purpose serializer
// like msgpack or protobuf: the on-disk byte layout is itself part of
// this module's contract, so it cannot be delegated to a library that
// would pick its own framing.
package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/datrs/hypercore/hcerr"
)

// maxVarintLen bounds a varint to 9 bytes (63 usable bits), matching the
// reference format's compact unsigned integer encoding.
const maxVarintLen = 9

// Writer accumulates a compactly encoded byte stream.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer, optionally pre-sized.
func NewWriter(sizeHint int) *Writer {
	return &Writer{buf: make([]byte, 0, sizeHint)}
}

// Bytes returns the accumulated byte stream.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// maxVarintValue is the largest value Uvarint can round-trip through
// maxVarintLen bytes (63 usable bits); every index/length/size this
// module encodes stays far below it.
const maxVarintValue = uint64(1)<<(7*maxVarintLen) - 1

// Uvarint appends v as a LEB128-style variable-length unsigned integer:
// each byte holds 7 bits of v plus a continuation bit in the MSB. v
// must fit in maxVarintLen bytes; a caller passing a value that does
// not has a bug, since nothing this package encodes legitimately needs
// the 64th bit.
func (w *Writer) Uvarint(v uint64) {
	if v > maxVarintValue {
		panic(fmt.Sprintf("codec: uvarint value %d exceeds %d-bit limit", v, 7*maxVarintLen))
	}
	for v >= 0x80 {
		w.buf = append(w.buf, byte(v)|0x80)
		v >>= 7
	}
	w.buf = append(w.buf, byte(v))
}

// Uint32 appends v as a fixed 4-byte big-endian field.
func (w *Writer) Uint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// Uint64 appends v as a fixed 8-byte big-endian field.
func (w *Writer) Uint64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// Byte appends a single raw byte.
func (w *Writer) Byte(b byte) {
	w.buf = append(w.buf, b)
}

// Raw appends p verbatim, with no length prefix.
func (w *Writer) Raw(p []byte) {
	w.buf = append(w.buf, p...)
}

// Bytes32 appends a fixed 32-byte field, zero-padding a shorter slice
// (used for the all-zero absent-node sentinel) and truncating a longer
// one is a programming error the caller must not trigger.
func (w *Writer) Bytes32(p []byte) {
	var b [32]byte
	copy(b[:], p)
	w.buf = append(w.buf, b[:]...)
}

// VarBytes appends a varint length prefix followed by p's contents.
func (w *Writer) VarBytes(p []byte) {
	w.Uvarint(uint64(len(p)))
	w.buf = append(w.buf, p...)
}

// Reader decodes a compactly encoded byte stream, failing with a
// hcerr.MalformedEntry error on any structural problem: a length that
// exceeds the remaining bytes, a truncated varint, or a read past the
// end of the buffer.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps buf for sequential decoding.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// Done reports whether every byte has been consumed.
func (r *Reader) Done() bool { return r.pos >= len(r.buf) }

func malformed(msg string) error {
	return hcerr.New(hcerr.MalformedEntry, msg)
}

// Uvarint decodes a LEB128-style variable-length unsigned integer.
func (r *Reader) Uvarint(field string) (uint64, error) {
	var v uint64
	var shift uint
	for n := 0; ; n++ {
		if n >= maxVarintLen {
			return 0, malformed(field + ": varint too long")
		}
		if r.pos >= len(r.buf) {
			return 0, malformed(field + ": truncated varint")
		}
		b := r.buf[r.pos]
		r.pos++
		v |= uint64(b&0x7f) << shift
		if b < 0x80 {
			return v, nil
		}
		shift += 7
	}
}

// Uint32 decodes a fixed 4-byte big-endian field.
func (r *Reader) Uint32(field string) (uint32, error) {
	if r.Remaining() < 4 {
		return 0, malformed(field + ": truncated u32")
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos : r.pos+4])
	r.pos += 4
	return v, nil
}

// Uint64 decodes a fixed 8-byte big-endian field.
func (r *Reader) Uint64(field string) (uint64, error) {
	if r.Remaining() < 8 {
		return 0, malformed(field + ": truncated u64")
	}
	v := binary.BigEndian.Uint64(r.buf[r.pos : r.pos+8])
	r.pos += 8
	return v, nil
}

// Byte decodes a single raw byte.
func (r *Reader) Byte(field string) (byte, error) {
	if r.Remaining() < 1 {
		return 0, malformed(field + ": truncated byte")
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

// Raw decodes exactly n raw bytes and returns a view into the reader's
// own buffer; callers that retain the result past the next decode call
// must copy it.
func (r *Reader) Raw(field string, n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, malformed(field + ": truncated field")
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Bytes32 decodes a fixed 32-byte field.
func (r *Reader) Bytes32(field string) ([32]byte, error) {
	var out [32]byte
	b, err := r.Raw(field, 32)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

// VarBytes decodes a varint length prefix followed by that many bytes.
// maxLen bounds the accepted length to guard against a corrupt length
// field claiming an absurd allocation; pass 0 for no bound.
func (r *Reader) VarBytes(field string, maxLen int) ([]byte, error) {
	n, err := r.Uvarint(field + ".len")
	if err != nil {
		return nil, err
	}
	if maxLen > 0 && n > uint64(maxLen) {
		return nil, malformed(field + ": length exceeds bound")
	}
	if n > uint64(r.Remaining()) {
		return nil, malformed(field + ": length exceeds remaining bytes")
	}
	out := make([]byte, n)
	copy(out, r.buf[r.pos:r.pos+int(n)])
	r.pos += int(n)
	return out, nil
}

// OptionalBitmap encodes, as a single byte, which of up to 8 optional
// fields are present. Bit i (LSB-first) corresponds to the i-th field
// passed to Set/Has, matching the order fields are encoded/decoded in.
type OptionalBitmap byte

// Set returns a copy of m with bit i set if present is true.
func (m OptionalBitmap) Set(i int, present bool) OptionalBitmap {
	if present {
		return m | (1 << uint(i))
	}
	return m &^ (1 << uint(i))
}

// Has reports whether bit i is set.
func (m OptionalBitmap) Has(i int) bool {
	return m&(1<<uint(i)) != 0
}
