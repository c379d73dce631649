// Package oplog implements the dual-slot, CRC-protected write-ahead log
// that records every mutation to a core's tree/bitfield/user-data state
// with crash consistency: a header pair for the fully-materialized
// state, and a framed entry stream for everything appended since the
// last compaction.
package oplog

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/datrs/hypercore/codec"
	"github.com/datrs/hypercore/hcerr"
)

// headerSlotSize is the fixed, padded width of one header slot.
const headerSlotSize = 4096

// HeaderSlot is the fully-materialized state written to one of the two
// header slots.
type HeaderSlot struct {
	Length         uint64
	ByteLength     uint64
	Fork           uint64
	Key            []byte // 32-byte Ed25519 public key
	SecretKey      []byte // optional, 64 bytes; absent for a read-only core
	Signature      []byte // optional, 64 bytes; absent for an empty log
	TreeHash       [32]byte
	BitfieldDigest [32]byte
}

func encodeHeaderPayload(h HeaderSlot) []byte {
	w := codec.NewWriter(256)
	w.Uvarint(h.Length)
	w.Uvarint(h.ByteLength)
	w.Uvarint(h.Fork)
	w.Bytes32(h.Key)

	var bitmap codec.OptionalBitmap
	bitmap = bitmap.Set(0, len(h.SecretKey) > 0)
	bitmap = bitmap.Set(1, len(h.Signature) > 0)
	w.Byte(byte(bitmap))

	if bitmap.Has(0) {
		w.Raw(pad(h.SecretKey, 64))
	}
	if bitmap.Has(1) {
		w.Raw(pad(h.Signature, 64))
	}
	w.Bytes32(h.TreeHash[:])
	w.Bytes32(h.BitfieldDigest[:])
	return w.Bytes()
}

func pad(b []byte, n int) []byte {
	out := make([]byte, n)
	copy(out, b)
	return out
}

func decodeHeaderPayload(payload []byte) (HeaderSlot, error) {
	var h HeaderSlot
	r := codec.NewReader(payload)

	length, err := r.Uvarint("length")
	if err != nil {
		return h, err
	}
	byteLength, err := r.Uvarint("byte_length")
	if err != nil {
		return h, err
	}
	fork, err := r.Uvarint("fork")
	if err != nil {
		return h, err
	}
	key, err := r.Bytes32("key")
	if err != nil {
		return h, err
	}
	bitmapByte, err := r.Byte("bitmap")
	if err != nil {
		return h, err
	}
	bitmap := codec.OptionalBitmap(bitmapByte)

	var secretKey, signature []byte
	if bitmap.Has(0) {
		secretKey, err = r.Raw("secret_key", 64)
		if err != nil {
			return h, err
		}
	}
	if bitmap.Has(1) {
		signature, err = r.Raw("signature", 64)
		if err != nil {
			return h, err
		}
	}
	treeHash, err := r.Bytes32("tree_hash")
	if err != nil {
		return h, err
	}
	bitfieldDigest, err := r.Bytes32("bitfield_digest")
	if err != nil {
		return h, err
	}

	h = HeaderSlot{
		Length: length, ByteLength: byteLength, Fork: fork,
		Key: append([]byte{}, key[:]...),
	}
	if len(secretKey) > 0 {
		h.SecretKey = append([]byte{}, secretKey...)
	}
	if len(signature) > 0 {
		h.Signature = append([]byte{}, signature...)
	}
	h.TreeHash = treeHash
	h.BitfieldDigest = bitfieldDigest
	return h, nil
}

// encodeHeaderSlot frames a header payload as [u32 len][u32 crc32]
// [payload], zero-padded to headerSlotSize.
func encodeHeaderSlot(h HeaderSlot) ([]byte, error) {
	payload := encodeHeaderPayload(h)
	if len(payload)+8 > headerSlotSize {
		return nil, hcerr.New(hcerr.MalformedEntry, "header payload exceeds slot size")
	}
	buf := make([]byte, headerSlotSize)
	binary.BigEndian.PutUint32(buf[0:4], uint32(len(payload)))
	binary.BigEndian.PutUint32(buf[4:8], crc32.ChecksumIEEE(payload))
	copy(buf[8:], payload)
	return buf, nil
}

// decodeHeaderSlot validates the slot's CRC and decodes its payload. A
// CRC or structural failure is reported as MalformedEntry so the caller
// can fall back to the other slot rather than treating it as fatal.
func decodeHeaderSlot(buf []byte) (HeaderSlot, error) {
	var h HeaderSlot
	if len(buf) < 8 {
		return h, hcerr.New(hcerr.MalformedEntry, "header slot truncated")
	}
	payloadLen := binary.BigEndian.Uint32(buf[0:4])
	crcStored := binary.BigEndian.Uint32(buf[4:8])
	if uint64(8)+uint64(payloadLen) > uint64(len(buf)) {
		return h, hcerr.New(hcerr.MalformedEntry, "header slot payload length overruns slot")
	}
	payload := buf[8 : 8+payloadLen]
	if crc32.ChecksumIEEE(payload) != crcStored {
		return h, hcerr.New(hcerr.MalformedEntry, "header slot crc mismatch")
	}
	return decodeHeaderPayload(payload)
}

// newer reports whether a is a newer header than b, by (fork, length).
// fork is compared first: it only ever increases, and a truncate lands
// a smaller Length under a larger Fork, which a length-first comparison
// would mistake for the older slot.
func newer(a, b HeaderSlot) bool {
	if a.Fork != b.Fork {
		return a.Fork > b.Fork
	}
	return a.Length > b.Length
}
