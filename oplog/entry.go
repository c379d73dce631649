package oplog

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/datrs/hypercore/codec"
)

// TreeNode is one (index, hash, size) triple recorded by an entry.
type TreeNode struct {
	Index uint64
	Hash  [32]byte
	Size  uint64
}

// TreeUpgrade records a tree-state advance committed by this entry.
type TreeUpgrade struct {
	Start     uint64
	Length    uint64
	Fork      uint64
	Signature []byte
}

// BitfieldPatch records a bitfield range flip committed by this entry.
type BitfieldPatch struct {
	Start  uint64
	Length uint64
	Drop   bool
}

// Entry is one committed mutation: new tree nodes plus, optionally, the
// tree-state upgrade, a bitfield patch, and opaque user data they go
// with. TreeNodes is always present (possibly empty), matching the wire
// shape's non-optional array.
type Entry struct {
	UserData    []byte
	TreeNodes   []TreeNode
	TreeUpgrade *TreeUpgrade
	Bitfield    *BitfieldPatch
}

func encodeEntry(e Entry) []byte {
	w := codec.NewWriter(128)

	var bitmap codec.OptionalBitmap
	bitmap = bitmap.Set(0, e.UserData != nil)
	bitmap = bitmap.Set(1, e.TreeUpgrade != nil)
	bitmap = bitmap.Set(2, e.Bitfield != nil)
	w.Byte(byte(bitmap))

	if bitmap.Has(0) {
		w.VarBytes(e.UserData)
	}

	w.Uvarint(uint64(len(e.TreeNodes)))
	for _, n := range e.TreeNodes {
		w.Uvarint(n.Index)
		w.Bytes32(n.Hash[:])
		w.Uvarint(n.Size)
	}

	if bitmap.Has(1) {
		u := e.TreeUpgrade
		w.Uvarint(u.Start)
		w.Uvarint(u.Length)
		w.Uvarint(u.Fork)
		w.VarBytes(u.Signature)
	}

	if bitmap.Has(2) {
		p := e.Bitfield
		w.Uvarint(p.Start)
		w.Uvarint(p.Length)
		drop := byte(0)
		if p.Drop {
			drop = 1
		}
		w.Byte(drop)
	}

	return w.Bytes()
}

func decodeEntry(payload []byte) (Entry, error) {
	var e Entry
	r := codec.NewReader(payload)

	bitmapByte, err := r.Byte("bitmap")
	if err != nil {
		return e, err
	}
	bitmap := codec.OptionalBitmap(bitmapByte)

	if bitmap.Has(0) {
		e.UserData, err = r.VarBytes("user_data", 0)
		if err != nil {
			return e, err
		}
	}

	count, err := r.Uvarint("tree_nodes.count")
	if err != nil {
		return e, err
	}
	e.TreeNodes = make([]TreeNode, 0, count)
	for i := uint64(0); i < count; i++ {
		idx, err := r.Uvarint("tree_nodes.index")
		if err != nil {
			return e, err
		}
		hash, err := r.Bytes32("tree_nodes.hash")
		if err != nil {
			return e, err
		}
		size, err := r.Uvarint("tree_nodes.size")
		if err != nil {
			return e, err
		}
		e.TreeNodes = append(e.TreeNodes, TreeNode{Index: idx, Hash: hash, Size: size})
	}

	if bitmap.Has(1) {
		start, err := r.Uvarint("upgrade.start")
		if err != nil {
			return e, err
		}
		length, err := r.Uvarint("upgrade.length")
		if err != nil {
			return e, err
		}
		fork, err := r.Uvarint("upgrade.fork")
		if err != nil {
			return e, err
		}
		sig, err := r.VarBytes("upgrade.signature", 64)
		if err != nil {
			return e, err
		}
		e.TreeUpgrade = &TreeUpgrade{Start: start, Length: length, Fork: fork, Signature: sig}
	}

	if bitmap.Has(2) {
		start, err := r.Uvarint("bitfield.start")
		if err != nil {
			return e, err
		}
		length, err := r.Uvarint("bitfield.length")
		if err != nil {
			return e, err
		}
		dropByte, err := r.Byte("bitfield.drop")
		if err != nil {
			return e, err
		}
		e.Bitfield = &BitfieldPatch{Start: start, Length: length, Drop: dropByte != 0}
	}

	return e, nil
}

// frameEntry wraps an encoded entry payload as [u32 len][u32 crc32 of
// payload][payload].
func frameEntry(payload []byte) []byte {
	frame := make([]byte, 8+len(payload))
	binary.BigEndian.PutUint32(frame[0:4], uint32(len(payload)))
	binary.BigEndian.PutUint32(frame[4:8], crc32.ChecksumIEEE(payload))
	copy(frame[8:], payload)
	return frame
}
