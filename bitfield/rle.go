package bitfield

import (
	"github.com/datrs/hypercore/codec"
	"github.com/datrs/hypercore/hcerr"
)

// EncodeRLE serializes the bits in [0, length) as a run-length encoded
// byte string: a varint bit-length followed by varint run lengths that
// alternate starting with an unset run (a run of length zero is written
// when the field itself starts set). Decoders must tolerate any sequence
// of run lengths, including ones a minimal encoder would never produce;
// this encoder always emits the minimal run sequence for its input.
func EncodeRLE(b *Bitfield, length uint64) []byte {
	w := codec.NewWriter(64)
	w.Uvarint(length)
	if length == 0 {
		return w.Bytes()
	}

	cur := false // runs alternate starting with "unset"
	runStart := uint64(0)
	for i := uint64(0); i < length; i++ {
		v := b.Get(i)
		if v != cur {
			w.Uvarint(i - runStart)
			runStart = i
			cur = v
		}
	}
	w.Uvarint(length - runStart)
	return w.Bytes()
}

// DecodeRLE parses the output of EncodeRLE into a fresh Bitfield and
// returns the field's logical bit length.
func DecodeRLE(buf []byte) (*Bitfield, uint64, error) {
	r := codec.NewReader(buf)
	length, err := r.Uvarint("length")
	if err != nil {
		return nil, 0, err
	}
	b := New()
	if length == 0 {
		return b, 0, nil
	}

	pos := uint64(0)
	cur := false
	for pos < length {
		run, err := r.Uvarint("run")
		if err != nil {
			return nil, 0, err
		}
		if run > length-pos {
			return nil, 0, hcerr.New(hcerr.MalformedEntry, "rle run overruns declared length")
		}
		if cur {
			b.SetRange(pos, pos+run, true)
		}
		pos += run
		cur = !cur
	}
	return b, length, nil
}
