// Package bitfield implements the two-level sparse presence index used to
// track which leaves of a merkle log are locally held. Storage is split
// into fixed-size pages so that a log with gaps (after a Clear, or before
// all blocks have been fetched) costs memory proportional to the ranges
// actually touched rather than to the log's length.
package bitfield

import (
	"math/bits"
	"sort"
)

// pageBits is the number of bits held by a single page. The RLE encoding
// in rle.go runs over the whole field, not page by page.
const pageBits = 2048

// pageBytes is pageBits/8.
const pageBytes = pageBits / 8

type page [pageBytes]byte

// Bitfield is a sparse, page-backed bit vector indexed by a uint64 leaf
// position. A page that has never been touched is implicitly all-zero and
// is not allocated.
type Bitfield struct {
	pages   map[uint64]*page
	ids     []uint64 // kept sorted ascending; lazily rebuilt
	idsOK   bool
	lastSet uint64
	hasSet  bool
}

// New returns an empty Bitfield.
func New() *Bitfield {
	return &Bitfield{pages: make(map[uint64]*page)}
}

func (b *Bitfield) pageID(i uint64) uint64 { return i / pageBits }
func (b *Bitfield) offset(i uint64) uint64 { return i % pageBits }

func (b *Bitfield) getPage(id uint64, create bool) *page {
	p, ok := b.pages[id]
	if !ok {
		if !create {
			return nil
		}
		p = &page{}
		b.pages[id] = p
		b.idsOK = false
	}
	return p
}

func (b *Bitfield) sortedIDs() []uint64 {
	if b.idsOK {
		return b.ids
	}
	ids := make([]uint64, 0, len(b.pages))
	for id := range b.pages {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	b.ids = ids
	b.idsOK = true
	return ids
}

// Get reports whether bit i is set.
func (b *Bitfield) Get(i uint64) bool {
	p := b.getPage(b.pageID(i), false)
	if p == nil {
		return false
	}
	off := b.offset(i)
	return p[off/8]&(1<<(off%8)) != 0
}

// SetRange sets bits in [start, end) to value.
func (b *Bitfield) SetRange(start, end uint64, value bool) {
	if end <= start {
		return
	}
	if value {
		if !b.hasSet || end-1 > b.lastSet {
			b.lastSet = end - 1
			b.hasSet = true
		}
	}
	i := start
	for i < end {
		id := b.pageID(i)
		pageStart := id * pageBits
		pageEnd := pageStart + pageBits
		segEnd := end
		if pageEnd < segEnd {
			segEnd = pageEnd
		}
		if !value {
			if p := b.getPage(id, false); p != nil {
				setBits(p, i-pageStart, segEnd-pageStart, false)
			}
		} else {
			p := b.getPage(id, true)
			setBits(p, i-pageStart, segEnd-pageStart, true)
		}
		i = segEnd
	}
	if !value {
		b.recomputeLastSet()
	}
}

func setBits(p *page, from, to uint64, value bool) {
	if from == 0 && to == pageBits {
		var fill byte
		if value {
			fill = 0xff
		}
		for j := range p {
			p[j] = fill
		}
		return
	}
	for bit := from; bit < to; bit++ {
		idx, mask := bit/8, byte(1<<(bit%8))
		if value {
			p[idx] |= mask
		} else {
			p[idx] &^= mask
		}
	}
}

func (b *Bitfield) recomputeLastSet() {
	ids := b.sortedIDs()
	for k := len(ids) - 1; k >= 0; k-- {
		id := ids[k]
		p := b.pages[id]
		for j := pageBytes - 1; j >= 0; j-- {
			if p[j] == 0 {
				continue
			}
			bitInByte := 7 - bits.LeadingZeros8(p[j])
			b.lastSet = id*pageBits + uint64(j)*8 + uint64(bitInByte)
			b.hasSet = true
			return
		}
	}
	b.hasSet = false
	b.lastSet = 0
}

// PageCount reports how many pages are currently allocated, for callers
// that expose it as a memory-usage gauge.
func (b *Bitfield) PageCount() int { return len(b.pages) }

// LastSet returns the highest index with a set bit, if any.
func (b *Bitfield) LastSet() (uint64, bool) {
	return b.lastSet, b.hasSet
}

// ContiguousLength returns how many consecutive set bits start at from.
func (b *Bitfield) ContiguousLength(from uint64) uint64 {
	n := uint64(0)
	for {
		id := b.pageID(from + n)
		p := b.getPage(id, false)
		if p == nil {
			return n
		}
		off := b.offset(from + n)
		for {
			byteIdx := off / 8
			if byteIdx >= pageBytes {
				break
			}
			bv := p[byteIdx]
			if off%8 == 0 && bv == 0xff {
				n += 8
				off += 8
				continue
			}
			if bv&(1<<(off%8)) == 0 {
				return n
			}
			n++
			off++
		}
	}
}

// CountRange returns the number of set bits in [start, end).
func (b *Bitfield) CountRange(start, end uint64) uint64 {
	if end <= start {
		return 0
	}
	var count uint64
	i := start
	for i < end {
		id := b.pageID(i)
		p := b.getPage(id, false)
		pageStart := id * pageBits
		pageEnd := pageStart + pageBits
		segEnd := end
		if pageEnd < segEnd {
			segEnd = pageEnd
		}
		if p != nil {
			count += countBits(p, i-pageStart, segEnd-pageStart)
		}
		i = segEnd
	}
	return count
}

func countBits(p *page, from, to uint64) uint64 {
	var count uint64
	firstByte, lastByte := from/8, (to-1)/8
	if firstByte == lastByte {
		mask := byte(0xff<<(from%8)) & byte(0xff>>(7-(to-1)%8))
		return uint64(bits.OnesCount8(p[firstByte] & mask))
	}
	// leading partial byte
	if from%8 != 0 {
		mask := byte(0xff << (from % 8))
		count += uint64(bits.OnesCount8(p[firstByte] & mask))
		firstByte++
	}
	// trailing partial byte
	trailingMask := byte(0xff)
	hasTrailing := (to % 8) != 0
	if hasTrailing {
		trailingMask = byte(0xff >> (8 - to%8))
	}
	end := lastByte
	if hasTrailing {
		end = lastByte - 1
	}
	for j := firstByte; j <= end && j < pageBytes; j++ {
		count += uint64(bits.OnesCount8(p[j]))
	}
	if hasTrailing && lastByte < pageBytes {
		count += uint64(bits.OnesCount8(p[lastByte] & trailingMask))
	}
	return count
}
