/*
   Copyright 2024 The Hypercore Authors

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package hypercore

import (
	"io"

	"github.com/hashicorp/go-msgpack/codec"
	"github.com/klauspost/compress/zstd"

	"github.com/datrs/hypercore/hcerr"
	"github.com/datrs/hypercore/storage"
)

// backupVersion guards envelope compatibility; bumped whenever the
// envelope's field set changes.
const backupVersion = 1

// backupEnvelope is the msgpack-encoded header a Backup stream opens
// with: enough metadata to verify and size what follows, never the
// on-disk oplog/tree/data bytes themselves, which stream afterward
// byte-for-byte so Restore can write them straight back into fresh
// stores without reinterpreting the module's own wire formats.
type backupEnvelope struct {
	Version        uint32
	PublicKey      []byte
	Length         uint64
	ByteLength     uint64
	Fork           uint64
	Signature      []byte
	TreeHash       [32]byte
	BitfieldDigest [32]byte
	Compressed     bool
	OplogLen       uint64
	TreeLen        uint64
	DataLen        uint64
	BitfieldLen    uint64
}

// Backup writes a consistent snapshot of the core to w: a msgpack
// envelope describing the core's identity and current state, followed
// by the full contents of the oplog, tree, data and bitfield stores in
// that order. It forces a compaction first so the snapshot opens from a
// single materialized header rather than a header-plus-entries tail.
//
// When compress is true each of the four store sections (not the
// envelope itself) is wrapped in its own zstd stream, trading CPU for a
// smaller backup.
func (c *Core) Backup(w io.Writer, compress bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return hcerr.New(hcerr.Closed, "core is closed")
	}
	if err := c.compactLocked(); err != nil {
		return err
	}

	oplog, tree, data, bitfield, err := readStoreSections(c.storages)
	if err != nil {
		return err
	}
	if compress {
		for _, section := range []*[]byte{&oplog, &tree, &data, &bitfield} {
			*section, err = zstdCompress(*section)
			if err != nil {
				return err
			}
		}
	}

	state := c.tree.State()
	env := backupEnvelope{
		Version:        backupVersion,
		PublicKey:      c.keys.Public(),
		Length:         state.Length,
		ByteLength:     state.ByteLength,
		Fork:           state.Fork,
		Signature:      state.Signature,
		TreeHash:       rootHashOf(state.Roots),
		BitfieldDigest: bitfieldDigest(c.treeIndex.Leaves(), state.Length),
		Compressed:     compress,
		OplogLen:       uint64(len(oplog)),
		TreeLen:        uint64(len(tree)),
		DataLen:        uint64(len(data)),
		BitfieldLen:    uint64(len(bitfield)),
	}

	hd := codec.MsgpackHandle{}
	enc := codec.NewEncoder(w, &hd)
	if err := enc.Encode(&env); err != nil {
		return hcerr.Wrap(hcerr.IoError, "encode backup envelope", err)
	}
	for _, section := range [][]byte{oplog, tree, data, bitfield} {
		if _, err := w.Write(section); err != nil {
			return hcerr.Wrap(hcerr.IoError, "write backup section", err)
		}
	}
	return nil
}

func readStoreSections(s Storages) (oplog, tree, data, bitfield []byte, err error) {
	read := func(ra storage.RandomAccess) ([]byte, error) {
		n, err := ra.Len()
		if err != nil {
			return nil, hcerr.Wrap(hcerr.IoError, "backup store len", err)
		}
		if n == 0 {
			return nil, nil
		}
		b, err := ra.Read(0, n)
		if err != nil {
			return nil, hcerr.Wrap(hcerr.IoError, "backup store read", err)
		}
		return b, nil
	}
	if oplog, err = read(s.Oplog); err != nil {
		return
	}
	if tree, err = read(s.Tree); err != nil {
		return
	}
	if data, err = read(s.Data); err != nil {
		return
	}
	bitfield, err = read(s.Bitfield)
	return
}

func zstdCompress(b []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, hcerr.Wrap(hcerr.Unknown, "init zstd encoder", err)
	}
	defer enc.Close()
	return enc.EncodeAll(b, make([]byte, 0, len(b))), nil
}

func zstdDecompress(b []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, hcerr.Wrap(hcerr.Unknown, "init zstd decoder", err)
	}
	defer dec.Close()
	out, err := dec.DecodeAll(b, nil)
	if err != nil {
		return nil, hcerr.Wrap(hcerr.Unknown, "zstd decompress backup section", err)
	}
	return out, nil
}

// Restore rebuilds a core's backing stores from a Backup stream.
// storages must be empty (freshly opened, zero-length) stores; Restore
// itself returns no Core. Callers reopen with Open/OpenDir afterward,
// the same way a freshly-copied directory would be opened.
func Restore(r io.Reader, storages Storages) error {
	hd := codec.MsgpackHandle{}
	dec := codec.NewDecoder(r, &hd)
	var env backupEnvelope
	if err := dec.Decode(&env); err != nil {
		return hcerr.Wrap(hcerr.MalformedEntry, "decode backup envelope", err)
	}
	if env.Version != backupVersion {
		return hcerr.New(hcerr.MalformedEntry, "unsupported backup envelope version")
	}

	sections := []struct {
		ra  storage.RandomAccess
		len uint64
	}{
		{storages.Oplog, env.OplogLen},
		{storages.Tree, env.TreeLen},
		{storages.Data, env.DataLen},
		{storages.Bitfield, env.BitfieldLen},
	}
	for _, s := range sections {
		if s.len == 0 {
			continue
		}
		buf := make([]byte, s.len)
		if _, err := io.ReadFull(r, buf); err != nil {
			return hcerr.Wrap(hcerr.IoError, "read backup section", err)
		}
		if env.Compressed {
			var err error
			buf, err = zstdDecompress(buf)
			if err != nil {
				return err
			}
		}
		if err := s.ra.Write(0, buf); err != nil {
			return hcerr.Wrap(hcerr.IoError, "restore write section", err)
		}
	}
	return nil
}
