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

// Package storage implements the byte-addressable random-access store
// the rest of the module is built on, plus the three logical stores
// (tree, data, bitfield) that address it in flat-tree-derived terms.
//
// This is a flat offset/length abstraction, not a key/value one: the
// oplog, tree and data layouts all depend on truncating and rewriting
// arbitrary byte ranges, which a KV store's get/put/delete shape cannot
// express without losing the on-disk format this module has to match.
package storage

import "io"

// RandomAccess is the storage provider capability every logical store
// in this module is built on.
type RandomAccess interface {
	// Read returns exactly length bytes starting at offset. Any part of
	// the range that lies in a hole or past Len reads back as zero bytes,
	// matching a sparse file's semantics.
	Read(offset, length uint64) ([]byte, error)
	// Write stores data starting at offset, extending the store if
	// necessary.
	Write(offset uint64, data []byte) error
	// Del punches a hole of length bytes starting at offset; the region
	// reads back as zero afterwards. A range inside Len leaves Len
	// unchanged; FileStorage grows the file when the range runs past it.
	Del(offset, length uint64) error
	// Truncate shrinks or grows the store to exactly length bytes.
	Truncate(length uint64) error
	// Len reports the store's current logical length in bytes.
	Len() (uint64, error)
	// Flush durably persists any buffered writes.
	Flush() error
	// Close releases any resources the store holds.
	io.Closer
}
