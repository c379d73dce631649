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

// Package hashing implements the domain-separated BLAKE2b-256 hashing
// used to derive leaf, parent and root hashes, plus the log's discovery
// key. Every hash below is prefixed with a single domain byte so that a
// leaf hash can never collide with a parent hash of the same underlying
// bytes.
package hashing

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Size is the length in bytes of every hash produced by this package.
const Size = 32

// Domain is a one-byte prefix that separates hash namespaces.
type Domain byte

const (
	// DomainLeaf prefixes the hash of a leaf's size and data.
	DomainLeaf Domain = 0x00
	// DomainParent prefixes the hash combining two child hashes.
	DomainParent Domain = 0x01
	// DomainRoot prefixes the hash of a log's full-roots list.
	DomainRoot Domain = 0x02
	// DomainTree is reserved for a distinct signed-tree-hash domain.
	// The signature currently covers the DomainRoot hash of the
	// full-roots list directly (merkletree.Tree.TreeHash), matching
	// how the hash that gets signed is derived upstream; nothing
	// computes a DomainTree-prefixed hash today.
	DomainTree Domain = 0x03
)

// discoveryKeyLabel is hashed, keyed by the log's public key, to derive
// its discovery key.
var discoveryKeyLabel = []byte("hypercore")

// Digest is a 32-byte BLAKE2b-256 hash.
type Digest [Size]byte

// Bytes returns d as a byte slice.
func (d Digest) Bytes() []byte { return d[:] }

// IsZero reports whether d is the all-zero sentinel used to mark an
// absent tree node slot on disk.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

func newDomainHash(domain Domain) *blake2bHash {
	h, err := blake2b.New256(nil)
	if err != nil {
		// blake2b.New256 only fails for an oversized key, and we pass none.
		panic(fmt.Sprintf("hashing: unexpected blake2b init error: %v", err))
	}
	h.Write([]byte{byte(domain)})
	return &blake2bHash{h}
}

type blake2bHash struct {
	h interface {
		Write([]byte) (int, error)
		Sum([]byte) []byte
	}
}

func (b *blake2bHash) Write(p []byte) { b.h.Write(p) }

func (b *blake2bHash) Digest() Digest {
	return toDigest(b.h.Sum(nil))
}

// Leaf computes the leaf hash of a block: H(LEAF || size:u64-be || data).
func Leaf(data []byte) Digest {
	h := newDomainHash(DomainLeaf)
	var sizeBuf [8]byte
	binary.BigEndian.PutUint64(sizeBuf[:], uint64(len(data)))
	h.Write(sizeBuf[:])
	h.Write(data)
	return h.Digest()
}

// NodeInput describes the (hash, size) pair of one child used to compute
// a parent hash.
type NodeInput struct {
	Hash Digest
	Size uint64
}

// Parent computes the parent hash of two adjacent subtrees:
// H(PARENT || (left.size+right.size):u64-be || left.hash || right.hash).
func Parent(left, right NodeInput) Digest {
	h := newDomainHash(DomainParent)
	var sizeBuf [8]byte
	binary.BigEndian.PutUint64(sizeBuf[:], left.Size+right.Size)
	h.Write(sizeBuf[:])
	h.Write(left.Hash[:])
	h.Write(right.Hash[:])
	return h.Digest()
}

// RootInput describes one full-root entry contributing to the tree hash.
type RootInput struct {
	Hash  Digest
	Index uint64
	Size  uint64
}

// Root computes the hash of an ordered list of full roots:
// H(ROOT || (hash, index:u64-be, size:u64-be)*).
func Root(roots []RootInput) Digest {
	h := newDomainHash(DomainRoot)
	var buf [16]byte
	for _, r := range roots {
		h.Write(r.Hash[:])
		binary.BigEndian.PutUint64(buf[0:8], r.Index)
		binary.BigEndian.PutUint64(buf[8:16], r.Size)
		h.Write(buf[:])
	}
	return h.Digest()
}

// DiscoveryKey derives the public, non-secret identifier of a log from
// its public key: a BLAKE2b-256 hash of the literal string "hypercore"
// keyed by the public key.
func DiscoveryKey(publicKey []byte) (Digest, error) {
	h, err := blake2b.New256(publicKey)
	if err != nil {
		return Digest{}, fmt.Errorf("hashing: discovery key: %w", err)
	}
	h.Write(discoveryKeyLabel)
	return toDigest(h.Sum(nil)), nil
}

func toDigest(b []byte) Digest {
	var d Digest
	copy(d[:], b)
	return d
}
