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
	"path/filepath"
	"sync"

	"github.com/datrs/hypercore/bitfield"
	"github.com/datrs/hypercore/crypto/hashing"
	"github.com/datrs/hypercore/crypto/sign"
	"github.com/datrs/hypercore/flattree"
	"github.com/datrs/hypercore/hcerr"
	"github.com/datrs/hypercore/log"
	"github.com/datrs/hypercore/merkletree"
	"github.com/datrs/hypercore/metrics"
	"github.com/datrs/hypercore/oplog"
	"github.com/datrs/hypercore/storage"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/blake2b"
)

// Core is one append-only log: a Merkle tree engine, a presence bitfield
// and a crash-consistent oplog, all addressing a shared set of
// byte-addressable stores. Every exported method acquires mu, so
// tree/bitfield/oplog state always advances together.
type Core struct {
	mu sync.Mutex

	keys *sign.KeyPair

	tree      *merkletree.Tree
	provider  merkletree.NodeProvider
	cache     *cachedNodeProvider // nil when caching is disabled
	treeStore *storage.TreeStore
	dataStore *storage.DataStore

	bitStore  *storage.BitfieldStore
	treeIndex *bitfield.TreeIndex

	log *oplog.Oplog

	storages Storages
	cfg      Config
	logger   log.Logger

	closed bool
}

// AppendResult is the {length, byte_length} pair an Append returns.
type AppendResult struct {
	Length     uint64
	ByteLength uint64
}

// Info is a snapshot of a core's current length, byte length, fork and
// local contiguity.
type Info struct {
	Length           uint64
	ByteLength       uint64
	ContiguousLength uint64
	Fork             uint64
	Padding          uint64
}

// OpenDir opens (creating if necessary) the four named files oplog,
// tree, data and bitfield under dir as a Core's backing stores.
func OpenDir(dir string, keyPair *sign.KeyPair, cfg Config) (*Core, error) {
	names := map[string]*storage.FileStorage{}
	for _, name := range []string{"oplog", "tree", "data", "bitfield"} {
		fs, err := storage.OpenFileStorage(filepath.Join(dir, name))
		if err != nil {
			return nil, hcerr.Wrap(hcerr.IoError, "open "+name+" store", err)
		}
		names[name] = fs
	}
	return Open(Storages{
		Oplog:    names["oplog"],
		Tree:     names["tree"],
		Data:     names["data"],
		Bitfield: names["bitfield"],
	}, keyPair, cfg)
}

// Open assembles a Core over storages, replaying the oplog's entry
// region and reconciling it with the header slot that survived the
// crash, if any. keyPair may be nil only when reopening an existing
// core (its public key is read back from the header); opening a never-
// before-seen core requires a keyPair.
func Open(storages Storages, keyPair *sign.KeyPair, cfg Config) (*Core, error) {
	lg := cfg.logger()
	metrics.Register(cfg.registerer())

	ol, header, entries, err := oplog.Open(storages.Oplog)
	if err != nil {
		return nil, err
	}

	if header == nil && keyPair == nil {
		return nil, hcerr.New(hcerr.PermissionDenied, "open requires a keypair for a never-before-seen core")
	}
	if header != nil && keyPair == nil {
		keyPair = sign.NewKeyPair(header.Key, header.SecretKey)
	}

	treeStore := storage.NewTreeStore(storages.Tree)
	var provider merkletree.NodeProvider = treeStore
	cached := newCachedNodeProvider(provider, cfg.cacheCapacity())
	cacheHandle, _ := cached.(*cachedNodeProvider)

	dataStore := storage.NewDataStore(storages.Data)
	bitStore := storage.NewBitfieldStore(storages.Bitfield)

	leaves, _, err := bitStore.Load()
	if err != nil {
		return nil, err
	}
	treeIndex := bitfield.NewTreeIndex(leaves)

	var length, fork uint64
	var signature []byte
	if header != nil {
		length, fork, signature = header.Length, header.Fork, header.Signature
	}

	for _, e := range entries {
		for _, n := range e.TreeNodes {
			if err := cached.PutNode(merkletree.Node{Index: n.Index, Hash: n.Hash, Size: n.Size}); err != nil {
				return nil, err
			}
		}
		if e.Bitfield != nil {
			treeIndex.Leaves().SetRange(e.Bitfield.Start, e.Bitfield.Start+e.Bitfield.Length, !e.Bitfield.Drop)
		}
		if e.TreeUpgrade != nil {
			length = e.TreeUpgrade.Start + e.TreeUpgrade.Length
			fork = e.TreeUpgrade.Fork
			signature = e.TreeUpgrade.Signature
			lg.Debugf("replayed tree upgrade: length=%d fork=%d", length, fork)
		}
	}
	if len(entries) > 0 {
		lg.Infof("replayed %d oplog entries", len(entries))
	}

	rootIdxs := flattree.FullRoots(length)
	roots := make([]merkletree.Root, 0, len(rootIdxs))
	var byteLength uint64
	for _, idx := range rootIdxs {
		n, ok, err := cached.GetNode(idx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, hcerr.New(hcerr.MissingNode, "root node missing after oplog replay")
		}
		roots = append(roots, n)
		byteLength += n.Size
	}

	if header != nil && len(entries) == 0 {
		got := rootHashOf(roots)
		headerHash := hashing.Digest(header.TreeHash)
		if !headerHash.IsZero() && got != headerHash {
			lg.Warnf("tree hash mismatch on open: header=%x computed=%x", header.TreeHash, got)
		}
	}

	state := merkletree.State{Length: length, ByteLength: byteLength, Fork: fork, Roots: roots, Signature: signature}
	tree := merkletree.NewTree(cached, keyPair, state)

	return &Core{
		keys: keyPair, tree: tree, provider: cached, cache: cacheHandle,
		treeStore: treeStore, dataStore: dataStore,
		bitStore: bitStore, treeIndex: treeIndex,
		log: ol, storages: storages, cfg: cfg, logger: lg,
	}, nil
}

// bitfieldDigest hashes a bitfield's RLE encoding as a plain corruption
// check for the header slot, deliberately outside the domain-separated
// LEAF/PARENT/ROOT hash chain in crypto/hashing: presence bits are not
// part of what gets authenticated by the log's signature.
func bitfieldDigest(b *bitfield.Bitfield, fieldLength uint64) [32]byte {
	return blake2b.Sum256(bitfield.EncodeRLE(b, fieldLength))
}

func rootHashOf(roots []merkletree.Root) hashing.Digest {
	inputs := make([]hashing.RootInput, len(roots))
	for i, r := range roots {
		inputs[i] = hashing.RootInput{Hash: r.Hash, Index: r.Index, Size: r.Size}
	}
	return hashing.Root(inputs)
}

// PublicKey returns the log's identity.
func (c *Core) PublicKey() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.keys.Public()
}

// DiscoveryKey derives the core's public, non-secret discovery key.
func (c *Core) DiscoveryKey() (hashing.Digest, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, err := hashing.DiscoveryKey(c.keys.Public())
	if err != nil {
		return hashing.Digest{}, hcerr.Wrap(hcerr.Unknown, "derive discovery key", err)
	}
	return d, nil
}

// Info returns a snapshot of the core's current state.
func (c *Core) Info() (Info, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return Info{}, hcerr.New(hcerr.Closed, "core is closed")
	}
	state := c.tree.State()
	return Info{
		Length:           state.Length,
		ByteLength:       state.ByteLength,
		ContiguousLength: c.treeIndex.Leaves().ContiguousLength(0),
		Fork:             state.Fork,
		Padding:          c.cfg.Padding,
	}, nil
}

// Append builds a changeset for blocks, flushes their bytes to the data
// store, then writes through the oplog and commits, in that order, so a
// crash mid-append never leaves the oplog recording a block as present
// before its bytes are durable.
func (c *Core) Append(blocks [][]byte) (AppendResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return AppendResult{}, hcerr.New(hcerr.Closed, "core is closed")
	}
	if len(blocks) == 0 {
		state := c.tree.State()
		return AppendResult{Length: state.Length, ByteLength: state.ByteLength}, nil
	}

	start := c.tree.State().Length
	startOffset := c.tree.State().ByteLength

	cs, err := c.tree.Append(blocks)
	if err != nil {
		return AppendResult{}, err
	}

	// Block bytes must be durable before the oplog entry that marks them
	// present is written, or a crash in between would leave the oplog
	// claiming a block is on disk when it never was.
	offset := startOffset
	for _, block := range blocks {
		if err := c.dataStore.WriteBlock(offset, block); err != nil {
			return AppendResult{}, err
		}
		offset += uint64(len(block))
	}
	if err := c.dataStore.Flush(); err != nil {
		return AppendResult{}, err
	}

	entry := oplog.Entry{
		TreeNodes:   toOplogNodes(cs.NewNodes),
		TreeUpgrade: &oplog.TreeUpgrade{Start: cs.Upgrade.Start, Length: cs.Upgrade.Length, Fork: cs.Upgrade.Fork, Signature: cs.Upgrade.Signature},
		Bitfield:    &oplog.BitfieldPatch{Start: start, Length: uint64(len(blocks)), Drop: false},
	}
	if err := c.log.Append(entry); err != nil {
		return AppendResult{}, err
	}

	if err := c.tree.Commit(cs); err != nil {
		return AppendResult{}, err
	}

	c.treeIndex.Leaves().SetRange(start, start+uint64(len(blocks)), true)

	metrics.HypercoreAppendTotal.Inc()
	var total float64
	for _, b := range blocks {
		total += float64(len(b))
	}
	metrics.HypercoreAppendBytesTotal.Add(total)
	metrics.HypercoreBitfieldPages.Set(float64(c.treeIndex.Leaves().PageCount()))

	if err := c.maybeCompact(); err != nil {
		return AppendResult{}, err
	}

	state := c.tree.State()
	return AppendResult{Length: state.Length, ByteLength: state.ByteLength}, nil
}

func toOplogNodes(nodes []merkletree.Node) []oplog.TreeNode {
	out := make([]oplog.TreeNode, len(nodes))
	for i, n := range nodes {
		out[i] = oplog.TreeNode{Index: n.Index, Hash: n.Hash, Size: n.Size}
	}
	return out
}

// Get returns block index's bytes, or ok=false if it is not locally
// present. A present-but-unreadable block (e.g. a store I/O failure)
// returns a non-nil error instead. There is no wait-for-replication
// option: with no peer replication in this engine, a block request
// that blocks until the block arrives from a peer has no one to wait
// on, so Get always takes the non-blocking path.
func (c *Core) Get(index uint64) (value []byte, ok bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	timer := prometheus.NewTimer(metrics.HypercoreGetDurationSeconds)
	defer timer.ObserveDuration()

	if c.closed {
		return nil, false, hcerr.New(hcerr.Closed, "core is closed")
	}
	state := c.tree.State()
	if index >= state.Length {
		return nil, false, nil
	}
	if !c.treeIndex.Leaves().Get(index) {
		return nil, false, nil
	}

	leaf, ok, err := c.provider.GetNode(2 * index)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	offset, err := c.tree.ByteOffset(index)
	if err != nil {
		return nil, false, err
	}
	data, err := c.dataStore.ReadBlock(offset, leaf.Size)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// AuditReport is the result of a whole-log integrity scan: how many
// locally present blocks still hash to what the tree already expects
// of them, and how many do not.
type AuditReport struct {
	ValidBlocks   uint64
	InvalidBlocks uint64
}

// Audit walks every locally present block, recomputes its leaf hash and
// compares it against the stored tree node. A mismatch is recorded as
// invalid and the block is cleared, the same way Clear would drop it,
// so a corrupted block is never served as if it were still present.
func (c *Core) Audit() (AuditReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return AuditReport{}, hcerr.New(hcerr.Closed, "core is closed")
	}

	state := c.tree.State()
	var report AuditReport
	for i := uint64(0); i < state.Length; i++ {
		if !c.treeIndex.Leaves().Get(i) {
			continue
		}
		leaf, ok, err := c.provider.GetNode(2 * i)
		if err != nil {
			return AuditReport{}, err
		}
		if !ok {
			continue
		}
		offset, err := c.tree.ByteOffset(i)
		if err != nil {
			return AuditReport{}, err
		}
		data, err := c.dataStore.ReadBlock(offset, leaf.Size)
		if err != nil {
			return AuditReport{}, err
		}
		if hashing.Leaf(data) == leaf.Hash {
			report.ValidBlocks++
			continue
		}

		report.InvalidBlocks++
		if err := c.dataStore.ClearBlock(offset, leaf.Size); err != nil {
			return AuditReport{}, err
		}
		entry := oplog.Entry{Bitfield: &oplog.BitfieldPatch{Start: i, Length: 1, Drop: true}}
		if err := c.log.Append(entry); err != nil {
			return AuditReport{}, err
		}
		c.treeIndex.Leaves().SetRange(i, i+1, false)
	}

	if report.InvalidBlocks > 0 {
		metrics.HypercoreBitfieldPages.Set(float64(c.treeIndex.Leaves().PageCount()))
		if err := c.maybeCompact(); err != nil {
			return report, err
		}
	}
	return report, nil
}

// Clear drops [start, end) from the presence bitfield and zeroes the
// underlying data bytes, without touching tree structure: it is a
// local-storage reclaim, not a truncate.
func (c *Core) Clear(start uint64, end uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return hcerr.New(hcerr.Closed, "core is closed")
	}
	if end <= start {
		return nil
	}
	state := c.tree.State()
	if end > state.Length {
		end = state.Length
	}
	if end <= start {
		return nil
	}

	for i := start; i < end; i++ {
		leaf, ok, err := c.provider.GetNode(2 * i)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		offset, err := c.tree.ByteOffset(i)
		if err != nil {
			return err
		}
		if err := c.dataStore.ClearBlock(offset, leaf.Size); err != nil {
			return err
		}
	}

	entry := oplog.Entry{Bitfield: &oplog.BitfieldPatch{Start: start, Length: end - start, Drop: true}}
	if err := c.log.Append(entry); err != nil {
		return err
	}
	c.treeIndex.Leaves().SetRange(start, end, false)
	metrics.HypercoreBitfieldPages.Set(float64(c.treeIndex.Leaves().PageCount()))

	return c.maybeCompact()
}

// Truncate drops the tree above newLength, bumps the fork, clears the
// presence bitfield above newLength and invalidates any cached nodes
// that belonged to the discarded fork.
func (c *Core) Truncate(newLength uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return hcerr.New(hcerr.Closed, "core is closed")
	}

	oldLength := c.tree.State().Length
	if err := c.tree.Truncate(newLength); err != nil {
		return err
	}
	state := c.tree.State()

	entry := oplog.Entry{
		TreeUpgrade: &oplog.TreeUpgrade{Start: 0, Length: state.Length, Fork: state.Fork, Signature: state.Signature},
		Bitfield:    &oplog.BitfieldPatch{Start: newLength, Length: oldLength - newLength, Drop: true},
	}
	if oldLength <= newLength {
		entry.Bitfield = nil
	}
	if err := c.log.Append(entry); err != nil {
		return err
	}

	if err := c.treeStore.TruncateAfter(2 * newLength); err != nil {
		return err
	}
	if c.cache != nil {
		c.cache.invalidateFrom(2 * newLength)
	}
	if oldLength > newLength {
		c.treeIndex.Leaves().SetRange(newLength, oldLength, false)
	}
	metrics.HypercoreTruncateTotal.Inc()
	metrics.HypercoreBitfieldPages.Set(float64(c.treeIndex.Leaves().PageCount()))
	c.logger.Debugf("truncated to length=%d fork=%d", state.Length, state.Fork)

	return c.maybeCompact()
}

// CreateProof delegates to the tree engine, under the core's lock so the
// proof is taken against a consistent snapshot of state. A block proof's
// Value is filled with the block's bytes from the data store; a block
// that is not locally present is reported as MissingBlock.
func (c *Core) CreateProof(req merkletree.ProofRequest) (*merkletree.Proof, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, hcerr.New(hcerr.Closed, "core is closed")
	}
	proof, err := c.tree.CreateProof(req)
	if err != nil || proof.Block == nil {
		return proof, err
	}
	leaf, ok, err := c.provider.GetNode(2 * proof.Block.Index)
	if err != nil {
		return nil, err
	}
	if !ok || !c.treeIndex.Leaves().Get(proof.Block.Index) {
		return nil, hcerr.New(hcerr.MissingBlock, "block not locally present")
	}
	offset, err := c.tree.ByteOffset(proof.Block.Index)
	if err == nil {
		proof.Block.Value, err = c.dataStore.ReadBlock(offset, leaf.Size)
	}
	return proof, err
}

// Verify checks proof against the core's current roots.
func (c *Core) Verify(proof *merkletree.Proof) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return hcerr.New(hcerr.Closed, "core is closed")
	}
	return c.tree.Verify(proof)
}

// VerifyUpgrade checks a peer-proposed upgrade proof without adopting
// it; the caller decides whether the returned roots should replace this
// core's state (this Core has no replication layer to do that itself).
func (c *Core) VerifyUpgrade(proof *merkletree.UpgradeProof) ([]merkletree.Root, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, hcerr.New(hcerr.Closed, "core is closed")
	}
	return c.tree.VerifyUpgrade(c.keys.Public(), proof)
}

// maybeCompact folds the entry region into the inactive header slot once
// it grows past Config.CompactionThreshold. Callers already hold mu.
func (c *Core) maybeCompact() error {
	if c.log.EntryRegionSize() < c.cfg.compactionThreshold() {
		return nil
	}
	return c.compactLocked()
}

func (c *Core) compactLocked() error {
	if err := c.treeStore.Flush(); err != nil {
		return err
	}
	if err := c.dataStore.Flush(); err != nil {
		return err
	}
	if err := c.bitStore.Save(c.treeIndex.Leaves(), c.tree.State().Length); err != nil {
		return err
	}
	if err := c.bitStore.Flush(); err != nil {
		return err
	}

	state := c.tree.State()
	header := oplog.HeaderSlot{
		Length: state.Length, ByteLength: state.ByteLength, Fork: state.Fork,
		Key: c.keys.Public(), SecretKey: c.keys.Secret(), Signature: state.Signature,
		TreeHash: rootHashOf(state.Roots), BitfieldDigest: bitfieldDigest(c.treeIndex.Leaves(), state.Length),
	}
	if err := c.log.Compact(header); err != nil {
		return err
	}
	metrics.HypercoreOplogCompactionsTotal.Inc()
	c.logger.Debugf("compacted oplog at length=%d fork=%d", state.Length, state.Fork)
	return nil
}

// Close flushes and compacts a final time, then releases every store.
func (c *Core) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	if err := c.compactLocked(); err != nil {
		return err
	}
	c.closed = true
	return c.storages.Close()
}
