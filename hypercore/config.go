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

// Package hypercore is the root facade coordinating the flat-tree Merkle
// engine, the bitfield/tree-index, the oplog and the byte-addressable
// storage layer into a single append-only log: open, append, get, clear,
// truncate, proof and verify, under one logical writer lock.
package hypercore

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/datrs/hypercore/log"
	"github.com/datrs/hypercore/storage"
)

// defaultCacheCapacity is the number of tree nodes the read-through LRU
// holds when Config.CacheCapacity is left at zero.
const defaultCacheCapacity = 4096

// defaultCompactionThreshold is the oplog entry-region size, in bytes,
// past which Append triggers a compaction.
const defaultCompactionThreshold = 256 * 1024

// Config configures a Core at Open time. Every field is optional; the
// zero Config is a usable default.
type Config struct {
	// CacheCapacity bounds the in-memory tree node cache. Zero uses
	// defaultCacheCapacity; a negative value disables caching entirely.
	CacheCapacity int

	// CompactionThreshold is the oplog entry-region size, in bytes, that
	// triggers an automatic Compact at the end of Append/Truncate/Clear.
	// Zero uses defaultCompactionThreshold.
	CompactionThreshold uint64

	// Sparse is kept in the Config but no code path reads it: Clear
	// zeroes a cleared block's bytes in place (see storage.FileStorage)
	// whatever its value, and no on-disk space is reclaimed.
	Sparse bool

	// Logger receives Debug/Info traces for oplog replay, compaction and
	// truncate, and a Warn trace when a reopened core's recomputed tree
	// hash differs from its header's. Corrupt or torn oplog entries that
	// replay drops are not logged. A nil Logger falls back to
	// log.Default().
	Logger log.Logger

	// Registerer is where core Prometheus metrics register. Metrics are
	// registered once per process, against the Registerer of the first
	// Open; later Opens do not register them again. A nil
	// Registerer falls back to prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer

	// Padding is an opaque block-header padding hint surfaced verbatim
	// through Info; the engine itself neither interprets nor enforces it.
	Padding uint64
}

func (c Config) cacheCapacity() int {
	if c.CacheCapacity == 0 {
		return defaultCacheCapacity
	}
	return c.CacheCapacity
}

func (c Config) compactionThreshold() uint64 {
	if c.CompactionThreshold == 0 {
		return defaultCompactionThreshold
	}
	return c.CompactionThreshold
}

func (c Config) logger() log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.Default()
}

func (c Config) registerer() prometheus.Registerer {
	if c.Registerer != nil {
		return c.Registerer
	}
	return prometheus.DefaultRegisterer
}

// Storages bundles the four byte-addressable stores a Core is built on.
// One core is conceptually one directory; OpenDir builds these
// four from os files sharing a directory, but any RandomAccess
// implementation works, including storage.MemoryStorage for tests.
type Storages struct {
	Oplog    storage.RandomAccess
	Tree     storage.RandomAccess
	Data     storage.RandomAccess
	Bitfield storage.RandomAccess
}

// Close closes all four stores, carrying on past a failure, and returns
// the first error it met.
func (s Storages) Close() error {
	var firstErr error
	for _, ra := range []storage.RandomAccess{s.Oplog, s.Tree, s.Data, s.Bitfield} {
		if ra == nil {
			continue
		}
		if err := ra.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
