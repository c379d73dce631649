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
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/datrs/hypercore/merkletree"
)

// cachedNodeProvider wraps a merkletree.NodeProvider with a bounded
// read-through LRU over Node values, keyed by flat-tree index. It
// implements merkletree.NodeProvider itself so a Tree can hold one
// without knowing caching is involved.
type cachedNodeProvider struct {
	inner merkletree.NodeProvider
	cache *lru.Cache[uint64, merkletree.Node]
}

// newCachedNodeProvider wraps inner with an LRU of the given capacity. A
// non-positive capacity disables caching, returning inner unchanged.
func newCachedNodeProvider(inner merkletree.NodeProvider, capacity int) merkletree.NodeProvider {
	if capacity <= 0 {
		return inner
	}
	cache, err := lru.New[uint64, merkletree.Node](capacity)
	if err != nil {
		// lru.New only fails for a non-positive size, already excluded above.
		return inner
	}
	return &cachedNodeProvider{inner: inner, cache: cache}
}

func (c *cachedNodeProvider) GetNode(index uint64) (merkletree.Node, bool, error) {
	if n, ok := c.cache.Get(index); ok {
		return n, true, nil
	}
	n, ok, err := c.inner.GetNode(index)
	if err != nil || !ok {
		return n, ok, err
	}
	c.cache.Add(index, n)
	return n, true, nil
}

func (c *cachedNodeProvider) PutNode(n merkletree.Node) error {
	if err := c.inner.PutNode(n); err != nil {
		return err
	}
	c.cache.Add(n.Index, n)
	return nil
}

// invalidateFrom drops every cached node at or above boundary. The LRU
// has no range-scan API, so this walks its current key set; cheap
// relative to a truncate's own I/O, and only runs on that cold path.
func (c *cachedNodeProvider) invalidateFrom(boundary uint64) {
	for _, key := range c.cache.Keys() {
		if key >= boundary {
			c.cache.Remove(key)
		}
	}
}
