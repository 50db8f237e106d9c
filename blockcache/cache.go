/*
 * Copyright 2018 The CovenantSQL Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package blockcache holds the in-memory, ordered list of serialized
// settled blocks clients replay to catch up, plus a secondary
// hash->position index for point lookups.
package blockcache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/rollupdb/worldstate/crypto/hash"
	"github.com/rollupdb/worldstate/rollup"
)

// indexSize bounds the secondary hash->position lookup index. The
// ordered slice below is the source of truth and is never evicted;
// the LRU only accelerates repeat point lookups by eth tx hash.
const indexSize = 4096

// Cache is an append-only, position-indexed list of settled blocks.
// Position i always corresponds to rollupId i: the list has no gaps,
// enforced by Append.
type Cache struct {
	mu     sync.RWMutex
	blocks []*rollup.Block
	byHash *lru.Cache
}

// New returns an empty Cache.
func New() (*Cache, error) {
	idx, err := lru.New(indexSize)
	if err != nil {
		return nil, errors.Wrap(err, "create block hash index")
	}
	return &Cache{byHash: idx}, nil
}

// Rebuild replaces the cache contents with settled, ordered by
// RollupID ascending starting at 0. Used at startup once
// GetSettledRollups(0) is loaded and decoded into blocks.
func (c *Cache) Rebuild(settled []*rollup.Block) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.blocks = c.blocks[:0]
	c.byHash.Purge()
	for i, b := range settled {
		if b.RollupID != uint32(i) {
			return errors.Errorf("block cache rebuild: expected rollup id %d, got %d", i, b.RollupID)
		}
		c.blocks = append(c.blocks, b)
		c.byHash.Add(b.EthTxHash, i)
	}
	return nil
}

// Append adds a newly settled block. It must be the next expected
// rollup id; Append refuses to create a gap.
func (c *Cache) Append(b *rollup.Block) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if b.RollupID != uint32(len(c.blocks)) {
		return errors.Errorf("block cache append: expected rollup id %d, got %d", len(c.blocks), b.RollupID)
	}
	c.blocks = append(c.blocks, b)
	c.byHash.Add(b.EthTxHash, len(c.blocks)-1)
	return nil
}

// GetFrom returns the suffix of settled blocks from position n onward.
// The slice is a copy; callers may not mutate the cache through it.
func (c *Cache) GetFrom(n uint32) []*rollup.Block {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if int(n) >= len(c.blocks) {
		return nil
	}
	out := make([]*rollup.Block, len(c.blocks)-int(n))
	copy(out, c.blocks[n:])
	return out
}

// Len returns the number of settled blocks held.
func (c *Cache) Len() uint32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return uint32(len(c.blocks))
}

// GetByHash looks up a settled block by its eth tx hash, using the LRU
// index to avoid a linear scan on repeat lookups.
func (c *Cache) GetByHash(ethTxHash hash.Hash) (*rollup.Block, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if pos, ok := c.byHash.Get(ethTxHash); ok {
		i := pos.(int)
		if i < len(c.blocks) && c.blocks[i].EthTxHash == ethTxHash {
			return c.blocks[i], true
		}
	}
	for _, b := range c.blocks {
		if b.EthTxHash == ethTxHash {
			return b, true
		}
	}
	return nil, false
}
