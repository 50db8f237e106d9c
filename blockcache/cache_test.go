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

package blockcache

import (
	"testing"

	"github.com/rollupdb/worldstate/crypto/hash"
	"github.com/rollupdb/worldstate/rollup"
)

func block(id uint32) *rollup.Block {
	return &rollup.Block{RollupID: id, EthTxHash: hash.HashH([]byte{byte(id)})}
}

func TestRebuildThenGetFrom(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	if err := c.Rebuild([]*rollup.Block{block(0), block(1), block(2)}); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if c.Len() != 3 {
		t.Fatalf("expected len 3, got %d", c.Len())
	}
	suffix := c.GetFrom(1)
	if len(suffix) != 2 || suffix[0].RollupID != 1 || suffix[1].RollupID != 2 {
		t.Fatalf("unexpected suffix: %+v", suffix)
	}
	if len(c.GetFrom(10)) != 0 {
		t.Fatalf("expected empty suffix past the end")
	}
}

func TestAppendRejectsGap(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	if err := c.Append(block(0)); err != nil {
		t.Fatalf("append 0: %v", err)
	}
	if err := c.Append(block(2)); err == nil {
		t.Fatalf("expected gap append to be rejected")
	}
	if err := c.Append(block(1)); err != nil {
		t.Fatalf("append 1: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("expected len 2, got %d", c.Len())
	}
}

func TestGetByHash(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	b1 := block(1)
	if err := c.Rebuild([]*rollup.Block{block(0), b1}); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	got, ok := c.GetByHash(b1.EthTxHash)
	if !ok || got.RollupID != 1 {
		t.Fatalf("expected to find rollup 1 by hash, got %+v ok=%v", got, ok)
	}
	if _, ok := c.GetByHash(hash.HashH([]byte("nope"))); ok {
		t.Fatalf("expected miss for unknown hash")
	}
}
