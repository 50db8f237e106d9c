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

// Package tree implements the four append-only authenticated trees
// (DATA, NULL, ROOT, DEFI) the world-state synchronizer keeps in
// lock-step with the roots published by settled rollups.
//
// Each tree is a fixed-depth sparse Merkle tree: unwritten subtrees
// hash to a precomputed per-level default, so GetRoot is defined for
// every tree from the moment it is created, before any leaf is ever
// written. Writes are staged in an in-memory overlay; Commit batches the
// overlay's nodes into the on-disk leveldb committed layer atomically,
// Rollback discards the overlay.
package tree

import (
	"encoding/binary"
	"sync"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/rollupdb/worldstate/crypto/hash"
	"github.com/rollupdb/worldstate/rollup"
)

// Depth is the fixed height of every tree. 32 levels comfortably covers
// the leaf index space a single sequencer will ever produce while
// keeping default-hash precomputation cheap.
const Depth = 32

// sizeLevel is an out-of-band level value used to key a tree's
// committed leaf count in the same keyspace as its nodes; it can never
// collide with a real node level, which ranges over [0, Depth].
const sizeLevel = 0xff

var allTags = [...]rollup.TreeTag{rollup.TreeData, rollup.TreeNull, rollup.TreeRoot, rollup.TreeDefi}

// tree is one authenticated tree's staged overlay and cached committed
// size; committed node values themselves live in the Store's leveldb
// handle, keyed by (tag, level, index), so Commit never has to
// re-encode a whole tree's node set the way a single gob-encoded
// snapshot would.
type tree struct {
	committedSize uint64
	stagedSize    uint64
	staged        map[int]map[uint64]hash.Hash
}

func newTree() *tree {
	return &tree{staged: make(map[int]map[uint64]hash.Hash)}
}

func (t *tree) getStaged(level int, index uint64) (hash.Hash, bool) {
	byLevel, ok := t.staged[level]
	if !ok {
		return hash.Hash{}, false
	}
	h, ok := byLevel[index]
	return h, ok
}

func (t *tree) setStaged(level int, index uint64, h hash.Hash) {
	byLevel, ok := t.staged[level]
	if !ok {
		byLevel = make(map[uint64]hash.Hash)
		t.staged[level] = byLevel
	}
	byLevel[index] = h
}

// Store owns the four trees plus the leveldb handle used to persist
// their committed nodes durably and incrementally.
type Store struct {
	mu       sync.Mutex
	dataDir  string
	db       *leveldb.DB
	defaults [Depth + 1]hash.Hash
	trees    map[rollup.TreeTag]*tree
}

// NewStore constructs a Store that persists its committed state under
// dataDir. It does not open the database; call Start.
func NewStore(dataDir string) *Store {
	s := &Store{
		dataDir: dataDir,
		trees:   make(map[rollup.TreeTag]*tree),
	}
	for _, tag := range allTags {
		s.trees[tag] = newTree()
	}
	s.defaults[0] = hash.HashH([]byte{})
	for i := 1; i <= Depth; i++ {
		s.defaults[i] = hash.MergeTwoHash(s.defaults[i-1], s.defaults[i-1])
	}
	return s
}

func nodeKey(tag rollup.TreeTag, level int, index uint64) []byte {
	key := make([]byte, 10)
	key[0] = byte(tag)
	key[1] = byte(level)
	binary.BigEndian.PutUint64(key[2:], index)
	return key
}

func sizeKey(tag rollup.TreeTag) []byte {
	return nodeKey(tag, sizeLevel, 0)
}

// Start opens the leveldb-backed committed layer, loading each tree's
// committed size. A missing database is not an error: it means the
// trees have never been committed to (cold start).
func (s *Store) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := leveldb.OpenFile(s.dataDir, nil)
	if err != nil {
		return errors.Wrap(err, "open tree leveldb")
	}
	s.db = db

	for _, tag := range allTags {
		raw, err := db.Get(sizeKey(tag), nil)
		if err == leveldb.ErrNotFound {
			continue
		} else if err != nil {
			return errors.Wrapf(err, "read committed size for tree %v", tag)
		}
		size := binary.BigEndian.Uint64(raw)
		t := s.trees[tag]
		t.committedSize = size
		t.stagedSize = size
	}
	return nil
}

// Stop closes the leveldb handle.
func (s *Store) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// getNode returns the tree's node at (level, index): the staged value
// if one was written this round, else the last committed value read
// from leveldb, else the level's default hash for an untouched subtree.
func (s *Store) getNode(tag rollup.TreeTag, level int, index uint64) hash.Hash {
	t := s.trees[tag]
	if h, ok := t.getStaged(level, index); ok {
		return h
	}

	raw, err := s.db.Get(nodeKey(tag, level, index), nil)
	if err == leveldb.ErrNotFound {
		return s.defaults[level]
	} else if err != nil {
		// The tree store is the sole writer and every read follows a
		// successful Start; a leveldb read failure here means the
		// on-disk store is corrupt, which is unrecoverable in place.
		panic(errors.Wrap(err, "read tree node"))
	}
	h, decErr := hash.NewHash(raw)
	if decErr != nil {
		panic(errors.Wrap(decErr, "decode tree node"))
	}
	return h
}

// GetSize returns the tree's committed-plus-staged leaf count.
func (s *Store) GetSize(tag rollup.TreeTag) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trees[tag].stagedSize
}

// GetRoot returns the tree's committed-plus-staged root.
func (s *Store) GetRoot(tag rollup.TreeTag) hash.Hash {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getNode(tag, Depth, 0)
}

// Put stages a leaf write at an absolute index. It is not safe to call
// concurrently with another Put/Commit/Rollback on the same Store; the
// synchronizer is the sole writer and calls these serially.
func (s *Store) Put(tag rollup.TreeTag, index uint64, leaf []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.trees[tag]
	if !ok {
		return errors.Errorf("unknown tree tag %v", tag)
	}

	t.setStaged(0, index, hash.HashH(leaf))
	cur := index
	for level := 1; level <= Depth; level++ {
		parent := cur >> 1
		leftIdx := parent << 1
		left := s.getNode(tag, level-1, leftIdx)
		right := s.getNode(tag, level-1, leftIdx+1)
		t.setStaged(level, parent, hash.MergeTwoHash(left, right))
		cur = parent
	}
	if index+1 > t.stagedSize {
		t.stagedSize = index + 1
	}
	return nil
}

// Commit persists every tree's staged nodes in a single leveldb batch,
// keyed individually by (tag, level, index) rather than re-encoding
// each tree's whole node set: the batch grows with the number of nodes
// touched since the last commit, not with total tree size, and leveldb
// applies it atomically so a crash mid-write leaves either the
// pre-commit or the post-commit state.
func (s *Store) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := new(leveldb.Batch)
	for _, tag := range allTags {
		t := s.trees[tag]
		for level, byLevel := range t.staged {
			for index, h := range byLevel {
				batch.Put(nodeKey(tag, level, index), h.Bytes())
			}
		}
		t.committedSize = t.stagedSize
		var sizeBuf [8]byte
		binary.BigEndian.PutUint64(sizeBuf[:], t.committedSize)
		batch.Put(sizeKey(tag), sizeBuf[:])
	}

	if err := s.db.Write(batch, &opt.WriteOptions{Sync: true}); err != nil {
		return errors.Wrap(err, "write tree commit batch")
	}

	for _, tag := range allTags {
		s.trees[tag].staged = make(map[int]map[uint64]hash.Hash)
	}
	return nil
}

// ApplyRollupProof stages a rollup's leaf writes across all four trees:
// the two note commitments and any spent nullifiers for each
// non-padding inner proof, the resulting DATA root recorded into ROOT,
// and any non-zero defi interaction notes into DEFI. It does not
// commit; the caller decides whether to Commit or Rollback.
//
// It is used two ways: the pipeline calls it speculatively right after
// building a proof it is about to publish, and the synchronizer calls
// it to apply a competitor's or resynced block when its own staged
// writes don't match.
func (s *Store) ApplyRollupProof(proof *rollup.RollupProofData) error {
	idx := uint64(0)
	for i := range proof.InnerProofData {
		p := &proof.InnerProofData[i]
		if p.IsPadding() {
			continue
		}
		if err := s.Put(rollup.TreeData, proof.DataStartIndex+2*idx, p.NoteCommitment1.Bytes()); err != nil {
			return err
		}
		if err := s.Put(rollup.TreeData, proof.DataStartIndex+2*idx+1, p.NoteCommitment2.Bytes()); err != nil {
			return err
		}
		if !p.Nullifier1.IsZero() {
			if err := s.Put(rollup.TreeNull, NullifierIndex(p.Nullifier1), NullifierLeaf); err != nil {
				return err
			}
		}
		if !p.Nullifier2.IsZero() {
			if err := s.Put(rollup.TreeNull, NullifierIndex(p.Nullifier2), NullifierLeaf); err != nil {
				return err
			}
		}
		idx++
	}

	if err := s.Put(rollup.TreeRoot, uint64(proof.RollupID)+1, s.GetRoot(rollup.TreeData).Bytes()); err != nil {
		return err
	}

	for i := 0; i < rollup.NumBridgeCallsPerBlock; i++ {
		note := proof.DefiInteractionNotes[i]
		if note.IsZero() {
			continue
		}
		defiIdx := uint64(proof.RollupID)*rollup.NumBridgeCallsPerBlock + uint64(i)
		leaf := rollup.EncodeInteractionNote(note)
		if err := s.Put(rollup.TreeDefi, defiIdx, leaf); err != nil {
			return err
		}
	}
	return nil
}

// Rollback discards every tree's staged writes.
func (s *Store) Rollback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tag := range allTags {
		t := s.trees[tag]
		t.staged = make(map[int]map[uint64]hash.Hash)
		t.stagedSize = t.committedSize
	}
}
