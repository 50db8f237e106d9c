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

package tree

import (
	"math/big"
	"testing"

	"github.com/rollupdb/worldstate/rollup"
)

func TestEmptyTreeHasDefaultRoot(t *testing.T) {
	s := NewStore(t.TempDir())
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	root := s.GetRoot(rollup.TreeData)
	if root != s.defaults[Depth] {
		t.Fatalf("expected default root for empty tree, got %x", root)
	}
	if s.GetSize(rollup.TreeData) != 0 {
		t.Fatalf("expected size 0, got %d", s.GetSize(rollup.TreeData))
	}
}

func TestPutStagesAndCommitPersists(t *testing.T) {
	dataDir := t.TempDir()
	s := NewStore(dataDir)
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	emptyRoot := s.GetRoot(rollup.TreeData)

	if err := s.Put(rollup.TreeData, 0, []byte("leaf-0")); err != nil {
		t.Fatalf("put: %v", err)
	}
	stagedRoot := s.GetRoot(rollup.TreeData)
	if stagedRoot == emptyRoot {
		t.Fatalf("staged write did not change root")
	}
	if s.GetSize(rollup.TreeData) != 1 {
		t.Fatalf("expected staged size 1, got %d", s.GetSize(rollup.TreeData))
	}

	if err := s.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if s.GetRoot(rollup.TreeData) != stagedRoot {
		t.Fatalf("root changed across commit")
	}

	// The leveldb handle holds an exclusive file lock on dataDir, so the
	// original store must close before a second one can reopen it.
	if err := s.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}

	s2 := NewStore(dataDir)
	if err := s2.Start(); err != nil {
		t.Fatalf("start reopened: %v", err)
	}
	defer s2.Stop()
	if s2.GetRoot(rollup.TreeData) != stagedRoot {
		t.Fatalf("root did not survive reload: got %x want %x", s2.GetRoot(rollup.TreeData), stagedRoot)
	}
	if s2.GetSize(rollup.TreeData) != 1 {
		t.Fatalf("size did not survive reload")
	}
}

func TestRollbackDiscardsStagedWrites(t *testing.T) {
	s := NewStore(t.TempDir())
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	root0 := s.GetRoot(rollup.TreeNull)
	if err := s.Put(rollup.TreeNull, 42, []byte{1}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if s.GetRoot(rollup.TreeNull) != root0 {
		// good, staged write is visible
	} else {
		t.Fatalf("expected staged write to change root")
	}

	s.Rollback()
	if s.GetRoot(rollup.TreeNull) != root0 {
		t.Fatalf("rollback did not restore root")
	}
	if s.GetSize(rollup.TreeNull) != 0 {
		t.Fatalf("rollback did not restore size")
	}
}

func TestTreesAreIndependent(t *testing.T) {
	s := NewStore(t.TempDir())
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	if err := s.Put(rollup.TreeData, 0, []byte("x")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if s.GetSize(rollup.TreeNull) != 0 {
		t.Fatalf("writing DATA leaked into NULL size")
	}
	if s.GetRoot(rollup.TreeNull) != s.defaults[Depth] {
		t.Fatalf("writing DATA leaked into NULL root")
	}
}

func TestApplyRollupProofEncodesDefiLeafFixedWidth(t *testing.T) {
	note := rollup.DefiInteractionNote{
		BridgeID:        7,
		Nonce:           1,
		TotalInputValue: big.NewInt(100),
		Result:          true,
	}
	proof := &rollup.RollupProofData{RollupID: 0}
	proof.DefiInteractionNotes[2] = note

	s := NewStore(t.TempDir())
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	if err := s.ApplyRollupProof(proof); err != nil {
		t.Fatalf("apply rollup proof: %v", err)
	}
	got := s.GetRoot(rollup.TreeDefi)

	// Reproduce the expected leaf independently, at the same index, on
	// a fresh tree: the leaf must be the note's own fixed-width
	// encoding, not the length-prefixed multi-note list codec.
	want := NewStore(t.TempDir())
	if err := want.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer want.Stop()

	defiIdx := uint64(proof.RollupID)*rollup.NumBridgeCallsPerBlock + 2
	if err := want.Put(rollup.TreeDefi, defiIdx, rollup.EncodeInteractionNote(note)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if want.GetRoot(rollup.TreeDefi) != got {
		t.Fatalf("DEFI leaf was not encoded with the fixed-width single-note codec")
	}

	// The length-prefixed multi-note codec must NOT match: it would
	// silently pass any test only comparing self-consistent roots.
	wrong := NewStore(t.TempDir())
	if err := wrong.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer wrong.Stop()
	if err := wrong.Put(rollup.TreeDefi, defiIdx, rollup.EncodeInteractionNotes([]rollup.DefiInteractionNote{note})); err != nil {
		t.Fatalf("put: %v", err)
	}
	if wrong.GetRoot(rollup.TreeDefi) == got {
		t.Fatalf("expected list-codec leaf to differ from fixed-width leaf")
	}
}
