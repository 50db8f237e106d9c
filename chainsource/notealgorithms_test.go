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

package chainsource

import (
	"testing"

	"github.com/rollupdb/worldstate/crypto/hash"
)

func TestKeccakNoteAlgorithmsIsDeterministic(t *testing.T) {
	var algo KeccakNoteAlgorithms
	partial := hash.HashH([]byte("partial-state"))

	c1, err := algo.ComputeClaimNoteCommitment(1, []byte{1, 2, 3}, 4, partial)
	if err != nil {
		t.Fatalf("compute commitment: %v", err)
	}
	c2, err := algo.ComputeClaimNoteCommitment(1, []byte{1, 2, 3}, 4, partial)
	if err != nil {
		t.Fatalf("compute commitment: %v", err)
	}
	if c1 != c2 {
		t.Fatal("expected ComputeClaimNoteCommitment to be deterministic")
	}

	c3, err := algo.ComputeClaimNoteCommitment(2, []byte{1, 2, 3}, 4, partial)
	if err != nil {
		t.Fatalf("compute commitment: %v", err)
	}
	if c1 == c3 {
		t.Fatal("expected different bridge ids to produce different commitments")
	}
}

func TestKeccakNoteAlgorithmsNullifierVariesByIndex(t *testing.T) {
	var algo KeccakNoteAlgorithms
	commitment := hash.HashH([]byte("commitment"))

	n1, err := algo.ComputeNullifier(commitment, 0)
	if err != nil {
		t.Fatalf("compute nullifier: %v", err)
	}
	n2, err := algo.ComputeNullifier(commitment, 1)
	if err != nil {
		t.Fatalf("compute nullifier: %v", err)
	}
	if n1 == n2 {
		t.Fatal("expected different indices to produce different nullifiers")
	}

	again, err := algo.ComputeNullifier(commitment, 0)
	if err != nil {
		t.Fatalf("compute nullifier: %v", err)
	}
	if again != n1 {
		t.Fatal("expected ComputeNullifier to be deterministic")
	}
}
