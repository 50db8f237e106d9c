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
	"bytes"
	"testing"

	"github.com/rollupdb/worldstate/rollup"
)

func TestOffchainBlobsForForwardsPerTxData(t *testing.T) {
	proof := &rollup.RollupProofData{
		InnerProofData: []rollup.InnerProof{
			{ProofID: rollup.ProofDeposit},
			{ProofID: rollup.ProofDefiDeposit},
		},
	}
	txs := []*rollup.TxDao{
		{OffchainTxData: nil},
		{OffchainTxData: []byte("defi-deposit-blob")},
	}

	got, err := offchainBlobsFor(proof, txs)
	if err != nil {
		t.Fatalf("offchainBlobsFor: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 blobs, got %d", len(got))
	}
	if got[0] != nil {
		t.Fatalf("expected nil blob for tx with no off-chain data, got %v", got[0])
	}
	if !bytes.Equal(got[1], []byte("defi-deposit-blob")) {
		t.Fatalf("expected defi deposit blob to be forwarded, got %v", got[1])
	}
}

func TestOffchainBlobsForSkipsPadding(t *testing.T) {
	proof := &rollup.RollupProofData{
		InnerProofData: []rollup.InnerProof{
			{ProofID: rollup.ProofDeposit},
			{ProofID: rollup.ProofPadding},
		},
	}
	txs := []*rollup.TxDao{
		{OffchainTxData: []byte("real")},
		{OffchainTxData: []byte("should never be reached for padding")},
	}

	got, err := offchainBlobsFor(proof, txs)
	if err != nil {
		t.Fatalf("offchainBlobsFor: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected padding entry to be skipped, got %d blobs", len(got))
	}
	if !bytes.Equal(got[0], []byte("real")) {
		t.Fatalf("expected the non-padding tx's blob, got %v", got[0])
	}
}

func TestOffchainBlobsForRejectsMismatchedLength(t *testing.T) {
	proof := &rollup.RollupProofData{
		InnerProofData: []rollup.InnerProof{
			{ProofID: rollup.ProofDeposit},
		},
	}
	if _, err := offchainBlobsFor(proof, nil); err == nil {
		t.Fatal("expected error for txs/proof length mismatch")
	}
}
