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

package rollup

import (
	"math/big"
	"testing"

	"github.com/rollupdb/worldstate/crypto/hash"
)

func TestEncodeDecodeInnerProofRoundTrip(t *testing.T) {
	p := &InnerProof{
		ProofID:         ProofDeposit,
		TxID:            hash.HashH([]byte("tx")),
		NoteCommitment1: hash.HashH([]byte("nc1")),
		NoteCommitment2: hash.HashH([]byte("nc2")),
		Nullifier1:      hash.HashH([]byte("n1")),
		Nullifier2:      hash.HashH([]byte("n2")),
		PublicInput:     big.NewInt(123),
		PublicOutput:    big.NewInt(456),
		BridgeID:        7,
		TxFee:           big.NewInt(9),
		AssetID:         3,
	}

	got, err := DecodeInnerProof(EncodeInnerProof(p))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ProofID != p.ProofID || got.TxID != p.TxID || got.NoteCommitment1 != p.NoteCommitment1 ||
		got.NoteCommitment2 != p.NoteCommitment2 || got.Nullifier1 != p.Nullifier1 ||
		got.Nullifier2 != p.Nullifier2 || got.BridgeID != p.BridgeID || got.AssetID != p.AssetID {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, p)
	}
	if got.PublicInput.Cmp(p.PublicInput) != 0 {
		t.Fatalf("public input mismatch: got %v want %v", got.PublicInput, p.PublicInput)
	}
	if got.PublicOutput.Cmp(p.PublicOutput) != 0 {
		t.Fatalf("public output mismatch: got %v want %v", got.PublicOutput, p.PublicOutput)
	}
	if got.TxFee.Cmp(p.TxFee) != 0 {
		t.Fatalf("tx fee mismatch: got %v want %v", got.TxFee, p.TxFee)
	}
}

func TestEncodeDecodeRollupProofDataRoundTrip(t *testing.T) {
	r := &RollupProofData{
		RollupID:         5,
		RollupHash:       hash.HashH([]byte("rollup-5")),
		DataStartIndex:   10,
		NewDataRoot:      hash.HashH([]byte("data-root")),
		NewNullRoot:      hash.HashH([]byte("null-root")),
		NewDataRootsRoot: hash.HashH([]byte("roots-root")),
		NewDefiRoot:      hash.HashH([]byte("defi-root")),
		BridgeIDs:        [NumBridgeCallsPerBlock]uint64{1, 2, 3, 4},
		AssetIDs:         []uint32{9, 42},
		InnerProofData: []InnerProof{
			{ProofID: ProofPadding},
			{
				ProofID:         ProofWithdraw,
				TxID:            hash.HashH([]byte("tx-a")),
				NoteCommitment1: hash.HashH([]byte("nc-a1")),
				NoteCommitment2: hash.HashH([]byte("nc-a2")),
				TxFee:           big.NewInt(2),
				AssetID:         9,
			},
		},
	}
	r.DefiInteractionNotes[1] = DefiInteractionNote{
		BridgeID:          2,
		Nonce:             11,
		TotalInputValue:   big.NewInt(100),
		TotalOutputValueA: big.NewInt(60),
		TotalOutputValueB: big.NewInt(40),
		Result:            true,
	}

	got, err := DecodeRollupProofData(EncodeRollupProofData(r))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.RollupID != r.RollupID || got.RollupHash != r.RollupHash || got.DataStartIndex != r.DataStartIndex {
		t.Fatalf("header mismatch: got %+v", got)
	}
	if got.NewDataRoot != r.NewDataRoot || got.NewNullRoot != r.NewNullRoot ||
		got.NewDataRootsRoot != r.NewDataRootsRoot || got.NewDefiRoot != r.NewDefiRoot {
		t.Fatalf("root mismatch: got %+v", got)
	}
	if got.BridgeIDs != r.BridgeIDs {
		t.Fatalf("bridge ids mismatch: got %v want %v", got.BridgeIDs, r.BridgeIDs)
	}
	if len(got.AssetIDs) != len(r.AssetIDs) || got.AssetIDs[0] != r.AssetIDs[0] || got.AssetIDs[1] != r.AssetIDs[1] {
		t.Fatalf("asset ids mismatch: got %v want %v", got.AssetIDs, r.AssetIDs)
	}
	if len(got.NonPadding()) != 1 || got.NonPadding()[0].TxID != r.InnerProofData[1].TxID {
		t.Fatalf("non-padding inner proofs mismatch: %+v", got.NonPadding())
	}
	if got.DefiInteractionNotes[1].BridgeID != 2 || !got.DefiInteractionNotes[1].Result {
		t.Fatalf("defi interaction note mismatch: %+v", got.DefiInteractionNotes[1])
	}
	if got.IndexOfBridge(3) != 2 {
		t.Fatalf("expected bridge id 3 at index 2, got %d", got.IndexOfBridge(3))
	}
	if got.IndexOfBridge(999) != -1 {
		t.Fatalf("expected unknown bridge id to report -1")
	}
}

func TestEncodeDecodeInteractionNoteRoundTrip(t *testing.T) {
	n := DefiInteractionNote{
		BridgeID:          1,
		Nonce:             2,
		TotalInputValue:   big.NewInt(5),
		TotalOutputValueA: big.NewInt(6),
		TotalOutputValueB: big.NewInt(7),
		Result:            true,
	}

	encoded := EncodeInteractionNote(n)
	if len(encoded) != 113 {
		t.Fatalf("expected fixed-width 113-byte leaf, got %d bytes", len(encoded))
	}

	got, err := DecodeInteractionNote(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.BridgeID != n.BridgeID || got.Nonce != n.Nonce || !got.Result {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.TotalInputValue.Cmp(n.TotalInputValue) != 0 {
		t.Fatalf("total input value mismatch: got %v want %v", got.TotalInputValue, n.TotalInputValue)
	}
}

func TestEncodeDecodeInteractionNotesRoundTrip(t *testing.T) {
	notes := []DefiInteractionNote{
		{BridgeID: 1, Nonce: 2, TotalInputValue: big.NewInt(5), Result: true},
		{BridgeID: 3, Nonce: 4, TotalOutputValueA: big.NewInt(7)},
	}
	got, err := DecodeInteractionNotes(EncodeInteractionNotes(notes))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || got[0].BridgeID != 1 || !got[0].Result || got[1].BridgeID != 3 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestEncodeDecodeOffchainDefiDepositDataRoundTrip(t *testing.T) {
	d := &OffchainDefiDepositData{
		BridgeID:                    77,
		PartialState:                hash.HashH([]byte("partial")),
		PartialStateSecretEphPubKey: make([]byte, 33),
		DepositValue:                big.NewInt(500),
		TxFee:                       big.NewInt(10),
	}
	d.PartialStateSecretEphPubKey[0] = 0x02

	got, err := DecodeOffchainDefiDepositData(EncodeOffchainDefiDepositData(d))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.BridgeID != d.BridgeID || got.PartialState != d.PartialState {
		t.Fatalf("header mismatch: got %+v", got)
	}
	if got.DepositValue.Cmp(d.DepositValue) != 0 || got.TxFee.Cmp(d.TxFee) != 0 {
		t.Fatalf("value mismatch: got deposit=%v fee=%v", got.DepositValue, got.TxFee)
	}
	if got.PartialStateSecretEphPubKey[0] != d.PartialStateSecretEphPubKey[0] {
		t.Fatalf("eph pubkey mismatch")
	}
}
