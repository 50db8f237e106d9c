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

// Package rollup holds the wire types the world-state synchronizer reads
// off a settled block: the block envelope, the decoded rollup proof,
// inner proofs, and defi interaction notes.
package rollup

import (
	"math/big"
	"time"

	"github.com/rollupdb/worldstate/crypto/hash"
)

// NumBridgeCallsPerBlock is K, the fixed defi bridge slot count per
// rollup. It is embedded in the on-chain contract's interaction-nonce
// slot layout and must not change independently of the verifier.
const NumBridgeCallsPerBlock = 4

// AssetIDSentinel marks an unused asset slot in RollupProofData.AssetIds.
const AssetIDSentinel = uint32(1) << 30

// TreeTag names one of the four authenticated trees.
type TreeTag int

// The four trees the synchronizer keeps in lock-step with on-chain roots.
const (
	TreeData TreeTag = iota
	TreeNull
	TreeRoot
	TreeDefi
)

func (t TreeTag) String() string {
	switch t {
	case TreeData:
		return "DATA"
	case TreeNull:
		return "NULL"
	case TreeRoot:
		return "ROOT"
	case TreeDefi:
		return "DEFI"
	default:
		return "UNKNOWN"
	}
}

// ProofID identifies the kind of user action an inner proof represents.
type ProofID int

// Inner proof kinds. Padding proofs carry ProofID zero and are skipped
// wherever the spec calls for "non-padding" inner proofs.
const (
	ProofPadding ProofID = iota
	ProofDeposit
	ProofWithdraw
	ProofSend
	ProofAccount
	ProofDefiDeposit
	ProofDefiClaim
)

// TxType is the classification stored alongside a settled tx for
// per-type settlement metrics.
type TxType int

// Tx type values, one per non-padding ProofID.
const (
	TxTypeDeposit TxType = iota
	TxTypeWithdraw
	TxTypeTransfer
	TxTypeAccount
	TxTypeDefiDeposit
	TxTypeDefiClaim
	TxTypeUnknown
)

// TxTypeFromProofID derives the TxType a settled inner proof should be
// recorded under.
func TxTypeFromProofID(id ProofID) TxType {
	switch id {
	case ProofDeposit:
		return TxTypeDeposit
	case ProofWithdraw:
		return TxTypeWithdraw
	case ProofSend:
		return TxTypeTransfer
	case ProofAccount:
		return TxTypeAccount
	case ProofDefiDeposit:
		return TxTypeDefiDeposit
	case ProofDefiClaim:
		return TxTypeDefiClaim
	default:
		return TxTypeUnknown
	}
}

// InnerProof is one user tx's proof data inside a rollup.
type InnerProof struct {
	ProofID         ProofID
	TxID            hash.Hash
	NoteCommitment1 hash.Hash
	NoteCommitment2 hash.Hash
	Nullifier1      hash.Hash
	Nullifier2      hash.Hash
	// PublicInput/PublicOutput/BridgeID/TxFee carry the fields
	// an off-chain defi-deposit blob needs to reconstruct fee, bridge id
	// and value without re-parsing the whole inner proof.
	PublicInput  *big.Int
	PublicOutput *big.Int
	BridgeID     uint64
	TxFee        *big.Int
	// AssetID attributes a deposit/withdraw/defi-deposit proof to one
	// of RollupProofData.AssetIDs for asset-metrics accounting.
	AssetID uint32
}

// IsPadding reports whether the inner proof is a zero-filled padding
// entry, skipped by every walk over InnerProofData.
func (p *InnerProof) IsPadding() bool {
	return p.ProofID == ProofPadding
}

// DefiInteractionNote records one bridge call's settled result.
type DefiInteractionNote struct {
	BridgeID          uint64
	Nonce             uint64
	TotalInputValue   *big.Int
	TotalOutputValueA *big.Int
	TotalOutputValueB *big.Int
	Result            bool
}

// IsZero reports whether n is the canonical empty interaction note,
// skipped when populating the DEFI tree.
func (n *DefiInteractionNote) IsZero() bool {
	if n == nil {
		return true
	}
	if n.BridgeID != 0 || n.Nonce != 0 || n.Result {
		return false
	}
	if n.TotalInputValue != nil && n.TotalInputValue.Sign() != 0 {
		return false
	}
	if n.TotalOutputValueA != nil && n.TotalOutputValueA.Sign() != 0 {
		return false
	}
	if n.TotalOutputValueB != nil && n.TotalOutputValueB.Sign() != 0 {
		return false
	}
	return true
}

// RollupProofData is the decoded form of Block.RollupProofData.
type RollupProofData struct {
	RollupID         uint32
	RollupHash       hash.Hash
	DataStartIndex   uint64
	NewDataRoot      hash.Hash
	NewNullRoot      hash.Hash
	NewDataRootsRoot hash.Hash
	NewDefiRoot      hash.Hash
	BridgeIDs        [NumBridgeCallsPerBlock]uint64
	AssetIDs         []uint32
	DefiInteractionNotes [NumBridgeCallsPerBlock]DefiInteractionNote
	InnerProofData   []InnerProof
}

// NonPadding returns the inner proofs that are not padding, in order.
func (r *RollupProofData) NonPadding() []InnerProof {
	out := make([]InnerProof, 0, len(r.InnerProofData))
	for _, p := range r.InnerProofData {
		if !p.IsPadding() {
			out = append(out, p)
		}
	}
	return out
}

// IndexOfBridge returns the slot index of bridgeID within BridgeIDs, or
// -1 if it is not present.
func (r *RollupProofData) IndexOfBridge(bridgeID uint64) int {
	for i, id := range r.BridgeIDs {
		if id == bridgeID {
			return i
		}
	}
	return -1
}

// Block is a settled rollup as observed on-chain.
type Block struct {
	RollupID          uint32
	Created           time.Time
	EthTxHash         hash.Hash
	RollupSize        uint32
	RollupProofData   []byte
	OffchainTxData    [][]byte
	InteractionResult []DefiInteractionNote
	GasUsed           uint64
	GasPrice          *big.Int
}
