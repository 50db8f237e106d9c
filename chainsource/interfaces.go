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

// Package chainsource declares the external collaborators the
// world-state synchronizer depends on but does not implement: the
// on-chain event feed, the metrics sink, and the init-file reader.
package chainsource

import (
	"time"

	"github.com/rollupdb/worldstate/crypto/hash"
	"github.com/rollupdb/worldstate/rollup"
)

// ChainSource adapts an external chain node into the block feed the
// synchronizer ingests. Block events must be delivered in rollupId
// order starting from the id passed to Start.
type ChainSource interface {
	// OnBlock registers the callback invoked for every new block. It
	// must be called before Start.
	OnBlock(handler func(*rollup.Block))

	// Start begins delivering blocks from fromRollupID onward.
	Start(fromRollupID uint32) error

	// Stop stops delivering new blocks.
	Stop()

	// GetChainID identifies the network the source is attached to.
	GetChainID() (uint32, error)

	// GetBlocks returns the contiguous sequence of blocks from
	// "from" onward that are currently available.
	GetBlocks(from uint32) ([]*rollup.Block, error)

	// GetRollupBalance queries the live on-chain balance held by the
	// rollup contract for the given asset.
	GetRollupBalance(assetID uint32) (int64, error)

	// PublishRollup submits an assembled rollup proof for inclusion.
	// txs is the same slice the proof's inner proofs were built from,
	// in the same order, so each non-padding inner proof's off-chain
	// blob (TxDao.OffchainTxData) can be forwarded alongside the
	// proof; padding entries carry no tx and are skipped. It does not
	// block until the rollup settles; settlement is observed later as
	// an ordinary block event.
	PublishRollup(proof *rollup.RollupProofData, encoded []byte, txs []*rollup.TxDao) error
}

// MetricsSink is an opaque counter/timer target; the synchronizer has
// no semantic dependency on what backs it.
type MetricsSink interface {
	// ProcessBlockTimer returns a stop function that records the
	// elapsed time since it was obtained.
	ProcessBlockTimer() func()

	// TxSettlementDuration records how long a tx waited between
	// creation and its settling block.
	TxSettlementDuration(d time.Duration, txType rollup.TxType)

	// RollupReceived records that a rollup was observed settled.
	RollupReceived(r *rollup.RollupDao)
}

// InitAccountRecord is one row of the init-file account roster.
type InitAccountRecord struct {
	AliasHash     []byte
	AccountPubKey []byte
	DataLeaf      []byte
	Nullifier     []byte
}

// InitRoots are the expected tree roots after seeding the account
// roster, verified bit-exact against what populating the trees
// produces.
type InitRoots struct {
	DataRoot  hash.Hash
	NullRoot  hash.Hash
	RootsRoot hash.Hash
}

// InitFileReader abstracts the per-chain-id on-disk init artifacts.
// Absence of a usable file is a valid no-op, not an error.
type InitFileReader interface {
	// GetAccountDataFile returns the path (or logical name) of the
	// account roster file for chainID, or "" if none exists.
	GetAccountDataFile(chainID uint32) (string, error)

	// ReadAccountTreeData parses the file at path into account
	// records.
	ReadAccountTreeData(path string) ([]InitAccountRecord, error)

	// GetInitRoots returns the expected roots for chainID. A zero
	// value for any of the three fields means "no init file", per
	// spec.md §4.5.1.
	GetInitRoots(chainID uint32) (InitRoots, error)
}

// NoteAlgorithms is the external cryptographic collaborator used to
// derive claim-note commitments and nullifiers during defi proof
// processing (spec.md §4.5.6).
type NoteAlgorithms interface {
	// ComputeClaimNoteCommitment derives the claim-note commitment for
	// a pending defi claim.
	ComputeClaimNoteCommitment(bridgeID uint64, depositValue []byte, interactionNonce uint64,
		partialState hash.Hash) (hash.Hash, error)

	// ComputeNullifier derives the nullifier that will later be
	// presented by the matching DEFI_CLAIM inner proof.
	ComputeNullifier(commitment hash.Hash, index uint64) (hash.Hash, error)
}
