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

// Package store implements the narrow relational record API the
// synchronizer and pipeline consume: durable rows for transactions,
// rollup proofs, settled rollups, defi claims, accounts and asset
// metrics.
package store

import (
	"time"

	"github.com/rollupdb/worldstate/rollup"
)

// RelationalStore is the exact query set the world-state synchronizer
// and pipeline are allowed to depend on.
type RelationalStore interface {
	// GetNextRollupID returns one more than the highest settled rollup
	// id, or 0 if none are settled yet.
	GetNextRollupID() (uint32, error)

	// GetSettledRollups returns settled rollups from id "from" onward,
	// ordered by rollup id ascending.
	GetSettledRollups(from uint32) ([]*rollup.RollupDao, error)

	// GetRollup looks up the rollup row at id, settled or not; it
	// returns nil if there is none.
	GetRollup(id uint32) (*rollup.RollupDao, error)

	// GetRollupProof looks up a rollup proof by its unique hash,
	// eagerly loading its txs when includeTxs is true.
	GetRollupProof(rollupHash string, includeTxs bool) (*rollup.RollupProofDao, error)

	// AddRollup inserts a rollup row. Called both for a competitor's
	// settled rollup (Mined already set) and, by the pipeline, for our
	// own tentative rollup (Mined left nil, i.e. unsettled).
	AddRollup(r *rollup.RollupDao) error

	// DeleteRollup removes any rollup row (settled or not) at id. Used
	// when a competitor's rollup supersedes our own tentative attempt
	// at the same id, before AddRollup inserts the competitor's row.
	DeleteRollup(id uint32) error

	// AddRollupProof inserts a tentative rollup proof and attaches its
	// txs to it.
	AddRollupProof(rp *rollup.RollupProofDao) error

	// ConfirmMined promotes an unsettled rollup row to settled and
	// records the on-chain outcome.
	ConfirmMined(id uint32, gasUsed uint64, gasPrice int64, minedAt time.Time,
		ethTxHash []byte, interactionResult []byte, txIDs []string,
		assetMetrics []*rollup.AssetMetricsDao) (*rollup.RollupDao, error)

	// DeleteUnsettledRollups removes rollup rows never confirmed by an
	// on-chain block (Mined IS NULL). Must run before
	// DeleteOrphanedRollupProofs so their proofs become orphans.
	DeleteUnsettledRollups() error

	// DeleteOrphanedRollupProofs removes rollup proof rows no rollup
	// row (settled or not) references.
	DeleteOrphanedRollupProofs() error

	// DeletePendingTxs removes tx rows not yet attached to any rollup
	// proof.
	DeletePendingTxs() error

	// GetPendingTxs returns pool txs eligible for the pipeline to pick
	// up, oldest first.
	GetPendingTxs() ([]*rollup.TxDao, error)

	// AddPendingTx inserts a pool tx.
	AddPendingTx(tx *rollup.TxDao) error

	// AddClaim inserts a pending defi claim row.
	AddClaim(c *rollup.ClaimDao) error

	// ConfirmClaimed marks the claim with the given nullifier redeemed
	// at minedAt.
	ConfirmClaimed(nullifier []byte, minedAt time.Time) error

	// UpdateClaimsWithResultRollupID records which rollup settled the
	// bridge interaction a claim is waiting on.
	UpdateClaimsWithResultRollupID(nonce uint64, rollupID uint32) error

	// GetClaimByNonce looks up a claim by its interaction nonce,
	// pending or settled, or nil if none exists.
	GetClaimByNonce(nonce uint64) (*rollup.ClaimDao, error)

	// AddAccounts inserts alias/account rows, used by init-from-files.
	AddAccounts(accounts []*rollup.AccountDao) error

	// GetAssetMetrics returns the most recent metrics row for assetID,
	// or nil if none exist yet.
	GetAssetMetrics(assetID uint32) (*rollup.AssetMetricsDao, error)
}
