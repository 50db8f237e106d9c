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

import "time"

// TxDao is a durable record of one user tx, settled or pending.
//
// RollupProofDao is intentionally not embedded here: spec.md's design
// notes call for breaking the RollupProofDao<->TxDao cycle by storing
// child->parent by id (RollupProofHash) and loading eagerly on read,
// never a bidirectional owning link.
type TxDao struct {
	TxID            string `db:"tx_id"`
	ProofData       []byte `db:"proof_data"`
	OffchainTxData  []byte `db:"offchain_tx_data"`
	Nullifier1      []byte `db:"nullifier1"`
	Nullifier2      []byte `db:"nullifier2"`
	TxType          int    `db:"tx_type"`
	Created         time.Time `db:"created"`
	Mined           *time.Time `db:"mined"`
	ExcessGas       int64  `db:"excess_gas"`
	RollupProofHash string `db:"rollup_proof_hash"`
}

// RollupProofDao is a tentative or settled rollup proof, keyed by its
// unique rollup hash (multiple competing proofs may exist for the same
// rollupId).
type RollupProofDao struct {
	RollupHash     string `db:"rollup_hash"`
	RollupSize     uint32 `db:"rollup_size"`
	DataStartIndex uint64 `db:"data_start_index"`
	ProofData      []byte `db:"proof_data"`
	Txs            []*TxDao `db:"-"`
}

// RollupDao is a settled rollup: the on-chain event that promoted a
// RollupProofDao to canonical state.
type RollupDao struct {
	RollupID          uint32 `db:"rollup_id"`
	DataRoot          []byte `db:"data_root"`
	RollupProofHash   string `db:"rollup_proof_hash"`
	EthTxHash         []byte `db:"eth_tx_hash"`
	Created           time.Time `db:"created"`
	Mined             *time.Time `db:"mined"`
	InteractionResult []byte `db:"interaction_result"`
	GasUsed           int64  `db:"gas_used"`
	GasPrice          int64  `db:"gas_price"`
}

// ClaimDao is a pending defi output, redeemed later by a DEFI_CLAIM
// inner proof.
type ClaimDao struct {
	LeafIndex                   uint64 `db:"leaf_index"`
	Nullifier                   []byte `db:"nullifier"`
	BridgeID                    uint64 `db:"bridge_id"`
	DepositValue                int64  `db:"deposit_value"`
	PartialState                []byte `db:"partial_state"`
	PartialStateSecretEphPubKey []byte `db:"partial_state_secret_eph_pubkey"`
	InputNullifier              []byte `db:"input_nullifier"`
	InteractionNonce            uint64 `db:"interaction_nonce"`
	Fee                         int64  `db:"fee"`
	Created                     time.Time `db:"created"`
	ResultRollupID              *uint32 `db:"result_rollup_id"`
	SettledAt                   *time.Time `db:"settled_at"`
}

// AccountDao is an alias->account key mapping seeded at init-from-files
// time and grown by ACCOUNT inner proofs thereafter.
type AccountDao struct {
	AliasHash    []byte `db:"alias_hash"`
	AccountPubKey []byte `db:"account_pubkey"`
	Nonce        uint32 `db:"nonce"`
}

// AssetMetricsDao tracks cumulative per-asset totals as of a given
// rollup, plus the live on-chain contract balance observed at that
// point.
type AssetMetricsDao struct {
	RollupID           uint32 `db:"rollup_id"`
	AssetID            uint32 `db:"asset_id"`
	ContractBalance    int64  `db:"contract_balance"`
	TotalDeposited     int64  `db:"total_deposited"`
	TotalWithdrawn     int64  `db:"total_withdrawn"`
	TotalDefiDeposited int64  `db:"total_defi_deposited"`
	TotalDefiClaimed   int64  `db:"total_defi_claimed"`
	TotalFees          int64  `db:"total_fees"`
}

// Clone returns a deep copy so callers can hand out a metrics row
// without letting the recipient mutate the synchronizer's working copy.
func (m *AssetMetricsDao) Clone() *AssetMetricsDao {
	if m == nil {
		return nil
	}
	cp := *m
	return &cp
}
