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

package store

import (
	"database/sql"
	"time"

	// Register the sqlite3 driver used by database/sql.
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"gopkg.in/gorp.v2"

	"github.com/rollupdb/worldstate/rollup"
	"github.com/rollupdb/worldstate/utils/log"
)

// SQLStore is a gorp-mapped sqlite-backed RelationalStore.
type SQLStore struct {
	db    *sql.DB
	dbmap *gorp.DbMap
}

// OpenSQLStore opens (creating if necessary) the sqlite database at dsn
// and ensures every DAO table exists.
func OpenSQLStore(dsn string) (st *SQLStore, err error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite database")
	}

	dbmap := &gorp.DbMap{Db: db, Dialect: gorp.SqliteDialect{}}
	dbmap.AddTableWithName(rollup.TxDao{}, "tx").SetKeys(false, "TxID")
	dbmap.AddTableWithName(rollup.RollupProofDao{}, "rollup_proof").SetKeys(false, "RollupHash")
	dbmap.AddTableWithName(rollup.RollupDao{}, "rollup").SetKeys(false, "RollupID")
	dbmap.AddTableWithName(rollup.ClaimDao{}, "claim").SetKeys(false, "LeafIndex")
	dbmap.AddTableWithName(rollup.AccountDao{}, "account").SetKeys(false, "AliasHash")
	dbmap.AddTableWithName(rollup.AssetMetricsDao{}, "asset_metrics").SetKeys(false, "RollupID", "AssetID")

	if err = dbmap.CreateTablesIfNotExists(); err != nil {
		return nil, errors.Wrap(err, "create tables")
	}

	return &SQLStore{db: db, dbmap: dbmap}, nil
}

// Close releases the underlying sqlite handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// GetNextRollupID implements RelationalStore.
func (s *SQLStore) GetNextRollupID() (uint32, error) {
	var maxID sql.NullInt64
	err := s.dbmap.SelectOne(&maxID, "SELECT MAX(rollup_id) FROM rollup WHERE mined IS NOT NULL")
	if err != nil {
		return 0, errors.Wrap(err, "select max rollup id")
	}
	if !maxID.Valid {
		return 0, nil
	}
	return uint32(maxID.Int64) + 1, nil
}

// GetSettledRollups implements RelationalStore.
func (s *SQLStore) GetSettledRollups(from uint32) ([]*rollup.RollupDao, error) {
	var rows []rollup.RollupDao
	_, err := s.dbmap.Select(&rows,
		"SELECT * FROM rollup WHERE mined IS NOT NULL AND rollup_id >= ? ORDER BY rollup_id ASC", from)
	if err != nil {
		return nil, errors.Wrap(err, "select settled rollups")
	}
	out := make([]*rollup.RollupDao, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	return out, nil
}

// GetRollup implements RelationalStore.
func (s *SQLStore) GetRollup(id uint32) (*rollup.RollupDao, error) {
	obj, err := s.dbmap.Get(rollup.RollupDao{}, id)
	if err != nil {
		return nil, errors.Wrap(err, "get rollup")
	}
	if obj == nil {
		return nil, nil
	}
	dao := obj.(*rollup.RollupDao)
	return dao, nil
}

// GetRollupProof implements RelationalStore.
func (s *SQLStore) GetRollupProof(rollupHash string, includeTxs bool) (*rollup.RollupProofDao, error) {
	obj, err := s.dbmap.Get(rollup.RollupProofDao{}, rollupHash)
	if err != nil {
		return nil, errors.Wrap(err, "get rollup proof")
	}
	if obj == nil {
		return nil, nil
	}
	dao := obj.(*rollup.RollupProofDao)
	if includeTxs {
		var txs []rollup.TxDao
		if _, err := s.dbmap.Select(&txs, "SELECT * FROM tx WHERE rollup_proof_hash = ?", rollupHash); err != nil {
			return nil, errors.Wrap(err, "select rollup proof txs")
		}
		dao.Txs = make([]*rollup.TxDao, len(txs))
		for i := range txs {
			dao.Txs[i] = &txs[i]
		}
	}
	return dao, nil
}

// AddRollup implements RelationalStore. It upserts on RollupID so that
// replaying update-dbs for a block already recorded (crash recovery
// per spec.md §4.5.4) is a no-op rather than a primary-key conflict.
func (s *SQLStore) AddRollup(r *rollup.RollupDao) error {
	affected, err := s.dbmap.Update(r)
	if err != nil {
		return errors.Wrap(err, "update rollup")
	}
	if affected == 0 {
		if err := s.dbmap.Insert(r); err != nil {
			return errors.Wrap(err, "insert rollup")
		}
	}
	return nil
}

// DeleteRollup implements RelationalStore.
func (s *SQLStore) DeleteRollup(id uint32) error {
	if _, err := s.dbmap.Exec("DELETE FROM rollup WHERE rollup_id = ?", id); err != nil {
		return errors.Wrap(err, "delete rollup")
	}
	return nil
}

// AddRollupProof implements RelationalStore.
func (s *SQLStore) AddRollupProof(rp *rollup.RollupProofDao) error {
	tx, err := s.dbmap.Begin()
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}

	toInsert := *rp
	toInsert.Txs = nil
	affected, err := tx.Update(&toInsert)
	if err != nil {
		_ = tx.Rollback()
		return errors.Wrap(err, "update rollup proof")
	}
	if affected == 0 {
		if err := tx.Insert(&toInsert); err != nil {
			_ = tx.Rollback()
			return errors.Wrap(err, "insert rollup proof")
		}
	}
	for _, t := range rp.Txs {
		t.RollupProofHash = rp.RollupHash
		affected, err := tx.Update(t)
		if err != nil {
			_ = tx.Rollback()
			return errors.Wrap(err, "attach tx to rollup proof")
		}
		if affected == 0 {
			if err := tx.Insert(t); err != nil {
				_ = tx.Rollback()
				return errors.Wrap(err, "attach tx to rollup proof")
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit rollup proof insert")
	}
	return nil
}

// ConfirmMined implements RelationalStore.
func (s *SQLStore) ConfirmMined(id uint32, gasUsed uint64, gasPrice int64, minedAt time.Time,
	ethTxHash []byte, interactionResult []byte, txIDs []string,
	assetMetrics []*rollup.AssetMetricsDao) (*rollup.RollupDao, error) {

	tx, err := s.dbmap.Begin()
	if err != nil {
		return nil, errors.Wrap(err, "begin tx")
	}

	obj, err := tx.Get(rollup.RollupDao{}, id)
	if err != nil {
		_ = tx.Rollback()
		return nil, errors.Wrap(err, "get rollup for confirm")
	}
	if obj == nil {
		_ = tx.Rollback()
		return nil, errors.Errorf("no unsettled rollup row for id %d", id)
	}
	dao := obj.(*rollup.RollupDao)
	mined := minedAt
	dao.Mined = &mined
	dao.GasUsed = int64(gasUsed)
	dao.GasPrice = gasPrice
	dao.EthTxHash = ethTxHash
	dao.InteractionResult = interactionResult

	if _, err := tx.Update(dao); err != nil {
		_ = tx.Rollback()
		return nil, errors.Wrap(err, "update rollup on confirm")
	}

	for _, txID := range txIDs {
		if _, err := tx.Exec("UPDATE tx SET mined = ? WHERE tx_id = ?", minedAt, txID); err != nil {
			_ = tx.Rollback()
			return nil, errors.Wrap(err, "mark tx mined")
		}
	}
	for _, m := range assetMetrics {
		affected, err := tx.Update(m)
		if err != nil {
			_ = tx.Rollback()
			return nil, errors.Wrap(err, "update asset metrics")
		}
		if affected == 0 {
			if err := tx.Insert(m); err != nil {
				_ = tx.Rollback()
				return nil, errors.Wrap(err, "insert asset metrics")
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit confirm mined")
	}
	return dao, nil
}

// DeleteUnsettledRollups implements RelationalStore.
func (s *SQLStore) DeleteUnsettledRollups() error {
	if _, err := s.dbmap.Exec("DELETE FROM rollup WHERE mined IS NULL"); err != nil {
		return errors.Wrap(err, "delete unsettled rollups")
	}
	return nil
}

// DeleteOrphanedRollupProofs implements RelationalStore.
func (s *SQLStore) DeleteOrphanedRollupProofs() error {
	res, err := s.dbmap.Exec(
		"DELETE FROM rollup_proof WHERE rollup_hash NOT IN (SELECT rollup_proof_hash FROM rollup)")
	if err != nil {
		return errors.Wrap(err, "delete orphaned rollup proofs")
	}
	if n, _ := res.RowsAffected(); n > 0 {
		log.WithField("count", n).Info("swept orphaned rollup proofs")
	}
	return nil
}

// DeletePendingTxs implements RelationalStore.
func (s *SQLStore) DeletePendingTxs() error {
	if _, err := s.dbmap.Exec("DELETE FROM tx WHERE rollup_proof_hash = ''"); err != nil {
		return errors.Wrap(err, "delete pending txs")
	}
	return nil
}

// GetPendingTxs implements RelationalStore.
func (s *SQLStore) GetPendingTxs() ([]*rollup.TxDao, error) {
	var rows []rollup.TxDao
	_, err := s.dbmap.Select(&rows, "SELECT * FROM tx WHERE rollup_proof_hash = '' ORDER BY created ASC")
	if err != nil {
		return nil, errors.Wrap(err, "select pending txs")
	}
	out := make([]*rollup.TxDao, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	return out, nil
}

// AddPendingTx implements RelationalStore.
func (s *SQLStore) AddPendingTx(t *rollup.TxDao) error {
	if err := s.dbmap.Insert(t); err != nil {
		return errors.Wrap(err, "insert pending tx")
	}
	return nil
}

// AddClaim implements RelationalStore. It upserts on LeafIndex so
// replaying processDefiProofs for a block already recorded (crash
// recovery per spec.md §4.5.4) is a no-op rather than a primary-key
// conflict.
func (s *SQLStore) AddClaim(c *rollup.ClaimDao) error {
	affected, err := s.dbmap.Update(c)
	if err != nil {
		return errors.Wrap(err, "update claim")
	}
	if affected == 0 {
		if err := s.dbmap.Insert(c); err != nil {
			return errors.Wrap(err, "insert claim")
		}
	}
	return nil
}

// ConfirmClaimed implements RelationalStore.
func (s *SQLStore) ConfirmClaimed(nullifier []byte, minedAt time.Time) error {
	if _, err := s.dbmap.Exec("UPDATE claim SET settled_at = ? WHERE nullifier = ?", minedAt, nullifier); err != nil {
		return errors.Wrap(err, "confirm claimed")
	}
	return nil
}

// UpdateClaimsWithResultRollupID implements RelationalStore.
func (s *SQLStore) UpdateClaimsWithResultRollupID(nonce uint64, rollupID uint32) error {
	if _, err := s.dbmap.Exec(
		"UPDATE claim SET result_rollup_id = ? WHERE interaction_nonce = ?", rollupID, nonce); err != nil {
		return errors.Wrap(err, "update claims with result rollup id")
	}
	return nil
}

// GetClaimByNonce implements RelationalStore.
func (s *SQLStore) GetClaimByNonce(nonce uint64) (*rollup.ClaimDao, error) {
	var rows []rollup.ClaimDao
	_, err := s.dbmap.Select(&rows, "SELECT * FROM claim WHERE interaction_nonce = ?", nonce)
	if err != nil {
		return nil, errors.Wrap(err, "select claim by nonce")
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// AddAccounts implements RelationalStore.
func (s *SQLStore) AddAccounts(accounts []*rollup.AccountDao) error {
	tx, err := s.dbmap.Begin()
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	for _, a := range accounts {
		if err := tx.Insert(a); err != nil {
			_ = tx.Rollback()
			return errors.Wrap(err, "insert account")
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit accounts")
	}
	return nil
}

// GetAssetMetrics implements RelationalStore.
func (s *SQLStore) GetAssetMetrics(assetID uint32) (*rollup.AssetMetricsDao, error) {
	var rows []rollup.AssetMetricsDao
	_, err := s.dbmap.Select(&rows,
		"SELECT * FROM asset_metrics WHERE asset_id = ? ORDER BY rollup_id DESC LIMIT 1", assetID)
	if err != nil {
		return nil, errors.Wrap(err, "select asset metrics")
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}
