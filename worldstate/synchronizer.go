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

// Package worldstate implements the synchronizer: startup recovery,
// serialized block ingestion, tree/relational-store reconciliation, and
// coordination of the rollup-construction pipeline. It is the unique
// writer of both the tree store and the relational store.
package worldstate

import (
	"math/big"
	"sync"

	"github.com/pkg/errors"

	"github.com/rollupdb/worldstate/blockcache"
	"github.com/rollupdb/worldstate/blockqueue"
	"github.com/rollupdb/worldstate/chainbus"
	"github.com/rollupdb/worldstate/chainsource"
	"github.com/rollupdb/worldstate/crypto/hash"
	"github.com/rollupdb/worldstate/pipeline"
	"github.com/rollupdb/worldstate/rollup"
	"github.com/rollupdb/worldstate/store"
	"github.com/rollupdb/worldstate/tree"
	"github.com/rollupdb/worldstate/utils/log"
)

// Config parameterizes a Synchronizer.
type Config struct {
	ChainID     uint32
	PipelineCfg pipeline.Config
}

// TopicRollupSettled is the chainbus topic published to after a settled
// block has been fully reconciled: trees committed, defi claims
// recorded and the rollup row confirmed. Subscribers get the settled
// *rollup.RollupDao.
const TopicRollupSettled = "rollup.settled"

// Synchronizer wires the tree store, relational store, block queue,
// block cache, chain source and pipeline together per the reconciliation
// rules in spec.md §4.5.
type Synchronizer struct {
	cfg Config

	trees *tree.Store
	rs    store.RelationalStore
	queue *blockqueue.Queue
	cache *blockcache.Cache

	chain     chainsource.ChainSource
	metrics   chainsource.MetricsSink
	initFiles chainsource.InitFileReader
	notes     chainsource.NoteAlgorithms
	builder   pipeline.ProofBuilder

	bus *chainbus.Bus

	mu   sync.Mutex
	pipe *pipeline.Pipeline
}

// New constructs a Synchronizer. It does not start anything; call
// Start.
func New(cfg Config, trees *tree.Store, rs store.RelationalStore, queue *blockqueue.Queue,
	cache *blockcache.Cache, chain chainsource.ChainSource, metrics chainsource.MetricsSink,
	initFiles chainsource.InitFileReader, notes chainsource.NoteAlgorithms,
	builder pipeline.ProofBuilder) *Synchronizer {

	return &Synchronizer{
		cfg:       cfg,
		trees:     trees,
		rs:        rs,
		queue:     queue,
		cache:     cache,
		chain:     chain,
		metrics:   metrics,
		initFiles: initFiles,
		notes:     notes,
		builder:   builder,
		bus:       chainbus.New(),
	}
}

// Subscribe registers handler under topic on the synchronizer's internal
// event bus; see TopicRollupSettled.
func (w *Synchronizer) Subscribe(topic string, handler chainbus.RollupSettledHandler) error {
	return w.bus.Subscribe(topic, handler)
}

// Start runs startup recovery (spec.md §4.5) and, on success, leaves the
// chain source subscribed and a pipeline running.
func (w *Synchronizer) Start() error {
	if err := w.trees.Start(); err != nil {
		return errors.Wrap(err, "start tree store")
	}

	nextRollupID, err := w.rs.GetNextRollupID()
	if err != nil {
		return errors.Wrap(err, "get next rollup id")
	}

	if nextRollupID == 0 {
		if err := w.initFromFiles(); err != nil {
			return errors.Wrap(err, "init from files")
		}
	}

	// The cache must already hold every settled block up to
	// nextRollupID before syncFromChain runs: updateDBs appends each
	// synced block to it, and Append requires the next block's id to
	// equal the cache's current length. Loading it from what's already
	// settled in the relational store first keeps that invariant true
	// on a warm restart, not just a cold start where both are empty.
	if err := w.loadBlockCache(); err != nil {
		return errors.Wrap(err, "load block cache")
	}

	if err := w.syncFromChain(nextRollupID); err != nil {
		return errors.Wrap(err, "sync from chain")
	}

	if err := w.rs.DeleteUnsettledRollups(); err != nil {
		return errors.Wrap(err, "delete unsettled rollups")
	}
	if err := w.rs.DeleteOrphanedRollupProofs(); err != nil {
		return errors.Wrap(err, "delete orphaned rollup proofs")
	}

	w.chain.OnBlock(func(b *rollup.Block) { w.queue.Put(b) })
	w.queue.Process(w.handleBlock)

	startFrom, err := w.rs.GetNextRollupID()
	if err != nil {
		return errors.Wrap(err, "get next rollup id")
	}
	if err := w.chain.Start(startFrom); err != nil {
		return errors.Wrap(err, "start chain source")
	}

	w.mu.Lock()
	w.startPipelineLocked(startFrom)
	w.mu.Unlock()

	log.WithField("nextRollupID", startFrom).Info("world-state synchronizer started")
	return nil
}

// Stop cancels the block queue, stops the chain source and pipeline,
// and closes the tree store. In-flight handle-block work completes to a
// consistent commit boundary before Stop returns.
func (w *Synchronizer) Stop() error {
	w.queue.Cancel()
	<-w.queue.Done()
	w.chain.Stop()

	w.mu.Lock()
	if w.pipe != nil {
		w.pipe.Stop()
	}
	w.mu.Unlock()

	return w.trees.Stop()
}

// handleBlock is installed as the block queue's consumer handler. It
// runs strictly serialized: stop pipeline, reconcile, restart pipeline.
func (w *Synchronizer) handleBlock(b *rollup.Block) {
	w.mu.Lock()
	if w.pipe != nil {
		w.pipe.Stop()
	}
	w.mu.Unlock()

	var stopTimer func()
	if w.metrics != nil {
		stopTimer = w.metrics.ProcessBlockTimer()
	}
	err := w.updateDBs(b)
	if stopTimer != nil {
		stopTimer()
	}
	if err != nil {
		log.WithError(err).WithField("rollupID", b.RollupID).
			Fatalf("update-dbs failed for rollup %d, exiting for crash recovery", b.RollupID)
		return
	}

	nextID, err := w.rs.GetNextRollupID()
	if err != nil {
		log.WithError(err).Fatalf("failed to read next rollup id after settling rollup %d", b.RollupID)
		return
	}

	w.mu.Lock()
	w.startPipelineLocked(nextID)
	w.mu.Unlock()
}

// startPipelineLocked requires w.mu to be held.
func (w *Synchronizer) startPipelineLocked(nextRollupID uint32) {
	w.pipe = pipeline.New(w.cfg.PipelineCfg, w.rs, w.chain, w.builder, w.trees, nextRollupID)
	w.pipe.Start()
}

// FlushTxs is part of the operator surface (spec.md §6).
func (w *Synchronizer) FlushTxs() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pipe != nil {
		w.pipe.FlushTxs()
	}
}

// GetNextPublishTime is part of the operator surface.
func (w *Synchronizer) GetNextPublishTime() pipeline.PublishTime {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pipe == nil {
		return pipeline.PublishTime{}
	}
	return w.pipe.GetNextPublishTime()
}

// GetTxPoolProfile is part of the operator surface.
func (w *Synchronizer) GetTxPoolProfile() pipeline.TxPoolProfile {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pipe == nil {
		return pipeline.TxPoolProfile{}
	}
	return w.pipe.GetTxPoolProfile()
}

// GetBlockBuffers is part of the operator surface: serialized settled
// blocks from position n onward.
func (w *Synchronizer) GetBlockBuffers(from uint32) []*rollup.Block {
	return w.cache.GetFrom(from)
}

// ResetPipeline is the operator-initiated reset (spec.md §4.5.9).
func (w *Synchronizer) ResetPipeline() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pipe != nil {
		w.pipe.Stop()
	}
	w.trees.Rollback()

	if err := w.rs.DeleteUnsettledRollups(); err != nil {
		return errors.Wrap(err, "delete unsettled rollups")
	}
	if err := w.rs.DeleteOrphanedRollupProofs(); err != nil {
		return errors.Wrap(err, "delete orphaned rollup proofs")
	}
	if err := w.rs.DeletePendingTxs(); err != nil {
		return errors.Wrap(err, "delete pending txs")
	}

	nextID, err := w.rs.GetNextRollupID()
	if err != nil {
		return errors.Wrap(err, "get next rollup id")
	}
	w.startPipelineLocked(nextID)
	return nil
}

// updateDBs is the reconciliation core (spec.md §4.5.4).
func (w *Synchronizer) updateDBs(b *rollup.Block) error {
	proof, err := rollup.DecodeRollupProofData(b.RollupProofData)
	if err != nil {
		return errors.Wrap(err, "decode rollup proof data")
	}

	ours := w.trees.GetRoot(rollup.TreeData) == proof.NewDataRoot &&
		w.trees.GetRoot(rollup.TreeNull) == proof.NewNullRoot &&
		w.trees.GetRoot(rollup.TreeRoot) == proof.NewDataRootsRoot &&
		w.trees.GetRoot(rollup.TreeDefi) == proof.NewDefiRoot

	if ours {
		if err := w.trees.Commit(); err != nil {
			return errors.Wrap(err, "commit our staged trees")
		}
	} else {
		w.trees.Rollback()
		if err := w.applyRollupToTrees(proof); err != nil {
			return errors.Wrap(err, "apply rollup to trees")
		}
	}

	if err := w.processDefiProofs(proof, b); err != nil {
		return errors.Wrap(err, "process defi proofs")
	}

	dao, err := w.confirmOrAddRollup(proof, b)
	if err != nil {
		return errors.Wrap(err, "confirm or add rollup")
	}

	if err := w.cache.Append(b); err != nil {
		return errors.Wrap(err, "append settled block to cache")
	}

	if w.metrics != nil {
		w.metrics.RollupReceived(dao)
	}
	w.bus.Publish(TopicRollupSettled, dao)
	return nil
}

// applyRollupToTrees is spec.md §4.5.5.
func (w *Synchronizer) applyRollupToTrees(proof *rollup.RollupProofData) error {
	if w.trees.GetSize(rollup.TreeData) > proof.DataStartIndex {
		log.WithField("rollupID", proof.RollupID).
			Debug("data tree already contains this rollup's leaves, skipping apply")
		return nil
	}
	if err := w.trees.ApplyRollupProof(proof); err != nil {
		return err
	}
	return w.trees.Commit()
}

// processDefiProofs is spec.md §4.5.6.
func (w *Synchronizer) processDefiProofs(proof *rollup.RollupProofData, b *rollup.Block) error {
	idx := 0
	for i := range proof.InnerProofData {
		p := &proof.InnerProofData[i]
		if p.IsPadding() {
			continue
		}

		switch p.ProofID {
		case rollup.ProofDefiDeposit:
			if idx >= len(b.OffchainTxData) {
				return errors.Errorf("missing offchain defi deposit data at index %d", idx)
			}
			data, err := rollup.DecodeOffchainDefiDepositData(b.OffchainTxData[idx])
			if err != nil {
				return errors.Wrap(err, "decode offchain defi deposit data")
			}

			bridgeIdx := proof.IndexOfBridge(data.BridgeID)
			if bridgeIdx < 0 {
				return errors.Errorf("defi deposit references unknown bridge id %d", data.BridgeID)
			}
			interactionNonce := uint64(bridgeIdx) + uint64(proof.RollupID)*rollup.NumBridgeCallsPerBlock
			leafIndex := proof.DataStartIndex + 2*uint64(idx)

			fee := new(big.Int)
			if data.TxFee != nil {
				fee.Sub(data.TxFee, new(big.Int).Rsh(data.TxFee, 1))
			}

			var nullifier hash.Hash
			if w.notes != nil {
				commitment, err := w.notes.ComputeClaimNoteCommitment(
					data.BridgeID, data.DepositValue.Bytes(), interactionNonce, data.PartialState)
				if err != nil {
					return errors.Wrap(err, "compute claim note commitment")
				}
				nullifier, err = w.notes.ComputeNullifier(commitment, leafIndex)
				if err != nil {
					return errors.Wrap(err, "compute claim nullifier")
				}
			}

			claim := &rollup.ClaimDao{
				LeafIndex:                   leafIndex,
				Nullifier:                   nullifier.Bytes(),
				BridgeID:                    data.BridgeID,
				DepositValue:                data.DepositValue.Int64(),
				PartialState:                data.PartialState.Bytes(),
				PartialStateSecretEphPubKey: data.PartialStateSecretEphPubKey,
				InteractionNonce:            interactionNonce,
				Fee:                         fee.Int64(),
				Created:                     b.Created,
			}
			if err := w.rs.AddClaim(claim); err != nil {
				return errors.Wrap(err, "add claim")
			}

		case rollup.ProofDefiClaim:
			if err := w.rs.ConfirmClaimed(p.Nullifier1.Bytes(), b.Created); err != nil {
				return errors.Wrap(err, "confirm claimed")
			}
		}
		idx++
	}

	for _, note := range proof.DefiInteractionNotes {
		if note.IsZero() {
			continue
		}
		if err := w.rs.UpdateClaimsWithResultRollupID(note.Nonce, proof.RollupID); err != nil {
			return errors.Wrap(err, "update claims with result rollup id")
		}
	}
	return nil
}

// confirmOrAddRollup is spec.md §4.5.7.
func (w *Synchronizer) confirmOrAddRollup(proof *rollup.RollupProofData, b *rollup.Block) (*rollup.RollupDao, error) {
	rollupHash := proof.RollupHash.String()

	existing, err := w.rs.GetRollupProof(rollupHash, true)
	if err != nil {
		return nil, errors.Wrap(err, "look up rollup proof")
	}

	if existing != nil {
		metrics, err := w.computeAssetMetrics(proof)
		if err != nil {
			return nil, errors.Wrap(err, "compute asset metrics")
		}

		txIDs := make([]string, len(existing.Txs))
		for i, t := range existing.Txs {
			txIDs[i] = t.TxID
		}

		dao, err := w.rs.ConfirmMined(proof.RollupID, b.GasUsed, gasPriceInt64(b.GasPrice), b.Created,
			b.EthTxHash.Bytes(), rollup.EncodeInteractionNotes(b.InteractionResult), txIDs, metrics)
		if err != nil {
			return nil, errors.Wrap(err, "confirm mined")
		}

		if w.metrics != nil {
			for _, t := range existing.Txs {
				w.metrics.TxSettlementDuration(b.Created.Sub(t.Created), rollup.TxType(t.TxType))
			}
		}
		return dao, nil
	}

	rp := &rollup.RollupProofDao{
		RollupHash:     rollupHash,
		RollupSize:     uint32(len(proof.NonPadding())),
		DataStartIndex: proof.DataStartIndex,
		ProofData:      b.RollupProofData,
	}
	idx := 0
	for i := range proof.InnerProofData {
		p := &proof.InnerProofData[i]
		if p.IsPadding() {
			continue
		}
		var offchain []byte
		if idx < len(b.OffchainTxData) {
			offchain = b.OffchainTxData[idx]
		}
		mined := b.Created
		rp.Txs = append(rp.Txs, &rollup.TxDao{
			TxID:           p.TxID.String(),
			OffchainTxData: offchain,
			Nullifier1:     p.Nullifier1.Bytes(),
			Nullifier2:     p.Nullifier2.Bytes(),
			TxType:         int(rollup.TxTypeFromProofID(p.ProofID)),
			Created:        b.Created,
			Mined:          &mined,
		})
		idx++
	}
	if err := w.rs.AddRollupProof(rp); err != nil {
		return nil, errors.Wrap(err, "add rollup proof")
	}

	// A competitor's rollup landing at an id we had staged ourselves
	// leaves our tentative row occupying the same primary key; clear it
	// before inserting the settled one.
	if err := w.rs.DeleteRollup(proof.RollupID); err != nil {
		return nil, errors.Wrap(err, "clear stale rollup row")
	}

	mined := b.Created
	dao := &rollup.RollupDao{
		RollupID:          proof.RollupID,
		DataRoot:          proof.NewDataRoot.Bytes(),
		RollupProofHash:   rollupHash,
		EthTxHash:         b.EthTxHash.Bytes(),
		Created:           b.Created,
		Mined:             &mined,
		InteractionResult: rollup.EncodeInteractionNotes(b.InteractionResult),
		GasUsed:           int64(b.GasUsed),
		GasPrice:          gasPriceInt64(b.GasPrice),
	}
	if err := w.rs.AddRollup(dao); err != nil {
		return nil, errors.Wrap(err, "add rollup")
	}
	return dao, nil
}

// computeAssetMetrics is spec.md §4.5.8.
func (w *Synchronizer) computeAssetMetrics(proof *rollup.RollupProofData) ([]*rollup.AssetMetricsDao, error) {
	var out []*rollup.AssetMetricsDao

	for _, assetID := range proof.AssetIDs {
		if assetID == rollup.AssetIDSentinel {
			continue
		}

		prev, err := w.rs.GetAssetMetrics(assetID)
		if err != nil {
			return nil, errors.Wrap(err, "load previous asset metrics")
		}
		var m *rollup.AssetMetricsDao
		if prev != nil {
			m = prev.Clone()
		} else {
			m = &rollup.AssetMetricsDao{AssetID: assetID}
		}
		m.RollupID = proof.RollupID

		if w.chain != nil {
			balance, err := w.chain.GetRollupBalance(assetID)
			if err != nil {
				return nil, errors.Wrap(err, "get rollup balance")
			}
			m.ContractBalance = balance
		}

		for _, p := range proof.NonPadding() {
			if p.AssetID != assetID {
				continue
			}
			switch p.ProofID {
			case rollup.ProofDeposit:
				if p.PublicInput != nil {
					m.TotalDeposited += p.PublicInput.Int64()
				}
			case rollup.ProofWithdraw:
				if p.PublicOutput != nil {
					m.TotalWithdrawn += p.PublicOutput.Int64()
				}
			case rollup.ProofDefiDeposit:
				if p.PublicInput != nil {
					m.TotalDefiDeposited += p.PublicInput.Int64()
				}
			}
			if p.TxFee != nil {
				m.TotalFees += p.TxFee.Int64()
			}
		}

		for i := range proof.DefiInteractionNotes {
			note := &proof.DefiInteractionNotes[i]
			if note.IsZero() || !w.noteHasAsset(proof, note, assetID) {
				continue
			}
			if note.TotalOutputValueA != nil {
				m.TotalDefiClaimed += note.TotalOutputValueA.Int64()
			}
			if note.TotalOutputValueB != nil {
				m.TotalDefiClaimed += note.TotalOutputValueB.Int64()
			}
		}

		out = append(out, m)
	}
	return out, nil
}

// noteHasAsset reports whether note's bridge id (not its position
// within DefiInteractionNotes, which is a bridge-call slot and has no
// relation to the distinct-asset index space of AssetIDs) settled a
// defi-deposit attributed to assetID.
func (w *Synchronizer) noteHasAsset(proof *rollup.RollupProofData, note *rollup.DefiInteractionNote, assetID uint32) bool {
	for _, p := range proof.NonPadding() {
		if p.ProofID == rollup.ProofDefiDeposit && p.BridgeID == note.BridgeID && p.AssetID == assetID {
			return true
		}
	}
	return false
}

// initFromFiles is spec.md §4.5.1.
func (w *Synchronizer) initFromFiles() error {
	path, err := w.initFiles.GetAccountDataFile(w.cfg.ChainID)
	if err != nil {
		return errors.Wrap(err, "get account data file")
	}
	if path == "" {
		log.Info("no init file for this chain id, starting from empty state")
		return nil
	}

	roots, err := w.initFiles.GetInitRoots(w.cfg.ChainID)
	if err != nil {
		return errors.Wrap(err, "get init roots")
	}
	if roots.DataRoot.IsZero() || roots.NullRoot.IsZero() || roots.RootsRoot.IsZero() {
		log.Info("no init roots configured, starting from empty state")
		return nil
	}

	records, err := w.initFiles.ReadAccountTreeData(path)
	if err != nil {
		return errors.Wrap(err, "read account tree data")
	}

	accounts := make([]*rollup.AccountDao, 0, len(records))
	for i, rec := range records {
		if err := w.trees.Put(rollup.TreeData, uint64(i), rec.DataLeaf); err != nil {
			return errors.Wrap(err, "populate data tree")
		}
		if len(rec.Nullifier) > 0 {
			var n hash.Hash
			if err := n.SetBytes(rec.Nullifier); err != nil {
				return errors.Wrap(err, "decode init nullifier")
			}
			if err := w.trees.Put(rollup.TreeNull, tree.NullifierIndex(n), tree.NullifierLeaf); err != nil {
				return errors.Wrap(err, "populate null tree")
			}
		}
		accounts = append(accounts, &rollup.AccountDao{AliasHash: rec.AliasHash, AccountPubKey: rec.AccountPubKey})
	}
	if err := w.trees.Put(rollup.TreeRoot, 0, w.trees.GetRoot(rollup.TreeData).Bytes()); err != nil {
		return errors.Wrap(err, "populate roots tree")
	}

	gotData := w.trees.GetRoot(rollup.TreeData)
	gotNull := w.trees.GetRoot(rollup.TreeNull)
	gotRoots := w.trees.GetRoot(rollup.TreeRoot)
	if gotData != roots.DataRoot || gotNull != roots.NullRoot || gotRoots != roots.RootsRoot {
		return errors.Errorf("init-from-files root mismatch: data(%s/%s) null(%s/%s) roots(%s/%s)",
			gotData, roots.DataRoot, gotNull, roots.NullRoot, gotRoots, roots.RootsRoot)
	}

	if err := w.trees.Commit(); err != nil {
		return errors.Wrap(err, "commit init trees")
	}
	if err := w.rs.AddAccounts(accounts); err != nil {
		return errors.Wrap(err, "persist init accounts")
	}
	log.WithField("accounts", len(accounts)).Info("init-from-files populated trees")
	return nil
}

// syncFromChain is spec.md §4.5.2.
func (w *Synchronizer) syncFromChain(from uint32) error {
	blocks, err := w.chain.GetBlocks(from)
	if err != nil {
		return errors.Wrap(err, "get blocks")
	}
	for _, b := range blocks {
		if err := w.updateDBs(b); err != nil {
			return errors.Wrapf(err, "update-dbs for rollup %d", b.RollupID)
		}
	}
	return nil
}

// loadBlockCache rebuilds the block cache from settled rollups, per
// spec.md §4.5 step 5.
func (w *Synchronizer) loadBlockCache() error {
	settled, err := w.rs.GetSettledRollups(0)
	if err != nil {
		return errors.Wrap(err, "get settled rollups")
	}
	blocks := make([]*rollup.Block, 0, len(settled))
	for _, dao := range settled {
		b, err := w.loadCachedBlock(dao)
		if err != nil {
			return err
		}
		blocks = append(blocks, b)
	}
	return w.cache.Rebuild(blocks)
}

// loadCachedBlock reconstitutes a settled block from its relational
// rows, for use rebuilding the block cache at startup.
func (w *Synchronizer) loadCachedBlock(dao *rollup.RollupDao) (*rollup.Block, error) {
	rp, err := w.rs.GetRollupProof(dao.RollupProofHash, true)
	if err != nil {
		return nil, errors.Wrapf(err, "load rollup proof for settled rollup %d", dao.RollupID)
	}
	if rp == nil {
		return nil, errors.Errorf("missing rollup proof %q for settled rollup %d", dao.RollupProofHash, dao.RollupID)
	}

	offchain := make([][]byte, len(rp.Txs))
	for i, t := range rp.Txs {
		offchain[i] = t.OffchainTxData
	}

	interactionResult, err := rollup.DecodeInteractionNotes(dao.InteractionResult)
	if err != nil {
		return nil, errors.Wrapf(err, "decode interaction result for settled rollup %d", dao.RollupID)
	}

	ethTxHash, err := hash.NewHash(dao.EthTxHash)
	if err != nil {
		return nil, errors.Wrapf(err, "decode eth tx hash for settled rollup %d", dao.RollupID)
	}

	created := dao.Created
	if dao.Mined != nil {
		created = *dao.Mined
	}

	return &rollup.Block{
		RollupID:          dao.RollupID,
		Created:           created,
		EthTxHash:         ethTxHash,
		RollupSize:        rp.RollupSize,
		RollupProofData:   rp.ProofData,
		OffchainTxData:    offchain,
		InteractionResult: interactionResult,
		GasUsed:           uint64(dao.GasUsed),
		GasPrice:          big.NewInt(dao.GasPrice),
	}, nil
}

func gasPriceInt64(v *big.Int) int64 {
	if v == nil {
		return 0
	}
	return v.Int64()
}
