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

// Package pipeline runs the rollup-construction task: drain the pending
// tx pool, assemble a proof, stage its leaf writes and publish it, and
// record a tentative rollup row. It never commits or rolls back the
// trees it stages into; the synchronizer stops the pipeline and owns
// that decision once a block settles.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/mohae/deepcopy"
	"github.com/pkg/errors"

	"github.com/rollupdb/worldstate/chainsource"
	"github.com/rollupdb/worldstate/rollup"
	"github.com/rollupdb/worldstate/store"
	"github.com/rollupdb/worldstate/tree"
	"github.com/rollupdb/worldstate/utils/log"
)

// ProofBuilder is the external collaborator that turns a batch of
// pending txs into an assembled, encoded rollup proof. Its internals
// (circuit construction, bridge coordination) are out of scope; the
// pipeline only owns when it is called and what gets written down
// afterward.
type ProofBuilder interface {
	// SelectPendingTxs picks the subset of the pool eligible to go
	// into the next rollup, in the order they should be packed.
	SelectPendingTxs(pool []*rollup.TxDao) []*rollup.TxDao

	// BuildProof assembles a rollup proof from the selected txs. It
	// must return promptly once ctx is cancelled, abandoning the
	// attempt with an error.
	BuildProof(ctx context.Context, rollupID uint32, txs []*rollup.TxDao) (*rollup.RollupProofData, []byte, error)
}

// BridgeTimeout pairs a bridge id with its own publish deadline.
type BridgeTimeout struct {
	BridgeID uint64
	Timeout  time.Duration
}

// PublishTime is the pure read returned by GetNextPublishTime.
type PublishTime struct {
	BaseTimeout    time.Duration
	BridgeTimeouts []BridgeTimeout
}

// TxPoolProfile is the pure read returned by GetTxPoolProfile. It is
// deep-copied out of the pipeline's working set before being returned,
// so callers may hold onto it without racing the pipeline loop.
type TxPoolProfile struct {
	PendingCount  int
	OldestCreated time.Time
	PendingTxIDs  []string
}

// Config controls pipeline pacing.
type Config struct {
	// BaseTimeout is how long the loop waits between pool checks when
	// nothing forces an earlier attempt.
	BaseTimeout time.Duration
	// BridgeTimeouts is surfaced verbatim by GetNextPublishTime; the
	// pipeline does not interpret it beyond that.
	BridgeTimeouts map[uint64]time.Duration
}

// Pipeline is one run of the rollup-construction loop. It is not
// reused across Stop/Start; the synchronizer constructs a fresh
// Pipeline every time it needs one running again.
type Pipeline struct {
	cfg     Config
	rs      store.RelationalStore
	chain   chainsource.ChainSource
	builder ProofBuilder
	trees   *tree.Store

	rollupID uint32

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	flush chan struct{}

	mu      sync.Mutex
	profile TxPoolProfile

	stopOnce sync.Once
}

// New builds a Pipeline that will publish its first rollup under
// nextRollupID. It does not start the loop; call Start. trees is the
// same Store the synchronizer reconciles against: BuildProof's leaf
// writes are staged into it speculatively, ahead of the rollup actually
// settling, so that update-dbs's "ours" case is a plain commit.
func New(cfg Config, rs store.RelationalStore, chain chainsource.ChainSource,
	builder ProofBuilder, trees *tree.Store, nextRollupID uint32) *Pipeline {

	return &Pipeline{
		cfg:      cfg,
		rs:       rs,
		chain:    chain,
		builder:  builder,
		trees:    trees,
		rollupID: nextRollupID,
		flush:    make(chan struct{}, 1),
	}
}

// Start spawns the pipeline loop and returns immediately. Any internal
// failure is logged; it never brings down the caller.
func (p *Pipeline) Start() {
	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.wg.Add(1)
	go p.run()
}

// Stop is idempotent and blocks until the loop has exited at its next
// safe point.
func (p *Pipeline) Stop() {
	p.stopOnce.Do(func() {
		if p.cancel != nil {
			p.cancel()
		}
	})
	p.wg.Wait()
}

// FlushTxs asks the pipeline to attempt a publish at the next safe
// point rather than waiting out the base timeout.
func (p *Pipeline) FlushTxs() {
	select {
	case p.flush <- struct{}{}:
	default:
	}
}

// GetNextPublishTime is a pure, concurrent-safe read.
func (p *Pipeline) GetNextPublishTime() PublishTime {
	out := PublishTime{BaseTimeout: p.cfg.BaseTimeout}
	for id, d := range p.cfg.BridgeTimeouts {
		out.BridgeTimeouts = append(out.BridgeTimeouts, BridgeTimeout{BridgeID: id, Timeout: d})
	}
	return out
}

// GetTxPoolProfile is a pure, concurrent-safe read of the pipeline's
// last-observed pool snapshot.
func (p *Pipeline) GetTxPoolProfile() TxPoolProfile {
	p.mu.Lock()
	defer p.mu.Unlock()
	return deepcopy.Copy(p.profile).(TxPoolProfile)
}

func (p *Pipeline) run() {
	defer p.wg.Done()
	log.WithField("rollupID", p.rollupID).Info("pipeline started")

	timer := time.NewTimer(p.cfg.BaseTimeout)
	defer timer.Stop()

	for {
		select {
		case <-p.ctx.Done():
			log.Info("pipeline stopped")
			return
		case <-p.flush:
		case <-timer.C:
		}

		if err := p.attempt(); err != nil {
			if errors.Is(err, context.Canceled) {
				continue
			}
			log.WithError(err).Warn("pipeline attempt failed, will retry")
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(p.cfg.BaseTimeout)
	}
}

// attempt runs one pool-drain/build/publish cycle. Every await point is
// a cancellation safe point: if ctx is already cancelled before a step
// starts, the attempt abandons cleanly with no partial writes beyond
// rows already marked unsettled/pending, which the reset/recovery sweep
// owns.
func (p *Pipeline) attempt() error {
	if err := p.ctx.Err(); err != nil {
		return err
	}

	pending, err := p.rs.GetPendingTxs()
	if err != nil {
		return errors.Wrap(err, "load pending txs")
	}
	p.updateProfile(pending)
	if len(pending) == 0 {
		return nil
	}

	selected := p.builder.SelectPendingTxs(pending)
	if len(selected) == 0 {
		return nil
	}

	if err := p.ctx.Err(); err != nil {
		return err
	}

	proof, encoded, err := p.builder.BuildProof(p.ctx, p.rollupID, selected)
	if err != nil {
		return errors.Wrap(err, "build proof")
	}

	if err := p.ctx.Err(); err != nil {
		return err
	}

	if err := p.trees.ApplyRollupProof(proof); err != nil {
		return errors.Wrap(err, "stage rollup into trees")
	}

	rollupHash := proof.RollupHash.String()
	rp := &rollup.RollupProofDao{
		RollupHash:     rollupHash,
		RollupSize:     uint32(len(selected)),
		DataStartIndex: proof.DataStartIndex,
		ProofData:      encoded,
		Txs:            selected,
	}
	if err := p.rs.AddRollupProof(rp); err != nil {
		return errors.Wrap(err, "record tentative rollup proof")
	}

	unsettled := &rollup.RollupDao{
		RollupID:        p.rollupID,
		RollupProofHash: rollupHash,
		Created:         time.Now(),
	}
	if err := p.rs.AddRollup(unsettled); err != nil {
		return errors.Wrap(err, "record tentative rollup")
	}

	if err := p.chain.PublishRollup(proof, encoded, selected); err != nil {
		return errors.Wrap(err, "publish rollup")
	}

	log.WithFields(log.Fields{
		"rollupID":   p.rollupID,
		"rollupHash": rollupHash,
		"txCount":    len(selected),
	}).Info("published rollup proof")

	p.rollupID++
	return nil
}

func (p *Pipeline) updateProfile(pending []*rollup.TxDao) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.profile = TxPoolProfile{PendingCount: len(pending)}
	for i, tx := range pending {
		p.profile.PendingTxIDs = append(p.profile.PendingTxIDs, tx.TxID)
		if i == 0 || tx.Created.Before(p.profile.OldestCreated) {
			p.profile.OldestCreated = tx.Created
		}
	}
}
