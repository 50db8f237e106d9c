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

package pipeline

import (
	"context"

	"github.com/pkg/errors"

	"github.com/rollupdb/worldstate/crypto/hash"
	"github.com/rollupdb/worldstate/rollup"
	"github.com/rollupdb/worldstate/tree"
)

// NoteBuilder is the default ProofBuilder: it decodes each selected tx's
// already-generated inner proof, assembles a RollupProofData around
// them, and previews the resulting tree roots by staging into trees
// itself before returning. attempt() stages the same proof again right
// after BuildProof returns; restaging identical leaf values is a no-op,
// so the preview does not race or double-count anything.
//
// Bridge-call assembly and defi interaction notes are out of scope here
// (ProofBuilder's own doc comment: "circuit construction, bridge
// coordination are out of scope"); NoteBuilder only covers
// deposit/withdraw/send/account txs. A defi-aware builder would embed
// NoteBuilder and layer bridge selection on top.
type NoteBuilder struct {
	trees *tree.Store
}

// NewNoteBuilder builds a NoteBuilder previewing roots against trees,
// the same Store the pipeline stages into.
func NewNoteBuilder(trees *tree.Store) *NoteBuilder {
	return &NoteBuilder{trees: trees}
}

// SelectPendingTxs implements ProofBuilder: every pending tx is eligible.
func (*NoteBuilder) SelectPendingTxs(pool []*rollup.TxDao) []*rollup.TxDao {
	return pool
}

// BuildProof implements ProofBuilder.
func (b *NoteBuilder) BuildProof(ctx context.Context, rollupID uint32,
	txs []*rollup.TxDao) (*rollup.RollupProofData, []byte, error) {

	proof := &rollup.RollupProofData{
		RollupID:       rollupID,
		DataStartIndex: b.trees.GetSize(rollup.TreeData),
		InnerProofData: make([]rollup.InnerProof, 0, len(txs)),
	}

	seenAssets := make(map[uint32]bool)
	commit := make([]byte, 0, len(txs)*hash.Size)
	for _, tx := range txs {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		p, err := rollup.DecodeInnerProof(tx.ProofData)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "decode inner proof for tx %s", tx.TxID)
		}
		proof.InnerProofData = append(proof.InnerProofData, *p)
		commit = append(commit, p.TxID.Bytes()...)
		if !seenAssets[p.AssetID] {
			seenAssets[p.AssetID] = true
			proof.AssetIDs = append(proof.AssetIDs, p.AssetID)
		}
	}
	proof.RollupHash = hash.HashH(commit)

	if err := b.trees.ApplyRollupProof(proof); err != nil {
		return nil, nil, errors.Wrap(err, "preview stage rollup proof")
	}
	proof.NewDataRoot = b.trees.GetRoot(rollup.TreeData)
	proof.NewNullRoot = b.trees.GetRoot(rollup.TreeNull)
	proof.NewDataRootsRoot = b.trees.GetRoot(rollup.TreeRoot)
	proof.NewDefiRoot = b.trees.GetRoot(rollup.TreeDefi)

	return proof, rollup.EncodeRollupProofData(proof), nil
}
