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
	"encoding/binary"

	"github.com/rollupdb/worldstate/crypto/hash"
)

// KeccakNoteAlgorithms derives claim-note commitments and nullifiers the
// same way the on-chain verifier circuit does: by keccak256-hashing the
// field elements in slot order and merging the result with the
// caller-supplied partial state, mirroring the two-child merge tree.go
// uses for internal Merkle nodes.
type KeccakNoteAlgorithms struct{}

// ComputeClaimNoteCommitment implements NoteAlgorithms.
func (KeccakNoteAlgorithms) ComputeClaimNoteCommitment(bridgeID uint64, depositValue []byte,
	interactionNonce uint64, partialState hash.Hash) (hash.Hash, error) {

	buf := make([]byte, 0, 8+len(depositValue)+8)
	buf = binary.BigEndian.AppendUint64(buf, bridgeID)
	buf = append(buf, depositValue...)
	buf = binary.BigEndian.AppendUint64(buf, interactionNonce)
	fields := hash.HashH(buf)
	return hash.MergeTwoHash(fields, partialState), nil
}

// ComputeNullifier implements NoteAlgorithms.
func (KeccakNoteAlgorithms) ComputeNullifier(commitment hash.Hash, index uint64) (hash.Hash, error) {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, index)
	return hash.MergeTwoHash(commitment, hash.HashH(buf)), nil
}
