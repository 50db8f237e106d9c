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

package tree

import (
	"encoding/binary"

	"github.com/rollupdb/worldstate/crypto/hash"
)

// NullifierLeaf is the fixed 32-byte leaf value written into the NULL
// tree to record that a nullifier has been spent. Only its presence
// matters, so any distinct-from-default encoding would do; a trailing
// 1 byte matches the reference implementation's encode_one(32).
var NullifierLeaf = func() []byte {
	b := make([]byte, hash.Size)
	b[hash.Size-1] = 1
	return b
}()

// NullifierIndex maps a 32-byte nullifier onto the NULL tree's Depth-level
// index space by taking its low 32 bits big-endian. Depth bounds the
// addressable leaf count to 2^32, so only the low 4 bytes of the
// field-element-sized nullifier can ever affect the root; collisions
// beyond that width are accepted the same way any fixed-depth sparse
// tree accepts them.
func NullifierIndex(n hash.Hash) uint64 {
	return uint64(binary.BigEndian.Uint32(n[hash.Size-4:]))
}
