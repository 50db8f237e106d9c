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

package hash

import (
	"github.com/ethereum/go-ethereum/crypto"
)

// HashB calculates keccak256(b) and returns the resulting bytes.
//
// The tree store and the rollup proof decoder need to interoperate with
// on-chain verification, so leaf and node digests use the same hash the
// rest of the ecosystem verifies against rather than a bitcoin-style
// double-sha256.
func HashB(b []byte) []byte {
	return crypto.Keccak256(b)
}

// HashH calculates keccak256(b) and returns the resulting bytes as a Hash.
func HashH(b []byte) Hash {
	return Hash(crypto.Keccak256Hash(b))
}

// MergeTwoHash computes the parent node digest of two child digests.
func MergeTwoHash(l, r Hash) Hash {
	buf := make([]byte, 0, Size*2)
	buf = append(buf, l[:]...)
	buf = append(buf, r[:]...)
	return HashH(buf)
}
