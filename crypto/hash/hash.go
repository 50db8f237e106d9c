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

// Package hash provides the fixed-width digest type shared by the tree
// store and the rollup proof decoder.
package hash

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Size is the width in bytes of every root and leaf digest handled by
// the tree store.
const Size = 32

// MaxStringSize is the maximum length of a hex-encoded Hash.
const MaxStringSize = Size * 2

// ErrStrSize indicates the caller passed a hex string longer than a Hash
// can hold.
var ErrStrSize = fmt.Errorf("max hash string length is %v bytes", MaxStringSize)

// Hash is a 32-byte digest, used for tree roots, leaf commitments,
// rollup hashes and eth tx hashes alike.
type Hash [Size]byte

// String returns the plain (non-reversed) hex encoding of h.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is the all-zero digest, the sentinel used for
// padding entries and unset defi interaction notes.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// Bytes returns a copy of the underlying bytes.
func (h Hash) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, h[:])
	return out
}

// SetBytes sets the bytes represented by h. An error is returned if b is
// not exactly Size bytes long.
func (h *Hash) SetBytes(b []byte) error {
	if len(b) != Size {
		return fmt.Errorf("invalid hash length of %v, want %v", len(b), Size)
	}
	copy(h[:], b)
	return nil
}

// NewHash builds a Hash from a byte slice of the expected width.
func NewHash(b []byte) (h Hash, err error) {
	err = h.SetBytes(b)
	return
}

// NewHashFromStr decodes the hex string produced by String.
func NewHashFromStr(s string) (h Hash, err error) {
	if len(s) > MaxStringSize {
		err = ErrStrSize
		return
	}
	b, decErr := hex.DecodeString(s)
	if decErr != nil {
		err = decErr
		return
	}
	copy(h[Size-len(b):], b)
	return
}

// MarshalJSON implements json.Marshaler.
func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (h *Hash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	got, err := NewHashFromStr(s)
	if err != nil {
		return err
	}
	*h = got
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (h Hash) MarshalYAML() (interface{}, error) {
	return h.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (h *Hash) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	got, err := NewHashFromStr(s)
	if err != nil {
		return err
	}
	*h = got
	return nil
}
