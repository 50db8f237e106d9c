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

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/rollupdb/worldstate/crypto/hash"
)

// wordWidth is the byte width every big.Int field is padded to on the
// wire, matching the 254-bit field elements the circuits emit.
const wordWidth = 32

func writeHash(buf *bytes.Buffer, h hash.Hash) {
	buf.Write(h[:])
}

func readHash(r *bytes.Reader) (h hash.Hash, err error) {
	b := make([]byte, hash.Size)
	if _, err = r.Read(b); err != nil {
		return
	}
	err = h.SetBytes(b)
	return
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func readUint64(r *bytes.Reader) (uint64, error) {
	b := make([]byte, 8)
	if _, err := r.Read(b); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func readUint32(r *bytes.Reader) (uint32, error) {
	b := make([]byte, 4)
	if _, err := r.Read(b); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func writeBigInt(buf *bytes.Buffer, v *big.Int) {
	var word [wordWidth]byte
	if v != nil {
		v.FillBytes(word[:])
	}
	buf.Write(word[:])
}

func readBigInt(r *bytes.Reader) (*big.Int, error) {
	b := make([]byte, wordWidth)
	if _, err := r.Read(b); err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(b), nil
}

func writeInnerProof(buf *bytes.Buffer, p InnerProof) {
	buf.WriteByte(byte(p.ProofID))
	writeHash(buf, p.TxID)
	writeHash(buf, p.NoteCommitment1)
	writeHash(buf, p.NoteCommitment2)
	writeHash(buf, p.Nullifier1)
	writeHash(buf, p.Nullifier2)
	writeBigInt(buf, p.PublicInput)
	writeBigInt(buf, p.PublicOutput)
	writeUint64(buf, p.BridgeID)
	writeBigInt(buf, p.TxFee)
	writeUint32(buf, p.AssetID)
}

func readInnerProof(r *bytes.Reader) (p InnerProof, err error) {
	idByte, err := r.ReadByte()
	if err != nil {
		return
	}
	p.ProofID = ProofID(idByte)
	if p.TxID, err = readHash(r); err != nil {
		return
	}
	if p.NoteCommitment1, err = readHash(r); err != nil {
		return
	}
	if p.NoteCommitment2, err = readHash(r); err != nil {
		return
	}
	if p.Nullifier1, err = readHash(r); err != nil {
		return
	}
	if p.Nullifier2, err = readHash(r); err != nil {
		return
	}
	if p.PublicInput, err = readBigInt(r); err != nil {
		return
	}
	if p.PublicOutput, err = readBigInt(r); err != nil {
		return
	}
	if p.BridgeID, err = readUint64(r); err != nil {
		return
	}
	if p.TxFee, err = readBigInt(r); err != nil {
		return
	}
	p.AssetID, err = readUint32(r)
	return
}

func writeInteractionNote(buf *bytes.Buffer, n DefiInteractionNote) {
	writeUint64(buf, n.BridgeID)
	writeUint64(buf, n.Nonce)
	writeBigInt(buf, n.TotalInputValue)
	writeBigInt(buf, n.TotalOutputValueA)
	writeBigInt(buf, n.TotalOutputValueB)
	if n.Result {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
}

func readInteractionNote(r *bytes.Reader) (n DefiInteractionNote, err error) {
	if n.BridgeID, err = readUint64(r); err != nil {
		return
	}
	if n.Nonce, err = readUint64(r); err != nil {
		return
	}
	if n.TotalInputValue, err = readBigInt(r); err != nil {
		return
	}
	if n.TotalOutputValueA, err = readBigInt(r); err != nil {
		return
	}
	if n.TotalOutputValueB, err = readBigInt(r); err != nil {
		return
	}
	resByte, err := r.ReadByte()
	if err != nil {
		return
	}
	n.Result = resByte != 0
	return
}

// EncodeInnerProof serializes a single inner proof using the same fixed
// layout embedded in RollupProofData, for storage in TxDao.ProofData.
func EncodeInnerProof(p *InnerProof) []byte {
	buf := new(bytes.Buffer)
	writeInnerProof(buf, *p)
	return buf.Bytes()
}

// DecodeInnerProof is the inverse of EncodeInnerProof.
func DecodeInnerProof(data []byte) (*InnerProof, error) {
	rd := bytes.NewReader(data)
	p, err := readInnerProof(rd)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// EncodeRollupProofData serializes r using the fixed big-endian layout
// shared with the client-side decoder (spec §6: "the decoder is shared
// with clients and must be bit-exact").
func EncodeRollupProofData(r *RollupProofData) []byte {
	buf := new(bytes.Buffer)
	writeUint32(buf, r.RollupID)
	writeHash(buf, r.RollupHash)
	writeUint64(buf, r.DataStartIndex)
	writeHash(buf, r.NewDataRoot)
	writeHash(buf, r.NewNullRoot)
	writeHash(buf, r.NewDataRootsRoot)
	writeHash(buf, r.NewDefiRoot)
	for _, id := range r.BridgeIDs {
		writeUint64(buf, id)
	}
	writeUint32(buf, uint32(len(r.AssetIDs)))
	for _, id := range r.AssetIDs {
		writeUint32(buf, id)
	}
	for _, n := range r.DefiInteractionNotes {
		writeInteractionNote(buf, n)
	}
	writeUint32(buf, uint32(len(r.InnerProofData)))
	for _, p := range r.InnerProofData {
		writeInnerProof(buf, p)
	}
	return buf.Bytes()
}

// DecodeRollupProofData is the byte-exact inverse of
// EncodeRollupProofData.
func DecodeRollupProofData(data []byte) (r *RollupProofData, err error) {
	rd := bytes.NewReader(data)
	r = &RollupProofData{}

	if r.RollupID, err = readUint32(rd); err != nil {
		return nil, fmt.Errorf("decode rollupId: %w", err)
	}
	if r.RollupHash, err = readHash(rd); err != nil {
		return nil, fmt.Errorf("decode rollupHash: %w", err)
	}
	if r.DataStartIndex, err = readUint64(rd); err != nil {
		return nil, fmt.Errorf("decode dataStartIndex: %w", err)
	}
	if r.NewDataRoot, err = readHash(rd); err != nil {
		return nil, err
	}
	if r.NewNullRoot, err = readHash(rd); err != nil {
		return nil, err
	}
	if r.NewDataRootsRoot, err = readHash(rd); err != nil {
		return nil, err
	}
	if r.NewDefiRoot, err = readHash(rd); err != nil {
		return nil, err
	}
	for i := range r.BridgeIDs {
		if r.BridgeIDs[i], err = readUint64(rd); err != nil {
			return nil, err
		}
	}
	numAssets, err := readUint32(rd)
	if err != nil {
		return nil, err
	}
	r.AssetIDs = make([]uint32, numAssets)
	for i := range r.AssetIDs {
		if r.AssetIDs[i], err = readUint32(rd); err != nil {
			return nil, err
		}
	}
	for i := range r.DefiInteractionNotes {
		if r.DefiInteractionNotes[i], err = readInteractionNote(rd); err != nil {
			return nil, err
		}
	}
	numProofs, err := readUint32(rd)
	if err != nil {
		return nil, err
	}
	r.InnerProofData = make([]InnerProof, numProofs)
	for i := range r.InnerProofData {
		if r.InnerProofData[i], err = readInnerProof(rd); err != nil {
			return nil, fmt.Errorf("decode innerProof[%d]: %w", i, err)
		}
	}
	return r, nil
}

// EncodeInteractionNote serializes a single note using its fixed-width
// layout, with no length prefix — the format the DEFI tree stores one
// leaf as (spec §3: DefiInteractionNote "serializes to a fixed byte
// width"). Use EncodeInteractionNotes instead for the length-prefixed
// multi-note form stored in RollupDao.InteractionResult.
func EncodeInteractionNote(n DefiInteractionNote) []byte {
	buf := new(bytes.Buffer)
	writeInteractionNote(buf, n)
	return buf.Bytes()
}

// DecodeInteractionNote is the inverse of EncodeInteractionNote.
func DecodeInteractionNote(data []byte) (DefiInteractionNote, error) {
	rd := bytes.NewReader(data)
	return readInteractionNote(rd)
}

// EncodeInteractionNotes packs a rollup's defi interaction results for
// storage in RollupDao.InteractionResult.
func EncodeInteractionNotes(notes []DefiInteractionNote) []byte {
	buf := new(bytes.Buffer)
	writeUint32(buf, uint32(len(notes)))
	for _, n := range notes {
		writeInteractionNote(buf, n)
	}
	return buf.Bytes()
}

// DecodeInteractionNotes is the inverse of EncodeInteractionNotes.
func DecodeInteractionNotes(data []byte) ([]DefiInteractionNote, error) {
	rd := bytes.NewReader(data)
	count, err := readUint32(rd)
	if err != nil {
		return nil, err
	}
	notes := make([]DefiInteractionNote, count)
	for i := range notes {
		if notes[i], err = readInteractionNote(rd); err != nil {
			return nil, err
		}
	}
	return notes, nil
}

// OffchainDefiDepositData is the off-chain blob paired with a
// DEFI_DEPOSIT inner proof, carrying the fields needed to build the
// pending claim (spec §4.5.6).
type OffchainDefiDepositData struct {
	BridgeID              uint64
	PartialState          hash.Hash
	PartialStateSecretEphPubKey []byte
	DepositValue          *big.Int
	TxFee                 *big.Int
}

// EncodeOffchainDefiDepositData is the inverse of
// DecodeOffchainDefiDepositData, used by the proof builder to produce
// the off-chain blob paired with a DEFI_DEPOSIT inner proof.
func EncodeOffchainDefiDepositData(d *OffchainDefiDepositData) []byte {
	buf := new(bytes.Buffer)
	writeUint64(buf, d.BridgeID)
	writeHash(buf, d.PartialState)
	buf.Write(d.PartialStateSecretEphPubKey)
	writeBigInt(buf, d.DepositValue)
	writeBigInt(buf, d.TxFee)
	return buf.Bytes()
}

// DecodeOffchainDefiDepositData decodes one DEFI_DEPOSIT off-chain blob.
func DecodeOffchainDefiDepositData(data []byte) (d *OffchainDefiDepositData, err error) {
	rd := bytes.NewReader(data)
	d = &OffchainDefiDepositData{}
	if d.BridgeID, err = readUint64(rd); err != nil {
		return nil, err
	}
	if d.PartialState, err = readHash(rd); err != nil {
		return nil, err
	}
	d.PartialStateSecretEphPubKey = make([]byte, 33)
	if _, err = rd.Read(d.PartialStateSecretEphPubKey); err != nil {
		return nil, err
	}
	if d.DepositValue, err = readBigInt(rd); err != nil {
		return nil, err
	}
	if d.TxFee, err = readBigInt(rd); err != nil {
		return nil, err
	}
	return d, nil
}
