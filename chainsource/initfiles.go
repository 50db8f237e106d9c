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
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/rollupdb/worldstate/crypto/hash"
)

// DirInitFileReader reads the per-chain-id account roster and expected
// root files from a directory laid out as:
//
//	<dir>/<chainID>/accounts.csv   - aliasHash,accountPubKey,dataLeaf,nullifier (hex columns)
//	<dir>/<chainID>/roots.csv      - dataRoot,nullRoot,rootsRoot (hex, single row)
//
// Either file may be absent; GetAccountDataFile and GetInitRoots both
// treat that as "no init data for this chain" rather than an error, per
// spec.md §4.5.1.
type DirInitFileReader struct {
	Dir string
}

// GetAccountDataFile implements InitFileReader.
func (d *DirInitFileReader) GetAccountDataFile(chainID uint32) (string, error) {
	path := filepath.Join(d.Dir, fmt.Sprintf("%d", chainID), "accounts.csv")
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errors.Wrap(err, "stat account data file")
	}
	return path, nil
}

// ReadAccountTreeData implements InitFileReader.
func (d *DirInitFileReader) ReadAccountTreeData(path string) ([]InitAccountRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open account data file")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 4

	var out []InitAccountRecord
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read account data row")
		}
		rec := InitAccountRecord{}
		if rec.AliasHash, err = decodeHexColumn(row[0]); err != nil {
			return nil, errors.Wrap(err, "decode alias hash column")
		}
		if rec.AccountPubKey, err = decodeHexColumn(row[1]); err != nil {
			return nil, errors.Wrap(err, "decode account pub key column")
		}
		if rec.DataLeaf, err = decodeHexColumn(row[2]); err != nil {
			return nil, errors.Wrap(err, "decode data leaf column")
		}
		if rec.Nullifier, err = decodeHexColumn(row[3]); err != nil {
			return nil, errors.Wrap(err, "decode nullifier column")
		}
		out = append(out, rec)
	}
	return out, nil
}

// GetInitRoots implements InitFileReader.
func (d *DirInitFileReader) GetInitRoots(chainID uint32) (InitRoots, error) {
	path := filepath.Join(d.Dir, fmt.Sprintf("%d", chainID), "roots.csv")
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return InitRoots{}, nil
		}
		return InitRoots{}, errors.Wrap(err, "open roots file")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 3
	row, err := r.Read()
	if err != nil {
		return InitRoots{}, errors.Wrap(err, "read roots row")
	}

	var roots InitRoots
	if roots.DataRoot, err = hash.NewHashFromStr(row[0]); err != nil {
		return InitRoots{}, errors.Wrap(err, "decode data root")
	}
	if roots.NullRoot, err = hash.NewHashFromStr(row[1]); err != nil {
		return InitRoots{}, errors.Wrap(err, "decode null root")
	}
	if roots.RootsRoot, err = hash.NewHashFromStr(row[2]); err != nil {
		return InitRoots{}, errors.Wrap(err, "decode roots root")
	}
	return roots, nil
}

func decodeHexColumn(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	h, err := hash.NewHashFromStr(s)
	if err != nil {
		return nil, err
	}
	return h.Bytes(), nil
}
