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
	"os"
	"path/filepath"
	"testing"

	"github.com/rollupdb/worldstate/crypto/hash"
)

func TestDirInitFileReaderNoFilesIsNotAnError(t *testing.T) {
	r := &DirInitFileReader{Dir: t.TempDir()}

	path, err := r.GetAccountDataFile(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "" {
		t.Fatalf("expected empty path for a missing chain dir, got %q", path)
	}

	roots, err := r.GetInitRoots(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !roots.DataRoot.IsZero() || !roots.NullRoot.IsZero() || !roots.RootsRoot.IsZero() {
		t.Fatalf("expected zero roots for a missing chain dir, got %+v", roots)
	}
}

func TestDirInitFileReaderReadsAccountsAndRoots(t *testing.T) {
	dir := t.TempDir()
	chainDir := filepath.Join(dir, "1")
	if err := os.MkdirAll(chainDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	alias := hash.HashH([]byte("alias"))
	pubkey := hash.HashH([]byte("pubkey"))
	leaf := hash.HashH([]byte("leaf"))
	nullifier := hash.HashH([]byte("nullifier"))

	accountsCSV := alias.String() + "," + pubkey.String() + "," + leaf.String() + "," + nullifier.String() + "\n"
	if err := os.WriteFile(filepath.Join(chainDir, "accounts.csv"), []byte(accountsCSV), 0o644); err != nil {
		t.Fatalf("write accounts.csv: %v", err)
	}

	dataRoot := hash.HashH([]byte("data-root"))
	nullRoot := hash.HashH([]byte("null-root"))
	rootsRoot := hash.HashH([]byte("roots-root"))
	rootsCSV := dataRoot.String() + "," + nullRoot.String() + "," + rootsRoot.String() + "\n"
	if err := os.WriteFile(filepath.Join(chainDir, "roots.csv"), []byte(rootsCSV), 0o644); err != nil {
		t.Fatalf("write roots.csv: %v", err)
	}

	r := &DirInitFileReader{Dir: dir}

	path, err := r.GetAccountDataFile(1)
	if err != nil {
		t.Fatalf("get account data file: %v", err)
	}
	if path == "" {
		t.Fatal("expected a non-empty account data file path")
	}

	records, err := r.ReadAccountTreeData(path)
	if err != nil {
		t.Fatalf("read account tree data: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 account record, got %d", len(records))
	}
	if got, _ := hash.NewHash(records[0].AliasHash); got != alias {
		t.Fatalf("alias hash mismatch: got %x want %x", got, alias)
	}

	roots, err := r.GetInitRoots(1)
	if err != nil {
		t.Fatalf("get init roots: %v", err)
	}
	if roots.DataRoot != dataRoot || roots.NullRoot != nullRoot || roots.RootsRoot != rootsRoot {
		t.Fatalf("roots mismatch: got %+v", roots)
	}
}
