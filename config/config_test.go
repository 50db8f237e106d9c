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

package config

import (
	"io/ioutil"
	"path/filepath"
	"testing"
	"time"
)

const testConfigYAML = `
ChainID: 1
TreeDataDir: /var/lib/rollupstate/trees
SQLiteDSN: /var/lib/rollupstate/state.db
InitFileDir: /etc/rollupstate/init
PipelineBaseTimeout: 45s
PipelineBridgeTimeouts:
  2: 10s
MetricsListenAddr: :9090
`

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := ioutil.WriteFile(path, []byte(testConfigYAML), 0o644); err != nil {
		t.Fatalf("write test config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ChainID != 1 {
		t.Fatalf("expected chain id 1, got %d", cfg.ChainID)
	}
	if cfg.PipelineBaseTimeout != 45*time.Second {
		t.Fatalf("expected base timeout 45s, got %s", cfg.PipelineBaseTimeout)
	}
	if cfg.PipelineBridgeTimeouts[2] != 10*time.Second {
		t.Fatalf("expected bridge 2 timeout 10s, got %s", cfg.PipelineBridgeTimeouts[2])
	}
	if cfg.MetricsListenAddr != ":9090" {
		t.Fatalf("expected metrics addr :9090, got %q", cfg.MetricsListenAddr)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/config.yaml"); err == nil {
		t.Fatalf("expected an error for a missing config file")
	}
}
