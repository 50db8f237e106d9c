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

// Package config loads the synchronizer's yaml configuration file.
package config

import (
	"io/ioutil"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Config holds everything read from the synchronizer's yaml config
// file.
type Config struct {
	// ChainID identifies which network's init files and chain source
	// this synchronizer instance is attached to.
	ChainID uint32 `yaml:"ChainID"`

	// TreeDataDir is the leveldb directory holding the tree store's
	// committed nodes and tree sizes.
	TreeDataDir string `yaml:"TreeDataDir"`

	// SQLiteDSN is the data source name passed to database/sql for the
	// relational store.
	SQLiteDSN string `yaml:"SQLiteDSN"`

	// InitFileDir holds the per-chain-id account roster and expected
	// root files consumed by init-from-files.
	InitFileDir string `yaml:"InitFileDir"`

	// PipelineBaseTimeout is how long the pipeline waits between pool
	// checks absent an explicit flush.
	PipelineBaseTimeout time.Duration `yaml:"PipelineBaseTimeout"`

	// PipelineBridgeTimeouts holds per-bridge-id publish timeouts,
	// surfaced verbatim via GetNextPublishTime; the pipeline loop itself
	// paces only on PipelineBaseTimeout.
	PipelineBridgeTimeouts map[uint64]time.Duration `yaml:"PipelineBridgeTimeouts"`

	// MetricsListenAddr, if non-empty, is where the Prometheus /metrics
	// handler is served.
	MetricsListenAddr string `yaml:"MetricsListenAddr"`
}

// GConf is the process-global config pointer, set once by main after
// LoadConfig.
var GConf *Config

// LoadConfig reads and parses the yaml config file at configPath.
func LoadConfig(configPath string) (*Config, error) {
	raw, err := ioutil.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "read config file")
	}
	cfg := &Config{
		PipelineBaseTimeout: 30 * time.Second,
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config file")
	}
	return cfg, nil
}
