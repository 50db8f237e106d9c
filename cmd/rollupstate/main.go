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

// Command rollupstate runs the world-state synchronizer as a standalone
// process: it loads its yaml config, wires the tree store, relational
// store, block cache and Ethereum chain source together, and serves
// Prometheus metrics until interrupted.
package main

import (
	"context"
	"flag"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rollupdb/worldstate/blockcache"
	"github.com/rollupdb/worldstate/blockqueue"
	"github.com/rollupdb/worldstate/chainsource"
	"github.com/rollupdb/worldstate/config"
	"github.com/rollupdb/worldstate/pipeline"
	"github.com/rollupdb/worldstate/store"
	"github.com/rollupdb/worldstate/tree"
	"github.com/rollupdb/worldstate/utils"
	"github.com/rollupdb/worldstate/utils/log"
	"github.com/rollupdb/worldstate/worldstate"
)

var (
	configPath = flag.String("config", "config.yaml", "path to the synchronizer's yaml config file")
	rpcURL     = flag.String("rpc", "", "Ethereum JSON-RPC endpoint the chain source dials")
	contract   = flag.String("contract", "", "rollup contract address")
	privateKey = flag.String("private-key", "", "hex-encoded private key used to publish rollups; read-only if empty")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	config.GConf = cfg

	trees := tree.NewStore(cfg.TreeDataDir)

	rs, err := store.OpenSQLStore(cfg.SQLiteDSN)
	if err != nil {
		log.Fatalf("open relational store: %v", err)
	}
	defer rs.Close()

	cache, err := blockcache.New()
	if err != nil {
		log.Fatalf("create block cache: %v", err)
	}

	registry := prometheus.NewRegistry()
	metrics, err := chainsource.NewPrometheusMetricsSink(registry)
	if err != nil {
		log.Fatalf("create metrics sink: %v", err)
	}

	chain, err := newChainSource(cfg)
	if err != nil {
		log.Fatalf("create chain source: %v", err)
	}

	initFiles := &chainsource.DirInitFileReader{Dir: cfg.InitFileDir}
	notes := chainsource.KeccakNoteAlgorithms{}
	builder := pipeline.NewNoteBuilder(trees)

	w := worldstate.New(worldstate.Config{
		ChainID: cfg.ChainID,
		PipelineCfg: pipeline.Config{
			BaseTimeout:    cfg.PipelineBaseTimeout,
			BridgeTimeouts: cfg.PipelineBridgeTimeouts,
		},
	}, trees, rs, blockqueue.New(), cache, chain, metrics, initFiles, notes, builder)

	if err := w.Start(); err != nil {
		log.Fatalf("start synchronizer: %v", err)
	}

	if cfg.MetricsListenAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: cfg.MetricsListenAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Warn("metrics server exited")
			}
		}()
		defer srv.Shutdown(context.Background())
	}

	<-utils.WaitForExit()

	log.Info("shutting down world-state synchronizer")
	if err := w.Stop(); err != nil {
		log.WithError(err).Warn("stop synchronizer")
	}
}

func newChainSource(cfg *config.Config) (*chainsource.EthChainSource, error) {
	var signer *bind.TransactOpts
	if *privateKey != "" {
		key, err := crypto.HexToECDSA(*privateKey)
		if err != nil {
			return nil, err
		}
		signer, err = bind.NewKeyedTransactorWithChainID(key, new(big.Int).SetUint64(uint64(cfg.ChainID)))
		if err != nil {
			return nil, err
		}
	}
	return chainsource.NewEthChainSource(context.Background(), *rpcURL, common.HexToAddress(*contract), signer)
}
