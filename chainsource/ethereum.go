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
	"context"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"

	"github.com/rollupdb/worldstate/crypto/hash"
	"github.com/rollupdb/worldstate/rollup"
	"github.com/rollupdb/worldstate/utils/log"
)

// rollupContractABI describes the subset of the on-chain rollup
// contract's interface this package drives: the RollupProcessed event
// every settled rollup emits, the processRollup entry point the pipeline
// calls to publish one, and the read-only per-asset balance getter asset
// metrics polls.
const rollupContractABI = `[
	{"anonymous":false,"inputs":[
		{"indexed":true,"name":"rollupId","type":"uint256"},
		{"indexed":false,"name":"rollupProofData","type":"bytes"},
		{"indexed":false,"name":"offchainTxData","type":"bytes[]"}
	],"name":"RollupProcessed","type":"event"},
	{"constant":false,"inputs":[
		{"name":"proofData","type":"bytes"},
		{"name":"offchainTxData","type":"bytes[]"}
	],"name":"processRollup","outputs":[],"type":"function"},
	{"constant":true,"inputs":[{"name":"assetId","type":"uint256"}],
		"name":"getRollupBalance","outputs":[{"name":"","type":"uint256"}],"type":"function"}
]`

// pollInterval is how often EthChainSource checks for new confirmed
// logs. Ethereum block times make anything sub-second wasted work.
const pollInterval = 4 * time.Second

// EthChainSource adapts an Ethereum JSON-RPC endpoint into a
// ChainSource: settled rollups are RollupProcessed event logs on the
// configured contract, and PublishRollup submits a processRollup
// transaction signed by the configured account.
type EthChainSource struct {
	client   *ethclient.Client
	contract common.Address
	abi      abi.ABI
	signer   *bind.TransactOpts
	chainID  *big.Int

	mu        sync.Mutex
	handler   func(*rollup.Block)
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	fromBlock uint64
}

// NewEthChainSource dials rpcURL and binds to the rollup contract at
// contractAddr. signer is used only for PublishRollup; pass nil for a
// read-only source.
func NewEthChainSource(ctx context.Context, rpcURL string, contractAddr common.Address,
	signer *bind.TransactOpts) (*EthChainSource, error) {

	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, errors.Wrap(err, "dial ethereum rpc")
	}
	parsed, err := abi.JSON(strings.NewReader(rollupContractABI))
	if err != nil {
		return nil, errors.Wrap(err, "parse rollup contract abi")
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "get chain id")
	}
	return &EthChainSource{
		client:   client,
		contract: contractAddr,
		abi:      parsed,
		signer:   signer,
		chainID:  chainID,
	}, nil
}

// OnBlock implements ChainSource.
func (e *EthChainSource) OnBlock(handler func(*rollup.Block)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handler = handler
}

// GetChainID implements ChainSource.
func (e *EthChainSource) GetChainID() (uint32, error) {
	return uint32(e.chainID.Uint64()), nil
}

// Start implements ChainSource: it launches a goroutine polling for new
// RollupProcessed logs and delivering them, in rollup id order, to the
// registered handler. fromRollupID is not used: the live feed starts
// tailing from the chain's current head, so rollups settled before that
// head are not delivered to the handler and are only reachable through
// GetBlocks.
func (e *EthChainSource) Start(fromRollupID uint32) error {
	head, err := e.client.BlockNumber(context.Background())
	if err != nil {
		return errors.Wrap(err, "get chain head")
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.mu.Lock()
	e.cancel = cancel
	e.fromBlock = head
	e.mu.Unlock()

	e.wg.Add(1)
	go e.poll(ctx)
	return nil
}

// Stop implements ChainSource.
func (e *EthChainSource) Stop() {
	e.mu.Lock()
	cancel := e.cancel
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	e.wg.Wait()
}

func (e *EthChainSource) poll(ctx context.Context) {
	defer e.wg.Done()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		head, err := e.client.BlockNumber(ctx)
		if err != nil {
			log.WithError(err).Warn("poll rollup contract: get chain head")
			continue
		}
		e.mu.Lock()
		from := e.fromBlock
		e.mu.Unlock()
		if head <= from {
			continue
		}

		blocks, newFrom, err := e.fetchLogs(ctx, from+1, head)
		if err != nil {
			log.WithError(err).Warn("poll rollup contract: fetch logs")
			continue
		}
		e.mu.Lock()
		e.fromBlock = newFrom
		handler := e.handler
		e.mu.Unlock()

		if handler != nil {
			for _, b := range blocks {
				handler(b)
			}
		}
	}
}

// GetBlocks implements ChainSource: a bounded historical replay from
// the contract's genesis block, used only at startup to catch up.
func (e *EthChainSource) GetBlocks(from uint32) ([]*rollup.Block, error) {
	ctx := context.Background()
	head, err := e.client.BlockNumber(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "get chain head")
	}
	blocks, _, err := e.fetchLogs(ctx, 0, head)
	if err != nil {
		return nil, err
	}
	var out []*rollup.Block
	for _, b := range blocks {
		if b.RollupID >= from {
			out = append(out, b)
		}
	}
	return out, nil
}

func (e *EthChainSource) fetchLogs(ctx context.Context, fromBlock, toBlock uint64) ([]*rollup.Block, uint64, error) {
	eventSig := e.abi.Events["RollupProcessed"].ID
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{e.contract},
		Topics:    [][]common.Hash{{eventSig}},
	}
	logs, err := e.client.FilterLogs(ctx, query)
	if err != nil {
		return nil, fromBlock, errors.Wrap(err, "filter rollup processed logs")
	}

	blocks := make([]*rollup.Block, 0, len(logs))
	for _, lg := range logs {
		b, err := e.decodeBlock(ctx, lg)
		if err != nil {
			return nil, fromBlock, errors.Wrapf(err, "decode rollup log at block %d", lg.BlockNumber)
		}
		blocks = append(blocks, b)
	}
	return blocks, toBlock, nil
}

func (e *EthChainSource) decodeBlock(ctx context.Context, lg types.Log) (*rollup.Block, error) {
	var event struct {
		RollupProofData []byte
		OffchainTxData  [][]byte
	}
	if err := e.abi.UnpackIntoInterface(&event, "RollupProcessed", lg.Data); err != nil {
		return nil, errors.Wrap(err, "unpack rollup processed event")
	}
	if len(lg.Topics) < 2 {
		return nil, errors.New("rollup processed log missing indexed rollup id topic")
	}
	rollupID := uint32(new(big.Int).SetBytes(lg.Topics[1].Bytes()).Uint64())

	header, err := e.client.HeaderByHash(ctx, lg.BlockHash)
	if err != nil {
		return nil, errors.Wrap(err, "get block header")
	}
	receipt, err := e.client.TransactionReceipt(ctx, lg.TxHash)
	if err != nil {
		return nil, errors.Wrap(err, "get transaction receipt")
	}
	tx, _, err := e.client.TransactionByHash(ctx, lg.TxHash)
	if err != nil {
		return nil, errors.Wrap(err, "get transaction")
	}

	var ethTxHash hash.Hash
	if err := ethTxHash.SetBytes(lg.TxHash.Bytes()); err != nil {
		return nil, errors.Wrap(err, "decode eth tx hash")
	}

	proof, err := rollup.DecodeRollupProofData(event.RollupProofData)
	if err != nil {
		return nil, errors.Wrap(err, "decode rollup proof data")
	}

	return &rollup.Block{
		RollupID:        rollupID,
		Created:         time.Unix(int64(header.Time), 0),
		EthTxHash:       ethTxHash,
		RollupSize:      uint32(len(proof.NonPadding())),
		RollupProofData: event.RollupProofData,
		OffchainTxData:  event.OffchainTxData,
		GasUsed:         receipt.GasUsed,
		GasPrice:        tx.GasPrice(),
	}, nil
}

// GetRollupBalance implements ChainSource.
func (e *EthChainSource) GetRollupBalance(assetID uint32) (int64, error) {
	packed, err := e.abi.Pack("getRollupBalance", new(big.Int).SetUint64(uint64(assetID)))
	if err != nil {
		return 0, errors.Wrap(err, "pack getRollupBalance call")
	}
	out, err := e.client.CallContract(context.Background(), ethereum.CallMsg{
		To:   &e.contract,
		Data: packed,
	}, nil)
	if err != nil {
		return 0, errors.Wrap(err, "call getRollupBalance")
	}
	var balance *big.Int
	if err := e.abi.UnpackIntoInterface(&balance, "getRollupBalance", out); err != nil {
		return 0, errors.Wrap(err, "unpack getRollupBalance result")
	}
	return balance.Int64(), nil
}

// offchainBlobsFor extracts the off-chain blob to submit alongside each
// non-padding inner proof in proof, in order. txs must align 1:1 with
// proof.InnerProofData in build order, as NoteBuilder.BuildProof
// produces them; the blob carried for each is that tx's own
// TxDao.OffchainTxData, so a defi deposit's OffchainDefiDepositData
// travels with the rollup and can be decoded again once this same
// proof settles and comes back through OnBlock.
func offchainBlobsFor(proof *rollup.RollupProofData, txs []*rollup.TxDao) ([][]byte, error) {
	if len(txs) != len(proof.InnerProofData) {
		return nil, errors.Errorf("publish rollup: %d txs does not match %d inner proofs", len(txs), len(proof.InnerProofData))
	}
	offchain := make([][]byte, 0, len(proof.NonPadding()))
	for i := range proof.InnerProofData {
		if proof.InnerProofData[i].IsPadding() {
			continue
		}
		offchain = append(offchain, txs[i].OffchainTxData)
	}
	return offchain, nil
}

// PublishRollup implements ChainSource.
func (e *EthChainSource) PublishRollup(proof *rollup.RollupProofData, encoded []byte, txs []*rollup.TxDao) error {
	if e.signer == nil {
		return errors.New("eth chain source has no signer configured, cannot publish")
	}
	offchain, err := offchainBlobsFor(proof, txs)
	if err != nil {
		return err
	}
	packed, err := e.abi.Pack("processRollup", encoded, offchain)
	if err != nil {
		return errors.Wrap(err, "pack processRollup call")
	}

	nonce, err := e.client.PendingNonceAt(context.Background(), e.signer.From)
	if err != nil {
		return errors.Wrap(err, "get pending nonce")
	}
	gasPrice, err := e.client.SuggestGasPrice(context.Background())
	if err != nil {
		return errors.Wrap(err, "suggest gas price")
	}
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &e.contract,
		Value:    big.NewInt(0),
		Gas:      3_000_000,
		GasPrice: gasPrice,
		Data:     packed,
	})
	signed, err := e.signer.Signer(e.signer.From, tx)
	if err != nil {
		return errors.Wrap(err, "sign processRollup transaction")
	}
	if err := e.client.SendTransaction(context.Background(), signed); err != nil {
		return errors.Wrap(err, "send processRollup transaction")
	}
	return nil
}
