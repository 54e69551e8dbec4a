// Copyright (c) 2016 BLOCKO INC.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"github.com/coinstack/btcutil"

	"github.com/coinstack/scryptminer/blockchain"
	"github.com/coinstack/scryptminer/chainmaker"
	"github.com/coinstack/scryptminer/event"
	"github.com/coinstack/scryptminer/mempool"
	"github.com/coinstack/scryptminer/mining"
)

// defaultCoinbaseFlags is stamped into the coinbase's signature script,
// matching the genesisblock.go convention.
const defaultCoinbaseFlags = "/scryptminer/"

// defaultMaxMempoolEntries bounds the in-process TxPool's gcache LRU.
const defaultMaxMempoolEntries = 50000

// defaultPolicy builds a mining.Policy from the parsed config.
// BlockMaxWeight is copied as configured; NewBlockTemplate applies the
// consensus sanity clamp to it.
func defaultPolicy(c *config) *mining.Policy {
	return &mining.Policy{
		BlockMinSize:      c.BlockMinSize,
		BlockMaxSize:      c.BlockMaxSize,
		BlockPrioritySize: c.BlockPrioritySize,
		BlockGenSeqMode:   true,
		BlockMaxWeight:    c.BlockMaxWeight,
		BlockMinFeeRate:   c.BlockMinTxFee,
		MineWitness:       c.MineWitness,
		PrintPriority:     c.PrintPriority,
	}
}

func scryptminerMain() error {
	var err error
	cfg, err = loadConfig()
	if err != nil {
		return err
	}
	activeNetParams = cfg.chainParams

	initSeelogLogger(*cfg)
	setLogLevels(cfg.DebugLevel)
	defer backendLog.Flush()

	go event.Run(30)

	genesisAddr := randomAddrOrNil(cfg.miningAddrs)
	genesis, err := chainmaker.CreateGenesisBlock(defaultCoinbaseFlags, 8, genesisAddr)
	if err != nil {
		return fmt.Errorf("failed to create genesis block: %v", err)
	}
	minrLog.Infof("genesis block hash %s", genesis.Header.BlockSha())

	chainState := newLocalChainState(activeNetParams, genesis)
	chainView := ChainView{
		Tip:                chainState.Tip,
		SubmitBlock:        chainState.SubmitBlock,
		ConnectedPeerCount: chainState.ConnectedPeerCount,
		IsCurrent:          chainState.IsCurrent,
	}

	txPool := mempool.NewTxPool(defaultMaxMempoolEntries)
	generator := mining.NewBlkTmplGenerator(defaultPolicy(cfg), activeNetParams,
		txPool, chainState, blockchain.ScryptHeaderHash)

	miner := newCPUMiner(generator, txPool, blockchain.ScryptHeaderHash, chainView,
		defaultCoinbaseFlags, cfg.miningAddrs, cfg.MaxHashRate, cfg.CoordMiningEndpoint)

	if cfg.NumWorkers >= 0 {
		miner.SetNumWorkers(int32(cfg.NumWorkers))
	}
	if cfg.Generate {
		miner.Start()
		defer miner.Stop()
	}

	telemetry := NewTelemetryServer(miner, cfg.RESTListen)
	go func() {
		if err := telemetry.Run(); err != nil {
			minrLog.Errorf("telemetry server exited: %v", err)
		}
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	<-interrupt
	minrLog.Infof("received shutdown signal")
	return nil
}

// randomAddrOrNil picks a random payment address for the genesis coinbase,
// or nil (anyone-can-spend) when none were configured.
func randomAddrOrNil(addrs []btcutil.Address) btcutil.Address {
	if len(addrs) == 0 {
		return nil
	}
	return addrs[rand.Intn(len(addrs))]
}

func main() {
	if err := scryptminerMain(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
