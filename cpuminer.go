// Copyright (c) 2016 BLOCKO INC.
// Copyright (c) 2014 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/coinstack/btcutil"

	"github.com/coinstack/scryptminer/blockchain"
	"github.com/coinstack/scryptminer/event"
	"github.com/coinstack/scryptminer/mempool"
	"github.com/coinstack/scryptminer/mining"
	"github.com/coinstack/scryptminer/wire"
)

const (
	// maxNonce is the maximum value a nonce can be in a block header.
	maxNonce = ^uint32(0) // 2^32 - 1

	// maxExtraNonce is the maximum value an extra nonce used in a coinbase
	// transaction can be.
	maxExtraNonce = ^uint64(0) // 2^64 - 1

	// hashUpdateDuration is the duration to wait in between each
	// update to the hashes per second monitor.
	hashUpdateDuration = time.Millisecond * 10

	hashDisplayDuration = time.Second * 10

	// hashUpdateSecs is the number of seconds GenerateNBlocks waits in
	// between notifying the speed monitor with how many hashes have been
	// completed while it is actively searching for a solution.  Workers
	// started by generateBlocks use hashUpdateDuration instead.
	hashUpdateSecs = 15

	// staleTxUpdateGrace is the minimum time a worker must keep mining on
	// a template after the mempool has changed before treating the
	// template as stale (spec §4.5 step 4 / "Stale detection").
	staleTxUpdateGrace = time.Minute
)

var (
	// defaultNumWorkers is the default number of workers to use for mining
	// and is based on the number of processor cores.  This helps ensure the
	// system stays reasonably responsive under heavy load.
	defaultNumWorkers = uint32(runtime.NumCPU())
)

var errSignal = errors.New("received quit signal")

// ChainView is the Miner Supervisor's (C6) readiness and submission
// collaborator (spec §6 "Chain/Network State", "Block submission sink").
// It abstracts over whatever full node or harness embeds this engine.
type ChainView struct {
	// Tip returns the current best chain tip's hash and height.
	Tip func() (wire.ShaHash, int32)

	// SubmitBlock hands a solved block to the node for validation and
	// relay. It returns whether the block was accepted.
	SubmitBlock func(block *wire.MsgBlock) (accepted bool, err error)

	// ConnectedPeerCount reports the number of connected peers, used by
	// the readiness gate (spec §4.5 step 1). A harness with no network
	// layer at all may return a constant positive value.
	ConnectedPeerCount func() int

	// IsCurrent reports whether the local chain view is believed to be
	// caught up with the network (out of IBD).
	IsCurrent func() bool
}

// CPUMiner provides facilities for solving blocks (mining) using the CPU in
// a concurrency-safe manner.  It consists of two main goroutines -- a speed
// monitor and a controller for worker goroutines which generate and solve
// blocks.  The number of goroutines can be set via SetNumWorkers, but the
// default is based on the number of processor cores in the system which is
// typically sufficient.
//
// Two goroutine groups do the work: speedMonitor tracks the rolling hash
// rate, and miningWorkerController launches/retires generateBlocks workers
// as the configured worker count changes. RPC/CAP block-propagation
// plumbing is out of scope here since P2P block propagation is an external
// collaborator referenced by contract only.
type CPUMiner struct {
	sync.Mutex
	generator         *mining.BlkTmplGenerator
	txSource          mempool.TxSource
	hasher            blockchain.HeaderHasher
	chain             ChainView
	coinbaseFlags     string
	miningAddrs       []btcutil.Address
	maxHashRate       uint32
	numWorkers        uint32
	started           bool
	discreteMining    bool
	submitBlockLock   sync.Mutex
	wg                sync.WaitGroup
	workerWg          sync.WaitGroup
	updateNumWorkers  chan struct{}
	queryHashesPerSec chan float64
	updateHashes      chan uint64
	speedMonitorQuit  chan struct{}
	quit              chan struct{}
	hashesPerSec      float64
	lock              *Dlock
	coordEndpoints    []string
}

// speedMonitor handles tracking the number of hashes per second the mining
// process is performing.  It must be run as a goroutine.
func (m *CPUMiner) speedMonitor() {
	minrLog.Tracef("CPU miner speed monitor started")

	var totalHashes uint64
	ticker := time.NewTicker(hashUpdateDuration)
	defer ticker.Stop()

out:
	for {
		select {
		// Periodic updates from the workers with how many hashes they
		// have performed.
		case numHashes := <-m.updateHashes:
			totalHashes += numHashes

		// Time to update the hashes per second.
		case <-ticker.C:
			curHashesPerSec := float64(totalHashes) / hashUpdateDuration.Seconds()
			if m.hashesPerSec == 0 {
				m.hashesPerSec = curHashesPerSec
			}
			m.hashesPerSec = (m.hashesPerSec + curHashesPerSec) / 2
			totalHashes = 0

		// Request for the number of hashes per second.
		case m.queryHashesPerSec <- m.hashesPerSec:
			// Nothing to do.

		case <-m.speedMonitorQuit:
			break out
		}
	}

	m.wg.Done()
	minrLog.Tracef("CPU miner speed monitor done")
}

// submitBlock submits the passed block for acceptance after checking it is
// not stale relative to the current chain tip (spec §4.5 step 5/6).
func (m *CPUMiner) submitBlock(msgBlock *wire.MsgBlock, workerID int) bool {
	m.submitBlockLock.Lock()
	defer m.submitBlockLock.Unlock()

	// Ensure the block is not stale since a new block could have shown up
	// while the solution was being found.  Typically that condition is
	// detected and all work on the stale block is halted to start work on
	// a new block, but the check only happens periodically, so it is
	// possible a block was found and submitted in between.
	latestHash, _ := m.chain.Tip()
	if msgBlock.Header.PrevBlock != latestHash {
		minrLog.Debugf("Block submitted via CPU miner with previous "+
			"block %s is stale", msgBlock.Header.PrevBlock)
		return false
	}

	accepted, err := m.chain.SubmitBlock(msgBlock)
	if err != nil {
		minrLog.Errorf("Unexpected error while processing "+
			"block submitted via CPU miner: %v", err)
		return false
	}
	if !accepted {
		minrLog.Debugf("Block submitted via CPU miner was not accepted")
		return false
	}

	coinbaseTx := msgBlock.Transactions[0].TxOut[0]
	blockHash := msgBlock.BlockSha()
	minrLog.Infof("Block submitted via CPU miner accepted (hash %s, "+
		"amount %v)", blockHash, btcutil.Amount(coinbaseTx.Value))
	_, height := m.chain.Tip()
	event.PushBlockSolvedEvent(blockHash.String(), height, workerID)
	return true
}

// solveBlock attempts to find some combination of a nonce, extra nonce, and
// current timestamp which makes the passed block hash to a value less than the
// target difficulty.  The timestamp is updated periodically and the passed
// block is modified with all tweaks during this process.  This means that
// when the function returns true, the block is ready for submission.
//
// This function will return early with false when conditions that trigger a
// stale block such as a new block showing up or periodically when there are
// new transactions and enough time has elapsed without finding a solution.
func (m *CPUMiner) solveBlock(msgBlock *wire.MsgBlock, blockHeight int32,
	ticker *time.Ticker, quit chan struct{}) bool {

	// Choose a random extra nonce offset for this block template and
	// worker.
	enOffset, err := wire.RandomUint64()
	if err != nil {
		minrLog.Errorf("Unexpected error while generating random "+
			"extra nonce offset: %v", err)
		enOffset = 0
	}

	// Start the nonce scan at a random point of the nonce space.
	nonceOffset := uint32(enOffset >> 32)

	// Create a couple of convenience variables.
	header := &msgBlock.Header
	targetDifficulty := blockchain.CompactToBig(header.Bits)

	// Initial state.
	lastGenerated := time.Now()
	lastTxUpdate := m.txSource.LastUpdated()
	hashesCompleted := uint64(0)

	displayTicker := time.NewTicker(hashDisplayDuration)
	defer displayTicker.Stop()
	var lastDisplayHashes uint64
	lastDisplayTime := time.Now()

	// Note that the entire extra nonce range is iterated and the offset is
	// added relying on the fact that overflow will wrap around 0 as
	// provided by the Go spec.
	for extraNonce := uint64(0); extraNonce < maxExtraNonce; extraNonce++ {
		// Update the extra nonce in the block template with the
		// new value by regenerating the coinbase script and
		// setting the merkle root to the new value.
		if err := mining.UpdateExtraNonce(m.coinbaseFlags, msgBlock, blockHeight, extraNonce+enOffset); err != nil {
			minrLog.Errorf("Unable to update extra nonce: %v", err)
			return false
		}

		// Search through the entire nonce range for a solution while
		// periodically checking for early quit and stale block
		// conditions along with updates to the speed monitor.
		for i := uint32(0); i <= maxNonce; i++ {
			select {
			case <-quit:
				return false

			case <-ticker.C:
				m.updateHashes <- hashesCompleted
				hashesCompleted = 0

				// The current block is stale if the best block
				// has changed.
				bestHash, _ := m.chain.Tip()
				if header.PrevBlock != bestHash {
					return false
				}

				// The current block is stale if the memory pool
				// has been updated since the block template was
				// generated and it has been at least one
				// minute.
				if lastTxUpdate != m.txSource.LastUpdated() &&
					time.Now().After(lastGenerated.Add(staleTxUpdateGrace)) {

					return false
				}

				m.generator.UpdateBlockTime(msgBlock) // nolint: errcheck
				targetDifficulty = blockchain.CompactToBig(header.Bits)

			case <-displayTicker.C:
				elapsed := time.Since(lastDisplayTime).Seconds()
				if elapsed > 0 {
					minrLog.Debugf("Hash speed: %6.0f hashes/s",
						float64(hashesCompleted-lastDisplayHashes)/elapsed)
				}
				lastDisplayHashes = hashesCompleted
				lastDisplayTime = time.Now()

			default:
				// Non-blocking select to fall through
			}

			// Throttle to the configured max hash rate, if any
			// (spec §6 "Observability"/operator knobs).
			if m.maxHashRate > 0 && uint32(hashesCompleted) > 0 &&
				hashesCompleted%uint64(m.maxHashRate) == 0 {
				time.Sleep(time.Millisecond)
			}

			// Update the nonce and hash the header using the
			// configured Header Hasher (C1).
			header.Nonce = i + nonceOffset
			hash, err := m.hasher(header)
			if err != nil {
				minrLog.Errorf("Header hash failed: %v", err)
				return false
			}
			hashesCompleted++

			// The block is solved when the new block hash is less
			// than the target difficulty.  Yay!
			if blockchain.HashToBig(&hash).Cmp(targetDifficulty) <= 0 {
				m.updateHashes <- hashesCompleted
				return true
			}

			// i <= maxNonce always holds for a uint32, so leave the
			// nonce loop explicitly once the last nonce was tried.
			if i == maxNonce {
				break
			}
		}
	}

	return false
}

func sumFees(fees []int64) int64 {
	var total int64
	for _, fee := range fees {
		total += fee
	}
	return total
}

func chkQuit(quit chan struct{}) error {
	// For graceful shutdown
	select {
	case <-quit:
		minrLog.Debugf("MinerDlock: Received a graceful shutdown notification.")
		return errSignal
	default:
		return nil
	}
}

func (m *CPUMiner) setDistLock(ep []string, quit chan struct{}) error {
	minrLog.Debugf("CoordEndpoint: %v", ep)

	if m.lock != nil {
		return nil
	}

	for {
		lock, err := DlockNew(ep)
		if err != nil {
			minrLog.Infof("MinerDlock creation failed: %s", err.Error())
		} else if lock == nil {
			minrLog.Infof("MinerDlock creation failed: null")
		} else {
			go func(lock *Dlock, quit chan struct{}) {
				select {
				case <-quit:
					// For graceful shutdown
					lock.cancel()
				case <-lock.Session.Done():
					// To prevent go-routine leak
					return
				}
			}(lock, quit)

			m.lock = lock
			return nil
		}
		if err = chkQuit(quit); err != nil {
			return err
		}
		time.Sleep(10 * time.Second)
	}
}

func (m *CPUMiner) unsetDistLock() {
	if err := m.lock.Release(); err != nil {
		minrLog.Debugf("MinerDlock release failed: %s", err.Error())
	} else {
		minrLog.Debugf("MinerDlock released.")
	}
	if err := m.lock.Client.Close(); err != nil {
		minrLog.Debugf("MinerDlock client close failed: %s", err.Error())
	} else {
		minrLog.Debugf("MinerDlock client closed.")
	}
	if err := m.lock.Session.Close(); err != nil {
		minrLog.Debugf("MinerDlock session close failed: %s", err.Error())
	} else {
		minrLog.Debugf("MinerDlock session closed")
	}
	m.lock = nil
}

func (m *CPUMiner) coordMiningOn() bool {
	return len(m.coordEndpoints) > 0
}

func (m *CPUMiner) distLock(quit chan struct{}) error {
	nFail := uint32(0)
	for {
		err := m.setDistLock(m.coordEndpoints, quit)
		// Error returns only upon an OS signal.
		if err != nil {
			return err
		}

		err = m.lock.Acquire()
		if err == context.Canceled {
			minrLog.Debugf("MinerDlock: canceled")
			return err
		} else if err != nil {
			if (nFail % 60) == 0 { // To prevent excessive logging
				minrLog.Infof("Retry (%d) MinerDlock acquisition: %s", nFail, err.Error())
			}
			m.unsetDistLock()

			nFail++
			time.Sleep(10 * time.Second)
		} else {
			minrLog.Debugf("MinerDlock acquired")
			return nil
		}
	}
}

func (m *CPUMiner) distUnlock() {
	if m.lock == nil {
		return
	}
	m.lock.Release() // nolint: errcheck
	m.lock = nil
}

func (m *CPUMiner) generateBlocksDone() {
	m.workerWg.Done()
	minrLog.Tracef("Generate blocks worker done")
}

// randomMiningAddr picks one of the configured payout addresses at random,
// or nil when none were configured (anyone-can-spend coinbase).
func (m *CPUMiner) randomMiningAddr() btcutil.Address {
	if len(m.miningAddrs) == 0 {
		return nil
	}
	return m.miningAddrs[rand.Intn(len(m.miningAddrs))]
}

// generateBlocks is a worker that is controlled by the miningWorkerController.
// It is self contained in that it creates block templates and attempts to solve
// them while detecting when it is performing stale work and reacting
// accordingly by generating a new block template.  When a block is solved, it
// is submitted.
//
// It must be run as a goroutine.
func (m *CPUMiner) generateBlocks(quit chan struct{}, workerID int) {
	minrLog.Tracef("Starting generate blocks worker")

	// Start a ticker which is used to signal checks for stale work and
	// updates to the speed monitor.
	ticker := time.NewTicker(hashUpdateDuration)
	defer ticker.Stop()

out:
	for {
		// Quit when the miner is stopped.
		select {
		case <-quit:
			break out
		default:
			// Non-blocking select to fall through
		}

		// Wait until there is a connection to at least one other peer
		// since there is no way to relay a found block or receive
		// transactions to work on when there are no connected peers
		// (spec §4.5 step 1, readiness gate).
		if m.chain.ConnectedPeerCount() == 0 {
			minrLog.Tracef("no peer connected")
			time.Sleep(time.Second)
			continue
		}

		// Acquire distLock everytime for safety.
		if m.coordMiningOn() {
			if err := m.distLock(quit); err != nil {
				m.distUnlock()
				if err == context.Canceled || err == errSignal {
					break out
				}
				continue
			}
		}

		// No point in searching for a solution before the chain is
		// synced.  Also, grab the same lock as used for block
		// submission, since the current block will be changing and
		// this would otherwise end up building a new block template on
		// a block that is in the process of becoming stale.
		m.submitBlockLock.Lock()
		_, curHeight := m.chain.Tip()
		if curHeight != 0 && !m.chain.IsCurrent() {
			m.submitBlockLock.Unlock()
			time.Sleep(time.Second)
			continue
		}

		// Create a new block template using the available transactions
		// in the memory pool as a source of transactions to potentially
		// include in the block.
		extraNonce, err := wire.RandomUint64()
		if err != nil {
			extraNonce = 0
		}
		template, err := m.generator.NewBlockTemplate(extraNonce, m.coinbaseFlags, m.randomMiningAddr())
		m.submitBlockLock.Unlock()
		if err != nil {
			// Template errors are not retried: the worker exits.
			minrLog.Errorf("Failed to create new block template: %v", err)
			break out
		}
		event.PushTemplateAssembledEvent(template.Block.Header.PrevBlock.String(),
			template.Height, len(template.Block.Transactions), sumFees(template.Fees))

		// Attempt to solve the block.  The function will exit early
		// with false when conditions that trigger a stale block, so
		// a new block template can be generated.  When the return is
		// true a solution was found, so submit the solved block.
		if m.solveBlock(template.Block, curHeight+1, ticker, quit) {
			m.submitBlock(template.Block, workerID)
		}
	}

	m.generateBlocksDone()
}

// miningWorkerController launches the worker goroutines that are used to
// generate block templates and solve them.  It also provides the ability to
// dynamically adjust the number of running worker goroutines.
//
// It must be run as a goroutine.
func (m *CPUMiner) miningWorkerController() {
	// launchWorkers groups common code to launch a specified number of
	// workers for generating blocks.
	var runningWorkers []chan struct{}
	launchWorkers := func(numWorkers uint32) {
		base := len(runningWorkers)
		for i := uint32(0); i < numWorkers; i++ {
			quit := make(chan struct{})
			runningWorkers = append(runningWorkers, quit)

			// Workers are tagged 1, 2, 3, ... in launch order.
			m.workerWg.Add(1)
			go m.generateBlocks(quit, base+int(i)+1)
		}
	}

	// Launch the current number of workers by default.
	runningWorkers = make([]chan struct{}, 0, m.numWorkers)
	launchWorkers(m.numWorkers)

out:
	for {
		select {
		// Update the number of running workers.
		case <-m.updateNumWorkers:
			// No change.
			numRunning := uint32(len(runningWorkers))
			if m.numWorkers == numRunning {
				continue
			}

			// Add new workers.
			if m.numWorkers > numRunning {
				launchWorkers(m.numWorkers - numRunning)
				continue
			}

			// Signal the most recently created goroutines to exit.
			for i := numRunning - 1; i >= m.numWorkers; i-- {
				close(runningWorkers[i])
				runningWorkers[i] = nil
				runningWorkers = runningWorkers[:i]
			}

		case <-m.quit:
			for _, quit := range runningWorkers {
				close(quit)
			}
			break out
		}
	}

	// Wait until all workers shut down to stop the speed monitor since
	// they rely on being able to send updates to it.
	m.workerWg.Wait()
	close(m.speedMonitorQuit)
	m.wg.Done()
}

// Start begins the CPU mining process as well as the speed monitor used to
// track hashing metrics.  Calling this function when the CPU miner has
// already been started will have no effect.
//
// This function is safe for concurrent access.
func (m *CPUMiner) Start() {
	m.Lock()
	defer m.Unlock()

	// Nothing to do if the miner is already running or if running in discrete
	// mode (using GenerateNBlocks).
	if m.started || m.discreteMining {
		return
	}

	m.quit = make(chan struct{})
	m.speedMonitorQuit = make(chan struct{})
	m.wg.Add(2)
	go m.speedMonitor()
	go m.miningWorkerController()

	m.started = true
	minrLog.Infof("CPU miner started")
}

// Stop gracefully stops the mining process by signalling all workers, and the
// speed monitor to quit.  Calling this function when the CPU miner has not
// already been started will have no effect.
//
// This function is safe for concurrent access.
func (m *CPUMiner) Stop() {
	m.Lock()
	defer m.Unlock()

	// Nothing to do if the miner is not currently running or if running in
	// discrete mode (using GenerateNBlocks).
	if !m.started || m.discreteMining {
		return
	}

	close(m.quit)
	m.wg.Wait()
	m.started = false
	minrLog.Infof("CPU miner stopped")
}

// IsMining returns whether or not the CPU miner has been started and is
// therefore currently mining.
//
// This function is safe for concurrent access.
func (m *CPUMiner) IsMining() bool {
	m.Lock()
	defer m.Unlock()

	return m.started
}

// HashesPerSecond returns the number of hashes per second the mining process
// is performing.  0 is returned if the miner is not currently running.
//
// This function is safe for concurrent access.
func (m *CPUMiner) HashesPerSecond() float64 {
	m.Lock()
	defer m.Unlock()

	// Nothing to do if the miner is not currently running.
	if !m.started {
		return 0
	}

	return <-m.queryHashesPerSec
}

// SetNumWorkers sets the number of workers to create which solve blocks.  Any
// negative values will cause a default number of workers to be used which is
// based on the number of processor cores in the system.  A value of 0 will
// cause all CPU mining to be stopped.
//
// This function is safe for concurrent access.
func (m *CPUMiner) SetNumWorkers(numWorkers int32) {
	if numWorkers == 0 {
		m.Stop()
	}

	// Don't lock until after the first check since Stop does its own
	// locking.
	m.Lock()
	defer m.Unlock()

	if m.coordMiningOn() {
		// Coordinated mining assumes a single miner goroutine; more
		// than one leads to the distributed lock being acquired and
		// released out from under a sibling worker.
		m.numWorkers = 1
	} else if numWorkers < 0 {
		// Use default if provided value is negative.
		m.numWorkers = defaultNumWorkers
	} else {
		m.numWorkers = uint32(numWorkers)
	}

	event.PushWorkerCountChangedEvent(m.numWorkers)

	// When the miner is already running, notify the controller about the
	// change.
	if m.started {
		m.updateNumWorkers <- struct{}{}
	}
}

// NumWorkers returns the number of workers which are running to solve blocks.
//
// This function is safe for concurrent access.
func (m *CPUMiner) NumWorkers() int32 {
	m.Lock()
	defer m.Unlock()

	return int32(m.numWorkers)
}

// GenerateNBlocks generates the requested number of blocks. It is self
// contained in that it creates block templates and attempts to solve them while
// detecting when it is performing stale work and reacting accordingly by
// generating a new block template.  When a block is solved, it is submitted.
// The function returns a list of the hashes of generated blocks.
func (m *CPUMiner) GenerateNBlocks(n uint32) ([]wire.ShaHash, error) {
	m.Lock()

	// Respond with an error if server is already mining.
	if m.started || m.discreteMining {
		m.Unlock()
		return nil, errors.New("miner is already running; stop it before " +
			"requesting a discrete generate")
	}

	m.started = true
	m.discreteMining = true

	m.speedMonitorQuit = make(chan struct{})
	m.wg.Add(1)
	go m.speedMonitor()

	m.Unlock()

	minrLog.Tracef("Generating %d blocks", n)

	i := uint32(0)
	blockHashes := make([]wire.ShaHash, n)

	// Start a ticker which is used to signal checks for stale work and
	// updates to the speed monitor.
	ticker := time.NewTicker(time.Second * hashUpdateSecs)
	defer ticker.Stop()

	for {
		// Read updateNumWorkers in case someone tries a SetNumWorkers
		// call while we're generating. We can ignore it since discrete
		// generation only ever uses 1 worker.
		select {
		case <-m.updateNumWorkers:
		default:
		}

		// Grab the lock used for block submission, since the current block will
		// be changing and this would otherwise end up building a new block
		// template on a block that is in the process of becoming stale.
		m.submitBlockLock.Lock()
		_, curHeight := m.chain.Tip()

		extraNonce, err := wire.RandomUint64()
		if err != nil {
			extraNonce = 0
		}
		template, err := m.generator.NewBlockTemplate(extraNonce, m.coinbaseFlags, m.randomMiningAddr())
		m.submitBlockLock.Unlock()
		if err != nil {
			// Template errors are not retried.
			minrLog.Errorf("Failed to create new block template: %v", err)
			m.Lock()
			close(m.speedMonitorQuit)
			m.wg.Wait()
			m.started = false
			m.discreteMining = false
			m.Unlock()
			return blockHashes[:i], err
		}
		event.PushTemplateAssembledEvent(template.Block.Header.PrevBlock.String(),
			template.Height, len(template.Block.Transactions), sumFees(template.Fees))

		// Attempt to solve the block.  The function will exit early
		// with false when conditions that trigger a stale block, so
		// a new block template can be generated.  When the return is
		// true a solution was found, so submit the solved block.
		if m.solveBlock(template.Block, curHeight+1, ticker, nil) {
			m.submitBlock(template.Block, -1)
			blockHashes[i] = template.Block.BlockSha()
			i++
			if i == n {
				minrLog.Tracef("Generated %d blocks", i)
				m.Lock()
				close(m.speedMonitorQuit)
				m.wg.Wait()
				m.started = false
				m.discreteMining = false
				m.Unlock()
				return blockHashes, nil
			}
		}
	}
}

// newCPUMiner returns a new instance of a CPU miner. Use Start to begin the
// mining process, or GenerateNBlocks for one-shot discrete mining.
func newCPUMiner(generator *mining.BlkTmplGenerator, txSource mempool.TxSource, hasher blockchain.HeaderHasher, chain ChainView, coinbaseFlags string, miningAddrs []btcutil.Address, maxHashRate uint32, coordEndpoints []string) *CPUMiner {
	if hasher == nil {
		hasher = blockchain.ScryptHeaderHash
	}
	return &CPUMiner{
		generator:         generator,
		txSource:          txSource,
		hasher:            hasher,
		chain:             chain,
		coinbaseFlags:     coinbaseFlags,
		miningAddrs:       miningAddrs,
		maxHashRate:       maxHashRate,
		numWorkers:        defaultNumWorkers,
		updateNumWorkers:  make(chan struct{}),
		queryHashesPerSec: make(chan float64),
		updateHashes:      make(chan uint64),
		coordEndpoints:    coordEndpoints,
	}
}
