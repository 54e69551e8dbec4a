// Copyright (c) 2016 BLOCKO INC.
// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	flags "github.com/btcsuite/go-flags"

	"github.com/coinstack/btcutil"

	"github.com/coinstack/scryptminer/blockchain"
	"github.com/coinstack/scryptminer/chaincfg"
)

const (
	defaultLogFilename    = "scryptminer.log"
	defaultLogDir         = "logs"
	defaultLogRollingType = LogRollingTypeDate
	defaultLogMaxDays     = 14
	defaultLogMaxRolls    = 14
	defaultLogMaxSize     = 10 * 1024 * 1024
	defaultDebugLevel     = "info"
	defaultNetwork        = "mainnet"
	defaultRESTListen     = "127.0.0.1:9332"
	defaultNumWorkers     = -1
)

// config defines the configuration options for the miner daemon,
// referenced throughout log.go as `cfg.LogDir`, `cfg.CriticalLog`,
// etc., and populated with the operator-facing knobs spec.md §6 names
// (blockmaxweight/blockmintxfee/blockversion/printpriority), using the
// github.com/btcsuite/go-flags struct-tag idiom.
type config struct {
	ConfigFile string `short:"C" long:"configfile" description:"Path to configuration file"`
	DataDir    string `short:"b" long:"datadir" description:"Directory to store data"`

	LogDir         string `long:"logdir" description:"Directory to log output"`
	LogMaxSize     int64  `long:"logmaxsize" description:"Maximum size in bytes of a log file before it is rolled"`
	LogMaxDays     int    `long:"logmaxdays" description:"Maximum number of days of date-rolled log files to keep"`
	LogMaxRolls    int    `long:"logmaxrolls" description:"Maximum number of size-rolled log files to keep"`
	LogRollingType int    `long:"logrollingtype" description:"Log rolling strategy: 0 date-based, 1 size-based"`
	CriticalLog    bool   `long:"criticallog" description:"Also write error/critical level logs to a separate admin log file"`
	DebugLevel     string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical}"`

	Network string `long:"network" description:"Which network to mine on (mainnet, testnet, regtest, privnet)"`

	Generate            bool     `long:"generate" description:"Generate (mine) blocks using the CPU"`
	MiningAddrs         []string `long:"miningaddr" description:"Payment address(es) for generated blocks; chosen from at random for each new template"`
	AllowAnyoneCanSpend bool     `long:"allowanyonecanspend" description:"Permit an anyone-can-spend coinbase when no miningaddr is configured (private/test networks only)"`
	NumWorkers          int      `long:"miningworkers" description:"Number of concurrent mining worker goroutines; 0 disables mining, a negative value uses one worker per CPU core"`
	MaxHashRate         uint32   `long:"maxhashrate" description:"Approximate per-worker hash rate cap; 0 means unlimited"`

	BlockMinSize      uint32 `long:"blockminsize" description:"Minimum block size in bytes (accepted but not used by template assembly)"`
	BlockMaxSize      uint32 `long:"blockmaxsize" description:"Maximum block size in bytes (accepted but not used by template assembly)"`
	BlockPrioritySize uint32 `long:"blockprioritysize" description:"Size in bytes for high-priority/low-fee transactions (accepted but not used by template assembly)"`
	BlockMaxWeight    uint32 `long:"blockmaxweight" description:"Maximum block weight to be used when generating a block template"`
	BlockMinTxFee     int64  `long:"blockmintxfee" description:"Minimum fee rate in base units per 1000 bytes of package size for a package to be considered for inclusion"`
	BlockVersion      int32  `long:"blockversion" description:"Block version number to use on regtest; a negative value uses the chain-computed default"`
	PrintPriority     bool   `long:"printpriority" description:"Log the ancestor fee-rate of each transaction as it is selected into a block template"`
	MineWitness       bool   `long:"minewitness" description:"Include witness-bearing transactions once the witness soft fork is active"`

	CoordMiningEndpoint []string `long:"coordendpoint" description:"etcd endpoint(s) used for distributed-lock coordination across multiple miner processes; empty disables coordination"`

	RESTListen string `long:"restlisten" description:"host:port the read-only telemetry HTTP+WS surface listens on"`

	// miningAddrs holds the decoded form of MiningAddrs, populated by
	// loadConfig once the target network's chain params are known.
	miningAddrs []btcutil.Address
	chainParams *chaincfg.Params
}

// cfg is the global, parsed configuration, mirroring the single global
// `cfg`/`activeNetParams` pair log.go and cpuminer.go both already
// assume (`cfg.LogDir`, `activeNetParams.Net`, etc.).
var (
	cfg             *config
	activeNetParams *chaincfg.Params
)

// netParamsForName resolves the --network flag to its chaincfg.Params.
func netParamsForName(name string) (*chaincfg.Params, error) {
	switch name {
	case "mainnet", "":
		return &chaincfg.MainNetParams, nil
	case "testnet":
		return &chaincfg.TestNetParams, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	case "privnet":
		return &chaincfg.PrivateNetParams, nil
	default:
		return nil, fmt.Errorf("unknown network %q", name)
	}
}

// loadConfig parses the command line arguments into a config struct,
// applying defaults and then validating the result (spec §6
// "Configuration"). Modeled on cmd/gengenesis/gengenesis.go's
// flags.NewParser/parser.Parse idiom.
func loadConfig() (*config, error) {
	c := &config{
		LogDir:         defaultLogDir,
		LogMaxSize:     defaultLogMaxSize,
		LogMaxDays:     defaultLogMaxDays,
		LogMaxRolls:    defaultLogMaxRolls,
		LogRollingType: defaultLogRollingType,
		DebugLevel:     defaultDebugLevel,
		Network:        defaultNetwork,
		NumWorkers:     defaultNumWorkers,
		RESTListen:     defaultRESTListen,
		BlockVersion:   -1,
		BlockMaxWeight: blockchain.DefaultBlockMaxWeight,
		BlockMinTxFee:  blockchain.DefaultBlockMinTxFee,
	}

	parser := flags.NewParser(c, flags.Default)
	_, err := parser.Parse()
	if err != nil {
		if e, ok := err.(*flags.Error); !ok || e.Type != flags.ErrHelp {
			parser.WriteHelp(os.Stderr)
		}
		return nil, err
	}

	params, err := netParamsForName(c.Network)
	if err != nil {
		return nil, err
	}
	c.chainParams = params

	if c.Generate {
		if len(c.MiningAddrs) == 0 && !c.AllowAnyoneCanSpend {
			return nil, fmt.Errorf("--generate requires at least one " +
				"--miningaddr, or --allowanyonecanspend for test use")
		}
		for _, encoded := range c.MiningAddrs {
			addr, err := btcutil.DecodeAddress(encoded, params)
			if err != nil {
				return nil, fmt.Errorf("invalid mining address %q: %v", encoded, err)
			}
			c.miningAddrs = append(c.miningAddrs, addr)
		}
	}

	return c, nil
}
