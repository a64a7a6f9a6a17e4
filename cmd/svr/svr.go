// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/zintix-labs/pairlab"
	"github.com/zintix-labs/pairlab/demo"
	"github.com/zintix-labs/pairlab/errs"
	"github.com/zintix-labs/pairlab/sdk/core"
	"github.com/zintix-labs/pairlab/server"
	"github.com/zintix-labs/pairlab/server/logger"
	"github.com/zintix-labs/pairlab/server/netsvr"
	"github.com/zintix-labs/pairlab/server/svrcfg"
)

// pairlab HTTP server；不帶 -rosters 時使用內建示範名冊。
func main() {
	sCfg, closeLog, err := loadConfigFromFlags()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	err = server.Run(sCfg)
	closeLog()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type config struct {
	Addr       string
	LogMode    string
	Rosters    string
	PoolSize   int
	RateLimit  float64
	Burst      int
	SimMaxRuns int
	Timeout    time.Duration
	SimTimeout time.Duration
}

func loadConfigFromFlags() (*svrcfg.SvrCfg, func(), error) {
	cfg := new(config)
	flag.StringVar(&cfg.Addr, "addr", netsvr.DefaultAddr, "listen address")
	flag.StringVar(&cfg.LogMode, "log-mode", "dev", "log mode: dev|prod|silence")
	flag.StringVar(&cfg.Rosters, "rosters", "", "directory of roster files (default: embedded demo rosters)")
	flag.IntVar(&cfg.PoolSize, "pool", svrcfg.DefaultPoolSize, "number of matcher instances per roster")
	flag.Float64Var(&cfg.RateLimit, "rate", 0, "requests per second (0 = unlimited)")
	flag.IntVar(&cfg.Burst, "burst", 0, "rate limit burst (default: rate)")
	flag.IntVar(&cfg.SimMaxRuns, "sim-max-runs", svrcfg.DefaultSimMaxRuns, "upper bound of runs per /v1/sim request")
	flag.DurationVar(&cfg.Timeout, "timeout", svrcfg.DefaultRequestTimeout, "timeout of /v1/match requests")
	flag.DurationVar(&cfg.SimTimeout, "sim-timeout", svrcfg.DefaultSimTimeout, "timeout of /v1/sim requests")
	flag.Parse()

	mode, err := logger.ParseMode(cfg.LogMode)
	if err != nil {
		return nil, nil, err
	}
	log, ah := logger.NewAsync(4096, mode)

	var lab *pairlab.Lab
	if cfg.Rosters == "" {
		lab, err = demo.NewLab(pairlab.WithLogger(log))
	} else {
		lab, err = pairlab.NewAuto(core.Default(), pairlab.Rosters(os.DirFS(cfg.Rosters)), pairlab.WithLogger(log))
	}
	if err != nil {
		ah.Close()
		return nil, nil, errs.Wrap(err, "load rosters failed")
	}
	sCfg := &svrcfg.SvrCfg{
		Log:            log,
		Lab:            lab,
		Addr:           cfg.Addr,
		PoolSize:       cfg.PoolSize,
		RateLimit:      cfg.RateLimit,
		Burst:          cfg.Burst,
		SimMaxRuns:     cfg.SimMaxRuns,
		RequestTimeout: cfg.Timeout,
		SimTimeout:     cfg.SimTimeout,
	}
	return sCfg, ah.Close, nil
}
