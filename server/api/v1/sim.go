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


package v1

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/zintix-labs/pairlab"
	"github.com/zintix-labs/pairlab/dto"
	"github.com/zintix-labs/pairlab/errs"
	"github.com/zintix-labs/pairlab/sdk/core"
	"github.com/zintix-labs/pairlab/server/netsvr/middleware"
	"github.com/zintix-labs/pairlab/server/svrcfg"
	"go.opentelemetry.io/otel/attribute"
)

// SimHandler /v1/sim：對一份名冊跑 Monte Carlo 模擬
type SimHandler struct {
	lab        *pairlab.Lab
	met        *middleware.Metrics
	log        *slog.Logger
	maxRuns    int
	maxWorkers int
	timeout    time.Duration
}

func NewSimHandler(sCfg *svrcfg.SvrCfg) (*SimHandler, error) {
	if sCfg == nil || sCfg.Lab == nil {
		return nil, errs.NewFatal("lab is required")
	}
	return &SimHandler{
		lab:        sCfg.Lab,
		met:        sCfg.Metrics,
		log:        sCfg.Log,
		maxRuns:    sCfg.SimMaxRuns,
		maxWorkers: sCfg.SimMaxWorkers,
		timeout:    sCfg.SimTimeout,
	}, nil
}

func (sh *SimHandler) Sim(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r, "SimHandler.Sim")
	defer span.End()

	req, err := dto.DecodeSimRequest(r)
	if err != nil {
		fail(w, sh.log, span, "decode sim request", err)
		return
	}
	// 業務邏輯判斷
	if _, ok := sh.lab.EntryByID(req.RID); !ok {
		fail(w, sh.log, span, "sim", errs.Coded(errs.InvalidParam, "roster id not found: %d", req.RID))
		return
	}
	if req.Runs > sh.maxRuns {
		fail(w, sh.log, span, "sim", errs.Coded(errs.InvalidParam, "runs must be between 1 and %d, got %d", sh.maxRuns, req.Runs))
		return
	}
	workers := min(req.Workers, sh.maxWorkers)
	if req.Seed == nil {
		v := core.NewSeed()
		req.Seed = &v
	}
	span.SetAttributes(
		attribute.Int64("pairlab.rid", int64(req.RID)),
		attribute.Int("pairlab.runs", req.Runs),
		attribute.Int("pairlab.workers", workers),
		attribute.Int64("pairlab.seed", *req.Seed),
	)

	sim, err := sh.lab.NewSimulatorWithSeed(req.RID, *req.Seed)
	if err != nil {
		// 錯誤來自 pairlab，尊重錯誤分級
		fail(w, sh.log, span, "build simulator", errs.Wrap(err, "build simulator err"))
		return
	}
	opts, err := req.Options(sim.Options().Filter)
	if err != nil {
		fail(w, sh.log, span, "sim", err)
		return
	}
	if err := sim.SetOptions(opts); err != nil {
		fail(w, sh.log, span, "sim", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, sh.timeout)
	defer cancel()
	rep, used, err := sim.SimMP(ctx, req.Runs, workers, false)
	if err != nil {
		fail(w, sh.log, span, "sim", errs.Wrap(err, "simulate err"))
		return
	}
	sh.met.ObserveSim(sim.Name, req.Runs)
	if !req.Members {
		rep.Members = nil
	}
	writeJSON(w, span, dto.SimResult{
		Seed:    *req.Seed,
		Workers: workers,
		UsedMS:  used.Milliseconds(),
		Report:  rep,
	})
}
