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

// MatchHandler /v1/match 與 /v1/matchbyinput
type MatchHandler struct {
	lab     *pairlab.Lab
	rt      *pairlab.Runtime
	met     *middleware.Metrics
	log     *slog.Logger
	timeout time.Duration
}

func NewMatchHandler(sCfg *svrcfg.SvrCfg, rt *pairlab.Runtime) (*MatchHandler, error) {
	if sCfg == nil || sCfg.Lab == nil {
		return nil, errs.NewFatal("lab is required")
	}
	if rt == nil {
		return nil, errs.NewFatal("runtime is required")
	}
	return &MatchHandler{
		lab:     sCfg.Lab,
		rt:      rt,
		met:     sCfg.Metrics,
		log:     sCfg.Log,
		timeout: sCfg.RequestTimeout,
	}, nil
}

// Match 對已註冊名冊配對一次。
//
// 沒帶 seed 時借用常駐池裡的 Matcher；帶 seed 時另建一台獨立的 Matcher，
// 相同 rid + seed + 參數必得到相同結果。
func (mh *MatchHandler) Match(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r, "MatchHandler.Match")
	defer span.End()

	req, err := dto.DecodeMatchRequest(r)
	if err != nil {
		fail(w, mh.log, span, "decode match request", err)
		return
	}
	span.SetAttributes(
		attribute.Int64("pairlab.rid", int64(req.RID)),
		attribute.Bool("pairlab.seeded", req.Seed != nil),
		attribute.Bool("pairlab.replay", req.StartState.HasPayload()),
	)
	ent, ok := mh.lab.EntryByID(req.RID)
	if !ok {
		fail(w, mh.log, span, "match", errs.Coded(errs.InvalidParam, "roster id not found: %d", req.RID))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, mh.timeout)
	defer cancel()

	var res dto.MatchResult
	if req.Seed != nil {
		var m *pairlab.Matcher
		if m, err = mh.lab.NewMatcherWithSeed(req.RID, *req.Seed); err == nil {
			res, err = m.Match(req)
		}
	} else {
		res, err = mh.rt.Match(ctx, req)
	}
	mh.met.ObserveMatch(ent.Name, len(res.Pairs), res.Rounds, err)
	if err != nil {
		fail(w, mh.log, span, "match", errs.Wrap(err, "match err"))
		return
	}
	span.SetAttributes(attribute.Int("pairlab.pairs", len(res.Pairs)), attribute.Int("pairlab.rounds", res.Rounds))
	writeJSON(w, span, res)
}

// MatchByInput 以請求帶來的分數矩陣與類別標籤配對（不經過名冊）
func (mh *MatchHandler) MatchByInput(w http.ResponseWriter, r *http.Request) {
	_, span := startSpan(r, "MatchHandler.MatchByInput")
	defer span.End()

	req, err := dto.DecodeInputRequest(r)
	if err != nil {
		fail(w, mh.log, span, "decode input request", err)
		return
	}
	in, opts, err := req.Parse()
	if err != nil {
		fail(w, mh.log, span, "parse input request", err)
		return
	}
	start, err := req.StartState.Snap()
	if err != nil {
		fail(w, mh.log, span, "parse input request", err)
		return
	}
	seed := core.NewSeed()
	if req.Seed != nil {
		seed = *req.Seed
	}
	span.SetAttributes(attribute.Int("pairlab.members", in.Len()), attribute.Int64("pairlab.seed", seed))

	m, err := mh.lab.NewMatcherByInput(in, seed, req.Names...)
	if err != nil {
		fail(w, mh.log, span, "build matcher", err)
		return
	}
	res, err := m.MatchWith(opts, start)
	mh.met.ObserveMatch("input", len(res.Pairs), res.Rounds, err)
	if err != nil {
		fail(w, mh.log, span, "match by input", errs.Wrap(err, "match err"))
		return
	}
	span.SetAttributes(attribute.Int("pairlab.pairs", len(res.Pairs)))
	writeJSON(w, span, res)
}
