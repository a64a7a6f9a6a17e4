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
	"log/slog"
	"net/http"

	"github.com/zintix-labs/pairlab"
	"github.com/zintix-labs/pairlab/dto"
	"github.com/zintix-labs/pairlab/errs"
	"github.com/zintix-labs/pairlab/server/svrcfg"
)

// ScoreHandler /v1/score：兩位成員的分數拆解（兩個方向）
type ScoreHandler struct {
	lab *pairlab.Lab
	log *slog.Logger
}

func NewScoreHandler(sCfg *svrcfg.SvrCfg) (*ScoreHandler, error) {
	if sCfg == nil || sCfg.Lab == nil {
		return nil, errs.NewFatal("lab is required")
	}
	return &ScoreHandler{lab: sCfg.Lab, log: sCfg.Log}, nil
}

func (sh *ScoreHandler) Score(w http.ResponseWriter, r *http.Request) {
	_, span := startSpan(r, "ScoreHandler.Score")
	defer span.End()

	req, err := dto.DecodeScoreRequest(r)
	if err != nil {
		fail(w, sh.log, span, "decode score request", err)
		return
	}
	a, b, err := req.Parse()
	if err != nil {
		fail(w, sh.log, span, "parse score request", err)
		return
	}
	s := sh.lab.Scorer()
	if req.MaxTotal > 0 {
		cp := *s
		cp.MaxTotal = req.MaxTotal
		s = &cp
	}
	writeJSON(w, span, dto.NewScoreResultDTO(s, a, b))
}
