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

// Package score 計算成員兩兩之間的相容分數，並組出配對引擎使用的 N×N 分數矩陣。
//
// 分數為單向：Score(a, b) 表示 a 在 b 眼中的分數，a 的性別不在 b 接受的集合內時為 0。
package score

import (
	"math"

	"github.com/zintix-labs/pairlab/errs"
	"github.com/zintix-labs/pairlab/roster"
)

// DefaultMaxTotal 問卷差異總和的上限（超過後回應分數為 0）
const DefaultMaxTotal = 100

// Weights 兩個子分數的權重，必須非負且總和為 1
type Weights struct {
	Grad      float64 `json:"grad"      yaml:"grad"`
	Responses float64 `json:"responses" yaml:"responses"`
}

// DefaultWeights 等價於 (grad + resp) * 100 / 111
var DefaultWeights = Weights{Grad: 11.0 / 111.0, Responses: 100.0 / 111.0}

// gradTable 畢業年差 -> 原始分數；差距 >= 4 為 0
var gradTable = [...]float64{0: 11, 1: 9, 2: 6, 3: 3}

// Scorer 相容分數計算器（唯讀，可併發使用）
type Scorer struct {
	Weights  Weights
	MaxTotal int
}

// Breakdown 單一方向分數的拆解
type Breakdown struct {
	Accepted bool    `json:"accepted"  yaml:"accepted"`
	GradGap  int     `json:"grad_gap"  yaml:"grad_gap"`
	GradTerm float64 `json:"grad_term" yaml:"grad_term"`
	RespDiff int     `json:"resp_diff" yaml:"resp_diff"`
	RespTerm float64 `json:"resp_term" yaml:"resp_term"`
	Score    float64 `json:"score"     yaml:"score"`
}

// NewScorer 以預設參數建立
func NewScorer() *Scorer {
	return &Scorer{Weights: DefaultWeights, MaxTotal: DefaultMaxTotal}
}

// Valid 檢查權重與上限
func (s *Scorer) Valid() error {
	w := s.Weights
	if w.Grad < 0 || w.Responses < 0 || math.IsNaN(w.Grad) || math.IsNaN(w.Responses) {
		return errs.Coded(errs.InvalidParam, "weights must be non-negative: %+v", w)
	}
	if math.Abs(w.Grad+w.Responses-1) > 1e-9 {
		return errs.Coded(errs.InvalidParam, "weights must sum to 1, got %g", w.Grad+w.Responses)
	}
	if s.MaxTotal <= 0 {
		return errs.Coded(errs.InvalidParam, "max_total must be positive, got %d", s.MaxTotal)
	}
	return nil
}

// Score a 在 b 眼中的分數，範圍 [0, 100]
func (s *Scorer) Score(a, b *roster.Member) float64 {
	return s.Breakdown(a, b).Score
}

// Breakdown 計算並回傳拆解；a、b 的問卷長度必須一致（由名冊載入保證）。
func (s *Scorer) Breakdown(a, b *roster.Member) Breakdown {
	bd := Breakdown{Accepted: b.AcceptsGender(a.Gender)}
	bd.GradGap = absInt(a.GradYear - b.GradYear)
	if bd.GradGap < len(gradTable) {
		bd.GradTerm = 100 * gradTable[bd.GradGap] / gradTable[0]
	}
	n := min(len(a.Responses), len(b.Responses))
	for i := 0; i < n; i++ {
		bd.RespDiff += absInt(a.Responses[i] - b.Responses[i])
	}
	bd.RespTerm = 100 * float64(max(0, s.MaxTotal-bd.RespDiff)) / float64(s.MaxTotal)
	if !bd.Accepted {
		return bd
	}
	bd.Score = s.Weights.Grad*bd.GradTerm + s.Weights.Responses*bd.RespTerm
	return bd
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
