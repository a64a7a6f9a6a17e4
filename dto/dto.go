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

// Package dto 定義 HTTP / CLI 對外輸出入的資料結構。
//
// 內部型別（match.Result、score.Breakdown...）在這裡轉成穩定的 JSON 形狀，
// 並附上成員名稱與 RNG 快照，讓呼叫端可以重現同一次配對。
package dto

import (
	"github.com/zintix-labs/pairlab/corefmt"
	"github.com/zintix-labs/pairlab/errs"
	"github.com/zintix-labs/pairlab/match"
	"github.com/zintix-labs/pairlab/roster"
	"github.com/zintix-labs/pairlab/score"
	"github.com/zintix-labs/pairlab/stats"
)

// MatchSource 產生 MatchResult 時需要的名冊資訊
type MatchSource struct {
	Name   string
	RID    roster.RID
	Filter match.FilterMode
	Names  []string // 依成員 id；可為 nil
}

type MatchResult struct {
	Roster             string     `json:"roster"`
	RID                roster.RID `json:"rid"`
	Filter             string     `json:"filter"`
	Pairs              []PairDTO  `json:"pairs"`
	Proposers          []int      `json:"proposers"`
	Receivers          []int      `json:"receivers"`
	UnmatchedProposers []int      `json:"unmatched_proposers"`
	UnmatchedReceivers []int      `json:"unmatched_receivers"`
	Rounds             int        `json:"rounds"`
	Proposals          int        `json:"proposals"`
	TotalScore         float64    `json:"total_score"`
	State              MatchState `json:"match_state"`
}

type PairDTO struct {
	Proposer     int     `json:"proposer"`
	ProposerName string  `json:"proposer_name,omitempty"`
	Receiver     int     `json:"receiver"`
	ReceiverName string  `json:"receiver_name,omitempty"`
	Score        float64 `json:"score"`
}

// MatchState 分組前後的 RNG 快照；把 start_b64u 帶回請求即可重現同一次分組。
type MatchState struct {
	StartCoreSnapB64U string `json:"start_b64u"`
	AfterCoreSnapB64U string `json:"after_b64u"`
}

func NewMatchResultDTO(src MatchSource, res *match.Result, start, after []byte) (MatchResult, error) {
	if res == nil {
		return MatchResult{}, errs.NewWarn("match result is nil")
	}
	dto := MatchResult{
		Roster:             src.Name,
		RID:                src.RID,
		Filter:             src.Filter.String(),
		Pairs:              make([]PairDTO, len(res.Pairs)),
		Proposers:          res.Groups.Proposers,
		Receivers:          res.Groups.Receivers,
		UnmatchedProposers: res.UnmatchedProposers,
		UnmatchedReceivers: res.UnmatchedReceivers,
		Rounds:             res.Rounds,
		Proposals:          res.Proposals,
		TotalScore:         res.TotalScore(),
		State: MatchState{
			StartCoreSnapB64U: corefmt.EncodeBase64URL(start),
			AfterCoreSnapB64U: corefmt.EncodeBase64URL(after),
		},
	}
	for i, p := range res.Pairs {
		dto.Pairs[i] = PairDTO{
			Proposer:     p.Proposer,
			ProposerName: nameOf(src.Names, p.Proposer),
			Receiver:     p.Receiver,
			ReceiverName: nameOf(src.Names, p.Receiver),
			Score:        p.Score,
		}
	}
	return dto, nil
}

func nameOf(names []string, id int) string {
	if id < 0 || id >= len(names) {
		return ""
	}
	return names[id]
}

// ScoreResult 兩個方向的分數拆解（分數不對稱：a 在 b 眼中 / b 在 a 眼中）
type ScoreResult struct {
	A    string          `json:"a"`
	B    string          `json:"b"`
	AToB score.Breakdown `json:"a_to_b"`
	BToA score.Breakdown `json:"b_to_a"`
	// Admissible 雙方是否通過性別/偏好相容判斷（以 a 為 proposer）
	Admissible bool `json:"admissible"`
}

func NewScoreResultDTO(s *score.Scorer, a, b *roster.Member) ScoreResult {
	return ScoreResult{
		A:          a.Name,
		B:          b.Name,
		AToB:       s.Breakdown(a, b),
		BToA:       s.Breakdown(b, a),
		Admissible: match.Admissible(a.Gender, a.Orientation, b.Gender, b.Orientation),
	}
}

// SimResult Monte Carlo 模擬結果
type SimResult struct {
	Seed    int64            `json:"seed"`
	Workers int              `json:"workers"`
	UsedMS  int64            `json:"used_ms"`
	Report  *stats.SimReport `json:"report"`
}
