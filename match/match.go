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

package match

import (
	"fmt"
	"slices"

	"github.com/zintix-labs/pairlab/errs"
	"github.com/zintix-labs/pairlab/roster"
	"github.com/zintix-labs/pairlab/score"
	"github.com/zintix-labs/pairlab/sdk/core"
)

// Input 一次配對的完整輸入，三者以成員 id 對齊
type Input struct {
	Scores       score.Matrix
	Genders      []roster.Gender
	Orientations []roster.Orientation
}

// Len 人數
func (in *Input) Len() int { return len(in.Scores) }

// Valid 在分組前一次檢查完所有輸入合約
func (in *Input) Valid() error {
	if in == nil {
		return errs.Coded(errs.InvalidParam, "nil input")
	}
	n := len(in.Scores)
	if len(in.Genders) != n || len(in.Orientations) != n {
		return errs.Coded(errs.DimensionMismatch, "score matrix is %d×%d but got %d identities and %d preferences",
			n, n, len(in.Genders), len(in.Orientations))
	}
	if err := in.Scores.Valid(); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if !in.Genders[i].Valid() {
			return errs.Coded(errs.UnknownCategory, "member %d: unrecognized gender identity category %d", i, in.Genders[i])
		}
		if !in.Orientations[i].Valid() {
			return errs.Coded(errs.UnknownCategory, "member %d: unrecognized orientation category %d", i, in.Orientations[i])
		}
	}
	return nil
}

// ParseInput 把原始標籤轉成型別化輸入；長度或標籤不合法即失敗。
func ParseInput(scores [][]float64, genders, prefs []string) (*Input, error) {
	in := &Input{
		Scores:       score.Matrix(scores),
		Genders:      make([]roster.Gender, len(genders)),
		Orientations: make([]roster.Orientation, len(prefs)),
	}
	if len(genders) != len(scores) || len(prefs) != len(scores) {
		return nil, errs.Coded(errs.DimensionMismatch, "score matrix has %d rows but got %d identities and %d preferences",
			len(scores), len(genders), len(prefs))
	}
	for i, s := range genders {
		g, err := roster.ParseGender(s)
		if err != nil {
			return nil, errs.Wrap(err, fmt.Sprintf("member %d", i))
		}
		in.Genders[i] = g
	}
	for i, s := range prefs {
		o, err := roster.ParseOrientation(s)
		if err != nil {
			return nil, errs.Wrap(err, fmt.Sprintf("member %d", i))
		}
		in.Orientations[i] = o
	}
	if err := in.Valid(); err != nil {
		return nil, err
	}
	return in, nil
}

// InputOf 由名冊與分數矩陣組出輸入
func InputOf(r *roster.Roster, m score.Matrix) *Input {
	return &Input{Scores: m, Genders: r.Genders(), Orientations: r.Orientations()}
}

// Options 單次配對參數
type Options struct {
	Filter    FilterMode
	MaxRounds int // 0 表示不設上限
}

// Pair 一組配對
type Pair struct {
	Proposer int     `json:"proposer" yaml:"proposer"`
	Receiver int     `json:"receiver" yaml:"receiver"`
	Score    float64 `json:"score"    yaml:"score"`
}

// Result 一次配對的結果；Pairs 依 proposer id 遞增。
type Result struct {
	Pairs              []Pair `json:"pairs"               yaml:"pairs"`
	Groups             Groups `json:"groups"              yaml:"groups"`
	UnmatchedProposers []int  `json:"unmatched_proposers" yaml:"unmatched_proposers,flow"`
	UnmatchedReceivers []int  `json:"unmatched_receivers" yaml:"unmatched_receivers,flow"`
	Rounds             int    `json:"rounds"              yaml:"rounds"`
	Proposals          int    `json:"proposals"           yaml:"proposals"`
}

// PartnerOf 回傳 id 的配對對象與分數
func (res *Result) PartnerOf(id int) (partner int, s float64, ok bool) {
	for _, p := range res.Pairs {
		switch id {
		case p.Proposer:
			return p.Receiver, p.Score, true
		case p.Receiver:
			return p.Proposer, p.Score, true
		}
	}
	return -1, 0, false
}

// TotalScore 所有配對分數總和
func (res *Result) TotalScore() float64 {
	var t float64
	for _, p := range res.Pairs {
		t += p.Score
	}
	return t
}

// Run 驗證輸入、以 rng 隨機分組、建立偏好清單並執行引擎。
func Run(in *Input, rng core.RAND, opts Options) (*Result, error) {
	if err := in.Valid(); err != nil {
		return nil, err
	}
	g, err := Partition(in.Len(), rng)
	if err != nil {
		return nil, err
	}
	return solve(in, g, opts)
}

// RunGroups 與 Run 相同，但分組由呼叫端指定
func RunGroups(in *Input, g Groups, opts Options) (*Result, error) {
	if err := in.Valid(); err != nil {
		return nil, err
	}
	if err := g.Valid(in.Len()); err != nil {
		return nil, err
	}
	g = Groups{Proposers: slices.Sorted(slices.Values(g.Proposers)), Receivers: slices.Sorted(slices.Values(g.Receivers))}
	return solve(in, g, opts)
}

func solve(in *Input, g Groups, opts Options) (*Result, error) {
	eng := NewEngine(g, BuildPreferences(in, g, opts.Filter))
	eng.SetMaxRounds(opts.MaxRounds)
	if err := eng.Run(); err != nil {
		return nil, err
	}
	res := &Result{
		Pairs:              eng.Pairs(),
		Groups:             g,
		UnmatchedProposers: eng.Retired(),
		UnmatchedReceivers: make([]int, 0),
		Rounds:             eng.Rounds(),
		Proposals:          eng.Proposals(),
	}
	for _, r := range g.Receivers {
		if _, ok := eng.Engagement(r); !ok {
			res.UnmatchedReceivers = append(res.UnmatchedReceivers, r)
		}
	}
	if res.UnmatchedProposers == nil {
		res.UnmatchedProposers = make([]int, 0)
	}
	return res, nil
}
