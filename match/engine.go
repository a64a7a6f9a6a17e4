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
	"slices"

	"github.com/zintix-labs/pairlab/errs"
)

// Engagement receiver 目前接受的提議；一旦建立只會被更高分覆寫，不會刪除。
type Engagement struct {
	Proposer int
	Score    float64
}

// Engine 延遲接受引擎。每一輪依 id 遞增處理本輪開始時的自由 proposer，每人提議一次：
//   - 清單已耗盡：永久未配對並退場
//   - 對象未被佔用：訂婚
//   - 分數嚴格大於現任：現任被踢回下一輪自由集合（清單不變），由提議者取代
//   - 否則：被拒，消耗該項，下一輪繼續
//
// 每一輪至少消耗一個清單項目、讓一位 proposer 訂婚或退場，因此必定在有限輪內結束。
type Engine struct {
	prefs     Preferences
	engaged   []Engagement // receiver id -> 訂婚
	has       []bool       // receiver 是否曾被訂婚
	partner   []int        // proposer id -> receiver id，-1 表示自由/未配對
	free      []int
	retired   []int
	maxRounds int
	rounds    int
	proposals int
}

// NewEngine 以分組與偏好清單建立引擎；初始自由集合為所有清單非空的 proposer。
// 清單為空的 proposer 直接視為永久未配對。
func NewEngine(g Groups, prefs Preferences) *Engine {
	n := len(prefs)
	e := &Engine{
		prefs:   prefs,
		engaged: make([]Engagement, n),
		has:     make([]bool, n),
		partner: make([]int, n),
		free:    make([]int, 0, len(g.Proposers)),
	}
	for i := range e.partner {
		e.partner[i] = -1
	}
	for _, p := range g.Proposers {
		if prefs[p].Exhausted() {
			e.retired = append(e.retired, p)
			continue
		}
		e.free = append(e.free, p)
	}
	slices.Sort(e.free)
	return e
}

// SetMaxRounds 設定安全上限（0 表示不限制）
func (e *Engine) SetMaxRounds(n int) { e.maxRounds = max(0, n) }

// Done 自由集合為空即結束
func (e *Engine) Done() bool { return len(e.free) == 0 }

func (e *Engine) Rounds() int    { return e.rounds }
func (e *Engine) Proposals() int { return e.proposals }

// Free 目前自由集合的副本
func (e *Engine) Free() []int { return slices.Clone(e.free) }

// Engagement 回傳 receiver r 目前的訂婚
func (e *Engine) Engagement(r int) (Engagement, bool) {
	if r < 0 || r >= len(e.has) || !e.has[r] {
		return Engagement{}, false
	}
	return e.engaged[r], true
}

// Step 執行一輪；已結束時為 no-op。
func (e *Engine) Step() {
	if e.Done() {
		return
	}
	e.rounds++
	cur := e.free
	next := make([]int, 0, len(cur))
	for _, p := range cur {
		l := e.prefs[p]
		head, ok := l.Head()
		if !ok {
			e.retired = append(e.retired, p)
			continue
		}
		e.proposals++
		r := head.Receiver
		switch {
		case !e.has[r]:
			e.engage(p, r, head.Score)
		case head.Score > e.engaged[r].Score:
			old := e.engaged[r].Proposer
			e.partner[old] = -1
			next = append(next, old)
			e.engage(p, r, head.Score)
		default:
			l.Advance()
			next = append(next, p)
		}
	}
	slices.Sort(next)
	e.free = next
}

func (e *Engine) engage(p, r int, s float64) {
	e.engaged[r] = Engagement{Proposer: p, Score: s}
	e.has[r] = true
	e.partner[p] = r
}

// Run 執行到結束；超過 maxRounds 回傳 RoundCeiling（Fatal），不回傳部分結果。
func (e *Engine) Run() error {
	for !e.Done() {
		if e.maxRounds > 0 && e.rounds >= e.maxRounds {
			err := errs.Coded(errs.RoundCeiling, "matching did not converge within %d rounds (%d proposers still free)",
				e.maxRounds, len(e.free))
			err.ErrLv = errs.Fatal
			return err
		}
		e.Step()
	}
	return nil
}

// Pairs 依 proposer id 遞增列出目前所有配對
func (e *Engine) Pairs() []Pair {
	out := make([]Pair, 0, len(e.partner)/2)
	for p, r := range e.partner {
		if r < 0 {
			continue
		}
		out = append(out, Pair{Proposer: p, Receiver: r, Score: e.engaged[r].Score})
	}
	return out
}

// Retired 永久未配對的 proposer（遞增）
func (e *Engine) Retired() []int {
	out := slices.Clone(e.retired)
	slices.Sort(out)
	return out
}
