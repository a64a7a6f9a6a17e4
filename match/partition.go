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

// Package match 是穩定配對核心：隨機分組、候選過濾、偏好清單與延遲接受（deferred acceptance）引擎。
//
// 所有隨機性都由呼叫端注入（core.RAND），同一份輸入與同一個 seed 必定得到相同配對。
// 引擎為單執行緒、同步；平行化只發生在「多次獨立配對」之間（見 pairlab.Simulator）。
//
// 雙方共用同一個分數 score[p][r]：receiver 對 proposer 的偏好同樣以該值比較，並非兩份獨立排名。
package match

import (
	"math"
	"slices"

	"github.com/zintix-labs/pairlab/errs"
	"github.com/zintix-labs/pairlab/sdk/core"
)

// Groups 一次配對的分組，兩者互斥且合起來涵蓋全體，皆遞增排序。
type Groups struct {
	Proposers []int `json:"proposers" yaml:"proposers,flow"`
	Receivers []int `json:"receivers" yaml:"receivers,flow"`
}

// ProposerCount n/2 以銀行家捨入（四捨六入五成雙）取整
func ProposerCount(n int) int {
	if n <= 0 {
		return 0
	}
	return int(math.RoundToEven(float64(n) / 2))
}

// Partition 以 rng 均勻不放回抽出 ProposerCount(n) 位 proposer，其餘為 receiver。
func Partition(n int, rng core.RAND) (Groups, error) {
	if n < 0 {
		return Groups{}, errs.Coded(errs.InvalidParam, "population size must be >= 0, got %d", n)
	}
	if rng == nil {
		return Groups{}, errs.NewFatal("partition requires a random source")
	}
	picked, rest := core.Sample(rng, n, ProposerCount(n))
	slices.Sort(picked)
	slices.Sort(rest)
	return Groups{Proposers: picked, Receivers: rest}, nil
}

// Roles 回傳長度 n 的角色表：true 表示 proposer
func (g Groups) Roles(n int) []bool {
	out := make([]bool, n)
	for _, p := range g.Proposers {
		if p >= 0 && p < n {
			out[p] = true
		}
	}
	return out
}

// Valid 檢查兩組互斥、涵蓋 [0, n)
func (g Groups) Valid(n int) error {
	if len(g.Proposers)+len(g.Receivers) != n {
		return errs.Coded(errs.DimensionMismatch, "groups cover %d ids, population is %d",
			len(g.Proposers)+len(g.Receivers), n)
	}
	seen := make([]bool, n)
	for _, ids := range [2][]int{g.Proposers, g.Receivers} {
		for _, id := range ids {
			if id < 0 || id >= n {
				return errs.Coded(errs.InvalidParam, "group id %d out of range [0, %d)", id, n)
			}
			if seen[id] {
				return errs.Coded(errs.InvalidParam, "id %d assigned twice", id)
			}
			seen[id] = true
		}
	}
	return nil
}
