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

// BlockingPairs 列出所有會破壞穩定性的 (p, r)：r 是 p 的候選人，且
// score[p][r] 同時大於 p 目前的配對分數與 r 目前的配對分數（未配對視為 0）。
// 引擎的輸出此清單必為空。
func BlockingPairs(in *Input, res *Result, mode FilterMode) []Pair {
	n := in.Len()
	matched := make([]float64, n)
	pairedWith := make([]int, n)
	for i := range pairedWith {
		pairedWith[i] = -1
	}
	for _, p := range res.Pairs {
		matched[p.Proposer], matched[p.Receiver] = p.Score, p.Score
		pairedWith[p.Proposer] = p.Receiver
	}
	var out []Pair
	for _, p := range res.Groups.Proposers {
		row := in.Scores[p]
		for _, r := range res.Groups.Receivers {
			s := row[r]
			if s <= 0 || pairedWith[p] == r {
				continue
			}
			if mode == FilterOrientation &&
				!Admissible(in.Genders[p], in.Orientations[p], in.Genders[r], in.Orientations[r]) {
				continue
			}
			if s > matched[p] && s > matched[r] {
				out = append(out, Pair{Proposer: p, Receiver: r, Score: s})
			}
		}
	}
	return out
}
