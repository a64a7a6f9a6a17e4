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

package stats

import "math"

// ScoreBuckets 配對分數落點區間，用來 O(1) 定位分數 -> DistReport 位置
//
//	[0,10), [10,20), ..., [80,90), [90,100]
type ScoreBuckets struct {
	width  float64
	labels []string
}

var Buckets = &ScoreBuckets{
	width: 10,
	labels: []string{"[0,10)", "[10,20)", "[20,30)", "[30,40)", "[40,50)",
		"[50,60)", "[60,70)", "[70,80)", "[80,90)", "[90,100]"},
}

func (b *ScoreBuckets) Labels() []string { return b.labels }
func (b *ScoreBuckets) Len() int         { return len(b.labels) }

// Index 分數所在區間；超出 [0,100] 的值歸到兩端
func (b *ScoreBuckets) Index(s float64) int {
	if s <= 0 || math.IsNaN(s) {
		return 0
	}
	return min(int(s/b.width), len(b.labels)-1)
}
