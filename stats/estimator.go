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

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// confidence 報表所有區間共用的信賴水準
const confidence = 0.95

// betaBounds k/n 的 Clopper–Pearson 上下界；k=0 與 k=n 時分別釘在 0 與 1。
func betaBounds(k, n int) (lo, hi float64) {
	alpha := 1 - confidence
	lo, hi = 0, 1
	if k > 0 {
		lo = distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}.Quantile(alpha / 2)
	}
	if k < n {
		hi = distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}.Quantile(1 - alpha/2)
	}
	return lo, hi
}

// proportion 二項比例的點估計與精確區間；n=0 時回傳 0 與 [0, 1]。
func proportion(k, n int) PointStat {
	if n <= 0 {
		return PointStat{CI: CI{Lo: 0, Hi: 1}}
	}
	lo, hi := betaBounds(k, n)
	return PointStat{Hat: float64(k) / float64(n), CI: CI{Lo: lo, Hi: hi}}
}

// quantileStat 第 q 分位的經驗估計，區間由 order statistic 的秩反推。
func quantileStat(data []float64, q float64) PointStat {
	n := len(data)
	if n == 0 {
		return PointStat{}
	}
	sorted := slices.Sorted(slices.Values(data))
	hat := stat.Quantile(q, stat.Empirical, sorted, nil)
	if n == 1 {
		return PointStat{Hat: hat, CI: CI{Lo: hat, Hi: hat}}
	}

	k := min(max(int(q*float64(n)), 1), n-1)
	pLo, pHi := betaBounds(k, n)
	li := clampIndex(int(pLo*float64(n)), n)
	ui := clampIndex(int(pHi*float64(n))-1, n)
	return PointStat{Hat: hat, CI: CI{Lo: min(sorted[li], hat), Hi: max(sorted[ui], hat)}}
}

func clampIndex(i, n int) int {
	return min(max(i, 0), n-1)
}

func pct(x float64) string {
	return fmt.Sprintf("%.2f%%", x*100)
}

func pctCI(p PointStat) string {
	return fmt.Sprintf("%s [%s, %s]", pct(p.Hat), pct(p.CI.Lo), pct(p.CI.Hi))
}
