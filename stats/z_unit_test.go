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

package stats_test

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/zintix-labs/pairlab/stats"
	"gopkg.in/yaml.v3"
)

// buildReport 每次 run 都有 pairs[i] 組配對、平均分數 means[i]
func buildReport(population int, pairs []int, means []float64) *stats.SimReport {
	var total, sq int
	var scoreSum float64
	collect := make([]int, stats.Buckets.Len())
	for i, p := range pairs {
		total += p
		sq += p * p
		scoreSum += means[i] * float64(p)
		collect[stats.Buckets.Index(means[i])] += p
	}
	return &stats.SimReport{
		Summary: &stats.SummaryReport{
			RosterName: "test",
			Filter:     "score",
			Population: population,
			Runs:       len(pairs),
			Pairs:      total,
			PairsSqSum: sq,
		},
		Score:   &stats.ScoreReport{ScoreSum: scoreSum, RunMeans: means},
		Dist:    &stats.DistReport{ScoreBucket: stats.Buckets.Labels(), Collect: collect},
		Members: []stats.MemberReport{{ID: 0, Name: "a", Matched: 1, ScoreSum: 50}, {ID: 1, Name: "b"}},
	}
}

func TestSimReportCoreMetrics(t *testing.T) {
	rep := buildReport(4, []int{2, 1}, []float64{80, 40})
	rep.Done()

	if rep.Summary.MeanPairs != 1.5 {
		t.Fatalf("mean pairs got %v", rep.Summary.MeanPairs)
	}
	wantStd := math.Sqrt(((4 + 1) - 9.0/2) / 1)
	if math.Abs(rep.Summary.PairsStd-wantStd) > 1e-12 {
		t.Fatalf("pairs std got %v want %v", rep.Summary.PairsStd, wantStd)
	}
	// 6 of 8 member-slots matched
	if rep.Summary.MatchRate.Hat != 0.75 {
		t.Fatalf("match rate got %v", rep.Summary.MatchRate.Hat)
	}
	ci := rep.Summary.MatchRate.CI
	if !(ci.Lo < 0.75 && 0.75 < ci.Hi && ci.Lo >= 0 && ci.Hi <= 1) {
		t.Fatalf("match rate CI does not cover estimate: %+v", ci)
	}
	if rep.Score.Mean != 60 {
		t.Fatalf("mean score got %v", rep.Score.Mean)
	}
	if math.Abs(rep.Score.PairScore-200.0/3) > 1e-9 {
		t.Fatalf("pair score got %v", rep.Score.PairScore)
	}
	if rep.Dist.Dist[8] != 2.0/3 || rep.Dist.Dist[4] != 1.0/3 {
		t.Fatalf("unexpected dist %v", rep.Dist.Dist)
	}
	if rep.Members[0].Rate.Hat != 0.5 || rep.Members[0].MeanScore != 50 || rep.Members[1].MeanScore != 0 {
		t.Fatalf("unexpected members %+v", rep.Members)
	}

	rep.Done() // idempotent
	if rep.Summary.MeanPairs != 1.5 {
		t.Fatalf("mean pairs changed after second Done")
	}
}

func TestSimReportQuantiles(t *testing.T) {
	n := 100
	pairs := make([]int, n)
	means := make([]float64, n)
	for i := range means {
		pairs[i] = 1
		means[i] = float64(i)
	}
	rep := buildReport(2, pairs, means)
	rep.Done()
	if math.Abs(rep.Score.Median.Hat-50) > 5 {
		t.Fatalf("median expected ~50, got %v", rep.Score.Median.Hat)
	}
	if math.Abs(rep.Score.P90.Hat-90) > 5 {
		t.Fatalf("P90 expected ~90, got %v", rep.Score.P90.Hat)
	}
	if rep.Score.Median.CI.Lo > rep.Score.Median.Hat || rep.Score.Median.CI.Hi < rep.Score.Median.Hat {
		t.Fatalf("median CI should cover estimate: %+v", rep.Score.Median)
	}
	if rep.Summary.MatchRate.Hat != 1 || rep.Summary.MatchRate.CI.Hi != 1 {
		t.Fatalf("full matching should give rate 1: %+v", rep.Summary.MatchRate)
	}
}

func TestEmptyReport(t *testing.T) {
	rep := buildReport(0, nil, nil)
	rep.Done()
	if rep.Summary.MeanPairs != 0 || rep.Score.Mean != 0 || rep.Summary.MatchRate.Hat != 0 {
		t.Fatalf("empty report should be zero: %+v", rep.Summary)
	}
}

func TestScoreBuckets(t *testing.T) {
	cases := map[float64]int{-1: 0, 0: 0, 9.99: 0, 10: 1, 55: 5, 99.9: 9, 100: 9, 250: 9}
	for s, want := range cases {
		if got := stats.Buckets.Index(s); got != want {
			t.Fatalf("Index(%v)=%d want %d", s, got, want)
		}
	}
	if stats.Buckets.Len() != len(stats.Buckets.Labels()) {
		t.Fatalf("labels mismatch")
	}
}

func TestRenders(t *testing.T) {
	rep := buildReport(4, []int{2, 1}, []float64{80, 40})

	var jb bytes.Buffer
	if err := rep.WriteWith(&jb, &stats.JsonSimReportRender{}); err != nil {
		t.Fatalf("json: %v", err)
	}
	var back map[string]any
	if err := json.Unmarshal(jb.Bytes(), &back); err != nil {
		t.Fatalf("json output not parseable: %v", err)
	}
	if _, ok := back["Summary"]; !ok {
		t.Fatalf("json missing summary: %s", jb.String())
	}

	r, err := stats.RenderOf("YAML")
	if err != nil {
		t.Fatalf("RenderOf: %v", err)
	}
	var yb bytes.Buffer
	if err := rep.WriteWith(&yb, r); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if !strings.Contains(yb.String(), "score_bucket: [") {
		t.Fatalf("inner sequences should be flow style:\n%s", yb.String())
	}
	var ym map[string]any
	if err := yaml.Unmarshal(yb.Bytes(), &ym); err != nil {
		t.Fatalf("yaml output not parseable: %v", err)
	}
	if _, err := stats.RenderOf("xml"); err == nil {
		t.Fatalf("expected unsupported format error")
	}
}

func TestFprintTable(t *testing.T) {
	rep := buildReport(4, []int{2, 1}, []float64{80, 40})
	var b bytes.Buffer
	rep.Fprint(&b, 1500*time.Millisecond, true)
	out := b.String()
	for _, want := range []string{"used: 1.50 seconds", "Match Rate", "Blocking Pairs", "#0 a"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
	tbl := stats.Table("配對", []string{"名稱"}, map[string]string{"名稱": "值"})
	lines := strings.Split(strings.TrimSpace(tbl), "\n")
	if len(lines) != 5 || len(lines[0]) != len(lines[4]) {
		t.Fatalf("table borders misaligned:\n%s", tbl)
	}
}
