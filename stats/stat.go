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

// Package stats 把多次隨機分組配對的累積計數整理成 Monte Carlo 報表。
//
// 紀錄階段（recorder）只做整數/加總，Done 才一次性計算平均、標準差、信賴區間與分位數。
package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/zintix-labs/pairlab/roster"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

var lang language.Tag = language.English

// 信賴區間
type CI struct {
	Lo float64 `json:"Lo" yaml:"lo"`
	Hi float64 `json:"Hi" yaml:"hi"`
}

// PointStat 點估計 回傳 估計值 以及信賴區間
type PointStat struct {
	Hat float64 `json:"Hat" yaml:"hat"`
	CI  CI      `json:"CI"  yaml:"ci"`
}

// SimReport 配對模擬報告
type SimReport struct {
	Summary *SummaryReport `json:"Summary" yaml:"summary"`
	Score   *ScoreReport   `json:"Score"   yaml:"score"`
	Dist    *DistReport    `json:"Dist"    yaml:"dist"`
	Members []MemberReport `json:"Members" yaml:"members"`
	isDone  bool
}

type SummaryReport struct {
	RosterName         string     `json:"RosterName"         yaml:"roster_name"`
	RID                roster.RID `json:"RID"                yaml:"rid"`
	Filter             string     `json:"Filter"             yaml:"filter"`
	Population         int        `json:"Population"         yaml:"population"`
	Runs               int        `json:"Runs"               yaml:"runs"`
	Pairs              int        `json:"Pairs"              yaml:"pairs"`
	PairsSqSum         int        `json:"PairsSqSum"         yaml:"pairs_sq_sum"`
	MeanPairs          float64    `json:"MeanPairs"          yaml:"mean_pairs"`
	PairsStd           float64    `json:"PairsStd"           yaml:"pairs_std"`
	PairsCI            CI         `json:"PairsCI"            yaml:"pairs_ci"`
	MatchRate          PointStat  `json:"MatchRate"          yaml:"match_rate"`
	UnmatchedProposers int        `json:"UnmatchedProposers" yaml:"unmatched_proposers"`
	UnmatchedReceivers int        `json:"UnmatchedReceivers" yaml:"unmatched_receivers"`
	Rounds             int        `json:"Rounds"             yaml:"rounds"`
	MeanRounds         float64    `json:"MeanRounds"         yaml:"mean_rounds"`
	MaxRounds          int        `json:"MaxRounds"          yaml:"max_rounds"`
	Proposals          int        `json:"Proposals"          yaml:"proposals"`
	MeanProposals      float64    `json:"MeanProposals"      yaml:"mean_proposals"`
	BlockingPairs      int        `json:"BlockingPairs"      yaml:"blocking_pairs"`
}

// ScoreReport 配對分數統計
//
// RunMeans 為每一次配對的平均配對分數（沒有任何配對的 run 不列入）；
// Mean、MeanCI 與 P10/Median/P90 都以 RunMeans 為樣本，PairScore 才是逐對平均。
type ScoreReport struct {
	ScoreSum  float64   `json:"ScoreSum"  yaml:"score_sum"`
	RunMeans  []float64 `json:"-"         yaml:"-"`
	Mean      float64   `json:"Mean"      yaml:"mean"`
	Std       float64   `json:"Std"       yaml:"std"`
	MeanCI    CI        `json:"MeanCI"    yaml:"mean_ci"`
	P10       PointStat `json:"P10"       yaml:"p10"`
	Median    PointStat `json:"Median"    yaml:"median"`
	P90       PointStat `json:"P90"       yaml:"p90"`
	PairScore float64   `json:"PairScore" yaml:"pair_score"` // 所有配對分數的平均
}

// DistReport 配對分數區間落點統計
type DistReport struct {
	ScoreBucket []string  `json:"ScoreBucket" yaml:"score_bucket"`
	Collect     []int     `json:"Collect"     yaml:"collect"`
	Dist        []float64 `json:"Dist"        yaml:"dist"`
}

// MemberReport 單一成員在所有 run 中的配對狀況
type MemberReport struct {
	ID         int       `json:"ID"         yaml:"id"`
	Name       string    `json:"Name"       yaml:"name"`
	Matched    int       `json:"Matched"    yaml:"matched"`
	AsProposer int       `json:"AsProposer" yaml:"as_proposer"`
	ScoreSum   float64   `json:"ScoreSum"   yaml:"score_sum"`
	MeanScore  float64   `json:"MeanScore"  yaml:"mean_score"`
	Rate       PointStat `json:"Rate"       yaml:"rate"`
}

// ============================================================
// ** 公開方法 **
// ============================================================

// Done 將累積計數轉換為最終統計結果；可重複呼叫。
func (s *SimReport) Done() {
	if s.isDone {
		return
	}
	sm := s.Summary
	runs := float64(sm.Runs)
	if sm.Runs > 0 {
		sm.MeanPairs = float64(sm.Pairs) / runs
		sm.MeanRounds = float64(sm.Rounds) / runs
		sm.MeanProposals = float64(sm.Proposals) / runs
	}
	sm.PairsStd = sampleStd(float64(sm.Pairs), float64(sm.PairsSqSum), sm.Runs)
	sm.PairsCI = normalCI(sm.MeanPairs, sm.PairsStd, sm.Runs)
	sm.MatchRate = proportion(2*sm.Pairs, sm.Runs*sm.Population)

	sc := s.Score
	if len(sc.RunMeans) > 0 {
		sc.Mean = stat.Mean(sc.RunMeans, nil)
		if len(sc.RunMeans) > 1 {
			sc.Std = stat.StdDev(sc.RunMeans, nil)
		}
		sc.MeanCI = normalCI(sc.Mean, sc.Std, len(sc.RunMeans))
		sc.P10 = quantileStat(sc.RunMeans, 0.10)
		sc.Median = quantileStat(sc.RunMeans, 0.50)
		sc.P90 = quantileStat(sc.RunMeans, 0.90)
	}
	if sm.Pairs > 0 {
		sc.PairScore = sc.ScoreSum / float64(sm.Pairs)
	}

	d := s.Dist
	d.Dist = make([]float64, len(d.Collect))
	if sm.Pairs > 0 {
		for i, c := range d.Collect {
			d.Dist[i] = float64(c) / float64(sm.Pairs)
		}
	}

	for i := range s.Members {
		m := &s.Members[i]
		m.Rate = proportion(m.Matched, sm.Runs)
		if m.Matched > 0 {
			m.MeanScore = m.ScoreSum / float64(m.Matched)
		}
	}
	s.isDone = true
}

func (s *SimReport) WriteWith(w io.Writer, rep SimReportRender) error {
	s.Done()
	return rep.Write(w, s)
}

// StdOut 印出摘要表與用時
func (s *SimReport) StdOut(used time.Duration) {
	s.Fprint(os.Stdout, used, false)
}

// Fprint 輸出摘要表；members 為 true 時一併列出每位成員的配對率。
func (s *SimReport) Fprint(w io.Writer, used time.Duration, members bool) {
	s.Done()
	fmt.Fprint(w, formatDuration(used, s.Summary.Runs))
	keys, msg := s.fmtBasic()
	fmt.Fprintln(w, Table(s.Summary.RosterName, keys, msg))
	if members && len(s.Members) > 0 {
		keys, msg := s.fmtMembers()
		fmt.Fprintln(w, Table("Match Rate per Member", keys, msg))
	}
}

// ============================================================
// ** 內部方法 **
// ============================================================

func sampleStd(sum, sqSum float64, n int) float64 {
	if n < 2 {
		return 0
	}
	fn := float64(n)
	variance := (sqSum - sum*sum/fn) / (fn - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

// normalCI 平均值的常態近似區間（下界不小於 0）
func normalCI(mean, std float64, n int) CI {
	se := 0.0
	if n > 1 {
		se = std / math.Sqrt(float64(n))
	}
	z := distuv.UnitNormal.Quantile(1 - (1-confidence)/2)
	return CI{Lo: max(mean-z*se, 0.0), Hi: mean + z*se}
}

func formatDuration(d time.Duration, runs int) string {
	p := message.NewPrinter(lang)
	if d < 0 {
		d = -d
	}
	sec := d.Seconds()
	if sec <= 0 {
		sec = 1e-9
	}
	rps := int(float64(runs) / sec)
	if sec < 60.0 {
		return p.Sprintf("used: %.2f seconds\nrps : %d runs/sec\n", sec, rps)
	}
	s := int(d.Seconds()) % 60
	m := int(d.Minutes()) % 60
	h := int(d.Hours())
	if h == 0 {
		return p.Sprintf("used: %dm %ds\nrps : %d runs/sec\n", m, s, rps)
	}
	return p.Sprintf("used: %dh:%dm:%ds\nrps : %d runs/sec\n", h, m, s, rps)
}

func (s *SimReport) fmtBasic() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	sm, sc := s.Summary, s.Score
	basic := map[string]string{
		"Roster":            p.Sprintf("%s", sm.RosterName),
		"Roster ID":         fmt.Sprintf("%d", sm.RID),
		"Filter":            sm.Filter,
		"Population":        p.Sprintf("%d", sm.Population),
		"Runs":              p.Sprintf("%d", sm.Runs),
		"Mean Pairs":        p.Sprintf("%.3f", sm.MeanPairs),
		"Pairs 95% CI":      p.Sprintf("[%.3f, %.3f]", sm.PairsCI.Lo, sm.PairsCI.Hi),
		"Match Rate":        pctCI(sm.MatchRate),
		"Mean Pair Score":   p.Sprintf("%.3f", sc.Mean),
		"Score 95% CI":      p.Sprintf("[%.3f, %.3f]", sc.MeanCI.Lo, sc.MeanCI.Hi),
		"Score P10/P50/P90": p.Sprintf("%.2f / %.2f / %.2f", sc.P10.Hat, sc.Median.Hat, sc.P90.Hat),
		"Mean Rounds":       p.Sprintf("%.2f (max %d)", sm.MeanRounds, sm.MaxRounds),
		"Mean Proposals":    p.Sprintf("%.2f", sm.MeanProposals),
		"Blocking Pairs":    p.Sprintf("%d", sm.BlockingPairs),
	}
	keys := []string{"Roster", "Roster ID", "Filter", "Population", "Runs", "Mean Pairs", "Pairs 95% CI", "Match Rate",
		"Mean Pair Score", "Score 95% CI", "Score P10/P50/P90", "Mean Rounds", "Mean Proposals", "Blocking Pairs"}
	return keys, basic
}

func (s *SimReport) fmtMembers() ([]string, map[string]string) {
	keys := make([]string, 0, len(s.Members))
	msg := make(map[string]string, len(s.Members))
	for _, m := range s.Members {
		k := fmt.Sprintf("#%d %s", m.ID, m.Name)
		keys = append(keys, k)
		msg[k] = fmt.Sprintf("%s  avg %.1f", pctCI(m.Rate), m.MeanScore)
	}
	return keys, msg
}

// Table 以框線表格排版 key/value（依 keys 順序），寬度以 runewidth 計算。
func Table(title string, keys []string, msg map[string]string) string {
	p := message.NewPrinter(lang)
	maxKeyLen := 0
	maxValLen := 0
	for k, m := range msg {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(m); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2

	totalInner := maxKeyLen + maxValLen + 1
	titleW := runewidth.StringWidth(title)
	if titleW > totalInner {
		maxValLen += titleW - totalInner
		totalInner = titleW
	}

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", totalInner) + "+\n"

	left := (totalInner - titleW) / 2
	right := totalInner - titleW - left

	var sb strings.Builder
	sb.WriteString(top)
	sb.WriteString(p.Sprintf("|%s%s%s|\n", blank(left), title, blank(right)))
	sb.WriteString(divider)
	for _, k := range keys {
		sb.WriteString(p.Sprintf("| %s%s | %s%s |\n", k, blank(maxKeyLen-2-runewidth.StringWidth(k)), msg[k], blank(maxValLen-2-runewidth.StringWidth(msg[k]))))
	}
	sb.WriteString(divider)
	return sb.String()
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
