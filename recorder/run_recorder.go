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

package recorder

import (
	"github.com/zintix-labs/pairlab/errs"
	"github.com/zintix-labs/pairlab/match"
	"github.com/zintix-labs/pairlab/roster"
	"github.com/zintix-labs/pairlab/stats"
)

// RunRecorder 配對紀錄員
//
// 每位 worker 持有一個 RunRecorder，逐次紀錄 match.Result，最後合併並透過 Done 輸出報表。
type RunRecorder struct {
	RosterName string
	RID        roster.RID
	Filter     match.FilterMode
	Population int
	Names      []string
	Basic      *BasicRecord
	Dist       *DistRecord
	Member     *MemberRecord
}

// BasicRecord 基本配對資料紀錄
type BasicRecord struct {
	Runs               int
	Pairs              int
	PairsSqSum         int // 平方和
	ScoreSum           float64
	UnmatchedProposers int
	UnmatchedReceivers int
	Rounds             int
	MaxRounds          int
	Proposals          int
	Blocking           int
	RunMeans           []float64
}

// DistRecord 配對分數區間落點
type DistRecord struct {
	Collect []int
}

// MemberRecord 以成員 id 為索引
type MemberRecord struct {
	Matched    []int
	AsProposer []int
	ScoreSum   []float64
}

// NewRunRecorder names 可為 nil（成員報表只會有 id）
func NewRunRecorder(name string, id roster.RID, filter match.FilterMode, population int, names []string) (*RunRecorder, error) {
	if population < 0 {
		return nil, errs.Fatalf("population must not be negative, got: %d", population)
	}
	if names != nil && len(names) != population {
		return nil, errs.Fatalf("names has %d entries, population is %d", len(names), population)
	}
	return &RunRecorder{
		RosterName: name,
		RID:        id,
		Filter:     filter,
		Population: population,
		Names:      names,
		Basic:      &BasicRecord{RunMeans: make([]float64, 0, 64)},
		Dist:       &DistRecord{Collect: make([]int, stats.Buckets.Len())},
		Member: &MemberRecord{
			Matched:    make([]int, population),
			AsProposer: make([]int, population),
			ScoreSum:   make([]float64, population),
		},
	}, nil
}

// Record 紀錄一次配對結果；blocking 為該次的不穩定配對數（正常為 0）。
func (r *RunRecorder) Record(res *match.Result, blocking int) {
	b := r.Basic
	np := len(res.Pairs)
	b.Runs++
	b.Pairs += np
	b.PairsSqSum += np * np
	b.UnmatchedProposers += len(res.UnmatchedProposers)
	b.UnmatchedReceivers += len(res.UnmatchedReceivers)
	b.Rounds += res.Rounds
	b.MaxRounds = max(b.MaxRounds, res.Rounds)
	b.Proposals += res.Proposals
	b.Blocking += blocking

	var sum float64
	m := r.Member
	for _, p := range res.Pairs {
		sum += p.Score
		r.Dist.Collect[stats.Buckets.Index(p.Score)]++
		m.Matched[p.Proposer]++
		m.Matched[p.Receiver]++
		m.ScoreSum[p.Proposer] += p.Score
		m.ScoreSum[p.Receiver] += p.Score
	}
	for _, p := range res.Groups.Proposers {
		m.AsProposer[p]++
	}
	b.ScoreSum += sum
	if np > 0 {
		b.RunMeans = append(b.RunMeans, sum/float64(np))
	}
}

// MergeRunRecorder 合併多位 worker 的紀錄；名冊與過濾策略必須一致。
func MergeRunRecorder(rs []*RunRecorder) (*RunRecorder, error) {
	if len(rs) == 0 {
		return nil, errs.NewFatal("merge run record err : empty recorders")
	}
	r0 := rs[0]
	s, err := NewRunRecorder(r0.RosterName, r0.RID, r0.Filter, r0.Population, r0.Names)
	if err != nil {
		return nil, err
	}
	for _, v := range rs {
		if v.RosterName != r0.RosterName || v.RID != r0.RID {
			return nil, errs.NewFatal("merge run record err : different roster")
		}
		if v.Population != r0.Population {
			return nil, errs.NewFatal("merge run record err : different population")
		}
		if v.Filter != r0.Filter {
			return nil, errs.NewFatal("merge run record err : different filter")
		}
		b := v.Basic
		s.Basic.Runs += b.Runs
		s.Basic.Pairs += b.Pairs
		s.Basic.PairsSqSum += b.PairsSqSum
		s.Basic.ScoreSum += b.ScoreSum
		s.Basic.UnmatchedProposers += b.UnmatchedProposers
		s.Basic.UnmatchedReceivers += b.UnmatchedReceivers
		s.Basic.Rounds += b.Rounds
		s.Basic.MaxRounds = max(s.Basic.MaxRounds, b.MaxRounds)
		s.Basic.Proposals += b.Proposals
		s.Basic.Blocking += b.Blocking
		s.Basic.RunMeans = append(s.Basic.RunMeans, b.RunMeans...)

		for i, c := range v.Dist.Collect {
			s.Dist.Collect[i] += c
		}
		for i := 0; i < v.Population; i++ {
			s.Member.Matched[i] += v.Member.Matched[i]
			s.Member.AsProposer[i] += v.Member.AsProposer[i]
			s.Member.ScoreSum[i] += v.Member.ScoreSum[i]
		}
	}
	return s, nil
}

// Done 產出報表（已呼叫 SimReport.Done）
func (r *RunRecorder) Done() *stats.SimReport {
	b := r.Basic
	report := &stats.SimReport{
		Summary: &stats.SummaryReport{
			RosterName:         r.RosterName,
			RID:                r.RID,
			Filter:             r.Filter.String(),
			Population:         r.Population,
			Runs:               b.Runs,
			Pairs:              b.Pairs,
			PairsSqSum:         b.PairsSqSum,
			UnmatchedProposers: b.UnmatchedProposers,
			UnmatchedReceivers: b.UnmatchedReceivers,
			Rounds:             b.Rounds,
			MaxRounds:          b.MaxRounds,
			Proposals:          b.Proposals,
			BlockingPairs:      b.Blocking,
		},
		Score: &stats.ScoreReport{
			ScoreSum: b.ScoreSum,
			RunMeans: append([]float64(nil), b.RunMeans...),
		},
		Dist: &stats.DistReport{
			ScoreBucket: stats.Buckets.Labels(),
			Collect:     append([]int(nil), r.Dist.Collect...),
		},
		Members: make([]stats.MemberReport, r.Population),
	}
	for i := 0; i < r.Population; i++ {
		mr := stats.MemberReport{
			ID:         i,
			Matched:    r.Member.Matched[i],
			AsProposer: r.Member.AsProposer[i],
			ScoreSum:   r.Member.ScoreSum[i],
		}
		if r.Names != nil {
			mr.Name = r.Names[i]
		}
		report.Members[i] = mr
	}
	report.Done()
	return report
}
