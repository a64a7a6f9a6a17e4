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
	"testing"

	"github.com/zintix-labs/pairlab/match"
)

func result(pairs []match.Pair, proposers, receivers []int, unP, unR []int, rounds int) *match.Result {
	return &match.Result{
		Pairs:              pairs,
		Groups:             match.Groups{Proposers: proposers, Receivers: receivers},
		UnmatchedProposers: unP,
		UnmatchedReceivers: unR,
		Rounds:             rounds,
		Proposals:          rounds + 1,
	}
}

func TestRecordAndDone(t *testing.T) {
	r, err := NewRunRecorder("demo", 1, match.FilterScoreOnly, 4, []string{"a", "b", "c", "d"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r.Record(result([]match.Pair{{Proposer: 0, Receiver: 2, Score: 90}, {Proposer: 1, Receiver: 3, Score: 50}},
		[]int{0, 1}, []int{2, 3}, nil, nil, 2), 0)
	r.Record(result([]match.Pair{{Proposer: 3, Receiver: 0, Score: 15}},
		[]int{1, 3}, []int{0, 2}, []int{1}, []int{2}, 3), 0)

	rep := r.Done()
	sm := rep.Summary
	if sm.Runs != 2 || sm.Pairs != 3 || sm.PairsSqSum != 5 || sm.MaxRounds != 3 || sm.Rounds != 5 || sm.Proposals != 7 {
		t.Fatalf("unexpected summary: %+v", sm)
	}
	if sm.UnmatchedProposers != 1 || sm.UnmatchedReceivers != 1 || sm.BlockingPairs != 0 {
		t.Fatalf("unexpected unmatched counters: %+v", sm)
	}
	if rep.Score.Mean != (70+15)/2.0 {
		t.Fatalf("unexpected mean score %v", rep.Score.Mean)
	}
	if rep.Dist.Collect[9] != 1 || rep.Dist.Collect[5] != 1 || rep.Dist.Collect[1] != 1 {
		t.Fatalf("unexpected dist %v", rep.Dist.Collect)
	}
	m0 := rep.Members[0]
	if m0.Name != "a" || m0.Matched != 2 || m0.AsProposer != 1 || m0.MeanScore != 52.5 || m0.Rate.Hat != 1 {
		t.Fatalf("unexpected member 0: %+v", m0)
	}
	if rep.Members[1].AsProposer != 2 || rep.Members[1].Matched != 1 {
		t.Fatalf("unexpected member 1: %+v", rep.Members[1])
	}
	if rep.Summary.Filter != "score" {
		t.Fatalf("unexpected filter label %q", rep.Summary.Filter)
	}
}

func TestMergeRunRecorder(t *testing.T) {
	a, _ := NewRunRecorder("demo", 1, match.FilterOrientation, 2, nil)
	b, _ := NewRunRecorder("demo", 1, match.FilterOrientation, 2, nil)
	res := result([]match.Pair{{Proposer: 0, Receiver: 1, Score: 30}}, []int{0}, []int{1}, nil, nil, 1)
	a.Record(res, 0)
	b.Record(res, 1)
	b.Record(res, 0)

	m, err := MergeRunRecorder([]*RunRecorder{a, b})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Basic.Runs != 3 || m.Basic.Pairs != 3 || m.Basic.Blocking != 1 || len(m.Basic.RunMeans) != 3 {
		t.Fatalf("unexpected merge: %+v", m.Basic)
	}
	if m.Member.Matched[1] != 3 || m.Dist.Collect[3] != 3 {
		t.Fatalf("unexpected merged members/dist")
	}

	c, _ := NewRunRecorder("other", 1, match.FilterOrientation, 2, nil)
	if _, err := MergeRunRecorder([]*RunRecorder{a, c}); err == nil {
		t.Fatalf("expected different roster error")
	}
	d, _ := NewRunRecorder("demo", 1, match.FilterScoreOnly, 2, nil)
	if _, err := MergeRunRecorder([]*RunRecorder{a, d}); err == nil {
		t.Fatalf("expected different filter error")
	}
	if _, err := MergeRunRecorder(nil); err == nil {
		t.Fatalf("expected empty error")
	}
}

func TestNewRunRecorderValid(t *testing.T) {
	if _, err := NewRunRecorder("x", 0, match.FilterScoreOnly, -1, nil); err == nil {
		t.Fatalf("expected negative population error")
	}
	if _, err := NewRunRecorder("x", 0, match.FilterScoreOnly, 2, []string{"a"}); err == nil {
		t.Fatalf("expected names mismatch error")
	}
}
