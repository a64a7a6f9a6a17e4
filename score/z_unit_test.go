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

package score

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"

	"github.com/zintix-labs/pairlab/errs"
	"github.com/zintix-labs/pairlab/roster"
)

func member(g roster.Gender, accepts []roster.Gender, year int, resp ...int) *roster.Member {
	return &roster.Member{Gender: g, Accepts: accepts, GradYear: year, Responses: resp}
}

var (
	likesMale   = []roster.Gender{roster.Male}
	likesFemale = []roster.Gender{roster.Female}
)

func almost(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestIdenticalProfilesScoreMaximum(t *testing.T) {
	s := NewScorer()
	a := member(roster.Female, likesMale, 2020, 1, 2, 3, 4)
	b := member(roster.Male, likesFemale, 2020, 1, 2, 3, 4)
	if got := s.Score(a, b); !almost(got, 100) {
		t.Fatalf("identical profiles should score 100, got %v", got)
	}
	if got := s.Score(b, a); !almost(got, 100) {
		t.Fatalf("reverse direction should score 100, got %v", got)
	}
}

func TestScoreMatchesLegacyFormula(t *testing.T) {
	s := NewScorer()
	legacy := map[int]float64{0: 11, 1: 9, 2: 6, 3: 3}
	for gap, g := range legacy {
		a := member(roster.Female, likesMale, 2020, 5, 5)
		b := member(roster.Male, likesFemale, 2020+gap, 2, 9)
		want := (g + float64(100-7)) * 100 / 111
		if got := s.Score(a, b); !almost(got, want) {
			t.Fatalf("gap %d: want %v got %v", gap, want, got)
		}
	}
}

func TestScoreEdges(t *testing.T) {
	s := NewScorer()
	a := member(roster.Female, likesMale, 2020, 0)
	b := member(roster.Male, likesMale, 2020, 0)
	if got := s.Score(a, b); got != 0 {
		t.Fatalf("non-accepted gender must score 0, got %v", got)
	}
	bd := s.Breakdown(a, b)
	if bd.Accepted || bd.RespTerm != 100 {
		t.Fatalf("breakdown should still report terms: %+v", bd)
	}

	far := member(roster.Male, likesFemale, 2030, 0)
	if bd := s.Breakdown(a, far); bd.GradTerm != 0 || bd.GradGap != 10 {
		t.Fatalf("gap >= 4 should give 0 grad term: %+v", bd)
	}

	c := member(roster.Female, likesMale, 2020, 0, 0)
	d := member(roster.Male, likesFemale, 2020, 90, 90)
	if bd := s.Breakdown(c, d); bd.RespTerm != 0 || bd.RespDiff != 180 {
		t.Fatalf("response term must clamp at 0: %+v", bd)
	}
}

func TestScorerValid(t *testing.T) {
	cases := []Scorer{
		{Weights: Weights{Grad: -0.1, Responses: 1.1}, MaxTotal: 100},
		{Weights: Weights{Grad: 0.5, Responses: 0.6}, MaxTotal: 100},
		{Weights: DefaultWeights, MaxTotal: 0},
	}
	for i, c := range cases {
		if err := c.Valid(); !errs.Is(err, errs.InvalidParam) {
			t.Fatalf("case %d: expected invalid param, got %v", i, err)
		}
	}
	if err := NewScorer().Valid(); err != nil {
		t.Fatalf("default scorer invalid: %v", err)
	}
}

func TestBuild(t *testing.T) {
	ms := []*roster.Member{
		member(roster.Female, likesMale, 2020, 1, 1),
		member(roster.Male, likesFemale, 2021, 1, 2),
		member(roster.Male, likesMale, 2020, 3, 3),
	}
	m, err := Build(context.Background(), ms, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Len() != 3 {
		t.Fatalf("unexpected dim %d", m.Len())
	}
	s := NewScorer()
	for i := range ms {
		if m[i][i] != 0 {
			t.Fatalf("diagonal must be 0")
		}
		for j := range ms {
			if i != j && !almost(m[i][j], s.Score(ms[i], ms[j])) {
				t.Fatalf("m[%d][%d] mismatch", i, j)
			}
		}
	}
	if m[0][2] != 0 || m[1][2] == 0 {
		t.Fatalf("gender acceptance not applied: %v", m)
	}
	if err := m.Valid(); err != nil {
		t.Fatalf("built matrix invalid: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Build(ctx, ms, nil); err == nil {
		t.Fatalf("expected cancelled context error")
	}
}

func TestReadWriteText(t *testing.T) {
	raw := "0 12.5 3\n\n4 0 1e1\n7 8 0\n"
	m, err := ReadText(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m[0][1] != 12.5 || m[1][2] != 10 {
		t.Fatalf("unexpected matrix: %v", m)
	}
	var buf bytes.Buffer
	if err := m.WriteText(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.String() != "0 12.5 3\n4 0 10\n7 8 0\n" {
		t.Fatalf("unexpected text: %q", buf.String())
	}

	if _, err := ReadText(strings.NewReader("0 1\n2\n")); !errs.Is(err, errs.DimensionMismatch) {
		t.Fatalf("expected dimension mismatch, got %v", err)
	}
	if _, err := ReadText(strings.NewReader("0 x\n1 0\n")); !errs.Is(err, errs.InvalidScore) {
		t.Fatalf("expected invalid score, got %v", err)
	}
	if _, err := ReadText(strings.NewReader("0 -1\n1 0\n")); !errs.Is(err, errs.InvalidScore) {
		t.Fatalf("expected invalid score, got %v", err)
	}
}
