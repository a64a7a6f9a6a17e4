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

package pairlab

import (
	"context"

	"github.com/zintix-labs/pairlab/dto"
	"github.com/zintix-labs/pairlab/match"
	"github.com/zintix-labs/pairlab/roster"
	"github.com/zintix-labs/pairlab/score"
)

// Population 一份可配對的母體：名冊（可為 nil）+ 已檢查的配對輸入。
//
// 建好後唯讀，可被多台 Matcher 併發共用。
type Population struct {
	Name   string
	RID    roster.RID
	Filter match.FilterMode // 名冊預設的候選過濾策略
	Roster *roster.Roster   // 直接以矩陣輸入時為 nil
	Input  *match.Input
	names  []string
}

func newPopulation(ctx context.Context, r *roster.Roster, id roster.RID, s *score.Scorer) (*Population, error) {
	m, err := score.Build(ctx, r.Members, s)
	if err != nil {
		return nil, err
	}
	in := match.InputOf(r, m)
	if err := in.Valid(); err != nil {
		return nil, err
	}
	names := make([]string, r.Len())
	for i, mb := range r.Members {
		names[i] = mb.Name
	}
	return &Population{
		Name:   r.Name,
		RID:    id,
		Filter: match.FilterOf(r.Filter),
		Roster: r,
		Input:  in,
		names:  names,
	}, nil
}

func inputPopulation(in *match.Input) *Population {
	return &Population{Name: "input", Filter: match.FilterScoreOnly, Input: in}
}

func (p *Population) Len() int { return p.Input.Len() }

// Names 依成員 id 排列的名稱；直接以矩陣輸入時為 nil
func (p *Population) Names() []string { return p.names }

// Options 名冊預設的配對參數
func (p *Population) Options() match.Options {
	return match.Options{Filter: p.Filter}
}

func (p *Population) source(f match.FilterMode) dto.MatchSource {
	return dto.MatchSource{Name: p.Name, RID: p.RID, Filter: f, Names: p.names}
}

// WithNames 回傳帶有名稱的副本（矩陣輸入時由呼叫端提供名稱）
func (p *Population) WithNames(names []string) *Population {
	cp := *p
	cp.names = names
	return &cp
}
