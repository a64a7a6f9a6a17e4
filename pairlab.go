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

// Package pairlab 提供配對引擎的「組裝入口（assembler）」與「運行入口（runtime entry）」。
//
// Lab 把下列三個地基組裝在一起，並提供建立 Matcher / Simulator 的入口：
//  1. Catalog：名冊目錄，定義有哪些名冊、各自對應的檔名。
//  2. Scorer：相容性評分器，名冊第一次被使用時建出分數矩陣並快取（之後唯讀共享）。
//  3. PRNGFactory：亂數核心工廠，保證「相同輸入 + 相同 seed => 相同配對」。
//
// Lab 本身不綁定任何檔案路徑：名冊來源一律以 fs.FS 注入（go:embed 或 os.DirFS）。
//
// 典型使用情境：
//   - 後端服務（HTTP）：由 Lab 建立 Matcher，對外提供單次配對。
//   - 模擬器（sim）：由 Lab 建立 Simulator，以大量隨機分組估計配對率與分數分佈。
package pairlab

import (
	"context"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/zintix-labs/pairlab/catalog"
	"github.com/zintix-labs/pairlab/errs"
	"github.com/zintix-labs/pairlab/match"
	"github.com/zintix-labs/pairlab/roster"
	"github.com/zintix-labs/pairlab/score"
	"github.com/zintix-labs/pairlab/sdk/core"
)

// Rosters 把一或多個名冊來源（fs.FS）打包成 New() 需要的參數。
func Rosters(src ...fs.FS) []fs.FS {
	return src
}

// Option 調整 Lab 的可選元件
type Option func(*Lab)

// WithLogger 注入 logger；未注入時不輸出任何紀錄。
func WithLogger(log *slog.Logger) Option {
	return func(l *Lab) {
		if log != nil {
			l.log = log
		}
	}
}

// WithScorer 以自訂權重取代預設評分器
func WithScorer(s *score.Scorer) Option {
	return func(l *Lab) {
		if s != nil {
			l.scorer = s
		}
	}
}

// Lab 組裝器
//
// 使用流程分成兩階段：
//   - 註冊階段：建立 catalog、掃描名冊檔、檢查重複。
//   - 執行階段（Freeze 之後）：依名冊 ID 產生 Matcher / Simulator。
//
// 執行階段開始後不再允許變更 Catalog。
type Lab struct {
	cat    *catalog.Catalog
	cf     core.PRNGFactory
	scorer *score.Scorer
	log    *slog.Logger

	mu   sync.Mutex
	pops map[roster.RID]*Population // 已建好分數矩陣的名冊
	sum  []catalog.Summary
}

// New 建立一個 Lab（註冊階段）。
//
// cf 不能為 nil；rosters 至少一個來源。
func New(cf core.PRNGFactory, rosters []fs.FS, opts ...Option) (*Lab, error) {
	if cf == nil {
		return nil, errs.NewFatal("prng factory required")
	}
	if len(rosters) == 0 {
		return nil, errs.NewFatal("rosters required")
	}
	cat, err := catalog.New(rosters...)
	if err != nil {
		return nil, err
	}
	l := &Lab{
		cat:    cat,
		cf:     cf,
		scorer: score.NewScorer(),
		log:    slog.New(slog.DiscardHandler),
		pops:   map[roster.RID]*Population{},
	}
	for _, opt := range opts {
		opt(l)
	}
	if err := l.scorer.Valid(); err != nil {
		return nil, err
	}
	return l, nil
}

// NewAuto 建立一個直接進入執行階段的 Lab：掃描所有名冊後凍結。
func NewAuto(cf core.PRNGFactory, rosters []fs.FS, opts ...Option) (*Lab, error) {
	l, err := New(cf, rosters, opts...)
	if err != nil {
		return nil, err
	}
	if err := l.RegisterAll(); err != nil {
		return nil, err
	}
	l.Freeze()
	return l, nil
}

func (l *Lab) Register(ents ...catalog.Entry) error {
	return l.cat.Register(ents...)
}

// RegisterAll 掃描所有來源並以名冊檔宣告的 id/name 批次註冊（全有或全無）。
func (l *Lab) RegisterAll() error {
	if err := l.cat.Scan(); err != nil {
		return err
	}
	l.log.Debug("rosters registered", "count", len(l.cat.IDs()))
	return nil
}

func (l *Lab) Freeze() {
	l.cat.Freeze()
}

func (l *Lab) EntryByID(id roster.RID) (catalog.Entry, bool) {
	return l.cat.GetByID(id)
}

func (l *Lab) EntryByName(name string) (catalog.Entry, bool) {
	return l.cat.GetByName(name)
}

func (l *Lab) IDs() []roster.RID {
	return l.cat.IDs()
}

func (l *Lab) All() []catalog.Entry {
	return l.cat.All()
}

func (l *Lab) Scorer() *score.Scorer {
	return l.scorer
}

func (l *Lab) Logger() *slog.Logger {
	return l.log
}

// Summary 所有已註冊名冊的摘要（只在凍結後可用，結果會快取）。
func (l *Lab) Summary() ([]catalog.Summary, error) {
	if !l.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sum != nil {
		return l.sum, nil
	}
	ids := l.cat.IDs()
	cs := make([]catalog.Summary, 0, len(ids))
	for _, id := range ids {
		r, err := l.cat.RosterByID(id)
		if err != nil {
			return nil, errs.Wrap(err, "parse roster failed")
		}
		cs = append(cs, catalog.Summary{
			RID:     id,
			Name:    r.Name,
			Members: r.Len(),
			Filter:  r.Filter,
		})
	}
	l.sum = cs
	return l.sum, nil
}

// Population 回傳名冊與其分數矩陣；第一次呼叫時建出矩陣，之後共用同一份唯讀資料。
func (l *Lab) Population(ctx context.Context, id roster.RID) (*Population, error) {
	if !l.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	l.mu.Lock()
	if p, ok := l.pops[id]; ok {
		l.mu.Unlock()
		return p, nil
	}
	l.mu.Unlock()

	r, err := l.cat.RosterByID(id)
	if err != nil {
		return nil, err
	}
	p, err := newPopulation(ctx, r, id, l.scorerFor(r))
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if prev, ok := l.pops[id]; ok {
		return prev, nil
	}
	l.pops[id] = p
	l.log.Debug("score matrix built", "roster", p.Name, "rid", id, "members", p.Len())
	return p, nil
}

// scorerFor 名冊可覆寫 MaxTotal，其餘沿用 Lab 的評分器設定
func (l *Lab) scorerFor(r *roster.Roster) *score.Scorer {
	if r.MaxTotal <= 0 || r.MaxTotal == l.scorer.MaxTotal {
		return l.scorer
	}
	s := *l.scorer
	s.MaxTotal = r.MaxTotal
	return &s
}

// NewMatcher 依名冊 ID 建立 Matcher，seed 由 crypto/rand 產生。
func (l *Lab) NewMatcher(id roster.RID) (*Matcher, error) {
	return l.NewMatcherWithSeed(id, core.NewSeed())
}

// NewMatcherWithSeed 與 NewMatcher 相同，但由呼叫端指定初始 seed。
//
// 同一份名冊 + 同一個 seed + 同樣的 Options，必定得到相同的配對。
func (l *Lab) NewMatcherWithSeed(id roster.RID, seed int64) (*Matcher, error) {
	p, err := l.Population(context.Background(), id)
	if err != nil {
		return nil, err
	}
	return newMatcherWithSeed(p, l.cf, seed), nil
}

// NewMatcherByInput 以呼叫端直接提供的分數矩陣與類別建立 Matcher（不經過名冊）。
// names 可省略；有給時長度必須等於人數。
func (l *Lab) NewMatcherByInput(in *match.Input, seed int64, names ...string) (*Matcher, error) {
	if in == nil {
		return nil, errs.Coded(errs.InvalidParam, "input is nil")
	}
	if err := in.Valid(); err != nil {
		return nil, err
	}
	p := inputPopulation(in)
	if len(names) > 0 {
		if len(names) != in.Len() {
			return nil, errs.Coded(errs.DimensionMismatch, "names has %d entries, input has %d members", len(names), in.Len())
		}
		p = p.WithNames(names)
	}
	return newMatcherWithSeed(p, l.cf, seed), nil
}

func (l *Lab) NewSimulator(id roster.RID) (*Simulator, error) {
	return l.NewSimulatorWithSeed(id, core.NewSeed())
}

// NewSimulatorWithSeed 以指定 seed 建立 Simulator；同 seed 同 workers 的模擬結果可重現。
func (l *Lab) NewSimulatorWithSeed(id roster.RID, seed int64) (*Simulator, error) {
	p, err := l.Population(context.Background(), id)
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(p, l.cf, seed, l.log), nil
}
