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
	"sync"

	"github.com/zintix-labs/pairlab/dto"
	"github.com/zintix-labs/pairlab/errs"
	"github.com/zintix-labs/pairlab/match"
	"github.com/zintix-labs/pairlab/roster"
	"github.com/zintix-labs/pairlab/sdk/core"
)

// Matcher 封裝一份母體的「配對機」。
//
//   - 對外：提供 Match 入口（HTTP / CLI 只操作 Matcher）。
//   - 對內：持有自己的 RNG（Core）；分組是唯一消耗亂數的步驟。
//
// 並發語意：
//   - Match 以 mutex 保護 Core，可被多 goroutine 呼叫，但會排隊。
//   - 要併發配對請建立多台 Matcher（Simulator / MatcherPool 就是這麼做的）。
//
// initseed 記錄出生時的 seed；任意時間點的重現以 Core 的 Snapshot/Restore 為準。
type Matcher struct {
	name     string
	rid      roster.RID
	pop      *Population
	core     *core.Core
	opts     match.Options
	mu       sync.Mutex
	initseed int64
}

// newMatcherWithSeed 同一份母體 + 同一個 seed，分組序列必定一致。
func newMatcherWithSeed(p *Population, cf core.PRNGFactory, seed int64) *Matcher {
	return &Matcher{
		name:     p.Name,
		rid:      p.RID,
		pop:      p,
		core:     core.New(cf.New(seed)),
		opts:     p.Options(),
		initseed: seed,
	}
}

func (m *Matcher) Name() string            { return m.name }
func (m *Matcher) RID() roster.RID         { return m.rid }
func (m *Matcher) Seed() int64             { return m.initseed }
func (m *Matcher) Population() *Population { return m.pop }

func (m *Matcher) Options() match.Options {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opts
}

// SetOptions 設定 MatchInternal 使用的參數
func (m *Matcher) SetOptions(opts match.Options) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opts = opts
}

// Match 為主要公開入口：驗證請求、分組配對並回傳帶 RNG 快照的結果。
func (m *Matcher) Match(req *dto.MatchRequest) (dto.MatchResult, error) {
	if req == nil {
		return dto.MatchResult{}, errs.NewWarn("match request is nil")
	}
	if req.RID != m.rid {
		return dto.MatchResult{}, errs.Warnf("roster id is not matched: want %d, got %d", m.rid, req.RID)
	}
	opts, err := req.Options(m.pop.Filter)
	if err != nil {
		return dto.MatchResult{}, err
	}
	start, err := req.StartState.Snap()
	if err != nil {
		return dto.MatchResult{}, err
	}
	return m.MatchWith(opts, start)
}

// MatchWith 以指定參數配對；start 非空時從該快照分組（回放），結束後把 Core 還原回呼叫前的狀態。
func (m *Matcher) MatchWith(opts match.Options, start []byte) (dto.MatchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// 1. 取得起始快照
	startsnap, err := m.SnapshotCore()
	if err != nil {
		return dto.MatchResult{}, errs.NewFatal("before snapshot error " + err.Error())
	}
	rem := startsnap
	replay := len(start) != 0
	if replay {
		startsnap = start
		if err := m.RestoreCore(start); err != nil {
			return dto.MatchResult{}, errs.NewWarn("restore core err " + err.Error())
		}
	}

	// 2. 分組 + 配對
	res, runErr := match.Run(m.pop.Input, m.core, opts)

	// 3. 結束快照
	aftersnap, err := m.SnapshotCore()
	if err != nil {
		if e := m.RestoreCore(rem); e != nil {
			return dto.MatchResult{}, errs.NewFatal("fall back err " + e.Error())
		}
		return dto.MatchResult{}, errs.NewWarn("after snapshot error " + err.Error())
	}

	// 4. 回放不影響這台 Matcher 之後的序列
	if replay {
		if err := m.RestoreCore(rem); err != nil {
			return dto.MatchResult{}, errs.NewFatal("restore core back err " + err.Error())
		}
	}
	if runErr != nil {
		return dto.MatchResult{}, runErr
	}

	// 5. dto
	return dto.NewMatchResultDTO(m.pop.source(opts.Filter), res, startsnap, aftersnap)
}

// MatchInternal 直接取得內部結果；給模擬器或測試使用，不做快照。
func (m *Matcher) MatchInternal() (*match.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return match.Run(m.pop.Input, m.core, m.opts)
}

// SnapshotCore 取得 Core 狀態
func (m *Matcher) SnapshotCore() ([]byte, error) {
	return m.core.Snapshot()
}

// RestoreCore 恢復 Core 狀態
func (m *Matcher) RestoreCore(src []byte) error {
	return m.core.Restore(src)
}
