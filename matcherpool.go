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
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/pairlab/dto"
	"github.com/zintix-labs/pairlab/errs"
	"github.com/zintix-labs/pairlab/roster"
	"github.com/zintix-labs/pairlab/sdk/core"
)

// MatcherPool 管理「某一份名冊」的所有 Matcher。
//
//  1. pool：健康可用的 Matcher，Match() 借出 / 歸還。
//  2. broken：發生 panic 或 fatal error 的 Matcher，送往此通道後立即補一台新的維持容量。
type MatcherPool struct {
	name      string
	rid       roster.RID
	pop       *Population
	cf        core.PRNGFactory
	seedMaker *seedMaker
	pool      chan *Matcher
	broken    chan *Matcher
	done      chan struct{}
	closeOnce sync.Once
	poolsize  int
	rebuild   atomic.Int32
	inflight  atomic.Int32
	panics    atomic.Int32
	fatals    atomic.Int32
	reason    atomic.Value // string
}

// newMatcherPool 預先建立 n 台（至少 1 台）Matcher，每台的 seed 由 seedMaker 派生。
func newMatcherPool(n int, p *Population, cf core.PRNGFactory, seed int64) *MatcherPool {
	n = max(1, n)
	mp := &MatcherPool{
		name:      p.Name,
		rid:       p.RID,
		pop:       p,
		cf:        cf,
		seedMaker: newSeedMaker(seed),
		pool:      make(chan *Matcher, n),
		broken:    make(chan *Matcher, 100),
		done:      make(chan struct{}),
		poolsize:  n,
	}
	mp.reason.Store("")
	for i := 0; i < n; i++ {
		mp.pool <- newMatcherWithSeed(p, cf, mp.seedMaker.next())
	}
	return mp
}

func (mp *MatcherPool) Close() {
	mp.closeWithReason("closed")
}

func (mp *MatcherPool) Closed() bool {
	select {
	case <-mp.done:
		return true
	default:
		return false
	}
}

func (mp *MatcherPool) closeWithReason(reason string) {
	mp.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		mp.reason.Store(reason)
		close(mp.done)
	})
}

// isFatalErr 只有錯誤本身宣告 Fatal 時才淘汰 Matcher；請求類錯誤不影響 Matcher 狀態。
// RoundCeiling 雖然是 Fatal，但它代表的是輸入（上限設太小），Matcher 本身仍健康。
func isFatalErr(err error) bool {
	e, ok := errs.AsErr(err)
	if !ok {
		return false
	}
	return e.ErrLv == errs.Fatal && !errs.Is(err, errs.RoundCeiling)
}

// Match 借出一台 Matcher 配對後歸還；ctx 取消或池關閉時直接回錯誤，不阻塞。
func (mp *MatcherPool) Match(ctx context.Context, req *dto.MatchRequest) (res dto.MatchResult, err error) {
	var m *Matcher
	select {
	case <-mp.done:
		return res, errs.NewFatal("matcher pool closed: " + mp.ClosedReason())
	case <-ctx.Done():
		return res, errs.WrapWarn(ctx.Err(), "match canceled/timeout")
	case m = <-mp.pool:
		mp.inflight.Add(1)
	}

	defer func() {
		mp.inflight.Add(-1)
		isPanic := false
		if r := recover(); r != nil {
			isPanic = true
			mp.panics.Add(1)
			err = errs.NewFatal(fmt.Sprintf("matcher %s panic : %v", mp.name, r))
		}
		if mp.Closed() {
			return
		}
		if isPanic || isFatalErr(err) {
			if !isPanic {
				mp.fatals.Add(1)
			}
			select {
			case mp.broken <- m:
			default:
				mp.closeWithReason("overwhelmed_by_failures")
				return
			}
			mp.rebuild.Add(1)
			select {
			case <-mp.done:
			case mp.pool <- newMatcherWithSeed(mp.pop, mp.cf, mp.seedMaker.next()):
			}
			return
		}
		select {
		case <-mp.done:
		case mp.pool <- m:
		}
	}()

	return m.Match(req)
}

// MatcherPoolMetrics 拉取式觀測快照；Available/BrokenBacklog 來自 len(chan)，高併發下為近似值。
type MatcherPoolMetrics struct {
	Roster        string     `json:"roster"`
	RID           roster.RID `json:"rid"`
	PoolSize      int        `json:"pool_size"`
	Available     int        `json:"available"`
	Inflight      int        `json:"inflight"`
	BrokenBacklog int        `json:"broken_backlog"`
	Rebuild       int        `json:"rebuild"`
	Panics        int        `json:"panics"`
	Fatals        int        `json:"fatals"`
	Closed        bool       `json:"closed"`
	CloseReason   string     `json:"close_reason"`
}

func (mp *MatcherPool) Metrics() MatcherPoolMetrics {
	return MatcherPoolMetrics{
		Roster:        mp.name,
		RID:           mp.rid,
		PoolSize:      mp.poolsize,
		Available:     len(mp.pool),
		Inflight:      int(mp.inflight.Load()),
		BrokenBacklog: len(mp.broken),
		Rebuild:       int(mp.rebuild.Load()),
		Panics:        int(mp.panics.Load()),
		Fatals:        int(mp.fatals.Load()),
		Closed:        mp.Closed(),
		CloseReason:   mp.ClosedReason(),
	}
}

func (mp *MatcherPool) ClosedReason() string {
	if s, ok := mp.reason.Load().(string); ok {
		return s
	}
	return ""
}
