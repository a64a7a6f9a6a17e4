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
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/pairlab/dto"
	"github.com/zintix-labs/pairlab/errs"
	"github.com/zintix-labs/pairlab/roster"
	"github.com/zintix-labs/pairlab/sdk/core"
)

// Runtime 服務端的資料面：每份名冊一個 MatcherPool。
type Runtime struct {
	pools map[roster.RID]*MatcherPool
	ids   []roster.RID

	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	reason    atomic.Value // string
}

// BuildRuntime 為每份已註冊名冊建好分數矩陣與 poolSize 台 Matcher。
func (l *Lab) BuildRuntime(ctx context.Context, poolSize int) (*Runtime, error) {
	if !l.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	rt := &Runtime{
		pools: map[roster.RID]*MatcherPool{},
		ids:   l.IDs(),
		done:  make(chan struct{}),
	}
	rt.reason.Store("")
	sm := newSeedMaker(core.NewSeed())
	for _, id := range rt.ids {
		p, err := l.Population(ctx, id)
		if err != nil {
			return nil, errs.Wrap(err, "build runtime failed")
		}
		rt.pools[id] = newMatcherPool(poolSize, p, l.cf, sm.next())
	}
	l.log.Debug("runtime built", "rosters", len(rt.ids), "pool_size", max(1, poolSize))
	return rt, nil
}

// Match 依 req.RID 分派到對應的 MatcherPool
func (rt *Runtime) Match(ctx context.Context, req *dto.MatchRequest) (dto.MatchResult, error) {
	select {
	case <-ctx.Done():
		return dto.MatchResult{}, errs.WrapWarn(ctx.Err(), "match canceled/timeout")
	case <-rt.done:
		return dto.MatchResult{}, errs.NewFatal("runtime closed: " + rt.ClosedReason())
	default:
	}
	mp, ok := rt.pools[req.RID]
	if !ok {
		return dto.MatchResult{}, errs.Coded(errs.InvalidParam, "roster id not found: %d", req.RID)
	}
	return mp.Match(ctx, req)
}

// Metrics 依 rid 排序的各池觀測快照
func (rt *Runtime) Metrics() []MatcherPoolMetrics {
	out := make([]MatcherPoolMetrics, 0, len(rt.ids))
	for _, id := range rt.ids {
		out = append(out, rt.pools[id].Metrics())
	}
	return out
}

// Close 關閉 runtime 與所有池，可重複呼叫。
func (rt *Runtime) Close() {
	rt.closeOnce.Do(func() {
		rt.reason.Store("closed")
		rt.closed.Store(true)
		for _, mp := range rt.pools {
			mp.Close()
		}
		close(rt.done)
	})
}

func (rt *Runtime) Closed() bool {
	return rt.closed.Load()
}

func (rt *Runtime) ClosedReason() string {
	if s, ok := rt.reason.Load().(string); ok {
		return s
	}
	return ""
}

// Run 阻塞到 runtime 被關閉（讓 Runtime 能直接交給 server/app 管理生命週期）
func (rt *Runtime) Run() error {
	<-rt.done
	return nil
}

// Shutdown 關閉所有池；ctx 不影響（關閉本身不阻塞）
func (rt *Runtime) Shutdown(_ context.Context) error {
	rt.Close()
	return nil
}
