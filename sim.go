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
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/zintix-labs/pairlab/errs"
	"github.com/zintix-labs/pairlab/match"
	"github.com/zintix-labs/pairlab/recorder"
	"github.com/zintix-labs/pairlab/roster"
	"github.com/zintix-labs/pairlab/sdk/core"
	"github.com/zintix-labs/pairlab/stats"
	"golang.org/x/sync/errgroup"
)

const capPrepare int = 16

// Simulator 以大量隨機分組估計一份母體的配對率、分數分佈與穩定性。
//
// 每個 worker 持有自己的 Matcher（seed 由 seedMaker 派生）與 RunRecorder，
// 結束後合併；同樣的 seed + runs + workers 必定產生相同的報表。
type Simulator struct {
	Name      string
	RID       roster.RID
	pop       *Population
	cf        core.PRNGFactory
	initSeed  int64
	seedmaker *seedMaker
	opts      match.Options
	log       *slog.Logger
	mBuf      []*Matcher              // 併發 Matcher
	rBuf      []*recorder.RunRecorder // 併發紀錄員
}

func newSimulatorWithSeed(p *Population, cf core.PRNGFactory, seed int64, log *slog.Logger) *Simulator {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Simulator{
		Name:      p.Name,
		RID:       p.RID,
		pop:       p,
		cf:        cf,
		initSeed:  seed,
		seedmaker: newSeedMaker(seed),
		opts:      p.Options(),
		log:       log,
		mBuf:      make([]*Matcher, 1, capPrepare),
		rBuf:      make([]*recorder.RunRecorder, 0, capPrepare),
	}
	s.mBuf[0] = newMatcherWithSeed(p, cf, seed)
	return s
}

func (s *Simulator) Seed() int64 { return s.initSeed }

func (s *Simulator) Options() match.Options { return s.opts }

// SetOptions 之後的模擬都使用 opts
func (s *Simulator) SetOptions(opts match.Options) error {
	if opts.MaxRounds < 0 {
		return errs.Coded(errs.InvalidParam, "max_rounds must not be negative, got %d", opts.MaxRounds)
	}
	s.opts = opts
	return nil
}

// Sim 單線模擬：以一台 Matcher 連續跑 runs 次，回傳報表與用時。
func (s *Simulator) Sim(ctx context.Context, runs int, showpb bool) (*stats.SimReport, time.Duration, error) {
	defer s.reset()
	if runs < 1 {
		return nil, 0, errs.NewWarn("runs must > 0")
	}
	r, err := s.newRecorder()
	if err != nil {
		return nil, 0, err
	}
	s.rBuf = append(s.rBuf, r)
	m := s.mBuf[0]
	m.SetOptions(s.opts)

	bar := pb.StartNew(runs)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	for i := 0; i < runs; i++ {
		if err := ctx.Err(); err != nil {
			bar.Finish()
			return nil, 0, errs.WrapWarn(err, "sim canceled")
		}
		if err := s.runOne(m, r); err != nil {
			bar.Finish()
			return nil, 0, err
		}
		bar.Increment()
	}
	used := time.Since(bar.StartTime())
	bar.Finish()

	report := r.Done()
	s.log.Debug("sim done", "roster", s.Name, "runs", runs, "workers", 1, "used", used)
	return report, used, nil
}

// SimMP 以 workers 台 Matcher 平行模擬，總計 runs 次（平均分給各 worker），合併後回傳報表與用時。
func (s *Simulator) SimMP(ctx context.Context, runs int, workers int, showpb bool) (*stats.SimReport, time.Duration, error) {
	defer s.reset()
	if workers <= 0 {
		return nil, 0, errs.NewWarn("workers must > 0")
	}
	if runs < 1 {
		return nil, 0, errs.NewWarn("runs must > 0")
	}
	workers = min(workers, runs)
	for len(s.mBuf) < workers {
		s.mBuf = append(s.mBuf, newMatcherWithSeed(s.pop, s.cf, s.seedmaker.next()))
	}
	for len(s.rBuf) < workers {
		r, err := s.newRecorder()
		if err != nil {
			return nil, 0, err
		}
		s.rBuf = append(s.rBuf, r)
	}

	bar := pb.StartNew(runs)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	per, extra := runs/workers, runs%workers
	for i := 0; i < workers; i++ {
		n := per
		if i < extra {
			n++
		}
		m, r := s.mBuf[i], s.rBuf[i]
		m.SetOptions(s.opts)
		g.Go(func() error {
			for k := 0; k < n; k++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := s.runOne(m, r); err != nil {
					return err
				}
				done.Add(1)
				bar.Increment()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		bar.Finish()
		return nil, 0, errs.Wrap(err, "sim failed")
	}
	used := time.Since(bar.StartTime())
	bar.Finish()

	st, err := recorder.MergeRunRecorder(s.rBuf[:workers])
	if err != nil {
		return nil, 0, err
	}
	report := st.Done()
	s.log.Debug("sim done", "roster", s.Name, "runs", done.Load(), "workers", workers, "used", used)
	return report, used, nil
}

// runOne 一次分組配對並記錄；不穩定配對數一併計入報表（正確時恆為 0）。
func (s *Simulator) runOne(m *Matcher, r *recorder.RunRecorder) error {
	res, err := m.MatchInternal()
	if err != nil {
		return err
	}
	blocking := match.BlockingPairs(s.pop.Input, res, s.opts.Filter)
	r.Record(res, len(blocking))
	return nil
}

func (s *Simulator) newRecorder() (*recorder.RunRecorder, error) {
	return recorder.NewRunRecorder(s.Name, s.RID, s.opts.Filter, s.pop.Len(), s.pop.Names())
}

func (s *Simulator) reset() {
	s.rBuf = s.rBuf[:0]
}

const mask63 = uint64(1<<63) - 1

type seedMaker struct {
	state atomic.Uint64 // always in [0, 2^63)
}

func newSeedMaker(seed int64) *seedMaker {
	s := &seedMaker{}
	s.state.Store(uint64(seed) & mask63)
	return s
}

// next 以全週期 LCG 推進 state，再用可逆的 mix63 打散。
//
// 可能被多 goroutine 同時呼叫（MatcherPool 補機），以 CAS 迴圈保證每次取得唯一的下一個 state。
func (s *seedMaker) next() int64 {
	for {
		old := s.state.Load()
		next := (old*6364136223846793005 + 1442695040888963407) & mask63 // full-period LCG mod 2^63
		if s.state.CompareAndSwap(old, next) {
			return int64(mix63(next)) // 一定非負
		}
	}
}

// mix63 只用可逆的 bit 操作與乘奇數（mod 2^63）
func mix63(x uint64) uint64 {
	x &= mask63
	x ^= x >> 30
	x = (x * 0xBF58476D1CE4E5B9) & mask63
	x ^= x >> 27
	x = (x * 0x94D049BB133111EB) & mask63
	x ^= x >> 31
	return x & mask63
}
