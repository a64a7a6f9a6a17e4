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


// Package logger 組裝 pairlab 使用的 slog.Logger。
//
// 三種模式：Dev（text、stderr、debug）、Prod（JSON、stdout、info）、Silence（全部丟棄）。
// 需要把寫出移出請求路徑時，用 AsyncHandler 包住任何 slog.Handler。
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/pairlab/errs"
)

// LogMode 預設 handler 組合
type LogMode uint8

const (
	ModeDev LogMode = iota
	ModeProd
	ModeSilence
)

const defaultAsyncBuf = 8192

var (
	modeNames = [...]string{ModeDev: "dev", ModeProd: "prod", ModeSilence: "silence"}
	modeMap   = map[string]LogMode{"dev": ModeDev, "prod": ModeProd, "silence": ModeSilence}
)

func (m LogMode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "unknown"
}

// ParseMode 解析 flag 上的 log 模式（dev / prod / silence，不分大小寫）
func ParseMode(s string) (LogMode, error) {
	if m, ok := modeMap[strings.ToLower(strings.TrimSpace(s))]; ok {
		return m, nil
	}
	return ModeDev, errs.Warnf("unknown log mode %q (want dev, prod or silence)", s)
}

// NewHandler 依模式建出同步 handler；w 為 nil 時 Dev 寫 stderr、Prod 寫 stdout。
func NewHandler(w io.Writer, mode LogMode) slog.Handler {
	switch mode {
	case ModeSilence:
		return slog.DiscardHandler
	case ModeProd:
		if w == nil {
			w = os.Stdout
		}
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	default:
		if w == nil {
			w = os.Stderr
		}
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
}

// NewDefaultLogger 同步 logger（CLI 與測試）
func NewDefaultLogger(mode LogMode) *slog.Logger {
	return slog.New(NewHandler(nil, mode))
}

// NewLoggerTo 同步 logger，寫到 w
func NewLoggerTo(w io.Writer, mode LogMode) *slog.Logger {
	return slog.New(NewHandler(w, mode))
}

// NewDefaultAsyncLogger 非同步 logger；呼叫端拿不到 Close，適合與行程同壽命的場合。
func NewDefaultAsyncLogger(mode LogMode) *slog.Logger {
	return slog.New(NewAsyncHandler(NewHandler(nil, mode), defaultAsyncBuf))
}

// NewAsync 非同步 logger，連同 handler 一起回傳，讓呼叫端在結束前 Close 以寫完緩衝。
func NewAsync(buf int, mode LogMode) (*slog.Logger, *AsyncHandler) {
	ah := NewAsyncHandler(NewHandler(nil, mode), buf)
	return slog.New(ah), ah
}

// AsyncHandler 把 Handle 變成非阻塞的 enqueue，由單一背景 goroutine 依序寫出。
//
// 佇列滿或已 Close 時直接丟棄並計數（Dropped）。slog.Logger 會忽略 Handle 的 error，
// 寫出失敗需由 next 自行處理。WithAttrs / WithGroup 產生的 handler 共用同一個佇列。
type AsyncHandler struct {
	next slog.Handler
	q    *queue
}

type queue struct {
	mu      sync.RWMutex
	closed  bool
	ch      chan entry
	done    chan struct{}
	dropped atomic.Uint64
}

type entry struct {
	ctx context.Context
	rec slog.Record
	h   slog.Handler
}

// NewAsyncHandler 以容量 buf 的佇列包住 next；buf <= 0 時用 1024。
func NewAsyncHandler(next slog.Handler, buf int) *AsyncHandler {
	if next == nil {
		next = NewHandler(nil, ModeDev)
	}
	if buf <= 0 {
		buf = 1024
	}
	q := &queue{ch: make(chan entry, buf), done: make(chan struct{})}
	go q.drain()
	return &AsyncHandler{next: next, q: q}
}

func (q *queue) drain() {
	defer close(q.done)
	for e := range q.ch {
		_ = e.h.Handle(e.ctx, e.rec)
	}
}

// Ready 回報 handler 是否由 NewAsyncHandler 建立
func (h *AsyncHandler) Ready() bool {
	return h != nil && h.q != nil
}

// Dropped 因佇列滿或 Close 後寫入而丟棄的筆數
func (h *AsyncHandler) Dropped() uint64 {
	if !h.Ready() {
		return 0
	}
	return h.q.dropped.Load()
}

// Close 停止收件並等背景 goroutine 寫完佇列；可重複呼叫。
func (h *AsyncHandler) Close() {
	if !h.Ready() {
		return
	}
	h.q.mu.Lock()
	if !h.q.closed {
		h.q.closed = true
		close(h.q.ch)
	}
	h.q.mu.Unlock()
	<-h.q.done
}

func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *AsyncHandler) Handle(ctx context.Context, r slog.Record) error {
	if !h.Ready() {
		return nil
	}
	h.q.mu.RLock()
	defer h.q.mu.RUnlock()
	if h.q.closed {
		h.q.dropped.Add(1)
		return nil
	}
	// Record 的 attr 切片可能被呼叫端重用，跨 goroutine 前先 Clone。
	select {
	case h.q.ch <- entry{ctx: context.WithoutCancel(ctx), rec: r.Clone(), h: h.next}:
	default:
		h.q.dropped.Add(1)
	}
	return nil
}

func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{next: h.next.WithAttrs(attrs), q: h.q}
}

func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{next: h.next.WithGroup(name), q: h.q}
}
