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


// Package perf 以 runtime/pprof 包住一次 CLI 執行，輸出 cpu / heap / allocs profile。
package perf

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"

	"github.com/zintix-labs/pairlab/errs"
)

const DefaultDir = "build/profiling" // pprof 檔案寫入路徑

// Modes 可用的 profile 種類（"" 代表不做 profiling）
var Modes = []string{"", "cpu", "heap", "allocs"}

// ParseMode 正規化並檢查 --pprof 參數
func ParseMode(mode string) (string, error) {
	m := strings.ToLower(strings.TrimSpace(mode))
	for _, ok := range Modes {
		if m == ok {
			return m, nil
		}
	}
	return "", errs.Warnf("unknown pprof mode %q (want cpu, heap or allocs)", mode)
}

// RunPProf 依 mode 決定要不要（以及如何）profile exe；profile 寫到 dir（空字串用 DefaultDir）。
//
// exe 的錯誤優先回傳；profile 寫檔失敗時回傳 Fatal。
//
// Usage like:
//
//	go run ./cmd/run --pprof cpu sim --rid 1 --runs 100000
func RunPProf(exe func() error, mode, dir string) error {
	m, err := ParseMode(mode)
	if err != nil {
		return err
	}
	if m == "" {
		return exe()
	}
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Wrap(err, "create pprof dir failed")
	}
	path := filepath.Join(dir, m+".pprof")

	switch m {
	case "cpu":
		return pprofCPU(exe, path)
	default:
		return pprofAfter(exe, path, m)
	}
}

// pprofCPU 在 exe 期間開 CPU profiling；可拿來做 PGO 的 default.pgo。
func pprofCPU(exe func() error, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(err, "failed to create cpu.pprof")
	}
	defer f.Close()
	if err := pprof.StartCPUProfile(f); err != nil {
		return errs.Wrap(err, "failed to start pprof")
	}
	defer pprof.StopCPUProfile()
	return exe()
}

// pprofAfter 在 exe() 之後拍一次快照：
//   - heap：in-use memory，寫出前先 runtime.GC() 取得較準確的 live objects。
//   - allocs：累積配置，搭配 -alloc_space / -alloc_objects 查看。
func pprofAfter(exe func() error, path, mode string) error {
	if err := exe(); err != nil {
		return err
	}
	if mode == "heap" {
		runtime.GC()
	}
	prof := pprof.Lookup(mode)
	if prof == nil {
		return errs.Fatalf("pprof profile %q not found", mode)
	}
	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(err, "failed to create "+mode+".pprof")
	}
	defer f.Close()
	if err := prof.WriteTo(f, 0); err != nil {
		return errs.Wrap(err, "failed to write "+mode+" profile")
	}
	return nil
}
