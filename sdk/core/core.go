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

// Package core 提供配對流程唯一的亂數入口。
//
// 分組（誰是 Proposer、誰是 Receiver）是整個配對裡唯一會消耗亂數的步驟，
// 所以亂數來源一律以介面注入：測試可以給固定 seed 或決定性的 stub，
// Monte Carlo 模擬則為每一次 run 派生獨立的 PRNG。
package core

// PRNG 定義 Core 所需的亂數來源，需同時支援取樣與狀態保存/還原。
type PRNG interface {
	RAND
	Restorable
}

// Restorable 定義可快照與還原的狀態介面。
type Restorable interface {
	// Snapshot 回傳可用於還原的序列化狀態。
	Snapshot() ([]byte, error)
	// Restore 依序列化狀態還原 PRNG 內部狀態。
	Restore([]byte) error
}

// RAND 定義核心亂數取樣能力。
//
// 分組只需要 IntN；Uint64 / Float64 保留給派生 seed 與報表抽樣使用。
type RAND interface {
	// Uint64 回傳非負 uint64 亂數。
	Uint64() uint64
	// Float64 回傳 [0,1) 的浮點亂數。
	Float64() float64
	// IntN 回傳 [0,max) 的 int 亂數，若 max <= 0 回傳 -1。
	IntN(int) int
}

type PRNGFactory interface {
	// New 以指定 seed 建立新的 PRNG。
	//
	// 合約：在同一個實作與同一個版本下，New(seed) 必須是決定性的：
	// 相同的 seed 必須產生相同的初始內部狀態與輸出序列。
	// 「相同輸入 + 相同 seed => 相同配對結果」完全建立在這條合約上。
	New(int64) PRNG
}

// DefaultPRNG 實作預設的 PRNGFactory（PCG64）
type DefaultPRNG struct{}

// New 滿足合約
func (d *DefaultPRNG) New(seed int64) PRNG {
	return NewPCG64WithSeed(seed)
}

func Default() *DefaultPRNG {
	return &DefaultPRNG{}
}

// Core 封裝 PRNG，並提供常用取樣與工具方法。
type Core struct {
	PRNG
}

// New 允許使用外部自實現的 PRNG 建立 Core。
func New(rng PRNG) *Core {
	return &Core{rng}
}

// Pick 從列表中隨機選取一個元素，若列表為空回傳 -1
func (c *Core) Pick(src []int) int {
	if len(src) == 0 {
		return -1
	}
	return src[c.IntN(len(src))]
}

// ShuffleInts 使用 Fisher-Yates 對 []int 進行就地隨機重排。
// 所有 N! 種排列出現的機率嚴格相等。
func (c *Core) ShuffleInts(src []int) {
	ShuffleInts(c, src)
}

// ShuffleInts 與 Core.ShuffleInts 相同，但只要求 RAND（方便注入 stub）。
func ShuffleInts(r RAND, src []int) {
	if len(src) <= 1 {
		return
	}
	for i := len(src) - 1; i > 0; i-- {
		j := r.IntN(i + 1)
		src[i], src[j] = src[j], src[i]
	}
}

// Sample 從 [0,n) 中不放回地均勻抽出 k 個整數（partial Fisher-Yates）。
//
// 回傳兩段：前 k 個為抽中的元素，其餘為未抽中的補集；兩段都「未排序」。
// k <= 0 回傳空的抽中段；k >= n 視為全抽。
func Sample(r RAND, n int, k int) (picked []int, rest []int) {
	if n <= 0 {
		return []int{}, []int{}
	}
	k = max(0, min(k, n))
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + r.IntN(n-i)
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm[:k:k], perm[k:]
}
