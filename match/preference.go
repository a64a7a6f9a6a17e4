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

package match

import (
	"cmp"
	"slices"
)

// Candidate 偏好清單中的一筆
type Candidate struct {
	Receiver int     `json:"receiver"`
	Score    float64 `json:"score"`
}

// PreferenceList 單一 proposer 的偏好清單：依分數遞減、同分依 receiver id 遞增。
// 以游標 next 消耗，項目不會被移除或重新加入。
type PreferenceList struct {
	Proposer int
	entries  []Candidate
	next     int
}

// Head 回傳目前最想提議的對象
func (l *PreferenceList) Head() (Candidate, bool) {
	if l == nil || l.next >= len(l.entries) {
		return Candidate{}, false
	}
	return l.entries[l.next], true
}

// Advance 消耗目前的 head
func (l *PreferenceList) Advance() {
	if l != nil && l.next < len(l.entries) {
		l.next++
	}
}

func (l *PreferenceList) Exhausted() bool { return l == nil || l.next >= len(l.entries) }
func (l *PreferenceList) Len() int        { return len(l.entries) }
func (l *PreferenceList) Remaining() int  { return len(l.entries) - l.next }

// Entries 完整清單（含已消耗項目）的副本
func (l *PreferenceList) Entries() []Candidate { return slices.Clone(l.entries) }

// Contains 回報 r 是否為候選人（不論是否已消耗）
func (l *PreferenceList) Contains(r int) bool {
	for _, c := range l.entries {
		if c.Receiver == r {
			return true
		}
	}
	return false
}

// Preferences 以成員 id 為索引；receiver 位置為 nil
type Preferences []*PreferenceList

// BuildPreferences 為每位 proposer 建立偏好清單。in 需先通過 Valid。
func BuildPreferences(in *Input, g Groups, mode FilterMode) Preferences {
	n := in.Len()
	prefs := make(Preferences, n)
	for _, p := range g.Proposers {
		l := &PreferenceList{Proposer: p, entries: make([]Candidate, 0, len(g.Receivers))}
		row := in.Scores[p]
		for _, r := range g.Receivers {
			if row[r] <= 0 {
				continue
			}
			if mode == FilterOrientation &&
				!Admissible(in.Genders[p], in.Orientations[p], in.Genders[r], in.Orientations[r]) {
				continue
			}
			l.entries = append(l.entries, Candidate{Receiver: r, Score: row[r]})
		}
		slices.SortFunc(l.entries, func(a, b Candidate) int {
			if c := cmp.Compare(b.Score, a.Score); c != 0 {
				return c
			}
			return cmp.Compare(a.Receiver, b.Receiver)
		})
		prefs[p] = l
	}
	return prefs
}
