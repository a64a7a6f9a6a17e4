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

// Package roster 定義成員（Member）與名冊（Roster）資料，以及 YAML/JSON 名冊檔的解析與檢查。
//
// Member 在名冊載入時建立一次，之後唯讀；Member.ID 即為成員在名冊中的索引，
// 也是分數矩陣的列/行索引。
package roster

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/zintix-labs/pairlab/errs"
)

// RID 名冊編號
type RID uint

// FilterMode 名冊檔可指定的預設候選過濾策略
type FilterMode string

const (
	FilterScore       FilterMode = "score"       // 只看分數 > 0（預設）
	FilterOrientation FilterMode = "orientation" // 分數 > 0 且通過性別/偏好相容判斷
)

// Member 單一成員（唯讀）
type Member struct {
	ID          int
	Name        string
	Gender      Gender
	Accepts     []Gender // 接受的對象性別集合（評分用的方向性門檻）
	Orientation Orientation
	GradYear    int
	Responses   []int
}

// AcceptsGender 回報 m 是否接受 g
func (m *Member) AcceptsGender(g Gender) bool {
	for _, a := range m.Accepts {
		if a == g {
			return true
		}
	}
	return false
}

// MemberSetting 名冊檔內單一成員的原始設定
type MemberSetting struct {
	Name        string   `yaml:"name"        json:"name"        validate:"required,max=128"`
	Gender      string   `yaml:"gender"      json:"gender"      validate:"required"`
	Preferences []string `yaml:"preferences" json:"preferences" validate:"required,min=1,max=3,dive,required"`
	Orientation string   `yaml:"orientation" json:"orientation"`
	GradYear    int      `yaml:"grad_year"   json:"gradYear"    validate:"gte=0"`
	Responses   []int    `yaml:"responses"   json:"responses"   validate:"dive,gte=0"`
}

// Roster 一份名冊：成員 + 評分/配對的預設參數
type Roster struct {
	Name     string          `yaml:"name"      json:"name"      validate:"required,max=128"`
	ID       RID             `yaml:"id"        json:"id"`
	Filter   FilterMode      `yaml:"filter"    json:"filter"    validate:"omitempty,oneof=score orientation"`
	MaxTotal int             `yaml:"max_total" json:"max_total" validate:"gte=0"`
	Settings []MemberSetting `yaml:"members"   json:"users"     validate:"required,min=1,dive"`
	Members  []*Member       `yaml:"-"         json:"-"`
	initFlag bool
}

var validate = validator.New()

// init 檢查設定並展開成 Member
func (r *Roster) init() error {
	if r.initFlag {
		return nil
	}
	r.Name = strings.TrimSpace(r.Name)
	if r.Filter == "" {
		r.Filter = FilterScore
	}
	if err := validate.Struct(r); err != nil {
		return errs.WrapWarn(err, fmt.Sprintf("roster %q: invalid setting", r.Name))
	}

	r.Members = make([]*Member, len(r.Settings))
	nResp := len(r.Settings[0].Responses)
	for i, ms := range r.Settings {
		m, err := ms.build(i)
		if err != nil {
			return errs.Wrap(err, fmt.Sprintf("roster %q: member[%d] %q", r.Name, i, ms.Name))
		}
		if len(m.Responses) != nResp {
			return errs.Coded(errs.DimensionMismatch,
				"roster %q: member[%d] has %d responses, want %d", r.Name, i, len(m.Responses), nResp)
		}
		r.Members[i] = m
	}
	r.initFlag = true
	return nil
}

// Member 檢查單一設定並建出 Member（名冊以外的入口，例如 /v1/score）。
func (ms *MemberSetting) Member(id int) (*Member, error) {
	if err := validate.Struct(ms); err != nil {
		return nil, errs.WrapWarn(err, fmt.Sprintf("member %q: invalid setting", ms.Name))
	}
	return ms.build(id)
}

func (ms *MemberSetting) build(id int) (*Member, error) {
	g, err := ParseGender(ms.Gender)
	if err != nil {
		return nil, err
	}
	accepts := make([]Gender, 0, len(ms.Preferences))
	for _, p := range ms.Preferences {
		a, err := ParseGender(p)
		if err != nil {
			return nil, err
		}
		accepts = append(accepts, a)
	}
	o := OrientationOf(accepts)
	if ms.Orientation != "" {
		if o, err = ParseOrientation(ms.Orientation); err != nil {
			return nil, err
		}
	}
	return &Member{
		ID:          id,
		Name:        strings.TrimSpace(ms.Name),
		Gender:      g,
		Accepts:     accepts,
		Orientation: o,
		GradYear:    ms.GradYear,
		Responses:   append([]int(nil), ms.Responses...),
	}, nil
}

// Len 名冊人數
func (r *Roster) Len() int { return len(r.Members) }

// Genders 依 ID 排列的性別認同
func (r *Roster) Genders() []Gender {
	out := make([]Gender, len(r.Members))
	for i, m := range r.Members {
		out[i] = m.Gender
	}
	return out
}

// Orientations 依 ID 排列的偏好
func (r *Roster) Orientations() []Orientation {
	out := make([]Orientation, len(r.Members))
	for i, m := range r.Members {
		out[i] = m.Orientation
	}
	return out
}

// NewRoster 直接以 Member 組出名冊（測試與 API 使用），會重新編號 ID。
func NewRoster(name string, members []*Member) (*Roster, error) {
	if len(members) == 0 {
		return nil, errs.Coded(errs.InvalidParam, "roster %q: no members", name)
	}
	r := &Roster{Name: name, Filter: FilterScore, Members: make([]*Member, len(members))}
	n := len(members[0].Responses)
	for i, m := range members {
		if m == nil {
			return nil, errs.Coded(errs.InvalidParam, "roster %q: member[%d] is nil", name, i)
		}
		if len(m.Responses) != n {
			return nil, errs.Coded(errs.DimensionMismatch,
				"roster %q: member[%d] has %d responses, want %d", name, i, len(m.Responses), n)
		}
		cp := *m
		cp.ID = i
		r.Members[i] = &cp
	}
	r.initFlag = true
	return r, nil
}
