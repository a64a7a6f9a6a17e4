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

package roster

import (
	"fmt"
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/zintix-labs/pairlab/errs"
)

// Gender 性別認同（封閉集合）
type Gender uint8

const (
	Male Gender = iota
	Female
	Nonbinary
)

// Orientation 偏好對象（封閉集合）
type Orientation uint8

const (
	Men Orientation = iota
	Women
	Bisexual
)

// Polarity 雙極編碼：-1 女性向，0 非二元/雙性，+1 男性向
type Polarity int8

const (
	WomenAligned   Polarity = -1
	NeutralAligned Polarity = 0
	MenAligned     Polarity = 1
)

// 以下查表皆為唯讀，只在 package 初始化時建立一次。
var (
	genderMap = map[string]Gender{
		"male":       Male,
		"female":     Female,
		"nonbinary":  Nonbinary,
		"non-binary": Nonbinary,
	}
	orientationMap = map[string]Orientation{
		"men":      Men,
		"women":    Women,
		"bisexual": Bisexual,
	}
	genderStr      = [...]string{Male: "Male", Female: "Female", Nonbinary: "Nonbinary"}
	orientationStr = [...]string{Men: "Men", Women: "Women", Bisexual: "Bisexual"}
	genderPol      = [...]Polarity{Male: MenAligned, Female: WomenAligned, Nonbinary: NeutralAligned}
	orientationPol = [...]Polarity{Men: MenAligned, Women: WomenAligned, Bisexual: NeutralAligned}
)

func (g Gender) String() string {
	if int(g) < len(genderStr) {
		return genderStr[g]
	}
	return fmt.Sprintf("Gender(%d)", g)
}

func (o Orientation) String() string {
	if int(o) < len(orientationStr) {
		return orientationStr[o]
	}
	return fmt.Sprintf("Orientation(%d)", o)
}

// Polarity 回傳性別認同的雙極編碼
func (g Gender) Polarity() Polarity {
	if int(g) < len(genderPol) {
		return genderPol[g]
	}
	return NeutralAligned
}

// Polarity 回傳偏好的雙極編碼
func (o Orientation) Polarity() Polarity {
	if int(o) < len(orientationPol) {
		return orientationPol[o]
	}
	return NeutralAligned
}

func (g Gender) Valid() bool      { return int(g) < len(genderStr) }
func (o Orientation) Valid() bool { return int(o) < len(orientationStr) }

// ParseGender 解析性別標籤（不分大小寫）；未知標籤回傳 UnknownCategory。
func ParseGender(s string) (Gender, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if g, ok := genderMap[key]; ok {
		return g, nil
	}
	return 0, unknownLabel("gender identity", s, genderStr[:])
}

// ParseOrientation 解析偏好標籤（不分大小寫）；未知標籤回傳 UnknownCategory。
func ParseOrientation(s string) (Orientation, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if o, ok := orientationMap[key]; ok {
		return o, nil
	}
	return 0, unknownLabel("orientation preference", s, orientationStr[:])
}

// OrientationOf 由「接受的性別集合」推導偏好：只接受 Male => Men，只接受 Female => Women，其餘 => Bisexual。
func OrientationOf(accepts []Gender) Orientation {
	hasMale := slices.Contains(accepts, Male)
	hasFemale := slices.Contains(accepts, Female)
	switch {
	case hasMale && !hasFemale && len(accepts) == 1:
		return Men
	case hasFemale && !hasMale && len(accepts) == 1:
		return Women
	default:
		return Bisexual
	}
}

// unknownLabel 建立 UnknownCategory 錯誤，並以編輯距離附上最接近的合法標籤。
func unknownLabel(kind string, got string, known []string) *errs.E {
	e := errs.Coded(errs.UnknownCategory, "unrecognized %s category: %q", kind, got)
	best, bestD := "", -1
	lower := strings.ToLower(got)
	for _, k := range known {
		d := levenshtein.ComputeDistance(lower, strings.ToLower(k))
		if bestD < 0 || d < bestD {
			best, bestD = k, d
		}
	}
	if best != "" && bestD <= max(2, len(best)/3) {
		e.WithExtra("did you mean " + best + "?")
	}
	return e
}
