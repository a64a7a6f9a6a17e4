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
	"strings"

	"github.com/zintix-labs/pairlab/errs"
	"github.com/zintix-labs/pairlab/roster"
)

// FilterMode 候選過濾策略
//
// 預設 FilterScoreOnly：只要分數 > 0 就是候選人，避免樣本中的少數族群完全配不到人。
// FilterOrientation 另外要求 Admissible 成立，必須由呼叫端明確開啟。
type FilterMode uint8

const (
	FilterScoreOnly FilterMode = iota
	FilterOrientation
)

var filterMap = map[string]FilterMode{
	"":            FilterScoreOnly,
	"score":       FilterScoreOnly,
	"off":         FilterScoreOnly,
	"orientation": FilterOrientation,
	"on":          FilterOrientation,
}

func (f FilterMode) String() string {
	if f == FilterOrientation {
		return "orientation"
	}
	return "score"
}

// ParseFilter 解析 CLI/HTTP/名冊檔的 filter 欄位
func ParseFilter(s string) (FilterMode, error) {
	if f, ok := filterMap[strings.ToLower(strings.TrimSpace(s))]; ok {
		return f, nil
	}
	return FilterScoreOnly, errs.Coded(errs.InvalidParam, "unknown filter %q (want score or orientation)", s)
}

// FilterOf 名冊檔設定轉成過濾策略
func FilterOf(m roster.FilterMode) FilterMode {
	if m == roster.FilterOrientation {
		return FilterOrientation
	}
	return FilterScoreOnly
}

// Admissible 判斷 proposer 與 receiver 在性別認同/偏好上是否可配對（純函式）。
// 任一列舉值超出範圍時回傳 false；原始標籤請用 AdmissibleLabels。
//
//	雙方皆非雙性：proposer 偏好 == receiver 認同，且 receiver 偏好 == proposer 認同
//	proposer 雙性：receiver 偏好為中性，或 receiver 偏好 == proposer 認同
//	receiver 雙性：proposer 偏好為中性，或 proposer 偏好 == receiver 認同
//	雙方皆雙性：可配對
func Admissible(pg roster.Gender, pp roster.Orientation, rg roster.Gender, rp roster.Orientation) bool {
	if !pg.Valid() || !pp.Valid() || !rg.Valid() || !rp.Valid() {
		return false
	}
	pBi, rBi := pp == roster.Bisexual, rp == roster.Bisexual
	switch {
	case !pBi && !rBi:
		return pp.Polarity() == rg.Polarity() && rp.Polarity() == pg.Polarity()
	case pBi && !rBi:
		return rp.Polarity() == roster.NeutralAligned || rp.Polarity() == pg.Polarity()
	case rBi && !pBi:
		return pp.Polarity() == roster.NeutralAligned || pp.Polarity() == rg.Polarity()
	default:
		return true
	}
}

// AdmissibleLabels 與 Admissible 相同，但接受原始標籤；未知標籤回傳 UnknownCategory。
func AdmissibleLabels(pg, pp, rg, rp string) (bool, error) {
	pgv, err := roster.ParseGender(pg)
	if err != nil {
		return false, err
	}
	ppv, err := roster.ParseOrientation(pp)
	if err != nil {
		return false, err
	}
	rgv, err := roster.ParseGender(rg)
	if err != nil {
		return false, err
	}
	rpv, err := roster.ParseOrientation(rp)
	if err != nil {
		return false, err
	}
	return Admissible(pgv, ppv, rgv, rpv), nil
}
