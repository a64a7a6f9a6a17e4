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

package dto

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/zintix-labs/pairlab/corefmt"
	"github.com/zintix-labs/pairlab/errs"
	"github.com/zintix-labs/pairlab/match"
	"github.com/zintix-labs/pairlab/roster"
)

// 防止 body 過大
const maxBody = 1 << 20

// 輸入矩陣可以比名冊大，單獨放寬
const maxInputBody = 16 << 20

var validate = validator.New()

// StartState 由呼叫端帶入的 RNG 起始快照（可選）。
//
//   - 缺省或空物件：新的一次配對，引擎自行推進 RNG。
//   - start_b64u 有值：回放；引擎從快照還原後分組，結束後還原回原本的狀態，
//     所以回放不會影響同一台 Matcher 之後的序列。
//
// 請求端只能提供 start；after 只會出現在回應（MatchState）。
type StartState struct {
	StartCoreSnapB64U string `json:"start_b64u,omitempty"`
}

func (ss *StartState) HasPayload() bool {
	return ss != nil && ss.StartCoreSnapB64U != ""
}

// Snap 解碼起始快照；沒有帶時回傳 nil。
func (ss *StartState) Snap() ([]byte, error) {
	if !ss.HasPayload() {
		return nil, nil
	}
	snap, err := corefmt.DecodeBase64URL(ss.StartCoreSnapB64U)
	if err != nil {
		return nil, errs.Wrap(err, "core snap decode failed")
	}
	return snap, nil
}

// MatchRequest 對一份已註冊名冊做一次配對
type MatchRequest struct {
	RID        roster.RID  `json:"rid"`
	Seed       *int64      `json:"seed,omitempty"` // 有帶時以此 seed 建立獨立的 Matcher
	Filter     string      `json:"filter,omitempty"`
	MaxRounds  int         `json:"max_rounds,omitempty" validate:"gte=0"`
	StartState *StartState `json:"start_state,omitempty"`
}

// DecodeMatchRequest 把 HTTP 請求解碼成 MatchRequest。
//
// 支援：
//   - GET：從 query string 讀取 rid/seed/filter/max_rounds/start_b64u。
//   - POST：從 JSON body 反序列化，未知欄位直接拒絕。
//
// 這裡只做解碼與基本型別轉換；rid 是否存在由上層決定。
func DecodeMatchRequest(r *http.Request) (*MatchRequest, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}
	req := new(MatchRequest)
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		rid, err := queryUint(q, "rid")
		if err != nil {
			return nil, err
		}
		req.RID = roster.RID(rid)
		if req.Seed, err = querySeed(q); err != nil {
			return nil, err
		}
		req.Filter = q.Get("filter")
		if req.MaxRounds, err = queryInt(q, "max_rounds", 0); err != nil {
			return nil, err
		}
		if s := q.Get("start_b64u"); s != "" {
			req.StartState = &StartState{StartCoreSnapB64U: s}
		}
	case http.MethodPost:
		if err := decodeJSON(r.Body, maxBody, req); err != nil {
			return nil, err
		}
	default:
		return nil, errs.NewWarn("method not allowed")
	}
	if err := validate.Struct(req); err != nil {
		return nil, errs.WrapWarn(err, "invalid match request")
	}
	return req, nil
}

// Options 以名冊預設的 filter 為底，套用請求指定的參數
func (mr *MatchRequest) Options(def match.FilterMode) (match.Options, error) {
	return options(mr.Filter, mr.MaxRounds, def)
}

// InputRequest 直接提供分數矩陣與類別標籤（不經過名冊）
type InputRequest struct {
	Scores      [][]float64 `json:"scores"      validate:"required"`
	Genders     []string    `json:"genders"     validate:"required"`
	Preferences []string    `json:"preferences" validate:"required"`
	Names       []string    `json:"names,omitempty"`
	Seed        *int64      `json:"seed,omitempty"`
	Filter      string      `json:"filter,omitempty"`
	MaxRounds   int         `json:"max_rounds,omitempty" validate:"gte=0"`
	StartState  *StartState `json:"start_state,omitempty"`
}

// DecodeInputRequest 只接受 POST JSON（矩陣不適合放 query string）。
func DecodeInputRequest(r *http.Request) (*InputRequest, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}
	if r.Method != http.MethodPost {
		return nil, errs.NewWarn("method not allowed")
	}
	req := new(InputRequest)
	if err := decodeJSON(r.Body, maxInputBody, req); err != nil {
		return nil, err
	}
	if err := validate.Struct(req); err != nil {
		return nil, errs.WrapWarn(err, "invalid input request")
	}
	if req.Names != nil && len(req.Names) != len(req.Scores) {
		return nil, errs.Coded(errs.DimensionMismatch, "names has %d entries, scores has %d rows", len(req.Names), len(req.Scores))
	}
	return req, nil
}

// Parse 轉成已檢查的 match.Input 與配對參數
func (ir *InputRequest) Parse() (*match.Input, match.Options, error) {
	in, err := match.ParseInput(ir.Scores, ir.Genders, ir.Preferences)
	if err != nil {
		return nil, match.Options{}, err
	}
	opts, err := options(ir.Filter, ir.MaxRounds, match.FilterScoreOnly)
	if err != nil {
		return nil, match.Options{}, err
	}
	return in, opts, nil
}

// SimRequest Monte Carlo 模擬參數
type SimRequest struct {
	RID       roster.RID `json:"rid"`
	Runs      int        `json:"runs"    validate:"gte=1,lte=1000000"`
	Workers   int        `json:"workers" validate:"gte=1,lte=256"`
	Seed      *int64     `json:"seed,omitempty"`
	Filter    string     `json:"filter,omitempty"`
	MaxRounds int        `json:"max_rounds,omitempty" validate:"gte=0"`
	Members   bool       `json:"members,omitempty"` // 是否輸出每位成員的統計
}

// DecodeSimRequest GET 讀 query（rid/runs/workers/seed/filter/max_rounds/members），POST 讀 JSON。
// runs 預設 1000，workers 預設 1。
func DecodeSimRequest(r *http.Request) (*SimRequest, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}
	req := &SimRequest{Runs: 1000, Workers: 1}
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		rid, err := queryUint(q, "rid")
		if err != nil {
			return nil, err
		}
		req.RID = roster.RID(rid)
		if req.Runs, err = queryInt(q, "runs", req.Runs); err != nil {
			return nil, err
		}
		if req.Workers, err = queryInt(q, "workers", req.Workers); err != nil {
			return nil, err
		}
		if req.Seed, err = querySeed(q); err != nil {
			return nil, err
		}
		req.Filter = q.Get("filter")
		if req.MaxRounds, err = queryInt(q, "max_rounds", 0); err != nil {
			return nil, err
		}
		if s := q.Get("members"); s != "" {
			v, err := strconv.ParseBool(s)
			if err != nil {
				return nil, errs.NewWarn("invalid members value " + err.Error())
			}
			req.Members = v
		}
	case http.MethodPost:
		if err := decodeJSON(r.Body, maxBody, req); err != nil {
			return nil, err
		}
	default:
		return nil, errs.NewWarn("method not allowed")
	}
	if err := validate.Struct(req); err != nil {
		return nil, errs.WrapWarn(err, "invalid sim request")
	}
	return req, nil
}

func (sr *SimRequest) Options(def match.FilterMode) (match.Options, error) {
	return options(sr.Filter, sr.MaxRounds, def)
}

// ScoreRequest 兩位成員的設定（與名冊檔的 member 欄位相同）
type ScoreRequest struct {
	A        roster.MemberSetting `json:"a"`
	B        roster.MemberSetting `json:"b"`
	MaxTotal int                  `json:"max_total,omitempty" validate:"gte=0"`
}

// DecodeScoreRequest 只接受 POST JSON
func DecodeScoreRequest(r *http.Request) (*ScoreRequest, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}
	if r.Method != http.MethodPost {
		return nil, errs.NewWarn("method not allowed")
	}
	req := new(ScoreRequest)
	if err := decodeJSON(r.Body, maxBody, req); err != nil {
		return nil, err
	}
	if req.MaxTotal < 0 {
		return nil, errs.Coded(errs.InvalidParam, "max_total must not be negative, got %d", req.MaxTotal)
	}
	return req, nil
}

// Parse 建出兩位成員；問卷長度必須一致。
func (sr *ScoreRequest) Parse() (a, b *roster.Member, err error) {
	if a, err = sr.A.Member(0); err != nil {
		return nil, nil, err
	}
	if b, err = sr.B.Member(1); err != nil {
		return nil, nil, err
	}
	if len(a.Responses) != len(b.Responses) {
		return nil, nil, errs.Coded(errs.DimensionMismatch,
			"responses length differ: %d vs %d", len(a.Responses), len(b.Responses))
	}
	return a, b, nil
}

func options(filter string, maxRounds int, def match.FilterMode) (match.Options, error) {
	opts := match.Options{Filter: def, MaxRounds: maxRounds}
	if maxRounds < 0 {
		return opts, errs.Coded(errs.InvalidParam, "max_rounds must not be negative, got %d", maxRounds)
	}
	if filter != "" {
		f, err := match.ParseFilter(filter)
		if err != nil {
			return opts, err
		}
		opts.Filter = f
	}
	return opts, nil
}

func decodeJSON(body io.Reader, limit int64, v any) error {
	if body == nil {
		return errs.NewWarn("empty body")
	}
	dec := json.NewDecoder(io.LimitReader(body, limit))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errs.WrapWarn(err, "invalid json")
	}
	return nil
}

func queryUint(q url.Values, key string) (uint64, error) {
	s := q.Get(key)
	if s == "" {
		return 0, nil
	}
	u, err := strconv.ParseUint(s, 10, 0)
	if err != nil {
		return 0, errs.NewWarn(fmt.Sprintf("invalid %s: %v", key, err))
	}
	return u, nil
}

func queryInt(q url.Values, key string, def int) (int, error) {
	s := q.Get(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, errs.NewWarn(fmt.Sprintf("invalid %s: %v", key, err))
	}
	return v, nil
}

func querySeed(q url.Values) (*int64, error) {
	s := q.Get("seed")
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, errs.NewWarn(fmt.Sprintf("invalid seed: %v", err))
	}
	return &v, nil
}
