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


// Package httperr 是 HTTP 邊界層的錯誤映射：errs.E → status code + JSON 錯誤本文。
package httperr

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/zintix-labs/pairlab/errs"
)

// Body 錯誤回應本文
type Body struct {
	Status  int    `json:"status"`
	Level   string `json:"level,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Extra   string `json:"extra,omitempty"`
}

// StatusCode 將錯誤映射成 HTTP status code。
//
//   - ctx timeout/cancel → 504/408（即使被 wrap 也以 errors.Is 命中）
//   - RoundCeiling      → 422（max_rounds 設太小，引擎本身無誤）
//   - errs.Warn         → 400
//   - errs.Fatal / 其他 → 500
func StatusCode(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	case errs.Is(err, errs.RoundCeiling):
		return http.StatusUnprocessableEntity
	}
	if e, ok := errs.AsErr(err); ok && e.ErrLv == errs.Warn {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// BodyOf 組出錯誤本文；Code 與 Extra 各取錯誤鏈上第一個非空值。
func BodyOf(err error) Body {
	b := Body{Status: StatusCode(err), Message: err.Error()}
	e, ok := errs.AsErr(err)
	if !ok {
		return b
	}
	b.Level = errs.ErrLv(e.ErrLv)
	for cur := e; cur != nil; {
		if b.Code == "" {
			b.Code = cur.Code.String()
		}
		if b.Extra == "" {
			b.Extra = cur.Extra
		}
		next, ok := errs.AsErr(cur.Cause)
		if !ok || (b.Code != "" && b.Extra != "") {
			break
		}
		cur = next
	}
	return b
}

// Errs 寫回 JSON 錯誤本文；err 為 nil 時不做任何事。
func Errs(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	b := BodyOf(err)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(b.Status)
	_ = json.NewEncoder(w).Encode(b)
}

// Log 依 status 決定要不要記：4xx 中只記 408/409/422/429，5xx 一律記 Error。
func Log(log *slog.Logger, msg string, err error) {
	if err == nil || log == nil {
		return
	}
	switch status := StatusCode(err); {
	case status >= 500:
		log.Error(msg, slog.Int("status", status), slog.Any("err", err))
	case status == http.StatusRequestTimeout, status == http.StatusConflict,
		status == http.StatusUnprocessableEntity, status == http.StatusTooManyRequests:
		log.Warn(msg, slog.Int("status", status), slog.Any("err", err))
	}
}
