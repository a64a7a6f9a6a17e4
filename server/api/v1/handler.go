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


// Package v1 /v1 路由的 HTTP handler。
//
// 每個 handler 只做：解碼請求 → 呼叫 pairlab → 寫回 JSON；錯誤一律經過 httperr 映射狀態碼。
package v1

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/zintix-labs/pairlab/server/httperr"
	"github.com/zintix-labs/pairlab/server/netsvr/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/zintix-labs/pairlab/server/api/v1"

var tracer = otel.Tracer(tracerName)

// startSpan 以 handler 名稱開 span，並帶上 request id
func startSpan(r *http.Request, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("http.request_id", middleware.GetReqId(r)))
	return tracer.Start(r.Context(), name, trace.WithAttributes(attrs...))
}

// fail 記錄錯誤到 span 與 log，並寫回對應的狀態碼
func fail(w http.ResponseWriter, log *slog.Logger, span trace.Span, msg string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.Int("http.status_code", httperr.StatusCode(err)))
	httperr.Log(log, msg, err)
	httperr.Errs(w, err)
}

func writeJSON(w http.ResponseWriter, span trace.Span, v any) {
	span.SetStatus(codes.Ok, "")
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
