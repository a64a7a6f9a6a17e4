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


package httperr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zintix-labs/pairlab/errs"
)

func TestStatusCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"deadline", errs.WrapWarn(context.DeadlineExceeded, "match"), http.StatusGatewayTimeout},
		{"canceled", errs.Wrap(context.Canceled, "sim"), http.StatusRequestTimeout},
		{"round ceiling", errs.Wrap(&errs.E{ErrLv: errs.Fatal, Code: errs.RoundCeiling, Message: "ceiling"}, "match"), http.StatusUnprocessableEntity},
		{"warn", errs.Coded(errs.UnknownCategory, "gender"), http.StatusBadRequest},
		{"fatal", errs.NewFatal("boom"), http.StatusInternalServerError},
		{"plain", errors.New("plain"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := StatusCode(c.err); got != c.want {
				t.Fatalf("want %d, got %d", c.want, got)
			}
		})
	}
}

func TestErrsWritesStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	Errs(rec, errs.NewWarn("bad rid"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", rec.Code)
	}
	var b Body
	if err := json.NewDecoder(rec.Body).Decode(&b); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if b.Status != http.StatusBadRequest || b.Level != "warn" || b.Code != "" {
		t.Fatalf("unexpected body: %+v", b)
	}
	rec = httptest.NewRecorder()
	Errs(rec, nil)
	if rec.Code != http.StatusOK || rec.Body.Len() != 0 {
		t.Fatalf("nil error should not write")
	}
}

func TestBodyOfFindsWrappedCode(t *testing.T) {
	inner := errs.Coded(errs.UnknownCategory, "unrecognized gender identity category: %q", "Mael").WithExtra("did you mean Male?")
	b := BodyOf(errs.Wrap(errs.Wrap(inner, "member[2]"), "roster"))
	if b.Status != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", b.Status)
	}
	if b.Code != "unknown_category" || b.Extra != "did you mean Male?" {
		t.Fatalf("unexpected body: %+v", b)
	}
	if plain := BodyOf(errors.New("plain")); plain.Level != "" || plain.Status != http.StatusInternalServerError {
		t.Fatalf("plain error body: %+v", plain)
	}
}

func TestLogLevels(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	Log(log, "req", errs.NewWarn("bad input"))
	if buf.Len() != 0 {
		t.Fatalf("plain 400 should not be logged: %s", buf.String())
	}
	Log(log, "req", errs.NewFatal("boom"))
	if !bytes.Contains(buf.Bytes(), []byte("level=ERROR")) || !bytes.Contains(buf.Bytes(), []byte("status=500")) {
		t.Fatalf("500 should log at error: %s", buf.String())
	}
	buf.Reset()
	Log(log, "req", errs.WrapWarn(context.Canceled, "canceled"))
	if !bytes.Contains(buf.Bytes(), []byte("level=WARN")) {
		t.Fatalf("408 should log at warn: %s", buf.String())
	}
	Log(nil, "req", errs.NewFatal("nil logger is a no-op"))
}
