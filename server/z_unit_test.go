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

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/zintix-labs/pairlab/demo"
	"github.com/zintix-labs/pairlab/dto"
	"github.com/zintix-labs/pairlab/server/httperr"
	"github.com/zintix-labs/pairlab/server/logger"
	"github.com/zintix-labs/pairlab/server/netsvr"
	"github.com/zintix-labs/pairlab/server/svrcfg"
)

func newTestServer(t *testing.T, tweak func(*svrcfg.SvrCfg)) *netsvr.ChiAdapter {
	t.Helper()
	sCfg, err := demo.NewServerConfigWith(logger.NewDefaultLogger(logger.ModeSilence))
	if err != nil {
		t.Fatalf("server config: %v", err)
	}
	if tweak != nil {
		tweak(sCfg)
	}
	svr := netsvr.NewChiServerDefault()
	rt, err := Mount(context.Background(), sCfg, svr)
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	t.Cleanup(rt.Close)
	return svr
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return v
}

func TestMountRequiresLab(t *testing.T) {
	sCfg := &svrcfg.SvrCfg{Log: logger.NewDefaultLogger(logger.ModeSilence)}
	if _, err := Mount(context.Background(), sCfg, netsvr.NewChiServerDefault()); err == nil {
		t.Fatalf("mount without lab should fail")
	}
}

func TestIndex(t *testing.T) {
	svr := newTestServer(t, nil)
	rec := do(t, svr, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("missing request id header")
	}
	got := decode[struct {
		Rosters []struct {
			RID  int    `json:"rid"`
			Name string `json:"name"`
		} `json:"rosters"`
		Pools []struct {
			PoolSize int `json:"pool_size"`
		} `json:"pools"`
	}](t, rec)
	if len(got.Rosters) != 2 || got.Rosters[0].Name != "campus" {
		t.Fatalf("unexpected rosters: %+v", got.Rosters)
	}
	if len(got.Pools) != 2 || got.Pools[0].PoolSize != 2 {
		t.Fatalf("unexpected pools: %+v", got.Pools)
	}
}

func TestMatchSeededIsDeterministic(t *testing.T) {
	svr := newTestServer(t, nil)
	first := do(t, svr, http.MethodGet, "/v1/match?rid=1&seed=7", nil)
	if first.Code != http.StatusOK {
		t.Fatalf("status %d: %s", first.Code, first.Body.String())
	}
	a := decode[dto.MatchResult](t, first)
	if len(a.Pairs) == 0 || a.Roster != "campus" || a.State.StartCoreSnapB64U == "" {
		t.Fatalf("unexpected result: %+v", a)
	}
	b := decode[dto.MatchResult](t, do(t, svr, http.MethodGet, "/v1/match?rid=1&seed=7", nil))
	if !reflect.DeepEqual(a.Pairs, b.Pairs) {
		t.Fatalf("same seed gave different pairs:\n%v\n%v", a.Pairs, b.Pairs)
	}

	// 另一個 seed，但帶回第一次的起始快照：分組與配對必須相同
	replay := do(t, svr, http.MethodPost, "/v1/match", map[string]any{
		"rid":         1,
		"seed":        99,
		"start_state": map[string]string{"start_b64u": a.State.StartCoreSnapB64U},
	})
	if replay.Code != http.StatusOK {
		t.Fatalf("replay status %d: %s", replay.Code, replay.Body.String())
	}
	c := decode[dto.MatchResult](t, replay)
	if !reflect.DeepEqual(a.Pairs, c.Pairs) || c.State.AfterCoreSnapB64U != a.State.AfterCoreSnapB64U {
		t.Fatalf("replay mismatch:\n%v\n%v", a.Pairs, c.Pairs)
	}
}

func TestMatchFromPool(t *testing.T) {
	svr := newTestServer(t, nil)
	rec := do(t, svr, http.MethodPost, "/v1/match", map[string]any{"rid": 2, "filter": "orientation"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	res := decode[dto.MatchResult](t, rec)
	if res.RID != 2 || res.Filter != "orientation" {
		t.Fatalf("unexpected result: %+v", res)
	}
	seen := map[int]bool{}
	for _, p := range res.Pairs {
		if seen[p.Proposer] || seen[p.Receiver] {
			t.Fatalf("member matched twice: %+v", res.Pairs)
		}
		seen[p.Proposer], seen[p.Receiver] = true, true
	}
}

func TestMatchRejects(t *testing.T) {
	svr := newTestServer(t, nil)
	cases := []struct {
		name   string
		method string
		target string
		body   any
		want   int
	}{
		{"unknown rid", http.MethodGet, "/v1/match?rid=99", nil, http.StatusBadRequest},
		{"bad seed", http.MethodGet, "/v1/match?rid=1&seed=x", nil, http.StatusBadRequest},
		{"bad filter", http.MethodGet, "/v1/match?rid=1&filter=nope", nil, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/v1/match", map[string]any{"rid": 1, "gid": 3}, http.StatusBadRequest},
		{"bad snapshot", http.MethodPost, "/v1/match", map[string]any{"rid": 1, "start_state": map[string]string{"start_b64u": "!!"}}, http.StatusBadRequest},
		{"method", http.MethodPut, "/v1/match", nil, http.StatusMethodNotAllowed},
		{"input via get", http.MethodGet, "/v1/matchbyinput", nil, http.StatusMethodNotAllowed},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if rec := do(t, svr, c.method, c.target, c.body); rec.Code != c.want {
				t.Fatalf("want %d, got %d: %s", c.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestMatchByInput(t *testing.T) {
	svr := newTestServer(t, nil)
	body := map[string]any{
		"scores":      [][]float64{{0, 10, 0, 30}, {50, 0, 80, 0}, {0, 40, 0, 20}, {15, 0, 60, 0}},
		"genders":     []string{"Male", "Female", "Male", "Female"},
		"preferences": []string{"Women", "Men", "Women", "Men"},
		"names":       []string{"a", "b", "c", "d"},
		"seed":        3,
	}
	rec := do(t, svr, http.MethodPost, "/v1/matchbyinput", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	res := decode[dto.MatchResult](t, rec)
	if res.Roster != "input" || len(res.Proposers) != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	for _, p := range res.Pairs {
		if p.ProposerName == "" {
			t.Fatalf("names not attached: %+v", p)
		}
	}

	body["genders"] = []string{"Male", "Female", "Mael", "Female"}
	rec = do(t, svr, http.MethodPost, "/v1/matchbyinput", body)
	if eb := decode[httperr.Body](t, rec); rec.Code != http.StatusBadRequest || eb.Code != "unknown_category" || eb.Extra == "" {
		t.Fatalf("unknown gender: want 400 unknown_category with hint, got %d %+v", rec.Code, eb)
	}
	body["genders"] = []string{"Male", "Female"}
	rec = do(t, svr, http.MethodPost, "/v1/matchbyinput", body)
	if eb := decode[httperr.Body](t, rec); rec.Code != http.StatusBadRequest || eb.Code != "dimension_mismatch" {
		t.Fatalf("dimension mismatch: want 400, got %d %+v", rec.Code, eb)
	}
}

func TestSim(t *testing.T) {
	svr := newTestServer(t, nil)
	rec := do(t, svr, http.MethodGet, "/v1/sim?rid=2&runs=40&workers=2&seed=5", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	a := decode[dto.SimResult](t, rec)
	if a.Seed != 5 || a.Workers != 2 || a.Report == nil || a.Report.Summary.Runs != 40 {
		t.Fatalf("unexpected sim result: %+v", a)
	}
	if a.Report.Summary.BlockingPairs != 0 {
		t.Fatalf("blocking pairs found: %d", a.Report.Summary.BlockingPairs)
	}
	if a.Report.Members != nil {
		t.Fatalf("members should be omitted unless requested")
	}

	rec = do(t, svr, http.MethodPost, "/v1/sim", map[string]any{"rid": 2, "runs": 40, "workers": 2, "seed": 5, "members": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("post status %d: %s", rec.Code, rec.Body.String())
	}
	b := decode[dto.SimResult](t, rec)
	if b.Report.Summary.Pairs != a.Report.Summary.Pairs || len(b.Report.Members) != b.Report.Summary.Population {
		t.Fatalf("post sim differs: %+v vs %+v", a.Report.Summary, b.Report.Summary)
	}
}

func TestSimLimits(t *testing.T) {
	svr := newTestServer(t, func(c *svrcfg.SvrCfg) { c.SimMaxRuns = 10; c.SimMaxWorkers = 1 })
	if rec := do(t, svr, http.MethodGet, "/v1/sim?rid=1&runs=11", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("runs over limit: want 400, got %d", rec.Code)
	}
	rec := do(t, svr, http.MethodGet, "/v1/sim?rid=1&runs=10&workers=4", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if got := decode[dto.SimResult](t, rec); got.Workers != 1 {
		t.Fatalf("workers should be capped at 1, got %d", got.Workers)
	}
}

func TestScore(t *testing.T) {
	svr := newTestServer(t, nil)
	body := map[string]any{
		"a": map[string]any{"name": "a", "gender": "Female", "preferences": []string{"Male"}, "gradYear": 2024, "responses": []int{1, 2, 3}},
		"b": map[string]any{"name": "b", "gender": "Male", "preferences": []string{"Female"}, "gradYear": 2025, "responses": []int{1, 2, 4}},
	}
	rec := do(t, svr, http.MethodPost, "/v1/score", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	res := decode[dto.ScoreResult](t, rec)
	if !res.Admissible || !res.AToB.Accepted || res.AToB.Score <= 0 || res.AToB.Score > 100 {
		t.Fatalf("unexpected score: %+v", res)
	}

	body["b"].(map[string]any)["responses"] = []int{1}
	if rec := do(t, svr, http.MethodPost, "/v1/score", body); rec.Code != http.StatusBadRequest {
		t.Fatalf("responses mismatch: want 400, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	svr := newTestServer(t, nil)
	do(t, svr, http.MethodGet, "/v1/match?rid=1", nil)
	rec := do(t, svr, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`pairlab_http_requests_total{method="GET",route="/v1/match",status="200"} 1`,
		`pairlab_match_runs_total{outcome="ok",roster="campus"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %q", want)
		}
	}
}

func TestRateLimit(t *testing.T) {
	svr := newTestServer(t, func(c *svrcfg.SvrCfg) { c.RateLimit = 0.001; c.Burst = 1 })
	if rec := do(t, svr, http.MethodGet, "/", nil); rec.Code != http.StatusOK {
		t.Fatalf("first request: %d", rec.Code)
	}
	rec := do(t, svr, http.MethodGet, "/", nil)
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") == "" {
		t.Fatalf("second request: want 429 with Retry-After, got %d", rec.Code)
	}
}

func TestCompressedResponse(t *testing.T) {
	svr := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/v1/match?rid=1&seed=1", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	svr.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("want gzip 200, got %d %q", rec.Code, rec.Header().Get("Content-Encoding"))
	}
	zr, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	var res dto.MatchResult
	if err := json.NewDecoder(zr).Decode(&res); err != nil {
		t.Fatalf("decode gzip body: %v", err)
	}
	if res.RID != 1 {
		t.Fatalf("unexpected rid %d", res.RID)
	}
}
