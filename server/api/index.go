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


package api

import (
	"encoding/json"
	"net/http"

	"github.com/zintix-labs/pairlab"
	"github.com/zintix-labs/pairlab/catalog"
	"github.com/zintix-labs/pairlab/server/httperr"
)

type indexResponse struct {
	Service string                       `json:"service"`
	Rosters []catalog.Summary            `json:"rosters"`
	Pools   []pairlab.MatcherPoolMetrics `json:"pools"`
	Routes  []string                     `json:"routes"`
}

var routes = []string{
	"GET  /metrics",
	"GET  /v1/match?rid=&seed=&filter=&max_rounds=&start_b64u=",
	"POST /v1/match",
	"POST /v1/matchbyinput",
	"GET  /v1/sim?rid=&runs=&workers=&seed=&filter=&members=",
	"POST /v1/sim",
	"POST /v1/score",
}

// indexHandler GET /：已註冊名冊與各 Matcher 池的狀態
type indexHandler struct {
	lab *pairlab.Lab
	rt  *pairlab.Runtime
}

func newIndexHandler(lab *pairlab.Lab, rt *pairlab.Runtime) *indexHandler {
	return &indexHandler{lab: lab, rt: rt}
}

func (ih *indexHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sum, err := ih.lab.Summary()
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(indexResponse{
		Service: "pairlab",
		Rosters: sum,
		Pools:   ih.rt.Metrics(),
		Routes:  routes,
	})
}
