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
	"github.com/zintix-labs/pairlab"
	v1 "github.com/zintix-labs/pairlab/server/api/v1"
	"github.com/zintix-labs/pairlab/server/netsvr"
	"github.com/zintix-labs/pairlab/server/netsvr/middleware"
	"github.com/zintix-labs/pairlab/server/svrcfg"
)

// RegisterRoutes 註冊 middleware 與全部路由；sCfg 必須已通過 Valid。
func RegisterRoutes(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg, rt *pairlab.Runtime) error {
	registerMiddleware(svr, sCfg)       // 1. 註冊 middleware
	registerIndex(svr, sCfg, rt)        // 2. 註冊主頁與 /metrics
	return registerV1API(svr, sCfg, rt) // 3. 註冊 v1 api
}

// 註冊 middleware；Compression 放最內層，Metrics/AccessLog 看到的是實際寫出的大小。
func registerMiddleware(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg) {
	svr.Use(middleware.RequestID)
	svr.Use(sCfg.Metrics.Middleware)
	svr.Use(middleware.AccessLog(sCfg.Log))
	svr.Use(middleware.Recover(sCfg.Log))
	svr.Use(middleware.RateLimit(sCfg.RateLimit, sCfg.Burst))
	svr.Use(middleware.Compression)
}

// 註冊主頁
func registerIndex(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg, rt *pairlab.Runtime) {
	svr.Get("/", newIndexHandler(sCfg.Lab, rt).ServeHTTP)
	svr.Handle("/metrics", sCfg.Metrics.Handler())
}

// 註冊 v1 api
func registerV1API(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg, rt *pairlab.Runtime) error {
	m, err := v1.NewMatchHandler(sCfg, rt)
	if err != nil {
		return err
	}
	s, err := v1.NewSimHandler(sCfg)
	if err != nil {
		return err
	}
	sc, err := v1.NewScoreHandler(sCfg)
	if err != nil {
		return err
	}
	svr.Group("/v1", func(vOne netsvr.NetRouter) {
		vOne.Get("/match", m.Match)
		vOne.Get("/sim", s.Sim)

		vOne.Post("/match", m.Match)
		vOne.Post("/matchbyinput", m.MatchByInput)
		vOne.Post("/sim", s.Sim)
		vOne.Post("/score", sc.Score)
	})
	return nil
}
