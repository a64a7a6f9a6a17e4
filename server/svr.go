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
	"context"
	"log/slog"

	"github.com/zintix-labs/pairlab"
	"github.com/zintix-labs/pairlab/errs"
	"github.com/zintix-labs/pairlab/server/api"
	"github.com/zintix-labs/pairlab/server/app"
	"github.com/zintix-labs/pairlab/server/netsvr"
	"github.com/zintix-labs/pairlab/server/svrcfg"
)

var (
	_ app.Component = (*pairlab.Runtime)(nil)
	_ netsvr.NetSvr = (*netsvr.ChiAdapter)(nil)
)

// Run 是 server 套件的「組裝器（assembler）」與「啟動入口（runtime entry）」。
//
// 它負責：
//  1. 驗證 SvrCfg 並補預設值。
//  2. 建立 HTTP server（netsvr）與每份名冊的 Matcher 池（pairlab.Runtime）。
//  3. 註冊路由與 middleware（api.RegisterRoutes）。
//  4. 啟動 app.Run() 並回傳停止原因。
//
// Run 不綁定任何檔案路徑或環境變數；所有依賴都透過 SvrCfg 明確注入。
func Run(sCfg *svrcfg.SvrCfg) error {
	if err := sCfg.Valid(); err != nil {
		return err
	}
	return RunWithSvr(sCfg, netsvr.NewChiServer(sCfg.Addr, sCfg.Timeouts))
}

// RunWithSvr 與 Run 相同，但由呼叫端注入自訂的 NetSvr（自己的 adapter、listener 或 TLS 設定）。
//
// svr 必須非 nil；若是 ChiAdapter 會要求 Ready() 為 true。
func RunWithSvr(sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr) error {
	rt, err := Mount(context.Background(), sCfg, svr)
	if err != nil {
		return err
	}
	app := app.NewWith(rt, svr).WithLogger(sCfg.Log)
	sCfg.Log.Info("[pairlab] listening", slog.String("addr", sCfg.Addr))
	if err := app.Run(); err != nil {
		sCfg.Log.Error("app stopped", slog.Any("err", err))
		return err
	}
	sCfg.Log.Info("[pairlab] stopped")
	return nil
}

// Mount 建好 Runtime 並把全部路由掛到 svr 上，但不啟動；呼叫端負責 Runtime.Close。
func Mount(ctx context.Context, sCfg *svrcfg.SvrCfg, svr netsvr.NetRouter) (*pairlab.Runtime, error) {
	if err := sCfg.Valid(); err != nil {
		return nil, err
	}
	if svr == nil {
		return nil, errs.NewFatal("svr is required")
	}
	if s, ok := svr.(*netsvr.ChiAdapter); ok && !s.Ready() {
		return nil, errs.NewFatal("default server is not ready")
	}
	rt, err := sCfg.Lab.BuildRuntime(ctx, sCfg.PoolSize)
	if err != nil {
		return nil, errs.Wrap(err, "build runtime failed")
	}
	if err := api.RegisterRoutes(svr, sCfg, rt); err != nil {
		rt.Close()
		return nil, errs.Wrap(err, "register routes failed")
	}
	return rt, nil
}
