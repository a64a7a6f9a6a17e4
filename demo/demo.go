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


// Package demo 內建兩份示範名冊（campus.yaml / club.json），給 cmd 與測試直接使用。
package demo

import (
	"log/slog"

	"github.com/zintix-labs/pairlab"
	"github.com/zintix-labs/pairlab/catalog"
	"github.com/zintix-labs/pairlab/demo/rosters"
	"github.com/zintix-labs/pairlab/errs"
	"github.com/zintix-labs/pairlab/sdk/core"
	"github.com/zintix-labs/pairlab/server/logger"
	"github.com/zintix-labs/pairlab/server/svrcfg"
)

const (
	CampusRID = 1
	ClubRID   = 2
)

// New 只含示範名冊的 Catalog（已掃描、未凍結）
func New() (*catalog.Catalog, error) {
	cat, err := catalog.New(rosters.FS)
	if err != nil {
		return nil, err
	}
	if err := cat.Scan(); err != nil {
		return nil, err
	}
	return cat, nil
}

// NewLab 以示範名冊建立已凍結的 Lab
func NewLab(opts ...pairlab.Option) (*pairlab.Lab, error) {
	return pairlab.NewAuto(core.Default(), pairlab.Rosters(rosters.FS), opts...)
}

// NewServerConfig 示範用的 server 設定（dev 模式 log）
func NewServerConfig() (*svrcfg.SvrCfg, error) {
	log := logger.NewDefaultAsyncLogger(logger.ModeDev)
	return NewServerConfigWith(log)
}

// NewServerConfigWith 與 NewServerConfig 相同，但由呼叫端提供 logger
func NewServerConfigWith(log *slog.Logger) (*svrcfg.SvrCfg, error) {
	lab, err := NewLab(pairlab.WithLogger(log))
	if err != nil {
		return nil, errs.Wrap(err, "new pairlab failed")
	}
	return &svrcfg.SvrCfg{
		Log:      log,
		Lab:      lab,
		PoolSize: 2,
	}, nil
}
