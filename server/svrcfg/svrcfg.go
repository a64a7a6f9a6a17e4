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


package svrcfg

import (
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/zintix-labs/pairlab"
	"github.com/zintix-labs/pairlab/errs"
	"github.com/zintix-labs/pairlab/server/logger"
	"github.com/zintix-labs/pairlab/server/netsvr"
	"github.com/zintix-labs/pairlab/server/netsvr/middleware"
)

const (
	DefaultPoolSize       = 4
	DefaultSimMaxRuns     = 100000
	DefaultSimMaxWorkers  = 8
	DefaultRequestTimeout = 5 * time.Second
	DefaultSimTimeout     = 30 * time.Second
)

// SvrCfg server 組裝所需的全部依賴與參數；零值欄位在 Valid 時補預設。
type SvrCfg struct {
	Log     *slog.Logger        `validate:"-"`
	Lab     *pairlab.Lab        `validate:"required"`
	Metrics *middleware.Metrics `validate:"-"`

	Addr     string          `validate:"omitempty,hostname_port"`
	Timeouts netsvr.Timeouts `validate:"-"`

	// PoolSize 每份名冊常駐的 Matcher 數量
	PoolSize int `validate:"gte=0,lte=64"`
	// RateLimit 每秒請求數（0 = 不限流），Burst 瞬間容許量
	RateLimit float64 `validate:"gte=0"`
	Burst     int     `validate:"gte=0"`

	SimMaxRuns    int `validate:"gte=0,lte=10000000"`
	SimMaxWorkers int `validate:"gte=0,lte=256"`

	RequestTimeout time.Duration `validate:"gte=0"`
	SimTimeout     time.Duration `validate:"gte=0"`
}

var validate = validator.New()

// Valid 檢查設定並補上預設值；Lab 必須已凍結。
func (sc *SvrCfg) Valid() error {
	if sc == nil {
		return errs.NewFatal("server config is nil")
	}
	if sc.Log != nil {
		if ah, ok := sc.Log.Handler().(*logger.AsyncHandler); ok && !ah.Ready() {
			return errs.NewFatal("nil default log handler: async handler is nil")
		}
	} else {
		sc.Log = logger.NewDefaultLogger(logger.ModeDev)
	}
	if err := validate.Struct(sc); err != nil {
		return errs.Wrap(err, "invalid server config")
	}
	if _, err := sc.Lab.Summary(); err != nil {
		return errs.Wrap(err, "lab is not ready")
	}

	if sc.Addr == "" {
		sc.Addr = netsvr.DefaultAddr
	}
	if sc.PoolSize == 0 {
		sc.PoolSize = DefaultPoolSize
	}
	if sc.RateLimit > 0 && sc.Burst == 0 {
		sc.Burst = max(1, int(sc.RateLimit))
	}
	if sc.SimMaxRuns == 0 {
		sc.SimMaxRuns = DefaultSimMaxRuns
	}
	if sc.SimMaxWorkers == 0 {
		sc.SimMaxWorkers = DefaultSimMaxWorkers
	}
	if sc.RequestTimeout == 0 {
		sc.RequestTimeout = DefaultRequestTimeout
	}
	if sc.SimTimeout == 0 {
		sc.SimTimeout = DefaultSimTimeout
	}
	if sc.Metrics == nil {
		sc.Metrics = middleware.NewMetrics()
	}
	return nil
}
