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
	"testing"

	"github.com/zintix-labs/pairlab"
	"github.com/zintix-labs/pairlab/demo/rosters"
	"github.com/zintix-labs/pairlab/sdk/core"
	"github.com/zintix-labs/pairlab/server/logger"
)

func TestValidDefaultsToSyncLogger(t *testing.T) {
	lab, err := pairlab.NewAuto(core.Default(), pairlab.Rosters(rosters.FS))
	if err != nil {
		t.Fatalf("new lab: %v", err)
	}
	sc := &SvrCfg{Lab: lab, RateLimit: 5}
	if err := sc.Valid(); err != nil {
		t.Fatalf("valid: %v", err)
	}
	if sc.Log == nil {
		t.Fatalf("logger not defaulted")
	}
	if _, ok := sc.Log.Handler().(*logger.AsyncHandler); ok {
		t.Fatalf("default logger must not own an unclosed async handler")
	}
	if sc.Burst != 5 || sc.Metrics == nil {
		t.Fatalf("defaults not applied: burst=%d metrics=%v", sc.Burst, sc.Metrics)
	}
}

func TestValidRejects(t *testing.T) {
	var nilCfg *SvrCfg
	if err := nilCfg.Valid(); err == nil {
		t.Fatalf("nil config should fail")
	}
	if err := (&SvrCfg{Log: logger.NewDefaultLogger(logger.ModeSilence)}).Valid(); err == nil {
		t.Fatalf("missing lab should fail")
	}
}
