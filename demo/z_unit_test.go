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


package demo

import (
	"context"
	"testing"

	"github.com/zintix-labs/pairlab/roster"
	"github.com/zintix-labs/pairlab/server/logger"
)

func TestDemoCatalog(t *testing.T) {
	cat, err := New()
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	campus, err := cat.RosterByID(CampusRID)
	if err != nil {
		t.Fatalf("campus: %v", err)
	}
	if campus.Name != "campus" || campus.Len() != 12 || campus.Filter != roster.FilterScore {
		t.Fatalf("unexpected campus roster: %s len=%d filter=%s", campus.Name, campus.Len(), campus.Filter)
	}
	club, err := cat.RosterByName("club")
	if err != nil {
		t.Fatalf("club: %v", err)
	}
	if club.ID != ClubRID || club.Filter != roster.FilterOrientation || club.Len() != 6 {
		t.Fatalf("unexpected club roster: id=%d len=%d filter=%s", club.ID, club.Len(), club.Filter)
	}
	if g := club.Members[2].Gender; g != roster.Nonbinary {
		t.Fatalf("Non-binary alias should parse, got %v", g)
	}
}

func TestDemoLab(t *testing.T) {
	lab, err := NewLab()
	if err != nil {
		t.Fatalf("new lab: %v", err)
	}
	sum, err := lab.Summary()
	if err != nil || len(sum) != 2 {
		t.Fatalf("summary: %v %+v", err, sum)
	}
	pop, err := lab.Population(context.Background(), CampusRID)
	if err != nil {
		t.Fatalf("population: %v", err)
	}
	if pop.Input.Len() != 12 {
		t.Fatalf("want 12 members, got %d", pop.Input.Len())
	}
}

func TestDemoServerConfig(t *testing.T) {
	sCfg, err := NewServerConfigWith(logger.NewDefaultLogger(logger.ModeSilence))
	if err != nil {
		t.Fatalf("server config: %v", err)
	}
	if err := sCfg.Valid(); err != nil {
		t.Fatalf("demo config should be valid: %v", err)
	}
	if sCfg.PoolSize != 2 || sCfg.Metrics == nil {
		t.Fatalf("defaults not applied: %+v", sCfg)
	}
}
