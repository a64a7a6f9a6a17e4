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


package perf

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseMode(t *testing.T) {
	for _, in := range []string{"", "cpu", " HEAP ", "allocs"} {
		if _, err := ParseMode(in); err != nil {
			t.Fatalf("ParseMode(%q): %v", in, err)
		}
	}
	if _, err := ParseMode("block"); err == nil {
		t.Fatalf("unknown mode should fail")
	}
}

func TestRunPProfWritesProfile(t *testing.T) {
	dir := t.TempDir()
	ran := 0
	for _, mode := range []string{"cpu", "heap", "allocs"} {
		if err := RunPProf(func() error { ran++; return nil }, mode, dir); err != nil {
			t.Fatalf("%s: %v", mode, err)
		}
		if st, err := os.Stat(filepath.Join(dir, mode+".pprof")); err != nil || st.Size() == 0 {
			t.Fatalf("%s profile missing: %v", mode, err)
		}
	}
	if ran != 3 {
		t.Fatalf("exe ran %d times", ran)
	}
}

func TestRunPProfPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	if err := RunPProf(func() error { return boom }, "", ""); !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
	if err := RunPProf(func() error { return boom }, "heap", t.TempDir()); !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
}
