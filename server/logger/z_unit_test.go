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


package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseMode(t *testing.T) {
	for in, want := range map[string]LogMode{"dev": ModeDev, " PROD ": ModeProd, "Silence": ModeSilence} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %v, %v", in, got, err)
		}
		if got.String() != strings.ToLower(strings.TrimSpace(in)) {
			t.Fatalf("String() = %q", got.String())
		}
	}
	if _, err := ParseMode("verbose"); err == nil {
		t.Fatalf("unknown mode should fail")
	}
}

func TestAsyncHandlerFlushesOnClose(t *testing.T) {
	var buf bytes.Buffer
	h := NewAsyncHandler(slog.NewTextHandler(&buf, nil), 16)
	if !h.Ready() {
		t.Fatalf("handler not ready")
	}
	log := slog.New(h)
	log.Info("match done", "pairs", 3)
	h.Close()
	if !strings.Contains(buf.String(), "pairs=3") {
		t.Fatalf("record not flushed: %q", buf.String())
	}
}

func TestAsyncHandlerDropsAfterClose(t *testing.T) {
	var buf bytes.Buffer
	h := NewAsyncHandler(slog.NewTextHandler(&buf, nil), 4)
	log := slog.New(h).With("roster", "campus")
	h.Close()
	h.Close()
	log.Info("late")
	if h.Dropped() != 1 {
		t.Fatalf("want 1 dropped, got %d", h.Dropped())
	}
	if strings.Contains(buf.String(), "late") {
		t.Fatalf("record written after close: %q", buf.String())
	}
}

func TestNewHandlerModes(t *testing.T) {
	var buf bytes.Buffer
	NewLoggerTo(&buf, ModeProd).Debug("hidden")
	NewLoggerTo(&buf, ModeProd).Info("shown", "rid", 1)
	if out := buf.String(); strings.Contains(out, "hidden") || !strings.Contains(out, `"rid":1`) {
		t.Fatalf("prod handler output: %q", out)
	}
	buf.Reset()
	NewLoggerTo(&buf, ModeSilence).Error("nothing")
	if buf.Len() != 0 {
		t.Fatalf("silence wrote %q", buf.String())
	}
}
