package logger

import (
	"errors"
	"strconv"
	"strings"
	"testing"
)

func TestLogAppendsToBuffer(t *testing.T) {
	EnsureInit()

	Log("switched to %s", "alice@lemmy.world")
	LogError("SWITCH_ACCOUNT", "bob", errors.New("boom"))

	logs := GetLogs()
	if len(logs) < 2 {
		t.Fatalf("expected at least 2 entries, got %d", len(logs))
	}

	info := logs[len(logs)-2].Message
	if info != "[INFO] switched to alice@lemmy.world" {
		t.Errorf("unexpected info entry %q", info)
	}

	errEntry := logs[len(logs)-1].Message
	if !strings.HasPrefix(errEntry, "[ERROR] SWITCH_ACCOUNT: bob") {
		t.Errorf("unexpected error entry %q", errEntry)
	}
}

func TestBufferIsBounded(t *testing.T) {
	EnsureInit()

	for i := 0; i < maxBufferSize+25; i++ {
		Log("entry %d", i)
	}

	logs := GetLogs()
	if len(logs) != maxBufferSize {
		t.Fatalf("expected buffer of %d, got %d", maxBufferSize, len(logs))
	}

	last := logs[len(logs)-1].Message
	want := "[INFO] entry " + strconv.Itoa(maxBufferSize+24)
	if last != want {
		t.Errorf("last entry = %q, want %q", last, want)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]string{
		"debug":   "debug",
		"WARN":    "warn",
		"warning": "warn",
		"error":   "error",
		"":        "info",
		"bogus":   "info",
	}

	for in, want := range tests {
		if got := parseLevel(in).String(); got != want {
			t.Errorf("parseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
