// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestWithFieldsOverrides(t *testing.T) {

	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)
	logger.SetJSONFormatter()

	logger.WithFields(map[string]any{"context": "contextvalue"}).
		WithFields(map[string]any{"context": "changedcontextvalue"}).
		Info("msg")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatal(err)
	}

	if entry["context"] != "changedcontextvalue" {
		t.Fatalf("expected overridden field, got %v", entry)
	}
}

func TestWithFieldsMerges(t *testing.T) {

	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)
	logger.SetJSONFormatter()

	logger.WithFields(map[string]any{"context": "contextvalue"}).
		WithFields(map[string]any{"anothercontext": "anothercontextvalue"}).
		Info("msg")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatal(err)
	}

	if entry["context"] != "contextvalue" || entry["anothercontext"] != "anothercontextvalue" {
		t.Fatalf("expected merged fields, got %v", entry)
	}
}

func TestLevelFiltering(t *testing.T) {

	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)
	logger.SetLevel(Warn)

	logger.Debug("hidden %d", 1)
	logger.Info("hidden")
	logger.Warn("shown %v", "warn")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected debug and info to be filtered, got %q", out)
	}
	if !strings.Contains(out, "shown warn") {
		t.Fatalf("expected warn message, got %q", out)
	}
	if logger.GetLevel() != Warn {
		t.Fatalf("expected warn level, got %v", logger.GetLevel())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
		wantErr  bool
	}{
		{"debug", Debug, false},
		{"INFO", Info, false},
		{"", Info, false},
		{"warning", Warn, false},
		{"error", Error, false},
		{"loud", Info, true},
	}

	for _, tc := range tests {
		lvl, err := ParseLevel(tc.input)
		if (err != nil) != tc.wantErr {
			t.Fatalf("%q: unexpected error state: %v", tc.input, err)
		}
		if lvl != tc.expected {
			t.Fatalf("%q: expected %v but got %v", tc.input, tc.expected, lvl)
		}
	}
}
