// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package event

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBusTrigger(t *testing.T) {
	b := NewBus()
	var seen []string

	b.Register("all", func(e *Event) { seen = append(seen, "all:"+string(e.Type)) })
	b.Register("focus", func(e *Event) { seen = append(seen, "focus") }, FocusChange)
	b.Register("veto", func(e *Event) {
		if e.RowKey == "locked" {
			e.Stop()
		}
	}, FocusChange, EditingStart)

	if !b.Trigger(&Event{Type: FocusChange, RowKey: "1"}) {
		t.Fatal("expected event to proceed")
	}
	if b.Trigger(&Event{Type: EditingStart, RowKey: "locked"}) {
		t.Fatal("expected event to be stopped")
	}
	if !b.Trigger(&Event{Type: AfterChange, RowKey: "locked"}) {
		t.Fatal("expected listener to ignore other types")
	}

	exp := []string{"all:focusChange", "focus", "all:editingStart", "all:afterChange"}
	if diff := cmp.Diff(exp, seen); diff != "" {
		t.Fatalf("unexpected deliveries (-want, +got):\n%s", diff)
	}
}

func TestBusRegisterReplacesAndUnregister(t *testing.T) {
	b := NewBus()
	n := 0

	b.Register("x", func(*Event) { n += 1 })
	b.Register("x", func(*Event) { n += 10 })
	b.Trigger(&Event{Type: Check})
	if n != 10 {
		t.Fatalf("expected replaced listener only, got %d", n)
	}

	b.Unregister("x")
	b.Trigger(&Event{Type: Check})
	if n != 10 {
		t.Fatalf("expected no delivery after unregister, got %d", n)
	}
}
