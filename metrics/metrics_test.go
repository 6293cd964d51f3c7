// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package metrics

import (
	"encoding/json"
	"testing"
	"time"
)

func TestMetricsTimer(t *testing.T) {
	m := New()
	m.Timer("foo").Start()
	time.Sleep(time.Millisecond)
	m.Timer("foo").Stop()
	if m.Timer("foo").Int64() == 0 {
		t.Fatalf("Expected foo timer to be non-zero: %v", m.All())
	}
	m.Clear()

	if len(m.All()) > 0 {
		t.Fatalf("Expected metrics to be cleared, but found %v", m.All())
	}
}

func TestMetricsTimerDoubleStop(t *testing.T) {
	m := New()
	m.Timer("foo").Start()

	time.Sleep(time.Millisecond)
	m.Timer("foo").Stop()
	t1 := m.Timer("foo").Int64()

	time.Sleep(time.Millisecond)
	if delta := m.Timer("foo").Stop(); delta != 0 {
		t.Fatalf("Expected zero delta on second stop, got %v", delta)
	}
	t2 := m.Timer("foo").Int64()

	if t1 != t2 {
		t.Fatalf("Unexpected difference in stopped timer values: %v, %v", t1, t2)
	}
}

func TestMetricsCounter(t *testing.T) {
	m := New()
	m.Counter(RowSpanRelink).Incr()
	m.Counter(RowSpanRelink).Add(4)

	if got := m.Counter(RowSpanRelink).Int64(); got != 5 {
		t.Fatalf("Expected counter to be 5, got %v", got)
	}

	all := m.All()
	if all["counter_"+RowSpanRelink] != uint64(5) {
		t.Fatalf("Unexpected metrics: %v", all)
	}
}

func TestMetricsHistogram(t *testing.T) {
	m := New()
	for _, v := range []int64{1, 2, 3, 4} {
		m.Histogram(ReactiveFlushSize).Update(v)
	}

	value := m.Histogram(ReactiveFlushSize).Value().(map[string]any)
	if value["count"] != int64(4) || value["max"] != int64(4) {
		t.Fatalf("Unexpected histogram value: %v", value)
	}
}

func TestMetricsSortedAndJSON(t *testing.T) {
	m := New()
	m.Counter("b").Incr()
	m.Counter("a").Incr()

	sorted := Sorted(m)
	if len(sorted) != 2 || sorted[0].Key != "counter_a" || sorted[1].Key != "counter_b" {
		t.Fatalf("Unexpected order: %v", sorted)
	}

	bs, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(bs, &decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded) != 2 {
		t.Fatalf("Unexpected JSON: %s", bs)
	}
}

func TestNoOp(t *testing.T) {
	m := NoOp()
	m.Counter("x").Incr()
	m.Timer("y").Start()
	if m.Timer("y").Stop() != 0 || m.Counter("x").Int64() != 0 || m.All() != nil {
		t.Fatal("Expected no-op metrics to record nothing")
	}
}
