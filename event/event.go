// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package event delivers cancelable notifications about grid state
// transitions to external listeners.
package event

import (
	"fmt"
	"slices"

	"github.com/open-policy-agent/grid/data"
)

// Type names a notification.
type Type string

// Notifications raised by the grid.
const (
	FocusChange   Type = "focusChange"
	EditingStart  Type = "editingStart"
	EditingFinish Type = "editingFinish"
	BeforeChange  Type = "beforeChange"
	AfterChange   Type = "afterChange"
	Check         Type = "check"
	Uncheck       Type = "uncheck"
)

// Event is a notification about a transition. Listeners veto the transition by
// calling Stop.
type Event struct {
	Type           Type
	RowKey         data.RowKey
	ColumnName     string
	Value          any
	PrevRowKey     data.RowKey
	PrevColumnName string

	stopped bool
}

// Stop vetoes the transition the event describes.
func (e *Event) Stop() {
	e.stopped = true
}

// IsStopped returns true if a listener vetoed the transition.
func (e *Event) IsStopped() bool {
	return e.stopped
}

func (e *Event) String() string {
	return fmt.Sprintf("%v(%q, %q)", e.Type, e.RowKey, e.ColumnName)
}

// Listener receives events.
type Listener func(*Event)

type listener struct {
	name  string
	types []Type
	fn    Listener
}

// Bus delivers events to listeners in registration order.
type Bus struct {
	listeners []listener
}

// NewBus returns an empty Bus.
func NewBus() *Bus {
	return &Bus{}
}

// Register adds a listener under name for the given types, or for every type
// if none are given. Registering under an existing name replaces it.
func (b *Bus) Register(name string, fn Listener, types ...Type) {
	l := listener{name: name, types: types, fn: fn}
	for i := range b.listeners {
		if b.listeners[i].name == name {
			b.listeners[i] = l
			return
		}
	}
	b.listeners = append(b.listeners, l)
}

// Unregister removes the listener registered under name.
func (b *Bus) Unregister(name string) {
	b.listeners = slices.DeleteFunc(b.listeners, func(l listener) bool {
		return l.name == name
	})
}

// Trigger delivers e to every listener interested in its type. It returns
// false if a listener stopped the event.
func (b *Bus) Trigger(e *Event) bool {
	for _, l := range slices.Clone(b.listeners) {
		if len(l.types) == 0 || slices.Contains(l.types, e.Type) {
			l.fn(e)
		}
	}
	return !e.stopped
}
