// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package reactive

import (
	"maps"
	"reflect"
	"slices"
)

// Object is a set of named fields whose reads are tracked and whose writes
// re-run dependent derivations.
type Object struct {
	store  *Store
	fields map[string]any
	subs   map[string]map[*derivation]struct{}
}

// Get returns the value of field and records it as a dependency of the
// derivation reading through r. A nil r reads without tracking.
func (o *Object) Get(r *Reader, field string) any {
	r.track(o, field)
	return o.fields[field]
}

// Lookup is like Get but also reports whether field is set.
func (o *Object) Lookup(r *Reader, field string) (any, bool) {
	r.track(o, field)
	v, ok := o.fields[field]
	return v, ok
}

// Peek returns the value of field without tracking.
func (o *Object) Peek(field string) any {
	return o.fields[field]
}

// Set assigns value to field. If the value differs from the current one,
// every derivation that read field re-runs before Set returns (or when the
// enclosing batch exits).
func (o *Object) Set(field string, value any) {
	if old, ok := o.fields[field]; ok && sameValue(old, value) {
		return
	}
	o.fields[field] = value
	o.store.notify(o, field)
}

// Delete removes field, notifying its dependents if it was set.
func (o *Object) Delete(field string) {
	if _, ok := o.fields[field]; !ok {
		return
	}
	delete(o.fields, field)
	o.store.notify(o, field)
}

// Keys returns the names of the set fields in sorted order.
func (o *Object) Keys() []string {
	var keys []string
	for k := range o.fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Snapshot returns a shallow copy of the fields without tracking.
func (o *Object) Snapshot() map[string]any {
	return maps.Clone(o.fields)
}

// Dependents returns the number of derivations currently depending on field.
func (o *Object) Dependents(field string) int {
	return len(o.subs[field])
}

// sameValue reports whether writing b over a can be skipped. Values of
// non-comparable types are compared structurally.
func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) {
		return false
	}
	if ta.Comparable() && comparableValue(a) {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

// comparableValue reports whether a can be compared with == without
// panicking. Comparable struct or array types may still hold non-comparable
// dynamic values in interface fields.
func comparableValue(a any) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	_ = a == a
	return true
}
