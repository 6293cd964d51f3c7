// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package reactive implements a dependency-tracked value store.
//
// Values live in Objects. A Derivation is a function registered with the
// Store; every field it reads through the Reader passed to it is recorded as
// a dependency. Writing a field re-runs the derivations whose last run read
// that field. Propagation is synchronous: by the time Set returns, every
// affected derivation has run. Dependents run breadth-first: the direct
// dependents of a write run in registration order before the dependents of
// the writes they perform. Writes performed inside Batch are collected and
// dependents run once, when the outermost batch exits.
package reactive

import (
	"cmp"
	"slices"

	"github.com/open-policy-agent/grid/logging"
	"github.com/open-policy-agent/grid/metrics"
	"github.com/open-policy-agent/grid/util"
)

// DefaultMaxDepth is the number of times a single derivation may be
// re-triggered within one propagation before the store gives up.
const DefaultMaxDepth = 100

// Derivation computes derived state from the fields it reads through r.
type Derivation func(r *Reader)

// Store tracks derivations and the fields they depend on.
//
// A Store is not safe for concurrent use. All writes and registrations are
// expected to come from a single driver.
type Store struct {
	logger      logging.Logger
	metrics     metrics.Metrics
	maxDepth    int
	seq         uint64
	derivations map[string]*derivation
	pending     *util.FIFO[*derivation]
	batchDepth  int
	flushing    bool
}

type derivation struct {
	id      string
	seq     uint64
	fn      Derivation
	deps    map[dependency]struct{}
	queued  bool
	removed bool
}

type dependency struct {
	obj   *Object
	field string
}

// An Opt modifies store at instantiation.
type Opt func(*Store)

// WithLogger sets the logger used by the store.
func WithLogger(logger logging.Logger) Opt {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics the store records derivation runs into.
func WithMetrics(m metrics.Metrics) Opt {
	return func(s *Store) {
		s.metrics = m
	}
}

// WithMaxDepth sets how many times one derivation may be re-triggered within
// a single propagation. Values below 1 are ignored.
func WithMaxDepth(depth int) Opt {
	return func(s *Store) {
		if depth > 0 {
			s.maxDepth = depth
		}
	}
}

// New returns an empty Store.
func New(opts ...Opt) *Store {
	s := &Store{
		logger:      logging.NewNoOpLogger(),
		metrics:     metrics.NoOp(),
		maxDepth:    DefaultMaxDepth,
		derivations: map[string]*derivation{},
		pending:     util.NewFIFO[*derivation](),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewObject returns an Object bound to s, seeded with a copy of init.
func (s *Store) NewObject(init map[string]any) *Object {
	fields := make(map[string]any, len(init))
	for k, v := range init {
		fields[k] = v
	}
	return &Object{
		store:  s,
		fields: fields,
		subs:   map[string]map[*derivation]struct{}{},
	}
}

// Register adds a derivation under id and runs it once to record its
// dependencies.
func (s *Store) Register(id string, fn Derivation) error {
	if _, ok := s.derivations[id]; ok {
		return conflictError(id)
	}
	s.seq++
	d := &derivation{
		id:   id,
		seq:  s.seq,
		fn:   fn,
		deps: map[dependency]struct{}{},
	}
	s.derivations[id] = d
	s.propagate(func() {
		s.run(d)
	})
	return nil
}

// Unregister removes the derivation registered under id. Future writes to the
// fields it read no longer re-run it.
func (s *Store) Unregister(id string) error {
	d, ok := s.derivations[id]
	if !ok {
		return notFoundError(id)
	}
	s.clearDeps(d)
	d.removed = true
	delete(s.derivations, id)
	return nil
}

// Registered returns true if a derivation is registered under id.
func (s *Store) Registered(id string) bool {
	_, ok := s.derivations[id]
	return ok
}

// Len returns the number of registered derivations.
func (s *Store) Len() int {
	return len(s.derivations)
}

// Batch runs fn as a scoped atomic update. Derivations invalidated by writes
// inside fn are not run until the outermost batch exits, and then each runs
// at most once against the final state.
func (s *Store) Batch(name string, fn func()) {
	s.batchDepth++
	func() {
		defer func() { s.batchDepth-- }()
		fn()
	}()

	if s.batchDepth > 0 || s.flushing {
		return
	}

	if s.pending.Size() > 0 {
		s.logger.Debug("Flushing batch %q with %d pending derivation(s).", name, s.pending.Size())
	}
	s.metrics.Counter(metrics.ReactiveBatchFlush).Incr()
	s.propagate(func() {})
}

// notify queues every derivation depending on obj.field and, unless a batch
// or propagation is already in progress, runs them.
func (s *Store) notify(obj *Object, field string) {
	subs := obj.subs[field]
	if len(subs) == 0 {
		return
	}

	ds := make([]*derivation, 0, len(subs))
	for d := range subs {
		ds = append(ds, d)
	}
	slices.SortFunc(ds, func(a, b *derivation) int {
		return cmp.Compare(a.seq, b.seq)
	})

	for _, d := range ds {
		if !d.queued {
			d.queued = true
			s.pending.Push(d)
		}
	}

	if s.batchDepth > 0 || s.flushing {
		return
	}
	s.propagate(func() {})
}

// propagate runs fn and then drains the pending queue. Nested calls only run
// fn; the outermost call owns draining.
func (s *Store) propagate(fn func()) {
	if s.flushing {
		fn()
		return
	}

	s.flushing = true
	completed := false
	defer func() {
		s.flushing = false
		if !completed {
			s.reset()
		}
	}()

	fn()

	if s.batchDepth == 0 {
		s.drain()
	}
	completed = true
}

func (s *Store) drain() {
	runs := map[*derivation]int{}
	n := 0

	for {
		d, ok := s.pending.Pop()
		if !ok {
			break
		}
		d.queued = false
		if d.removed {
			continue
		}

		runs[d]++
		if runs[d] > s.maxDepth {
			err := recursionError(d.id, s.maxDepth)
			s.logger.Error("Aborting propagation: %v", err)
			panic(err)
		}

		s.run(d)
		n++
	}

	if n > 0 {
		s.metrics.Histogram(metrics.ReactiveFlushSize).Update(int64(n))
	}
}

func (s *Store) run(d *derivation) {
	s.clearDeps(d)
	s.metrics.Counter(metrics.ReactiveDerivation).Incr()
	d.fn(&Reader{d: d})
}

func (s *Store) clearDeps(d *derivation) {
	for dep := range d.deps {
		if subs, ok := dep.obj.subs[dep.field]; ok {
			delete(subs, d)
			if len(subs) == 0 {
				delete(dep.obj.subs, dep.field)
			}
		}
	}
	clear(d.deps)
}

// reset drops queued work after a propagation was aborted by a panic.
func (s *Store) reset() {
	for {
		d, ok := s.pending.Pop()
		if !ok {
			return
		}
		d.queued = false
	}
}

// Reader records the fields read by a running derivation.
type Reader struct {
	d *derivation
}

func (r *Reader) track(obj *Object, field string) {
	if r == nil || r.d == nil || r.d.removed {
		return
	}
	dep := dependency{obj: obj, field: field}
	if _, ok := r.d.deps[dep]; ok {
		return
	}
	r.d.deps[dep] = struct{}{}
	subs, ok := obj.subs[field]
	if !ok {
		subs = map[*derivation]struct{}{}
		obj.subs[field] = subs
	}
	subs[r.d] = struct{}{}
}
