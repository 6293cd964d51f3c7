// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package util

// FIFO represents a simple FIFO queue.
type FIFO[T any] struct {
	front *queueNode[T]
	back  *queueNode[T]
	size  int
}

type queueNode[T any] struct {
	v    T
	next *queueNode[T]
}

// NewFIFO returns a new FIFO queue containing elements ts starting with the
// left-most argument at the front.
func NewFIFO[T any](ts ...T) *FIFO[T] {
	s := &FIFO[T]{}
	for i := range ts {
		s.Push(ts[i])
	}
	return s
}

// Push adds a new element onto the back of the queue.
func (s *FIFO[T]) Push(t T) {
	node := &queueNode[T]{v: t}
	if s.front == nil {
		s.front = node
		s.back = node
	} else {
		s.back.next = node
		s.back = node
	}
	s.size++
}

// Peek returns the front element of the queue.
func (s *FIFO[T]) Peek() (T, bool) {
	if s.front == nil {
		var zero T
		return zero, false
	}
	return s.front.v, true
}

// Pop returns the front element of the queue and removes it.
func (s *FIFO[T]) Pop() (T, bool) {
	if s.front == nil {
		var zero T
		return zero, false
	}
	node := s.front
	if node.next == nil {
		s.front = nil
		s.back = nil
	} else {
		s.front = node.next
	}
	s.size--
	return node.v, true
}

// Size returns the size of the queue.
func (s *FIFO[T]) Size() int {
	return s.size
}
