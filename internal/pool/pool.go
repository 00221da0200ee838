// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package pool provides typed object pools for the byte buffers used to read
// response bodies and render output.
package pool

import (
	"bytes"
	"sync"
)

// maxBufferSize bounds the capacity of a buffer returned to [Buffers]. Larger
// buffers are dropped so one big response does not pin its memory.
const maxBufferSize = 64 << 10

// Resetter is implemented by values that can be cleared for reuse.
type Resetter interface {
	Reset()
}

// Pool is a strongly typed [sync.Pool].
type Pool[T any] struct {
	p    sync.Pool
	keep func(T) bool
}

// New returns a Pool that calls fn when it is empty.
func New[T any](fn func() T) *Pool[T] {
	return &Pool[T]{
		p: sync.Pool{
			New: func() any { return fn() },
		},
	}
}

// Get takes a T from the pool, creating one if the pool is empty.
func (p *Pool[T]) Get() T {
	return p.p.Get().(T)
}

// Put resets x if it is a [Resetter] and returns it to the pool.
func (p *Pool[T]) Put(x T) {
	if p.keep != nil && !p.keep(x) {
		return
	}
	if r, ok := any(x).(Resetter); ok {
		r.Reset()
	}
	p.p.Put(x)
}

// Buffers pools [*bytes.Buffer] values.
var Buffers = &Pool[*bytes.Buffer]{
	p: sync.Pool{
		New: func() any { return new(bytes.Buffer) },
	},
	keep: func(b *bytes.Buffer) bool { return b.Cap() <= maxBufferSize },
}
