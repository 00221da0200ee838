// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"errors"
	"io"
	"iter"
	"sync"

	"github.com/agentoven/a2a-go"
	"github.com/agentoven/a2a-go/internal/sse"
)

// Stream is the event stream of a streaming call.
//
// Items are pulled by the consumer: each call to [Stream.Next] reads from the
// connection until the next item is available. An item is either an event or an
// error; a malformed event does not end the stream. Use it like a [bufio.Scanner]:
//
//	defer s.Close()
//	for s.Next() {
//		if err := s.Err(); err != nil {
//			// handle or stop
//			continue
//		}
//		ev := s.Event()
//		...
//	}
//
// A Stream is not safe for concurrent use.
type Stream struct {
	method  string
	body    io.ReadCloser
	dec     *sse.Decoder
	onEvent func(*a2a.TaskEvent)
	onClose func(error)

	event    *a2a.TaskEvent
	err      error
	firstErr error
	state    a2a.TaskState
	chunks   a2a.ChunkAssembler
	done     bool

	closeOnce sync.Once
	closeErr  error
}

// Next advances to the next item and reports whether there is one. Once it
// returns false the stream is exhausted and closed.
func (s *Stream) Next() bool {
	if s.done {
		return false
	}

	ev, err := s.dec.Next()
	if err == io.EOF {
		s.event, s.err = nil, nil
		s.Close()
		return false
	}
	if err != nil {
		s.event, s.err = nil, s.wrap(err)
		if s.firstErr == nil {
			s.firstErr = s.err
		}
		return true
	}

	s.event, s.err = ev, nil
	if ev.Type == a2a.EventStateChanged {
		s.state = ev.State
	}
	s.chunks.Add(ev)
	if s.onEvent != nil {
		s.onEvent(ev)
	}
	return true
}

func (s *Stream) wrap(err error) error {
	var rpcErr *a2a.JSONRPCError
	if errors.As(err, &rpcErr) {
		return &a2a.Error{Kind: a2a.KindJSONRPC, Op: s.method, Err: rpcErr}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &a2a.Error{Kind: a2a.KindTimeout, Op: s.method, Err: err}
	}
	return err
}

// Event returns the current event, or nil if the current item is an error.
func (s *Stream) Event() *a2a.TaskEvent {
	return s.event
}

// Err returns the error of the current item, or nil if it is an event.
func (s *Stream) Err() error {
	return s.err
}

// State returns the most recent state announced by a stateChanged event.
func (s *Stream) State() a2a.TaskState {
	return s.state
}

// Chunks returns the artifact chunks received so far, assembled per artifact.
func (s *Stream) Chunks() *a2a.ChunkAssembler {
	return &s.chunks
}

// All returns an iterator over the remaining items. The stream is closed when
// the loop ends, including when it is left early.
func (s *Stream) All() iter.Seq2[*a2a.TaskEvent, error] {
	return func(yield func(*a2a.TaskEvent, error) bool) {
		defer s.Close()
		for s.Next() {
			if !yield(s.event, s.err) {
				return
			}
		}
	}
}

// WaitForCompletion consumes the stream and returns the last announced task state.
// It stops at the first error item and returns it.
func (s *Stream) WaitForCompletion() (a2a.TaskState, error) {
	defer s.Close()
	for s.Next() {
		if err := s.Err(); err != nil {
			return s.state, err
		}
	}
	return s.state, nil
}

// Close terminates the HTTP connection. It is safe to call more than once.
// To interrupt a blocked [Stream.Next], cancel the context of the call instead.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.done = true
		s.closeErr = s.body.Close()
		if s.onClose != nil {
			s.onClose(s.firstErr)
		}
	})
	return s.closeErr
}
