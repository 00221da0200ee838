// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"fmt"
	"strings"
)

// ErrorKind classifies an [Error].
type ErrorKind int

// Error kinds.
const (
	KindUnknown ErrorKind = iota
	// KindDiscoveryFailed reports that the agent card could not be fetched.
	KindDiscoveryFailed
	// KindInvalidAgentCard reports that the agent card could not be decoded or validated.
	KindInvalidAgentCard
	// KindTransport reports a connection failure or a non-2xx HTTP response.
	KindTransport
	// KindSerialization reports a JSON encoding or decoding failure.
	KindSerialization
	// KindJSONRPC reports an error object returned by the remote agent.
	KindJSONRPC
	KindTaskNotFound
	KindTaskRejected
	KindTaskFailed
	KindAuthRequired
	// KindStreaming reports a failure while reading an event stream.
	KindStreaming
	KindPushNotification
	KindInvalidURL
	// KindTimeout reports that the caller's deadline expired.
	KindTimeout
	KindUnsupported
	KindInvalidTransition
)

var kindNames = [...]string{
	KindUnknown:           "unknown",
	KindDiscoveryFailed:   "discovery failed",
	KindInvalidAgentCard:  "invalid agent card",
	KindTransport:         "transport",
	KindSerialization:     "serialization",
	KindJSONRPC:           "json-rpc",
	KindTaskNotFound:      "task not found",
	KindTaskRejected:      "task rejected",
	KindTaskFailed:        "task failed",
	KindAuthRequired:      "authentication required",
	KindStreaming:         "streaming",
	KindPushNotification:  "push notification",
	KindInvalidURL:        "invalid url",
	KindTimeout:           "timeout",
	KindUnsupported:       "unsupported operation",
	KindInvalidTransition: "invalid transition",
}

// String implements [fmt.Stringer].
func (k ErrorKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
	return kindNames[k]
}

// Sentinel errors for use with [errors.Is]. Any [*Error] of the same kind matches.
var (
	ErrDiscoveryFailed   = &Error{Kind: KindDiscoveryFailed}
	ErrInvalidAgentCard  = &Error{Kind: KindInvalidAgentCard}
	ErrTransport         = &Error{Kind: KindTransport}
	ErrSerialization     = &Error{Kind: KindSerialization}
	ErrJSONRPC           = &Error{Kind: KindJSONRPC}
	ErrTaskNotFound      = &Error{Kind: KindTaskNotFound}
	ErrTaskRejected      = &Error{Kind: KindTaskRejected}
	ErrTaskFailed        = &Error{Kind: KindTaskFailed}
	ErrAuthRequired      = &Error{Kind: KindAuthRequired}
	ErrStreaming         = &Error{Kind: KindStreaming}
	ErrPushNotification  = &Error{Kind: KindPushNotification}
	ErrInvalidURL        = &Error{Kind: KindInvalidURL}
	ErrTimeout           = &Error{Kind: KindTimeout}
	ErrUnsupported       = &Error{Kind: KindUnsupported}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition}
)

// Error is the error type returned by A2A operations.
type Error struct {
	Kind ErrorKind
	// Op is the operation that failed, such as a JSON-RPC method name.
	Op string
	// StatusCode is the HTTP status code, if the failure came from an HTTP response.
	StatusCode int
	Msg        string
	Err        error
}

var _ error = (*Error)(nil)

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.StatusCode)
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an [*Error] of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// InvalidTransitionError is returned by [Task.Transition] when the task is terminal.
type InvalidTransitionError struct {
	From TaskState
	To   TaskState
}

// Error implements the error interface.
func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid task state transition from %s to %s", e.From, e.To)
}

// Is reports whether target is [ErrInvalidTransition].
func (e *InvalidTransitionError) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == KindInvalidTransition
}
