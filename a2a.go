// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package a2a provides the canonical data model of the Agent-to-Agent (A2A) protocol for Go.
//
// The package defines tasks and their lifecycle state machine, messages, artifacts,
// streaming task events, the JSON-RPC 2.0 envelope used on the wire, and the Agent Card
// discovery document. The HTTP transport lives in the client package.
package a2a

import (
	"fmt"

	"github.com/go-json-experiment/json"
)

// ProtocolVersion is the version of the A2A protocol implemented by this package.
const ProtocolVersion = "1.0"

// TaskState represents the state of a [Task] in its lifecycle.
//
//	SUBMITTED → WORKING → {COMPLETED, FAILED, CANCELED, REJECTED}   (terminal)
//	WORKING  ↔ INPUT_REQUIRED                                        (interrupted)
//	WORKING  ↔ AUTH_REQUIRED                                         (interrupted)
type TaskState string

const (
	// TaskStateSubmitted indicates the task has been submitted but not yet started.
	TaskStateSubmitted TaskState = "SUBMITTED"

	// TaskStateWorking indicates the task is actively being worked on.
	TaskStateWorking TaskState = "WORKING"

	// TaskStateCompleted indicates the task completed successfully.
	TaskStateCompleted TaskState = "COMPLETED"

	// TaskStateFailed indicates the task failed.
	TaskStateFailed TaskState = "FAILED"

	// TaskStateCanceled indicates the task was canceled by the client.
	TaskStateCanceled TaskState = "CANCELED"

	// TaskStateRejected indicates the task was rejected by the remote agent.
	TaskStateRejected TaskState = "REJECTED"

	// TaskStateInputRequired indicates the task is paused waiting for client input.
	TaskStateInputRequired TaskState = "INPUT_REQUIRED"

	// TaskStateAuthRequired indicates the task is paused waiting for authentication.
	TaskStateAuthRequired TaskState = "AUTH_REQUIRED"
)

// TaskStates lists every known [TaskState].
var TaskStates = []TaskState{
	TaskStateSubmitted,
	TaskStateWorking,
	TaskStateCompleted,
	TaskStateFailed,
	TaskStateCanceled,
	TaskStateRejected,
	TaskStateInputRequired,
	TaskStateAuthRequired,
}

// String implements [fmt.Stringer].
func (s TaskState) String() string {
	return string(s)
}

// Valid reports whether s is a known task state.
func (s TaskState) Valid() bool {
	switch s {
	case TaskStateSubmitted, TaskStateWorking, TaskStateCompleted, TaskStateFailed,
		TaskStateCanceled, TaskStateRejected, TaskStateInputRequired, TaskStateAuthRequired:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is permitted from s.
func (s TaskState) IsTerminal() bool {
	switch s {
	case TaskStateCompleted, TaskStateFailed, TaskStateCanceled, TaskStateRejected:
		return true
	default:
		return false
	}
}

// IsInterrupted reports whether s is a resumable pause waiting on the client.
func (s TaskState) IsInterrupted() bool {
	return s == TaskStateInputRequired || s == TaskStateAuthRequired
}

// UnmarshalJSON implements [json.Unmarshaler] and rejects unknown states.
func (s *TaskState) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	state := TaskState(v)
	if !state.Valid() {
		return fmt.Errorf("unknown task state %q", v)
	}
	*s = state
	return nil
}
