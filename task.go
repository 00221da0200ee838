// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"time"

	"github.com/google/uuid"
)

// Task is the stateful unit of work in the A2A protocol.
//
// A Task is owned by the remote agent; clients hold snapshots. The mutating methods
// assume a single owner and perform no locking.
type Task struct {
	ID        string         `json:"id"`
	ContextID string         `json:"contextId,omitzero"`
	State     TaskState      `json:"state"`
	Messages  []*Message     `json:"messages,omitempty"`
	Artifacts []*Artifact    `json:"artifacts,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"createdAt,omitzero"`
	UpdatedAt time.Time      `json:"updatedAt,omitzero"`
}

// NewTask creates a submitted task with a generated ID.
func NewTask() *Task {
	now := time.Now().UTC()
	return &Task{
		ID:        uuid.NewString(),
		State:     TaskStateSubmitted,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTaskWithContext creates a submitted task grouped under contextID.
func NewTaskWithContext(contextID string) *Task {
	t := NewTask()
	t.ContextID = contextID
	return t
}

// IsTerminal reports whether the task reached a final state.
func (t *Task) IsTerminal() bool {
	return t.State.IsTerminal()
}

// IsInterrupted reports whether the task waits for input or authentication.
func (t *Task) IsInterrupted() bool {
	return t.State.IsInterrupted()
}

// Transition moves the task to state.
//
// A task in a terminal state cannot transition; the returned [*InvalidTransitionError]
// leaves the task unchanged.
func (t *Task) Transition(state TaskState) error {
	if t.IsTerminal() {
		return &InvalidTransitionError{From: t.State, To: state}
	}
	t.State = state
	t.touch()
	return nil
}

// AddMessage appends m to the task history.
func (t *Task) AddMessage(m *Message) {
	t.Messages = append(t.Messages, m)
	t.touch()
}

// AddArtifact appends a to the task outputs.
func (t *Task) AddArtifact(a *Artifact) {
	t.Artifacts = append(t.Artifacts, a)
	t.touch()
}

// LastArtifact returns the most recently added artifact, or nil.
func (t *Task) LastArtifact() *Artifact {
	if len(t.Artifacts) == 0 {
		return nil
	}
	return t.Artifacts[len(t.Artifacts)-1]
}

// touch advances UpdatedAt strictly forward.
func (t *Task) touch() {
	now := time.Now().UTC()
	if !now.After(t.UpdatedAt) {
		now = t.UpdatedAt.Add(time.Nanosecond)
	}
	t.UpdatedAt = now
}

// TaskQueryParams filters a task listing.
type TaskQueryParams struct {
	ContextID string    `json:"contextId,omitzero"`
	State     TaskState `json:"state,omitzero"`
	Limit     int       `json:"limit,omitzero"`
	Cursor    string    `json:"cursor,omitzero"`
}

// TaskIDParams identifies a single task.
type TaskIDParams struct {
	TaskID string `json:"taskId"`
}

// TaskOutcomeError reports the outcome of a task snapshot as an error.
//
// It returns nil unless the task is REJECTED, FAILED, or AUTH_REQUIRED, in which case
// the error matches [ErrTaskRejected], [ErrTaskFailed], or [ErrAuthRequired].
// The text of the last agent message, if any, becomes the error message.
func TaskOutcomeError(t *Task) error {
	var kind ErrorKind
	switch t.State {
	case TaskStateRejected:
		kind = KindTaskRejected
	case TaskStateFailed:
		kind = KindTaskFailed
	case TaskStateAuthRequired:
		kind = KindAuthRequired
	default:
		return nil
	}

	msg := "task " + t.ID
	for i := len(t.Messages) - 1; i >= 0; i-- {
		if m := t.Messages[i]; m != nil && m.Role == RoleAgent {
			if text := m.TextContent(); text != "" {
				msg = text
			}
			break
		}
	}
	return &Error{Kind: kind, Msg: msg}
}
